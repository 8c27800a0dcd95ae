package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/splitbase/backend/internal/currency"
	"github.com/splitbase/backend/internal/models"
	"github.com/splitbase/backend/internal/storage"
)

var (
	// ErrNoChallenge is returned when verification is attempted without an
	// outstanding challenge (never issued, already used, or expired).
	ErrNoChallenge = errors.New("no outstanding challenge for address")

	// ErrInvalidSignature is returned when the signature does not recover to
	// the claimed wallet address.
	ErrInvalidSignature = errors.New("signature does not match address")
)

// Authenticator runs the challenge/response sign-in flow.
type Authenticator struct {
	store  storage.Store
	nonces *NonceStore
	tokens *JWTManager
	logger *slog.Logger
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(store storage.Store, nonces *NonceStore, tokens *JWTManager, logger *slog.Logger) *Authenticator {
	return &Authenticator{
		store:  store,
		nonces: nonces,
		tokens: tokens,
		logger: logger,
	}
}

// Challenge issues a message for the wallet to sign. The message embeds a
// single-use nonce so signatures cannot be replayed.
func (a *Authenticator) Challenge(address string) (string, error) {
	address = strings.ToLower(address)
	nonce, err := a.nonces.Issue(address)
	if err != nil {
		return "", err
	}

	return challengeMessage(address, nonce), nil
}

// Verify checks the signature over the outstanding challenge and, on success,
// returns a session token and the user record. The user is created on first
// sign-in.
func (a *Authenticator) Verify(ctx context.Context, address, signature string) (string, *models.User, error) {
	address = strings.ToLower(address)

	nonce, ok := a.nonces.Consume(address)
	if !ok {
		return "", nil, ErrNoChallenge
	}

	if err := verifySignature(address, challengeMessage(address, nonce), signature); err != nil {
		a.logger.Warn("wallet signature rejected", "address", models.ShortAddress(address))
		return "", nil, err
	}

	user, err := a.store.GetUserByWallet(ctx, address)
	if errors.Is(err, storage.ErrNotFound) {
		user = &models.User{
			WalletAddress:   address,
			DefaultCurrency: currency.DefaultCode,
		}
		if err := a.store.CreateUser(ctx, user); err != nil {
			return "", nil, fmt.Errorf("failed to create user: %w", err)
		}
		a.logger.Info("registered new wallet", "address", models.ShortAddress(address))
	} else if err != nil {
		return "", nil, fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := a.tokens.Generate(user.ID, user.WalletAddress)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func challengeMessage(address, nonce string) string {
	return fmt.Sprintf("Sign in to Splitbase\n\nWallet: %s\nNonce: %s", address, nonce)
}

// verifySignature recovers the signer of an EIP-191 personal-sign signature
// and compares it to the claimed address.
func verifySignature(address, message, signature string) error {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return fmt.Errorf("%w: malformed signature", ErrInvalidSignature)
	}
	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("%w: signature must be %d bytes", ErrInvalidSignature, crypto.SignatureLength)
	}

	// Wallets return V as 27/28; go-ethereum expects 0/1.
	sig = append([]byte{}, sig...)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return fmt.Errorf("%w: recovery failed", ErrInvalidSignature)
	}

	recovered := strings.ToLower(crypto.PubkeyToAddress(*pub).Hex())
	if recovered != address {
		return ErrInvalidSignature
	}

	return nil
}
