// Package chain talks to the Base Sepolia testnet. The server never signs or
// broadcasts transactions; clients do, and this package verifies the results
// and reads balances.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/shopspring/decimal"

	"github.com/splitbase/backend/internal/models"
)

var (
	// ErrTxNotFound is returned when the transaction hash is unknown to the
	// node or not yet mined. Callers may retry.
	ErrTxNotFound = errors.New("transaction not found on chain")

	// ErrTransferMismatch is returned when the on-chain transfer does not
	// match the claimed settlement (wrong parties, amount, or a reverted
	// transaction). Not retryable.
	ErrTransferMismatch = errors.New("on-chain transfer does not match settlement")

	// ErrUnavailable is returned when the RPC endpoint cannot be reached.
	// Callers may retry.
	ErrUnavailable = errors.New("chain RPC unavailable")
)

const (
	nativeDecimals = 18
	tokenDecimals  = 6 // USDC

	// ERC-20 selectors.
	selTransfer  = "0xa9059cbb"
	selBalanceOf = "0x70a08231"
)

// Transfer describes the on-chain payment a settlement claims to have made.
type Transfer struct {
	Hash   string
	From   string
	To     string
	Amount decimal.Decimal
	Method models.PaymentMethod
}

// Gateway reads balances and verifies transfers.
type Gateway interface {
	// NativeBalance returns the address's native coin balance in ether units.
	NativeBalance(ctx context.Context, address string) (decimal.Decimal, error)

	// TokenBalance returns the address's USDC balance in token units.
	TokenBalance(ctx context.Context, address string) (decimal.Decimal, error)

	// VerifyTransfer checks that the transaction identified by t.Hash is a
	// successful transfer from t.From to t.To of at least t.Amount. Returns
	// ErrTxNotFound while the transaction is unknown or unmined,
	// ErrTransferMismatch when it does not match.
	VerifyTransfer(ctx context.Context, t Transfer) error
}

// Client is the ethclient-backed Gateway.
type Client struct {
	eth     *ethclient.Client
	chainID *big.Int
	token   common.Address
}

var _ Gateway = (*Client)(nil)

// Dial connects to the RPC endpoint.
func Dial(ctx context.Context, rpcEndpoint string, chainID int64, tokenContract string) (*Client, error) {
	eth, err := ethclient.DialContext(ctx, rpcEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RPC endpoint: %w", err)
	}

	return &Client{
		eth:     eth,
		chainID: big.NewInt(chainID),
		token:   common.HexToAddress(tokenContract),
	}, nil
}

// Close releases the RPC connection.
func (c *Client) Close() {
	c.eth.Close()
}

// NativeBalance returns the address's native coin balance in ether units.
func (c *Client) NativeBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	wei, err := c.eth.BalanceAt(ctx, common.HexToAddress(address), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return decimal.NewFromBigInt(wei, -nativeDecimals), nil
}

// TokenBalance returns the address's USDC balance in token units.
func (c *Client) TokenBalance(ctx context.Context, address string) (decimal.Decimal, error) {
	data := append(common.FromHex(selBalanceOf), common.LeftPadBytes(common.HexToAddress(address).Bytes(), 32)...)

	result, err := c.eth.CallContract(ctx, callMsg(c.token, data), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(result) < 32 {
		return decimal.Zero, fmt.Errorf("unexpected balanceOf result length %d", len(result))
	}

	raw := new(big.Int).SetBytes(result[:32])
	return decimal.NewFromBigInt(raw, -tokenDecimals), nil
}

// VerifyTransfer checks a client-broadcast settlement payment against the
// chain.
func (c *Client) VerifyTransfer(ctx context.Context, t Transfer) error {
	hash := common.HexToHash(t.Hash)

	tx, pending, err := c.eth.TransactionByHash(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return ErrTxNotFound
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if pending {
		return ErrTxNotFound
	}

	receipt, err := c.eth.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return ErrTxNotFound
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%w: transaction reverted", ErrTransferMismatch)
	}

	sender, err := types.Sender(types.LatestSignerForChainID(c.chainID), tx)
	if err != nil {
		return fmt.Errorf("failed to recover transaction sender: %w", err)
	}
	if !addressEqual(sender.Hex(), t.From) {
		return fmt.Errorf("%w: sent by %s", ErrTransferMismatch, models.ShortAddress(strings.ToLower(sender.Hex())))
	}

	switch t.Method {
	case models.PayToken:
		return verifyTokenTransfer(tx, c.token, t)
	default:
		return verifyNativeTransfer(tx, t)
	}
}

func verifyNativeTransfer(tx *types.Transaction, t Transfer) error {
	if tx.To() == nil || !addressEqual(tx.To().Hex(), t.To) {
		return fmt.Errorf("%w: wrong recipient", ErrTransferMismatch)
	}

	value := decimal.NewFromBigInt(tx.Value(), -nativeDecimals)
	if value.LessThan(t.Amount) {
		return fmt.Errorf("%w: transferred %s, settlement needs %s", ErrTransferMismatch, value, t.Amount)
	}

	return nil
}

func verifyTokenTransfer(tx *types.Transaction, token common.Address, t Transfer) error {
	if tx.To() == nil || *tx.To() != token {
		return fmt.Errorf("%w: not a token transfer", ErrTransferMismatch)
	}

	data := tx.Data()
	// transfer(address,uint256): 4-byte selector + two 32-byte words.
	if len(data) != 68 || !strings.EqualFold(common.Bytes2Hex(data[:4]), selTransfer[2:]) {
		return fmt.Errorf("%w: not a token transfer", ErrTransferMismatch)
	}

	recipient := common.BytesToAddress(data[4:36])
	if !addressEqual(recipient.Hex(), t.To) {
		return fmt.Errorf("%w: wrong recipient", ErrTransferMismatch)
	}

	value := decimal.NewFromBigInt(new(big.Int).SetBytes(data[36:68]), -tokenDecimals)
	if value.LessThan(t.Amount) {
		return fmt.Errorf("%w: transferred %s, settlement needs %s", ErrTransferMismatch, value, t.Amount)
	}

	return nil
}

func addressEqual(a, b string) bool {
	return strings.EqualFold(a, b)
}

func callMsg(to common.Address, data []byte) ethereum.CallMsg {
	return ethereum.CallMsg{To: &to, Data: data}
}
