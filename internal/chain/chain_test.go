package chain

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"

	"github.com/splitbase/backend/internal/models"
)

var (
	testToken     = common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e")
	testRecipient = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func nativeTx(to common.Address, wei *big.Int) *types.Transaction {
	return types.NewTx(&types.LegacyTx{To: &to, Value: wei})
}

func tokenTx(contract, to common.Address, amount *big.Int) *types.Transaction {
	data := common.FromHex(selTransfer)
	data = append(data, common.LeftPadBytes(to.Bytes(), 32)...)
	data = append(data, common.LeftPadBytes(amount.Bytes(), 32)...)
	return types.NewTx(&types.LegacyTx{To: &contract, Data: data})
}

func TestVerifyNativeTransfer(t *testing.T) {
	oneEther := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

	tests := []struct {
		name    string
		tx      *types.Transaction
		want    Transfer
		wantErr error
	}{
		{
			name: "exact amount to the right recipient",
			tx:   nativeTx(testRecipient, oneEther),
			want: Transfer{To: testRecipient.Hex(), Amount: decimal.NewFromInt(1)},
		},
		{
			name: "overpayment accepted",
			tx:   nativeTx(testRecipient, new(big.Int).Mul(oneEther, big.NewInt(2))),
			want: Transfer{To: testRecipient.Hex(), Amount: decimal.NewFromInt(1)},
		},
		{
			name:    "underpayment rejected",
			tx:      nativeTx(testRecipient, big.NewInt(1)),
			want:    Transfer{To: testRecipient.Hex(), Amount: decimal.NewFromInt(1)},
			wantErr: ErrTransferMismatch,
		},
		{
			name:    "wrong recipient rejected",
			tx:      nativeTx(testToken, oneEther),
			want:    Transfer{To: testRecipient.Hex(), Amount: decimal.NewFromInt(1)},
			wantErr: ErrTransferMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifyNativeTransfer(tt.tx, tt.want)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("verifyNativeTransfer() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestVerifyTokenTransfer(t *testing.T) {
	// 30 USDC at 6 decimals.
	thirty := big.NewInt(30_000_000)

	tests := []struct {
		name    string
		tx      *types.Transaction
		want    Transfer
		wantErr error
	}{
		{
			name: "valid transfer",
			tx:   tokenTx(testToken, testRecipient, thirty),
			want: Transfer{To: testRecipient.Hex(), Amount: decimal.NewFromInt(30), Method: models.PayToken},
		},
		{
			name:    "wrong contract rejected",
			tx:      tokenTx(testRecipient, testRecipient, thirty),
			want:    Transfer{To: testRecipient.Hex(), Amount: decimal.NewFromInt(30), Method: models.PayToken},
			wantErr: ErrTransferMismatch,
		},
		{
			name:    "wrong recipient rejected",
			tx:      tokenTx(testToken, testToken, thirty),
			want:    Transfer{To: testRecipient.Hex(), Amount: decimal.NewFromInt(30), Method: models.PayToken},
			wantErr: ErrTransferMismatch,
		},
		{
			name:    "underpayment rejected",
			tx:      tokenTx(testToken, testRecipient, big.NewInt(29_000_000)),
			want:    Transfer{To: testRecipient.Hex(), Amount: decimal.NewFromInt(30), Method: models.PayToken},
			wantErr: ErrTransferMismatch,
		},
		{
			name:    "plain value transfer is not a token transfer",
			tx:      nativeTx(testToken, big.NewInt(1)),
			want:    Transfer{To: testRecipient.Hex(), Amount: decimal.NewFromInt(30), Method: models.PayToken},
			wantErr: ErrTransferMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := verifyTokenTransfer(tt.tx, testToken, tt.want)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("verifyTokenTransfer() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
