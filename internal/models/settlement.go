package models

// SettlementStatus is the lifecycle state of a settlement.
type SettlementStatus string

const (
	// SettlementPending means the intent is recorded but no funds have moved.
	SettlementPending SettlementStatus = "pending"

	// SettlementCompleted means an on-chain transaction hash was recorded and
	// verified. Completed is terminal: a completed settlement never reverts to
	// pending and is never deleted.
	SettlementCompleted SettlementStatus = "completed"
)

// PaymentMethod identifies how a settlement moved funds on-chain.
type PaymentMethod string

const (
	PayNative PaymentMethod = "eth"
	PayToken  PaymentMethod = "usdc"
)

// Settlement represents one participant's payment of their owed share on one
// transaction.
//
// Invariant: at most one settlement per (TransactionID, PayerID) pair is
// authoritative. A second attempt for the pair updates the existing record
// rather than appending a duplicate.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string `json:"id"`

	// TransactionID is the transaction this settlement pays into.
	TransactionID string `json:"transactionId"`

	// ExpenseID is the originating expense, carried for cross-referencing.
	ExpenseID string `json:"expenseId,omitempty"`

	// PayerID is the wallet address of the participant paying their share.
	PayerID string `json:"payerId"`

	// ReceiverID is the wallet address of the original expense payer.
	ReceiverID string `json:"receiverId"`

	// Amount is the settled amount in Currency.
	Amount float64 `json:"amount"`

	// Currency is the currency code of the settled amount.
	Currency string `json:"currency"`

	// PaymentMethod is the transfer type used (native coin or token).
	PaymentMethod PaymentMethod `json:"paymentMethod,omitempty"`

	// TransactionHash is the on-chain transfer hash, present once broadcast.
	TransactionHash string `json:"transactionHash,omitempty"`

	// Status derives from TransactionHash: completed once a hash is recorded,
	// pending before.
	Status SettlementStatus `json:"status"`

	// CreatedAt is the Unix timestamp when the settlement was first recorded.
	CreatedAt int64 `json:"createdAt"`

	// CompletedAt is the Unix timestamp of the pending→completed transition.
	CompletedAt int64 `json:"completedAt,omitempty"`
}

// Completed reports whether the settlement reached its terminal state.
func (s *Settlement) Completed() bool {
	return s.Status == SettlementCompleted
}
