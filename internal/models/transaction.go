package models

// Transaction is the denormalized, queryable projection of an expense.
//
// It is created alongside the expense and shares its description, amount,
// currency, payer and split list. The only part mutated after creation is the
// settlement list, which accumulates as participants pay their shares.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string `json:"id"`

	// GroupID is the group of the originating expense.
	GroupID string `json:"groupId"`

	// ExpenseID is the originating expense. Matching a transaction back to its
	// group expense uses this first, falling back to (description, amount)
	// equality when the identifiers have drifted.
	ExpenseID string `json:"expenseId"`

	// Description mirrors the expense description.
	Description string `json:"description"`

	// Amount mirrors the expense amount.
	Amount float64 `json:"amount"`

	// Currency mirrors the expense currency code.
	Currency string `json:"currency"`

	// PaidBy is the wallet address of the expense payer.
	PaidBy string `json:"paidBy"`

	// SplitBetween mirrors the expense split list.
	SplitBetween []SplitShare `json:"splitBetween"`

	// Date mirrors the expense date (Unix timestamp).
	Date int64 `json:"date"`

	// Settlements accumulates participants' payments of their shares.
	// At most one settlement exists per payer.
	Settlements []Settlement `json:"settlements,omitempty"`

	// CreatedAt is the Unix timestamp when the projection was created.
	CreatedAt int64 `json:"createdAt"`
}

// SettlementFor returns the settlement recorded by the given payer, if any.
func (t *Transaction) SettlementFor(payerID string) (Settlement, bool) {
	for _, s := range t.Settlements {
		if s.PayerID == payerID {
			return s, true
		}
	}
	return Settlement{}, false
}
