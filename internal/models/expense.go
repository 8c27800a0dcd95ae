package models

// DefaultCategory is the category assigned when none is recorded or when the
// originating group expense cannot be found for a transaction.
const DefaultCategory = "Other"

// Categories is the closed set of expense categories.
var Categories = []string{
	"Food & Drinks",
	"Transportation",
	"Accommodation",
	"Shopping",
	"Entertainment",
	"Utilities",
	"Medical",
	"Travel",
	"Other",
}

// Expense represents a recorded cost belonging to exactly one group.
//
// Expenses are immutable once created (amend-by-append only). Invariant: the
// sum of split share amounts equals Amount within ±0.01; creation is rejected
// otherwise.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string `json:"id"`

	// GroupID is the group this expense belongs to.
	GroupID string `json:"groupId"`

	// Description is the human-readable name of the expense.
	Description string `json:"description"`

	// Amount is the positive expense total in Currency.
	Amount float64 `json:"amount"`

	// Currency is the supported currency code the amount was recorded in.
	Currency string `json:"currency"`

	// PaidBy is the wallet address of the member who paid.
	PaidBy string `json:"paidBy"`

	// SplitBetween allocates the amount across participating members.
	SplitBetween []SplitShare `json:"splitBetween"`

	// Category is the expense category (one of Categories).
	Category string `json:"category"`

	// Date is the Unix timestamp the expense occurred.
	Date int64 `json:"date"`

	// CreatedAt is the Unix timestamp when the expense was recorded.
	CreatedAt int64 `json:"createdAt"`
}

// SplitShare is one member's owed portion of an expense.
type SplitShare struct {
	// UserID is the wallet address of the member owing this share.
	// Must be a member of the owning group.
	UserID string `json:"userId"`

	// Amount is this member's owed portion of the expense amount.
	Amount float64 `json:"amount"`
}

// ShareOf returns the split share for the given wallet address, if any.
func (e *Expense) ShareOf(address string) (SplitShare, bool) {
	for _, s := range e.SplitBetween {
		if s.UserID == address {
			return s, true
		}
	}
	return SplitShare{}, false
}
