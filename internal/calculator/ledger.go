package calculator

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/splitbase/backend/internal/currency"
	"github.com/splitbase/backend/internal/models"
)

// LedgerSplit is one member's resolved share in a ledger entry.
type LedgerSplit struct {
	UserID   string  `json:"userId"`
	UserName string  `json:"userName"`
	Amount   float64 `json:"amount"`
}

// LedgerEntry is a display-ready merge of a group expense with the viewer's
// transaction view of it.
type LedgerEntry struct {
	ExpenseID     string        `json:"expenseId"`
	TransactionID string        `json:"transactionId,omitempty"`
	Description   string        `json:"description"`
	Amount        float64       `json:"amount"`
	Currency      string        `json:"currency"`
	Category      string        `json:"category"`
	PaidBy        string        `json:"paidBy"`
	PaidByName    string        `json:"paidByName"`
	Date          int64         `json:"date"`
	Splits        []LedgerSplit `json:"splits"`

	// ViewerShare is the viewer's owed portion, zero when the viewer paid.
	ViewerShare float64 `json:"viewerShare"`

	// PaidByViewer is true when the viewer has no outstanding obligation on
	// the entry: they paid the expense, or their settlement completed.
	PaidByViewer bool `json:"paidByViewer"`

	// Summary is a plain-language explanation of the expense and its split.
	Summary string `json:"summary"`
}

// BuildGroupLedger merges a group's expense list with the viewer's transaction
// list (which carries settlement state) into display-ready entries.
//
// Matching a transaction to its originating expense is a two-phase lookup:
// expense ID equality first, then a (description, amount) composite-key
// fallback for denormalization drift between the group's embedded expense list
// and the flat transaction projection. The fallback path is logged so drift is
// observable rather than silent.
func BuildGroupLedger(viewerID string, expenses []models.Expense, transactions []models.Transaction, names map[string]string) []LedgerEntry {
	entries := make([]LedgerEntry, 0, len(expenses))

	for _, exp := range expenses {
		tx := matchTransaction(exp, transactions)

		entry := LedgerEntry{
			ExpenseID:   exp.ID,
			Description: exp.Description,
			Amount:      exp.Amount,
			Currency:    exp.Currency,
			Category:    exp.Category,
			PaidBy:      exp.PaidBy,
			PaidByName:  resolveName(exp.PaidBy, names),
			Date:        exp.Date,
		}
		if entry.Category == "" {
			entry.Category = models.DefaultCategory
		}

		for _, split := range exp.SplitBetween {
			entry.Splits = append(entry.Splits, LedgerSplit{
				UserID:   split.UserID,
				UserName: resolveName(split.UserID, names),
				Amount:   split.Amount,
			})
			if split.UserID == viewerID {
				entry.ViewerShare = split.Amount
			}
		}

		if exp.PaidBy == viewerID {
			entry.PaidByViewer = true
			entry.ViewerShare = 0
		} else if tx != nil {
			entry.TransactionID = tx.ID
			if settlement, ok := tx.SettlementFor(viewerID); ok && settlement.Completed() {
				entry.PaidByViewer = true
			}
		}

		entry.Summary = summarize(entry)
		entries = append(entries, entry)
	}

	return entries
}

// matchTransaction locates the projection of an expense in the viewer's
// transaction list: primary key first, composite-key fallback second.
func matchTransaction(exp models.Expense, transactions []models.Transaction) *models.Transaction {
	for i := range transactions {
		if transactions[i].ExpenseID == exp.ID || transactions[i].ID == exp.ID {
			return &transactions[i]
		}
	}
	for i := range transactions {
		if transactions[i].Description == exp.Description &&
			math.Abs(transactions[i].Amount-exp.Amount) < SplitEpsilon {
			slog.Warn("expense matched by composite-key fallback",
				"expense_id", exp.ID,
				"transaction_id", transactions[i].ID,
				"description", exp.Description,
			)
			return &transactions[i]
		}
	}
	return nil
}

func resolveName(address string, names map[string]string) string {
	if name, ok := names[address]; ok && name != "" {
		return name
	}
	return models.ShortAddress(address)
}

// summarize builds the templated expense explanation used when no AI-generated
// one is available.
func summarize(entry LedgerEntry) string {
	return fmt.Sprintf("%s paid %s for %s and split it among %d people.",
		entry.PaidByName,
		currency.Format(entry.Amount, entry.Currency),
		entry.Description,
		len(entry.Splits),
	)
}
