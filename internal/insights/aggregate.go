// Package insights derives spending summaries from a user's share of group
// expenses, optionally enriched by a language model.
package insights

import (
	"sort"
	"time"

	"github.com/splitbase/backend/internal/currency"
	"github.com/splitbase/backend/internal/models"
)

// MonthKey formats a Unix timestamp as the aggregation key, e.g. "2026-08".
func MonthKey(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01")
}

// PreviousMonthKey returns the aggregation key of the calendar month before
// t's. The subtraction is anchored at the first of t's month: AddDate on a
// month-end date normalizes forward (Mar 31 minus one month is Mar 3), which
// would collapse last month into the current one.
func PreviousMonthKey(t time.Time) string {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return first.AddDate(0, -1, 0).Format("2006-01")
}

// MonthlyShares sums the viewer's share of each expense per calendar month,
// converted into the target currency. Expenses in unsupported currencies are
// treated as the default currency rather than dropped.
func MonthlyShares(viewerID string, expenses []models.Expense, target string) map[string]float64 {
	totals := make(map[string]float64)
	for _, expense := range expenses {
		share, ok := expense.ShareOf(viewerID)
		if !ok {
			continue
		}
		totals[MonthKey(expense.Date)] += currency.ConvertOrDefault(share.Amount, expense.Currency, target)
	}
	return totals
}

// CategoryShares sums the viewer's share of each expense per category,
// converted into the target currency.
func CategoryShares(viewerID string, expenses []models.Expense, target string) map[string]float64 {
	totals := make(map[string]float64)
	for _, expense := range expenses {
		share, ok := expense.ShareOf(viewerID)
		if !ok {
			continue
		}
		category := expense.Category
		if category == "" {
			category = models.DefaultCategory
		}
		totals[category] += currency.ConvertOrDefault(share.Amount, expense.Currency, target)
	}
	return totals
}

// TopCategory returns the category with the largest total. Ties break
// alphabetically so the result is stable.
func TopCategory(totals map[string]float64) (string, float64) {
	categories := make([]string, 0, len(totals))
	for category := range totals {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	var best string
	var bestTotal float64
	for _, category := range categories {
		if totals[category] > bestTotal {
			best = category
			bestTotal = totals[category]
		}
	}
	return best, bestTotal
}
