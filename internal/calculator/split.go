package calculator

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/splitbase/backend/internal/currency"
	"github.com/splitbase/backend/internal/models"
)

// SplitEpsilon is the tolerance, in currency minor units, within which a
// split list must reconcile to the expense amount.
const SplitEpsilon = 0.01

// Strategy selects how an expense amount is allocated across members.
type Strategy string

const (
	// StrategyEqual divides the amount evenly, assigning the rounding
	// remainder to the last member so the total reconciles exactly.
	StrategyEqual Strategy = "equal"

	// StrategyExact uses caller-supplied per-member values.
	StrategyExact Strategy = "exact"
)

// BuildSplit allocates amount across members using the given strategy and
// returns the resulting split list. For StrategyExact, manual carries the
// per-member values as decimal strings; a missing value counts as zero and a
// non-numeric value fails naming the offending member.
//
// Both strategies enforce the reconciliation invariant: the split sum must
// equal amount within SplitEpsilon, or the whole operation fails and no
// partial split is returned.
func BuildSplit(amount float64, members []string, strategy Strategy, manual map[string]string) ([]models.SplitShare, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %v", amount)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("must have at least one member")
	}

	var shares []models.SplitShare
	switch strategy {
	case StrategyEqual:
		shares = equalSplit(amount, members)
	case StrategyExact:
		var err error
		shares, err = exactSplit(members, manual)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown split strategy %q", strategy)
	}

	if err := ValidateSplit(amount, shares); err != nil {
		return nil, err
	}
	return shares, nil
}

// equalSplit gives the first N-1 members the rounded quotient and the last
// member the remainder, so the shares always sum to amount exactly despite
// minor-unit rounding.
func equalSplit(amount float64, members []string) []models.SplitShare {
	total := decimal.NewFromFloat(amount)
	quotient := total.Div(decimal.NewFromInt(int64(len(members)))).Round(2)

	shares := make([]models.SplitShare, len(members))
	assigned := decimal.Zero
	for i, member := range members {
		if i < len(members)-1 {
			value, _ := quotient.Float64()
			shares[i] = models.SplitShare{UserID: member, Amount: value}
			assigned = assigned.Add(quotient)
			continue
		}
		remainder, _ := total.Sub(assigned).Float64()
		shares[i] = models.SplitShare{UserID: member, Amount: remainder}
	}
	return shares
}

func exactSplit(members []string, manual map[string]string) ([]models.SplitShare, error) {
	shares := make([]models.SplitShare, len(members))
	for i, member := range members {
		raw, ok := manual[member]
		if !ok || raw == "" {
			shares[i] = models.SplitShare{UserID: member, Amount: 0}
			continue
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid split amount %q for member %s", raw, member)
		}
		amount, _ := value.Float64()
		shares[i] = models.SplitShare{UserID: member, Amount: currency.Round2(amount)}
	}
	return shares, nil
}

// ValidateSplit checks the reconciliation invariant for an existing split
// list: |sum(shares) - amount| <= SplitEpsilon.
func ValidateSplit(amount float64, shares []models.SplitShare) error {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(decimal.NewFromFloat(s.Amount))
	}
	total, _ := sum.Float64()
	if math.Abs(total-amount) > SplitEpsilon {
		return fmt.Errorf("split amounts sum to %v, expense amount is %v", total, amount)
	}
	return nil
}
