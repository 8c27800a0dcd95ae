package calculator

import (
	"github.com/splitbase/backend/internal/currency"
	"github.com/splitbase/backend/internal/models"
)

// Balances maps counterparty wallet address to per-currency signed amounts.
// Positive = counterparty owes the viewer; negative = the viewer owes the
// counterparty. Buckets are tracked per currency and never auto-converted.
type Balances map[string]map[string]float64

// ComputeBalances reduces the viewer's transactions and settlements into
// per-counterparty signed balances.
//
// Algorithm:
//   - Viewer is payer: every other split participant's share is added to that
//     participant's bucket (they owe the viewer).
//   - Viewer is a split participant: the viewer's own share is subtracted from
//     the payer's bucket (the viewer owes them).
//   - Completed settlements net out debt: when the viewer paid a settlement,
//     the settled amount is added back to the receiver's bucket; when the
//     viewer received one, it is subtracted from the payer's bucket. Either way
//     the pair's balance moves toward zero. Pending settlements never affect a
//     balance.
//
// A zero bucket stays in the result; dropping entries the viewer is square
// with is a display concern, not the calculator's.
func ComputeBalances(viewerID string, transactions []models.Transaction, settlements []models.Settlement) Balances {
	balances := make(Balances)

	bucket := func(counterparty, code string) map[string]float64 {
		if _, ok := balances[counterparty]; !ok {
			balances[counterparty] = make(map[string]float64)
		}
		if _, ok := balances[counterparty][code]; !ok {
			balances[counterparty][code] = 0
		}
		return balances[counterparty]
	}

	for _, tx := range transactions {
		if tx.PaidBy == viewerID {
			for _, split := range tx.SplitBetween {
				if split.UserID == viewerID {
					continue
				}
				bucket(split.UserID, tx.Currency)[tx.Currency] += split.Amount
			}
			continue
		}

		for _, split := range tx.SplitBetween {
			if split.UserID == viewerID {
				bucket(tx.PaidBy, tx.Currency)[tx.Currency] -= split.Amount
				break
			}
		}
	}

	for _, s := range settlements {
		if !s.Completed() {
			continue
		}
		switch viewerID {
		case s.PayerID:
			bucket(s.ReceiverID, s.Currency)[s.Currency] += s.Amount
		case s.ReceiverID:
			bucket(s.PayerID, s.Currency)[s.Currency] -= s.Amount
		}
	}

	return balances
}

// ConvertedTotal collapses a counterparty's per-currency buckets into a single
// signed amount in the target currency. Conversion is strict: an unsupported
// code in a bucket surfaces as an error rather than being silently coerced.
func ConvertedTotal(buckets map[string]float64, target string) (float64, error) {
	var total float64
	for code, amount := range buckets {
		converted, err := currency.Convert(amount, code, target)
		if err != nil {
			return 0, err
		}
		total += converted
	}
	return total, nil
}
