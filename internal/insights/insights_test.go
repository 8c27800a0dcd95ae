package insights

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/splitbase/backend/internal/models"
)

func unixDate(year int, month time.Month, day int) int64 {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC).Unix()
}

func testExpenses() []models.Expense {
	return []models.Expense{
		{
			Description: "Dinner",
			Amount:      90,
			Currency:    "USD",
			Category:    "Food & Drinks",
			Date:        unixDate(2026, time.August, 10),
			SplitBetween: []models.SplitShare{
				{UserID: "u1", Amount: 30},
				{UserID: "u2", Amount: 60},
			},
		},
		{
			Description: "Taxi",
			Amount:      40,
			Currency:    "USD",
			Category:    "Transportation",
			Date:        unixDate(2026, time.August, 12),
			SplitBetween: []models.SplitShare{
				{UserID: "u1", Amount: 20},
				{UserID: "u2", Amount: 20},
			},
		},
		{
			Description: "Groceries",
			Amount:      60,
			Currency:    "USD",
			Category:    "",
			Date:        unixDate(2026, time.July, 28),
			SplitBetween: []models.SplitShare{
				{UserID: "u1", Amount: 60},
			},
		},
		{
			Description: "Museum",
			Amount:      25,
			Currency:    "USD",
			Category:    "Entertainment",
			Date:        unixDate(2026, time.August, 5),
			SplitBetween: []models.SplitShare{
				{UserID: "u2", Amount: 25},
			},
		},
	}
}

func TestMonthlyShares(t *testing.T) {
	totals := MonthlyShares("u1", testExpenses(), "USD")

	if got := totals["2026-08"]; math.Abs(got-50) > 1e-9 {
		t.Errorf("expected 50 for 2026-08, got %v", got)
	}
	if got := totals["2026-07"]; math.Abs(got-60) > 1e-9 {
		t.Errorf("expected 60 for 2026-07, got %v", got)
	}
	if _, ok := totals["2026-06"]; ok {
		t.Error("expected no entry for months without expenses")
	}
}

func TestPreviousMonthKey(t *testing.T) {
	tests := []struct {
		now  time.Time
		want string
	}{
		// Month-end dates must not collapse into the current month.
		{time.Date(2026, time.March, 31, 23, 0, 0, 0, time.UTC), "2026-02"},
		{time.Date(2026, time.May, 31, 12, 0, 0, 0, time.UTC), "2026-04"},
		{time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC), "2026-06"},
		{time.Date(2026, time.August, 15, 12, 0, 0, 0, time.UTC), "2026-07"},
		{time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), "2025-12"},
	}

	for _, tt := range tests {
		if got := PreviousMonthKey(tt.now); got != tt.want {
			t.Errorf("PreviousMonthKey(%s) = %q, want %q", tt.now.Format("2006-01-02"), got, tt.want)
		}
	}
}

func TestCategoryShares(t *testing.T) {
	totals := CategoryShares("u1", testExpenses(), "USD")

	if got := totals["Food & Drinks"]; math.Abs(got-30) > 1e-9 {
		t.Errorf("expected 30 for Food & Drinks, got %v", got)
	}
	if got := totals[models.DefaultCategory]; math.Abs(got-60) > 1e-9 {
		t.Errorf("expected uncategorized share under default category, got %v", got)
	}
	if _, ok := totals["Entertainment"]; ok {
		t.Error("expected no entry for expenses the viewer has no share in")
	}
}

func TestTopCategory(t *testing.T) {
	category, total := TopCategory(map[string]float64{
		"Transportation": 20,
		"Food & Drinks":  30,
		"Other":          5,
	})
	if category != "Food & Drinks" || total != 30 {
		t.Errorf("expected Food & Drinks at 30, got %s at %v", category, total)
	}

	if category, _ := TopCategory(nil); category != "" {
		t.Errorf("expected empty category for empty totals, got %q", category)
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Food & Drinks", "Food & Drinks"},
		{"  food & drinks \n", "Food & Drinks"},
		{`"Transportation"`, "Transportation"},
		{"Gadgets", "Other"},
		{"", "Other"},
	}

	for _, tt := range tests {
		if got := NormalizeCategory(tt.input); got != tt.want {
			t.Errorf("NormalizeCategory(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

type stubModel struct {
	text string
	err  error
}

func (s stubModel) GenerateText(context.Context, string) (string, error) {
	return s.text, s.err
}

func TestAdvisor(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("uses model output when available", func(t *testing.T) {
		advisor := NewAdvisor(stubModel{text: "Nice month!"}, logger)
		got := advisor.BudgetSummary(context.Background(), Spending{Currency: "USD", CurrentMonth: 50})
		if got != "Nice month!" {
			t.Errorf("expected model output, got %q", got)
		}
	})

	t.Run("falls back when model fails", func(t *testing.T) {
		advisor := NewAdvisor(stubModel{err: errors.New("rate limited")}, logger)
		got := advisor.BudgetSummary(context.Background(), Spending{
			Currency:     "USD",
			CurrentMonth: 50,
			LastMonth:    100,
			ByCategory:   map[string]float64{"Food & Drinks": 30, "Transportation": 20},
		})
		if !strings.Contains(got, "$50.00") {
			t.Errorf("expected fallback to report current spend, got %q", got)
		}
		if !strings.Contains(got, "50% less") {
			t.Errorf("expected fallback to report the month-over-month drop, got %q", got)
		}
		if !strings.Contains(got, "Food & Drinks") {
			t.Errorf("expected fallback to name the top category, got %q", got)
		}
	})

	t.Run("fallback without model", func(t *testing.T) {
		advisor := NewAdvisor(nil, logger)
		got := advisor.BudgetSummary(context.Background(), Spending{Currency: "USD", CurrentMonth: 10})
		if !strings.Contains(got, "50/30/20") {
			t.Errorf("expected guideline in fallback, got %q", got)
		}
	})

	t.Run("category suggestion normalizes model output", func(t *testing.T) {
		advisor := NewAdvisor(stubModel{text: "transportation"}, logger)
		if got := advisor.SuggestCategory(context.Background(), "Uber to airport"); got != "Transportation" {
			t.Errorf("expected Transportation, got %q", got)
		}
	})

	t.Run("category suggestion defaults on failure", func(t *testing.T) {
		advisor := NewAdvisor(stubModel{err: errors.New("boom")}, logger)
		if got := advisor.SuggestCategory(context.Background(), "Uber"); got != models.DefaultCategory {
			t.Errorf("expected default category, got %q", got)
		}
	})
}
