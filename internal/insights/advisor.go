package insights

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/splitbase/backend/internal/currency"
	"github.com/splitbase/backend/internal/models"
)

// TextGenerator is the slice of the model client the advisor needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Advisor produces budget summaries and category suggestions. The language
// model is optional: when it is absent or fails, the advisor falls back to
// templated output so insight endpoints never depend on an upstream model.
type Advisor struct {
	model  TextGenerator
	logger *slog.Logger
}

// NewAdvisor creates an Advisor. model may be nil.
func NewAdvisor(model TextGenerator, logger *slog.Logger) *Advisor {
	return &Advisor{
		model:  model,
		logger: logger,
	}
}

// Spending is the aggregated input for a budget summary.
type Spending struct {
	Currency     string
	CurrentMonth float64
	LastMonth    float64
	ByCategory   map[string]float64
}

// BudgetSummary returns a short natural-language review of the viewer's
// spending.
func (a *Advisor) BudgetSummary(ctx context.Context, spending Spending) string {
	if a.model != nil {
		text, err := a.model.GenerateText(ctx, budgetPrompt(spending))
		if err == nil {
			return text
		}
		a.logger.Warn("model summary failed, using fallback", "error", err)
	}

	return fallbackSummary(spending)
}

// SuggestCategory picks an expense category for a description. Unknown or
// unparseable model output falls back to the default category.
func (a *Advisor) SuggestCategory(ctx context.Context, description string) string {
	if a.model == nil {
		return models.DefaultCategory
	}

	prompt := fmt.Sprintf(
		"Classify the expense %q into exactly one of these categories: %s. Reply with the category name only.",
		description, strings.Join(models.Categories, ", "),
	)
	text, err := a.model.GenerateText(ctx, prompt)
	if err != nil {
		a.logger.Warn("category suggestion failed, using default", "error", err)
		return models.DefaultCategory
	}

	return NormalizeCategory(text)
}

// NormalizeCategory maps free-form text onto a known category, defaulting to
// DefaultCategory when it matches none.
func NormalizeCategory(text string) string {
	cleaned := strings.TrimSpace(strings.Trim(strings.TrimSpace(text), `"'.`))
	for _, category := range models.Categories {
		if strings.EqualFold(cleaned, category) {
			return category
		}
	}
	return models.DefaultCategory
}

func budgetPrompt(spending Spending) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a personal finance assistant. The user spent %s this month and %s last month on shared expenses.\n",
		currency.Format(spending.CurrentMonth, spending.Currency),
		currency.Format(spending.LastMonth, spending.Currency))
	if len(spending.ByCategory) > 0 {
		b.WriteString("Breakdown by category:\n")
		for category, total := range spending.ByCategory {
			fmt.Fprintf(&b, "- %s: %s\n", category, currency.Format(total, spending.Currency))
		}
	}
	b.WriteString("Write a short, friendly budget review (3-4 sentences) with one concrete saving tip. Plain text only.")
	return b.String()
}

// fallbackSummary is the templated review used when no model is available.
func fallbackSummary(spending Spending) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You spent %s on shared expenses this month.",
		currency.Format(spending.CurrentMonth, spending.Currency))

	if spending.LastMonth > 0 {
		delta := spending.CurrentMonth - spending.LastMonth
		pct := delta / spending.LastMonth * 100
		switch {
		case pct > 1:
			fmt.Fprintf(&b, " That is %.0f%% more than last month (%s).",
				pct, currency.Format(spending.LastMonth, spending.Currency))
		case pct < -1:
			fmt.Fprintf(&b, " That is %.0f%% less than last month (%s).",
				-pct, currency.Format(spending.LastMonth, spending.Currency))
		default:
			b.WriteString(" That is about the same as last month.")
		}
	}

	if category, total := TopCategory(spending.ByCategory); category != "" {
		fmt.Fprintf(&b, " Your biggest category was %s at %s.",
			category, currency.Format(total, spending.Currency))
	}

	b.WriteString(" A common guideline is 50/30/20: half of income on needs, 30% on wants, and 20% saved.")

	return b.String()
}
