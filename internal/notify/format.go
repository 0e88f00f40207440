package notify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Budget thresholds are inclusive lower bounds: spend/limit >= 100% flags
// the budget as exceeded, >= 80% as a warning, below 80% stays silent.
var (
	budgetWarnRatio   = decimal.NewFromFloat(0.8)
	budgetExceedRatio = decimal.NewFromInt(1)
)

// BudgetNotification formats a budget-threshold popup for one category.
// The second return is false when spend is below the warning threshold
// (or the limit is not positive) and nothing should be shown.
func BudgetNotification(category string, spent, limit decimal.Decimal) (Notification, bool) {
	if !limit.IsPositive() {
		return Notification{}, false
	}
	ratio := spent.Div(limit)

	switch {
	case ratio.GreaterThanOrEqual(budgetExceedRatio):
		return Notification{
			Title:    "Budget exceeded",
			Body:     fmt.Sprintf("You've spent $%s of your $%s %s budget.", money(spent), money(limit), category),
			Priority: "critical",
		}, true
	case ratio.GreaterThanOrEqual(budgetWarnRatio):
		pct := ratio.Mul(decimal.NewFromInt(100)).Round(0)
		return Notification{
			Title:    "Budget warning",
			Body:     fmt.Sprintf("You've used %s%% of your %s budget ($%s of $%s).", pct.String(), category, money(spent), money(limit)),
			Priority: "high",
		}, true
	default:
		return Notification{}, false
	}
}

// TransactionNotification formats a popup for a freshly recorded
// transaction.
func TransactionNotification(description string, amount decimal.Decimal, txType string) Notification {
	verb := "Transaction recorded"
	if strings.EqualFold(txType, "deposit") || strings.EqualFold(txType, "credit") {
		verb = "Money received"
	}
	return Notification{
		Title:    verb,
		Body:     fmt.Sprintf("%s: $%s", description, money(amount)),
		Priority: "medium",
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
