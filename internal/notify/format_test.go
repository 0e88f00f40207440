package notify

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestBudgetNotificationThresholds(t *testing.T) {
	t.Parallel()
	limit := decimal.NewFromInt(500)
	tests := []struct {
		name     string
		spent    decimal.Decimal
		want     bool
		priority string
		title    string
	}{
		{name: "below warning", spent: decimal.NewFromFloat(399.99), want: false},
		{name: "exactly 80 percent", spent: decimal.NewFromInt(400), want: true, priority: "high", title: "Budget warning"},
		{name: "between thresholds", spent: decimal.NewFromInt(450), want: true, priority: "high", title: "Budget warning"},
		{name: "exactly 100 percent", spent: decimal.NewFromInt(500), want: true, priority: "critical", title: "Budget exceeded"},
		{name: "over limit", spent: decimal.NewFromInt(650), want: true, priority: "critical", title: "Budget exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := BudgetNotification("Groceries", tt.spent, limit)
			if ok != tt.want {
				t.Fatalf("ok = %v, want %v", ok, tt.want)
			}
			if !ok {
				return
			}
			if n.Priority != tt.priority {
				t.Fatalf("Priority = %q, want %q", n.Priority, tt.priority)
			}
			if n.Title != tt.title {
				t.Fatalf("Title = %q, want %q", n.Title, tt.title)
			}
			if !strings.Contains(n.Body, "Groceries") {
				t.Fatalf("Body missing category: %q", n.Body)
			}
		})
	}
}

func TestBudgetNotificationZeroLimit(t *testing.T) {
	t.Parallel()
	if _, ok := BudgetNotification("Misc", decimal.NewFromInt(10), decimal.Zero); ok {
		t.Fatal("expected no notification for zero limit")
	}
}

func TestTransactionNotification(t *testing.T) {
	t.Parallel()
	n := TransactionNotification("Coffee", decimal.NewFromFloat(4.5), "withdrawal")
	if n.Title != "Transaction recorded" {
		t.Fatalf("Title = %q", n.Title)
	}
	if !strings.Contains(n.Body, "$4.50") {
		t.Fatalf("Body = %q, want fixed 2-decimal amount", n.Body)
	}

	n = TransactionNotification("Salary", decimal.NewFromInt(1200), "deposit")
	if n.Title != "Money received" {
		t.Fatalf("Title = %q", n.Title)
	}
}
