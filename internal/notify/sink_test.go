package notify

import (
	"bytes"
	"context"
	"strings"
	"testing"
)

func TestConsoleSinkDeliver(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	s := ConsoleSink{Out: &buf}

	if err := s.Probe(context.Background()); err != nil {
		t.Fatalf("Probe: %v", err)
	}
	h, err := s.Deliver(context.Background(), Notification{Title: "Budget exceeded", Body: "Groceries", Priority: "critical"})
	if err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	if err := h.Dismiss(context.Background()); err != nil {
		t.Fatalf("Dismiss: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "[CRITICAL]") || !strings.Contains(out, "Budget exceeded: Groceries") {
		t.Fatalf("unexpected output: %q", out)
	}
}

func TestConsoleSinkNilWriter(t *testing.T) {
	t.Parallel()
	s := ConsoleSink{}
	if _, err := s.Deliver(context.Background(), Notification{Title: "x"}); err != nil {
		t.Fatalf("Deliver with nil writer: %v", err)
	}
}

func TestPriorityTag(t *testing.T) {
	t.Parallel()
	tests := map[string]string{
		"critical": "[CRITICAL]",
		"high":     "[HIGH]",
		"medium":   "[MEDIUM]",
		"low":      "[LOW]",
		"info":     "[INFO]",
		"":         "[INFO]",
		"weird":    "[INFO]",
	}
	for in, want := range tests {
		if got := priorityTag(in); got != want {
			t.Fatalf("priorityTag(%q) = %q, want %q", in, got, want)
		}
	}
}
