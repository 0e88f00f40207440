package alerts

import (
	"context"
	"testing"

	"alertwatch/internal/api"
)

func TestFiltered(t *testing.T) {
	t.Parallel()
	fa := &fakeAPI{}
	fa.setAlerts([]api.Alert{
		{ID: 1, Priority: api.PriorityCritical},
		{ID: 2, Priority: api.PriorityHigh, IsRead: true},
		{ID: 3, Priority: api.PriorityHigh},
	})
	s := newTestService(fa, &fakeNotifier{}, nil)
	s.Refresh(context.Background())

	tests := []struct {
		name   string
		filter string
		want   []int64
	}{
		{name: "empty means all", filter: "", want: []int64{1, 2, 3}},
		{name: "all", filter: FilterAll, want: []int64{1, 2, 3}},
		{name: "unread", filter: FilterUnread, want: []int64{1, 3}},
		{name: "priority high", filter: api.PriorityHigh, want: []int64{2, 3}},
		{name: "priority critical", filter: api.PriorityCritical, want: []int64{1}},
		{name: "unknown priority", filter: "nope", want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Filtered(tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d alerts, want %d", len(got), len(tt.want))
			}
			for i := range tt.want {
				if got[i].ID != tt.want[i] {
					t.Fatalf("got[%d].ID = %d, want %d", i, got[i].ID, tt.want[i])
				}
			}
		})
	}
}

func TestFilteredDoesNotMutateCache(t *testing.T) {
	t.Parallel()
	fa := &fakeAPI{}
	fa.setAlerts([]api.Alert{
		{ID: 1, IsRead: true},
		{ID: 2},
	})
	s := newTestService(fa, &fakeNotifier{}, nil)
	s.Refresh(context.Background())

	_ = s.Filtered(FilterUnread)
	if got := s.Alerts(); len(got) != 2 {
		t.Fatalf("cache mutated by filter: %v", got)
	}
}
