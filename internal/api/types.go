package api

import (
	"fmt"
	"time"
)

// Alert priorities as the backend reports them.
const (
	PriorityLow      = "low"
	PriorityMedium   = "medium"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Alert is a server-persisted notification record (budget breach,
// transaction event, system message). The server is the sole source of
// truth for existence and read-state; clients hold a cached copy.
type Alert struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Priority  string    `json:"priority,omitempty"`
	AlertType string    `json:"alert_type,omitempty"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Summary is the server-computed aggregate over the current alert set.
// It is fetched independently of the full list, so the two can transiently
// disagree. The zero value doubles as the safe fallback when the summary
// endpoint is unreachable.
type Summary struct {
	Total    int     `json:"total"`
	Unread   int     `json:"unread"`
	Critical int     `json:"critical"`
	High     int     `json:"high"`
	Medium   int     `json:"medium"`
	Recent   []Alert `json:"recent,omitempty"`
}

// ItemResult is the outcome of one request inside a batch operation.
type ItemResult struct {
	ID  int64
	Err error
}

// BatchResult reports per-id outcomes of a client-orchestrated fan-out.
// There is no server-side transactional grouping: ids that succeeded stay
// mutated even when others fail, and callers are expected to patch state
// per succeeded id.
type BatchResult struct {
	Results []ItemResult
	OK      int
	Failed  int
}

// Err returns nil when every id succeeded, otherwise an aggregate error
// naming the failed count and the first underlying cause.
func (r BatchResult) Err() error {
	if r.Failed == 0 {
		return nil
	}
	for _, it := range r.Results {
		if it.Err != nil {
			return fmt.Errorf("%d of %d requests failed: first: %w", r.Failed, len(r.Results), it.Err)
		}
	}
	return fmt.Errorf("%d of %d requests failed", r.Failed, len(r.Results))
}

// Succeeded returns the ids whose request completed without error,
// preserving input order.
func (r BatchResult) Succeeded() []int64 {
	out := make([]int64, 0, r.OK)
	for _, it := range r.Results {
		if it.Err == nil {
			out = append(out, it.ID)
		}
	}
	return out
}

// StatusError is returned for non-2xx responses on operations that
// propagate errors.
type StatusError struct {
	Status int
	Method string
	Path   string
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}
