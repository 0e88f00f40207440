package alerts

import "alertwatch/internal/api"

// Filter names for Filtered. Anything else is treated as an exact
// priority match.
const (
	FilterAll    = "all"
	FilterUnread = "unread"
)

// Filtered returns an order-preserving view of the cached alert list:
// all alerts, only unread ones, or only those with an exactly matching
// priority. It never triggers a refetch.
func (s *Service) Filtered(filter string) []api.Alert {
	s.mu.Lock()
	snapshot := append([]api.Alert(nil), s.alerts...)
	s.mu.Unlock()

	switch filter {
	case "", FilterAll:
		return snapshot
	case FilterUnread:
		out := snapshot[:0]
		for _, a := range snapshot {
			if !a.IsRead {
				out = append(out, a)
			}
		}
		return out
	default:
		out := snapshot[:0]
		for _, a := range snapshot {
			if a.Priority == filter {
				out = append(out, a)
			}
		}
		return out
	}
}
