package alerts

import (
	"context"

	"alertwatch/internal/api"
	"alertwatch/pkg/logx"
)

// User actions. Single-item actions patch local state only after the
// transport call succeeds; batch actions patch exactly the ids whose
// per-id result succeeded, so a partial batch failure can't leave the
// cache claiming a mutation the server rejected.

// MarkRead marks one alert read.
func (s *Service) MarkRead(ctx context.Context, id int64) error {
	updated, err := s.api.MarkAlertRead(ctx, id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	for i := range s.alerts {
		if s.alerts[i].ID == id {
			s.alerts[i] = updated
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// Dismiss deletes one alert.
func (s *Service) Dismiss(ctx context.Context, id int64) error {
	if err := s.api.DeleteAlert(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	s.alerts = removeID(s.alerts, map[int64]struct{}{id: {}})
	s.mu.Unlock()
	return nil
}

// MarkAllRead marks every locally unread alert read. An empty unread set
// is a no-op: no request is issued.
func (s *Service) MarkAllRead(ctx context.Context) error {
	s.mu.Lock()
	var ids []int64
	for _, a := range s.alerts {
		if !a.IsRead {
			ids = append(ids, a.ID)
		}
	}
	s.mu.Unlock()
	if len(ids) == 0 {
		return nil
	}

	res := s.api.MarkAlertsRead(ctx, ids)

	ok := make(map[int64]struct{}, res.OK)
	for _, id := range res.Succeeded() {
		ok[id] = struct{}{}
	}
	s.mu.Lock()
	for i := range s.alerts {
		if _, hit := ok[s.alerts[i].ID]; hit {
			s.alerts[i].IsRead = true
		}
	}
	s.mu.Unlock()

	if err := res.Err(); err != nil {
		s.log.Warn("mark-all-read partially failed", logx.Int("ok", res.OK), logx.Int("failed", res.Failed))
		return err
	}
	return nil
}

// DismissAll deletes every cached alert. An empty list is a no-op.
func (s *Service) DismissAll(ctx context.Context) error {
	s.mu.Lock()
	ids := make([]int64, 0, len(s.alerts))
	for _, a := range s.alerts {
		ids = append(ids, a.ID)
	}
	s.mu.Unlock()
	if len(ids) == 0 {
		return nil
	}

	res := s.api.DeleteAlerts(ctx, ids)

	ok := make(map[int64]struct{}, res.OK)
	for _, id := range res.Succeeded() {
		ok[id] = struct{}{}
	}
	s.mu.Lock()
	s.alerts = removeID(s.alerts, ok)
	s.mu.Unlock()

	if err := res.Err(); err != nil {
		s.log.Warn("dismiss-all partially failed", logx.Int("ok", res.OK), logx.Int("failed", res.Failed))
		return err
	}
	return nil
}

func removeID(list []api.Alert, ids map[int64]struct{}) []api.Alert {
	out := list[:0]
	for _, a := range list {
		if _, hit := ids[a.ID]; !hit {
			out = append(out, a)
		}
	}
	return out
}
