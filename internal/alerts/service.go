package alerts

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"alertwatch/internal/api"
	"alertwatch/internal/eventbus"
	"alertwatch/internal/notify"
	"alertwatch/internal/storage"
	"alertwatch/pkg/logx"
)

// API is the slice of the transport the reconciler needs.
type API interface {
	GetAlerts(ctx context.Context) []api.Alert
	GetSummary(ctx context.Context) api.Summary
	MarkAlertRead(ctx context.Context, id int64) (api.Alert, error)
	DeleteAlert(ctx context.Context, id int64) error
	MarkAlertsRead(ctx context.Context, ids []int64) api.BatchResult
	DeleteAlerts(ctx context.Context, ids []int64) api.BatchResult
}

// Notifier is the slice of the notification service the reconciler needs.
type Notifier interface {
	Show(n notify.Notification)
}

type Config struct {
	// EventBuffer sizes the bus subscription channel.
	EventBuffer int
}

// Service holds the session view of alerts: the cached list, the summary,
// and the shown-set (alert ids already pushed to the notification layer
// this session).
//
// The shown-set is an idempotency cache: an id enters it at most once per
// session and is never evicted. It is not persisted unless a store is
// wired with persistShown, so by default it resets with the process.
type Service struct {
	api      API
	notifier Notifier
	bus      eventbus.Bus
	log      logx.Logger

	store        storage.Store // optional
	persistShown bool

	cfg Config

	// fetchSeq discards stale fetch completions: only the most recently
	// issued Refresh may commit its result (last-issued-wins).
	fetchSeq atomic.Uint64

	mu      sync.Mutex
	alerts  []api.Alert
	summary api.Summary
	shown   map[int64]struct{}
}

func New(cfg Config, a API, n Notifier, bus eventbus.Bus, store storage.Store, persistShown bool, log logx.Logger) *Service {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 16
	}
	return &Service{
		api:          a,
		notifier:     n,
		bus:          bus,
		log:          log,
		store:        store,
		persistShown: persistShown && store != nil,
		cfg:          cfg,
		shown:        map[int64]struct{}{},
	}
}

// Run drives the reconciler: an initial refresh, then one refresh per
// alerts.updated event, until ctx is done. Meant to be started under the
// supervisor.
func (s *Service) Run(ctx context.Context) error {
	if s.persistShown {
		ids, err := s.store.ListShown(ctx)
		if err != nil {
			s.log.Warn("persisted shown-set load failed", logx.Err(err))
		} else {
			s.mu.Lock()
			for _, id := range ids {
				s.shown[id] = struct{}{}
			}
			s.mu.Unlock()
			s.log.Debug("persisted shown-set loaded", logx.Int("ids", len(ids)))
		}
	}

	s.Refresh(ctx)

	if s.bus == nil {
		<-ctx.Done()
		return nil
	}
	ch, unsub := s.bus.Subscribe(s.cfg.EventBuffer)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if ev.Type == eventbus.EventAlertsUpdated {
				s.Refresh(ctx)
			}
		}
	}
}

// Refresh fetches the alert list and summary and reconciles local state.
//
// The transport is best-effort, so a failed fetch commits an empty view
// rather than an error. A completion is discarded when a newer Refresh
// was issued while this one was in flight, so an out-of-order response
// can never overwrite fresher state.
func (s *Service) Refresh(ctx context.Context) {
	seq := s.fetchSeq.Add(1)

	list := s.api.GetAlerts(ctx)
	summary := s.api.GetSummary(ctx)

	if s.fetchSeq.Load() != seq {
		s.log.Debug("stale fetch discarded", logx.Int64("seq", int64(seq)))
		return
	}

	s.mu.Lock()
	if s.fetchSeq.Load() != seq {
		s.mu.Unlock()
		return
	}
	s.alerts = list
	s.summary = summary
	fresh := s.collectUnseenLocked(list)
	s.mu.Unlock()

	s.notifyNew(ctx, fresh)
}

// collectUnseenLocked picks the alerts that should trigger a notification
// (unread AND never shown this session) and marks them shown immediately,
// so concurrent refreshes can't double-notify an id.
func (s *Service) collectUnseenLocked(list []api.Alert) []api.Alert {
	var fresh []api.Alert
	for _, a := range list {
		if a.IsRead {
			// Read elsewhere (another device/tab) — never a candidate,
			// regardless of shown-set membership.
			continue
		}
		if _, ok := s.shown[a.ID]; ok {
			continue
		}
		s.shown[a.ID] = struct{}{}
		fresh = append(fresh, a)
	}
	return fresh
}

// notifyNew pushes the fresh alerts to the notification service in
// created_at-ascending order (oldest first; ties broken by id). The server
// gives no ordering guarantee, so we impose a deterministic one here
// rather than notify in whatever order the response came back.
func (s *Service) notifyNew(ctx context.Context, fresh []api.Alert) {
	if len(fresh) == 0 {
		return
	}
	sort.Slice(fresh, func(i, j int) bool {
		if fresh[i].CreatedAt.Equal(fresh[j].CreatedAt) {
			return fresh[i].ID < fresh[j].ID
		}
		return fresh[i].CreatedAt.Before(fresh[j].CreatedAt)
	})

	for _, a := range fresh {
		if s.notifier != nil {
			s.notifier.Show(notify.Notification{
				AlertID:  a.ID,
				Title:    a.Title,
				Body:     a.Message,
				Priority: a.Priority,
			})
		}
		if s.persistShown {
			if err := s.store.PutShown(ctx, a.ID, time.Now()); err != nil {
				s.log.Debug("shown-set persist failed", logx.Int64("id", a.ID), logx.Err(err))
			}
		}
	}
	s.log.Debug("new alerts notified", logx.Int("count", len(fresh)))
}

// Alerts returns a copy of the cached alert list in server order.
func (s *Service) Alerts() []api.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]api.Alert(nil), s.alerts...)
}

// Summary returns the cached summary.
func (s *Service) Summary() api.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// ShownCount reports the size of the shown-set (for status surfaces).
func (s *Service) ShownCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shown)
}
