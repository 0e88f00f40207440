package reminders

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"alertwatch/internal/eventbus"
	"alertwatch/pkg/logx"
)

// Trigger is the transport call the scan needs.
type Trigger interface {
	TriggerBillReminders(ctx context.Context) error
}

type Config struct {
	Enabled  bool
	Schedule string
	Timezone string // IANA TZ; empty means local time
}

// Service periodically asks the backend to run its bill-reminder scan and
// publishes alerts.updated on success so the reconciler refetches.
//
// Overlapping runs are skipped: if a scan is still in flight when the next
// tick fires, the tick is dropped.
type Service struct {
	mu  sync.Mutex
	cfg Config
	log logx.Logger

	trigger Trigger
	bus     eventbus.Bus

	c       *cron.Cron
	running atomic.Bool

	runCtx    context.Context
	runCancel context.CancelFunc
}

func New(cfg Config, trigger Trigger, bus eventbus.Bus, log logx.Logger) *Service {
	return &Service{cfg: cfg, trigger: trigger, bus: bus, log: log}
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.c != nil || !s.cfg.Enabled {
		return nil
	}

	spec, err := ParseSchedule(s.cfg.Schedule)
	if err != nil {
		return err
	}

	loc := time.Local
	if tz := s.cfg.Timezone; tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return err
		}
		loc = l
	}

	// Scans outlive the Start caller; they stop via Stop, not via ctx.
	s.runCtx, s.runCancel = context.WithCancel(context.Background())

	c := cron.New(cron.WithParser(scheduleParser), cron.WithLocation(loc))
	_, err = c.AddFunc(spec, func() { s.scan() })
	if err != nil {
		s.runCancel()
		s.runCtx, s.runCancel = nil, nil
		return err
	}
	c.Start()
	s.c = c
	s.log.Info("bill reminder schedule started", logx.String("spec", spec), logx.String("tz", loc.String()))
	return nil
}

func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	cancel := s.runCancel
	s.c = nil
	s.runCtx, s.runCancel = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if c == nil {
		return
	}
	done := c.Stop().Done()
	select {
	case <-ctx.Done():
	case <-done:
	}
}

func (s *Service) scan() {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Debug("bill reminder scan skipped (previous still running)")
		return
	}
	defer s.running.Store(false)

	s.mu.Lock()
	runCtx := s.runCtx
	s.mu.Unlock()
	if runCtx == nil {
		return
	}

	ctx, cancel := context.WithTimeout(runCtx, 30*time.Second)
	defer cancel()

	start := time.Now()
	if err := s.trigger.TriggerBillReminders(ctx); err != nil {
		s.log.Warn("bill reminder scan failed", logx.Err(err), logx.Duration("dur", time.Since(start)))
		return
	}
	s.log.Info("bill reminder scan completed", logx.Duration("dur", time.Since(start)))

	if s.bus != nil {
		now := time.Now()
		s.bus.Publish(eventbus.Event{Type: eventbus.EventRemindersScanned, Time: now})
		s.bus.Publish(eventbus.Event{Type: eventbus.EventAlertsUpdated, Time: now})
	}
}
