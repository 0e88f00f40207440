package notify

import (
	"context"
	"fmt"
	"hash/fnv"
	"runtime/debug"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"

	"alertwatch/internal/eventbus"
	"alertwatch/internal/storage"
	"alertwatch/pkg/logx"
)

type job struct {
	n Notification
	// dedupKey is computed at enqueue time for cheap per-worker processing.
	dedupKey string
}

// Service is the notification pipeline: permission gate + queue + worker
// pool + rate limit + optional dedup window + auto-dismiss.
//
// It is an explicitly constructed, injected dependency (no package-level
// singleton) so tests can substitute a fake sink and run several
// independent instances.
//
// Show is fire-and-forget by contract: it never returns an error and
// delivery failures are only logged — the worst case is a notification
// the user doesn't see.
type Service struct {
	mu sync.Mutex

	log   logx.Logger
	sink  Sink
	bus   eventbus.Bus
	store storage.Store // optional delivery audit; nil disables it

	cfg     Config
	limiter *rate.Limiter
	perm    PermissionState

	accepting bool
	sendWG    sync.WaitGroup

	queue     chan job
	runCtx    context.Context
	runCancel context.CancelFunc
	workerWG  sync.WaitGroup

	// In-memory dedup cache: key -> suppress until
	dmu   sync.Mutex
	dedup map[string]time.Time

	// In-memory delivery history (bounded)
	hmu     sync.Mutex
	history []HistoryItem
}

func New(cfg Config, sink Sink, log logx.Logger, bus eventbus.Bus, store storage.Store) *Service {
	s := &Service{
		sink:  sink,
		log:   log,
		bus:   bus,
		store: store,
		dedup: map[string]time.Time{},
		perm:  PermissionUnknown,
	}
	s.applyLocked(cfg)
	return s
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Enabled
}

// Permission reports the current permission state.
func (s *Service) Permission() PermissionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.perm
}

func (s *Service) Apply(cfg Config) {
	s.mu.Lock()
	s.applyLocked(cfg)
	s.mu.Unlock()
}

func (s *Service) applyLocked(cfg Config) {
	cfg = cfg.withDefaults()
	s.cfg = cfg
	// Token bucket: burst = rate per sec, so short spikes don't block.
	s.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
}

// Start resolves the initial permission state and launches the workers.
// From the "default" state it requests permission exactly once; granted
// and denied stick for the session unless RequestPermission is called.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.perm == PermissionUnknown {
		if s.sink == nil {
			s.perm = PermissionDenied
		} else {
			s.perm = PermissionDefault
		}
	}
	needRequest := s.perm == PermissionDefault
	if s.queue != nil || !s.cfg.Enabled {
		s.mu.Unlock()
		if needRequest {
			s.RequestPermission(ctx)
		}
		return
	}

	s.queue = make(chan job, s.cfg.QueueSize)
	s.accepting = true
	s.runCtx, s.runCancel = context.WithCancel(context.Background())
	workers := s.cfg.Workers
	s.mu.Unlock()

	if needRequest {
		s.RequestPermission(ctx)
	}

	for i := 0; i < workers; i++ {
		s.workerWG.Add(1)
		go func(i int) {
			defer s.workerWG.Done()
			defer func() {
				if r := recover(); r != nil {
					s.log.Error("panic in notify worker", logx.Int("worker", i), logx.Any("panic", r), logx.String("stack", string(debug.Stack())))
				}
			}()
			s.workerLoop()
		}(i)
	}
}

// RequestPermission probes the sink and commits granted/denied.
// Safe to call again later (the manual re-prompt path).
func (s *Service) RequestPermission(ctx context.Context) PermissionState {
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()

	next := PermissionDenied
	if sink != nil {
		pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := sink.Probe(pctx)
		cancel()
		if err == nil {
			next = PermissionGranted
		} else {
			s.log.Warn("notification permission denied", logx.String("sink", sink.Name()), logx.Err(err))
		}
	}

	s.mu.Lock()
	s.perm = next
	s.mu.Unlock()
	s.log.Debug("notification permission resolved", logx.String("state", next.String()))
	return next
}

// Stop stops intake and drains the queue best-effort until ctx deadline.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	q := s.queue
	cancel := s.runCancel
	if q == nil {
		s.mu.Unlock()
		return
	}
	s.accepting = false
	s.mu.Unlock()

	// Wait for in-flight enqueues, then close the queue so workers drain.
	enqDone := make(chan struct{})
	go func() {
		s.sendWG.Wait()
		close(enqDone)
	}()
	select {
	case <-ctx.Done():
		if cancel != nil {
			cancel()
		}
		return
	case <-enqDone:
	}
	close(q)

	workDone := make(chan struct{})
	go func() {
		s.workerWG.Wait()
		close(workDone)
	}()
	select {
	case <-ctx.Done():
	case <-workDone:
	}
	if cancel != nil {
		cancel()
	}

	s.mu.Lock()
	s.queue = nil
	s.runCancel = nil
	s.runCtx = nil
	s.mu.Unlock()
}

// Show enqueues a notification. No-op unless the service is running and
// permission is granted; failures never surface to the caller.
func (s *Service) Show(n Notification) {
	s.mu.Lock()
	if !s.cfg.Enabled || !s.accepting || s.queue == nil || s.perm != PermissionGranted {
		s.mu.Unlock()
		return
	}
	q := s.queue
	dedupWindow := s.cfg.DedupWindow
	s.sendWG.Add(1)
	s.mu.Unlock()
	defer s.sendWG.Done()

	key := dedupKey(n)
	if dedupWindow > 0 {
		if !s.dedupAllow(key, dedupWindow) {
			s.publish(eventbus.EventNotifyDeduped, n, "")
			return
		}
	}

	select {
	case q <- job{n: n, dedupKey: key}:
	default:
		s.log.Warn("notification dropped (queue full)", logx.String("title", n.Title))
		s.publish(eventbus.EventNotifyDropped, n, "queue full")
	}
}

// ShowBudgetAlert flags a category budget once spend crosses the warning
// (>= 80%) or exceeded (>= 100%) threshold. Below the warning threshold
// nothing is shown.
func (s *Service) ShowBudgetAlert(category string, spent, limit decimal.Decimal) {
	if n, ok := BudgetNotification(category, spent, limit); ok {
		s.Show(n)
	}
}

// ShowTransactionAlert announces a freshly recorded transaction.
func (s *Service) ShowTransactionAlert(description string, amount decimal.Decimal, txType string) {
	s.Show(TransactionNotification(description, amount, txType))
}

// History returns a copy of the recent delivery history.
func (s *Service) History() []HistoryItem {
	s.hmu.Lock()
	out := append([]HistoryItem(nil), s.history...)
	s.hmu.Unlock()
	return out
}

func (s *Service) workerLoop() {
	s.mu.Lock()
	q := s.queue
	runCtx := s.runCtx
	s.mu.Unlock()

	for j := range q {
		select {
		case <-runCtx.Done():
			return
		default:
		}
		s.deliver(runCtx, j)
	}
}

func (s *Service) deliver(runCtx context.Context, j job) {
	s.mu.Lock()
	lim := s.limiter
	sink := s.sink
	dismissAfter := s.cfg.DismissAfter
	s.mu.Unlock()

	if sink == nil {
		return
	}
	if lim != nil {
		if err := lim.Wait(runCtx); err != nil {
			return
		}
	}

	callCtx, cancel := context.WithTimeout(runCtx, 10*time.Second)
	h, err := sink.Deliver(callCtx, j.n)
	cancel()

	entry := storage.DeliveryEntry{
		At:       time.Now(),
		AlertID:  j.n.AlertID,
		Title:    j.n.Title,
		Priority: j.n.Priority,
		Sink:     sink.Name(),
		OK:       err == nil,
	}
	if err != nil {
		entry.Error = err.Error()
		s.log.Debug("notification delivery failed", logx.String("sink", sink.Name()), logx.String("title", j.n.Title), logx.Err(err))
		s.publish(eventbus.EventNotifyFailed, j.n, err.Error())
		s.audit(entry)
		return
	}

	s.appendHistory(HistoryItem{At: entry.At, Title: j.n.Title, Priority: j.n.Priority, Sink: sink.Name()})
	s.publish(eventbus.EventNotifySent, j.n, "")
	s.audit(entry)

	// Auto-dismiss regardless of interaction. Best effort.
	if h != nil {
		time.AfterFunc(dismissAfter, func() {
			dctx, dcancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer dcancel()
			if err := h.Dismiss(dctx); err != nil {
				s.log.Debug("notification dismiss failed", logx.Err(err))
			}
		})
	}
}

func (s *Service) audit(e storage.DeliveryEntry) {
	if s.store == nil {
		return
	}
	actx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.store.AppendDelivery(actx, e); err != nil && err != storage.ErrDisabled {
		s.log.Debug("delivery audit write failed", logx.Err(err))
	}
}

func (s *Service) publish(typ string, n Notification, errStr string) {
	if s.bus == nil {
		return
	}
	now := time.Now()
	s.bus.Publish(eventbus.Event{Type: typ, Time: now, Data: DeliveryEvent{
		AlertID: n.AlertID, Title: n.Title, Priority: n.Priority, At: now, Error: errStr,
	}})
}

// DeliveryEvent is the bus payload for notify.* events.
type DeliveryEvent struct {
	AlertID  int64
	Title    string
	Priority string
	At       time.Time
	Error    string
}

func (s *Service) appendHistory(x HistoryItem) {
	s.hmu.Lock()
	s.history = append(s.history, x)
	if len(s.history) > 300 {
		s.history = s.history[len(s.history)-300:]
	}
	s.hmu.Unlock()
}

func dedupKey(n Notification) string {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strconv.FormatInt(n.AlertID, 10)))
	_, _ = h.Write([]byte("|"))
	_, _ = h.Write([]byte(n.Priority))
	_, _ = h.Write([]byte("|"))
	_, _ = h.Write([]byte(n.Title))
	_, _ = h.Write([]byte("|"))
	_, _ = h.Write([]byte(n.Body))
	return fmt.Sprintf("%x", h.Sum64())
}

func (s *Service) dedupAllow(key string, window time.Duration) bool {
	now := time.Now()

	s.dmu.Lock()
	defer s.dmu.Unlock()
	if until, ok := s.dedup[key]; ok && now.Before(until) {
		return false
	}
	s.dedup[key] = now.Add(window)

	// Prune expired entries opportunistically.
	for k, until := range s.dedup {
		if !now.Before(until) {
			delete(s.dedup, k)
		}
	}
	return true
}
