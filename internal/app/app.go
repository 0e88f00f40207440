package app

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/daemon"

	"alertwatch/internal/alerts"
	"alertwatch/internal/api"
	"alertwatch/internal/config"
	"alertwatch/internal/eventbus"
	"alertwatch/internal/notify"
	"alertwatch/internal/reminders"
	"alertwatch/internal/runtime/supervisor"
	"alertwatch/internal/storage"
	"alertwatch/pkg/logx"
)

// App wires the services together: config manager, logging, event bus,
// optional storage, the alerts transport, the notification pipeline, the
// reconciler, and the bill-reminder schedule.
type App struct {
	mgr    *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	bus   eventbus.Bus
	store storage.Store

	client     *api.Client
	notifier   *notify.Service
	reconciler *alerts.Service
	reminders  *reminders.Service

	sup *supervisor.Supervisor
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logSvc, log := logx.New(logxConfig(cfg.Logging))
	mgr.SetLogger(log)
	mgr.SetValidator(func(_ context.Context, c *config.Config) error { return Validate(c) })

	bus := eventbus.New()

	store, err := storage.Open(storageConfig(cfg.Storage), log.With(logx.String("svc", "storage")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("open storage: %w", err)
	}

	apiCfg, _ := apiConfig(cfg.API) // validated above
	client := api.New(apiCfg, log.With(logx.String("svc", "api")))

	sink, err := buildSink(cfg.Notifier, log.With(logx.String("svc", "notify")))
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	notifyCfg, _ := notifyConfig(cfg.Notifier)
	notifier := notify.New(notifyCfg, sink, log.With(logx.String("svc", "notify")), bus, store)

	persistShown := cfg.Storage != nil && cfg.Storage.PersistShown
	reconciler := alerts.New(alerts.Config{}, client, notifier, bus, store, persistShown,
		log.With(logx.String("svc", "alerts")))

	rem := reminders.New(remindersConfig(cfg.Reminders), client, bus,
		log.With(logx.String("svc", "reminders")))

	return &App{
		mgr:        mgr,
		logSvc:     logSvc,
		log:        log,
		bus:        bus,
		store:      store,
		client:     client,
		notifier:   notifier,
		reconciler: reconciler,
		reminders:  rem,
	}, nil
}

// Bus exposes the event bus so embedding programs can publish
// alerts.updated after creating alerts as a side effect of other actions.
func (a *App) Bus() eventbus.Bus { return a.bus }

// Client exposes the alerts transport.
func (a *App) Client() *api.Client { return a.client }

// Reconciler exposes the session alert view.
func (a *App) Reconciler() *alerts.Service { return a.reconciler }

// Notifier exposes the notification pipeline.
func (a *App) Notifier() *notify.Service { return a.notifier }

func (a *App) Start(ctx context.Context) error {
	a.sup = supervisor.New(ctx, supervisor.WithLogger(a.log))

	a.notifier.Start(a.sup.Context())

	if err := a.reminders.Start(a.sup.Context()); err != nil {
		return fmt.Errorf("start reminders: %w", err)
	}

	a.sup.Go("alerts.reconciler", a.reconciler.Run)
	a.sup.Go("config.watch", a.mgr.Watch)
	a.sup.Go("config.apply", a.applyLoop)

	// Best effort: no-op outside systemd.
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("alertwatch started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	a.reminders.Stop(ctx)
	if a.sup != nil {
		_ = a.sup.Stop(ctx)
	}
	a.notifier.Stop(ctx)
	if a.store != nil {
		_ = a.store.Close()
	}
	a.log.Info("alertwatch stopped")
	_ = a.logSvc.Close()
	return nil
}

// applyLoop re-applies hot-reloadable sections (logging, api, notifier)
// when the config manager publishes a new config. Reminder schedule and
// storage driver changes need a restart.
func (a *App) applyLoop(ctx context.Context) error {
	ch := a.mgr.Subscribe(4)
	defer a.mgr.Unsubscribe(ch)
	for {
		select {
		case <-ctx.Done():
			return nil
		case cfg, ok := <-ch:
			if !ok {
				return nil
			}
			a.applyConfig(cfg)
		}
	}
}

func (a *App) applyConfig(cfg *config.Config) {
	a.logSvc.Apply(logxConfig(cfg.Logging))

	if apiCfg, err := apiConfig(cfg.API); err == nil {
		a.client.Apply(apiCfg)
	} else {
		a.log.Warn("api config not applied", logx.Err(err))
	}

	if nCfg, err := notifyConfig(cfg.Notifier); err == nil {
		a.notifier.Apply(nCfg)
	} else {
		a.log.Warn("notifier config not applied", logx.Err(err))
	}

	a.log.Info("config reloaded")
}

func buildSink(cfg config.NotifierConfig, log logx.Logger) (notify.Sink, error) {
	switch cfg.Sink {
	case "", "console":
		return notify.ConsoleSink{Out: logx.Stdout()}, nil
	case "telegram":
		if cfg.Telegram == nil {
			return nil, fmt.Errorf("notifier.telegram section is required for the telegram sink")
		}
		return notify.NewTelegramSink(notify.TelegramConfig{
			Token:  cfg.Telegram.Token,
			ChatID: cfg.Telegram.ChatID,
		}, log), nil
	default:
		return nil, fmt.Errorf("unknown notifier sink: %q", cfg.Sink)
	}
}
