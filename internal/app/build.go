package app

import (
	"fmt"

	"alertwatch/internal/api"
	"alertwatch/internal/config"
	"alertwatch/internal/notify"
	"alertwatch/internal/reminders"
	"alertwatch/internal/storage"
	"alertwatch/pkg/logx"
)

// Converters from the raw (string-duration) config sections to each
// service's typed config, plus the whole-file validator shared by initial
// load and hot reload.

func Validate(cfg *config.Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}
	if _, err := apiConfig(cfg.API); err != nil {
		return err
	}
	if _, err := notifyConfig(cfg.Notifier); err != nil {
		return err
	}
	switch cfg.Notifier.Sink {
	case "", "console", "telegram":
	default:
		return fmt.Errorf("notifier.sink: unknown sink %q", cfg.Notifier.Sink)
	}
	if cfg.Notifier.Sink == "telegram" && cfg.Notifier.Telegram == nil {
		return fmt.Errorf("notifier.telegram section is required for the telegram sink")
	}
	if cfg.Reminders != nil && cfg.Reminders.Enabled {
		if _, err := reminders.ParseSchedule(cfg.Reminders.Schedule); err != nil {
			return fmt.Errorf("reminders.schedule: %w", err)
		}
	}
	if cfg.Storage != nil {
		switch cfg.Storage.Driver {
		case "", "none", "file", "sqlite", "sqlite3":
		default:
			return fmt.Errorf("storage.driver: unknown driver %q", cfg.Storage.Driver)
		}
		if _, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout); err != nil {
			return err
		}
	}
	return nil
}

func apiConfig(c config.APIConfig) (api.Config, error) {
	timeout, err := config.ParseDurationField("api.timeout", c.Timeout)
	if err != nil {
		return api.Config{}, err
	}
	return api.Config{
		BaseURL:          c.BaseURL,
		Token:            c.Token,
		Timeout:          timeout,
		BatchConcurrency: c.BatchConcurrency,
	}, nil
}

func notifyConfig(c config.NotifierConfig) (notify.Config, error) {
	dedup, err := config.ParseDurationField("notifier.dedup_window", c.DedupWindow)
	if err != nil {
		return notify.Config{}, err
	}
	dismiss, err := config.ParseDurationField("notifier.dismiss_after", c.DismissAfter)
	if err != nil {
		return notify.Config{}, err
	}
	return notify.Config{
		Enabled:      c.Enabled,
		Workers:      c.Workers,
		QueueSize:    c.QueueSize,
		RatePerSec:   c.RatePerSec,
		DedupWindow:  dedup,
		DismissAfter: dismiss,
	}, nil
}

func remindersConfig(c *config.RemindersConfig) reminders.Config {
	if c == nil {
		return reminders.Config{}
	}
	return reminders.Config{Enabled: c.Enabled, Schedule: c.Schedule, Timezone: c.Timezone}
}

func storageConfig(c *config.StorageConfig) storage.Config {
	if c == nil {
		return storage.Config{}
	}
	// Validated already; a parse failure here just means default timeout.
	busy, _ := config.ParseDurationField("storage.busy_timeout", c.BusyTimeout)
	return storage.Config{Driver: c.Driver, Path: c.Path, BusyTimeout: busy}
}

func logxConfig(c config.LoggingConfig) logx.Config {
	return logx.Config{
		Level:   c.Level,
		Console: c.Console,
		File: logx.FileConfig{
			Enabled: c.File.Enabled,
			Path:    c.File.Path,
		},
	}
}
