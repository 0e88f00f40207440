package app

import (
	"testing"
	"time"

	"alertwatch/internal/config"
)

func validConfig() *config.Config {
	return &config.Config{
		API:      config.APIConfig{BaseURL: "http://127.0.0.1:8000", Timeout: "10s"},
		Notifier: config.NotifierConfig{Enabled: true, Sink: "console", DismissAfter: "5s"},
		Logging:  config.LoggingConfig{Level: "info", Console: true},
	}
}

func TestValidateAccepts(t *testing.T) {
	t.Parallel()
	if err := Validate(validConfig()); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	cfg := validConfig()
	cfg.Notifier.Sink = "telegram"
	cfg.Notifier.Telegram = &config.TelegramConfig{Token: "t", ChatID: 1}
	cfg.Reminders = &config.RemindersConfig{Enabled: true, Schedule: "@daily"}
	cfg.Storage = &config.StorageConfig{Driver: "file", Path: "./store"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate full config: %v", err)
	}
}

func TestValidateRejects(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{name: "bad api timeout", mutate: func(c *config.Config) { c.API.Timeout = "soon" }},
		{name: "bad dedup window", mutate: func(c *config.Config) { c.Notifier.DedupWindow = "-2s" }},
		{name: "unknown sink", mutate: func(c *config.Config) { c.Notifier.Sink = "pigeon" }},
		{name: "telegram sink without section", mutate: func(c *config.Config) {
			c.Notifier.Sink = "telegram"
			c.Notifier.Telegram = nil
		}},
		{name: "bad reminder schedule", mutate: func(c *config.Config) {
			c.Reminders = &config.RemindersConfig{Enabled: true, Schedule: "whenever"}
		}},
		{name: "unknown storage driver", mutate: func(c *config.Config) {
			c.Storage = &config.StorageConfig{Driver: "redis", Path: "x"}
		}},
		{name: "bad busy timeout", mutate: func(c *config.Config) {
			c.Storage = &config.StorageConfig{Driver: "file", Path: "x", BusyTimeout: "later"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
	if err := Validate(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestDisabledReminderScheduleNotValidated(t *testing.T) {
	t.Parallel()
	cfg := validConfig()
	cfg.Reminders = &config.RemindersConfig{Enabled: false, Schedule: "whenever"}
	if err := Validate(cfg); err != nil {
		t.Fatalf("disabled reminders should skip schedule validation: %v", err)
	}
}

func TestConfigConverters(t *testing.T) {
	t.Parallel()
	ac, err := apiConfig(config.APIConfig{BaseURL: "http://x", Token: "t", Timeout: "3s", BatchConcurrency: 8})
	if err != nil {
		t.Fatalf("apiConfig: %v", err)
	}
	if ac.Timeout != 3*time.Second || ac.BatchConcurrency != 8 {
		t.Fatalf("apiConfig = %+v", ac)
	}

	nc, err := notifyConfig(config.NotifierConfig{Enabled: true, DedupWindow: "1m", DismissAfter: "5s"})
	if err != nil {
		t.Fatalf("notifyConfig: %v", err)
	}
	if nc.DedupWindow != time.Minute || nc.DismissAfter != 5*time.Second {
		t.Fatalf("notifyConfig = %+v", nc)
	}

	if rc := remindersConfig(nil); rc.Enabled {
		t.Fatalf("nil reminders section should disable: %+v", rc)
	}
	if sc := storageConfig(nil); sc.Driver != "" {
		t.Fatalf("nil storage section should disable: %+v", sc)
	}
}
