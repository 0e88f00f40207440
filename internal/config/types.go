package config

// Config is the root of the alertwatch config file (YAML or JSON).
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
type Config struct {
	API       APIConfig        `json:"api"`
	Notifier  NotifierConfig   `json:"notifier"`
	Reminders *RemindersConfig `json:"reminders,omitempty"`
	Storage   *StorageConfig   `json:"storage,omitempty"`
	Logging   LoggingConfig    `json:"logging"`
}

// APIConfig points the transport at the banking backend.
type APIConfig struct {
	// BaseURL of the REST backend. Defaults to the local development
	// address when empty.
	BaseURL string `json:"base_url,omitempty"`
	// Token is an opaque bearer token injected on every request.
	Token   string `json:"token,omitempty"`
	Timeout string `json:"timeout,omitempty"`
	// BatchConcurrency caps in-flight requests per batch operation
	// (mark-all-read / dismiss-all). Default 4.
	BatchConcurrency int `json:"batch_concurrency,omitempty"`
}

// NotifierConfig controls the notification pipeline.
//
// Sink values: "console" (default) or "telegram".
type NotifierConfig struct {
	Enabled      bool            `json:"enabled"`
	Sink         string          `json:"sink,omitempty"`
	Workers      int             `json:"workers,omitempty"`
	QueueSize    int             `json:"queue_size,omitempty"`
	RatePerSec   int             `json:"rate_per_sec,omitempty"`
	DedupWindow  string          `json:"dedup_window,omitempty"`
	DismissAfter string          `json:"dismiss_after,omitempty"`
	Telegram     *TelegramConfig `json:"telegram,omitempty"`
}

type TelegramConfig struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}

// RemindersConfig controls the scheduled bill-reminder scan.
//
// Schedule accepts a cron expression ("0 9 * * *") or a plain Go
// duration ("6h").
type RemindersConfig struct {
	Enabled  bool   `json:"enabled"`
	Schedule string `json:"schedule,omitempty"`
	Timezone string `json:"timezone,omitempty"` // IANA TZ, e.g. "Asia/Jakarta"
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	"storage": { "driver": "file", "path": "./alertwatch_store", "persist_shown": true }
type StorageConfig struct {
	Driver      string `json:"driver"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string (sqlite)
	// PersistShown loads and persists the shown-set through the store so
	// notify-once survives restarts. Off by default: the shown-set is a
	// session-scoped cache and resets with the process.
	PersistShown bool `json:"persist_shown,omitempty"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}
