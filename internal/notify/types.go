package notify

import "time"

// Notification is one user-facing popup: a title, a short body, and the
// priority of the underlying alert. AlertID links back to the server-side
// alert record when the notification was raised by the reconciler.
type Notification struct {
	AlertID  int64
	Title    string
	Body     string
	Priority string
}

// HistoryItem is one entry of the bounded in-memory delivery history.
type HistoryItem struct {
	At       time.Time
	Title    string
	Priority string
	Sink     string
}

// Config controls the notification pipeline.
type Config struct {
	Enabled    bool
	Workers    int
	QueueSize  int
	RatePerSec int

	// DedupWindow suppresses identical notifications delivered within the
	// window. Zero disables the guard (the reconciler's shown-set already
	// prevents per-alert repeats within a session).
	DedupWindow time.Duration

	// DismissAfter auto-dismisses a delivered notification regardless of
	// user interaction. Zero means the default of 5s.
	DismissAfter time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.RatePerSec <= 0 {
		c.RatePerSec = 3
	}
	if c.DedupWindow < 0 {
		c.DedupWindow = 0
	}
	if c.DismissAfter <= 0 {
		c.DismissAfter = 5 * time.Second
	}
	return c
}
