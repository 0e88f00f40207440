package notify

import (
	"context"
	"fmt"
	"io"
	"time"
)

// Handle refers to one delivered notification so it can be dismissed later.
type Handle interface {
	Dismiss(ctx context.Context) error
}

// Sink renders notifications somewhere the user can see them.
//
// Probe is the capability/permission check: a nil error means the sink is
// reachable and allowed to deliver. Deliver returns a Handle used by the
// service's auto-dismiss timer; sinks that cannot retract a notification
// return a no-op handle.
type Sink interface {
	Name() string
	Probe(ctx context.Context) error
	Deliver(ctx context.Context, n Notification) (Handle, error)
}

// NopHandle is a Handle for sinks that cannot dismiss.
type NopHandle struct{}

func (NopHandle) Dismiss(context.Context) error { return nil }

// ConsoleSink prints notifications to a writer. It is the fallback sink
// for development and for headless environments without a configured
// delivery channel.
type ConsoleSink struct {
	Out io.Writer
}

func (ConsoleSink) Name() string                { return "console" }
func (ConsoleSink) Probe(context.Context) error { return nil }

func (s ConsoleSink) Deliver(_ context.Context, n Notification) (Handle, error) {
	if s.Out == nil {
		return NopHandle{}, nil
	}
	tag := priorityTag(n.Priority)
	_, err := fmt.Fprintf(s.Out, "%s %s %s: %s\n", time.Now().Format(time.RFC3339), tag, n.Title, n.Body)
	return NopHandle{}, err
}

func priorityTag(p string) string {
	switch p {
	case "critical":
		return "[CRITICAL]"
	case "high":
		return "[HIGH]"
	case "medium":
		return "[MEDIUM]"
	case "low":
		return "[LOW]"
	default:
		return "[INFO]"
	}
}
