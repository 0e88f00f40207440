package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"alertwatch/pkg/logx"
)

const defaultBaseURL = "http://127.0.0.1:8000"

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// BatchConcurrency caps in-flight requests per batch operation.
	BatchConcurrency int
}

// Client is the alerts transport: a thin HTTP wrapper over the backend's
// alerts resource.
//
// Error policy (deliberate, mirrors how the rest of the app consumes it):
//   - reads (GetAlerts, GetSummary) recover to safe empty defaults and log,
//     so a broken alerts endpoint never blocks anything downstream;
//   - writes (create, mark-read, delete) propagate errors so the caller
//     can surface them.
//
// No operation is retried; everything is attempted exactly once.
type Client struct {
	mu   sync.Mutex
	cfg  Config
	http *http.Client
	log  logx.Logger
}

func New(cfg Config, log logx.Logger) *Client {
	c := &Client{log: log}
	c.applyLocked(cfg)
	return c
}

// Apply swaps base URL / token / timeouts at runtime (config hot reload).
func (c *Client) Apply(cfg Config) {
	c.mu.Lock()
	c.applyLocked(cfg)
	c.mu.Unlock()
}

func (c *Client) applyLocked(cfg Config) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.BatchConcurrency <= 0 {
		cfg.BatchConcurrency = 4
	}
	c.cfg = cfg
	c.http = &http.Client{Timeout: cfg.Timeout}
}

func (c *Client) snapshot() (Config, *http.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg, c.http
}

// GetAlerts returns the current alert list in server order.
//
// Best-effort by contract: any failure (transport, non-2xx, decode) is
// logged and an empty slice is returned instead of an error.
func (c *Client) GetAlerts(ctx context.Context) []Alert {
	var out []Alert
	if err := c.doJSON(ctx, http.MethodGet, "/api/alerts", nil, &out); err != nil {
		c.log.Warn("alert list fetch failed", logx.Err(err))
		return []Alert{}
	}
	if out == nil {
		out = []Alert{}
	}
	return out
}

// CreateAlert creates a new alert. Priority defaults to "info" when empty.
// Errors propagate: callers creating alerts as a side effect of another
// action want to know it failed, even if they choose to ignore it.
func (c *Client) CreateAlert(ctx context.Context, title, message, priority string) (Alert, error) {
	if strings.TrimSpace(priority) == "" {
		priority = "info"
	}
	body := map[string]string{"title": title, "message": message, "priority": priority}
	var out Alert
	if err := c.doJSON(ctx, http.MethodPost, "/api/alerts/", body, &out); err != nil {
		return Alert{}, err
	}
	return out, nil
}

// GetSummary returns the server-computed aggregate. On any failure it
// returns the zero Summary so summary cards can always render.
//
// The backend has exposed the summary under both a trailing-slash and a
// bare path; fall back to the bare variant when the first 404s.
func (c *Client) GetSummary(ctx context.Context) Summary {
	var out Summary
	err := c.doJSON(ctx, http.MethodGet, "/api/alerts/summary/", nil, &out)
	if err != nil {
		var se *StatusError
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			err = c.doJSON(ctx, http.MethodGet, "/api/alerts/summary", nil, &out)
		}
	}
	if err != nil {
		c.log.Warn("alert summary fetch failed", logx.Err(err))
		return Summary{}
	}
	return out
}

// MarkAlertRead marks a single alert read and returns the updated record.
func (c *Client) MarkAlertRead(ctx context.Context, id int64) (Alert, error) {
	var out Alert
	path := fmt.Sprintf("/api/alerts/%d/read", id)
	if err := c.doJSON(ctx, http.MethodPatch, path, nil, &out); err != nil {
		return Alert{}, err
	}
	return out, nil
}

// DeleteAlert deletes a single alert.
func (c *Client) DeleteAlert(ctx context.Context, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/alerts/%d", id), nil, nil)
}

// TriggerBillReminders asks the backend to run its bill-reminder scan.
// Side-effecting, no request body, no response payload beyond an ack.
func (c *Client) TriggerBillReminders(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/api/alerts/bill-reminders", nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	cfg, hc := c.snapshot()

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s %s: encode: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.Token)
	}

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Status: resp.StatusCode, Method: method, Path: path, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}
