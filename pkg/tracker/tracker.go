package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/clientflow/clientflow/pkg/config"
)

// State is the aggregate approval state the bridge translates into a display
// label on the external task tracker.
type State string

const (
	StateWaiting  State = "waiting"
	StateApproved State = "approved"
)

// Result reports the outcome of one sync attempt. A non-2xx response is a
// structured failure carried here, never an error the engine path would trip
// over; the bridge never mutates the approval store.
type Result struct {
	Synced     bool
	Disabled   bool
	Skipped    bool
	StatusCode int
	Body       string
	Err        error
}

type Bridge struct {
	cfg      config.TrackerConfig
	client   *http.Client
	logger   *zap.Logger
	disabled bool
}

func NewBridge(cfg config.TrackerConfig, logger *zap.Logger) *Bridge {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	disabled := cfg.Token == "" || cfg.BaseURL == ""
	if disabled {
		logger.Warn("tracker bridge disabled: base url or token not configured")
	}

	return &Bridge{
		cfg:      cfg,
		client:   &http.Client{Timeout: timeout},
		logger:   logger,
		disabled: disabled,
	}
}

// Sync pushes the target state's label onto the tracked task. It is a no-op
// when the approval carries no external task id or the bridge is disabled.
func (b *Bridge) Sync(ctx context.Context, externalTaskID string, state State) Result {
	if externalTaskID == "" {
		return Result{Skipped: true}
	}
	if b.disabled {
		return Result{Disabled: true}
	}

	label := b.cfg.WaitingLabel
	if state == StateApproved {
		label = b.cfg.ApprovedLabel
	}

	body, err := json.Marshal(map[string]string{"status": label})
	if err != nil {
		return Result{Err: err}
	}

	url := fmt.Sprintf("%s/tasks/%s/status", strings.TrimSuffix(b.cfg.BaseURL, "/"), externalTaskID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return Result{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.cfg.Token)

	resp, err := b.client.Do(req)
	if err != nil {
		return Result{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return Result{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	return Result{Synced: true, StatusCode: resp.StatusCode}
}
