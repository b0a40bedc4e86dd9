// Package poller follows an uploaded dataset's backend job until it reaches a
// terminal state, fails, times out or is stopped.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/dataprep/ingest/internal/model"
)

const (
	DefaultInterval = 1500 * time.Millisecond
	DefaultTimeout  = 120 * time.Second

	FailedMessage  = "Processing failed."
	TimeoutMessage = "Processing is taking too long (timeout). Try again later."
)

// State of a polling handle
type State string

const (
	StateIdle      State = "idle"
	StatePolling   State = "polling"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateTimedOut  State = "timed_out"
	StateStopped   State = "stopped"
)

// IsTerminal reports whether the state ends an observation stream.
func (s State) IsTerminal() bool {
	return s == StateSucceeded || s == StateFailed || s == StateTimedOut
}

// StatusSource answers job status queries.
type StatusSource interface {
	GetDatasetStatus(ctx context.Context, datasetID string) (*model.StatusResponse, error)
}

// Observation is one view of the job delivered to the subscriber.
type Observation struct {
	JobID        string              `json:"jobId"`
	Status       model.DatasetStatus `json:"status"`
	Progress     int                 `json:"progress"`
	ErrorMessage string              `json:"errorMessage,omitempty"`
	State        State               `json:"state"`
}

// Terminal reports whether this is the last observation of its stream.
func (o Observation) Terminal() bool {
	return o.State.IsTerminal()
}

// Config holds the polling cadence.
type Config struct {
	Interval time.Duration
	Timeout  time.Duration
}

// DefaultConfig returns a 1.5s interval and a 2 minute timeout.
func DefaultConfig() Config {
	return Config{Interval: DefaultInterval, Timeout: DefaultTimeout}
}

// Poller starts polling handles. It holds no per-job state itself.
type Poller struct {
	source StatusSource
	clock  clockwork.Clock
	cfg    Config
	logger *zap.Logger
}

// New creates a poller. Zero config fields take the defaults; a nil clock
// uses the wall clock.
func New(source StatusSource, cfg Config, clk clockwork.Clock, logger *zap.Logger) *Poller {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if clk == nil {
		clk = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{source: source, clock: clk, cfg: cfg, logger: logger}
}

// Start begins polling jobID. The handle is in StatePolling with status
// queued and progress 0 before any request is made. Observations are
// delivered to subscriber, one per status response, until a terminal one.
func (p *Poller) Start(jobID string, subscriber func(Observation)) *Handle {
	if subscriber == nil {
		subscriber = func(Observation) {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		id:         uuid.New().String(),
		jobID:      jobID,
		poller:     p,
		subscriber: subscriber,
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
		state:      StatePolling,
		startedAt:  p.clock.Now(),
		last: Observation{
			JobID:    jobID,
			Status:   model.DatasetStatusQueued,
			Progress: 0,
			State:    StatePolling,
		},
		logger: p.logger.With(zap.String("dataset_id", jobID)),
	}

	h.mu.Lock()
	h.timer = p.clock.AfterFunc(p.cfg.Interval, h.tick)
	h.mu.Unlock()

	h.logger.Info("Polling dataset status",
		zap.Duration("interval", p.cfg.Interval),
		zap.Duration("timeout", p.cfg.Timeout))
	return h
}

// Stop stops h. It is safe on a nil or already finished handle.
func (p *Poller) Stop(h *Handle) {
	if h != nil {
		h.Stop()
	}
}

// Handle is one running (or finished) poll of a dataset job.
type Handle struct {
	id         string
	jobID      string
	poller     *Poller
	subscriber func(Observation)
	logger     *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu        sync.Mutex
	state     State
	last      Observation
	startedAt time.Time
	timer     clockwork.Timer
	attempts  int
	silenced  bool

	emitMu   sync.Mutex
	doneOnce sync.Once
}

func (h *Handle) ID() string    { return h.id }
func (h *Handle) JobID() string { return h.jobID }

// State returns the current state.
func (h *Handle) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Observation returns the latest view of the job.
func (h *Handle) Observation() Observation {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

// Attempts returns the number of status requests issued so far.
func (h *Handle) Attempts() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attempts
}

// Done is closed once the handle is stopped, or once its terminal observation
// has been delivered.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the handle finishes or ctx ends, and returns the last
// observation.
func (h *Handle) Wait(ctx context.Context) (Observation, error) {
	select {
	case <-h.done:
		return h.Observation(), nil
	case <-ctx.Done():
		return h.Observation(), ctx.Err()
	}
}

// Stop cancels the scheduled poll and any request in flight. Once Stop
// returns no new delivery starts; a subscriber call already running on the
// polling goroutine is not interrupted. Stop is idempotent and may be called
// from the subscriber.
func (h *Handle) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.silenced = true
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.cancel()
	if h.state == StatePolling {
		h.state = StateStopped
		h.last.State = StateStopped
		h.closeDone()
		h.logger.Info("Polling stopped", zap.Int("attempts", h.attempts))
	}
}

func (h *Handle) tick() {
	h.mu.Lock()
	if h.state != StatePolling {
		h.mu.Unlock()
		return
	}
	h.timer = nil
	if h.expiredLocked() {
		obs := h.finishLocked(StateTimedOut, h.last.Status, h.last.Progress, TimeoutMessage)
		h.mu.Unlock()
		h.emit(obs)
		h.closeDone()
		return
	}
	h.attempts++
	attempt := h.attempts
	ctx := h.ctx
	h.mu.Unlock()

	resp, err := h.poller.source.GetDatasetStatus(ctx, h.jobID)

	h.mu.Lock()
	if h.state != StatePolling {
		// stopped while the request was in flight
		h.mu.Unlock()
		return
	}

	var out []Observation
	switch {
	case err != nil:
		h.logger.Warn("Status request failed", zap.Int("attempt", attempt), zap.Error(err))
		out = append(out, h.finishLocked(StateFailed, h.last.Status, h.last.Progress, err.Error()))
	case resp == nil:
		h.logger.Warn("Empty status response", zap.Int("attempt", attempt))
		out = append(out, h.finishLocked(StateFailed, h.last.Status, h.last.Progress, FailedMessage))
	case resp.Status == model.DatasetStatusDone:
		out = append(out, h.finishLocked(StateSucceeded, resp.Status, resp.Progress, ""))
	case resp.Status == model.DatasetStatusFailed:
		msg := FailedMessage
		if resp.ErrorMessage != nil && *resp.ErrorMessage != "" {
			msg = *resp.ErrorMessage
		}
		out = append(out, h.finishLocked(StateFailed, resp.Status, resp.Progress, msg))
	default:
		h.last = Observation{
			JobID:    h.jobID,
			Status:   resp.Status,
			Progress: resp.Progress,
			State:    StatePolling,
		}
		out = append(out, h.last)
		h.logger.Debug("Dataset status",
			zap.Int("attempt", attempt),
			zap.String("status", string(resp.Status)),
			zap.Int("progress", resp.Progress))
		if h.expiredLocked() {
			out = append(out, h.finishLocked(StateTimedOut, resp.Status, resp.Progress, TimeoutMessage))
		}
	}
	h.mu.Unlock()

	for _, obs := range out {
		h.emit(obs)
	}

	// the next poll is scheduled only after the subscriber has seen this one
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == StatePolling {
		h.timer = h.poller.clock.AfterFunc(h.poller.cfg.Interval, h.tick)
		return
	}
	if h.state.IsTerminal() {
		h.closeDone()
	}
}

func (h *Handle) expiredLocked() bool {
	return h.poller.clock.Now().Sub(h.startedAt) > h.poller.cfg.Timeout
}

// finishLocked moves the handle to a terminal state and releases its
// resources. Caller holds h.mu.
func (h *Handle) finishLocked(state State, status model.DatasetStatus, progress int, msg string) Observation {
	h.state = state
	h.last = Observation{
		JobID:        h.jobID,
		Status:       status,
		Progress:     progress,
		ErrorMessage: msg,
		State:        state,
	}
	if h.timer != nil {
		h.timer.Stop()
		h.timer = nil
	}
	h.cancel()

	fields := []zap.Field{
		zap.String("state", string(state)),
		zap.Int("attempts", h.attempts),
		zap.Int("progress", progress),
	}
	if state == StateSucceeded {
		h.logger.Info("Dataset processing finished", fields...)
	} else {
		h.logger.Warn("Dataset processing did not complete", append(fields, zap.String("error", msg))...)
	}
	return h.last
}

func (h *Handle) closeDone() {
	h.doneOnce.Do(func() { close(h.done) })
}

func (h *Handle) emit(obs Observation) {
	h.emitMu.Lock()
	defer h.emitMu.Unlock()

	h.mu.Lock()
	silenced := h.silenced
	h.mu.Unlock()
	if silenced {
		return
	}
	h.subscriber(obs)
}
