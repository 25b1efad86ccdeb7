package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"careline/internal/domain"
	"careline/internal/ports"
)

var (
	ErrAlreadyRecording = errors.New("a consultation session is already recording")
	ErrNotRecording     = errors.New("no consultation session is recording")
)

// Config controls monitoring pipeline behavior.
type Config struct {
	AlertTTL     time.Duration
	DrainTimeout time.Duration
	CustomerNo   int
	BranchName   string
}

// SessionController orchestrates consultation monitoring sessions: it owns the
// transcript stream lifecycle, the session state, and the stop-time handoff of
// the accumulated feedback set to persistence.
type SessionController struct {
	streamer ports.TranscriptStreamer
	events   ports.EventSink
	logger   *slog.Logger
	reporter consultationReporter
	alerts   *alertScheduler
	cfg      Config

	mu      sync.Mutex
	current *activeSession
}

func NewSessionController(
	streamer ports.TranscriptStreamer,
	store ports.ConsultationStore,
	events ports.EventSink,
	logger *slog.Logger,
	cfg Config,
) *SessionController {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AlertTTL <= 0 {
		cfg.AlertTTL = 5 * time.Second
	}
	if cfg.DrainTimeout <= 0 {
		cfg.DrainTimeout = 4 * time.Second
	}

	c := &SessionController{
		streamer: streamer,
		events:   events,
		logger:   logger,
		reporter: newConsultationReporter(store, events, logger, cfg),
		alerts:   newAlertScheduler(cfg.AlertTTL),
		cfg:      cfg,
	}
	c.alerts.onChange = c.publishSnapshot
	return c
}

// Start opens a brand-new consultation session and begins consuming its
// transcript stream. Fails with ErrAlreadyRecording while a session is active.
func (c *SessionController) Start(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.current != nil {
		c.mu.Unlock()
		return "", ErrAlreadyRecording
	}
	c.mu.Unlock()

	sessionID := uuid.NewString()

	// The stream outlives the Start call itself (HTTP request contexts end
	// immediately), so only explicit Stop or process shutdown cancels it.
	sessionCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stream, err := c.streamer.Open(sessionCtx, sessionID)
	if err != nil {
		cancel()
		c.events.SessionError(domain.ErrorCodeStream, err.Error())
		return "", fmt.Errorf("open transcript stream: %w", err)
	}

	active := &activeSession{
		cancel:     cancel,
		stream:     stream,
		state:      newSessionState(sessionID),
		eventsDone: make(chan struct{}),
		startedAt:  time.Now(),
	}
	active.state.setRecording(true)

	c.mu.Lock()
	if c.current != nil {
		c.mu.Unlock()
		cancel()
		_ = stream.Close()
		return "", ErrAlreadyRecording
	}
	c.current = active
	c.mu.Unlock()

	c.alerts.Reset()
	go consumeStreamEvents(stream, active.state, c.alerts, c.events, c.logger, c.publishSnapshot, active.eventsDone)
	go c.watchStream(sessionID, stream)

	c.events.SessionStateChanged(true, domain.StateReasonSessionStarted)
	c.publishSnapshot()
	c.logger.Info("consultation session started", "session", sessionID)
	return sessionID, nil
}

// Stop disconnects the transcript stream, waits for in-flight events to drain,
// and returns the frozen feedback set. Persistence of the consultation and its
// fact checks runs asynchronously; failures there are logged and surfaced but
// never block or roll back the stop. Fails with ErrNotRecording when idle.
func (c *SessionController) Stop(ctx context.Context) ([]domain.Feedback, error) {
	// Claim the session atomically: of two concurrent stops, exactly one runs
	// the stop path, the other observes no active session.
	c.mu.Lock()
	active := c.current
	c.current = nil
	c.mu.Unlock()
	if active == nil {
		return nil, ErrNotRecording
	}

	// Closing the stream closes its events channel; once the consumer drains
	// it, no further mutation can reach this session's state. A wedged read
	// loop must not hold the stop hostage, so the drain wait is bounded too.
	if err := closeStream(active.stream, c.cfg.DrainTimeout); err != nil {
		c.logger.Warn("transcript stream closed with error", "session", active.state.sessionID, "error", err)
		active.cancel()
	}
	select {
	case <-active.eventsDone:
	case <-time.After(c.cfg.DrainTimeout):
		c.logger.Warn("transcript stream did not drain in time", "session", active.state.sessionID)
		c.events.SessionError(domain.ErrorCodeStream, "transcript stream did not drain in time")
	}

	feedbacks := active.state.freezeFeedbacks()
	active.state.setRecording(false)
	c.alerts.Reset()
	active.cancel()

	c.events.SessionStateChanged(false, domain.StateReasonSessionStopped)
	c.events.SnapshotUpdated(active.state.snapshot(nil))

	go c.reporter.Flush(context.WithoutCancel(ctx), active.state.sessionID, active.startedAt, active.state.utteranceCount(), feedbacks)

	c.logger.Info("consultation session stopped",
		"session", active.state.sessionID,
		"utterances", active.state.utteranceCount(),
		"feedbacks", len(feedbacks),
	)
	return feedbacks, nil
}

// DismissAlert closes the visible alert, if any (the popup's manual close).
func (c *SessionController) DismissAlert() {
	c.alerts.Dismiss()
}

// Status reports the recording flag and active session id.
func (c *SessionController) Status() domain.Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return domain.Status{Recording: false}
	}
	return domain.Status{Recording: true, SessionID: c.current.state.sessionID}
}

// Snapshot returns the current session view, or an empty snapshot when idle.
func (c *SessionController) Snapshot() domain.Snapshot {
	c.mu.Lock()
	active := c.current
	c.mu.Unlock()
	if active == nil {
		return domain.Snapshot{}
	}
	return active.state.snapshot(c.alerts.Active())
}

func (c *SessionController) publishSnapshot() {
	c.mu.Lock()
	active := c.current
	c.mu.Unlock()
	if active == nil {
		return
	}
	c.events.SnapshotUpdated(active.state.snapshot(c.alerts.Active()))
}

// watchStream surfaces mid-session connection failures. Recording stays on:
// reconnection is an explicit user stop/start, never automatic.
func (c *SessionController) watchStream(sessionID string, stream ports.StreamSession) {
	if err := stream.Wait(); err != nil {
		c.logger.Warn("transcript stream failed", "session", sessionID, "error", err)
		c.events.SessionError(domain.ErrorCodeStream, err.Error())
	}
}

func closeStream(session ports.StreamSession, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- session.Close()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return errors.New("transcript stream did not close in time")
	}
}
