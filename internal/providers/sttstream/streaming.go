// Package sttstream connects to the transcription/analysis service over a
// duplex websocket and decodes its frames into typed stream events.
package sttstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"careline/internal/domain"
	"careline/internal/ports"
)

// Config controls the transcript websocket connection.
type Config struct {
	BaseURL    string
	BufferSize int
}

// Streamer implements ports.TranscriptStreamer against the console backend's
// live transcript endpoint.
type Streamer struct {
	cfg    Config
	logger *slog.Logger
}

func NewStreamer(cfg Config, logger *slog.Logger) *Streamer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Streamer{cfg: cfg, logger: logger}
}

func (s *Streamer) Open(ctx context.Context, sessionID string) (ports.StreamSession, error) {
	wsURL, err := buildStreamURL(s.cfg.BaseURL, sessionID)
	if err != nil {
		return nil, err
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to transcript stream: %w", err)
	}

	session := &streamSession{
		conn:   conn,
		logger: s.logger.With("session", sessionID),
		events: make(chan domain.StreamEvent, s.cfg.BufferSize),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}

	if err := conn.WriteJSON(controlMessage{Type: "Start", SessionID: sessionID}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to announce session: %w", err)
	}

	go session.readLoop()
	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()

	return session, nil
}

type controlMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
}

type streamSession struct {
	conn   *websocket.Conn
	logger *slog.Logger

	events chan domain.StreamEvent
	stop   chan struct{}
	done   chan struct{}

	nextRef uint64

	errMu sync.Mutex
	err   error

	closing   atomic.Bool
	closeOnce sync.Once
}

func (s *streamSession) Events() <-chan domain.StreamEvent {
	return s.events
}

func (s *streamSession) Wait() error {
	<-s.done
	return s.waitErr()
}

func (s *streamSession) Close() error {
	s.closeOnce.Do(func() {
		s.closing.Store(true)
		close(s.stop)
		_ = s.conn.WriteJSON(controlMessage{Type: "CloseStream"})
		_ = s.conn.Close()
	})
	<-s.done
	return s.waitErr()
}

func (s *streamSession) waitErr() error {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	return s.err
}

func (s *streamSession) setErr(err error) {
	if err == nil {
		return
	}
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) && websocket.IsCloseError(closeErr,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
	) {
		return
	}

	s.errMu.Lock()
	defer s.errMu.Unlock()
	if s.err == nil {
		s.err = err
	}
}

// readLoop decodes inbound frames and emits typed events until the connection
// ends. One bad frame never tears the stream down. A frame with blank text is
// discarded whole, including any attached verdict.
func (s *streamSession) readLoop() {
	defer func() {
		close(s.events)
		close(s.done)
		_ = s.conn.Close()
	}()

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closing.Load() {
				s.setErr(fmt.Errorf("transcript stream read failed: %w", err))
			}
			return
		}

		var frame transcriptFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			s.logger.Warn("dropping malformed transcript frame", "error", err)
			continue
		}

		text := strings.TrimSpace(frame.Text)
		if text == "" {
			continue
		}

		s.nextRef++
		ref := s.nextRef
		s.emit(domain.StreamEvent{
			Kind:    domain.EventKindUtterance,
			Ref:     ref,
			Speaker: speakerFor(frame.Speaker),
			Text:    text,
		})

		if frame.Analysis != nil {
			s.emit(domain.StreamEvent{
				Kind:        domain.EventKindAnalysis,
				Ref:         ref,
				Level:       normalizeLevel(frame.Analysis.Level),
				Title:       strings.TrimSpace(frame.Analysis.Title),
				Description: frame.Analysis.Description,
				Reference:   frame.Analysis.Reference,
				Suggestion:  frame.Analysis.Suggestion,
			})
		}
	}
}

// emit blocks rather than drops: losing an event would break arrival-order
// correlation. The stop channel unblocks it if the session is closed while
// the consumer is gone.
func (s *streamSession) emit(event domain.StreamEvent) {
	select {
	case s.events <- event:
	case <-s.stop:
	}
}

type transcriptFrame struct {
	Speaker  string         `json:"speaker"`
	Text     string         `json:"text"`
	Analysis *analysisFrame `json:"analysis,omitempty"`
}

type analysisFrame struct {
	Level       string `json:"level"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Reference   string `json:"reference"`
	Suggestion  string `json:"suggestion"`
}

func speakerFor(value string) domain.Speaker {
	if strings.EqualFold(strings.TrimSpace(value), string(domain.SpeakerCustomer)) {
		return domain.SpeakerCustomer
	}
	return domain.SpeakerAgent
}

// normalizeLevel accepts the analysis engine's Korean levels alongside their
// english aliases. Unknown non-normal levels pass through and classify low.
func normalizeLevel(value string) domain.VerdictLevel {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "정상", "normal", "":
		return domain.VerdictNormal
	case "심각", "severe":
		return domain.VerdictSevere
	case "경고", "warning":
		return domain.VerdictWarning
	default:
		return domain.VerdictLevel(strings.ToLower(strings.TrimSpace(value)))
	}
}

func buildStreamURL(base string, sessionID string) (string, error) {
	base = strings.TrimSpace(base)
	if strings.HasPrefix(base, "https://") {
		base = "wss://" + strings.TrimPrefix(base, "https://")
	} else if strings.HasPrefix(base, "http://") {
		base = "ws://" + strings.TrimPrefix(base, "http://")
	}
	base = strings.TrimRight(base, "/")

	streamURL, err := url.Parse(base + "/ws/stt")
	if err != nil {
		return "", fmt.Errorf("invalid transcript stream base URL: %w", err)
	}

	query := streamURL.Query()
	query.Set("session_id", sessionID)
	streamURL.RawQuery = query.Encode()
	return streamURL.String(), nil
}
