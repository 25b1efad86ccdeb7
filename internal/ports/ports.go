package ports

import (
	"context"
	"time"

	"careline/internal/domain"
)

// StreamSession is an active transcript websocket session. Events delivers
// decoded utterance/analysis events in arrival order and is closed when the
// stream ends; Wait blocks until then and reports the stream's terminal error,
// if any.
type StreamSession interface {
	Events() <-chan domain.StreamEvent
	Wait() error
	Close() error
}

// TranscriptStreamer opens transcript streams, one per consultation session.
type TranscriptStreamer interface {
	Open(ctx context.Context, sessionID string) (StreamSession, error)
}

// ConsultationRecord is the consultation row persisted on session stop.
type ConsultationRecord struct {
	CustomerNo  int
	ConsultedAt time.Time
	BranchName  string
	Topic       string
	Summary     string
}

// FactCheckRecord is one persisted compliance finding.
type FactCheckRecord struct {
	ConsultationNo int64
	Severity       domain.Severity
	Category       string
	Description    string
	Regulation     string
	Suggestion     string
	OriginalText   string
	Timestamp      time.Time
}

// ConsultationStore persists finished consultations and their fact checks.
type ConsultationStore interface {
	CreateConsultation(ctx context.Context, rec ConsultationRecord) (int64, error)
	CreateFactCheck(ctx context.Context, rec FactCheckRecord) error
}

// EventSink emits pipeline state and events to observers (the console UI).
type EventSink interface {
	SessionStateChanged(recording bool, reason domain.StateReason)
	SnapshotUpdated(snapshot domain.Snapshot)
	SessionError(code domain.ErrorCode, detail string)
}
