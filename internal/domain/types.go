package domain

import "time"

// Speaker identifies who produced an utterance.
type Speaker string

const (
	SpeakerAgent    Speaker = "agent"
	SpeakerCustomer Speaker = "customer"
)

// VerdictLevel is the analysis engine's risk classification for one utterance.
type VerdictLevel string

const (
	VerdictNormal  VerdictLevel = "normal"
	VerdictWarning VerdictLevel = "warning"
	VerdictSevere  VerdictLevel = "severe"
)

// Severity classifies a feedback record for display and reporting.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// SeverityFor maps an analysis verdict level onto a feedback severity.
// Unknown non-normal levels classify low.
func SeverityFor(level VerdictLevel) Severity {
	switch level {
	case VerdictSevere:
		return SeverityHigh
	case VerdictWarning:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Utterance is one transcribed unit of speech. Immutable after creation,
// except for the late-bound LinkedFeedbackID.
type Utterance struct {
	Seq              int64     `json:"seq"`
	Speaker          Speaker   `json:"speaker"`
	Text             string    `json:"text"`
	OccurredAt       time.Time `json:"occurredAt"`
	LinkedFeedbackID string    `json:"linkedFeedbackId,omitempty"`
}

// Feedback is a derived compliance concern tied to one utterance.
type Feedback struct {
	ID            string    `json:"id"`
	UtteranceSeq  int64     `json:"utteranceSeq"`
	Severity      Severity  `json:"severity"`
	Category      string    `json:"category"`
	Description   string    `json:"description"`
	RegulationRef string    `json:"regulationRef"`
	Suggestion    string    `json:"suggestion"`
	OriginalText  string    `json:"originalText"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Alert is the transient on-screen notification raised for high and medium
// severity feedback. At most one alert is visible at any instant.
type Alert struct {
	Kind       Severity `json:"kind"`
	Category   string   `json:"category"`
	FeedbackID string   `json:"feedbackId"`
}

// Snapshot is the UI-facing view of one session at a point in time.
type Snapshot struct {
	SessionID   string      `json:"sessionId"`
	Recording   bool        `json:"recording"`
	Utterances  []Utterance `json:"utterances"`
	Feedbacks   []Feedback  `json:"feedbacks"`
	ActiveAlert *Alert      `json:"activeAlert,omitempty"`
}

// Status summarizes the controller state for the UI.
type Status struct {
	Recording bool   `json:"recording"`
	SessionID string `json:"sessionId,omitempty"`
}

// EventKind discriminates decoded transcript stream events.
type EventKind string

const (
	EventKindUtterance EventKind = "utterance"
	EventKindAnalysis  EventKind = "analysis"
)

// StreamEvent is one decoded event from the transcript stream. Ref is a
// per-stream monotonic counter assigned to each utterance by the adapter; an
// analysis event carries the Ref of the utterance it judges, and the adapter's
// framing guarantees the utterance event precedes it.
type StreamEvent struct {
	Kind    EventKind
	Ref     uint64
	Speaker Speaker
	Text    string

	Level       VerdictLevel
	Title       string
	Description string
	Reference   string
	Suggestion  string
}

// ErrorCode identifies non-fatal pipeline errors surfaced to observers.
type ErrorCode string

const (
	ErrorCodeStream      ErrorCode = "stream"
	ErrorCodeCorrelation ErrorCode = "correlation"
	ErrorCodePersistence ErrorCode = "persistence"
)

// StateReason provides a structured reason for recording-state transitions.
type StateReason string

const (
	StateReasonSessionStarted StateReason = "session_started"
	StateReasonSessionStopped StateReason = "session_stopped"
)
