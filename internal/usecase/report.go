package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"careline/internal/domain"
	"careline/internal/ports"
)

const (
	reportTopic   = "상담 종료 자동 기록"
	reportSummary = "상담 세션 종료 후 자동 저장됨"
)

// consultationReporter flushes a finished session to the console backend.
// Fire-and-forget by policy: every failure is logged and surfaced to
// observers, none is retried, and none blocks the stop transition.
type consultationReporter struct {
	store  ports.ConsultationStore
	events ports.EventSink
	logger *slog.Logger
	cfg    Config
}

func newConsultationReporter(store ports.ConsultationStore, events ports.EventSink, logger *slog.Logger, cfg Config) consultationReporter {
	return consultationReporter{store: store, events: events, logger: logger, cfg: cfg}
}

// Flush persists the consultation record, then one fact check per frozen
// feedback. Fact check failures are isolated per record; a consultation
// failure skips the fact checks, which have nothing to reference.
func (r consultationReporter) Flush(ctx context.Context, sessionID string, startedAt time.Time, utterances int, feedbacks []domain.Feedback) {
	consultationNo, err := r.store.CreateConsultation(ctx, ports.ConsultationRecord{
		CustomerNo:  r.cfg.CustomerNo,
		ConsultedAt: startedAt,
		BranchName:  r.cfg.BranchName,
		Topic:       reportTopic,
		Summary:     fmt.Sprintf("%s (발화 %d건, 지적 %d건)", reportSummary, utterances, len(feedbacks)),
	})
	if err != nil {
		r.logger.Warn("consultation record write failed", "session", sessionID, "error", err)
		r.events.SessionError(domain.ErrorCodePersistence, err.Error())
		return
	}

	for _, feedback := range feedbacks {
		err := r.store.CreateFactCheck(ctx, ports.FactCheckRecord{
			ConsultationNo: consultationNo,
			Severity:       feedback.Severity,
			Category:       feedback.Category,
			Description:    feedback.Description,
			Regulation:     feedback.RegulationRef,
			Suggestion:     feedback.Suggestion,
			OriginalText:   feedback.OriginalText,
			Timestamp:      feedback.CreatedAt,
		})
		if err != nil {
			r.logger.Warn("fact check write failed", "session", sessionID, "feedback", feedback.ID, "error", err)
			r.events.SessionError(domain.ErrorCodePersistence, err.Error())
		}
	}
}
