package usecase

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"careline/internal/domain"
	"careline/internal/ports"
)

const fallbackCategory = "주의 필요"

// consumeStreamEvents drains one transcript session strictly in arrival order,
// appending utterances and correlating analysis verdicts back onto them. It
// returns when the session's events channel closes, which is the drain fence
// Stop relies on: after done is closed no further mutation can reach state.
func consumeStreamEvents(
	session ports.StreamSession,
	state *sessionState,
	alerts *alertScheduler,
	events ports.EventSink,
	logger *slog.Logger,
	publish func(),
	done chan struct{},
) {
	defer close(done)

	seqByRef := make(map[uint64]int64)

	for event := range session.Events() {
		switch event.Kind {
		case domain.EventKindUtterance:
			utterance := state.appendUtterance(event.Speaker, event.Text, time.Now())
			seqByRef[event.Ref] = utterance.Seq
			publish()

		case domain.EventKindAnalysis:
			if event.Level == domain.VerdictNormal {
				continue
			}

			seq, ok := seqByRef[event.Ref]
			if !ok {
				detail := fmt.Sprintf("verdict references unknown utterance ref %d", event.Ref)
				logger.Warn("dropping uncorrelated verdict", "ref", event.Ref, "title", event.Title)
				events.SessionError(domain.ErrorCodeCorrelation, detail)
				continue
			}

			feedback := synthesizeFeedback(event, seq, state)
			if err := state.attachFeedback(feedback); err != nil {
				logger.Warn("dropping uncorrelated verdict", "ref", event.Ref, "error", err)
				events.SessionError(domain.ErrorCodeCorrelation, err.Error())
				continue
			}

			if feedback.Severity == domain.SeverityHigh || feedback.Severity == domain.SeverityMedium {
				// Offer notifies the scheduler's onChange hook, which
				// publishes the snapshot with the new alert attached.
				alerts.Offer(feedback)
			} else {
				publish()
			}
		}
	}
}

func synthesizeFeedback(event domain.StreamEvent, seq int64, state *sessionState) domain.Feedback {
	category := event.Title
	if category == "" {
		category = fallbackCategory
	}
	return domain.Feedback{
		ID:            uuid.NewString(),
		UtteranceSeq:  seq,
		Severity:      domain.SeverityFor(event.Level),
		Category:      category,
		Description:   event.Description,
		RegulationRef: event.Reference,
		Suggestion:    event.Suggestion,
		OriginalText:  state.textOf(seq),
		CreatedAt:     time.Now(),
	}
}
