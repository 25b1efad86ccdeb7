package usecase

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"careline/internal/domain"
)

func runConsumer(t *testing.T, events []domain.StreamEvent) (*sessionState, *alertScheduler, *fakeSink) {
	t.Helper()

	stream := newFakeStreamSession()
	for _, ev := range events {
		stream.Emit(ev)
	}
	_ = stream.Close()

	state := newSessionState("s-1")
	alerts := newAlertScheduler(time.Hour)
	sink := &fakeSink{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	done := make(chan struct{})

	consumeStreamEvents(stream, state, alerts, sink, logger, func() {}, done)

	select {
	case <-done:
	default:
		t.Fatalf("consumer must close done before returning")
	}
	return state, alerts, sink
}

func TestConsumeStreamEventsResolvesVerdictsInArrivalOrder(t *testing.T) {
	t.Parallel()

	state, _, _ := runConsumer(t, []domain.StreamEvent{
		{Kind: domain.EventKindUtterance, Ref: 1, Speaker: domain.SpeakerCustomer, Text: "원금 보장됩니다"},
		{Kind: domain.EventKindUtterance, Ref: 2, Speaker: domain.SpeakerAgent, Text: "무조건 오릅니다"},
		{Kind: domain.EventKindAnalysis, Ref: 1, Level: domain.VerdictSevere, Title: "원금보장 오인 표현"},
		{Kind: domain.EventKindAnalysis, Ref: 2, Level: domain.VerdictWarning, Title: "단정적 표현"},
	})

	feedbacks := state.freezeFeedbacks()
	if len(feedbacks) != 2 {
		t.Fatalf("expected 2 feedbacks, got %d", len(feedbacks))
	}
	if feedbacks[0].UtteranceSeq != 1 || feedbacks[0].Severity != domain.SeverityHigh {
		t.Fatalf("unexpected first feedback: %+v", feedbacks[0])
	}
	if feedbacks[1].UtteranceSeq != 2 || feedbacks[1].Severity != domain.SeverityMedium {
		t.Fatalf("unexpected second feedback: %+v", feedbacks[1])
	}
	if feedbacks[0].OriginalText != "원금 보장됩니다" {
		t.Fatalf("feedback must carry the utterance text, got %q", feedbacks[0].OriginalText)
	}
}

func TestConsumeStreamEventsFallsBackToDefaultCategory(t *testing.T) {
	t.Parallel()

	state, _, _ := runConsumer(t, []domain.StreamEvent{
		{Kind: domain.EventKindUtterance, Ref: 1, Speaker: domain.SpeakerAgent, Text: "제목 없는 지적"},
		{Kind: domain.EventKindAnalysis, Ref: 1, Level: domain.VerdictWarning},
	})

	feedbacks := state.freezeFeedbacks()
	if len(feedbacks) != 1 || feedbacks[0].Category != fallbackCategory {
		t.Fatalf("expected fallback category, got %+v", feedbacks)
	}
}

func TestConsumeStreamEventsOffersAlertForMediumAndAbove(t *testing.T) {
	t.Parallel()

	_, alerts, _ := runConsumer(t, []domain.StreamEvent{
		{Kind: domain.EventKindUtterance, Ref: 1, Speaker: domain.SpeakerAgent, Text: "무조건 오릅니다"},
		{Kind: domain.EventKindAnalysis, Ref: 1, Level: domain.VerdictWarning, Title: "단정적 표현"},
	})

	active := alerts.Active()
	if active == nil || active.Kind != domain.SeverityMedium {
		t.Fatalf("expected a medium alert, got %+v", active)
	}
}

func TestConsumeStreamEventsSkipsNormalAndUnknownRefs(t *testing.T) {
	t.Parallel()

	state, alerts, sink := runConsumer(t, []domain.StreamEvent{
		{Kind: domain.EventKindUtterance, Ref: 1, Speaker: domain.SpeakerAgent, Text: "정상 발화"},
		{Kind: domain.EventKindAnalysis, Ref: 1, Level: domain.VerdictNormal},
		{Kind: domain.EventKindAnalysis, Ref: 42, Level: domain.VerdictSevere, Title: "고아 판정"},
	})

	if got := state.freezeFeedbacks(); len(got) != 0 {
		t.Fatalf("expected no feedbacks, got %d", len(got))
	}
	if alerts.Active() != nil {
		t.Fatalf("expected no alert")
	}

	errs := sink.snapshotErrors()
	if len(errs) != 1 || errs[0].code != domain.ErrorCodeCorrelation {
		t.Fatalf("expected one correlation error, got %+v", errs)
	}
}
