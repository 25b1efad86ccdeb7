package usecase

import (
	"errors"
	"sync"
	"time"

	"careline/internal/domain"
)

var errUnknownUtterance = errors.New("feedback references an unknown utterance")

// sessionState is the canonical record of one consultation. All mutation flows
// through the single event-consuming goroutine; the mutex covers concurrent
// readers (status endpoint, snapshot feed, stop-time freeze).
type sessionState struct {
	mu         sync.Mutex
	sessionID  string
	recording  bool
	nextSeq    int64
	utterances []domain.Utterance
	feedbacks  []domain.Feedback
}

func newSessionState(sessionID string) *sessionState {
	return &sessionState{sessionID: sessionID, nextSeq: 1}
}

func (s *sessionState) setRecording(recording bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recording = recording
}

// appendUtterance records one transcribed statement and assigns it the next
// sequence number.
func (s *sessionState) appendUtterance(speaker domain.Speaker, text string, at time.Time) domain.Utterance {
	s.mu.Lock()
	defer s.mu.Unlock()

	utterance := domain.Utterance{
		Seq:        s.nextSeq,
		Speaker:    speaker,
		Text:       text,
		OccurredAt: at,
	}
	s.nextSeq++
	s.utterances = append(s.utterances, utterance)
	return utterance
}

// attachFeedback appends a feedback record and links it back onto its
// originating utterance. The link is the only post-creation utterance
// mutation.
func (s *sessionState) attachFeedback(feedback domain.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.utterances {
		if s.utterances[i].Seq == feedback.UtteranceSeq {
			s.utterances[i].LinkedFeedbackID = feedback.ID
			s.feedbacks = append(s.feedbacks, feedback)
			return nil
		}
	}
	return errUnknownUtterance
}

// freezeFeedbacks returns an independent copy of the accumulated feedback set.
func (s *sessionState) freezeFeedbacks() []domain.Feedback {
	s.mu.Lock()
	defer s.mu.Unlock()

	frozen := make([]domain.Feedback, len(s.feedbacks))
	copy(frozen, s.feedbacks)
	return frozen
}

// textOf returns the text of the utterance with the given sequence number.
func (s *sessionState) textOf(seq int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.utterances {
		if s.utterances[i].Seq == seq {
			return s.utterances[i].Text
		}
	}
	return ""
}

func (s *sessionState) utteranceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.utterances)
}

// snapshot produces a copy of the session suitable for handing to observers.
func (s *sessionState) snapshot(alert *domain.Alert) domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	utterances := make([]domain.Utterance, len(s.utterances))
	copy(utterances, s.utterances)
	feedbacks := make([]domain.Feedback, len(s.feedbacks))
	copy(feedbacks, s.feedbacks)

	return domain.Snapshot{
		SessionID:   s.sessionID,
		Recording:   s.recording,
		Utterances:  utterances,
		Feedbacks:   feedbacks,
		ActiveAlert: alert,
	}
}
