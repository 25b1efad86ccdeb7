package usecase

import (
	"time"

	"careline/internal/ports"
)

type activeSession struct {
	cancel     func()
	stream     ports.StreamSession
	state      *sessionState
	eventsDone chan struct{}
	startedAt  time.Time
}
