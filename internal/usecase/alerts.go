package usecase

import (
	"sync"
	"time"

	"careline/internal/domain"
)

// alertScheduler manages the single visible alert. Offer replaces any pending
// alert after cancelling its dismiss timer, so a superseded timer can never
// dismiss a newer alert; the generation counter fences timers that already
// fired but have not yet acquired the lock.
type alertScheduler struct {
	ttl      time.Duration
	onChange func()

	mu     sync.Mutex
	active *domain.Alert
	timer  *time.Timer
	gen    uint64
}

func newAlertScheduler(ttl time.Duration) *alertScheduler {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &alertScheduler{ttl: ttl}
}

// Offer makes the given feedback the visible alert, superseding any pending
// one. Callers only offer high and medium severity feedback.
func (a *alertScheduler) Offer(feedback domain.Feedback) {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
	}
	a.gen++
	gen := a.gen
	a.active = &domain.Alert{
		Kind:       feedback.Severity,
		Category:   feedback.Category,
		FeedbackID: feedback.ID,
	}
	a.timer = time.AfterFunc(a.ttl, func() { a.expire(gen) })
	a.mu.Unlock()

	a.notify()
}

// Dismiss clears the visible alert, from the popup's manual close.
func (a *alertScheduler) Dismiss() {
	a.mu.Lock()
	if a.active == nil {
		a.mu.Unlock()
		return
	}
	a.clearLocked()
	a.mu.Unlock()

	a.notify()
}

// Reset clears any alert without notifying observers; used on session
// teardown, where the controller publishes the final snapshot itself.
func (a *alertScheduler) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clearLocked()
}

// Active returns a copy of the visible alert, or nil.
func (a *alertScheduler) Active() *domain.Alert {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.active == nil {
		return nil
	}
	alert := *a.active
	return &alert
}

func (a *alertScheduler) expire(gen uint64) {
	a.mu.Lock()
	if gen != a.gen || a.active == nil {
		a.mu.Unlock()
		return
	}
	a.active = nil
	a.timer = nil
	a.mu.Unlock()

	a.notify()
}

func (a *alertScheduler) clearLocked() {
	a.gen++
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.active = nil
}

func (a *alertScheduler) notify() {
	if a.onChange != nil {
		a.onChange()
	}
}
