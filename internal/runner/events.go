package runner

import "examclash-session-service/internal/domain"

// EventType tags a session event pushed to subscribers.
type EventType string

const (
	// EventQuestion announces a newly presented question.
	EventQuestion EventType = "question"
	// EventTick carries the remaining whole seconds on a live countdown.
	EventTick EventType = "tick"
	// EventGraded carries the grading outcome for display.
	EventGraded EventType = "graded"
	// EventFinished carries the final session result.
	EventFinished EventType = "finished"
)

// Event is one session update. Exactly one payload field is set, matching
// the Type.
type Event struct {
	Type      EventType                `json:"type"`
	Question  *domain.RedactedQuestion `json:"question,omitempty"`
	Remaining int                      `json:"remaining,omitempty"`
	Outcome   *domain.Outcome          `json:"outcome,omitempty"`
	Result    *domain.SessionResult    `json:"result,omitempty"`
}

// Subscribe returns a channel receiving session events, primed with the
// current question when one is live. The caller must invoke the returned
// cancel function to avoid leaks; Close also closes subscriber channels.
func (r *Runner) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 8)

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	r.subscribers[ch] = struct{}{}
	var initial *Event
	if r.phase == domain.PhaseAwaitingAnswer {
		q := r.currentRedactedLocked()
		initial = &Event{Type: EventQuestion, Question: &q}
	}
	r.mu.Unlock()

	if initial != nil {
		ch <- *initial
	}

	cancel := func() {
		r.mu.Lock()
		if _, ok := r.subscribers[ch]; ok {
			delete(r.subscribers, ch)
			close(ch)
		}
		r.mu.Unlock()
	}
	return ch, cancel
}

// broadcastLocked fans an event out without blocking on slow subscribers:
// if a buffer is full, the oldest pending event is dropped in favor of the
// new one.
func (r *Runner) broadcastLocked(ev Event) {
	for ch := range r.subscribers {
		select {
		case ch <- ev:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- ev
		}
	}
}
