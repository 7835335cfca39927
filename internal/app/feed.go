package app

import (
	"sync"
	"time"
)

// SubmissionEvent is the live-dashboard view of a newly stored submission.
type SubmissionEvent struct {
	SubmissionID  string    `json:"submissionId"`
	UserName      string    `json:"userName"`
	UserEmail     string    `json:"userEmail"`
	Score         int       `json:"score"`
	Total         int       `json:"totalQuestions"`
	Percentage    int       `json:"percentage"`
	Eligible      bool      `json:"certificateGenerated"`
	CertificateID string    `json:"certificateId,omitempty"`
	CompletedAt   time.Time `json:"completedAt"`
}

const (
	feedBuffer  = 16
	feedBacklog = 10
)

// Feed fans submission events out to admin dashboard subscribers. New
// subscribers first receive the most recent events. Slow subscribers lose
// their oldest pending event rather than blocking publishers.
type Feed struct {
	mu          sync.Mutex
	recent      []SubmissionEvent
	subscribers map[chan SubmissionEvent]struct{}
}

func NewFeed() *Feed {
	return &Feed{subscribers: make(map[chan SubmissionEvent]struct{})}
}

// Publish records ev in the backlog and delivers it to every subscriber.
func (f *Feed) Publish(ev SubmissionEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.recent = append(f.recent, ev)
	if len(f.recent) > feedBacklog {
		f.recent = f.recent[len(f.recent)-feedBacklog:]
	}
	for ch := range f.subscribers {
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

// Subscribe returns a channel of events. The caller must invoke cancel to
// release it; cancel closes the channel.
func (f *Feed) Subscribe() (<-chan SubmissionEvent, func()) {
	ch := make(chan SubmissionEvent, feedBuffer)

	f.mu.Lock()
	for _, ev := range f.recent {
		ch <- ev
	}
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

// Subscribers reports the number of live subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers)
}
