package engine

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Quota gates outbound replies. Two per-post gates: replies sent since local
// midnight (re-derived from the store every time, so restarts cannot reset
// the daily cap) and wall-clock time since the last successful reply (held in
// memory only; a restart forgets it, which is accepted). The working-hours
// window is checked once per pipeline invocation, not per post. All three are
// soft limits: a blocked post stays validated, nothing errors.
type Quota struct {
	mu          sync.Mutex
	store       PostStore
	location    *time.Location
	maxPerDay   int
	minInterval time.Duration
	workStart   int
	workEnd     int
	lastReplyAt time.Time
	now         func() time.Time
}

func NewQuota(store PostStore, location *time.Location, maxPerDay int, minInterval time.Duration, workStart, workEnd int) *Quota {
	return &Quota{
		store:       store,
		location:    location,
		maxPerDay:   maxPerDay,
		minInterval: minInterval,
		workStart:   workStart,
		workEnd:     workEnd,
		now:         time.Now,
	}
}

// WithinWorkingHours reports whether the clinic-local hour is inside
// [workStart, workEnd).
func (q *Quota) WithinWorkingHours() bool {
	hour := q.now().In(q.location).Hour()
	return hour >= q.workStart && hour < q.workEnd
}

// DailyExhausted reports whether today's reply budget is spent.
func (q *Quota) DailyExhausted() (bool, error) {
	count, err := q.store.CountRepliedSince(q.localMidnight())
	if err != nil {
		return false, errors.Wrap(err, "count replies today")
	}
	return count >= q.maxPerDay, nil
}

// IntervalBlocked reports whether the minimum gap since the last successful
// reply has not yet elapsed.
func (q *Quota) IntervalBlocked() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.lastReplyAt.IsZero() {
		return false
	}
	return q.now().Sub(q.lastReplyAt) < q.minInterval
}

// RecordReply stamps the last-reply time after a successful send.
func (q *Quota) RecordReply() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.lastReplyAt = q.now()
}

func (q *Quota) LastReplyAt() time.Time {
	q.mu.Lock()
	defer q.mu.Unlock()

	return q.lastReplyAt
}

func (q *Quota) localMidnight() time.Time {
	local := q.now().In(q.location)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, q.location)
}
