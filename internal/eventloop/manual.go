package eventloop

import (
	"sort"
	"time"
)

// Manual is a Scheduler driven by virtual time. It is meant for tests of
// components that run on the loop: nothing happens until Drain or Advance.
type Manual struct {
	now    time.Time
	queue  []func()
	idle   []*idleEntry
	timers []*manualTimer
	seq    int
}

type manualTimer struct {
	due       time.Time
	seq       int
	fn        func()
	cancelled bool
}

var _ Scheduler = (*Manual)(nil)

// NewManual returns a scheduler whose clock starts at a fixed instant.
func NewManual() *Manual {
	return &Manual{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	return m.now
}

// Post queues fn.
func (m *Manual) Post(fn func()) {
	m.queue = append(m.queue, fn)
}

// AfterFunc schedules fn at Now()+d.
func (m *Manual) AfterFunc(d time.Duration, fn func()) Cancel {
	m.seq++
	t := &manualTimer{due: m.now.Add(d), seq: m.seq, fn: fn}
	m.timers = append(m.timers, t)
	return func() { t.cancelled = true }
}

// Idle queues fn behind all posted work.
func (m *Manual) Idle(fn func()) Cancel {
	entry := &idleEntry{fn: fn}
	m.idle = append(m.idle, entry)
	return func() { entry.cancelled = true }
}

// PendingTimers returns the number of timers that have neither fired nor been cancelled.
func (m *Manual) PendingTimers() int {
	n := 0
	for _, t := range m.timers {
		if !t.cancelled {
			n++
		}
	}
	return n
}

// Drain runs posted work and idle callbacks until both queues are empty.
func (m *Manual) Drain() {
	for {
		if len(m.queue) > 0 {
			fn := m.queue[0]
			m.queue = m.queue[1:]
			fn()
			continue
		}
		if len(m.idle) > 0 {
			entry := m.idle[0]
			m.idle = m.idle[1:]
			if !entry.cancelled {
				entry.fn()
			}
			continue
		}
		return
	}
}

// Advance moves the clock forward by d, firing due timers in order.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		m.Drain()
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.due
		t.fn()
	}
	m.now = target
	m.Drain()
}

func (m *Manual) nextDue(limit time.Time) *manualTimer {
	live := m.timers[:0]
	for _, t := range m.timers {
		if !t.cancelled {
			live = append(live, t)
		}
	}
	m.timers = live
	if len(m.timers) == 0 {
		return nil
	}

	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].due.Equal(m.timers[j].due) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].due.Before(m.timers[j].due)
	})

	first := m.timers[0]
	if first.due.After(limit) {
		return nil
	}
	m.timers = m.timers[1:]
	return first
}
