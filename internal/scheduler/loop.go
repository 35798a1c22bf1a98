package scheduler

import (
	"context"
	"sync"
	"time"
)

const defaultQueueSize = 16

// Loop runs tasks one at a time on a single goroutine. Everything that
// touches a session's engine goes through its loop, so the engine never
// sees two moves at once.
type Loop struct {
	tasks    chan func()
	done     chan struct{}
	stopOnce sync.Once

	mu     sync.Mutex
	timers map[*Timer]struct{}
}

// Timer is a task scheduled with After.
type Timer struct {
	t *time.Timer
}

func New(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Loop{
		tasks:  make(chan func(), queueSize),
		done:   make(chan struct{}),
		timers: make(map[*Timer]struct{}),
	}
}

// Run executes tasks until ctx is done or Stop is called.
func (l *Loop) Run(ctx context.Context) {
	defer l.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.done:
			return
		case task := <-l.tasks:
			task()
		}
	}
}

// Post enqueues task. It reports false once the loop is stopped.
func (l *Loop) Post(task func()) bool {
	select {
	case <-l.done:
		return false
	default:
	}

	select {
	case l.tasks <- task:
		return true
	case <-l.done:
		return false
	}
}

// After posts task to the loop once delay has elapsed. The task runs
// against whatever state the loop owns at that time.
func (l *Loop) After(delay time.Duration, task func()) *Timer {
	timer := &Timer{}

	l.mu.Lock()
	defer l.mu.Unlock()

	select {
	case <-l.done:
		timer.t = time.NewTimer(delay)
		timer.t.Stop()
		return timer
	default:
	}

	timer.t = time.AfterFunc(delay, func() {
		l.mu.Lock()
		delete(l.timers, timer)
		l.mu.Unlock()

		l.Post(task)
	})
	l.timers[timer] = struct{}{}

	return timer
}

// Pending returns the number of timers that have not fired yet.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.timers)
}

// Stop halts the loop and all pending timers. It is safe to call more than once.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)

		l.mu.Lock()
		for timer := range l.timers {
			timer.t.Stop()
		}
		clear(l.timers)
		l.mu.Unlock()
	})
}

// Done is closed when the loop stops.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}
