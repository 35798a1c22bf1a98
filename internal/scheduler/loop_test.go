package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T) *Loop {
	t.Helper()
	l := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-l.Done()
	})
	return l
}

func TestLoop_RunsTasksInOrder(t *testing.T) {
	l := startLoop(t)

	var got []int
	finished := make(chan struct{})
	for i := range 10 {
		require.True(t, l.Post(func() { got = append(got, i) }))
	}
	l.Post(func() { close(finished) })

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("tasks did not run")
	}

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, got)
}

func TestLoop_TasksNeverOverlap(t *testing.T) {
	l := startLoop(t)

	var (
		wg      sync.WaitGroup
		running int
		overlap bool
	)
	for range 50 {
		wg.Add(1)
		go l.Post(func() {
			defer wg.Done()
			running++
			if running > 1 {
				overlap = true
			}
			time.Sleep(time.Millisecond)
			running--
		})
	}
	wg.Wait()

	assert.False(t, overlap)
}

func TestLoop_After(t *testing.T) {
	l := startLoop(t)

	fired := make(chan time.Time, 1)
	start := time.Now()
	l.After(20*time.Millisecond, func() { fired <- time.Now() })
	assert.Equal(t, 1, l.Pending())

	select {
	case at := <-fired:
		assert.GreaterOrEqual(t, at.Sub(start), 20*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("timer task did not run")
	}
	assert.Equal(t, 0, l.Pending())
}

func TestLoop_Stop(t *testing.T) {
	l := New(1)
	ctx := context.Background()
	go l.Run(ctx)

	fired := make(chan struct{}, 1)
	l.After(50*time.Millisecond, func() { fired <- struct{}{} })

	l.Stop()
	l.Stop()

	<-l.Done()
	assert.False(t, l.Post(func() {}))
	assert.Equal(t, 0, l.Pending())

	l.After(time.Millisecond, func() { fired <- struct{}{} })

	select {
	case <-fired:
		t.Fatal("timer fired after Stop")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLoop_ContextCancelStops(t *testing.T) {
	l := New(0)
	ctx, cancel := context.WithCancel(context.Background())
	go l.Run(ctx)

	cancel()

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("loop did not stop on context cancel")
	}
}
