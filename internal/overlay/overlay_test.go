package overlay

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type event struct {
	show   bool
	center image.Point
	radius int
}

// recordingRenderer records draw calls. When gate is set, the first
// ShowRing blocks until the gate is closed.
type recordingRenderer struct {
	mu     sync.Mutex
	events []event
	hidden chan struct{}
	gate   chan struct{}
	gated  chan struct{}
	once   sync.Once
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{hidden: make(chan struct{}, 16)}
}

func (r *recordingRenderer) ShowRing(center image.Point, radius int) {
	if r.gate != nil {
		r.once.Do(func() {
			close(r.gated)
			<-r.gate
		})
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{show: true, center: center, radius: radius})
}

func (r *recordingRenderer) HideRing() {
	r.mu.Lock()
	r.events = append(r.events, event{})
	r.mu.Unlock()
	r.hidden <- struct{}{}
}

func (r *recordingRenderer) snapshot() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event, len(r.events))
	copy(out, r.events)
	return out
}

func fastConfig() AnimatorConfig {
	cfg := DefaultAnimatorConfig()
	cfg.Interval = time.Millisecond
	return cfg
}

func waitHidden(t *testing.T, r *recordingRenderer) {
	t.Helper()
	select {
	case <-r.hidden:
	case <-time.After(2 * time.Second):
		t.Fatal("ring was never hidden")
	}
}

func TestMailbox_Overwrite(t *testing.T) {
	m := NewMailbox()

	m.Trigger(image.Pt(1, 1))
	m.Trigger(image.Pt(2, 2))

	pos, ok := m.Wait()
	require.True(t, ok)
	assert.Equal(t, image.Pt(2, 2), pos, "latest request wins")

	stats := m.Stats()
	assert.Equal(t, uint64(2), stats.Triggers)
	assert.Equal(t, uint64(1), stats.Played)
	assert.Equal(t, uint64(1), stats.Coalesced)
}

func TestMailbox_Close(t *testing.T) {
	m := NewMailbox()

	done := make(chan bool)
	go func() {
		_, ok := m.Wait()
		done <- ok
	}()

	m.Close()
	m.Close()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return after Close")
	}

	m.Trigger(image.Pt(5, 5))
	assert.Equal(t, uint64(0), m.Stats().Triggers, "triggers after close are dropped")
}

func TestAnimator_PlaysRing(t *testing.T) {
	r := newRecordingRenderer()
	m := NewMailbox()
	a := NewAnimator(m, r, fastConfig(), zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- a.Run(ctx) }()

	m.Trigger(image.Pt(100, 200))
	waitHidden(t, r)

	events := r.snapshot()
	require.Len(t, events, 11)
	for i := 0; i < 10; i++ {
		assert.True(t, events[i].show)
		assert.Equal(t, image.Pt(100, 200), events[i].center)
		assert.Equal(t, 5+3*i, events[i].radius)
	}
	assert.False(t, events[10].show)

	cancel()
	require.NoError(t, <-done)
}

func TestAnimator_CoalescesDuringPlayback(t *testing.T) {
	r := newRecordingRenderer()
	r.gate = make(chan struct{})
	r.gated = make(chan struct{})
	m := NewMailbox()
	a := NewAnimator(m, r, fastConfig(), zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error)
	go func() { done <- a.Run(ctx) }()

	m.Trigger(image.Pt(1, 1))
	<-r.gated

	// The frame loop keeps clicking while the first ring is on screen.
	m.Trigger(image.Pt(2, 2))
	m.Trigger(image.Pt(3, 3))
	m.Trigger(image.Pt(4, 4))
	close(r.gate)

	waitHidden(t, r)
	cancel()
	require.NoError(t, <-done)

	stats := m.Stats()
	assert.Equal(t, uint64(4), stats.Triggers)
	assert.Equal(t, uint64(1), stats.Played)
	assert.Equal(t, uint64(3), stats.Coalesced)
	assert.Len(t, r.snapshot(), 11)
}

func TestAnimator_CancelHidesRing(t *testing.T) {
	r := newRecordingRenderer()
	m := NewMailbox()
	cfg := DefaultAnimatorConfig()
	cfg.Interval = time.Hour
	a := NewAnimator(m, r, cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- a.Run(ctx) }()

	m.Trigger(image.Pt(7, 7))
	require.Eventually(t, func() bool { return len(r.snapshot()) == 1 }, 2*time.Second, time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	waitHidden(t, r)
}

func TestRingState(t *testing.T) {
	var s RingState
	assert.False(t, s.Current().Visible)

	s.ShowRing(image.Pt(10, 20), 8)
	assert.Equal(t, Ring{Center: image.Pt(10, 20), Radius: 8, Visible: true}, s.Current())

	s.HideRing()
	ring := s.Current()
	assert.False(t, ring.Visible)
	assert.Equal(t, 8, ring.Radius)
}
