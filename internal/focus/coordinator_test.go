package focus

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeHost struct {
	mu        sync.Mutex
	inSurface bool
	bodyFocus bool
	cleared   int
}

func (h *fakeHost) FocusedInSurface() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.inSurface
}

func (h *fakeHost) ClearFocus() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.cleared++
}

func (h *fakeHost) ActiveIsBody() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bodyFocus
}

type fakePrimitive struct {
	calls atomic.Int32
	err   error
}

func (p *fakePrimitive) Focus() error {
	p.calls.Add(1)
	return p.err
}

type fixture struct {
	host      *fakeHost
	primitive *fakePrimitive
	focused   atomic.Bool
	gone      atomic.Bool
	tracked   atomic.Int32
	notified  atomic.Int32
}

func newFixture(t *testing.T, delay time.Duration) (*Coordinator, *fixture) {
	t.Helper()

	f := &fixture{
		host:      &fakeHost{bodyFocus: true},
		primitive: &fakePrimitive{},
	}
	f.focused.Store(true)

	c := NewCoordinator(Config{
		Delay: delay,
		Host:  f.host,
		Surface: func() Primitive {
			if f.gone.Load() {
				return nil
			}
			return f.primitive
		},
		IsFocused:  func() bool { return f.focused.Load() },
		OnDidFocus: func() { f.tracked.Add(1) },
		Notify:     func() { f.notified.Add(1) },
	})
	t.Cleanup(c.Cancel)
	return c, f
}

func settle(delay time.Duration) {
	time.Sleep(delay*4 + 20*time.Millisecond)
}

func TestRequestFocusesSurface(t *testing.T) {
	const delay = 10 * time.Millisecond
	c, f := newFixture(t, delay)

	c.Request()
	settle(delay)

	assert.Equal(t, int32(1), f.primitive.calls.Load())
	assert.Equal(t, int32(1), f.notified.Load())
	assert.Equal(t, int32(1), f.tracked.Load())
}

func TestDebounceCoalescing(t *testing.T) {
	const delay = 30 * time.Millisecond
	c, f := newFixture(t, delay)

	// Three triggers inside the window: exactly one deferred execution.
	c.Request()
	c.Request()
	c.Request()
	settle(delay)

	assert.Equal(t, int32(1), f.primitive.calls.Load())
	assert.Equal(t, int32(1), f.notified.Load())
	// The host focus tracker is notified synchronously on every call.
	assert.Equal(t, int32(3), f.tracked.Load())
}

func TestExecutionUsesCurrentState(t *testing.T) {
	const delay = 30 * time.Millisecond
	c, f := newFixture(t, delay)

	f.focused.Store(false)
	c.Request()
	c.Request()
	// State at execution time wins over state at any of the call times.
	f.focused.Store(true)
	c.Request()
	settle(delay)

	assert.Equal(t, int32(1), f.primitive.calls.Load())
}

func TestStaleFocusAborts(t *testing.T) {
	const delay = 10 * time.Millisecond
	c, f := newFixture(t, delay)

	c.Request()
	f.focused.Store(false)
	settle(delay)

	assert.Zero(t, f.primitive.calls.Load(), "no focus call after host focus moved away")
	assert.Zero(t, f.notified.Load(), "no focus message either")
}

func TestSurfaceGoneAborts(t *testing.T) {
	const delay = 10 * time.Millisecond
	c, f := newFixture(t, delay)

	c.Request()
	f.gone.Store(true)
	settle(delay)

	assert.Zero(t, f.primitive.calls.Load())
	assert.Zero(t, f.notified.Load())
}

func TestInteractiveElementAborts(t *testing.T) {
	const delay = 10 * time.Millisecond
	c, f := newFixture(t, delay)

	c.Request()
	// An overlay opened and took keyboard focus before the delay elapsed.
	f.host.mu.Lock()
	f.host.bodyFocus = false
	f.host.mu.Unlock()
	settle(delay)

	assert.Zero(t, f.primitive.calls.Load(), "must not steal focus from the overlay")
	assert.Zero(t, f.notified.Load())
}

func TestPrimitiveFailureStillNotifies(t *testing.T) {
	const delay = 10 * time.Millisecond
	c, f := newFixture(t, delay)
	f.primitive.err = errors.New("surface not attached")

	c.Request()
	settle(delay)

	assert.Equal(t, int32(1), f.primitive.calls.Load())
	assert.Equal(t, int32(1), f.notified.Load(), "focus message sent despite primitive failure")
}

func TestClearFocusSkippedInsideSurface(t *testing.T) {
	const delay = 10 * time.Millisecond
	c, f := newFixture(t, delay)

	f.host.mu.Lock()
	f.host.inSurface = true
	f.host.mu.Unlock()
	c.Request()

	f.host.mu.Lock()
	cleared := f.host.cleared
	f.host.mu.Unlock()
	assert.Zero(t, cleared, "ambient focus already inside the surface is left alone")
}

func TestClearFocusOutsideSurface(t *testing.T) {
	const delay = 10 * time.Millisecond
	c, f := newFixture(t, delay)

	c.Request()

	f.host.mu.Lock()
	cleared := f.host.cleared
	f.host.mu.Unlock()
	assert.Equal(t, 1, cleared)
}

func TestCancelStopsPendingAttempt(t *testing.T) {
	const delay = 30 * time.Millisecond
	c, f := newFixture(t, delay)

	c.Request()
	c.Cancel()
	settle(delay)

	assert.Zero(t, f.primitive.calls.Load())
	assert.Zero(t, f.notified.Load())
}
