package focus

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/panelhost/internal/logging"
)

// DefaultDelay is the debounce window for focus handoff attempts.
const DefaultDelay = 50 * time.Millisecond

// Primitive is the platform focus operation on the embedded surface.
// It is best-effort: failures are expected and swallowed.
type Primitive interface {
	Focus() error
}

// Host exposes the ambient keyboard-focus state around the surface.
type Host interface {
	// FocusedInSurface reports whether keyboard focus already sits inside
	// the embedded surface.
	FocusedInSurface() bool
	// ClearFocus removes ambient keyboard focus from the host document.
	ClearFocus()
	// ActiveIsBody reports whether the active element is the document
	// body, i.e. no interactive element holds keyboard focus.
	ActiveIsBody() bool
}

// Stats observes handoff outcomes. Implemented by monitoring.Metrics.
type Stats interface {
	FocusAttempt()
	FocusAborted(reason string)
}

// Abort reasons reported to Stats.
const (
	AbortNotFocused  = "not_focused"
	AbortSurfaceGone = "surface_gone"
	AbortFocusMoved  = "focus_moved"
)

type nopStats struct{}

func (nopStats) FocusAttempt()       {}
func (nopStats) FocusAborted(string) {}

// Config wires a coordinator to its collaborators.
type Config struct {
	// Delay is the debounce window; DefaultDelay when zero.
	Delay time.Duration
	// Host is the ambient focus state around the surface.
	Host Host
	// Surface returns the focus primitive, or nil once torn down.
	// Re-read at execution time.
	Surface func() Primitive
	// IsFocused reports whether the host still considers this panel
	// focused. Re-read at execution time.
	IsFocused func() bool
	// OnDidFocus synchronously notifies the host focus tracker that focus
	// changed, regardless of how the deferred handoff turns out.
	OnDidFocus func()
	// Notify sends the focus notification to the panel content so it can
	// react (e.g. focus its first interactive element).
	Notify func()
	Stats  Stats
	Log    *logging.Logger
}

// Coordinator debounces focus requests into at most one pending deferred
// handoff attempt.
type Coordinator struct {
	cfg Config

	mu    sync.Mutex
	gen   uint64 // bumped on every schedule/cancel; stale timers bail out
	timer *time.Timer
}

// NewCoordinator creates a coordinator.
func NewCoordinator(cfg Config) *Coordinator {
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.Stats == nil {
		cfg.Stats = nopStats{}
	}
	if cfg.Log == nil {
		cfg.Log = logging.NewNop()
	}
	return &Coordinator{cfg: cfg}
}

// Request asks for focus on behalf of the host. It immediately clears
// ambient keyboard focus when it sits outside the surface (two elements must
// not both claim focus during the asynchronous handoff), schedules the
// debounced handoff attempt, and synchronously notifies the host focus
// tracker. Rapid repeated calls coalesce into one attempt; only the most
// recent scheduling survives.
func (c *Coordinator) Request() {
	if !c.cfg.Host.FocusedInSurface() {
		c.cfg.Host.ClearFocus()
	}

	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.cfg.Delay, func() {
		c.attempt(gen)
	})
	c.mu.Unlock()

	c.cfg.OnDidFocus()
}

// Cancel stops any pending handoff attempt. Called on panel disposal.
func (c *Coordinator) Cancel() {
	c.mu.Lock()
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
}

// attempt runs once the debounce window elapses. All guards are evaluated
// here, with current state, never with the state at request time.
func (c *Coordinator) attempt(gen uint64) {
	c.mu.Lock()
	if gen != c.gen {
		// Superseded or cancelled while the timer was in flight.
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.mu.Unlock()

	if !c.cfg.IsFocused() {
		c.cfg.Stats.FocusAborted(AbortNotFocused)
		return
	}

	surface := c.cfg.Surface()
	if surface == nil {
		c.cfg.Stats.FocusAborted(AbortSurfaceGone)
		return
	}

	// Keyboard focus on anything but the body means an interactive element
	// grabbed it in the interim — likely a just-opened overlay or dialog.
	// Stealing focus from it would be visible to the user.
	if !c.cfg.Host.ActiveIsBody() {
		c.cfg.Stats.FocusAborted(AbortFocusMoved)
		return
	}

	c.cfg.Stats.FocusAttempt()
	if err := surface.Focus(); err != nil {
		// Focusing an unattached or unready surface fails sometimes;
		// the host-side intent stands either way.
		c.cfg.Log.Debug("surface focus failed", zap.Error(err))
	}
	c.cfg.Notify()
}
