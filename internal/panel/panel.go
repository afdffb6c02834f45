package panel

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/panelhost/internal/bus"
	"github.com/GriffinCanCode/panelhost/internal/endpoint"
	"github.com/GriffinCanCode/panelhost/internal/focus"
	"github.com/GriffinCanCode/panelhost/internal/logging"
	"github.com/GriffinCanCode/panelhost/internal/monitoring"
	"github.com/GriffinCanCode/panelhost/internal/rewrite"
	"github.com/GriffinCanCode/panelhost/internal/settings"
	"github.com/GriffinCanCode/panelhost/internal/telemetry"
)

// Outbound channel names (host → panel).
const (
	ChannelFocus              = "focus"
	ChannelConfirmBeforeClose = "setConfirmBeforeClose"
)

// ErrFindNotSupported is returned by the find operations: this host variant
// lacks find capability. Callers check Capabilities().Find before invoking.
var ErrFindNotSupported = errors.New("find is not supported on this panel")

// Surface is the embedded rendering surface a panel drives. The DOM element
// mechanics live outside this module; the panel needs only a message target
// and a best-effort focus primitive.
type Surface interface {
	bus.Surface
	Focus() error
}

// Options is the construction options bag.
type Options struct {
	// Purpose is an opaque classification tag for this panel.
	Purpose string
	// CustomClasses are extra presentation classes applied by the host.
	CustomClasses []string
	// ExtraParams extends the content URL query string, appended after the
	// standard parameters in declaration order.
	ExtraParams []QueryParam
}

// Deps wires a panel to its collaborators.
type Deps struct {
	Endpoint  endpoint.Resolver
	Router    *bus.Router
	Settings  settings.Service   // optional; nil disables config mirroring
	Telemetry telemetry.Reporter // optional
	Host      focus.Host
	// OnDidFocus notifies the host's focus-tracking system. Optional.
	OnDidFocus func()
	FocusDelay time.Duration
	Metrics    *monitoring.Metrics // optional
	Log        *logging.Logger     // optional
}

// Capabilities describes optional operations a panel variant supports.
type Capabilities struct {
	Find bool
}

// Panel is one embedded content panel instance.
type Panel struct {
	id            string
	extensionID   string
	purpose       string
	customClasses []string
	endpoint      string
	extraParams   []QueryParam

	log     *logging.Logger
	port    *bus.Port
	coord   *focus.Coordinator
	router  *bus.Router
	metrics *monitoring.Metrics

	mu                 sync.Mutex
	surface            Surface
	focused            bool
	disposed           bool
	confirmBeforeClose string
	cancelWatch        func()
}

// New creates a panel. The id is caller-assigned and must be unique among
// concurrently live panels on the same router. extensionID identifies the
// owning caller and may be empty.
func New(id string, opts Options, extensionID string, deps Deps) (*Panel, error) {
	if id == "" {
		return nil, errors.New("panel id required")
	}
	if deps.Router == nil {
		return nil, errors.New("router required")
	}
	if deps.Endpoint == nil {
		return nil, errors.New("endpoint resolver required")
	}
	if deps.Host == nil {
		return nil, errors.New("focus host required")
	}
	if deps.Log == nil {
		deps.Log = logging.NewNop()
	}
	if deps.Telemetry == nil {
		deps.Telemetry = telemetry.Noop{}
	}
	if deps.OnDidFocus == nil {
		deps.OnDidFocus = func() {}
	}

	base, err := deps.Endpoint.Resolve(id)
	if err != nil {
		return nil, fmt.Errorf("resolve content endpoint: %w", err)
	}

	p := &Panel{
		id:            id,
		extensionID:   extensionID,
		purpose:       opts.Purpose,
		customClasses: opts.CustomClasses,
		endpoint:      rewrite.NormalizeEndpoint(base),
		extraParams:   opts.ExtraParams,
		log:           deps.Log,
		router:        deps.Router,
		metrics:       deps.Metrics,
	}
	p.port = deps.Router.Attach(id)

	fcfg := focus.Config{
		Delay:      deps.FocusDelay,
		Host:       deps.Host,
		Surface:    p.focusPrimitive,
		IsFocused:  p.IsFocused,
		OnDidFocus: deps.OnDidFocus,
		Notify:     func() { p.port.Send(ChannelFocus, nil) },
		Log:        deps.Log,
	}
	if deps.Metrics != nil {
		fcfg.Stats = deps.Metrics
	}
	p.coord = focus.NewCoordinator(fcfg)

	if deps.Settings != nil {
		p.confirmBeforeClose = deps.Settings.Get(settings.KeyConfirmBeforeClose)
		p.cancelWatch = deps.Settings.Watch(settings.KeyConfirmBeforeClose, p.applyConfirmBeforeClose)
	}

	if deps.Metrics != nil {
		deps.Metrics.PanelCreated()
	}

	// Fire-and-forget; construction never waits on the telemetry pipeline.
	go deps.Telemetry.Emit(telemetry.EventPanelCreated, map[string]string{
		"id":          id,
		"extensionId": extensionID,
	})

	p.log.Debug("panel created",
		zap.String("id", id),
		zap.String("purpose", opts.Purpose),
		zap.String("endpoint", p.endpoint))
	return p, nil
}

// ID returns the panel id.
func (p *Panel) ID() string { return p.id }

// ExtensionID returns the owning caller's identity, or "".
func (p *Panel) ExtensionID() string { return p.extensionID }

// Purpose returns the opaque classification tag.
func (p *Panel) Purpose() string { return p.purpose }

// CustomClasses returns the host-supplied presentation classes.
func (p *Panel) CustomClasses() []string { return p.customClasses }

// Endpoint returns the normalized content endpoint.
func (p *Panel) Endpoint() string { return p.endpoint }

// ContentURL builds the document URL the surface loads. Every parameter is
// percent-encoded individually; extra parameters follow the standard set in
// declaration order.
func (p *Panel) ContentURL() string {
	params := []QueryParam{
		{Key: "id", Value: p.id},
		{Key: "extensionId", Value: p.extensionID},
		{Key: "purpose", Value: p.purpose},
	}
	params = append(params, p.extraParams...)
	return p.endpoint + "/index.html?" + encodeQuery(params)
}

// LoadHTML prepares an HTML document for the surface, rewriting virtual
// resource references against this panel's endpoint. This is the single
// rewrite call site; the rewrite is not idempotent and must not run twice
// on the same document.
func (p *Panel) LoadHTML(html string) string {
	return rewrite.Resources(html, p.endpoint)
}

// BindSurface attaches the embedded surface. Passing nil detaches it.
func (p *Panel) BindSurface(s Surface) {
	p.mu.Lock()
	p.surface = s
	p.mu.Unlock()
	if s == nil {
		p.port.BindSurface(nil)
		return
	}
	p.port.BindSurface(s)
}

// Send posts a message to the panel content on the named channel fire-and-
// forget. Sending to a torn-down panel is a silent no-op.
func (p *Panel) Send(channel string, args any) {
	p.port.Send(channel, args)
}

// Subscribe registers a handler for messages the panel content sends on the
// named channel. Only envelopes targeted at this panel's id reach the
// handler.
func (p *Panel) Subscribe(channel string, h bus.Handler) *bus.Subscription {
	return p.port.Subscribe(channel, h)
}

// SetFocused records the host-side focus state for this panel. Supplied by
// the host's focus tracker.
func (p *Panel) SetFocused(focused bool) {
	p.mu.Lock()
	p.focused = focused
	p.mu.Unlock()
}

// IsFocused reports whether the host currently considers this panel focused.
func (p *Panel) IsFocused() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.focused
}

// Focus requests keyboard focus for the panel's surface. The handoff is
// debounced and best-effort; see the focus package.
func (p *Panel) Focus() {
	p.coord.Request()
}

// ConfirmBeforeClose returns the panel's cached close-confirmation policy.
func (p *Panel) ConfirmBeforeClose() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.confirmBeforeClose
}

func (p *Panel) applyConfirmBeforeClose(value string) {
	p.mu.Lock()
	p.confirmBeforeClose = value
	p.mu.Unlock()
	p.port.Send(ChannelConfirmBeforeClose, value)
}

// Capabilities reports which optional operations this variant supports.
func (p *Panel) Capabilities() Capabilities {
	return Capabilities{Find: false}
}

// Find is not supported on this panel variant.
func (p *Panel) Find(value string, previous bool) error {
	return ErrFindNotSupported
}

// StopFind is not supported on this panel variant.
func (p *Panel) StopFind(keepSelection bool) error {
	return ErrFindNotSupported
}

// Dispose releases the panel's subscriptions, pending focus timer, and
// configuration watcher, and drops the surface reference. Idempotent.
func (p *Panel) Dispose() {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.disposed = true
	cancelWatch := p.cancelWatch
	p.cancelWatch = nil
	p.surface = nil
	p.mu.Unlock()

	if cancelWatch != nil {
		cancelWatch()
	}
	p.coord.Cancel()
	p.router.Detach(p.id)

	if p.metrics != nil {
		p.metrics.PanelDisposed()
	}
	p.log.Debug("panel disposed", zap.String("id", p.id))
}

// focusPrimitive exposes the surface to the focus coordinator, re-read at
// attempt time so teardown races abort cleanly.
func (p *Panel) focusPrimitive() focus.Primitive {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.disposed || p.surface == nil {
		return nil
	}
	return p.surface
}
