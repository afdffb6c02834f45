package bus

import (
	"sync"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// Message is a host → panel message, delivered fire-and-forget.
type Message struct {
	Channel string `json:"channel"`
	Args    any    `json:"args,omitempty"`
}

// Envelope is a panel → host message. Target names the panel instance the
// sender claims to be; envelopes whose target matches no attached panel are
// dropped.
type Envelope struct {
	Target  string `json:"target"`
	Channel string `json:"channel"`
	Data    any    `json:"data"`
}

// Handler consumes the data payload of a matching envelope.
type Handler func(data any)

// Surface is a panel's message target. Implementations post to the embedded
// rendering surface; posting may fail once the surface is torn down.
type Surface interface {
	PostMessage(Message) error
}

// Stats observes routing outcomes. Implemented by monitoring.Metrics.
type Stats interface {
	EnvelopeRouted()
	EnvelopeDropped(reason string)
	MessageSent(channel string)
}

// Drop reasons reported to Stats.
const (
	DropNoTarget      = "no_target"
	DropUnknownTarget = "unknown_target"
	DropNoSubscriber  = "no_subscriber"
	DropRateLimited   = "rate_limited"
)

type nopStats struct{}

func (nopStats) EnvelopeRouted()        {}
func (nopStats) EnvelopeDropped(string) {}
func (nopStats) MessageSent(string)     {}

// Config controls router behavior.
type Config struct {
	// InboundRate caps envelopes per second per panel; zero disables
	// limiting. Untrusted content shares the host event loop, so floods
	// are dropped at dispatch rather than queued.
	InboundRate  rate.Limit
	InboundBurst int
	Stats        Stats
}

// Router multiplexes one shared transport across panel instances, keyed by
// panel id. Explicit routing avoids per-panel listeners on a global stream.
type Router struct {
	cfg   Config
	mu    sync.RWMutex
	ports map[string]*Port
}

// NewRouter creates a router.
func NewRouter(cfg Config) *Router {
	if cfg.Stats == nil {
		cfg.Stats = nopStats{}
	}
	return &Router{
		cfg:   cfg,
		ports: make(map[string]*Port),
	}
}

// Attach registers a panel id and returns its port. Attaching an id that is
// already present replaces the previous port; ids must be unique among
// concurrently live panels.
func (r *Router) Attach(id string) *Port {
	p := &Port{
		id:     id,
		router: r,
		subs:   make(map[string][]*Subscription),
	}
	if r.cfg.InboundRate > 0 {
		p.limiter = rate.NewLimiter(r.cfg.InboundRate, r.cfg.InboundBurst)
	}

	r.mu.Lock()
	r.ports[id] = p
	r.mu.Unlock()
	return p
}

// Detach removes a panel id and disposes all of its subscriptions.
func (r *Router) Detach(id string) {
	r.mu.Lock()
	p := r.ports[id]
	delete(r.ports, id)
	r.mu.Unlock()

	if p != nil {
		p.close()
	}
}

// Dispatch routes one inbound envelope. Envelopes without a target, for an
// unknown target, or on a channel without subscribers are dropped.
func (r *Router) Dispatch(env Envelope) {
	if env.Target == "" {
		r.cfg.Stats.EnvelopeDropped(DropNoTarget)
		return
	}

	r.mu.RLock()
	p := r.ports[env.Target]
	r.mu.RUnlock()

	if p == nil {
		r.cfg.Stats.EnvelopeDropped(DropUnknownTarget)
		return
	}
	p.deliver(env)
}

// Port is a panel's view of the shared transport.
type Port struct {
	id      string
	router  *Router
	limiter *rate.Limiter

	mu      sync.RWMutex
	subs    map[string][]*Subscription
	surface Surface
	closed  bool
}

// ID returns the panel id this port routes for.
func (p *Port) ID() string { return p.id }

// BindSurface attaches the outbound message target. Passing nil detaches it;
// subsequent sends become silent no-ops.
func (p *Port) BindSurface(s Surface) {
	p.mu.Lock()
	p.surface = s
	p.mu.Unlock()
}

// Send posts a message to the panel's surface. Delivery is fire-and-forget:
// there is no acknowledgment, and a missing or failing surface is not an
// error (teardown races are expected).
func (p *Port) Send(channel string, args any) {
	p.mu.RLock()
	s := p.surface
	closed := p.closed
	p.mu.RUnlock()

	if closed || s == nil {
		return
	}
	if err := s.PostMessage(Message{Channel: channel, Args: args}); err != nil {
		return
	}
	p.router.cfg.Stats.MessageSent(channel)
}

// Subscribe registers a handler for one channel. The handler observes
// envelopes in transport delivery order and receives only the data payload.
func (p *Port) Subscribe(channel string, h Handler) *Subscription {
	sub := &Subscription{
		id:      uuid.NewString(),
		channel: channel,
		port:    p,
		fn:      h,
	}

	p.mu.Lock()
	if !p.closed {
		p.subs[channel] = append(p.subs[channel], sub)
	}
	p.mu.Unlock()
	return sub
}

func (p *Port) deliver(env Envelope) {
	if p.limiter != nil && !p.limiter.Allow() {
		p.router.cfg.Stats.EnvelopeDropped(DropRateLimited)
		return
	}

	p.mu.RLock()
	handlers := make([]Handler, 0, len(p.subs[env.Channel]))
	for _, sub := range p.subs[env.Channel] {
		handlers = append(handlers, sub.fn)
	}
	p.mu.RUnlock()

	if len(handlers) == 0 {
		p.router.cfg.Stats.EnvelopeDropped(DropNoSubscriber)
		return
	}

	// Handlers run outside the lock so they may subscribe or dispose.
	for _, h := range handlers {
		h(env.Data)
	}
	p.router.cfg.Stats.EnvelopeRouted()
}

func (p *Port) close() {
	p.mu.Lock()
	p.closed = true
	p.subs = make(map[string][]*Subscription)
	p.surface = nil
	p.mu.Unlock()
}

// Subscription is a disposable handle for one registered handler.
type Subscription struct {
	id      string
	channel string
	port    *Port
	once    sync.Once
	fn      Handler
}

// ID returns the subscription identifier.
func (s *Subscription) ID() string { return s.id }

// Dispose stops future delivery to this handler only; other subscribers on
// the shared transport are unaffected. Safe to call more than once.
func (s *Subscription) Dispose() {
	s.once.Do(func() {
		p := s.port
		p.mu.Lock()
		list := p.subs[s.channel]
		for i, sub := range list {
			if sub == s {
				p.subs[s.channel] = append(list[:i:i], list[i+1:]...)
				break
			}
		}
		p.mu.Unlock()
	})
}
