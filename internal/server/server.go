package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/panelhost/internal/bus"
	"github.com/GriffinCanCode/panelhost/internal/bus/wstransport"
	"github.com/GriffinCanCode/panelhost/internal/config"
	"github.com/GriffinCanCode/panelhost/internal/content"
	"github.com/GriffinCanCode/panelhost/internal/endpoint"
	"github.com/GriffinCanCode/panelhost/internal/logging"
	"github.com/GriffinCanCode/panelhost/internal/monitoring"
	"github.com/GriffinCanCode/panelhost/internal/panel"
	"github.com/GriffinCanCode/panelhost/internal/settings"
	"github.com/GriffinCanCode/panelhost/internal/shared/id"
	"github.com/GriffinCanCode/panelhost/internal/telemetry"
)

// Server hosts panels over HTTP: a management API, the surface WebSocket,
// the resource endpoint, and metrics.
type Server struct {
	cfg      *config.Config
	log      *logging.Logger
	engine   *gin.Engine
	router   *bus.Router
	metrics  *monitoring.Metrics
	settings *settings.Memory
	resolver endpoint.Resolver
	tracker  *focusTracker

	mu     sync.Mutex
	panels map[string]*panel.Panel
}

// New wires a server from configuration.
func New(cfg *config.Config, log *logging.Logger) (*Server, error) {
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewWith(reg)

	busCfg := bus.Config{Stats: metrics}
	if cfg.Inbound.Enabled {
		busCfg.InboundRate = rate.Limit(cfg.Inbound.MessagesPerSecond)
		busCfg.InboundBurst = cfg.Inbound.Burst
	}

	resolver, err := endpoint.NewTemplate(cfg.Panel.EndpointTemplate)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      cfg,
		log:      log,
		router:   bus.NewRouter(busCfg),
		metrics:  metrics,
		settings: settings.NewMemory(),
		resolver: resolver,
		tracker:  &focusTracker{},
		panels:   make(map[string]*panel.Panel),
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(requestLogger(log))
	engine.Use(cors.Default())

	engine.GET("/health", s.health)
	engine.GET("/metrics", gin.WrapH(
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	engine.POST("/panels", s.createPanel)
	engine.GET("/panels", s.listPanels)
	engine.DELETE("/panels/:id", s.closePanel)
	engine.POST("/panels/:id/focus", s.focusPanel)
	engine.POST("/panels/:id/messages", s.sendMessage)

	engine.PUT("/settings/:key", s.putSetting)

	ws := wstransport.NewHandler(s.router, s.bindSurface, log)
	engine.GET("/ws", ws.HandleConnection)

	// Endpoint templates of the form .../content/{{id}} resolve here.
	content.NewServer([]content.Root{
		{Scheme: "file", Dir: cfg.Content.RootDir},
	}, log).Register(engine.Group("/content/:panel"))

	s.engine = engine
	return s, nil
}

// Handler exposes the engine for tests and embedding hosts.
func (s *Server) Handler() http.Handler { return s.engine }

// Run starts serving on the configured address.
func (s *Server) Run() error {
	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.log.Info("panel host listening", zap.String("addr", addr))
	return s.engine.Run(addr)
}

// Close disposes every live panel.
func (s *Server) Close() error {
	s.mu.Lock()
	panels := make([]*panel.Panel, 0, len(s.panels))
	for _, p := range s.panels {
		panels = append(panels, p)
	}
	s.panels = make(map[string]*panel.Panel)
	s.mu.Unlock()

	for _, p := range panels {
		p.Dispose()
	}
	return nil
}

func (s *Server) health(c *gin.Context) {
	s.mu.Lock()
	n := len(s.panels)
	s.mu.Unlock()
	c.JSON(http.StatusOK, gin.H{"status": "ok", "panels": n})
}

type createPanelRequest struct {
	ExtensionID string            `json:"extensionId"`
	Purpose     string            `json:"purpose"`
	ExtraParams map[string]string `json:"extraParams"`
}

func (s *Server) createPanel(c *gin.Context) {
	var req createPanelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	panelID := id.NewPanelID().String()

	var extra []panel.QueryParam
	for k, v := range req.ExtraParams {
		extra = append(extra, panel.QueryParam{Key: k, Value: v})
	}

	p, err := panel.New(panelID, panel.Options{
		Purpose:     req.Purpose,
		ExtraParams: extra,
	}, req.ExtensionID, panel.Deps{
		Endpoint:   s.resolver,
		Router:     s.router,
		Settings:   s.settings,
		Telemetry:  telemetry.NewLog(s.log),
		Host:       s.tracker,
		OnDidFocus: func() { s.tracker.setActive(panelID) },
		FocusDelay: s.cfg.Panel.FocusDelay(),
		Metrics:    s.metrics,
		Log:        s.log,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	s.panels[panelID] = p
	s.mu.Unlock()

	c.JSON(http.StatusCreated, gin.H{
		"id":         panelID,
		"endpoint":   p.Endpoint(),
		"contentUrl": p.ContentURL(),
	})
}

func (s *Server) listPanels(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]gin.H, 0, len(s.panels))
	for _, p := range s.panels {
		out = append(out, gin.H{
			"id":          p.ID(),
			"extensionId": p.ExtensionID(),
			"purpose":     p.Purpose(),
			"focused":     p.IsFocused(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"panels": out})
}

func (s *Server) closePanel(c *gin.Context) {
	panelID := c.Param("id")

	s.mu.Lock()
	p := s.panels[panelID]
	delete(s.panels, panelID)
	s.mu.Unlock()

	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "panel not found"})
		return
	}
	p.Dispose()
	c.JSON(http.StatusOK, gin.H{"id": panelID})
}

func (s *Server) focusPanel(c *gin.Context) {
	p := s.lookup(c)
	if p == nil {
		return
	}

	// Single-focus model: the requested panel becomes the focused one.
	s.mu.Lock()
	for _, other := range s.panels {
		other.SetFocused(other == p)
	}
	s.mu.Unlock()

	p.Focus()
	c.JSON(http.StatusOK, gin.H{"id": p.ID()})
}

type sendMessageRequest struct {
	Channel string `json:"channel" binding:"required"`
	Args    any    `json:"args"`
}

func (s *Server) sendMessage(c *gin.Context) {
	p := s.lookup(c)
	if p == nil {
		return
	}

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p.Send(req.Channel, req.Args)
	c.JSON(http.StatusAccepted, gin.H{"channel": req.Channel})
}

type putSettingRequest struct {
	Value string `json:"value"`
}

func (s *Server) putSetting(c *gin.Context) {
	var req putSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	key := c.Param("key")
	s.settings.Set(key, req.Value)
	c.JSON(http.StatusOK, gin.H{"key": key, "value": req.Value})
}

func (s *Server) lookup(c *gin.Context) *panel.Panel {
	s.mu.Lock()
	p := s.panels[c.Param("id")]
	s.mu.Unlock()

	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "panel not found"})
	}
	return p
}

func (s *Server) bindSurface(panelID string, conn *wstransport.Conn) (func(), error) {
	s.mu.Lock()
	p := s.panels[panelID]
	s.mu.Unlock()

	if p == nil {
		return nil, errNoSuchPanel(panelID)
	}
	p.BindSurface(conn)
	return func() { p.BindSurface(nil) }, nil
}

type errNoSuchPanel string

func (e errNoSuchPanel) Error() string { return "no panel with id " + string(e) }

func requestLogger(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("elapsed", time.Since(start)))
	}
}

// focusTracker is the headless stand-in for the host application's ambient
// focus state. There is no surrounding DOM here, so focus is modeled as
// "which panel last completed a handoff".
type focusTracker struct {
	mu     sync.Mutex
	active string
}

func (t *focusTracker) setActive(panelID string) {
	t.mu.Lock()
	t.active = panelID
	t.mu.Unlock()
}

// FocusedInSurface implements focus.Host. Ambient focus belongs to a panel
// surface whenever one has completed a handoff.
func (t *focusTracker) FocusedInSurface() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active != ""
}

// ClearFocus implements focus.Host.
func (t *focusTracker) ClearFocus() {
	t.mu.Lock()
	t.active = ""
	t.mu.Unlock()
}

// ActiveIsBody implements focus.Host. Headless hosts have no interactive
// elements to protect.
func (t *focusTracker) ActiveIsBody() bool { return true }
