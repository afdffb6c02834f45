package panel

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/panelhost/internal/bus"
	"github.com/GriffinCanCode/panelhost/internal/endpoint"
	"github.com/GriffinCanCode/panelhost/internal/settings"
)

type fakeSurface struct {
	mu       sync.Mutex
	messages []bus.Message
	focuses  int
}

func (s *fakeSurface) PostMessage(msg bus.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *fakeSurface) Focus() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focuses++
	return nil
}

func (s *fakeSurface) sent() []bus.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]bus.Message(nil), s.messages...)
}

type fakeHost struct{}

func (fakeHost) FocusedInSurface() bool { return false }
func (fakeHost) ClearFocus()            {}
func (fakeHost) ActiveIsBody() bool     { return true }

type recordingReporter struct {
	events chan string
}

func (r *recordingReporter) Emit(event string, props map[string]string) {
	r.events <- event + ":" + props["id"]
}

func testDeps(t *testing.T) Deps {
	t.Helper()

	resolver, err := endpoint.NewTemplate("https://{{id}}.panels.example.test/")
	require.NoError(t, err)

	return Deps{
		Endpoint:   resolver,
		Router:     bus.NewRouter(bus.Config{}),
		Host:       fakeHost{},
		FocusDelay: 10 * time.Millisecond,
	}
}

func TestNewValidation(t *testing.T) {
	deps := testDeps(t)

	_, err := New("", Options{}, "", deps)
	assert.Error(t, err, "id is required")

	broken := deps
	broken.Router = nil
	_, err = New("p1", Options{}, "", broken)
	assert.Error(t, err)
}

func TestEndpointNormalized(t *testing.T) {
	p, err := New("p1", Options{}, "", testDeps(t))
	require.NoError(t, err)
	defer p.Dispose()

	// Template yields a trailing slash; construction strips it.
	assert.Equal(t, "https://p1.panels.example.test", p.Endpoint())
}

func TestContentURL(t *testing.T) {
	deps := testDeps(t)
	p, err := New("p1", Options{
		Purpose: "release notes",
		ExtraParams: []QueryParam{
			{Key: "theme", Value: "dark blue"},
		},
	}, "ext.one", deps)
	require.NoError(t, err)
	defer p.Dispose()

	assert.Equal(t,
		"https://p1.panels.example.test/index.html?id=p1&extensionId=ext.one&purpose=release+notes&theme=dark+blue",
		p.ContentURL())
}

func TestLoadHTMLRewrites(t *testing.T) {
	p, err := New("p1", Options{}, "", testDeps(t))
	require.NoError(t, err)
	defer p.Dispose()

	out := p.LoadHTML(`<img src="vscode-resource://file/a/b.png">`)
	assert.Equal(t,
		`<img src="https://p1.panels.example.test/vscode-resource/file/a/b.png">`,
		out)
}

func TestTargetIsolationAcrossPanels(t *testing.T) {
	deps := testDeps(t)

	a, err := New("A", Options{}, "", deps)
	require.NoError(t, err)
	defer a.Dispose()

	b, err := New("B", Options{}, "", deps)
	require.NoError(t, err)
	defer b.Dispose()

	var gotA, gotB int
	a.Subscribe("ping", func(any) { gotA++ })
	b.Subscribe("ping", func(any) { gotB++ })

	deps.Router.Dispatch(bus.Envelope{Target: "A", Channel: "ping"})

	assert.Equal(t, 1, gotA)
	assert.Zero(t, gotB)
}

func TestConfigPropagation(t *testing.T) {
	deps := testDeps(t)
	store := settings.NewMemory()
	store.Set(settings.KeyConfirmBeforeClose, "never")
	deps.Settings = store

	p, err := New("p1", Options{}, "", deps)
	require.NoError(t, err)
	defer p.Dispose()

	surface := &fakeSurface{}
	p.BindSurface(surface)

	assert.Equal(t, "never", p.ConfirmBeforeClose())

	store.Set(settings.KeyConfirmBeforeClose, "keyboardOnly")
	store.Set("editor.fontSize", "14") // unrelated key: no message

	msgs := surface.sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, ChannelConfirmBeforeClose, msgs[0].Channel)
	assert.Equal(t, "keyboardOnly", msgs[0].Args)
	assert.Equal(t, "keyboardOnly", p.ConfirmBeforeClose())
}

func TestFocusSendsNotification(t *testing.T) {
	deps := testDeps(t)
	p, err := New("p1", Options{}, "", deps)
	require.NoError(t, err)
	defer p.Dispose()

	surface := &fakeSurface{}
	p.BindSurface(surface)
	p.SetFocused(true)

	p.Focus()
	time.Sleep(100 * time.Millisecond)

	surface.mu.Lock()
	focuses := surface.focuses
	surface.mu.Unlock()
	assert.Equal(t, 1, focuses)

	msgs := surface.sent()
	require.Len(t, msgs, 1)
	assert.Equal(t, ChannelFocus, msgs[0].Channel)
	assert.Nil(t, msgs[0].Args)
}

func TestFindNotSupported(t *testing.T) {
	p, err := New("p1", Options{}, "", testDeps(t))
	require.NoError(t, err)
	defer p.Dispose()

	assert.False(t, p.Capabilities().Find)
	assert.ErrorIs(t, p.Find("needle", false), ErrFindNotSupported)
	assert.ErrorIs(t, p.StopFind(true), ErrFindNotSupported)
}

func TestSendAfterDisposeIsNoop(t *testing.T) {
	p, err := New("p1", Options{}, "", testDeps(t))
	require.NoError(t, err)

	surface := &fakeSurface{}
	p.BindSurface(surface)
	p.Dispose()

	p.Send("anything", "x")
	assert.Empty(t, surface.sent())
}

func TestDisposeReleasesWatcher(t *testing.T) {
	deps := testDeps(t)
	store := settings.NewMemory()
	deps.Settings = store

	p, err := New("p1", Options{}, "", deps)
	require.NoError(t, err)

	surface := &fakeSurface{}
	p.BindSurface(surface)

	p.Dispose()
	p.Dispose() // idempotent

	store.Set(settings.KeyConfirmBeforeClose, "always")
	assert.Empty(t, surface.sent(), "disposed panel must not react to config changes")
}

func TestDisposeStopsRouting(t *testing.T) {
	deps := testDeps(t)
	p, err := New("p1", Options{}, "", deps)
	require.NoError(t, err)

	var got int
	p.Subscribe("ping", func(any) { got++ })
	p.Dispose()

	deps.Router.Dispatch(bus.Envelope{Target: "p1", Channel: "ping"})
	assert.Zero(t, got)
}

func TestTelemetryOnCreate(t *testing.T) {
	deps := testDeps(t)
	reporter := &recordingReporter{events: make(chan string, 1)}
	deps.Telemetry = reporter

	p, err := New("p1", Options{}, "ext.one", deps)
	require.NoError(t, err)
	defer p.Dispose()

	select {
	case got := <-reporter.events:
		assert.Contains(t, got, "panelCreated")
		assert.Contains(t, got, "p1")
	case <-time.After(time.Second):
		t.Fatal("telemetry event not emitted")
	}
}
