// Package focus reconciles host-side focus intent with the asynchronous,
// best-effort focus behavior of an embedded rendering surface.
//
// Surface focus is racy at the platform level: the surface may not be
// attached to a renderable tree yet, and other UI (a command palette, a
// dialog) can open between the request and the handoff. The coordinator
// therefore debounces requests into a single deferred attempt and re-checks
// every guard at execution time, not at scheduling time. Removing the
// debounce or the body-check guard reintroduces the focus-stealing race.
package focus
