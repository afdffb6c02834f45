// Package panel manages embedded, sandboxed content panel instances.
//
// A Panel owns exactly one embedded-surface reference and mediates every
// interaction with it: content loading (with resource rewriting), the typed
// message channel, focus delegation, and configuration mirroring. Panels are
// created with a caller-assigned id unique among live instances sharing a
// transport, and must be disposed to release their subscriptions, pending
// focus timer, and configuration watcher.
package panel
