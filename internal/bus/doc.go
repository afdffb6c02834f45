// Package bus routes typed messages between the host and embedded content
// panels sharing one transport.
//
// All panels in a rendering context share a single conduit; the Router
// multiplexes it by panel id. Inbound envelopes carry {target, channel, data}
// and are delivered only to handlers the targeted panel registered for that
// channel — this filtering is the trust boundary: sandboxed content can only
// talk the channel protocol, never invoke host capabilities directly.
//
// Messages are not buffered. Late subscribers miss past messages, and
// envelopes failing the target/channel filter are dropped silently (counted,
// not logged — filtering is routine, not exceptional).
package bus
