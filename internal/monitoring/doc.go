// Package monitoring provides Prometheus metrics for the panel host.
//
// Tracked series:
//   - envelope routing outcomes (routed vs dropped, with drop reason)
//   - outbound messages per channel
//   - focus handoff attempts and aborts
//   - live panel count
package monitoring
