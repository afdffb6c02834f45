// Package server assembles the panel host: panel lifecycle over a JSON API,
// surface connections over WebSocket, the allow-listed resource endpoint,
// and Prometheus metrics, all on one gin engine.
package server
