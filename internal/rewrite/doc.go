// Package rewrite translates legacy virtual resource references embedded in
// panel HTML into absolute URIs on the panel's content endpoint.
//
// Untrusted panel content cannot fetch vscode-resource: URIs directly; the
// rewrite pins every reference to the endpoint-qualified form the content
// server understands, which is the only path to approved resources.
//
// Matching is quote-anchored: only references inside single or double quotes
// are rewritten, plain-text occurrences pass through. The rewrite is not
// idempotent, so it must run exactly once per load (panel.LoadHTML is the
// single call site).
package rewrite
