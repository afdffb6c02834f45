package rewrite

import (
	"regexp"
	"strings"
)

// ResourcePathPrefix is the path segment the content endpoint serves
// rewritten resources under.
const ResourcePathPrefix = "/vscode-resource/"

// FallbackScheme is the resolved scheme used when a reference carries no
// authority segment: such references are treated as local file resources.
const FallbackScheme = "file"

// resourcePattern matches a quoted virtual resource reference in either of
// two forms:
//
//	"vscode-resource://<resolved-scheme>/rest"  (authority = encoded original scheme)
//	"vscode-resource:/rest"                     (no authority, falls back to file)
//
// Capture groups: 1 opening quote, 2 authority (may be empty), 3 path,
// 4 closing quote. Quotes are captured independently and re-emitted verbatim;
// the pattern does not require them to pair.
var resourcePattern = regexp.MustCompile(
	`(?i)(["'])(?:vscode-resource|vscode-webview-resource):(?://([^\s/'"]+))?([^\s'"]+?)(["'])`)

// Resources rewrites every quoted virtual resource reference in html to an
// absolute URI on endpoint. References that do not fully match the pattern
// are left untouched; the function never fails.
func Resources(html, endpoint string) string {
	endpoint = NormalizeEndpoint(endpoint)

	return resourcePattern.ReplaceAllStringFunc(html, func(match string) string {
		parts := resourcePattern.FindStringSubmatch(match)
		scheme := parts[2]
		if scheme == "" {
			scheme = FallbackScheme
		}
		return parts[1] + endpoint + ResourcePathPrefix + scheme + parts[3] + parts[4]
	})
}

// NormalizeEndpoint strips any trailing slash from a content endpoint so
// that "https://x/" and "https://x" produce identical rewrites.
func NormalizeEndpoint(endpoint string) string {
	return strings.TrimRight(endpoint, "/")
}
