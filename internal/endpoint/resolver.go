// Package endpoint resolves a panel id to the origin serving its content.
//
// Every panel gets its own origin so browser-level isolation applies between
// panels. Resolution strategy is a host concern: the template resolver
// derives origins locally, the HTTP resolver asks a remote authority.
package endpoint

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Resolver maps a panel id to its content endpoint base URI. Implementations
// return the URI as-is; callers normalize trailing slashes.
type Resolver interface {
	Resolve(id string) (string, error)
}

// Template derives the endpoint by substituting "{{id}}" in a URI template.
type Template struct {
	pattern string
}

// NewTemplate creates a template resolver. The pattern must contain the
// literal "{{id}}".
func NewTemplate(pattern string) (*Template, error) {
	if !strings.Contains(pattern, "{{id}}") {
		return nil, fmt.Errorf("endpoint template missing {{id}} placeholder: %q", pattern)
	}
	return &Template{pattern: pattern}, nil
}

// Resolve implements Resolver.
func (t *Template) Resolve(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("panel id required")
	}
	return strings.ReplaceAll(t.pattern, "{{id}}", id), nil
}

// HTTP asks a remote authority service for the endpoint.
type HTTP struct {
	client *resty.Client
}

type resolveResponse struct {
	Endpoint string `json:"endpoint"`
}

// NewHTTP creates a resolver backed by the authority service at baseURL.
func NewHTTP(baseURL string) *HTTP {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(5 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond)
	return &HTTP{client: client}
}

// Resolve implements Resolver.
func (h *HTTP) Resolve(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("panel id required")
	}

	var body resolveResponse
	resp, err := h.client.R().
		SetPathParam("id", id).
		SetResult(&body).
		Get("/endpoints/{id}")
	if err != nil {
		return "", fmt.Errorf("endpoint resolution failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("endpoint resolution failed: %s", resp.Status())
	}
	if body.Endpoint == "" {
		return "", fmt.Errorf("authority returned no endpoint for %s", id)
	}
	return body.Endpoint, nil
}
