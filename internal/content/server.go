// Package content serves rewritten panel resources over HTTP.
//
// Rewritten references all point at /vscode-resource/{scheme}{path} on the
// panel's endpoint; this server is that endpoint's resource half. Only
// resources under an allow-listed root, matching that root's patterns, are
// served — the other half of the "approved resources only" boundary.
package content

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/panelhost/internal/logging"
)

// Root maps a resolved scheme to a local directory of approved resources.
type Root struct {
	// Scheme is the resolved scheme this root serves (usually "file").
	Scheme string
	// Dir is the directory resources are read from.
	Dir string
	// Allow restricts served paths to these doublestar patterns, relative
	// to Dir. Empty allows everything under Dir.
	Allow []string
}

// Server serves panel resources from allow-listed roots.
type Server struct {
	roots map[string][]Root
	log   *logging.Logger
}

// NewServer creates a content server.
func NewServer(roots []Root, log *logging.Logger) *Server {
	if log == nil {
		log = logging.NewNop()
	}
	byScheme := make(map[string][]Root)
	for _, r := range roots {
		byScheme[r.Scheme] = append(byScheme[r.Scheme], r)
	}
	return &Server{roots: byScheme, log: log}
}

// Register mounts the resource route.
func (s *Server) Register(r gin.IRouter) {
	r.GET("/vscode-resource/:scheme/*path", s.serve)
}

func (s *Server) serve(c *gin.Context) {
	scheme := c.Param("scheme")
	// Clean before use; the path comes from untrusted content.
	rel := strings.TrimPrefix(path.Clean("/"+c.Param("path")), "/")

	for _, root := range s.roots[scheme] {
		if !root.allows(rel) {
			continue
		}

		full := filepath.Join(root.Dir, filepath.FromSlash(rel))
		data, err := os.ReadFile(full)
		if err != nil {
			continue
		}

		c.Data(http.StatusOK, contentType(rel, data), data)
		return
	}

	s.log.Debug("resource not served",
		zap.String("scheme", scheme),
		zap.String("path", rel))
	c.JSON(http.StatusNotFound, gin.H{"error": "resource not found"})
}

func (r Root) allows(rel string) bool {
	if len(r.Allow) == 0 {
		return true
	}
	for _, pattern := range r.Allow {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// contentType prefers the extension for text assets that sniffing misreads,
// then falls back to content detection.
func contentType(rel string, data []byte) string {
	switch strings.ToLower(filepath.Ext(rel)) {
	case ".css":
		return "text/css; charset=utf-8"
	case ".js", ".mjs":
		return "application/javascript; charset=utf-8"
	case ".svg":
		return "image/svg+xml"
	case ".html", ".htm":
		return "text/html; charset=utf-8"
	}
	return mimetype.Detect(data).String()
}
