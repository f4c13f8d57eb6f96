// Package handler carries out router outcomes over HTTP with gin.
package handler

import (
	"log"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/CageChen/devrouter/internal/metrics"
	"github.com/CageChen/devrouter/internal/phpcgi"
	"github.com/CageChen/devrouter/internal/router"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ListingHandler serves every request that is not a reserved route.
type ListingHandler struct {
	root    string
	router  *router.Router
	php     *phpcgi.Executor
	metrics *metrics.Collector
}

// NewListingHandler creates a listing handler for documentRoot. php and m may be nil.
func NewListingHandler(documentRoot string, rt *router.Router, php *phpcgi.Executor, m *metrics.Collector) *ListingHandler {
	return &ListingHandler{
		root:    documentRoot,
		router:  rt,
		php:     php,
		metrics: m,
	}
}

// Serve asks the router what to do with the request path and does it.
func (h *ListingHandler) Serve(c *gin.Context) {
	reqPath := c.Request.URL.Path

	start := time.Now()
	out := h.router.Handle(reqPath)
	h.metrics.ObserveOutcome(out.Kind.String(), time.Since(start))
	trace.SpanFromContext(c.Request.Context()).SetAttributes(
		attribute.String("devrouter.outcome", out.Kind.String()),
	)

	switch out.Kind {
	case router.Redirect:
		loc := url.URL{Path: out.Location, RawQuery: c.Request.URL.RawQuery}
		c.Redirect(http.StatusFound, loc.String())
	case router.Delegate:
		// Forward: the index document answers the original request.
		h.serveFile(c, out.File)
	case router.Render:
		h.metrics.ObserveListing(len(out.Entries))
		c.Data(http.StatusOK, "text/html; charset=utf-8", out.HTML)
	default:
		h.serveDeferred(c, reqPath)
	}
}

// serveDeferred is the normal static-file/404 path.
func (h *ListingHandler) serveDeferred(c *gin.Context, reqPath string) {
	if !router.ValidPath(reqPath) {
		c.String(http.StatusNotFound, "404 page not found")
		return
	}

	file := filepath.Join(h.root, filepath.FromSlash(reqPath))
	info, err := os.Stat(file)
	if err != nil {
		switch {
		case os.IsPermission(err):
			c.String(http.StatusForbidden, "403 forbidden")
		default:
			c.String(http.StatusNotFound, "404 page not found")
		}
		return
	}
	if !info.Mode().IsRegular() {
		c.String(http.StatusNotFound, "404 page not found")
		return
	}

	h.serveFile(c, file)
}

func (h *ListingHandler) serveFile(c *gin.Context, file string) {
	if !phpcgi.IsScript(file) {
		h.serveContent(c, file)
		return
	}
	if h.php == nil {
		log.Printf("Cannot run %s: no php_cgi interpreter configured", file)
		c.String(http.StatusInternalServerError, "no PHP interpreter configured (set php_cgi) to run %s", filepath.Base(file))
		return
	}
	h.php.Serve(c.Writer, c.Request, file)
}

// serveContent writes file with http.ServeContent. http.ServeFile is not used
// because it redirects any path ending in /index.html to its directory.
func (h *ListingHandler) serveContent(c *gin.Context, file string) {
	f, err := os.Open(file)
	if err != nil {
		log.Printf("Cannot open %s: %v", file, err)
		c.String(http.StatusNotFound, "404 page not found")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		log.Printf("Cannot stat %s: %v", file, err)
		c.String(http.StatusInternalServerError, "500 internal server error")
		return
	}
	http.ServeContent(c.Writer, c.Request, info.Name(), info.ModTime(), f)
}
