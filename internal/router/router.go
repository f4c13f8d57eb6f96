// Package router decides what a development web server should do with a
// request whose target is not directly servable: defer to the server,
// redirect to the slash-terminated directory URL, delegate to an index
// document, or render a directory listing.
package router

import (
	"html/template"
	"path/filepath"
	"strings"

	mfs "github.com/CageChen/devrouter/internal/fs"
)

// Kind discriminates the four outcomes of Handle.
type Kind int

// Outcome kinds.
const (
	// Defer lets the caller's normal static-file/404 handling proceed.
	Defer Kind = iota
	// Redirect asks the caller to redirect to Outcome.Location.
	Redirect
	// Delegate asks the caller to execute Outcome.File as if it had been requested.
	Delegate
	// Render carries a complete directory listing page in Outcome.HTML.
	Render
)

func (k Kind) String() string {
	switch k {
	case Defer:
		return "defer"
	case Redirect:
		return "redirect"
	case Delegate:
		return "delegate"
	case Render:
		return "render"
	default:
		return "unknown"
	}
}

// Outcome is the result of handling one request path.
type Outcome struct {
	Kind Kind

	// Location is set for Redirect.
	Location string

	// File is the filesystem path of the index document for Delegate.
	File string

	// HTML and Entries are set for Render. Entries are in display order.
	HTML    []byte
	Entries []Entry
}

// DefaultIndexes are the index documents checked in priority order.
var DefaultIndexes = []string{"index.php", "index.html"}

// Previewer turns README source into trusted HTML for the listing page.
type Previewer interface {
	Preview(source []byte) (template.HTML, error)
}

// Router resolves request paths against a document root.
// It holds no mutable state and is safe for concurrent use.
type Router struct {
	root       string
	fs         mfs.FileSystem
	indexes    []string
	showHidden bool
	exclude    []string
	readme     Previewer
	liveReload string
}

// Option configures a Router.
type Option func(*Router)

// WithFileSystem replaces the local filesystem view of the document root.
func WithFileSystem(fs mfs.FileSystem) Option {
	return func(r *Router) {
		r.fs = fs
	}
}

// WithIndexes sets the index documents checked, highest priority first.
func WithIndexes(names ...string) Option {
	return func(r *Router) {
		r.indexes = append([]string(nil), names...)
	}
}

// WithHidden lists dot entries when show is true.
func WithHidden(show bool) Option {
	return func(r *Router) {
		r.showHidden = show
	}
}

// WithExclude hides entries whose base name matches any of the glob patterns.
func WithExclude(patterns []string) Option {
	return func(r *Router) {
		r.exclude = append([]string(nil), patterns...)
	}
}

// WithReadme appends a rendered README.md panel to listings.
func WithReadme(p Previewer) Option {
	return func(r *Router) {
		r.readme = p
	}
}

// WithLiveReload embeds a script that reloads the listing when the server
// pushes a change for it on the websocket at wsPath.
func WithLiveReload(wsPath string) Option {
	return func(r *Router) {
		r.liveReload = wsPath
	}
}

// New creates a Router for documentRoot.
func New(documentRoot string, opts ...Option) *Router {
	root := filepath.ToSlash(filepath.Clean(documentRoot))
	r := &Router{
		root:    strings.TrimSuffix(root, "/"),
		indexes: DefaultIndexes,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.fs == nil {
		r.fs = mfs.NewLocalFS(documentRoot)
	}
	return r
}

// Handle resolves requestPath against documentRoot with default options.
func Handle(documentRoot, requestPath string) Outcome {
	return New(documentRoot).Handle(requestPath)
}

// Handle classifies requestPath and returns exactly one outcome. It never
// fails: anything that cannot be classified is a Defer.
func (r *Router) Handle(requestPath string) Outcome {
	if !ValidPath(requestPath) {
		return Outcome{Kind: Defer}
	}

	info, err := r.fs.Stat(requestPath)
	if err != nil || !info.IsDir {
		return Outcome{Kind: Defer}
	}

	if !strings.HasSuffix(requestPath, "/") {
		return Outcome{Kind: Redirect, Location: requestPath + "/"}
	}

	for _, index := range r.indexes {
		fi, err := r.fs.Stat(requestPath + index)
		if err == nil && fi.Regular {
			return Outcome{Kind: Delegate, File: filepath.FromSlash(r.root + requestPath + index)}
		}
	}

	entries := r.entries(requestPath)
	return Outcome{
		Kind:    Render,
		HTML:    r.render(requestPath, entries),
		Entries: entries,
	}
}

// ValidPath reports whether a request path is absolute and cannot leave the
// document root.
func ValidPath(p string) bool {
	if !strings.HasPrefix(p, "/") || strings.IndexByte(p, 0) != -1 {
		return false
	}
	for _, seg := range strings.Split(p, "/") {
		if seg == ".." {
			return false
		}
	}
	return true
}
