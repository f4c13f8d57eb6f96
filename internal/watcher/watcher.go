// Package watcher monitors the document root and reports changes as
// root-relative URLs for live reload.
package watcher

import (
	"log"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/CageChen/devrouter/internal/config"
	"github.com/fsnotify/fsnotify"
)

// EventType represents the type of file system event
type EventType int

// File system event types.
const (
	EventCreate EventType = iota
	EventWrite
	EventRemove
	EventRename
)

func (t EventType) String() string {
	switch t {
	case EventCreate:
		return "create"
	case EventWrite:
		return "update"
	case EventRemove:
		return "remove"
	case EventRename:
		return "rename"
	default:
		return "unknown"
	}
}

// Event represents a file system change event
type Event struct {
	Type EventType
	// Path is the filesystem path that changed.
	Path string
	// URL is Path relative to the document root, slash separated.
	URL string
	// Dir is the URL of the directory listing that shows the change.
	Dir string
}

// Callback is a function called when file changes occur
type Callback func(Event)

// Watcher monitors file system changes under the document root
type Watcher struct {
	watcher   *fsnotify.Watcher
	cfg       *config.Config
	callbacks []Callback
	mu        sync.RWMutex
	done      chan struct{}
}

// New creates a new file system watcher
func New(cfg *config.Config) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &Watcher{
		watcher: w,
		cfg:     cfg,
		done:    make(chan struct{}),
	}, nil
}

// OnChange registers a callback for file change events
func (w *Watcher) OnChange(cb Callback) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.callbacks = append(w.callbacks, cb)
}

// Start watches every non-excluded directory under the root
func (w *Watcher) Start() error {
	if err := w.addTree(w.cfg.Root); err != nil {
		return err
	}

	go w.eventLoop()
	return nil
}

// Stop stops the watcher
func (w *Watcher) Stop() error {
	close(w.done)
	return w.watcher.Close()
}

func (w *Watcher) addTree(root string) error {
	return filepath.Walk(root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, not fatal.
			if p != root {
				log.Printf("Warning: cannot walk %s: %v", p, err)
				return nil
			}
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if p != root && w.cfg.IsExcluded(p) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(p); err != nil {
			log.Printf("Warning: cannot watch %s: %v", p, err)
		}
		return nil
	})
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	// Skip excluded paths
	if w.cfg.IsExcluded(event.Name) {
		return
	}

	var eventType EventType
	switch {
	case event.Op&fsnotify.Create == fsnotify.Create:
		eventType = EventCreate
		// If a new directory is created, watch it
		if isDir(event.Name) {
			if err := w.addTree(event.Name); err != nil {
				log.Printf("Warning: cannot watch %s: %v", event.Name, err)
			}
		}
	case event.Op&fsnotify.Write == fsnotify.Write:
		eventType = EventWrite
	case event.Op&fsnotify.Remove == fsnotify.Remove:
		eventType = EventRemove
	case event.Op&fsnotify.Rename == fsnotify.Rename:
		eventType = EventRename
	default:
		return
	}

	url, ok := URLFor(w.cfg.Root, event.Name)
	if !ok {
		return
	}

	e := Event{
		Type: eventType,
		Path: event.Name,
		URL:  url,
		Dir:  ListingFor(url),
	}

	w.mu.RLock()
	callbacks := make([]Callback, len(w.callbacks))
	copy(callbacks, w.callbacks)
	w.mu.RUnlock()

	for _, cb := range callbacks {
		cb(e)
	}
}

// URLFor converts a filesystem path under root into a root-relative URL.
func URLFor(root, p string) (string, bool) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	if rel == "." {
		return "/", true
	}
	return "/" + rel, true
}

// ListingFor returns the slash-terminated URL of the directory containing url.
func ListingFor(url string) string {
	dir := path.Dir(url)
	if dir == "/" {
		return dir
	}
	return dir + "/"
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
