// Package phpcgi executes PHP documents through a php-cgi binary so that a
// delegated index.php behaves as if it had been requested directly.
package phpcgi

import (
	"fmt"
	"log"
	"net/http"
	"net/http/cgi"
	"os/exec"
	"path/filepath"
	"strings"
)

// Executor runs scripts with a CGI interpreter.
type Executor struct {
	binary string
	root   string
}

// New resolves binary (a path or a name looked up in PATH) and returns an
// Executor for scripts under documentRoot.
func New(binary, documentRoot string) (*Executor, error) {
	path := binary
	if !strings.ContainsRune(binary, filepath.Separator) {
		found, err := exec.LookPath(binary)
		if err != nil {
			return nil, fmt.Errorf("php-cgi %q: %w", binary, err)
		}
		path = found
	}
	return &Executor{binary: path, root: documentRoot}, nil
}

// Binary returns the resolved interpreter path.
func (e *Executor) Binary() string {
	return e.binary
}

// IsScript reports whether file should run through the interpreter.
func IsScript(file string) bool {
	return strings.EqualFold(filepath.Ext(file), ".php")
}

// Serve runs script for r and streams its output to w. The original request
// URI, method, query and headers are passed through unchanged.
func (e *Executor) Serve(w http.ResponseWriter, r *http.Request, script string) {
	h := &cgi.Handler{
		Path: e.binary,
		Dir:  filepath.Dir(script),
		Root: "/",
		Env: []string{
			"SCRIPT_FILENAME=" + script,
			"DOCUMENT_ROOT=" + e.root,
			"REDIRECT_STATUS=200",
		},
		Logger: log.Default(),
	}
	h.ServeHTTP(w, r)
}
