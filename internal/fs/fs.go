// Package fs provides the filesystem view the router classifies and enumerates.
package fs

// FileInfo holds what the router needs to classify a target.
type FileInfo struct {
	Name    string
	IsDir   bool
	Regular bool
}

// DirEntry represents a single directory entry.
type DirEntry struct {
	Name  string
	IsDir bool
}

// FileSystem abstracts file operations on slash-separated paths relative to
// a document root, so the router can be exercised without a real disk.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Stat(path string) (FileInfo, error)
	ReadDir(path string) ([]DirEntry, error)
}
