package fs

import (
	"os"
	"path/filepath"
	"strings"
)

// LocalFS implements FileSystem using the local filesystem.
type LocalFS struct {
	root string
}

// NewLocalFS creates a LocalFS rooted at the given directory.
func NewLocalFS(root string) *LocalFS {
	return &LocalFS{root: root}
}

// Root returns the directory the LocalFS resolves paths against.
func (l *LocalFS) Root() string {
	return l.root
}

func (l *LocalFS) abs(path string) string {
	path = strings.TrimPrefix(path, "/")
	if path == "" || path == "." {
		return l.root
	}
	return filepath.Join(l.root, filepath.FromSlash(path))
}

// ReadFile reads the contents of the file at the given path relative to the root.
func (l *LocalFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(l.abs(path))
}

// Stat follows symlinks, so a link to a directory reports IsDir.
func (l *LocalFS) Stat(path string) (FileInfo, error) {
	info, err := os.Stat(l.abs(path))
	if err != nil {
		return FileInfo{}, err
	}
	return FileInfo{
		Name:    info.Name(),
		IsDir:   info.IsDir(),
		Regular: info.Mode().IsRegular(),
	}, nil
}

// ReadDir lists the immediate children of the directory at the given path relative to the root.
func (l *LocalFS) ReadDir(path string) ([]DirEntry, error) {
	dir := l.abs(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	result := make([]DirEntry, len(entries))
	for i, e := range entries {
		isDir := e.IsDir()
		if e.Type()&os.ModeSymlink != 0 {
			// Dangling links stay files.
			if info, err := os.Stat(filepath.Join(dir, e.Name())); err == nil {
				isDir = info.IsDir()
			}
		}
		result[i] = DirEntry{
			Name:  e.Name(),
			IsDir: isDir,
		}
	}
	return result, nil
}
