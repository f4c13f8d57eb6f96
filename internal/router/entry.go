package router

import (
	"path"
	"sort"
	"strings"
)

// Entry is one child of a listed directory.
type Entry struct {
	// Path is the filesystem path; directories end in "/".
	Path string
	// URL is Path with the document root stripped.
	URL   string
	Name  string
	IsDir bool
}

// Compare orders entries: directories first, then case-insensitive natural
// order of the names. Names equal ignoring case fall back to a byte comparison
// so the order is total.
func Compare(a, b Entry) int {
	if a.IsDir != b.IsDir {
		if a.IsDir {
			return -1
		}
		return 1
	}
	if r := naturalCaseCompare(a.Name, b.Name); r != 0 {
		return r
	}
	return strings.Compare(a.Name, b.Name)
}

// Less reports whether a sorts before b.
func Less(a, b Entry) bool {
	return Compare(a, b) < 0
}

// SortEntries sorts entries in place into listing order.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return Compare(entries[i], entries[j]) < 0
	})
}

// entries enumerates the immediate children of dir (a slash-terminated
// request path). Enumeration failures yield no entries.
func (r *Router) entries(dir string) []Entry {
	children, err := r.fs.ReadDir(dir)
	if err != nil {
		return nil
	}

	result := make([]Entry, 0, len(children))
	for _, child := range children {
		if r.hidden(child.Name) {
			continue
		}
		p := r.root + dir + child.Name
		if child.IsDir {
			p = withSlash(p)
		}
		url := strings.TrimPrefix(p, r.root)
		result = append(result, Entry{
			Path:  p,
			URL:   url,
			Name:  path.Base(url),
			IsDir: child.IsDir,
		})
	}

	SortEntries(result)
	return result
}

func (r *Router) hidden(name string) bool {
	if !r.showHidden && strings.HasPrefix(name, ".") {
		return true
	}
	for _, pattern := range r.exclude {
		if matched, _ := path.Match(pattern, name); matched {
			return true
		}
	}
	return false
}

// withSlash appends "/" to p, collapsing the double slash that would result
// if p already ends in one.
func withSlash(p string) string {
	return strings.TrimSuffix(p, "/") + "/"
}

// naturalCaseCompare compares a and b in case-insensitive natural order.
// Bytes are folded to upper case and compared by value, except that runs of
// digits compare as numbers. A run starting with '0' compares digit by digit
// from the left, so "file02" sorts before "file2". Leading zeros at the start
// of a string and runs of whitespace are skipped.
func naturalCaseCompare(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return compareInt(len(a), len(b))
	}

	i, j := 0, 0
	for i+1 < len(a) && a[i] == '0' && isDigit(a[i+1]) {
		i++
	}
	for j+1 < len(b) && b[j] == '0' && isDigit(b[j+1]) {
		j++
	}

	for {
		for i < len(a) && isSpace(a[i]) {
			i++
		}
		for j < len(b) && isSpace(b[j]) {
			j++
		}
		ca, cb := byteAt(a, i), byteAt(b, j)

		if isDigit(ca) && isDigit(cb) {
			var r int
			if ca == '0' || cb == '0' {
				r, i, j = compareFraction(a, i, b, j)
			} else {
				r, i, j = compareNumber(a, i, b, j)
			}
			switch {
			case r != 0:
				return r
			case i >= len(a) && j >= len(b):
				return 0
			case i >= len(a):
				return -1
			case j >= len(b):
				return 1
			}
			ca, cb = a[i], b[j]
		}

		ca, cb = toUpper(ca), toUpper(cb)
		if ca != cb {
			return compareInt(int(ca), int(cb))
		}
		i++
		j++
		switch {
		case i >= len(a) && j >= len(b):
			return 0
		case i >= len(a):
			return -1
		case j >= len(b):
			return 1
		}
	}
}

// compareNumber compares the digit runs at a[i:] and b[j:] by value: the
// longer run is larger, equal lengths are decided by the first differing
// digit. It returns the indexes just past both runs.
func compareNumber(a string, i int, b string, j int) (int, int, int) {
	bias := 0
	for ; ; i, j = i+1, j+1 {
		da, db := isDigit(byteAt(a, i)), isDigit(byteAt(b, j))
		switch {
		case !da && !db:
			return bias, i, j
		case !da:
			return -1, i, j
		case !db:
			return 1, i, j
		}
		if bias == 0 && a[i] != b[j] {
			bias = compareInt(int(a[i]), int(b[j]))
		}
	}
}

// compareFraction compares the digit runs at a[i:] and b[j:] left-aligned;
// the first differing digit decides and a shorter run sorts first.
func compareFraction(a string, i int, b string, j int) (int, int, int) {
	for ; ; i, j = i+1, j+1 {
		da, db := isDigit(byteAt(a, i)), isDigit(byteAt(b, j))
		switch {
		case !da && !db:
			return 0, i, j
		case !da:
			return -1, i, j
		case !db:
			return 1, i, j
		case a[i] != b[j]:
			return compareInt(int(a[i]), int(b[j])), i, j
		}
	}
}

func byteAt(s string, i int) byte {
	if i < len(s) {
		return s[i]
	}
	return 0
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

func toUpper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
