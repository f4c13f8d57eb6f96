package router

import (
	"bytes"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	mfs "github.com/CageChen/devrouter/internal/fs"
)

// setupRoot creates a document root. Paths ending in "/" become directories.
func setupRoot(t *testing.T, paths ...string) string {
	t.Helper()

	root := t.TempDir()
	for _, p := range paths {
		full := filepath.Join(root, filepath.FromSlash(p))
		if strings.HasSuffix(p, "/") {
			if err := os.MkdirAll(full, 0o755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(p), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func parse(t *testing.T, html []byte) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse listing: %v", err)
	}
	return doc
}

func navLinks(doc *goquery.Document) (texts, hrefs []string) {
	doc.Find("nav a").Each(func(_ int, s *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(s.Text()))
		href, _ := s.Attr("href")
		hrefs = append(hrefs, href)
	})
	return texts, hrefs
}

func TestHandle_Defer(t *testing.T) {
	root := setupRoot(t, "docs/", "docs/guide.txt", "style.css")

	tests := []struct {
		name string
		path string
	}{
		{"missing file", "/nope.txt"},
		{"missing directory", "/nope/"},
		{"regular file", "/style.css"},
		{"nested regular file", "/docs/guide.txt"},
		{"file with trailing slash", "/style.css/"},
		{"parent traversal", "/docs/../../etc/"},
		{"nul byte", "/docs\x00/"},
		{"relative path", "docs/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Handle(root, tt.path)
			if out.Kind != Defer {
				t.Errorf("Handle(%q) = %v, want defer", tt.path, out.Kind)
			}
		})
	}
}

func TestHandle_Redirect(t *testing.T) {
	root := setupRoot(t, "docs/api/")

	tests := []struct {
		path     string
		location string
	}{
		{"/docs", "/docs/"},
		{"/docs/api", "/docs/api/"},
	}

	for _, tt := range tests {
		out := Handle(root, tt.path)
		if out.Kind != Redirect {
			t.Fatalf("Handle(%q) = %v, want redirect", tt.path, out.Kind)
		}
		if out.Location != tt.location {
			t.Errorf("Handle(%q) location = %q, want %q", tt.path, out.Location, tt.location)
		}
	}
}

func TestHandle_DelegatePriority(t *testing.T) {
	root := setupRoot(t, "both/index.php", "both/index.html", "html/index.html", "fake/index.php/")

	tests := []struct {
		path string
		file string
	}{
		{"/both/", filepath.Join(root, "both", "index.php")},
		{"/html/", filepath.Join(root, "html", "index.html")},
	}

	for _, tt := range tests {
		out := Handle(root, tt.path)
		if out.Kind != Delegate {
			t.Fatalf("Handle(%q) = %v, want delegate", tt.path, out.Kind)
		}
		if out.File != tt.file {
			t.Errorf("Handle(%q) file = %q, want %q", tt.path, out.File, tt.file)
		}
	}

	// A directory named like an index document is not delegated to.
	if out := Handle(root, "/fake/"); out.Kind != Render {
		t.Errorf("Handle(/fake/) = %v, want render", out.Kind)
	}
}

func TestHandle_CustomIndexes(t *testing.T) {
	root := setupRoot(t, "site/index.php", "site/default.htm")

	r := New(root, WithIndexes("default.htm"))
	out := r.Handle("/site/")
	if out.Kind != Delegate || out.File != filepath.Join(root, "site", "default.htm") {
		t.Errorf("unexpected outcome %+v", out)
	}
}

func TestHandle_RenderOrder(t *testing.T) {
	root := setupRoot(t, "list/b.txt", "list/A/", "list/a.txt", "list/file10", "list/file2")

	out := Handle(root, "/list/")
	if out.Kind != Render {
		t.Fatalf("expected render, got %v", out.Kind)
	}

	texts, hrefs := navLinks(parse(t, out.HTML))
	wantTexts := []string{"..", "A", "a.txt", "b.txt", "file2", "file10"}
	wantHrefs := []string{"..", "/list/A/", "/list/a.txt", "/list/b.txt", "/list/file2", "/list/file10"}
	if strings.Join(texts, ",") != strings.Join(wantTexts, ",") {
		t.Errorf("link texts = %v, want %v", texts, wantTexts)
	}
	if strings.Join(hrefs, ",") != strings.Join(wantHrefs, ",") {
		t.Errorf("link hrefs = %v, want %v", hrefs, wantHrefs)
	}

	if len(out.Entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(out.Entries))
	}
	dir := out.Entries[0]
	if !dir.IsDir || dir.Path != filepath.ToSlash(root)+"/list/A/" || dir.URL != "/list/A/" {
		t.Errorf("unexpected directory entry %+v", dir)
	}
}

func TestHandle_Icons(t *testing.T) {
	root := setupRoot(t, "sub/", "file.txt")

	doc := parse(t, Handle(root, "/").HTML)
	doc.Find("nav a").Each(func(_ int, s *goquery.Selection) {
		icon, _ := goquery.OuterHtml(s.Find("use"))
		switch strings.TrimSpace(s.Text()) {
		case "sub":
			if !strings.Contains(icon, `"#folder"`) {
				t.Errorf("expected folder icon for sub, got %q", icon)
			}
		case "file.txt":
			if !strings.Contains(icon, `"#file"`) {
				t.Errorf("expected file icon for file.txt, got %q", icon)
			}
		}
	})
}

func TestHandle_BackLink(t *testing.T) {
	root := setupRoot(t, "a/b/")

	tests := []struct {
		path string
		back bool
	}{
		{"/", false},
		{"/a/", true},
		{"/a/b/", true},
	}

	for _, tt := range tests {
		texts, _ := navLinks(parse(t, Handle(root, tt.path).HTML))
		hasBack := len(texts) > 0 && texts[0] == ".."
		if hasBack != tt.back {
			t.Errorf("Handle(%q) back-link = %v, want %v", tt.path, hasBack, tt.back)
		}
	}
}

func TestHandle_Header(t *testing.T) {
	root := setupRoot(t, "a/b/c/")

	doc := parse(t, Handle(root, "/a/b/c/").HTML)

	if got := doc.Find("h2").Text(); got != "Local Web Server" {
		t.Errorf("unexpected heading %q", got)
	}

	var hrefs []string
	doc.Find("header span a").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		hrefs = append(hrefs, href)
	})
	want := []string{"/", "/a", "/a/b", "/a/b/c"}
	if strings.Join(hrefs, ",") != strings.Join(want, ",") {
		t.Errorf("breadcrumb hrefs = %v, want %v", hrefs, want)
	}
	if doc.Find("header span a").First().Find("use").Length() != 1 {
		t.Error("expected the root crumb to carry the home icon")
	}
}

func TestHandle_Idempotent(t *testing.T) {
	root := setupRoot(t, "x/1.txt", "x/10.txt", "x/2.txt", "x/sub/")

	first := Handle(root, "/x/")
	second := Handle(root, "/x/")
	if !bytes.Equal(first.HTML, second.HTML) {
		t.Error("expected byte-identical output for identical inputs")
	}
}

func TestHandle_HiddenAndExcluded(t *testing.T) {
	root := setupRoot(t, ".git/", ".env", "node_modules/", "main.go")

	texts, _ := navLinks(parse(t, New(root, WithExclude([]string{"node_modules"})).Handle("/").HTML))
	if strings.Join(texts, ",") != "main.go" {
		t.Errorf("expected only main.go, got %v", texts)
	}

	texts, _ = navLinks(parse(t, New(root, WithHidden(true)).Handle("/").HTML))
	want := ".git,node_modules,.env,main.go"
	if strings.Join(texts, ",") != want {
		t.Errorf("with hidden entries got %v, want %s", texts, want)
	}
}

func TestHandle_EscapesNames(t *testing.T) {
	root := setupRoot(t, "<b>.txt", "a b.txt")

	out := Handle(root, "/")
	if bytes.Contains(out.HTML, []byte("<b>.txt")) {
		t.Error("expected entry names to be escaped")
	}
	texts, hrefs := navLinks(parse(t, out.HTML))
	for i, text := range texts {
		if text == "a b.txt" && hrefs[i] != "/a%20b.txt" {
			t.Errorf("expected escaped href, got %q", hrefs[i])
		}
	}
}

// lockedFS reports a directory that cannot be read.
type lockedFS struct{}

func (lockedFS) ReadFile(string) ([]byte, error) { return nil, os.ErrPermission }

func (lockedFS) Stat(path string) (mfs.FileInfo, error) {
	if path == "/locked/" || path == "/locked" {
		return mfs.FileInfo{Name: "locked", IsDir: true}, nil
	}
	return mfs.FileInfo{}, os.ErrNotExist
}

func (lockedFS) ReadDir(string) ([]mfs.DirEntry, error) { return nil, os.ErrPermission }

func TestHandle_UnreadableDirectory(t *testing.T) {
	out := New("/srv", WithFileSystem(lockedFS{})).Handle("/locked/")
	if out.Kind != Render {
		t.Fatalf("expected render, got %v", out.Kind)
	}
	texts, _ := navLinks(parse(t, out.HTML))
	if len(texts) != 1 || texts[0] != ".." {
		t.Errorf("expected only the back-link, got %v", texts)
	}
}

type stubPreviewer struct{}

func (stubPreviewer) Preview(source []byte) (template.HTML, error) {
	return template.HTML("<p class=stub>" + template.HTMLEscapeString(string(source)) + "</p>"), nil
}

func TestHandle_Readme(t *testing.T) {
	root := setupRoot(t, "proj/README.md", "proj/main.go")

	doc := parse(t, Handle(root, "/proj/").HTML)
	if doc.Find("section.readme").Length() != 0 {
		t.Error("expected no readme panel by default")
	}

	doc = parse(t, New(root, WithReadme(stubPreviewer{})).Handle("/proj/").HTML)
	if got := doc.Find("section.readme p.stub").Text(); got != "proj/README.md" {
		t.Errorf("unexpected readme panel %q", got)
	}
}

func TestHandle_LiveReload(t *testing.T) {
	root := setupRoot(t, "a/")

	if bytes.Contains(Handle(root, "/a/").HTML, []byte("<script>")) {
		t.Error("expected no script without live reload")
	}
	html := New(root, WithLiveReload("/__devrouter/ws")).Handle("/a/").HTML
	if !bytes.Contains(html, []byte("new WebSocket")) {
		t.Error("expected live reload script")
	}
}

func TestBreadcrumbs(t *testing.T) {
	tests := []struct {
		path   string
		paths  []string
		labels []string
	}{
		{"/", []string{"/"}, []string{""}},
		{"/a/", []string{"/", "/a"}, []string{"", "a"}},
		{"/a/b/c/", []string{"/", "/a", "/a/b", "/a/b/c"}, []string{"", "a", "b", "c"}},
	}

	for _, tt := range tests {
		crumbs := Breadcrumbs(tt.path)
		if len(crumbs) != len(tt.paths) {
			t.Fatalf("Breadcrumbs(%q) returned %d crumbs, want %d", tt.path, len(crumbs), len(tt.paths))
		}
		if !crumbs[0].Home {
			t.Errorf("Breadcrumbs(%q)[0] is not the home crumb", tt.path)
		}
		for i, c := range crumbs {
			if c.Path != tt.paths[i] || c.Label != tt.labels[i] {
				t.Errorf("Breadcrumbs(%q)[%d] = %+v, want %s %q", tt.path, i, c, tt.paths[i], tt.labels[i])
			}
			if i > 0 && c.Home {
				t.Errorf("Breadcrumbs(%q)[%d] unexpectedly marked home", tt.path, i)
			}
		}
	}
}

func TestLess(t *testing.T) {
	dir := func(name string) Entry { return Entry{Name: name, IsDir: true} }
	file := func(name string) Entry { return Entry{Name: name} }

	tests := []struct {
		a, b Entry
		want bool
	}{
		{dir("zzz"), file("aaa"), true},
		{file("aaa"), dir("zzz"), false},
		{file("file2"), file("file10"), true},
		{file("file10"), file("file2"), false},
		{file("a.txt"), file("B.txt"), true},
		{file("B.txt"), file("a.txt"), false},
		{dir("v9"), dir("V10"), true},
		{file("same"), file("same"), false},
		{file("my-file"), file("myfile"), true},
		{file("myfile"), file("my_file"), true},
		{file("my_file"), file("my-file"), false},
		{file("file1"), file("file_a"), true},
		{file("file_a"), file("file1"), false},
		{file("a.b"), file("a_b"), true},
		{file("a_b"), file("a.b"), false},
		{file("file02"), file("file2"), true},
		{file("file2"), file("file02"), false},
	}

	for _, tt := range tests {
		if got := Less(tt.a, tt.b); got != tt.want {
			t.Errorf("Less(%+v, %+v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSortEntries_Total(t *testing.T) {
	entries := []Entry{{Name: "readme"}, {Name: "README"}, {Name: "Readme"}}
	SortEntries(entries)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	if strings.Join(names, ",") != "README,Readme,readme" {
		t.Errorf("unexpected tie order %v", names)
	}
}

func TestSortEntries_Punctuation(t *testing.T) {
	var entries []Entry
	for _, name := range []string{"myfile", "my_file", "my-file", "file_a", "file1", "a.b", "a_b"} {
		entries = append(entries, Entry{Name: name})
	}
	SortEntries(entries)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name)
	}
	want := "a.b,a_b,file1,file_a,my-file,myfile,my_file"
	if got := strings.Join(names, ","); got != want {
		t.Errorf("SortEntries order = %s, want %s", got, want)
	}
}

func TestNaturalCaseCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"", "a", -1},
		{"a", "", 1},
		{"Abc", "aBC", 0},
		{"x9y", "x10y", -1},
		{"x10y", "x9y", 1},
		{"007", "7", 0},
		{"file02", "file2", -1},
		{"file2", "file2.txt", -1},
		{"v1.10", "v1.9", 1},
		{"a b", "ab", 0},
	}

	for _, tt := range tests {
		if got := naturalCaseCompare(tt.a, tt.b); got != tt.want {
			t.Errorf("naturalCaseCompare(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestKindString(t *testing.T) {
	for kind, want := range map[Kind]string{Defer: "defer", Redirect: "redirect", Delegate: "delegate", Render: "render"} {
		if kind.String() != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, kind.String(), want)
		}
	}
}
