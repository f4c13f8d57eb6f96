package markdown

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	p := NewParser()
	source := []byte("# Hello World\n\nThis is a *test*.")

	result, err := p.Parse(source)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !strings.Contains(result.HTML, "<h1") || !strings.Contains(result.HTML, "Hello World</h1>") {
		t.Error("expected H1 tag containing 'Hello World' in HTML")
	}
	if !strings.Contains(result.HTML, "<em>test</em>") {
		t.Error("expected italicized test in HTML")
	}
	if result.Title != "Hello World" {
		t.Errorf("expected title Hello World, got %s", result.Title)
	}
}

func TestParse_FirstHeadingOnly(t *testing.T) {
	result, err := NewParser().Parse([]byte("intro\n\n## Setup\n\n# Later"))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if result.Title != "Setup" {
		t.Errorf("expected title Setup, got %q", result.Title)
	}
}

func TestPreview_OmitsRawHTML(t *testing.T) {
	html, err := NewParser().Preview([]byte("# Title\n\n<script>alert(1)</script>\n"))
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if strings.Contains(string(html), "<script>") {
		t.Error("expected raw HTML to be omitted")
	}
}

func TestPreview_HighlightsInline(t *testing.T) {
	html, err := NewParser().Preview([]byte("```go\nfunc main() {}\n```\n"))
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if !strings.Contains(string(html), "style=") {
		t.Error("expected inline highlight styles")
	}
}
