package router

import (
	"bytes"
	_ "embed"
	"html/template"
	"strings"
)

//go:embed listing.html
var listingHTML string

var listingTmpl = template.Must(template.New("listing").Parse(listingHTML))

type listingPage struct {
	Dir        string
	Crumbs     []Crumb
	Back       bool
	Entries    []Entry
	Readme     template.HTML
	LiveReload string
}

// render executes the listing shell. The template only ranges over typed
// slices, so execution cannot fail for well-formed data.
func (r *Router) render(dir string, entries []Entry) []byte {
	page := listingPage{
		Dir:        dir,
		Crumbs:     Breadcrumbs(dir),
		Back:       dir != "/",
		Entries:    entries,
		Readme:     r.readmeHTML(dir, entries),
		LiveReload: r.liveReload,
	}

	var buf bytes.Buffer
	if err := listingTmpl.Execute(&buf, page); err != nil {
		return nil
	}
	return buf.Bytes()
}

func (r *Router) readmeHTML(dir string, entries []Entry) template.HTML {
	if r.readme == nil {
		return ""
	}
	for _, e := range entries {
		if e.IsDir || !strings.EqualFold(e.Name, "README.md") {
			continue
		}
		source, err := r.fs.ReadFile(dir + e.Name)
		if err != nil {
			return ""
		}
		html, err := r.readme.Preview(source)
		if err != nil {
			return ""
		}
		return html
	}
	return ""
}
