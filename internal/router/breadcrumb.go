package router

import "strings"

// Crumb is one clickable segment of the header path.
type Crumb struct {
	Path  string
	Label string
	// Home marks the root crumb, which shows the home icon instead of a label.
	Home bool
}

// Breadcrumbs splits requestPath into cumulative crumbs, root first.
func Breadcrumbs(requestPath string) []Crumb {
	crumbs := []Crumb{{Path: "/", Home: true}}

	trimmed := strings.Trim(requestPath, "/")
	if trimmed == "" {
		return crumbs
	}

	prev := ""
	for _, seg := range strings.Split(trimmed, "/") {
		prev += "/" + seg
		crumbs = append(crumbs, Crumb{Path: prev, Label: seg})
	}
	return crumbs
}
