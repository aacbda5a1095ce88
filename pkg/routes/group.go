// Package routes declares handler groups once and uses the declaration both
// to register a ServeMux and to build the OpenAPI document.
package routes

import (
	"net/http"
	"regexp"
	"slices"

	"github.com/JaimeStill/verdant/pkg/openapi"
)

// Group organizes routes under a common prefix. Tags apply to every
// documented operation in the group and its children.
type Group struct {
	Prefix   string
	Tags     []string
	Routes   []Route
	Children []Group
	Schemas  map[string]*openapi.Schema
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	walk("", groups, func(prefix string, _ Group, r Route) {
		mux.HandleFunc(r.Method+" "+prefix+r.Pattern, r.Handler)
	})
}

// Document adds every documented route and group schema to spec.
func Document(spec *openapi.Spec, groups ...Group) {
	walk("", groups, func(prefix string, g Group, r Route) {
		if r.OpenAPI == nil {
			return
		}
		if len(r.OpenAPI.Tags) == 0 {
			r.OpenAPI.Tags = g.Tags
		}
		spec.AddOperation(openAPIPath(prefix+r.Pattern), r.Method, r.OpenAPI)
	})

	var schemas func([]Group)
	schemas = func(gs []Group) {
		for _, g := range gs {
			if g.Schemas != nil {
				spec.Components.AddSchemas(g.Schemas)
			}
			schemas(g.Children)
		}
	}
	schemas(groups)
}

func walk(parent string, groups []Group, fn func(prefix string, g Group, r Route)) {
	for _, g := range groups {
		prefix := parent + g.Prefix
		for _, r := range g.Routes {
			fn(prefix, g, r)
		}
		children := slices.Clone(g.Children)
		for i := range children {
			if len(children[i].Tags) == 0 {
				children[i].Tags = g.Tags
			}
		}
		walk(prefix, children, fn)
	}
}

var wildcard = regexp.MustCompile(`\{([^}.]+)(\.\.\.)?\}`)

// openAPIPath rewrites ServeMux wildcards such as {key...} to {key}.
func openAPIPath(pattern string) string {
	if pattern == "" {
		return "/"
	}
	return wildcard.ReplaceAllString(pattern, "{$1}")
}
