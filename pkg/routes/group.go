package routes

import (
	"net/http"

	"github.com/wyxpro/mindcare/pkg/openapi"
)

// Middleware wraps a handler.
type Middleware func(http.Handler) http.Handler

// Group organizes routes under a common prefix. Middleware applies to the
// group's routes and to every child group, outermost first.
type Group struct {
	Prefix     string
	Middleware []Middleware
	Routes     []Route
	Children   []Group
}

// With returns a copy of the group with mw appended to its middleware.
func (g Group) With(mw ...Middleware) Group {
	g.Middleware = append(append([]Middleware(nil), g.Middleware...), mw...)
	return g
}

// Register adds all routes from the given groups to the mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		registerGroup(mux, "", nil, group)
	}
}

func registerGroup(mux *http.ServeMux, parentPrefix string, inherited []Middleware, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	chain := append(append([]Middleware(nil), inherited...), group.Middleware...)

	for _, route := range group.Routes {
		var h http.Handler = route.Handler
		for i := len(chain) - 1; i >= 0; i-- {
			h = chain[i](h)
		}
		mux.Handle(route.Method+" "+fullPrefix+route.Pattern, h)
	}
	for _, child := range group.Children {
		registerGroup(mux, fullPrefix, chain, child)
	}
}

// Describe adds every documented route in groups to spec. Routes without
// OpenAPI metadata are skipped.
func Describe(spec *openapi.Spec, groups ...Group) {
	for _, group := range groups {
		describeGroup(spec, "", group)
	}
}

func describeGroup(spec *openapi.Spec, parentPrefix string, group Group) {
	fullPrefix := parentPrefix + group.Prefix
	for _, route := range group.Routes {
		spec.AddOperation(route.Method, fullPrefix+route.Pattern, route.OpenAPI)
	}
	for _, child := range group.Children {
		describeGroup(spec, fullPrefix, child)
	}
}
