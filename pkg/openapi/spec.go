// Package openapi builds an OpenAPI 3.1 document from route metadata.
package openapi

import (
	"net/http"
	"strings"
)

// Spec represents an OpenAPI 3.1 document.
type Spec struct {
	OpenAPI    string               `json:"openapi"`
	Info       *Info                `json:"info"`
	Servers    []*Server            `json:"servers,omitempty"`
	Paths      map[string]*PathItem `json:"paths"`
	Components *Components          `json:"components,omitempty"`

	bearer bool
}

// BearerScheme is the security scheme name used by RequireBearer.
const BearerScheme = "bearerAuth"

// NewSpec creates a Spec with the given title, version, and default components.
func NewSpec(title, version string) *Spec {
	return &Spec{
		OpenAPI: "3.1.0",
		Info: &Info{
			Title:   title,
			Version: version,
		},
		Components: NewComponents(),
		Paths:      make(map[string]*PathItem),
	}
}

// AddServer appends a server URL to the document.
func (s *Spec) AddServer(url string) {
	s.Servers = append(s.Servers, &Server{URL: url})
}

// SetDescription sets the API description in the info object.
func (s *Spec) SetDescription(desc string) {
	s.Info.Description = desc
}

// RequireBearer registers the bearer scheme and requires it on every
// documented operation, including ones added later.
func (s *Spec) RequireBearer(description string) {
	s.Components.SecuritySchemes = map[string]*SecurityScheme{
		BearerScheme: {Type: "http", Scheme: "bearer", BearerFormat: "JWT", Description: description},
	}
	s.bearer = true
	for _, item := range s.Paths {
		for _, op := range []*Operation{item.Get, item.Post, item.Put, item.Delete} {
			if op != nil {
				op.Security = []SecurityRequirement{{BearerScheme: {}}}
			}
		}
	}
}

// AddOperation documents op under method and path. Paths use ServeMux
// wildcard syntax; a trailing "..." wildcard is reduced to a plain parameter.
// The document stores a copy of op. Unsupported methods are ignored.
func (s *Spec) AddOperation(method, path string, op *Operation) {
	if op == nil {
		return
	}
	path = strings.ReplaceAll(path, "...}", "}")
	if path == "" {
		path = "/"
	}

	cp := *op
	op = &cp
	if s.bearer {
		op.Security = []SecurityRequirement{{BearerScheme: {}}}
	}

	item, ok := s.Paths[path]
	if !ok {
		item = &PathItem{}
	}

	switch method {
	case http.MethodGet:
		item.Get = op
	case http.MethodPost:
		item.Post = op
	case http.MethodPut:
		item.Put = op
	case http.MethodDelete:
		item.Delete = op
	default:
		return
	}
	s.Paths[path] = item
}

// ServeSpec returns a handler that serves pre-serialized JSON spec bytes.
func ServeSpec(specBytes []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(specBytes)
	}
}
