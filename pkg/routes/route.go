// Package routes declares HTTP routes as data, registers them on a
// ServeMux, and describes them as OpenAPI operations.
package routes

import (
	"net/http"

	"github.com/wyxpro/mindcare/pkg/openapi"
)

// Route binds an HTTP method and pattern to a handler. OpenAPI is optional
// and only affects Describe.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
	OpenAPI *openapi.Operation
}
