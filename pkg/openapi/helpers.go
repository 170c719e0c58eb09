package openapi

const (
	componentSchemas   = "#/components/schemas/"
	componentResponses = "#/components/responses/"
	contentJSON        = "application/json"
)

// SchemaRef returns a Schema referencing the named component schema.
func SchemaRef(name string) *Schema {
	return &Schema{Ref: componentSchemas + name}
}

// ResponseRef returns a Response referencing the named component response.
func ResponseRef(name string) *Response {
	return &Response{Ref: componentResponses + name}
}

// RequestBodyJSON creates a JSON request body referencing the named schema.
func RequestBodyJSON(schemaName string, required bool) *RequestBody {
	return &RequestBody{
		Required: required,
		Content:  map[string]*MediaType{contentJSON: {Schema: SchemaRef(schemaName)}},
	}
}

// ResponseJSON creates a JSON response referencing the named schema.
func ResponseJSON(description, schemaName string) *Response {
	return &Response{
		Description: description,
		Content:     map[string]*MediaType{contentJSON: {Schema: SchemaRef(schemaName)}},
	}
}

// PathParam creates a required UUID path parameter.
func PathParam(name, description string) *Parameter {
	return &Parameter{
		Name:        name,
		In:          "path",
		Required:    true,
		Description: description,
		Schema:      &Schema{Type: "string", Format: "uuid"},
	}
}

// QueryParam creates a query parameter of the given JSON type.
func QueryParam(name, typ, description string, required bool) *Parameter {
	return &Parameter{
		Name:        name,
		In:          "query",
		Required:    required,
		Description: description,
		Schema:      &Schema{Type: typ},
	}
}

// Float returns a pointer to v for Minimum and Maximum bounds.
func Float(v float64) *float64 {
	return &v
}
