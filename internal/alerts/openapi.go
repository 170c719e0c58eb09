package alerts

import "github.com/wyxpro/mindcare/pkg/openapi"

// Schemas are the component schemas referenced by the alert operations.
var Schemas = map[string]*openapi.Schema{
	"AlertInput": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"patient_id":  {Type: "string", Format: "uuid"},
			"alert_type":  {Type: "string", Example: "fusion_risk_high"},
			"risk_level":  {Type: "integer", Minimum: openapi.Float(0), Maximum: openapi.Float(100)},
			"description": {Type: "string"},
			"is_handled":  {Type: "boolean", Enum: []any{false}},
			"data_source": {Type: "string", Example: "fusion_report"},
		},
		Required: []string{"patient_id", "alert_type", "risk_level", "description", "data_source"},
	},
	"Alert": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":          {Type: "string", Format: "uuid"},
			"patient_id":  {Type: "string", Format: "uuid"},
			"alert_type":  {Type: "string"},
			"risk_level":  {Type: "integer"},
			"description": {Type: "string"},
			"is_handled":  {Type: "boolean"},
			"data_source": {Type: "string"},
			"handled_by":  {Type: "string", Format: "uuid"},
			"handled_at":  {Type: "string", Format: "date-time"},
			"created_at":  {Type: "string", Format: "date-time"},
		},
	},
	"HandleCommand": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"handled_by": {Type: "string", Format: "uuid", Description: "Ignored when a bearer subject is present"},
		},
	},
	"AlertPage": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"data":        {Type: "array", Items: openapi.SchemaRef("Alert")},
			"total":       {Type: "integer"},
			"page":        {Type: "integer"},
			"page_size":   {Type: "integer"},
			"total_pages": {Type: "integer"},
		},
	},
}

var tags = []string{"Alerts"}

var spec = struct {
	List, Create, Search, Find, Handle *openapi.Operation
}{
	List: &openapi.Operation{
		Summary: "List risk alerts",
		Tags:    tags,
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("patient_id", "string", "Filter by patient", false),
			openapi.QueryParam("alert_type", "string", "Filter by alert type", false),
			openapi.QueryParam("is_handled", "boolean", "Filter by handled state", false),
			openapi.QueryParam("min_risk_level", "integer", "Minimum risk level", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Alert page", "AlertPage"),
		},
	},
	Create: &openapi.Operation{
		Summary:     "Submit a risk alert",
		Tags:        tags,
		RequestBody: openapi.RequestBodyJSON("AlertInput", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Created alert", "Alert"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Search: &openapi.Operation{
		Summary:     "Search risk alerts",
		Tags:        tags,
		RequestBody: openapi.RequestBodyJSON("PageRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Alert page", "AlertPage"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Find a risk alert",
		Tags:       tags,
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Alert ID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Alert", "Alert"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Handle: &openapi.Operation{
		Summary:     "Mark a risk alert as handled",
		Tags:        tags,
		Parameters:  []*openapi.Parameter{openapi.PathParam("id", "Alert ID")},
		RequestBody: openapi.RequestBodyJSON("HandleCommand", false),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Handled alert", "Alert"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
}
