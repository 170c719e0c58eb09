package assessments

import "github.com/wyxpro/mindcare/pkg/openapi"

var uuidSchema = &openapi.Schema{Type: "string", Format: "uuid"}

var riskLevelSchema = &openapi.Schema{
	Type: "string",
	Enum: []any{"low", "medium", "high", "extreme"},
}

var scoreSchema = &openapi.Schema{
	Type:    "integer",
	Minimum: openapi.Float(0),
	Maximum: openapi.Float(100),
}

// Schemas are the component schemas referenced by the assessment operations.
var Schemas = map[string]*openapi.Schema{
	"WeightSet": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"scale":      {Type: "number"},
			"voice":      {Type: "number"},
			"expression": {Type: "number"},
		},
		Description: "Modality weights summing to 1.0",
	},
	"ReportDetails": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"reportId":         uuidSchema,
			"scaleRaw":         {Type: "number", Minimum: openapi.Float(0), Maximum: openapi.Float(27)},
			"normalizedScores": {Type: "object"},
			"scaleData":        {Type: "object"},
			"voiceData":        {Type: "object"},
			"expressionData":   {Type: "object"},
			"advice":           {Type: "string"},
			"generatedAt":      {Type: "string", Format: "date-time"},
		},
	},
	"Submission": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"user_id":        uuidSchema,
			"score":          scoreSchema,
			"risk_level":     riskLevelSchema,
			"report_details": openapi.SchemaRef("ReportDetails"),
			"weights":        openapi.SchemaRef("WeightSet"),
		},
		Required: []string{"user_id", "score", "risk_level", "report_details", "weights"},
	},
	"Assessment": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":             uuidSchema,
			"user_id":        uuidSchema,
			"report_id":      uuidSchema,
			"score":          scoreSchema,
			"risk_level":     riskLevelSchema,
			"report_details": openapi.SchemaRef("ReportDetails"),
			"weights":        openapi.SchemaRef("WeightSet"),
			"archive_key":    {Type: "string"},
			"created_at":     {Type: "string", Format: "date-time"},
		},
	},
	"AssessmentPage": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"data":        {Type: "array", Items: openapi.SchemaRef("Assessment")},
			"total":       {Type: "integer"},
			"page":        {Type: "integer"},
			"page_size":   {Type: "integer"},
			"total_pages": {Type: "integer"},
		},
	},
}

var tags = []string{"Assessments"}

var spec = struct {
	List, Create, Search, Recent, Find, Archive, Delete *openapi.Operation
}{
	List: &openapi.Operation{
		Summary: "List assessments",
		Tags:    tags,
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("page_size", "integer", "Results per page", false),
			openapi.QueryParam("sort", "string", "Sort fields", false),
			openapi.QueryParam("user_id", "string", "Filter by user", false),
			openapi.QueryParam("risk_level", "string", "Filter by risk level", false),
			openapi.QueryParam("min_score", "integer", "Minimum fused score", false),
			openapi.QueryParam("since", "string", "RFC 3339 lower bound on created_at", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Assessment page", "AssessmentPage"),
		},
	},
	Create: &openapi.Operation{
		Summary:     "Store a fusion report",
		Description: "Idempotent on report_details.reportId: resubmitting a stored report returns the existing assessment.",
		Tags:        tags,
		RequestBody: openapi.RequestBodyJSON("Submission", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Stored assessment", "Assessment"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Search: &openapi.Operation{
		Summary:     "Search assessments",
		Tags:        tags,
		RequestBody: openapi.RequestBodyJSON("PageRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Assessment page", "AssessmentPage"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Recent: &openapi.Operation{
		Summary: "Recent assessments for a user, newest first",
		Tags:    tags,
		Parameters: []*openapi.Parameter{
			openapi.PathParam("userId", "User ID"),
			openapi.QueryParam("limit", "integer", "Maximum results", false),
		},
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Assessments",
				Content: map[string]*openapi.MediaType{
					"application/json": {Schema: &openapi.Schema{Type: "array", Items: openapi.SchemaRef("Assessment")}},
				},
			},
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Find: &openapi.Operation{
		Summary:    "Find an assessment",
		Tags:       tags,
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Assessment ID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Assessment", "Assessment"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Archive: &openapi.Operation{
		Summary:    "Download the archived report document",
		Tags:       tags,
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Assessment ID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Archived submission", "Submission"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Delete: &openapi.Operation{
		Summary:    "Delete an assessment",
		Tags:       tags,
		Parameters: []*openapi.Parameter{openapi.PathParam("id", "Assessment ID")},
		Responses: map[int]*openapi.Response{
			204: {Description: "Deleted"},
			404: openapi.ResponseRef("NotFound"),
		},
	},
}
