package session

import "github.com/wyxpro/mindcare/pkg/openapi"

func normalized() *openapi.Schema {
	return &openapi.Schema{Type: "integer", Minimum: openapi.Float(0), Maximum: openapi.Float(100)}
}

// Schemas are the component schemas referenced by the fusion operations.
var Schemas = map[string]*openapi.Schema{
	"AssessRequest": {
		Type:        "object",
		Description: "Raw modality readings. An omitted reading is replaced by its placeholder.",
		Properties: map[string]*openapi.Schema{
			"user_id":    {Type: "string", Format: "uuid"},
			"scale":      {Type: "number", Description: "PHQ-9 total", Minimum: openapi.Float(0), Maximum: openapi.Float(27)},
			"voice":      {Type: "number", Minimum: openapi.Float(0), Maximum: openapi.Float(100)},
			"expression": {Type: "number", Minimum: openapi.Float(0), Maximum: openapi.Float(100)},
			"advice":     {Type: "string"},
		},
		Required: []string{"user_id"},
	},
	"Report": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":      {Type: "string", Format: "uuid"},
			"user_id": {Type: "string", Format: "uuid"},
			"readings": {
				Type: "object",
				Properties: map[string]*openapi.Schema{
					"scale":      {Type: "number"},
					"voice":      {Type: "number"},
					"expression": {Type: "number"},
				},
			},
			"normalized_scores": {
				Type: "object",
				Properties: map[string]*openapi.Schema{
					"scale":      normalized(),
					"voice":      normalized(),
					"expression": normalized(),
				},
			},
			"fused_score": normalized(),
			"risk_level":  {Type: "string", Enum: []any{"low", "medium", "high", "extreme"}},
			"weights":     openapi.SchemaRef("WeightSet"),
			"advice_text": {Type: "string"},
			"created_at":  {Type: "string", Format: "date-time"},
		},
	},
	"SyncState": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"report_id":     {Type: "string", Format: "uuid"},
			"user_id":       {Type: "string", Format: "uuid"},
			"status":        {Type: "string", Enum: []any{"idle", "syncing", "success", "error"}},
			"retry_count":   {Type: "integer", Minimum: openapi.Float(0), Maximum: openapi.Float(3)},
			"assessment_id": {Type: "string", Format: "uuid"},
			"last_error":    {Type: "string"},
			"updated_at":    {Type: "string", Format: "date-time"},
		},
	},
	"EscalationOutcome": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"triggered": {Type: "boolean"},
			"triggers": {
				Type:  "array",
				Items: &openapi.Schema{Type: "string", Enum: []any{"fused_score", "scale_raw", "voice_expression"}},
			},
			"alert_id": {Type: "string", Format: "uuid"},
			"error":    {Type: "string"},
		},
	},
	"AssessResult": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"report":      openapi.SchemaRef("Report"),
			"substituted": {Type: "array", Items: &openapi.Schema{Type: "string"}},
			"sync":        openapi.SchemaRef("SyncState"),
			"escalation":  openapi.SchemaRef("EscalationOutcome"),
		},
	},
}

var tags = []string{"Fusion"}

var spec = struct {
	Assess, History, SyncState, Retry, Logout *openapi.Operation
}{
	Assess: &openapi.Operation{
		Summary:     "Run a multimodal assessment",
		Description: "Computes the fused report, then escalates and syncs it concurrently. Escalation and sync failures are reported in the result.",
		Tags:        tags,
		RequestBody: openapi.RequestBodyJSON("AssessRequest", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Assessment result", "AssessResult"),
			400: openapi.ResponseRef("BadRequest"),
			403: openapi.ResponseRef("Forbidden"),
		},
	},
	History: &openapi.Operation{
		Summary: "Recent reports for a user, newest first",
		Tags:    tags,
		Parameters: []*openapi.Parameter{
			openapi.PathParam("userId", "User ID"),
			openapi.QueryParam("limit", "integer", "Maximum reports, capped at the cache capacity", false),
		},
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Reports",
				Content: map[string]*openapi.MediaType{
					"application/json": {Schema: &openapi.Schema{Type: "array", Items: openapi.SchemaRef("Report")}},
				},
			},
			403: openapi.ResponseRef("Forbidden"),
		},
	},
	SyncState: &openapi.Operation{
		Summary:    "Sync state of a report",
		Tags:       tags,
		Parameters: []*openapi.Parameter{openapi.PathParam("reportId", "Report ID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Sync state", "SyncState"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Retry: &openapi.Operation{
		Summary:    "Manually retry a failed sync",
		Tags:       tags,
		Parameters: []*openapi.Parameter{openapi.PathParam("reportId", "Report ID")},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Sync state", "SyncState"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Logout: &openapi.Operation{
		Summary:    "End the user's session and clear cached history",
		Tags:       tags,
		Parameters: []*openapi.Parameter{openapi.PathParam("userId", "User ID")},
		Responses: map[int]*openapi.Response{
			204: {Description: "Logged out"},
			403: openapi.ResponseRef("Forbidden"),
		},
	},
}
