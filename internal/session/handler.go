package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/wyxpro/mindcare/internal/fusion"
	"github.com/wyxpro/mindcare/internal/reportsync"
	"github.com/wyxpro/mindcare/pkg/auth"
	"github.com/wyxpro/mindcare/pkg/handlers"
	"github.com/wyxpro/mindcare/pkg/routes"
)

// AssessRequest carries the raw modality readings for one assessment.
// An omitted reading is replaced by its placeholder.
type AssessRequest struct {
	UserID     uuid.UUID `json:"user_id"`
	Scale      *float64  `json:"scale"`
	Voice      *float64  `json:"voice"`
	Expression *float64  `json:"expression"`
	Advice     string    `json:"advice"`
}

// ModalityScore implements fusion.ScoreSource over the request body.
func (r AssessRequest) ModalityScore(_ context.Context, kind fusion.Kind) (float64, error) {
	var v *float64
	switch kind {
	case fusion.KindScale:
		v = r.Scale
	case fusion.KindVoice:
		v = r.Voice
	case fusion.KindExpression:
		v = r.Expression
	default:
		return 0, fusion.ErrInvalidModality
	}
	if v == nil {
		return 0, ErrModalityUnavailable
	}
	return *v, nil
}

// Handler provides HTTP endpoints for the assessment flow.
type Handler struct {
	manager *Manager
	logger  *slog.Logger
}

// NewHandler creates a Handler over the manager.
func NewHandler(manager *Manager, logger *slog.Logger) *Handler {
	return &Handler{
		manager: manager,
		logger:  logger.With("handler", "fusion"),
	}
}

// Routes returns the route group definition for the assessment flow.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/fusion",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/assess", Handler: h.Assess, OpenAPI: spec.Assess},
			{Method: "GET", Pattern: "/history/{userId}", Handler: h.History, OpenAPI: spec.History},
			{Method: "GET", Pattern: "/sync/{reportId}", Handler: h.SyncState, OpenAPI: spec.SyncState},
			{Method: "POST", Pattern: "/sync/{reportId}/retry", Handler: h.Retry, OpenAPI: spec.Retry},
			{Method: "POST", Pattern: "/logout/{userId}", Handler: h.Logout, OpenAPI: spec.Logout},
		},
	}
}

// Assess computes a report from the request body, escalates it when
// warranted, and persists it.
func (h *Handler) Assess(w http.ResponseWriter, r *http.Request) {
	var req AssessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidRequest)
		return
	}
	if req.UserID == uuid.Nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUser)
		return
	}
	if err := authorize(r.Context(), req.UserID); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	res, err := h.manager.Open(req.UserID).Assess(r.Context(), req, req.Advice)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, res)
}

// History returns the user's most recent reports, newest first.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	userID, err := h.pathUser(w, r)
	if err != nil {
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	reports, err := h.manager.History(r.Context(), userID, limit)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadGateway, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, reports)
}

// SyncState returns the sync state of a report.
func (h *Handler) SyncState(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("reportId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidReport)
		return
	}

	s, err := h.ownedState(r, id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}

// Retry manually re-triggers a failed sync.
func (h *Handler) Retry(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("reportId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidReport)
		return
	}

	if _, err := h.ownedState(r, id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	s, err := h.manager.Retry(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, s)
}

// Logout ends the user's session and clears their cached history.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	userID, err := h.pathUser(w, r)
	if err != nil {
		return
	}

	h.manager.Logout(userID)
	w.WriteHeader(http.StatusNoContent)
}

// ownedState looks up a report's sync state and checks that it belongs
// to the authenticated user.
func (h *Handler) ownedState(r *http.Request, reportID uuid.UUID) (reportsync.State, error) {
	s, err := h.manager.SyncState(reportID)
	if err != nil {
		return reportsync.State{}, err
	}
	if err := authorize(r.Context(), s.UserID); err != nil {
		return reportsync.State{}, err
	}
	return s, nil
}

func (h *Handler) pathUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, error) {
	userID, err := uuid.Parse(r.PathValue("userId"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidUser)
		return uuid.Nil, ErrInvalidUser
	}
	if err := authorize(r.Context(), userID); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return uuid.Nil, err
	}
	return userID, nil
}

// authorize rejects requests for another user when a bearer subject is
// present. Unauthenticated deployments pass through.
func authorize(ctx context.Context, userID uuid.UUID) error {
	subject, ok := auth.Subject(ctx)
	if !ok {
		return nil
	}
	if subject != userID.String() {
		return ErrUnauthorizedUser
	}
	return nil
}
