package session_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wyxpro/mindcare/internal/fusion"
	"github.com/wyxpro/mindcare/internal/reportsync"
	"github.com/wyxpro/mindcare/internal/session"
	"github.com/wyxpro/mindcare/pkg/auth"
	"github.com/wyxpro/mindcare/pkg/routes"
)

func newMux(t *testing.T, f *fixture) *http.ServeMux {
	t.Helper()
	mux := http.NewServeMux()
	h := session.NewHandler(f.manager, discard())
	routes.Register(mux, h.Routes())
	return mux
}

func TestHandlerAssess(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	mux := newMux(t, f)
	user := uuid.New()

	tests := []struct {
		name       string
		body       string
		wantStatus int
	}{
		{
			name:       "complete readings",
			body:       `{"user_id":"` + user.String() + `","scale":12,"voice":65,"expression":58,"advice":"rest"}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "missing modality uses placeholder",
			body:       `{"user_id":"` + user.String() + `","scale":12}`,
			wantStatus: http.StatusCreated,
		},
		{
			name:       "out of range",
			body:       `{"user_id":"` + user.String() + `","scale":30,"voice":65,"expression":58}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing user",
			body:       `{"scale":12,"voice":65,"expression":58}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "malformed body",
			body:       `{"user_id":`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest("POST", "/fusion/assess", strings.NewReader(tt.body))
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}
}

func TestHandlerAssessResponse(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	mux := newMux(t, f)
	user := uuid.New()

	rec := httptest.NewRecorder()
	body := `{"user_id":"` + user.String() + `","scale":12,"voice":65,"expression":58}`
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/fusion/assess", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d", rec.Code)
	}

	var res session.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Report.FusedScore != 54 || res.Report.RiskLevel != fusion.RiskMedium {
		t.Errorf("report: %+v", res.Report)
	}
	if res.Sync.Status != reportsync.StatusSuccess {
		t.Errorf("sync: %+v", res.Sync)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/fusion/sync/"+res.Report.ID.String(), nil))
	if rec.Code != http.StatusOK {
		t.Errorf("sync state status: got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/fusion/history/"+user.String(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("history status: got %d", rec.Code)
	}
	var reports []fusion.Report
	if err := json.NewDecoder(rec.Body).Decode(&reports); err != nil {
		t.Fatal(err)
	}
	if len(reports) != 1 || reports[0].ID != res.Report.ID {
		t.Errorf("history: %+v", reports)
	}
}

func TestHandlerSyncUnknownReport(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	mux := newMux(t, f)

	tests := []struct {
		name       string
		method     string
		path       string
		wantStatus int
	}{
		{"state unknown", "GET", "/fusion/sync/" + uuid.NewString(), http.StatusNotFound},
		{"retry unknown", "POST", "/fusion/sync/" + uuid.NewString() + "/retry", http.StatusNotFound},
		{"state bad id", "GET", "/fusion/sync/not-a-uuid", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestHandlerLogout(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	mux := newMux(t, f)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/fusion/logout/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status: got %d, want 204", rec.Code)
	}
}

func TestHandlerRejectsOtherSubject(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	mux := newMux(t, f)

	req := httptest.NewRequest("GET", "/fusion/history/"+uuid.NewString(), nil)
	req = req.WithContext(auth.WithSubject(req.Context(), uuid.NewString()))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want 403", rec.Code)
	}
}

func TestHandlerSyncRequiresOwner(t *testing.T) {
	f := newFixture(t, time.Millisecond)
	mux := newMux(t, f)
	owner := uuid.New()

	rec := httptest.NewRecorder()
	body := `{"user_id":"` + owner.String() + `","scale":12,"voice":65,"expression":58}`
	mux.ServeHTTP(rec, httptest.NewRequest("POST", "/fusion/assess", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("assess status: got %d", rec.Code)
	}
	var res session.Result
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatal(err)
	}
	reportID := res.Report.ID.String()

	tests := []struct {
		name       string
		method     string
		path       string
		subject    string
		wantStatus int
	}{
		{"state other subject", "GET", "/fusion/sync/" + reportID, uuid.NewString(), http.StatusForbidden},
		{"retry other subject", "POST", "/fusion/sync/" + reportID + "/retry", uuid.NewString(), http.StatusForbidden},
		{"state owner", "GET", "/fusion/sync/" + reportID, owner.String(), http.StatusOK},
		{"retry owner", "POST", "/fusion/sync/" + reportID + "/retry", owner.String(), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req = req.WithContext(auth.WithSubject(req.Context(), tt.subject))
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status: got %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}

	if n := f.store.count(); n != 1 {
		t.Errorf("submissions = %d, want 1", n)
	}
}
