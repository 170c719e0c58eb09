package assessments_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/wyxpro/mindcare/internal/assessments"
	"github.com/wyxpro/mindcare/internal/fusion"
	"github.com/wyxpro/mindcare/internal/reportsync"
	"github.com/wyxpro/mindcare/pkg/pagination"
	"github.com/wyxpro/mindcare/pkg/routes"
)

type mockSystem struct {
	listFn    func(ctx context.Context, page pagination.PageRequest, filters assessments.Filters) (*pagination.PageResult[assessments.Assessment], error)
	findFn    func(ctx context.Context, id uuid.UUID) (*assessments.Assessment, error)
	createFn  func(ctx context.Context, sub reportsync.Submission) (*assessments.Assessment, error)
	recentFn  func(ctx context.Context, userID uuid.UUID, limit int) ([]assessments.Assessment, error)
	archiveFn func(ctx context.Context, id uuid.UUID) ([]byte, error)
	deleteFn  func(ctx context.Context, id uuid.UUID) error
}

func (m *mockSystem) Handler() *assessments.Handler {
	return newTestHandler(m)
}

func (m *mockSystem) List(ctx context.Context, page pagination.PageRequest, filters assessments.Filters) (*pagination.PageResult[assessments.Assessment], error) {
	return m.listFn(ctx, page, filters)
}

func (m *mockSystem) Find(ctx context.Context, id uuid.UUID) (*assessments.Assessment, error) {
	return m.findFn(ctx, id)
}

func (m *mockSystem) Create(ctx context.Context, sub reportsync.Submission) (*assessments.Assessment, error) {
	return m.createFn(ctx, sub)
}

func (m *mockSystem) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]assessments.Assessment, error) {
	return m.recentFn(ctx, userID, limit)
}

func (m *mockSystem) Archive(ctx context.Context, id uuid.UUID) ([]byte, error) {
	return m.archiveFn(ctx, id)
}

func (m *mockSystem) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockSystem) SubmitReport(ctx context.Context, sub reportsync.Submission) (uuid.UUID, error) {
	a, err := m.createFn(ctx, sub)
	if err != nil {
		return uuid.Nil, err
	}
	return a.ID, nil
}

func (m *mockSystem) HistoricalReports(ctx context.Context, userID uuid.UUID, limit int) ([]fusion.Report, error) {
	items, err := m.recentFn(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]fusion.Report, len(items))
	for i, a := range items {
		out[i] = a.Report()
	}
	return out, nil
}

func newTestHandler(sys assessments.System) *assessments.Handler {
	return assessments.NewHandler(
		sys,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		pagination.Config{DefaultPageSize: 20, MaxPageSize: 100},
	)
}

func setupMux(h *assessments.Handler) *http.ServeMux {
	mux := http.NewServeMux()
	routes.Register(mux, h.Routes())
	return mux
}

func sampleAssessment(t *testing.T) assessments.Assessment {
	sub := sampleSubmission(t)
	return assessments.Assessment{
		ID:            uuid.MustParse("550e8400-e29b-41d4-a716-446655440000"),
		UserID:        sub.UserID,
		ReportID:      sub.ReportDetails.ReportID,
		Score:         sub.Score,
		RiskLevel:     sub.RiskLevel,
		ReportDetails: sub.ReportDetails,
		Weights:       sub.Weights,
		CreatedAt:     time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC),
	}
}

func TestHandlerList(t *testing.T) {
	a := sampleAssessment(t)
	var captured assessments.Filters
	sys := &mockSystem{
		listFn: func(_ context.Context, _ pagination.PageRequest, f assessments.Filters) (*pagination.PageResult[assessments.Assessment], error) {
			captured = f
			result := pagination.NewPageResult([]assessments.Assessment{a}, 1, 1, 20)
			return &result, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/assessments?risk_level=medium&min_score=50", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var result pagination.PageResult[assessments.Assessment]
	if err := json.NewDecoder(rec.Body).Decode(&result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.Total != 1 || result.Data[0].ID != a.ID {
		t.Errorf("result = %+v", result)
	}
	if captured.RiskLevel == nil || *captured.RiskLevel != "medium" || captured.MinScore == nil || *captured.MinScore != 50 {
		t.Errorf("filters not passed: %+v", captured)
	}
}

func TestHandlerCreate(t *testing.T) {
	a := sampleAssessment(t)
	sys := &mockSystem{
		createFn: func(_ context.Context, sub reportsync.Submission) (*assessments.Assessment, error) {
			if err := assessments.Validate(sub); err != nil {
				return nil, err
			}
			return &a, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	t.Run("valid submission", func(t *testing.T) {
		body, _ := json.Marshal(a.Submission())
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/assessments", strings.NewReader(string(body))))

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want 201 (%s)", rec.Code, rec.Body.String())
		}
		var got assessments.Assessment
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		if got.ID != a.ID {
			t.Errorf("id = %v, want %v", got.ID, a.ID)
		}
	})

	t.Run("mismatched risk level", func(t *testing.T) {
		sub := a.Submission()
		sub.RiskLevel = fusion.RiskExtreme
		body, _ := json.Marshal(sub)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/assessments", strings.NewReader(string(body))))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("unknown risk level rejected on decode", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("POST", "/assessments", strings.NewReader(`{"risk_level":"severe"}`)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHandlerFind(t *testing.T) {
	a := sampleAssessment(t)
	sys := &mockSystem{
		findFn: func(_ context.Context, id uuid.UUID) (*assessments.Assessment, error) {
			if id == a.ID {
				return &a, nil
			}
			return nil, assessments.ErrNotFound
		},
	}
	mux := setupMux(newTestHandler(sys))

	tests := []struct {
		name string
		path string
		want int
	}{
		{"found", "/assessments/" + a.ID.String(), http.StatusOK},
		{"missing", "/assessments/" + uuid.NewString(), http.StatusNotFound},
		{"bad id", "/assessments/abc", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest("GET", tt.path, nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerRecent(t *testing.T) {
	a := sampleAssessment(t)
	var gotLimit int
	sys := &mockSystem{
		recentFn: func(_ context.Context, userID uuid.UUID, limit int) ([]assessments.Assessment, error) {
			gotLimit = limit
			return []assessments.Assessment{a}, nil
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/assessments/users/"+a.UserID.String()+"/recent?limit=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if gotLimit != 5 {
		t.Errorf("limit = %d, want 5", gotLimit)
	}
}

func TestHandlerArchive(t *testing.T) {
	id := uuid.New()
	sys := &mockSystem{
		archiveFn: func(_ context.Context, got uuid.UUID) ([]byte, error) {
			if got == id {
				return []byte(`{"score":54}`), nil
			}
			return nil, assessments.ErrNotArchived
		},
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/assessments/"+id.String()+"/archive", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != `{"score":54}` {
		t.Errorf("status = %d body = %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/assessments/"+uuid.NewString()+"/archive", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandlerDelete(t *testing.T) {
	sys := &mockSystem{
		deleteFn: func(_ context.Context, id uuid.UUID) error { return nil },
	}
	mux := setupMux(newTestHandler(sys))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("DELETE", "/assessments/"+uuid.NewString(), nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
}
