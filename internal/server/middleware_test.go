package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claude/liftplan/internal/storage"
	"github.com/google/uuid"
)

func TestAPIKeyAuth(t *testing.T) {
	handler := APIKeyAuth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		key        string
		wantStatus int
	}{
		{"valid key", "secret", http.StatusOK},
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "nope", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/import", nil)
			if tt.key != "" {
				req.Header.Set("X-API-Key", tt.key)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestDevIdentity(t *testing.T) {
	var gotID int
	var gotInfo UserInfo
	handler := DevIdentity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = userIDFromContext(r)
		gotInfo = userInfoFromContext(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/me", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if gotID != 1 {
		t.Errorf("user id = %d, want 1", gotID)
	}
	if gotInfo.Login != "local" {
		t.Errorf("login = %q, want %q", gotInfo.Login, "local")
	}
}

func TestCORSPreflight(t *testing.T) {
	handler := CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight should not reach the next handler")
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/programs", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS origin header")
	}
}

func TestWriteErrorTaxonomy(t *testing.T) {
	s := &Server{log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"validation", storage.ValidationError("bad weekday"), http.StatusBadRequest},
		{"not found", storage.NotFoundError("program x"), http.StatusNotFound},
		{"conflict", storage.ConflictError("name taken"), http.StatusConflict},
		{"ambiguous", &storage.AmbiguousError{Target: "Day A/curl"}, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.writeError(rec, tt.err)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestWriteErrorAmbiguousPayload(t *testing.T) {
	s := &Server{log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	rowID := uuid.New()
	err := &storage.AmbiguousError{
		Target: "Day A/curl",
		Candidates: []storage.Candidate{
			{RowID: rowID, Exercise: "Barbell Curl", Position: 2},
			{RowID: uuid.New(), Exercise: "Hammer Curl", Position: 5},
		},
	}

	rec := httptest.NewRecorder()
	s.writeError(rec, err)

	var body struct {
		Error      string              `json:"error"`
		Target     string              `json:"target"`
		Candidates []storage.Candidate `json:"candidates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Error != "ambiguous" {
		t.Errorf("error = %q, want %q", body.Error, "ambiguous")
	}
	if len(body.Candidates) != 2 {
		t.Fatalf("got %d candidates, want 2", len(body.Candidates))
	}
	if body.Candidates[0].RowID != rowID {
		t.Error("candidate row id lost in payload")
	}
}
