package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/workproof/workproof/internal/engine"
	"github.com/workproof/workproof/internal/exchange"
	"github.com/workproof/workproof/internal/model"
	"github.com/workproof/workproof/internal/registry"
	"github.com/workproof/workproof/internal/store"
)

type testEnv struct {
	server      *Server
	reg         *registry.Memory
	validatorID int64
	clientID    int64
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	s, err := store.New(db)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	reg := registry.NewMemory()
	producerID, _ := reg.Register(ctx, "producer.example.com")
	validatorID, _ := reg.Register(ctx, "validator.example.com")
	clientID, _ := reg.Register(ctx, "client.example.com")

	mc := &engine.StubModelClient{}
	producer := exchange.NewProducer(s, reg, engine.NewModelAnalyst(mc), producerID, "producer.example.com")
	validator := exchange.NewValidator(s, reg, engine.NewModelReviewer(mc), validatorID, "validator.example.com")

	return testEnv{
		server:      New(producer, validator, s),
		reg:         reg,
		validatorID: validatorID,
		clientID:    clientID,
	}
}

func (e testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

// submitAnalysis runs POST /api/analyses and returns the response body.
func (e testEnv) submitAnalysis(t *testing.T) submitAnalysisResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/analyses", submitAnalysisRequest{
		Subject:     "BTC",
		Params:      map[string]string{"timeframe": "1d"},
		ValidatorID: e.validatorID,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("POST /api/analyses = %d, want 201: %s", w.Code, w.Body)
	}
	var resp submitAnalysisResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestSubmitAnalysis(t *testing.T) {
	env := newTestEnv(t)
	resp := env.submitAnalysis(t)

	if len(resp.Hash) != 64 {
		t.Errorf("hash = %q, want 64 hex chars", resp.Hash)
	}
	if resp.State != exchange.StateSubmitted {
		t.Errorf("state = %q, want %q", resp.State, exchange.StateSubmitted)
	}
	if resp.TxHash == "" {
		t.Error("response should carry a registry receipt")
	}
	if resp.Method != model.MethodModel {
		t.Errorf("analysis_method = %q, want %q", resp.Method, model.MethodModel)
	}
}

func TestSubmitAnalysis_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
		want int
	}{
		{"missing subject", submitAnalysisRequest{ValidatorID: env.validatorID}, http.StatusBadRequest},
		{"missing validator", submitAnalysisRequest{Subject: "BTC"}, http.StatusBadRequest},
		{"malformed json", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var w *httptest.ResponseRecorder
			if tt.body == nil {
				req := httptest.NewRequest(http.MethodPost, "/api/analyses", strings.NewReader("{broken"))
				w = httptest.NewRecorder()
				env.server.Handler().ServeHTTP(w, req)
			} else {
				w = env.do(t, http.MethodPost, "/api/analyses", tt.body)
			}
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", w.Code, tt.want, w.Body)
			}
		})
	}
}

func TestGetPackage(t *testing.T) {
	env := newTestEnv(t)
	resp := env.submitAnalysis(t)

	w := env.do(t, http.MethodGet, "/api/packages/"+resp.Hash, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/packages = %d, want 200: %s", w.Code, w.Body)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", got)
	}

	var pkg model.WorkPackage
	if err := json.Unmarshal(w.Body.Bytes(), &pkg); err != nil {
		t.Fatalf("decode package: %v", err)
	}
	if pkg.Subject != "BTC" {
		t.Errorf("subject = %q, want BTC", pkg.Subject)
	}
}

func TestGetPackage_Errors(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/packages/"+strings.Repeat("ab", 32), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown hash = %d, want 404", w.Code)
	}

	w = env.do(t, http.MethodGet, "/api/packages/nothex", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed hash = %d, want 400", w.Code)
	}
}

func TestRunAndGetValidation(t *testing.T) {
	env := newTestEnv(t)
	resp := env.submitAnalysis(t)

	w := env.do(t, http.MethodPost, "/api/validations/"+resp.Hash, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("POST /api/validations = %d, want 200: %s", w.Code, w.Body)
	}
	var rec model.ValidationRecord
	if err := json.Unmarshal(w.Body.Bytes(), &rec); err != nil {
		t.Fatalf("decode record: %v", err)
	}
	if rec.Score != 88 {
		t.Errorf("score = %d, want 88 from the stub reviewer", rec.Score)
	}
	if rec.Status != model.ValidationValidated {
		t.Errorf("status = %q, want %q", rec.Status, model.ValidationValidated)
	}

	// The persisted record is readable afterwards.
	w = env.do(t, http.MethodGet, "/api/validations/"+resp.Hash, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET /api/validations = %d, want 200: %s", w.Code, w.Body)
	}
	var stored model.ValidationRecord
	if err := json.Unmarshal(w.Body.Bytes(), &stored); err != nil {
		t.Fatalf("decode stored record: %v", err)
	}
	if stored.Hash != resp.Hash || stored.Score != rec.Score {
		t.Errorf("stored record %+v does not match returned record %+v", stored, rec)
	}
}

func TestRunValidation_UnknownPackage(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/validations/"+strings.Repeat("cd", 32), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404: %s", w.Code, w.Body)
	}
}

func TestGetValidation_BeforeValidation(t *testing.T) {
	env := newTestEnv(t)
	resp := env.submitAnalysis(t)

	w := env.do(t, http.MethodGet, "/api/validations/"+resp.Hash, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 before validation runs", w.Code)
	}
}

func TestAuthorizeFeedback(t *testing.T) {
	env := newTestEnv(t)
	resp := env.submitAnalysis(t)

	// Authorization before validation is a protocol violation.
	w := env.do(t, http.MethodPost, "/api/feedback-authorizations", feedbackAuthRequest{
		Hash:     resp.Hash,
		ClientID: env.clientID,
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("premature authorization = %d, want 409: %s", w.Code, w.Body)
	}

	if w := env.do(t, http.MethodPost, "/api/validations/"+resp.Hash, nil); w.Code != http.StatusOK {
		t.Fatalf("validation run = %d: %s", w.Code, w.Body)
	}

	w = env.do(t, http.MethodPost, "/api/feedback-authorizations", feedbackAuthRequest{
		Hash:     resp.Hash,
		ClientID: env.clientID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("authorization = %d, want 200: %s", w.Code, w.Body)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["state"] != exchange.StateFeedbackAuthorized {
		t.Errorf("state = %q, want %q", body["state"], exchange.StateFeedbackAuthorized)
	}
	if !env.reg.FeedbackAuthorized(env.clientID) {
		t.Error("registry should record the authorization")
	}
}

func TestAuthorizeFeedback_Validation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/feedback-authorizations", feedbackAuthRequest{Hash: strings.Repeat("ab", 32)})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing client_id = %d, want 400", w.Code)
	}

	w = env.do(t, http.MethodPost, "/api/feedback-authorizations", feedbackAuthRequest{Hash: "nothex", ClientID: 3})
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed hash = %d, want 400", w.Code)
	}
}
