package api

import (
	"encoding/json"
	"net/http"

	"github.com/workproof/workproof/internal/exchange"
	"github.com/workproof/workproof/internal/store"
)

// maxRequestBody is the maximum allowed request body size (1 MB).
const maxRequestBody int64 = 1 << 20

// Server holds the HTTP handlers and dependencies.
type Server struct {
	producer  *exchange.Producer
	validator *exchange.Validator
	store     store.ContentStore
	mux       *http.ServeMux
}

// New creates a new API server.
func New(p *exchange.Producer, v *exchange.Validator, s store.ContentStore) *Server {
	srv := &Server{producer: p, validator: v, store: s, mux: http.NewServeMux()}
	srv.routes()
	return srv
}

// Handler returns the root http.Handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return limitBody(jsonContent(s.mux))
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /api/analyses", s.handleSubmitAnalysis)
	s.mux.HandleFunc("GET /api/packages/{hash}", s.handleGetPackage)
	s.mux.HandleFunc("GET /api/validations/{hash}", s.handleGetValidation)
	s.mux.HandleFunc("POST /api/validations/{hash}", s.handleRunValidation)
	s.mux.HandleFunc("POST /api/feedback-authorizations", s.handleAuthorizeFeedback)
}

// ---------------------------------------------------------------------------
// Middleware
// ---------------------------------------------------------------------------

// limitBody restricts the request body to maxRequestBody bytes.
func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
		next.ServeHTTP(w, r)
	})
}

func jsonContent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// ---------------------------------------------------------------------------
// Response helpers
// ---------------------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
