package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/workproof/workproof/internal/canonical"
	"github.com/workproof/workproof/internal/exchange"
	"github.com/workproof/workproof/internal/model"
	"github.com/workproof/workproof/internal/store"
)

// ---------------------------------------------------------------------------
// POST /api/analyses
// ---------------------------------------------------------------------------

type submitAnalysisRequest struct {
	Subject     string            `json:"subject"`
	Params      map[string]string `json:"params"`
	ValidatorID int64             `json:"validator_id"`
}

type submitAnalysisResponse struct {
	Hash   string `json:"hash"`
	State  string `json:"state"`
	TxHash string `json:"tx_hash"`
	Method string `json:"analysis_method"`
}

// handleSubmitAnalysis runs the producer half: analyze the subject, then
// address, store and submit the package for validation.
func (s *Server) handleSubmitAnalysis(w http.ResponseWriter, r *http.Request) {
	var req submitAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Subject == "" {
		writeError(w, http.StatusBadRequest, "subject is required")
		return
	}
	if req.ValidatorID == 0 {
		writeError(w, http.StatusBadRequest, "validator_id is required")
		return
	}

	pkg := s.producer.Produce(r.Context(), req.Subject, req.Params)
	ex, err := s.producer.Submit(r.Context(), pkg, req.ValidatorID)
	if err != nil {
		if ex != nil && ex.State == exchange.StateAborted {
			writeError(w, http.StatusUnprocessableEntity, "package cannot be encoded")
			return
		}
		// Store or registry failure; the caller retries the submission.
		writeError(w, http.StatusBadGateway, "submission failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, submitAnalysisResponse{
		Hash:   ex.Hash.Hex(),
		State:  ex.State,
		TxHash: ex.Receipt.TxHash,
		Method: pkg.Metadata[model.MetaAnalysisMethod],
	})
}

// ---------------------------------------------------------------------------
// GET /api/packages/{hash}
// ---------------------------------------------------------------------------

func (s *Server) handleGetPackage(w http.ResponseWriter, r *http.Request) {
	hash, ok := parseHash(w, r)
	if !ok {
		return
	}

	data, err := s.store.GetPackage(r.Context(), hash)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "package not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read package")
		return
	}

	pkg, err := canonical.Decode(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stored package is not decodable")
		return
	}
	writeJSON(w, http.StatusOK, pkg)
}

// ---------------------------------------------------------------------------
// GET /api/validations/{hash}
// ---------------------------------------------------------------------------

func (s *Server) handleGetValidation(w http.ResponseWriter, r *http.Request) {
	hash, ok := parseHash(w, r)
	if !ok {
		return
	}

	data, err := s.store.GetValidation(r.Context(), hash)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "validation not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read validation")
		return
	}

	rec, err := model.DecodeValidationRecord(data)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "stored validation is not decodable")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ---------------------------------------------------------------------------
// POST /api/validations/{hash}
// ---------------------------------------------------------------------------

// handleRunValidation runs the validator half immediately instead of
// waiting for the worker to pick the request up.
func (s *Server) handleRunValidation(w http.ResponseWriter, r *http.Request) {
	hash, ok := parseHash(w, r)
	if !ok {
		return
	}

	ex, err := s.validator.Validate(r.Context(), hash)
	if err != nil {
		writeError(w, http.StatusBadGateway, "validation failed: "+err.Error())
		return
	}
	if ex.Record != nil && ex.Record.Status == model.ValidationNotFound {
		writeError(w, http.StatusNotFound, "package not found")
		return
	}
	writeJSON(w, http.StatusOK, ex.Record)
}

// ---------------------------------------------------------------------------
// POST /api/feedback-authorizations
// ---------------------------------------------------------------------------

type feedbackAuthRequest struct {
	Hash     string `json:"hash"`
	ClientID int64  `json:"client_id"`
}

// handleAuthorizeFeedback performs the final protocol step once a
// validation record exists for the exchange. The step is independent of
// the scoring outcome.
func (s *Server) handleAuthorizeFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackAuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ClientID == 0 {
		writeError(w, http.StatusBadRequest, "client_id is required")
		return
	}
	hash, err := model.ParseContentHash(req.Hash)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hash")
		return
	}

	if _, err := s.store.GetValidation(r.Context(), hash); errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusConflict, "exchange has no validation yet")
		return
	} else if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read validation")
		return
	}

	ex := exchange.ResumeExchange(hash, exchange.StateScoreSubmitted)
	receipt, err := s.producer.AuthorizeFeedback(r.Context(), ex, req.ClientID)
	if err != nil {
		writeError(w, http.StatusBadGateway, "authorization failed: "+err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"state":   ex.State,
		"tx_hash": receipt.TxHash,
	})
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func parseHash(w http.ResponseWriter, r *http.Request) (model.ContentHash, bool) {
	hash, err := model.ParseContentHash(r.PathValue("hash"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid hash")
		return model.ContentHash{}, false
	}
	return hash, true
}
