package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msarchive/msarchive/internal/captcha"
	"github.com/msarchive/msarchive/internal/db"
	"github.com/msarchive/msarchive/internal/validate"
)

func (a *API) RegisterCorrectionRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/corrections", a.handleAdminListCorrections)
	mux.HandleFunc("GET /api/admin/corrections/{id}", a.handleAdminGetCorrection)
	mux.HandleFunc("PUT /api/admin/corrections/{id}", a.handleAdminReviewCorrection)
	mux.HandleFunc("DELETE /api/admin/corrections/{id}", a.handleAdminDeleteCorrection)
}

// handleSubmitCorrection is the anonymous intake. No authentication, but a
// captcha token is required in the X-Captcha-Token header. Whatever the
// payload claims, the correction is stored as pending.
func (a *API) handleSubmitCorrection(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Captcha-Token")
	if err := a.captcha.Verify(r.Context(), token, clientIP(r)); err != nil {
		switch {
		case errors.Is(err, captcha.ErrMissingToken):
			jsonError(w, "captcha token is required", http.StatusBadRequest)
		case errors.Is(err, captcha.ErrUnavailable):
			jsonError(w, "captcha verification unavailable", http.StatusServiceUnavailable)
		default:
			jsonError(w, "captcha verification failed", http.StatusForbidden)
		}
		return
	}

	var req validate.CorrectionInput
	if err := decode(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	correction := &db.Correction{
		IncidentID:          req.IncidentID,
		LegislationID:       req.LegislationID,
		CorrectionType:      req.CorrectionType,
		Description:         req.Description,
		SuggestedCorrection: req.SuggestedCorrection,
		SubmittedBy:         req.SubmittedBy,
	}
	id, err := a.db.InsertCorrection(correction)
	if err != nil {
		slog.Error("inserting correction", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	jsonResp(w, http.StatusCreated, map[string]interface{}{
		"id":     id,
		"status": "pending",
	})
}

func (a *API) handleAdminListCorrections(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	q := r.URL.Query()
	limit := 0
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		limit = l
	}

	corrections, err := a.db.ListCorrections(q.Get("status"), q.Get("type"), limit)
	if err != nil {
		slog.Error("listing corrections", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if corrections == nil {
		corrections = []*db.CorrectionWithRefs{}
	}
	jsonResp(w, http.StatusOK, corrections)
}

func (a *API) handleAdminGetCorrection(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid correction id", http.StatusBadRequest)
		return
	}

	correction, err := a.db.GetCorrection(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "correction not found", http.StatusNotFound)
			return
		}
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, correction)
}

// handleAdminReviewCorrection moves a correction through its lifecycle:
// pending to reviewed, accepted, or rejected.
func (a *API) handleAdminReviewCorrection(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid correction id", http.StatusBadRequest)
		return
	}

	var req struct {
		Status string  `json:"status"`
		Notes  *string `json:"notes"`
	}
	if err := decode(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := a.db.TransitionCorrection(id, req.Status, req.Notes, &actor, actor)
	if err != nil {
		switch {
		case errors.Is(err, db.ErrInvalidStatus):
			jsonError(w, "invalid status: must be pending, reviewed, accepted or rejected", http.StatusBadRequest)
		case errors.Is(err, sql.ErrNoRows):
			jsonError(w, "correction not found", http.StatusNotFound)
		default:
			storeError(w, "reviewing correction", err)
		}
		return
	}
	jsonResp(w, http.StatusOK, updated)
}

func (a *API) handleAdminDeleteCorrection(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid correction id", http.StatusBadRequest)
		return
	}

	if err := a.db.DeleteCorrection(id, actor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "correction not found", http.StatusNotFound)
			return
		}
		storeError(w, "deleting correction", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "deleted"})
}
