package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/msarchive/msarchive/internal/db"
	"github.com/msarchive/msarchive/internal/validate"
)

func (a *API) RegisterLegislationRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/legislation", a.handleAdminListLegislation)
	mux.HandleFunc("GET /api/admin/legislation/{id}", a.handleAdminGetLegislation)
	mux.HandleFunc("POST /api/admin/legislation", a.handleAdminCreateLegislation)
	mux.HandleFunc("PUT /api/admin/legislation/{id}", a.handleAdminUpdateLegislation)
	mux.HandleFunc("DELETE /api/admin/legislation/{id}", a.handleAdminDeleteLegislation)
}

func (a *API) handleAdminListLegislation(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	laws, err := a.db.ListLegislation()
	if err != nil {
		slog.Error("listing legislation", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, laws)
}

func (a *API) handleAdminGetLegislation(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	law, err := a.db.GetLegislation(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "legislation not found", http.StatusNotFound)
			return
		}
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	sources, err := a.db.ListLegislationSources(law.ID)
	if err != nil {
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	jsonResp(w, http.StatusOK, map[string]interface{}{
		"legislation": law,
		"sources":     sources,
	})
}

func (a *API) handleAdminCreateLegislation(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	var req validate.LegislationInput
	if err := decode(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := a.db.CreateLegislation(legislationFromInput(&req, nil), actor)
	if err != nil {
		storeError(w, "creating legislation", err)
		return
	}
	jsonResp(w, http.StatusCreated, created)
}

func (a *API) handleAdminUpdateLegislation(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	current, err := a.db.GetLegislation(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "legislation not found", http.StatusNotFound)
			return
		}
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	var req validate.LegislationInput
	if err := decode(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := a.db.UpdateLegislation(legislationFromInput(&req, current), actor)
	if err != nil {
		storeError(w, "updating legislation", err)
		return
	}
	jsonResp(w, http.StatusOK, updated)
}

func (a *API) handleAdminDeleteLegislation(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	if err := a.db.DeleteLegislation(r.PathValue("id"), actor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "legislation not found", http.StatusNotFound)
			return
		}
		storeError(w, "deleting legislation", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func legislationFromInput(req *validate.LegislationInput, current *db.Legislation) *db.Legislation {
	law := &db.Legislation{
		Date:         req.Date,
		Jurisdiction: req.Jurisdiction,
		Title:        req.Title,
		Category:     req.Category,
		Summary:      req.Summary,
		Notes:        req.Notes,
		IsPublished:  req.IsPublished,
	}
	if current != nil {
		law.ID = current.ID
		law.LawCode = current.LawCode
		law.LastVerifiedAt = current.LastVerifiedAt
	}
	if req.MarkVerified {
		now := time.Now().UTC()
		law.LastVerifiedAt = &now
	}
	return law
}
