package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/msarchive/msarchive/internal/db"
	"github.com/msarchive/msarchive/internal/validate"
)

func (a *API) RegisterSuspectRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/suspects", a.handleAdminListSuspects)
	mux.HandleFunc("GET /api/admin/suspects/{id}", a.handleAdminGetSuspect)
	mux.HandleFunc("POST /api/admin/suspects", a.handleAdminCreateSuspect)
	mux.HandleFunc("PUT /api/admin/suspects/{id}", a.handleAdminUpdateSuspect)
	mux.HandleFunc("DELETE /api/admin/suspects/{id}", a.handleAdminDeleteSuspect)
}

// handleAdminListSuspects lists the suspects of one incident; the
// incident_id query parameter is required since suspects only make sense in
// the context of their incident.
func (a *API) handleAdminListSuspects(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	incidentID := r.URL.Query().Get("incident_id")
	if incidentID == "" {
		jsonError(w, "incident_id is required", http.StatusBadRequest)
		return
	}

	suspects, err := a.db.GetSuspectsByIncident(incidentID)
	if err != nil {
		slog.Error("listing suspects", "incident", incidentID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, suspects)
}

func (a *API) handleAdminGetSuspect(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	suspect, err := a.db.GetSuspect(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "suspect not found", http.StatusNotFound)
			return
		}
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, suspect)
}

// handleAdminCreateSuspect writes the composite payload — suspect, weapons,
// background record — in one transaction. A bad weapon anywhere in the list
// fails the whole request and nothing is stored.
func (a *API) handleAdminCreateSuspect(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	var req validate.SuspectInput
	if err := decode(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	applySuspectDefaults(&req)
	if err := req.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := a.db.CreateSuspect(suspectFromInput(&req, ""), actor)
	if err != nil {
		storeError(w, "creating suspect", err)
		return
	}
	jsonResp(w, http.StatusCreated, created)
}

func (a *API) handleAdminUpdateSuspect(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	var req validate.SuspectInput
	if err := decode(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	applySuspectDefaults(&req)
	if err := req.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := a.db.UpdateSuspect(suspectFromInput(&req, r.PathValue("id")), actor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "suspect not found", http.StatusNotFound)
			return
		}
		storeError(w, "updating suspect", err)
		return
	}
	jsonResp(w, http.StatusOK, updated)
}

func (a *API) handleAdminDeleteSuspect(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	if err := a.db.DeleteSuspect(r.PathValue("id"), actor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "suspect not found", http.StatusNotFound)
			return
		}
		storeError(w, "deleting suspect", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func applySuspectDefaults(req *validate.SuspectInput) {
	if req.Gender == "" {
		req.Gender = "unknown"
	}
	if req.Race == "" {
		req.Race = "Unknown"
	}
	if req.Status == "" {
		req.Status = "unknown"
	}
}

func suspectFromInput(req *validate.SuspectInput, id string) *db.SuspectWithDetails {
	det := &db.SuspectWithDetails{
		Suspect: db.Suspect{
			ID:          id,
			IncidentID:  req.IncidentID,
			SuspectCode: req.SuspectCode,
			Name:        req.Name,
			Age:         req.Age,
			Gender:      req.Gender,
			Race:        req.Race,
			Nationality: req.Nationality,
			Status:      req.Status,
			Motive:      req.Motive,
			Notes:       req.Notes,
		},
		Weapons: make([]db.Weapon, 0, len(req.Weapons)),
	}
	for _, wi := range req.Weapons {
		det.Weapons = append(det.Weapons, db.Weapon{
			Type:             wi.Type,
			LegallyPurchased: wi.LegallyPurchased,
			Source:           wi.Source,
		})
	}
	if req.History != nil {
		det.History = &db.PriorHistory{
			CriminalRecord:          req.History.CriminalRecord,
			PriorMentalHealthIssues: req.History.PriorMentalHealthIssues,
			PriorDomesticViolence:   req.History.PriorDomesticViolence,
		}
	}
	return det
}
