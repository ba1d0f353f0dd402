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

func (a *API) RegisterIncidentRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/incidents", a.handleAdminListIncidents)
	mux.HandleFunc("GET /api/admin/incidents/{id}", a.handleAdminGetIncident)
	mux.HandleFunc("POST /api/admin/incidents", a.handleAdminCreateIncident)
	mux.HandleFunc("PUT /api/admin/incidents/{id}", a.handleAdminUpdateIncident)
	mux.HandleFunc("DELETE /api/admin/incidents/{id}", a.handleAdminDeleteIncident)
}

func (a *API) handleAdminListIncidents(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	incidents, err := a.db.ListIncidents()
	if err != nil {
		slog.Error("listing incidents", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, incidents)
}

func (a *API) handleAdminGetIncident(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	incident, err := a.db.GetIncident(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "incident not found", http.StatusNotFound)
			return
		}
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	suspects, err := a.db.GetSuspectsByIncident(incident.ID)
	if err != nil {
		slog.Error("loading suspects", "incident", incident.ID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	sources, err := a.db.ListIncidentSources(incident.ID)
	if err != nil {
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	jsonResp(w, http.StatusOK, map[string]interface{}{
		"incident": incident,
		"suspects": suspects,
		"sources":  sources,
	})
}

func (a *API) handleAdminCreateIncident(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	var req validate.IncidentInput
	if err := decode(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	incident := incidentFromInput(&req, nil)
	created, err := a.db.CreateIncident(incident, actor)
	if err != nil {
		if errors.Is(err, db.ErrPublishGuard) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		storeError(w, "creating incident", err)
		return
	}
	jsonResp(w, http.StatusCreated, created)
}

func (a *API) handleAdminUpdateIncident(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	current, err := a.db.GetIncident(r.PathValue("id"))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "incident not found", http.StatusNotFound)
			return
		}
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	var req validate.IncidentInput
	if err := decode(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	incident := incidentFromInput(&req, current)
	updated, err := a.db.UpdateIncident(incident, actor)
	if err != nil {
		if errors.Is(err, db.ErrPublishGuard) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		storeError(w, "updating incident", err)
		return
	}
	jsonResp(w, http.StatusOK, updated)
}

func (a *API) handleAdminDeleteIncident(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	if err := a.db.DeleteIncident(r.PathValue("id"), actor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "incident not found", http.StatusNotFound)
			return
		}
		storeError(w, "deleting incident", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// incidentFromInput maps a validated payload onto a row. When updating,
// current carries the identity and the verification timestamp to preserve;
// mark_verified stamps a fresh one either way.
func incidentFromInput(req *validate.IncidentInput, current *db.Incident) *db.Incident {
	incident := &db.Incident{
		Date:                     req.Date,
		City:                     req.City,
		State:                    req.State,
		LocationType:             req.LocationType,
		Fatalities:               req.Fatalities,
		Injuries:                 req.Injuries,
		InvolvesChildren:         req.InvolvesChildren,
		InvolvesWomenAndChildren: req.InvolvesWomenAndChildren,
		HateCrime:                req.HateCrime,
		HateCrimeTarget:          req.HateCrimeTarget,
		Context:                  req.Context,
		Description:              req.Description,
		Notes:                    req.Notes,
		IsPublished:              req.IsPublished,
	}
	if current != nil {
		incident.ID = current.ID
		incident.IncidentCode = current.IncidentCode
		incident.LastVerifiedAt = current.LastVerifiedAt
	}
	if req.MarkVerified {
		now := time.Now().UTC()
		incident.LastVerifiedAt = &now
	}
	return incident
}
