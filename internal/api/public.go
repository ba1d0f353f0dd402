package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/msarchive/msarchive/internal/db"
	"github.com/msarchive/msarchive/internal/validate"
)

func (a *API) RegisterPublicRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/incidents", a.handleListIncidents)
	mux.HandleFunc("GET /api/incidents/{id}", a.handleGetIncident)
	mux.HandleFunc("GET /api/legislation/{jurisdiction}", a.handleListLegislation)
	mux.HandleFunc("GET /api/stats", a.handleGetStats)
}

// handleListIncidents serves the published dataset. Filters are optional
// and validated so that an unknown value yields a 400 rather than a silent
// empty list.
func (a *API) handleListIncidents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := db.PublicIncidentFilter{
		State:        q.Get("state"),
		Year:         q.Get("year"),
		LocationType: q.Get("location"),
	}
	if filter.State != "" && !validate.ValidState(filter.State) {
		jsonError(w, "unknown state", http.StatusBadRequest)
		return
	}
	if filter.Year != "" && len(filter.Year) != 4 {
		jsonError(w, "year must be four digits", http.StatusBadRequest)
		return
	}
	if filter.LocationType != "" && !validate.ValidLocationType(filter.LocationType) {
		jsonError(w, "unknown location type", http.StatusBadRequest)
		return
	}

	incidents, err := a.db.ListPublicIncidents(filter)
	if err != nil {
		slog.Error("listing public incidents", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if incidents == nil {
		incidents = []*db.PublicIncident{}
	}
	jsonResp(w, http.StatusOK, incidents)
}

// handleGetIncident serves one published incident with its suspects as the
// public views expose them. An unpublished or unverified incident is a 404
// here even if it exists in the base table.
func (a *API) handleGetIncident(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	incident, err := a.db.GetPublicIncident(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "incident not found", http.StatusNotFound)
			return
		}
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	suspects, err := a.db.ListPublicSuspects(id)
	if err != nil {
		slog.Error("listing public suspects", "incident", id, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}

	jsonResp(w, http.StatusOK, map[string]interface{}{
		"incident": incident,
		"suspects": suspects,
	})
}

func (a *API) handleListLegislation(w http.ResponseWriter, r *http.Request) {
	jurisdiction := r.PathValue("jurisdiction")
	if !validate.ValidJurisdiction(jurisdiction) {
		jsonError(w, "unknown jurisdiction", http.StatusBadRequest)
		return
	}

	laws, err := a.db.ListPublicLegislation(jurisdiction)
	if err != nil {
		slog.Error("listing public legislation", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	if laws == nil {
		laws = []*db.PublicLegislation{}
	}
	jsonResp(w, http.StatusOK, laws)
}

func (a *API) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := a.db.GetStats()
	if err != nil {
		slog.Error("computing stats", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, stats)
}
