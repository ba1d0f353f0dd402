package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/msarchive/msarchive/internal/db"
	"github.com/msarchive/msarchive/internal/validate"
)

func (a *API) RegisterSourceRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/incidents/{id}/sources", a.handleAdminListIncidentSources)
	mux.HandleFunc("POST /api/admin/incidents/{id}/sources", a.handleAdminAddIncidentSource)
	mux.HandleFunc("DELETE /api/admin/incident-sources/{id}", a.handleAdminDeleteIncidentSource)

	mux.HandleFunc("GET /api/admin/legislation/{id}/sources", a.handleAdminListLegislationSources)
	mux.HandleFunc("POST /api/admin/legislation/{id}/sources", a.handleAdminAddLegislationSource)
	mux.HandleFunc("DELETE /api/admin/legislation-sources/{id}", a.handleAdminDeleteLegislationSource)
}

func (a *API) handleAdminListIncidentSources(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	sources, err := a.db.ListIncidentSources(r.PathValue("id"))
	if err != nil {
		slog.Error("listing incident sources", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, sources)
}

func (a *API) handleAdminAddIncidentSource(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	a.addSource(w, r, actor, r.PathValue("id"), a.db.AddIncidentSource)
}

func (a *API) handleAdminDeleteIncidentSource(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	a.deleteSource(w, r, actor, a.db.DeleteIncidentSource)
}

func (a *API) handleAdminListLegislationSources(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	sources, err := a.db.ListLegislationSources(r.PathValue("id"))
	if err != nil {
		slog.Error("listing legislation sources", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, sources)
}

func (a *API) handleAdminAddLegislationSource(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	a.addSource(w, r, actor, r.PathValue("id"), a.db.AddLegislationSource)
}

func (a *API) handleAdminDeleteLegislationSource(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}
	a.deleteSource(w, r, actor, a.db.DeleteLegislationSource)
}

func (a *API) addSource(w http.ResponseWriter, r *http.Request, actor, parentID string, add func(*db.Source, string) (*db.Source, error)) {
	var req validate.SourceInput
	if err := decode(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := add(&db.Source{
		ParentID:   parentID,
		URL:        req.URL,
		Title:      req.Title,
		Publisher:  req.Publisher,
		AccessedAt: req.AccessedAt,
	}, actor)
	if err != nil {
		storeError(w, "adding source", err)
		return
	}
	jsonResp(w, http.StatusCreated, created)
}

func (a *API) deleteSource(w http.ResponseWriter, r *http.Request, actor string, del func(int64, string) error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid source id", http.StatusBadRequest)
		return
	}

	if err := del(id, actor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "source not found", http.StatusNotFound)
			return
		}
		storeError(w, "deleting source", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "deleted"})
}
