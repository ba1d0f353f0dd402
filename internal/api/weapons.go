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

func (a *API) RegisterWeaponRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/weapons", a.handleAdminListWeapons)
	mux.HandleFunc("POST /api/admin/weapons", a.handleAdminCreateWeapon)
	mux.HandleFunc("PUT /api/admin/weapons/{id}", a.handleAdminUpdateWeapon)
	mux.HandleFunc("DELETE /api/admin/weapons/{id}", a.handleAdminDeleteWeapon)
}

func (a *API) handleAdminListWeapons(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	suspectID := r.URL.Query().Get("suspect_id")
	if suspectID == "" {
		jsonError(w, "suspect_id is required", http.StatusBadRequest)
		return
	}

	weapons, err := a.db.ListWeaponsBySuspect(suspectID)
	if err != nil {
		slog.Error("listing weapons", "suspect", suspectID, "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, weapons)
}

func (a *API) handleAdminCreateWeapon(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	var req struct {
		SuspectID string `json:"suspect_id"`
		validate.WeaponInput
	}
	if err := decode(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.SuspectID == "" {
		jsonError(w, "suspect_id is required", http.StatusBadRequest)
		return
	}
	if err := req.WeaponInput.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := a.db.CreateWeapon(&db.Weapon{
		SuspectID:        req.SuspectID,
		Type:             req.Type,
		LegallyPurchased: req.LegallyPurchased,
		Source:           req.Source,
	}, actor)
	if err != nil {
		storeError(w, "creating weapon", err)
		return
	}
	jsonResp(w, http.StatusCreated, created)
}

func (a *API) handleAdminUpdateWeapon(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid weapon id", http.StatusBadRequest)
		return
	}

	var req validate.WeaponInput
	if err := decode(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.Validate(); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := a.db.UpdateWeapon(&db.Weapon{
		ID:               id,
		Type:             req.Type,
		LegallyPurchased: req.LegallyPurchased,
		Source:           req.Source,
	}, actor)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "weapon not found", http.StatusNotFound)
			return
		}
		storeError(w, "updating weapon", err)
		return
	}
	jsonResp(w, http.StatusOK, updated)
}

func (a *API) handleAdminDeleteWeapon(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, "invalid weapon id", http.StatusBadRequest)
		return
	}

	if err := a.db.DeleteWeapon(id, actor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "weapon not found", http.StatusNotFound)
			return
		}
		storeError(w, "deleting weapon", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "deleted"})
}
