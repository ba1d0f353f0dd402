package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

func (a *API) RegisterUserRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/users", a.handleAdminListAllowlist)
	mux.HandleFunc("POST /api/admin/users", a.handleAdminAddAllowlist)
	mux.HandleFunc("DELETE /api/admin/users/{email}", a.handleAdminRemoveAllowlist)
}

func (a *API) handleAdminListAllowlist(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	entries, err := a.db.ListAllowlist()
	if err != nil {
		slog.Error("listing allowlist", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, entries)
}

func (a *API) handleAdminAddAllowlist(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	var req struct {
		Email string `json:"email"`
	}
	if err := decode(w, r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		jsonError(w, "a valid email is required", http.StatusBadRequest)
		return
	}

	if err := a.db.AddAllowlistEntry(req.Email, actor); err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			jsonError(w, "email is already on the allowlist", http.StatusConflict)
			return
		}
		storeError(w, "adding allowlist entry", err)
		return
	}
	jsonResp(w, http.StatusCreated, map[string]string{"email": req.Email})
}

// handleAdminRemoveAllowlist revokes admin access. Whether an admin may
// remove themselves is governed by the admin.allow_self_removal setting;
// when disabled, someone else has to do it.
func (a *API) handleAdminRemoveAllowlist(w http.ResponseWriter, r *http.Request) {
	actor, ok := a.requireAdmin(w, r)
	if !ok {
		return
	}

	email := r.PathValue("email")
	if email == actor && !a.cfg.Admin.AllowSelfRemoval {
		jsonError(w, "removing your own allowlist entry is disabled", http.StatusForbidden)
		return
	}

	if err := a.db.RemoveAllowlistEntry(email, actor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			jsonError(w, "email is not on the allowlist", http.StatusNotFound)
			return
		}
		storeError(w, "removing allowlist entry", err)
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"status": "removed"})
}
