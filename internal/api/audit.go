package api

import (
	"log/slog"
	"net/http"
	"strconv"
)

func (a *API) RegisterAuditRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/audit", a.handleAdminListAudit)
}

// handleAdminListAudit returns the mutation trail, newest first. The table
// query parameter narrows to one table; limit defaults to 100.
func (a *API) handleAdminListAudit(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	q := r.URL.Query()
	limit := 0
	if l, err := strconv.Atoi(q.Get("limit")); err == nil && l > 0 {
		limit = l
	}

	entries, err := a.db.ListAuditEntries(q.Get("table"), limit)
	if err != nil {
		slog.Error("listing audit entries", "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
		return
	}
	jsonResp(w, http.StatusOK, entries)
}
