package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/msarchive/msarchive/internal/export"
)

func (a *API) RegisterExportRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/export/incidents.csv", a.handleExportCSV)
	mux.HandleFunc("GET /api/admin/export/incidents.xlsx", a.handleAdminExportXLSX)
}

// handleExportCSV is public: it only ever contains what the public views
// already expose.
func (a *API) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	filename := fmt.Sprintf("msarchive_incidents_%s.csv", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := export.New(a.db).WriteIncidentsCSV(w); err != nil {
		slog.Error("exporting csv", "error", err)
	}
}

func (a *API) handleAdminExportXLSX(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireAdmin(w, r); !ok {
		return
	}

	filename := fmt.Sprintf("msarchive_incidents_full_%s.xlsx", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := export.New(a.db).WriteIncidentsXLSX(w); err != nil {
		slog.Error("exporting xlsx", "error", err)
	}
}
