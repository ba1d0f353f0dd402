// Package export renders the archive as downloadable datasets: a public CSV
// of the published incidents, and an XLSX workbook of the full base table
// for the back office.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/msarchive/msarchive/internal/db"
)

// csvHeader is the fixed public column set. Notes and publication state
// never leave the admin side.
var csvHeader = []string{
	"ID", "Date", "City", "State", "Location Type", "Fatalities", "Injuries",
	"Context", "Description", "Involves Children", "Hate Crime", "Last Verified",
}

type Exporter struct {
	db *db.DB
}

func New(database *db.DB) *Exporter {
	return &Exporter{db: database}
}

// WriteIncidentsCSV streams the published incidents. Quoting and escaping
// are the csv package's: fields containing commas, quotes or newlines come
// out quoted, so free-text descriptions survive a round trip.
func (e *Exporter) WriteIncidentsCSV(w io.Writer) error {
	incidents, err := e.db.ListPublicIncidents(db.PublicIncidentFilter{})
	if err != nil {
		return fmt.Errorf("loading incidents: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, in := range incidents {
		id := in.ID
		if in.IncidentCode != nil {
			id = *in.IncidentCode
		}
		verified := ""
		if in.LastVerifiedAt != nil {
			verified = in.LastVerifiedAt.Format("2006-01-02")
		}
		record := []string{
			id,
			in.Date,
			in.City,
			in.State,
			in.LocationType,
			strconv.Itoa(in.Fatalities),
			strconv.Itoa(in.Injuries),
			in.Context,
			in.Description,
			yesNo(in.InvolvesChildren),
			yesNo(in.HateCrime),
			verified,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteIncidentsXLSX writes the full incidents table, drafts included, as a
// workbook for offline curation work.
func (e *Exporter) WriteIncidentsXLSX(w io.Writer) error {
	incidents, err := e.db.ListIncidents()
	if err != nil {
		return fmt.Errorf("loading incidents: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Incidents"
	f.SetSheetName("Sheet1", sheet)

	header := []interface{}{
		"ID", "Code", "Date", "City", "State", "Location Type", "Fatalities",
		"Injuries", "Involves Children", "Hate Crime", "Hate Crime Target",
		"Context", "Description", "Notes", "Published", "Last Verified",
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, in := range incidents {
		verified := ""
		if in.LastVerifiedAt != nil {
			verified = in.LastVerifiedAt.Format("2006-01-02")
		}
		row := []interface{}{
			in.ID,
			deref(in.IncidentCode),
			in.Date,
			in.City,
			in.State,
			in.LocationType,
			in.Fatalities,
			in.Injuries,
			yesNo(in.InvolvesChildren),
			yesNo(in.HateCrime),
			deref(in.HateCrimeTarget),
			in.Context,
			in.Description,
			deref(in.Notes),
			yesNo(in.IsPublished),
			verified,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
