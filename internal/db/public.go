package db

import (
	"database/sql"
	"time"
)

// PublicIncident is the shape anonymous readers get: the v_incidents
// projection, which only contains published and verified rows.
type PublicIncident struct {
	ID                       string     `json:"id"`
	IncidentCode             *string    `json:"incident_code,omitempty"`
	Date                     string     `json:"date"`
	City                     string     `json:"city"`
	State                    string     `json:"state"`
	LocationType             string     `json:"location_type"`
	Fatalities               int        `json:"fatalities"`
	Injuries                 int        `json:"injuries"`
	InvolvesChildren         bool       `json:"involves_children"`
	InvolvesWomenAndChildren bool       `json:"involves_women_and_children"`
	HateCrime                bool       `json:"hate_crime"`
	HateCrimeTarget          *string    `json:"hate_crime_target,omitempty"`
	Context                  string     `json:"context"`
	Description              string     `json:"description"`
	LastVerifiedAt           *time.Time `json:"last_verified_at,omitempty"`
}

// PublicIncidentFilter narrows an already-filtered view; every field is
// optional and combines with AND.
type PublicIncidentFilter struct {
	State        string
	Year         string
	LocationType string
}

// PublicLegislation mirrors v_legislation.
type PublicLegislation struct {
	ID             string     `json:"id"`
	LawCode        *string    `json:"law_code,omitempty"`
	Date           string     `json:"date"`
	Jurisdiction   string     `json:"jurisdiction"`
	Title          string     `json:"title"`
	Category       string     `json:"category"`
	Summary        string     `json:"summary"`
	LastVerifiedAt *time.Time `json:"last_verified_at,omitempty"`
}

// YearlyStat is one mv_stats_yearly row.
type YearlyStat struct {
	Year          string `json:"year"`
	IncidentCount int    `json:"incident_count"`
	Fatalities    int    `json:"fatalities"`
	Injuries      int    `json:"injuries"`
}

// StateStat is one mv_stats_by_state row.
type StateStat struct {
	State         string `json:"state"`
	IncidentCount int    `json:"incident_count"`
	Fatalities    int    `json:"fatalities"`
	Injuries      int    `json:"injuries"`
}

// MonthlyStat is one mv_monthly_trends row.
type MonthlyStat struct {
	Month         string `json:"month"`
	IncidentCount int    `json:"incident_count"`
	Fatalities    int    `json:"fatalities"`
	Injuries      int    `json:"injuries"`
}

// DeadliestIncident is one mv_deadliest_incidents row.
type DeadliestIncident struct {
	ID           string  `json:"id"`
	IncidentCode *string `json:"incident_code,omitempty"`
	Date         string  `json:"date"`
	City         string  `json:"city"`
	State        string  `json:"state"`
	LocationType string  `json:"location_type"`
	Fatalities   int     `json:"fatalities"`
	Injuries     int     `json:"injuries"`
}

// Stats bundles the aggregate views into one payload.
type Stats struct {
	Yearly        []YearlyStat        `json:"yearly"`
	ByState       []StateStat         `json:"by_state"`
	Deadliest     []DeadliestIncident `json:"deadliest"`
	MonthlyTrends []MonthlyStat       `json:"monthly_trends"`
}

// ListPublicIncidents queries v_incidents with optional narrowing filters.
func (db *DB) ListPublicIncidents(f PublicIncidentFilter) ([]*PublicIncident, error) {
	query := `
		SELECT id, incident_code, date, city, state, location_type, fatalities, injuries,
			involves_children, involves_women_and_children, hate_crime, hate_crime_target,
			context, description, last_verified_at
		FROM v_incidents WHERE 1=1`
	var args []interface{}
	if f.State != "" {
		query += ` AND state = ?`
		args = append(args, f.State)
	}
	if f.Year != "" {
		query += ` AND date >= ? AND date <= ?`
		args = append(args, f.Year+"-01-01", f.Year+"-12-31")
	}
	if f.LocationType != "" {
		query += ` AND location_type = ?`
		args = append(args, f.LocationType)
	}
	query += ` ORDER BY date DESC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []*PublicIncident
	for rows.Next() {
		in, err := scanPublicIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, in)
	}
	return incidents, rows.Err()
}

func (db *DB) GetPublicIncident(id string) (*PublicIncident, error) {
	return scanPublicIncident(db.QueryRow(`
		SELECT id, incident_code, date, city, state, location_type, fatalities, injuries,
			involves_children, involves_women_and_children, hate_crime, hate_crime_target,
			context, description, last_verified_at
		FROM v_incidents WHERE id = ?`, id))
}

func scanPublicIncident(row interface{ Scan(...interface{}) error }) (*PublicIncident, error) {
	in := &PublicIncident{}
	var code, target sql.NullString
	var verified sql.NullTime
	if err := row.Scan(&in.ID, &code, &in.Date, &in.City, &in.State, &in.LocationType,
		&in.Fatalities, &in.Injuries, &in.InvolvesChildren, &in.InvolvesWomenAndChildren,
		&in.HateCrime, &target, &in.Context, &in.Description, &verified); err != nil {
		return nil, err
	}
	in.IncidentCode = strPtr(code)
	in.HateCrimeTarget = strPtr(target)
	in.LastVerifiedAt = timePtr(verified)
	return in, nil
}

// ListPublicLegislation queries v_legislation for one jurisdiction.
func (db *DB) ListPublicLegislation(jurisdiction string) ([]*PublicLegislation, error) {
	rows, err := db.Query(`
		SELECT id, law_code, date, jurisdiction, title, category, summary, last_verified_at
		FROM v_legislation WHERE jurisdiction = ? ORDER BY date DESC`, jurisdiction)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var laws []*PublicLegislation
	for rows.Next() {
		l := &PublicLegislation{}
		var code sql.NullString
		var verified sql.NullTime
		if err := rows.Scan(&l.ID, &code, &l.Date, &l.Jurisdiction, &l.Title, &l.Category, &l.Summary, &verified); err != nil {
			return nil, err
		}
		l.LawCode = strPtr(code)
		l.LastVerifiedAt = timePtr(verified)
		laws = append(laws, l)
	}
	return laws, rows.Err()
}

// PublicSuspect is the redacted suspect shape from v_suspects: no name, no
// nationality, no notes.
type PublicSuspect struct {
	ID          string         `json:"id"`
	IncidentID  string         `json:"incident_id"`
	SuspectCode *string        `json:"suspect_code,omitempty"`
	Age         *int           `json:"age,omitempty"`
	Gender      string         `json:"gender"`
	Race        string         `json:"race"`
	Status      string         `json:"status"`
	Motive      *string        `json:"motive,omitempty"`
	Weapons     []PublicWeapon `json:"weapons"`
}

// PublicWeapon is one v_suspect_weapons row.
type PublicWeapon struct {
	ID               int64   `json:"id"`
	Type             string  `json:"type"`
	LegallyPurchased *bool   `json:"legally_purchased"`
	Source           *string `json:"source,omitempty"`
}

// ListPublicSuspects returns the redacted suspects of a published incident,
// each with its weapons from the public view.
func (db *DB) ListPublicSuspects(incidentID string) ([]*PublicSuspect, error) {
	rows, err := db.Query(`
		SELECT id, incident_id, suspect_code, age, gender, race, status, motive
		FROM v_suspects WHERE incident_id = ? ORDER BY id ASC`, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suspects := []*PublicSuspect{}
	for rows.Next() {
		s := &PublicSuspect{Weapons: []PublicWeapon{}}
		var code, motive sql.NullString
		var age sql.NullInt64
		if err := rows.Scan(&s.ID, &s.IncidentID, &code, &age, &s.Gender, &s.Race, &s.Status, &motive); err != nil {
			return nil, err
		}
		s.SuspectCode = strPtr(code)
		s.Age = intPtr(age)
		s.Motive = strPtr(motive)
		suspects = append(suspects, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range suspects {
		wrows, err := db.Query(`
			SELECT id, type, legally_purchased, source
			FROM v_suspect_weapons WHERE suspect_id = ? ORDER BY id ASC`, s.ID)
		if err != nil {
			return nil, err
		}
		for wrows.Next() {
			var pw PublicWeapon
			var legal sql.NullBool
			var source sql.NullString
			if err := wrows.Scan(&pw.ID, &pw.Type, &legal, &source); err != nil {
				wrows.Close()
				return nil, err
			}
			pw.LegallyPurchased = boolPtr(legal)
			pw.Source = strPtr(source)
			s.Weapons = append(s.Weapons, pw)
		}
		wrows.Close()
		if err := wrows.Err(); err != nil {
			return nil, err
		}
	}
	return suspects, nil
}

// GetStats reads the four aggregate views in one pass.
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{
		Yearly:        []YearlyStat{},
		ByState:       []StateStat{},
		Deadliest:     []DeadliestIncident{},
		MonthlyTrends: []MonthlyStat{},
	}

	rows, err := db.Query(`SELECT year, incident_count, fatalities, injuries FROM mv_stats_yearly`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var s YearlyStat
		if err := rows.Scan(&s.Year, &s.IncidentCount, &s.Fatalities, &s.Injuries); err != nil {
			rows.Close()
			return nil, err
		}
		stats.Yearly = append(stats.Yearly, s)
	}
	rows.Close()

	rows, err = db.Query(`SELECT state, incident_count, fatalities, injuries FROM mv_stats_by_state`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var s StateStat
		if err := rows.Scan(&s.State, &s.IncidentCount, &s.Fatalities, &s.Injuries); err != nil {
			rows.Close()
			return nil, err
		}
		stats.ByState = append(stats.ByState, s)
	}
	rows.Close()

	rows, err = db.Query(`SELECT id, incident_code, date, city, state, location_type, fatalities, injuries
		FROM mv_deadliest_incidents LIMIT 10`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var d DeadliestIncident
		var code sql.NullString
		if err := rows.Scan(&d.ID, &code, &d.Date, &d.City, &d.State, &d.LocationType, &d.Fatalities, &d.Injuries); err != nil {
			rows.Close()
			return nil, err
		}
		d.IncidentCode = strPtr(code)
		stats.Deadliest = append(stats.Deadliest, d)
	}
	rows.Close()

	rows, err = db.Query(`SELECT month, incident_count, fatalities, injuries FROM mv_monthly_trends LIMIT 24`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var s MonthlyStat
		if err := rows.Scan(&s.Month, &s.IncidentCount, &s.Fatalities, &s.Injuries); err != nil {
			rows.Close()
			return nil, err
		}
		stats.MonthlyTrends = append(stats.MonthlyTrends, s)
	}
	rows.Close()

	return stats, nil
}
