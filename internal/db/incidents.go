package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const incidentCols = `id, incident_code, date, city, state, location_type, fatalities, injuries,
	involves_children, involves_women_and_children, hate_crime, hate_crime_target,
	context, description, notes, is_published, last_verified_at, created_at, updated_at`

func scanIncident(row interface{ Scan(...interface{}) error }) (*Incident, error) {
	in := &Incident{}
	var code, target, notes sql.NullString
	var verified sql.NullTime
	if err := row.Scan(&in.ID, &code, &in.Date, &in.City, &in.State, &in.LocationType,
		&in.Fatalities, &in.Injuries, &in.InvolvesChildren, &in.InvolvesWomenAndChildren,
		&in.HateCrime, &target, &in.Context, &in.Description, &notes,
		&in.IsPublished, &verified, &in.CreatedAt, &in.UpdatedAt); err != nil {
		return nil, err
	}
	in.IncidentCode = strPtr(code)
	in.HateCrimeTarget = strPtr(target)
	in.Notes = strPtr(notes)
	in.LastVerifiedAt = timePtr(verified)
	return in, nil
}

// ListIncidents returns every incident, published or not, newest first.
// Admin view only; the public surface reads v_incidents instead.
func (db *DB) ListIncidents() ([]*Incident, error) {
	rows, err := db.Query(`SELECT ` + incidentCols + ` FROM incidents ORDER BY created_at DESC, date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var incidents []*Incident
	for rows.Next() {
		in, err := scanIncident(rows)
		if err != nil {
			return nil, err
		}
		incidents = append(incidents, in)
	}
	return incidents, rows.Err()
}

func (db *DB) GetIncident(id string) (*Incident, error) {
	return scanIncident(db.QueryRow(`SELECT `+incidentCols+` FROM incidents WHERE id = ?`, id))
}

// CreateIncident inserts a new incident. Publishing on create is subject to
// the casualty floor; a published incident gets its code assigned here.
func (db *DB) CreateIncident(in *Incident, actor string) (*Incident, error) {
	if in.IsPublished && in.Fatalities+in.Injuries < 4 {
		return nil, ErrPublishGuard
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	in.ID = uuid.NewString()
	if in.IsPublished {
		code, err := assignIncidentCode(tx, in.Date)
		if err != nil {
			return nil, fmt.Errorf("assigning incident code: %w", err)
		}
		in.IncidentCode = &code
	}

	_, err = tx.Exec(`
		INSERT INTO incidents (id, incident_code, date, city, state, location_type, fatalities, injuries,
			involves_children, involves_women_and_children, hate_crime, hate_crime_target,
			context, description, notes, is_published, last_verified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, nullStr(in.IncidentCode), in.Date, in.City, in.State, in.LocationType,
		in.Fatalities, in.Injuries, in.InvolvesChildren, in.InvolvesWomenAndChildren,
		in.HateCrime, nullStr(in.HateCrimeTarget), in.Context, in.Description,
		nullStr(in.Notes), in.IsPublished, in.LastVerifiedAt)
	if err != nil {
		return nil, err
	}

	if err := recordAudit(tx, "incidents", in.ID, "insert", actor, in); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.GetIncident(in.ID)
}

// UpdateIncident fully replaces the mutable fields of an incident. Flipping
// is_published on is re-checked against the casualty floor here: the client
// side check is advisory only. The code is assigned once, on first publish.
func (db *DB) UpdateIncident(in *Incident, actor string) (*Incident, error) {
	if in.IsPublished && in.Fatalities+in.Injuries < 4 {
		return nil, ErrPublishGuard
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var code sql.NullString
	if err := tx.QueryRow(`SELECT incident_code FROM incidents WHERE id = ?`, in.ID).Scan(&code); err != nil {
		return nil, err
	}
	in.IncidentCode = strPtr(code)
	if in.IsPublished && in.IncidentCode == nil {
		c, err := assignIncidentCode(tx, in.Date)
		if err != nil {
			return nil, fmt.Errorf("assigning incident code: %w", err)
		}
		in.IncidentCode = &c
	}

	_, err = tx.Exec(`
		UPDATE incidents SET incident_code = ?, date = ?, city = ?, state = ?, location_type = ?,
			fatalities = ?, injuries = ?, involves_children = ?, involves_women_and_children = ?,
			hate_crime = ?, hate_crime_target = ?, context = ?, description = ?, notes = ?,
			is_published = ?, last_verified_at = ?, updated_at = datetime('now')
		WHERE id = ?`,
		nullStr(in.IncidentCode), in.Date, in.City, in.State, in.LocationType,
		in.Fatalities, in.Injuries, in.InvolvesChildren, in.InvolvesWomenAndChildren,
		in.HateCrime, nullStr(in.HateCrimeTarget), in.Context, in.Description,
		nullStr(in.Notes), in.IsPublished, in.LastVerifiedAt, in.ID)
	if err != nil {
		return nil, err
	}

	if err := recordAudit(tx, "incidents", in.ID, "update", actor, in); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.GetIncident(in.ID)
}

func (db *DB) DeleteIncident(id, actor string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`DELETE FROM incidents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	if err := recordAudit(tx, "incidents", id, "delete", actor, map[string]string{"id": id}); err != nil {
		return err
	}
	return tx.Commit()
}

// assignIncidentCode produces the human-readable code stamped on first
// publish: MS-<year>-<sequence within that year>. Never reassigned. The next
// number comes from the highest existing suffix, not a row count: deleting a
// published incident must not free its number for reuse.
func assignIncidentCode(tx *sql.Tx, date string) (string, error) {
	year := date
	if len(year) > 4 {
		year = year[:4]
	}
	prefix := "MS-" + year + "-"
	var n int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(CAST(substr(incident_code, ?) AS INTEGER)), 0)
		FROM incidents WHERE incident_code LIKE ? || '%'`, len(prefix)+1, prefix).Scan(&n); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d", prefix, n+1), nil
}
