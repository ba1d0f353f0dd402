package db

import (
	"database/sql"
)

var validCorrectionStatuses = map[string]bool{
	"pending": true, "reviewed": true, "accepted": true, "rejected": true,
}

const correctionCols = `id, incident_id, legislation_id, correction_type, description,
	suggested_correction, status, submitted_by, reviewed_by, reviewed_at, notes, created_at`

func scanCorrection(row interface{ Scan(...interface{}) error }, c *Correction) error {
	var incID, legID, suggested, submitted, reviewedBy, notes sql.NullString
	var reviewedAt sql.NullTime
	if err := row.Scan(&c.ID, &incID, &legID, &c.CorrectionType, &c.Description,
		&suggested, &c.Status, &submitted, &reviewedBy, &reviewedAt, &notes, &c.CreatedAt); err != nil {
		return err
	}
	c.IncidentID = strPtr(incID)
	c.LegislationID = strPtr(legID)
	c.SuggestedCorrection = strPtr(suggested)
	c.SubmittedBy = strPtr(submitted)
	c.ReviewedBy = strPtr(reviewedBy)
	c.ReviewedAt = timePtr(reviewedAt)
	c.Notes = strPtr(notes)
	return nil
}

// InsertCorrection records a public submission. The stored status is always
// pending, no matter what the payload claimed.
func (db *DB) InsertCorrection(c *Correction) (int64, error) {
	tx, err := db.Begin()
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	c.Status = "pending"
	res, err := tx.Exec(`
		INSERT INTO corrections (incident_id, legislation_id, correction_type, description, suggested_correction, status, submitted_by)
		VALUES (?, ?, ?, ?, ?, 'pending', ?)`,
		nullStr(c.IncidentID), nullStr(c.LegislationID), c.CorrectionType,
		c.Description, nullStr(c.SuggestedCorrection), nullStr(c.SubmittedBy))
	if err != nil {
		return 0, err
	}
	id, _ := res.LastInsertId()
	c.ID = id

	if err := recordAudit(tx, "corrections", itoa(id), "insert", "public", c); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

func (db *DB) GetCorrection(id int64) (*Correction, error) {
	c := &Correction{}
	if err := scanCorrection(db.QueryRow(`SELECT `+correctionCols+` FROM corrections WHERE id = ?`, id), c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListCorrections returns the review queue, newest first, with a short
// summary of the referenced incident or legislation joined in. Empty status
// or ctype means no filter on that field.
func (db *DB) ListCorrections(status, ctype string, limit int) ([]*CorrectionWithRefs, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT c.id, c.incident_id, c.legislation_id, c.correction_type, c.description,
			c.suggested_correction, c.status, c.submitted_by, c.reviewed_by, c.reviewed_at, c.notes, c.created_at,
			i.incident_code, i.city, l.law_code, l.title
		FROM corrections c
		LEFT JOIN incidents i ON i.id = c.incident_id
		LEFT JOIN legislation l ON l.id = c.legislation_id
		WHERE 1=1`
	var args []interface{}
	if status != "" && status != "all" {
		query += ` AND c.status = ?`
		args = append(args, status)
	}
	if ctype != "" && ctype != "all" {
		query += ` AND c.correction_type = ?`
		args = append(args, ctype)
	}
	query += ` ORDER BY c.created_at DESC, c.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var corrections []*CorrectionWithRefs
	for rows.Next() {
		cr := &CorrectionWithRefs{}
		var incID, legID, suggested, submitted, reviewedBy, notes sql.NullString
		var incCode, incCity, lawCode, lawTitle sql.NullString
		var reviewedAt sql.NullTime
		if err := rows.Scan(&cr.ID, &incID, &legID, &cr.CorrectionType, &cr.Description,
			&suggested, &cr.Status, &submitted, &reviewedBy, &reviewedAt, &notes, &cr.CreatedAt,
			&incCode, &incCity, &lawCode, &lawTitle); err != nil {
			return nil, err
		}
		cr.IncidentID = strPtr(incID)
		cr.LegislationID = strPtr(legID)
		cr.SuggestedCorrection = strPtr(suggested)
		cr.SubmittedBy = strPtr(submitted)
		cr.ReviewedBy = strPtr(reviewedBy)
		cr.ReviewedAt = timePtr(reviewedAt)
		cr.Notes = strPtr(notes)
		cr.IncidentCode = strPtr(incCode)
		cr.IncidentCity = strPtr(incCity)
		cr.LawCode = strPtr(lawCode)
		cr.LawTitle = strPtr(lawTitle)
		corrections = append(corrections, cr)
	}
	return corrections, rows.Err()
}

// TransitionCorrection moves a correction to the target status and stamps
// the review timestamp. The recognized statuses are the only constraint:
// pending may jump straight to accepted or rejected, and nothing technically
// blocks re-transitioning a reviewed row — terminality is convention.
func (db *DB) TransitionCorrection(id int64, status string, notes, reviewedBy *string, actor string) (*Correction, error) {
	if !validCorrectionStatuses[status] {
		return nil, ErrInvalidStatus
	}

	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	query := `UPDATE corrections SET status = ?, reviewed_at = datetime('now')`
	args := []interface{}{status}
	if notes != nil {
		query += `, notes = ?`
		args = append(args, *notes)
	}
	if reviewedBy != nil {
		query += `, reviewed_by = ?`
		args = append(args, *reviewedBy)
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := tx.Exec(query, args...)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, sql.ErrNoRows
	}

	if err := recordAudit(tx, "corrections", itoa(id), "update", actor, map[string]interface{}{
		"id": id, "status": status,
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.GetCorrection(id)
}

// DeleteCorrection hard-deletes a correction in any state.
func (db *DB) DeleteCorrection(id int64, actor string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`DELETE FROM corrections WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	if err := recordAudit(tx, "corrections", itoa(id), "delete", actor, map[string]int64{"id": id}); err != nil {
		return err
	}
	return tx.Commit()
}
