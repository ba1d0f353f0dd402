package db

import (
	"database/sql"

	"github.com/google/uuid"
)

const suspectCols = `id, incident_id, suspect_code, name, age, gender, race, nationality, status, motive, notes, created_at`

func scanSuspect(row interface{ Scan(...interface{}) error }) (*Suspect, error) {
	s := &Suspect{}
	var code, name, nationality, motive, notes sql.NullString
	var age sql.NullInt64
	if err := row.Scan(&s.ID, &s.IncidentID, &code, &name, &age, &s.Gender, &s.Race,
		&nationality, &s.Status, &motive, &notes, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.SuspectCode = strPtr(code)
	s.Name = strPtr(name)
	s.Age = intPtr(age)
	s.Nationality = strPtr(nationality)
	s.Motive = strPtr(motive)
	s.Notes = strPtr(notes)
	return s, nil
}

// CreateSuspect inserts a suspect together with its weapons and background
// record as one transaction. A failure on any child row rolls the whole
// write back; no orphaned suspect can remain.
func (db *DB) CreateSuspect(det *SuspectWithDetails, actor string) (*SuspectWithDetails, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	det.ID = uuid.NewString()
	_, err = tx.Exec(`
		INSERT INTO suspects (id, incident_id, suspect_code, name, age, gender, race, nationality, status, motive, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		det.ID, det.IncidentID, nullStr(det.SuspectCode), nullStr(det.Name), det.Age,
		det.Gender, det.Race, nullStr(det.Nationality), det.Status, nullStr(det.Motive), nullStr(det.Notes))
	if err != nil {
		return nil, err
	}

	if err := insertWeapons(tx, det.ID, det.Weapons); err != nil {
		return nil, err
	}
	if det.History != nil {
		if err := upsertHistory(tx, det.ID, det.History); err != nil {
			return nil, err
		}
	}

	if err := recordAudit(tx, "suspects", det.ID, "insert", actor, det); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.GetSuspect(det.ID)
}

// UpdateSuspect replaces the suspect's scalar fields, replaces the entire
// weapons set (not a diff) and upserts the background record if one is
// supplied. One transaction, same rollback guarantee as CreateSuspect.
func (db *DB) UpdateSuspect(det *SuspectWithDetails, actor string) (*SuspectWithDetails, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		UPDATE suspects SET suspect_code = ?, name = ?, age = ?, gender = ?, race = ?,
			nationality = ?, status = ?, motive = ?, notes = ?
		WHERE id = ?`,
		nullStr(det.SuspectCode), nullStr(det.Name), det.Age, det.Gender, det.Race,
		nullStr(det.Nationality), det.Status, nullStr(det.Motive), nullStr(det.Notes), det.ID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, sql.ErrNoRows
	}

	if _, err := tx.Exec(`DELETE FROM suspect_weapons WHERE suspect_id = ?`, det.ID); err != nil {
		return nil, err
	}
	if err := insertWeapons(tx, det.ID, det.Weapons); err != nil {
		return nil, err
	}
	if det.History != nil {
		if err := upsertHistory(tx, det.ID, det.History); err != nil {
			return nil, err
		}
	}

	if err := recordAudit(tx, "suspects", det.ID, "update", actor, det); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.GetSuspect(det.ID)
}

// DeleteSuspect removes a suspect; weapons and history go with it via
// foreign-key cascade.
func (db *DB) DeleteSuspect(id, actor string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`DELETE FROM suspects WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	if err := recordAudit(tx, "suspects", id, "delete", actor, map[string]string{"id": id}); err != nil {
		return err
	}
	return tx.Commit()
}

// GetSuspect returns one suspect with nested weapons and history.
func (db *DB) GetSuspect(id string) (*SuspectWithDetails, error) {
	s, err := scanSuspect(db.QueryRow(`SELECT ` + suspectCols + ` FROM suspects WHERE id = ?`, id))
	if err != nil {
		return nil, err
	}
	return db.loadDetails(s)
}

// GetSuspectsByIncident returns all suspects for one incident, each with
// nested weapons and history, oldest first.
func (db *DB) GetSuspectsByIncident(incidentID string) ([]*SuspectWithDetails, error) {
	rows, err := db.Query(`SELECT `+suspectCols+` FROM suspects WHERE incident_id = ? ORDER BY created_at ASC`, incidentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var suspects []*SuspectWithDetails
	for rows.Next() {
		s, err := scanSuspect(rows)
		if err != nil {
			return nil, err
		}
		det, err := db.loadDetails(s)
		if err != nil {
			return nil, err
		}
		suspects = append(suspects, det)
	}
	return suspects, rows.Err()
}

func (db *DB) loadDetails(s *Suspect) (*SuspectWithDetails, error) {
	det := &SuspectWithDetails{Suspect: *s}
	weapons, err := db.ListWeaponsBySuspect(s.ID)
	if err != nil {
		return nil, err
	}
	det.Weapons = weapons

	h := &PriorHistory{}
	var criminal, mental, domestic sql.NullBool
	err = db.QueryRow(`
		SELECT suspect_id, criminal_record, prior_mental_health_issues, prior_domestic_violence
		FROM suspect_prior_history WHERE suspect_id = ?`, s.ID).Scan(
		&h.SuspectID, &criminal, &mental, &domestic)
	switch err {
	case nil:
		h.CriminalRecord = boolPtr(criminal)
		h.PriorMentalHealthIssues = boolPtr(mental)
		h.PriorDomesticViolence = boolPtr(domestic)
		det.History = h
	case sql.ErrNoRows:
		// no background record yet
	default:
		return nil, err
	}
	return det, nil
}

func insertWeapons(tx *sql.Tx, suspectID string, weapons []Weapon) error {
	for _, w := range weapons {
		if _, err := tx.Exec(`
			INSERT INTO suspect_weapons (suspect_id, type, legally_purchased, source)
			VALUES (?, ?, ?, ?)`, suspectID, w.Type, w.LegallyPurchased, nullStr(w.Source)); err != nil {
			return err
		}
	}
	return nil
}

func upsertHistory(tx *sql.Tx, suspectID string, h *PriorHistory) error {
	_, err := tx.Exec(`
		INSERT INTO suspect_prior_history (suspect_id, criminal_record, prior_mental_health_issues, prior_domestic_violence)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(suspect_id) DO UPDATE SET
			criminal_record = excluded.criminal_record,
			prior_mental_health_issues = excluded.prior_mental_health_issues,
			prior_domestic_violence = excluded.prior_domestic_violence`,
		suspectID, h.CriminalRecord, h.PriorMentalHealthIssues, h.PriorDomesticViolence)
	return err
}
