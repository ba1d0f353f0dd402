package db

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const legislationCols = `id, law_code, date, jurisdiction, title, category, summary, notes,
	is_published, last_verified_at, created_at, updated_at`

func scanLegislation(row interface{ Scan(...interface{}) error }) (*Legislation, error) {
	l := &Legislation{}
	var code, notes sql.NullString
	var verified sql.NullTime
	if err := row.Scan(&l.ID, &code, &l.Date, &l.Jurisdiction, &l.Title, &l.Category,
		&l.Summary, &notes, &l.IsPublished, &verified, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	l.LawCode = strPtr(code)
	l.Notes = strPtr(notes)
	l.LastVerifiedAt = timePtr(verified)
	return l, nil
}

func (db *DB) ListLegislation() ([]*Legislation, error) {
	rows, err := db.Query(`SELECT ` + legislationCols + ` FROM legislation ORDER BY created_at DESC, date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var laws []*Legislation
	for rows.Next() {
		l, err := scanLegislation(rows)
		if err != nil {
			return nil, err
		}
		laws = append(laws, l)
	}
	return laws, rows.Err()
}

func (db *DB) GetLegislation(id string) (*Legislation, error) {
	return scanLegislation(db.QueryRow(`SELECT `+legislationCols+` FROM legislation WHERE id = ?`, id))
}

// CreateLegislation inserts a legislation record. No casualty-style guard
// here; the law code is assigned on publish like the incident code.
func (db *DB) CreateLegislation(l *Legislation, actor string) (*Legislation, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	l.ID = uuid.NewString()
	if l.IsPublished {
		code, err := assignLawCode(tx, l.Jurisdiction, l.Date)
		if err != nil {
			return nil, fmt.Errorf("assigning law code: %w", err)
		}
		l.LawCode = &code
	}

	_, err = tx.Exec(`
		INSERT INTO legislation (id, law_code, date, jurisdiction, title, category, summary, notes, is_published, last_verified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, nullStr(l.LawCode), l.Date, l.Jurisdiction, l.Title, l.Category,
		l.Summary, nullStr(l.Notes), l.IsPublished, l.LastVerifiedAt)
	if err != nil {
		return nil, err
	}

	if err := recordAudit(tx, "legislation", l.ID, "insert", actor, l); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.GetLegislation(l.ID)
}

func (db *DB) UpdateLegislation(l *Legislation, actor string) (*Legislation, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var code sql.NullString
	if err := tx.QueryRow(`SELECT law_code FROM legislation WHERE id = ?`, l.ID).Scan(&code); err != nil {
		return nil, err
	}
	l.LawCode = strPtr(code)
	if l.IsPublished && l.LawCode == nil {
		c, err := assignLawCode(tx, l.Jurisdiction, l.Date)
		if err != nil {
			return nil, fmt.Errorf("assigning law code: %w", err)
		}
		l.LawCode = &c
	}

	_, err = tx.Exec(`
		UPDATE legislation SET law_code = ?, date = ?, jurisdiction = ?, title = ?, category = ?,
			summary = ?, notes = ?, is_published = ?, last_verified_at = ?, updated_at = datetime('now')
		WHERE id = ?`,
		nullStr(l.LawCode), l.Date, l.Jurisdiction, l.Title, l.Category,
		l.Summary, nullStr(l.Notes), l.IsPublished, l.LastVerifiedAt, l.ID)
	if err != nil {
		return nil, err
	}

	if err := recordAudit(tx, "legislation", l.ID, "update", actor, l); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.GetLegislation(l.ID)
}

func (db *DB) DeleteLegislation(id, actor string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`DELETE FROM legislation WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	if err := recordAudit(tx, "legislation", id, "delete", actor, map[string]string{"id": id}); err != nil {
		return err
	}
	return tx.Commit()
}

// assignLawCode mirrors assignIncidentCode: highest existing suffix for the
// jurisdiction-year prefix, so deletions never free a minted number.
func assignLawCode(tx *sql.Tx, jurisdiction, date string) (string, error) {
	year := date
	if len(year) > 4 {
		year = year[:4]
	}
	prefix := fmt.Sprintf("GL-%s-%s-", jurisdiction, year)
	var n int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(CAST(substr(law_code, ?) AS INTEGER)), 0)
		FROM legislation WHERE law_code LIKE ? || '%'`, len(prefix)+1, prefix).Scan(&n); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d", prefix, n+1), nil
}
