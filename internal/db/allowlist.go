package db

import "database/sql"

// IsAdmin reports whether an authenticated email may perform admin
// operations. This is the authorization gate for the whole admin API.
func (db *DB) IsAdmin(email string) bool {
	var count int
	_ = db.QueryRow(`SELECT COUNT(*) FROM admin_allowlist WHERE email = ?`, email).Scan(&count)
	return count > 0
}

func (db *DB) ListAllowlist() ([]AllowlistEntry, error) {
	rows, err := db.Query(`SELECT email, created_at, added_by FROM admin_allowlist ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AllowlistEntry
	for rows.Next() {
		var e AllowlistEntry
		var addedBy sql.NullString
		if err := rows.Scan(&e.Email, &e.CreatedAt, &addedBy); err != nil {
			return nil, err
		}
		e.AddedBy = strPtr(addedBy)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (db *DB) AddAllowlistEntry(email, addedBy string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT INTO admin_allowlist (email, added_by) VALUES (?, ?)`, email, addedBy); err != nil {
		return err
	}
	if err := recordAudit(tx, "admin_allowlist", email, "insert", addedBy, map[string]string{"email": email}); err != nil {
		return err
	}
	return tx.Commit()
}

// RemoveAllowlistEntry deletes an allowlist row. Whether an admin may remove
// their own entry is policy decided by the caller, not here.
func (db *DB) RemoveAllowlistEntry(email, actor string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`DELETE FROM admin_allowlist WHERE email = ?`, email)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	if err := recordAudit(tx, "admin_allowlist", email, "delete", actor, map[string]string{"email": email}); err != nil {
		return err
	}
	return tx.Commit()
}
