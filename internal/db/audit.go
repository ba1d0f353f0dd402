package db

import (
	"database/sql"
	"encoding/json"
)

// recordAudit appends a trail entry for one mutation. It runs inside the
// mutation's own transaction so a mutation and its trail commit or roll back
// together — handlers cannot skip it.
func recordAudit(tx *sql.Tx, table, rowID, action, actor string, payload interface{}) error {
	diff := "{}"
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			diff = string(b)
		}
	}
	_, err := tx.Exec(`
		INSERT INTO audit_log (table_name, row_id, action, actor_email, diff)
		VALUES (?, ?, ?, ?, ?)`, table, rowID, action, actor, diff)
	return err
}

// ListAuditEntries returns trail entries, newest first, optionally filtered
// by table. Read-only: there is no write API for the trail.
func (db *DB) ListAuditEntries(table string, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, table_name, row_id, action, actor_email, diff, created_at FROM audit_log`
	var args []interface{}
	if table != "" {
		query += ` WHERE table_name = ?`
		args = append(args, table)
	}
	query += ` ORDER BY id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.ID, &e.TableName, &e.RowID, &e.Action, &e.ActorEmail, &e.Diff, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
