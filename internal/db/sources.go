package db

import "database/sql"

// Cited references live in two parallel tables; the shapes are identical so
// both sides share the Source model with ParentID meaning incident_id or
// legislation_id respectively.

func (db *DB) ListIncidentSources(incidentID string) ([]Source, error) {
	return db.listSources(`SELECT id, incident_id, url, title, publisher, accessed_at
		FROM incident_sources WHERE incident_id = ? ORDER BY id ASC`, incidentID)
}

func (db *DB) ListLegislationSources(legislationID string) ([]Source, error) {
	return db.listSources(`SELECT id, legislation_id, url, title, publisher, accessed_at
		FROM legislation_sources WHERE legislation_id = ? ORDER BY id ASC`, legislationID)
}

func (db *DB) listSources(query, parentID string) ([]Source, error) {
	rows, err := db.Query(query, parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sources := []Source{}
	for rows.Next() {
		var s Source
		if err := rows.Scan(&s.ID, &s.ParentID, &s.URL, &s.Title, &s.Publisher, &s.AccessedAt); err != nil {
			return nil, err
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

func (db *DB) AddIncidentSource(s *Source, actor string) (*Source, error) {
	return db.addSource("incident_sources", s, actor)
}

func (db *DB) AddLegislationSource(s *Source, actor string) (*Source, error) {
	return db.addSource("legislation_sources", s, actor)
}

func (db *DB) addSource(table string, s *Source, actor string) (*Source, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	parentCol := "incident_id"
	if table == "legislation_sources" {
		parentCol = "legislation_id"
	}
	res, err := tx.Exec(`INSERT INTO `+table+` (`+parentCol+`, url, title, publisher, accessed_at)
		VALUES (?, ?, ?, ?, ?)`, s.ParentID, s.URL, s.Title, s.Publisher, s.AccessedAt)
	if err != nil {
		return nil, err
	}
	s.ID, _ = res.LastInsertId()

	if err := recordAudit(tx, table, itoa(s.ID), "insert", actor, s); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return s, nil
}

func (db *DB) DeleteIncidentSource(id int64, actor string) error {
	return db.deleteSource("incident_sources", id, actor)
}

func (db *DB) DeleteLegislationSource(id int64, actor string) error {
	return db.deleteSource("legislation_sources", id, actor)
}

func (db *DB) deleteSource(table string, id int64, actor string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	if err := recordAudit(tx, table, itoa(id), "delete", actor, map[string]int64{"id": id}); err != nil {
		return err
	}
	return tx.Commit()
}
