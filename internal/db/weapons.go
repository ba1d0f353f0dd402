package db

import "database/sql"

func scanWeapon(row interface{ Scan(...interface{}) error }) (*Weapon, error) {
	w := &Weapon{}
	var legal sql.NullBool
	var source sql.NullString
	if err := row.Scan(&w.ID, &w.SuspectID, &w.Type, &legal, &source); err != nil {
		return nil, err
	}
	w.LegallyPurchased = boolPtr(legal)
	w.Source = strPtr(source)
	return w, nil
}

func (db *DB) GetWeapon(id int64) (*Weapon, error) {
	return scanWeapon(db.QueryRow(`
		SELECT id, suspect_id, type, legally_purchased, source
		FROM suspect_weapons WHERE id = ?`, id))
}

func (db *DB) ListWeaponsBySuspect(suspectID string) ([]Weapon, error) {
	rows, err := db.Query(`
		SELECT id, suspect_id, type, legally_purchased, source
		FROM suspect_weapons WHERE suspect_id = ? ORDER BY id ASC`, suspectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	weapons := []Weapon{}
	for rows.Next() {
		w, err := scanWeapon(rows)
		if err != nil {
			return nil, err
		}
		weapons = append(weapons, *w)
	}
	return weapons, rows.Err()
}

func (db *DB) CreateWeapon(w *Weapon, actor string) (*Weapon, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		INSERT INTO suspect_weapons (suspect_id, type, legally_purchased, source)
		VALUES (?, ?, ?, ?)`, w.SuspectID, w.Type, w.LegallyPurchased, nullStr(w.Source))
	if err != nil {
		return nil, err
	}
	w.ID, _ = res.LastInsertId()

	if err := recordAudit(tx, "suspect_weapons", itoa(w.ID), "insert", actor, w); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.GetWeapon(w.ID)
}

func (db *DB) UpdateWeapon(w *Weapon, actor string) (*Weapon, error) {
	tx, err := db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`
		UPDATE suspect_weapons SET type = ?, legally_purchased = ?, source = ?
		WHERE id = ?`, w.Type, w.LegallyPurchased, nullStr(w.Source), w.ID)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, sql.ErrNoRows
	}

	if err := recordAudit(tx, "suspect_weapons", itoa(w.ID), "update", actor, w); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return db.GetWeapon(w.ID)
}

func (db *DB) DeleteWeapon(id int64, actor string) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.Exec(`DELETE FROM suspect_weapons WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	if err := recordAudit(tx, "suspect_weapons", itoa(id), "delete", actor, map[string]int64{"id": id}); err != nil {
		return err
	}
	return tx.Commit()
}
