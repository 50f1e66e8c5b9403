package main

import "database/sql"

func dbInit(db *sql.DB) error {
	var dbVersion int
	err := db.QueryRow("SELECT version FROM db_version WHERE name='sheetcal'").Scan(&dbVersion)
	if err != nil {
		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS db_version (
			name TEXT PRIMARY KEY,
			version INTEGER
		)`)
		if err != nil {
			return err
		}
		_, err = db.Exec(`INSERT INTO db_version (name, version) VALUES ('sheetcal', 0)`)
		if err != nil {
			return err
		}
		dbVersion = 0
	}

	if dbVersion == 0 {
		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS tokens (
			account_name TEXT PRIMARY KEY,
			token TEXT)`)
		if err != nil {
			return err
		}

		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS tracking (
			user_id TEXT NOT NULL,
			row_index INTEGER NOT NULL,
			event_id TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			sheet_row INTEGER NOT NULL DEFAULT 0,
			title TEXT NOT NULL DEFAULT '',
			date TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL,
			last_sync DATETIME NOT NULL,
			PRIMARY KEY (user_id, row_index))`)
		if err != nil {
			return err
		}

		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS state (
			user_id TEXT PRIMARY KEY,
			last_processed_row INTEGER NOT NULL DEFAULT 2)`)
		if err != nil {
			return err
		}

		_, err = db.Exec(`CREATE TABLE IF NOT EXISTS logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id TEXT NOT NULL,
			timestamp DATETIME NOT NULL,
			operation TEXT NOT NULL,
			rows_affected INTEGER NOT NULL DEFAULT 0,
			errors TEXT NOT NULL DEFAULT '',
			stats TEXT NOT NULL DEFAULT '{}')`)
		if err != nil {
			return err
		}

		dbVersion = 1
		_, err = db.Exec(`UPDATE db_version SET version = 1 WHERE name = 'sheetcal'`)
		if err != nil {
			return err
		}
	}

	return nil
}
