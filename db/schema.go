// ABOUTME: Database schema definitions for the people store
// ABOUTME: People rows, their ordered labeled values, and per-source import state
package db

import (
	"database/sql"
	"fmt"
)

const schema = `
PRAGMA foreign_keys = ON;

CREATE TABLE IF NOT EXISTS people (
	id TEXT PRIMARY KEY,
	given_name TEXT NOT NULL DEFAULT '',
	family_name TEXT,
	company TEXT,
	note TEXT,
	image_data BLOB,
	person_type TEXT NOT NULL DEFAULT 'acquaintance'
		CHECK(person_type IN ('family', 'friend', 'acquaintance', 'business', 'client')),
	preferred_language TEXT CHECK(preferred_language IN ('english', 'spanish')),
	availability TEXT NOT NULL DEFAULT '[]',
	birthday TEXT,
	group_tags TEXT NOT NULL DEFAULT '[]',
	external_id TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_people_given_name ON people(given_name);
CREATE UNIQUE INDEX IF NOT EXISTS idx_people_external_id ON people(external_id) WHERE external_id <> '';

CREATE TABLE IF NOT EXISTS labeled_values (
	person_id TEXT NOT NULL,
	category TEXT NOT NULL
		CHECK(category IN ('phone', 'email', 'social', 'postal', 'url', 'relation')),
	position INTEGER NOT NULL,
	label TEXT,
	value TEXT NOT NULL,
	PRIMARY KEY (person_id, category, position),
	FOREIGN KEY (person_id) REFERENCES people(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS sync_state (
	service TEXT PRIMARY KEY,
	last_sync_time DATETIME,
	status TEXT CHECK(status IN ('idle', 'syncing', 'error')),
	error_message TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

func InitSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
