package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
func InitSchema(ctx context.Context, db *sql.DB) error {
	if err := createProfilesTable(ctx, db); err != nil {
		return err
	}
	return createCalendarTables(ctx, db)
}

// profiles stores the whole profile as a JSON document; it is always read
// and written as a unit.
func createProfilesTable(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS profiles (
		user_id TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create profiles table: %w", err)
	}

	return nil
}

func createCalendarTables(ctx context.Context, db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS calendars (
		user_id TEXT PRIMARY KEY,
		last_updated INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS scheduled_courses (
		user_id TEXT NOT NULL REFERENCES calendars(user_id) ON DELETE CASCADE,
		crn TEXT NOT NULL,
		title TEXT NOT NULL,
		instructor TEXT NOT NULL,
		schedule TEXT NOT NULL,
		days_of_week TEXT NOT NULL DEFAULT '[]',
		start_time TEXT NOT NULL DEFAULT '',
		end_time TEXT NOT NULL DEFAULT '',
		position INTEGER NOT NULL,
		PRIMARY KEY (user_id, crn)
	);
	CREATE INDEX IF NOT EXISTS idx_scheduled_courses_position ON scheduled_courses(user_id, position);
	`

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create calendar tables: %w", err)
	}

	return nil
}
