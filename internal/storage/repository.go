package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domerrors "github.com/garyellow/degree-planner/internal/errors"
	"github.com/garyellow/degree-planner/internal/profile"
	"github.com/garyellow/degree-planner/internal/schedule"
)

var (
	_ profile.Repository  = (*DB)(nil)
	_ schedule.Repository = (*DB)(nil)
)

// GetProfile retrieves a user's profile.
// Returns a NotFoundError when the user has never saved one.
func (db *DB) GetProfile(ctx context.Context, userID string) (*profile.Profile, error) {
	query := `SELECT data FROM profiles WHERE user_id = ?`

	var data string
	err := db.conn.QueryRowContext(ctx, query, userID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domerrors.NewNotFoundError("profile", userID, "")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query profile",
			"user_id", userID,
			"error", err)
		return nil, fmt.Errorf("query profile: %w", err)
	}

	var p profile.Profile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		slog.ErrorContext(ctx, "failed to decode stored profile",
			"user_id", userID,
			"error", err)
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	return &p, nil
}

// SaveProfile inserts or replaces a user's profile
func (db *DB) SaveProfile(ctx context.Context, userID string, p *profile.Profile) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	query := `
		INSERT INTO profiles (user_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			data = excluded.data,
			updated_at = excluded.updated_at
	`
	start := time.Now()
	if _, err := db.conn.ExecContext(ctx, query, userID, string(data), start.Unix()); err != nil {
		slog.ErrorContext(ctx, "failed to save profile",
			"user_id", userID,
			"error", err)
		return fmt.Errorf("failed to save profile: %w", err)
	}

	warnIfSlow(ctx, "SaveProfile", userID, start)
	return nil
}

// GetCalendar retrieves a user's calendar with courses in insertion order.
// Returns a NotFoundError when the user has no calendar.
func (db *DB) GetCalendar(ctx context.Context, userID string) (*schedule.Calendar, error) {
	var lastUpdated int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT last_updated FROM calendars WHERE user_id = ?`, userID).Scan(&lastUpdated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domerrors.NewNotFoundError("calendar", userID, "")
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query calendar",
			"user_id", userID,
			"error", err)
		return nil, fmt.Errorf("query calendar: %w", err)
	}

	query := `
		SELECT crn, title, instructor, schedule, days_of_week, start_time, end_time
		FROM scheduled_courses
		WHERE user_id = ?
		ORDER BY position
	`
	rows, err := db.conn.QueryContext(ctx, query, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to query scheduled courses",
			"user_id", userID,
			"error", err)
		return nil, fmt.Errorf("query scheduled courses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cal := &schedule.Calendar{
		Courses:     []schedule.ScheduledCourse{},
		LastUpdated: time.UnixMilli(lastUpdated).UTC(),
	}
	for rows.Next() {
		var (
			c    schedule.ScheduledCourse
			crn  string
			days string
		)
		if err := rows.Scan(&crn, &c.Title, &c.Instructor, &c.Schedule, &days, &c.StartTime, &c.EndTime); err != nil {
			return nil, fmt.Errorf("scan scheduled course: %w", err)
		}
		c.CRN = schedule.CRN(crn)
		if err := json.Unmarshal([]byte(days), &c.DaysOfWeek); err != nil {
			slog.WarnContext(ctx, "ignoring malformed days_of_week",
				"user_id", userID,
				"crn", crn,
				"error", err)
			c.DaysOfWeek = nil
		}
		cal.Courses = append(cal.Courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scheduled courses: %w", err)
	}
	return cal, nil
}

// SaveCalendar replaces a user's calendar in a single transaction.
func (db *DB) SaveCalendar(ctx context.Context, userID string, cal *schedule.Calendar) (err error) {
	start := time.Now()
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin calendar transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			slog.ErrorContext(ctx, "failed to save calendar",
				"user_id", userID,
				"error", err)
		}
	}()

	upsert := `
		INSERT INTO calendars (user_id, last_updated)
		VALUES (?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			last_updated = excluded.last_updated
	`
	if _, err = tx.ExecContext(ctx, upsert, userID, cal.LastUpdated.UnixMilli()); err != nil {
		return fmt.Errorf("upsert calendar: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM scheduled_courses WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("clear scheduled courses: %w", err)
	}

	if len(cal.Courses) > 0 {
		var stmt *sql.Stmt
		stmt, err = tx.PrepareContext(ctx, `
			INSERT INTO scheduled_courses
				(user_id, crn, title, instructor, schedule, days_of_week, start_time, end_time, position)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("prepare scheduled course insert: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for i, c := range cal.Courses {
			days := c.DaysOfWeek
			if days == nil {
				days = []int{}
			}
			var encoded []byte
			encoded, err = json.Marshal(days)
			if err != nil {
				return fmt.Errorf("encode days_of_week: %w", err)
			}
			if _, err = stmt.ExecContext(ctx, userID, string(c.CRN), c.Title, c.Instructor, c.Schedule,
				string(encoded), c.StartTime, c.EndTime, i); err != nil {
				return fmt.Errorf("insert scheduled course %s: %w", c.CRN, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit calendar: %w", err)
	}

	warnIfSlow(ctx, "SaveCalendar", userID, start)
	return nil
}

// CountUsers returns how many users have a stored profile and how many have a
// stored calendar.
func (db *DB) CountUsers(ctx context.Context) (profiles, calendars int, err error) {
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&profiles); err != nil {
		return 0, 0, fmt.Errorf("count profiles: %w", err)
	}
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM calendars`).Scan(&calendars); err != nil {
		return 0, 0, fmt.Errorf("count calendars: %w", err)
	}
	return profiles, calendars, nil
}

func warnIfSlow(ctx context.Context, op, userID string, start time.Time) {
	if duration := time.Since(start); duration > slowQueryThreshold {
		slog.WarnContext(ctx, "slow database operation",
			"operation", op,
			"duration_ms", duration.Milliseconds(),
			"user_id", userID)
	}
}
