package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/repository"
)

const eventColumns = `event_id, organizer_id, organizer_name, organizer_type, title, description,
	city, address, date, time, event_type, skill_level, max_seats, seats_taken, image_url, created_at`

// Upcoming-first, then by start time, then creation order.
const eventOrder = ` ORDER BY date, time, created_at`

func scanEvent(row scanner) (*model.Event, error) {
	var e model.Event
	err := row.Scan(
		&e.ID, &e.OrganizerID, &e.OrganizerName, &e.OrganizerType, &e.Title, &e.Description,
		&e.City, &e.Address, &e.Date, &e.Time, &e.EventType, &e.SkillLevel,
		&e.MaxSeats, &e.SeatsTaken, &e.ImageURL, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func collectEvents(rows *sql.Rows) ([]model.Event, error) {
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning event row: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating events: %w", err)
	}
	return events, nil
}

// CreateEvent inserts e, assigning ID and CreatedAt. SeatsTaken always
// starts at zero.
func (db *DB) CreateEvent(ctx context.Context, e *model.Event) error {
	e.ID = newID("event")
	e.SeatsTaken = 0
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.OrganizerID, e.OrganizerName, e.OrganizerType, e.Title, e.Description,
		e.City, e.Address, e.Date, e.Time, e.EventType, e.SkillLevel,
		e.MaxSeats, e.SeatsTaken, e.ImageURL, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting event %q: %w", e.Title, err)
	}
	return nil
}

func (db *DB) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	return getEvent(ctx, db.conn, id)
}

// querier lets the same lookup run on the pool or inside a transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getEvent(ctx context.Context, q querier, id string) (*model.Event, error) {
	e, err := scanEvent(q.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE event_id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("event", id)
		}
		return nil, fmt.Errorf("sqlite: getting event %s: %w", id, err)
	}
	return e, nil
}

// ListEvents applies every non-zero field of filter with AND semantics.
func (db *DB) ListEvents(ctx context.Context, filter repository.EventFilter) ([]model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE 1=1`
	var args []any

	if filter.City != "" {
		query += ` AND LOWER(city) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(filter.City))
	}
	if filter.SkillLevel != "" {
		query += ` AND skill_level = ?`
		args = append(args, filter.SkillLevel)
	}
	if filter.EventType != "" {
		query += ` AND event_type = ?`
		args = append(args, filter.EventType)
	}
	if filter.DateFrom != "" {
		query += ` AND date >= ?`
		args = append(args, filter.DateFrom)
	}
	if filter.DateTo != "" {
		query += ` AND date < ?`
		args = append(args, filter.DateTo)
	}
	if filter.OrganizerID != "" {
		query += ` AND organizer_id = ?`
		args = append(args, filter.OrganizerID)
	}
	query += eventOrder + ` LIMIT ?`
	args = append(args, clampLimit(filter.Limit, repository.MaxEventList))

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing events: %w", err)
	}
	return collectEvents(rows)
}

func (db *DB) ListJoinedEvents(ctx context.Context, userID string, limit int) ([]model.Event, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+eventColumns+` FROM events
		 WHERE event_id IN (SELECT event_id FROM attendance WHERE user_id = ?)`+
			eventOrder+` LIMIT ?`,
		userID, clampLimit(limit, repository.MaxEventList))
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing joined events for %s: %w", userID, err)
	}
	return collectEvents(rows)
}

// DeleteEvent removes the event and its attendance together. The attendance
// delete is explicit so it does not depend on foreign_keys being enabled.
func (db *DB) DeleteEvent(ctx context.Context, id string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM attendance WHERE event_id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting attendance for %s: %w", id, err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE event_id = ?`, id)
		if err != nil {
			return fmt.Errorf("sqlite: deleting event %s: %w", id, err)
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperror.NotFound("event", id)
		}
		return nil
	})
}

// JoinEvent reserves a seat for a.UserID at a.EventID.
//
// Order of checks: the event must exist, must have a free seat, and the user
// must not already hold one. The seat increment is guarded by
// "seats_taken < max_seats" so it can never overshoot even if the earlier
// read was stale.
func (db *DB) JoinEvent(ctx context.Context, a *model.Attendance) error {
	a.ID = newID("att")
	if a.Status == "" {
		a.Status = model.AttendanceJoined
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	return db.withTx(ctx, func(tx *sql.Tx) error {
		event, err := getEvent(ctx, tx, a.EventID)
		if err != nil {
			return err
		}
		if event.IsFull() {
			return apperror.EventFull()
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO attendance (attendance_id, user_id, user_name, event_id, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			a.ID, a.UserID, a.UserName, a.EventID, a.Status, a.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.AlreadyJoined()
			}
			return fmt.Errorf("sqlite: inserting attendance: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`UPDATE events SET seats_taken = seats_taken + 1
			 WHERE event_id = ? AND seats_taken < max_seats`, a.EventID)
		if err != nil {
			return fmt.Errorf("sqlite: reserving seat on %s: %w", a.EventID, err)
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperror.EventFull()
		}
		return nil
	})
}

func (db *DB) LeaveEvent(ctx context.Context, userID, eventID string) (bool, error) {
	var clamped bool
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM attendance WHERE user_id = ? AND event_id = ?`, userID, eventID)
		if err != nil {
			return fmt.Errorf("sqlite: deleting attendance: %w", err)
		}
		n, err := rowsAffected(res)
		if err != nil {
			return err
		}
		if n == 0 {
			return apperror.NotFoundMessage("Not attending this event")
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE events SET seats_taken = seats_taken - 1
			 WHERE event_id = ? AND seats_taken > 0`, eventID)
		if err != nil {
			return fmt.Errorf("sqlite: releasing seat on %s: %w", eventID, err)
		}
		n, err = rowsAffected(res)
		if err != nil {
			return err
		}
		clamped = n == 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return clamped, nil
}

func (db *DB) GetAttendance(ctx context.Context, userID, eventID string) (*model.Attendance, error) {
	var a model.Attendance
	err := db.conn.QueryRowContext(ctx,
		`SELECT attendance_id, user_id, user_name, event_id, status, created_at
		 FROM attendance WHERE user_id = ? AND event_id = ?`, userID, eventID,
	).Scan(&a.ID, &a.UserID, &a.UserName, &a.EventID, &a.Status, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("Not attending this event")
		}
		return nil, fmt.Errorf("sqlite: getting attendance: %w", err)
	}
	return &a, nil
}

// ListAttendees returns attendance rows in join order.
func (db *DB) ListAttendees(ctx context.Context, eventID string, limit int) ([]model.Attendance, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT attendance_id, user_id, user_name, event_id, status, created_at
		 FROM attendance WHERE event_id = ?
		 ORDER BY created_at, rowid LIMIT ?`,
		eventID, clampLimit(limit, repository.MaxAttendeeList))
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing attendees of %s: %w", eventID, err)
	}
	defer rows.Close()

	attendees := []model.Attendance{}
	for rows.Next() {
		var a model.Attendance
		if err := rows.Scan(&a.ID, &a.UserID, &a.UserName, &a.EventID, &a.Status, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning attendance row: %w", err)
		}
		attendees = append(attendees, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating attendees: %w", err)
	}
	return attendees, nil
}

// CountEvents is used by the seeder to decide whether it already ran.
func (db *DB) CountEvents(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite: counting events: %w", err)
	}
	return n, nil
}
