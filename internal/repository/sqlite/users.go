package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/repository"
)

const userColumns = `user_id, email, name, password_hash, user_type, skill_level, city, bio, picture,
	chess_com_username, chess_com_rating, lichess_username, lichess_rating, created_at`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner, extra ...any) (*model.User, error) {
	var u model.User
	dest := []any{
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.UserType, &u.SkillLevel,
		&u.City, &u.Bio, &u.Picture,
		&u.ChessComUsername, &u.ChessComRating, &u.LichessUsername, &u.LichessRating,
		&u.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser inserts a new account. ID and CreatedAt are assigned here and
// written back into u.
func (db *DB) CreateUser(ctx context.Context, u *model.User) error {
	u.ID = newID("user")
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.UserType == "" {
		u.UserType = model.UserTypeUser
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.PasswordHash, u.UserType, u.SkillLevel,
		u.City, u.Bio, u.Picture,
		u.ChessComUsername, u.ChessComRating, u.LichessUsername, u.LichessRating,
		u.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.DuplicateEmail()
		}
		return fmt.Errorf("sqlite: inserting user %s: %w", u.Email, err)
	}
	return nil
}

// GetUserByID returns apperror.ErrNotFound if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE user_id = ?`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("user", id)
		}
		return nil, fmt.Errorf("sqlite: getting user %s: %w", id, err)
	}
	return u, nil
}

// GetUserByEmail matches the email exactly.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFoundMessage("User not found with this email")
		}
		return nil, fmt.Errorf("sqlite: getting user by email: %w", err)
	}
	return u, nil
}

// UpdateProfile writes only the columns present in update and returns the
// resulting record.
func (db *DB) UpdateProfile(ctx context.Context, id string, update model.ProfileUpdate) (*model.User, error) {
	var (
		sets []string
		args []any
	)
	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.SkillLevel != nil {
		sets = append(sets, "skill_level = ?")
		args = append(args, *update.SkillLevel)
	}
	if update.City != nil {
		sets = append(sets, "city = ?")
		args = append(args, *update.City)
	}
	if update.Bio != nil {
		sets = append(sets, "bio = ?")
		args = append(args, *update.Bio)
	}
	if update.Picture != nil {
		sets = append(sets, "picture = ?")
		args = append(args, *update.Picture)
	}

	if len(sets) > 0 {
		args = append(args, id)
		res, err := db.conn.ExecContext(ctx,
			`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE user_id = ?`, args...)
		if err != nil {
			return nil, fmt.Errorf("sqlite: updating user %s: %w", id, err)
		}
		n, err := rowsAffected(res)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, apperror.NotFound("user", id)
		}
	}

	return db.GetUserByID(ctx, id)
}

// SetPicture overwrites the profile picture.
func (db *DB) SetPicture(ctx context.Context, id, picture string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET picture = ? WHERE user_id = ?`, picture, id)
	if err != nil {
		return fmt.Errorf("sqlite: setting picture for %s: %w", id, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// SetChessAccount stores the username/rating pair for platform. Passing a
// nil username clears both columns.
func (db *DB) SetChessAccount(ctx context.Context, id string, platform model.Platform, username *string, rating *int) error {
	var query string
	switch platform {
	case model.PlatformChessCom:
		query = `UPDATE users SET chess_com_username = ?, chess_com_rating = ? WHERE user_id = ?`
	case model.PlatformLichess:
		query = `UPDATE users SET lichess_username = ?, lichess_rating = ? WHERE user_id = ?`
	default:
		return apperror.ValidationFailed("platform", fmt.Sprintf("unknown platform %q", platform))
	}
	if username == nil {
		rating = nil
	}

	res, err := db.conn.ExecContext(ctx, query, username, rating, id)
	if err != nil {
		return fmt.Errorf("sqlite: setting %s account for %s: %w", platform, id, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFound("user", id)
	}
	return nil
}

// ListClubs returns club accounts, optionally filtered by a case-insensitive
// city substring, with member and event counts computed at read time.
func (db *DB) ListClubs(ctx context.Context, city string) ([]model.ClubSummary, error) {
	query := `SELECT ` + userColumns + `,
			(SELECT COUNT(*) FROM club_members m WHERE m.club_id = users.user_id),
			(SELECT COUNT(*) FROM events e WHERE e.organizer_id = users.user_id)
		FROM users WHERE user_type = 'club'`
	args := []any{}
	if city != "" {
		query += ` AND LOWER(COALESCE(city, '')) LIKE ? ESCAPE '\'`
		args = append(args, likePattern(city))
	}
	query += ` ORDER BY name LIMIT ?`
	args = append(args, repository.MaxClubList)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing clubs: %w", err)
	}
	defer rows.Close()

	clubs := []model.ClubSummary{}
	for rows.Next() {
		var members, events int
		u, err := scanUser(rows, &members, &events)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning club row: %w", err)
		}
		clubs = append(clubs, model.ClubSummary{User: *u, MemberCount: members, EventCount: events})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating clubs: %w", err)
	}
	return clubs, nil
}
