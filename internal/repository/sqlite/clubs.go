package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/repository"
)

// AddMember inserts m, assigning ID and JoinedAt. The UNIQUE (club_id,
// user_id) constraint turns a second add into apperror.AlreadyMember.
func (db *DB) AddMember(ctx context.Context, m *model.ClubMember) error {
	m.ID = newID("member")
	if m.JoinedAt.IsZero() {
		m.JoinedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO club_members (member_id, club_id, user_id, user_name, user_email, skill_level, joined_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ClubID, m.UserID, m.UserName, m.UserEmail, m.SkillLevel, m.JoinedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.AlreadyMember()
		}
		return fmt.Errorf("sqlite: adding member to %s: %w", m.ClubID, err)
	}
	return nil
}

// RemoveMember only matches rows owned by clubID, so one club can never
// remove another club's member.
func (db *DB) RemoveMember(ctx context.Context, clubID, memberID string) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM club_members WHERE member_id = ? AND club_id = ?`, memberID, clubID)
	if err != nil {
		return fmt.Errorf("sqlite: removing member %s: %w", memberID, err)
	}
	n, err := rowsAffected(res)
	if err != nil {
		return err
	}
	if n == 0 {
		return apperror.NotFoundMessage("Member not found")
	}
	return nil
}

func (db *DB) ListMembers(ctx context.Context, clubID string, limit int) ([]model.ClubMember, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT member_id, club_id, user_id, user_name, user_email, skill_level, joined_at
		 FROM club_members WHERE club_id = ?
		 ORDER BY joined_at, rowid LIMIT ?`,
		clubID, clampLimit(limit, repository.MaxMemberList))
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing members of %s: %w", clubID, err)
	}
	defer rows.Close()

	members := []model.ClubMember{}
	for rows.Next() {
		var m model.ClubMember
		if err := rows.Scan(&m.ID, &m.ClubID, &m.UserID, &m.UserName, &m.UserEmail, &m.SkillLevel, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating members: %w", err)
	}
	return members, nil
}
