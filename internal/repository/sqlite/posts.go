package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/repository"
)

func (db *DB) CreatePost(ctx context.Context, p *model.Post) error {
	p.ID = newID("post")
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (post_id, user_id, user_name, user_type, content, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.UserName, p.UserType, p.Content, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("sqlite: inserting post: %w", err)
	}
	return nil
}

// ListPosts orders newest first. rowid breaks ties between posts created in
// the same instant so insertion order still wins.
func (db *DB) ListPosts(ctx context.Context, authorID string, limit int) ([]model.Post, error) {
	query := `SELECT post_id, user_id, user_name, user_type, content, created_at FROM posts`
	var args []any
	if authorID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, authorID)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, clampLimit(limit, repository.MaxPostList))

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.UserName, &p.UserType, &p.Content, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	return posts, nil
}
