package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/chessmeet/chessmeet/internal/apperror"
	"github.com/chessmeet/chessmeet/internal/model"
	"github.com/chessmeet/chessmeet/internal/repository"
)

type PostService struct {
	posts  repository.PostRepository
	logger *slog.Logger
}

func NewPostService(posts repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{posts: posts, logger: logger}
}

// Create appends a post, snapshotting the author's current name and type.
func (s *PostService) Create(ctx context.Context, author *model.User, content string) (*model.Post, error) {
	content = plainText(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "content is required")
	}

	post := &model.Post{
		UserID:   author.ID,
		UserName: author.Name,
		UserType: author.UserType,
		Content:  content,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.logger.Info("post created", "post_id", post.ID, "user_id", author.ID)
	return post, nil
}

// List returns the newest posts, optionally from one author only.
func (s *PostService) List(ctx context.Context, authorID string) ([]model.Post, error) {
	return s.posts.ListPosts(ctx, strings.TrimSpace(authorID), repository.MaxPostList)
}
