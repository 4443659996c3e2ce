package mocks

import (
	"context"

	"github.com/comment-sync-api/internal/models"
	"github.com/comment-sync-api/internal/service"
)

// MockCommentService is a mock implementation of service.CommentService
type MockCommentService struct {
	CreateFunc       func(ctx context.Context, postType, postID string, parentID *int64, commenterID, body string) (*models.Comment, error)
	UpdateFunc       func(ctx context.Context, commentID int64, invokerID, body string) (*models.Comment, error)
	DeleteFunc       func(ctx context.Context, commentID int64, deleteType models.DeleteType, invokerID string) (*models.Comment, error)
	ListByPostFunc   func(ctx context.Context, postType, postID string) ([]models.Comment, error)
	GetCommenterFunc func(ctx context.Context, userID string) (*models.UserPublic, error)
}

func (m *MockCommentService) Create(ctx context.Context, postType, postID string, parentID *int64, commenterID, body string) (*models.Comment, error) {
	return m.CreateFunc(ctx, postType, postID, parentID, commenterID, body)
}

func (m *MockCommentService) Update(ctx context.Context, commentID int64, invokerID, body string) (*models.Comment, error) {
	return m.UpdateFunc(ctx, commentID, invokerID, body)
}

func (m *MockCommentService) Delete(ctx context.Context, commentID int64, deleteType models.DeleteType, invokerID string) (*models.Comment, error) {
	return m.DeleteFunc(ctx, commentID, deleteType, invokerID)
}

func (m *MockCommentService) ListByPost(ctx context.Context, postType, postID string) ([]models.Comment, error) {
	if m.ListByPostFunc == nil {
		return nil, nil
	}
	return m.ListByPostFunc(ctx, postType, postID)
}

func (m *MockCommentService) GetCommenter(ctx context.Context, userID string) (*models.UserPublic, error) {
	if m.GetCommenterFunc == nil {
		return &models.UserPublic{ID: userID}, nil
	}
	return m.GetCommenterFunc(ctx, userID)
}

// MockReactionService is a mock implementation of service.ReactionService
type MockReactionService struct {
	ReactFunc      func(ctx context.Context, commentID int64, userID string, reactionType models.ReactionType) (*models.CommentReaction, models.ReactionEffect, error)
	ListByPostFunc func(ctx context.Context, postType, postID string) (map[int64][]models.CommentReaction, error)
}

func (m *MockReactionService) React(ctx context.Context, commentID int64, userID string, reactionType models.ReactionType) (*models.CommentReaction, models.ReactionEffect, error) {
	return m.ReactFunc(ctx, commentID, userID, reactionType)
}

func (m *MockReactionService) ListByPost(ctx context.Context, postType, postID string) (map[int64][]models.CommentReaction, error) {
	if m.ListByPostFunc == nil {
		return map[int64][]models.CommentReaction{}, nil
	}
	return m.ListByPostFunc(ctx, postType, postID)
}

var (
	_ service.CommentService  = (*MockCommentService)(nil)
	_ service.ReactionService = (*MockReactionService)(nil)
)
