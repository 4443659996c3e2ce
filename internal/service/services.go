package service

import (
	"context"
	"errors"

	"github.com/comment-sync-api/internal/models"
	"github.com/comment-sync-api/internal/repository"
	"github.com/rs/zerolog"
)

var (
	// ErrNotFound is returned when the target comment or user does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned for inputs that fail validation
	ErrInvalidInput = errors.New("invalid input")
)

// CommentService defines the interface for comment mutations and reads
type CommentService interface {
	Create(ctx context.Context, postType, postID string, parentID *int64, commenterID, body string) (*models.Comment, error)
	Update(ctx context.Context, commentID int64, invokerID, body string) (*models.Comment, error)
	// Delete applies a soft or hard delete depending on the delete type.
	// For soft deletes the returned comment carries the placeholder body;
	// for hard deletes the returned comment is nil.
	Delete(ctx context.Context, commentID int64, deleteType models.DeleteType, invokerID string) (*models.Comment, error)
	ListByPost(ctx context.Context, postType, postID string) ([]models.Comment, error)
	GetCommenter(ctx context.Context, userID string) (*models.UserPublic, error)
}

// ReactionService defines the interface for reaction mutations and reads
type ReactionService interface {
	// React applies a reaction command and reports what it ended up doing:
	// creation when the user had nothing relevant, deletion when the exact
	// (user, type) reaction already existed (toggle off), inversion when a
	// vote swapped for its opposite.
	React(ctx context.Context, commentID int64, userID string, reactionType models.ReactionType) (*models.CommentReaction, models.ReactionEffect, error)
	ListByPost(ctx context.Context, postType, postID string) (map[int64][]models.CommentReaction, error)
}

// Services holds all service interfaces
type Services struct {
	Comment  CommentService
	Reaction ReactionService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, log zerolog.Logger) *Services {
	return &Services{
		Comment:  newCommentService(repos, log),
		Reaction: newReactionService(repos, log),
	}
}
