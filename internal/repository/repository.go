package repository

import (
	"context"
	"errors"

	"github.com/comment-sync-api/internal/database"
	"github.com/comment-sync-api/internal/models"
)

// ErrNotFound is returned when a row the operation needs does not exist
var ErrNotFound = errors.New("not found")

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	Exists(ctx context.Context, id int64) (bool, error)
	UpdateBody(ctx context.Context, id int64, body string) (*models.Comment, error)
	SoftDelete(ctx context.Context, id int64, placeholder string) (*models.Comment, error)
	HardDelete(ctx context.Context, id int64) error
	ListByPost(ctx context.Context, postType, postID string) ([]models.Comment, error)
}

// ReactionRepository defines the interface for reaction data operations
type ReactionRepository interface {
	Create(ctx context.Context, reaction *models.CommentReaction) error
	Delete(ctx context.Context, commentID int64, userID string, reactionType models.ReactionType) (bool, error)
	// Invert removes the user's opposite-type vote and inserts the new one
	// in a single transaction. Returns the inserted reaction.
	Invert(ctx context.Context, commentID int64, userID string, to models.ReactionType) (*models.CommentReaction, error)
	FindByUser(ctx context.Context, commentID int64, userID string) ([]models.CommentReaction, error)
	ListByPost(ctx context.Context, postType, postID string) (map[int64][]models.CommentReaction, error)
}

// UserRepository defines the interface for commenter lookups
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Exists(ctx context.Context, id string) (bool, error)
}

// Repositories holds all repository interfaces
type Repositories struct {
	Comment  CommentRepository
	Reaction ReactionRepository
	User     UserRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Comment:  NewCommentRepo(db),
		Reaction: NewReactionRepo(db),
		User:     NewUserRepo(db),
	}
}
