package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/comment-sync-api/internal/models"
	"github.com/comment-sync-api/internal/repository"
	"github.com/comment-sync-api/internal/validation"
	"github.com/rs/zerolog"
)

// commentService is the concrete implementation of CommentService
type commentService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

func newCommentService(repos *repository.Repositories, log zerolog.Logger) CommentService {
	return &commentService{
		repos: repos,
		log:   log.With().Str("service", "comment").Logger(),
	}
}

// Create validates the inputs, checks the parent exists for replies, and
// inserts the comment. The legacy -1 parent sentinel is normalized to null.
func (s *commentService) Create(ctx context.Context, postType, postID string, parentID *int64, commenterID, body string) (*models.Comment, error) {
	if verr := validation.PostRef(postType, postID); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, verr)
	}
	if verr := validation.InvokerID(commenterID); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, verr)
	}
	if verr := validation.CommentBody(body); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, verr)
	}

	if models.IsTopLevelParent(parentID) {
		parentID = nil
	} else {
		ok, err := s.repos.Comment.Exists(ctx, *parentID)
		if err != nil {
			return nil, fmt.Errorf("checking parent comment: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w: parent comment %d", ErrNotFound, *parentID)
		}
	}

	comment := &models.Comment{
		Body:            strings.TrimSpace(body),
		PostType:        postType,
		PostID:          postID,
		ParentCommentID: parentID,
		CommenterID:     commenterID,
	}
	if err := s.repos.Comment.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.log.Info().
		Int64("comment_id", comment.ID).
		Str("post_type", postType).
		Str("post_id", postID).
		Bool("top_level", comment.IsTopLevel()).
		Msg("Comment created")

	return comment, nil
}

// Update replaces a comment's body. Only the original commenter may edit.
func (s *commentService) Update(ctx context.Context, commentID int64, invokerID, body string) (*models.Comment, error) {
	if verr := validation.InvokerID(invokerID); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, verr)
	}
	if verr := validation.CommentBody(body); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, verr)
	}

	existing, err := s.repos.Comment.GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("loading comment: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: comment %d", ErrNotFound, commentID)
	}
	if existing.CommenterID != invokerID {
		return nil, fmt.Errorf("%w: only the commenter may edit", ErrInvalidInput)
	}

	updated, err := s.repos.Comment.UpdateBody(ctx, commentID, strings.TrimSpace(body))
	if err != nil {
		return nil, fmt.Errorf("updating comment: %w", err)
	}

	s.log.Info().Int64("comment_id", commentID).Int64("version", updated.Version).Msg("Comment updated")
	return updated, nil
}

// Delete applies the deletion policy: user and admin deletes stub the row
// out with a placeholder; database deletes remove it entirely.
func (s *commentService) Delete(ctx context.Context, commentID int64, deleteType models.DeleteType, invokerID string) (*models.Comment, error) {
	if verr := validation.DeleteType(deleteType); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, verr)
	}
	if verr := validation.InvokerID(invokerID); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, verr)
	}

	existing, err := s.repos.Comment.GetByID(ctx, commentID)
	if err != nil {
		return nil, fmt.Errorf("loading comment: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("%w: comment %d", ErrNotFound, commentID)
	}
	if deleteType == models.DeleteTypeUser && existing.CommenterID != invokerID {
		return nil, fmt.Errorf("%w: only the commenter may delete", ErrInvalidInput)
	}

	placeholder := deleteType.PlaceholderBody()
	if placeholder == "" {
		if err := s.repos.Comment.HardDelete(ctx, commentID); err != nil {
			return nil, fmt.Errorf("deleting comment: %w", err)
		}
		s.log.Info().Int64("comment_id", commentID).Str("delete_type", string(deleteType)).Msg("Comment removed")
		return nil, nil
	}

	stub, err := s.repos.Comment.SoftDelete(ctx, commentID, placeholder)
	if err != nil {
		return nil, fmt.Errorf("stubbing comment: %w", err)
	}
	s.log.Info().Int64("comment_id", commentID).Str("delete_type", string(deleteType)).Msg("Comment stubbed")
	return stub, nil
}

// ListByPost returns the full thread for a post in creation order
func (s *commentService) ListByPost(ctx context.Context, postType, postID string) ([]models.Comment, error) {
	if verr := validation.PostRef(postType, postID); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, verr)
	}
	return s.repos.Comment.ListByPost(ctx, postType, postID)
}

// GetCommenter returns the display subset of a commenter
func (s *commentService) GetCommenter(ctx context.Context, userID string) (*models.UserPublic, error) {
	user, err := s.repos.User.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	public := user.Public()
	return &public, nil
}
