package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/comment-sync-api/internal/models"
	"github.com/comment-sync-api/internal/repository"
	"github.com/comment-sync-api/internal/validation"
	"github.com/rs/zerolog"
)

// reactionService is the concrete implementation of ReactionService
type reactionService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

func newReactionService(repos *repository.Repositories, log zerolog.Logger) ReactionService {
	return &reactionService{
		repos: repos,
		log:   log.With().Str("service", "reaction").Logger(),
	}
}

// React resolves a reaction command against the user's current reactions:
//
//   - the exact (user, type) reaction exists → remove it (toggle off)
//   - a vote command while the user holds the opposite vote → invert it in
//     one transaction, so the one-vote-per-user invariant never breaks
//   - otherwise → create it
func (s *reactionService) React(ctx context.Context, commentID int64, userID string, reactionType models.ReactionType) (*models.CommentReaction, models.ReactionEffect, error) {
	if verr := validation.InvokerID(userID); verr != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrInvalidInput, verr)
	}
	if verr := validation.ReactionType(reactionType); verr != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrInvalidInput, verr)
	}

	ok, err := s.repos.Comment.Exists(ctx, commentID)
	if err != nil {
		return nil, "", fmt.Errorf("checking comment: %w", err)
	}
	if !ok {
		return nil, "", fmt.Errorf("%w: comment %d", ErrNotFound, commentID)
	}

	existing, err := s.repos.Reaction.FindByUser(ctx, commentID, userID)
	if err != nil {
		return nil, "", fmt.Errorf("loading reactions: %w", err)
	}

	for _, r := range existing {
		if r.Type == reactionType {
			removed, err := s.repos.Reaction.Delete(ctx, commentID, userID, reactionType)
			if err != nil {
				return nil, "", fmt.Errorf("removing reaction: %w", err)
			}
			if !removed {
				// Raced with another session; treat as already gone.
				s.log.Warn().Int64("comment_id", commentID).Str("user_id", userID).Msg("Reaction vanished before delete")
			}
			s.log.Info().Int64("comment_id", commentID).Str("type", string(reactionType)).Msg("Reaction removed")
			return &r, models.EffectDeletion, nil
		}
	}

	if reactionType.IsVote() {
		inverted, err := s.repos.Reaction.Invert(ctx, commentID, userID, reactionType)
		if err == nil {
			s.log.Info().Int64("comment_id", commentID).Str("type", string(reactionType)).Msg("Vote inverted")
			return inverted, models.EffectInversion, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, "", fmt.Errorf("inverting vote: %w", err)
		}
		// No opposite vote to swap; fall through to plain creation.
	}

	reaction := &models.CommentReaction{
		Type:      reactionType,
		CommentID: commentID,
		UserID:    userID,
	}
	if err := s.repos.Reaction.Create(ctx, reaction); err != nil {
		return nil, "", fmt.Errorf("creating reaction: %w", err)
	}
	s.log.Info().Int64("comment_id", commentID).Str("type", string(reactionType)).Msg("Reaction created")
	return reaction, models.EffectCreation, nil
}

// ListByPost returns all reactions on a post keyed by comment id
func (s *reactionService) ListByPost(ctx context.Context, postType, postID string) (map[int64][]models.CommentReaction, error) {
	if verr := validation.PostRef(postType, postID); verr != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, verr)
	}
	return s.repos.Reaction.ListByPost(ctx, postType, postID)
}
