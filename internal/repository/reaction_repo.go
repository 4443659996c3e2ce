package repository

import (
	"context"
	"time"

	"github.com/comment-sync-api/internal/database"
	"github.com/comment-sync-api/internal/models"
)

// reactionRepo is the concrete implementation of ReactionRepository
type reactionRepo struct {
	db *database.DB
}

// NewReactionRepo creates a new reaction repository
func NewReactionRepo(db *database.DB) ReactionRepository {
	return &reactionRepo{db: db}
}

// Create inserts a new reaction and fills in the assigned id
func (r *reactionRepo) Create(ctx context.Context, reaction *models.CommentReaction) error {
	query := `
		INSERT INTO comment_reactions (type, comment_id, user_id, date)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	if reaction.Date.IsZero() {
		reaction.Date = time.Now()
	}
	return r.db.QueryRowContext(ctx, query,
		reaction.Type, reaction.CommentID, reaction.UserID, reaction.Date,
	).Scan(&reaction.ID)
}

// Delete removes the reaction matching both the acting user and the exact
// reaction type. Reports whether a row was removed.
func (r *reactionRepo) Delete(ctx context.Context, commentID int64, userID string, reactionType models.ReactionType) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM comment_reactions WHERE comment_id = $1 AND user_id = $2 AND type = $3",
		commentID, userID, reactionType,
	)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Invert atomically swaps the user's opposite-type vote for the new one.
// Both statements run in one transaction so no reader ever observes the
// user holding zero or two votes.
func (r *reactionRepo) Invert(ctx context.Context, commentID int64, userID string, to models.ReactionType) (*models.CommentReaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		"DELETE FROM comment_reactions WHERE comment_id = $1 AND user_id = $2 AND type = $3",
		commentID, userID, to.Opposite(),
	)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	reaction := &models.CommentReaction{
		Type:      to,
		CommentID: commentID,
		UserID:    userID,
		Date:      time.Now(),
	}
	err = tx.QueryRowContext(ctx,
		"INSERT INTO comment_reactions (type, comment_id, user_id, date) VALUES ($1, $2, $3, $4) RETURNING id",
		reaction.Type, reaction.CommentID, reaction.UserID, reaction.Date,
	).Scan(&reaction.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return reaction, nil
}

// FindByUser returns the user's reactions on a comment
func (r *reactionRepo) FindByUser(ctx context.Context, commentID int64, userID string) ([]models.CommentReaction, error) {
	query := `SELECT id, type, comment_id, user_id, date FROM comment_reactions WHERE comment_id = $1 AND user_id = $2`
	rows, err := r.db.QueryContext(ctx, query, commentID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reactions []models.CommentReaction
	for rows.Next() {
		var reaction models.CommentReaction
		if err := rows.Scan(&reaction.ID, &reaction.Type, &reaction.CommentID, &reaction.UserID, &reaction.Date); err != nil {
			return nil, err
		}
		reactions = append(reactions, reaction)
	}
	return reactions, rows.Err()
}

// ListByPost returns all reactions on a post's comments keyed by comment id
func (r *reactionRepo) ListByPost(ctx context.Context, postType, postID string) (map[int64][]models.CommentReaction, error) {
	query := `
		SELECT cr.id, cr.type, cr.comment_id, cr.user_id, cr.date
		FROM comment_reactions cr
		JOIN comments c ON c.id = cr.comment_id
		WHERE c.post_type = $1 AND c.post_id = $2
	`
	rows, err := r.db.QueryContext(ctx, query, postType, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reactions := make(map[int64][]models.CommentReaction)
	for rows.Next() {
		var reaction models.CommentReaction
		if err := rows.Scan(&reaction.ID, &reaction.Type, &reaction.CommentID, &reaction.UserID, &reaction.Date); err != nil {
			return nil, err
		}
		reactions[reaction.CommentID] = append(reactions[reaction.CommentID], reaction)
	}
	return reactions, rows.Err()
}
