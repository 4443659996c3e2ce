package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/comment-sync-api/internal/database"
	"github.com/comment-sync-api/internal/models"
)

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

const commentColumns = `id, body, post_type, post_id, parent_comment_id, commenter_id, edited, version, date`

// Create inserts a new comment and fills in the assigned id
func (r *commentRepo) Create(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (body, post_type, post_id, parent_comment_id, commenter_id, edited, version, date)
		VALUES ($1, $2, $3, $4, $5, false, 1, $6)
		RETURNING id
	`
	if comment.Date.IsZero() {
		comment.Date = time.Now()
	}
	comment.Version = 1
	return r.db.QueryRowContext(ctx, query,
		comment.Body, comment.PostType, comment.PostID, comment.ParentCommentID,
		comment.CommenterID, comment.Date,
	).Scan(&comment.ID)
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`

	var comment models.Comment
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&comment.ID, &comment.Body, &comment.PostType, &comment.PostID,
		&comment.ParentCommentID, &comment.CommenterID, &comment.Edited,
		&comment.Version, &comment.Date,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &comment, nil
}

// Exists checks if a comment with the given ID exists
func (r *commentRepo) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, "SELECT EXISTS(SELECT 1 FROM comments WHERE id = $1)", id).Scan(&exists)
	return exists, err
}

// UpdateBody replaces a comment's body, marks it edited and bumps its
// version. Returns the updated row.
func (r *commentRepo) UpdateBody(ctx context.Context, id int64, body string) (*models.Comment, error) {
	query := `
		UPDATE comments
		SET body = $2, edited = true, version = version + 1
		WHERE id = $1
		RETURNING ` + commentColumns

	var comment models.Comment
	err := r.db.QueryRowContext(ctx, query, id, body).Scan(
		&comment.ID, &comment.Body, &comment.PostType, &comment.PostID,
		&comment.ParentCommentID, &comment.CommenterID, &comment.Edited,
		&comment.Version, &comment.Date,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// SoftDelete stubs out a comment: placeholder body, cleared commenter,
// edited reset so the stub is not mistaken for an edit.
func (r *commentRepo) SoftDelete(ctx context.Context, id int64, placeholder string) (*models.Comment, error) {
	query := `
		UPDATE comments
		SET body = $2, commenter_id = '', edited = false, version = version + 1
		WHERE id = $1
		RETURNING ` + commentColumns

	var comment models.Comment
	err := r.db.QueryRowContext(ctx, query, id, placeholder).Scan(
		&comment.ID, &comment.Body, &comment.PostType, &comment.PostID,
		&comment.ParentCommentID, &comment.CommenterID, &comment.Edited,
		&comment.Version, &comment.Date,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// HardDelete removes a comment row entirely. Reactions go with it via the
// foreign key cascade. Deleting an absent id is a no-op.
func (r *commentRepo) HardDelete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, "DELETE FROM comments WHERE id = $1", id)
	return err
}

// ListByPost returns all comments on a post in creation order
func (r *commentRepo) ListByPost(ctx context.Context, postType, postID string) ([]models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE post_type = $1 AND post_id = $2 ORDER BY date, id`
	rows, err := r.db.QueryContext(ctx, query, postType, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var comment models.Comment
		err := rows.Scan(
			&comment.ID, &comment.Body, &comment.PostType, &comment.PostID,
			&comment.ParentCommentID, &comment.CommenterID, &comment.Edited,
			&comment.Version, &comment.Date,
		)
		if err != nil {
			return nil, err
		}
		comments = append(comments, comment)
	}

	return comments, rows.Err()
}
