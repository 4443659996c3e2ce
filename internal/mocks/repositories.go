package mocks

import (
	"context"
	"time"

	"github.com/comment-sync-api/internal/models"
	"github.com/comment-sync-api/internal/repository"
)

// MockCommentRepository is a mock implementation of CommentRepository
type MockCommentRepository struct {
	Comments    map[int64]*models.Comment
	NextID      int64
	CreateError error
}

func NewMockCommentRepository() *MockCommentRepository {
	return &MockCommentRepository{
		Comments: make(map[int64]*models.Comment),
		NextID:   1,
	}
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	comment.ID = m.NextID
	m.NextID++
	comment.Version = 1
	if comment.Date.IsZero() {
		comment.Date = time.Now()
	}
	stored := *comment
	m.Comments[comment.ID] = &stored
	return nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	c, ok := m.Comments[id]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (m *MockCommentRepository) Exists(ctx context.Context, id int64) (bool, error) {
	_, exists := m.Comments[id]
	return exists, nil
}

func (m *MockCommentRepository) UpdateBody(ctx context.Context, id int64, body string) (*models.Comment, error) {
	c, ok := m.Comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.Body = body
	c.Edited = true
	c.Version++
	copied := *c
	return &copied, nil
}

func (m *MockCommentRepository) SoftDelete(ctx context.Context, id int64, placeholder string) (*models.Comment, error) {
	c, ok := m.Comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.Body = placeholder
	c.CommenterID = ""
	c.Edited = false
	c.Version++
	copied := *c
	return &copied, nil
}

func (m *MockCommentRepository) HardDelete(ctx context.Context, id int64) error {
	delete(m.Comments, id)
	return nil
}

func (m *MockCommentRepository) ListByPost(ctx context.Context, postType, postID string) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range m.Comments {
		if c.PostType == postType && c.PostID == postID {
			out = append(out, *c)
		}
	}
	return out, nil
}

// MockReactionRepository is a mock implementation of ReactionRepository
type MockReactionRepository struct {
	Reactions map[int64][]models.CommentReaction
	NextID    int64
}

func NewMockReactionRepository() *MockReactionRepository {
	return &MockReactionRepository{
		Reactions: make(map[int64][]models.CommentReaction),
		NextID:    1,
	}
}

func (m *MockReactionRepository) Create(ctx context.Context, reaction *models.CommentReaction) error {
	reaction.ID = m.NextID
	m.NextID++
	if reaction.Date.IsZero() {
		reaction.Date = time.Now()
	}
	m.Reactions[reaction.CommentID] = append(m.Reactions[reaction.CommentID], *reaction)
	return nil
}

func (m *MockReactionRepository) Delete(ctx context.Context, commentID int64, userID string, reactionType models.ReactionType) (bool, error) {
	existing := m.Reactions[commentID]
	var next []models.CommentReaction
	removed := false
	for _, r := range existing {
		if r.UserID == userID && r.Type == reactionType {
			removed = true
			continue
		}
		next = append(next, r)
	}
	m.Reactions[commentID] = next
	return removed, nil
}

func (m *MockReactionRepository) Invert(ctx context.Context, commentID int64, userID string, to models.ReactionType) (*models.CommentReaction, error) {
	removed, err := m.Delete(ctx, commentID, userID, to.Opposite())
	if err != nil {
		return nil, err
	}
	if !removed {
		return nil, repository.ErrNotFound
	}
	reaction := &models.CommentReaction{Type: to, CommentID: commentID, UserID: userID}
	if err := m.Create(ctx, reaction); err != nil {
		return nil, err
	}
	return reaction, nil
}

func (m *MockReactionRepository) FindByUser(ctx context.Context, commentID int64, userID string) ([]models.CommentReaction, error) {
	var out []models.CommentReaction
	for _, r := range m.Reactions[commentID] {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockReactionRepository) ListByPost(ctx context.Context, postType, postID string) (map[int64][]models.CommentReaction, error) {
	out := make(map[int64][]models.CommentReaction, len(m.Reactions))
	for id, rs := range m.Reactions {
		out[id] = append([]models.CommentReaction(nil), rs...)
	}
	return out, nil
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	Users map[string]*models.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{Users: make(map[string]*models.User)}
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := m.Users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (m *MockUserRepository) Exists(ctx context.Context, id string) (bool, error) {
	_, exists := m.Users[id]
	return exists, nil
}

// NewMockRepositories bundles fresh mocks into a repository aggregate
func NewMockRepositories() (*repository.Repositories, *MockCommentRepository, *MockReactionRepository, *MockUserRepository) {
	comments := NewMockCommentRepository()
	reactions := NewMockReactionRepository()
	users := NewMockUserRepository()
	return &repository.Repositories{
		Comment:  comments,
		Reaction: reactions,
		User:     users,
	}, comments, reactions, users
}
