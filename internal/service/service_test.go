package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/comment-sync-api/internal/mocks"
	"github.com/comment-sync-api/internal/models"
	"github.com/comment-sync-api/internal/service"
	"github.com/rs/zerolog"
)

func newServices() (*service.Services, *mocks.MockCommentRepository, *mocks.MockReactionRepository, *mocks.MockUserRepository) {
	repos, comments, reactions, users := mocks.NewMockRepositories()
	return service.NewServices(repos, zerolog.Nop()), comments, reactions, users
}

func TestCreateCommentValidation(t *testing.T) {
	svc, _, _, _ := newServices()
	ctx := context.Background()

	if _, err := svc.Comment.Create(ctx, "blog", "p1", nil, "u1", "   "); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("Blank body: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Comment.Create(ctx, "", "p1", nil, "u1", "hello"); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("Missing post type: expected ErrInvalidInput, got %v", err)
	}
	if _, err := svc.Comment.Create(ctx, "blog", "p1", nil, "", "hello"); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("Missing invoker: expected ErrInvalidInput, got %v", err)
	}
}

func TestCreateCommentMissingParent(t *testing.T) {
	svc, _, _, _ := newServices()
	parent := int64(999)

	_, err := svc.Comment.Create(context.Background(), "blog", "p1", &parent, "u1", "orphan")
	if !errors.Is(err, service.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for missing parent, got %v", err)
	}
}

func TestCreateCommentNormalizesSentinelParent(t *testing.T) {
	svc, _, _, _ := newServices()
	sentinel := models.TopLevelSentinel

	comment, err := svc.Comment.Create(context.Background(), "blog", "p1", &sentinel, "u1", "top")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if comment.ParentCommentID != nil {
		t.Errorf("Sentinel parent should normalize to nil, got %v", *comment.ParentCommentID)
	}
	if !comment.IsTopLevel() {
		t.Error("Expected a top-level comment")
	}
}

func TestUpdateCommentBumpsVersion(t *testing.T) {
	svc, _, _, _ := newServices()
	ctx := context.Background()

	comment, err := svc.Comment.Create(ctx, "blog", "p1", nil, "u1", "v1 body")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := svc.Comment.Update(ctx, comment.ID, "u1", "v2 body")
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Version != comment.Version+1 {
		t.Errorf("Expected version %d, got %d", comment.Version+1, updated.Version)
	}
	if !updated.Edited {
		t.Error("Expected edited flag set")
	}
}

func TestUpdateCommentRejectsOtherUsers(t *testing.T) {
	svc, _, _, _ := newServices()
	ctx := context.Background()

	comment, _ := svc.Comment.Create(ctx, "blog", "p1", nil, "u1", "mine")
	if _, err := svc.Comment.Update(ctx, comment.ID, "u2", "hijack"); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput for foreign edit, got %v", err)
	}
}

func TestDeleteCommentSoftAndHard(t *testing.T) {
	svc, commentRepo, _, _ := newServices()
	ctx := context.Background()

	soft, _ := svc.Comment.Create(ctx, "blog", "p1", nil, "u1", "soft target")
	hard, _ := svc.Comment.Create(ctx, "blog", "p1", nil, "u1", "hard target")

	stub, err := svc.Comment.Delete(ctx, soft.ID, models.DeleteTypeUser, "u1")
	if err != nil {
		t.Fatalf("Soft delete failed: %v", err)
	}
	if stub == nil || stub.Body != models.DeletedByUserBody {
		t.Errorf("Expected placeholder stub, got %+v", stub)
	}
	if stub.CommenterID != "" || stub.Edited {
		t.Errorf("Stub must clear commenter and edited, got %+v", stub)
	}

	gone, err := svc.Comment.Delete(ctx, hard.ID, models.DeleteTypeDatabase, "admin")
	if err != nil {
		t.Fatalf("Hard delete failed: %v", err)
	}
	if gone != nil {
		t.Errorf("Hard delete must return nil stub, got %+v", gone)
	}
	if _, exists := commentRepo.Comments[hard.ID]; exists {
		t.Error("Hard-deleted row should be gone")
	}
}

func TestDeleteRequiresOwnershipForUserDeletes(t *testing.T) {
	svc, _, _, _ := newServices()
	ctx := context.Background()

	comment, _ := svc.Comment.Create(ctx, "blog", "p1", nil, "u1", "mine")
	if _, err := svc.Comment.Delete(ctx, comment.ID, models.DeleteTypeUser, "u2"); !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput for foreign user delete, got %v", err)
	}
}

func TestReactCreationToggleAndInversion(t *testing.T) {
	svc, _, _, _ := newServices()
	ctx := context.Background()

	comment, _ := svc.Comment.Create(ctx, "blog", "p1", nil, "u1", "react to me")

	// Nothing held: creation.
	_, effect, err := svc.Reaction.React(ctx, comment.ID, "u2", models.ReactionUpVote)
	if err != nil {
		t.Fatalf("React failed: %v", err)
	}
	if effect != models.EffectCreation {
		t.Errorf("Expected creation effect, got %q", effect)
	}

	// Opposite vote held: inversion.
	_, effect, err = svc.Reaction.React(ctx, comment.ID, "u2", models.ReactionDownVote)
	if err != nil {
		t.Fatalf("React failed: %v", err)
	}
	if effect != models.EffectInversion {
		t.Errorf("Expected inversion effect, got %q", effect)
	}

	// Same reaction held: deletion (toggle off).
	_, effect, err = svc.Reaction.React(ctx, comment.ID, "u2", models.ReactionDownVote)
	if err != nil {
		t.Fatalf("React failed: %v", err)
	}
	if effect != models.EffectDeletion {
		t.Errorf("Expected deletion effect, got %q", effect)
	}
}

func TestReactEmojiNeverInverts(t *testing.T) {
	svc, _, reactionRepo, _ := newServices()
	ctx := context.Background()

	comment, _ := svc.Comment.Create(ctx, "blog", "p1", nil, "u1", "react to me")

	_, effect, _ := svc.Reaction.React(ctx, comment.ID, "u2", models.ReactionHeart)
	if effect != models.EffectCreation {
		t.Fatalf("Expected creation, got %q", effect)
	}
	_, effect, err := svc.Reaction.React(ctx, comment.ID, "u2", models.ReactionLaugh)
	if err != nil {
		t.Fatalf("React failed: %v", err)
	}
	if effect != models.EffectCreation {
		t.Errorf("Emoji reactions are not exclusive; expected creation, got %q", effect)
	}
	if len(reactionRepo.Reactions[comment.ID]) != 2 {
		t.Errorf("Expected both emoji reactions kept, got %d", len(reactionRepo.Reactions[comment.ID]))
	}
}

func TestReactUnknownTypeRejected(t *testing.T) {
	svc, _, _, _ := newServices()
	_, _, err := svc.Reaction.React(context.Background(), 1, "u1", models.ReactionType("sparkles"))
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
}

func TestGetCommenter(t *testing.T) {
	svc, _, _, userRepo := newServices()
	userRepo.Users["u1"] = &models.User{ID: "u1", Email: "u1@test.com", Name: "Uma"}

	public, err := svc.Comment.GetCommenter(context.Background(), "u1")
	if err != nil {
		t.Fatalf("GetCommenter failed: %v", err)
	}
	if public.Name != "Uma" {
		t.Errorf("Expected name Uma, got %q", public.Name)
	}

	if _, err := svc.Comment.GetCommenter(context.Background(), "nobody"); !errors.Is(err, service.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}
