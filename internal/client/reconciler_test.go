package client

import (
	"context"
	"testing"
	"time"

	"github.com/comment-sync-api/internal/models"
	"github.com/comment-sync-api/internal/protocol"
)

func int64ptr(v int64) *int64 { return &v }

func countByID(list []models.Comment, id int64) int {
	n := 0
	for _, c := range list {
		if c.ID == id {
			n++
		}
	}
	return n
}

func TestApplyCreateTopLevel(t *testing.T) {
	var thread threadState

	// Both null and the -1 sentinel mean top-level.
	thread.applyCreate(models.Comment{ID: 1, Body: "a"})
	thread.applyCreate(models.Comment{ID: 2, Body: "b", ParentCommentID: int64ptr(models.TopLevelSentinel)})

	for _, id := range []int64{1, 2} {
		if countByID(thread.flat, id) != 1 {
			t.Errorf("Comment %d: expected exactly one flat entry, got %d", id, countByID(thread.flat, id))
		}
		if countByID(thread.topLevel, id) != 1 {
			t.Errorf("Comment %d: expected exactly one top-level entry, got %d", id, countByID(thread.topLevel, id))
		}
	}
}

func TestApplyCreateReply(t *testing.T) {
	var thread threadState
	thread.applyCreate(models.Comment{ID: 1, Body: "root"})
	thread.applyCreate(models.Comment{ID: 2, Body: "reply", ParentCommentID: int64ptr(1)})

	if countByID(thread.flat, 2) != 1 {
		t.Errorf("Reply should appear in flat list once, got %d", countByID(thread.flat, 2))
	}
	if countByID(thread.topLevel, 2) != 0 {
		t.Errorf("Reply should not appear in top-level list, got %d", countByID(thread.topLevel, 2))
	}
}

func TestApplyEditUpdatesBothViews(t *testing.T) {
	var thread threadState
	thread.applyCreate(models.Comment{ID: 1, Body: "before", Version: 1})

	if !thread.applyEdit(1, "after", 2) {
		t.Fatal("Edit should have applied")
	}

	for _, list := range [][]models.Comment{thread.flat, thread.topLevel} {
		if list[0].Body != "after" {
			t.Errorf("Expected body 'after', got %q", list[0].Body)
		}
		if !list[0].Edited {
			t.Error("Expected edited flag set")
		}
	}
}

func TestApplyEditRejectsStaleVersion(t *testing.T) {
	var thread threadState
	thread.applyCreate(models.Comment{ID: 1, Body: "v3", Version: 3})

	if thread.applyEdit(1, "old", 2) {
		t.Fatal("Stale edit should have been dropped")
	}
	if thread.flat[0].Body != "v3" {
		t.Errorf("Body should be unchanged, got %q", thread.flat[0].Body)
	}
	if thread.flat[0].Edited {
		t.Error("Edited flag should be unchanged")
	}
}

func TestApplySoftDelete(t *testing.T) {
	var thread threadState
	thread.applyCreate(models.Comment{ID: 1, Body: "secret", CommenterID: "u1", Version: 1})
	thread.applyEdit(1, "edited secret", 2)

	thread.applySoftDelete(1, models.DeletedByUserBody)

	for _, list := range [][]models.Comment{thread.flat, thread.topLevel} {
		if countByID(list, 1) != 1 {
			t.Fatalf("Soft-deleted comment must stay in both views")
		}
		c := list[0]
		if c.Body != models.DeletedByUserBody {
			t.Errorf("Expected placeholder body, got %q", c.Body)
		}
		if c.CommenterID != "" {
			t.Errorf("Expected cleared commenter, got %q", c.CommenterID)
		}
		if c.Edited {
			t.Error("Stub must not be marked edited")
		}
	}
}

func TestApplyHardDeleteIsIdempotent(t *testing.T) {
	var thread threadState
	thread.applyCreate(models.Comment{ID: 1, Body: "a"})
	thread.applyCreate(models.Comment{ID: 2, Body: "b"})

	thread.applyHardDelete(1)
	thread.applyHardDelete(1) // already gone: no-op

	if countByID(thread.flat, 1) != 0 || countByID(thread.topLevel, 1) != 0 {
		t.Error("Hard-deleted comment should be gone from both views")
	}
	if countByID(thread.flat, 2) != 1 || countByID(thread.topLevel, 2) != 1 {
		t.Error("Other comments must survive a hard delete")
	}
}

func TestLoadRebuildsBothViews(t *testing.T) {
	var thread threadState
	thread.load([]models.Comment{
		{ID: 1},
		{ID: 2, ParentCommentID: int64ptr(1)},
		{ID: 3, ParentCommentID: int64ptr(models.TopLevelSentinel)},
	})

	if len(thread.flat) != 3 {
		t.Errorf("Expected 3 flat comments, got %d", len(thread.flat))
	}
	if len(thread.topLevel) != 2 {
		t.Errorf("Expected 2 top-level comments, got %d", len(thread.topLevel))
	}
}

func TestHardDeleteBroadcastDropsReactions(t *testing.T) {
	dialer := &fakeDialer{}
	s := newTestSession(t, dialer, fakeDirectory{})
	s.Connect(context.Background())

	s.LoadThread(
		[]models.Comment{{ID: 7, Body: "doomed"}, {ID: 8, Body: "bystander"}},
		map[int64][]models.CommentReaction{
			7: {{ID: 1, Type: models.ReactionUpVote, CommentID: 7, UserID: "u2"}},
			8: {{ID: 2, Type: models.ReactionUpVote, CommentID: 8, UserID: "u2"}},
		},
	)

	dialer.latest().push(t, protocol.CommentDeletionBroadcast{
		CommentID:  7,
		DeleteType: models.DeleteTypeDatabase,
		PostType:   "blog",
		PostID:     "p1",
	})

	if !waitFor(t, 2*time.Second, func() bool { return countByID(s.Comments(), 7) == 0 }) {
		t.Fatal("Hard-deleted comment never left the thread")
	}
	if got := s.Reactions(7); len(got) != 0 {
		t.Errorf("Expected reactions to vanish with the comment, got %d", len(got))
	}
	if got := s.Reactions(8); len(got) != 1 {
		t.Errorf("Other comments' reactions must survive, got %d", len(got))
	}
}
