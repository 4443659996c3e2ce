package protocol_test

import (
	"errors"
	"testing"

	"github.com/comment-sync-api/internal/models"
	"github.com/comment-sync-api/internal/protocol"
)

func TestDecodeCommand(t *testing.T) {
	frame := []byte(`{"action":"commentCreation","commentBody":"hello","postType":"blog","postID":"p1","parentCommentID":7,"invokerID":"u1"}`)

	msg, err := protocol.Decode(frame)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	creation, ok := msg.(protocol.CommentCreation)
	if !ok {
		t.Fatalf("Expected CommentCreation, got %T", msg)
	}
	if creation.CommentBody != "hello" {
		t.Errorf("Expected body 'hello', got %q", creation.CommentBody)
	}
	if creation.ParentCommentID == nil || *creation.ParentCommentID != 7 {
		t.Errorf("Expected parent 7, got %v", creation.ParentCommentID)
	}
}

func TestDecodeTopLevelCreationHasNilParent(t *testing.T) {
	frame := []byte(`{"action":"commentCreation","commentBody":"hi","postType":"blog","postID":"p1","invokerID":"u1"}`)

	msg, err := protocol.Decode(frame)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	creation := msg.(protocol.CommentCreation)
	if creation.ParentCommentID != nil {
		t.Errorf("Expected nil parent, got %v", *creation.ParentCommentID)
	}
}

func TestDecodeBroadcast(t *testing.T) {
	frame := []byte(`{"action":"commentReactionBroadcast","reactionID":3,"commentID":9,"invokerID":"u2","reactionType":"downVote","endEffect":"inversion","postType":"blog","postID":"p1"}`)

	msg, err := protocol.Decode(frame)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	b, ok := msg.(protocol.CommentReactionBroadcast)
	if !ok {
		t.Fatalf("Expected CommentReactionBroadcast, got %T", msg)
	}
	if b.EndEffect != models.EffectInversion {
		t.Errorf("Expected inversion effect, got %q", b.EndEffect)
	}
	if b.ReactionType != models.ReactionDownVote {
		t.Errorf("Expected downVote, got %q", b.ReactionType)
	}
}

func TestDecodeUnknownAction(t *testing.T) {
	_, err := protocol.Decode([]byte(`{"action":"totallyUnknown"}`))
	if !errors.Is(err, protocol.ErrUnknownAction) {
		t.Fatalf("Expected ErrUnknownAction, got %v", err)
	}
}

func TestDecodeMalformedPayload(t *testing.T) {
	cases := [][]byte{
		[]byte(`not json at all`),
		[]byte(`{"action":"commentUpdate","commentID":"not-a-number"}`),
		[]byte(``),
	}
	for _, frame := range cases {
		if _, err := protocol.Decode(frame); !errors.Is(err, protocol.ErrMalformedMessage) {
			t.Errorf("Frame %q: expected ErrMalformedMessage, got %v", frame, err)
		}
	}
}

func TestEncodeFillsActionTag(t *testing.T) {
	data, err := protocol.Encode(protocol.CommentDeletion{
		DeleteType: models.DeleteTypeUser,
		CommentID:  5,
		InvokerID:  "u1",
		PostType:   "blog",
		PostID:     "p1",
	})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	msg, err := protocol.Decode(data)
	if err != nil {
		t.Fatalf("Decode of encoded frame failed: %v", err)
	}
	deletion, ok := msg.(protocol.CommentDeletion)
	if !ok {
		t.Fatalf("Expected CommentDeletion round-trip, got %T", msg)
	}
	if deletion.CommentID != 5 || deletion.DeleteType != models.DeleteTypeUser {
		t.Errorf("Round-trip mismatch: %+v", deletion)
	}
}
