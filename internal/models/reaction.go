package models

import (
	"time"
)

// ReactionType is the kind of reaction left on a comment
type ReactionType string

const (
	ReactionUpVote   ReactionType = "upVote"
	ReactionDownVote ReactionType = "downVote"
	ReactionLaugh    ReactionType = "laugh"
	ReactionHeart    ReactionType = "heart"
	ReactionSurprise ReactionType = "surprise"
)

// ValidReactionTypes defines allowed reaction types
var ValidReactionTypes = map[ReactionType]bool{
	ReactionUpVote:   true,
	ReactionDownVote: true,
	ReactionLaugh:    true,
	ReactionHeart:    true,
	ReactionSurprise: true,
}

// IsVote reports whether the reaction participates in the one-vote-per-user
// invariant (upVote/downVote are mutually exclusive per user per comment).
func (t ReactionType) IsVote() bool {
	return t == ReactionUpVote || t == ReactionDownVote
}

// Opposite returns the other vote type. Only meaningful when IsVote is true.
func (t ReactionType) Opposite() ReactionType {
	if t == ReactionUpVote {
		return ReactionDownVote
	}
	return ReactionUpVote
}

// CommentReaction represents one user's reaction on a comment
type CommentReaction struct {
	ID        int64        `json:"id" db:"id"`
	Type      ReactionType `json:"type" db:"type"`
	CommentID int64        `json:"comment_id" db:"comment_id"`
	UserID    string       `json:"user_id" db:"user_id"`
	Date      time.Time    `json:"date" db:"date"`
}

// ReactionEffect describes what a reaction command ended up doing on the
// server: adding a reaction, removing one, or swapping a vote for its
// opposite in a single step.
type ReactionEffect string

const (
	EffectCreation  ReactionEffect = "creation"
	EffectDeletion  ReactionEffect = "deletion"
	EffectInversion ReactionEffect = "inversion"
)

// VoteTally is the derived up/down count for a single comment
type VoteTally struct {
	CommentID int64 `json:"comment_id"`
	UpVotes   int   `json:"up_votes"`
	DownVotes int   `json:"down_votes"`
}
