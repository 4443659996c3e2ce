package client

import (
	"github.com/comment-sync-api/internal/models"
	"github.com/rs/zerolog"
)

// reactionSet maps comment ids to their reactions. Each broadcast rebuilds
// the affected key copy-on-write, so readers holding a slice returned
// earlier never see it mutate underneath them.
type reactionSet map[int64][]models.CommentReaction

// apply reconciles one reaction broadcast effect into the set.
func (rs reactionSet) apply(effect models.ReactionEffect, r models.CommentReaction, log zerolog.Logger) {
	switch effect {
	case models.EffectCreation:
		// No dedupe here: repeated creation effects yield repeated entries,
		// matching the server's observed behavior.
		existing := rs[r.CommentID]
		next := make([]models.CommentReaction, 0, len(existing)+1)
		next = append(next, existing...)
		rs[r.CommentID] = append(next, r)

	case models.EffectDeletion:
		existing := rs[r.CommentID]
		next := make([]models.CommentReaction, 0, len(existing))
		for _, candidate := range existing {
			// Exact match only: same user AND same type.
			if candidate.UserID == r.UserID && candidate.Type == r.Type {
				continue
			}
			next = append(next, candidate)
		}
		rs[r.CommentID] = next

	case models.EffectInversion:
		// Drop the opposite vote and add the new one in a single map
		// update, so no reader observes the intermediate state.
		existing := rs[r.CommentID]
		next := make([]models.CommentReaction, 0, len(existing)+1)
		for _, candidate := range existing {
			if candidate.UserID == r.UserID && candidate.Type == r.Type.Opposite() {
				continue
			}
			next = append(next, candidate)
		}
		rs[r.CommentID] = append(next, r)

	default:
		log.Warn().Str("effect", string(effect)).Msg("Ignoring unknown reaction effect")
	}
}

// tally derives the vote counts for one comment
func (rs reactionSet) tally(commentID int64) (up, down int) {
	for _, r := range rs[commentID] {
		switch r.Type {
		case models.ReactionUpVote:
			up++
		case models.ReactionDownVote:
			down++
		}
	}
	return up, down
}
