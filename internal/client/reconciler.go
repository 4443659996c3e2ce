package client

import (
	"context"
	"time"

	"github.com/comment-sync-api/internal/models"
	"github.com/comment-sync-api/internal/protocol"
)

// threadState holds the two derived views of the thread that every
// broadcast must keep consistent: the flat list of all comments and the
// top-level-only list.
type threadState struct {
	flat     []models.Comment
	topLevel []models.Comment
}

// load replaces the thread wholesale, rebuilding both views
func (t *threadState) load(comments []models.Comment) {
	t.flat = append([]models.Comment(nil), comments...)
	t.topLevel = t.topLevel[:0]
	for _, c := range t.flat {
		if c.IsTopLevel() {
			t.topLevel = append(t.topLevel, c)
		}
	}
}

// applyCreate appends to the flat list always, and to the top-level list
// iff the comment has no parent (null or the -1 sentinel).
func (t *threadState) applyCreate(c models.Comment) {
	t.flat = append(t.flat, c)
	if c.IsTopLevel() {
		t.topLevel = append(t.topLevel, c)
	}
}

// applyEdit replaces the matching comment's body in both views and marks it
// edited. Broadcasts that are not newer than the local copy are dropped, so
// reordered deliveries cannot resurrect stale bodies. Reports whether the
// edit was applied.
func (t *threadState) applyEdit(id int64, body string, version int64) bool {
	applied := false
	for _, list := range [][]models.Comment{t.flat, t.topLevel} {
		for i := range list {
			if list[i].ID != id {
				continue
			}
			if version != 0 && version <= list[i].Version {
				return false
			}
			list[i].Body = body
			list[i].Edited = true
			list[i].Version = version
			applied = true
		}
	}
	return applied
}

// applySoftDelete stubs the comment out in both views: placeholder body,
// cleared commenter, and edited reset to false so a stub is never shown as
// "edited".
func (t *threadState) applySoftDelete(id int64, placeholder string) {
	for _, list := range [][]models.Comment{t.flat, t.topLevel} {
		for i := range list {
			if list[i].ID == id {
				list[i].Body = placeholder
				list[i].CommenterID = ""
				list[i].Edited = false
				list[i].Version++
			}
		}
	}
}

// applyHardDelete filters the comment out of both views. Deleting an absent
// id is a no-op.
func (t *threadState) applyHardDelete(id int64) {
	t.flat = removeComment(t.flat, id)
	t.topLevel = removeComment(t.topLevel, id)
}

func removeComment(list []models.Comment, id int64) []models.Comment {
	out := list[:0]
	for _, c := range list {
		if c.ID != id {
			out = append(out, c)
		}
	}
	return out
}

// handleBroadcast routes one inbound frame to its reconciliation handler.
// Command frames arriving from the server are a protocol violation and are
// logged and ignored.
func (s *Session) handleBroadcast(ctx context.Context, msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.CommentCreationBroadcast:
		s.handleCreation(ctx, m)
	case protocol.CommentUpdateBroadcast:
		s.handleUpdate(m)
	case protocol.CommentDeletionBroadcast:
		s.handleDeletion(m)
	case protocol.CommentReactionBroadcast:
		s.handleReaction(m)
	default:
		s.log.Warn().Msgf("Unexpected frame from server: %T", msg)
	}
}

// handleCreation enriches the new comment with its author's display data,
// then appends it to the thread. Both the live path and the HTTP fallback
// converge here. If the author lookup fails the comment is not added: it is
// saved in the database but not displayed until a full reload.
func (s *Session) handleCreation(ctx context.Context, m protocol.CommentCreationBroadcast) {
	// Only this viewer's own broadcast settles their pending submit. Another
	// viewer's comment landing on the channel must not clear the flag.
	if m.CommenterID == s.cfg.InvokerID {
		defer s.finishOp(OpCreate)
	}

	s.mu.Lock()
	_, known := s.authors[m.CommenterID]
	s.mu.Unlock()

	var author *models.UserPublic
	if !known {
		lookupCtx, cancel := context.WithTimeout(ctx, s.cfg.OpTimeout)
		defer cancel()

		var err error
		author, err = s.cfg.Users.GetPublic(lookupCtx, m.CommenterID)
		if err != nil {
			s.log.Error().Err(err).
				Int64("comment_id", m.CommentID).
				Str("commenter_id", m.CommenterID).
				Msg("Commenter lookup failed: comment saved in database but not displayed")
			return
		}
	}

	version := m.Version
	if version == 0 {
		version = 1
	}
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if author != nil {
		s.authors[m.CommenterID] = *author
	}
	s.thread.applyCreate(models.Comment{
		ID:              m.CommentID,
		Body:            m.CommentBody,
		PostType:        m.PostType,
		PostID:          m.PostID,
		ParentCommentID: m.ParentCommentID,
		CommenterID:     m.CommenterID,
		Version:         version,
		Date:            date,
	})
}

func (s *Session) handleUpdate(m protocol.CommentUpdateBroadcast) {
	s.finishOp(OpEdit)

	s.mu.Lock()
	applied := s.thread.applyEdit(m.CommentID, m.CommentBody, m.Version)
	s.mu.Unlock()

	if !applied {
		s.log.Debug().Int64("comment_id", m.CommentID).Int64("version", m.Version).Msg("Dropped stale or unmatched update broadcast")
	}
}

// handleDeletion applies a soft delete when the broadcast carries a
// replacement body, otherwise a hard delete. The open delete prompt is
// cleared after a short delay so the exit animation can play.
func (s *Session) handleDeletion(m protocol.CommentDeletionBroadcast) {
	s.finishOp(OpDelete)

	s.mu.Lock()
	if m.CommentBody == "" {
		s.thread.applyHardDelete(m.CommentID)
		delete(s.reactions, m.CommentID)
	} else {
		s.thread.applySoftDelete(m.CommentID, m.CommentBody)
	}
	if s.deletePromptID == m.CommentID && s.deletePromptID != 0 {
		if s.promptTimer != nil {
			s.promptTimer.Stop()
		}
		s.promptTimer = time.AfterFunc(s.cfg.PromptClearDelay, func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.deletePromptID == m.CommentID {
				s.deletePromptID = 0
			}
		})
	}
	s.mu.Unlock()
}

func (s *Session) handleReaction(m protocol.CommentReactionBroadcast) {
	if m.InvokerID == s.cfg.InvokerID {
		s.finishOp(OpReact)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactions.apply(m.EndEffect, models.CommentReaction{
		ID:        m.ReactionID,
		Type:      m.ReactionType,
		CommentID: m.CommentID,
		UserID:    m.InvokerID,
		Date:      m.Date,
	}, s.log)
}
