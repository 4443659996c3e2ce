package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/comment-sync-api/internal/models"
	"github.com/comment-sync-api/internal/protocol"
)

// CreateComment sends a comment creation. Live path when the channel is
// open; HTTP fallback otherwise or on a synchronous send failure.
func (s *Session) CreateComment(ctx context.Context, body string, parentCommentID *int64) error {
	if err := s.requireInvoker(); err != nil {
		return err
	}

	s.beginOp(OpCreate)
	msg := protocol.CommentCreation{
		CommentBody:     body,
		PostType:        s.cfg.PostType,
		PostID:          s.cfg.PostID,
		ParentCommentID: parentCommentID,
		InvokerID:       s.cfg.InvokerID,
	}
	if s.trySend(msg) {
		return nil
	}
	s.cancelOpTimer(OpCreate)
	return s.fallbackCreate(ctx, msg)
}

// EditComment sends a body replacement for a comment. There is no HTTP
// fallback for edits; with the channel down the operation fails with a
// user-visible error.
func (s *Session) EditComment(ctx context.Context, commentID int64, body string) error {
	if err := s.requireInvoker(); err != nil {
		return err
	}

	s.beginOp(OpEdit)
	msg := protocol.CommentUpdate{
		CommentBody: body,
		PostType:    s.cfg.PostType,
		PostID:      s.cfg.PostID,
		CommentID:   commentID,
		InvokerID:   s.cfg.InvokerID,
	}
	if s.trySend(msg) {
		return nil
	}
	s.failOp(OpEdit, "connection lost, refresh the page and try again")
	return ErrConnectionLost
}

// DeleteComment sends a deletion. Falls back to the deletion endpoint when
// the channel is down, synthesizing the broadcast the live path would have
// delivered so both paths share one state-change code path.
func (s *Session) DeleteComment(ctx context.Context, commentID int64, deleteType models.DeleteType) error {
	if err := s.requireInvoker(); err != nil {
		return err
	}

	s.beginOp(OpDelete)
	msg := protocol.CommentDeletion{
		DeleteType: deleteType,
		CommentID:  commentID,
		InvokerID:  s.cfg.InvokerID,
		PostType:   s.cfg.PostType,
		PostID:     s.cfg.PostID,
	}
	if s.trySend(msg) {
		return nil
	}
	s.cancelOpTimer(OpDelete)
	return s.fallbackDelete(ctx, msg)
}

// React sends a reaction toggle. Like edits, reactions have no HTTP
// fallback.
func (s *Session) React(ctx context.Context, commentID int64, reactionType models.ReactionType) error {
	if err := s.requireInvoker(); err != nil {
		return err
	}

	s.beginOp(OpReact)
	msg := protocol.CommentReaction{
		PostType:     s.cfg.PostType,
		PostID:       s.cfg.PostID,
		CommentID:    commentID,
		InvokerID:    s.cfg.InvokerID,
		ReactionType: reactionType,
	}
	if s.trySend(msg) {
		return nil
	}
	s.failOp(OpReact, "connection lost, refresh the page and try again")
	return ErrConnectionLost
}

// requireInvoker refuses mutating operations for anonymous viewers before
// any network call happens.
func (s *Session) requireInvoker() error {
	if s.cfg.InvokerID == "" {
		s.mu.Lock()
		s.errMsg = "sign in to comment"
		s.mu.Unlock()
		return ErrNotSignedIn
	}
	return nil
}

// trySend writes a command on the live channel. Returns false, without
// surfacing anything, when the channel is not open or the write fails
// synchronously, so the caller can take the fallback path.
func (s *Session) trySend(msg protocol.Message) bool {
	s.mu.Lock()
	conn := s.conn
	connected := s.state == StateConnected
	s.mu.Unlock()

	if !connected || conn == nil {
		return false
	}

	data, err := protocol.Encode(msg)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to encode command")
		return false
	}
	if err := conn.WriteMessage(data); err != nil {
		s.log.Warn().Err(err).Msg("Live send failed, taking fallback")
		return false
	}
	return true
}

// fallbackCreate posts the comment to the creation endpoint and feeds the
// returned id plus the original inputs through the same broadcast handler
// the live path uses.
func (s *Session) fallbackCreate(ctx context.Context, msg protocol.CommentCreation) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		s.failOp(OpCreate, "could not save your comment")
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.cfg.FallbackBaseURL+"/v1/comments", bytes.NewReader(payload))
	if err != nil {
		s.failOp(OpCreate, "could not save your comment")
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		s.failOp(OpCreate, "could not save your comment")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		s.failOp(OpCreate, "could not save your comment")
		return fmt.Errorf("creation fallback: unexpected status %d", resp.StatusCode)
	}

	var result struct {
		Data int64 `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		s.failOp(OpCreate, "could not save your comment")
		return fmt.Errorf("creation fallback: %w", err)
	}

	s.beginOp(OpCreate) // re-arm so handleCreation's finishOp pairs up
	s.handleCreation(ctx, protocol.CommentCreationBroadcast{
		CommentID:       result.Data,
		CommentBody:     msg.CommentBody,
		PostType:        msg.PostType,
		PostID:          msg.PostID,
		ParentCommentID: msg.ParentCommentID,
		CommenterID:     msg.InvokerID,
		Version:         1,
		Date:            time.Now(),
	})
	return nil
}

// fallbackDelete calls the deletion endpoint directly (no broadcast exists
// on the HTTP path) and synthesizes a broadcast-shaped object for the
// shared deletion handler.
func (s *Session) fallbackDelete(ctx context.Context, msg protocol.CommentDeletion) error {
	endpoint := fmt.Sprintf("%s/v1/comments/%d?%s", s.cfg.FallbackBaseURL, msg.CommentID,
		url.Values{
			"deleteType": {string(msg.DeleteType)},
			"invokerID":  {msg.InvokerID},
			"postType":   {msg.PostType},
			"postID":     {msg.PostID},
		}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		s.failOp(OpDelete, "could not delete the comment")
		return err
	}

	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		s.failOp(OpDelete, "could not delete the comment")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		s.failOp(OpDelete, "could not delete the comment")
		return fmt.Errorf("deletion fallback: unexpected status %d", resp.StatusCode)
	}

	var result struct {
		CommentBody string `json:"commentBody"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		s.failOp(OpDelete, "could not delete the comment")
		return fmt.Errorf("deletion fallback: %w", err)
	}

	s.beginOp(OpDelete)
	s.handleDeletion(protocol.CommentDeletionBroadcast{
		CommentID:   msg.CommentID,
		CommentBody: result.CommentBody,
		DeleteType:  msg.DeleteType,
		PostType:    msg.PostType,
		PostID:      msg.PostID,
	})
	return nil
}
