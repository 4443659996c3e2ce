// Package hub fans server-side comment mutations out to every WebSocket
// viewer of the same post. Each connected viewer is a Client subscribed to
// one channel, keyed by the post it is viewing.
package hub

import (
	"context"
	"sync"

	"github.com/comment-sync-api/internal/models"
	"github.com/comment-sync-api/internal/protocol"
	"github.com/comment-sync-api/internal/service"
	"github.com/rs/zerolog"
)

// Channel identifies one post's broadcast group
type Channel struct {
	PostType string
	PostID   string
}

// Hub owns the channel registry and applies inbound commands through the
// services before broadcasting the result.
type Hub struct {
	services *service.Services
	log      zerolog.Logger

	mu       sync.Mutex
	channels map[Channel]map[*Client]struct{}
}

// New creates a hub
func New(services *service.Services, log zerolog.Logger) *Hub {
	return &Hub{
		services: services,
		log:      log.With().Str("component", "hub").Logger(),
		channels: make(map[Channel]map[*Client]struct{}),
	}
}

// Subscribe moves a client onto a channel, leaving its previous one. A
// dropped client's send channel is closed, so it may never come back: a late
// command from its still-draining read pump must not re-register it.
func (h *Hub) Subscribe(c *Client, ch Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if c.closed {
		return
	}
	h.removeLocked(c)
	if h.channels[ch] == nil {
		h.channels[ch] = make(map[*Client]struct{})
	}
	h.channels[ch][c] = struct{}{}
	c.channel = ch
}

// Unsubscribe removes a client from its channel
func (h *Hub) Unsubscribe(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *Client) {
	if members, ok := h.channels[c.channel]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.channels, c.channel)
		}
	}
}

// drop retires a client for good: unsubscribed, marked closed so Subscribe
// refuses it, and its send channel closed so the write pump drains out.
func (h *Hub) drop(c *Client) {
	h.mu.Lock()
	c.closed = true
	h.removeLocked(c)
	h.mu.Unlock()
	c.closeSend()
}

// Broadcast encodes a message once and queues it to every subscriber of the
// channel. Clients whose write buffer is full are dropped rather than
// blocking the rest of the channel.
func (h *Hub) Broadcast(ch Channel, msg protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to encode broadcast")
		return
	}

	h.mu.Lock()
	var stalled []*Client
	for c := range h.channels[ch] {
		select {
		case c.send <- data:
		default:
			stalled = append(stalled, c)
		}
	}
	for _, c := range stalled {
		c.closed = true
		h.removeLocked(c)
		h.log.Warn().Str("invoker_id", c.invokerID).Msg("Dropping stalled client")
	}
	h.mu.Unlock()

	for _, c := range stalled {
		c.closeSend()
	}
}

// SubscriberCount reports how many clients are on a channel
func (h *Hub) SubscriberCount(ch Channel) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.channels[ch])
}

// HandleCommand applies one inbound client command and broadcasts the
// outcome to the command's channel. Errors are logged and swallowed; a bad
// command from one viewer must not take the channel down.
func (h *Hub) HandleCommand(ctx context.Context, c *Client, msg protocol.Message) {
	switch m := msg.(type) {
	case protocol.ChannelUpdate:
		h.mu.Lock()
		c.invokerID = m.InvokerID
		h.mu.Unlock()
		h.Subscribe(c, Channel{PostType: m.PostType, PostID: m.PostID})
		h.log.Debug().Str("post_type", m.PostType).Str("post_id", m.PostID).Str("invoker_id", m.InvokerID).Msg("Viewer joined channel")

	case protocol.CommentCreation:
		comment, err := h.services.Comment.Create(ctx, m.PostType, m.PostID, m.ParentCommentID, m.InvokerID, m.CommentBody)
		if err != nil {
			h.log.Warn().Err(err).Msg("Comment creation rejected")
			return
		}
		h.BroadcastCommentCreated(comment)

	case protocol.CommentUpdate:
		comment, err := h.services.Comment.Update(ctx, m.CommentID, m.InvokerID, m.CommentBody)
		if err != nil {
			h.log.Warn().Err(err).Msg("Comment update rejected")
			return
		}
		h.Broadcast(Channel{PostType: m.PostType, PostID: m.PostID}, protocol.CommentUpdateBroadcast{
			CommentID:   comment.ID,
			CommentBody: comment.Body,
			PostType:    m.PostType,
			PostID:      m.PostID,
			Version:     comment.Version,
		})

	case protocol.CommentDeletion:
		stub, err := h.services.Comment.Delete(ctx, m.CommentID, m.DeleteType, m.InvokerID)
		if err != nil {
			h.log.Warn().Err(err).Msg("Comment deletion rejected")
			return
		}
		h.BroadcastCommentDeleted(Channel{PostType: m.PostType, PostID: m.PostID}, m.CommentID, m.DeleteType, stub)

	case protocol.CommentReaction:
		reaction, effect, err := h.services.Reaction.React(ctx, m.CommentID, m.InvokerID, m.ReactionType)
		if err != nil {
			h.log.Warn().Err(err).Msg("Reaction rejected")
			return
		}
		h.Broadcast(Channel{PostType: m.PostType, PostID: m.PostID}, protocol.CommentReactionBroadcast{
			ReactionID:   reaction.ID,
			CommentID:    m.CommentID,
			InvokerID:    m.InvokerID,
			ReactionType: m.ReactionType,
			EndEffect:    effect,
			PostType:     m.PostType,
			PostID:       m.PostID,
			Date:         reaction.Date,
		})

	case protocol.Disconnect:
		h.Unsubscribe(c)
		h.log.Debug().Str("invoker_id", m.InvokerID).Msg("Viewer left channel")

	default:
		// Broadcast frames arriving from a client are a protocol violation.
		h.log.Warn().Str("invoker_id", c.invokerID).Msgf("Unexpected frame from client: %T", msg)
	}
}

// BroadcastCommentCreated announces a new comment to its post's channel.
// Exposed so the HTTP fallback path converges on the same broadcast.
func (h *Hub) BroadcastCommentCreated(comment *models.Comment) {
	h.Broadcast(Channel{PostType: comment.PostType, PostID: comment.PostID}, protocol.CommentCreationBroadcast{
		CommentID:       comment.ID,
		CommentBody:     comment.Body,
		PostType:        comment.PostType,
		PostID:          comment.PostID,
		ParentCommentID: comment.ParentCommentID,
		CommenterID:     comment.CommenterID,
		Version:         comment.Version,
		Date:            comment.Date,
	})
}

// BroadcastCommentDeleted announces a deletion. A nil stub means a hard
// delete: the broadcast carries no body and receivers drop the comment.
func (h *Hub) BroadcastCommentDeleted(ch Channel, commentID int64, deleteType models.DeleteType, stub *models.Comment) {
	b := protocol.CommentDeletionBroadcast{
		CommentID:  commentID,
		DeleteType: deleteType,
		PostType:   ch.PostType,
		PostID:     ch.PostID,
	}
	if stub != nil {
		b.CommentBody = stub.Body
	}
	h.Broadcast(ch, b)
}
