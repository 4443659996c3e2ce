// Package protocol defines the wire shape of the live comment channel:
// client commands, server broadcasts, and the JSON codec between them.
// Every frame is a flat JSON object tagged by an "action" field.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/comment-sync-api/internal/models"
)

// Action tags a message on the wire
type Action string

// Client → server commands
const (
	ActionChannelUpdate   Action = "channelUpdate"
	ActionCommentCreation Action = "commentCreation"
	ActionCommentUpdate   Action = "commentUpdate"
	ActionCommentDeletion Action = "commentDeletion"
	ActionCommentReaction Action = "commentReaction"
	ActionDisconnect      Action = "disconnect"
)

// Server → client broadcasts
const (
	ActionCommentCreationBroadcast Action = "commentCreationBroadcast"
	ActionCommentUpdateBroadcast   Action = "commentUpdateBroadcast"
	ActionCommentDeletionBroadcast Action = "commentDeletionBroadcast"
	ActionCommentReactionBroadcast Action = "commentReactionBroadcast"
)

var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownAction    = errors.New("unknown action")
)

// Message is the closed set of frames that travel over the comment channel.
// Decode returns exactly one of the concrete types below; a type switch over
// them covers every possible frame.
type Message interface {
	action() Action
}

// ChannelUpdate announces which post a connection is viewing and as whom.
type ChannelUpdate struct {
	Action    Action `json:"action"`
	PostType  string `json:"postType"`
	PostID    string `json:"postID"`
	InvokerID string `json:"invokerID"`
}

// CommentCreation asks the server to create a comment.
type CommentCreation struct {
	Action          Action `json:"action"`
	CommentBody     string `json:"commentBody"`
	PostType        string `json:"postType"`
	PostID          string `json:"postID"`
	ParentCommentID *int64 `json:"parentCommentID,omitempty"`
	InvokerID       string `json:"invokerID"`
}

// CommentUpdate asks the server to replace a comment's body.
type CommentUpdate struct {
	Action      Action `json:"action"`
	CommentBody string `json:"commentBody"`
	PostType    string `json:"postType"`
	PostID      string `json:"postID"`
	CommentID   int64  `json:"commentID"`
	InvokerID   string `json:"invokerID"`
}

// CommentDeletion asks the server to soft- or hard-delete a comment.
type CommentDeletion struct {
	Action     Action            `json:"action"`
	DeleteType models.DeleteType `json:"deleteType"`
	CommentID  int64             `json:"commentID"`
	InvokerID  string            `json:"invokerID"`
	PostType   string            `json:"postType"`
	PostID     string            `json:"postID"`
}

// CommentReaction asks the server to toggle/apply a reaction.
type CommentReaction struct {
	Action       Action              `json:"action"`
	PostType     string              `json:"postType"`
	PostID       string              `json:"postID"`
	CommentID    int64               `json:"commentID"`
	InvokerID    string              `json:"invokerID"`
	ReactionType models.ReactionType `json:"reactionType"`
}

// Disconnect is the best-effort goodbye sent before a normal closure.
type Disconnect struct {
	Action    Action `json:"action"`
	PostType  string `json:"postType"`
	PostID    string `json:"postID"`
	InvokerID string `json:"invokerID"`
}

// CommentCreationBroadcast notifies viewers of a newly created comment.
type CommentCreationBroadcast struct {
	Action          Action    `json:"action"`
	CommentID       int64     `json:"commentID"`
	CommentBody     string    `json:"commentBody"`
	PostType        string    `json:"postType"`
	PostID          string    `json:"postID"`
	ParentCommentID *int64    `json:"parentCommentID,omitempty"`
	CommenterID     string    `json:"commenterID"`
	Version         int64     `json:"version"`
	Date            time.Time `json:"date"`
}

// CommentUpdateBroadcast notifies viewers of an edited comment. Version is
// monotonic per comment; receivers drop broadcasts that are not newer than
// their local copy.
type CommentUpdateBroadcast struct {
	Action      Action `json:"action"`
	CommentID   int64  `json:"commentID"`
	CommentBody string `json:"commentBody"`
	PostType    string `json:"postType"`
	PostID      string `json:"postID"`
	Version     int64  `json:"version"`
}

// CommentDeletionBroadcast notifies viewers of a deletion. An empty
// CommentBody means the row is gone (hard delete); a non-empty body is the
// placeholder text of a soft delete.
type CommentDeletionBroadcast struct {
	Action      Action            `json:"action"`
	CommentID   int64             `json:"commentID"`
	CommentBody string            `json:"commentBody,omitempty"`
	DeleteType  models.DeleteType `json:"deleteType"`
	PostType    string            `json:"postType"`
	PostID      string            `json:"postID"`
}

// CommentReactionBroadcast notifies viewers of a reaction change.
type CommentReactionBroadcast struct {
	Action       Action                `json:"action"`
	ReactionID   int64                 `json:"reactionID"`
	CommentID    int64                 `json:"commentID"`
	InvokerID    string                `json:"invokerID"`
	ReactionType models.ReactionType   `json:"reactionType"`
	EndEffect    models.ReactionEffect `json:"endEffect"`
	PostType     string                `json:"postType"`
	PostID       string                `json:"postID"`
	Date         time.Time             `json:"date"`
}

func (ChannelUpdate) action() Action            { return ActionChannelUpdate }
func (CommentCreation) action() Action          { return ActionCommentCreation }
func (CommentUpdate) action() Action            { return ActionCommentUpdate }
func (CommentDeletion) action() Action          { return ActionCommentDeletion }
func (CommentReaction) action() Action          { return ActionCommentReaction }
func (Disconnect) action() Action               { return ActionDisconnect }
func (CommentCreationBroadcast) action() Action { return ActionCommentCreationBroadcast }
func (CommentUpdateBroadcast) action() Action   { return ActionCommentUpdateBroadcast }
func (CommentDeletionBroadcast) action() Action { return ActionCommentDeletionBroadcast }
func (CommentReactionBroadcast) action() Action { return ActionCommentReactionBroadcast }

// Encode serializes a message as a JSON text frame, filling in the action
// tag so callers cannot send a frame with a mismatched tag.
func Encode(m Message) ([]byte, error) {
	switch v := m.(type) {
	case ChannelUpdate:
		v.Action = v.action()
		return json.Marshal(v)
	case CommentCreation:
		v.Action = v.action()
		return json.Marshal(v)
	case CommentUpdate:
		v.Action = v.action()
		return json.Marshal(v)
	case CommentDeletion:
		v.Action = v.action()
		return json.Marshal(v)
	case CommentReaction:
		v.Action = v.action()
		return json.Marshal(v)
	case Disconnect:
		v.Action = v.action()
		return json.Marshal(v)
	case CommentCreationBroadcast:
		v.Action = v.action()
		return json.Marshal(v)
	case CommentUpdateBroadcast:
		v.Action = v.action()
		return json.Marshal(v)
	case CommentDeletionBroadcast:
		v.Action = v.action()
		return json.Marshal(v)
	case CommentReactionBroadcast:
		v.Action = v.action()
		return json.Marshal(v)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownAction, m)
	}
}

// Decode parses a JSON text frame into its concrete message type. Parse
// failures and unrecognized actions are returned as errors; callers log and
// drop them, they must never take the channel down.
func Decode(data []byte) (Message, error) {
	var envelope struct {
		Action Action `json:"action"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	var (
		msg Message
		err error
	)
	switch envelope.Action {
	case ActionChannelUpdate:
		var m ChannelUpdate
		err = json.Unmarshal(data, &m)
		msg = m
	case ActionCommentCreation:
		var m CommentCreation
		err = json.Unmarshal(data, &m)
		msg = m
	case ActionCommentUpdate:
		var m CommentUpdate
		err = json.Unmarshal(data, &m)
		msg = m
	case ActionCommentDeletion:
		var m CommentDeletion
		err = json.Unmarshal(data, &m)
		msg = m
	case ActionCommentReaction:
		var m CommentReaction
		err = json.Unmarshal(data, &m)
		msg = m
	case ActionDisconnect:
		var m Disconnect
		err = json.Unmarshal(data, &m)
		msg = m
	case ActionCommentCreationBroadcast:
		var m CommentCreationBroadcast
		err = json.Unmarshal(data, &m)
		msg = m
	case ActionCommentUpdateBroadcast:
		var m CommentUpdateBroadcast
		err = json.Unmarshal(data, &m)
		msg = m
	case ActionCommentDeletionBroadcast:
		var m CommentDeletionBroadcast
		err = json.Unmarshal(data, &m)
		msg = m
	case ActionCommentReactionBroadcast:
		var m CommentReactionBroadcast
		err = json.Unmarshal(data, &m)
		msg = m
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, envelope.Action)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	return msg, nil
}
