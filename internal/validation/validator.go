package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/comment-sync-api/internal/models"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CommentBody validates a comment body: non-blank after trimming, within
// the length limit.
func CommentBody(body string) *ValidationError {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return &ValidationError{Field: "commentBody", Message: "must not be empty"}
	}
	if utf8.RuneCountInString(trimmed) > models.MaxCommentLength {
		return &ValidationError{
			Field:   "commentBody",
			Message: fmt.Sprintf("must be at most %d characters", models.MaxCommentLength),
		}
	}
	return nil
}

// PostRef validates the post a command targets
func PostRef(postType, postID string) *ValidationError {
	if strings.TrimSpace(postType) == "" {
		return &ValidationError{Field: "postType", Message: "must not be empty"}
	}
	if strings.TrimSpace(postID) == "" {
		return &ValidationError{Field: "postID", Message: "must not be empty"}
	}
	return nil
}

// InvokerID validates the acting user id for mutating commands
func InvokerID(id string) *ValidationError {
	if strings.TrimSpace(id) == "" {
		return &ValidationError{Field: "invokerID", Message: "must not be empty"}
	}
	return nil
}

// ReactionType validates a reaction type against the allowed set
func ReactionType(t models.ReactionType) *ValidationError {
	if !models.ValidReactionTypes[t] {
		return &ValidationError{Field: "reactionType", Message: "unknown reaction type", Value: string(t)}
	}
	return nil
}

// DeleteType validates a deletion type against the allowed set
func DeleteType(t models.DeleteType) *ValidationError {
	if !models.ValidDeleteTypes[t] {
		return &ValidationError{Field: "deleteType", Message: "unknown delete type", Value: string(t)}
	}
	return nil
}
