package models

import (
	"time"
)

// TopLevelSentinel is the legacy parent id meaning "no parent". Older
// clients send -1 instead of null; both are treated as top-level.
const TopLevelSentinel int64 = -1

// Comment represents a single comment in a post's thread
type Comment struct {
	ID              int64     `json:"id" db:"id"`
	Body            string    `json:"body" db:"body"`
	PostType        string    `json:"post_type" db:"post_type"`
	PostID          string    `json:"post_id" db:"post_id"`
	ParentCommentID *int64    `json:"parent_comment_id" db:"parent_comment_id"`
	CommenterID     string    `json:"commenter_id" db:"commenter_id"`
	Edited          bool      `json:"edited" db:"edited"`
	Version         int64     `json:"version" db:"version"`
	Date            time.Time `json:"date" db:"date"`
}

// IsTopLevel reports whether the comment is a direct reply to the post.
func (c *Comment) IsTopLevel() bool {
	return IsTopLevelParent(c.ParentCommentID)
}

// IsTopLevelParent reports whether a parent id (possibly nil, possibly the
// legacy -1 sentinel) denotes a top-level comment.
func IsTopLevelParent(parentID *int64) bool {
	return parentID == nil || *parentID == TopLevelSentinel
}

// DeleteType identifies who requested a deletion and how it is applied
type DeleteType string

const (
	DeleteTypeUser     DeleteType = "user"
	DeleteTypeAdmin    DeleteType = "admin"
	DeleteTypeDatabase DeleteType = "database"
)

// ValidDeleteTypes defines allowed deletion types
var ValidDeleteTypes = map[DeleteType]bool{
	DeleteTypeUser:     true,
	DeleteTypeAdmin:    true,
	DeleteTypeDatabase: true,
}

// Placeholder bodies written on soft deletes. A database delete removes the
// row outright and has no placeholder.
const (
	DeletedByUserBody  = "[deleted]"
	DeletedByAdminBody = "[removed by moderator]"
)

// PlaceholderBody returns the soft-delete replacement body for a delete
// type, or "" when the delete type removes the row entirely.
func (t DeleteType) PlaceholderBody() string {
	switch t {
	case DeleteTypeUser:
		return DeletedByUserBody
	case DeleteTypeAdmin:
		return DeletedByAdminBody
	default:
		return ""
	}
}

// MaxCommentLength is the maximum allowed comment body length in runes
const MaxCommentLength = 10000
