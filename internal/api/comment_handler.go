package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/comment-sync-api/internal/hub"
	"github.com/comment-sync-api/internal/models"
	"github.com/comment-sync-api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CommentHandler handles the HTTP fallback endpoints and thread reads
type CommentHandler struct {
	services *service.Services
	hub      *hub.Hub
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, h *hub.Hub, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		hub:      h,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

// CreateComment handles POST /v1/comments, the dispatcher's creation
// fallback when the live connection is down. Responds 201 with the new id;
// live viewers of the post still get the creation broadcast.
func (h *CommentHandler) CreateComment(c *gin.Context) {
	var req struct {
		CommentBody     string `json:"commentBody"`
		PostType        string `json:"postType"`
		PostID          string `json:"postID"`
		ParentCommentID *int64 `json:"parentCommentID"`
		InvokerID       string `json:"invokerID"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	comment, err := h.services.Comment.Create(c.Request.Context(),
		req.PostType, req.PostID, req.ParentCommentID, req.InvokerID, req.CommentBody)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.hub.BroadcastCommentCreated(comment)

	c.JSON(http.StatusCreated, gin.H{"data": comment.ID})
}

// DeleteComment handles DELETE /v1/comments/:comment_id, the dispatcher's
// deletion fallback. Responds with the placeholder body for soft deletes so
// the client can synthesize its own deletion broadcast; hard deletes return
// an empty object.
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, err := strconv.ParseInt(c.Param("comment_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid comment id"})
		return
	}

	deleteType := models.DeleteType(c.DefaultQuery("deleteType", string(models.DeleteTypeUser)))
	invokerID := c.Query("invokerID")
	postType := c.Query("postType")
	postID := c.Query("postID")

	stub, err := h.services.Comment.Delete(c.Request.Context(), commentID, deleteType, invokerID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	h.hub.BroadcastCommentDeleted(hub.Channel{PostType: postType, PostID: postID}, commentID, deleteType, stub)

	if stub == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}
	c.JSON(http.StatusOK, gin.H{"commentBody": stub.Body})
}

// GetThread handles GET /v1/posts/:post_type/:post_id/comments, the
// initial load before the live channel takes over.
func (h *CommentHandler) GetThread(c *gin.Context) {
	postType := c.Param("post_type")
	postID := c.Param("post_id")

	comments, err := h.services.Comment.ListByPost(c.Request.Context(), postType, postID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	reactions, err := h.services.Reaction.ListByPost(c.Request.Context(), postType, postID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if comments == nil {
		comments = []models.Comment{}
	}
	c.JSON(http.StatusOK, gin.H{
		"comments":  comments,
		"reactions": reactions,
	})
}

// GetCommenter handles GET /v1/users/:user_id/public. It serves commenter
// display data used to enrich creation broadcasts client-side.
func (h *CommentHandler) GetCommenter(c *gin.Context) {
	public, err := h.services.Comment.GetCommenter(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, public)
}

func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
