package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/ystore/backend/internal/comments"
	"github.com/emilythestrangee/ystore/backend/internal/middleware"
	"github.com/emilythestrangee/ystore/backend/internal/models"
	"github.com/emilythestrangee/ystore/backend/internal/observability"
)

type CommentHandler struct {
	svc *comments.Service
}

func NewCommentHandler(svc *comments.Service) *CommentHandler {
	return &CommentHandler{svc: svc}
}

// GetThreaded returns the subject's comments as a reply tree. The caller is
// taken from the bearer token, or from current_user_id for anonymous reads.
func (h *CommentHandler) GetThreaded(c *gin.Context) {
	callerID := c.Query("current_user_id")
	if identity, ok := middleware.CurrentIdentity(c); ok {
		callerID = identity.UserID
	}

	tree, err := h.svc.ListThreaded(c.Request.Context(), c.Param("subject_id"), callerID)
	observability.RecordCommentOp("list", outcome(err))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tree)
}

// GetFlat returns the subject's comments newest first
func (h *CommentHandler) GetFlat(c *gin.Context) {
	records, err := h.svc.ListFlat(c.Request.Context(), c.Param("subject_id"))
	observability.RecordCommentOp("list", outcome(err))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *CommentHandler) Count(c *gin.Context) {
	n, err := h.svc.Count(c.Request.Context(), c.Param("subject_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CountResponse{Count: n})
}

// CreateComment creates a top-level comment or a reply
func (h *CommentHandler) CreateComment(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	var input models.CreateCommentRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		observability.RecordCommentOp("create", "400")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	comment, err := h.svc.Create(c.Request.Context(), identity, input)
	observability.RecordCommentOp("create", outcome(err))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ReactComment toggles the caller's reaction, kind given by reaction_type
func (h *CommentHandler) ReactComment(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	kind := models.ReactionKind(c.Query("reaction_type"))
	res, err := h.svc.React(c.Request.Context(), c.Param("comment_id"), identity.UserID, kind)
	observability.RecordCommentOp("react", outcome(err))
	if err != nil {
		respondError(c, err)
		return
	}

	observability.RecordReaction(string(kind), res.Reacted)
	c.JSON(http.StatusOK, models.ReactionResponse{
		Success:   true,
		Reacted:   res.Reacted,
		Reactions: res.Reactions,
	})
}

// DeleteComment deletes a comment and its direct replies (author or admin)
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Not authenticated"})
		return
	}

	err := h.svc.Delete(c.Request.Context(), c.Param("comment_id"), identity)
	observability.RecordCommentOp("delete", outcome(err))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}
