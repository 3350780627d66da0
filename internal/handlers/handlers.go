package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/emilythestrangee/ystore/backend/internal/apperr"
	"github.com/emilythestrangee/ystore/backend/internal/auth"
	"github.com/emilythestrangee/ystore/backend/internal/comments"
	"github.com/emilythestrangee/ystore/backend/internal/logger"
)

func init() {
	// request bodies are explicit structs; unexpected keys are a client error
	binding.EnableDecoderDisallowUnknownFields = true
}

// Handler combines all handler types
type Handler struct {
	Auth    *AuthHandler
	Comment *CommentHandler
	User    *UserHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(commentSvc *comments.Service, authSvc *auth.Service) *Handler {
	return &Handler{
		Auth:    NewAuthHandler(authSvc),
		Comment: NewCommentHandler(commentSvc),
		User:    NewUserHandler(authSvc),
	}
}

// respondError answers with the status the error maps to. Internal errors
// are logged with their stack and never leak details.
func respondError(c *gin.Context, err error) {
	status := apperr.Status(err)
	if status == http.StatusInternalServerError {
		logger.ErrorWithStack(err)
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return strconv.Itoa(apperr.Status(err))
}
