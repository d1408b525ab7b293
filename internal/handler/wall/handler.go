package wall

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wecount/countdown-api/internal/handler"
	"github.com/wecount/countdown-api/internal/middleware"
	"github.com/wecount/countdown-api/internal/model"
	"github.com/wecount/countdown-api/internal/service/wall"
)

type Handler struct {
	service *wall.Service
}

func NewHandler(service *wall.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	// Reading the wall only needs the event link.
	r.GET("/events/:id/wall", h.ListPosts)
	r.GET("/wall/posts/:postId/reactions", h.ListReactions)

	protected := r.Group("", auth.Authenticate())
	protected.POST("/events/:id/wall", h.CreatePost)
	protected.DELETE("/wall/posts/:postId", h.DeletePost)
	protected.POST("/wall/posts/:postId/reactions", h.ToggleReaction)
}

func (h *Handler) CreatePost(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid user"})
		return
	}

	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid event ID"})
		return
	}

	var req model.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), eventID, userID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": post})
}

func (h *Handler) ListPosts(c *gin.Context) {
	eventID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid event ID"})
		return
	}

	posts, err := h.service.ListPosts(c.Request.Context(), eventID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": posts})
}

func (h *Handler) DeletePost(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid user"})
		return
	}

	postID, err := uuid.Parse(c.Param("postId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid post ID"})
		return
	}

	if err := h.service.DeletePost(c.Request.Context(), postID, userID); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) ToggleReaction(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid user"})
		return
	}

	postID, err := uuid.Parse(c.Param("postId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid post ID"})
		return
	}

	var req model.ReactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	present, err := h.service.ToggleReaction(c.Request.Context(), postID, userID, req.Emoji)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"reacted": present}})
}

func (h *Handler) ListReactions(c *gin.Context) {
	postID, err := uuid.Parse(c.Param("postId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid post ID"})
		return
	}

	reactions, err := h.service.ListReactions(c.Request.Context(), postID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": reactions})
}
