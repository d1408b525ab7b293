package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wecount/countdown-api/internal/handler"
	"github.com/wecount/countdown-api/internal/middleware"
	"github.com/wecount/countdown-api/internal/model"
	"github.com/wecount/countdown-api/internal/service/notification"
	"github.com/wecount/countdown-api/internal/service/user"
)

type Handler struct {
	service  *user.Service
	notifSvc notification.Service
}

func NewHandler(service *user.Service, notifSvc notification.Service) *Handler {
	return &Handler{service: service, notifSvc: notifSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)

	protected := r.Group("", auth.Authenticate())
	protected.GET("/auth/me", h.Me)
	protected.PUT("/auth/notification-permission", h.SetNotificationPermission)
	protected.GET("/notifications", h.ListNotifications)
}

func (h *Handler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	u, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": u})
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	resp, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": resp})
}

func (h *Handler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid user"})
		return
	}

	u, err := h.service.Get(c.Request.Context(), userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": u})
}

type permissionRequest struct {
	Permission model.NotificationPermission `json:"permission" binding:"required,oneof=granted denied default"`
}

func (h *Handler) SetNotificationPermission(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid user"})
		return
	}

	var req permissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	if err := h.service.SetNotificationPermission(c.Request.Context(), userID, req.Permission); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"permission": req.Permission}})
}

func (h *Handler) ListNotifications(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid user"})
		return
	}

	notifications, err := h.notifSvc.ListForUser(c.Request.Context(), userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": notifications})
}
