package event

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/wecount/countdown-api/internal/handler"
	"github.com/wecount/countdown-api/internal/middleware"
	"github.com/wecount/countdown-api/internal/model"
	"github.com/wecount/countdown-api/internal/service/event"
	"github.com/wecount/countdown-api/internal/service/tracking"
)

type Handler struct {
	service  *event.Service
	tracking *tracking.Service
}

func NewHandler(service *event.Service, trackingSvc *tracking.Service) *Handler {
	return &Handler{service: service, tracking: trackingSvc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	// Shared countdown views are public: access is by link or PIN.
	r.GET("/events/:id", h.GetEvent)
	r.GET("/events/:id/countdown", h.GetCountdown)
	r.GET("/events/pin/:pin", h.GetEventByPIN)
	r.POST("/events/access", h.AccessByPIN)

	protected := r.Group("", auth.Authenticate())
	protected.POST("/events", h.CreateEvent)
	protected.GET("/events", h.ListEvents)
	protected.PUT("/events/:id", h.UpdateEvent)
	protected.DELETE("/events/:id", h.DeleteEvent)
	protected.POST("/events/:id/activate", h.ActivateEvent)
	protected.POST("/events/:id/track", h.TrackEvent)
	protected.DELETE("/events/:id/track", h.UntrackEvent)
}

func (h *Handler) CreateEvent(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid user"})
		return
	}

	var req model.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	evt, err := h.service.CreateEvent(c.Request.Context(), userID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": "success", "data": evt})
}

func (h *Handler) GetEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid event ID"})
		return
	}

	evt, err := h.service.GetEvent(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	// The PIN is only shown to the owner.
	userID, _ := middleware.UserID(c)
	if evt.CreatedBy != userID {
		evt.PIN = ""
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": evt})
}

func (h *Handler) GetEventByPIN(c *gin.Context) {
	evt, err := h.service.GetEventByPIN(c.Request.Context(), c.Param("pin"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "event not found"})
		return
	}

	evt.PIN = ""
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": evt})
}

// AccessByPIN is the PIN entry form target; it validates the code shape
// before hitting the lookup path.
func (h *Handler) AccessByPIN(c *gin.Context) {
	var req model.PINAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	evt, err := h.service.GetEventByPIN(c.Request.Context(), req.PIN)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "event not found"})
		return
	}

	evt.PIN = ""
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": evt})
}

func (h *Handler) ListEvents(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid user"})
		return
	}

	events, err := h.service.ListEvents(c.Request.Context(), userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": events})
}

func (h *Handler) UpdateEvent(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid user"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid event ID"})
		return
	}

	var req model.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	evt, err := h.service.UpdateEvent(c.Request.Context(), id, userID, &req)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": evt})
}

func (h *Handler) DeleteEvent(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid user"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid event ID"})
		return
	}

	if err := h.service.DeleteEvent(c.Request.Context(), id, userID); err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (h *Handler) ActivateEvent(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid user"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid event ID"})
		return
	}

	evt, err := h.service.ActivateEvent(c.Request.Context(), id, userID)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "data": evt})
}

// GetCountdown returns the current TimeLeft snapshot for an event.
func (h *Handler) GetCountdown(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid event ID"})
		return
	}

	evt, err := h.service.GetEvent(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}

	tl := h.tracking.Snapshot(*evt)
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{
		"event_id":    evt.ID,
		"time_left":   tl,
		"is_finished": tl.IsZero(),
		"tracked":     h.tracking.Tracked(evt.ID),
	}})
}

// TrackEvent starts 1 Hz milestone tracking for an event the owner is
// watching.
func (h *Handler) TrackEvent(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid user"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid event ID"})
		return
	}

	evt, err := h.service.GetEvent(c.Request.Context(), id)
	if err != nil {
		handler.RespondError(c, err)
		return
	}
	if evt.CreatedBy != userID {
		c.JSON(http.StatusForbidden, gin.H{"status": "error", "message": "event does not belong to user"})
		return
	}

	h.tracking.Track(c.Request.Context(), *evt)
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"tracked": true}})
}

func (h *Handler) UntrackEvent(c *gin.Context) {
	if _, ok := middleware.UserID(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "invalid user"})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "invalid event ID"})
		return
	}

	h.tracking.Untrack(id)
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"tracked": false}})
}
