package standuphttp

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/standsync/server/internal/domain/schedule"
	"github.com/standsync/server/internal/port/inbound"
	apperrors "github.com/standsync/server/internal/shared/errors"
)

// Handler exposes the standup scheduling core over HTTP. It is a thin
// wrapper: no scheduling logic lives here.
type Handler struct {
	scheduling inbound.StandupScheduling
}

// NewHandler creates a new standup scheduling handler.
func NewHandler(scheduling inbound.StandupScheduling) *Handler {
	return &Handler{scheduling: scheduling}
}

// RegisterRoutes registers scheduling routes.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	scheduler := r.Group("/scheduler")
	{
		scheduler.POST("/runs", h.RunForDate)
	}

	recovery := r.Group("/recovery")
	{
		recovery.POST("/runs", h.RecoverMissed)
		recovery.POST("/overdue-checks", h.CheckOverdue)
	}

	r.POST("/retention/runs", h.Archive)

	teams := r.Group("/teams")
	{
		teams.GET("/:id/next-due", h.NextDueDate)
		teams.GET("/:id/due", h.IsDue)
	}

	r.GET("/instances/:id", h.GetInstance)
}

type runRequest struct {
	// Date is the target calendar date; defaults to today in UTC.
	Date string `json:"date"`
}

// RunForDate triggers a scheduling run for a date.
func (h *Handler) RunForDate(c *gin.Context) {
	targetDate, ok := h.bindDate(c)
	if !ok {
		return
	}
	summary, err := h.scheduling.RunForDate(c.Request.Context(), targetDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// RecoverMissed triggers a recovery sweep for a date.
func (h *Handler) RecoverMissed(c *gin.Context) {
	targetDate, ok := h.bindDate(c)
	if !ok {
		return
	}
	summary, err := h.scheduling.RecoverMissed(c.Request.Context(), targetDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// CheckOverdue triggers the overdue transition sweep.
func (h *Handler) CheckOverdue(c *gin.Context) {
	if err := h.scheduling.CheckOverdue(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type archiveRequest struct {
	Cutoff string `json:"cutoff" binding:"required"`
}

// Archive triggers the retention sweep.
func (h *Handler) Archive(c *gin.Context) {
	var req archiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": "cutoff date is required"}})
		return
	}
	cutoff, err := schedule.ParseDate(req.Cutoff)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": "cutoff must be YYYY-MM-DD"}})
		return
	}
	deleted, err := h.scheduling.ArchiveOlderThan(c.Request.Context(), cutoff)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}

// NextDueDate returns a team's next due date, or null.
func (h *Handler) NextDueDate(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": "invalid team id"}})
		return
	}
	next, err := h.scheduling.NextDueDate(c.Request.Context(), teamID)
	if err != nil {
		respondError(c, err)
		return
	}
	if next == nil {
		c.JSON(http.StatusOK, gin.H{"next_due": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"next_due": next.String()})
}

// IsDue reports whether a team is due on a date (default: today UTC).
func (h *Handler) IsDue(c *gin.Context) {
	teamID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": "invalid team id"}})
		return
	}

	dateParam := c.DefaultQuery("date", schedule.DateOf(time.Now().UTC()).String())
	targetDate, err := schedule.ParseDate(dateParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": "date must be YYYY-MM-DD"}})
		return
	}

	due, err := h.scheduling.IsDueToday(c.Request.Context(), teamID, targetDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"date": targetDate.String(), "due": due})
}

// GetInstance returns an instance with its completion metrics.
func (h *Handler) GetInstance(c *gin.Context) {
	instanceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": "invalid instance id"}})
		return
	}
	status, err := h.scheduling.GetInstanceStatus(c.Request.Context(), instanceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// bindDate reads the optional date body field, defaulting to today UTC.
func (h *Handler) bindDate(c *gin.Context) (schedule.Date, bool) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": "invalid request body"}})
		return schedule.Date{}, false
	}
	if req.Date == "" {
		return schedule.DateOf(time.Now().UTC()), true
	}
	targetDate, err := schedule.ParseDate(req.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{"code": "BAD_REQUEST", "message": "date must be YYYY-MM-DD"}})
		return schedule.Date{}, false
	}
	return targetDate, true
}

func respondError(c *gin.Context, err error) {
	appErr := apperrors.AsAppError(err)
	c.JSON(appErr.StatusCode, apperrors.ErrorResponse{
		Error: apperrors.ErrorDetail{
			Code:    appErr.Code,
			Message: appErr.Message,
		},
	})
}
