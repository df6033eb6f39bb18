// Package analytics serves the gate dashboard numbers: attendance totals,
// per-ticket-type breakdown and the recent check-in feed.
package analytics

import (
	"sort"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/event-horizon/backend/internal/attendees"
	"github.com/event-horizon/backend/internal/models"
	"github.com/event-horizon/backend/pkg/response"
)

// RecentLimit caps the recent-activity feed.
const RecentLimit = 5

// Summary is the JSON shape for GET /api/analytics.
type Summary struct {
	Total        int               `json:"total"`
	CheckedIn    int               `json:"checkedIn"`
	CheckInRate  float64           `json:"checkInRate"`
	ByTicketType map[string]int    `json:"byTicketType"`
	Recent       []models.Attendee `json:"recent"`
}

// Handler handles GET /api/analytics.
type Handler struct {
	registry *attendees.Registry
	logger   *zap.Logger
}

// NewHandler creates an analytics handler.
func NewHandler(registry *attendees.Registry, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{registry: registry, logger: logger}
}

// Get handles GET /api/analytics.
func (h *Handler) Get(c *gin.Context) {
	list, err := h.registry.List(c.Request.Context(), "")
	if err != nil {
		h.logger.Error("analytics load failed", zap.Error(err))
		response.Internal(c, "failed to load analytics")
		return
	}
	response.OK(c, Summarize(list))
}

// Summarize computes the dashboard summary from an attendee listing.
func Summarize(list []models.Attendee) Summary {
	s := Summary{
		ByTicketType: make(map[string]int),
		Recent:       []models.Attendee{},
	}
	var checkedIn []models.Attendee
	for _, a := range list {
		s.Total++
		s.ByTicketType[a.TicketType]++
		if a.CheckedIn() {
			s.CheckedIn++
			checkedIn = append(checkedIn, a)
		}
	}
	if s.Total > 0 {
		s.CheckInRate = float64(s.CheckedIn) / float64(s.Total)
	}

	sort.Slice(checkedIn, func(i, j int) bool {
		return checkedIn[i].CheckInTime.After(*checkedIn[j].CheckInTime)
	})
	if len(checkedIn) > RecentLimit {
		checkedIn = checkedIn[:RecentLimit]
	}
	s.Recent = append(s.Recent, checkedIn...)
	return s
}
