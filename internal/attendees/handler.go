package attendees

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/event-horizon/backend/internal/models"
	"github.com/event-horizon/backend/internal/ticket"
	"github.com/event-horizon/backend/pkg/response"
)

// RegisterRequest is the body for POST /api/register. Per the registration
// form, fields are free text; only presence is validated here. Client
// attempts to supply id, status or checkInTime are ignored — those are
// server-assigned.
type RegisterRequest struct {
	FullName   string `json:"fullName" binding:"required"`
	Email      string `json:"email" binding:"required"`
	Role       string `json:"role" binding:"required"`
	TicketType string `json:"ticketType" binding:"required"`
}

// CheckInRequest is the body for POST /api/checkin. CheckInTime is accepted
// for wire compatibility with older gate clients but ignored; the stored
// time is always server-side.
type CheckInRequest struct {
	ID          string `json:"id" binding:"required"`
	CheckInTime string `json:"checkInTime"`
}

// ScanRequest is the body for POST /api/checkin/scan: the raw decoded text
// from a camera QR scan.
type ScanRequest struct {
	Payload string `json:"payload" binding:"required"`
}

// Handler handles attendee HTTP endpoints.
type Handler struct {
	registry *Registry
	codec    *ticket.Codec
	logger   *zap.Logger
}

// NewHandler creates an attendees handler.
func NewHandler(registry *Registry, codec *ticket.Codec, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{registry: registry, codec: codec, logger: logger}
}

// Register handles POST /api/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	a, err := h.registry.Register(c.Request.Context(), RegisterInput{
		FullName:   req.FullName,
		Email:      req.Email,
		Role:       req.Role,
		TicketType: req.TicketType,
	})
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			response.BadRequest(c, err.Error())
			return
		}
		h.logger.Error("register failed", zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}
	response.Created(c, a)
}

// List handles GET /api/attendees with an optional ?status= filter
// (registered | checked-in).
func (h *Handler) List(c *gin.Context) {
	status, ok := parseStatusFilter(c.Query("status"))
	if !ok {
		response.BadRequest(c, "invalid status filter")
		return
	}

	list, err := h.registry.List(c.Request.Context(), status)
	if err != nil {
		h.logger.Error("list attendees failed", zap.Error(err))
		response.Internal(c, "failed to list attendees")
		return
	}
	if list == nil {
		list = []models.Attendee{}
	}
	response.OK(c, list)
}

// GetByID handles GET /api/attendees/:id.
func (h *Handler) GetByID(c *gin.Context) {
	a, err := h.registry.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.NotFound(c, "attendee not found")
			return
		}
		h.logger.Error("get attendee failed", zap.Error(err))
		response.Internal(c, "failed to load attendee")
		return
	}
	response.OK(c, a)
}

// CheckIn handles POST /api/checkin (manual id entry or API callers).
func (h *Handler) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	h.checkIn(c, req.ID)
}

// Scan handles POST /api/checkin/scan: decode the scanned payload, then the
// same check-in path as manual entry.
func (h *Handler) Scan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	h.checkIn(c, h.codec.Decode(req.Payload))
}

func (h *Handler) checkIn(c *gin.Context, id string) {
	res, err := h.registry.CheckIn(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("check-in failed", zap.Error(err), zap.String("id", id))
		response.Internal(c, "failed to check in")
		return
	}
	switch {
	case res.OK:
		response.OKMessage(c, res.Message, res.Attendee)
	case res.Attendee != nil:
		response.Conflict(c, res.Message, res.Attendee)
	default:
		response.NotFound(c, res.Message)
	}
}

func parseStatusFilter(raw string) (models.CheckInStatus, bool) {
	switch strings.ToLower(strings.ReplaceAll(strings.ReplaceAll(raw, "-", ""), "_", "")) {
	case "":
		return "", true
	case "registered":
		return models.StatusRegistered, true
	case "checkedin":
		return models.StatusCheckedIn, true
	default:
		return "", false
	}
}
