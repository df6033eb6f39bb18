package ticket

import (
	"context"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
	"go.uber.org/zap"

	"github.com/event-horizon/backend/internal/models"
	"github.com/event-horizon/backend/internal/persona"
	"github.com/event-horizon/backend/pkg/response"
)

const qrSize = 256

// AttendeeSource looks up attendees for ticket rendering.
type AttendeeSource interface {
	Get(ctx context.Context, id string) (*models.Attendee, error)
}

// Handler serves the ticket-holder surface: QR image, share text and the
// AI welcome line.
type Handler struct {
	source   AttendeeSource
	codec    *Codec
	personas persona.Generator
	logger   *zap.Logger
}

// NewHandler creates a ticket handler.
func NewHandler(source AttendeeSource, codec *Codec, personas persona.Generator, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{source: source, codec: codec, personas: personas, logger: logger}
}

// QR handles GET /api/tickets/:id/qr: the attendee's ticket payload as a
// PNG QR code.
func (h *Handler) QR(c *gin.Context) {
	a, err := h.source.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.NotFound(c, "attendee not found")
		return
	}

	payload, err := h.codec.Encode(a)
	if err != nil {
		h.logger.Error("encode ticket failed", zap.Error(err), zap.String("id", a.ID))
		response.Internal(c, "failed to encode ticket")
		return
	}

	// High correction level per the original ticket renderer.
	png, err := qrcode.Encode(payload, qrcode.High, qrSize)
	if err != nil {
		h.logger.Error("render qr failed", zap.Error(err), zap.String("id", a.ID))
		response.Internal(c, "failed to render qr code")
		return
	}
	c.Data(200, "image/png", png)
}

// Share handles GET /api/tickets/:id/share: the ready-to-send gate message.
func (h *Handler) Share(c *gin.Context) {
	a, err := h.source.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.NotFound(c, "attendee not found")
		return
	}
	response.OK(c, gin.H{"text": h.codec.ShareText(a)})
}

// Welcome handles GET /api/tickets/:id/welcome: the AI concierge line for
// the ticket view. Generation is best-effort; the response always carries a
// non-empty message.
func (h *Handler) Welcome(c *gin.Context) {
	a, err := h.source.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.NotFound(c, "attendee not found")
		return
	}
	msg := h.personas.GenerateWelcome(c.Request.Context(), a.FullName, a.AIPersona)
	response.OK(c, gin.H{"message": msg})
}
