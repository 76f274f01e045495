package handlers

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/washpe-backend/internal/metrics"
)

// WebhookHandler receives delivery status callbacks from the SMS provider
type WebhookHandler struct {
	metrics metrics.Recorder
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(rec metrics.Recorder) *WebhookHandler {
	return &WebhookHandler{metrics: rec}
}

// SMSStatus records the status of one outbound message
func (h *WebhookHandler) SMSStatus(c *fiber.Ctx) error {
	status := c.FormValue("MessageStatus")
	if status == "" {
		return badRequest(c, "MessageStatus is required")
	}
	h.metrics.RecordSMSStatus(status)

	fields := log.Fields{"sid": c.FormValue("MessageSid"), "status": status}
	if code := c.FormValue("ErrorCode"); code != "" {
		fields["error_code"] = code
		log.WithFields(fields).Warn("📵 SMS delivery failed")
	} else {
		log.WithFields(fields).Debug("📬 SMS status update")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
