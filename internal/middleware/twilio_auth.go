package middleware

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go/client"
)

// ValidateTwilioSignature validates that the webhook request is from Twilio
func ValidateTwilioSignature(authToken string) fiber.Handler {
	validator := client.NewRequestValidator(authToken)

	return func(c *fiber.Ctx) error {
		// Get Twilio signature from header
		twilioSignature := c.Get("X-Twilio-Signature")
		if twilioSignature == "" {
			return reject(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "Missing Twilio signature")
		}

		if authToken == "" {
			// Log error but don't expose to client
			log.Error("❌ TWILIO_AUTH_TOKEN not set, cannot validate webhook")
			return reject(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Server configuration error")
		}

		// Get all form parameters
		formParams := make(map[string]string)
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			formParams[string(key)] = string(value)
		})

		if !validator.Validate(getFullURL(c), formParams, twilioSignature) {
			log.WithField("path", c.Path()).Warn("⚠️ Invalid Twilio signature")
			return reject(c, fiber.StatusUnauthorized, "UNAUTHENTICATED", "Invalid signature")
		}

		return c.Next()
	}
}

// getFullURL constructs the full URL Twilio signed, including the query string
func getFullURL(c *fiber.Ctx) string {
	protocol := "https"
	if c.Protocol() == "http" {
		protocol = "http"
	}

	url := fmt.Sprintf("%s://%s%s", protocol, c.Hostname(), c.Path())
	if q := string(c.Request().URI().QueryString()); q != "" {
		url += "?" + q
	}
	return url
}

// reject writes the standard failure body
func reject(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"message": message,
		"success": false,
		"code":    code,
	})
}
