package middleware

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

// twilioSignature signs a callback the way Twilio does: HMAC-SHA1 over the
// URL followed by the sorted form parameters
func twilioSignature(token, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(form.Get(k))
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestValidateTwilioSignature(t *testing.T) {
	const token = "twilio-token"
	form := url.Values{"MessageSid": {"SM1"}, "MessageStatus": {"delivered"}}
	valid := twilioSignature(token, "http://example.com/webhooks/sms-status", form)

	tests := []struct {
		name       string
		authToken  string
		signature  string
		wantStatus int
	}{
		{"valid", token, valid, fiber.StatusNoContent},
		{"missing signature", token, "", fiber.StatusUnauthorized},
		{"wrong signature", token, twilioSignature("other", "http://example.com/webhooks/sms-status", form), fiber.StatusUnauthorized},
		{"no token configured", "", valid, fiber.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Post("/webhooks/sms-status", ValidateTwilioSignature(tt.authToken), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusNoContent)
			})

			req := httptest.NewRequest("POST", "http://example.com/webhooks/sms-status", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if tt.signature != "" {
				req.Header.Set("X-Twilio-Signature", tt.signature)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
		})
	}
}
