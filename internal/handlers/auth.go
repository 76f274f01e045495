package handlers

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/services"
)

type verifyRequest struct {
	Mobile         string `json:"mobile"`
	Email          string `json:"email"`
	WhatsappNumber string `json:"whatsappNumber"`
	MobileOTP      string `json:"mobileOtp"`
	EmailOTP       string `json:"emailOtp"`
	OTP            string `json:"otp"`
}

func (r verifyRequest) contacts() models.Contacts {
	return models.Contacts{Mobile: r.Mobile, Email: r.Email, WhatsApp: r.WhatsappNumber}
}

// codes maps the submitted OTPs to their channels; a bare "otp" stands for the mobile one
func (r verifyRequest) codes() map[models.Channel]string {
	mobile := r.MobileOTP
	if mobile == "" {
		mobile = r.OTP
	}
	return map[models.Channel]string{
		models.ChannelMobile: mobile,
		models.ChannelEmail:  r.EmailOTP,
	}
}

type loginRequest struct {
	Mobile string `json:"mobile"`
	Email  string `json:"email"`
	OTP    string `json:"otp"`
}

// AuthHandler serves signup, verification and login for one actor kind
type AuthHandler[T any, PT interface {
	*T
	models.Actor
}] struct {
	flow  *services.Flow[T, PT]
	key   string
	label string
}

// NewAuthHandler creates an auth handler; key names the record in responses
func NewAuthHandler[T any, PT interface {
	*T
	models.Actor
}](flow *services.Flow[T, PT], key, label string) *AuthHandler[T, PT] {
	return &AuthHandler[T, PT]{flow: flow, key: key, label: label}
}

func channelList(chs []models.Channel) string {
	names := make([]string, len(chs))
	for i, ch := range chs {
		names[i] = string(ch)
	}
	return strings.Join(names, " and ")
}

// Signup stages a JSON signup and sends the OTPs
func (h *AuthHandler[T, PT]) Signup(c *fiber.Ctx) error {
	var payload map[string]any
	if err := c.BodyParser(&payload); err != nil {
		return badRequest(c, "Invalid request body")
	}

	result, err := h.flow.Signup(c.UserContext(), payload, nil)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated,
		fmt.Sprintf("%s signup started, OTP sent to %s", h.label, channelList(result.Channels)),
		fiber.Map{h.key: result.Contacts, "otpExpiresAt": result.Expires})
}

// VerifySignup checks the signup OTPs and returns the new record with a session token
func (h *AuthHandler[T, PT]) VerifySignup(c *fiber.Ctx) error {
	var req verifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	actor, token, err := h.flow.Verify(c.UserContext(), req.contacts(), req.codes())
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK,
		fmt.Sprintf("%s successfully verified and added to the system", h.label),
		fiber.Map{h.key: actor, "token": token})
}

// Login sends a login OTP to an existing record
func (h *AuthHandler[T, PT]) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	ch, err := h.flow.Login(c.UserContext(), models.Contacts{Mobile: req.Mobile, Email: req.Email})
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "OTP sent successfully", fiber.Map{"channel": ch})
}

// VerifyLogin checks the login OTP and returns a session token
func (h *AuthHandler[T, PT]) VerifyLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	actor, token, err := h.flow.VerifyLogin(c.UserContext(), models.Contacts{Mobile: req.Mobile, Email: req.Email}, req.OTP)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK,
		fmt.Sprintf("%s successfully verified and logged in", h.label),
		fiber.Map{h.key: actor, "token": token})
}
