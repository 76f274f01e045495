package handlers

import (
	"encoding/json"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/Ananth-NQI/washpe-backend/internal/middleware"
	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/services"
)

// DeliveryPartnerHandler handles the multipart signup and profile requests of delivery partners
type DeliveryPartnerHandler struct {
	flow     *services.DeliveryPartnerFlow
	partners *services.DeliveryPartnerService
	media    *services.MediaStore
}

// NewDeliveryPartnerHandler creates a new delivery partner handler
func NewDeliveryPartnerHandler(flow *services.DeliveryPartnerFlow, partners *services.DeliveryPartnerService, media *services.MediaStore) *DeliveryPartnerHandler {
	return &DeliveryPartnerHandler{flow: flow, partners: partners, media: media}
}

func currentDeliveryPartner(c *fiber.Ctx) (*models.DeliveryPartner, error) {
	d, ok := middleware.Actor[*models.DeliveryPartner](c)
	if !ok {
		return nil, models.Unauthenticated("Authentication required")
	}
	return d, nil
}

// formPayload turns multipart values into a signup payload. Languages may be
// repeated or comma separated; bankDetails is a JSON object.
func formPayload(form *multipart.Form) (map[string]any, error) {
	payload := make(map[string]any, len(form.Value))
	for key, values := range form.Value {
		if len(values) == 0 {
			continue
		}
		switch key {
		case "languages":
			var langs []string
			for _, v := range values {
				for _, lang := range strings.Split(v, ",") {
					if lang = strings.TrimSpace(lang); lang != "" {
						langs = append(langs, lang)
					}
				}
			}
			payload[key] = langs
		case "bankDetails":
			var bank map[string]any
			if err := json.Unmarshal([]byte(values[0]), &bank); err != nil {
				return nil, models.ValidationError("bankDetails must be a JSON object")
			}
			payload[key] = bank
		default:
			payload[key] = values[0]
		}
	}
	return payload, nil
}

// Signup validates the form, stores the seven KYC images and stages the registration
func (h *DeliveryPartnerHandler) Signup(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "Invalid multipart form")
	}
	payload, err := formPayload(form)
	if err != nil {
		return respondError(c, err)
	}
	if _, _, err := h.flow.Check(payload); err != nil {
		return respondError(c, err)
	}

	present := make(map[string]bool, len(models.DocumentFields))
	for _, name := range models.DocumentFields {
		present[name] = len(form.File[name]) > 0
	}
	if missing := h.flow.MissingDocuments(present); len(missing) > 0 {
		return respondError(c, models.ValidationError("missing required documents: "+strings.Join(missing, ", ")))
	}

	ctx := c.UserContext()
	urls, err := h.media.PutAll(ctx, "registrations/"+uuid.NewString(), formUploads(form, models.DocumentFields))
	if err != nil {
		return respondError(c, err)
	}

	result, err := h.flow.Signup(ctx, payload, urls)
	if err != nil {
		// once delivery fails the staging record already references the files
		if models.CodeOf(err) != models.CodeDeliveryFailed {
			h.media.DeleteAll(ctx, mapURLs(urls))
		}
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Delivery partner signup started, OTP sent to mobile", fiber.Map{
		"delivery":     result.Contacts,
		"documents":    result.Documents,
		"otpExpiresAt": result.Expires,
	})
}

func mapURLs(m map[string]string) []string {
	out := make([]string, 0, len(m))
	for _, url := range m {
		out = append(out, url)
	}
	return out
}

func (h *DeliveryPartnerHandler) GetProfile(c *fiber.Ctx) error {
	d, err := currentDeliveryPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Delivery partner profile fetched successfully", fiber.Map{"partner": d})
}

func (h *DeliveryPartnerHandler) UpdateProfile(c *fiber.Ctx) error {
	d, err := currentDeliveryPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	var in models.DeliveryPartnerUpdate
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	d, err = h.partners.Update(c.UserContext(), d, in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Delivery partner profile updated successfully", fiber.Map{"partner": d})
}

// UploadDocuments replaces any of the seven KYC images present in the form
func (h *DeliveryPartnerHandler) UploadDocuments(c *fiber.Ctx) error {
	d, err := currentDeliveryPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "Invalid multipart form")
	}

	d, err = h.partners.UploadDocuments(c.UserContext(), d, formUploads(form, models.DocumentFields))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Documents uploaded successfully", fiber.Map{"documents": d.Documents})
}
