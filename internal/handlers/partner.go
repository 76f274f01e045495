package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/washpe-backend/internal/middleware"
	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/services"
)

// PartnerHandler handles partner profile, catalogue and media requests
type PartnerHandler struct {
	partners *services.PartnerService
}

// NewPartnerHandler creates a new partner handler
func NewPartnerHandler(partners *services.PartnerService) *PartnerHandler {
	return &PartnerHandler{partners: partners}
}

func currentPartner(c *fiber.Ctx) (*models.Partner, error) {
	p, ok := middleware.Actor[*models.Partner](c)
	if !ok {
		return nil, models.Unauthenticated("Authentication required")
	}
	return p, nil
}

func servicesPayload(p *models.Partner) fiber.Map {
	return fiber.Map{
		"laundryName":      p.LaundryName,
		"expressServices":  p.ExpressServices,
		"deliveryServices": p.DeliveryServices,
		"hours":            p.Hours,
		"location":         p.Location,
	}
}

func (h *PartnerHandler) GetProfile(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Partner profile fetched successfully", fiber.Map{"partner": p})
}

func (h *PartnerHandler) UpdateProfile(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	var in models.PartnerUpdate
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if in.Name == nil && in.Email == nil && in.Mobile == nil {
		return badRequest(c, "At least one field is required")
	}

	p, err = h.partners.Update(c.UserContext(), p, in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Partner profile updated successfully", fiber.Map{"partner": p})
}

type categoryRequest struct {
	Category *models.CategoryInput `json:"category"`
}

func parseCategory(c *fiber.Ctx) (models.CategoryInput, error) {
	var req categoryRequest
	if err := c.BodyParser(&req); err != nil {
		return models.CategoryInput{}, models.ValidationError("Invalid request body")
	}
	if req.Category == nil {
		return models.CategoryInput{}, models.ValidationError("Category data is required")
	}
	return *req.Category, nil
}

func (h *PartnerHandler) AddCategory(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	in, err := parseCategory(c)
	if err != nil {
		return respondError(c, err)
	}

	category, err := h.partners.AddCategory(c.UserContext(), p, in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Category added successfully",
		fiber.Map{"category": category, "categories": p.Categories})
}

func (h *PartnerHandler) ListCategories(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Categories fetched successfully", fiber.Map{"categories": p.Categories})
}

func (h *PartnerHandler) UpdateCategory(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	in, err := parseCategory(c)
	if err != nil {
		return respondError(c, err)
	}

	category, err := h.partners.UpdateCategory(c.UserContext(), p, c.Params("categoryId"), in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Category updated successfully", fiber.Map{"category": category})
}

func (h *PartnerHandler) DeleteCategory(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.partners.DeleteCategory(c.UserContext(), p, c.Params("categoryId")); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Category deleted successfully", fiber.Map{"categories": p.Categories})
}

// SetBankDetails adds or updates the payout methods
func (h *PartnerHandler) SetBankDetails(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	var in models.BankDetailsInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	details, err := h.partners.SetPaymentDetails(c.UserContext(), p, in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Bank details updated successfully", fiber.Map{"paymentDetails": details})
}

func (h *PartnerHandler) AddServices(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	var in models.ServicesInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	p, err = h.partners.AddServices(c.UserContext(), p, in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Services and location added successfully", servicesPayload(p))
}

func (h *PartnerHandler) UpdateServices(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	var in models.ServicesInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	p, err = h.partners.UpdateServices(c.UserContext(), p, in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Services and location updated successfully", servicesPayload(p))
}

// UploadLogo replaces the logo from the "logo" form field
func (h *PartnerHandler) UploadLogo(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	upload, err := singleUpload(c, "logo")
	if err != nil {
		return respondError(c, err)
	}

	p, err = h.partners.UploadLogo(c.UserContext(), p, upload)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Logo uploaded successfully", fiber.Map{"logo": p.Logo})
}

// UploadImages fills the gallery from form fields image1..image4
func (h *PartnerHandler) UploadImages(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "Invalid multipart form")
	}

	p, err = h.partners.UploadImages(c.UserContext(), p, formUploads(form, services.PartnerImageFields))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Images uploaded successfully", fiber.Map{
		"image1": p.Image1,
		"image2": p.Image2,
		"image3": p.Image3,
		"image4": p.Image4,
	})
}

// UploadProfileImage replaces the profile image from the "profileImage" form field
func (h *PartnerHandler) UploadProfileImage(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	upload, err := singleUpload(c, "profileImage")
	if err != nil {
		return respondError(c, err)
	}

	p, err = h.partners.UploadProfileImage(c.UserContext(), p, upload)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Profile image uploaded successfully", fiber.Map{"profileImage": p.ProfileImage})
}

type deleteImagesRequest struct {
	Images []string `json:"images"`
}

func (h *PartnerHandler) DeleteImages(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	var req deleteImagesRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	if _, err := h.partners.DeleteImages(c.UserContext(), p, req.Images); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Images deleted successfully", nil)
}
