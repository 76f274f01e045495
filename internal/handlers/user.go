package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/washpe-backend/internal/middleware"
	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/services"
)

// UserHandler handles user profile requests
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

func currentUser(c *fiber.Ctx) (*models.User, error) {
	u, ok := middleware.Actor[*models.User](c)
	if !ok {
		return nil, models.Unauthenticated("Authentication required")
	}
	return u, nil
}

// GetProfile returns the signed-in user
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "User profile fetched successfully", fiber.Map{"user": u})
}

// UpdateProfile applies a partial profile update
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var in models.UserUpdate
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if in.Name == nil && in.Email == nil && in.Mobile == nil && in.Address == nil {
		return badRequest(c, "At least one field is required")
	}

	u, err = h.users.Update(c.UserContext(), u, in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "User profile updated successfully", fiber.Map{"user": u})
}

// UploadImage replaces the profile image from the "image" form field
func (h *UserHandler) UploadImage(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	upload, err := singleUpload(c, "image")
	if err != nil {
		return respondError(c, err)
	}

	u, err = h.users.UploadImage(c.UserContext(), u, upload)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Profile image uploaded successfully", fiber.Map{"profileImage": u.ProfileImage})
}
