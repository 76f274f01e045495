package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/services"
)

// CouponHandler handles a partner's coupon requests
type CouponHandler struct {
	coupons *services.CouponService
}

// NewCouponHandler creates a new coupon handler
func NewCouponHandler(coupons *services.CouponService) *CouponHandler {
	return &CouponHandler{coupons: coupons}
}

func (h *CouponHandler) Create(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	var in models.CouponInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	coupon, err := h.coupons.Create(c.UserContext(), p, in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Coupon created successfully", fiber.Map{"coupon": coupon})
}

func (h *CouponHandler) Update(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	var in models.CouponInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "Invalid request body")
	}

	coupon, err := h.coupons.Update(c.UserContext(), p, c.Params("couponId"), in)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Coupon updated successfully", fiber.Map{"coupon": coupon})
}

func (h *CouponHandler) List(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	coupons, err := h.coupons.List(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Coupons fetched successfully", fiber.Map{"coupons": coupons})
}

func (h *CouponHandler) Delete(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.coupons.Delete(c.UserContext(), p, c.Params("couponId")); err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Coupon deleted successfully", nil)
}
