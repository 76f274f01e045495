package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/washpe-backend/internal/middleware"
	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/services"
)

// OrderHandler serves the order endpoints of all three actor kinds
type OrderHandler struct {
	orders *services.OrderService
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orders *services.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

// Place creates an order for the signed-in user
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	var req models.OrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	order, err := h.orders.Place(c.UserContext(), u, req)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusCreated, "Order placed successfully", fiber.Map{"order": order})
}

func (h *OrderHandler) ListForUser(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	orders, err := h.orders.ListForUser(c.UserContext(), u)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Orders fetched successfully", fiber.Map{"orders": orders})
}

func (h *OrderHandler) GetForUser(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.orders.GetForUser(c.UserContext(), u, c.Params("orderId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Order fetched successfully", fiber.Map{"order": order})
}

func (h *OrderHandler) Cancel(c *fiber.Ctx) error {
	u, err := currentUser(c)
	if err != nil {
		return respondError(c, err)
	}
	order, err := h.orders.Cancel(c.UserContext(), u, c.Params("orderId"))
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Order cancelled successfully", fiber.Map{"order": order})
}

func (h *OrderHandler) ListForPartner(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	orders, err := h.orders.ListForPartner(c.UserContext(), p)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Orders fetched successfully", fiber.Map{"orders": orders})
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *OrderHandler) SetStatus(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	order, err := h.orders.SetStatus(c.UserContext(), p, c.Params("orderId"), req.Status)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Order status updated successfully", fiber.Map{"order": order})
}

type assignRequest struct {
	DeliveryID string `json:"deliveryId"`
}

func (h *OrderHandler) AssignDelivery(c *fiber.Ctx) error {
	p, err := currentPartner(c)
	if err != nil {
		return respondError(c, err)
	}
	var req assignRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	order, err := h.orders.AssignDelivery(c.UserContext(), p, c.Params("orderId"), req.DeliveryID)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Delivery partner assigned successfully", fiber.Map{"order": order})
}

func (h *OrderHandler) ListForDelivery(c *fiber.Ctx) error {
	d, ok := middleware.Actor[*models.DeliveryPartner](c)
	if !ok {
		return respondError(c, models.Unauthenticated("Authentication required"))
	}
	orders, err := h.orders.ListForDelivery(c.UserContext(), d)
	if err != nil {
		return respondError(c, err)
	}
	return respond(c, fiber.StatusOK, "Orders fetched successfully", fiber.Map{"orders": orders})
}
