package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/storage"
	"github.com/Ananth-NQI/washpe-backend/internal/utils"
)

// OrderService prices, places and tracks laundry orders
type OrderService struct {
	orders    storage.OrderRepository
	partners  storage.ActorRepository[models.Partner]
	delivery  storage.ActorRepository[models.DeliveryPartner]
	coupons   *CouponService
	now       func() time.Time
	newID     func() string
	newNumber func() (string, error)
}

// NewOrderService creates a new order service
func NewOrderService(store storage.Store, coupons *CouponService) *OrderService {
	return &OrderService{
		orders:    store.Orders(),
		partners:  store.Partners(),
		delivery:  store.DeliveryPartners(),
		coupons:   coupons,
		now:       time.Now,
		newID:     uuid.NewString,
		newNumber: func() (string, error) { return utils.GenerateSecureID("ORD") },
	}
}

func roundMoney(v float64) float64 { return math.Round(v*100) / 100 }

// Place prices the items from the partner's catalogue, applies an optional
// coupon and stores the order as Pending
func (s *OrderService) Place(ctx context.Context, u *models.User, req models.OrderRequest) (*models.Order, error) {
	if strings.TrimSpace(req.PartnerID) == "" {
		return nil, models.ValidationError("partnerId is required")
	}
	if len(req.Items) == 0 {
		return nil, models.ValidationError("items are required")
	}
	sched := req.ScheduleDetails
	switch {
	case strings.TrimSpace(sched.Name) == "":
		return nil, models.ValidationError("scheduleDetails.name is required")
	case strings.TrimSpace(sched.MobileNumber) == "":
		return nil, models.ValidationError("scheduleDetails.mobileNumber is required")
	case strings.TrimSpace(sched.Location.Address) == "":
		return nil, models.ValidationError("scheduleDetails.location.address is required")
	case strings.TrimSpace(sched.Date) == "":
		return nil, models.ValidationError("scheduleDetails.date is required")
	case strings.TrimSpace(sched.Time) == "":
		return nil, models.ValidationError("scheduleDetails.time is required")
	}
	if err := ValidateMobile("scheduleDetails.mobileNumber", sched.MobileNumber); err != nil {
		return nil, err
	}

	partner, err := s.partners.Get(ctx, req.PartnerID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, models.NotFound("Partner not found")
	}
	if err != nil {
		return nil, storeFailure(err)
	}

	items := make([]models.OrderItem, 0, len(req.Items))
	var subtotal float64
	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, models.ValidationError(fmt.Sprintf("quantity of %s must be at least 1", item.ItemName))
		}
		price, ok := partner.PriceOf(item.ItemName, item.Method)
		if !ok {
			return nil, models.ValidationError(fmt.Sprintf("%s with %s is not offered by this partner", item.ItemName, item.Method))
		}
		item.Price = price
		items = append(items, item)
		subtotal += price * float64(item.Quantity)
	}
	subtotal = roundMoney(subtotal)

	now := s.now()
	order := &models.Order{
		ID:              s.newID(),
		PartnerID:       partner.ID,
		UserID:          u.ID,
		Items:           items,
		Subtotal:        subtotal,
		TotalAmount:     subtotal,
		OrderDate:       now,
		DeliveryDate:    req.DeliveryDate,
		Status:          models.OrderPending,
		ScheduleDetails: sched,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if code := strings.TrimSpace(req.CouponCode); code != "" {
		applied, err := s.applyCoupon(ctx, u, partner.ID, code, subtotal)
		if err != nil {
			return nil, err
		}
		order.Coupon = applied
		order.Discount = applied.Discount
		order.TotalAmount = roundMoney(subtotal - applied.Discount)
	}

	if order.OrderNumber, err = s.newNumber(); err != nil {
		return nil, models.InternalError(err)
	}
	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, models.Conflict("order number collision, please retry")
		}
		return nil, storeFailure(err)
	}
	log.WithFields(log.Fields{"actor_id": u.ID, "order": order.OrderNumber, "total": order.TotalAmount}).Info("🧺 Order placed")
	return order, nil
}

func (s *OrderService) applyCoupon(ctx context.Context, u *models.User, partnerID, code string, subtotal float64) (*models.AppliedCoupon, error) {
	coupon, err := s.coupons.Redeemable(ctx, partnerID, code)
	if err != nil {
		return nil, err
	}
	if subtotal < coupon.MinOrderPrice {
		return nil, models.ValidationError(fmt.Sprintf("Minimum order price for this coupon is %.2f", coupon.MinOrderPrice))
	}
	if coupon.IsFirstTimeUser {
		count, err := s.orders.CountByUser(ctx, u.ID)
		if err != nil {
			return nil, storeFailure(err)
		}
		if count > 0 {
			return nil, models.ValidationError("Coupon is only valid on a first order")
		}
	}
	return &models.AppliedCoupon{Code: coupon.Code, Discount: coupon.DiscountFor(subtotal)}, nil
}

func (s *OrderService) get(ctx context.Context, id string) (*models.Order, error) {
	order, err := s.orders.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, models.NotFound("Order not found")
	}
	if err != nil {
		return nil, storeFailure(err)
	}
	return order, nil
}

func listed(orders []*models.Order, err error) ([]*models.Order, error) {
	if err != nil {
		return nil, storeFailure(err)
	}
	return orders, nil
}

func (s *OrderService) ListForUser(ctx context.Context, u *models.User) ([]*models.Order, error) {
	return listed(s.orders.ListByUser(ctx, u.ID))
}

func (s *OrderService) ListForPartner(ctx context.Context, p *models.Partner) ([]*models.Order, error) {
	return listed(s.orders.ListByPartner(ctx, p.ID))
}

func (s *OrderService) ListForDelivery(ctx context.Context, d *models.DeliveryPartner) ([]*models.Order, error) {
	return listed(s.orders.ListByDelivery(ctx, d.ID))
}

// GetForUser returns an order placed by u; other users' orders are not found
func (s *OrderService) GetForUser(ctx context.Context, u *models.User, id string) (*models.Order, error) {
	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != u.ID {
		return nil, models.NotFound("Order not found")
	}
	return order, nil
}

func (s *OrderService) transition(ctx context.Context, order *models.Order, next string) (*models.Order, error) {
	if !order.CanTransition(next) {
		return nil, models.ValidationError(fmt.Sprintf("Order cannot move from %s to %s", order.Status, next))
	}
	if err := s.orders.UpdateStatus(ctx, order.ID, order.Status, next); err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return nil, models.Conflict("Order status changed concurrently")
		case errors.Is(err, storage.ErrNotFound):
			return nil, models.NotFound("Order not found")
		}
		return nil, storeFailure(err)
	}
	order.Status = next
	order.UpdatedAt = s.now()
	return order, nil
}

// Cancel cancels a user's order while it is still Pending
func (s *OrderService) Cancel(ctx context.Context, u *models.User, id string) (*models.Order, error) {
	order, err := s.GetForUser(ctx, u, id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderPending {
		return nil, models.ValidationError("Only pending orders can be cancelled")
	}
	return s.transition(ctx, order, models.OrderCancelled)
}

func (s *OrderService) partnerOrder(ctx context.Context, p *models.Partner, id string) (*models.Order, error) {
	order, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.PartnerID != p.ID {
		return nil, models.NotFound("Order not found")
	}
	return order, nil
}

// SetStatus moves one of the partner's orders along its lifecycle
func (s *OrderService) SetStatus(ctx context.Context, p *models.Partner, id, status string) (*models.Order, error) {
	switch status {
	case models.OrderInProgress, models.OrderCompleted, models.OrderCancelled:
	default:
		return nil, models.ValidationError("status must be In Progress, Completed or Cancelled")
	}
	order, err := s.partnerOrder(ctx, p, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, order, status)
}

// AssignDelivery hands an open order of the partner to a delivery partner
func (s *OrderService) AssignDelivery(ctx context.Context, p *models.Partner, id, deliveryID string) (*models.Order, error) {
	if strings.TrimSpace(deliveryID) == "" {
		return nil, models.ValidationError("deliveryId is required")
	}
	order, err := s.partnerOrder(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if order.Closed() {
		return nil, models.ValidationError("Order is already closed")
	}
	courier, err := s.delivery.Get(ctx, deliveryID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, models.NotFound("Delivery partner not found")
	}
	if err != nil {
		return nil, storeFailure(err)
	}

	assignment := &models.DeliveryAssignment{
		DeliveryID:    courier.ID,
		Name:          courier.FullName(),
		ContactNumber: courier.Mobile,
	}
	if err := s.orders.AssignDelivery(ctx, order.ID, assignment); err != nil {
		switch {
		case errors.Is(err, storage.ErrConflict):
			return nil, models.Conflict("Order was closed concurrently")
		case errors.Is(err, storage.ErrNotFound):
			return nil, models.NotFound("Order not found")
		}
		return nil, storeFailure(err)
	}
	order.DeliveryID = courier.ID
	order.Delivery = assignment
	order.UpdatedAt = s.now()
	log.WithFields(log.Fields{"order": order.OrderNumber, "delivery_id": courier.ID}).Info("🚚 Delivery assigned")
	return order, nil
}
