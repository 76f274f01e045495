package models

import "time"

const (
	OrderPending    = "Pending"
	OrderInProgress = "In Progress"
	OrderCompleted  = "Completed"
	OrderCancelled  = "Cancelled"
)

// ClosedOrderStatuses are terminal; an order in one of them no longer changes
var ClosedOrderStatuses = []string{OrderCompleted, OrderCancelled}

// Order is a laundry job a user places with a partner
type Order struct {
	ID              string              `json:"id" gorm:"primaryKey" bson:"_id"`
	OrderNumber     string              `json:"orderId" gorm:"uniqueIndex;not null" bson:"orderId"`
	PartnerID       string              `json:"partnerId" gorm:"index;not null" bson:"partnerId"`
	UserID          string              `json:"customerId" gorm:"index;not null" bson:"customerId"`
	Items           []OrderItem         `json:"items" gorm:"serializer:json" bson:"items"`
	Subtotal        float64             `json:"subtotal" bson:"subtotal"`
	Discount        float64             `json:"discount" bson:"discount"`
	TotalAmount     float64             `json:"totalAmount" bson:"totalAmount"`
	OrderDate       time.Time           `json:"orderDate" bson:"orderDate"`
	DeliveryDate    *time.Time          `json:"deliveryDate,omitempty" bson:"deliveryDate,omitempty"`
	Status          string              `json:"status" gorm:"index;not null" bson:"status"`
	ScheduleDetails ScheduleDetails     `json:"scheduleDetails" gorm:"serializer:json" bson:"scheduleDetails"`
	Coupon          *AppliedCoupon      `json:"coupon,omitempty" gorm:"serializer:json" bson:"coupon,omitempty"`
	Delivery        *DeliveryAssignment `json:"delivery,omitempty" gorm:"serializer:json" bson:"delivery,omitempty"`
	DeliveryID      string              `json:"-" gorm:"index" bson:"deliveryId,omitempty"`
	CreatedAt       time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt" bson:"updatedAt"`
}

type OrderItem struct {
	ItemName     string  `json:"itemName" bson:"itemName"`
	Method       string  `json:"method" bson:"method"`
	Image        string  `json:"image,omitempty" bson:"image,omitempty"`
	Instructions string  `json:"instructions,omitempty" bson:"instructions,omitempty"`
	Price        float64 `json:"price" bson:"price"`
	Quantity     int     `json:"quantity" bson:"quantity"`
}

type ScheduleDetails struct {
	Name         string          `json:"name" bson:"name"`
	MobileNumber string          `json:"mobileNumber" bson:"mobileNumber"`
	Location     ScheduleAddress `json:"location" bson:"location"`
	Date         string          `json:"date" bson:"date"`
	Time         string          `json:"time" bson:"time"`
}

type ScheduleAddress struct {
	Address   string  `json:"address" bson:"address"`
	Longitude float64 `json:"longitude" bson:"longitude"`
	Latitude  float64 `json:"latitude" bson:"latitude"`
}

type AppliedCoupon struct {
	Code     string  `json:"code" bson:"code"`
	Discount float64 `json:"discount" bson:"discount"`
}

type DeliveryAssignment struct {
	DeliveryID    string `json:"deliveryId" bson:"deliveryId"`
	Name          string `json:"name" bson:"name"`
	ContactNumber string `json:"contactNumber" bson:"contactNumber"`
}

// CanTransition reports whether an order may move from its status to next
func (o *Order) Closed() bool {
	return o.Status == OrderCompleted || o.Status == OrderCancelled
}

func (o *Order) CanTransition(next string) bool {
	switch o.Status {
	case OrderPending:
		return next == OrderInProgress || next == OrderCancelled
	case OrderInProgress:
		return next == OrderCompleted || next == OrderCancelled
	}
	return false
}

// OrderRequest is the body of a user's new order
type OrderRequest struct {
	PartnerID       string          `json:"partnerId"`
	Items           []OrderItem     `json:"items"`
	ScheduleDetails ScheduleDetails `json:"scheduleDetails"`
	CouponCode      string          `json:"couponCode"`
	DeliveryDate    *time.Time      `json:"deliveryDate"`
}
