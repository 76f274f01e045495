package models

import (
	"math"
	"time"
)

const (
	DiscountPercentage = "percentage"
	DiscountAmount     = "amount"
)

// Coupon is a discount owned by exactly one partner
type Coupon struct {
	ID              string     `json:"id" gorm:"primaryKey" bson:"_id"`
	PartnerID       string     `json:"partnerId" gorm:"index;not null" bson:"partnerId"`
	Code            string     `json:"code" gorm:"uniqueIndex;not null" bson:"code"`
	DiscountType    string     `json:"discountType" gorm:"not null" bson:"discountType"`
	DiscountValue   float64    `json:"discountValue" bson:"discountValue"`
	MaxDiscount     float64    `json:"maxDiscount" bson:"maxDiscount"`
	MinOrderPrice   float64    `json:"minOrderPrice" bson:"minOrderPrice"`
	IsFirstTimeUser bool       `json:"isFirstTimeUser" bson:"isFirstTimeUser"`
	ExpiryDate      *time.Time `json:"expiryDate,omitempty" bson:"expiryDate,omitempty"`
	IsActive        bool       `json:"isActive" bson:"isActive"`
	CreatedAt       time.Time  `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt" bson:"updatedAt"`
}

// Expired reports whether the coupon can no longer be applied at t
func (c *Coupon) Expired(t time.Time) bool {
	return c.ExpiryDate != nil && c.ExpiryDate.Before(t)
}

// DiscountFor computes the discount on subtotal, never more than subtotal
func (c *Coupon) DiscountFor(subtotal float64) float64 {
	var d float64
	switch c.DiscountType {
	case DiscountPercentage:
		d = subtotal * c.DiscountValue / 100
		if c.MaxDiscount > 0 && d > c.MaxDiscount {
			d = c.MaxDiscount
		}
	case DiscountAmount:
		d = c.DiscountValue
	}
	d = math.Min(d, subtotal)
	return math.Round(d*100) / 100
}

// CouponInput is the body of coupon create/update calls; nil means unchanged
type CouponInput struct {
	Code            *string    `json:"code"`
	DiscountType    *string    `json:"discountType"`
	DiscountValue   *float64   `json:"discountValue"`
	MaxDiscount     *float64   `json:"maxDiscount"`
	MinOrderPrice   *float64   `json:"minOrderPrice"`
	IsFirstTimeUser *bool      `json:"isFirstTimeUser"`
	ExpiryDate      *time.Time `json:"expiryDate"`
	IsActive        *bool      `json:"isActive"`
}
