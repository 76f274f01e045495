package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/storage"
)

// CouponService manages the coupons a partner owns
type CouponService struct {
	coupons  storage.CouponRepository
	partners storage.ActorRepository[models.Partner]
	now      func() time.Time
	newID    func() string
}

// NewCouponService creates a new coupon service
func NewCouponService(coupons storage.CouponRepository, partners storage.ActorRepository[models.Partner]) *CouponService {
	return &CouponService{coupons: coupons, partners: partners, now: time.Now, newID: uuid.NewString}
}

// apply copies the supplied fields of in onto c and validates the result
func (s *CouponService) apply(c *models.Coupon, in models.CouponInput) error {
	if in.Code != nil {
		c.Code = normalizeCode(*in.Code)
	}
	if in.DiscountType != nil {
		c.DiscountType = *in.DiscountType
	}
	if in.DiscountValue != nil {
		if *in.DiscountValue < 0 {
			return models.ValidationError("discountValue must be non-negative")
		}
		c.DiscountValue = *in.DiscountValue
	}
	if in.MaxDiscount != nil {
		if *in.MaxDiscount < 0 {
			return models.ValidationError("maxDiscount must be non-negative")
		}
		c.MaxDiscount = *in.MaxDiscount
	}
	if in.MinOrderPrice != nil {
		if *in.MinOrderPrice < 0 {
			return models.ValidationError("minOrderPrice must be non-negative")
		}
		c.MinOrderPrice = *in.MinOrderPrice
	}
	if in.IsFirstTimeUser != nil {
		c.IsFirstTimeUser = *in.IsFirstTimeUser
	}
	if in.ExpiryDate != nil {
		if in.ExpiryDate.Before(s.now()) {
			return models.ValidationError("expiryDate cannot be in the past")
		}
		expiry := *in.ExpiryDate
		c.ExpiryDate = &expiry
	}
	if in.IsActive != nil {
		c.IsActive = *in.IsActive
	}

	switch {
	case c.Code == "":
		return models.ValidationError("code is required")
	case c.DiscountType != models.DiscountPercentage && c.DiscountType != models.DiscountAmount:
		return models.ValidationError("discountType must be percentage or amount")
	case c.DiscountType == models.DiscountPercentage && c.DiscountValue > 100:
		return models.ValidationError("percentage discountValue cannot exceed 100")
	}
	return nil
}

// Create adds a coupon owned by p and references it from the partner record
func (s *CouponService) Create(ctx context.Context, p *models.Partner, in models.CouponInput) (*models.Coupon, error) {
	if in.DiscountValue == nil {
		return nil, models.ValidationError("discountValue is required")
	}
	now := s.now()
	coupon := &models.Coupon{ID: s.newID(), PartnerID: p.ID, IsActive: true, CreatedAt: now, UpdatedAt: now}
	if err := s.apply(coupon, in); err != nil {
		return nil, err
	}

	if err := s.coupons.Create(ctx, coupon); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, models.Conflict("Coupon code already exists")
		}
		return nil, storeFailure(err)
	}

	next := *p
	next.Coupons = append(append([]string{}, p.Coupons...), coupon.ID)
	next.Touch(now)
	if err := s.partners.Update(ctx, &next); err != nil {
		if delErr := s.coupons.Delete(ctx, coupon.ID); delErr != nil {
			log.WithError(delErr).WithField("coupon_id", coupon.ID).Error("failed to remove orphaned coupon")
		}
		return nil, actorUpdateFailure(err, "Partner")
	}
	*p = next
	log.WithFields(log.Fields{"actor_id": p.ID, "coupon": coupon.Code}).Info("🎟️ Coupon created")
	return coupon, nil
}

// owned loads a coupon and hides it unless p owns it
func (s *CouponService) owned(ctx context.Context, p *models.Partner, id string) (*models.Coupon, error) {
	coupon, err := s.coupons.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) || (err == nil && coupon.PartnerID != p.ID) {
		return nil, models.NotFound("Coupon not found")
	}
	if err != nil {
		return nil, storeFailure(err)
	}
	return coupon, nil
}

// Update applies the supplied fields; unset fields keep their values
func (s *CouponService) Update(ctx context.Context, p *models.Partner, id string, in models.CouponInput) (*models.Coupon, error) {
	coupon, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}
	if err := s.apply(coupon, in); err != nil {
		return nil, err
	}
	coupon.UpdatedAt = s.now()
	if err := s.coupons.Update(ctx, coupon); err != nil {
		switch {
		case errors.Is(err, storage.ErrDuplicate):
			return nil, models.Conflict("Coupon code already exists")
		case errors.Is(err, storage.ErrNotFound):
			return nil, models.NotFound("Coupon not found")
		}
		return nil, storeFailure(err)
	}
	return coupon, nil
}

func (s *CouponService) List(ctx context.Context, p *models.Partner) ([]*models.Coupon, error) {
	coupons, err := s.coupons.ListByPartner(ctx, p.ID)
	if err != nil {
		return nil, storeFailure(err)
	}
	return coupons, nil
}

// Delete removes the coupon and its reference on the partner
func (s *CouponService) Delete(ctx context.Context, p *models.Partner, id string) error {
	if _, err := s.owned(ctx, p, id); err != nil {
		return err
	}
	if err := s.coupons.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.NotFound("Coupon not found")
		}
		return storeFailure(err)
	}

	next := *p
	next.Coupons = make([]string, 0, len(p.Coupons))
	for _, cid := range p.Coupons {
		if cid != id {
			next.Coupons = append(next.Coupons, cid)
		}
	}
	next.Touch(s.now())
	if err := s.partners.Update(ctx, &next); err != nil {
		log.WithError(err).WithField("coupon_id", id).Warn("coupon deleted but partner reference not removed")
		return nil
	}
	*p = next
	return nil
}

// Redeemable loads an active, unexpired coupon of partnerID by code
func (s *CouponService) Redeemable(ctx context.Context, partnerID, code string) (*models.Coupon, error) {
	coupon, err := s.coupons.GetByCode(ctx, normalizeCode(code))
	if errors.Is(err, storage.ErrNotFound) || (err == nil && coupon.PartnerID != partnerID) {
		return nil, models.ValidationError("Invalid coupon code")
	}
	if err != nil {
		return nil, storeFailure(err)
	}
	if !coupon.IsActive {
		return nil, models.ValidationError("Coupon is not active")
	}
	if coupon.Expired(s.now()) {
		return nil, models.ValidationError("Coupon has expired")
	}
	return coupon, nil
}
