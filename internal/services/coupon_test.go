package services

import (
	"context"
	"testing"
	"time"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
)

func ptr[T any](v T) *T { return &v }

func percentCoupon(code string, value float64) models.CouponInput {
	return models.CouponInput{
		Code:          ptr(code),
		DiscountType:  ptr(models.DiscountPercentage),
		DiscountValue: ptr(value),
	}
}

func TestCouponCreate_ReferencesPartner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.signedUpPartner(t, "9876543210", "shop@example.com")
	svc := NewCouponService(env.store.Coupons(), env.store.Partners())

	c, err := svc.Create(ctx, p, percentCoupon(" save10 ", 10))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Code != "SAVE10" || !c.IsActive || c.PartnerID != p.ID {
		t.Errorf("coupon = %+v", c)
	}

	stored, err := env.store.Partners().Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get partner: %v", err)
	}
	if len(stored.Coupons) != 1 || stored.Coupons[0] != c.ID {
		t.Errorf("partner coupons = %v, want [%s]", stored.Coupons, c.ID)
	}
}

func TestCouponCreate_Validation(t *testing.T) {
	env := newTestEnv(t)
	p := env.signedUpPartner(t, "9876543210", "shop@example.com")
	svc := NewCouponService(env.store.Coupons(), env.store.Partners())
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name string
		in   models.CouponInput
	}{
		{"missing value", models.CouponInput{Code: ptr("A"), DiscountType: ptr(models.DiscountAmount)}},
		{"negative value", models.CouponInput{Code: ptr("A"), DiscountType: ptr(models.DiscountAmount), DiscountValue: ptr(-5.0)}},
		{"negative max discount", models.CouponInput{Code: ptr("A"), DiscountType: ptr(models.DiscountPercentage), DiscountValue: ptr(5.0), MaxDiscount: ptr(-1.0)}},
		{"percentage above 100", percentCoupon("A", 120)},
		{"unknown type", models.CouponInput{Code: ptr("A"), DiscountType: ptr("bogo"), DiscountValue: ptr(5.0)}},
		{"past expiry", models.CouponInput{Code: ptr("A"), DiscountType: ptr(models.DiscountAmount), DiscountValue: ptr(5.0), ExpiryDate: &past}},
		{"missing code", models.CouponInput{DiscountType: ptr(models.DiscountAmount), DiscountValue: ptr(5.0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), p, tt.in)
			wantCode(t, err, models.CodeValidation)
		})
	}
}

func TestCouponCreate_DuplicateCode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.signedUpPartner(t, "9876543210", "shop@example.com")
	svc := NewCouponService(env.store.Coupons(), env.store.Partners())

	if _, err := svc.Create(ctx, p, percentCoupon("SAVE10", 10)); err != nil {
		t.Fatalf("Create: %v", err)
	}
	_, err := svc.Create(ctx, p, percentCoupon("save10", 20))
	wantCode(t, err, models.CodeConflict)
}

func TestCouponUpdate_PartialKeepsOtherFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.signedUpPartner(t, "9876543210", "shop@example.com")
	svc := NewCouponService(env.store.Coupons(), env.store.Partners())

	in := percentCoupon("SAVE10", 10)
	in.MaxDiscount = ptr(50.0)
	in.MinOrderPrice = ptr(200.0)
	c, err := svc.Create(ctx, p, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.Update(ctx, p, c.ID, models.CouponInput{IsActive: ptr(false)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.IsActive {
		t.Error("coupon still active")
	}
	if got.Code != "SAVE10" || got.DiscountValue != 10 || got.MaxDiscount != 50 || got.MinOrderPrice != 200 {
		t.Errorf("partial update changed other fields: %+v", got)
	}
}

func TestCouponUpdate_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.signedUpPartner(t, "9876543210", "shop@example.com")
	svc := NewCouponService(env.store.Coupons(), env.store.Partners())

	c, err := svc.Create(ctx, p, percentCoupon("SAVE10", 10))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	past := time.Now().Add(-time.Hour)

	tests := []struct {
		name string
		in   models.CouponInput
	}{
		{"negative value", models.CouponInput{DiscountValue: ptr(-1.0)}},
		{"negative max discount", models.CouponInput{MaxDiscount: ptr(-1.0)}},
		{"negative min order price", models.CouponInput{MinOrderPrice: ptr(-1.0)}},
		{"past expiry", models.CouponInput{ExpiryDate: &past}},
		{"percentage above 100", models.CouponInput{DiscountValue: ptr(150.0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(ctx, p, c.ID, tt.in)
			wantCode(t, err, models.CodeValidation)

			stored, err := env.store.Coupons().Get(ctx, c.ID)
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if stored.DiscountValue != 10 || stored.MaxDiscount != 0 || stored.MinOrderPrice != 0 || stored.ExpiryDate != nil {
				t.Errorf("rejected update changed the coupon: %+v", stored)
			}
		})
	}
}

func TestCoupon_OtherPartnersCouponIsHidden(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := env.signedUpPartner(t, "9876543210", "shop@example.com")
	other := env.signedUpPartner(t, "9123456789", "other@example.com")
	svc := NewCouponService(env.store.Coupons(), env.store.Partners())

	c, err := svc.Create(ctx, owner, percentCoupon("SAVE10", 10))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.Update(ctx, other, c.ID, models.CouponInput{IsActive: ptr(false)})
	wantCode(t, err, models.CodeNotFound)
	wantCode(t, svc.Delete(ctx, other, c.ID), models.CodeNotFound)

	list, err := svc.List(ctx, other)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("other partner sees %d coupons", len(list))
	}
}

func TestCouponDelete_RemovesPartnerReference(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.signedUpPartner(t, "9876543210", "shop@example.com")
	svc := NewCouponService(env.store.Coupons(), env.store.Partners())

	c, err := svc.Create(ctx, p, percentCoupon("SAVE10", 10))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, p, c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	stored, err := env.store.Partners().Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get partner: %v", err)
	}
	if len(stored.Coupons) != 0 {
		t.Errorf("partner still references %v", stored.Coupons)
	}
	wantCode(t, svc.Delete(ctx, p, c.ID), models.CodeNotFound)
}

func TestCouponRedeemable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.signedUpPartner(t, "9876543210", "shop@example.com")
	svc := NewCouponService(env.store.Coupons(), env.store.Partners())

	active, err := svc.Create(ctx, p, percentCoupon("ACTIVE", 10))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	inactive := percentCoupon("PAUSED", 10)
	inactive.IsActive = ptr(false)
	if _, err := svc.Create(ctx, p, inactive); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if c, err := svc.Redeemable(ctx, p.ID, "active"); err != nil || c.ID != active.ID {
		t.Errorf("Redeemable(active) = %v, %v", c, err)
	}
	_, err = svc.Redeemable(ctx, p.ID, "PAUSED")
	wantCode(t, err, models.CodeValidation)
	_, err = svc.Redeemable(ctx, "someone-else", "ACTIVE")
	wantCode(t, err, models.CodeValidation)
	_, err = svc.Redeemable(ctx, p.ID, "MISSING")
	wantCode(t, err, models.CodeValidation)

	svc.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	expiring := percentCoupon("SOON", 10)
	expiring.ExpiryDate = ptr(time.Now().Add(72 * time.Hour))
	if _, err := svc.Create(ctx, p, expiring); err != nil {
		t.Fatalf("Create: %v", err)
	}
	svc.now = func() time.Time { return time.Now().Add(96 * time.Hour) }
	_, err = svc.Redeemable(ctx, p.ID, "SOON")
	wantCode(t, err, models.CodeValidation)
}
