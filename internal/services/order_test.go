package services

import (
	"context"
	"testing"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/storage"
)

type orderFixture struct {
	env     *testEnv
	user    *models.User
	partner *models.Partner
	coupons *CouponService
	orders  *OrderService
}

func newOrderFixture(t *testing.T) *orderFixture {
	t.Helper()
	env := newTestEnv(t)
	f := &orderFixture{
		env:     env,
		user:    env.signedUpUser(t, "9876543210", "asha@example.com"),
		partner: env.signedUpPartner(t, "9123456789", "shop@example.com"),
	}
	if _, err := NewPartnerService(env.store.Partners(), env.media).AddCategory(context.Background(), f.partner, shirtCategory()); err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	f.coupons = NewCouponService(env.store.Coupons(), env.store.Partners())
	f.orders = NewOrderService(env.store, f.coupons)
	return f
}

func (f *orderFixture) request(quantity int) models.OrderRequest {
	return models.OrderRequest{
		PartnerID: f.partner.ID,
		Items:     []models.OrderItem{{ItemName: "Shirt", Method: "Wash & Iron", Quantity: quantity, Price: 1}},
		ScheduleDetails: models.ScheduleDetails{
			Name:         "Asha",
			MobileNumber: "9876543210",
			Location:     models.ScheduleAddress{Address: "12 MG Road"},
			Date:         "2026-10-20",
			Time:         "10:00",
		},
	}
}

func TestOrderPlace_PricesFromCatalogue(t *testing.T) {
	f := newOrderFixture(t)

	order, err := f.orders.Place(context.Background(), f.user, f.request(3))
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if order.Items[0].Price != 40 {
		t.Errorf("client price was trusted: %v", order.Items[0].Price)
	}
	if order.Subtotal != 120 || order.TotalAmount != 120 {
		t.Errorf("subtotal %v total %v, want 120", order.Subtotal, order.TotalAmount)
	}
	if order.Status != models.OrderPending || order.OrderNumber == "" {
		t.Errorf("order = %+v", order)
	}
}

func TestOrderPlace_Validation(t *testing.T) {
	f := newOrderFixture(t)

	tests := []struct {
		name   string
		mutate func(*models.OrderRequest)
		code   string
	}{
		{"no items", func(r *models.OrderRequest) { r.Items = nil }, models.CodeValidation},
		{"zero quantity", func(r *models.OrderRequest) { r.Items[0].Quantity = 0 }, models.CodeValidation},
		{"unknown method", func(r *models.OrderRequest) { r.Items[0].Method = "Steam" }, models.CodeValidation},
		{"bad schedule mobile", func(r *models.OrderRequest) { r.ScheduleDetails.MobileNumber = "123" }, models.CodeValidation},
		{"missing date", func(r *models.OrderRequest) { r.ScheduleDetails.Date = "" }, models.CodeValidation},
		{"unknown partner", func(r *models.OrderRequest) { r.PartnerID = "nope" }, models.CodeNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := f.request(1)
			tt.mutate(&req)
			_, err := f.orders.Place(context.Background(), f.user, req)
			wantCode(t, err, tt.code)
		})
	}
}

func TestOrderPlace_Coupons(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	capped := percentCoupon("HALF", 50)
	capped.MaxDiscount = ptr(30.0)
	if _, err := f.coupons.Create(ctx, f.partner, capped); err != nil {
		t.Fatalf("Create: %v", err)
	}
	minimum := models.CouponInput{Code: ptr("BIG"), DiscountType: ptr(models.DiscountAmount), DiscountValue: ptr(25.0), MinOrderPrice: ptr(500.0)}
	if _, err := f.coupons.Create(ctx, f.partner, minimum); err != nil {
		t.Fatalf("Create: %v", err)
	}
	first := models.CouponInput{Code: ptr("WELCOME"), DiscountType: ptr(models.DiscountAmount), DiscountValue: ptr(10.0), IsFirstTimeUser: ptr(true)}
	if _, err := f.coupons.Create(ctx, f.partner, first); err != nil {
		t.Fatalf("Create: %v", err)
	}

	req := f.request(3)
	req.CouponCode = "big"
	_, err := f.orders.Place(ctx, f.user, req)
	wantCode(t, err, models.CodeValidation)

	req.CouponCode = "welcome"
	order, err := f.orders.Place(ctx, f.user, req)
	if err != nil {
		t.Fatalf("Place with first-order coupon: %v", err)
	}
	if order.Discount != 10 || order.TotalAmount != 110 {
		t.Errorf("discount %v total %v", order.Discount, order.TotalAmount)
	}

	_, err = f.orders.Place(ctx, f.user, req)
	wantCode(t, err, models.CodeValidation)

	req.CouponCode = "HALF"
	order, err = f.orders.Place(ctx, f.user, req)
	if err != nil {
		t.Fatalf("Place with capped coupon: %v", err)
	}
	if order.Discount != 30 || order.TotalAmount != 90 || order.Coupon.Code != "HALF" {
		t.Errorf("order = %+v coupon %+v", order, order.Coupon)
	}
}

func TestOrderLifecycle(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.orders.Place(ctx, f.user, f.request(1))
	if err != nil {
		t.Fatalf("Place: %v", err)
	}

	_, err = f.orders.SetStatus(ctx, f.partner, order.ID, models.OrderCompleted)
	wantCode(t, err, models.CodeValidation)

	_, err = f.orders.SetStatus(ctx, f.partner, order.ID, "Lost")
	wantCode(t, err, models.CodeValidation)

	other := f.env.signedUpPartner(t, "9000000001", "other@example.com")
	_, err = f.orders.SetStatus(ctx, other, order.ID, models.OrderInProgress)
	wantCode(t, err, models.CodeNotFound)

	if _, err := f.orders.SetStatus(ctx, f.partner, order.ID, models.OrderInProgress); err != nil {
		t.Fatalf("SetStatus(In Progress): %v", err)
	}

	_, err = f.orders.Cancel(ctx, f.user, order.ID)
	wantCode(t, err, models.CodeValidation)

	done, err := f.orders.SetStatus(ctx, f.partner, order.ID, models.OrderCompleted)
	if err != nil {
		t.Fatalf("SetStatus(Completed): %v", err)
	}
	if done.Status != models.OrderCompleted {
		t.Errorf("status = %s", done.Status)
	}

	stored, err := f.orders.GetForUser(ctx, f.user, order.ID)
	if err != nil {
		t.Fatalf("GetForUser: %v", err)
	}
	if stored.Status != models.OrderCompleted {
		t.Errorf("stored status = %s", stored.Status)
	}
}

func TestOrderCancel(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	order, err := f.orders.Place(ctx, f.user, f.request(1))
	if err != nil {
		t.Fatalf("Place: %v", err)
	}

	stranger := f.env.signedUpUser(t, "9000000002", "stranger@example.com")
	_, err = f.orders.Cancel(ctx, stranger, order.ID)
	wantCode(t, err, models.CodeNotFound)

	cancelled, err := f.orders.Cancel(ctx, f.user, order.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != models.OrderCancelled {
		t.Errorf("status = %s", cancelled.Status)
	}

	list, err := f.orders.ListForUser(ctx, f.user)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(list) != 1 || list[0].Status != models.OrderCancelled {
		t.Errorf("list = %+v", list)
	}
}

func TestOrderAssignDelivery(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	if _, err := f.env.delivery.Signup(ctx, deliveryPayload("9000000003"), documentURLs()); err != nil {
		t.Fatalf("delivery Signup: %v", err)
	}
	courier, _, err := f.env.delivery.Verify(ctx, models.Contacts{Mobile: "9000000003"},
		map[models.Channel]string{models.ChannelMobile: f.env.inbox.last("9000000003")})
	if err != nil {
		t.Fatalf("delivery Verify: %v", err)
	}

	order, err := f.orders.Place(ctx, f.user, f.request(1))
	if err != nil {
		t.Fatalf("Place: %v", err)
	}

	_, err = f.orders.AssignDelivery(ctx, f.partner, order.ID, "nobody")
	wantCode(t, err, models.CodeNotFound)

	assigned, err := f.orders.AssignDelivery(ctx, f.partner, order.ID, courier.ID)
	if err != nil {
		t.Fatalf("AssignDelivery: %v", err)
	}
	if assigned.Delivery == nil || assigned.Delivery.Name != "Ravi Kumar" || assigned.Delivery.ContactNumber != "9000000003" {
		t.Errorf("assignment = %+v", assigned.Delivery)
	}

	list, err := f.orders.ListForDelivery(ctx, courier)
	if err != nil {
		t.Fatalf("ListForDelivery: %v", err)
	}
	if len(list) != 1 || list[0].ID != order.ID {
		t.Errorf("delivery list = %+v", list)
	}

	partnerList, err := f.orders.ListForPartner(ctx, f.partner)
	if err != nil {
		t.Fatalf("ListForPartner: %v", err)
	}
	if len(partnerList) != 1 {
		t.Errorf("partner list has %d orders", len(partnerList))
	}
}

// closingOrders completes the order right after handing out a stale copy of it
type closingOrders struct {
	storage.OrderRepository
}

func (r closingOrders) Get(ctx context.Context, id string) (*models.Order, error) {
	o, err := r.OrderRepository.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := r.OrderRepository.UpdateStatus(ctx, id, models.OrderInProgress, models.OrderCompleted); err != nil {
		return nil, err
	}
	return o, nil
}

func TestOrderAssignDelivery_KeepsConcurrentClose(t *testing.T) {
	f := newOrderFixture(t)
	ctx := context.Background()

	courier := signedUpCourier(t, f.env, "9000000003")
	order, err := f.orders.Place(ctx, f.user, f.request(1))
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if _, err := f.orders.SetStatus(ctx, f.partner, order.ID, models.OrderInProgress); err != nil {
		t.Fatalf("SetStatus(In Progress): %v", err)
	}

	f.orders.orders = closingOrders{f.env.store.Orders()}
	_, err = f.orders.AssignDelivery(ctx, f.partner, order.ID, courier.ID)
	wantCode(t, err, models.CodeConflict)

	stored, err := f.env.store.Orders().Get(ctx, order.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != models.OrderCompleted {
		t.Errorf("status = %q, want Completed", stored.Status)
	}
	if stored.Delivery != nil || stored.DeliveryID != "" {
		t.Errorf("courier attached to a closed order: %+v", stored.Delivery)
	}
}
