package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
)

func imageUpload(field, filename, data string) Upload {
	return Upload{
		Field:    field,
		Filename: filename,
		Size:     int64(len(data)),
		Open:     func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader(data)), nil },
	}
}

// stored reports whether url points at a file that exists in env's media fs
func (env *testEnv) stored(t *testing.T, url string) bool {
	t.Helper()
	name, ok := strings.CutPrefix(url, "/media/")
	if !ok {
		t.Fatalf("url %q is not a media url", url)
	}
	exists, err := afero.Exists(env.fs, name)
	if err != nil {
		t.Fatalf("stat %s: %v", name, err)
	}
	return exists
}

func shirtCategory() models.CategoryInput {
	return models.CategoryInput{
		Name: ptr("Men"),
		Subcategories: &[]models.Subcategory{{
			Name: "Tops",
			Items: []models.ServiceItem{{
				ItemName: "Shirt",
				Methods:  []models.ServiceMethod{{MethodName: "Wash & Iron", Price: 40}, {MethodName: "Dry Clean", Price: 120}},
			}},
		}},
	}
}

func TestPartnerCategories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.signedUpPartner(t, "9876543210", "shop@example.com")
	svc := NewPartnerService(env.store.Partners(), env.media)

	cat, err := svc.AddCategory(ctx, p, shirtCategory())
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	if cat.ID == "" {
		t.Error("category has no id")
	}

	_, err = svc.AddCategory(ctx, p, models.CategoryInput{Name: ptr("  men ")})
	wantCode(t, err, models.CodeValidation)
	if !strings.Contains(err.Error(), "Category with this name already exists") {
		t.Errorf("error = %v", err)
	}

	women, err := svc.AddCategory(ctx, p, models.CategoryInput{Name: ptr("Women")})
	if err != nil {
		t.Fatalf("AddCategory: %v", err)
	}
	_, err = svc.UpdateCategory(ctx, p, women.ID, models.CategoryInput{Name: ptr("MEN")})
	wantCode(t, err, models.CodeValidation)

	renamed, err := svc.UpdateCategory(ctx, p, women.ID, models.CategoryInput{Name: ptr("Ladies")})
	if err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	if renamed.Name != "Ladies" {
		t.Errorf("renamed = %q", renamed.Name)
	}

	_, err = svc.UpdateCategory(ctx, p, "missing", models.CategoryInput{Name: ptr("X")})
	wantCode(t, err, models.CodeNotFound)

	if err := svc.DeleteCategory(ctx, p, women.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	wantCode(t, svc.DeleteCategory(ctx, p, women.ID), models.CodeNotFound)

	stored, err := env.store.Partners().Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(stored.Categories) != 1 || stored.Categories[0].Name != "Men" {
		t.Errorf("stored categories = %+v", stored.Categories)
	}
	if price, ok := stored.PriceOf("Shirt", "Dry Clean"); !ok || price != 120 {
		t.Errorf("PriceOf = %v, %v", price, ok)
	}
}

func TestPartnerCategory_RejectsNegativePrice(t *testing.T) {
	env := newTestEnv(t)
	p := env.signedUpPartner(t, "9876543210", "shop@example.com")
	svc := NewPartnerService(env.store.Partners(), env.media)

	in := shirtCategory()
	(*in.Subcategories)[0].Items[0].Methods[0].Price = -1
	_, err := svc.AddCategory(context.Background(), p, in)
	wantCode(t, err, models.CodeValidation)
}

func TestPartnerPaymentDetails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.signedUpPartner(t, "9876543210", "shop@example.com")
	svc := NewPartnerService(env.store.Partners(), env.media)

	_, err := svc.SetPaymentDetails(ctx, p, models.BankDetailsInput{})
	wantCode(t, err, models.CodeValidation)

	_, err = svc.SetPaymentDetails(ctx, p, models.BankDetailsInput{AccountNumber: "123456789012"})
	wantCode(t, err, models.CodeValidation)

	_, err = svc.SetPaymentDetails(ctx, p, models.BankDetailsInput{UPI: "not-a-upi"})
	wantCode(t, err, models.CodeValidation)

	details, err := svc.SetPaymentDetails(ctx, p, models.BankDetailsInput{
		AccountHolderName: "Shop Owner",
		AccountNumber:     "123456789012",
		IFSCCode:          "HDFC0001234",
	})
	if err != nil {
		t.Fatalf("SetPaymentDetails: %v", err)
	}
	if details.IFSCCode != "HDFC0001234" {
		t.Errorf("details = %+v", details)
	}

	details, err = svc.SetPaymentDetails(ctx, p, models.BankDetailsInput{UPI: "shop@okaxis"})
	if err != nil {
		t.Fatalf("SetPaymentDetails(upi): %v", err)
	}
	if details.UPI != "shop@okaxis" || details.AccountNumber != "123456789012" {
		t.Errorf("UPI update dropped bank details: %+v", details)
	}
}

func TestPartnerServices_MergeHours(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.signedUpPartner(t, "9876543210", "shop@example.com")
	svc := NewPartnerService(env.store.Partners(), env.media)

	_, err := svc.AddServices(ctx, p, models.ServicesInput{LaundryName: ptr("Fresh Folds")})
	wantCode(t, err, models.CodeValidation)

	_, err = svc.AddServices(ctx, p, models.ServicesInput{
		LaundryName:     ptr("Fresh Folds"),
		ExpressService:  ptr(true),
		DeliveryService: ptr(false),
		OperationHours: map[string]models.DayHours{
			"monday":  {OpeningTime: "09:00", ClosingTime: "20:00"},
			"tuesday": {OpeningTime: "09:00", ClosingTime: "20:00"},
		},
		Location: &models.GeoPoint{Latitude: 18.52, Longitude: 73.85},
	})
	if err != nil {
		t.Fatalf("AddServices: %v", err)
	}

	got, err := svc.UpdateServices(ctx, p, models.ServicesInput{
		OperationHours: map[string]models.DayHours{"tuesday": {OpeningTime: "10:00", ClosingTime: "18:00"}},
	})
	if err != nil {
		t.Fatalf("UpdateServices: %v", err)
	}
	if got.Hours["monday"].OpeningTime != "09:00" || got.Hours["tuesday"].OpeningTime != "10:00" {
		t.Errorf("hours = %+v", got.Hours)
	}
	if got.LaundryName != "Fresh Folds" || !got.ExpressServices {
		t.Errorf("update touched unrelated fields: %+v", got)
	}

	_, err = svc.UpdateServices(ctx, p, models.ServicesInput{Location: &models.GeoPoint{Latitude: 91}})
	wantCode(t, err, models.CodeValidation)
}

func TestPartnerImages_ReplaceAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.signedUpPartner(t, "9876543210", "shop@example.com")
	svc := NewPartnerService(env.store.Partners(), env.media)

	if _, err := svc.UploadLogo(ctx, p, imageUpload("file", "logo.png", "v1")); err != nil {
		t.Fatalf("UploadLogo: %v", err)
	}
	first := p.Logo
	if !env.stored(t, first) {
		t.Fatalf("logo %s not stored", first)
	}

	if _, err := svc.UploadLogo(ctx, p, imageUpload("file", "logo.jpg", "v2")); err != nil {
		t.Fatalf("UploadLogo: %v", err)
	}
	if p.Logo == first || !env.stored(t, p.Logo) {
		t.Errorf("logo not replaced: %s", p.Logo)
	}
	if env.stored(t, first) {
		t.Error("replaced logo file was not removed")
	}

	_, err := svc.UploadImages(ctx, p, []Upload{
		imageUpload("image1", "a.png", "a"),
		imageUpload("image3", "c.webp", "c"),
	})
	if err != nil {
		t.Fatalf("UploadImages: %v", err)
	}
	if p.Image1 == "" || p.Image3 == "" || p.Image2 != "" {
		t.Errorf("gallery = %q %q %q", p.Image1, p.Image2, p.Image3)
	}

	_, err = svc.UploadImages(ctx, p, []Upload{imageUpload("logo", "x.png", "x")})
	wantCode(t, err, models.CodeValidation)

	image1 := p.Image1
	if _, err := svc.DeleteImages(ctx, p, []string{"image1"}); err != nil {
		t.Fatalf("DeleteImages: %v", err)
	}
	if p.Image1 != "" || env.stored(t, image1) {
		t.Error("image1 not deleted")
	}
	_, err = svc.DeleteImages(ctx, p, []string{"banner"})
	wantCode(t, err, models.CodeValidation)

	stored, err := env.store.Partners().Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Logo != p.Logo || stored.Image3 != p.Image3 || stored.Image1 != "" {
		t.Errorf("stored images = %+v", stored)
	}
}

func TestPartnerImages_RejectsNonImages(t *testing.T) {
	env := newTestEnv(t)
	p := env.signedUpPartner(t, "9876543210", "shop@example.com")
	svc := NewPartnerService(env.store.Partners(), env.media)

	_, err := svc.UploadLogo(context.Background(), p, imageUpload("file", "logo.exe", "MZ"))
	wantCode(t, err, models.CodeValidation)
	if p.Logo != "" {
		t.Errorf("logo set after rejected upload: %s", p.Logo)
	}
}

func TestPartnerUpdate_DuplicateMobile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.signedUpPartner(t, "9876543210", "shop@example.com")
	p := env.signedUpPartner(t, "9123456789", "other@example.com")
	svc := NewPartnerService(env.store.Partners(), env.media)

	_, err := svc.Update(ctx, p, models.PartnerUpdate{Mobile: ptr("9876543210")})
	wantCode(t, err, models.CodeDuplicateActor)
	if p.Mobile != "9123456789" {
		t.Errorf("failed update changed the caller's copy: %s", p.Mobile)
	}
}
