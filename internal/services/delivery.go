package services

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/storage"
)

// DeliveryPartnerService manages delivery partner profiles and KYC documents
type DeliveryPartnerService struct {
	partners storage.ActorRepository[models.DeliveryPartner]
	media    *MediaStore
	now      func() time.Time
}

// NewDeliveryPartnerService creates a new delivery partner service
func NewDeliveryPartnerService(partners storage.ActorRepository[models.DeliveryPartner], media *MediaStore) *DeliveryPartnerService {
	return &DeliveryPartnerService{partners: partners, media: media, now: time.Now}
}

func (s *DeliveryPartnerService) save(ctx context.Context, d *models.DeliveryPartner) error {
	d.Touch(s.now())
	if err := s.partners.Update(ctx, d); err != nil {
		return actorUpdateFailure(err, "Delivery partner")
	}
	return nil
}

func setText(dst *string, src *string, field string, required bool) error {
	if src == nil {
		return nil
	}
	v := strings.TrimSpace(*src)
	if required && v == "" {
		return models.ValidationError(field + " cannot be empty")
	}
	*dst = v
	return nil
}

// Update applies the supplied profile fields. The mobile number is the login
// identity and cannot be changed here.
func (s *DeliveryPartnerService) Update(ctx context.Context, d *models.DeliveryPartner, in models.DeliveryPartnerUpdate) (*models.DeliveryPartner, error) {
	next := *d
	texts := []struct {
		dst      *string
		src      *string
		field    string
		required bool
	}{
		{&next.FirstName, in.FirstName, "firstName", true},
		{&next.LastName, in.LastName, "lastName", true},
		{&next.DOB, in.DOB, "dob", true},
		{&next.WhatsappNumber, in.WhatsappNumber, "whatsappNumber", true},
		{&next.SecondaryNumber, in.SecondaryNumber, "secondaryNumber", false},
		{&next.City, in.City, "city", true},
		{&next.CompleteAddress, in.CompleteAddress, "completeAddress", true},
		{&next.Referrals, in.Referrals, "referrals", false},
		{&next.AadharNumber, in.AadharNumber, "aadharNumber", true},
		{&next.PancardNumber, in.PancardNumber, "pancardNumber", true},
		{&next.DrivingLicenceNumber, in.DrivingLicenceNumber, "drivingLicenceNumber", true},
		{&next.RCNumber, in.RCNumber, "rcNumber", true},
		{&next.EmergencyContactNumber, in.EmergencyContactNumber, "emergencyContactNumber", true},
	}
	for _, t := range texts {
		if err := setText(t.dst, t.src, t.field, t.required); err != nil {
			return nil, err
		}
	}
	if in.Languages != nil {
		next.Languages = append([]string{}, *in.Languages...)
	}
	if in.BankDetails != nil {
		next.BankDetails = *in.BankDetails
	}
	if err := validateDeliveryPartner(&next); err != nil {
		return nil, err
	}

	if err := s.save(ctx, &next); err != nil {
		return nil, err
	}
	*d = next
	return d, nil
}

// UploadDocuments replaces the supplied KYC images; other documents stay as they are
func (s *DeliveryPartnerService) UploadDocuments(ctx context.Context, d *models.DeliveryPartner, uploads []Upload) (*models.DeliveryPartner, error) {
	if len(uploads) == 0 {
		return nil, models.ValidationError("No files uploaded")
	}
	slots := make(map[string]*string, len(models.DocumentFields))
	for _, name := range models.DocumentFields {
		url := d.Documents.Get(name)
		slots[name] = &url
	}
	err := swapImages(ctx, s.media, "delivery/"+d.ID, uploads, slots, func() error {
		for name, url := range slots {
			d.Documents.Set(name, *url)
		}
		return s.save(ctx, d)
	})
	if err != nil {
		// persist may have written the new URLs before failing
		for name, url := range slots {
			d.Documents.Set(name, *url)
		}
		return nil, err
	}
	log.WithFields(log.Fields{"actor_id": d.ID, "count": len(uploads)}).Info("📄 Documents uploaded")
	return d, nil
}
