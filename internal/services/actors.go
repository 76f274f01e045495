package services

import (
	"time"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
)

type (
	UserFlow            = Flow[models.User, *models.User]
	PartnerFlow         = Flow[models.Partner, *models.Partner]
	DeliveryPartnerFlow = Flow[models.DeliveryPartner, *models.DeliveryPartner]
)

// UserDescriptor verifies both mobile and email
func UserDescriptor(window time.Duration) Descriptor[models.User] {
	return Descriptor[models.User]{
		Kind:          models.KindUser,
		Label:         "User",
		ProfileFields: []string{"name", "email", "mobile", "address"},
		Required:      []string{"name", "email", "mobile"},
		Channels:      []models.Channel{models.ChannelMobile, models.ChannelEmail},
		ExpiryWindow:  window,
		Validate:      validateUser,
	}
}

// PartnerDescriptor verifies both mobile and email
func PartnerDescriptor(window time.Duration) Descriptor[models.Partner] {
	return Descriptor[models.Partner]{
		Kind:          models.KindPartner,
		Label:         "Partner",
		ProfileFields: []string{"name", "email", "mobile"},
		Required:      []string{"name", "email", "mobile"},
		Channels:      []models.Channel{models.ChannelMobile, models.ChannelEmail},
		ExpiryWindow:  window,
		Validate:      validatePartner,
	}
}

// DeliveryPartnerDescriptor verifies the mobile number only and requires the KYC images
func DeliveryPartnerDescriptor(window time.Duration) Descriptor[models.DeliveryPartner] {
	return Descriptor[models.DeliveryPartner]{
		Kind:  models.KindDeliveryPartner,
		Label: "Delivery partner",
		ProfileFields: []string{
			"firstName", "lastName", "mobile", "dob", "whatsappNumber", "secondaryNumber",
			"city", "completeAddress", "languages", "referrals", "aadharNumber", "pancardNumber",
			"drivingLicenceNumber", "rcNumber", "bankDetails", "emergencyContactNumber",
		},
		Required: []string{
			"firstName", "lastName", "mobile", "dob", "whatsappNumber", "city", "completeAddress",
			"languages", "aadharNumber", "pancardNumber", "drivingLicenceNumber", "rcNumber",
			"bankDetails", "emergencyContactNumber",
		},
		Documents:    models.DocumentFields,
		Channels:     []models.Channel{models.ChannelMobile},
		ExpiryWindow: window,
		Validate:     validateDeliveryPartner,
	}
}
