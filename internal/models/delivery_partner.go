package models

import "time"

// DeliveryPartner picks up and drops off orders
type DeliveryPartner struct {
	ID                     string         `json:"id" gorm:"primaryKey" bson:"_id"`
	FirstName              string         `json:"firstName" bson:"firstName"`
	LastName               string         `json:"lastName" bson:"lastName"`
	Mobile                 string         `json:"mobile" gorm:"uniqueIndex;not null" bson:"mobile"`
	DOB                    string         `json:"dob" bson:"dob"`
	WhatsappNumber         string         `json:"whatsappNumber" gorm:"uniqueIndex;not null" bson:"whatsappNumber"`
	SecondaryNumber        string         `json:"secondaryNumber,omitempty" bson:"secondaryNumber,omitempty"`
	City                   string         `json:"city" bson:"city"`
	CompleteAddress        string         `json:"completeAddress" bson:"completeAddress"`
	Languages              []string       `json:"languages" gorm:"serializer:json" bson:"languages"`
	Referrals              string         `json:"referrals,omitempty" bson:"referrals,omitempty"`
	AadharNumber           string         `json:"aadharNumber" bson:"aadharNumber"`
	PancardNumber          string         `json:"pancardNumber" bson:"pancardNumber"`
	DrivingLicenceNumber   string         `json:"drivingLicenceNumber" bson:"drivingLicenceNumber"`
	RCNumber               string         `json:"rcNumber" bson:"rcNumber"`
	BankDetails            BankAccount    `json:"bankDetails" gorm:"serializer:json" bson:"bankDetails"`
	EmergencyContactNumber string         `json:"emergencyContactNumber" bson:"emergencyContactNumber"`
	Documents              DocumentSet    `json:"documents" gorm:"serializer:json" bson:"documents"`
	Login                  LoginChallenge `json:"-" gorm:"embedded;embeddedPrefix:login_" bson:"login"`
	CreatedAt              time.Time      `json:"createdAt" bson:"createdAt"`
	UpdatedAt              time.Time      `json:"updatedAt" bson:"updatedAt"`
}

func (d *DeliveryPartner) GetID() string               { return d.ID }
func (d *DeliveryPartner) ActorKind() ActorKind        { return KindDeliveryPartner }
func (d *DeliveryPartner) LoginState() *LoginChallenge { return &d.Login }

func (d *DeliveryPartner) ContactInfo() Contacts {
	return Contacts{Mobile: d.Mobile, WhatsApp: d.WhatsappNumber}
}

func (d *DeliveryPartner) Identify(id string, at time.Time) {
	d.ID = id
	d.CreatedAt = at
	d.UpdatedAt = at
}

func (d *DeliveryPartner) Touch(at time.Time) { d.UpdatedAt = at }

// AttachDocument stores an uploaded document URL, reporting whether name is a known document
func (d *DeliveryPartner) AttachDocument(name, url string) bool {
	return d.Documents.Set(name, url)
}

func (d *DeliveryPartner) FullName() string {
	if d.LastName == "" {
		return d.FirstName
	}
	return d.FirstName + " " + d.LastName
}

type BankAccount struct {
	AccountNumber     string `json:"accountNumber,omitempty" bson:"accountNumber,omitempty"`
	IFSCCode          string `json:"ifscCode,omitempty" bson:"ifscCode,omitempty"`
	AccountHolderName string `json:"accountHolderName,omitempty" bson:"accountHolderName,omitempty"`
}

// DocumentFields are the KYC images a delivery partner uploads, in form-field order
var DocumentFields = []string{
	"aadharFrontPhoto",
	"aadharBackPhoto",
	"pancardFrontPhoto",
	"drivingLicenceFrontPhoto",
	"drivingLicenceBackPhoto",
	"rcFrontPhoto",
	"rcBackPhoto",
}

// DocumentSet holds the storage URLs of the uploaded KYC images
type DocumentSet struct {
	AadharFrontPhoto         string `json:"aadharFrontPhoto,omitempty" bson:"aadharFrontPhoto,omitempty"`
	AadharBackPhoto          string `json:"aadharBackPhoto,omitempty" bson:"aadharBackPhoto,omitempty"`
	PancardFrontPhoto        string `json:"pancardFrontPhoto,omitempty" bson:"pancardFrontPhoto,omitempty"`
	DrivingLicenceFrontPhoto string `json:"drivingLicenceFrontPhoto,omitempty" bson:"drivingLicenceFrontPhoto,omitempty"`
	DrivingLicenceBackPhoto  string `json:"drivingLicenceBackPhoto,omitempty" bson:"drivingLicenceBackPhoto,omitempty"`
	RCFrontPhoto             string `json:"rcFrontPhoto,omitempty" bson:"rcFrontPhoto,omitempty"`
	RCBackPhoto              string `json:"rcBackPhoto,omitempty" bson:"rcBackPhoto,omitempty"`
}

func (s *DocumentSet) field(name string) *string {
	switch name {
	case "aadharFrontPhoto":
		return &s.AadharFrontPhoto
	case "aadharBackPhoto":
		return &s.AadharBackPhoto
	case "pancardFrontPhoto":
		return &s.PancardFrontPhoto
	case "drivingLicenceFrontPhoto":
		return &s.DrivingLicenceFrontPhoto
	case "drivingLicenceBackPhoto":
		return &s.DrivingLicenceBackPhoto
	case "rcFrontPhoto":
		return &s.RCFrontPhoto
	case "rcBackPhoto":
		return &s.RCBackPhoto
	}
	return nil
}

// Get returns the URL stored for a document field, "" when unknown or unset
func (s DocumentSet) Get(name string) string {
	if f := s.field(name); f != nil {
		return *f
	}
	return ""
}

// Set stores url under a document field and reports whether the field exists
func (s *DocumentSet) Set(name, url string) bool {
	f := s.field(name)
	if f == nil {
		return false
	}
	*f = url
	return true
}

// URLs returns every populated document URL
func (s DocumentSet) URLs() []string {
	var urls []string
	for _, name := range DocumentFields {
		if u := s.Get(name); u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// DeliveryPartnerUpdate is a partial profile update; nil means unchanged
type DeliveryPartnerUpdate struct {
	FirstName              *string      `json:"firstName"`
	LastName               *string      `json:"lastName"`
	DOB                    *string      `json:"dob"`
	WhatsappNumber         *string      `json:"whatsappNumber"`
	SecondaryNumber        *string      `json:"secondaryNumber"`
	City                   *string      `json:"city"`
	CompleteAddress        *string      `json:"completeAddress"`
	Languages              *[]string    `json:"languages"`
	Referrals              *string      `json:"referrals"`
	AadharNumber           *string      `json:"aadharNumber"`
	PancardNumber          *string      `json:"pancardNumber"`
	DrivingLicenceNumber   *string      `json:"drivingLicenceNumber"`
	RCNumber               *string      `json:"rcNumber"`
	BankDetails            *BankAccount `json:"bankDetails"`
	EmergencyContactNumber *string      `json:"emergencyContactNumber"`
}
