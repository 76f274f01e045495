package models

import "time"

// Partner is a laundry service provider
type Partner struct {
	ID               string              `json:"id" gorm:"primaryKey" bson:"_id"`
	Name             string              `json:"name" bson:"name"`
	Email            string              `json:"email" gorm:"uniqueIndex:idx_partners_email,where:email <> ''" bson:"email"`
	Mobile           string              `json:"mobile" gorm:"uniqueIndex;not null" bson:"mobile"`
	ProfileImage     string              `json:"profileImage,omitempty" bson:"profileImage,omitempty"`
	LaundryName      string              `json:"laundryName,omitempty" bson:"laundryName,omitempty"`
	ExpressServices  bool                `json:"expressServices" bson:"expressServices"`
	DeliveryServices bool                `json:"deliveryServices" bson:"deliveryServices"`
	Hours            map[string]DayHours `json:"hours,omitempty" gorm:"serializer:json" bson:"hours,omitempty"`
	Location         *GeoPoint           `json:"location,omitempty" gorm:"serializer:json" bson:"location,omitempty"`
	Categories       []Category          `json:"categories" gorm:"serializer:json" bson:"categories"`
	PaymentDetails   PaymentDetails      `json:"paymentDetails" gorm:"serializer:json" bson:"paymentDetails"`
	Logo             string              `json:"logo,omitempty" bson:"logo,omitempty"`
	Image1           string              `json:"image1,omitempty" bson:"image1,omitempty"`
	Image2           string              `json:"image2,omitempty" bson:"image2,omitempty"`
	Image3           string              `json:"image3,omitempty" bson:"image3,omitempty"`
	Image4           string              `json:"image4,omitempty" bson:"image4,omitempty"`
	Coupons          []string            `json:"coupons" gorm:"serializer:json" bson:"coupons"`
	Login            LoginChallenge      `json:"-" gorm:"embedded;embeddedPrefix:login_" bson:"login"`
	CreatedAt        time.Time           `json:"createdAt" bson:"createdAt"`
	UpdatedAt        time.Time           `json:"updatedAt" bson:"updatedAt"`
}

func (p *Partner) GetID() string               { return p.ID }
func (p *Partner) ActorKind() ActorKind        { return KindPartner }
func (p *Partner) LoginState() *LoginChallenge { return &p.Login }

func (p *Partner) ContactInfo() Contacts {
	return Contacts{Mobile: p.Mobile, Email: p.Email}
}

func (p *Partner) Identify(id string, at time.Time) {
	p.ID = id
	p.CreatedAt = at
	p.UpdatedAt = at
	if p.Categories == nil {
		p.Categories = []Category{}
	}
	if p.Coupons == nil {
		p.Coupons = []string{}
	}
}

func (p *Partner) Touch(at time.Time) { p.UpdatedAt = at }

// Weekdays lists the keys accepted in Partner.Hours
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

// DayHours is the opening window of one weekday, "HH:MM" local time
type DayHours struct {
	OpeningTime string `json:"openingTime" bson:"openingTime"`
	ClosingTime string `json:"closingTime" bson:"closingTime"`
}

type GeoPoint struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// Category is the top of the partner's service catalogue tree
type Category struct {
	ID            string        `json:"id" bson:"id"`
	Name          string        `json:"name" bson:"name"`
	Subcategories []Subcategory `json:"subcategories" bson:"subcategories"`
}

type Subcategory struct {
	Name  string        `json:"name" bson:"name"`
	Items []ServiceItem `json:"items" bson:"items"`
}

type ServiceItem struct {
	ItemName string          `json:"itemName" bson:"itemName"`
	Methods  []ServiceMethod `json:"methods" bson:"methods"`
}

type ServiceMethod struct {
	MethodName string  `json:"methodName" bson:"methodName"`
	Price      float64 `json:"price" bson:"price"`
}

// PriceOf looks up the price of a washing method for an item across all categories
func (p *Partner) PriceOf(itemName, method string) (float64, bool) {
	for _, cat := range p.Categories {
		for _, sub := range cat.Subcategories {
			for _, item := range sub.Items {
				if item.ItemName != itemName {
					continue
				}
				for _, m := range item.Methods {
					if m.MethodName == method {
						return m.Price, true
					}
				}
			}
		}
	}
	return 0, false
}

// PaymentDetails holds how a partner gets paid out
type PaymentDetails struct {
	AccountHolderName string `json:"accountHolderName,omitempty" bson:"accountHolderName,omitempty"`
	AccountNumber     string `json:"accountNumber,omitempty" bson:"accountNumber,omitempty"`
	IFSCCode          string `json:"ifscCode,omitempty" bson:"ifscCode,omitempty"`
	PhonePe           string `json:"phonePe,omitempty" bson:"phonePe,omitempty"`
	UPI               string `json:"Upi,omitempty" bson:"upi,omitempty"`
}

// PartnerUpdate is a partial profile update; nil means unchanged
type PartnerUpdate struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Mobile *string `json:"mobile"`
}

// CategoryInput is the body of category create/update calls
type CategoryInput struct {
	Name          *string        `json:"name"`
	Subcategories *[]Subcategory `json:"subcategories"`
}

// BankDetailsInput is the body of the payment details call
type BankDetailsInput struct {
	AccountHolderName string `json:"accountHolderName"`
	AccountNumber     string `json:"accountNumber"`
	IFSCCode          string `json:"ifscCode"`
	PhonePe           string `json:"phonePe"`
	UPI               string `json:"Upi"`
}

// ServicesInput is the body of the services-and-location calls
type ServicesInput struct {
	LaundryName     *string             `json:"laundryName"`
	ExpressService  *bool               `json:"expressService"`
	DeliveryService *bool               `json:"deliveryService"`
	OperationHours  map[string]DayHours `json:"operationHours"`
	Location        *GeoPoint           `json:"location"`
}
