package models

import (
	"strings"
	"time"
)

// ActorKind identifies one of the three registrable identity types
type ActorKind string

const (
	KindUser            ActorKind = "user"
	KindPartner         ActorKind = "partner"
	KindDeliveryPartner ActorKind = "delivery"
)

// Channel is a contact channel an OTP can be delivered over
type Channel string

const (
	ChannelMobile Channel = "mobile"
	ChannelEmail  Channel = "email"
)

// Contacts holds the unique contact identifiers of an actor.
// Only non-empty fields take part in lookups.
type Contacts struct {
	Mobile   string `json:"mobile,omitempty"`
	Email    string `json:"email,omitempty"`
	WhatsApp string `json:"whatsappNumber,omitempty"`
}

// Normalize trims whitespace and lower-cases the email
func (c Contacts) Normalize() Contacts {
	return Contacts{
		Mobile:   strings.TrimSpace(c.Mobile),
		Email:    strings.ToLower(strings.TrimSpace(c.Email)),
		WhatsApp: strings.TrimSpace(c.WhatsApp),
	}
}

func (c Contacts) Empty() bool {
	return c.Mobile == "" && c.Email == "" && c.WhatsApp == ""
}

// Address returns the destination for an OTP sent over the given channel
func (c Contacts) Address(ch Channel) string {
	switch ch {
	case ChannelEmail:
		return c.Email
	default:
		return c.Mobile
	}
}

// LoginChallenge is the pending login OTP stored on a permanent record.
// It never holds signup OTPs; those live on the Registration.
type LoginChallenge struct {
	CodeHash  string    `bson:"codeHash,omitempty"`
	Channel   Channel   `bson:"channel,omitempty"`
	ExpiresAt time.Time `bson:"expiresAt,omitempty"`
}

func (l LoginChallenge) Pending() bool {
	return l.CodeHash != ""
}

// Actor is implemented by the permanent records (*User, *Partner, *DeliveryPartner)
type Actor interface {
	GetID() string
	ActorKind() ActorKind
	ContactInfo() Contacts
	LoginState() *LoginChallenge
	// Identify assigns the permanent id and creation timestamps on promotion
	Identify(id string, at time.Time)
	Touch(at time.Time)
}

// DocumentHolder is implemented by records that carry uploaded documents
type DocumentHolder interface {
	AttachDocument(name, url string) bool
}
