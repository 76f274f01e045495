package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// RegistrationState tracks a staging record through promotion
type RegistrationState string

const (
	StatePending RegistrationState = "pending"
	// StateClaimed is held by exactly one verifier while it promotes the record
	StateClaimed RegistrationState = "claimed"
)

// OTPChallenge is one signup OTP sent over one channel
type OTPChallenge struct {
	Channel   Channel   `json:"channel" bson:"channel"`
	CodeHash  string    `json:"codeHash" bson:"codeHash"`
	ExpiresAt time.Time `json:"expiresAt" bson:"expiresAt"`
}

// Registration is a not-yet-verified signup attempt
type Registration struct {
	ID        string            `json:"id" gorm:"primaryKey" bson:"_id"`
	Kind      ActorKind         `json:"kind" gorm:"not null;uniqueIndex:idx_registrations_kind_mobile;uniqueIndex:idx_registrations_kind_email,where:email <> ''" bson:"kind"`
	Mobile    string            `json:"mobile" gorm:"not null;uniqueIndex:idx_registrations_kind_mobile" bson:"mobile"`
	Email     string            `json:"email,omitempty" gorm:"uniqueIndex:idx_registrations_kind_email,where:email <> ''" bson:"email,omitempty"`
	WhatsApp  string            `json:"whatsappNumber,omitempty" gorm:"index" bson:"whatsappNumber,omitempty"`
	Profile   map[string]any    `json:"profile" gorm:"serializer:json" bson:"profile"`
	Documents map[string]string `json:"documents,omitempty" gorm:"serializer:json" bson:"documents,omitempty"`
	OTPs      []OTPChallenge    `json:"-" gorm:"serializer:json" bson:"otps"`
	State     RegistrationState `json:"-" gorm:"not null;default:pending;index" bson:"state"`
	CreatedAt time.Time         `json:"createdAt" gorm:"index" bson:"createdAt"`
	UpdatedAt time.Time         `json:"updatedAt" bson:"updatedAt"`
}

func (r *Registration) Contacts() Contacts {
	return Contacts{Mobile: r.Mobile, Email: r.Email, WhatsApp: r.WhatsApp}
}

// Challenge returns the OTP challenge for a channel
func (r *Registration) Challenge(ch Channel) (OTPChallenge, bool) {
	for _, c := range r.OTPs {
		if c.Channel == ch {
			return c, true
		}
	}
	return OTPChallenge{}, false
}

// DocumentURLs returns every uploaded document URL
func (r *Registration) DocumentURLs() []string {
	urls := make([]string, 0, len(r.Documents))
	for _, name := range DocumentFields {
		if u, ok := r.Documents[name]; ok && u != "" {
			urls = append(urls, u)
		}
	}
	return urls
}

// FirstMissing returns the first key of required, in order, that is absent or
// empty in profile. It returns "" when every field is present.
func FirstMissing(profile map[string]any, required []string) string {
	for _, key := range required {
		if isBlank(profile[key]) {
			return key
		}
	}
	return ""
}

func isBlank(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []any:
		return len(t) == 0
	case []string:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}

// PickProfile keeps only the allowed keys of a signup payload
func PickProfile(payload map[string]any, allowed []string) map[string]any {
	out := make(map[string]any, len(allowed))
	for _, key := range allowed {
		if v, ok := payload[key]; ok && v != nil {
			if s, isString := v.(string); isString {
				v = strings.TrimSpace(s)
			}
			out[key] = v
		}
	}
	return out
}

// DecodeProfile fills out (a pointer to a record) from a staged profile
func DecodeProfile(profile map[string]any, out any) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode profile: %w", err)
	}
	return nil
}

// ProfileString reads a string field from a staged profile
func ProfileString(profile map[string]any, key string) string {
	s, _ := profile[key].(string)
	return s
}
