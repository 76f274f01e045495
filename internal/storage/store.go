package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
	// ErrConflict means a compare-and-swap lost against a concurrent writer
	ErrConflict    = errors.New("concurrent modification")
	ErrUnavailable = errors.New("storage unavailable")
)

// Store defines the interface for storage operations
type Store interface {
	Users() ActorRepository[models.User]
	Partners() ActorRepository[models.Partner]
	DeliveryPartners() ActorRepository[models.DeliveryPartner]
	Registrations() RegistrationRepository
	Coupons() CouponRepository
	Orders() OrderRepository

	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// ActorRepository persists one kind of permanent record.
// Update never touches the login challenge; only the two challenge calls do.
type ActorRepository[T any] interface {
	Create(ctx context.Context, v *T) error
	Get(ctx context.Context, id string) (*T, error)
	// FindByContact returns a record matching any non-empty field of c
	FindByContact(ctx context.Context, c models.Contacts) (*T, error)
	Update(ctx context.Context, v *T) error
	SetLoginChallenge(ctx context.Context, id string, ch models.LoginChallenge) error
	// ConsumeLoginChallenge clears the challenge only if it still carries codeHash,
	// returning ErrConflict otherwise
	ConsumeLoginChallenge(ctx context.Context, id, codeHash string) error
}

// RegistrationRepository is the staging store for unverified signups
type RegistrationRepository interface {
	// Upsert replaces every pending registration of the same kind sharing a
	// contact with reg, and returns the replaced ones
	Upsert(ctx context.Context, reg *models.Registration) ([]*models.Registration, error)
	// Find looks up by mobile, then email, then WhatsApp number
	Find(ctx context.Context, kind models.ActorKind, c models.Contacts) (*models.Registration, error)
	// Claim moves a registration from pending to claimed, ErrConflict when it is not pending
	Claim(ctx context.Context, id string) error
	Release(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	PurgeOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Registration, error)
}

type CouponRepository interface {
	Create(ctx context.Context, c *models.Coupon) error
	Get(ctx context.Context, id string) (*models.Coupon, error)
	GetByCode(ctx context.Context, code string) (*models.Coupon, error)
	ListByPartner(ctx context.Context, partnerID string) ([]*models.Coupon, error)
	Update(ctx context.Context, c *models.Coupon) error
	Delete(ctx context.Context, id string) error
}

type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	Get(ctx context.Context, id string) (*models.Order, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Order, error)
	ListByPartner(ctx context.Context, partnerID string) ([]*models.Order, error)
	ListByDelivery(ctx context.Context, deliveryID string) ([]*models.Order, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
	// AssignDelivery attaches a courier to an open order, ErrConflict when it is Completed or Cancelled
	AssignDelivery(ctx context.Context, id string, a *models.DeliveryAssignment) error
	// UpdateStatus moves an order from one status to another, ErrConflict when it is no longer in from
	UpdateStatus(ctx context.Context, id, from, to string) error
}

// contactKeys names the column or document key holding each contact; "" when the record has none
type contactKeys struct {
	mobile   string
	email    string
	whatsapp string
}

// pairs returns (key, value) for every contact in c that the record type stores
func (k contactKeys) pairs(c models.Contacts) [][2]string {
	var out [][2]string
	if k.mobile != "" && c.Mobile != "" {
		out = append(out, [2]string{k.mobile, c.Mobile})
	}
	if k.email != "" && c.Email != "" {
		out = append(out, [2]string{k.email, c.Email})
	}
	if k.whatsapp != "" && c.WhatsApp != "" {
		out = append(out, [2]string{k.whatsapp, c.WhatsApp})
	}
	return out
}

const upsertAttempts = 3
