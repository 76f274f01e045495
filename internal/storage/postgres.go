package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
)

// DatabaseStore persists everything in PostgreSQL through GORM
type DatabaseStore struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewDatabaseStore wraps an open connection. The connection must be opened
// with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func NewDatabaseStore(db *gorm.DB, timeout time.Duration) *DatabaseStore {
	return &DatabaseStore{db: db, timeout: timeout}
}

// Migrate creates or updates the schema for every record type
func (s *DatabaseStore) Migrate() error {
	return s.db.AutoMigrate(
		&models.User{},
		&models.Partner{},
		&models.DeliveryPartner{},
		&models.Registration{},
		&models.Coupon{},
		&models.Order{},
	)
}

func (s *DatabaseStore) Users() ActorRepository[models.User] {
	return &gormActors[models.User]{s: s, keys: contactKeys{mobile: "mobile", email: "email"}}
}

func (s *DatabaseStore) Partners() ActorRepository[models.Partner] {
	return &gormActors[models.Partner]{s: s, keys: contactKeys{mobile: "mobile", email: "email"}}
}

func (s *DatabaseStore) DeliveryPartners() ActorRepository[models.DeliveryPartner] {
	return &gormActors[models.DeliveryPartner]{s: s, keys: contactKeys{mobile: "mobile", whatsapp: "whatsapp_number"}}
}

func (s *DatabaseStore) Registrations() RegistrationRepository { return &gormRegistrations{s: s} }
func (s *DatabaseStore) Coupons() CouponRepository             { return &gormCoupons{s: s} }
func (s *DatabaseStore) Orders() OrderRepository               { return &gormOrders{s: s} }

func (s *DatabaseStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *DatabaseStore) Close(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// session returns a handle bound to a per-operation deadline
func (s *DatabaseStore) session(ctx context.Context) (*gorm.DB, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.WithContext(ctx), cancel
}

func translateGorm(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case isTransient(err):
		return unavailable(err)
	}
	return err
}

// anyOf builds "(k1 = ? OR k2 = ?)" over the given key/value pairs
func anyOf(pairs [][2]string) (string, []any) {
	conds := make([]string, 0, len(pairs))
	args := make([]any, 0, len(pairs))
	for _, p := range pairs {
		conds = append(conds, p[0]+" = ?")
		args = append(args, p[1])
	}
	return "(" + strings.Join(conds, " OR ") + ")", args
}

var loginColumns = []string{"login_code_hash", "login_channel", "login_expires_at"}

// Actor operations
type gormActors[T any] struct {
	s    *DatabaseStore
	keys contactKeys
}

func (r *gormActors[T]) Create(ctx context.Context, v *T) error {
	db, cancel := r.s.session(ctx)
	defer cancel()
	return translateGorm(db.Create(v).Error)
}

func (r *gormActors[T]) Get(ctx context.Context, id string) (*T, error) {
	db, cancel := r.s.session(ctx)
	defer cancel()

	v := new(T)
	if err := db.First(v, "id = ?", id).Error; err != nil {
		return nil, translateGorm(err)
	}
	return v, nil
}

func (r *gormActors[T]) FindByContact(ctx context.Context, c models.Contacts) (*T, error) {
	for _, pair := range r.keys.pairs(c) {
		db, cancel := r.s.session(ctx)
		v := new(T)
		err := db.Where(pair[0]+" = ?", pair[1]).First(v).Error
		cancel()
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, translateGorm(err)
		}
	}
	return nil, ErrNotFound
}

func (r *gormActors[T]) Update(ctx context.Context, v *T) error {
	db, cancel := r.s.session(ctx)
	defer cancel()

	omit := append([]string{"id", "created_at"}, loginColumns...)
	res := db.Model(v).Select("*").Omit(omit...).Updates(v)
	if res.Error != nil {
		return translateGorm(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormActors[T]) SetLoginChallenge(ctx context.Context, id string, ch models.LoginChallenge) error {
	db, cancel := r.s.session(ctx)
	defer cancel()

	res := db.Model(new(T)).Where("id = ?", id).Updates(map[string]any{
		"login_code_hash":  ch.CodeHash,
		"login_channel":    ch.Channel,
		"login_expires_at": ch.ExpiresAt,
	})
	if res.Error != nil {
		return translateGorm(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormActors[T]) ConsumeLoginChallenge(ctx context.Context, id, codeHash string) error {
	db, cancel := r.s.session(ctx)
	defer cancel()

	res := db.Model(new(T)).
		Where("id = ? AND login_code_hash = ?", id, codeHash).
		Updates(map[string]any{
			"login_code_hash":  "",
			"login_channel":    "",
			"login_expires_at": time.Time{},
		})
	if res.Error != nil {
		return translateGorm(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

// Registration operations
type gormRegistrations struct {
	s *DatabaseStore
}

func registrationKeys() contactKeys {
	return contactKeys{mobile: "mobile", email: "email", whatsapp: "whats_app"}
}

func (r *gormRegistrations) Upsert(ctx context.Context, reg *models.Registration) ([]*models.Registration, error) {
	cond, args := anyOf(registrationKeys().pairs(reg.Contacts()))

	var err error
	for attempt := 0; attempt < upsertAttempts; attempt++ {
		var replaced []*models.Registration
		db, cancel := r.s.session(ctx)
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("kind = ?", reg.Kind).Where(cond, args...).Find(&replaced).Error; err != nil {
				return err
			}
			if len(replaced) > 0 {
				ids := make([]string, 0, len(replaced))
				for _, old := range replaced {
					ids = append(ids, old.ID)
				}
				if err := tx.Delete(&models.Registration{}, "id IN ?", ids).Error; err != nil {
					return err
				}
			}
			return tx.Create(reg).Error
		})
		cancel()
		if err == nil {
			return replaced, nil
		}
		if err = translateGorm(err); !errors.Is(err, ErrDuplicate) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("upsert registration: %w", ErrConflict)
}

func (r *gormRegistrations) Find(ctx context.Context, kind models.ActorKind, c models.Contacts) (*models.Registration, error) {
	for _, pair := range registrationKeys().pairs(c) {
		db, cancel := r.s.session(ctx)
		var reg models.Registration
		err := db.Where("kind = ?", kind).Where(pair[0]+" = ?", pair[1]).First(&reg).Error
		cancel()
		if err == nil {
			return &reg, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, translateGorm(err)
		}
	}
	return nil, ErrNotFound
}

func (r *gormRegistrations) setState(ctx context.Context, id string, from, to models.RegistrationState) error {
	db, cancel := r.s.session(ctx)
	defer cancel()

	res := db.Model(&models.Registration{}).
		Where("id = ? AND state = ?", id, from).
		Update("state", to)
	if res.Error != nil {
		return translateGorm(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r *gormRegistrations) Claim(ctx context.Context, id string) error {
	return r.setState(ctx, id, models.StatePending, models.StateClaimed)
}

func (r *gormRegistrations) Release(ctx context.Context, id string) error {
	return r.setState(ctx, id, models.StateClaimed, models.StatePending)
}

func (r *gormRegistrations) Delete(ctx context.Context, id string) error {
	db, cancel := r.s.session(ctx)
	defer cancel()

	res := db.Delete(&models.Registration{}, "id = ?", id)
	if res.Error != nil {
		return translateGorm(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormRegistrations) PurgeOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Registration, error) {
	db, cancel := r.s.session(ctx)
	defer cancel()

	var purged []*models.Registration
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("created_at < ?", cutoff).Find(&purged).Error; err != nil {
			return err
		}
		if len(purged) == 0 {
			return nil
		}
		ids := make([]string, 0, len(purged))
		for _, reg := range purged {
			ids = append(ids, reg.ID)
		}
		return tx.Delete(&models.Registration{}, "id IN ?", ids).Error
	})
	if err != nil {
		return nil, translateGorm(err)
	}
	return purged, nil
}

// Coupon operations
type gormCoupons struct {
	s *DatabaseStore
}

func (r *gormCoupons) Create(ctx context.Context, c *models.Coupon) error {
	db, cancel := r.s.session(ctx)
	defer cancel()
	return translateGorm(db.Create(c).Error)
}

func (r *gormCoupons) Get(ctx context.Context, id string) (*models.Coupon, error) {
	db, cancel := r.s.session(ctx)
	defer cancel()

	var c models.Coupon
	if err := db.First(&c, "id = ?", id).Error; err != nil {
		return nil, translateGorm(err)
	}
	return &c, nil
}

func (r *gormCoupons) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	db, cancel := r.s.session(ctx)
	defer cancel()

	var c models.Coupon
	if err := db.First(&c, "code = ?", code).Error; err != nil {
		return nil, translateGorm(err)
	}
	return &c, nil
}

func (r *gormCoupons) ListByPartner(ctx context.Context, partnerID string) ([]*models.Coupon, error) {
	db, cancel := r.s.session(ctx)
	defer cancel()

	coupons := []*models.Coupon{}
	if err := db.Where("partner_id = ?", partnerID).Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, translateGorm(err)
	}
	return coupons, nil
}

func (r *gormCoupons) Update(ctx context.Context, c *models.Coupon) error {
	db, cancel := r.s.session(ctx)
	defer cancel()

	res := db.Model(c).Select("*").Omit("id", "created_at").Updates(c)
	if res.Error != nil {
		return translateGorm(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *gormCoupons) Delete(ctx context.Context, id string) error {
	db, cancel := r.s.session(ctx)
	defer cancel()

	res := db.Delete(&models.Coupon{}, "id = ?", id)
	if res.Error != nil {
		return translateGorm(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Order operations
type gormOrders struct {
	s *DatabaseStore
}

func (r *gormOrders) Create(ctx context.Context, o *models.Order) error {
	db, cancel := r.s.session(ctx)
	defer cancel()
	return translateGorm(db.Create(o).Error)
}

func (r *gormOrders) Get(ctx context.Context, id string) (*models.Order, error) {
	db, cancel := r.s.session(ctx)
	defer cancel()

	var o models.Order
	if err := db.First(&o, "id = ?", id).Error; err != nil {
		return nil, translateGorm(err)
	}
	return &o, nil
}

func (r *gormOrders) list(ctx context.Context, column, value string) ([]*models.Order, error) {
	db, cancel := r.s.session(ctx)
	defer cancel()

	orders := []*models.Order{}
	if err := db.Where(column+" = ?", value).Order("order_date DESC").Find(&orders).Error; err != nil {
		return nil, translateGorm(err)
	}
	return orders, nil
}

func (r *gormOrders) ListByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	return r.list(ctx, "user_id", userID)
}

func (r *gormOrders) ListByPartner(ctx context.Context, partnerID string) ([]*models.Order, error) {
	return r.list(ctx, "partner_id", partnerID)
}

func (r *gormOrders) ListByDelivery(ctx context.Context, deliveryID string) ([]*models.Order, error) {
	return r.list(ctx, "delivery_id", deliveryID)
}

func (r *gormOrders) CountByUser(ctx context.Context, userID string) (int64, error) {
	db, cancel := r.s.session(ctx)
	defer cancel()

	var n int64
	if err := db.Model(&models.Order{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, translateGorm(err)
	}
	return n, nil
}

func (r *gormOrders) AssignDelivery(ctx context.Context, id string, a *models.DeliveryAssignment) error {
	db, cancel := r.s.session(ctx)
	defer cancel()

	res := db.Model(&models.Order{}).
		Where("id = ? AND status NOT IN ?", id, models.ClosedOrderStatuses).
		Select("delivery", "delivery_id", "updated_at").
		Updates(&models.Order{Delivery: a, DeliveryID: a.DeliveryID, UpdatedAt: time.Now()})
	if res.Error != nil {
		return translateGorm(res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missingOrConflict(db, id)
	}
	return nil
}

func (r *gormOrders) missingOrConflict(db *gorm.DB, id string) error {
	var n int64
	if err := db.Model(&models.Order{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return translateGorm(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func (r *gormOrders) UpdateStatus(ctx context.Context, id, from, to string) error {
	db, cancel := r.s.session(ctx)
	defer cancel()

	res := db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return translateGorm(res.Error)
	}
	if res.RowsAffected == 0 {
		return r.missingOrConflict(db, id)
	}
	return nil
}
