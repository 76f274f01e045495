package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsonrw"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
)

// MemoryStore holds all data in memory, for tests and local development
type MemoryStore struct {
	users            *memActors[models.User, *models.User]
	partners         *memActors[models.Partner, *models.Partner]
	deliveryPartners *memActors[models.DeliveryPartner, *models.DeliveryPartner]
	registrations    *memRegistrations
	coupons          *memCoupons
	orders           *memOrders
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:            newMemActors[models.User](),
		partners:         newMemActors[models.Partner](),
		deliveryPartners: newMemActors[models.DeliveryPartner](),
		registrations:    &memRegistrations{byID: make(map[string]*models.Registration)},
		coupons:          &memCoupons{byID: make(map[string]*models.Coupon)},
		orders:           &memOrders{byID: make(map[string]*models.Order)},
	}
}

func (m *MemoryStore) Users() ActorRepository[models.User]       { return m.users }
func (m *MemoryStore) Partners() ActorRepository[models.Partner] { return m.partners }
func (m *MemoryStore) DeliveryPartners() ActorRepository[models.DeliveryPartner] {
	return m.deliveryPartners
}
func (m *MemoryStore) Registrations() RegistrationRepository { return m.registrations }
func (m *MemoryStore) Coupons() CouponRepository             { return m.coupons }
func (m *MemoryStore) Orders() OrderRepository               { return m.orders }

func (m *MemoryStore) Ping(ctx context.Context) error  { return ctx.Err() }
func (m *MemoryStore) Close(ctx context.Context) error { return nil }

// clone deep-copies a record so callers never share memory with the store
func clone[T any](v *T) (*T, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	dec, err := bson.NewDecoder(bsonrw.NewBSONDocumentReader(raw))
	if err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	dec.DefaultDocumentM()
	out := new(T)
	if err := dec.Decode(out); err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	return out, nil
}

func cloneAll[T any](vs []*T) ([]*T, error) {
	out := make([]*T, 0, len(vs))
	for _, v := range vs {
		c, err := clone(v)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// matchContact picks the record sharing a contact with c, preferring mobile, then email, then WhatsApp
func matchContact[T any](records []*T, contacts func(*T) models.Contacts, c models.Contacts) *T {
	keys := []func(models.Contacts) string{
		func(x models.Contacts) string { return x.Mobile },
		func(x models.Contacts) string { return x.Email },
		func(x models.Contacts) string { return x.WhatsApp },
	}
	for _, key := range keys {
		want := key(c)
		if want == "" {
			continue
		}
		for _, r := range records {
			if key(contacts(r)) == want {
				return r
			}
		}
	}
	return nil
}

func sharesContact(a, b models.Contacts) bool {
	return (a.Mobile != "" && a.Mobile == b.Mobile) ||
		(a.Email != "" && a.Email == b.Email) ||
		(a.WhatsApp != "" && a.WhatsApp == b.WhatsApp)
}

// Actor operations
type memActors[T any, PT interface {
	*T
	models.Actor
}] struct {
	mu   sync.RWMutex
	byID map[string]*T
}

func newMemActors[T any, PT interface {
	*T
	models.Actor
}]() *memActors[T, PT] {
	return &memActors[T, PT]{byID: make(map[string]*T)}
}

func (m *memActors[T, PT]) taken(v PT) bool {
	c := v.ContactInfo()
	for id, existing := range m.byID {
		if id != v.GetID() && sharesContact(c, PT(existing).ContactInfo()) {
			return true
		}
	}
	return false
}

func (m *memActors[T, PT]) Create(ctx context.Context, v *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[PT(v).GetID()]; exists || m.taken(PT(v)) {
		return ErrDuplicate
	}
	c, err := clone(v)
	if err != nil {
		return err
	}
	m.byID[PT(v).GetID()] = c
	return nil
}

func (m *memActors[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, exists := m.byID[id]
	if !exists {
		return nil, ErrNotFound
	}
	return clone(v)
}

func (m *memActors[T, PT]) FindByContact(ctx context.Context, c models.Contacts) (*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	records := make([]*T, 0, len(m.byID))
	for _, v := range m.byID {
		records = append(records, v)
	}
	found := matchContact(records, func(v *T) models.Contacts { return PT(v).ContactInfo() }, c)
	if found == nil {
		return nil, ErrNotFound
	}
	return clone(found)
}

func (m *memActors[T, PT]) Update(ctx context.Context, v *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, exists := m.byID[PT(v).GetID()]
	if !exists {
		return ErrNotFound
	}
	if m.taken(PT(v)) {
		return ErrDuplicate
	}
	c, err := clone(v)
	if err != nil {
		return err
	}
	*PT(c).LoginState() = *PT(existing).LoginState()
	m.byID[PT(v).GetID()] = c
	return nil
}

func (m *memActors[T, PT]) SetLoginChallenge(ctx context.Context, id string, ch models.LoginChallenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, exists := m.byID[id]
	if !exists {
		return ErrNotFound
	}
	*PT(v).LoginState() = ch
	return nil
}

func (m *memActors[T, PT]) ConsumeLoginChallenge(ctx context.Context, id, codeHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v, exists := m.byID[id]
	if !exists {
		return ErrNotFound
	}
	state := PT(v).LoginState()
	if state.CodeHash == "" || state.CodeHash != codeHash {
		return ErrConflict
	}
	*state = models.LoginChallenge{}
	return nil
}

// Registration operations
type memRegistrations struct {
	mu   sync.Mutex
	byID map[string]*models.Registration
}

func (m *memRegistrations) Upsert(ctx context.Context, reg *models.Registration) ([]*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var replaced []*models.Registration
	for id, existing := range m.byID {
		if existing.Kind == reg.Kind && sharesContact(existing.Contacts(), reg.Contacts()) {
			replaced = append(replaced, existing)
			delete(m.byID, id)
		}
	}
	c, err := clone(reg)
	if err != nil {
		return nil, err
	}
	m.byID[reg.ID] = c
	return replaced, nil
}

func (m *memRegistrations) Find(ctx context.Context, kind models.ActorKind, c models.Contacts) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ofKind []*models.Registration
	for _, r := range m.byID {
		if r.Kind == kind {
			ofKind = append(ofKind, r)
		}
	}
	found := matchContact(ofKind, (*models.Registration).Contacts, c)
	if found == nil {
		return nil, ErrNotFound
	}
	return clone(found)
}

func (m *memRegistrations) setState(id string, from, to models.RegistrationState) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, exists := m.byID[id]
	if !exists || r.State != from {
		return ErrConflict
	}
	r.State = to
	r.UpdatedAt = time.Now()
	return nil
}

func (m *memRegistrations) Claim(ctx context.Context, id string) error {
	return m.setState(id, models.StatePending, models.StateClaimed)
}

func (m *memRegistrations) Release(ctx context.Context, id string) error {
	return m.setState(id, models.StateClaimed, models.StatePending)
}

func (m *memRegistrations) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[id]; !exists {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memRegistrations) PurgeOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var purged []*models.Registration
	for id, r := range m.byID {
		if r.CreatedAt.Before(cutoff) {
			purged = append(purged, r)
			delete(m.byID, id)
		}
	}
	return purged, nil
}

// Coupon operations
type memCoupons struct {
	mu   sync.RWMutex
	byID map[string]*models.Coupon
}

func (m *memCoupons) codeTaken(c *models.Coupon) bool {
	for id, existing := range m.byID {
		if id != c.ID && existing.Code == c.Code {
			return true
		}
	}
	return false
}

func (m *memCoupons) Create(ctx context.Context, c *models.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[c.ID]; exists || m.codeTaken(c) {
		return ErrDuplicate
	}
	cp, err := clone(c)
	if err != nil {
		return err
	}
	m.byID[c.ID] = cp
	return nil
}

func (m *memCoupons) Get(ctx context.Context, id string) (*models.Coupon, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, exists := m.byID[id]
	if !exists {
		return nil, ErrNotFound
	}
	return clone(c)
}

func (m *memCoupons) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.byID {
		if c.Code == code {
			return clone(c)
		}
	}
	return nil, ErrNotFound
}

func (m *memCoupons) ListByPartner(ctx context.Context, partnerID string) ([]*models.Coupon, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	coupons := []*models.Coupon{}
	for _, c := range m.byID {
		if c.PartnerID == partnerID {
			coupons = append(coupons, c)
		}
	}
	sort.Slice(coupons, func(i, j int) bool { return coupons[i].CreatedAt.After(coupons[j].CreatedAt) })
	return cloneAll(coupons)
}

func (m *memCoupons) Update(ctx context.Context, c *models.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[c.ID]; !exists {
		return ErrNotFound
	}
	if m.codeTaken(c) {
		return ErrDuplicate
	}
	cp, err := clone(c)
	if err != nil {
		return err
	}
	m.byID[c.ID] = cp
	return nil
}

func (m *memCoupons) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byID[id]; !exists {
		return ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// Order operations
type memOrders struct {
	mu   sync.RWMutex
	byID map[string]*models.Order
}

func (m *memOrders) Create(ctx context.Context, o *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, existing := range m.byID {
		if id == o.ID || existing.OrderNumber == o.OrderNumber {
			return ErrDuplicate
		}
	}
	c, err := clone(o)
	if err != nil {
		return err
	}
	m.byID[o.ID] = c
	return nil
}

func (m *memOrders) Get(ctx context.Context, id string) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, exists := m.byID[id]
	if !exists {
		return nil, ErrNotFound
	}
	return clone(o)
}

func (m *memOrders) list(match func(*models.Order) bool) ([]*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var orders []*models.Order
	for _, o := range m.byID {
		if match(o) {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderDate.After(orders[j].OrderDate) })
	return cloneAll(orders)
}

func (m *memOrders) ListByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	return m.list(func(o *models.Order) bool { return o.UserID == userID })
}

func (m *memOrders) ListByPartner(ctx context.Context, partnerID string) ([]*models.Order, error) {
	return m.list(func(o *models.Order) bool { return o.PartnerID == partnerID })
}

func (m *memOrders) ListByDelivery(ctx context.Context, deliveryID string) ([]*models.Order, error) {
	return m.list(func(o *models.Order) bool { return o.DeliveryID == deliveryID })
}

func (m *memOrders) CountByUser(ctx context.Context, userID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, o := range m.byID {
		if o.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memOrders) AssignDelivery(ctx context.Context, id string, a *models.DeliveryAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, exists := m.byID[id]
	if !exists {
		return ErrNotFound
	}
	if o.Closed() {
		return ErrConflict
	}
	cp := *a
	o.Delivery = &cp
	o.DeliveryID = a.DeliveryID
	o.UpdatedAt = time.Now()
	return nil
}

func (m *memOrders) UpdateStatus(ctx context.Context, id, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, exists := m.byID[id]
	if !exists {
		return ErrNotFound
	}
	if o.Status != from {
		return ErrConflict
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	return nil
}
