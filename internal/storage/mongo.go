package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
)

// MongoStore persists everything in MongoDB, one collection per record type
type MongoStore struct {
	db      *mongo.Database
	timeout time.Duration
}

func NewMongoStore(db *mongo.Database, timeout time.Duration) *MongoStore {
	return &MongoStore{db: db, timeout: timeout}
}

const (
	usersCollection            = "users"
	partnersCollection         = "partners"
	deliveryPartnersCollection = "delivery_partners"
	registrationsCollection    = "registrations"
	couponsCollection          = "coupons"
	ordersCollection           = "orders"
)

// nonEmpty restricts a unique index to documents where the field is a non-empty string
func nonEmpty(field string) bson.M {
	return bson.M{field: bson.M{"$gt": ""}}
}

// Migrate creates the indexes that back the uniqueness guarantees
func (s *MongoStore) Migrate(ctx context.Context) error {
	unique := func(keys bson.D) mongo.IndexModel {
		return mongo.IndexModel{Keys: keys, Options: options.Index().SetUnique(true)}
	}
	uniqueWhereSet := func(keys bson.D, field string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    keys,
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(nonEmpty(field)),
		}
	}
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			unique(bson.D{{Key: "mobile", Value: 1}}),
			uniqueWhereSet(bson.D{{Key: "email", Value: 1}}, "email"),
		},
		partnersCollection: {
			unique(bson.D{{Key: "mobile", Value: 1}}),
			uniqueWhereSet(bson.D{{Key: "email", Value: 1}}, "email"),
		},
		deliveryPartnersCollection: {
			unique(bson.D{{Key: "mobile", Value: 1}}),
			unique(bson.D{{Key: "whatsappNumber", Value: 1}}),
		},
		registrationsCollection: {
			unique(bson.D{{Key: "kind", Value: 1}, {Key: "mobile", Value: 1}}),
			uniqueWhereSet(bson.D{{Key: "kind", Value: 1}, {Key: "email", Value: 1}}, "email"),
			{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "whatsappNumber", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: 1}}},
		},
		couponsCollection: {
			unique(bson.D{{Key: "code", Value: 1}}),
			{Keys: bson.D{{Key: "partnerId", Value: 1}}},
		},
		ordersCollection: {
			unique(bson.D{{Key: "orderId", Value: 1}}),
			{Keys: bson.D{{Key: "customerId", Value: 1}}},
			{Keys: bson.D{{Key: "partnerId", Value: 1}}},
			{Keys: bson.D{{Key: "deliveryId", Value: 1}}},
		},
	}
	for name, idx := range indexes {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		_, err := s.db.Collection(name).Indexes().CreateMany(ctx, idx)
		cancel()
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, translateMongo(err))
		}
	}
	return nil
}

func (s *MongoStore) Users() ActorRepository[models.User] {
	return &mongoActors[models.User, *models.User]{s: s, coll: usersCollection, keys: contactKeys{mobile: "mobile", email: "email"}}
}

func (s *MongoStore) Partners() ActorRepository[models.Partner] {
	return &mongoActors[models.Partner, *models.Partner]{s: s, coll: partnersCollection, keys: contactKeys{mobile: "mobile", email: "email"}}
}

func (s *MongoStore) DeliveryPartners() ActorRepository[models.DeliveryPartner] {
	return &mongoActors[models.DeliveryPartner, *models.DeliveryPartner]{s: s, coll: deliveryPartnersCollection, keys: contactKeys{mobile: "mobile", whatsapp: "whatsappNumber"}}
}

func (s *MongoStore) Registrations() RegistrationRepository { return &mongoRegistrations{s: s} }
func (s *MongoStore) Coupons() CouponRepository             { return &mongoCoupons{s: s} }
func (s *MongoStore) Orders() OrderRepository               { return &mongoOrders{s: s} }

func (s *MongoStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.db.Client().Ping(ctx, nil); err != nil {
		return unavailable(err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

func (s *MongoStore) collection(ctx context.Context, name string) (*mongo.Collection, context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	return s.db.Collection(name), ctx, cancel
}

func translateMongo(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	case mongo.IsTimeout(err), mongo.IsNetworkError(err),
		errors.Is(err, mongo.ErrClientDisconnected), isTransient(err):
		return unavailable(err)
	}
	return err
}

// setDoc encodes v as a $set payload without the immutable and excluded keys
func setDoc(v any, exclude ...string) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	doc := bson.M{}
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, "_id")
	delete(doc, "createdAt")
	for _, key := range exclude {
		delete(doc, key)
	}
	return doc, nil
}

func anyOfDoc(pairs [][2]string) bson.A {
	or := bson.A{}
	for _, p := range pairs {
		or = append(or, bson.M{p[0]: p[1]})
	}
	return or
}

// Actor operations
type mongoActors[T any, PT interface {
	*T
	models.Actor
}] struct {
	s    *MongoStore
	coll string
	keys contactKeys
}

func (r *mongoActors[T, PT]) Create(ctx context.Context, v *T) error {
	coll, ctx, cancel := r.s.collection(ctx, r.coll)
	defer cancel()
	_, err := coll.InsertOne(ctx, v)
	return translateMongo(err)
}

func (r *mongoActors[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	coll, ctx, cancel := r.s.collection(ctx, r.coll)
	defer cancel()

	v := new(T)
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(v); err != nil {
		return nil, translateMongo(err)
	}
	return v, nil
}

func (r *mongoActors[T, PT]) FindByContact(ctx context.Context, c models.Contacts) (*T, error) {
	for _, pair := range r.keys.pairs(c) {
		coll, qctx, cancel := r.s.collection(ctx, r.coll)
		v := new(T)
		err := coll.FindOne(qctx, bson.M{pair[0]: pair[1]}).Decode(v)
		cancel()
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, translateMongo(err)
		}
	}
	return nil, ErrNotFound
}

func (r *mongoActors[T, PT]) Update(ctx context.Context, v *T) error {
	doc, err := setDoc(v, "login")
	if err != nil {
		return err
	}
	coll, ctx, cancel := r.s.collection(ctx, r.coll)
	defer cancel()

	res, err := coll.UpdateOne(ctx, bson.M{"_id": PT(v).GetID()}, bson.M{"$set": doc})
	if err != nil {
		return translateMongo(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoActors[T, PT]) SetLoginChallenge(ctx context.Context, id string, ch models.LoginChallenge) error {
	coll, ctx, cancel := r.s.collection(ctx, r.coll)
	defer cancel()

	res, err := coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"login": ch}})
	if err != nil {
		return translateMongo(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoActors[T, PT]) ConsumeLoginChallenge(ctx context.Context, id, codeHash string) error {
	if codeHash == "" {
		return ErrConflict
	}
	coll, ctx, cancel := r.s.collection(ctx, r.coll)
	defer cancel()

	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": id, "login.codeHash": codeHash},
		bson.M{"$set": bson.M{"login": models.LoginChallenge{}}},
	)
	if err != nil {
		return translateMongo(err)
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

// Registration operations
type mongoRegistrations struct {
	s *MongoStore
}

func registrationDocKeys() contactKeys {
	return contactKeys{mobile: "mobile", email: "email", whatsapp: "whatsappNumber"}
}

func (r *mongoRegistrations) Upsert(ctx context.Context, reg *models.Registration) ([]*models.Registration, error) {
	filter := bson.M{"kind": reg.Kind, "$or": anyOfDoc(registrationDocKeys().pairs(reg.Contacts()))}

	for attempt := 0; attempt < upsertAttempts; attempt++ {
		replaced, err := r.replace(ctx, filter, reg)
		if err == nil {
			return replaced, nil
		}
		if !errors.Is(err, ErrDuplicate) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("upsert registration: %w", ErrConflict)
}

func (r *mongoRegistrations) replace(ctx context.Context, filter bson.M, reg *models.Registration) ([]*models.Registration, error) {
	coll, ctx, cancel := r.s.collection(ctx, registrationsCollection)
	defer cancel()

	cur, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, translateMongo(err)
	}
	var replaced []*models.Registration
	if err := cur.All(ctx, &replaced); err != nil {
		return nil, translateMongo(err)
	}
	if len(replaced) > 0 {
		ids := make(bson.A, 0, len(replaced))
		for _, old := range replaced {
			ids = append(ids, old.ID)
		}
		if _, err := coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
			return nil, translateMongo(err)
		}
	}
	if _, err := coll.InsertOne(ctx, reg); err != nil {
		return nil, translateMongo(err)
	}
	return replaced, nil
}

func (r *mongoRegistrations) Find(ctx context.Context, kind models.ActorKind, c models.Contacts) (*models.Registration, error) {
	for _, pair := range registrationDocKeys().pairs(c) {
		coll, qctx, cancel := r.s.collection(ctx, registrationsCollection)
		var reg models.Registration
		err := coll.FindOne(qctx, bson.M{"kind": kind, pair[0]: pair[1]}).Decode(&reg)
		cancel()
		if err == nil {
			return &reg, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return nil, translateMongo(err)
		}
	}
	return nil, ErrNotFound
}

func (r *mongoRegistrations) setState(ctx context.Context, id string, from, to models.RegistrationState) error {
	coll, ctx, cancel := r.s.collection(ctx, registrationsCollection)
	defer cancel()

	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": id, "state": from},
		bson.M{"$set": bson.M{"state": to, "updatedAt": time.Now()}},
	)
	if err != nil {
		return translateMongo(err)
	}
	if res.MatchedCount == 0 {
		return ErrConflict
	}
	return nil
}

func (r *mongoRegistrations) Claim(ctx context.Context, id string) error {
	return r.setState(ctx, id, models.StatePending, models.StateClaimed)
}

func (r *mongoRegistrations) Release(ctx context.Context, id string) error {
	return r.setState(ctx, id, models.StateClaimed, models.StatePending)
}

func (r *mongoRegistrations) Delete(ctx context.Context, id string) error {
	coll, ctx, cancel := r.s.collection(ctx, registrationsCollection)
	defer cancel()

	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateMongo(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoRegistrations) PurgeOlderThan(ctx context.Context, cutoff time.Time) ([]*models.Registration, error) {
	coll, ctx, cancel := r.s.collection(ctx, registrationsCollection)
	defer cancel()

	filter := bson.M{"createdAt": bson.M{"$lt": cutoff}}
	cur, err := coll.Find(ctx, filter)
	if err != nil {
		return nil, translateMongo(err)
	}
	var purged []*models.Registration
	if err := cur.All(ctx, &purged); err != nil {
		return nil, translateMongo(err)
	}
	if len(purged) == 0 {
		return nil, nil
	}
	ids := make(bson.A, 0, len(purged))
	for _, reg := range purged {
		ids = append(ids, reg.ID)
	}
	if _, err := coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, translateMongo(err)
	}
	return purged, nil
}

// Coupon operations
type mongoCoupons struct {
	s *MongoStore
}

func (r *mongoCoupons) Create(ctx context.Context, c *models.Coupon) error {
	coll, ctx, cancel := r.s.collection(ctx, couponsCollection)
	defer cancel()
	_, err := coll.InsertOne(ctx, c)
	return translateMongo(err)
}

func (r *mongoCoupons) findOne(ctx context.Context, filter bson.M) (*models.Coupon, error) {
	coll, ctx, cancel := r.s.collection(ctx, couponsCollection)
	defer cancel()

	var c models.Coupon
	if err := coll.FindOne(ctx, filter).Decode(&c); err != nil {
		return nil, translateMongo(err)
	}
	return &c, nil
}

func (r *mongoCoupons) Get(ctx context.Context, id string) (*models.Coupon, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoCoupons) GetByCode(ctx context.Context, code string) (*models.Coupon, error) {
	return r.findOne(ctx, bson.M{"code": code})
}

func (r *mongoCoupons) ListByPartner(ctx context.Context, partnerID string) ([]*models.Coupon, error) {
	coll, ctx, cancel := r.s.collection(ctx, couponsCollection)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := coll.Find(ctx, bson.M{"partnerId": partnerID}, opts)
	if err != nil {
		return nil, translateMongo(err)
	}
	coupons := []*models.Coupon{}
	if err := cur.All(ctx, &coupons); err != nil {
		return nil, translateMongo(err)
	}
	return coupons, nil
}

func (r *mongoCoupons) Update(ctx context.Context, c *models.Coupon) error {
	doc, err := setDoc(c)
	if err != nil {
		return err
	}
	coll, ctx, cancel := r.s.collection(ctx, couponsCollection)
	defer cancel()

	res, err := coll.UpdateByID(ctx, c.ID, bson.M{"$set": doc})
	if err != nil {
		return translateMongo(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoCoupons) Delete(ctx context.Context, id string) error {
	coll, ctx, cancel := r.s.collection(ctx, couponsCollection)
	defer cancel()

	res, err := coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translateMongo(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Order operations
type mongoOrders struct {
	s *MongoStore
}

func (r *mongoOrders) Create(ctx context.Context, o *models.Order) error {
	coll, ctx, cancel := r.s.collection(ctx, ordersCollection)
	defer cancel()
	_, err := coll.InsertOne(ctx, o)
	return translateMongo(err)
}

func (r *mongoOrders) Get(ctx context.Context, id string) (*models.Order, error) {
	coll, ctx, cancel := r.s.collection(ctx, ordersCollection)
	defer cancel()

	var o models.Order
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, translateMongo(err)
	}
	return &o, nil
}

func (r *mongoOrders) list(ctx context.Context, filter bson.M) ([]*models.Order, error) {
	coll, ctx, cancel := r.s.collection(ctx, ordersCollection)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "orderDate", Value: -1}})
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, translateMongo(err)
	}
	orders := []*models.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, translateMongo(err)
	}
	return orders, nil
}

func (r *mongoOrders) ListByUser(ctx context.Context, userID string) ([]*models.Order, error) {
	return r.list(ctx, bson.M{"customerId": userID})
}

func (r *mongoOrders) ListByPartner(ctx context.Context, partnerID string) ([]*models.Order, error) {
	return r.list(ctx, bson.M{"partnerId": partnerID})
}

func (r *mongoOrders) ListByDelivery(ctx context.Context, deliveryID string) ([]*models.Order, error) {
	return r.list(ctx, bson.M{"deliveryId": deliveryID})
}

func (r *mongoOrders) CountByUser(ctx context.Context, userID string) (int64, error) {
	coll, ctx, cancel := r.s.collection(ctx, ordersCollection)
	defer cancel()

	n, err := coll.CountDocuments(ctx, bson.M{"customerId": userID})
	if err != nil {
		return 0, translateMongo(err)
	}
	return n, nil
}

func (r *mongoOrders) AssignDelivery(ctx context.Context, id string, a *models.DeliveryAssignment) error {
	coll, ctx, cancel := r.s.collection(ctx, ordersCollection)
	defer cancel()

	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$nin": models.ClosedOrderStatuses}},
		bson.M{"$set": bson.M{"delivery": a, "deliveryId": a.DeliveryID, "updatedAt": time.Now()}},
	)
	if err != nil {
		return translateMongo(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	return r.missingOrConflict(ctx, coll, id)
}

func (r *mongoOrders) missingOrConflict(ctx context.Context, coll *mongo.Collection, id string) error {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return translateMongo(err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrConflict
}

func (r *mongoOrders) UpdateStatus(ctx context.Context, id, from, to string) error {
	coll, ctx, cancel := r.s.collection(ctx, ordersCollection)
	defer cancel()

	res, err := coll.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
	)
	if err != nil {
		return translateMongo(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	return r.missingOrConflict(ctx, coll, id)
}
