package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/Ananth-NQI/washpe-backend/internal/metrics"
	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/storage"
)

// Descriptor captures everything that differs between the three signup flows
type Descriptor[T any] struct {
	Kind  models.ActorKind
	Label string
	// ProfileFields is the allowlist of payload keys copied to the staging record
	ProfileFields []string
	// Required fields are checked in this order; the first missing one is reported
	Required []string
	// Documents are the image fields that must be uploaded with the signup
	Documents    []string
	Channels     []models.Channel
	ExpiryWindow time.Duration
	Validate     func(*T) error
}

func (d Descriptor[T]) supports(ch models.Channel) bool {
	for _, c := range d.Channels {
		if c == ch {
			return true
		}
	}
	return false
}

// FlowDeps are the collaborators shared by every actor flow
type FlowDeps struct {
	Registrations storage.RegistrationRepository
	OTP           *OTPService
	Notifier      *Notifier
	Tokens        *TokenIssuer
	Media         *MediaStore
	Throttle      *Throttle
	LoginTTL      time.Duration
	Metrics       metrics.Recorder
}

// Flow runs OTP signup, verification and login for one actor kind
type Flow[T any, PT interface {
	*T
	models.Actor
}] struct {
	desc   Descriptor[T]
	actors storage.ActorRepository[T]
	FlowDeps

	now   func() time.Time
	newID func() string
}

func NewFlow[T any, PT interface {
	*T
	models.Actor
}](desc Descriptor[T], actors storage.ActorRepository[T], deps FlowDeps) *Flow[T, PT] {
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	return &Flow[T, PT]{
		desc:     desc,
		actors:   actors,
		FlowDeps: deps,
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

func (f *Flow[T, PT]) Kind() models.ActorKind { return f.desc.Kind }

// SignupResult describes a staged signup awaiting verification
type SignupResult struct {
	Contacts  models.Contacts
	Documents map[string]string
	Channels  []models.Channel
	Expires   time.Time
}

// Check validates a signup payload without touching storage, so callers can
// reject a request before doing expensive work such as storing uploads
func (f *Flow[T, PT]) Check(payload map[string]any) (map[string]any, models.Contacts, error) {
	profile := models.PickProfile(payload, f.desc.ProfileFields)
	if missing := models.FirstMissing(profile, f.desc.Required); missing != "" {
		return nil, models.Contacts{}, models.ValidationError(fmt.Sprintf("%s is required", missing))
	}
	for _, key := range []string{"mobile", "email", "whatsappNumber"} {
		if s, ok := profile[key].(string); ok {
			if key == "email" {
				s = strings.ToLower(s)
			}
			profile[key] = s
		}
	}
	contacts := models.Contacts{
		Mobile:   models.ProfileString(profile, "mobile"),
		Email:    models.ProfileString(profile, "email"),
		WhatsApp: models.ProfileString(profile, "whatsappNumber"),
	}.Normalize()

	var trial T
	if err := models.DecodeProfile(profile, &trial); err != nil {
		return nil, models.Contacts{}, decodeFailure(err)
	}
	if f.desc.Validate != nil {
		if err := f.desc.Validate(&trial); err != nil {
			return nil, models.Contacts{}, err
		}
	}
	return profile, contacts, nil
}

// MissingDocuments returns the required document fields absent from present
func (f *Flow[T, PT]) MissingDocuments(present map[string]bool) []string {
	var missing []string
	for _, name := range f.desc.Documents {
		if !present[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

// Signup stages a registration and sends an OTP over every channel of the kind.
// documents maps each required document field to its stored URL.
func (f *Flow[T, PT]) Signup(ctx context.Context, payload map[string]any, documents map[string]string) (*SignupResult, error) {
	profile, contacts, err := f.Check(payload)
	if err != nil {
		return nil, err
	}
	present := make(map[string]bool, len(documents))
	for name, url := range documents {
		present[name] = url != ""
	}
	if missing := f.MissingDocuments(present); len(missing) > 0 {
		return nil, models.ValidationError("missing required documents: " + strings.Join(missing, ", "))
	}

	if !f.Throttle.Allow(string(f.desc.Kind) + ":" + contacts.Mobile) {
		return nil, models.RateLimited()
	}

	existing, err := f.actors.FindByContact(ctx, contacts)
	switch {
	case err == nil && existing != nil:
		return nil, models.DuplicateActor(fmt.Sprintf("%s already exists", f.desc.Label))
	case err != nil && !errors.Is(err, storage.ErrNotFound):
		return nil, storeFailure(err)
	}

	now := f.now()
	expires := now.Add(f.desc.ExpiryWindow)
	codes := make(map[models.Channel]string, len(f.desc.Channels))
	reg := &models.Registration{
		ID:        f.newID(),
		Kind:      f.desc.Kind,
		Mobile:    contacts.Mobile,
		Email:     contacts.Email,
		WhatsApp:  contacts.WhatsApp,
		Profile:   profile,
		Documents: documents,
		State:     models.StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, ch := range f.desc.Channels {
		code, hash, err := f.OTP.Generate()
		if err != nil {
			return nil, models.InternalError(err)
		}
		codes[ch] = code
		reg.OTPs = append(reg.OTPs, models.OTPChallenge{Channel: ch, CodeHash: hash, ExpiresAt: expires})
	}

	replaced, err := f.Registrations.Upsert(ctx, reg)
	if err != nil {
		return nil, storeFailure(err)
	}
	f.discardDocuments(ctx, replaced, documents)

	for _, ch := range f.desc.Channels {
		if err := f.Notifier.SendOTP(ctx, ch, contacts.Address(ch), codes[ch], f.desc.ExpiryWindow); err != nil {
			f.Metrics.RecordSignup(string(f.desc.Kind), "delivery_failed")
			return nil, models.DeliveryFailed(err)
		}
	}

	f.Metrics.RecordSignup(string(f.desc.Kind), "staged")
	log.WithFields(log.Fields{"kind": f.desc.Kind, "registration_id": reg.ID}).Info("📝 Signup staged, OTP sent")
	return &SignupResult{Contacts: contacts, Documents: documents, Channels: f.desc.Channels, Expires: expires}, nil
}

// discardDocuments removes files of replaced registrations that the new one does not reuse
func (f *Flow[T, PT]) discardDocuments(ctx context.Context, replaced []*models.Registration, keep map[string]string) {
	if f.Media == nil {
		return
	}
	kept := make(map[string]bool, len(keep))
	for _, url := range keep {
		kept[url] = true
	}
	var stale []string
	for _, r := range replaced {
		for _, url := range r.DocumentURLs() {
			if !kept[url] {
				stale = append(stale, url)
			}
		}
	}
	f.Media.DeleteAll(ctx, stale)
}

// Verify checks every OTP of a staged signup and promotes it to a permanent record
func (f *Flow[T, PT]) Verify(ctx context.Context, contacts models.Contacts, codes map[models.Channel]string) (PT, string, error) {
	contacts = contacts.Normalize()
	if contacts.Empty() {
		return nil, "", models.ValidationError("mobile is required")
	}
	for _, ch := range f.desc.Channels {
		if strings.TrimSpace(codes[ch]) == "" {
			return nil, "", models.ValidationError(fmt.Sprintf("%s OTP is required", ch))
		}
	}

	reg, err := f.Registrations.Find(ctx, f.desc.Kind, contacts)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, "", models.NotFound(fmt.Sprintf("%s signup not found", f.desc.Label))
	}
	if err != nil {
		return nil, "", storeFailure(err)
	}

	now := f.now()
	for _, ch := range f.desc.Channels {
		challenge, ok := reg.Challenge(ch)
		if !ok || !f.OTP.Matches(challenge.CodeHash, strings.TrimSpace(codes[ch])) {
			f.Metrics.RecordSignup(string(f.desc.Kind), "invalid_otp")
			return nil, "", models.InvalidOTP()
		}
		if now.After(challenge.ExpiresAt) {
			f.Metrics.RecordSignup(string(f.desc.Kind), "expired")
			return nil, "", models.OTPExpired()
		}
	}

	if err := f.Registrations.Claim(ctx, reg.ID); err != nil {
		if errors.Is(err, storage.ErrConflict) || errors.Is(err, storage.ErrNotFound) {
			return nil, "", models.Conflict("signup is already being verified")
		}
		return nil, "", storeFailure(err)
	}

	actor, token, err := f.promote(ctx, reg, now)
	if err != nil {
		if relErr := f.Registrations.Release(ctx, reg.ID); relErr != nil {
			log.WithError(relErr).WithField("registration_id", reg.ID).Warn("failed to release claimed registration")
		}
		return nil, "", err
	}

	if err := f.Registrations.Delete(ctx, reg.ID); err != nil {
		log.WithError(err).WithField("registration_id", reg.ID).Warn("failed to delete promoted registration")
	}
	f.Metrics.RecordSignup(string(f.desc.Kind), "verified")
	log.WithFields(log.Fields{"kind": f.desc.Kind, "actor_id": actor.GetID()}).Info("✅ Signup verified")
	return actor, token, nil
}

// promote builds the permanent record, signs its token and only then persists it
func (f *Flow[T, PT]) promote(ctx context.Context, reg *models.Registration, now time.Time) (PT, string, error) {
	var v T
	actor := PT(&v)
	if err := models.DecodeProfile(reg.Profile, actor); err != nil {
		return nil, "", models.InternalError(err)
	}
	if holder, ok := any(actor).(models.DocumentHolder); ok {
		names := make([]string, 0, len(reg.Documents))
		for name := range reg.Documents {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			holder.AttachDocument(name, reg.Documents[name])
		}
	}
	actor.Identify(f.newID(), now)

	token, err := f.Tokens.Issue(actor)
	if err != nil {
		return nil, "", models.InternalError(err)
	}
	if err := f.actors.Create(ctx, &v); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, "", models.DuplicateActor(fmt.Sprintf("%s already exists", f.desc.Label))
		}
		return nil, "", storeFailure(err)
	}
	return actor, token, nil
}

// loginChannel picks email when supplied and supported, mobile otherwise
func (f *Flow[T, PT]) loginChannel(c models.Contacts) (models.Channel, models.Contacts, error) {
	if c.Email != "" && f.desc.supports(models.ChannelEmail) {
		return models.ChannelEmail, models.Contacts{Email: c.Email}, nil
	}
	if c.Mobile != "" {
		return models.ChannelMobile, models.Contacts{Mobile: c.Mobile}, nil
	}
	if f.desc.supports(models.ChannelEmail) {
		return "", models.Contacts{}, models.ValidationError("mobile or email is required")
	}
	return "", models.Contacts{}, models.ValidationError("mobile is required")
}

func (f *Flow[T, PT]) findForLogin(ctx context.Context, lookup models.Contacts) (PT, error) {
	v, err := f.actors.FindByContact(ctx, lookup)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, models.NotFound(fmt.Sprintf("%s not found", f.desc.Label))
	}
	if err != nil {
		return nil, storeFailure(err)
	}
	return PT(v), nil
}

// Login sends a fresh login OTP to an existing record, replacing any pending one
func (f *Flow[T, PT]) Login(ctx context.Context, contacts models.Contacts) (models.Channel, error) {
	ch, lookup, err := f.loginChannel(contacts.Normalize())
	if err != nil {
		return "", err
	}
	actor, err := f.findForLogin(ctx, lookup)
	if err != nil {
		return "", err
	}
	if !f.Throttle.Allow(string(f.desc.Kind) + ":login:" + actor.GetID()) {
		return "", models.RateLimited()
	}

	code, hash, err := f.OTP.Generate()
	if err != nil {
		return "", models.InternalError(err)
	}
	challenge := models.LoginChallenge{CodeHash: hash, Channel: ch, ExpiresAt: f.now().Add(f.LoginTTL)}
	if err := f.actors.SetLoginChallenge(ctx, actor.GetID(), challenge); err != nil {
		return "", storeFailure(err)
	}
	if err := f.Notifier.SendOTP(ctx, ch, lookup.Address(ch), code, f.LoginTTL); err != nil {
		return "", models.DeliveryFailed(err)
	}
	log.WithFields(log.Fields{"kind": f.desc.Kind, "actor_id": actor.GetID(), "channel": ch}).Info("🔐 Login OTP sent")
	return ch, nil
}

// VerifyLogin checks the pending login OTP, consumes it and issues a session token
func (f *Flow[T, PT]) VerifyLogin(ctx context.Context, contacts models.Contacts, code string) (PT, string, error) {
	_, lookup, err := f.loginChannel(contacts.Normalize())
	if err != nil {
		return nil, "", err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, "", models.ValidationError("otp is required")
	}
	actor, err := f.findForLogin(ctx, lookup)
	if err != nil {
		return nil, "", err
	}

	challenge := *actor.LoginState()
	if !challenge.Pending() || !f.OTP.Matches(challenge.CodeHash, code) {
		f.Metrics.RecordLogin(string(f.desc.Kind), "invalid_otp")
		return nil, "", models.InvalidOTP()
	}
	if f.now().After(challenge.ExpiresAt) {
		f.Metrics.RecordLogin(string(f.desc.Kind), "expired")
		return nil, "", models.OTPExpired()
	}

	token, err := f.Tokens.Issue(actor)
	if err != nil {
		return nil, "", models.InternalError(err)
	}
	if err := f.actors.ConsumeLoginChallenge(ctx, actor.GetID(), challenge.CodeHash); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			f.Metrics.RecordLogin(string(f.desc.Kind), "invalid_otp")
			return nil, "", models.InvalidOTP()
		}
		return nil, "", storeFailure(err)
	}
	*actor.LoginState() = models.LoginChallenge{}

	f.Metrics.RecordLogin(string(f.desc.Kind), "ok")
	log.WithFields(log.Fields{"kind": f.desc.Kind, "actor_id": actor.GetID()}).Info("✅ Login verified")
	return actor, token, nil
}

// Resolve loads the record a session token points at
func (f *Flow[T, PT]) Resolve(ctx context.Context, id string) (PT, error) {
	v, err := f.actors.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, models.NotFound(fmt.Sprintf("%s not found", f.desc.Label))
	}
	if err != nil {
		return nil, storeFailure(err)
	}
	return PT(v), nil
}
