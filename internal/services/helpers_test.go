package services

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/spf13/afero"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ananth-NQI/washpe-backend/internal/metrics"
	"github.com/Ananth-NQI/washpe-backend/internal/mocks"
	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/storage"
)

var codePattern = regexp.MustCompile(`\b\d{6}\b`)

// inbox records the last code sent to each address
type inbox struct {
	mu    sync.Mutex
	codes map[string]string
}

func (b *inbox) capture(ctx context.Context, to, body string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.codes[to] = codePattern.FindString(body)
	return nil
}

func (b *inbox) last(to string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.codes[to]
}

type testEnv struct {
	store    *storage.MemoryStore
	sms      *mocks.MockSender
	email    *mocks.MockSender
	inbox    *inbox
	tokens   *TokenIssuer
	media    *MediaStore
	fs       afero.Fs
	deps     FlowDeps
	users    *UserFlow
	partners *PartnerFlow
	delivery *DeliveryPartnerFlow
}

// newTestEnv wires the three flows over a memory store; senders deliver into env.inbox
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	env := &testEnv{
		store:  storage.NewMemoryStore(),
		sms:    mocks.NewMockSender(ctrl),
		email:  mocks.NewMockSender(ctrl),
		inbox:  &inbox{codes: make(map[string]string)},
		tokens: NewTokenIssuer("test-secret", "washpe-test", time.Hour),
		fs:     afero.NewMemMapFs(),
	}
	env.sms.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(env.inbox.capture).AnyTimes()
	env.email.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(env.inbox.capture).AnyTimes()
	env.media = NewMediaStore(env.fs, "/media", 1<<20)

	env.deps = FlowDeps{
		Registrations: env.store.Registrations(),
		OTP:           NewOTPService(bcrypt.MinCost),
		Notifier:      NewNotifier(env.sms, env.email, time.Second, metrics.Nop{}),
		Tokens:        env.tokens,
		Media:         env.media,
		LoginTTL:      10 * time.Minute,
		Metrics:       metrics.Nop{},
	}
	env.users = NewFlow[models.User, *models.User](UserDescriptor(5*time.Minute), env.store.Users(), env.deps)
	env.partners = NewFlow[models.Partner, *models.Partner](PartnerDescriptor(10*time.Minute), env.store.Partners(), env.deps)
	env.delivery = NewFlow[models.DeliveryPartner, *models.DeliveryPartner](DeliveryPartnerDescriptor(10*time.Minute), env.store.DeliveryPartners(), env.deps)
	return env
}

func userPayload(mobile, email string) map[string]any {
	return map[string]any{"name": "Asha", "mobile": mobile, "email": email}
}

func deliveryPayload(mobile string) map[string]any {
	return map[string]any{
		"firstName":              "Ravi",
		"lastName":               "Kumar",
		"mobile":                 mobile,
		"dob":                    "1994-03-12",
		"whatsappNumber":         mobile,
		"city":                   "Pune",
		"completeAddress":        "12 MG Road",
		"languages":              []string{"hi", "mr"},
		"aadharNumber":           "123412341234",
		"pancardNumber":          "ABCDE1234F",
		"drivingLicenceNumber":   "MH1220110012345",
		"rcNumber":               "MH12AB1234",
		"bankDetails":            map[string]any{"accountNumber": "123456789012", "ifscCode": "HDFC0001234", "accountHolderName": "Ravi Kumar"},
		"emergencyContactNumber": "9123456780",
	}
}

func documentURLs() map[string]string {
	docs := make(map[string]string, len(models.DocumentFields))
	for _, name := range models.DocumentFields {
		docs[name] = "/media/registrations/" + name + ".png"
	}
	return docs
}

func wantCode(t *testing.T, err error, code string) {
	t.Helper()
	if got := models.CodeOf(err); got != code {
		t.Fatalf("error = %v (code %s), want code %s", err, got, code)
	}
}

// signedUpUser runs a full signup and returns the promoted user
func (env *testEnv) signedUpUser(t *testing.T, mobile, email string) *models.User {
	t.Helper()
	ctx := context.Background()
	if _, err := env.users.Signup(ctx, userPayload(mobile, email), nil); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	u, _, err := env.users.Verify(ctx, models.Contacts{Mobile: mobile, Email: email}, map[models.Channel]string{
		models.ChannelMobile: env.inbox.last(mobile),
		models.ChannelEmail:  env.inbox.last(email),
	})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	return u
}

func (env *testEnv) signedUpPartner(t *testing.T, mobile, email string) *models.Partner {
	t.Helper()
	ctx := context.Background()
	if _, err := env.partners.Signup(ctx, userPayload(mobile, email), nil); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	p, _, err := env.partners.Verify(ctx, models.Contacts{Mobile: mobile, Email: email}, map[models.Channel]string{
		models.ChannelMobile: env.inbox.last(mobile),
		models.ChannelEmail:  env.inbox.last(email),
	})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	return p
}
