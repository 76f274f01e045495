package services

import (
	"testing"
	"time"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("secret", "washpe", time.Hour)
	p := &models.Partner{ID: "p-1", Mobile: "9876543210", Email: "shop@example.com"}

	token, err := issuer.Issue(p)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := issuer.Parse(token)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != "p-1" || claims.Kind != models.KindPartner || claims.Email != "shop@example.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenIssuer_Rejects(t *testing.T) {
	issuer := NewTokenIssuer("secret", "washpe", time.Hour)
	u := &models.User{ID: "u-1", Mobile: "9876543210"}
	token, err := issuer.Issue(u)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tests := []struct {
		name   string
		parser *TokenIssuer
		token  string
	}{
		{"wrong secret", NewTokenIssuer("other", "washpe", time.Hour), token},
		{"wrong issuer", NewTokenIssuer("secret", "someone", time.Hour), token},
		{"garbage", issuer, "not.a.token"},
		{"empty", issuer, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.parser.Parse(tt.token); err != ErrInvalidToken {
				t.Errorf("Parse error = %v, want ErrInvalidToken", err)
			}
		})
	}

	expired := NewTokenIssuer("secret", "washpe", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := expired.Parse(token); err != ErrInvalidToken {
		t.Errorf("expired token accepted: %v", err)
	}
}
