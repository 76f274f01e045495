package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Ananth-NQI/washpe-backend/internal/models"
)

var ErrInvalidToken = errors.New("invalid token")

// SessionClaims are carried by every session token
type SessionClaims struct {
	jwt.RegisteredClaims
	Kind   models.ActorKind `json:"kind"`
	Mobile string           `json:"mobile,omitempty"`
	Email  string           `json:"email,omitempty"`
}

// TokenIssuer signs and validates HS256 session tokens
type TokenIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret, issuer string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), issuer: issuer, ttl: ttl, now: time.Now}
}

// Issue returns a signed token for a permanent record
func (t *TokenIssuer) Issue(a models.Actor) (string, error) {
	now := t.now()
	contacts := a.ContactInfo()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.GetID(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Kind:   a.ActorKind(),
		Mobile: contacts.Mobile,
		Email:  contacts.Email,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Parse validates signature, issuer and expiry and returns the claims
func (t *TokenIssuer) Parse(token string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (interface{}, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" || claims.Kind == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
