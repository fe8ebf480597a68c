package token

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// DefaultLifetime matches the window a rendered form stays submittable.
const DefaultLifetime = 24 * time.Hour

type Claims struct {
	Action string `json:"act"`
	jwt.RegisteredClaims
}

// Issuer signs short-lived request tokens. Each seed gets its own key,
// derived from the site secret, so a token minted for one form is
// useless for another.
type Issuer struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

func New(siteSecret string) (*Issuer, error) {
	if siteSecret == "" {
		return nil, errors.New("site secret is required")
	}
	return &Issuer{
		secret:   []byte(siteSecret),
		lifetime: DefaultLifetime,
		now:      time.Now,
	}, nil
}

func (i *Issuer) SetLifetime(d time.Duration) {
	i.lifetime = d
}

func (i *Issuer) Issue(seed string) (string, error) {
	key, err := i.deriveKey(seed)
	if err != nil {
		return "", err
	}

	now := i.now()
	claims := &Claims{
		Action: seed,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (i *Issuer) Verify(tokenStr, seed string) bool {
	if tokenStr == "" {
		return false
	}
	key, err := i.deriveKey(seed)
	if err != nil {
		return false
	}

	tok, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return key, nil
	}, jwt.WithTimeFunc(i.now), jwt.WithExpirationRequired())
	if err != nil {
		return false
	}

	claims, ok := tok.Claims.(*Claims)
	return ok && tok.Valid && claims.Action == seed
}

func (i *Issuer) deriveKey(seed string) ([]byte, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(hkdf.New(sha256.New, i.secret, nil, []byte(seed)), key); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return key, nil
}
