// Package token issues and verifies the signed bearer credentials that
// identify principals. Two historical payload shapes are in circulation:
// newer tokens carry the principal id in "userId", older ones in "id".
// Verification accepts both; issuance always writes "userId".
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalid = errors.New("invalid token")
	ErrExpired = errors.New("token expired")
)

type claims struct {
	UserID   int64  `json:"userId,omitempty"`
	LegacyID int64  `json:"id,omitempty"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the verified content of a credential.
type Identity struct {
	PrincipalID int64
	Role        string
}

type Signer struct {
	secret []byte
	ttl    time.Duration
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	return &Signer{secret: []byte(secret), ttl: ttl}
}

// Issue signs a credential for the given principal. An empty role is
// interpreted as "user" at verification time.
func (s *Signer) Issue(principalID int64, role string) (string, error) {
	now := time.Now()
	c := claims{
		UserID: principalID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and expiry and extracts the identity.
// Expired credentials are reported as ErrExpired so callers can tell
// "log in again" apart from a malformed token.
func (s *Signer) Verify(raw string) (Identity, error) {
	var c claims
	_, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrExpired
		}
		return Identity{}, ErrInvalid
	}

	id := c.UserID
	if id == 0 {
		id = c.LegacyID
	}
	if id == 0 {
		return Identity{}, ErrInvalid
	}

	role := c.Role
	if role == "" {
		role = "user"
	}
	return Identity{PrincipalID: id, Role: role}, nil
}
