// Package token issues and verifies the signed session tokens identifying students and admins.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongRole    = errors.New("token role not allowed")

	signingMethod = jwt.SigningMethodHS256
)

// Identity is who a token was issued to.
type Identity struct {
	Subject string
	Role    Role
}

func (id Identity) IsAdmin() bool   { return id.Role == RoleAdmin }
func (id Identity) IsStudent() bool { return id.Role == RoleStudent }

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Role    Role `json:"role"`
	IsAdmin bool `json:"is_admin,omitempty"` // -> ADMIN PORTAL
}

type Issuer struct {
	appName string
	secret  []byte
	ttls    map[Role]time.Duration
	nowFunc func() time.Time
}

func NewIssuer(appName, secret string, studentTTL, adminTTL time.Duration) *Issuer {
	return &Issuer{
		appName: appName,
		secret:  []byte(secret),
		ttls:    map[Role]time.Duration{RoleStudent: studentTTL, RoleAdmin: adminTTL},
		nowFunc: time.Now,
	}
}

// TTL returns how long tokens issued for role stay valid.
func (iss *Issuer) TTL(role Role) time.Duration { return iss.ttls[role] }

func (iss *Issuer) claims(id Identity) *Claims {
	now := iss.nowFunc()
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    iss.appName,
			Subject:   id.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(iss.ttls[id.Role])),
		},
		Role:    id.Role,
		IsAdmin: id.Role == RoleAdmin,
	}
}

// Issue generates a signed JWT token string for the given Identity.
func (iss *Issuer) Issue(id Identity) (string, error) {
	if _, ok := iss.ttls[id.Role]; !ok || id.Subject == "" {
		return "", fmt.Errorf("issuing token: invalid identity %+v", id)
	}
	ss, err := jwt.NewWithClaims(signingMethod, iss.claims(id)).SignedString(iss.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return ss, nil
}

// Verify parses tokenStr and checks that it was issued for the wanted role.
// Missing, malformed, expired and tampered tokens all fail with ErrInvalidToken.
func (iss *Issuer) Verify(tokenStr string, want Role) (Identity, error) {
	if tokenStr == "" {
		return Identity{}, ErrInvalidToken
	}

	claims := new(Claims)
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != signingMethod.Alg() {
			return nil, ErrInvalidToken
		}
		return iss.secret, nil
	})
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return Identity{}, ErrInvalidToken
	}

	// role & admin flag must agree
	if (claims.Role == RoleAdmin) != claims.IsAdmin {
		return Identity{}, ErrInvalidToken
	}
	if claims.Role != want {
		return Identity{}, ErrWrongRole
	}
	return Identity{Subject: claims.Subject, Role: claims.Role}, nil
}
