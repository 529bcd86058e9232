// Package auth provides credential handling for the API: bcrypt password
// hashing, signed access/refresh tokens, GitHub sign-in, and the bearer-token
// middleware.
//
// TOKEN FLOW OVERVIEW:
//  1. POST /auth/login (or GitHub callback) verifies the user and issues an
//     access token and a refresh token.
//  2. The client sends "Authorization: Bearer <access token>" on protected calls.
//     RequireAuth decodes it and puts the user ID into the request context.
//  3. When the access token expires, POST /auth/refresh trades the refresh token
//     for a fresh pair without asking for the password again.
//
// JWT STRUCTURE:
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"<user id>","type":"access","iat":...,"exp":...,"iss":"skillgig"}
//	- Signature: HMAC(header+"."+payload, secret)
//
// The "type" claim keeps the two kinds apart: a refresh token is never accepted
// as an access token and vice versa.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "skillgig"

// Token kinds carried in the "type" claim.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

// ErrInvalidToken is returned by Decode for every failure: bad signature,
// wrong algorithm, expired, wrong kind, malformed, missing subject.
// Callers cannot (and must not) tell these apart.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenService issues and decodes HMAC-signed JWTs.
type TokenService struct {
	secret []byte
	method *jwt.SigningMethodHMAC
}

// NewTokenService creates a TokenService with the given secret and HMAC
// algorithm name (HS256, HS384 or HS512). An empty algorithm means HS256.
func NewTokenService(secret, algorithm string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}

	var method *jwt.SigningMethodHMAC
	switch algorithm {
	case "", "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("auth: unsupported JWT algorithm %q", algorithm)
	}

	return &TokenService{secret: []byte(secret), method: method}, nil
}

// claims is the JWT payload: the registered claims plus the token kind.
type claims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed token and the moment it stops being valid.
type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

// Issue signs a token of the given kind for subject, valid for ttl.
func (s *TokenService) Issue(subject, kind string, ttl time.Duration) (IssuedToken, error) {
	if subject == "" {
		return IssuedToken{}, errors.New("auth: token subject must not be empty")
	}
	if kind != KindAccess && kind != KindRefresh {
		return IssuedToken{}, fmt.Errorf("auth: unknown token kind %q", kind)
	}

	now := time.Now()
	expiresAt := now.Add(ttl)

	c := claims{
		Type: kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(s.method, c).SignedString(s.secret)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("auth: signing token: %w", err)
	}

	return IssuedToken{Token: signed, ExpiresAt: expiresAt}, nil
}

// Decode verifies tokenStr and returns its subject.
//
// VALIDATION CHECKS:
//   - signature matches the secret
//   - algorithm is exactly the configured one (blocks "none" and alg swaps)
//   - issuer is ours, expiry is present and in the future
//   - the "type" claim equals expectedKind
func (s *TokenService) Decode(tokenStr, expectedKind string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, ErrInvalidToken
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", ErrInvalidToken
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}
	if c.Type != expectedKind || c.Subject == "" {
		return "", ErrInvalidToken
	}

	return c.Subject, nil
}
