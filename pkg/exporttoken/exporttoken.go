// Package exporttoken issues signed, short-lived download tokens for
// completed data export requests.
package exporttoken

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carries the request and user a download token is scoped to
type Claims struct {
	RequestID string `json:"request_id"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies export download tokens
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

// NewIssuer creates a token issuer. The secret must not be empty.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if secret == "" {
		return nil, fmt.Errorf("export token secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl}, nil
}

// Issue returns a signed token granting access to one export request
func (i *Issuer) Issue(requestID, userID uuid.UUID) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RequestID: requestID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign export token: %w", err)
	}
	return signed, nil
}

// Verify parses a token and returns the request and user it grants
func (i *Issuer) Verify(tokenString string) (requestID, userID uuid.UUID, err error) {
	var claims Claims
	_, err = jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid export token: %w", err)
	}

	requestID, err = uuid.Parse(claims.RequestID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid request id in token: %w", err)
	}
	userID, err = uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid subject in token: %w", err)
	}
	return requestID, userID, nil
}
