package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims holds the parsed claims from a validated JWT.
type JWTClaims struct {
	Subject string
	Issuer  string
	Admin   bool
	Raw     map[string]interface{}
}

// JWTValidator validates a JWT and returns its claims.
type JWTValidator interface {
	Validate(ctx context.Context, tokenString string) (*JWTClaims, error)
}

// HS256Validator validates JWTs signed with a shared HS256 secret.
type HS256Validator struct {
	secret []byte
	issuer string
}

var _ JWTValidator = (*HS256Validator)(nil)

// NewHS256Validator creates a validator for HS256 tokens. When issuer is not
// empty the iss claim must match it.
func NewHS256Validator(secret, issuer string) (*HS256Validator, error) {
	if secret == "" {
		return nil, errors.New("JWT secret is required")
	}
	return &HS256Validator{secret: []byte(secret), issuer: issuer}, nil
}

// Validate verifies the signature and expiry of tokenString and extracts
// its claims. A token without a subject is rejected.
func (v *HS256Validator) Validate(_ context.Context, tokenString string) (*JWTClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	tok, err := jwt.Parse(tokenString, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("token verification failed: %w", err)
	}

	raw, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("parse claims: unsupported claim type %T", tok.Claims)
	}
	claims := &JWTClaims{Raw: map[string]interface{}(raw)}
	claims.Subject, _ = raw["sub"].(string)
	claims.Issuer, _ = raw["iss"].(string)
	claims.Admin, _ = raw["admin"].(bool)
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}
