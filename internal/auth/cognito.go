// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Verifier turns a raw bearer token into an Identity.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

var (
	// ErrAudience means the token was issued for another app client.
	ErrAudience = errors.New("token audience mismatch")
	// ErrNoSubject means the token carries no sub claim.
	ErrNoSubject = errors.New("token has no subject")
)

// CognitoConfig identifies a Cognito user pool and app client.
type CognitoConfig struct {
	Region     string
	UserPoolID string
	ClientID   string

	// KeySetURL overrides the pool's well-known JWKS location.
	KeySetURL string
}

// Issuer returns the iss claim the pool puts in its tokens.
func (c CognitoConfig) Issuer() string {
	return fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", c.Region, c.UserPoolID)
}

// JWKSURL returns the URL of the pool's public signing keys.
func (c CognitoConfig) JWKSURL() string {
	if c.KeySetURL != "" {
		return c.KeySetURL
	}
	return c.Issuer() + "/.well-known/jwks.json"
}

// cognitoClaims covers both ID tokens (aud = client id) and access tokens
// (client_id claim, no aud).
type cognitoClaims struct {
	Email    string   `json:"email"`
	Groups   []string `json:"cognito:groups"`
	ClientID string   `json:"client_id"`
	TokenUse string   `json:"token_use"`
	jwt.RegisteredClaims
}

// CognitoVerifier validates RS256 tokens signed by a Cognito user pool.
type CognitoVerifier struct {
	clientID string
	keyfunc  jwt.Keyfunc
	parser   *jwt.Parser
}

// NewCognitoVerifier fetches the pool's key set and keeps it refreshed in
// the background until ctx is cancelled.
func NewCognitoVerifier(ctx context.Context, cfg CognitoConfig) (*CognitoVerifier, error) {
	k, err := keyfunc.NewDefaultCtx(ctx, []string{cfg.JWKSURL()})
	if err != nil {
		return nil, fmt.Errorf("load cognito key set: %w", err)
	}
	return NewVerifierWithKeyfunc(cfg, k.Keyfunc), nil
}

// NewVerifierWithKeyfunc builds a verifier around an existing key lookup.
func NewVerifierWithKeyfunc(cfg CognitoConfig, kf jwt.Keyfunc) *CognitoVerifier {
	return &CognitoVerifier{
		clientID: cfg.ClientID,
		keyfunc:  kf,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
			jwt.WithIssuer(cfg.Issuer()),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}
}

// Verify checks the signature, issuer, expiry, and audience of token and
// returns the identity it names.
func (v *CognitoVerifier) Verify(_ context.Context, token string) (*Identity, error) {
	claims := &cognitoClaims{}
	if _, err := v.parser.ParseWithClaims(token, claims, v.keyfunc); err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	if !slices.Contains(claims.Audience, v.clientID) && claims.ClientID != v.clientID {
		return nil, ErrAudience
	}
	if claims.Subject == "" {
		return nil, ErrNoSubject
	}

	return &Identity{
		Subject: claims.Subject,
		Email:   claims.Email,
		Groups:  claims.Groups,
	}, nil
}
