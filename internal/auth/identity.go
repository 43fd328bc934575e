// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package auth verifies bearer tokens issued by the identity provider and
// carries the resulting identity through request contexts.
package auth

import (
	"context"
	"slices"
)

// AdminGroup is the identity-provider group of blog administrators.
const AdminGroup = "admins"

// Identity is the authenticated caller.
type Identity struct {
	Subject string   `json:"sub"`
	Email   string   `json:"email"`
	Groups  []string `json:"groups"`
}

// InGroup reports whether the identity belongs to group.
func (i *Identity) InGroup(group string) bool {
	return slices.Contains(i.Groups, group)
}

// DevIdentity returns the fixed administrator stamped on requests when
// token verification is disabled.
func DevIdentity() *Identity {
	return &Identity{
		Subject: "dev-admin",
		Email:   "admin@localhost",
		Groups:  []string{AdminGroup},
	}
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromCtx extracts the authenticated identity from the request
// context. Returns nil if the request did not pass the auth gate.
func IdentityFromCtx(ctx context.Context) *Identity {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	return id
}
