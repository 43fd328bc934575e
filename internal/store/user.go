// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"blogapi/internal/database"
	"blogapi/internal/models"
)

// UserStore reads and writes post authors.
type UserStore struct {
	db database.Querier
}

// NewUserStore creates a new UserStore.
func NewUserStore(db database.Querier) *UserStore {
	return &UserStore{db: db}
}

const userColumns = `id, email, display_name, role, created_at`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.Role, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByEmail retrieves a user by email. Returns nil if not found.
func (s *UserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("find user by email", err)
	}
	return u, nil
}

// FirstAdmin returns the earliest admin user. Returns nil if there is none.
func (s *UserStore) FirstAdmin(ctx context.Context) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users WHERE role = 'admin' ORDER BY id LIMIT 1
	`))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrap("find first admin", err)
	}
	return u, nil
}

// Create inserts a user.
func (s *UserStore) Create(ctx context.Context, email, displayName string, role models.Role) (*models.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, `
		INSERT INTO users (email, display_name, role)
		VALUES ($1, $2, $3)
		RETURNING `+userColumns,
		email, displayName, role,
	))
	if err != nil {
		return nil, wrap("create user", err)
	}
	return u, nil
}

// ResolveAuthor maps an authenticated email to an author ID: the user with
// that email, else the first admin. Returns nil when neither exists.
func (s *UserStore) ResolveAuthor(ctx context.Context, email string) (*int64, error) {
	if email != "" {
		u, err := s.FindByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if u != nil {
			return &u.ID, nil
		}
	}

	admin, err := s.FirstAdmin(ctx)
	if err != nil || admin == nil {
		return nil, err
	}
	return &admin.ID, nil
}
