// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package main

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/spf13/cobra"

	"blogapi/internal/models"
	"blogapi/internal/store"
)

var (
	userEmail string
	userName  string
	userRole  string
)

// userCmd groups author management. Authors are matched to identity
// provider accounts by email when posts are created.
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage post authors",
}

var userAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register an author",
	Long: `Register an author so posts created by the identity with the same
email are attributed to them. Posts by unknown identities fall back to
the first admin.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, name, role, err := userInput(userEmail, userName, userRole)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		db, err := connect(ctx)
		if err != nil {
			return err
		}
		defer db.Close()

		u, err := store.NewUserStore(db).Create(ctx, email, name, role)
		if errors.Is(err, store.ErrConflict) {
			return fmt.Errorf("a user with email %s already exists", email)
		}
		if err != nil {
			return err
		}
		cmd.Printf("created %s user %d <%s>\n", u.Role, u.ID, u.Email)
		return nil
	},
}

// userInput checks and normalises the add flags.
func userInput(email, name, role string) (string, string, models.Role, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return "", "", "", fmt.Errorf("--email: %w", err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", "", errors.New("--name is required")
	}
	r := models.Role(strings.ToLower(strings.TrimSpace(role)))
	if !r.Valid() {
		return "", "", "", fmt.Errorf("--role must be %s or %s, got %q", models.RoleAdmin, models.RoleEditor, role)
	}
	return addr.Address, name, r, nil
}

func init() {
	userAddCmd.Flags().StringVar(&userEmail, "email", "", "author email, as issued by the identity provider")
	userAddCmd.Flags().StringVar(&userName, "name", "", "display name")
	userAddCmd.Flags().StringVar(&userRole, "role", string(models.RoleEditor), "admin or editor")
	userCmd.AddCommand(userAddCmd)
}
