package main

import (
	"context"
	"strings"

	userstore "github.com/dalemusser/organigram/internal/app/store/users"
	"golang.org/x/crypto/bcrypt"
)

// adminInput is the admin account described by the ADMIN_* variables.
type adminInput struct {
	Email       string
	Password    string
	Username    string
	Permissions []string
}

// result is printed as JSON on success.
type result struct {
	Action      string   `json:"action"` // created | updated
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

// adminFromEnv reads the admin account from getenv. The username defaults
// to the local part of the email.
func adminFromEnv(getenv func(string) string) (adminInput, error) {
	email, err := requireEnv(getenv, "ADMIN_EMAIL")
	if err != nil {
		return adminInput{}, err
	}
	password, err := requireEnv(getenv, "ADMIN_PASSWORD")
	if err != nil {
		return adminInput{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))

	username := strings.TrimSpace(getenv("ADMIN_USERNAME"))
	if username == "" {
		username, _, _ = strings.Cut(email, "@")
	}
	if username == "" {
		username = "admin"
	}

	perms := []string{}
	for _, p := range strings.Split(getenv("ADMIN_PERMISSIONS"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			perms = append(perms, p)
		}
	}

	return adminInput{Email: email, Password: password, Username: username, Permissions: perms}, nil
}

func upsertAdmin(ctx context.Context, users *userstore.Store, in adminInput) (result, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return result{}, err
	}

	u, created, err := users.UpsertAdmin(ctx, userstore.AdminUpsert{
		Email:        in.Email,
		Username:     in.Username,
		PasswordHash: string(hash),
		Permissions:  in.Permissions,
	})
	if err != nil {
		return result{}, err
	}

	action := "updated"
	if created {
		action = "created"
	}
	return result{
		Action:      action,
		ID:          u.ID.Hex(),
		Email:       u.Email,
		Username:    u.Username,
		Role:        u.Role,
		Permissions: u.Permissions,
	}, nil
}
