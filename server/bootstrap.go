package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/storefront-sessions/users"
	"github.com/rs/zerolog"
)

const DefaultAdminName = "System Administrator"

// InitialiseSystem makes sure an admin principal exists for adminEmail so the admin
// endpoints are reachable on a fresh deployment. When password is empty a random one is
// generated and returned; it is returned only when the admin was created.
func InitialiseSystem(ctx context.Context, repo users.Repo, adminEmail, password string, log zerolog.Logger) (generatedPassword string, err error) {
	adminEmail = strings.ToLower(strings.TrimSpace(adminEmail))
	if adminEmail == "" {
		log.Debug().Msg("bootstrap: no admin email configured, skipping")
		return "", nil
	}

	existing, err := repo.GetByEmail(ctx, adminEmail)
	switch {
	case err == nil:
		if !existing.Is(users.TypeAdmin) {
			return "", fmt.Errorf("bootstrap: %s exists but is a %s", adminEmail, existing.Type)
		}
		log.Info().Str("email", adminEmail).Msg("bootstrap: admin already exists")
		return "", nil
	case !errors.Is(err, users.ErrNotFound):
		return "", fmt.Errorf("failed to check for existing admin: %w", err)
	}

	if password == "" {
		passwordBytes := make([]byte, 16)
		if _, err := rand.Read(passwordBytes); err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		password = base64.URLEncoding.EncodeToString(passwordBytes)
		generatedPassword = password
	}

	passwordHash, err := users.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &users.Principal{
		ID:           uuid.New().String(),
		Email:        adminEmail,
		FullName:     DefaultAdminName,
		PasswordHash: passwordHash,
		Type:         users.TypeAdmin,
		DateJoined:   time.Now().UTC(),
	}
	if err := repo.Upsert(ctx, admin); err != nil {
		return "", fmt.Errorf("failed to create admin: %w", err)
	}

	log.Info().Str("email", admin.Email).Str("id", admin.ID).Msg("bootstrap: created admin")
	return generatedPassword, nil
}
