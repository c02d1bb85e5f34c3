// seed inserts a development admin account for local testing.
// Idempotent: skips the insert when the admin (admin@example.com) already exists.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/oklog/ulid/v2"

	"authgate/internal/config"
	"authgate/internal/db"
	"authgate/internal/repomanager"
	"authgate/internal/security"
	"authgate/internal/user/domain"
)

const (
	adminEmail    = "admin@example.com"
	adminUsername = "admin"
	adminPassword = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer database.Close()

	ctx := context.Background()
	repos := repomanager.New(database)

	existing, err := repos.Users.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("lookup: %v", err)
	}
	if existing != nil {
		fmt.Println("seed: admin already exists, nothing to do")
		return
	}

	hash, err := security.NewHasher().Hash(adminPassword)
	if err != nil {
		log.Fatalf("hash: %v", err)
	}
	now := time.Now().UTC()
	admin := &domain.User{
		ID:           ulid.Make().String(),
		Email:        adminEmail,
		Username:     adminUsername,
		PasswordHash: hash,
		Active:       true,
		Admin:        true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repos.Users.Create(ctx, admin); err != nil {
		log.Fatalf("create: %v", err)
	}
	fmt.Printf("seed: created admin %s (%s)\n", adminEmail, admin.ID)
}
