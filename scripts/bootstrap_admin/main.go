// Command bootstrap_admin creates (or repairs) the initial admin account.
// Intended for first deployment and local development setups.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/classhub/classhub-api/internal/models"
	"github.com/classhub/classhub-api/internal/repository"
	"github.com/classhub/classhub-api/pkg/config"
	"github.com/classhub/classhub-api/pkg/database"
)

func main() {
	var (
		email    string
		name     string
		password string
		timeout  time.Duration
	)

	flag.StringVar(&email, "email", "", "Admin email address")
	flag.StringVar(&name, "name", "Administrator", "Display name")
	flag.StringVar(&password, "password", "", "Initial password")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "Database operation timeout")
	flag.Parse()

	if email == "" || password == "" {
		log.Fatal("both -email and -password are required")
	}
	if len(password) < 8 {
		log.Fatal("password must be at least 8 characters")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	repo := repository.NewUserRepository(db)
	email = strings.ToLower(strings.TrimSpace(email))

	existing, err := repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		log.Fatalf("failed to look up %s: %v", email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	if existing != nil {
		if err := repo.UpdatePassword(ctx, existing.ID, string(hash), time.Now().UTC()); err != nil {
			log.Fatalf("failed to reset password: %v", err)
		}
		fmt.Printf("password reset for existing account %s (%s)\n", email, existing.Role)
		return
	}

	admin := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := repo.Create(ctx, admin); err != nil {
		log.Fatalf("failed to create admin: %v", err)
	}

	fmt.Printf("admin account created: %s (%s)\n", email, admin.ID)
}
