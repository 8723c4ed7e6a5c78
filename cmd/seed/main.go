package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/oksasatya/go-account-service/config"
	"github.com/oksasatya/go-account-service/internal/application"
	"github.com/oksasatya/go-account-service/internal/domain/entity"
	"github.com/oksasatya/go-account-service/internal/domain/repository"
	pginfra "github.com/oksasatya/go-account-service/internal/infrastructure/postgres"
	"github.com/oksasatya/go-account-service/pkg/helpers"
)

// seeds an active demo account; an existing one is activated and reused
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env, cfg.LogLevel)
	ctx := context.Background()

	email := application.NormalizeEmail(getenv("SEED_EMAIL", "demo@example.com"))
	password := getenv("SEED_PASSWORD", "password123")
	name := "Demo User"

	pool, err := pginfra.NewPool(ctx, pginfra.OptionsFrom(cfg))
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	accounts := pginfra.NewAccountRepository(pool)
	acc, err := accounts.GetByEmail(ctx, email)
	switch {
	case err == nil:
		acc, err = accounts.Update(ctx, acc.ID, repository.AccountPatch{Status: repository.Some(entity.StatusActive)})
		if err != nil {
			logger.Fatalf("failed to activate demo account: %v", err)
		}
	case errors.Is(err, repository.ErrNotFound):
		hash, herr := helpers.NewPasswordHasher(cfg.BcryptCost).Hash(password)
		if herr != nil {
			logger.Fatalf("failed to hash password: %v", herr)
		}
		acc = &entity.Account{Email: email, PasswordHash: hash, Name: &name, Status: entity.StatusActive}
		if err := accounts.Create(ctx, acc); err != nil {
			logger.Fatalf("failed to seed account: %v", err)
		}
	default:
		logger.Fatalf("failed to look up demo account: %v", err)
	}
	fmt.Printf("seeded account: id=%s email=%s password=%s\n", acc.ID, acc.Email, password)
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
