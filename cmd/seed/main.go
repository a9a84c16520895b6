package main

import (
	"context"
	"errors"
	"log"
	"os"

	"gallery/internal/config"
	"gallery/internal/database"
	"gallery/internal/domain"
	"gallery/internal/domain/auth"
	"gallery/internal/repository"

	"github.com/spf13/pflag"
)

// seed creates the first admin account. Self-registration only ever makes
// plain users, so this is the way to get one.
func main() {
	fs := pflag.NewFlagSet("seed", pflag.ExitOnError)
	username := fs.String("admin-username", "admin", "")
	email := fs.String("admin-email", "admin@gallery.local", "")
	password := fs.String("admin-password", "", "required")
	_ = fs.Parse(os.Args[1:])

	if *password == "" {
		log.Fatal("--admin-password is required")
	}

	// The seed flags are not part of the server config.
	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := repository.AutoMigrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	hash, err := auth.HashPassword(*password, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	users := repository.NewUserRepository(db)
	admin := &domain.User{
		Username:     *username,
		Email:        *email,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := users.Create(context.Background(), admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			log.Printf("admin already exists: %s", *email)
			return
		}
		log.Fatalf("create admin: %v", err)
	}

	log.Printf("Admin created: id=%d email=%s", admin.ID, admin.Email)
}
