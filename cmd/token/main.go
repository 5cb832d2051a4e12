// Command token issues access tokens for local development and can seed the
// first global admin grant, which cannot be created through the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/sultan/backend/internal/domain/identity"
	"github.com/sultan/backend/internal/domain/shared/access"
	"github.com/sultan/backend/internal/infrastructure/auth"
	"github.com/sultan/backend/internal/infrastructure/config"
	"github.com/sultan/backend/internal/infrastructure/logger"
	"github.com/sultan/backend/internal/infrastructure/persistence"
)

func main() {
	var (
		userID    int64
		username  string
		bootstrap bool
	)
	flag.Int64Var(&userID, "user", 0, "User id to issue the token for")
	flag.StringVar(&username, "name", "", "Username embedded in the token")
	flag.BoolVar(&bootstrap, "bootstrap-admin", false, "Grant the user global admin before issuing the token")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      "info",
		Format:     "console",
		Output:     "stderr",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if userID <= 0 {
		log.Fatal("A positive -user is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if bootstrap {
		if err := grantAdmin(cfg, userID); err != nil {
			log.Fatal("Failed to grant admin", zap.Int64("user_id", userID), zap.Error(err))
		}
		log.Info("Granted global admin", zap.Int64("user_id", userID))
	}

	token, err := auth.NewJWTService(cfg.JWT).GenerateToken(userID, username)
	if err != nil {
		log.Fatal("Failed to issue token", zap.Error(err))
	}
	log.Info("Issued access token", zap.Int64("user_id", userID), zap.Time("expires_at", token.ExpiresAt))
	fmt.Println(token.AccessToken)
}

func grantAdmin(cfg *config.Config, userID int64) error {
	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if db.Driver() == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			return err
		}
	}

	return persistence.NewGormPermissionRepository(db.DB).Save(context.Background(), identity.Permission{
		UserID:   userID,
		Resource: access.Admin,
		Action:   access.AllActions,
	})
}
