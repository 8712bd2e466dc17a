package main

import (
	"context"
	"flag"
	"os"
	"time"

	"go-catalogue-ws/internal/config"
	"go-catalogue-ws/internal/identity"
	"go-catalogue-ws/internal/model"
	"go-catalogue-ws/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// register-user appends a record to the Users sheet so that the identity
// resolver grants the given role, e.g. to promote a retailer or an admin.
func main() {
	email := flag.String("email", "", "user email (required)")
	name := flag.String("name", "", "display name")
	role := flag.String("role", string(model.RoleRetailer), "customer, retailer or admin")
	uid := flag.String("uid", "", "user id, generated when empty")
	flag.Parse()

	envErr := config.LoadEnv()
	cfg := config.Load()
	log := logger.Init(cfg.Log)
	defer log.Sync()
	if envErr != nil {
		log.Warn(".env file not found, relying on system env")
	}

	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}
	r := model.Role(*role)
	if !r.Valid() {
		log.Fatal("unknown role", zap.String("role", *role))
	}
	if *uid == "" {
		*uid = uuid.NewString()
	}

	rs, closeRows, err := cfg.RowService(log)
	if err != nil {
		log.Fatal("failed to set up row service", zap.Error(err))
	}
	defer closeRows()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	directory := identity.NewSheetDirectory(rs)
	if existing, found, err := directory.Lookup(ctx, *email); err == nil && found {
		log.Warn("user already listed, appending anyway",
			zap.String("email", existing.Email), zap.String("role", string(existing.Role)))
	}

	result, err := directory.Register(ctx, model.DirectoryUser{
		UID:       *uid,
		Email:     *email,
		Name:      *name,
		Role:      r,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Fatal("failed to register user", zap.String("backend", cfg.RowBackend), zap.Error(err))
	}
	if !result.Confirmed {
		log.Warn("append sent but not confirmed by the backend", zap.String("message", result.Message))
		return
	}
	log.Info("user registered", zap.String("email", *email), zap.String("role", string(r)), zap.String("uid", *uid))
}
