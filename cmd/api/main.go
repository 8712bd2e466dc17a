package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-catalogue-ws/internal/catalogue"
	"go-catalogue-ws/internal/config"
	"go-catalogue-ws/internal/handler"
	"go-catalogue-ws/internal/identity"
	"go-catalogue-ws/internal/model"
	"go-catalogue-ws/internal/service"
	"go-catalogue-ws/internal/upload"
	"go-catalogue-ws/internal/ws"
	"go-catalogue-ws/pkg/logger"
	"go-catalogue-ws/pkg/metrics"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

// bodyLimit leaves room for a full batch of images at the size limit.
const bodyLimit = (upload.MaxImagesPerProduct + 1) * upload.MaxFileSize

func main() {
	// 1. Load Env
	envErr := config.LoadEnv()
	cfg := config.Load()
	log := logger.Init(cfg.Log)
	defer log.Sync()
	if envErr != nil {
		log.Warn(".env file not found, relying on system env")
	}

	// 2. Row service
	rs, closeRows, err := cfg.RowService(log)
	if err != nil {
		log.Fatal("failed to set up row service", zap.String("backend", cfg.RowBackend), zap.Error(err))
	}
	defer closeRows()
	if !cfg.Configured() {
		log.Warn("row service not configured, running in guest mode on an empty catalogue")
	}

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub(log)
	go wsHub.Run()

	// 4. Catalogue store
	ids, err := catalogue.NewSnowflakeIDs(cfg.SnowflakeNode)
	if err != nil {
		log.Fatal("invalid SNOWFLAKE_NODE", zap.Int64("node", cfg.SnowflakeNode), zap.Error(err))
	}
	store := catalogue.NewStore(
		catalogue.WithIDGenerator(ids),
		catalogue.WithNotifier(wsHub),
		catalogue.WithLogger(log),
	)
	if cfg.Configured() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := store.Load(ctx, rs); err != nil {
			log.Error("initial catalogue load failed", zap.Error(err))
		}
		cancel()
	}

	// 5. Identity
	directory := identity.NewSheetDirectory(rs)
	registry := identity.NewRegistry(directory, cfg.ResolveWait, log)
	provider := identity.NewLocalProvider()
	seedAdmin(cfg, provider, directory, log)

	// 6. Media
	var host upload.MediaHost
	if cfg.ImageKit.Configured() {
		host = upload.NewImageKitHost(cfg.ImageKit)
	} else {
		log.Warn("media host not configured, image uploads are disabled")
	}
	gateway := upload.NewGateway(host, log)

	// 7. Dependency Injection (Wiring Layers)
	authService := service.NewAuthService(provider, registry, cfg.ResolveWait, log)
	catalogueService := service.NewCatalogueService(store, rs, gateway, log)

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authService),
		Catalogue: handler.NewCatalogueHandler(catalogueService),
		Taxonomy:  handler.NewTaxonomyHandler(catalogueService),
		System:    handler.NewSystemHandler(catalogueService, wsHub, cfg.RowBackend, cfg.Configured(), cfg.ImageKit),
		Role:      handler.NewRoleHandler(),
	}

	// 8. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   "Catalogue WS v1.0",
		BodyLimit: bodyLimit,
	})

	app.Use(fiberlogger.New())
	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(metrics.Middleware())

	app.Get("/metrics", metrics.Handler())
	handler.RegisterRoutes(app, handlers, authService)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 9. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}
	log.Info("server exited")
}

// seedAdmin creates the bootstrap admin credentials and makes sure the
// directory lists them as admin. Both steps are best effort.
func seedAdmin(cfg config.Config, provider *identity.LocalProvider, directory *identity.SheetDirectory, log *zap.Logger) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	sess, err := provider.Register(ctx, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		log.Warn("failed to seed admin credentials", zap.Error(err))
		return
	}

	_, found, err := directory.Lookup(ctx, sess.Email)
	if err != nil {
		log.Warn("admin seeded without directory entry, role stays default", zap.Error(err))
		return
	}
	if found {
		return
	}
	result, err := directory.Register(ctx, model.DirectoryUser{
		UID:       sess.UID,
		Email:     sess.Email,
		Name:      "Administrator",
		Role:      model.RoleAdmin,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Warn("failed to add admin to directory", zap.Error(err))
		return
	}
	log.Info("admin added to directory", zap.String("email", sess.Email), zap.Bool("confirmed", result.Confirmed))
}
