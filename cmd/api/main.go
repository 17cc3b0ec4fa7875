package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-shop-inventory/internal/app"
	"go-shop-inventory/internal/config"
	"go-shop-inventory/internal/handler"
	"go-shop-inventory/internal/logger"
	"go-shop-inventory/internal/telemetry"
	"go-shop-inventory/internal/ws"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd(serve).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd resolves the config file from --config or SHOP_CONFIG and hands it to run.
func newRootCmd(run func(configPath string) error) *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "api",
		Short:         "Serve the shop inventory HTTP API",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(v.GetString("config"))
		},
	}
	root.Flags().String("config", "", "optional config file (yaml, json, toml or env)")
	_ = v.BindPFlag("config", root.Flags().Lookup("config"))
	v.SetEnvPrefix("SHOP")
	v.AutomaticEnv()
	return root
}

func serve(configPath string) error {
	// 1. Load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	zlog, err := logger.New(cfg.LogLevel, cfg.Environment)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer zlog.Sync() //nolint:errcheck

	ctx := context.Background()
	tel, err := telemetry.Setup(ctx, cfg.MetricsExporter, zlog)
	if err != nil {
		return fmt.Errorf("telemetry setup: %w", err)
	}
	metrics, err := telemetry.NewInventoryMetrics()
	if err != nil {
		return fmt.Errorf("registering metrics: %w", err)
	}

	// 2. Setup store
	stores, err := app.OpenStores(cfg, zlog)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}

	// 3. Setup WebSocket Hub
	wsHub := ws.NewHub(zlog.Named("ws"))
	go wsHub.Run()

	// 4. Dependency Injection (Wiring Layers)
	svc := app.NewServices(cfg, stores, wsHub, metrics, zlog)
	if err := svc.Auth.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		zlog.Warn("failed to seed admin user", zap.Error(err))
	}

	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(svc.Auth),
		Product:   handler.NewProductHandler(svc.Products),
		Inventory: handler.NewInventoryHandler(svc.Inventory, svc.Reports, cfg.Location()),
		Dashboard: handler.NewDashboardHandler(svc.Reports),
		Order:     handler.NewOrderHandler(svc.Orders),
		Health: func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{
				"status":    "ok",
				"store":     cfg.StoreDriver,
				"wsClients": wsHub.ClientCount(),
			})
		},
	}

	// 5. Setup Fiber
	server := fiber.New(fiber.Config{
		AppName: "Shop Inventory v1.0",
	})

	// Middleware
	server.Use(fiberlogger.New())
	server.Use(recover.New())
	server.Use(cors.New())
	server.Use(metrics.Middleware())

	// 6. Routes
	handler.RegisterRoutes(server, handlers, svc.Auth)
	if h := tel.Handler(); h != nil {
		server.Get("/metrics", adaptor.HTTPHandler(h))
	}

	// WebSocket Route
	server.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	server.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 7. Graceful Shutdown
	go func() {
		zlog.Info("listening", zap.String("port", cfg.Port), zap.String("store", cfg.StoreDriver))
		if err := server.Listen(":" + cfg.Port); err != nil {
			zlog.Panic("server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}
	wsHub.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(shutdownCtx); err != nil {
		zlog.Warn("flushing metrics failed", zap.Error(err))
	}
	if err := stores.Close(); err != nil {
		zlog.Warn("closing store failed", zap.Error(err))
	}
	zlog.Info("server exited")
	return nil
}
