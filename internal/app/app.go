// Package app wires stores and services for both the HTTP server and shopctl.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"go-shop-inventory/internal/config"
	"go-shop-inventory/internal/repository"
	"go-shop-inventory/internal/repository/memory"
	"go-shop-inventory/internal/service"
	"go-shop-inventory/internal/telemetry"
	"go-shop-inventory/pkg/database"
	"go-shop-inventory/pkg/jwt"
)

type Stores struct {
	Products   repository.ProductRepository
	Orders     repository.OrderRepository
	Categories repository.CategoryRepository
	Users      repository.UserRepository
	History    repository.HistoryRepository

	close func() error
}

// OpenStores connects the backend selected by STORE_DRIVER.
func OpenStores(cfg *config.Config, log *zap.Logger) (*Stores, error) {
	if cfg.StoreDriver == config.DriverMemory {
		log.Warn("using in-memory store; data is lost on exit")
		return MemoryStores(), nil
	}

	db, err := database.ConnectDB(cfg.PostgresDSN(), cfg.IsDevelopment())
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	log.Info("connected to postgres", zap.String("host", cfg.DBHost), zap.String("database", cfg.DBName))

	return &Stores{
		Products:   repository.NewProductRepo(db),
		Orders:     repository.NewOrderRepo(db),
		Categories: repository.NewCategoryRepo(db),
		Users:      repository.NewUserRepo(db),
		History:    repository.NewHistoryRepo(db),
		close:      sqlDB.Close,
	}, nil
}

// MemoryStores returns fresh in-process stores.
func MemoryStores() *Stores {
	products := memory.NewProductStore()
	return &Stores{
		Products:   products,
		Orders:     memory.NewOrderStore(),
		Categories: memory.NewCategoryStore(),
		Users:      memory.NewUserStore(),
		History:    memory.NewHistoryStore(products),
	}
}

func (s *Stores) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

type Services struct {
	Auth      service.AuthService
	Products  service.ProductService
	Inventory service.InventoryService
	Orders    service.OrderService
	Reports   service.ReportService
	Bridge    *service.StockBridge
}

// NewServices builds the service graph. notifier and metrics may be nil.
func NewServices(cfg *config.Config, stores *Stores, notifier service.StockNotifier, metrics *telemetry.InventoryMetrics, log *zap.Logger) *Services {
	tokens := jwt.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	inventory := service.NewInventoryService(stores.Products, notifier, metrics, log)
	bridge := service.NewStockBridge(inventory, metrics, log)

	return &Services{
		Auth:      service.NewAuthService(stores.Users, tokens, log),
		Products:  service.NewProductService(stores.Products, stores.Categories, notifier, log),
		Inventory: inventory,
		Orders:    service.NewOrderService(stores.Orders, stores.Products, bridge, log),
		Reports:   service.NewReportService(stores.Products, stores.History, cfg.Location()),
		Bridge:    bridge,
	}
}
