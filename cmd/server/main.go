package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/acme/orderdesk/internal/adapter/classify"
	"github.com/acme/orderdesk/internal/adapter/handler"
	"github.com/acme/orderdesk/internal/adapter/notify"
	"github.com/acme/orderdesk/internal/adapter/respond"
	"github.com/acme/orderdesk/internal/adapter/storage"
	"github.com/acme/orderdesk/internal/config"
	"github.com/acme/orderdesk/internal/core/domain"
	"github.com/acme/orderdesk/internal/core/service"
	"github.com/acme/orderdesk/internal/port"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Inventory ledger
	var ledger port.InventoryLedger
	var rdb *redis.Client
	switch cfg.LedgerBackend {
	case config.BackendRedis:
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, PoolSize: 100})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		ledger = storage.NewRedisLedger(rdb)
		logger.Info("using redis ledger", zap.String("addr", cfg.RedisAddr))
	default:
		ledger = storage.NewMemoryLedger()
		logger.Info("using in-memory ledger")
	}

	// Order store
	var orders port.OrderStore
	var db *sql.DB
	switch cfg.StoreBackend {
	case config.BackendMySQL:
		db, err = sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			logger.Fatal("failed to connect mysql", zap.Error(err))
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			logger.Fatal("failed to ping mysql", zap.Error(err))
		}
		orders = storage.NewMySQLStore(db)
		logger.Info("using mysql order store")
	default:
		orders = storage.NewMemoryStore()
		logger.Info("using in-memory order store")
	}

	// Notification delivery
	var sink port.Notifier
	var rabbit *notify.RabbitMQNotifier
	if cfg.RabbitURL != "" {
		rabbit, err = notify.NewRabbitMQNotifier(cfg.RabbitURL)
		if err != nil {
			logger.Fatal("failed to connect rabbitmq", zap.Error(err))
		}
		sink = rabbit
		logger.Info("publishing notifications to rabbitmq")
	} else {
		sink = notify.NewLogNotifier(logger)
	}
	dispatcher := notify.NewDispatcher(sink, cfg.NotifyWorkers, cfg.NotifyQueueSize, logger)

	if cfg.SeedSampleData {
		seedSampleData(ctx, ledger, orders, logger)
	}

	fulfillment := service.NewFulfillmentService(ledger, orders, dispatcher, logger)
	support := service.NewSupportService(
		fulfillment,
		ledger,
		orders,
		classify.NewKeywordClassifier(),
		respond.NewTemplateResponder(config.CompanyName),
		logger,
	)

	router := mux.NewRouter()
	handler.NewHTTPHandler(fulfillment, support, ledger).Register(router)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	logger.Info("HTTP server stopped")

	// Drain pending notifications before closing connections.
	dispatcher.Close()
	logger.Info("notification dispatcher stopped")

	if rabbit != nil {
		rabbit.Close()
	}
	if rdb != nil {
		rdb.Close()
	}
	if db != nil {
		db.Close()
	}
	logger.Info("connections closed")
}

// seedSampleData loads the demo catalog: a few shirt SKUs and two open
// orders. Zero-stock SKUs are intentionally absent from the ledger.
func seedSampleData(ctx context.Context, ledger port.InventoryLedger, orders port.OrderStore, logger *zap.Logger) {
	stock := map[string]int{
		"shirt-m":  6,
		"shirt-xl": 2,
	}
	for sku, qty := range stock {
		if _, err := ledger.Set(ctx, sku, qty); err != nil {
			logger.Warn("failed to seed stock", zap.String("sku", sku), zap.Error(err))
		}
	}

	now := time.Now()
	seedOrders := []domain.Order{
		{ID: "123", SKU: "shirt-l", Quantity: 1, UnitPrice: decimal.NewFromInt(1), CreatedAt: now, UpdatedAt: now},
		{ID: "456", SKU: "shirt-m", Quantity: 1, UnitPrice: decimal.NewFromInt(10), CreatedAt: now, UpdatedAt: now},
	}
	for _, order := range seedOrders {
		if err := orders.Create(ctx, order); err != nil {
			logger.Warn("failed to seed order", zap.String("order_id", order.ID), zap.Error(err))
		}
	}
	logger.Info("seeded sample data", zap.Int("skus", len(stock)), zap.Int("orders", len(seedOrders)))
}
