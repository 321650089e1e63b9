// Load generator: hammers CreateOrder with concurrent requests against a
// ledger seeded below the request count and verifies that successes never
// exceed the seeded stock.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/acme/orderdesk/internal/adapter/notify"
	"github.com/acme/orderdesk/internal/adapter/storage"
	"github.com/acme/orderdesk/internal/core/service"
)

const (
	sku           = "stress-shirt"
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	ledger := storage.NewMemoryLedger()
	orders := storage.NewMemoryStore()
	dispatcher := notify.NewDispatcher(notify.NewLogNotifier(zap.NewNop()), 2, totalRequests, logger)
	defer dispatcher.Close()

	if _, err := ledger.Set(ctx, sku, initialStock); err != nil {
		log.Fatalf("failed to seed stock: %v", err)
	}

	fulfillment := service.NewFulfillmentService(ledger, orders, dispatcher, logger)

	var successCount atomic.Int32
	var soldOutCount atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	price := decimal.NewFromFloat(19.99)
	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := fulfillment.CreateOrder(ctx, sku, 1, price)
			if err == nil {
				successCount.Add(1)
				return
			}
			var inventoryErr *service.InsufficientInventoryError
			if errors.As(err, &inventoryErr) {
				soldOutCount.Add(1)
				return
			}
			log.Printf("unexpected error: %v", err)
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	remaining, _ := ledger.Quantity(ctx, sku)
	persisted, _ := orders.ListAll(ctx)

	fmt.Printf("requests:  %d\n", totalRequests)
	fmt.Printf("succeeded: %d\n", successCount.Load())
	fmt.Printf("sold out:  %d\n", soldOutCount.Load())
	fmt.Printf("remaining: %d\n", remaining)
	fmt.Printf("orders:    %d\n", len(persisted))
	fmt.Printf("elapsed:   %v\n", elapsed)

	if int(successCount.Load()) != initialStock || remaining != 0 {
		log.Fatalf("oversell detected: %d successes for %d units", successCount.Load(), initialStock)
	}
}
