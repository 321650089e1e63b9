package config

import (
	"os"
	"strconv"
)

const (
	ServiceName = "orderdesk"
	CompanyName = "ACME"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMySQL  = "mysql"
)

type Config struct {
	HTTPAddr string

	// LedgerBackend selects the inventory ledger: "memory" (default) or
	// "redis". StoreBackend selects the order store: "memory" (default)
	// or "mysql".
	LedgerBackend string
	StoreBackend  string

	RedisAddr string
	MySQLDSN  string

	// RabbitURL enables the RabbitMQ notification publisher; empty means
	// notifications go to the log.
	RabbitURL string

	NotifyWorkers   int
	NotifyQueueSize int

	// SeedSampleData loads the demo stock and orders on startup.
	SeedSampleData bool
}

func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		LedgerBackend:   getenv("LEDGER_BACKEND", BackendMemory),
		StoreBackend:    getenv("STORE_BACKEND", BackendMemory),
		RedisAddr:       getenv("REDIS_ADDR", "localhost:6379"),
		// clientFoundRows makes RowsAffected count matched rows, so a
		// no-op update is not mistaken for a missing order.
		MySQLDSN:        getenv("MYSQL_DSN", "root:root@tcp(localhost:3306)/orderdesk?parseTime=true&clientFoundRows=true"),
		RabbitURL:       os.Getenv("RABBITMQ_URL"),
		NotifyWorkers:   getenvInt("NOTIFY_WORKERS", 4),
		NotifyQueueSize: getenvInt("NOTIFY_QUEUE_SIZE", 1000),
		SeedSampleData:  getenvBool("SEED_SAMPLE_DATA", true),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
