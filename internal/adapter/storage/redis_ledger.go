package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
)

const stockKeyPrefix = "stock:"

// reserveStockScript folds the insufficiency check and the decrement into a
// single atomic step. Returns {1, remaining} on success, {0, current} when
// stock does not cover the request.
var reserveStockScript = redis.NewScript(`
local key = KEYS[1]
local qty = tonumber(ARGV[1])

local current = tonumber(redis.call('GET', key) or '0')
if current < qty then
	return {0, current}
end

local remaining = current - qty
if remaining == 0 then
	redis.call('DEL', key)
else
	redis.call('DECRBY', key, qty)
end

return {1, remaining}
`)

// removeStockScript decrements floored at 0, dropping the key at 0.
var removeStockScript = redis.NewScript(`
local key = KEYS[1]
local qty = tonumber(ARGV[1])

local current = tonumber(redis.call('GET', key) or '0')
local remaining = current - qty
if remaining <= 0 then
	redis.call('DEL', key)
	return 0
end

redis.call('DECRBY', key, qty)
return remaining
`)

// RedisLedger is an InventoryLedger backed by Redis, for deployments that
// share stock across processes.
type RedisLedger struct {
	client *redis.Client
}

func NewRedisLedger(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func (r *RedisLedger) Quantity(ctx context.Context, sku string) (int, error) {
	qty, err := r.client.Get(ctx, stockKeyPrefix+sku).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get stock: %w", err)
	}
	return qty, nil
}

func (r *RedisLedger) Add(ctx context.Context, sku string, qty int) (int, error) {
	if sku == "" || qty <= 0 {
		return r.Quantity(ctx, sku)
	}
	newQty, err := r.client.IncrBy(ctx, stockKeyPrefix+sku, int64(qty)).Result()
	if err != nil {
		return 0, fmt.Errorf("increment stock: %w", err)
	}
	return int(newQty), nil
}

func (r *RedisLedger) Remove(ctx context.Context, sku string, qty int) (int, error) {
	if sku == "" || qty <= 0 {
		return r.Quantity(ctx, sku)
	}
	remaining, err := removeStockScript.Run(ctx, r.client, []string{stockKeyPrefix + sku}, qty).Int()
	if err != nil {
		return 0, fmt.Errorf("decrement stock: %w", err)
	}
	return remaining, nil
}

func (r *RedisLedger) Set(ctx context.Context, sku string, qty int) (int, error) {
	if sku == "" {
		return 0, nil
	}
	if qty <= 0 {
		if err := r.client.Del(ctx, stockKeyPrefix+sku).Err(); err != nil {
			return 0, fmt.Errorf("delete stock: %w", err)
		}
		return 0, nil
	}
	if err := r.client.Set(ctx, stockKeyPrefix+sku, qty, 0).Err(); err != nil {
		return 0, fmt.Errorf("set stock: %w", err)
	}
	return qty, nil
}

func (r *RedisLedger) Delete(ctx context.Context, sku string) (bool, error) {
	deleted, err := r.client.Del(ctx, stockKeyPrefix+sku).Result()
	if err != nil {
		return false, fmt.Errorf("delete stock: %w", err)
	}
	return deleted > 0, nil
}

func (r *RedisLedger) Reserve(ctx context.Context, sku string, qty int) (int, bool, error) {
	if sku == "" || qty <= 0 {
		current, err := r.Quantity(ctx, sku)
		return current, false, err
	}
	result, err := reserveStockScript.Run(ctx, r.client, []string{stockKeyPrefix + sku}, qty).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("reserve stock: %w", err)
	}
	if len(result) != 2 {
		return 0, false, fmt.Errorf("reserve stock: unexpected script result %v", result)
	}
	return int(result[1]), result[0] == 1, nil
}

func (r *RedisLedger) ListAll(ctx context.Context) (map[string]int, error) {
	snapshot := make(map[string]int)

	iter := r.client.Scan(ctx, 0, stockKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		qty, err := r.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get stock: %w", err)
		}
		n, err := strconv.Atoi(qty)
		if err != nil {
			return nil, fmt.Errorf("parse stock value for %s: %w", key, err)
		}
		if n > 0 {
			snapshot[strings.TrimPrefix(key, stockKeyPrefix)] = n
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan stock keys: %w", err)
	}
	return snapshot, nil
}
