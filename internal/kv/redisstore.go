package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a Store backed by go-redis/v9, grounded in
// Byabasaija-playpool's idle worker (internal/game/idle_worker.go), the
// one example in the pack that drives Redis directly for background
// game-state sweeps. Each key holds a single JSON envelope {value,
// version} so Get/Put/Delete are single-key operations; Put uses
// WATCH/MULTI for the compare-and-swap expectedVersion check, since a
// plain SET cannot express "only if the current version is N".
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

type envelope struct {
	Value   []byte `json:"value"`
	Version int64  `json:"version"`
}

// NewRedisStore wraps an already-configured *redis.Client. ttl, if
// non-zero, is applied to every key written (useful for the stale pending
// game sweep in spec.md §4.1 getOpenGames, belt-and-suspenders alongside
// the explicit delete).
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) Get(ctx context.Context, key string) (Entry, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("kv/redis: get %s: %w", key, err)
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Entry{}, fmt.Errorf("kv/redis: decode %s: %w", key, err)
	}
	return Entry{Value: env.Value, Version: env.Version}, nil
}

func (r *RedisStore) Put(ctx context.Context, key string, value []byte, expectedVersion *int64, newVersion int64) (int64, error) {
	var storedVersion int64

	txf := func(tx *redis.Tx) error {
		actual := int64(0)
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
			// key absent, actual stays 0
		case err != nil:
			return fmt.Errorf("kv/redis: watch-get %s: %w", key, err)
		default:
			var env envelope
			if err := json.Unmarshal(raw, &env); err != nil {
				return fmt.Errorf("kv/redis: decode %s: %w", key, err)
			}
			actual = env.Version
		}

		if expectedVersion != nil && actual != *expectedVersion {
			return ErrVersionMismatch
		}

		storedVersion = newVersion
		if storedVersion <= actual {
			storedVersion = actual + 1
		}
		buf, err := json.Marshal(envelope{Value: value, Version: storedVersion})
		if err != nil {
			return fmt.Errorf("kv/redis: encode %s: %w", key, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, buf, r.ttl)
			return nil
		})
		return err
	}

	err := r.client.Watch(ctx, txf, key)
	if err != nil {
		if err == ErrVersionMismatch {
			return 0, ErrVersionMismatch
		}
		return 0, fmt.Errorf("kv/redis: put %s: %w", key, err)
	}
	return storedVersion, nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("kv/redis: delete %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("kv/redis: scan %s*: %w", prefix, err)
	}
	return keys, nil
}
