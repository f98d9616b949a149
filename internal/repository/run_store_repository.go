package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/noah-isme/defense-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/defense-scheduler-api/pkg/errors"
)

const runKeyPrefix = "solver:run:"

// RunStoreRepository keeps solver run documents in Redis under a TTL so
// results stay reviewable without a permanent table.
type RunStoreRepository struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRunStoreRepository constructs a run store.
func NewRunStoreRepository(client *redis.Client, logger *zap.Logger) *RunStoreRepository {
	return &RunStoreRepository{client: client, logger: logger}
}

// Save marshals and stores the run document, refreshing its TTL.
func (r *RunStoreRepository) Save(ctx context.Context, run *models.SolverRun, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}

	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", run.ID, err)
	}

	if err := r.client.Set(ctx, runKeyPrefix+run.ID, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set run %s: %w", run.ID, err)
	}

	return nil
}

// Get retrieves a run document by id.
func (r *RunStoreRepository) Get(ctx context.Context, id string) (*models.SolverRun, error) {
	if r.client == nil {
		return nil, appErrors.ErrCacheMiss
	}

	raw, err := r.client.Get(ctx, runKeyPrefix+id).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get run %s: %w", id, err)
	}

	var run models.SolverRun
	if err := json.Unmarshal(raw, &run); err != nil {
		return nil, fmt.Errorf("unmarshal run %s: %w", id, err)
	}

	return &run, nil
}

// ListIDs scans the store for known run ids.
func (r *RunStoreRepository) ListIDs(ctx context.Context) ([]string, error) {
	if r.client == nil {
		return nil, nil
	}

	var ids []string
	iter := r.client.Scan(ctx, 0, runKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if len(key) > len(runKeyPrefix) {
			ids = append(ids, key[len(runKeyPrefix):])
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan runs: %w", err)
	}

	return ids, nil
}

// Delete removes a run document.
func (r *RunStoreRepository) Delete(ctx context.Context, id string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, runKeyPrefix+id).Err(); err != nil {
		return fmt.Errorf("redis delete run %s: %w", id, err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *RunStoreRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}
