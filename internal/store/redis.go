package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const recordTTL = 7 * 24 * time.Hour

// RedisStore keeps records as JSON under dataset:<id>, with a per-owner set
// of ids under datasets:<owner>.
type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{redis: redisClient}
}

func datasetKey(id string) string { return fmt.Sprintf("dataset:%s", id) }
func ownerKey(owner string) string { return fmt.Sprintf("datasets:%s", owner) }

func (s *RedisStore) Create(ctx context.Context, d *Dataset) error {
	data, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}

	ok, err := s.redis.SetNX(ctx, datasetKey(d.ID), data, recordTTL).Result()
	if err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}
	if !ok {
		return fmt.Errorf("dataset %s already exists", d.ID)
	}
	if err := s.redis.SAdd(ctx, ownerKey(d.Owner), d.ID).Err(); err != nil {
		return fmt.Errorf("failed to index dataset: %w", err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Dataset, error) {
	data, err := s.redis.Get(ctx, datasetKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return unmarshalDataset(data)
}

// Update runs fn inside an optimistic transaction and retries when another
// writer got there first.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(d *Dataset) error) (*Dataset, error) {
	key := datasetKey(id)
	var result *Dataset

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrNotFound
			}
			return err
		}
		d, err := unmarshalDataset(data)
		if err != nil {
			return err
		}
		if err := fn(d); err != nil {
			return err
		}
		d.UpdatedAt = time.Now().UTC()

		out, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to marshal dataset: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, recordTTL)
			return nil
		})
		if err == nil {
			result = d
		}
		return err
	}

	for attempt := 0; attempt < 5; attempt++ {
		err := s.redis.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("failed to update dataset %s: too much contention", id)
}

func (s *RedisStore) List(ctx context.Context, owner string) ([]*Dataset, error) {
	ids, err := s.redis.SMembers(ctx, ownerKey(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list datasets: %w", err)
	}

	out := make([]*Dataset, 0, len(ids))
	for _, id := range ids {
		d, err := s.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			// expired record, drop it from the index
			s.redis.SRem(ctx, ownerKey(owner), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	sortByCreation(out)
	return out, nil
}
