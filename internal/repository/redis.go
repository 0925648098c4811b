package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelboard/api/internal/model"
	"github.com/redis/go-redis/v9"
)

const (
	profileIndexKey = "profiles"

	// maxUpdateRetries bounds optimistic retries when a watched profile
	// changes under an Update
	maxUpdateRetries = 10
)

// ErrUpdateConflict is returned when Update keeps losing to concurrent writers
var ErrUpdateConflict = errors.New("profile update conflict")

// RedisRepository stores each profile as JSON under profile:<id> and keeps
// the set of IDs under "profiles".
type RedisRepository struct {
	redis *redis.Client
}

// NewRedisRepository creates a redis-backed repository
func NewRedisRepository(redisClient *redis.Client) *RedisRepository {
	return &RedisRepository{redis: redisClient}
}

func profileKey(id string) string {
	return fmt.Sprintf("profile:%s", id)
}

// GetByID loads one profile
func (r *RedisRepository) GetByID(ctx context.Context, id string) (*model.Profile, error) {
	data, err := r.redis.Get(ctx, profileKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}

	var p model.Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &p, nil
}

// Save writes p and adds it to the index. Last write wins.
func (r *RedisRepository) Save(ctx context.Context, p *model.Profile) (*model.Profile, error) {
	if p == nil || p.ID == "" {
		return nil, errors.New("profile id is required")
	}

	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile: %w", err)
	}

	pipe := r.redis.TxPipeline()
	pipe.Set(ctx, profileKey(p.ID), data, 0)
	pipe.SAdd(ctx, profileIndexKey, p.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return p.Clone(), nil
}

// Update applies fn to the stored profile inside WATCH/MULTI, retrying when
// another client writes the key first.
func (r *RedisRepository) Update(ctx context.Context, id string, fn UpdateFunc) (*model.Profile, error) {
	key := profileKey(id)

	for i := 0; i < maxUpdateRetries; i++ {
		var updated *model.Profile
		err := r.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if errors.Is(err, redis.Nil) {
					return ErrProfileNotFound
				}
				return err
			}

			var p model.Profile
			if err := json.Unmarshal(data, &p); err != nil {
				return fmt.Errorf("failed to unmarshal profile: %w", err)
			}
			if err := fn(&p); err != nil {
				return err
			}

			out, err := json.Marshal(&p)
			if err != nil {
				return fmt.Errorf("failed to marshal profile: %w", err)
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, out, 0)
				return nil
			})
			if err != nil {
				return err
			}
			updated = &p
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, ErrUpdateConflict
}

// List loads every indexed profile, newest first
func (r *RedisRepository) List(ctx context.Context) ([]*model.Profile, error) {
	ids, err := r.redis.SMembers(ctx, profileIndexKey).Result()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []*model.Profile{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileKey(id)
	}

	values, err := r.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*model.Profile, 0, len(values))
	for _, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var p model.Profile
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
		}
		out = append(out, &p)
	}
	sortProfiles(out)
	return out, nil
}
