package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/modelboard/api/internal/model"
	"github.com/redis/go-redis/v9"
)

// newTestRedis connects to localhost DB 15 and skips when redis is not running.
func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   15,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestRedisRepository_RoundTrip(t *testing.T) {
	rdb := newTestRedis(t)
	r := NewRedisRepository(rdb)
	ctx := context.Background()

	id := uuid.New().String()
	t.Cleanup(func() {
		rdb.Del(ctx, profileKey(id))
		rdb.SRem(ctx, profileIndexKey, id)
	})

	p := &model.Profile{
		ID:          id,
		Bio:         "Hello",
		BioLanguage: "en",
		Translations: model.TranslationSet{
			"pt": {
				Status:   model.TranslationStatusFailed,
				Attempts: 2,
				Error:    &model.TranslationError{Class: model.ErrorClassUnavailable, Message: "timeout"},
			},
		},
	}
	if _, err := r.Save(ctx, p); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := r.GetByID(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	entry := got.Translations["pt"]
	if entry.Attempts != 2 || entry.Error == nil || entry.Error.Class != model.ErrorClassUnavailable {
		t.Fatalf("unexpected entry after round trip: %+v", entry)
	}

	list, err := r.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	found := false
	for _, lp := range list {
		if lp.ID == id {
			found = true
		}
	}
	if !found {
		t.Fatal("saved profile missing from list")
	}
}

func TestRedisRepository_NotFound(t *testing.T) {
	r := NewRedisRepository(newTestRedis(t))
	if _, err := r.GetByID(context.Background(), uuid.New().String()); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("error = %v, want ErrProfileNotFound", err)
	}
}

func TestRedisRepository_UpdateRetriesOnConflict(t *testing.T) {
	rdb := newTestRedis(t)
	r := NewRedisRepository(rdb)
	ctx := context.Background()

	id := uuid.New().String()
	t.Cleanup(func() {
		rdb.Del(ctx, profileKey(id))
		rdb.SRem(ctx, profileIndexKey, id)
	})
	if _, err := r.Save(ctx, &model.Profile{ID: id, Bio: "Hello"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	calls := 0
	got, err := r.Update(ctx, id, func(p *model.Profile) error {
		calls++
		if calls == 1 {
			// a competing writer lands while the key is watched
			if _, err := r.Save(ctx, &model.Profile{ID: id, Bio: "Edited"}); err != nil {
				t.Errorf("competing save: %v", err)
			}
		}
		p.Name = "updated"
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if calls != 2 {
		t.Fatalf("fn calls = %d, want 2", calls)
	}
	if got.Bio != "Edited" || got.Name != "updated" {
		t.Fatalf("profile = %+v, want competing bio kept", got)
	}

	abort := errors.New("abort")
	if _, err := r.Update(ctx, id, func(*model.Profile) error { return abort }); !errors.Is(err, abort) {
		t.Fatalf("err = %v, want abort", err)
	}
	if _, err := r.Update(ctx, uuid.New().String(), func(*model.Profile) error { return nil }); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("err = %v, want ErrProfileNotFound", err)
	}
}
