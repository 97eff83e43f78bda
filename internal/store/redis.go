package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/segment-research/internal/model"
)

const (
	runKeyPrefix     = "segment:run:"
	runIndexKey      = "segment:runs"
	contextKeyPrefix = "segment:context:"
)

// RedisStore implements Store on Redis. Runs are JSON documents indexed
// by a sorted set scored by creation time.
type RedisStore struct {
	client *redis.Client
}

// NewRedis connects to the Redis server at addr.
func NewRedis(addr, password string, db int) *RedisStore {
	return NewRedisFromClient(redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}))
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Migrate verifies connectivity; Redis needs no schema.
func (s *RedisStore) Migrate(ctx context.Context) error {
	return eris.Wrap(s.client.Ping(ctx).Err(), "redis: ping")
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) CreateRun(ctx context.Context, url string) (*model.Run, error) {
	now := time.Now().UTC()
	run := &model.Run{
		ID:        uuid.New().String(),
		URL:       url,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.putRun(ctx, run); err != nil {
		return nil, err
	}
	err := s.client.ZAdd(ctx, runIndexKey, redis.Z{Score: float64(now.UnixNano()), Member: run.ID}).Err()
	if err != nil {
		return nil, eris.Wrap(err, "redis: index run")
	}
	return run, nil
}

func (s *RedisStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	return s.updateRun(ctx, runID, func(r *model.Run) {
		r.Status = status
	})
}

func (s *RedisStore) FailRun(ctx context.Context, runID string, reason string) error {
	return s.updateRun(ctx, runID, func(r *model.Run) {
		r.Status = model.RunStatusFailed
		r.Error = reason
	})
}

func (s *RedisStore) UpdateRunResult(ctx context.Context, runID string, result *model.RunResult) error {
	return s.updateRun(ctx, runID, func(r *model.Run) {
		r.Status = model.RunStatusComplete
		r.Result = result
	})
}

func (s *RedisStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	raw, err := s.client.Get(ctx, runKeyPrefix+runID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "redis: get run %s", runID)
	}
	var r model.Run
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, eris.Wrap(err, "redis: unmarshal run")
	}
	return &r, nil
}

// ListRuns walks the index newest first. Status and URL filters are
// applied after loading, so a filtered page may hold fewer than Limit runs.
func (s *RedisStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	start := int64(filter.Offset)
	stop := start + int64(limitOrDefault(filter.Limit)) - 1
	ids, err := s.client.ZRevRange(ctx, runIndexKey, start, stop).Result()
	if err != nil {
		return nil, eris.Wrap(err, "redis: list runs")
	}

	var runs []model.Run
	for _, id := range ids {
		r, err := s.GetRun(ctx, id)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.URL != "" && r.URL != filter.URL {
			continue
		}
		runs = append(runs, *r)
	}
	return runs, nil
}

func (s *RedisStore) GetCachedContext(ctx context.Context, domain string) (*model.CompanyContext, error) {
	raw, err := s.client.Get(ctx, contextKeyPrefix+domain).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "redis: get cached context")
	}
	var cc model.CompanyContext
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, eris.Wrap(err, "redis: unmarshal cached context")
	}
	return &cc, nil
}

func (s *RedisStore) SetCachedContext(ctx context.Context, domain string, cc model.CompanyContext, ttl time.Duration) error {
	raw, err := json.Marshal(cc)
	if err != nil {
		return eris.Wrap(err, "redis: marshal context")
	}
	return eris.Wrap(s.client.Set(ctx, contextKeyPrefix+domain, raw, ttl).Err(), "redis: set cached context")
}

func (s *RedisStore) updateRun(ctx context.Context, runID string, mutate func(*model.Run)) error {
	r, err := s.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return eris.Wrapf(ErrNotFound, "run %s", runID)
		}
		return err
	}
	mutate(r)
	r.UpdatedAt = time.Now().UTC()
	return s.putRun(ctx, r)
}

func (s *RedisStore) putRun(ctx context.Context, r *model.Run) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return eris.Wrap(err, "redis: marshal run")
	}
	return eris.Wrapf(s.client.Set(ctx, runKeyPrefix+r.ID, raw, 0).Err(), "redis: put run %s", r.ID)
}
