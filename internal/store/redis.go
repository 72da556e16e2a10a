package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisKey  = "crossword:state"
	maxUpdateRetries = 50
)

type redisStore struct {
	rdb *redis.Client
	key string
}

// OpenRedis connects to url (redis://host:port/db) and pings it.
func OpenRedis(ctx context.Context, url, key string) (Store, error) {
	opt, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedis(rdb, key), nil
}

// NewRedis wraps an existing client. An empty key uses "crossword:state".
func NewRedis(rdb *redis.Client, key string) Store {
	if strings.TrimSpace(key) == "" {
		key = defaultRedisKey
	}
	return &redisStore{rdb: rdb, key: key}
}

func (s *redisStore) Load(ctx context.Context) (*State, error) {
	return s.get(ctx, s.rdb)
}

func (s *redisStore) Save(ctx context.Context, st *State) error {
	raw, err := encode(st)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.key, raw, 0).Err()
}

// Update is an optimistic compare-and-swap: WATCH the key, apply fn, and
// write in MULTI. A concurrent write aborts the transaction and fn reruns
// on fresh state.
func (s *redisStore) Update(ctx context.Context, fn func(*State) error) error {
	txf := func(tx *redis.Tx) error {
		st, err := s.get(ctx, tx)
		if err != nil {
			return err
		}
		if err := fn(st); err != nil {
			return err
		}
		raw, err := encode(st)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, s.key, raw, 0)
			return nil
		})
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.rdb.Watch(ctx, txf, s.key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("update %s: too much contention", s.key)
}

func (s *redisStore) Close() error { return s.rdb.Close() }

// getter is the slice of the client API shared by *redis.Client and *redis.Tx.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *redisStore) get(ctx context.Context, c getter) (*State, error) {
	raw, err := c.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return decode(nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", s.key, err)
	}
	return decode(raw)
}
