package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "xforward:settings:"

// RedisStore keeps options as JSON strings under prefix+name. Update uses
// WATCH/MULTI and retries when another writer touched the key.
type RedisStore struct {
	rdb        redis.UniversalClient
	prefix     string
	maxRetries int
	local      localFormatters
}

func NewRedisStore(rdb redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{rdb: rdb, prefix: prefix, maxRetries: 16}
}

func (s *RedisStore) key(name string) string { return s.prefix + name }

func (s *RedisStore) Get(ctx context.Context, name string) (Options, bool, error) {
	b, err := s.rdb.Get(ctx, s.key(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Options{}, false, nil
	}
	if err != nil {
		return Options{}, false, fmt.Errorf("settings: redis get %q: %w", name, err)
	}
	o, err := s.local.decode(name, b)
	if err != nil {
		return Options{}, false, err
	}
	return o, true, nil
}

func (s *RedisStore) Put(ctx context.Context, name string, o Options) error {
	b, err := encode(o)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key(name), b, 0).Err(); err != nil {
		return fmt.Errorf("settings: redis set %q: %w", name, err)
	}
	s.local.commit(name, o)
	return nil
}

func (s *RedisStore) Update(ctx context.Context, name string, fn func(prev Options) Options) (Options, error) {
	key := s.key(name)
	var next Options
	txf := func(tx *redis.Tx) error {
		prev := Options{}
		b, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			if prev, err = s.local.decode(name, b); err != nil {
				return err
			}
		}
		next = fn(prev)
		data, err := encode(next)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			return nil
		})
		return err
	}

	for i := 0; i < s.maxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return Options{}, fmt.Errorf("settings: redis update %q: %w", name, err)
		}
		s.local.commit(name, next)
		return next, nil
	}
	return Options{}, fmt.Errorf("%w: redis key %q", ErrConflict, key)
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := s.rdb.Del(ctx, s.key(name)).Err(); err != nil {
		return fmt.Errorf("settings: redis del %q: %w", name, err)
	}
	s.local.forget(name)
	return nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
