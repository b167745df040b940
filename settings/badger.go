package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const badgerPrefix = "settings/"

// BadgerConfig selects an on-disk or in-memory Badger database.
type BadgerConfig struct {
	Path     string `yaml:"path" toml:"path" mapstructure:"path"`
	InMemory bool   `yaml:"in_memory" toml:"in_memory" mapstructure:"in_memory"`
}

// BadgerStore keeps options in an embedded Badger database. Update runs in an
// optimistic transaction and is retried on conflict.
type BadgerStore struct {
	db         *badger.DB
	maxRetries int
	local      localFormatters
}

func OpenBadger(cfg BadgerConfig) (*BadgerStore, error) {
	var opts badger.Options
	switch {
	case cfg.InMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	case cfg.Path != "":
		opts = badger.DefaultOptions(cfg.Path)
	default:
		return nil, fmt.Errorf("%w: badger", ErrMissingPath)
	}
	db, err := badger.Open(opts.WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("settings: open badger: %w", err)
	}
	return &BadgerStore{db: db, maxRetries: 16}, nil
}

func badgerKey(name string) []byte { return []byte(badgerPrefix + name) }

func (s *BadgerStore) read(txn *badger.Txn, name string) (Options, bool, error) {
	item, err := txn.Get(badgerKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Options{}, false, nil
	}
	if err != nil {
		return Options{}, false, fmt.Errorf("settings: badger get %q: %w", name, err)
	}
	b, err := item.ValueCopy(nil)
	if err != nil {
		return Options{}, false, fmt.Errorf("settings: badger read %q: %w", name, err)
	}
	o, err := s.local.decode(name, b)
	if err != nil {
		return Options{}, false, err
	}
	return o, true, nil
}

func (s *BadgerStore) Get(_ context.Context, name string) (o Options, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		o, ok, err = s.read(txn, name)
		return err
	})
	return o, ok, err
}

func (s *BadgerStore) Put(_ context.Context, name string, o Options) error {
	b, err := encode(o)
	if err != nil {
		return err
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(name), b)
	}); err != nil {
		return fmt.Errorf("settings: badger put %q: %w", name, err)
	}
	s.local.commit(name, o)
	return nil
}

func (s *BadgerStore) Update(ctx context.Context, name string, fn func(prev Options) Options) (Options, error) {
	for i := 0; i < s.maxRetries; i++ {
		if err := ctx.Err(); err != nil {
			return Options{}, err
		}
		var next Options
		err := s.db.Update(func(txn *badger.Txn) error {
			prev, _, err := s.read(txn, name)
			if err != nil {
				return err
			}
			next = fn(prev)
			b, err := encode(next)
			if err != nil {
				return err
			}
			return txn.Set(badgerKey(name), b)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return Options{}, err
		}
		s.local.commit(name, next)
		return next, nil
	}
	return Options{}, fmt.Errorf("%w: %q", ErrConflict, name)
}

func (s *BadgerStore) Delete(_ context.Context, name string) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(name))
	}); err != nil {
		return fmt.Errorf("settings: badger delete %q: %w", name, err)
	}
	s.local.forget(name)
	return nil
}

func (s *BadgerStore) Close() error { return s.db.Close() }
