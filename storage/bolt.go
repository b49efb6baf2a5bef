package storage

import (
	"context"
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"
)

const fileMode = 0600

// Config configures a persistent KV store.
type Config struct {
	Path       string `yaml:"path" validate:"required"`
	NumRetries uint8  `yaml:"numRetries"`
}

// boltDB is a KVStore backed by a bolt file, one bucket per namespace.
type boltDB struct {
	db     *bolt.DB
	config Config
}

// NewBoltDB returns a KV store persisted at cfg.Path. It must be started before use.
func NewBoltDB(cfg Config) KVStore {
	if cfg.NumRetries == 0 {
		cfg.NumRetries = 3
	}

	return &boltDB{config: cfg}
}

// Start opens the bolt file, creating it if needed.
func (b *boltDB) Start(_ context.Context) error {
	db, err := bolt.Open(b.config.Path, fileMode, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	b.db = db

	return nil
}

// Stop closes the bolt file.
func (b *boltDB) Stop(_ context.Context) error {
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return fmt.Errorf("%w: %w", ErrIO, err)
		}
	}

	return nil
}

func (b *boltDB) Put(namespace string, key, value []byte) (err error) {
	for c := uint8(0); c < b.config.NumRetries; c++ {
		if err = b.db.Update(func(tx *bolt.Tx) error {
			bucket, berr := tx.CreateBucketIfNotExists([]byte(namespace))
			if berr != nil {
				return berr
			}

			return bucket.Put(key, value)
		}); err == nil {
			break
		}
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrIO, err)
	}

	return err
}

func (b *boltDB) Get(namespace string, key []byte) ([]byte, error) {
	var value []byte
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(namespace))
		if bucket == nil {
			return fmt.Errorf("%w: bucket %s", ErrNotExist, namespace)
		}
		v := bucket.Get(key)
		if v == nil {
			return fmt.Errorf("%w: key %x", ErrNotExist, key)
		}
		// bolt values are only valid for the lifetime of the transaction
		value = make([]byte, len(v))
		copy(value, v)

		return nil
	})
	if err == nil {
		return value, nil
	}
	if errors.Is(err, ErrNotExist) {
		return nil, err
	}

	return nil, fmt.Errorf("%w: %w", ErrIO, err)
}

func (b *boltDB) Delete(namespace string, key []byte) (err error) {
	for c := uint8(0); c < b.config.NumRetries; c++ {
		err = b.db.Update(func(tx *bolt.Tx) error {
			bucket := tx.Bucket([]byte(namespace))
			if bucket == nil {
				return nil
			}

			return bucket.Delete(key)
		})
		if err == nil {
			break
		}
	}
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrIO, err)
	}

	return err
}
