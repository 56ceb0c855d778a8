package storage

import (
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/vango-dev/composables/internal/errors"
	"github.com/vango-dev/composables/pkg/opt"
)

// DefaultBoltBucket is the bucket used when BoltOptions.Bucket is empty.
const DefaultBoltBucket = "storage"

// BoltOptions configures OpenBolt.
type BoltOptions struct {
	// Bucket holds the keys. Several stores can share one file with
	// different buckets, e.g. "local" and "session".
	Bucket string

	// Timeout bounds how long Open waits for the file lock.
	Timeout time.Duration
}

// Bolt is a Storage persisted in a bbolt database file.
type Bolt struct {
	db     *bolt.DB
	bucket []byte
	owned  bool
}

// OpenBolt opens (creating if needed) the database at path.
// The returned store owns the database and closes it on Close.
func OpenBolt(path string, opts BoltOptions) (*Bolt, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = time.Second
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: timeout})
	if err != nil {
		return nil, errors.New("E202").WithDetailf("open %s", path).Wrap(err)
	}
	b, err := NewBolt(db, opts.Bucket)
	if err != nil {
		db.Close()
		return nil, err
	}
	b.owned = true
	return b, nil
}

// NewBolt uses bucket of an already open database. The caller keeps
// ownership of db.
func NewBolt(db *bolt.DB, bucket string) (*Bolt, error) {
	if bucket == "" {
		bucket = DefaultBoltBucket
	}
	b := &Bolt{db: db, bucket: []byte(bucket)}
	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(b.bucket)
		return err
	})
	if err != nil {
		return nil, b.fail("create bucket", err)
	}
	return b, nil
}

func (b *Bolt) fail(op string, err error) error {
	return errors.New("E202").WithDetailf("bolt %s %s", op, b.bucket).Wrap(err)
}

// GetItem implements Storage.
func (b *Bolt) GetItem(key string) (opt.Value[string], error) {
	value := opt.Null[string]()
	err := b.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(b.bucket).Get([]byte(key)); v != nil {
			value = opt.Of(string(v))
		}
		return nil
	})
	if err != nil {
		return opt.Null[string](), b.fail("get", err)
	}
	return value, nil
}

// SetItem implements Storage.
func (b *Bolt) SetItem(key, value string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return b.fail("put", err)
	}
	return nil
}

// RemoveItem implements Storage.
func (b *Bolt) RemoveItem(key string) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(b.bucket).Delete([]byte(key))
	})
	if err != nil {
		return b.fail("delete", err)
	}
	return nil
}

// Clear implements Storage by recreating the bucket.
func (b *Bolt) Clear() error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(b.bucket); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		_, err := tx.CreateBucket(b.bucket)
		return err
	})
	if err != nil {
		return b.fail("clear", err)
	}
	return nil
}

// Keys implements Storage. Keys are in byte order.
func (b *Bolt) Keys() ([]string, error) {
	var keys []string
	err := b.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(b.bucket).Cursor()
		for k, _ := c.First(); k != nil; k, _ = c.Next() {
			keys = append(keys, string(k))
		}
		return nil
	})
	if err != nil {
		return nil, b.fail("keys", err)
	}
	return keys, nil
}

// Close closes the database if the store opened it.
func (b *Bolt) Close() error {
	if !b.owned {
		return nil
	}
	return b.db.Close()
}
