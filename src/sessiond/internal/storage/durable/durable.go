// Package durable implements the durable structured storage layer on top of a bbolt file.
// The process holds at most one handle on the file; it is opened lazily on first access and
// must be closed before any whole-store destructive operation.
package durable

import (
	"context"
	"encoding/json"
	stderr "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/tabvault/sessiond/src/sessiond/entity"
	"github.com/tabvault/sessiond/src/sessiond/internal/errors"
	"github.com/tabvault/sessiond/src/sessiond/internal/fs"
	"github.com/tabvault/sessiond/src/sessiond/internal/storage"
	"github.com/tabvault/sessiond/src/sessiond/model"
	"github.com/uber-go/tally"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	_name = "durable"

	_configKey = "storage.durable"

	_defaultFile        = "sessions.db"
	_defaultOpenTimeout = time.Second
	_defaultBlockedWait = 5 * time.Second
	_lockRetryDelay     = 50 * time.Millisecond
)

var (
	_bucketSessions    = []byte("sessions")
	_bucketPreferences = []byte("preferences")
)

// Module provides the durable layer into the persistence layer group.
var Module = fx.Provide(
	fx.Annotate(
		NewFromConfig,
		fx.As(new(storage.Layer)),
		fx.ResultTags(`group:"layers"`),
	),
)

// Options tunes the durable layer.
type Options struct {
	// Path is the bbolt file location.
	Path string
	// OpenTimeout bounds how long opening the handle waits for a lock held elsewhere.
	OpenTimeout time.Duration
	// BlockedWait bounds how long a whole-store operation waits for other handles to release.
	BlockedWait time.Duration
}

type fileConfig struct {
	Dir           string `yaml:"dir"`
	File          string `yaml:"file"`
	OpenTimeoutMs int    `yaml:"openTimeoutMs"`
	BlockedWaitMs int    `yaml:"blockedWaitMs"`
}

// Params define values to be used by NewFromConfig.
type Params struct {
	fx.In

	Config    config.Provider
	Lifecycle fx.Lifecycle
	Logger    *zap.SugaredLogger
	Stats     tally.Scope
	FS        fs.SessiondFS
}

// Store is the bbolt-backed layer.
type Store struct {
	opts   Options
	logger *zap.SugaredLogger
	stats  tally.Scope

	mu sync.Mutex
	db *bolt.DB
}

// NewFromConfig builds the layer from the "storage.durable" configuration and closes the
// handle when the application stops.
func NewFromConfig(p Params) (*Store, error) {
	var cfg fileConfig
	if err := p.Config.Get(_configKey).Populate(&cfg); err != nil {
		return nil, fmt.Errorf("getting config field %q: %w", _configKey, err)
	}

	dir := cfg.Dir
	if dir == "" {
		cacheDir, err := p.FS.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolving data directory: %w", err)
		}
		dir = filepath.Join(cacheDir, "sessiond")
	}
	if err := p.FS.MkdirAll(dir); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	if cfg.File == "" {
		cfg.File = _defaultFile
	}

	s := New(Options{
		Path:        filepath.Join(dir, cfg.File),
		OpenTimeout: time.Duration(cfg.OpenTimeoutMs) * time.Millisecond,
		BlockedWait: time.Duration(cfg.BlockedWaitMs) * time.Millisecond,
	}, p.Logger, p.Stats)

	p.Lifecycle.Append(fx.Hook{
		OnStop: s.Close,
	})
	return s, nil
}

// New returns a durable layer for the file at opts.Path. No handle is opened until first use.
func New(opts Options, logger *zap.SugaredLogger, stats tally.Scope) *Store {
	if opts.OpenTimeout <= 0 {
		opts.OpenTimeout = _defaultOpenTimeout
	}
	if opts.BlockedWait <= 0 {
		opts.BlockedWait = _defaultBlockedWait
	}
	return &Store{
		opts:   opts,
		logger: logger,
		stats:  stats.SubScope(_name),
	}
}

// Name implements storage.Layer.
func (s *Store) Name() string { return _name }

// Tier implements storage.Layer.
func (s *Store) Tier() storage.Tier { return storage.TierDurable }

// Path returns the location of the backing file.
func (s *Store) Path() string { return s.opts.Path }

// IsOpen reports whether the process currently holds the handle.
func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db != nil
}

// Close releases the handle if it is open.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.stats.Counter("handle_closed").Inc(1)
	if err != nil {
		return fmt.Errorf("closing %s: %w", s.opts.Path, err)
	}
	s.logger.Debugw("durable handle closed", zap.String("path", s.opts.Path))
	return nil
}

// Put stores the record and returns once the transaction is committed.
func (s *Store) Put(ctx context.Context, r *model.Record) error {
	if r == nil {
		return errors.New("can't save nil record")
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding record %q: %w", r.ID, err)
	}
	return s.update("put", func(tx *bolt.Tx) error {
		return tx.Bucket(_bucketSessions).Put([]byte(r.ID), data)
	})
}

// Get returns the record stored under id.
func (s *Store) Get(ctx context.Context, id string) (*model.Record, error) {
	var data []byte
	err := s.view("get", func(tx *bolt.Tx) error {
		v := tx.Bucket(_bucketSessions).Get([]byte(id))
		if v == nil {
			return errors.ErrRecordNotFound
		}
		data = append([]byte{}, v...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var r model.Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decoding record %q: %w", id, err)
	}
	return &r, nil
}

// Delete removes the record. bbolt only returns from Update after the commit is synced, so
// every successful delete is acknowledged as committed.
func (s *Store) Delete(ctx context.Context, id string) (storage.Ack, error) {
	err := s.update("delete", func(tx *bolt.Tx) error {
		b := tx.Bucket(_bucketSessions)
		if b.Get([]byte(id)) == nil {
			return errors.ErrRecordNotFound
		}
		return b.Delete([]byte(id))
	})
	if err != nil && !stderr.Is(err, errors.ErrRecordNotFound) {
		return storage.AckAccepted, err
	}
	return storage.AckCommitted, err
}

// List returns every stored record. Records that fail to decode are skipped and logged.
func (s *Store) List(ctx context.Context) ([]*model.Record, error) {
	var records []*model.Record
	err := s.view("list", func(tx *bolt.Tx) error {
		return tx.Bucket(_bucketSessions).ForEach(func(k, v []byte) error {
			var r model.Record
			if err := json.Unmarshal(v, &r); err != nil {
				s.logger.Warnw("skipping undecodable session record", zap.ByteString("id", k), zap.Error(err))
				return nil
			}
			records = append(records, &r)
			return nil
		})
	})
	return records, err
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	n := 0
	err := s.view("count", func(tx *bolt.Tx) error {
		n = tx.Bucket(_bucketSessions).Stats().KeyN
		return nil
	})
	return n, err
}

// GetPreference implements storage.PreferenceStore.
func (s *Store) GetPreference(ctx context.Context, key string) (entity.Preference, error) {
	var (
		raw     []byte
		present bool
	)
	err := s.view("get_preference", func(tx *bolt.Tx) error {
		v := tx.Bucket(_bucketPreferences).Get([]byte(key))
		if v != nil {
			raw = append([]byte{}, v...)
			present = true
		}
		return nil
	})
	if err != nil {
		return entity.PreferenceUnset, err
	}
	return storage.ParsePreference(key, raw, present)
}

// SetPreference implements storage.PreferenceStore. Storing PreferenceUnset removes the value.
func (s *Store) SetPreference(ctx context.Context, key string, p entity.Preference) error {
	raw, ok := storage.EncodePreference(p)
	return s.update("set_preference", func(tx *bolt.Tx) error {
		b := tx.Bucket(_bucketPreferences)
		if !ok {
			return b.Delete([]byte(key))
		}
		return b.Put([]byte(key), raw)
	})
}

// Wipe removes the backing file. It refuses to run while this process holds the handle, and
// waits at most BlockedWait for any other holder of the file lock before reporting
// BlockedOperationError. A timed out wait is never treated as success.
func (s *Store) Wipe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return &errors.BlockedOperationError{Layer: _name, Op: "wipe"}
	}

	start := time.Now()
	lockCtx, cancel := context.WithTimeout(ctx, s.opts.BlockedWait)
	defer cancel()

	fl := flock.New(s.opts.Path)
	locked, err := fl.TryLockContext(lockCtx, _lockRetryDelay)
	if !locked {
		s.stats.Counter("wipe_blocked").Inc(1)
		s.logger.Warnw("durable wipe blocked", zap.String("path", s.opts.Path), zap.Error(err))
		return &errors.BlockedOperationError{Layer: _name, Op: "wipe", Waited: time.Since(start)}
	}
	defer fl.Close()

	if err := os.Remove(s.opts.Path); err != nil && !os.IsNotExist(err) {
		return &errors.TransientIOError{Layer: _name, Op: "wipe", Err: err}
	}
	s.stats.Counter("wiped").Inc(1)
	s.logger.Infow("durable store wiped", zap.String("path", s.opts.Path))
	return nil
}

func (s *Store) update(op string, fn func(*bolt.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.openLocked()
	if err != nil {
		return err
	}
	if err := db.Update(fn); err != nil {
		return wrapTxErr(op, err)
	}
	return nil
}

func (s *Store) view(op string, fn func(*bolt.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := s.openLocked()
	if err != nil {
		return err
	}
	if err := db.View(fn); err != nil {
		return wrapTxErr(op, err)
	}
	return nil
}

// openLocked opens the handle if needed. s.mu must be held.
func (s *Store) openLocked() (*bolt.DB, error) {
	if s.db != nil {
		return s.db, nil
	}

	db, err := bolt.Open(s.opts.Path, 0o600, &bolt.Options{Timeout: s.opts.OpenTimeout})
	if err != nil {
		return nil, &errors.TransientIOError{Layer: _name, Op: "open", Err: err}
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{_bucketSessions, _bucketPreferences} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, &errors.TransientIOError{Layer: _name, Op: "open", Err: err}
	}

	s.db = db
	s.stats.Counter("handle_opened").Inc(1)
	s.logger.Debugw("durable handle opened", zap.String("path", s.opts.Path))
	return db, nil
}

func wrapTxErr(op string, err error) error {
	if stderr.Is(err, errors.ErrRecordNotFound) {
		return err
	}
	return &errors.TransientIOError{Layer: _name, Op: op, Err: err}
}
