// Package badger はクライアント設定を BadgerDB に永続化します。
package badger

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/ogurasousui/staff-directory/internal/frontend"
)

const keyPrefix = "prefs/"

// Config は保存先の設定です。
type Config struct {
	Path     string
	InMemory bool
	Logger   *slog.Logger
}

// InMemoryConfig はプロセス内だけで保持する設定を返します。
func InMemoryConfig() Config {
	return Config{InMemory: true}
}

// Store は frontend.Preferences の BadgerDB 実装です。
type Store struct {
	db *badger.DB
}

var _ frontend.Preferences = (*Store)(nil)

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...any) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open は設定に従って Store を開きます。
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent preferences")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create preferences directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path).WithSyncWrites(true)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open preferences: %w", err)
	}
	return &Store{db: db}, nil
}

// Get はキーの値を返します。未保存なら frontend.ErrPreferenceNotFound です。
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefix + key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			value = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", frontend.ErrPreferenceNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get preference %s: %w", key, err)
	}
	return value, nil
}

// Set はキーに値を保存します。
func (s *Store) Set(key, value string) error {
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyPrefix+key), []byte(value))
	}); err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	return nil
}

// Close はデータベースを閉じます。
func (s *Store) Close() error {
	return s.db.Close()
}
