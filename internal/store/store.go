// Package store provides the Badger-backed document store for the kirjasto catalog.
package store

import (
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/kirjastoapp/kirjasto-server/internal/domain"
)

// Store wraps a Badger database instance.
//
// Each entity type lives under its own key prefix. Uniqueness of author
// names and usernames is enforced by unique secondary indexes inside a
// single Badger transaction, so two concurrent creates for the same name
// cannot both succeed.
type Store struct {
	db     *badger.DB
	logger *slog.Logger

	authors *Entity[domain.Author]
	books   *Entity[domain.Book]
	users   *Entity[domain.User]
}

// New creates a new Store instance with the given database path.
func New(path string, logger *slog.Logger) (*Store, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil            // Disable Badger's internal logging
	opts.SyncWrites = true       // Ensure writes are synced to disk to prevent corruption on crashes
	opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Store{
		db:     db,
		logger: logger,
	}

	s.authors = NewEntity[domain.Author](s, "author:").
		WithUniqueIndex("name", func(a *domain.Author) string { return a.Name })
	s.books = NewEntity[domain.Book](s, "book:").
		WithListIndex("author", func(b *domain.Book) string { return b.AuthorID })
	s.users = NewEntity[domain.User](s, "user:").
		WithUniqueIndex("username", func(u *domain.User) string { return u.Username })

	logger.Info("badger database opened", "path", path)

	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
