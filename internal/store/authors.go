package store

import (
	"context"

	"github.com/kirjastoapp/kirjasto-server/internal/domain"
	domainerrors "github.com/kirjastoapp/kirjasto-server/internal/errors"
)

// CreateAuthor persists a new author.
// Fails with a conflict error when the name is already taken; callers that
// race on first-time creation should re-fetch by name and use the winner.
func (s *Store) CreateAuthor(ctx context.Context, author *domain.Author) error {
	return s.authors.Create(ctx, author.ID, author)
}

// GetAuthor retrieves an author by ID.
func (s *Store) GetAuthor(ctx context.Context, id string) (*domain.Author, error) {
	return s.authors.Get(ctx, id)
}

// GetAuthorByName retrieves an author by exact name.
func (s *Store) GetAuthorByName(ctx context.Context, name string) (*domain.Author, error) {
	return s.authors.GetByIndex(ctx, "name", name)
}

// GetAuthorsByIDs retrieves many authors at once, keyed by ID.
// Missing IDs are absent from the result.
func (s *Store) GetAuthorsByIDs(ctx context.Context, ids []string) (map[string]*domain.Author, error) {
	authors := make(map[string]*domain.Author, len(ids))
	for _, id := range ids {
		if _, ok := authors[id]; ok {
			continue
		}
		author, err := s.authors.Get(ctx, id)
		if err != nil {
			if domainerrors.Is(err, domainerrors.ErrNotFound) {
				continue
			}
			return nil, err
		}
		authors[id] = author
	}
	return authors, nil
}

// ListAuthors returns all authors in the store's natural order.
func (s *Store) ListAuthors(ctx context.Context) ([]*domain.Author, error) {
	authors, err := s.authors.List(ctx)
	if err != nil {
		return nil, err
	}
	sortByCreation(authors, func(a *domain.Author) (int64, string) {
		return a.CreatedAt.UnixNano(), a.ID
	})
	return authors, nil
}

// UpdateAuthor persists changes to an existing author.
func (s *Store) UpdateAuthor(ctx context.Context, author *domain.Author) error {
	return s.authors.Update(ctx, author.ID, author)
}

// CountAuthors returns the total number of authors.
func (s *Store) CountAuthors(ctx context.Context) (int, error) {
	return s.authors.Count(ctx)
}
