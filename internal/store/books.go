package store

import (
	"cmp"
	"context"
	"slices"

	"github.com/kirjastoapp/kirjasto-server/internal/domain"
)

// CreateBook persists a new book.
func (s *Store) CreateBook(ctx context.Context, book *domain.Book) error {
	return s.books.Create(ctx, book.ID, book)
}

// GetBook retrieves a book by ID.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return s.books.Get(ctx, id)
}

// ListBooks returns all books in the store's natural order.
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.books.List(ctx)
	if err != nil {
		return nil, err
	}
	sortByCreation(books, func(b *domain.Book) (int64, string) {
		return b.CreatedAt.UnixNano(), b.ID
	})
	return books, nil
}

// ListBooksByAuthorIDs retrieves the books of many authors in a single
// query, grouped by author ID and sorted in the store's natural order
// within each group. This is the bulk fetch behind the batch loader:
// one call here serves a whole batch of bookCount resolutions.
//
// Authors with no books are absent from the result map; the loader turns
// that into an empty group.
func (s *Store) ListBooksByAuthorIDs(ctx context.Context, authorIDs []string) (map[string][]*domain.Book, error) {
	grouped, err := s.books.ListByIndexValues(ctx, "author", authorIDs)
	if err != nil {
		return nil, err
	}
	for _, books := range grouped {
		sortByCreation(books, func(b *domain.Book) (int64, string) {
			return b.CreatedAt.UnixNano(), b.ID
		})
	}
	return grouped, nil
}

// CountBooks returns the total number of books.
func (s *Store) CountBooks(ctx context.Context) (int, error) {
	return s.books.Count(ctx)
}

// sortByCreation orders entities by creation time, breaking ties by ID so
// the order is stable across calls.
func sortByCreation[T any](entities []*T, key func(*T) (int64, string)) {
	slices.SortFunc(entities, func(a, b *T) int {
		aTime, aID := key(a)
		bTime, bID := key(b)
		if c := cmp.Compare(aTime, bTime); c != 0 {
			return c
		}
		return cmp.Compare(aID, bID)
	})
}
