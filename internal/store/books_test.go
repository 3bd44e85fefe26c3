package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kirjastoapp/kirjasto-server/internal/domain"
	domainerrors "github.com/kirjastoapp/kirjasto-server/internal/errors"
	"github.com/kirjastoapp/kirjasto-server/internal/store"
)

func createAuthor(t *testing.T, s *store.Store, id, name string) *domain.Author {
	t.Helper()

	author := &domain.Author{
		Record: domain.Record{ID: id},
		Name:   name,
		Books:  []string{},
	}
	author.InitTimestamps()
	require.NoError(t, s.CreateAuthor(context.Background(), author))
	return author
}

func createBook(t *testing.T, s *store.Store, id, title, authorID string, createdAt time.Time) *domain.Book {
	t.Helper()

	book := &domain.Book{
		Record:   domain.Record{ID: id, CreatedAt: createdAt, UpdatedAt: createdAt},
		Title:    title,
		AuthorID: authorID,
	}
	require.NoError(t, s.CreateBook(context.Background(), book))
	return book
}

func TestStore_CreateAuthor_DuplicateName(t *testing.T) {
	s := setupTestStore(t)

	createAuthor(t, s, "author-1", "Frank Herbert")

	dup := &domain.Author{
		Record: domain.Record{ID: "author-2"},
		Name:   "Frank Herbert",
	}
	dup.InitTimestamps()
	err := s.CreateAuthor(context.Background(), dup)
	require.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestStore_GetAuthorByName(t *testing.T) {
	s := setupTestStore(t)

	created := createAuthor(t, s, "author-1", "Sandi Metz")

	found, err := s.GetAuthorByName(context.Background(), "Sandi Metz")
	require.NoError(t, err)
	require.Equal(t, created.ID, found.ID)

	_, err = s.GetAuthorByName(context.Background(), "Nobody")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestStore_GetAuthorsByIDs_SkipsMissing(t *testing.T) {
	s := setupTestStore(t)

	createAuthor(t, s, "author-1", "Frank Herbert")

	authors, err := s.GetAuthorsByIDs(context.Background(), []string{"author-1", "author-1", "author-ghost"})
	require.NoError(t, err)
	require.Len(t, authors, 1)
	require.Equal(t, "Frank Herbert", authors["author-1"].Name)
}

func TestStore_ListBooksByAuthorIDs(t *testing.T) {
	s := setupTestStore(t)

	createAuthor(t, s, "author-1", "Frank Herbert")
	createAuthor(t, s, "author-2", "Sandi Metz")

	base := time.Now()
	createBook(t, s, "book-2", "Dune Messiah", "author-1", base.Add(time.Second))
	createBook(t, s, "book-1", "Dune", "author-1", base)
	createBook(t, s, "book-3", "POODR", "author-2", base)

	grouped, err := s.ListBooksByAuthorIDs(context.Background(), []string{"author-1", "author-2", "author-3"})
	require.NoError(t, err)

	require.Len(t, grouped["author-1"], 2)
	require.Len(t, grouped["author-2"], 1)

	// Ordered by creation time within a group.
	require.Equal(t, "Dune", grouped["author-1"][0].Title)
	require.Equal(t, "Dune Messiah", grouped["author-1"][1].Title)

	_, ok := grouped["author-3"]
	require.False(t, ok)
}

func TestStore_ListBooks_Ordered(t *testing.T) {
	s := setupTestStore(t)

	createAuthor(t, s, "author-1", "Frank Herbert")

	base := time.Now()
	createBook(t, s, "book-b", "Second", "author-1", base.Add(time.Minute))
	createBook(t, s, "book-a", "First", "author-1", base)

	books, err := s.ListBooks(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 2)
	require.Equal(t, "First", books[0].Title)
	require.Equal(t, "Second", books[1].Title)
}

func TestStore_CountBooks(t *testing.T) {
	s := setupTestStore(t)

	createAuthor(t, s, "author-1", "Frank Herbert")
	createBook(t, s, "book-1", "Dune", "author-1", time.Now())

	count, err := s.CountBooks(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)

	count, err = s.CountAuthors(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestStore_Users(t *testing.T) {
	s := setupTestStore(t)

	user := &domain.User{
		Record:        domain.Record{ID: "user-1"},
		Username:      "reader",
		FavoriteGenre: "scifi",
	}
	user.InitTimestamps()
	require.NoError(t, s.CreateUser(context.Background(), user))

	dup := &domain.User{
		Record:        domain.Record{ID: "user-2"},
		Username:      "reader",
		FavoriteGenre: "crime",
	}
	dup.InitTimestamps()
	require.ErrorIs(t, s.CreateUser(context.Background(), dup), domainerrors.ErrConflict)

	found, err := s.GetUserByUsername(context.Background(), "reader")
	require.NoError(t, err)
	require.Equal(t, "user-1", found.ID)
}
