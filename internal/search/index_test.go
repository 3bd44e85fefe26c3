package search_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirjastoapp/kirjasto-server/internal/domain"
	"github.com/kirjastoapp/kirjasto-server/internal/search"
)

func setupIndex(t *testing.T) *search.Index {
	t.Helper()

	index, err := search.NewIndex(search.Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	return index
}

func indexBook(t *testing.T, index *search.Index, id, title, author string, genres ...string) {
	t.Helper()

	book := &domain.Book{
		Record: domain.Record{ID: id},
		Title:  title,
		Genres: genres,
	}
	require.NoError(t, index.IndexBook(search.NewBookDocument(book, author)))
}

func TestIndex_SearchByTitle(t *testing.T) {
	index := setupIndex(t)

	indexBook(t, index, "book-1", "Dune", "Frank Herbert", "scifi")
	indexBook(t, index, "book-2", "Clean Code", "Robert Martin", "refactoring")

	ids, err := index.SearchBooks("dune")
	require.NoError(t, err)
	require.Equal(t, []string{"book-1"}, ids)
}

func TestIndex_SearchByAuthor(t *testing.T) {
	index := setupIndex(t)

	indexBook(t, index, "book-1", "Dune", "Frank Herbert", "scifi")
	indexBook(t, index, "book-2", "Dune Messiah", "Frank Herbert", "scifi")
	indexBook(t, index, "book-3", "Clean Code", "Robert Martin", "refactoring")

	ids, err := index.SearchBooks("herbert")
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.ElementsMatch(t, []string{"book-1", "book-2"}, ids)
}

func TestIndex_SearchByGenre(t *testing.T) {
	index := setupIndex(t)

	indexBook(t, index, "book-1", "Dune", "Frank Herbert", "scifi")
	indexBook(t, index, "book-2", "Clean Code", "Robert Martin", "refactoring")

	ids, err := index.SearchBooks("refactoring")
	require.NoError(t, err)
	require.Equal(t, []string{"book-2"}, ids)
}

func TestIndex_EmptyQuery(t *testing.T) {
	index := setupIndex(t)

	ids, err := index.SearchBooks("  ")
	require.NoError(t, err)
	require.Nil(t, ids)
}

func TestIndex_ReindexOverwrites(t *testing.T) {
	index := setupIndex(t)

	indexBook(t, index, "book-1", "Dune", "Frank Herbert", "scifi")
	// Same document ID with a corrected title.
	indexBook(t, index, "book-1", "Dune Messiah", "Frank Herbert", "scifi")

	ids, err := index.SearchBooks("messiah")
	require.NoError(t, err)
	require.Equal(t, []string{"book-1"}, ids)
}

func TestIndex_BatchIndex(t *testing.T) {
	index := setupIndex(t)

	docs := []search.BookDocument{
		{ID: "book-1", Title: "Dune", Author: "Frank Herbert", Genres: []string{"scifi"}},
		{ID: "book-2", Title: "Dune Messiah", Author: "Frank Herbert", Genres: []string{"scifi"}},
	}
	require.NoError(t, index.IndexBooks(docs))

	ids, err := index.SearchBooks("dune")
	require.NoError(t, err)
	require.Len(t, ids, 2)
}
