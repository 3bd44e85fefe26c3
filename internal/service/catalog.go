package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirjastoapp/kirjasto-server/internal/bus"
	"github.com/kirjastoapp/kirjasto-server/internal/domain"
	domainerrors "github.com/kirjastoapp/kirjasto-server/internal/errors"
	"github.com/kirjastoapp/kirjasto-server/internal/id"
	"github.com/kirjastoapp/kirjasto-server/internal/search"
	"github.com/kirjastoapp/kirjasto-server/internal/store"
)

// CatalogService implements the book and author operations of the catalog.
type CatalogService struct {
	store       *store.Store
	bus         *bus.Bus
	searchIndex *search.Index
	logger      *slog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	st *store.Store,
	eventBus *bus.Bus,
	searchIndex *search.Index,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		store:       st,
		bus:         eventBus,
		searchIndex: searchIndex,
		logger:      logger,
	}
}

// BookView is a book joined with its author. The catalog always returns
// books this way so callers never hold a dangling author reference.
type BookView struct {
	Book   *domain.Book
	Author *domain.Author
}

// BookFilter narrows allBooks results. Both conditions must hold when
// both are set. Author matches the exact name; Genre matches any of the
// book's genres exactly.
type BookFilter struct {
	Author *string
	Genre  *string
}

// AddBookRequest contains new book data. Title and author name only need
// to be present; the catalog accepts names of any length.
type AddBookRequest struct {
	Title      string   `json:"title" validate:"required"`
	Published  *int32   `json:"published"`
	AuthorName string   `json:"authorName" validate:"required"`
	Genres     []string `json:"genres"`
}

// CountBooks returns the total number of books in the catalog.
func (s *CatalogService) CountBooks(ctx context.Context) (int, error) {
	return s.store.CountBooks(ctx)
}

// CountAuthors returns the total number of authors in the catalog.
func (s *CatalogService) CountAuthors(ctx context.Context) (int, error) {
	return s.store.CountAuthors(ctx)
}

// CountBooksByAuthor returns how many books an author has written.
// Resolvers prefer the batch loader; this direct query serves contexts
// without one, such as subscription pushes.
func (s *CatalogService) CountBooksByAuthor(ctx context.Context, authorID string) (int, error) {
	grouped, err := s.store.ListBooksByAuthorIDs(ctx, []string{authorID})
	if err != nil {
		return 0, err
	}
	return len(grouped[authorID]), nil
}

// AllBooks returns the catalog's books joined with their authors,
// narrowed by the filter. An unknown author name yields an empty result,
// not an error.
func (s *CatalogService) AllBooks(ctx context.Context, filter BookFilter) ([]*BookView, error) {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	// Resolve the author filter to an ID up front so the scan below
	// compares IDs, not names.
	var filterAuthorID string
	if filter.Author != nil {
		author, err := s.store.GetAuthorByName(ctx, *filter.Author)
		if err != nil {
			if domainerrors.Is(err, domainerrors.ErrNotFound) {
				return []*BookView{}, nil
			}
			return nil, fmt.Errorf("lookup author: %w", err)
		}
		filterAuthorID = author.ID
	}

	matched := books[:0]
	for _, book := range books {
		if filterAuthorID != "" && book.AuthorID != filterAuthorID {
			continue
		}
		if filter.Genre != nil && !book.HasGenre(*filter.Genre) {
			continue
		}
		matched = append(matched, book)
	}

	return s.joinAuthors(ctx, matched)
}

// AllAuthors returns every author in the catalog.
func (s *CatalogService) AllAuthors(ctx context.Context) ([]*domain.Author, error) {
	return s.store.ListAuthors(ctx)
}

// AddBook creates a book, creating its author first if the name is new.
// On success the book-added event is published with the author resolved,
// and the book becomes searchable. No event is published on failure.
func (s *CatalogService) AddBook(ctx context.Context, req AddBookRequest) (*BookView, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err, map[string]any{
			"title":      req.Title,
			"authorName": req.AuthorName,
		})
	}

	author, err := s.findOrCreateAuthor(ctx, req.AuthorName)
	if err != nil {
		return nil, err
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	book := &domain.Book{
		Record:    domain.Record{ID: bookID},
		Title:     req.Title,
		Published: req.Published,
		AuthorID:  author.ID,
		Genres:    req.Genres,
	}
	book.InitTimestamps()

	if err := s.store.CreateBook(ctx, book); err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	author.AddBook(bookID)
	if err := s.store.UpdateAuthor(ctx, author); err != nil {
		return nil, fmt.Errorf("update author: %w", err)
	}

	s.bus.Publish(bus.TopicBookAdded, &domain.BookAdded{Book: book, Author: author})

	if err := s.searchIndex.IndexBook(search.NewBookDocument(book, author.Name)); err != nil {
		// The book exists either way; log and move on.
		if s.logger != nil {
			s.logger.Warn("failed to index book", "book_id", bookID, "error", err)
		}
	}

	if s.logger != nil {
		s.logger.Info("book added",
			"book_id", bookID,
			"title", book.Title,
			"author_id", author.ID,
		)
	}

	return &BookView{Book: book, Author: author}, nil
}

// findOrCreateAuthor looks up an author by exact name, creating one when
// absent. Two concurrent creations of the same name race on the unique
// name index; the loser re-fetches and uses the winner's author.
func (s *CatalogService) findOrCreateAuthor(ctx context.Context, name string) (*domain.Author, error) {
	author, err := s.store.GetAuthorByName(ctx, name)
	if err == nil {
		return author, nil
	}
	if !domainerrors.Is(err, domainerrors.ErrNotFound) {
		return nil, fmt.Errorf("lookup author: %w", err)
	}

	authorID, err := id.Generate("author")
	if err != nil {
		return nil, fmt.Errorf("generate author ID: %w", err)
	}

	author = &domain.Author{
		Record: domain.Record{ID: authorID},
		Name:   name,
		Books:  []string{},
	}
	author.InitTimestamps()

	if err := s.store.CreateAuthor(ctx, author); err != nil {
		if domainerrors.Is(err, domainerrors.ErrConflict) {
			// Lost the race; the winner's author is now in the store.
			return s.store.GetAuthorByName(ctx, name)
		}
		return nil, fmt.Errorf("create author: %w", err)
	}

	return author, nil
}

// EditAuthor sets an author's birth year. An unknown name returns
// (nil, nil) so the resolver can render a null author rather than an
// error.
func (s *CatalogService) EditAuthor(ctx context.Context, name string, setBornTo int32) (*domain.Author, error) {
	author, err := s.store.GetAuthorByName(ctx, name)
	if err != nil {
		if domainerrors.Is(err, domainerrors.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup author: %w", err)
	}

	born := setBornTo
	author.Born = &born
	author.Touch()

	if err := s.store.UpdateAuthor(ctx, author); err != nil {
		return nil, fmt.Errorf("update author: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("author updated", "author_id", author.ID, "born", setBornTo)
	}

	return author, nil
}

// SearchBooks runs a full-text query over the catalog and returns the
// matching books with authors resolved, in relevance order.
func (s *CatalogService) SearchBooks(ctx context.Context, query string) ([]*BookView, error) {
	ids, err := s.searchIndex.SearchBooks(query)
	if err != nil {
		return nil, err
	}

	books := make([]*domain.Book, 0, len(ids))
	for _, bookID := range ids {
		book, err := s.store.GetBook(ctx, bookID)
		if err != nil {
			if domainerrors.Is(err, domainerrors.ErrNotFound) {
				// Index lag; skip the stale hit.
				continue
			}
			return nil, fmt.Errorf("get book: %w", err)
		}
		books = append(books, book)
	}

	return s.joinAuthors(ctx, books)
}

// RebuildSearchIndex reindexes every book. Called at startup so the
// search index never drifts from the store across mapping changes.
func (s *CatalogService) RebuildSearchIndex(ctx context.Context) error {
	books, err := s.store.ListBooks(ctx)
	if err != nil {
		return fmt.Errorf("list books: %w", err)
	}
	if len(books) == 0 {
		return nil
	}

	authorIDs := make([]string, 0, len(books))
	for _, book := range books {
		authorIDs = append(authorIDs, book.AuthorID)
	}
	authors, err := s.store.GetAuthorsByIDs(ctx, authorIDs)
	if err != nil {
		return fmt.Errorf("get authors: %w", err)
	}

	docs := make([]search.BookDocument, 0, len(books))
	for _, book := range books {
		authorName := ""
		if author := authors[book.AuthorID]; author != nil {
			authorName = author.Name
		}
		docs = append(docs, search.NewBookDocument(book, authorName))
	}

	if err := s.searchIndex.IndexBooks(docs); err != nil {
		return err
	}

	if s.logger != nil {
		s.logger.Info("search index rebuilt", "books", len(docs))
	}
	return nil
}

// joinAuthors resolves the author of each book in one bulk lookup.
func (s *CatalogService) joinAuthors(ctx context.Context, books []*domain.Book) ([]*BookView, error) {
	authorIDs := make([]string, 0, len(books))
	for _, book := range books {
		authorIDs = append(authorIDs, book.AuthorID)
	}

	authors, err := s.store.GetAuthorsByIDs(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("get authors: %w", err)
	}

	views := make([]*BookView, 0, len(books))
	for _, book := range books {
		views = append(views, &BookView{
			Book:   book,
			Author: authors[book.AuthorID],
		})
	}
	return views, nil
}
