// Package graph implements the GraphQL resolver graph over the catalog
// services.
package graph

import (
	"context"
	"log/slog"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/kirjastoapp/kirjasto-server/internal/auth"
	"github.com/kirjastoapp/kirjasto-server/internal/bus"
	"github.com/kirjastoapp/kirjasto-server/internal/domain"
	domainerrors "github.com/kirjastoapp/kirjasto-server/internal/errors"
	"github.com/kirjastoapp/kirjasto-server/internal/service"
)

// Resolver is the root resolver. Every Query, Mutation, and Subscription
// field of the schema is a method on it.
type Resolver struct {
	catalog *service.CatalogService
	authSvc *service.AuthService
	bus     *bus.Bus
	logger  *slog.Logger
}

// NewResolver creates the root resolver.
func NewResolver(
	catalog *service.CatalogService,
	authSvc *service.AuthService,
	eventBus *bus.Bus,
	logger *slog.Logger,
) *Resolver {
	return &Resolver{
		catalog: catalog,
		authSvc: authSvc,
		bus:     eventBus,
		logger:  logger,
	}
}

// NewSchema parses the schema against the resolver, validating every
// field has a matching method. Panics on mismatch via MustParseSchema;
// a schema/resolver drift is a programming error caught at startup.
func NewSchema(r *Resolver) *graphql.Schema {
	return graphql.MustParseSchema(Schema, r)
}

// Hello is a connectivity probe.
func (r *Resolver) Hello() string {
	return "world"
}

// BookCount returns the total number of books.
func (r *Resolver) BookCount(ctx context.Context) (int32, error) {
	n, err := r.catalog.CountBooks(ctx)
	return int32(n), err
}

// AuthorCount returns the total number of authors.
func (r *Resolver) AuthorCount(ctx context.Context) (int32, error) {
	n, err := r.catalog.CountAuthors(ctx)
	return int32(n), err
}

// AllBooks returns the catalog's books, optionally narrowed by author
// name and genre. Both filters must match when both are given.
func (r *Resolver) AllBooks(ctx context.Context, args struct {
	Author *string
	Genre  *string
}) ([]*BookResolver, error) {
	views, err := r.catalog.AllBooks(ctx, service.BookFilter{
		Author: args.Author,
		Genre:  args.Genre,
	})
	if err != nil {
		return nil, err
	}
	return r.bookResolvers(views), nil
}

// AllAuthors returns every author. The bookCount field of each author is
// resolved through the per-request batch loader.
func (r *Resolver) AllAuthors(ctx context.Context) ([]*AuthorResolver, error) {
	authors, err := r.catalog.AllAuthors(ctx)
	if err != nil {
		return nil, err
	}
	resolvers := make([]*AuthorResolver, 0, len(authors))
	for _, author := range authors {
		resolvers = append(resolvers, &AuthorResolver{author: author, root: r})
	}
	return resolvers, nil
}

// SearchBooks runs a full-text query over titles, authors, and genres.
func (r *Resolver) SearchBooks(ctx context.Context, args struct{ Query string }) ([]*BookResolver, error) {
	views, err := r.catalog.SearchBooks(ctx, args.Query)
	if err != nil {
		return nil, err
	}
	return r.bookResolvers(views), nil
}

// Me returns the authenticated user, or null for anonymous requests.
func (r *Resolver) Me(ctx context.Context) *UserResolver {
	user := auth.CurrentUser(ctx)
	if user == nil {
		return nil
	}
	return &UserResolver{user: user}
}

// AddBook creates a book, creating the author on first mention. Requires
// an authenticated user; nothing is written otherwise.
func (r *Resolver) AddBook(ctx context.Context, args struct {
	Title      string
	AuthorName string
	Published  *int32
	Genres     *[]string
}) (*BookResolver, error) {
	if auth.CurrentUser(ctx) == nil {
		return nil, domainerrors.Unauthenticated("not authenticated")
	}

	var genres []string
	if args.Genres != nil {
		genres = *args.Genres
	}

	view, err := r.catalog.AddBook(ctx, service.AddBookRequest{
		Title:      args.Title,
		Published:  args.Published,
		AuthorName: args.AuthorName,
		Genres:     genres,
	})
	if err != nil {
		return nil, err
	}
	return &BookResolver{view: view, root: r}, nil
}

// EditAuthor sets an author's birth year. Requires an authenticated
// user. An unknown name yields null, not an error.
func (r *Resolver) EditAuthor(ctx context.Context, args struct {
	Name      string
	SetBornTo int32
}) (*AuthorResolver, error) {
	if auth.CurrentUser(ctx) == nil {
		return nil, domainerrors.Unauthenticated("not authenticated")
	}

	author, err := r.catalog.EditAuthor(ctx, args.Name, args.SetBornTo)
	if err != nil {
		return nil, err
	}
	if author == nil {
		return nil, nil
	}
	return &AuthorResolver{author: author, root: r}, nil
}

// CreateUser registers a new account. Open to anonymous callers.
func (r *Resolver) CreateUser(ctx context.Context, args struct {
	Username      string
	FavoriteGenre string
}) (*UserResolver, error) {
	user, err := r.authSvc.CreateUser(ctx, service.CreateUserRequest{
		Username:      args.Username,
		FavoriteGenre: args.FavoriteGenre,
	})
	if err != nil {
		return nil, err
	}
	return &UserResolver{user: user}, nil
}

// Login verifies credentials and returns an access token.
func (r *Resolver) Login(ctx context.Context, args struct {
	Username string
	Password string
}) (*TokenResolver, error) {
	token, err := r.authSvc.Login(ctx, service.LoginRequest{
		Username: args.Username,
		Password: args.Password,
	})
	if err != nil {
		return nil, err
	}
	return &TokenResolver{value: token}, nil
}

// BookAdded streams every book added after the subscription opens. The
// stream closes when the client disconnects or the server shuts down;
// events published before the subscription opened are not replayed.
func (r *Resolver) BookAdded(ctx context.Context) (<-chan *BookResolver, error) {
	events := r.bus.Subscribe(ctx, bus.TopicBookAdded)
	out := make(chan *BookResolver)

	go func() {
		defer close(out)
		for payload := range events {
			added, ok := payload.(*domain.BookAdded)
			if !ok {
				continue
			}
			resolver := &BookResolver{
				view: &service.BookView{Book: added.Book, Author: added.Author},
				root: r,
			}
			select {
			case out <- resolver:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (r *Resolver) bookResolvers(views []*service.BookView) []*BookResolver {
	resolvers := make([]*BookResolver, 0, len(views))
	for _, view := range views {
		resolvers = append(resolvers, &BookResolver{view: view, root: r})
	}
	return resolvers
}
