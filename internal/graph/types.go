package graph

import (
	"context"

	graphql "github.com/graph-gophers/graphql-go"

	"github.com/kirjastoapp/kirjasto-server/internal/domain"
	"github.com/kirjastoapp/kirjasto-server/internal/loader"
	"github.com/kirjastoapp/kirjasto-server/internal/service"
)

// BookResolver resolves the Book type. It always carries the joined
// author so Book.author never needs a second store round trip.
type BookResolver struct {
	view *service.BookView
	root *Resolver
}

func (b *BookResolver) ID() graphql.ID {
	return graphql.ID(b.view.Book.ID)
}

func (b *BookResolver) Title() string {
	return b.view.Book.Title
}

func (b *BookResolver) Published() *int32 {
	return b.view.Book.Published
}

func (b *BookResolver) Author() *AuthorResolver {
	return &AuthorResolver{author: b.view.Author, root: b.root}
}

func (b *BookResolver) Genres() []string {
	if b.view.Book.Genres == nil {
		return []string{}
	}
	return b.view.Book.Genres
}

// AuthorResolver resolves the Author type.
type AuthorResolver struct {
	author *domain.Author
	root   *Resolver
}

func (a *AuthorResolver) ID() graphql.ID {
	return graphql.ID(a.author.ID)
}

func (a *AuthorResolver) Name() string {
	return a.author.Name
}

func (a *AuthorResolver) Born() *int32 {
	return a.author.Born
}

// BookCount resolves through the per-request batch loader, so a query
// listing N authors issues one bulk store query, not N. Contexts without
// a loader, such as subscription pushes, fall back to a direct count.
func (a *AuthorResolver) BookCount(ctx context.Context) (int32, error) {
	if loaders := loader.FromContext(ctx); loaders != nil {
		books, err := loaders.BooksByAuthor(ctx, a.author.ID)
		if err != nil {
			return 0, err
		}
		return int32(len(books)), nil
	}

	n, err := a.root.catalog.CountBooksByAuthor(ctx, a.author.ID)
	return int32(n), err
}

// UserResolver resolves the User type.
type UserResolver struct {
	user *domain.User
}

func (u *UserResolver) ID() graphql.ID {
	return graphql.ID(u.user.ID)
}

func (u *UserResolver) Username() string {
	return u.user.Username
}

func (u *UserResolver) FavoriteGenre() string {
	return u.user.FavoriteGenre
}

// TokenResolver resolves the Token type.
type TokenResolver struct {
	value string
}

func (t *TokenResolver) Value() string {
	return t.value
}
