// Package loader provides request-scoped batching of book lookups so that
// resolving bookCount across a list of authors costs one store query
// instead of one per author.
package loader

import (
	"context"
	"net/http"
	"time"

	"github.com/graph-gophers/dataloader/v7"

	"github.com/kirjastoapp/kirjasto-server/internal/domain"
)

// BookLister is the single bulk query the loader issues against the store.
type BookLister interface {
	ListBooksByAuthorIDs(ctx context.Context, authorIDs []string) (map[string][]*domain.Book, error)
}

// batchWait is the coalescing window: loads issued within it join the
// same underlying bulk query.
const batchWait = 2 * time.Millisecond

// Loaders holds the per-request dataloaders. A fresh instance is created
// at request start and discarded at request end, so the loader cache
// never outlives a request.
type Loaders struct {
	booksByAuthor *dataloader.Loader[string, []*domain.Book]
}

// New creates request-scoped loaders backed by the given store.
func New(lister BookLister) *Loaders {
	return &Loaders{
		booksByAuthor: dataloader.NewBatchedLoader(
			batchBooksByAuthor(lister),
			dataloader.WithWait[string, []*domain.Book](batchWait),
		),
	}
}

// batchBooksByAuthor turns a batch of author IDs into per-key results in
// input order. Every requested ID receives exactly one group; authors
// without books get an empty slice, never a missing entry.
func batchBooksByAuthor(lister BookLister) dataloader.BatchFunc[string, []*domain.Book] {
	return func(ctx context.Context, authorIDs []string) []*dataloader.Result[[]*domain.Book] {
		results := make([]*dataloader.Result[[]*domain.Book], len(authorIDs))

		grouped, err := lister.ListBooksByAuthorIDs(ctx, authorIDs)
		if err != nil {
			for i := range results {
				results[i] = &dataloader.Result[[]*domain.Book]{Error: err}
			}
			return results
		}

		for i, id := range authorIDs {
			books := grouped[id]
			if books == nil {
				books = []*domain.Book{}
			}
			results[i] = &dataloader.Result[[]*domain.Book]{Data: books}
		}
		return results
	}
}

// BooksByAuthor loads the books of one author through the batch. Repeated
// loads of the same key within a request are served from the request cache.
func (l *Loaders) BooksByAuthor(ctx context.Context, authorID string) ([]*domain.Book, error) {
	return l.booksByAuthor.Load(ctx, authorID)()
}

// ctxKey is the context key type for the per-request loaders.
type ctxKey struct{}

// Attach stores the loaders in the context.
func Attach(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the request's loaders, or nil when the context has
// none (e.g. a subscription push outside the request cycle).
func FromContext(ctx context.Context) *Loaders {
	l, _ := ctx.Value(ctxKey{}).(*Loaders)
	return l
}

// Middleware attaches a fresh set of loaders to every request.
func Middleware(lister BookLister) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := Attach(r.Context(), New(lister))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
