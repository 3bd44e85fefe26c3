package graph_test

import (
	"context"
	"encoding/json/v2"
	"testing"
	"time"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/require"

	"github.com/kirjastoapp/kirjasto-server/internal/auth"
	"github.com/kirjastoapp/kirjasto-server/internal/bus"
	"github.com/kirjastoapp/kirjasto-server/internal/domain"
	"github.com/kirjastoapp/kirjasto-server/internal/graph"
	"github.com/kirjastoapp/kirjasto-server/internal/loader"
	"github.com/kirjastoapp/kirjasto-server/internal/search"
	"github.com/kirjastoapp/kirjasto-server/internal/service"
	"github.com/kirjastoapp/kirjasto-server/internal/store"
)

const testKeyHex = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

type testEnv struct {
	schema  *graphql.Schema
	store   *store.Store
	catalog *service.CatalogService
	bus     *bus.Bus
}

func setupSchema(t *testing.T) *testEnv {
	t.Helper()

	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	index, err := search.NewIndex(search.Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	eventBus := bus.New(nil)
	t.Cleanup(eventBus.Shutdown)

	tokens, err := auth.NewTokenService(testKeyHex, time.Hour)
	require.NoError(t, err)

	authService, err := service.NewAuthService(s, tokens, "secret", nil)
	require.NoError(t, err)

	catalog := service.NewCatalogService(s, eventBus, index, nil)
	resolver := graph.NewResolver(catalog, authService, eventBus, nil)

	return &testEnv{
		schema:  graph.NewSchema(resolver),
		store:   s,
		catalog: catalog,
		bus:     eventBus,
	}
}

// requestCtx mimics the request middleware chain: current user plus
// fresh per-request loaders.
func (e *testEnv) requestCtx(user *domain.User) context.Context {
	ctx := loader.Attach(context.Background(), loader.New(e.store))
	if user != nil {
		ctx = auth.WithCurrentUser(ctx, user)
	}
	return ctx
}

func (e *testEnv) reader() *domain.User {
	user := &domain.User{
		Record:        domain.Record{ID: "user-reader"},
		Username:      "reader",
		FavoriteGenre: "scifi",
	}
	user.InitTimestamps()
	return user
}

func exec(t *testing.T, env *testEnv, ctx context.Context, query string, vars map[string]any, out any) {
	t.Helper()

	resp := env.schema.Exec(ctx, query, "", vars)
	require.Empty(t, resp.Errors, "unexpected GraphQL errors: %v", resp.Errors)
	require.NoError(t, json.Unmarshal(resp.Data, out, json.MatchCaseInsensitiveNames(true)))
}

const addDuneMutation = `mutation {
	addBook(title: "Dune", authorName: "Frank Herbert", published: 1965, genres: ["scifi"]) {
		title
		published
		genres
		author { name bookCount }
	}
}`

func TestQuery_Hello(t *testing.T) {
	env := setupSchema(t)

	var data struct{ Hello string }
	exec(t, env, env.requestCtx(nil), `{ hello }`, nil, &data)
	require.Equal(t, "world", data.Hello)
}

func TestMutation_AddBook(t *testing.T) {
	env := setupSchema(t)

	var data struct {
		AddBook struct {
			Title     string
			Published *int32
			Genres    []string
			Author    struct {
				Name      string
				BookCount int32
			}
		}
	}
	exec(t, env, env.requestCtx(env.reader()), addDuneMutation, nil, &data)

	require.Equal(t, "Dune", data.AddBook.Title)
	require.NotNil(t, data.AddBook.Published)
	require.Equal(t, int32(1965), *data.AddBook.Published)
	require.Equal(t, []string{"scifi"}, data.AddBook.Genres)
	require.Equal(t, "Frank Herbert", data.AddBook.Author.Name)
	require.Equal(t, int32(1), data.AddBook.Author.BookCount)
}

func TestMutation_AddBook_RequiresAuth(t *testing.T) {
	env := setupSchema(t)

	resp := env.schema.Exec(env.requestCtx(nil), addDuneMutation, "", nil)
	require.NotEmpty(t, resp.Errors)
	require.Contains(t, resp.Errors[0].Error(), "not authenticated")
	require.Equal(t, "UNAUTHENTICATED", resp.Errors[0].Extensions["code"])

	// Nothing was written.
	count, err := env.catalog.CountBooks(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
	count, err = env.catalog.CountAuthors(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestQuery_AllBooks_WithFilters(t *testing.T) {
	env := setupSchema(t)
	ctx := env.requestCtx(env.reader())

	var ignore struct{ AddBook any }
	exec(t, env, ctx, addDuneMutation, nil, &ignore)
	exec(t, env, ctx, `mutation {
		addBook(title: "Clean Code", authorName: "Robert Martin", published: 2008, genres: ["refactoring"]) { title }
	}`, nil, &ignore)

	var data struct {
		AllBooks []struct {
			Title  string
			Author struct{ Name string }
		}
	}
	exec(t, env, env.requestCtx(nil), `{ allBooks(genre: "scifi") { title author { name } } }`, nil, &data)
	require.Len(t, data.AllBooks, 1)
	require.Equal(t, "Dune", data.AllBooks[0].Title)
	require.Equal(t, "Frank Herbert", data.AllBooks[0].Author.Name)
}

func TestQuery_AllAuthors_BookCount(t *testing.T) {
	env := setupSchema(t)
	ctx := env.requestCtx(env.reader())

	var ignore struct{ AddBook any }
	exec(t, env, ctx, addDuneMutation, nil, &ignore)
	exec(t, env, ctx, `mutation {
		addBook(title: "Dune Messiah", authorName: "Frank Herbert", published: 1969, genres: ["scifi"]) { title }
	}`, nil, &ignore)

	var data struct {
		AllAuthors []struct {
			Name      string
			Born      *int32
			BookCount int32
		}
	}
	exec(t, env, env.requestCtx(nil), `{ allAuthors { name born bookCount } }`, nil, &data)
	require.Len(t, data.AllAuthors, 1)
	require.Equal(t, "Frank Herbert", data.AllAuthors[0].Name)
	require.Nil(t, data.AllAuthors[0].Born)
	require.Equal(t, int32(2), data.AllAuthors[0].BookCount)
}

func TestMutation_EditAuthor(t *testing.T) {
	env := setupSchema(t)
	ctx := env.requestCtx(env.reader())

	var ignore struct{ AddBook any }
	exec(t, env, ctx, addDuneMutation, nil, &ignore)

	var data struct {
		EditAuthor *struct {
			Name string
			Born *int32
		}
	}
	exec(t, env, ctx, `mutation { editAuthor(name: "Frank Herbert", setBornTo: 1920) { name born } }`, nil, &data)
	require.NotNil(t, data.EditAuthor)
	require.Equal(t, int32(1920), *data.EditAuthor.Born)

	// Unknown author yields null, not an error.
	var missing struct {
		EditAuthor *struct{ Name string }
	}
	exec(t, env, ctx, `mutation { editAuthor(name: "Nobody", setBornTo: 1900) { name } }`, nil, &missing)
	require.Nil(t, missing.EditAuthor)
}

func TestMutation_CreateUserAndLogin(t *testing.T) {
	env := setupSchema(t)
	ctx := env.requestCtx(nil)

	var created struct {
		CreateUser struct {
			Username      string
			FavoriteGenre string
		}
	}
	exec(t, env, ctx, `mutation { createUser(username: "reader", favoriteGenre: "scifi") { username favoriteGenre } }`, nil, &created)
	require.Equal(t, "reader", created.CreateUser.Username)

	var login struct {
		Login *struct{ Value string }
	}
	exec(t, env, ctx, `mutation { login(username: "reader", password: "secret") { value } }`, nil, &login)
	require.NotNil(t, login.Login)
	require.NotEmpty(t, login.Login.Value)

	// Bad credentials surface the generic message.
	resp := env.schema.Exec(ctx, `mutation { login(username: "reader", password: "wrong") { value } }`, "", nil)
	require.NotEmpty(t, resp.Errors)
	require.Contains(t, resp.Errors[0].Error(), "incorrect password or username")
}

func TestQuery_Me(t *testing.T) {
	env := setupSchema(t)

	var anonymous struct {
		Me *struct{ Username string }
	}
	exec(t, env, env.requestCtx(nil), `{ me { username } }`, nil, &anonymous)
	require.Nil(t, anonymous.Me)

	var authed struct {
		Me *struct {
			Username      string
			FavoriteGenre string
		}
	}
	exec(t, env, env.requestCtx(env.reader()), `{ me { username favoriteGenre } }`, nil, &authed)
	require.NotNil(t, authed.Me)
	require.Equal(t, "reader", authed.Me.Username)
	require.Equal(t, "scifi", authed.Me.FavoriteGenre)
}

func TestQuery_SearchBooks(t *testing.T) {
	env := setupSchema(t)
	ctx := env.requestCtx(env.reader())

	var ignore struct{ AddBook any }
	exec(t, env, ctx, addDuneMutation, nil, &ignore)

	var data struct {
		SearchBooks []struct {
			Title  string
			Author struct{ Name string }
		}
	}
	exec(t, env, env.requestCtx(nil), `{ searchBooks(query: "herbert") { title author { name } } }`, nil, &data)
	require.Len(t, data.SearchBooks, 1)
	require.Equal(t, "Dune", data.SearchBooks[0].Title)
}

func TestSubscription_BookAdded(t *testing.T) {
	env := setupSchema(t)

	subCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := env.schema.Subscribe(subCtx, `subscription {
		bookAdded { title author { name bookCount } }
	}`, "", nil)
	require.NoError(t, err)

	// Publish through the real mutation path.
	var ignore struct{ AddBook any }
	exec(t, env, env.requestCtx(env.reader()), addDuneMutation, nil, &ignore)

	select {
	case payload := <-events:
		resp, ok := payload.(*graphql.Response)
		require.True(t, ok)
		require.Empty(t, resp.Errors)

		var data struct {
			BookAdded struct {
				Title  string
				Author struct {
					Name      string
					BookCount int32
				}
			}
		}
		require.NoError(t, json.Unmarshal(resp.Data, &data, json.MatchCaseInsensitiveNames(true)))
		require.Equal(t, "Dune", data.BookAdded.Title)
		require.Equal(t, "Frank Herbert", data.BookAdded.Author.Name)
		require.Equal(t, int32(1), data.BookAdded.Author.BookCount)
	case <-time.After(2 * time.Second):
		t.Fatal("no subscription event received")
	}
}

func TestSubscription_FanOutAndLateSubscriber(t *testing.T) {
	env := setupSchema(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const query = `subscription { bookAdded { title } }`

	first, err := env.schema.Subscribe(ctx, query, "", nil)
	require.NoError(t, err)
	second, err := env.schema.Subscribe(ctx, query, "", nil)
	require.NoError(t, err)

	var ignore struct{ AddBook any }
	exec(t, env, env.requestCtx(env.reader()), addDuneMutation, nil, &ignore)

	for _, events := range []<-chan any{first, second} {
		select {
		case payload := <-events:
			resp := payload.(*graphql.Response)
			require.Empty(t, resp.Errors)
		case <-time.After(2 * time.Second):
			t.Fatal("subscriber missed the event")
		}
	}

	// A subscriber opened after publish sees nothing retroactively.
	late, err := env.schema.Subscribe(ctx, query, "", nil)
	require.NoError(t, err)
	select {
	case payload := <-late:
		t.Fatalf("late subscriber received a replayed event: %v", payload)
	case <-time.After(100 * time.Millisecond):
	}
}
