package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	domainerrors "github.com/kirjastoapp/kirjasto-server/internal/errors"
	"github.com/kirjastoapp/kirjasto-server/internal/store"
)

type TestEntity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group string `json:"group"`
}

func setupTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}

func newTestEntity(s *store.Store) *store.Entity[TestEntity] {
	return store.NewEntity[TestEntity](s, "test:").
		WithUniqueIndex("name", func(e *TestEntity) string { return e.Name }).
		WithListIndex("group", func(e *TestEntity) string { return e.Group })
}

func TestEntity_Create_Success(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)

	testData := &TestEntity{ID: "1", Name: "first", Group: "a"}

	err := entity.Create(context.Background(), "1", testData)
	require.NoError(t, err)

	retrieved, err := entity.Get(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, testData.ID, retrieved.ID)
	require.Equal(t, testData.Name, retrieved.Name)
}

func TestEntity_Create_AlreadyExists(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)

	testData := &TestEntity{ID: "1", Name: "first", Group: "a"}

	err := entity.Create(context.Background(), "1", testData)
	require.NoError(t, err)

	err = entity.Create(context.Background(), "1", testData)
	require.Error(t, err)
	require.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestEntity_Create_UniqueIndexConflict(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)

	err := entity.Create(context.Background(), "1", &TestEntity{ID: "1", Name: "taken", Group: "a"})
	require.NoError(t, err)

	// Different ID, same indexed name.
	err = entity.Create(context.Background(), "2", &TestEntity{ID: "2", Name: "taken", Group: "b"})
	require.Error(t, err)
	require.ErrorIs(t, err, domainerrors.ErrConflict)
}

func TestEntity_Get_NotFound(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)

	retrieved, err := entity.Get(context.Background(), "nonexistent")
	require.Error(t, err)
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
	require.Nil(t, retrieved)
}

func TestEntity_GetByIndex(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)

	err := entity.Create(context.Background(), "1", &TestEntity{ID: "1", Name: "findme", Group: "a"})
	require.NoError(t, err)

	retrieved, err := entity.GetByIndex(context.Background(), "name", "findme")
	require.NoError(t, err)
	require.Equal(t, "1", retrieved.ID)

	_, err = entity.GetByIndex(context.Background(), "name", "missing")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestEntity_Update_MaintainsIndexes(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)

	err := entity.Create(context.Background(), "1", &TestEntity{ID: "1", Name: "before", Group: "a"})
	require.NoError(t, err)

	err = entity.Update(context.Background(), "1", &TestEntity{ID: "1", Name: "after", Group: "b"})
	require.NoError(t, err)

	// Old index entry is gone, new one resolves.
	_, err = entity.GetByIndex(context.Background(), "name", "before")
	require.ErrorIs(t, err, domainerrors.ErrNotFound)

	retrieved, err := entity.GetByIndex(context.Background(), "name", "after")
	require.NoError(t, err)
	require.Equal(t, "1", retrieved.ID)

	grouped, err := entity.ListByIndexValues(context.Background(), "group", []string{"a", "b"})
	require.NoError(t, err)
	require.Empty(t, grouped["a"])
	require.Len(t, grouped["b"], 1)
}

func TestEntity_Update_NotFound(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)

	err := entity.Update(context.Background(), "ghost", &TestEntity{ID: "ghost", Name: "x", Group: "a"})
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestEntity_List_SkipsIndexKeys(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)

	for i, name := range []string{"one", "two", "three"} {
		id := string(rune('1' + i))
		err := entity.Create(context.Background(), id, &TestEntity{ID: id, Name: name, Group: "g"})
		require.NoError(t, err)
	}

	entities, err := entity.List(context.Background())
	require.NoError(t, err)
	require.Len(t, entities, 3)
}

func TestEntity_ListByIndexValues_Groups(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)

	require.NoError(t, entity.Create(context.Background(), "1", &TestEntity{ID: "1", Name: "a1", Group: "a"}))
	require.NoError(t, entity.Create(context.Background(), "2", &TestEntity{ID: "2", Name: "a2", Group: "a"}))
	require.NoError(t, entity.Create(context.Background(), "3", &TestEntity{ID: "3", Name: "b1", Group: "b"}))

	grouped, err := entity.ListByIndexValues(context.Background(), "group", []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, grouped["a"], 2)
	require.Len(t, grouped["b"], 1)

	// No entry for a value with no entities.
	_, ok := grouped["c"]
	require.False(t, ok)
}

func TestEntity_Count(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)

	count, err := entity.Count(context.Background())
	require.NoError(t, err)
	require.Zero(t, count)

	require.NoError(t, entity.Create(context.Background(), "1", &TestEntity{ID: "1", Name: "x", Group: "a"}))
	require.NoError(t, entity.Create(context.Background(), "2", &TestEntity{ID: "2", Name: "y", Group: "a"}))

	count, err = entity.Count(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
