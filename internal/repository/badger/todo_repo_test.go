package badger

import (
	"context"
	"testing"
	"time"

	"alcyxob/todo-app/internal/domain"
	"alcyxob/todo-app/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *badgerTodoRepository {
	t.Helper()
	db, err := Open(Options{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &badgerTodoRepository{
		db: db,
		now: func() time.Time {
			clock = clock.Add(1500 * time.Millisecond)
			return clock
		},
	}
}

func TestBadgerTodoRepository_CreateAndList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	for _, id := range []string{"t1", "t2", "t3"} {
		_, err := repo.Create(ctx, "u1", id, "item "+id, "2024-01-01")
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, "u2", "other", "not mine", "2024-01-01")
	require.NoError(t, err)

	todos, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, todos, 3)
	assert.Equal(t, "t3", todos[0].TodoID)
	assert.Equal(t, "t2", todos[1].TodoID)
	assert.Equal(t, "t1", todos[2].TodoID)
	for i := 1; i < len(todos); i++ {
		assert.GreaterOrEqual(t, todos[i-1].CreatedAt, todos[i].CreatedAt)
	}
	for _, todo := range todos {
		assert.Equal(t, "u1", todo.UserID)
		assert.False(t, todo.Done)
	}
}

func TestBadgerTodoRepository_ListEmpty(t *testing.T) {
	repo := newTestRepo(t)

	todos, err := repo.List(context.Background(), "nobody")
	require.NoError(t, err)
	assert.NotNil(t, todos)
	assert.Empty(t, todos)
}

func TestBadgerTodoRepository_CreateDuplicate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "u1", "t1", "first", "2024-01-01")
	require.NoError(t, err)

	_, err = repo.Create(ctx, "u1", "t1", "second", "2024-01-01")
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)

	// Same todoId under another user is a different key.
	_, err = repo.Create(ctx, "u2", "t1", "other", "2024-01-01")
	assert.NoError(t, err)
}

func TestBadgerTodoRepository_Exists(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "u1", "t1", "first", "2024-01-01")
	require.NoError(t, err)

	ok, err := repo.Exists(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, "u2", "t1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBadgerTodoRepository_Update(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "u1", "t1", "Buy milk", "2024-01-01")
	require.NoError(t, err)

	updated, err := repo.Update(ctx, "u1", "t1", domain.TodoUpdate{Name: "Buy oat milk", DueDate: "2024-02-02", Done: true})
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", updated.Name)
	assert.Equal(t, "2024-02-02", updated.DueDate)
	assert.True(t, updated.Done)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, created.TodoID, updated.TodoID)

	todos, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, *updated, todos[0])

	_, err = repo.Update(ctx, "u1", "missing", domain.TodoUpdate{Name: "x", DueDate: "2024-01-01"})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	ok, err := repo.Exists(ctx, "u1", "missing")
	require.NoError(t, err)
	assert.False(t, ok, "update must not create a partial record")
}

func TestBadgerTodoRepository_Delete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "u1", "t1", "Buy milk", "2024-01-01")
	require.NoError(t, err)

	old, err := repo.Delete(ctx, "u1", "t1")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", old.Name)

	todos, err := repo.List(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, todos)

	_, err = repo.Delete(ctx, "u1", "t1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBadgerTodoRepository_SetAttachmentURL(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "u1", "t1", "Buy milk", "2024-01-01")
	require.NoError(t, err)

	url := "https://bucket.s3.amazonaws.com/t1"
	todo, err := repo.SetAttachmentURL(ctx, "u1", "t1", &url)
	require.NoError(t, err)
	assert.Equal(t, url, todo.AttachmentURL)

	todo, err = repo.SetAttachmentURL(ctx, "u1", "t1", nil)
	require.NoError(t, err)
	assert.False(t, todo.HasAttachment())

	_, err = repo.SetAttachmentURL(ctx, "u1", "missing", &url)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBadgerKeysEscapeSeparators(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, "a", "b/c", "slash in todo", "2024-01-01")
	require.NoError(t, err)
	_, err = repo.Create(ctx, "a/b", "c", "slash in user", "2024-01-01")
	require.NoError(t, err)

	todos, err := repo.List(ctx, "a")
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "b/c", todos[0].TodoID)
}
