package repository

import (
	"alcyxob/todo-app/internal/domain" // Import our defined domain models
	"context"                          // Standard for request-scoped deadlines, cancellation signals, etc.
)

// Error constants for repository layer
var (
	ErrNotFound      = RepositoryError("not found")
	ErrAlreadyExists = RepositoryError("already exists")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// TodoRepository defines the interface for interacting with to-do items.
// Every method is scoped by userID; an item owned by another user behaves
// exactly like a missing one.
type TodoRepository interface {
	// List returns all items owned by userID, newest createdAt first.
	List(ctx context.Context, userID string) ([]domain.TodoItem, error)
	// Create inserts a new item with done=false and createdAt=now.
	// Returns ErrAlreadyExists if the key is taken (insert, never upsert).
	Create(ctx context.Context, userID, todoID, name, dueDate string) (*domain.TodoItem, error)
	Exists(ctx context.Context, userID, todoID string) (bool, error)
	// Update replaces name, dueDate and done and returns the updated item.
	// Returns ErrNotFound if the item does not exist; no partial record is created.
	Update(ctx context.Context, userID, todoID string, update domain.TodoUpdate) (*domain.TodoItem, error)
	// Delete removes the item and returns the snapshot taken before deletion.
	Delete(ctx context.Context, userID, todoID string) (*domain.TodoItem, error)
	// SetAttachmentURL sets attachmentUrl, or removes the field when url is nil.
	SetAttachmentURL(ctx context.Context, userID, todoID string, url *string) (*domain.TodoItem, error)
}
