package service

import (
	"alcyxob/todo-app/internal/domain"
	"alcyxob/todo-app/internal/repository" // Import repository package
	"alcyxob/todo-app/internal/storage"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// --- Error Definitions ---
var (
	ErrTodoNotFound     = errors.New("todo item not found")
	ErrValidationFailed = errors.New("todo validation failed")
)

// CreateTodoRequest carries the caller-supplied fields of a new item.
type CreateTodoRequest struct {
	Name    string
	DueDate string
}

// UpdateTodoRequest carries the replacement values of the mutable fields.
type UpdateTodoRequest struct {
	Name    string
	DueDate string
	Done    bool
}

// --- Service Interface ---
type TodoService interface {
	ListTodos(ctx context.Context, userID string) ([]domain.TodoItem, error)
	CreateTodo(ctx context.Context, userID string, req CreateTodoRequest) (*domain.TodoItem, error)
	UpdateTodo(ctx context.Context, userID, todoID string, req UpdateTodoRequest) error
	DeleteTodo(ctx context.Context, userID, todoID string) error
	CreateAttachmentUploadURL(ctx context.Context, userID, todoID string) (string, error)
	UpdateAttachmentURL(ctx context.Context, userID, todoID string, url *string) error
}

// --- Service Implementation ---

// todoService implements the TodoService interface.
type todoService struct {
	todoRepo    repository.TodoRepository
	attachments storage.AttachmentStorage
	logger      *slog.Logger
	newID       func() string
}

// NewTodoService creates a new instance of todoService.
func NewTodoService(todoRepo repository.TodoRepository, attachments storage.AttachmentStorage, logger *slog.Logger) TodoService {
	return &todoService{
		todoRepo:    todoRepo,
		attachments: attachments,
		logger:      logger.With("component", "todos"),
		newID:       uuid.NewString,
	}
}

// ListTodos returns the caller's items, newest first.
func (s *todoService) ListTodos(ctx context.Context, userID string) ([]domain.TodoItem, error) {
	s.logger.Info("list todos", "userId", userID)
	return s.todoRepo.List(ctx, userID)
}

// CreateTodo validates the request and stores a new item under a fresh id.
func (s *todoService) CreateTodo(ctx context.Context, userID string, req CreateTodoRequest) (*domain.TodoItem, error) {
	name, dueDate, err := validateFields(req.Name, req.DueDate)
	if err != nil {
		return nil, err
	}

	todoID := s.newID()
	s.logger.Info("create todo", "userId", userID, "todoId", todoID)

	return s.todoRepo.Create(ctx, userID, todoID, name, dueDate)
}

// UpdateTodo replaces name, dueDate and done. Existence is checked by the
// repository, which refuses to create a record on update.
func (s *todoService) UpdateTodo(ctx context.Context, userID, todoID string, req UpdateTodoRequest) error {
	name, dueDate, err := validateFields(req.Name, req.DueDate)
	if err != nil {
		return err
	}

	s.logger.Info("update todo", "userId", userID, "todoId", todoID, "done", req.Done)

	_, err = s.todoRepo.Update(ctx, userID, todoID, domain.TodoUpdate{
		Name:    name,
		DueDate: dueDate,
		Done:    req.Done,
	})
	return mapRepoError(err)
}

// DeleteTodo removes the record and its attachment object concurrently.
// Both deletions are always attempted; neither cancels the other.
// A record that is already gone is not an error.
func (s *todoService) DeleteTodo(ctx context.Context, userID, todoID string) error {
	s.logger.Info("delete todo", "userId", userID, "todoId", todoID)

	var g errgroup.Group
	g.Go(func() error {
		_, err := s.todoRepo.Delete(ctx, userID, todoID)
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug("todo already deleted", "userId", userID, "todoId", todoID)
			return nil
		}
		return err
	})
	g.Go(func() error {
		return s.attachments.DeleteObject(ctx, userID, todoID)
	})
	return g.Wait()
}

// CreateAttachmentUploadURL issues a presigned upload URL for an item the
// caller owns. Exists is scoped by userID, so another user's item is
// indistinguishable from a missing one.
func (s *todoService) CreateAttachmentUploadURL(ctx context.Context, userID, todoID string) (string, error) {
	s.logger.Info("create attachment upload url", "userId", userID, "todoId", todoID)

	exists, err := s.todoRepo.Exists(ctx, userID, todoID)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", ErrTodoNotFound
	}

	return s.attachments.UploadURL(ctx, userID, todoID)
}

// UpdateAttachmentURL sets or clears the attachment link. Called by the
// storage notification handler only.
func (s *todoService) UpdateAttachmentURL(ctx context.Context, userID, todoID string, url *string) error {
	s.logger.Info("update attachment url", "userId", userID, "todoId", todoID, "clear", url == nil)

	_, err := s.todoRepo.SetAttachmentURL(ctx, userID, todoID, url)
	return mapRepoError(err)
}

func mapRepoError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTodoNotFound
	}
	return err
}

// validateFields trims and checks name and dueDate. dueDate is either a
// calendar date or an RFC 3339 timestamp.
func validateFields(name, dueDate string) (string, string, error) {
	name = strings.TrimSpace(name)
	dueDate = strings.TrimSpace(dueDate)

	if name == "" {
		return "", "", fmt.Errorf("%w: name is required", ErrValidationFailed)
	}
	if dueDate == "" {
		return "", "", fmt.Errorf("%w: dueDate is required", ErrValidationFailed)
	}
	if _, err := time.Parse(domain.DueDateLayout, dueDate); err != nil {
		if _, err := time.Parse(time.RFC3339, dueDate); err != nil {
			return "", "", fmt.Errorf("%w: dueDate %q is not a date", ErrValidationFailed, dueDate)
		}
	}
	return name, dueDate, nil
}
