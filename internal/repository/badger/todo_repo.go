// Package badger is an embedded TodoRepository driver. It keeps the table
// layout of the hosted stores: a primary record per (userId, todoId) and a
// createdAt index per user, both maintained in one transaction.
package badger

import (
	"alcyxob/todo-app/internal/domain"
	"alcyxob/todo-app/internal/repository"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

const (
	todoPrefix    = "todo/"
	createdPrefix = "todo-created/"
)

// Options configures the Badger store.
type Options struct {
	// Path to the database directory. Empty means in-memory.
	Path string
}

// Open opens (or creates) a Badger database.
func Open(opts Options) (*badger.DB, error) {
	badgerOpts := badger.DefaultOptions(opts.Path).WithLogger(nil)
	if opts.Path == "" {
		badgerOpts = badgerOpts.WithInMemory(true)
	}

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, fmt.Errorf("open badger db: %w", err)
	}
	return db, nil
}

// badgerTodoRepository implements repository.TodoRepository
type badgerTodoRepository struct {
	db  *badger.DB
	now func() time.Time
}

// NewBadgerTodoRepository creates a new TodoItem repository backed by Badger.
func NewBadgerTodoRepository(db *badger.DB) repository.TodoRepository {
	return &badgerTodoRepository{
		db:  db,
		now: time.Now,
	}
}

// Key segments are path-escaped so "/" only ever appears as a separator.
func primaryKey(userID, todoID string) []byte {
	return []byte(todoPrefix + url.PathEscape(userID) + "/" + url.PathEscape(todoID))
}

func userIndexPrefix(userID string) []byte {
	return []byte(createdPrefix + url.PathEscape(userID) + "/")
}

// indexKey is todo-created/<userId>/<createdAt>/<todoId>.
func indexKey(todo *domain.TodoItem) []byte {
	return append(userIndexPrefix(todo.UserID), []byte(todo.CreatedAt+"/"+url.PathEscape(todo.TodoID))...)
}

func todoIDFromIndexKey(key []byte) (string, error) {
	k := string(key)
	return url.PathUnescape(k[strings.LastIndex(k, "/")+1:])
}

// prefixEnd returns the smallest key greater than every key with prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

func getTodo(txn *badger.Txn, key []byte) (*domain.TodoItem, error) {
	item, err := txn.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	var todo domain.TodoItem
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &todo)
	})
	if err != nil {
		return nil, fmt.Errorf("decode todo: %w", err)
	}
	return &todo, nil
}

func putTodo(txn *badger.Txn, todo *domain.TodoItem) error {
	val, err := json.Marshal(todo)
	if err != nil {
		return fmt.Errorf("encode todo: %w", err)
	}
	return txn.Set(primaryKey(todo.UserID, todo.TodoID), val)
}

// List walks the user's createdAt index backwards and resolves each entry.
func (r *badgerTodoRepository) List(ctx context.Context, userID string) ([]domain.TodoItem, error) {
	todos := []domain.TodoItem{}
	prefix := userIndexPrefix(userID)

	err := r.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.PrefetchValues = false
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefixEnd(prefix)); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			todoID, err := todoIDFromIndexKey(it.Item().Key())
			if err != nil {
				return err
			}

			todo, err := getTodo(txn, primaryKey(userID, todoID))
			if err != nil {
				return err
			}
			todos = append(todos, *todo)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list todos: %w", err)
	}
	return todos, nil
}

// Create stores the record and its index entry, refusing an existing key.
func (r *badgerTodoRepository) Create(ctx context.Context, userID, todoID, name, dueDate string) (*domain.TodoItem, error) {
	todo := &domain.TodoItem{
		UserID:    userID,
		TodoID:    todoID,
		CreatedAt: domain.FormatTimestamp(r.now()),
		Name:      name,
		DueDate:   dueDate,
		Done:      false,
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(primaryKey(userID, todoID))
		if err == nil {
			return repository.ErrAlreadyExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		if err := putTodo(txn, todo); err != nil {
			return err
		}
		return txn.Set(indexKey(todo), nil)
	})
	if err != nil {
		return nil, err
	}
	return todo, nil
}

// Exists reports whether the primary record is present.
func (r *badgerTodoRepository) Exists(ctx context.Context, userID, todoID string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(primaryKey(userID, todoID))
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Update replaces name, dueDate and done. createdAt is untouched, so the
// index entry stays valid.
func (r *badgerTodoRepository) Update(ctx context.Context, userID, todoID string, update domain.TodoUpdate) (*domain.TodoItem, error) {
	return r.modify(userID, todoID, func(todo *domain.TodoItem) {
		todo.Name = update.Name
		todo.DueDate = update.DueDate
		todo.Done = update.Done
	})
}

// Delete removes the record and its index entry.
func (r *badgerTodoRepository) Delete(ctx context.Context, userID, todoID string) (*domain.TodoItem, error) {
	var old *domain.TodoItem
	err := r.db.Update(func(txn *badger.Txn) error {
		todo, err := getTodo(txn, primaryKey(userID, todoID))
		if err != nil {
			return err
		}
		if err := txn.Delete(primaryKey(userID, todoID)); err != nil {
			return err
		}
		old = todo
		return txn.Delete(indexKey(todo))
	})
	if err != nil {
		return nil, err
	}
	return old, nil
}

// SetAttachmentURL sets attachmentUrl, or drops it when url is nil.
func (r *badgerTodoRepository) SetAttachmentURL(ctx context.Context, userID, todoID string, attachmentURL *string) (*domain.TodoItem, error) {
	return r.modify(userID, todoID, func(todo *domain.TodoItem) {
		if attachmentURL == nil {
			todo.AttachmentURL = ""
			return
		}
		todo.AttachmentURL = *attachmentURL
	})
}

func (r *badgerTodoRepository) modify(userID, todoID string, apply func(*domain.TodoItem)) (*domain.TodoItem, error) {
	var updated *domain.TodoItem
	err := r.db.Update(func(txn *badger.Txn) error {
		todo, err := getTodo(txn, primaryKey(userID, todoID))
		if err != nil {
			return err
		}
		apply(todo)
		updated = todo
		return putTodo(txn, todo)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
