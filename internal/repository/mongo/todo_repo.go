package mongo

import (
	"alcyxob/todo-app/internal/domain"
	"alcyxob/todo-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const todoCollectionName = "todos"

// mongoTodoRepository implements repository.TodoRepository
type mongoTodoRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewMongoTodoRepository creates a new TodoItem repository backed by MongoDB.
func NewMongoTodoRepository(db *mongo.Database) repository.TodoRepository {
	return &mongoTodoRepository{
		collection: db.Collection(todoCollectionName),
		now:        time.Now,
	}
}

func keyFilter(userID, todoID string) bson.M {
	return bson.M{"userId": userID, "todoId": todoID}
}

// List retrieves every item owned by userID, newest first.
func (r *mongoTodoRepository) List(ctx context.Context, userID string) ([]domain.TodoItem, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("find todos: %w", err)
	}
	defer cursor.Close(ctx)

	todos := []domain.TodoItem{}
	if err = cursor.All(ctx, &todos); err != nil {
		return nil, fmt.Errorf("decode todos: %w", err)
	}
	return todos, nil
}

// Create inserts a new item. The unique (userId, todoId) index turns a key
// collision into a duplicate key error.
func (r *mongoTodoRepository) Create(ctx context.Context, userID, todoID, name, dueDate string) (*domain.TodoItem, error) {
	if userID == "" || todoID == "" {
		return nil, errors.New("todo requires userId and todoId")
	}

	todo := &domain.TodoItem{
		UserID:    userID,
		TodoID:    todoID,
		CreatedAt: domain.FormatTimestamp(r.now()),
		Name:      name,
		DueDate:   dueDate,
		Done:      false,
	}

	if _, err := r.collection.InsertOne(ctx, todo); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, repository.ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert todo: %w", err)
	}
	return todo, nil
}

// Exists reports whether the item is present for this user.
func (r *mongoTodoRepository) Exists(ctx context.Context, userID, todoID string) (bool, error) {
	opts := options.FindOne().SetProjection(bson.M{"_id": 1})

	err := r.collection.FindOne(ctx, keyFilter(userID, todoID), opts).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("find todo: %w", err)
	}
	return true, nil
}

// Update replaces the mutable fields. Upsert stays disabled so a missing
// item is reported instead of being created half-populated.
func (r *mongoTodoRepository) Update(ctx context.Context, userID, todoID string, update domain.TodoUpdate) (*domain.TodoItem, error) {
	change := bson.M{
		"$set": bson.M{
			"name":    update.Name,
			"dueDate": update.DueDate,
			"done":    update.Done,
			// userId, todoId and createdAt are never part of an update
		},
	}
	return r.findOneAndUpdate(ctx, userID, todoID, change)
}

// Delete removes the item and returns the document as it was before removal.
func (r *mongoTodoRepository) Delete(ctx context.Context, userID, todoID string) (*domain.TodoItem, error) {
	var todo domain.TodoItem

	err := r.collection.FindOneAndDelete(ctx, keyFilter(userID, todoID)).Decode(&todo)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("delete todo: %w", err)
	}
	return &todo, nil
}

// SetAttachmentURL sets or unsets attachmentUrl.
func (r *mongoTodoRepository) SetAttachmentURL(ctx context.Context, userID, todoID string, url *string) (*domain.TodoItem, error) {
	var change bson.M
	if url == nil {
		change = bson.M{"$unset": bson.M{"attachmentUrl": ""}}
	} else {
		change = bson.M{"$set": bson.M{"attachmentUrl": *url}}
	}
	return r.findOneAndUpdate(ctx, userID, todoID, change)
}

func (r *mongoTodoRepository) findOneAndUpdate(ctx context.Context, userID, todoID string, change bson.M) (*domain.TodoItem, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var todo domain.TodoItem
	err := r.collection.FindOneAndUpdate(ctx, keyFilter(userID, todoID), change, opts).Decode(&todo)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update todo: %w", err)
	}
	return &todo, nil
}

// EnsureTodoIndexes creates necessary indexes for the todos collection.
func EnsureTodoIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			// Primary key: one item per (userId, todoId)
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "todoId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("todo_key"),
		},
		{
			// Chronological listing per user, newest first
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("todo_created_at"),
		},
	}

	if _, err := collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("create indexes for collection %s: %w", collection.Name(), err)
	}
	return nil
}

// TodoCollection returns the collection used by the repository, for index setup.
func TodoCollection(db *mongo.Database) *mongo.Collection {
	return db.Collection(todoCollectionName)
}
