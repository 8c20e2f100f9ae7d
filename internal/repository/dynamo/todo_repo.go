package dynamo

import (
	"alcyxob/todo-app/internal/domain"
	"alcyxob/todo-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBClient is the subset of the DynamoDB API the repository uses.
// It allows tests to run without AWS infrastructure.
type DynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

var _ DynamoDBClient = (*dynamodb.Client)(nil)

// TableConfig names the table and the createdAt index.
type TableConfig struct {
	TableName      string
	CreatedAtIndex string
}

// dynamoTodoRepository implements repository.TodoRepository on a table keyed
// by userId (hash) and todoId (range), with a local secondary index on createdAt.
type dynamoTodoRepository struct {
	client DynamoDBClient
	table  TableConfig
	now    func() time.Time
}

// NewDynamoTodoRepository creates a new TodoItem repository backed by DynamoDB.
func NewDynamoTodoRepository(client DynamoDBClient, table TableConfig) repository.TodoRepository {
	return &dynamoTodoRepository{
		client: client,
		table:  table,
		now:    time.Now,
	}
}

func itemKey(userID, todoID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"userId": &types.AttributeValueMemberS{Value: userID},
		"todoId": &types.AttributeValueMemberS{Value: todoID},
	}
}

func isConditionCheckFailed(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

// List queries the createdAt index in reverse so the newest item comes first.
// All pages are read; the result is unbounded.
func (r *dynamoTodoRepository) List(ctx context.Context, userID string) ([]domain.TodoItem, error) {
	keyCond := expression.Key("userId").Equal(expression.Value(userID))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("build query expression: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(r.table.TableName),
		IndexName:                 aws.String(r.table.CreatedAtIndex),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	}

	todos := []domain.TodoItem{}
	paginator := dynamodb.NewQueryPaginator(r.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("query todos: %w", err)
		}

		var items []domain.TodoItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal todos: %w", err)
		}
		todos = append(todos, items...)
	}
	return todos, nil
}

// Create puts a new item guarded by attribute_not_exists so an existing key
// is never overwritten.
func (r *dynamoTodoRepository) Create(ctx context.Context, userID, todoID, name, dueDate string) (*domain.TodoItem, error) {
	todo := &domain.TodoItem{
		UserID:    userID,
		TodoID:    todoID,
		CreatedAt: domain.FormatTimestamp(r.now()),
		Name:      name,
		DueDate:   dueDate,
		Done:      false,
	}

	item, err := attributevalue.MarshalMap(todo)
	if err != nil {
		return nil, fmt.Errorf("marshal todo: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name("todoId"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("build put condition: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.table.TableName),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionCheckFailed(err) {
			return nil, repository.ErrAlreadyExists
		}
		return nil, fmt.Errorf("put todo: %w", err)
	}
	return todo, nil
}

// Exists fetches only the key attribute.
func (r *dynamoTodoRepository) Exists(ctx context.Context, userID, todoID string) (bool, error) {
	proj := expression.NamesList(expression.Name("todoId"))
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return false, fmt.Errorf("build projection: %w", err)
	}

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(r.table.TableName),
		Key:                      itemKey(userID, todoID),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return false, fmt.Errorf("get todo: %w", err)
	}
	return len(result.Item) > 0, nil
}

// Update sets name, dueDate and done on an existing item.
func (r *dynamoTodoRepository) Update(ctx context.Context, userID, todoID string, update domain.TodoUpdate) (*domain.TodoItem, error) {
	upd := expression.Set(expression.Name("name"), expression.Value(update.Name)).
		Set(expression.Name("dueDate"), expression.Value(update.DueDate)).
		Set(expression.Name("done"), expression.Value(update.Done))
	return r.updateExisting(ctx, userID, todoID, upd)
}

// Delete removes the item and returns its old attributes.
func (r *dynamoTodoRepository) Delete(ctx context.Context, userID, todoID string) (*domain.TodoItem, error) {
	result, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.table.TableName),
		Key:          itemKey(userID, todoID),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return nil, fmt.Errorf("delete todo: %w", err)
	}
	if len(result.Attributes) == 0 {
		return nil, repository.ErrNotFound
	}

	var todo domain.TodoItem
	if err := attributevalue.UnmarshalMap(result.Attributes, &todo); err != nil {
		return nil, fmt.Errorf("unmarshal todo: %w", err)
	}
	return &todo, nil
}

// SetAttachmentURL uses SET for a value and REMOVE for nil.
func (r *dynamoTodoRepository) SetAttachmentURL(ctx context.Context, userID, todoID string, url *string) (*domain.TodoItem, error) {
	var upd expression.UpdateBuilder
	if url == nil {
		upd = expression.Remove(expression.Name("attachmentUrl"))
	} else {
		upd = expression.Set(expression.Name("attachmentUrl"), expression.Value(*url))
	}
	return r.updateExisting(ctx, userID, todoID, upd)
}

// updateExisting applies upd only when the item exists; UpdateItem would
// otherwise create a partial record.
func (r *dynamoTodoRepository) updateExisting(ctx context.Context, userID, todoID string, upd expression.UpdateBuilder) (*domain.TodoItem, error) {
	cond := expression.AttributeExists(expression.Name("todoId"))
	expr, err := expression.NewBuilder().WithUpdate(upd).WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("build update expression: %w", err)
	}

	result, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table.TableName),
		Key:                       itemKey(userID, todoID),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if err != nil {
		if isConditionCheckFailed(err) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("update todo: %w", err)
	}

	var todo domain.TodoItem
	if err := attributevalue.UnmarshalMap(result.Attributes, &todo); err != nil {
		return nil, fmt.Errorf("unmarshal todo: %w", err)
	}
	return &todo, nil
}
