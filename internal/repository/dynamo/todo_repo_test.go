package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/todo-app/internal/domain"
	"alcyxob/todo-app/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClient records inputs and returns canned outputs.
type fakeClient struct {
	putInput    *dynamodb.PutItemInput
	putErr      error
	getInput    *dynamodb.GetItemInput
	getOutput   *dynamodb.GetItemOutput
	updateInput *dynamodb.UpdateItemInput
	updateOut   *dynamodb.UpdateItemOutput
	updateErr   error
	deleteInput *dynamodb.DeleteItemInput
	deleteOut   *dynamodb.DeleteItemOutput
	queryInputs []*dynamodb.QueryInput
	queryPages  []*dynamodb.QueryOutput
}

func (f *fakeClient) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.putInput = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeClient) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.getInput = in
	return f.getOutput, nil
}

func (f *fakeClient) UpdateItem(_ context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	f.updateInput = in
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.updateOut, nil
}

func (f *fakeClient) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.deleteInput = in
	return f.deleteOut, nil
}

func (f *fakeClient) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.queryInputs = append(f.queryInputs, in)
	page := f.queryPages[len(f.queryInputs)-1]
	return page, nil
}

var testTable = TableConfig{TableName: "Todos", CreatedAtIndex: "CreatedAtIndex"}

func newTestRepo(client *fakeClient) *dynamoTodoRepository {
	return &dynamoTodoRepository{
		client: client,
		table:  testTable,
		now:    func() time.Time { return time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC) },
	}
}

func marshalTodo(t *testing.T, todo domain.TodoItem) map[string]types.AttributeValue {
	t.Helper()
	item, err := attributevalue.MarshalMap(todo)
	require.NoError(t, err)
	return item
}

func TestDynamoTodoRepository_Create(t *testing.T) {
	t.Run("puts with not-exists condition", func(t *testing.T) {
		client := &fakeClient{}
		repo := newTestRepo(client)

		todo, err := repo.Create(context.Background(), "u1", "t1", "Buy milk", "2024-01-01")
		require.NoError(t, err)
		assert.Equal(t, "2024-01-01T08:00:00.000Z", todo.CreatedAt)
		assert.False(t, todo.Done)

		require.NotNil(t, client.putInput)
		assert.Equal(t, "Todos", aws.ToString(client.putInput.TableName))
		assert.Contains(t, aws.ToString(client.putInput.ConditionExpression), "attribute_not_exists")
		assert.Equal(t, &types.AttributeValueMemberS{Value: "u1"}, client.putInput.Item["userId"])
		assert.Equal(t, &types.AttributeValueMemberBOOL{Value: false}, client.putInput.Item["done"])
		assert.NotContains(t, client.putInput.Item, "attachmentUrl")
	})

	t.Run("existing key", func(t *testing.T) {
		client := &fakeClient{putErr: &types.ConditionalCheckFailedException{Message: aws.String("exists")}}
		repo := newTestRepo(client)

		_, err := repo.Create(context.Background(), "u1", "t1", "Buy milk", "2024-01-01")
		assert.ErrorIs(t, err, repository.ErrAlreadyExists)
	})

	t.Run("transport failure is wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		repo := newTestRepo(&fakeClient{putErr: boom})

		_, err := repo.Create(context.Background(), "u1", "t1", "Buy milk", "2024-01-01")
		assert.ErrorIs(t, err, boom)
	})
}

func TestDynamoTodoRepository_List(t *testing.T) {
	first := domain.TodoItem{UserID: "u1", TodoID: "t2", CreatedAt: "2024-01-02T00:00:00.000Z", Name: "newer"}
	second := domain.TodoItem{UserID: "u1", TodoID: "t1", CreatedAt: "2024-01-01T00:00:00.000Z", Name: "older"}

	client := &fakeClient{queryPages: []*dynamodb.QueryOutput{
		{
			Items:            []map[string]types.AttributeValue{marshalTodo(t, first)},
			LastEvaluatedKey: map[string]types.AttributeValue{"userId": &types.AttributeValueMemberS{Value: "u1"}},
		},
		{
			Items: []map[string]types.AttributeValue{marshalTodo(t, second)},
		},
	}}
	repo := newTestRepo(client)

	todos, err := repo.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, todos, 2)
	assert.Equal(t, "t2", todos[0].TodoID)
	assert.Equal(t, "t1", todos[1].TodoID)

	require.Len(t, client.queryInputs, 2)
	in := client.queryInputs[0]
	assert.Equal(t, "CreatedAtIndex", aws.ToString(in.IndexName))
	assert.False(t, aws.ToBool(in.ScanIndexForward))
	assert.NotNil(t, client.queryInputs[1].ExclusiveStartKey)
}

func TestDynamoTodoRepository_Exists(t *testing.T) {
	client := &fakeClient{getOutput: &dynamodb.GetItemOutput{}}
	repo := newTestRepo(client)

	ok, err := repo.Exists(context.Background(), "u1", "t1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "t1"}, client.getInput.Key["todoId"])

	client.getOutput = &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		"todoId": &types.AttributeValueMemberS{Value: "t1"},
	}}
	ok, err = repo.Exists(context.Background(), "u1", "t1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDynamoTodoRepository_Update(t *testing.T) {
	t.Run("returns new values", func(t *testing.T) {
		updated := domain.TodoItem{UserID: "u1", TodoID: "t1", CreatedAt: "2024-01-01T00:00:00.000Z", Name: "Buy oat milk", DueDate: "2024-02-01", Done: true}
		client := &fakeClient{updateOut: &dynamodb.UpdateItemOutput{Attributes: marshalTodo(t, updated)}}
		repo := newTestRepo(client)

		todo, err := repo.Update(context.Background(), "u1", "t1", domain.TodoUpdate{Name: "Buy oat milk", DueDate: "2024-02-01", Done: true})
		require.NoError(t, err)
		assert.Equal(t, updated, *todo)

		in := client.updateInput
		assert.Equal(t, types.ReturnValueAllNew, in.ReturnValues)
		assert.Contains(t, aws.ToString(in.UpdateExpression), "SET")
		assert.Contains(t, aws.ToString(in.ConditionExpression), "attribute_exists")
	})

	t.Run("missing item", func(t *testing.T) {
		client := &fakeClient{updateErr: &types.ConditionalCheckFailedException{Message: aws.String("missing")}}
		repo := newTestRepo(client)

		_, err := repo.Update(context.Background(), "u1", "t1", domain.TodoUpdate{Name: "x", DueDate: "2024-01-01"})
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}

func TestDynamoTodoRepository_SetAttachmentURL(t *testing.T) {
	current := domain.TodoItem{UserID: "u1", TodoID: "t1", CreatedAt: "2024-01-01T00:00:00.000Z", Name: "Buy milk"}
	client := &fakeClient{updateOut: &dynamodb.UpdateItemOutput{Attributes: marshalTodo(t, current)}}
	repo := newTestRepo(client)

	_, err := repo.SetAttachmentURL(context.Background(), "u1", "t1", nil)
	require.NoError(t, err)
	assert.Contains(t, aws.ToString(client.updateInput.UpdateExpression), "REMOVE")
	assert.Empty(t, client.updateInput.ExpressionAttributeValues)

	url := "https://bucket.s3.amazonaws.com/t1"
	_, err = repo.SetAttachmentURL(context.Background(), "u1", "t1", &url)
	require.NoError(t, err)
	assert.Contains(t, aws.ToString(client.updateInput.UpdateExpression), "SET")
}

func TestDynamoTodoRepository_Delete(t *testing.T) {
	t.Run("returns old item", func(t *testing.T) {
		old := domain.TodoItem{UserID: "u1", TodoID: "t1", CreatedAt: "2024-01-01T00:00:00.000Z", Name: "Buy milk"}
		client := &fakeClient{deleteOut: &dynamodb.DeleteItemOutput{Attributes: marshalTodo(t, old)}}
		repo := newTestRepo(client)

		todo, err := repo.Delete(context.Background(), "u1", "t1")
		require.NoError(t, err)
		assert.Equal(t, "Buy milk", todo.Name)
		assert.Equal(t, types.ReturnValueAllOld, client.deleteInput.ReturnValues)
	})

	t.Run("missing item", func(t *testing.T) {
		repo := newTestRepo(&fakeClient{deleteOut: &dynamodb.DeleteItemOutput{}})

		_, err := repo.Delete(context.Background(), "u1", "t1")
		assert.ErrorIs(t, err, repository.ErrNotFound)
	})
}
