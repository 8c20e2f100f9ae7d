package api

import (
	"log/slog"
	"net/http"

	"alcyxob/todo-app/internal/domain"
	"alcyxob/todo-app/internal/service"

	"github.com/gin-gonic/gin"
)

// TodoHandler holds the to-do service dependency.
type TodoHandler struct {
	todoService service.TodoService
	logger      *slog.Logger
}

// NewTodoHandler creates a new TodoHandler.
func NewTodoHandler(todoService service.TodoService, logger *slog.Logger) *TodoHandler {
	return &TodoHandler{todoService: todoService, logger: logger}
}

// --- DTOs for API (Data Transfer Objects) ---

// CreateTodoRequest defines the expected JSON for creating an item.
type CreateTodoRequest struct {
	Name    string `json:"name" binding:"required"`
	DueDate string `json:"dueDate" binding:"required"`
}

// UpdateTodoRequest defines the expected JSON for updating an item.
// All three fields are replaced; Done is a pointer so that false is
// distinguishable from absent.
type UpdateTodoRequest struct {
	Name    string `json:"name" binding:"required"`
	DueDate string `json:"dueDate" binding:"required"`
	Done    *bool  `json:"done" binding:"required"`
}

// TodoListResponse wraps the caller's items.
type TodoListResponse struct {
	Items []domain.TodoItem `json:"items"`
}

// TodoResponse wraps a single item.
type TodoResponse struct {
	Item *domain.TodoItem `json:"item"`
}

// UploadURLResponse carries a presigned attachment upload URL.
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
}

// --- Handler Methods ---

// GetTodos godoc
// @Summary List the caller's to-do items, newest first
// @Tags Todos
// @Produce json
// @Security BearerAuth
// @Success 200 {object} TodoListResponse
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /todos [get]
func (h *TodoHandler) GetTodos(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	todos, err := h.todoService.ListTodos(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}
	if todos == nil {
		todos = []domain.TodoItem{}
	}

	c.JSON(http.StatusOK, TodoListResponse{Items: todos})
}

// CreateTodo godoc
// @Summary Create a to-do item
// @Tags Todos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param todo body CreateTodoRequest true "Item details"
// @Success 201 {object} TodoResponse
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Router /todos [post]
func (h *TodoHandler) CreateTodo(c *gin.Context) {
	var req CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	item, err := h.todoService.CreateTodo(c.Request.Context(), userID, service.CreateTodoRequest{
		Name:    req.Name,
		DueDate: req.DueDate,
	})
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, TodoResponse{Item: item})
}

// UpdateTodo godoc
// @Summary Replace name, dueDate and done of an item
// @Tags Todos
// @Accept json
// @Security BearerAuth
// @Param todoId path string true "Item ID"
// @Param todo body UpdateTodoRequest true "New values"
// @Success 200
// @Failure 404 {object} gin.H "Item not found"
// @Router /todos/{todoId} [patch]
func (h *TodoHandler) UpdateTodo(c *gin.Context) {
	var req UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	err = h.todoService.UpdateTodo(c.Request.Context(), userID, c.Param("todoId"), service.UpdateTodoRequest{
		Name:    req.Name,
		DueDate: req.DueDate,
		Done:    *req.Done,
	})
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.Status(http.StatusOK)
}

// DeleteTodo godoc
// @Summary Delete an item and its attachment
// @Tags Todos
// @Security BearerAuth
// @Param todoId path string true "Item ID"
// @Success 200
// @Router /todos/{todoId} [delete]
func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	if err := h.todoService.DeleteTodo(c.Request.Context(), userID, c.Param("todoId")); err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.Status(http.StatusOK)
}

// CreateAttachmentUploadURL godoc
// @Summary Get a presigned URL the client PUTs the image to
// @Tags Todos
// @Produce json
// @Security BearerAuth
// @Param todoId path string true "Item ID"
// @Success 200 {object} UploadURLResponse
// @Failure 404 {object} gin.H "Item not found"
// @Router /todos/{todoId}/attachment [post]
func (h *TodoHandler) CreateAttachmentUploadURL(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	uploadURL, err := h.todoService.CreateAttachmentUploadURL(c.Request.Context(), userID, c.Param("todoId"))
	if err != nil {
		respondWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, UploadURLResponse{UploadURL: uploadURL})
}
