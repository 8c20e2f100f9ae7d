package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"alcyxob/todo-app/internal/domain"
	"alcyxob/todo-app/internal/service"
	"alcyxob/todo-app/internal/storage"

	"github.com/gin-gonic/gin"
)

// StorageEventHandler links uploaded attachments to their items when the
// object store reports a completed upload.
type StorageEventHandler struct {
	todoService service.TodoService
	attachments storage.AttachmentStorage
	logger      *slog.Logger
}

// NewStorageEventHandler creates a new StorageEventHandler.
func NewStorageEventHandler(todoService service.TodoService, attachments storage.AttachmentStorage, logger *slog.Logger) *StorageEventHandler {
	return &StorageEventHandler{
		todoService: todoService,
		attachments: attachments,
		logger:      logger.With("component", "storage-events"),
	}
}

// HandleEvent processes an S3 event notification. Records whose object
// carries no owner metadata, or whose item no longer exists, are skipped.
// Any other failure is reported as 500 so the notifier retries.
// @Router /events/storage [post]
func (h *StorageEventHandler) HandleEvent(c *gin.Context) {
	var event domain.StorageEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid event payload: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	for _, record := range event.ObjectRecords() {
		if record.EventName != "" && !strings.Contains(record.EventName, "ObjectCreated") {
			h.logger.Debug("ignoring event", "event", record.EventName)
			continue
		}

		todoID, err := url.QueryUnescape(record.S3.Object.Key)
		if err != nil || todoID == "" {
			h.logger.Warn("ignoring record with invalid key", "key", record.S3.Object.Key)
			continue
		}

		meta, err := h.attachments.HeadObject(ctx, todoID)
		if errors.Is(err, storage.ErrObjectNotFound) {
			h.logger.Warn("uploaded object no longer exists", "todoId", todoID)
			continue
		}
		if err != nil {
			h.logger.Error("failed to read object metadata", "todoId", todoID, "error", err)
			abortWithError(c, http.StatusInternalServerError, "Failed to read object metadata")
			return
		}

		userID, ok := meta.UserID()
		if !ok {
			h.logger.Warn("object has no owner metadata, not linking", "todoId", todoID)
			continue
		}

		attachmentURL := h.attachments.PublicURL(userID, todoID)
		err = h.todoService.UpdateAttachmentURL(ctx, userID, todoID, &attachmentURL)
		if errors.Is(err, service.ErrTodoNotFound) {
			h.logger.Warn("attachment uploaded for missing item", "userId", userID, "todoId", todoID)
			continue
		}
		if err != nil {
			h.logger.Error("failed to link attachment", "userId", userID, "todoId", todoID, "error", err)
			abortWithError(c, http.StatusInternalServerError, "Failed to link attachment")
			return
		}

		h.logger.Info("attachment linked", "userId", userID, "todoId", todoID)
	}

	c.Status(http.StatusNoContent)
}
