package api

import (
	"log/slog"
	"net/http"

	"alcyxob/todo-app/internal/config"
	"alcyxob/todo-app/internal/service"
	"alcyxob/todo-app/internal/storage"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtCfg config.JWTConfig,
	eventsCfg config.EventsConfig,
	todoService service.TodoService,
	attachments storage.AttachmentStorage,
	logger *slog.Logger,
) {
	todoHandler := NewTodoHandler(todoService, logger)
	eventHandler := NewStorageEventHandler(todoService, attachments, logger)

	router.Use(CORSMiddleware())

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Object store notifications (S3 event / MinIO webhook)
	router.POST("/events/storage", EventAuthMiddleware(eventsCfg.AuthToken), eventHandler.HandleEvent)

	apiV1 := router.Group("/api/v1")
	apiV1.Use(AuthMiddleware(jwtCfg))
	{
		todoGroup := apiV1.Group("/todos")
		{
			todoGroup.GET("", todoHandler.GetTodos)
			todoGroup.POST("", todoHandler.CreateTodo)
			todoGroup.PATCH("/:todoId", todoHandler.UpdateTodo)
			todoGroup.DELETE("/:todoId", todoHandler.DeleteTodo)
			todoGroup.POST("/:todoId/attachment", todoHandler.CreateAttachmentUploadURL)
		}
	}
}
