package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/taskboard/internal/domain"
	"github.com/ErlanBelekov/taskboard/internal/metrics"
	"github.com/ErlanBelekov/taskboard/internal/transport/http/middleware"
	"github.com/ErlanBelekov/taskboard/internal/usecase"
	"github.com/gin-gonic/gin"
)

type taskUsecaser interface {
	CreateTask(ctx context.Context, input usecase.CreateTaskInput) (*domain.Task, error)
	GetTask(ctx context.Context, taskID, userID string) (*domain.Task, error)
	UpdateTask(ctx context.Context, taskID, userID string, input usecase.UpdateTaskInput) (*domain.Task, error)
	DeleteTask(ctx context.Context, taskID, userID string) error
	ListTasks(ctx context.Context, userID string, params usecase.ListTasksParams) (*usecase.ListTasksResult, error)
	TaskStats(ctx context.Context, userID string) (*usecase.TaskStatsResult, error)
}

type TaskHandler struct {
	taskUsecase taskUsecaser
	logger      *slog.Logger
}

func NewTaskHandler(taskUsecase taskUsecaser, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{taskUsecase: taskUsecase, logger: logger.With("component", "task_handler")}
}

type taskResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Status      domain.Status   `json:"status"`
	Priority    domain.Priority `json:"priority"`
	DueDate     *time.Time      `json:"dueDate,omitempty"`
	Tags        []string        `json:"tags"`
	User        string          `json:"user"`
	IsCompleted bool            `json:"isCompleted"`
	CompletedAt *time.Time      `json:"completedAt,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func newTaskResponse(t *domain.Task) taskResponse {
	tags := t.Tags
	if tags == nil {
		tags = []string{}
	}
	return taskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		Priority:    t.Priority,
		DueDate:     t.DueDate,
		Tags:        tags,
		User:        t.UserID,
		IsCompleted: t.IsCompleted,
		CompletedAt: t.CompletedAt,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func newTaskListResponse(tasks []*domain.Task) []taskResponse {
	out := make([]taskResponse, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, newTaskResponse(t))
	}
	return out
}

type pageRef struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

type paginationResponse struct {
	Next *pageRef `json:"next,omitempty"`
	Prev *pageRef `json:"prev,omitempty"`
}

// GET /tasks
func (h *TaskHandler) List(c *gin.Context) {
	user := middleware.UserFromContext(c)

	result, err := h.taskUsecase.ListTasks(c.Request.Context(), user.ID, usecase.ListTasksParams{
		Status:   c.Query("status"),
		Priority: c.Query("priority"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
		Page:     c.Query("page"),
		Limit:    c.Query("limit"),
	})
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "list tasks", "error", err)
		respondError(c, http.StatusInternalServerError, errInternalServer)
		return
	}

	pagination := paginationResponse{}
	if n := result.Pagination.Next; n != nil {
		pagination.Next = &pageRef{Page: n.Page, Limit: n.Limit}
	}
	if p := result.Pagination.Prev; p != nil {
		pagination.Prev = &pageRef{Page: p.Page, Limit: p.Limit}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"count":      len(result.Tasks),
		"total":      result.Total,
		"pagination": pagination,
		"data":       newTaskListResponse(result.Tasks),
	})
}

// GET /tasks/:id
func (h *TaskHandler) GetByID(c *gin.Context) {
	user := middleware.UserFromContext(c)
	taskID := c.Param("id")

	task, err := h.taskUsecase.GetTask(c.Request.Context(), taskID, user.ID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			respondError(c, http.StatusNotFound, errTaskNotFound)
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "get task", "task_id", taskID, "error", err)
		respondError(c, http.StatusInternalServerError, errInternalServer)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "data": newTaskResponse(task)})
}

type createTaskRequest struct {
	Title       string          `json:"title" binding:"required"`
	Description string          `json:"description"`
	Status      domain.Status   `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority    domain.Priority `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     *time.Time      `json:"dueDate"`
	Tags        []string        `json:"tags"`
}

// POST /tasks
func (h *TaskHandler) Create(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Task title is required")
		return
	}

	user := middleware.UserFromContext(c)
	task, err := h.taskUsecase.CreateTask(c.Request.Context(), usecase.CreateTaskInput{
		UserID:      user.ID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			respondError(c, http.StatusBadRequest, inputMessage(err))
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "create task", "error", err)
		respondError(c, http.StatusInternalServerError, errInternalServer)
		return
	}

	metrics.TasksCreatedTotal.Inc()
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Task created successfully",
		"data":    newTaskResponse(task),
	})
}

// nullableTime distinguishes JSON null (clear the value) from an absent
// field (leave it unchanged), which encoding/json alone cannot express.
type nullableTime struct {
	set   bool
	value *time.Time
}

func (n *nullableTime) UnmarshalJSON(b []byte) error {
	n.set = true
	if string(b) == "null" {
		n.value = nil
		return nil
	}
	return json.Unmarshal(b, &n.value)
}

type updateTaskRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Status      *domain.Status   `json:"status" binding:"omitempty,oneof=pending in-progress completed"`
	Priority    *domain.Priority `json:"priority" binding:"omitempty,oneof=low medium high"`
	DueDate     nullableTime     `json:"dueDate"`
	Tags        *[]string        `json:"tags"`
}

// PUT /tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	user := middleware.UserFromContext(c)
	taskID := c.Param("id")

	task, err := h.taskUsecase.UpdateTask(c.Request.Context(), taskID, user.ID, usecase.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate.value,
		SetDueDate:  req.DueDate.set,
		Tags:        req.Tags,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrTaskNotFound):
			respondError(c, http.StatusNotFound, errTaskNotFound)
		case errors.Is(err, domain.ErrInvalidInput):
			respondError(c, http.StatusBadRequest, inputMessage(err))
		default:
			h.logger.ErrorContext(c.Request.Context(), "update task", "task_id", taskID, "error", err)
			respondError(c, http.StatusInternalServerError, errInternalServer)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task updated successfully",
		"data":    newTaskResponse(task),
	})
}

// DELETE /tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	user := middleware.UserFromContext(c)
	taskID := c.Param("id")

	if err := h.taskUsecase.DeleteTask(c.Request.Context(), taskID, user.ID); err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			respondError(c, http.StatusNotFound, errTaskNotFound)
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "delete task", "task_id", taskID, "error", err)
		respondError(c, http.StatusInternalServerError, errInternalServer)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task deleted successfully",
	})
}

type statusCount struct {
	Status domain.Status `json:"status"`
	Count  int           `json:"count"`
}

type priorityCount struct {
	Priority domain.Priority `json:"priority"`
	Count    int             `json:"count"`
}

// GET /tasks/stats
//
// Every enumerated status and priority is present in the response,
// zero-filled when the user has no matching tasks.
func (h *TaskHandler) Stats(c *gin.Context) {
	user := middleware.UserFromContext(c)

	stats, err := h.taskUsecase.TaskStats(c.Request.Context(), user.ID)
	if err != nil {
		h.logger.ErrorContext(c.Request.Context(), "task stats", "error", err)
		respondError(c, http.StatusInternalServerError, errInternalServer)
		return
	}

	byStatus := make([]statusCount, 0, len(stats.ByStatus))
	for _, s := range stats.ByStatus {
		byStatus = append(byStatus, statusCount{Status: s.Status, Count: s.Count})
	}
	byPriority := make([]priorityCount, 0, len(stats.ByPriority))
	for _, p := range stats.ByPriority {
		byPriority = append(byPriority, priorityCount{Priority: p.Priority, Count: p.Count})
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"total":      stats.Total,
			"byStatus":   byStatus,
			"byPriority": byPriority,
		},
	})
}
