package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/ErlanBelekov/taskboard/internal/domain"
	"github.com/ErlanBelekov/taskboard/internal/repository"
	"github.com/ErlanBelekov/taskboard/internal/sanitize"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type TaskUsecase struct {
	repo repository.TaskRepository
}

func NewTaskUsecase(repo repository.TaskRepository) *TaskUsecase {
	return &TaskUsecase{repo: repo}
}

type CreateTaskInput struct {
	UserID      string
	Title       string
	Description string
	Status      domain.Status
	Priority    domain.Priority
	DueDate     *time.Time
	Tags        []string
}

func (u *TaskUsecase) CreateTask(ctx context.Context, input CreateTaskInput) (*domain.Task, error) {
	title := sanitize.Text(input.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: task title is required", domain.ErrInvalidInput)
	}
	if len([]rune(title)) > domain.MaxTitleLen {
		return nil, fmt.Errorf("%w: title cannot be more than %d characters", domain.ErrInvalidInput, domain.MaxTitleLen)
	}
	description := sanitize.Text(input.Description)
	if len([]rune(description)) > domain.MaxDescriptionLen {
		return nil, fmt.Errorf("%w: description cannot be more than %d characters", domain.ErrInvalidInput, domain.MaxDescriptionLen)
	}

	if !input.Status.Valid() {
		input.Status = domain.StatusPending
	}
	if !input.Priority.Valid() {
		input.Priority = domain.PriorityMedium
	}

	task := &domain.Task{
		Title:       title,
		Description: description,
		Status:      input.Status,
		Priority:    input.Priority,
		DueDate:     input.DueDate,
		Tags:        sanitize.Tags(input.Tags, domain.MaxTagLen),
		UserID:      input.UserID,
	}

	created, err := u.repo.Create(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return created, nil
}

func (u *TaskUsecase) GetTask(ctx context.Context, taskID, userID string) (*domain.Task, error) {
	task, err := u.repo.GetByID(ctx, taskID, userID)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *domain.Status
	Priority    *domain.Priority
	DueDate     *time.Time
	SetDueDate  bool
	Tags        *[]string
}

// UpdateTask applies a partial update: only provided fields change. The
// repository recomputes the completion flag and timestamp whenever status
// is part of the update.
func (u *TaskUsecase) UpdateTask(ctx context.Context, taskID, userID string, input UpdateTaskInput) (*domain.Task, error) {
	fields := repository.UpdateTaskFields{
		Status:     input.Status,
		Priority:   input.Priority,
		DueDate:    input.DueDate,
		SetDueDate: input.SetDueDate,
	}

	if input.Title != nil {
		title := sanitize.Text(*input.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: task title is required", domain.ErrInvalidInput)
		}
		if len([]rune(title)) > domain.MaxTitleLen {
			return nil, fmt.Errorf("%w: title cannot be more than %d characters", domain.ErrInvalidInput, domain.MaxTitleLen)
		}
		fields.Title = &title
	}
	if input.Description != nil {
		description := sanitize.Text(*input.Description)
		if len([]rune(description)) > domain.MaxDescriptionLen {
			return nil, fmt.Errorf("%w: description cannot be more than %d characters", domain.ErrInvalidInput, domain.MaxDescriptionLen)
		}
		fields.Description = &description
	}
	if input.Tags != nil {
		tags := sanitize.Tags(*input.Tags, domain.MaxTagLen)
		fields.Tags = &tags
	}

	task, err := u.repo.Update(ctx, taskID, userID, fields)
	if err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

func (u *TaskUsecase) DeleteTask(ctx context.Context, taskID, userID string) error {
	if err := u.repo.Delete(ctx, taskID, userID); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// ListTasksParams are the raw, loosely-typed query parameters as supplied by
// the client. BuildListQuery turns them into a bounded plan; values outside
// the enumerated sets are silently ignored.
type ListTasksParams struct {
	Status   string
	Priority string
	Search   string
	Sort     string
	Page     string
	Limit    string
}

// PageRef points at an adjacent page, mirroring the wire format.
type PageRef struct {
	Page  int
	Limit int
}

// Pagination reports adjacent pages; a nil entry means that page does not
// exist. Clients can navigate without knowing the total count.
type Pagination struct {
	Next *PageRef
	Prev *PageRef
}

type ListTasksResult struct {
	Tasks      []*domain.Task
	Total      int
	Pagination Pagination
}

var sortSpecs = map[string]repository.TaskSort{
	"createdAt":  repository.SortCreatedAsc,
	"-createdAt": repository.SortCreatedDesc,
	"dueDate":    repository.SortDueDateAsc,
	"-dueDate":   repository.SortDueDateDesc,
	"title":      repository.SortTitleAsc,
	"-title":     repository.SortTitleDesc,
	"priority":   repository.SortPriorityAsc,
	"-priority":  repository.SortPriorityDesc,
}

// BuildListQuery validates raw client parameters into a safe query plan.
// The user scope is always the first constraint and cannot be overridden
// by any parameter.
func BuildListQuery(userID string, p ListTasksParams) repository.ListTasksQuery {
	q := repository.ListTasksQuery{
		UserID: userID,
		Sort:   repository.SortCreatedDesc,
		Limit:  defaultPageSize,
	}

	if s := domain.Status(p.Status); s.Valid() {
		q.Status = s
	}
	if pr := domain.Priority(p.Priority); pr.Valid() {
		q.Priority = pr
	}
	q.Search = sanitize.Text(p.Search)

	page := 1
	if n, err := strconv.Atoi(p.Page); err == nil && n > 0 {
		page = n
	}
	if n, err := strconv.Atoi(p.Limit); err == nil && n > 0 {
		q.Limit = n
	}
	if q.Limit > maxPageSize {
		q.Limit = maxPageSize
	}
	q.Offset = (page - 1) * q.Limit

	if sort, ok := sortSpecs[p.Sort]; ok {
		q.Sort = sort
	}

	return q
}

func (u *TaskUsecase) ListTasks(ctx context.Context, userID string, params ListTasksParams) (*ListTasksResult, error) {
	q := BuildListQuery(userID, params)

	tasks, err := u.repo.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	total, err := u.repo.Count(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}

	page := q.Offset/q.Limit + 1
	result := &ListTasksResult{Tasks: tasks, Total: total}
	if q.Offset+q.Limit < total {
		result.Pagination.Next = &PageRef{Page: page + 1, Limit: q.Limit}
	}
	if q.Offset > 0 {
		result.Pagination.Prev = &PageRef{Page: page - 1, Limit: q.Limit}
	}
	return result, nil
}

type StatusCount struct {
	Status domain.Status
	Count  int
}

type PriorityCount struct {
	Priority domain.Priority
	Count    int
}

type TaskStatsResult struct {
	Total      int
	ByStatus   []StatusCount
	ByPriority []PriorityCount
}

// TaskStats aggregates the requesting user's tasks. Every enumerated status
// and priority appears in the result, zero-filled when the user has no
// matching tasks.
func (u *TaskUsecase) TaskStats(ctx context.Context, userID string) (*TaskStatsResult, error) {
	stats, err := u.repo.Stats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}

	result := &TaskStatsResult{Total: stats.Total}
	for _, s := range domain.Statuses {
		result.ByStatus = append(result.ByStatus, StatusCount{Status: s, Count: stats.ByStatus[s]})
	}
	for _, p := range domain.Priorities {
		result.ByPriority = append(result.ByPriority, PriorityCount{Priority: p, Count: stats.ByPriority[p]})
	}
	return result, nil
}
