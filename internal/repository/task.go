package repository

import (
	"context"
	"time"

	"github.com/ErlanBelekov/taskboard/internal/domain"
)

// TaskSort is a closed set of sort orders. Values are produced only by the
// list-query builder in the usecase layer, never from raw client input, so
// the repository can splice them into SQL safely.
type TaskSort string

const (
	SortCreatedDesc  TaskSort = "created_at DESC"
	SortCreatedAsc   TaskSort = "created_at ASC"
	SortDueDateAsc   TaskSort = "due_date ASC NULLS LAST"
	SortDueDateDesc  TaskSort = "due_date DESC NULLS LAST"
	SortTitleAsc     TaskSort = "title ASC"
	SortTitleDesc    TaskSort = "title DESC"
	SortPriorityAsc  TaskSort = "priority ASC"
	SortPriorityDesc TaskSort = "priority DESC"
)

// ListTasksQuery is a fully validated query plan. UserID is mandatory and is
// always the first conjunct of the generated filter. Search is plain text;
// the repository escapes it for pattern matching.
type ListTasksQuery struct {
	UserID   string
	Status   domain.Status   // empty = all statuses
	Priority domain.Priority // empty = all priorities
	Search   string          // empty = no text match
	Sort     TaskSort
	Limit    int
	Offset   int
}

// UpdateTaskFields carries a partial task update. Nil pointers mean "leave
// unchanged". SetDueDate distinguishes clearing the due date from omitting it.
type UpdateTaskFields struct {
	Title       *string
	Description *string
	Status      *domain.Status
	Priority    *domain.Priority
	DueDate     *time.Time
	SetDueDate  bool
	Tags        *[]string
}

// TaskStats holds raw per-group counts; absent groups are simply missing
// keys. Zero-filling across all enumerated values happens in the usecase.
type TaskStats struct {
	Total      int
	ByStatus   map[domain.Status]int
	ByPriority map[domain.Priority]int
}

// DueTask pairs a task with its owner's address for reminder delivery.
type DueTask struct {
	Task       *domain.Task
	OwnerName  string
	OwnerEmail string
}

// Every method takes the owning user's ID; ownership scoping is a mandatory
// parameter, not an optional filter.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	GetByID(ctx context.Context, id, userID string) (*domain.Task, error)
	Update(ctx context.Context, id, userID string, fields UpdateTaskFields) (*domain.Task, error)
	Delete(ctx context.Context, id, userID string) error
	List(ctx context.Context, q ListTasksQuery) ([]*domain.Task, error)
	Count(ctx context.Context, q ListTasksQuery) (int, error)
	Stats(ctx context.Context, userID string) (*TaskStats, error)

	// DueSoon returns incomplete tasks due within the window, joined with
	// their owners, bounded by limit. Used by the reminder job.
	DueSoon(ctx context.Context, within time.Duration, limit int) ([]DueTask, error)
}
