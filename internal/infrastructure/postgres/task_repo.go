package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ErlanBelekov/taskboard/internal/domain"
	"github.com/ErlanBelekov/taskboard/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, title, description, status, priority, due_date, tags, user_id, is_completed, completed_at, created_at, updated_at`

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func (r *TaskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	query := `
		INSERT INTO tasks (title, description, status, priority, due_date, tags, user_id,
		                   is_completed, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7,
		        $3 = 'completed',
		        CASE WHEN $3 = 'completed' THEN NOW() END)
		RETURNING ` + taskColumns

	row := r.pool.QueryRow(ctx, query,
		task.Title,
		task.Description,
		task.Status,
		task.Priority,
		task.DueDate,
		task.Tags,
		task.UserID,
	)

	created, err := scanTask(row)
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return created, nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id, userID string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	return scanTask(r.pool.QueryRow(ctx, query, id, userID))
}

func (r *TaskRepository) Update(ctx context.Context, id, userID string, fields repository.UpdateTaskFields) (*domain.Task, error) {
	set := []string{"updated_at = NOW()"}
	args := []any{id, userID}

	if fields.Title != nil {
		args = append(args, *fields.Title)
		set = append(set, fmt.Sprintf("title = $%d", len(args)))
	}
	if fields.Description != nil {
		args = append(args, *fields.Description)
		set = append(set, fmt.Sprintf("description = $%d", len(args)))
	}
	if fields.Status != nil {
		args = append(args, *fields.Status)
		n := len(args)
		// Completion flag and timestamp track status on every write. An
		// already-completed task keeps its original completion time.
		set = append(set,
			fmt.Sprintf("status = $%d", n),
			fmt.Sprintf("is_completed = ($%d = 'completed')", n),
			fmt.Sprintf("completed_at = CASE WHEN $%d = 'completed' THEN COALESCE(completed_at, NOW()) END", n),
		)
	}
	if fields.Priority != nil {
		args = append(args, *fields.Priority)
		set = append(set, fmt.Sprintf("priority = $%d", len(args)))
	}
	if fields.SetDueDate {
		args = append(args, fields.DueDate)
		set = append(set, fmt.Sprintf("due_date = $%d", len(args)))
	}
	if fields.Tags != nil {
		args = append(args, *fields.Tags)
		set = append(set, fmt.Sprintf("tags = $%d", len(args)))
	}

	query := fmt.Sprintf(`UPDATE tasks SET %s WHERE id = $1 AND user_id = $2 RETURNING %s`,
		strings.Join(set, ", "), taskColumns)

	return scanTask(r.pool.QueryRow(ctx, query, args...))
}

func (r *TaskRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) List(ctx context.Context, q repository.ListTasksQuery) ([]*domain.Task, error) {
	filter, args := buildTaskFilter(q)
	args = append(args, q.Limit, q.Offset)

	query := fmt.Sprintf(`
		SELECT %s FROM tasks
		WHERE %s
		ORDER BY %s, id DESC
		LIMIT $%d OFFSET $%d`,
		taskColumns, filter, q.Sort, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Count(ctx context.Context, q repository.ListTasksQuery) (int, error) {
	filter, args := buildTaskFilter(q)

	var total int
	err := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM tasks WHERE %s`, filter), args...,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return total, nil
}

func (r *TaskRepository) Stats(ctx context.Context, userID string) (*repository.TaskStats, error) {
	stats := &repository.TaskStats{
		ByStatus:   make(map[domain.Status]int),
		ByPriority: make(map[domain.Priority]int),
	}

	rows, err := r.pool.Query(ctx,
		`SELECT status, COUNT(*) FROM tasks WHERE user_id = $1 GROUP BY status`, userID)
	if err != nil {
		return nil, fmt.Errorf("stats by status: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var s domain.Status
		var count int
		if err := rows.Scan(&s, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		stats.ByStatus[s] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx,
		`SELECT priority, COUNT(*) FROM tasks WHERE user_id = $1 GROUP BY priority`, userID)
	if err != nil {
		return nil, fmt.Errorf("stats by priority: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.Priority
		var count int
		if err := rows.Scan(&p, &count); err != nil {
			return nil, fmt.Errorf("scan priority count: %w", err)
		}
		stats.ByPriority[p] = count
	}
	return stats, rows.Err()
}

func (r *TaskRepository) DueSoon(ctx context.Context, within time.Duration, limit int) ([]repository.DueTask, error) {
	cutoff := time.Now().Add(within)

	query := fmt.Sprintf(`
		SELECT %s, u.name, u.email
		FROM tasks t
		JOIN users u ON u.id = t.user_id
		WHERE t.status <> 'completed'
		  AND t.due_date IS NOT NULL
		  AND t.due_date <= $1
		  AND t.due_date >= NOW()
		ORDER BY t.due_date ASC
		LIMIT $2`, prefixColumns("t", taskColumns))

	rows, err := r.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("due soon: %w", err)
	}
	defer rows.Close()

	var due []repository.DueTask
	for rows.Next() {
		var t domain.Task
		var d repository.DueTask
		err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate,
			&t.Tags, &t.UserID, &t.IsCompleted, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
			&d.OwnerName, &d.OwnerEmail,
		)
		if err != nil {
			return nil, fmt.Errorf("scan due task: %w", err)
		}
		d.Task = &t
		due = append(due, d)
	}
	return due, rows.Err()
}

// buildTaskFilter translates a validated query plan into a WHERE clause.
// user_id is always the first conjunct.
func buildTaskFilter(q repository.ListTasksQuery) (string, []any) {
	where := []string{"user_id = $1"}
	args := []any{q.UserID}

	if q.Status != "" {
		args = append(args, q.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if q.Priority != "" {
		args = append(args, q.Priority)
		where = append(where, fmt.Sprintf("priority = $%d", len(args)))
	}
	if q.Search != "" {
		args = append(args, "%"+escapeLike(q.Search)+"%")
		n := len(args)
		where = append(where, fmt.Sprintf(
			`(title ILIKE $%d OR description ILIKE $%d OR EXISTS (SELECT 1 FROM unnest(tags) AS tag WHERE tag ILIKE $%d))`,
			n, n, n))
	}

	return strings.Join(where, " AND "), args
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func prefixColumns(alias, columns string) string {
	cols := strings.Split(columns, ", ")
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

// pgx.Row and pgx.Rows both implement this.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate,
		&t.Tags, &t.UserID, &t.IsCompleted, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &t, nil
}
