package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/analytics"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/ids"
)

var (
	ErrNotFound        = errors.New("task not found")
	ErrProjectNotFound = errors.New("project not found")
)

const (
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusBlocked    = "blocked"
	StatusDone       = "done"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusBlocked, StatusDone:
		return true
	}
	return false
}

func ValidPriority(s string) bool {
	switch s {
	case "low", "medium", "high":
		return true
	}
	return false
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type Task struct {
	PublicID    string     `json:"public_id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssigneeUID string     `json:"assignee_uid,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Overdue     bool       `json:"overdue"`
	CreatedBy   string     `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

const taskColumns = `
	public_id,
	project_public_id,
	title,
	coalesce(description, '') as description,
	status,
	priority,
	coalesce(assignee_uid, '') as assignee_uid,
	due_date,
	completed_at,
	coalesce(created_by, '') as created_by,
	created_at,
	updated_at`

func scanTask(row pgx.Row, now time.Time) (*Task, error) {
	var t Task
	err := row.Scan(
		&t.PublicID, &t.ProjectID, &t.Title, &t.Description, &t.Status,
		&t.Priority, &t.AssigneeUID, &t.DueDate, &t.CompletedAt,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// overdue is derived on read, never stored
	t.Overdue = t.Status != StatusDone && t.DueDate != nil && t.DueDate.Before(now)
	return &t, nil
}

type CreateTask struct {
	Title       string
	Description string
	Status      string
	Priority    string
	AssigneeUID string
	DueDate     *time.Time
}

func (r *Repo) Create(ctx context.Context, createdBy, projectPublicID string, in CreateTask) (*Task, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("title required")
	}
	if in.Status == "" {
		in.Status = StatusTodo
	}
	if in.Priority == "" {
		in.Priority = "medium"
	}

	for i := 0; i < 5; i++ {
		publicID, err := ids.NewPublicID("task")
		if err != nil {
			return nil, err
		}

		// insert-select keeps writes against unknown or deleted
		// projects from landing
		const q = `
insert into tasks (public_id, project_public_id, title, description, status, priority, assignee_uid, due_date, completed_at, created_by)
select $1, p.public_id, $3, nullif($4, ''), $5, $6, nullif($7, ''), $8,
	case when $5 = 'done' then now() end, nullif($9, '')
from projects p
where p.public_id = $2 and p.deleted_at is null
returning ` + taskColumns + `;
`
		t, err := scanTask(r.db.QueryRow(ctx, q,
			publicID, projectPublicID, in.Title, in.Description, in.Status,
			in.Priority, in.AssigneeUID, in.DueDate, createdBy,
		), time.Now())
		if err == nil {
			return t, nil
		}
		if errors.Is(err, ErrNotFound) {
			return nil, ErrProjectNotFound
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique task id")
}

type Filter struct {
	Status      string
	AssigneeUID string
	OverdueOnly bool
}

func (r *Repo) ListByProject(ctx context.Context, projectPublicID string, f Filter) ([]Task, error) {
	q := `select ` + taskColumns + ` from tasks where project_public_id = $1 and deleted_at is null`
	args := []any{projectPublicID}

	if f.Status != "" {
		args = append(args, f.Status)
		q += fmt.Sprintf(" and status = $%d", len(args))
	}
	if f.AssigneeUID != "" {
		args = append(args, f.AssigneeUID)
		q += fmt.Sprintf(" and assignee_uid = $%d", len(args))
	}
	if f.OverdueOnly {
		q += " and status <> 'done' and due_date is not null and due_date < now()"
	}
	q += " order by due_date asc nulls last, created_at desc;"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := time.Now()
	out := make([]Task, 0, 16)
	for rows.Next() {
		t, err := scanTask(rows, now)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// ListByAssignee returns one user's tasks across every project,
// soonest due first. Backs the "my tasks" view.
func (r *Repo) ListByAssignee(ctx context.Context, assigneeUID string, f Filter) ([]Task, error) {
	q := `select ` + taskColumns + ` from tasks where assignee_uid = $1 and deleted_at is null`
	args := []any{assigneeUID}

	if f.Status != "" {
		args = append(args, f.Status)
		q += fmt.Sprintf(" and status = $%d", len(args))
	}
	if f.OverdueOnly {
		q += " and status <> 'done' and due_date is not null and due_date < now()"
	}
	q += " order by due_date asc nulls last, created_at desc;"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := time.Now()
	out := make([]Task, 0, 16)
	for rows.Next() {
		t, err := scanTask(rows, now)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, publicID string) (*Task, error) {
	const q = `select ` + taskColumns + ` from tasks where public_id = $1 and deleted_at is null;`
	return scanTask(r.db.QueryRow(ctx, q, publicID), time.Now())
}

type UpdateTask struct {
	Title       *string
	Description *string
	Status      *string
	Priority    *string
	AssigneeUID *string
	DueDate     *time.Time
}

// Update stamps completed_at when a task moves into done and clears it
// when it moves back out.
func (r *Repo) Update(ctx context.Context, publicID string, in UpdateTask) (*Task, error) {
	const q = `
update tasks set
	title        = coalesce($2, title),
	description  = nullif(coalesce($3, description, ''), ''),
	status       = coalesce($4, status),
	priority     = coalesce($5, priority),
	assignee_uid = nullif(coalesce($6, assignee_uid, ''), ''),
	due_date     = coalesce($7, due_date),
	completed_at = case
		when coalesce($4, status) = 'done' then coalesce(completed_at, now())
		else null
	end,
	updated_at   = now()
where public_id = $1 and deleted_at is null
returning ` + taskColumns + `;
`
	return scanTask(r.db.QueryRow(ctx, q,
		publicID, in.Title, in.Description, in.Status, in.Priority, in.AssigneeUID, in.DueDate,
	), time.Now())
}

func (r *Repo) SoftDelete(ctx context.Context, publicID string) (bool, error) {
	const q = `
update tasks
set deleted_at = now(), updated_at = now()
where public_id = $1 and deleted_at is null;
`
	ct, err := r.db.Exec(ctx, q, publicID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// Facts feeds the task aggregates; an empty project id means the whole
// portfolio.
func (r *Repo) Facts(ctx context.Context, projectPublicID string) ([]analytics.TaskFacts, error) {
	q := `select status, due_date, completed_at from tasks where deleted_at is null`
	args := make([]any, 0, 1)
	if projectPublicID != "" {
		args = append(args, projectPublicID)
		q += " and project_public_id = $1"
	}

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]analytics.TaskFacts, 0, 32)
	for rows.Next() {
		var f analytics.TaskFacts
		if err := rows.Scan(&f.Status, &f.DueDate, &f.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// FactsByProject groups task facts by project for the per-project
// rollup rows of the executive report.
func (r *Repo) FactsByProject(ctx context.Context) (map[string][]analytics.TaskFacts, error) {
	const q = `select project_public_id, status, due_date, completed_at from tasks where deleted_at is null;`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]analytics.TaskFacts)
	for rows.Next() {
		var pid string
		var f analytics.TaskFacts
		if err := rows.Scan(&pid, &f.Status, &f.DueDate, &f.CompletedAt); err != nil {
			return nil, err
		}
		out[pid] = append(out[pid], f)
	}
	return out, rows.Err()
}
