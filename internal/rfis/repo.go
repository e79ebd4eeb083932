package rfis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/analytics"
	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/ids"
)

var (
	ErrNotFound        = errors.New("rfi not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrClosed          = errors.New("rfi is closed")
	ErrNotClosed       = errors.New("rfi is not closed")
)

const (
	StatusOpen     = "open"
	StatusAnswered = "answered"
	StatusClosed   = "closed"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusOpen, StatusAnswered, StatusClosed:
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

type RFI struct {
	PublicID       string     `json:"public_id"`
	ProjectID      string     `json:"project_id"`
	Number         int        `json:"number"`
	NumberLabel    string     `json:"number_label"`
	Subject        string     `json:"subject"`
	Question       string     `json:"question,omitempty"`
	Answer         string     `json:"answer,omitempty"`
	Status         string     `json:"status"`
	Priority       string     `json:"priority"`
	AssigneeUID    string     `json:"assignee_uid,omitempty"`
	CostImpact     bool       `json:"cost_impact"`
	ScheduleImpact bool       `json:"schedule_impact"`
	DueDate        *time.Time `json:"due_date,omitempty"`
	AnsweredAt     *time.Time `json:"answered_at,omitempty"`
	AnsweredBy     string     `json:"answered_by,omitempty"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	Overdue        bool       `json:"overdue"`
	CreatedBy      string     `json:"created_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

const rfiColumns = `
	public_id,
	project_public_id,
	number,
	subject,
	coalesce(question, '') as question,
	coalesce(answer, '') as answer,
	status,
	priority,
	coalesce(assignee_uid, '') as assignee_uid,
	cost_impact,
	schedule_impact,
	due_date,
	answered_at,
	coalesce(answered_by, '') as answered_by,
	closed_at,
	coalesce(created_by, '') as created_by,
	created_at,
	updated_at`

func scanRFI(row pgx.Row, now time.Time) (*RFI, error) {
	var r RFI
	err := row.Scan(
		&r.PublicID, &r.ProjectID, &r.Number, &r.Subject, &r.Question,
		&r.Answer, &r.Status, &r.Priority, &r.AssigneeUID,
		&r.CostImpact, &r.ScheduleImpact, &r.DueDate,
		&r.AnsweredAt, &r.AnsweredBy, &r.ClosedAt,
		&r.CreatedBy, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r.NumberLabel = fmt.Sprintf("RFI-%03d", r.Number)
	r.Overdue = r.Status == StatusOpen && r.DueDate != nil && r.DueDate.Before(now)
	return &r, nil
}

type CreateRFI struct {
	Subject        string
	Question       string
	Priority       string
	AssigneeUID    string
	CostImpact     bool
	ScheduleImpact bool
	DueDate        *time.Time
}

// Create assigns the next per-project RFI number inside a transaction.
// The project row is locked so concurrent creates cannot take the same
// number.
func (r *Repo) Create(ctx context.Context, createdBy, projectPublicID string, in CreateRFI) (*RFI, error) {
	if in.Subject == "" {
		return nil, fmt.Errorf("subject required")
	}
	if in.Priority == "" {
		in.Priority = "medium"
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var locked string
	err = tx.QueryRow(ctx,
		`select public_id from projects where public_id = $1 and deleted_at is null for update;`,
		projectPublicID,
	).Scan(&locked)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, err
	}

	var next int
	err = tx.QueryRow(ctx,
		`select coalesce(max(number), 0) + 1 from rfis where project_public_id = $1;`,
		projectPublicID,
	).Scan(&next)
	if err != nil {
		return nil, err
	}

	publicID, err := ids.NewPublicID("rfi")
	if err != nil {
		return nil, err
	}

	const insQ = `
insert into rfis (public_id, project_public_id, number, subject, question, priority, assignee_uid, cost_impact, schedule_impact, due_date, created_by)
values ($1, $2, $3, $4, nullif($5, ''), $6, nullif($7, ''), $8, $9, $10, nullif($11, ''))
returning ` + rfiColumns + `;
`
	out, err := scanRFI(tx.QueryRow(ctx, insQ,
		publicID, projectPublicID, next, in.Subject, in.Question,
		in.Priority, in.AssigneeUID, in.CostImpact, in.ScheduleImpact, in.DueDate, createdBy,
	), time.Now())
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

type Filter struct {
	ProjectID   string
	Status      string
	Priority    string
	AssigneeUID string
	OverdueOnly bool
}

func (r *Repo) List(ctx context.Context, f Filter) ([]RFI, error) {
	q := `select ` + rfiColumns + ` from rfis where deleted_at is null`
	args := make([]any, 0, 4)

	if f.ProjectID != "" {
		args = append(args, f.ProjectID)
		q += fmt.Sprintf(" and project_public_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		q += fmt.Sprintf(" and status = $%d", len(args))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		q += fmt.Sprintf(" and priority = $%d", len(args))
	}
	if f.AssigneeUID != "" {
		args = append(args, f.AssigneeUID)
		q += fmt.Sprintf(" and assignee_uid = $%d", len(args))
	}
	if f.OverdueOnly {
		q += " and status = 'open' and due_date is not null and due_date < now()"
	}
	q += " order by created_at desc, number desc;"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	now := time.Now()
	out := make([]RFI, 0, 16)
	for rows.Next() {
		it, err := scanRFI(rows, now)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, publicID string) (*RFI, error) {
	const q = `select ` + rfiColumns + ` from rfis where public_id = $1 and deleted_at is null;`
	return scanRFI(r.db.QueryRow(ctx, q, publicID), time.Now())
}

type UpdateRFI struct {
	Subject        *string
	Question       *string
	Priority       *string
	AssigneeUID    *string
	CostImpact     *bool
	ScheduleImpact *bool
	DueDate        *time.Time
}

// Update edits the request fields. Status only moves through Answer,
// Close and Reopen.
func (r *Repo) Update(ctx context.Context, publicID string, in UpdateRFI) (*RFI, error) {
	const q = `
update rfis set
	subject         = coalesce($2, subject),
	question        = nullif(coalesce($3, question, ''), ''),
	priority        = coalesce($4, priority),
	assignee_uid    = nullif(coalesce($5, assignee_uid, ''), ''),
	cost_impact     = coalesce($6, cost_impact),
	schedule_impact = coalesce($7, schedule_impact),
	due_date        = coalesce($8, due_date),
	updated_at      = now()
where public_id = $1 and deleted_at is null
returning ` + rfiColumns + `;
`
	return scanRFI(r.db.QueryRow(ctx, q,
		publicID, in.Subject, in.Question, in.Priority, in.AssigneeUID,
		in.CostImpact, in.ScheduleImpact, in.DueDate,
	), time.Now())
}

// Answer records the answer and moves the RFI to answered. Re-answering
// keeps the original answered_at stamp. Closed RFIs reject the answer.
func (r *Repo) Answer(ctx context.Context, publicID, answeredBy, answer string) (*RFI, error) {
	const q = `
update rfis set
	status      = 'answered',
	answer      = $2,
	answered_by = nullif($3, ''),
	answered_at = coalesce(answered_at, now()),
	updated_at  = now()
where public_id = $1 and deleted_at is null and status <> 'closed'
returning ` + rfiColumns + `;
`
	out, err := scanRFI(r.db.QueryRow(ctx, q, publicID, answer, answeredBy), time.Now())
	if errors.Is(err, ErrNotFound) {
		if cur, gerr := r.Get(ctx, publicID); gerr == nil && cur.Status == StatusClosed {
			return nil, ErrClosed
		}
		return nil, ErrNotFound
	}
	return out, err
}

func (r *Repo) Close(ctx context.Context, publicID string) (*RFI, error) {
	const q = `
update rfis set
	status     = 'closed',
	closed_at  = now(),
	updated_at = now()
where public_id = $1 and deleted_at is null and status <> 'closed'
returning ` + rfiColumns + `;
`
	out, err := scanRFI(r.db.QueryRow(ctx, q, publicID), time.Now())
	if errors.Is(err, ErrNotFound) {
		if cur, gerr := r.Get(ctx, publicID); gerr == nil && cur.Status == StatusClosed {
			return nil, ErrClosed
		}
		return nil, ErrNotFound
	}
	return out, err
}

// Reopen moves a closed RFI back to open or answered, depending on
// whether it carries an answer. The close stamp is cleared.
func (r *Repo) Reopen(ctx context.Context, publicID string) (*RFI, error) {
	const q = `
update rfis set
	status     = case when answered_at is null then 'open' else 'answered' end,
	closed_at  = null,
	updated_at = now()
where public_id = $1 and deleted_at is null and status = 'closed'
returning ` + rfiColumns + `;
`
	out, err := scanRFI(r.db.QueryRow(ctx, q, publicID), time.Now())
	if errors.Is(err, ErrNotFound) {
		if _, gerr := r.Get(ctx, publicID); gerr == nil {
			return nil, ErrNotClosed
		}
		return nil, ErrNotFound
	}
	return out, err
}

func (r *Repo) SoftDelete(ctx context.Context, publicID string) (bool, error) {
	const q = `
update rfis
set deleted_at = now(), updated_at = now()
where public_id = $1 and deleted_at is null;
`
	ct, err := r.db.Exec(ctx, q, publicID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// Facts feeds the RFI aggregates; an empty project id means the whole
// portfolio.
func (r *Repo) Facts(ctx context.Context, projectPublicID string) ([]analytics.RFIFacts, error) {
	q := `select status, created_at, due_date, answered_at from rfis where deleted_at is null`
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

	out := make([]analytics.RFIFacts, 0, 32)
	for rows.Next() {
		var f analytics.RFIFacts
		if err := rows.Scan(&f.Status, &f.CreatedAt, &f.DueDate, &f.AnsweredAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repo) FactsByProject(ctx context.Context) (map[string][]analytics.RFIFacts, error) {
	const q = `select project_public_id, status, created_at, due_date, answered_at from rfis where deleted_at is null;`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]analytics.RFIFacts)
	for rows.Next() {
		var pid string
		var f analytics.RFIFacts
		if err := rows.Scan(&pid, &f.Status, &f.CreatedAt, &f.DueDate, &f.AnsweredAt); err != nil {
			return nil, err
		}
		out[pid] = append(out[pid], f)
	}
	return out, rows.Err()
}
