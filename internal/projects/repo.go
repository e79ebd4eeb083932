package projects

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

var ErrNotFound = errors.New("project not found")

const (
	StatusPlanning  = "planning"
	StatusActive    = "active"
	StatusOnHold    = "on_hold"
	StatusCompleted = "completed"
	StatusArchived  = "archived"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPlanning, StatusActive, StatusOnHold, StatusCompleted, StatusArchived:
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

type Project struct {
	PublicID        string     `json:"public_id"`
	Number          string     `json:"number,omitempty"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	Status          string     `json:"status"`
	PercentComplete int        `json:"percent_complete"`
	ClientID        string     `json:"client_id,omitempty"`
	FactoryID       string     `json:"factory_id,omitempty"`
	PMUID           string     `json:"pm_uid,omitempty"`
	Address         string     `json:"address,omitempty"`
	City            string     `json:"city,omitempty"`
	State           string     `json:"state,omitempty"`
	ContractValue   float64    `json:"contract_value,omitempty"`
	StartDate       *time.Time `json:"start_date,omitempty"`
	TargetDate      *time.Time `json:"target_date,omitempty"`
	CreatedBy       string     `json:"created_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

const projectColumns = `
	public_id,
	coalesce(number, '') as number,
	name,
	coalesce(description, '') as description,
	status,
	percent_complete,
	coalesce(client_public_id, '') as client_public_id,
	coalesce(factory_public_id, '') as factory_public_id,
	coalesce(pm_uid, '') as pm_uid,
	coalesce(address, '') as address,
	coalesce(city, '') as city,
	coalesce(state, '') as state,
	coalesce(contract_value, 0) as contract_value,
	start_date,
	target_date,
	coalesce(created_by, '') as created_by,
	created_at,
	updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	err := row.Scan(
		&p.PublicID, &p.Number, &p.Name, &p.Description, &p.Status,
		&p.PercentComplete, &p.ClientID, &p.FactoryID, &p.PMUID,
		&p.Address, &p.City, &p.State, &p.ContractValue,
		&p.StartDate, &p.TargetDate, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

type CreateProject struct {
	Number          string
	Name            string
	Description     string
	Status          string
	PercentComplete int
	ClientID        string
	FactoryID       string
	PMUID           string
	Address         string
	City            string
	State           string
	ContractValue   float64
	StartDate       *time.Time
	TargetDate      *time.Time
}

func (r *Repo) Create(ctx context.Context, createdBy string, in CreateProject) (*Project, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name required")
	}
	if in.Status == "" {
		in.Status = StatusPlanning
	}

	for i := 0; i < 5; i++ {
		publicID, err := ids.NewPublicID("proj")
		if err != nil {
			return nil, err
		}

		const q = `
insert into projects (
	public_id, number, name, description, status, percent_complete,
	client_public_id, factory_public_id, pm_uid,
	address, city, state, contract_value, start_date, target_date, created_by
)
values (
	$1, nullif($2, ''), $3, nullif($4, ''), $5, greatest(0, least(100, $6)),
	nullif($7, ''), nullif($8, ''), nullif($9, ''),
	nullif($10, ''), nullif($11, ''), nullif($12, ''), $13, $14, $15, nullif($16, '')
)
returning ` + projectColumns + `;
`
		p, err := scanProject(r.db.QueryRow(ctx, q,
			publicID, in.Number, in.Name, in.Description, in.Status, in.PercentComplete,
			in.ClientID, in.FactoryID, in.PMUID,
			in.Address, in.City, in.State, in.ContractValue, in.StartDate, in.TargetDate, createdBy,
		))
		if err == nil {
			return p, nil
		}

		// unique violation on public_id → retry with a fresh one
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == "projects_public_id_key" {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique project id")
}

type Filter struct {
	Status    string
	ClientID  string
	FactoryID string
	PMUID     string
	Query     string
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Project, error) {
	q := `select ` + projectColumns + ` from projects where deleted_at is null`
	args := make([]any, 0, 5)

	if f.Status != "" {
		args = append(args, f.Status)
		q += fmt.Sprintf(" and status = $%d", len(args))
	}
	if f.ClientID != "" {
		args = append(args, f.ClientID)
		q += fmt.Sprintf(" and client_public_id = $%d", len(args))
	}
	if f.FactoryID != "" {
		args = append(args, f.FactoryID)
		q += fmt.Sprintf(" and factory_public_id = $%d", len(args))
	}
	if f.PMUID != "" {
		args = append(args, f.PMUID)
		q += fmt.Sprintf(" and pm_uid = $%d", len(args))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		q += fmt.Sprintf(" and (name ilike $%d or coalesce(number, '') ilike $%d)", len(args), len(args))
	}
	q += " order by created_at desc;"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, publicID string) (*Project, error) {
	const q = `select ` + projectColumns + ` from projects where public_id = $1 and deleted_at is null;`
	return scanProject(r.db.QueryRow(ctx, q, publicID))
}

type UpdateProject struct {
	Number          *string
	Name            *string
	Description     *string
	Status          *string
	PercentComplete *int
	ClientID        *string
	FactoryID       *string
	PMUID           *string
	Address         *string
	City            *string
	State           *string
	ContractValue   *float64
	StartDate       *time.Time
	TargetDate      *time.Time
}

// Update applies only the fields that were sent. For the nullable
// columns an explicit "" clears the value; nil leaves it alone.
func (r *Repo) Update(ctx context.Context, publicID string, in UpdateProject) (*Project, error) {
	const q = `
update projects set
	number            = nullif(coalesce($2, number, ''), ''),
	name              = coalesce($3, name),
	description       = nullif(coalesce($4, description, ''), ''),
	status            = coalesce($5, status),
	percent_complete  = greatest(0, least(100, coalesce($6, percent_complete))),
	client_public_id  = nullif(coalesce($7, client_public_id, ''), ''),
	factory_public_id = nullif(coalesce($8, factory_public_id, ''), ''),
	pm_uid            = nullif(coalesce($9, pm_uid, ''), ''),
	address           = nullif(coalesce($10, address, ''), ''),
	city              = nullif(coalesce($11, city, ''), ''),
	state             = nullif(coalesce($12, state, ''), ''),
	contract_value    = coalesce($13, contract_value),
	start_date        = coalesce($14, start_date),
	target_date       = coalesce($15, target_date),
	updated_at        = now()
where public_id = $1 and deleted_at is null
returning ` + projectColumns + `;
`
	return scanProject(r.db.QueryRow(ctx, q,
		publicID, in.Number, in.Name, in.Description, in.Status, in.PercentComplete,
		in.ClientID, in.FactoryID, in.PMUID,
		in.Address, in.City, in.State, in.ContractValue, in.StartDate, in.TargetDate,
	))
}

func (r *Repo) SoftDelete(ctx context.Context, publicID string) (bool, error) {
	const q = `
update projects
set deleted_at = now(), updated_at = now()
where public_id = $1 and deleted_at is null;
`
	ct, err := r.db.Exec(ctx, q, publicID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// Exists reports whether a live project with the given public id exists.
// Child slices use it to reject writes against unknown or deleted projects.
func (r *Repo) Exists(ctx context.Context, publicID string) (bool, error) {
	const q = `select exists(select 1 from projects where public_id = $1 and deleted_at is null);`
	var ok bool
	if err := r.db.QueryRow(ctx, q, publicID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// Facts feeds the portfolio aggregates.
func (r *Repo) Facts(ctx context.Context) ([]analytics.ProjectFacts, error) {
	const q = `select status, percent_complete from projects where deleted_at is null;`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]analytics.ProjectFacts, 0, 32)
	for rows.Next() {
		var f analytics.ProjectFacts
		if err := rows.Scan(&f.Status, &f.PercentComplete); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}
