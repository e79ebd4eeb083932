package factories

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

var ErrNotFound = errors.New("factory not found")

const (
	StatusActive      = "active"
	StatusAtCapacity  = "at_capacity"
	StatusMaintenance = "maintenance"
	StatusOffline     = "offline"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusAtCapacity, StatusMaintenance, StatusOffline:
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

type Factory struct {
	PublicID       string    `json:"public_id"`
	Name           string    `json:"name"`
	City           string    `json:"city,omitempty"`
	State          string    `json:"state,omitempty"`
	Status         string    `json:"status"`
	Capacity       int       `json:"capacity"`
	ManagerUID     string    `json:"manager_uid,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	ActiveProjects int       `json:"active_projects"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// active_projects is computed on every read so the load numbers never
// go stale.
const factoryColumns = `
	public_id,
	name,
	coalesce(city, '') as city,
	coalesce(state, '') as state,
	status,
	capacity,
	coalesce(manager_uid, '') as manager_uid,
	coalesce(phone, '') as phone,
	(select count(*) from projects p
	 where p.factory_public_id = factories.public_id
	   and p.status = 'active' and p.deleted_at is null) as active_projects,
	created_at,
	updated_at`

func scanFactory(row pgx.Row) (*Factory, error) {
	var f Factory
	err := row.Scan(
		&f.PublicID, &f.Name, &f.City, &f.State, &f.Status, &f.Capacity,
		&f.ManagerUID, &f.Phone, &f.ActiveProjects, &f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

type CreateFactory struct {
	Name       string
	City       string
	State      string
	Status     string
	Capacity   int
	ManagerUID string
	Phone      string
}

func (r *Repo) Create(ctx context.Context, in CreateFactory) (*Factory, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name required")
	}
	if in.Status == "" {
		in.Status = StatusActive
	}

	for i := 0; i < 5; i++ {
		publicID, err := ids.NewPublicID("fac")
		if err != nil {
			return nil, err
		}

		const q = `
insert into factories (public_id, name, city, state, status, capacity, manager_uid, phone)
values ($1, $2, nullif($3, ''), nullif($4, ''), $5, greatest(0, $6), nullif($7, ''), nullif($8, ''))
returning ` + factoryColumns + `;
`
		f, err := scanFactory(r.db.QueryRow(ctx, q,
			publicID, in.Name, in.City, in.State, in.Status, in.Capacity, in.ManagerUID, in.Phone,
		))
		if err == nil {
			return f, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique factory id")
}

func (r *Repo) List(ctx context.Context) ([]Factory, error) {
	const q = `select ` + factoryColumns + ` from factories where deleted_at is null order by name asc;`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Factory, 0, 8)
	for rows.Next() {
		f, err := scanFactory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *f)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, publicID string) (*Factory, error) {
	const q = `select ` + factoryColumns + ` from factories where public_id = $1 and deleted_at is null;`
	return scanFactory(r.db.QueryRow(ctx, q, publicID))
}

type UpdateFactory struct {
	Name       *string
	City       *string
	State      *string
	Status     *string
	Capacity   *int
	ManagerUID *string
	Phone      *string
}

func (r *Repo) Update(ctx context.Context, publicID string, in UpdateFactory) (*Factory, error) {
	const q = `
update factories set
	name        = coalesce($2, name),
	city        = nullif(coalesce($3, city, ''), ''),
	state       = nullif(coalesce($4, state, ''), ''),
	status      = coalesce($5, status),
	capacity    = greatest(0, coalesce($6, capacity)),
	manager_uid = nullif(coalesce($7, manager_uid, ''), ''),
	phone       = nullif(coalesce($8, phone, ''), ''),
	updated_at  = now()
where public_id = $1 and deleted_at is null
returning ` + factoryColumns + `;
`
	return scanFactory(r.db.QueryRow(ctx, q,
		publicID, in.Name, in.City, in.State, in.Status, in.Capacity, in.ManagerUID, in.Phone,
	))
}

func (r *Repo) SoftDelete(ctx context.Context, publicID string) (bool, error) {
	const q = `
update factories
set deleted_at = now(), updated_at = now()
where public_id = $1 and deleted_at is null;
`
	ct, err := r.db.Exec(ctx, q, publicID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// Loads feeds the utilization board across all live factories.
func (r *Repo) Loads(ctx context.Context) ([]analytics.FactoryFacts, error) {
	const q = `
select public_id, name, status, capacity,
	(select count(*) from projects p
	 where p.factory_public_id = factories.public_id
	   and p.status = 'active' and p.deleted_at is null) as active_projects
from factories
where deleted_at is null;
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]analytics.FactoryFacts, 0, 8)
	for rows.Next() {
		var f analytics.FactoryFacts
		if err := rows.Scan(&f.PublicID, &f.Name, &f.Status, &f.Capacity, &f.ActiveProjects); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// Load returns the utilization facts for one factory.
func (r *Repo) Load(ctx context.Context, publicID string) (*analytics.FactoryFacts, error) {
	const q = `
select public_id, name, status, capacity,
	(select count(*) from projects p
	 where p.factory_public_id = factories.public_id
	   and p.status = 'active' and p.deleted_at is null) as active_projects
from factories
where public_id = $1 and deleted_at is null;
`
	var f analytics.FactoryFacts
	err := r.db.QueryRow(ctx, q, publicID).Scan(&f.PublicID, &f.Name, &f.Status, &f.Capacity, &f.ActiveProjects)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}
