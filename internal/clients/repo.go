package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/ids"
)

var ErrNotFound = errors.New("client not found")

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusInactive
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type Client struct {
	PublicID     string    `json:"public_id"`
	Name         string    `json:"name"`
	ContactName  string    `json:"contact_name,omitempty"`
	Email        string    `json:"email,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	City         string    `json:"city,omitempty"`
	State        string    `json:"state,omitempty"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	ProjectCount int       `json:"project_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const clientColumns = `
	public_id,
	name,
	coalesce(contact_name, '') as contact_name,
	coalesce(email, '') as email,
	coalesce(phone, '') as phone,
	coalesce(city, '') as city,
	coalesce(state, '') as state,
	status,
	coalesce(notes, '') as notes,
	(select count(*) from projects p
	 where p.client_public_id = clients.public_id and p.deleted_at is null) as project_count,
	created_at,
	updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var cl Client
	err := row.Scan(
		&cl.PublicID, &cl.Name, &cl.ContactName, &cl.Email, &cl.Phone,
		&cl.City, &cl.State, &cl.Status, &cl.Notes, &cl.ProjectCount,
		&cl.CreatedAt, &cl.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cl, nil
}

type CreateClient struct {
	Name        string
	ContactName string
	Email       string
	Phone       string
	City        string
	State       string
	Status      string
	Notes       string
}

func (r *Repo) Create(ctx context.Context, in CreateClient) (*Client, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name required")
	}
	if in.Status == "" {
		in.Status = StatusActive
	}

	for i := 0; i < 5; i++ {
		publicID, err := ids.NewPublicID("cli")
		if err != nil {
			return nil, err
		}

		const q = `
insert into clients (public_id, name, contact_name, email, phone, city, state, status, notes)
values ($1, $2, nullif($3, ''), nullif($4, ''), nullif($5, ''), nullif($6, ''), nullif($7, ''), $8, nullif($9, ''))
returning ` + clientColumns + `;
`
		cl, err := scanClient(r.db.QueryRow(ctx, q,
			publicID, in.Name, in.ContactName, in.Email, in.Phone, in.City, in.State, in.Status, in.Notes,
		))
		if err == nil {
			return cl, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique client id")
}

type Filter struct {
	Status string
	Query  string
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Client, error) {
	q := `select ` + clientColumns + ` from clients where deleted_at is null`
	args := make([]any, 0, 2)

	if f.Status != "" {
		args = append(args, f.Status)
		q += fmt.Sprintf(" and status = $%d", len(args))
	}
	if f.Query != "" {
		args = append(args, "%"+f.Query+"%")
		q += fmt.Sprintf(" and (name ilike $%d or coalesce(contact_name, '') ilike $%d)", len(args), len(args))
	}
	q += " order by name asc;"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Client, 0, 16)
	for rows.Next() {
		cl, err := scanClient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *cl)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, publicID string) (*Client, error) {
	const q = `select ` + clientColumns + ` from clients where public_id = $1 and deleted_at is null;`
	return scanClient(r.db.QueryRow(ctx, q, publicID))
}

type UpdateClient struct {
	Name        *string
	ContactName *string
	Email       *string
	Phone       *string
	City        *string
	State       *string
	Status      *string
	Notes       *string
}

func (r *Repo) Update(ctx context.Context, publicID string, in UpdateClient) (*Client, error) {
	const q = `
update clients set
	name         = coalesce($2, name),
	contact_name = nullif(coalesce($3, contact_name, ''), ''),
	email        = nullif(coalesce($4, email, ''), ''),
	phone        = nullif(coalesce($5, phone, ''), ''),
	city         = nullif(coalesce($6, city, ''), ''),
	state        = nullif(coalesce($7, state, ''), ''),
	status       = coalesce($8, status),
	notes        = nullif(coalesce($9, notes, ''), ''),
	updated_at   = now()
where public_id = $1 and deleted_at is null
returning ` + clientColumns + `;
`
	return scanClient(r.db.QueryRow(ctx, q,
		publicID, in.Name, in.ContactName, in.Email, in.Phone, in.City, in.State, in.Status, in.Notes,
	))
}

func (r *Repo) SoftDelete(ctx context.Context, publicID string) (bool, error) {
	const q = `
update clients
set deleted_at = now(), updated_at = now()
where public_id = $1 and deleted_at is null;
`
	ct, err := r.db.Exec(ctx, q, publicID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
