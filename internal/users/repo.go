package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("user not found")

// Roles carried on the Postgres mirror row. New users default to member;
// admins promote via the directory endpoint.
const (
	RoleAdmin  = "admin"
	RolePM     = "pm"
	RoleMember = "member"
)

func ValidRole(role string) bool {
	return role == RoleAdmin || role == RolePM || role == RoleMember
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

// User is the Postgres mirror of an identity-provider account.
type User struct {
	ID          string     `json:"id"`
	FirebaseUID string     `json:"firebase_uid"`
	Email       string     `json:"email,omitempty"`
	DisplayName string     `json:"display_name,omitempty"`
	PhotoURL    string     `json:"photo_url,omitempty"`
	Role        string     `json:"role"`
	Title       string     `json:"title,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

type UpsertUser struct {
	FirebaseUID string
	Email       string
	DisplayName string
	PhotoURL    string
}

// EnsureUser upserts the caller's mirror row on every authenticated
// request and returns the row id and role for the request context.
func (r *Repo) EnsureUser(ctx context.Context, u UpsertUser) (string, string, error) {
	if u.FirebaseUID == "" {
		return "", "", fmt.Errorf("firebase_uid required")
	}

	const q = `
insert into users (firebase_uid, email, display_name, photo_url, updated_at)
values ($1, nullif($2,''), nullif($3,''), nullif($4,''), now())
on conflict (firebase_uid) do update
set
  email = coalesce(excluded.email, users.email),
  display_name = coalesce(excluded.display_name, users.display_name),
  photo_url = coalesce(excluded.photo_url, users.photo_url),
  updated_at = now()
returning id::text, role;
`
	var id, role string
	if err := r.db.QueryRow(ctx, q, u.FirebaseUID, u.Email, u.DisplayName, u.PhotoURL).Scan(&id, &role); err != nil {
		return "", "", err
	}
	return id, role, nil
}

const userColumns = `
id::text, firebase_uid, coalesce(email,''), coalesce(display_name,''),
coalesce(photo_url,''), role, coalesce(title,''), coalesce(phone,''),
created_at, updated_at, last_login_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.FirebaseUID, &u.Email, &u.DisplayName,
		&u.PhotoURL, &u.Role, &u.Title, &u.Phone,
		&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repo) GetByFirebaseUID(ctx context.Context, uid string) (*User, error) {
	q := `select ` + userColumns + ` from users where firebase_uid = $1;`
	return scanUser(r.db.QueryRow(ctx, q, uid))
}

// List returns the user directory, used by assignee pickers.
func (r *Repo) List(ctx context.Context) ([]User, error) {
	q := `select ` + userColumns + ` from users order by lower(coalesce(nullif(display_name,''), nullif(email,''), firebase_uid));`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]User, 0, 16)
	for rows.Next() {
		var u User
		if err := rows.Scan(
			&u.ID, &u.FirebaseUID, &u.Email, &u.DisplayName,
			&u.PhotoURL, &u.Role, &u.Title, &u.Phone,
			&u.CreatedAt, &u.UpdatedAt, &u.LastLoginAt,
		); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

type UpdateProfile struct {
	DisplayName *string
	PhotoURL    *string
	Title       *string
	Phone       *string
}

func (r *Repo) UpdateProfile(ctx context.Context, uid string, in UpdateProfile) (*User, error) {
	q := `
update users
set display_name = coalesce($2, display_name),
    photo_url    = coalesce($3, photo_url),
    title        = coalesce($4, title),
    phone        = coalesce($5, phone),
    updated_at   = now()
where firebase_uid = $1
returning ` + userColumns + `;`
	return scanUser(r.db.QueryRow(ctx, q, uid, in.DisplayName, in.PhotoURL, in.Title, in.Phone))
}

func (r *Repo) SetRole(ctx context.Context, uid, role string) (*User, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("invalid role %q", role)
	}
	q := `
update users
set role = $2, updated_at = now()
where firebase_uid = $1
returning ` + userColumns + `;`
	return scanUser(r.db.QueryRow(ctx, q, uid, role))
}

func (r *Repo) RecordLogin(ctx context.Context, uid string) error {
	_, err := r.db.Exec(ctx, `update users set last_login_at = now() where firebase_uid = $1;`, uid)
	return err
}
