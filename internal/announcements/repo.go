package announcements

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

var ErrNotFound = errors.New("announcement not found")

const (
	AudienceAll     = "all"
	AudiencePM      = "pm"
	AudienceFactory = "factory"
	AudienceOffice  = "office"
)

func ValidAudience(s string) bool {
	switch s {
	case AudienceAll, AudiencePM, AudienceFactory, AudienceOffice:
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

type Announcement struct {
	PublicID   string     `json:"public_id"`
	Title      string     `json:"title"`
	Body       string     `json:"body,omitempty"`
	Audience   string     `json:"audience"`
	Pinned     bool       `json:"pinned"`
	PublishAt  time.Time  `json:"publish_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	ArchivedAt *time.Time `json:"archived_at,omitempty"`
	CreatedBy  string     `json:"created_by,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

const announcementColumns = `
	public_id,
	title,
	coalesce(body, '') as body,
	audience,
	pinned,
	publish_at,
	expires_at,
	archived_at,
	coalesce(created_by, '') as created_by,
	created_at,
	updated_at`

func scanAnnouncement(row pgx.Row) (*Announcement, error) {
	var a Announcement
	err := row.Scan(
		&a.PublicID, &a.Title, &a.Body, &a.Audience, &a.Pinned,
		&a.PublishAt, &a.ExpiresAt, &a.ArchivedAt,
		&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

type CreateAnnouncement struct {
	Title     string
	Body      string
	Audience  string
	Pinned    bool
	PublishAt *time.Time
	ExpiresAt *time.Time
}

func (r *Repo) Create(ctx context.Context, createdBy string, in CreateAnnouncement) (*Announcement, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("title required")
	}
	if in.Audience == "" {
		in.Audience = AudienceAll
	}

	for i := 0; i < 5; i++ {
		publicID, err := ids.NewPublicID("ann")
		if err != nil {
			return nil, err
		}

		const q = `
insert into announcements (public_id, title, body, audience, pinned, publish_at, expires_at, created_by)
values ($1, $2, nullif($3, ''), $4, $5, coalesce($6, now()), $7, nullif($8, ''))
returning ` + announcementColumns + `;
`
		a, err := scanAnnouncement(r.db.QueryRow(ctx, q,
			publicID, in.Title, in.Body, in.Audience, in.Pinned, in.PublishAt, in.ExpiresAt, createdBy,
		))
		if err == nil {
			return a, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique announcement id")
}

// ListActive returns the announcements a caller should see right now:
// published, not expired, not archived, audience matched, pinned first.
func (r *Repo) ListActive(ctx context.Context, audiences []string) ([]Announcement, error) {
	const q = `
select ` + announcementColumns + `
from announcements
where deleted_at is null
  and archived_at is null
  and audience = any($1)
  and publish_at <= now()
  and (expires_at is null or expires_at > now())
order by pinned desc, publish_at desc;
`
	rows, err := r.db.Query(ctx, q, audiences)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Announcement, 0, 8)
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

// ListAll is the management view: scheduled and archived rows included.
func (r *Repo) ListAll(ctx context.Context) ([]Announcement, error) {
	const q = `
select ` + announcementColumns + `
from announcements
where deleted_at is null
order by pinned desc, publish_at desc;
`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Announcement, 0, 8)
	for rows.Next() {
		a, err := scanAnnouncement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

type UpdateAnnouncement struct {
	Title     *string
	Body      *string
	Audience  *string
	PublishAt *time.Time
	ExpiresAt *time.Time
}

func (r *Repo) Update(ctx context.Context, publicID string, in UpdateAnnouncement) (*Announcement, error) {
	const q = `
update announcements set
	title      = coalesce($2, title),
	body       = nullif(coalesce($3, body, ''), ''),
	audience   = coalesce($4, audience),
	publish_at = coalesce($5, publish_at),
	expires_at = coalesce($6, expires_at),
	updated_at = now()
where public_id = $1 and deleted_at is null
returning ` + announcementColumns + `;
`
	return scanAnnouncement(r.db.QueryRow(ctx, q,
		publicID, in.Title, in.Body, in.Audience, in.PublishAt, in.ExpiresAt,
	))
}

func (r *Repo) SetPinned(ctx context.Context, publicID string, pinned bool) (*Announcement, error) {
	const q = `
update announcements
set pinned = $2, updated_at = now()
where public_id = $1 and deleted_at is null
returning ` + announcementColumns + `;
`
	return scanAnnouncement(r.db.QueryRow(ctx, q, publicID, pinned))
}

func (r *Repo) SoftDelete(ctx context.Context, publicID string) (bool, error) {
	const q = `
update announcements
set deleted_at = now(), updated_at = now()
where public_id = $1 and deleted_at is null;
`
	ct, err := r.db.Exec(ctx, q, publicID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// SweepExpired archives announcements past their expiry. Archived rows
// stay readable in the management view; nothing is deleted.
func (r *Repo) SweepExpired(ctx context.Context) (int64, error) {
	const q = `
update announcements
set archived_at = now(), updated_at = now()
where deleted_at is null
  and archived_at is null
  and expires_at is not null
  and expires_at <= now();
`
	ct, err := r.db.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}
