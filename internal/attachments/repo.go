package attachments

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/RoverLander/Sunbelt-PM-System-V1-sub000/internal/ids"
)

var (
	ErrNotFound      = errors.New("attachment not found")
	ErrOwnerNotFound = errors.New("owner entity not found")
)

// ownerTables is the closed set of entities that can carry attachments.
// Table names come from here, never from request input.
var ownerTables = map[string]string{
	"project":   "projects",
	"rfi":       "rfis",
	"submittal": "submittals",
	"task":      "tasks",
}

func ValidEntityType(s string) bool {
	_, ok := ownerTables[s]
	return ok
}

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type Attachment struct {
	PublicID    string    `json:"public_id"`
	EntityType  string    `json:"entity_type"`
	EntityID    string    `json:"entity_id"`
	FileName    string    `json:"file_name"`
	ContentType string    `json:"content_type"`
	SizeBytes   int64     `json:"size_bytes"`
	ObjectKey   string    `json:"object_key"`
	UploadedBy  string    `json:"uploaded_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const attachmentColumns = `
	public_id,
	entity_type,
	entity_public_id,
	file_name,
	content_type,
	size_bytes,
	object_key,
	coalesce(uploaded_by, '') as uploaded_by,
	created_at,
	updated_at`

func scanAttachment(row pgx.Row) (*Attachment, error) {
	var a Attachment
	err := row.Scan(
		&a.PublicID, &a.EntityType, &a.EntityID, &a.FileName, &a.ContentType,
		&a.SizeBytes, &a.ObjectKey, &a.UploadedBy, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ObjectKey namespaces bucket objects so keys never collide and a
// bucket listing reads like the domain.
func ObjectKey(entityType, entityPublicID, attachmentPublicID, fileName string) string {
	return fmt.Sprintf("%s/%s/%s/%s", entityType, entityPublicID, attachmentPublicID, fileName)
}

// SanitizeFileName strips any path components from a client-supplied
// file name.
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(strings.TrimSpace(name))
	if name == "." || name == ".." || name == "/" {
		return ""
	}
	return name
}

type CreateAttachment struct {
	FileName    string
	ContentType string
	SizeBytes   int64
}

// Create records the metadata row for an upload about to happen. The
// owner row must be live; the object key is derived, not supplied.
func (r *Repo) Create(ctx context.Context, uploadedBy, entityType, entityPublicID string, in CreateAttachment) (*Attachment, error) {
	table, ok := ownerTables[entityType]
	if !ok {
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}
	if in.FileName == "" {
		return nil, fmt.Errorf("file_name required")
	}
	if in.ContentType == "" {
		in.ContentType = "application/octet-stream"
	}

	publicID, err := ids.NewHexID("att")
	if err != nil {
		return nil, err
	}
	objectKey := ObjectKey(entityType, entityPublicID, publicID, in.FileName)

	q := fmt.Sprintf(`
insert into attachments (public_id, entity_type, entity_public_id, file_name, content_type, size_bytes, object_key, uploaded_by)
select $1, $2, o.public_id, $4, $5, $6, $7, nullif($8, '')
from %s o
where o.public_id = $3 and o.deleted_at is null
returning `+attachmentColumns+`;
`, table)

	a, err := scanAttachment(r.db.QueryRow(ctx, q,
		publicID, entityType, entityPublicID, in.FileName, in.ContentType, in.SizeBytes, objectKey, uploadedBy,
	))
	if errors.Is(err, ErrNotFound) {
		return nil, ErrOwnerNotFound
	}
	return a, err
}

func (r *Repo) ListForEntity(ctx context.Context, entityType, entityPublicID string) ([]Attachment, error) {
	const q = `
select ` + attachmentColumns + `
from attachments
where entity_type = $1 and entity_public_id = $2 and deleted_at is null
order by created_at desc;
`
	rows, err := r.db.Query(ctx, q, entityType, entityPublicID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Attachment, 0, 8)
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, publicID string) (*Attachment, error) {
	const q = `select ` + attachmentColumns + ` from attachments where public_id = $1 and deleted_at is null;`
	return scanAttachment(r.db.QueryRow(ctx, q, publicID))
}

// SoftDelete hides the row. The object itself ages out through the
// bucket lifecycle policy.
func (r *Repo) SoftDelete(ctx context.Context, publicID string) (bool, error) {
	const q = `
update attachments
set deleted_at = now(), updated_at = now()
where public_id = $1 and deleted_at is null;
`
	ct, err := r.db.Exec(ctx, q, publicID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}
