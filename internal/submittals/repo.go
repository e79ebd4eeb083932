package submittals

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
	ErrNotFound        = errors.New("submittal not found")
	ErrProjectNotFound = errors.New("project not found")
	ErrBadTransition   = errors.New("invalid status transition")
)

const (
	StatusDraft           = "draft"
	StatusSubmitted       = "submitted"
	StatusUnderReview     = "under_review"
	StatusApproved        = "approved"
	StatusApprovedAsNoted = "approved_as_noted"
	StatusReviseResubmit  = "revise_resubmit"
	StatusRejected        = "rejected"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusUnderReview, StatusApproved,
		StatusApprovedAsNoted, StatusReviseResubmit, StatusRejected:
		return true
	}
	return false
}

// ValidDecision covers what a reviewer may move a submittal to.
func ValidDecision(s string) bool {
	switch s {
	case StatusUnderReview, StatusApproved, StatusApprovedAsNoted, StatusReviseResubmit, StatusRejected:
		return true
	}
	return false
}

func ValidType(s string) bool {
	switch s {
	case "product_data", "shop_drawings", "samples", "mockup":
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

type Submittal struct {
	PublicID       string     `json:"public_id"`
	ProjectID      string     `json:"project_id"`
	Number         int        `json:"number"`
	NumberLabel    string     `json:"number_label"`
	Revision       int        `json:"revision"`
	Title          string     `json:"title"`
	SpecSection    string     `json:"spec_section,omitempty"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	FactoryID      string     `json:"factory_id,omitempty"`
	ReviewerUID    string     `json:"reviewer_uid,omitempty"`
	ReviewNotes    string     `json:"review_notes,omitempty"`
	RequiredOnSite *time.Time `json:"required_on_site,omitempty"`
	LeadTimeDays   int        `json:"lead_time_days,omitempty"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`
	CreatedBy      string     `json:"created_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

const submittalColumns = `
	public_id,
	project_public_id,
	number,
	revision,
	title,
	coalesce(spec_section, '') as spec_section,
	type,
	status,
	coalesce(factory_public_id, '') as factory_public_id,
	coalesce(reviewer_uid, '') as reviewer_uid,
	coalesce(review_notes, '') as review_notes,
	required_on_site,
	coalesce(lead_time_days, 0) as lead_time_days,
	submitted_at,
	reviewed_at,
	coalesce(created_by, '') as created_by,
	created_at,
	updated_at`

func scanSubmittal(row pgx.Row) (*Submittal, error) {
	var s Submittal
	err := row.Scan(
		&s.PublicID, &s.ProjectID, &s.Number, &s.Revision, &s.Title,
		&s.SpecSection, &s.Type, &s.Status, &s.FactoryID, &s.ReviewerUID,
		&s.ReviewNotes, &s.RequiredOnSite, &s.LeadTimeDays,
		&s.SubmittedAt, &s.ReviewedAt, &s.CreatedBy, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.NumberLabel = fmt.Sprintf("SUB-%03d", s.Number)
	return &s, nil
}

type CreateSubmittal struct {
	Title          string
	SpecSection    string
	Type           string
	FactoryID      string
	ReviewerUID    string
	RequiredOnSite *time.Time
	LeadTimeDays   int
}

// Create opens a new submittal thread as a draft at revision 0,
// allocating the next per-project number under the project row lock.
func (r *Repo) Create(ctx context.Context, createdBy, projectPublicID string, in CreateSubmittal) (*Submittal, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("title required")
	}
	if in.Type == "" {
		in.Type = "product_data"
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
		`select coalesce(max(number), 0) + 1 from submittals where project_public_id = $1;`,
		projectPublicID,
	).Scan(&next)
	if err != nil {
		return nil, err
	}

	publicID, err := ids.NewPublicID("subm")
	if err != nil {
		return nil, err
	}

	const insQ = `
insert into submittals (public_id, project_public_id, number, revision, title, spec_section, type, status, factory_public_id, reviewer_uid, required_on_site, lead_time_days, created_by)
values ($1, $2, $3, 0, $4, nullif($5, ''), $6, 'draft', nullif($7, ''), nullif($8, ''), $9, $10, nullif($11, ''))
returning ` + submittalColumns + `;
`
	out, err := scanSubmittal(tx.QueryRow(ctx, insQ,
		publicID, projectPublicID, next, in.Title, in.SpecSection, in.Type,
		in.FactoryID, in.ReviewerUID, in.RequiredOnSite, in.LeadTimeDays, createdBy,
	))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

type Filter struct {
	ProjectID string
	Status    string
	Type      string
	FactoryID string
}

func (r *Repo) List(ctx context.Context, f Filter) ([]Submittal, error) {
	q := `select ` + submittalColumns + ` from submittals where deleted_at is null`
	args := make([]any, 0, 4)

	if f.ProjectID != "" {
		args = append(args, f.ProjectID)
		q += fmt.Sprintf(" and project_public_id = $%d", len(args))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		q += fmt.Sprintf(" and status = $%d", len(args))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		q += fmt.Sprintf(" and type = $%d", len(args))
	}
	if f.FactoryID != "" {
		args = append(args, f.FactoryID)
		q += fmt.Sprintf(" and factory_public_id = $%d", len(args))
	}
	q += " order by number desc, revision desc;"

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Submittal, 0, 16)
	for rows.Next() {
		s, err := scanSubmittal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, publicID string) (*Submittal, error) {
	const q = `select ` + submittalColumns + ` from submittals where public_id = $1 and deleted_at is null;`
	return scanSubmittal(r.db.QueryRow(ctx, q, publicID))
}

type UpdateSubmittal struct {
	Title          *string
	SpecSection    *string
	Type           *string
	FactoryID      *string
	ReviewerUID    *string
	RequiredOnSite *time.Time
	LeadTimeDays   *int
}

func (r *Repo) Update(ctx context.Context, publicID string, in UpdateSubmittal) (*Submittal, error) {
	const q = `
update submittals set
	title             = coalesce($2, title),
	spec_section      = nullif(coalesce($3, spec_section, ''), ''),
	type              = coalesce($4, type),
	factory_public_id = nullif(coalesce($5, factory_public_id, ''), ''),
	reviewer_uid      = nullif(coalesce($6, reviewer_uid, ''), ''),
	required_on_site  = coalesce($7, required_on_site),
	lead_time_days    = coalesce($8, lead_time_days),
	updated_at        = now()
where public_id = $1 and deleted_at is null
returning ` + submittalColumns + `;
`
	return scanSubmittal(r.db.QueryRow(ctx, q,
		publicID, in.Title, in.SpecSection, in.Type, in.FactoryID,
		in.ReviewerUID, in.RequiredOnSite, in.LeadTimeDays,
	))
}

// Submit moves a draft or revise_resubmit row to submitted and starts a
// fresh review cycle.
func (r *Repo) Submit(ctx context.Context, publicID string) (*Submittal, error) {
	const q = `
update submittals set
	status       = 'submitted',
	submitted_at = now(),
	reviewed_at  = null,
	review_notes = null,
	updated_at   = now()
where public_id = $1 and deleted_at is null and status in ('draft', 'revise_resubmit')
returning ` + submittalColumns + `;
`
	out, err := scanSubmittal(r.db.QueryRow(ctx, q, publicID))
	if errors.Is(err, ErrNotFound) {
		if cur, gerr := r.Get(ctx, publicID); gerr == nil {
			return nil, fmt.Errorf("%w: cannot submit from %s", ErrBadTransition, cur.Status)
		}
		return nil, ErrNotFound
	}
	return out, err
}

// Review records the reviewer's decision. under_review only follows
// submitted; the four terminal decisions follow submitted or
// under_review and stamp reviewed_at. Reviewing a draft is rejected.
func (r *Repo) Review(ctx context.Context, publicID, reviewerUID, decision, notes string) (*Submittal, error) {
	const q = `
update submittals set
	status       = $2,
	reviewer_uid = coalesce(nullif($3, ''), reviewer_uid),
	review_notes = nullif($4, ''),
	reviewed_at  = case when $2 = 'under_review' then null else now() end,
	updated_at   = now()
where public_id = $1 and deleted_at is null
  and (
	($2 = 'under_review' and status = 'submitted')
	or ($2 in ('approved', 'approved_as_noted', 'revise_resubmit', 'rejected') and status in ('submitted', 'under_review'))
  )
returning ` + submittalColumns + `;
`
	out, err := scanSubmittal(r.db.QueryRow(ctx, q, publicID, decision, reviewerUID, notes))
	if errors.Is(err, ErrNotFound) {
		if cur, gerr := r.Get(ctx, publicID); gerr == nil {
			return nil, fmt.Errorf("%w: cannot move %s to %s", ErrBadTransition, cur.Status, decision)
		}
		return nil, ErrNotFound
	}
	return out, err
}

// Revise opens the next revision of a thread after revise_resubmit or
// rejected: a new draft row with the same number and revision+1. The
// whole thread is locked so concurrent revisions stay monotone.
func (r *Repo) Revise(ctx context.Context, revisedBy, publicID string) (*Submittal, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var projectID string
	var number int
	err = tx.QueryRow(ctx,
		`select project_public_id, number from submittals where public_id = $1 and deleted_at is null;`,
		publicID,
	).Scan(&projectID, &number)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	// lock every revision of the thread
	rows, err := tx.Query(ctx,
		`select public_id from submittals where project_public_id = $1 and number = $2 for update;`,
		projectID, number,
	)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	src, err := scanSubmittal(tx.QueryRow(ctx,
		`select `+submittalColumns+` from submittals where public_id = $1 and deleted_at is null;`,
		publicID,
	))
	if err != nil {
		return nil, err
	}
	if src.Status != StatusReviseResubmit && src.Status != StatusRejected {
		return nil, fmt.Errorf("%w: cannot revise from %s", ErrBadTransition, src.Status)
	}

	var nextRev int
	err = tx.QueryRow(ctx,
		`select coalesce(max(revision), 0) + 1 from submittals where project_public_id = $1 and number = $2;`,
		projectID, number,
	).Scan(&nextRev)
	if err != nil {
		return nil, err
	}

	newID, err := ids.NewPublicID("subm")
	if err != nil {
		return nil, err
	}

	const insQ = `
insert into submittals (public_id, project_public_id, number, revision, title, spec_section, type, status, factory_public_id, reviewer_uid, required_on_site, lead_time_days, created_by)
values ($1, $2, $3, $4, $5, nullif($6, ''), $7, 'draft', nullif($8, ''), nullif($9, ''), $10, $11, nullif($12, ''))
returning ` + submittalColumns + `;
`
	out, err := scanSubmittal(tx.QueryRow(ctx, insQ,
		newID, projectID, number, nextRev, src.Title, src.SpecSection, src.Type,
		src.FactoryID, src.ReviewerUID, src.RequiredOnSite, src.LeadTimeDays, revisedBy,
	))
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) SoftDelete(ctx context.Context, publicID string) (bool, error) {
	const q = `
update submittals
set deleted_at = now(), updated_at = now()
where public_id = $1 and deleted_at is null;
`
	ct, err := r.db.Exec(ctx, q, publicID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// Facts feeds the submittal aggregates; an empty project id means the
// whole portfolio. Every live revision row counts.
func (r *Repo) Facts(ctx context.Context, projectPublicID string) ([]analytics.SubmittalFacts, error) {
	q := `select status, submitted_at, reviewed_at from submittals where deleted_at is null`
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

	out := make([]analytics.SubmittalFacts, 0, 32)
	for rows.Next() {
		var f analytics.SubmittalFacts
		if err := rows.Scan(&f.Status, &f.SubmittedAt, &f.ReviewedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *Repo) FactsByProject(ctx context.Context) (map[string][]analytics.SubmittalFacts, error) {
	const q = `select project_public_id, status, submitted_at, reviewed_at from submittals where deleted_at is null;`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]analytics.SubmittalFacts)
	for rows.Next() {
		var pid string
		var f analytics.SubmittalFacts
		if err := rows.Scan(&pid, &f.Status, &f.SubmittedAt, &f.ReviewedAt); err != nil {
			return nil, err
		}
		out[pid] = append(out[pid], f)
	}
	return out, rows.Err()
}
