package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TimelineRow is one entry of the audit timeline as shown to an operator.
type TimelineRow struct {
	At         time.Time
	UserEmail  string
	Department string
	Action     string
	PagePath   string
	IPAddress  string
}

// TimelineFilters narrows the timeline query. Zero values mean "no filter".
type TimelineFilters struct {
	From       time.Time
	To         time.Time
	UserEmail  string
	Department string
	Action     string
	Page       int
	PageSize   int
}

// PagingInfo describes the window returned by Timeline.
type PagingInfo struct {
	Page     int
	PageSize int
	HasNext  bool
	PrevPage int
	NextPage int
}

// TimelineQuery carries the resolved parameters handed to the repository.
type TimelineQuery struct {
	FromAt     pgtype.Timestamptz
	ToAt       pgtype.Timestamptz
	UserEmail  pgtype.Text
	Department pgtype.Text
	Action     pgtype.Text
	OffsetRows int32
	LimitRows  int32
}

// TimelineRepository is the persistence port for timeline reads.
type TimelineRepository interface {
	TimelineWindow(ctx context.Context, arg TimelineQuery) ([]TimelineRow, error)
	TimelineAll(ctx context.Context, arg TimelineQuery) ([]TimelineRow, error)
}

// PGTimelineRepository reads the audit table via pgx.
type PGTimelineRepository struct {
	pool *pgxpool.Pool
}

// NewTimelineRepository returns a Postgres-backed timeline repository.
func NewTimelineRepository(pool *pgxpool.Pool) *PGTimelineRepository {
	return &PGTimelineRepository{pool: pool}
}

const timelineBaseQuery = `
	SELECT occurred_at, user_email, COALESCE(department, ''), action, page_path, COALESCE(ip_address, '')
	FROM access_audit_log
	WHERE ($1::timestamptz IS NULL OR occurred_at >= $1)
	  AND ($2::timestamptz IS NULL OR occurred_at <= $2)
	  AND ($3::text IS NULL OR user_email = $3)
	  AND ($4::text IS NULL OR department = $4)
	  AND ($5::text IS NULL OR action = $5)
	ORDER BY occurred_at DESC`

// TimelineWindow returns one page of the timeline.
func (r *PGTimelineRepository) TimelineWindow(ctx context.Context, arg TimelineQuery) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, timelineBaseQuery+" LIMIT $6 OFFSET $7",
		arg.FromAt, arg.ToAt, arg.UserEmail, arg.Department, arg.Action, arg.LimitRows, arg.OffsetRows)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTimelineRows(rows)
}

// TimelineAll returns the full filtered timeline for export.
func (r *PGTimelineRepository) TimelineAll(ctx context.Context, arg TimelineQuery) ([]TimelineRow, error) {
	rows, err := r.pool.Query(ctx, timelineBaseQuery,
		arg.FromAt, arg.ToAt, arg.UserEmail, arg.Department, arg.Action)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTimelineRows(rows)
}

type pgRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTimelineRows(rows pgRows) ([]TimelineRow, error) {
	var out []TimelineRow
	for rows.Next() {
		var (
			at  pgtype.Timestamptz
			row TimelineRow
		)
		if err := rows.Scan(&at, &row.UserEmail, &row.Department, &row.Action, &row.PagePath, &row.IPAddress); err != nil {
			return nil, err
		}
		if at.Valid {
			row.At = at.Time
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

var _ TimelineRepository = (*PGTimelineRepository)(nil)
