package audit

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type stubTimelineRepo struct {
	windowRows     []TimelineRow
	allRows        []TimelineRow
	lastWindowCall TimelineQuery
	lastAllCall    TimelineQuery
}

func (s *stubTimelineRepo) TimelineWindow(ctx context.Context, arg TimelineQuery) ([]TimelineRow, error) {
	s.lastWindowCall = arg
	return s.windowRows, nil
}

func (s *stubTimelineRepo) TimelineAll(ctx context.Context, arg TimelineQuery) ([]TimelineRow, error) {
	s.lastAllCall = arg
	return s.allRows, nil
}

func mockRow(ts, email, dept, action, path string) TimelineRow {
	tval, _ := time.Parse(time.RFC3339, ts)
	return TimelineRow{At: tval, UserEmail: email, Department: dept, Action: action, PagePath: path}
}

func TestServiceTimelinePaging(t *testing.T) {
	repo := &stubTimelineRepo{
		windowRows: []TimelineRow{
			mockRow("2026-03-10T10:00:00Z", "editor@lumina.test", "EDITORIAL", "ACCESS_ALLOWED", "/admin/editorial"),
			mockRow("2026-03-09T09:00:00Z", "editor@lumina.test", "CUSTOMER_SERVICE", "ACCESS_DENIED", "/admin/customer-service"),
			mockRow("2026-03-08T08:00:00Z", "admin@lumina.test", "MARKETING", "ACCESS_ALLOWED", "/admin/marketing"),
		},
	}
	svc := NewService(repo)
	result, err := svc.Timeline(context.Background(), TimelineFilters{
		From:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		To:       time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Page:     1,
		PageSize: 2,
	})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Rows))
	}
	if !result.Paging.HasNext {
		t.Fatalf("expected hasNext true")
	}
	if result.Paging.NextPage != 2 {
		t.Fatalf("expected nextPage 2, got %d", result.Paging.NextPage)
	}
	if repo.lastWindowCall.LimitRows != 3 {
		t.Fatalf("expected limitRows 3, got %d", repo.lastWindowCall.LimitRows)
	}
	if repo.lastWindowCall.OffsetRows != 0 {
		t.Fatalf("expected offset 0, got %d", repo.lastWindowCall.OffsetRows)
	}
}

func TestServiceTimelineClampsPageSize(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)
	if _, err := svc.Timeline(context.Background(), TimelineFilters{PageSize: 500}); err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if repo.lastWindowCall.LimitRows != 51 {
		t.Fatalf("expected limitRows 51, got %d", repo.lastWindowCall.LimitRows)
	}
}

func TestServiceExportReturnsAllRows(t *testing.T) {
	repo := &stubTimelineRepo{
		allRows: []TimelineRow{
			mockRow("2026-03-10T10:00:00Z", "editor@lumina.test", "EDITORIAL", "ACCESS_ALLOWED", "/admin/editorial"),
			mockRow("2026-03-09T09:00:00Z", "admin@lumina.test", "COACHING", "ACCESS_ALLOWED", "/admin/coaching"),
		},
	}
	svc := NewService(repo)
	rows, err := svc.Export(context.Background(), TimelineFilters{From: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if repo.lastAllCall.UserEmail != (pgtype.Text{}) {
		t.Fatalf("expected user filter empty")
	}
}

func TestServiceTimelineFilterMapping(t *testing.T) {
	repo := &stubTimelineRepo{}
	svc := NewService(repo)
	_, err := svc.Timeline(context.Background(), TimelineFilters{
		UserEmail:  "  editor@lumina.test  ",
		Department: "EDITORIAL",
		Action:     "",
	})
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if got := repo.lastWindowCall.UserEmail; !got.Valid || got.String != "editor@lumina.test" {
		t.Fatalf("expected trimmed user filter, got %+v", got)
	}
	if got := repo.lastWindowCall.Department; !got.Valid || got.String != "EDITORIAL" {
		t.Fatalf("expected department filter, got %+v", got)
	}
	if repo.lastWindowCall.Action.Valid {
		t.Fatalf("expected empty action filter")
	}
}
