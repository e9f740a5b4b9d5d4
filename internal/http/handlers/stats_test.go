package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rs/zerolog"

	"server/internal/domain"
)

type statsSQL struct {
	row SimpleRow
}

func (s *statsSQL) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, errors.New("not implemented")
}

func (s *statsSQL) QueryRow(context.Context, string, ...any) pgx.Row {
	return s.row
}

func (s *statsSQL) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}

func TestStatsSummary(t *testing.T) {
	row := NewSimpleRow(func(dest ...any) error {
		values := []int64{42, 100, 7, 12, 550000, 66500}
		for i, d := range dest {
			*(d.(*int64)) = values[i]
		}
		return nil
	})
	app := &App{Logger: zerolog.Nop(), SQL: &statsSQL{row: row}}

	rec := httptest.NewRecorder()
	app.StatsSummary(rec, httptest.NewRequest(http.MethodGet, "/v1/stats/summary", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["total_users"] != 42 || resp["reports_completed"] != 100 || resp["tokens_refunded"] != 66500 {
		t.Fatalf("resp = %v", resp)
	}
}

type fakeAnalytics struct {
	summary *domain.AnalyticsDaily
	bumps   []map[string]int
}

func (f *fakeAnalytics) IncrementCounters(_ context.Context, _ string, counters map[string]int) error {
	f.bumps = append(f.bumps, counters)
	return nil
}

func (f *fakeAnalytics) GetSummary(context.Context) (*domain.AnalyticsDaily, error) {
	if f.summary == nil {
		return nil, domain.ErrNotFound
	}
	return f.summary, nil
}

func TestStatsSummaryIncludesLatestDay(t *testing.T) {
	row := NewSimpleRow(func(dest ...any) error {
		for _, d := range dest {
			*(d.(*int64)) = 1
		}
		return nil
	})
	analytics := &fakeAnalytics{summary: &domain.AnalyticsDaily{
		Day:             time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		ReportRequests:  9,
		ArtifactsServed: 4,
	}}
	app := &App{Logger: zerolog.Nop(), SQL: &statsSQL{row: row}, Analytics: analytics}

	rec := httptest.NewRecorder()
	app.StatsSummary(rec, httptest.NewRequest(http.MethodGet, "/v1/stats/summary", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	latest, ok := resp["latest_day"].(map[string]any)
	if !ok {
		t.Fatalf("latest_day missing: %v", resp)
	}
	if latest["report_requests"].(float64) != 9 || latest["artifacts_served"].(float64) != 4 {
		t.Fatalf("latest_day = %v", latest)
	}
}

func TestStatsSummaryScanError(t *testing.T) {
	app := &App{Logger: zerolog.Nop(), SQL: &statsSQL{row: NewSimpleRow(nil)}}

	rec := httptest.NewRecorder()
	app.StatsSummary(rec, httptest.NewRequest(http.MethodGet, "/v1/stats/summary", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}
