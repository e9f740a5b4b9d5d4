package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/middleware"
	"server/internal/providers/llm"
	"server/internal/report"
	"server/internal/storage"
)

type memReports struct {
	mu   sync.Mutex
	jobs map[string]*domain.ReportJob
}

func newMemReports() *memReports { return &memReports{jobs: map[string]*domain.ReportJob{}} }

func (r *memReports) Create(_ context.Context, job *domain.ReportJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

func (r *memReports) GetByID(_ context.Context, jobID string) (*domain.ReportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *job
	return &cp, nil
}

func (r *memReports) GetForUser(ctx context.Context, jobID, userID string) (*domain.ReportJob, error) {
	job, err := r.GetByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return job, nil
}

func (r *memReports) ListByUser(_ context.Context, userID string, _ int) ([]domain.ReportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ReportJob
	for _, job := range r.jobs {
		if job.UserID == userID {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (r *memReports) MarkProcessing(_ context.Context, jobID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok || job.Status != domain.ReportStatusPending {
		return false, nil
	}
	job.Status = domain.ReportStatusProcessing
	return true, nil
}

func (r *memReports) MarkCompleted(_ context.Context, jobID string, update domain.CompletionUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job := r.jobs[jobID]
	job.Status = domain.ReportStatusCompleted
	job.ArtifactKey = update.ArtifactKey
	job.ArtifactBytes = update.ArtifactBytes
	job.Preview = update.Preview
	job.Usage = update.Usage
	at := update.CompletedAt
	job.CompletedAt = &at
	return nil
}

func (r *memReports) MarkFailed(_ context.Context, jobID, errMsg string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[jobID]
	if !ok || job.Status.Terminal() {
		return false, nil
	}
	job.Status = domain.ReportStatusFailed
	job.ErrorMessage = errMsg
	return true, nil
}

func (r *memReports) RecordDownload(_ context.Context, jobID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if job, ok := r.jobs[jobID]; ok {
		job.DownloadCount++
	}
	return nil
}

type memLedger struct {
	mu    sync.Mutex
	total int
	used  int
}

func (l *memLedger) Debit(_ context.Context, _ string, amount int) (bool, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	available := l.total - l.used
	if available < amount {
		return false, available, nil
	}
	l.used += amount
	return true, available - amount, nil
}

func (l *memLedger) Credit(_ context.Context, _ string, amount int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.total += amount
	return nil
}

func (l *memLedger) Balance(_ context.Context, userID string) (*domain.TokenBalance, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &domain.TokenBalance{UserID: userID, TotalTokens: l.total, UsedTokens: l.used}, nil
}

type staticLLM struct{}

func (staticLLM) Complete(context.Context, llm.Request) (*llm.Response, error) {
	return &llm.Response{Content: "## Heading\n\nbody", Usage: llm.Usage{TotalTokens: 10}}, nil
}

func (staticLLM) Model() string { return "static" }

type bytesRenderer struct{}

func (bytesRenderer) Render(context.Context, report.Document) ([]byte, error) {
	return []byte("%PDF test"), nil
}

func newTestApp(t *testing.T, balance int) (*App, *memReports, *storage.FileStore) {
	t.Helper()
	reports := newMemReports()
	ledger := &memLedger{total: balance}
	store, err := storage.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	svc := report.NewService(report.Options{
		Reports:  reports,
		Ledger:   ledger,
		Synth:    report.NewSynthesizer(staticLLM{}, zerolog.Nop()),
		Renderer: bytesRenderer{},
		Store:    store,
		Logger:   zerolog.Nop(),
	})
	app := &App{
		Logger:    zerolog.Nop(),
		Service:   svc,
		Reports:   reports,
		Ledger:    ledger,
		Analytics: &fakeAnalytics{},
		Store:     store,
	}
	return app, reports, store
}

func authed(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

func withJobParam(r *http.Request, jobID string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("job_id", jobID)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestReportsCreateRequiresAuth(t *testing.T) {
	app, _, _ := newTestApp(t, 10000)
	req := httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	app.ReportsCreate(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestReportsCreateInsufficientTokens(t *testing.T) {
	app, _, _ := newTestApp(t, 1000)
	body := `{"idea":"a sufficiently long idea about desalination tech","tier":"basic"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader(body)), "user-1")
	rec := httptest.NewRecorder()

	app.ReportsCreate(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status = %d, want 402: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["error"] != "insufficient_tokens" {
		t.Fatalf("error slug = %v", resp["error"])
	}
	if resp["required"].(float64) != 2500 || resp["available"].(float64) != 1000 {
		t.Fatalf("amounts = %v / %v", resp["required"], resp["available"])
	}
}

func TestReportsCreateAccepted(t *testing.T) {
	app, reports, _ := newTestApp(t, 10000)
	body := `{"idea":"a sufficiently long idea about desalination tech","tier":"basic"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/v1/reports", strings.NewReader(body)), "user-1")
	rec := httptest.NewRecorder()

	app.ReportsCreate(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202: %s", rec.Code, rec.Body.String())
	}
	var resp submitResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.JobID == "" || resp.Status != "PENDING" || resp.CostTokens != 2500 {
		t.Fatalf("resp = %+v", resp)
	}

	// the detached run should finish against the in-memory fakes
	deadline := time.Now().Add(5 * time.Second)
	for {
		job, err := reports.GetByID(context.Background(), resp.JobID)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		if job.Status.Terminal() {
			if job.Status != domain.ReportStatusCompleted {
				t.Fatalf("status = %s (%q)", job.Status, job.ErrorMessage)
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job stuck in %s", job.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestReportStatusScopedToOwner(t *testing.T) {
	app, reports, _ := newTestApp(t, 10000)
	_ = reports.Create(context.Background(), &domain.ReportJob{
		ID: "job-1", UserID: "owner", Status: domain.ReportStatusPending, Tier: domain.TierBasic,
	})

	req := withJobParam(authed(httptest.NewRequest(http.MethodGet, "/v1/reports/job-1", nil), "intruder"), "job-1")
	rec := httptest.NewRecorder()
	app.ReportStatus(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404 for non-owner", rec.Code)
	}

	req = withJobParam(authed(httptest.NewRequest(http.MethodGet, "/v1/reports/job-1", nil), "owner"), "job-1")
	rec = httptest.NewRecorder()
	app.ReportStatus(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestReportDownloadNotReady(t *testing.T) {
	app, reports, _ := newTestApp(t, 10000)
	_ = reports.Create(context.Background(), &domain.ReportJob{
		ID: "job-1", UserID: "owner", Status: domain.ReportStatusProcessing, Tier: domain.TierBasic,
	})

	req := withJobParam(authed(httptest.NewRequest(http.MethodGet, "/v1/reports/job-1/download", nil), "owner"), "job-1")
	rec := httptest.NewRecorder()
	app.ReportDownload(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestReportDownloadServesArtifact(t *testing.T) {
	app, reports, store := newTestApp(t, 10000)
	key := report.ArtifactKey("job-1")
	if _, err := store.Write(context.Background(), key, []byte("%PDF data")); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	_ = reports.Create(context.Background(), &domain.ReportJob{
		ID: "job-1", UserID: "owner", Status: domain.ReportStatusCompleted,
		Tier: domain.TierBasic, ArtifactKey: key, ArtifactBytes: 9,
	})

	req := withJobParam(authed(httptest.NewRequest(http.MethodGet, "/v1/reports/job-1/download", nil), "owner"), "job-1")
	rec := httptest.NewRecorder()
	app.ReportDownload(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("content type = %q", ct)
	}
	if !bytes.Equal(rec.Body.Bytes(), []byte("%PDF data")) {
		t.Fatalf("body = %q", rec.Body.String())
	}
	job, _ := reports.GetByID(context.Background(), "job-1")
	if job.DownloadCount != 1 {
		t.Fatalf("download count = %d, want 1", job.DownloadCount)
	}
	analytics := app.Analytics.(*fakeAnalytics)
	if len(analytics.bumps) != 1 || analytics.bumps[0]["artifacts_served"] != 1 {
		t.Fatalf("analytics bumps = %v", analytics.bumps)
	}
}

func TestReportBundleServesZip(t *testing.T) {
	app, reports, store := newTestApp(t, 10000)
	key := report.ArtifactKey("job-1")
	if _, err := store.Write(context.Background(), key, []byte("%PDF data")); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	_ = reports.Create(context.Background(), &domain.ReportJob{
		ID: "job-1", UserID: "owner", Status: domain.ReportStatusCompleted,
		Tier: domain.TierBasic, ArtifactKey: key,
	})

	req := withJobParam(authed(httptest.NewRequest(http.MethodGet, "/v1/reports/job-1/bundle", nil), "owner"), "job-1")
	rec := httptest.NewRecorder()
	app.ReportBundle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("content type = %q", ct)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")) {
		t.Fatal("body is not a zip archive")
	}
}
