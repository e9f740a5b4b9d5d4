package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"server/internal/domain"
	"server/internal/domain/jsoncfg"
	"server/internal/middleware"
	"server/internal/report"
	"server/pkg/zip"
)

type submitResponse struct {
	JobID      string `json:"job_id"`
	Status     string `json:"status"`
	Tier       string `json:"tier"`
	CostTokens int    `json:"cost_tokens"`
}

func (a *App) ReportsCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req jsoncfg.ReportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	req.Normalize(middleware.LocaleFromContext(r.Context()))

	job, err := a.Service.Submit(r.Context(), userID, req)
	if err != nil {
		var insufficient *domain.InsufficientTokensError
		switch {
		case errors.As(err, &insufficient):
			a.json(w, http.StatusPaymentRequired, map[string]any{
				"error":     "insufficient_tokens",
				"message":   "token balance does not cover this tier",
				"required":  insufficient.Required,
				"available": insufficient.Available,
			})
		case errors.Is(err, domain.ErrInvalidRequest):
			a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		default:
			a.Logger.Error().Err(err).Str("user_id", userID).Msg("report submit failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to submit report")
		}
		return
	}
	a.Logger.Info().
		Str("job_id", job.ID).
		Str("user_id", userID).
		Str("tier", string(job.Tier)).
		Str("country", a.clientCountry(r)).
		Msg("report submitted")
	a.json(w, http.StatusAccepted, submitResponse{
		JobID:      job.ID,
		Status:     string(job.Status),
		Tier:       string(job.Tier),
		CostTokens: job.CostTokens,
	})
}

func (a *App) ReportStatus(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}
	job, err := a.Reports.GetForUser(r.Context(), jobID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "report not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load report")
		return
	}
	a.json(w, http.StatusOK, reportView(job))
}

func (a *App) ReportsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 100 {
			limit = v
		}
	}
	jobs, err := a.Reports.ListByUser(r.Context(), userID, limit)
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to list reports")
		return
	}
	items := make([]map[string]any, 0, len(jobs))
	for i := range jobs {
		items = append(items, reportView(&jobs[i]))
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) ReportDownload(w http.ResponseWriter, r *http.Request) {
	job, data, ok := a.loadArtifact(w, r)
	if !ok {
		return
	}
	a.countServedArtifact(r, job.ID)
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=report-%s.pdf", job.ID))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ReportBundle serves the artifact plus a JSON manifest as one zip archive.
func (a *App) ReportBundle(w http.ResponseWriter, r *http.Request) {
	job, data, ok := a.loadArtifact(w, r)
	if !ok {
		return
	}
	manifest, err := json.MarshalIndent(reportView(job), "", "  ")
	if err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build manifest")
		return
	}
	archive := zip.Archive([]zip.Entry{
		{Name: fmt.Sprintf("report-%s.pdf", job.ID), Data: data},
		{Name: "manifest.json", Data: manifest},
	})
	if len(archive) == 0 {
		a.error(w, http.StatusInternalServerError, "internal", "failed to build bundle")
		return
	}
	a.countServedArtifact(r, job.ID)
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=report-%s.zip", job.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// countServedArtifact bumps the per-job and daily served counters. Neither
// failure blocks the response.
func (a *App) countServedArtifact(r *http.Request, jobID string) {
	if err := a.Reports.RecordDownload(r.Context(), jobID); err != nil {
		a.Logger.Warn().Err(err).Str("job_id", jobID).Msg("download not counted")
	}
	if a.Analytics == nil {
		return
	}
	day := time.Now().UTC().Format("2006-01-02")
	if err := a.Analytics.IncrementCounters(r.Context(), day, map[string]int{"artifacts_served": 1}); err != nil {
		a.Logger.Warn().Err(err).Str("job_id", jobID).Msg("daily download counter not updated")
	}
}

// loadArtifact resolves the job for the caller and reads its artifact. It
// writes the error response itself and reports ok=false when the caller
// should stop.
func (a *App) loadArtifact(w http.ResponseWriter, r *http.Request) (*domain.ReportJob, []byte, bool) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return nil, nil, false
	}
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return nil, nil, false
	}
	job, err := a.Reports.GetForUser(r.Context(), jobID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "report not found")
			return nil, nil, false
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load report")
		return nil, nil, false
	}
	if job.Status != domain.ReportStatusCompleted || job.ArtifactKey == "" {
		a.error(w, http.StatusConflict, "not_ready", "report is not completed")
		return nil, nil, false
	}
	data, err := a.Store.Read(r.Context(), job.ArtifactKey)
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", job.ID).Msg("artifact read failed")
		a.error(w, http.StatusInternalServerError, "internal", "artifact unavailable")
		return nil, nil, false
	}
	return job, data, true
}

func reportView(job *domain.ReportJob) map[string]any {
	view := map[string]any{
		"id":             job.ID,
		"tier":           string(job.Tier),
		"status":         string(job.Status),
		"cost_tokens":    job.CostTokens,
		"preview":        job.Preview,
		"download_count": job.DownloadCount,
		"created_at":     job.CreatedAt,
		"updated_at":     job.UpdatedAt,
	}
	if job.Status == domain.ReportStatusCompleted {
		view["artifact_bytes"] = job.ArtifactBytes
		view["usage"] = job.Usage
		view["completed_at"] = job.CompletedAt
	}
	if job.Status == domain.ReportStatusFailed {
		view["error_message"] = job.ErrorMessage
	}
	// section count is derivable from the tier and useful to pollers
	view["sections"] = len(report.TierSections(job.Tier))
	return view
}
