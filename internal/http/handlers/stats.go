package handlers

import (
	"errors"
	"net/http"

	"server/internal/domain"
	"server/internal/sqlinline"
)

func (a *App) StatsSummary(w http.ResponseWriter, r *http.Request) {
	row := a.SQL.QueryRow(r.Context(), sqlinline.QStatsSummary)
	var totalUsers, completed, failed, last24, consumed, refunded int64
	if err := row.Scan(&totalUsers, &completed, &failed, &last24, &consumed, &refunded); err != nil {
		a.error(w, http.StatusInternalServerError, "internal", "failed to load stats")
		return
	}
	body := map[string]any{
		"total_users":       totalUsers,
		"reports_completed": completed,
		"reports_failed":    failed,
		"reports_last_24h":  last24,
		"tokens_consumed":   consumed,
		"tokens_refunded":   refunded,
	}
	if a.Analytics != nil {
		latest, err := a.Analytics.GetSummary(r.Context())
		switch {
		case err == nil:
			body["latest_day"] = map[string]any{
				"day":              latest.Day,
				"report_requests":  latest.ReportRequests,
				"request_success":  latest.RequestSuccess,
				"request_fail":     latest.RequestFail,
				"tokens_consumed":  latest.TokensConsumed,
				"tokens_refunded":  latest.TokensRefunded,
				"artifacts_served": latest.ArtifactsServed,
			}
		case !errors.Is(err, domain.ErrNotFound):
			a.Logger.Warn().Err(err).Msg("daily analytics unavailable")
		}
	}
	a.json(w, http.StatusOK, body)
}
