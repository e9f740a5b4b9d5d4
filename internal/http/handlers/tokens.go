package handlers

import (
	"errors"
	"net/http"

	"server/internal/domain"
)

func (a *App) TokenBalance(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	balance, err := a.Ledger.Balance(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "no token account")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load balance")
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"user_id":      balance.UserID,
		"total_tokens": balance.TotalTokens,
		"used_tokens":  balance.UsedTokens,
		"available":    balance.Available(),
		"updated_at":   balance.UpdatedAt,
	})
}

func (a *App) Me(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "user not found")
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "failed to load user")
		return
	}
	view := map[string]any{
		"id":                user.ID,
		"email":             user.Email,
		"name":              user.Name,
		"locale":            user.Locale,
		"role":              user.Role,
		"reports_requested": user.ReportsRequested,
		"created_at":        user.CreatedAt,
	}
	if balance, err := a.Ledger.Balance(r.Context(), userID); err == nil {
		view["available_tokens"] = balance.Available()
	}
	a.json(w, http.StatusOK, view)
}
