package repo

import (
	"context"
	"fmt"

	"server/internal/domain"
	"server/internal/infra"
	"server/internal/sqlinline"
)

// TokenLedgerPG implements domain.TokenLedger with single-statement
// conditional updates, so concurrent debits and refunds against the same
// account cannot lose updates.
type TokenLedgerPG struct {
	sql infra.SQLExecutor
}

// NewTokenLedger creates a ledger backed by PostgreSQL.
func NewTokenLedger(sql infra.SQLExecutor) *TokenLedgerPG {
	return &TokenLedgerPG{sql: sql}
}

// Debit consumes amount from the account if the available balance covers it.
// On refusal nothing is mutated and the current available balance is
// returned for error reporting.
func (l *TokenLedgerPG) Debit(ctx context.Context, userID string, amount int) (bool, int, error) {
	if amount <= 0 {
		return false, 0, fmt.Errorf("debit amount must be positive, got %d", amount)
	}
	row := l.sql.QueryRow(ctx, sqlinline.QDebitTokens, userID, amount)
	var available int
	if err := row.Scan(&available); err != nil {
		if !infra.IsNoRows(err) {
			return false, 0, fmt.Errorf("debit tokens: %w", err)
		}
		// Conditional update matched no row: either the balance is short or
		// the account does not exist. Report the real available amount.
		balance, berr := l.Balance(ctx, userID)
		if berr != nil {
			return false, 0, berr
		}
		return false, balance.Available(), nil
	}
	return true, available, nil
}

// Credit returns amount to the account. Used only as a compensating action;
// idempotency is the caller's responsibility.
func (l *TokenLedgerPG) Credit(ctx context.Context, userID string, amount int) error {
	if amount <= 0 {
		return fmt.Errorf("credit amount must be positive, got %d", amount)
	}
	row := l.sql.QueryRow(ctx, sqlinline.QCreditTokens, userID, amount)
	var available int
	if err := row.Scan(&available); err != nil {
		if infra.IsNoRows(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("credit tokens: %w", err)
	}
	return nil
}

// Balance reads the account.
func (l *TokenLedgerPG) Balance(ctx context.Context, userID string) (*domain.TokenBalance, error) {
	row := l.sql.QueryRow(ctx, sqlinline.QSelectTokenBalance, userID)
	var b domain.TokenBalance
	if err := row.Scan(&b.UserID, &b.TotalTokens, &b.UsedTokens, &b.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("select token balance: %w", err)
	}
	return &b, nil
}

var _ domain.TokenLedger = (*TokenLedgerPG)(nil)
