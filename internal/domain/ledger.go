package domain

import "time"

// TokenBalance is one user's token account. Available is always derived as
// TotalTokens - UsedTokens and is never allowed to go negative: a debit that
// would overdraw the account fails closed without mutating anything.
type TokenBalance struct {
	UserID      string
	TotalTokens int
	UsedTokens  int
	UpdatedAt   time.Time
}

// Available returns the spendable remainder of the account.
func (b TokenBalance) Available() int {
	return b.TotalTokens - b.UsedTokens
}
