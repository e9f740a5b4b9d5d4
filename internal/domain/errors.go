package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidRequest     = errors.New("invalid request")
	ErrInsufficientTokens = errors.New("insufficient tokens")
	ErrProviderFailure    = errors.New("provider failure")
	ErrRenderFailure      = errors.New("render failure")
	ErrArtifactMissing    = errors.New("artifact missing")
)

// InsufficientTokensError reports a rejected debit with the amounts involved
// so the boundary can surface required vs available to the caller.
type InsufficientTokensError struct {
	Required  int
	Available int
}

func (e *InsufficientTokensError) Error() string {
	return fmt.Sprintf("insufficient tokens: required %d, available %d", e.Required, e.Available)
}

func (e *InsufficientTokensError) Unwrap() error { return ErrInsufficientTokens }
