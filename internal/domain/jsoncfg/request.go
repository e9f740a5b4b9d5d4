package jsoncfg

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"server/internal/domain"
)

// ReportRequest is the canonical submit contract persisted alongside the job.
type ReportRequest struct {
	Version string            `json:"version"`
	Idea    string            `json:"idea"`
	Tier    domain.ReportTier `json:"tier"`
	Locale  string            `json:"locale"`
}

const (
	// DefaultRequestVersion represents the schema version persisted for requests.
	DefaultRequestVersion = "2026-01"
	// MinIdeaLength is the minimum accepted idea length in runes.
	MinIdeaLength = 16
	// MaxIdeaLength bounds the raw idea text.
	MaxIdeaLength = 4000
	// DefaultLocale is applied when no locale preference is provided.
	DefaultLocale = "en"
)

// Normalize ensures the request respects server defaults before validation.
func (r *ReportRequest) Normalize(preferredLocale string) {
	if r == nil {
		return
	}
	if r.Version == "" {
		r.Version = DefaultRequestVersion
	}
	r.Idea = strings.TrimSpace(r.Idea)
	if r.Tier == "" {
		r.Tier = domain.TierBasic
	}
	if r.Locale == "" {
		if preferredLocale != "" {
			r.Locale = preferredLocale
		} else {
			r.Locale = DefaultLocale
		}
	}
}

// Validate ensures the request satisfies the contract before any debit occurs.
func (r ReportRequest) Validate() error {
	length := utf8.RuneCountInString(r.Idea)
	if length < MinIdeaLength {
		return fmt.Errorf("%w: idea must be at least %d characters", domain.ErrInvalidRequest, MinIdeaLength)
	}
	if length > MaxIdeaLength {
		return fmt.Errorf("%w: idea must be at most %d characters", domain.ErrInvalidRequest, MaxIdeaLength)
	}
	if !r.Tier.Valid() {
		return fmt.Errorf("%w: tier must be one of basic, advanced, comprehensive", domain.ErrInvalidRequest)
	}
	return nil
}

// MustMarshal encodes v or panics; only used for payloads built from
// validated in-process values.
func MustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("json marshal: %w", err))
	}
	return b
}
