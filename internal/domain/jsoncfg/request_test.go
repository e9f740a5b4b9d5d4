package jsoncfg

import (
	"errors"
	"strings"
	"testing"

	"server/internal/domain"
)

func TestReportRequestNormalizeDefaults(t *testing.T) {
	req := ReportRequest{Idea: "  a compostable battery casing for consumer drones  "}
	req.Normalize("id")
	if req.Version != DefaultRequestVersion {
		t.Fatalf("Version = %q, want %q", req.Version, DefaultRequestVersion)
	}
	if req.Tier != domain.TierBasic {
		t.Fatalf("Tier = %q, want %q", req.Tier, domain.TierBasic)
	}
	if req.Locale != "id" {
		t.Fatalf("Locale = %q, want %q", req.Locale, "id")
	}
	if strings.HasPrefix(req.Idea, " ") || strings.HasSuffix(req.Idea, " ") {
		t.Fatalf("Idea not trimmed: %q", req.Idea)
	}
}

func TestReportRequestValidateBounds(t *testing.T) {
	cases := []struct {
		name string
		idea string
		tier domain.ReportTier
		ok   bool
	}{
		{"too short", "tiny idea", domain.TierBasic, false},
		{"too long", strings.Repeat("x", MaxIdeaLength+1), domain.TierBasic, false},
		{"bad tier", strings.Repeat("x", 64), domain.ReportTier("deluxe"), false},
		{"ok", "a compostable battery casing for consumer drones", domain.TierComprehensive, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := ReportRequest{Idea: tc.idea, Tier: tc.tier}
			err := req.Validate()
			if tc.ok && err != nil {
				t.Fatalf("Validate returned error: %v", err)
			}
			if !tc.ok {
				if err == nil {
					t.Fatal("Validate returned nil, want error")
				}
				if !errors.Is(err, domain.ErrInvalidRequest) {
					t.Fatalf("error %v does not wrap ErrInvalidRequest", err)
				}
			}
		})
	}
}
