package pdf

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/report"
)

func TestRenderProducesPDF(t *testing.T) {
	doc := report.Assemble(
		"Solid-state sodium-ion batteries for grid-scale storage",
		domain.TierBasic,
		time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		[]report.Section{
			{ID: "market_analysis", Title: "Market Analysis", Body: "## Market Analysis\n\nSome **bold** prose.\n\n- one\n- two\n\n| a | b |\n|---|---|\n| 1 | 2 |\n"},
			{ID: "risks", Title: "Risks & Recommendations", Body: "body without a heading"},
		},
	)

	out, err := NewRenderer(zerolog.Nop()).Render(context.Background(), doc)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("empty output")
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("output does not start with a PDF header: %q", out[:8])
	}
}

func TestRenderCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRenderer(zerolog.Nop()).Render(ctx, report.Document{Topic: "x"})
	if !errors.Is(err, domain.ErrRenderFailure) {
		t.Fatalf("err = %v, want ErrRenderFailure", err)
	}
}
