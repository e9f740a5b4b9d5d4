package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/providers/llm"
	"server/internal/providers/patents"
)

const (
	sectionTemperature = 0.4
	sectionMaxTokens   = 2048
)

// Synthesizer produces one section body per backend call. It owns the
// instruction assembly, including the verbatim embedding of patent facts for
// enrichment-eligible sections.
type Synthesizer struct {
	llm    llm.Client
	logger zerolog.Logger
}

func NewSynthesizer(client llm.Client, logger zerolog.Logger) *Synthesizer {
	return &Synthesizer{llm: client, logger: logger}
}

// Synthesize generates the markdown body for one section. The returned usage
// is whatever the backend counted for this single call; the pipeline owns the
// accumulation. Any backend error is returned as-is so the caller can classify
// it against domain.ErrProviderFailure.
func (s *Synthesizer) Synthesize(ctx context.Context, topic string, spec SectionSpec, facts []patents.Record) (string, domain.UsageBreakdown, error) {
	req := llm.Request{
		Instruction: buildInstruction(topic, spec, facts),
		Temperature: sectionTemperature,
		MaxTokens:   sectionMaxTokens,
	}
	resp, err := s.llm.Complete(ctx, req)
	if err != nil {
		return "", domain.UsageBreakdown{}, fmt.Errorf("section %s: %w", spec.ID, err)
	}
	s.logger.Debug().
		Str("section", string(spec.ID)).
		Int("total_tokens", resp.Usage.TotalTokens).
		Msg("section synthesized")
	return strings.TrimSpace(resp.Content), domain.UsageBreakdown{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}, nil
}

// buildInstruction assembles the per-section instruction. Patent facts, when
// the section is enrichment-eligible, are serialized into a fenced block with
// an explicit use-only-this-data clause; non-eligible sections never see them.
func buildInstruction(topic string, spec SectionSpec, facts []patents.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are writing the %q section of a technology assessment report.\n\n", spec.Title)
	fmt.Fprintf(&b, "Subject of the report:\n%s\n\n", topic)
	b.WriteString("Section requirements:\n")
	b.WriteString(spec.Instructions)
	b.WriteString("\n\n")
	if spec.UseEnrichment {
		if len(facts) == 0 {
			b.WriteString("Patent search data: the search returned no related records. " +
				"State this explicitly; do not invent filings.\n\n")
		} else {
			b.WriteString("Patent search data (use ONLY these records when discussing existing filings; " +
				"never invent publication numbers, assignees, or dates beyond this list):\n")
			for _, r := range facts {
				fmt.Fprintf(&b, "- %s | %s | assignee: %s | status: %s | date: %s\n",
					r.PublicationNumber, r.Title, orUnknown(r.Assignee), orUnknown(r.Status), orUnknown(r.Date))
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("Output the section body as GitHub-flavored markdown. " +
		"Start with a level-2 heading matching the section title exactly. " +
		"Do not include a document title, preamble, or closing remarks outside the section.")
	return b.String()
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
