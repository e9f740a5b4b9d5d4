package report

import (
	"strings"
	"time"
	"unicode/utf8"

	"server/internal/domain"
)

// previewRunes is how much of the first section is persisted as the job's
// plain-text preview.
const previewRunes = 280

// Section is one rendered unit of the final document, in tier order.
type Section struct {
	ID    SectionID
	Title string
	Body  string
}

// Document is the fully assembled report handed to the renderer: a cover,
// a table of contents derived from the section order, and the section bodies.
type Document struct {
	Topic       string
	Tier        domain.ReportTier
	GeneratedAt time.Time
	Sections    []Section
}

// Assemble builds the document from synthesized sections. Order is preserved
// exactly as given; the TOC the renderer derives from Sections is therefore
// the tier's catalogue order.
func Assemble(topic string, tier domain.ReportTier, generatedAt time.Time, sections []Section) Document {
	return Document{
		Topic:       topic,
		Tier:        tier,
		GeneratedAt: generatedAt.UTC(),
		Sections:    sections,
	}
}

// Preview extracts the plain-text preview from the document's first section:
// markdown markup stripped down, clipped to previewRunes runes.
func (d Document) Preview() string {
	if len(d.Sections) == 0 {
		return ""
	}
	text := flattenMarkdown(d.Sections[0].Body)
	if utf8.RuneCountInString(text) <= previewRunes {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:previewRunes]))
}

// flattenMarkdown reduces a markdown body to a single line of plain prose:
// headings, emphasis markers, and list bullets dropped, lines joined with
// spaces.
func flattenMarkdown(body string) string {
	var parts []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "#>-*+ \t")
		line = strings.ReplaceAll(line, "**", "")
		line = strings.ReplaceAll(line, "`", "")
		if line == "" || strings.HasPrefix(line, "|") {
			continue
		}
		parts = append(parts, line)
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}
