package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"server/internal/domain"
	"server/internal/report"
)

var tierCaser = cases.Title(language.English)

const (
	pageMargin = 15.0
	bodyFont   = "Helvetica"
	monoFont   = "Courier"
	bodySize   = 10.5
	lineHeight = 5.2
)

// Renderer lays out an assembled document as an A4 PDF: cover page, linked
// table of contents, then one section per page break. Section bodies are
// markdown and are typeset from the parsed AST, not from raw text.
type Renderer struct {
	md     goldmark.Markdown
	logger zerolog.Logger
}

func NewRenderer(logger zerolog.Logger) *Renderer {
	return &Renderer{
		md:     goldmark.New(goldmark.WithExtensions(extension.Table, extension.Strikethrough)),
		logger: logger,
	}
}

// Render produces the final PDF bytes. All failures wrap
// domain.ErrRenderFailure so the pipeline classifies them as rendering
// problems rather than backend ones.
func (r *Renderer) Render(ctx context.Context, doc report.Document) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailure, err)
	}
	p := fpdf.New("P", "mm", "A4", "")
	p.SetMargins(pageMargin, pageMargin, pageMargin)
	p.SetAutoPageBreak(true, pageMargin)
	p.AliasNbPages("")
	p.SetFooterFunc(func() {
		p.SetY(-12)
		p.SetFont(bodyFont, "I", 8)
		p.SetTextColor(120, 120, 120)
		p.CellFormat(0, 8, fmt.Sprintf("Page %d of {nb}", p.PageNo()), "", 0, "C", false, 0, "")
		p.SetTextColor(0, 0, 0)
	})

	w := &writer{pdf: p, md: r.md, tr: p.UnicodeTranslatorFromDescriptor("")}
	w.cover(doc)
	links := w.contents(doc)
	for i, sec := range doc.Sections {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: canceled at section %s", domain.ErrRenderFailure, sec.ID)
		}
		p.AddPage()
		p.SetLink(links[i], 0, p.PageNo())
		w.section(sec)
	}
	if p.Err() {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailure, p.Error())
	}
	var buf bytes.Buffer
	if err := p.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRenderFailure, err)
	}
	r.logger.Debug().Int("bytes", buf.Len()).Int("sections", len(doc.Sections)).Msg("document rendered")
	return buf.Bytes(), nil
}

type writer struct {
	pdf *fpdf.Fpdf
	md  goldmark.Markdown
	tr  func(string) string
	src []byte
}

func (w *writer) cover(doc report.Document) {
	w.pdf.AddPage()
	w.pdf.SetY(70)
	w.pdf.SetFont(bodyFont, "B", 24)
	w.pdf.MultiCell(0, 11, w.tr("Technology Assessment Report"), "", "C", false)
	w.pdf.Ln(8)
	w.pdf.SetFont(bodyFont, "", 13)
	w.pdf.MultiCell(0, 7, w.tr(doc.Topic), "", "C", false)
	w.pdf.Ln(16)
	w.pdf.SetFont(bodyFont, "I", 10)
	meta := fmt.Sprintf("%s tier  ·  generated %s", tierCaser.String(string(doc.Tier)), doc.GeneratedAt.Format("2 January 2006"))
	w.pdf.MultiCell(0, 6, w.tr(meta), "", "C", false)
}

// contents writes the TOC page and returns one internal link per section, in
// document order; the caller binds each link when its section page starts.
func (w *writer) contents(doc report.Document) []int {
	w.pdf.AddPage()
	w.pdf.SetFont(bodyFont, "B", 16)
	w.pdf.CellFormat(0, 10, w.tr("Contents"), "", 1, "L", false, 0, "")
	w.pdf.Ln(3)
	links := make([]int, len(doc.Sections))
	w.pdf.SetFont(bodyFont, "", 11)
	for i, sec := range doc.Sections {
		links[i] = w.pdf.AddLink()
		w.pdf.SetTextColor(20, 60, 140)
		w.pdf.WriteLinkID(7, w.tr(fmt.Sprintf("%d.  %s", i+1, sec.Title)), links[i])
		w.pdf.Ln(7)
	}
	w.pdf.SetTextColor(0, 0, 0)
	return links
}

func (w *writer) section(sec report.Section) {
	src := []byte(sec.Body)
	w.src = src
	root := w.md.Parser().Parse(text.NewReader(src))
	if first := root.FirstChild(); first == nil || first.Kind() != ast.KindHeading {
		// backend omitted the heading it was asked for; restore it
		w.headingText(2, sec.Title)
	}
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		w.block(c, 0)
	}
}

func (w *writer) block(n ast.Node, depth int) {
	switch t := n.(type) {
	case *ast.Heading:
		w.headingText(t.Level, w.plainText(t))
	case *ast.Paragraph:
		w.inline(t, "")
		w.pdf.Ln(lineHeight)
		w.pdf.Ln(2.5)
	case *ast.TextBlock:
		w.inline(t, "")
		w.pdf.Ln(lineHeight)
	case *ast.List:
		w.list(t, depth)
		if depth == 0 {
			w.pdf.Ln(2.5)
		}
	case *ast.Blockquote:
		w.pdf.SetLeftMargin(pageMargin + 6)
		for c := t.FirstChild(); c != nil; c = c.NextSibling() {
			w.block(c, depth)
		}
		w.pdf.SetLeftMargin(pageMargin)
	case *ast.FencedCodeBlock:
		w.codeLines(t.Lines())
	case *ast.CodeBlock:
		w.codeLines(t.Lines())
	case *ast.ThematicBreak:
		w.pdf.Ln(2)
		x, y := w.pdf.GetX(), w.pdf.GetY()
		pw, _ := w.pdf.GetPageSize()
		w.pdf.SetDrawColor(180, 180, 180)
		w.pdf.Line(x, y, pw-pageMargin, y)
		w.pdf.Ln(4)
	case *east.Table:
		w.table(t)
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.block(c, depth)
		}
	}
}

func (w *writer) headingText(level int, title string) {
	size := 11.5
	switch level {
	case 1:
		size = 16
	case 2:
		size = 14
	case 3:
		size = 12
	}
	w.pdf.Ln(2)
	w.pdf.SetFont(bodyFont, "B", size)
	w.pdf.MultiCell(0, size*0.5, w.tr(title), "", "L", false)
	w.pdf.Ln(1.5)
	w.pdf.SetFont(bodyFont, "", bodySize)
}

func (w *writer) list(l *ast.List, depth int) {
	index := l.Start
	if index == 0 {
		index = 1
	}
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "-"
		if l.IsOrdered() {
			marker = fmt.Sprintf("%d.", index)
			index++
		}
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			if nested, ok := c.(*ast.List); ok {
				w.list(nested, depth+1)
				continue
			}
			w.pdf.SetX(pageMargin + float64(depth)*5)
			w.write("", marker+" ")
			w.inline(c, "")
			w.pdf.Ln(lineHeight)
		}
	}
}

func (w *writer) codeLines(lines *text.Segments) {
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(w.src))
	}
	w.pdf.SetFont(monoFont, "", 9)
	w.pdf.SetFillColor(245, 245, 245)
	w.pdf.MultiCell(0, 4.5, w.tr(strings.TrimRight(b.String(), "\n")), "", "L", true)
	w.pdf.SetFont(bodyFont, "", bodySize)
	w.pdf.Ln(2)
}

func (w *writer) table(t *east.Table) {
	var header ast.Node
	var rows []ast.Node
	for c := t.FirstChild(); c != nil; c = c.NextSibling() {
		switch c.(type) {
		case *east.TableHeader:
			header = c
		case *east.TableRow:
			rows = append(rows, c)
		}
	}
	cols := 0
	if header != nil {
		cols = countChildren(header)
	} else if len(rows) > 0 {
		cols = countChildren(rows[0])
	}
	if cols == 0 {
		return
	}
	pw, _ := w.pdf.GetPageSize()
	colW := (pw - 2*pageMargin) / float64(cols)

	if header != nil {
		w.pdf.SetFont(bodyFont, "B", 9.5)
		w.pdf.SetFillColor(235, 238, 242)
		w.tableRow(header, colW, true)
	}
	w.pdf.SetFont(bodyFont, "", 9.5)
	for _, row := range rows {
		w.tableRow(row, colW, false)
	}
	w.pdf.SetFont(bodyFont, "", bodySize)
	w.pdf.Ln(3)
}

func (w *writer) tableRow(row ast.Node, colW float64, fill bool) {
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		txt := clipCell(w.plainText(cell), 60)
		w.pdf.CellFormat(colW, 6.5, w.tr(txt), "1", 0, "L", fill, 0, "")
	}
	w.pdf.Ln(-1)
}

func (w *writer) inline(n ast.Node, style string) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			w.write(style, string(t.Segment.Value(w.src)))
			if t.SoftLineBreak() || t.HardLineBreak() {
				w.write(style, " ")
			}
		case *ast.String:
			w.write(style, string(t.Value))
		case *ast.Emphasis:
			add := "I"
			if t.Level >= 2 {
				add = "B"
			}
			w.inline(t, style+add)
		case *ast.CodeSpan:
			w.pdf.SetFont(monoFont, fontStyle(style), 9.5)
			w.pdf.Write(lineHeight, w.tr(w.plainText(t)))
			w.pdf.SetFont(bodyFont, fontStyle(style), bodySize)
		case *ast.Link:
			w.inline(t, style+"U")
		case *ast.AutoLink:
			w.write(style+"U", string(t.URL(w.src)))
		case *east.Strikethrough:
			w.inline(t, style)
		default:
			w.inline(t, style)
		}
	}
}

func (w *writer) write(style, s string) {
	w.pdf.SetFont(bodyFont, fontStyle(style), bodySize)
	w.pdf.Write(lineHeight, w.tr(s))
}

// plainText flattens a node's inline content to unstyled text, used for
// headings and table cells where per-run styling does not apply.
func (w *writer) plainText(n ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := node.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(w.src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// fontStyle collapses an accumulated style string into fpdf's canonical set.
func fontStyle(style string) string {
	var out string
	for _, flag := range []string{"B", "I", "U"} {
		if strings.Contains(style, flag) {
			out += flag
		}
	}
	return out
}

func clipCell(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

func countChildren(n ast.Node) int {
	count := 0
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		count++
	}
	return count
}
