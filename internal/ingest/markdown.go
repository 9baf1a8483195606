package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// markdownDoc is the plain-text form of a scraped markdown file. Headings
// are preserved as "# ..." lines so the chunker can split at section
// boundaries.
type markdownDoc struct {
	Title    string
	Date     string
	Category string
	Text     string
}

var markdown = goldmark.New()

// parseMarkdown extracts plain text, the document title (first level-1
// heading), and Date/Category annotation lines from a markdown source.
func parseMarkdown(data []byte) markdownDoc {
	doc := markdownDoc{}
	doc.Date, doc.Category = scanAnnotations(data)

	root := markdown.Parser().Parse(text.NewReader(data))

	var sb strings.Builder
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			heading := nodeText(node, data)
			if node.Level == 1 && doc.Title == "" {
				doc.Title = heading
			}
			sb.WriteString("\n")
			sb.WriteString(strings.Repeat("#", node.Level))
			sb.WriteString(" ")
			sb.WriteString(heading)
			sb.WriteString("\n\n")
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.TextBlock:
			sb.WriteString(nodeText(n, data))
			sb.WriteString("\n\n")
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			lines := n.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				sb.Write(seg.Value(data))
			}
			sb.WriteString("\n")
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	doc.Text = strings.TrimSpace(sb.String())
	return doc
}

// nodeText collects the raw text under a node.
func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}

// scanAnnotations looks for "Date:" and "Category:" lines near the top of
// the file, the convention the scrapers use for newsletter exports.
func scanAnnotations(data []byte) (date, category string) {
	lines := strings.Split(string(data), "\n")
	limit := 12
	if len(lines) < limit {
		limit = len(lines)
	}
	for _, line := range lines[:limit] {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "Date:"); ok && date == "" {
			date = strings.TrimSpace(v)
		}
		if v, ok := strings.CutPrefix(line, "Category:"); ok && category == "" {
			category = strings.TrimSpace(v)
		}
	}
	return date, category
}
