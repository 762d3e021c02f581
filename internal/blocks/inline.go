package blocks

import (
	"regexp"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	gmtext "github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"scriptgen/internal/domain"
)

// inlineParser only knows paragraphs, emphasis and code spans, so block level
// syntax inside a line's text is kept as literal characters.
var inlineParser = parser.NewParser(
	parser.WithBlockParsers(
		util.Prioritized(parser.NewParagraphParser(), 100),
	),
	parser.WithInlineParsers(
		util.Prioritized(parser.NewCodeSpanParser(), 100),
		util.Prioritized(parser.NewEmphasisParser(), 200),
	),
)

// cueRe matches stage directions such as "[B-roll: launch footage]".
var cueRe = regexp.MustCompile(`\[[^\]]+\]`)

// parseInline splits a single line of text into styled spans.
func parseInline(text string) []domain.Span {
	if text == "" {
		return nil
	}

	source := []byte(text)
	doc := inlineParser.Parse(gmtext.NewReader(source))

	var spans []domain.Span
	collectSpans(doc, source, domain.Span{}, &spans)

	if len(spans) == 0 {
		return []domain.Span{{Text: text}}
	}

	return markCues(spans)
}

func collectSpans(n ast.Node, source []byte, style domain.Span, out *[]domain.Span) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch node := child.(type) {
		case *ast.Text:
			s := style
			s.Text = string(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				s.Text += " "
			}
			appendSpan(out, s)
		case *ast.String:
			s := style
			s.Text = string(node.Value)
			appendSpan(out, s)
		case *ast.Emphasis:
			next := style
			if node.Level >= 2 {
				next.Bold = true
			} else {
				next.Italic = true
			}
			collectSpans(node, source, next, out)
		case *ast.CodeSpan:
			next := style
			next.Code = true
			collectSpans(node, source, next, out)
		default:
			if child.HasChildren() {
				collectSpans(child, source, style, out)
				continue
			}
			s := style
			s.Text = string(child.Text(source))
			appendSpan(out, s)
		}
	}
}

// appendSpan merges s into the previous span when both share a style.
func appendSpan(out *[]domain.Span, s domain.Span) {
	if s.Text == "" {
		return
	}
	spans := *out
	if n := len(spans); n > 0 && sameStyle(spans[n-1], s) {
		spans[n-1].Text += s.Text
		return
	}
	*out = append(spans, s)
}

func sameStyle(a, b domain.Span) bool {
	return a.Bold == b.Bold && a.Italic == b.Italic && a.Code == b.Code
}

func markCues(spans []domain.Span) []domain.Span {
	var out []domain.Span
	for _, s := range spans {
		if s.Code || s.Italic {
			appendSpan(&out, s)
			continue
		}

		last := 0
		for _, loc := range cueRe.FindAllStringIndex(s.Text, -1) {
			before := s
			before.Text = s.Text[last:loc[0]]
			appendSpan(&out, before)

			cue := s
			cue.Text = s.Text[loc[0]:loc[1]]
			cue.Italic = true
			appendSpan(&out, cue)

			last = loc[1]
		}
		rest := s
		rest.Text = s.Text[last:]
		appendSpan(&out, rest)
	}
	return out
}
