// Package blocks converts generated markdown into page content blocks.
package blocks

import (
	"regexp"
	"strings"
	"unicode/utf16"

	"scriptgen/internal/domain"
)

var (
	headingRe  = regexp.MustCompile(`^(#{1,3})(?:\s+(.*))?$`)
	bulletRe   = regexp.MustCompile(`^[-*+]\s+(.*)$`)
	numberedRe = regexp.MustCompile(`^\d+\.\s+(.*)$`)
	dividerRe  = regexp.MustCompile(`^(?:(?:-[ \t]*){3,}|(?:\*[ \t]*){3,}|(?:_[ \t]*){3,})$`)
)

const fence = "```"

// Convert turns markdown into an ordered list of blocks.
//
// The conversion is line oriented. Consecutive plain lines are merged into one
// paragraph and blank lines only separate. An unterminated code fence is closed
// at end of input. Blocks over the remote text or span limits are split into
// several blocks of the same type.
func Convert(markdown string) []domain.Block {
	c := &converter{limit: domain.MaxTextLength, maxSpans: domain.MaxSpans}

	markdown = strings.ReplaceAll(markdown, "\r\n", "\n")
	for _, line := range strings.Split(markdown, "\n") {
		c.line(line)
	}
	c.finish()

	return c.out
}

type converter struct {
	out      []domain.Block
	limit    int
	maxSpans int

	paragraph []string

	inFence   bool
	fenceLang string
	fenceBody []string
}

func (c *converter) line(raw string) {
	if c.inFence {
		if strings.HasPrefix(strings.TrimSpace(raw), fence) {
			c.closeFence(false)
			return
		}
		c.fenceBody = append(c.fenceBody, strings.TrimRight(raw, "\r"))
		return
	}

	line := strings.TrimSpace(raw)
	if line == "" {
		c.flushParagraph()
		return
	}

	if strings.HasPrefix(line, fence) {
		c.flushParagraph()
		c.inFence = true
		c.fenceLang = strings.TrimSpace(strings.TrimPrefix(line, fence))
		c.fenceBody = nil
		return
	}

	if m := headingRe.FindStringSubmatch(line); m != nil {
		c.flushParagraph()
		if strings.TrimSpace(m[2]) == "" {
			return
		}
		c.emit(domain.Block{
			Type:  domain.BlockHeading,
			Level: len(m[1]),
			Spans: parseInline(strings.TrimSpace(m[2])),
		})
		return
	}

	if dividerRe.MatchString(line) {
		c.flushParagraph()
		c.emit(domain.Divider())
		return
	}

	if m := bulletRe.FindStringSubmatch(line); m != nil {
		c.flushParagraph()
		c.emit(domain.Block{Type: domain.BlockBulletedItem, Spans: parseInline(m[1])})
		return
	}

	if m := numberedRe.FindStringSubmatch(line); m != nil {
		c.flushParagraph()
		c.emit(domain.Block{Type: domain.BlockNumberedItem, Spans: parseInline(m[1])})
		return
	}

	if strings.HasPrefix(line, ">") {
		c.flushParagraph()
		text := strings.TrimSpace(strings.TrimLeft(line, ">"))
		if text != "" {
			c.emit(domain.Block{Type: domain.BlockQuote, Spans: parseInline(text)})
		}
		return
	}

	c.paragraph = append(c.paragraph, line)
}

func (c *converter) flushParagraph() {
	if len(c.paragraph) == 0 {
		return
	}
	text := strings.Join(c.paragraph, " ")
	c.paragraph = c.paragraph[:0]
	c.emit(domain.Block{Type: domain.BlockParagraph, Spans: parseInline(text)})
}

// closeFence emits the pending code block. At end of input trailing blank
// lines are dropped since no closing marker bounds them.
func (c *converter) closeFence(implicit bool) {
	body := c.fenceBody
	if implicit {
		for len(body) > 0 && strings.TrimSpace(body[len(body)-1]) == "" {
			body = body[:len(body)-1]
		}
	}

	c.emit(domain.Code(normalizeLanguage(c.fenceLang), strings.Join(body, "\n")))

	c.inFence = false
	c.fenceLang = ""
	c.fenceBody = nil
}

func (c *converter) finish() {
	if c.inFence {
		c.closeFence(true)
	}
	c.flushParagraph()
}

func (c *converter) emit(b domain.Block) {
	c.out = append(c.out, splitBlock(b, c.limit, c.maxSpans)...)
}

// textLength counts s in UTF-16 code units, the unit the remote limit uses.
func textLength(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// splitBlock cuts b into sequential blocks of the same type, each carrying at
// most limit UTF-16 units of text and at most maxSpans spans. Span styles are
// kept on both sides of a cut.
func splitBlock(b domain.Block, limit, maxSpans int) []domain.Block {
	if (limit <= 0 || textLength(b.Text()) <= limit) && (maxSpans <= 0 || len(b.Spans) <= maxSpans) {
		return []domain.Block{b}
	}

	var out []domain.Block
	cur := b
	cur.Spans = nil
	room := limit

	next := func() {
		out = append(out, cur)
		cur = b
		cur.Spans = nil
		room = limit
	}

	for _, span := range b.Spans {
		text := span.Text
		for text != "" {
			if maxSpans > 0 && len(cur.Spans) == maxSpans {
				next()
			}
			if limit <= 0 {
				part := span
				part.Text = text
				cur.Spans = append(cur.Spans, part)
				break
			}

			head, tail, used := cutUnits(text, room)
			if head == "" && len(cur.Spans) > 0 {
				next()
				continue
			}
			if head == "" {
				// limit is below the width of a single character
				head, tail, used = cutUnits(text, 2)
			}

			part := span
			part.Text = head
			cur.Spans = append(cur.Spans, part)

			room -= used
			text = tail
		}
	}

	if len(cur.Spans) > 0 {
		out = append(out, cur)
	}

	return out
}

// cutUnits returns the longest prefix of s that fits in n UTF-16 units, the
// rest, and the units used. A surrogate pair is never split.
func cutUnits(s string, n int) (head, tail string, used int) {
	for pos, r := range s {
		w := utf16.RuneLen(r)
		if used+w > n {
			return s[:pos], s[pos:], used
		}
		used += w
	}
	return s, "", used
}
