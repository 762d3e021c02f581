package domain

import "strings"

// Remote limits for a single block. Text length is measured in UTF-16 code
// units, so characters outside the Basic Multilingual Plane count twice.
const (
	MaxTextLength = 2000
	MaxSpans      = 100
)

type BlockType string

const (
	BlockHeading      BlockType = "heading"
	BlockParagraph    BlockType = "paragraph"
	BlockBulletedItem BlockType = "bulleted_list_item"
	BlockNumberedItem BlockType = "numbered_list_item"
	BlockQuote        BlockType = "quote"
	BlockDivider      BlockType = "divider"
	BlockCode         BlockType = "code"
)

// Span is a run of text sharing the same inline style.
type Span struct {
	Text   string
	Bold   bool
	Italic bool
	Code   bool
}

// Block is one renderable unit of page content.
// Level is set for headings only, Language for code blocks only.
type Block struct {
	Type     BlockType
	Level    int
	Language string
	Spans    []Span
}

// Text concatenates the plain text of all spans.
func (b Block) Text() string {
	var sb strings.Builder
	for _, s := range b.Spans {
		sb.WriteString(s.Text)
	}
	return sb.String()
}

func Heading(level int, spans ...Span) Block {
	return Block{Type: BlockHeading, Level: level, Spans: spans}
}

func Paragraph(spans ...Span) Block {
	return Block{Type: BlockParagraph, Spans: spans}
}

func Divider() Block {
	return Block{Type: BlockDivider}
}

func Code(language, text string) Block {
	return Block{Type: BlockCode, Language: language, Spans: []Span{{Text: text}}}
}

func Plain(text string) Span {
	return Span{Text: text}
}
