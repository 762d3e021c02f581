package notion

import (
	"fmt"

	"scriptgen/internal/domain"
)

// EncodeBlock maps a content block to the API block shape.
func EncodeBlock(b domain.Block) Block {
	out := Block{RichText: encodeSpans(b.Spans)}

	switch b.Type {
	case domain.BlockHeading:
		level := b.Level
		if level < 1 {
			level = 1
		}
		if level > 3 {
			level = 3
		}
		out.Type = fmt.Sprintf("heading_%d", level)
	case domain.BlockCode:
		out.Type = "code"
		out.Language = b.Language
		if out.Language == "" {
			out.Language = "plain text"
		}
	case domain.BlockDivider:
		out.Type = "divider"
		out.RichText = nil
	case domain.BlockBulletedItem, domain.BlockNumberedItem, domain.BlockQuote, domain.BlockParagraph:
		out.Type = string(b.Type)
	default:
		out.Type = string(domain.BlockParagraph)
	}

	return out
}

func EncodeBlocks(blocks []domain.Block) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		out = append(out, EncodeBlock(b))
	}
	return out
}

func encodeSpans(spans []domain.Span) []RichText {
	out := make([]RichText, 0, len(spans))
	for _, s := range spans {
		rt := RichText{
			Type: "text",
			Text: &TextContent{Content: s.Text},
		}
		if s.Bold || s.Italic || s.Code {
			rt.Annotations = &Annotations{Bold: s.Bold, Italic: s.Italic, Code: s.Code}
		}
		out = append(out, rt)
	}
	return out
}
