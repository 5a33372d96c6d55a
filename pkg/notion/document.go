package notion

import (
	"context"
	"strings"
	"time"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Document is a fetched guide document rendered to markdown.
type Document struct {
	ID         string
	Title      string
	Content    string
	RevisionID string
}

// FetchDocument reads a Notion page and its block children and renders
// them to markdown. RevisionID is the page's last-edited timestamp, so
// callers can detect whether the source changed between runs.
func FetchDocument(ctx context.Context, client Client, pageID string) (*Document, error) {
	page, err := client.GetPage(ctx, pageID)
	if err != nil {
		return nil, eris.Wrap(err, "notion: fetch document page")
	}

	var blocks []notionapi.Block
	cursor := ""
	for {
		resp, err := client.GetBlockChildren(ctx, pageID, cursor)
		if err != nil {
			return nil, eris.Wrap(err, "notion: fetch document blocks")
		}
		blocks = append(blocks, resp.Results...)
		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return &Document{
		ID:         pageID,
		Title:      pageTitle(page),
		Content:    renderBlocks(blocks),
		RevisionID: page.LastEditedTime.UTC().Format(time.RFC3339),
	}, nil
}

// pageTitle extracts the page title from its properties.
func pageTitle(page *notionapi.Page) string {
	for _, prop := range page.Properties {
		if tp, ok := prop.(*notionapi.TitleProperty); ok {
			return renderRichText(tp.Title)
		}
	}
	return ""
}

// renderBlocks converts supported block types to markdown lines.
// Unsupported types are skipped with a debug log rather than failing
// the fetch.
func renderBlocks(blocks []notionapi.Block) string {
	var b strings.Builder
	for _, block := range blocks {
		switch v := block.(type) {
		case *notionapi.Heading1Block:
			b.WriteString("# " + renderRichText(v.Heading1.RichText) + "\n\n")
		case *notionapi.Heading2Block:
			b.WriteString("## " + renderRichText(v.Heading2.RichText) + "\n\n")
		case *notionapi.Heading3Block:
			b.WriteString("### " + renderRichText(v.Heading3.RichText) + "\n\n")
		case *notionapi.ParagraphBlock:
			b.WriteString(renderRichText(v.Paragraph.RichText) + "\n\n")
		case *notionapi.BulletedListItemBlock:
			b.WriteString("- " + renderRichText(v.BulletedListItem.RichText) + "\n")
		case *notionapi.NumberedListItemBlock:
			b.WriteString("1. " + renderRichText(v.NumberedListItem.RichText) + "\n")
		case *notionapi.QuoteBlock:
			b.WriteString("> " + renderRichText(v.Quote.RichText) + "\n\n")
		case *notionapi.DividerBlock:
			b.WriteString("---\n\n")
		default:
			zap.L().Debug("notion: skipping unsupported block type",
				zap.String("type", string(block.GetType())))
		}
	}
	return strings.TrimSpace(b.String())
}

// renderRichText flattens a rich text array, preserving bold and link
// annotations (bolded names mark place candidates in the guide).
func renderRichText(rich []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range rich {
		text := rt.PlainText
		if rt.Annotations != nil && rt.Annotations.Bold {
			text = "**" + text + "**"
		}
		if rt.Href != "" {
			text = text + " - " + rt.Href
		}
		b.WriteString(text)
	}
	return b.String()
}
