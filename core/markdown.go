package core

import (
	"fmt"
	"strings"
)

const markdownPreviewLimit = 8000

// RenderMarkdown formats a stored document and its extracted text as a
// self-contained markdown export: a metadata header, one section per
// reading in the readers-used order, and a fenced preview of the text.
func RenderMarkdown(doc *Document, text string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", doc.Title)
	fmt.Fprintf(&b, "**Document ID:** %s  \n", doc.ID)
	fmt.Fprintf(&b, "**Author:** %s  \n", orDefault(doc.Author, "Unknown"))
	fmt.Fprintf(&b, "**Subject:** %s  \n", orDefault(doc.Subject, "N/A"))
	fmt.Fprintf(&b, "**Pages:** %d  \n", doc.PageCount)
	fmt.Fprintf(&b, "**Characters:** %d  \n", doc.CharCount)
	fmt.Fprintf(&b, "**Uploaded:** %s  \n", doc.UploadedAt.Format("2006-01-02"))
	if doc.Kind != "" {
		fmt.Fprintf(&b, "**Source Type:** %s  \n", strings.ToUpper(string(doc.Kind)))
	}
	if len(doc.ReadersUsed) > 0 {
		fmt.Fprintf(&b, "**Readers:** %s  \n", strings.Join(doc.ReadersUsed, ", "))
	}
	b.WriteString("\n")

	if len(doc.Readings) > 0 {
		b.WriteString("## LLM Readings\n\n")
		for _, identity := range doc.ReadersUsed {
			reading, ok := doc.Readings[identity]
			if !ok {
				continue
			}
			writeReadingMarkdown(&b, identity, reading)
		}
	}

	b.WriteString("---\n\n")
	b.WriteString("## Extracted Text (Preview)\n\n")

	preview := text
	if runes := []rune(text); len(runes) > markdownPreviewLimit {
		preview = string(runes[:markdownPreviewLimit]) +
			"\n\n... (truncated in markdown preview, full text is stored with the document)"
	}
	b.WriteString("```\n")
	b.WriteString(preview)
	b.WriteString("\n```\n")

	return b.String()
}

func writeReadingMarkdown(b *strings.Builder, identity string, r Reading) {
	fmt.Fprintf(b, "### %s\n\n", capitalize(identity))

	writeMarkdownText(b, "Summary", r.Summary)
	writeMarkdownText(b, "要約", r.SummaryJA)
	writeMarkdownList(b, "Key Points", r.KeyPoints)
	writeMarkdownList(b, "重要ポイント", r.KeyPointsJA)
	writeMarkdownList(b, "Keyword Explanations", r.KeywordExplanations)
	writeMarkdownList(b, "キーワード解説", r.KeywordExplanationsJA)
	writeMarkdownText(b, "Confidence Notes", r.ConfidenceNotes)
}

func writeMarkdownText(b *strings.Builder, heading, body string) {
	if body == "" {
		return
	}
	fmt.Fprintf(b, "#### %s\n%s\n\n", heading, body)
}

func writeMarkdownList(b *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "#### %s\n", heading)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
