package llm

import (
	"fmt"
	"strings"
)

// readingSchema describes the JSON object the model must return. Kept as a
// literal so the prompt and the wire struct stay side by side.
const readingSchema = `{
  "title_guess": "string, best guess at the document title",
  "author_guess": "string, best guess at the author or sender",
  "document_type": "string, one of: paper, report, article, manual, email, contract, slides, other",
  "summary": "string, 3-6 sentence summary in English",
  "summary_ja": "string, 3-6 sentence summary in Japanese",
  "key_points": ["string, the most important points, in English"],
  "key_points_ja": ["string, the most important points, in Japanese"],
  "keyword_explanations": ["string, 'term: explanation' for domain terms, in English"],
  "keyword_explanations_ja": ["string, 'term: explanation' for domain terms, in Japanese"],
  "tags": ["string, 3-8 short lowercase topic tags"],
  "confidence_notes": "string, free text on uncertain or unreadable portions"
}`

func buildSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are a careful document reader for a personal library. ")
	b.WriteString("Read the document the user provides and produce a structured reading of it. ")
	b.WriteString("Base every field only on the document itself; leave a field empty rather than inventing content. ")
	b.WriteString("Respond ONLY with a valid JSON object matching this schema:\n")
	b.WriteString(readingSchema)
	return b.String()
}

func buildUserPrompt(title, author, subject, text string) string {
	var b strings.Builder
	if title != "" {
		fmt.Fprintf(&b, "Title: %s\n", title)
	}
	if author != "" {
		fmt.Fprintf(&b, "Author: %s\n", author)
	}
	if subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", subject)
	}
	b.WriteString("\nDocument text:\n")
	b.WriteString(text)
	return b.String()
}
