package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"html"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"regexp"
	"strings"

	"github.com/poiesic/docshelf/core"
)

// EMLExtractor extracts header and body text from RFC 5322 email bytes.
type EMLExtractor struct {
	logger *slog.Logger
}

// NewEMLExtractor creates an EML extractor.
func NewEMLExtractor() *EMLExtractor {
	return &EMLExtractor{
		logger: slog.Default().With("component", "eml-extractor"),
	}
}

// Extract parses EML bytes. The returned text starts with a header block
// (From/To/Cc/Date/Subject) followed by the message body. Plain text parts
// are preferred; HTML parts are stripped to text when no plain part exists.
// Attachments are skipped.
func (e *EMLExtractor) Extract(ctx context.Context, data []byte) (*core.ExtractedDocument, error) {
	if len(data) == 0 {
		return nil, ErrEmptyInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msg, err := mail.ReadMessage(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEMLParse, err)
	}

	var plain, htmlParts []string
	if err := e.collectParts(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), "", msg.Body, &plain, &htmlParts); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEMLParse, err)
	}

	body := strings.TrimSpace(strings.Join(plain, "\n\n"))
	if body == "" {
		body = strings.TrimSpace(strings.Join(htmlParts, "\n\n"))
	}

	headerBlock := formatHeaders(msg.Header)
	text := strings.TrimSpace(strings.Join(nonEmpty(headerBlock, body), "\n\n"))
	if text == "" {
		return nil, fmt.Errorf("%w in EML", ErrNoText)
	}

	return &core.ExtractedDocument{
		Kind:         core.SourceKindEML,
		Text:         text,
		Title:        decodeHeader(msg.Header.Get("Subject")),
		Author:       decodeHeader(msg.Header.Get("From")),
		Subject:      "Email",
		Creator:      msg.Header.Get("X-Mailer"),
		CreationDate: msg.Header.Get("Date"),
		PageCount:    1,
		CharCount:    len(text),
	}, nil
}

// collectParts walks the MIME tree, appending decoded text/plain and
// text/html parts. Parts with an attachment disposition are skipped.
func (e *EMLExtractor) collectParts(contentType, transferEncoding, disposition string, body io.Reader, plain, htmlParts *[]string) error {
	mediaType := "text/plain"
	var params map[string]string
	if contentType != "" {
		parsed, p, err := mime.ParseMediaType(contentType)
		if err == nil {
			mediaType = parsed
			params = p
		}
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return fmt.Errorf("multipart message without boundary")
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				return nil
			}
			if err != nil {
				return err
			}
			err = e.collectParts(
				part.Header.Get("Content-Type"),
				part.Header.Get("Content-Transfer-Encoding"),
				part.Header.Get("Content-Disposition"),
				part,
				plain,
				htmlParts,
			)
			part.Close()
			if err != nil {
				return err
			}
		}
	}

	if isAttachment(disposition) {
		return nil
	}
	if !strings.HasPrefix(mediaType, "text/") {
		return nil
	}

	raw, err := io.ReadAll(decodeTransfer(body, transferEncoding))
	if err != nil {
		e.logger.Warn("skipping unreadable part", "media_type", mediaType, "err", err)
		return nil
	}
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil
	}

	if mediaType == "text/html" {
		*htmlParts = append(*htmlParts, htmlToText(text))
	} else {
		*plain = append(*plain, text)
	}
	return nil
}

func isAttachment(disposition string) bool {
	if disposition == "" {
		return false
	}
	d, _, err := mime.ParseMediaType(disposition)
	if err != nil {
		return false
	}
	return strings.EqualFold(d, "attachment")
}

func decodeTransfer(r io.Reader, encoding string) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

func formatHeaders(h mail.Header) string {
	var lines []string
	for _, key := range []string{"From", "To", "Cc", "Date", "Subject"} {
		if value := decodeHeader(h.Get(key)); value != "" {
			lines = append(lines, key+": "+value)
		}
	}
	return strings.Join(lines, "\n")
}

func decodeHeader(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	dec := new(mime.WordDecoder)
	decoded, err := dec.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

var (
	scriptStyleRe = regexp.MustCompile(`(?is)<(script|style).*?>.*?</(script|style)>`)
	brRe          = regexp.MustCompile(`(?i)<br\s*/?>`)
	pCloseRe      = regexp.MustCompile(`(?i)</p\s*>`)
	tagRe         = regexp.MustCompile(`(?is)<[^>]+>`)
	spaceRe       = regexp.MustCompile(`[ \t]+`)
	blankRe       = regexp.MustCompile(`\n{3,}`)
)

// htmlToText strips tags from HTML, preserving rough paragraph structure.
func htmlToText(s string) string {
	s = scriptStyleRe.ReplaceAllString(s, " ")
	s = brRe.ReplaceAllString(s, "\n")
	s = pCloseRe.ReplaceAllString(s, "\n\n")
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = spaceRe.ReplaceAllString(s, " ")
	s = blankRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func nonEmpty(parts ...string) []string {
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
