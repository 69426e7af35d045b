package llm

const truncationMarker = "\n\n[... text truncated due to length ...]"

// truncateText caps text at max bytes, appending a marker when it was cut.
// The cut point backs up to a rune boundary.
func truncateText(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && text[cut]&0xC0 == 0x80 {
		cut--
	}
	return text[:cut] + truncationMarker
}
