package llm

import "regexp"

var (
	unquotedKeyRe = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)\s*:`)
	trailingComma = regexp.MustCompile(`,(\s*[}\]])`)
)

// repairJSON fixes the JSON defects local models produce most often:
// unquoted object keys and trailing commas. Anything beyond that is left
// for the retry loop.
func repairJSON(s string) string {
	s = unquotedKeyRe.ReplaceAllString(s, `$1"$2":`)
	s = trailingComma.ReplaceAllString(s, `$1`)
	return s
}
