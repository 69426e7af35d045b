package core

import "strings"

const (
	maxMetadataTags = 8
	maxMergedTags   = 12
)

// TagsFromMetadata derives tags from source metadata. The keywords field is
// preferred; the subject field is used when no keywords are present. Values
// are split on commas and semicolons and deduplicated case-insensitively,
// capped at 8 tags.
func TagsFromMetadata(keywords, subject string) []string {
	raw := keywords
	if raw == "" {
		raw = subject
	}
	if raw == "" {
		return nil
	}

	var tags []string
	for _, chunk := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ';' }) {
		tag := strings.TrimSpace(chunk)
		if tag != "" && !containsFold(tags, tag) {
			tags = append(tags, tag)
		}
		if len(tags) >= maxMetadataTags {
			break
		}
	}
	return tags
}

// MergeTags combines metadata tags with reader-produced tags, preserving
// order, deduplicating case-insensitively and capping the result at 12.
func MergeTags(metaTags []string, readings map[string]Reading, readerOrder []string) []string {
	var merged []string
	add := func(tag string) bool {
		tag = strings.TrimSpace(tag)
		if tag != "" && !containsFold(merged, tag) {
			merged = append(merged, tag)
		}
		return len(merged) < maxMergedTags
	}

	for _, tag := range metaTags {
		if !add(tag) {
			return merged
		}
	}
	for _, reader := range readerOrder {
		reading, ok := readings[reader]
		if !ok {
			continue
		}
		for _, tag := range reading.Tags {
			if !add(tag) {
				return merged
			}
		}
	}
	return merged
}

func containsFold(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}
