package domain

import "strings"

// NormalizeTags trims tags, drops empty entries and removes case-insensitive duplicates.
// The first spelling of a tag wins and insertion order is preserved for display.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for _, raw := range tags {
		tag := strings.TrimSpace(raw)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// ParseTagList splits comma-separated free text into normalized tags.
func ParseTagList(raw string) []string {
	return NormalizeTags(strings.Split(raw, ","))
}

// UnionTags appends the tags in add that tags does not already hold.
func UnionTags(tags, add []string) []string {
	return NormalizeTags(append(append([]string(nil), tags...), add...))
}

// SubtractTags removes every tag in remove from tags, ignoring case.
func SubtractTags(tags, remove []string) []string {
	drop := make(map[string]struct{}, len(remove))
	for _, tag := range remove {
		drop[strings.ToLower(strings.TrimSpace(tag))] = struct{}{}
	}
	out := make([]string, 0, len(tags))
	for _, tag := range NormalizeTags(tags) {
		if _, ok := drop[strings.ToLower(tag)]; ok {
			continue
		}
		out = append(out, tag)
	}
	return out
}

// normalizeStringList trims and deduplicates string slices.
func normalizeStringList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, raw := range in {
		value := strings.TrimSpace(raw)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
