package diffmap

import (
	"regexp"
	"strings"
)

// namePatterns are tried in priority order; earlier patterns win when a hit
// matches more than one.
var namePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)best\s+([a-z0-9\s]+?)(?:\s+app|\s+software|\s+system|\s+tool|\s+device)`),
	regexp.MustCompile(`(?i)top\s+([a-z0-9\s]+?)(?:\s+app|\s+software|\s+system|\s+tool|\s+device)`),
	regexp.MustCompile(`(?i)([a-z0-9\s]+?)(?:\s+vs\.|\s+versus|\s+compared to|\s+alternative to)`),
	regexp.MustCompile(`(?i)([a-z0-9\s]+?)(?:\s+review|\s+guide|\s+comparison)`),
	regexp.MustCompile(`(?i)competitors?\s+include\s+([a-z0-9\s,]+?)(?:\.|\n|$)`),
	regexp.MustCompile(`(?i)alternatives?\s+include\s+([a-z0-9\s,]+?)(?:\.|\n|$)`),
}

var (
	leadingArticleRe = regexp.MustCompile(`(?i)^(the|a|an)\s+`)
	genericSuffixRe  = regexp.MustCompile(`(?i)\s+(app|software|system|tool|device)$`)
	specialCharsRe   = regexp.MustCompile(`[^\w\s-]`)
)

// ExtractCompetitorNames pulls candidate entity names out of a search hit's
// title and content. Names appear in pattern-priority order, title before
// content, deduplicated with first occurrence winning. Names of 2 characters
// or fewer after cleanup are discarded.
func ExtractCompetitorNames(title, content string) []string {
	var names []string
	seen := map[string]struct{}{}
	for _, pattern := range namePatterns {
		for _, text := range []string{title, content} {
			for _, m := range pattern.FindAllStringSubmatch(text, -1) {
				name := CleanCompetitorName(m[1])
				if name == "" {
					continue
				}
				if _, ok := seen[name]; ok {
					continue
				}
				seen[name] = struct{}{}
				names = append(names, name)
			}
		}
	}
	return names
}

// CleanCompetitorName strips leading articles, trailing generic suffixes and
// special characters, and collapses whitespace. Returns "" when the cleaned
// name is too short to be a plausible entity name.
func CleanCompetitorName(name string) string {
	name = leadingArticleRe.ReplaceAllString(strings.TrimSpace(name), "")
	name = genericSuffixRe.ReplaceAllString(name, "")
	name = specialCharsRe.ReplaceAllString(name, "")
	name = strings.Join(strings.Fields(name), " ")
	if len(name) <= 2 {
		return ""
	}
	return name
}

// NormalizeName is the dedup key for competitors within one run: whitespace
// collapse only. Case-differing names ("Acme" vs "ACME Inc") stay distinct.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}

// blockedURL reports whether a hit comes from an aggregator/review site.
// Comparison sites are not competitors.
func blockedURL(url string) bool {
	lower := strings.ToLower(url)
	for _, frag := range aggregatorBlocklist {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// clampDescription produces the stored competitor description from raw search
// content: first 200 characters with an ellipsis, whitespace collapsed.
func clampDescription(content string) string {
	if content == "" {
		return "No description available"
	}
	clamped := truncateRunes(content, 200)
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(clamped+"...", " "))
}

// truncateRunes cuts s after at most n runes. Truncating at byte offsets
// would split a multi-byte rune and leave invalid UTF-8, which
// encoding/json rewrites to U+FFFD on marshal.
func truncateRunes(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[:i]
		}
		n--
	}
	return s
}
