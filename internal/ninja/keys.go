package ninja

import (
	"regexp"
	"strings"
	"unicode"
)

// punctCleaner strips everything outside word characters, whitespace and
// hyphens when building the loosest key variant.
var punctCleaner = regexp.MustCompile(`[^\w\s-]+`)

// normKey is the exact key variant: trimmed and lowercased.
func normKey(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

// slugKey is the hyphen-slug variant of text.
func slugKey(text string) string {
	base := normKey(text)
	if base == "" {
		return ""
	}
	return strings.ReplaceAll(base, " ", "-")
}

// strippedKey is the punctuation-free variant with whitespace collapsed.
func strippedKey(text string) string {
	base := normKey(text)
	if base == "" {
		return ""
	}
	cleaned := punctCleaner.ReplaceAllString(base, "")
	return strings.Join(strings.Fields(cleaned), " ")
}

// collectKeys builds the normalized key variants for every given
// identifier, in a fixed order so repeated runs resolve identically. Empty
// identifiers contribute nothing. A match on any variant is an identity
// match: this is the only bridge between slug-based and display-name-based
// sources.
func collectKeys(values ...string) []string {
	var keys []string
	for _, value := range values {
		if value == "" {
			continue
		}
		seen := make(map[string]struct{}, 3)
		for _, variant := range []string{normKey(value), slugKey(value), strippedKey(value)} {
			if variant == "" {
				continue
			}
			if _, dup := seen[variant]; dup {
				continue
			}
			seen[variant] = struct{}{}
			keys = append(keys, variant)
		}
	}
	return keys
}

// humanizeSlug turns "greater-exalted_orb" into "Greater Exalted Orb". A
// slug with no word content comes back unchanged.
func humanizeSlug(slug string) string {
	text := strings.NewReplacer("_", " ", "-", " ").Replace(slug)
	text = strings.TrimSpace(text)
	if text == "" {
		return slug
	}
	words := strings.Fields(text)
	for i, word := range words {
		words[i] = capitalize(word)
	}
	return strings.Join(words, " ")
}

func capitalize(word string) string {
	runes := []rune(strings.ToLower(word))
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
