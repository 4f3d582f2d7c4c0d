package concierge

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Normalize lowercases s, replaces every run of non-alphanumerics with a
// single space and trims the result.
func Normalize(s string) string {
	return strings.Join(strings.Fields(nonAlnum.ReplaceAllString(strings.ToLower(s), " ")), " ")
}

func Tokenize(s string) []string {
	return strings.Fields(Normalize(s))
}

// containsPhrase reports whether phrase occurs in text on word boundaries.
// Both arguments must already be normalized.
func containsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

func containsAnyPhrase(text string, phrases []string) bool {
	for _, p := range phrases {
		if containsPhrase(text, p) {
			return true
		}
	}
	return false
}

var leadingFiller = []string{"the", "a", "an", "my", "our"}

var trailingFiller = []string{"please", "now", "pls", "thanks", "located", "on the map"}

// trimFiller strips articles from the front and courtesy words from the end of
// a normalized fragment.
func trimFiller(s string) string {
	for changed := true; changed; {
		changed = false
		for _, w := range leadingFiller {
			if strings.HasPrefix(s, w+" ") {
				s = strings.TrimPrefix(s, w+" ")
				changed = true
			}
		}
		for _, w := range trailingFiller {
			if strings.HasSuffix(s, " "+w) {
				s = strings.TrimSuffix(s, " "+w)
				changed = true
			}
		}
	}
	return strings.TrimSpace(s)
}

// Words that carry no signal about which building is meant.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "is": true, "are": true, "was": true, "be": true,
	"of": true, "to": true, "from": true, "in": true, "on": true, "at": true, "for": true,
	"and": true, "or": true, "with": true, "by": true, "about": true,
	"i": true, "me": true, "my": true, "we": true, "our": true, "you": true, "it": true,
	"this": true, "that": true, "there": true, "here": true, "s": true,
	"where": true, "what": true, "which": true, "how": true, "when": true, "who": true,
	"show": true, "find": true, "locate": true, "tell": true, "take": true, "get": true,
	"go": true, "can": true, "could": true, "do": true, "does": true, "please": true,
	"need": true, "want": true, "way": true, "near": true, "nearest": true,
}
