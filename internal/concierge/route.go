package concierge

import (
	"regexp"
	"strings"
)

// RoutePair holds the raw start and end fragments of a route-shaped query.
type RoutePair struct {
	Start string
	End   string
}

var (
	fromToPattern   = regexp.MustCompile(`\bfrom\s+(.+?)\s+to\s+(.+)$`)
	betweenPattern  = regexp.MustCompile(`\bbetween\s+(.+?)\s+and\s+(.+)$`)
	bareToPattern   = regexp.MustCompile(`^(.+?)\s+to\s+(.+)$`)
	routeVocabulary = []string{"route", "directions", "direction", "navigate", "navigation", "how to get from", "walk from"}
)

// Words that mean "A" in "A to B" is part of a sentence rather than a place.
var strayWords = map[string]bool{
	"how": true, "where": true, "what": true, "which": true, "when": true, "why": true,
	"i": true, "we": true, "you": true, "go": true, "get": true, "come": true, "walk": true,
	"need": true, "want": true, "way": true, "have": true, "able": true, "going": true,
	"can": true, "could": true, "would": true, "should": true, "do": true, "does": true,
	"is": true, "are": true, "please": true, "take": true, "show": true, "tell": true,
	"directions": true, "route": true, "navigate": true, "apply": true, "register": true,
	"submit": true, "send": true, "talk": true, "speak": true, "due": true, "up": true,
	"next": true, "close": true, "according": true, "related": true, "used": true,
	"welcome": true, "back": true, "easy": true, "hard": true, "time": true, "from": true,
}

// ExtractRoute pulls start and end fragments out of a query. The first
// matching shape wins: "from A to B", "between A and B", then a bare "A to B".
func ExtractRoute(query string) (RoutePair, bool) {
	q := Normalize(query)
	if q == "" {
		return RoutePair{}, false
	}

	if m := fromToPattern.FindStringSubmatch(q); m != nil {
		if pair, ok := cleanPair(m[1], m[2]); ok {
			return pair, true
		}
	}
	if m := betweenPattern.FindStringSubmatch(q); m != nil {
		if pair, ok := cleanPair(m[1], m[2]); ok {
			return pair, true
		}
	}
	if m := bareToPattern.FindStringSubmatch(q); m != nil {
		words := strings.Fields(m[1])
		if len(words) > 0 && !strayWords[words[0]] && !strayWords[words[len(words)-1]] {
			if pair, ok := cleanPair(m[1], m[2]); ok {
				return pair, true
			}
		}
	}
	return RoutePair{}, false
}

func cleanPair(start, end string) (RoutePair, bool) {
	start, end = trimFiller(start), trimFiller(end)
	if len(start) <= 2 || len(end) <= 2 {
		return RoutePair{}, false
	}
	return RoutePair{Start: start, End: end}, true
}

// IsRouteShaped reports whether the query asks for directions, whether or
// not both endpoints could be extracted.
func IsRouteShaped(query string) bool {
	if _, ok := ExtractRoute(query); ok {
		return true
	}
	return containsAnyPhrase(Normalize(query), routeVocabulary)
}
