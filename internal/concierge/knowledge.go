package concierge

import (
	"strings"
	"time"

	"campus-concierge/internal/catalog"
	"campus-concierge/internal/models"
)

// KBWeights score knowledge-base entries against a query.
type KBWeights struct {
	Pattern   int
	Keyword   int
	Threshold int
}

func DefaultKBWeights() KBWeights {
	return KBWeights{Pattern: 8, Keyword: 2, Threshold: 4}
}

type kbEntry struct {
	entry    models.KnowledgeBaseEntry
	patterns []string
	keywords []string
	verified time.Time
}

// KBMatch is the winning entry for a query.
type KBMatch struct {
	Entry models.KnowledgeBaseEntry
	Score int
}

type KnowledgeMatcher struct {
	entries []kbEntry
	weights KBWeights
}

func NewKnowledgeMatcher(entries []models.KnowledgeBaseEntry, weights KBWeights) *KnowledgeMatcher {
	m := &KnowledgeMatcher{entries: make([]kbEntry, 0, len(entries)), weights: weights}
	for _, e := range entries {
		ke := kbEntry{entry: e}
		for _, p := range e.QuestionPatterns {
			if n := Normalize(p); n != "" {
				ke.patterns = append(ke.patterns, n)
			}
		}
		for _, k := range e.Keywords {
			if n := Normalize(k); n != "" {
				ke.keywords = append(ke.keywords, n)
			}
		}
		// Unparseable timestamps sort as oldest.
		ke.verified, _ = catalog.ParseVerifiedAt(e.LastVerifiedAt)
		m.entries = append(m.entries, ke)
	}
	return m
}

// score is the raw score of one entry against a normalized query.
func (m *KnowledgeMatcher) score(e *kbEntry, q string) int {
	score := 0
	for _, p := range e.patterns {
		if strings.Contains(q, p) {
			score += m.weights.Pattern
		}
	}
	for _, k := range e.keywords {
		if strings.Contains(q, k) {
			score += m.weights.Keyword
		}
	}
	return score
}

// Match returns the best qualifying entry. Ties break on source authority,
// then on the most recent verification date.
func (m *KnowledgeMatcher) Match(query string) (KBMatch, bool) {
	q := Normalize(query)
	if q == "" {
		return KBMatch{}, false
	}

	var best *kbEntry
	bestScore := 0
	for i := range m.entries {
		e := &m.entries[i]
		s := m.score(e, q)
		if s < m.weights.Threshold {
			continue
		}
		if best == nil || s > bestScore || (s == bestScore && outranks(e, best)) {
			best, bestScore = e, s
		}
	}
	if best == nil {
		return KBMatch{}, false
	}
	return KBMatch{Entry: best.entry, Score: bestScore}, true
}

func outranks(a, b *kbEntry) bool {
	if aa, ba := a.entry.SourceType.Authority(), b.entry.SourceType.Authority(); aa != ba {
		return aa > ba
	}
	return a.verified.After(b.verified)
}

// Answer turns a match into a verified payload. Location ids missing from the
// index are skipped.
func (m *KnowledgeMatcher) Answer(match KBMatch, idx *Index) *models.ConciergeResponsePayload {
	e := match.Entry
	locs := make([]models.ConciergeLocationPayload, 0, len(e.LocationIDs))
	for _, id := range e.LocationIDs {
		if b, ok := idx.Lookup(id); ok {
			locs = append(locs, locationPayload(b, models.RoleDestination, nil))
		}
	}

	action := models.ActionShowLocation
	if len(locs) >= 2 {
		action = models.ActionShowMultipleLocations
	}

	return &models.ConciergeResponsePayload{
		Message:   e.Answer,
		Locations: locs,
		Action:    action,
		Intent:    e.Intent,
		Verified:  true,
		Sources:   []string{"knowledge_base:" + e.ID, "source:" + string(e.SourceType)},
		FollowUp:  nonNil(e.FollowUp),
	}
}
