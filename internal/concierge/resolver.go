package concierge

import (
	"sort"
	"strings"

	"campus-concierge/internal/models"
)

// Weights are the entity scoring constants.
type Weights struct {
	Alias      int
	Exact      int
	Contains   int
	NameToken  int
	IDToken    int
	TextToken  int
	Confidence int
}

func DefaultWeights() Weights {
	return Weights{
		Alias:      120,
		Exact:      100,
		Contains:   40,
		NameToken:  8,
		IDToken:    5,
		TextToken:  2,
		Confidence: 10,
	}
}

const DefaultResolveLimit = 5

type Candidate struct {
	Building models.Building
	Score    int
	Alias    bool
	Service  *models.BuildingService
}

type Resolver struct {
	index   *Index
	weights Weights
}

func NewResolver(index *Index, weights Weights) *Resolver {
	return &Resolver{index: index, weights: weights}
}

func (r *Resolver) Confident(c Candidate) bool {
	return c.Score >= r.weights.Confidence
}

// Resolve ranks buildings against a free-text fragment. Results are sorted by
// descending score, unique by building id and capped at limit.
func (r *Resolver) Resolve(query string, limit int) []Candidate {
	if limit <= 0 {
		limit = DefaultResolveLimit
	}
	q := Normalize(query)
	if q == "" {
		return nil
	}

	var aliasHit *Candidate
	for _, phrase := range []string{q, trimFiller(q)} {
		if id, ok := r.index.Alias(phrase); ok {
			b, _ := r.index.Lookup(id)
			aliasHit = &Candidate{Building: b, Score: r.weights.Alias, Alias: true}
			break
		}
	}

	tokens := make([]string, 0, 8)
	for _, t := range strings.Fields(q) {
		if !stopwords[t] {
			tokens = append(tokens, t)
		}
	}

	scored := make([]Candidate, 0, len(r.index.buildings))
	for i := range r.index.buildings {
		ib := &r.index.buildings[i]
		score := 0
		if q == ib.name || q == ib.id {
			score += r.weights.Exact
		}
		if len(q) >= 3 && (strings.Contains(ib.name, q) || strings.Contains(q, ib.name)) {
			score += r.weights.Contains
		}
		for _, t := range tokens {
			switch {
			case ib.nameWords[t]:
				score += r.weights.NameToken
			case ib.idWords[t]:
				score += r.weights.IDToken
			case ib.textWords[t]:
				score += r.weights.TextToken
			}
		}
		if score > 0 {
			scored = append(scored, Candidate{Building: ib.building, Score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if aliasHit != nil {
		scored = append([]Candidate{*aliasHit}, scored...)
	}

	out := make([]Candidate, 0, limit)
	seen := make(map[string]bool, len(scored))
	for _, c := range scored {
		if seen[c.Building.ID] {
			continue
		}
		seen[c.Building.ID] = true
		c.Service = r.matchService(c.Building.ID, q)
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}

// Best returns the top candidate when it clears the confidence threshold.
func (r *Resolver) Best(query string) (Candidate, bool) {
	cands := r.Resolve(query, 1)
	if len(cands) == 0 || !r.Confident(cands[0]) {
		return Candidate{}, false
	}
	return cands[0], true
}

func (r *Resolver) matchService(id, q string) *models.BuildingService {
	i, ok := r.index.byID[id]
	if !ok {
		return nil
	}
	ib := &r.index.buildings[i]
	for j, name := range ib.services {
		if containsPhrase(q, name) {
			svc := ib.building.Services[j]
			return &svc
		}
	}
	return nil
}
