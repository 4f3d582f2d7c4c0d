package concierge

import (
	"strings"

	"campus-concierge/internal/models"
)

type indexedBuilding struct {
	building  models.Building
	name      string
	id        string
	text      string
	nameWords map[string]bool
	idWords   map[string]bool
	textWords map[string]bool
	services  []string
}

// Index is a read-only search view over the building catalog. Build it once
// with NewIndex and share it between requests.
type Index struct {
	buildings []indexedBuilding
	byID      map[string]int
	aliases   map[string]string
}

func NewIndex(buildings []models.Building, aliases map[string]string) *Index {
	idx := &Index{
		buildings: make([]indexedBuilding, 0, len(buildings)),
		byID:      make(map[string]int, len(buildings)),
		aliases:   make(map[string]string, len(aliases)),
	}

	for _, b := range buildings {
		if _, dup := idx.byID[b.ID]; dup {
			continue
		}
		text := []string{b.Description}
		services := make([]string, len(b.Services))
		for i, s := range b.Services {
			text = append(text, s.Name, s.Purpose, s.Location)
			services[i] = Normalize(s.Name)
		}
		ib := indexedBuilding{
			building: b,
			name:     Normalize(b.Name),
			id:       Normalize(b.ID),
			text:     Normalize(strings.Join(text, " ")),
			services: services,
		}
		ib.nameWords = wordSet(ib.name)
		ib.idWords = wordSet(ib.id)
		ib.textWords = wordSet(ib.text)

		idx.byID[b.ID] = len(idx.buildings)
		idx.buildings = append(idx.buildings, ib)
	}

	for phrase, id := range aliases {
		if _, ok := idx.byID[id]; !ok {
			continue
		}
		if key := Normalize(phrase); key != "" {
			idx.aliases[key] = id
		}
	}

	return idx
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(s)
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

// Lookup finds a building by exact id, falling back to a normalized id comparison.
func (x *Index) Lookup(id string) (models.Building, bool) {
	if i, ok := x.byID[id]; ok {
		return x.buildings[i].building, true
	}
	norm := Normalize(id)
	if norm == "" {
		return models.Building{}, false
	}
	for _, b := range x.buildings {
		if b.id == norm {
			return b.building, true
		}
	}
	return models.Building{}, false
}

func (x *Index) Has(id string) bool {
	_, ok := x.byID[id]
	return ok
}

// Alias resolves a normalized phrase through the alias table.
func (x *Index) Alias(phrase string) (string, bool) {
	id, ok := x.aliases[phrase]
	return id, ok
}

func (x *Index) Buildings() []models.Building {
	out := make([]models.Building, len(x.buildings))
	for i, b := range x.buildings {
		out[i] = b.building
	}
	return out
}

func (x *Index) Len() int {
	return len(x.buildings)
}
