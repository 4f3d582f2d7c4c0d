package concierge

import (
	"campus-concierge/internal/models"
)

const generalFallback = "general"

type pinRule struct {
	keywords   []string
	buildingID string
}

// Sniffed when a fallback entry carries no pins of its own.
var pinRules = []pinRule{
	{[]string{"exam", "exams", "admit", "result", "results", "marks"}, "exam-office"},
	{[]string{"health", "clinic", "doctor", "sick", "medicine", "emergency", "injury"}, "campus-clinic"},
	{[]string{"fee", "fees", "receipt", "payment", "scholarship", "refund"}, "accounts-section"},
	{[]string{"hostel", "room", "warden"}, "hostel-office"},
	{[]string{"library", "book", "books"}, "pulchowk-library"},
	{[]string{"canteen", "food", "mess", "lunch", "meal"}, "campus-mess"},
	{[]string{"harassment", "complaint", "grievance", "ragging"}, "student-welfare"},
}

const defaultPin = "admin-block"

const maxSniffedPins = 3

type FallbackResolver struct {
	fallbacks map[string]models.FallbackEntry
	index     *Index
}

func NewFallbackResolver(fallbacks map[string]models.FallbackEntry, index *Index) *FallbackResolver {
	return &FallbackResolver{fallbacks: fallbacks, index: index}
}

// Resolve always returns an unverified payload.
func (f *FallbackResolver) Resolve(intent models.Intent, query string) *models.ConciergeResponsePayload {
	key := string(intent)
	entry, ok := f.fallbacks[key]
	if !ok {
		key = generalFallback
		entry, ok = f.fallbacks[key]
	}
	if !ok || entry.Message == "" {
		entry = models.FallbackEntry{Message: "I could not find an answer to that. The campus enquiry desk can help."}
	}

	ids := entry.LocationIDs
	if len(ids) == 0 {
		ids = f.sniffPins(query)
	}

	locs := make([]models.ConciergeLocationPayload, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		if b, ok := f.index.Lookup(id); ok {
			seen[b.ID] = true
			locs = append(locs, locationPayload(b, models.RoleDestination, nil))
		}
	}

	if !intent.Valid() {
		intent = models.IntentUnknown
	}

	return &models.ConciergeResponsePayload{
		Message:   entry.Message,
		Locations: locs,
		Action:    actionForCount(len(locs)),
		Intent:    intent,
		Verified:  false,
		Sources:   []string{"fallback:" + key},
		FollowUp:  nonNil(entry.FollowUp),
	}
}

func (f *FallbackResolver) sniffPins(query string) []string {
	q := Normalize(query)
	var ids []string
	for _, r := range pinRules {
		if len(ids) == maxSniffedPins {
			break
		}
		if containsAnyPhrase(q, r.keywords) && f.index.Has(r.buildingID) {
			ids = append(ids, r.buildingID)
		}
	}
	if len(ids) > 0 {
		return ids
	}
	if f.index.Has(defaultPin) {
		return []string{defaultPin}
	}
	if all := f.index.Buildings(); len(all) > 0 {
		return []string{all[0].ID}
	}
	return nil
}
