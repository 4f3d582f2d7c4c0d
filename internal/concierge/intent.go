package concierge

import "campus-concierge/internal/models"

type intentBucket struct {
	intent   models.Intent
	keywords []string
}

// Checked in order. The first bucket with a keyword hit decides the intent.
var intentBuckets = []intentBucket{
	{models.IntentDeadlineQuery, []string{"deadline", "deadlines", "last date", "due date", "last day", "closing date"}},
	{models.IntentEscalation, []string{"emergency", "complaint", "complain", "harassment", "harassed", "harass", "ragging", "urgent", "unsafe", "threat", "threatened", "lost", "stolen"}},
	{models.IntentPolicyQuery, []string{"rule", "rules", "policy", "policies", "hours", "timing", "timings", "fee", "fees", "receipt", "fine", "fines", "allowed"}},
	{models.IntentOfficeLookup, []string{"where", "office", "who handles", "department", "section", "desk"}},
	{models.IntentProcessHowto, []string{"how", "apply", "register", "registration", "procedure", "process", "steps"}},
	{models.IntentServiceLookup, []string{"canteen", "mess", "atm", "hostel", "library", "clinic", "print", "printing", "photocopy", "wifi", "bank", "pharmacy"}},
	{models.IntentLocationLookup, []string{"where is", "locate", "find", "nearest", "location", "map"}},
	{models.IntentNoticeQuery, []string{"notice", "notices", "announcement", "announcements", "circular", "circulars"}},
	{models.IntentEventQuery, []string{"event", "events", "fest", "festival", "seminar", "workshop", "happening"}},
	{models.IntentClubQuery, []string{"club", "clubs", "society", "societies"}},
	{models.IntentLostFoundQuery, []string{"found", "missing"}},
	{models.IntentMarketplaceQuery, []string{"marketplace", "buy", "sell", "selling", "listing", "listings", "second hand"}},
	{models.IntentAppHelp, []string{"help", "app", "feature", "features", "what can you do"}},
}

var supportKeywords = []string{"support", "contact", "help desk", "helpdesk", "problem", "issue", "complaint"}

// Classify maps a query to exactly one intent.
func Classify(query string) models.Intent {
	q := Normalize(query)
	if q == "" {
		return models.IntentUnknown
	}
	if IsRouteShaped(q) {
		return models.IntentRouteNavigation
	}
	for _, b := range intentBuckets {
		if containsAnyPhrase(q, b.keywords) {
			return b.intent
		}
	}
	return models.IntentUnknown
}

// TopicForIntent returns the app-context topic an intent is grounded on.
func TopicForIntent(intent models.Intent) (string, bool) {
	switch intent {
	case models.IntentNoticeQuery:
		return "notices", true
	case models.IntentEventQuery:
		return "events", true
	case models.IntentClubQuery:
		return "clubs", true
	case models.IntentLostFoundQuery:
		return "lost_found", true
	case models.IntentMarketplaceQuery:
		return "marketplace", true
	case models.IntentAppHelp:
		return "help", true
	}
	return "", false
}

func isSupportQuery(query string) bool {
	return containsAnyPhrase(Normalize(query), supportKeywords)
}
