// internal/models/concierge.go
package models

type Intent string

const (
	IntentRouteNavigation  Intent = "route_navigation"
	IntentDeadlineQuery    Intent = "deadline_query"
	IntentEscalation       Intent = "escalation"
	IntentPolicyQuery      Intent = "policy_query"
	IntentOfficeLookup     Intent = "office_lookup"
	IntentProcessHowto     Intent = "process_howto"
	IntentServiceLookup    Intent = "service_lookup"
	IntentLocationLookup   Intent = "location_lookup"
	IntentNoticeQuery      Intent = "notice_query"
	IntentEventQuery       Intent = "event_query"
	IntentClubQuery        Intent = "club_query"
	IntentLostFoundQuery   Intent = "lost_found_query"
	IntentMarketplaceQuery Intent = "marketplace_query"
	IntentAppHelp          Intent = "app_help"
	IntentUnknown          Intent = "unknown"
)

var knownIntents = map[Intent]bool{
	IntentRouteNavigation:  true,
	IntentDeadlineQuery:    true,
	IntentEscalation:       true,
	IntentPolicyQuery:      true,
	IntentOfficeLookup:     true,
	IntentProcessHowto:     true,
	IntentServiceLookup:    true,
	IntentLocationLookup:   true,
	IntentNoticeQuery:      true,
	IntentEventQuery:       true,
	IntentClubQuery:        true,
	IntentLostFoundQuery:   true,
	IntentMarketplaceQuery: true,
	IntentAppHelp:          true,
	IntentUnknown:          true,
}

func (i Intent) Valid() bool {
	return knownIntents[i]
}

type Action string

const (
	ActionShowRoute             Action = "show_route"
	ActionShowLocation          Action = "show_location"
	ActionShowMultipleLocations Action = "show_multiple_locations"
	ActionTextAnswer            Action = "text_answer"
)

func (a Action) Valid() bool {
	switch a {
	case ActionShowRoute, ActionShowLocation, ActionShowMultipleLocations, ActionTextAnswer:
		return true
	}
	return false
}

type Role string

const (
	RoleStart       Role = "start"
	RoleEnd         Role = "end"
	RoleDestination Role = "destination"
)

type ConciergeLocationPayload struct {
	BuildingID      string      `json:"building_id"`
	BuildingName    string      `json:"building_name"`
	Coordinates     Coordinates `json:"coordinates"`
	ServiceName     *string     `json:"service_name"`
	ServiceLocation *string     `json:"service_location"`
	Role            Role        `json:"role"`
}

// ConciergeResponsePayload is the only shape a resolution ever returns.
type ConciergeResponsePayload struct {
	Message   string                     `json:"message"`
	Locations []ConciergeLocationPayload `json:"locations"`
	Action    Action                     `json:"action"`
	Intent    Intent                     `json:"intent"`
	Verified  bool                       `json:"verified"`
	Sources   []string                   `json:"sources"`
	FollowUp  []string                   `json:"follow_up"`
}
