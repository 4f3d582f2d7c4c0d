package concierge

import (
	"fmt"

	"campus-concierge/internal/models"
)

func locationPayload(b models.Building, role models.Role, svc *models.BuildingService) models.ConciergeLocationPayload {
	loc := models.ConciergeLocationPayload{
		BuildingID:   b.ID,
		BuildingName: b.Name,
		Coordinates:  b.Coordinates,
		Role:         role,
	}
	if svc != nil {
		name, where := svc.Name, svc.Location
		loc.ServiceName = &name
		loc.ServiceLocation = &where
	}
	return loc
}

// actionForCount picks the map action for a set of destination pins.
func actionForCount(n int) models.Action {
	switch {
	case n == 0:
		return models.ActionTextAnswer
	case n == 1:
		return models.ActionShowLocation
	default:
		return models.ActionShowMultipleLocations
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// actionHolds reports whether a map action can carry n destination pins.
// show_location covers the 0-1 case so pinless knowledge answers keep it.
func actionHolds(a models.Action, n int) bool {
	switch a {
	case models.ActionShowLocation:
		return n <= 1
	case models.ActionShowMultipleLocations:
		return n >= 2
	}
	return false
}

// sanitize enforces the payload invariants on whatever a stage produced:
// unknown buildings are dropped and the action is recomputed when a pin was
// dropped or the action cannot carry the surviving locations.
func sanitize(p *models.ConciergeResponsePayload, idx *Index) *models.ConciergeResponsePayload {
	before := len(p.Locations)
	kept := make([]models.ConciergeLocationPayload, 0, len(p.Locations))
	for _, loc := range p.Locations {
		if idx.Has(loc.BuildingID) {
			kept = append(kept, loc)
		}
	}
	p.Locations = kept

	switch p.Action {
	case models.ActionShowRoute:
		if len(kept) != 2 || kept[0].Role != models.RoleStart || kept[1].Role != models.RoleEnd {
			for i := range p.Locations {
				p.Locations[i].Role = models.RoleDestination
			}
			p.Action = actionForCount(len(p.Locations))
		}
	case models.ActionTextAnswer:
		p.Locations = []models.ConciergeLocationPayload{}
	default:
		if len(kept) != before || !actionHolds(p.Action, len(kept)) {
			p.Action = actionForCount(len(kept))
		}
	}

	if !p.Intent.Valid() {
		p.Intent = models.IntentUnknown
	}
	p.Sources = nonNil(p.Sources)
	p.FollowUp = nonNil(p.FollowUp)
	return p
}

func describeBuilding(b models.Building, svc *models.BuildingService) string {
	if svc != nil {
		return fmt.Sprintf("%s is at %s (%s).", svc.Name, b.Name, svc.Location)
	}
	if b.Description != "" {
		return fmt.Sprintf("%s: %s", b.Name, b.Description)
	}
	return fmt.Sprintf("Here is %s on the campus map.", b.Name)
}
