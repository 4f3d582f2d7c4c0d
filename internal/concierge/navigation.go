package concierge

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"campus-concierge/internal/common/validation"
	"campus-concierge/internal/models"
)

// ErrUnverifiedLocations is returned when none of the model's locations (or
// too few for a route) exist in the catalog.
var ErrUnverifiedLocations = stderrors.New("model reply has no verifiable locations")

var navigationReplySchema = validation.MustCompile("navigation-reply", `{
  "type": "object",
  "properties": {
    "message": {"type": ["string", "null"]},
    "locations": {
      "type": ["array", "null"],
      "items": {
        "type": "object",
        "properties": {
          "building_id": {"type": ["string", "null"]},
          "building_name": {"type": ["string", "null"]},
          "role": {"type": ["string", "null"]}
        }
      }
    }
  }
}`)

type navigationReply struct {
	Message   string          `json:"message"`
	Action    interface{}     `json:"action"`
	Locations []navigationPin `json:"locations"`
}

type navigationPin struct {
	BuildingID   string `json:"building_id"`
	BuildingName string `json:"building_name"`
	Role         string `json:"role"`
}

type verifiedPin struct {
	building models.Building
	role     models.Role
}

// NavigationBridge asks the completion provider to pick catalog locations and
// then verifies every pick against the index.
type NavigationBridge struct {
	provider CompletionProvider
	index    *Index
	resolver *Resolver
	timeout  time.Duration
	catalog  string
}

func NewNavigationBridge(provider CompletionProvider, index *Index, resolver *Resolver, timeout time.Duration) *NavigationBridge {
	return &NavigationBridge{
		provider: provider,
		index:    index,
		resolver: resolver,
		timeout:  timeout,
		catalog:  catalogPrompt(index),
	}
}

func catalogPrompt(index *Index) string {
	var sb strings.Builder
	for _, b := range index.Buildings() {
		fmt.Fprintf(&sb, "- id=%s | name=%s | lat=%.6f,lng=%.6f | %s\n",
			b.ID, b.Name, b.Coordinates.Lat, b.Coordinates.Lng, b.Description)
	}
	return sb.String()
}

func (n *NavigationBridge) prompt(query string) string {
	var sb strings.Builder
	sb.WriteString("You are a campus navigation assistant. Pick locations ONLY from this catalog:\n")
	sb.WriteString(n.catalog)
	sb.WriteString("\nReply with strict JSON only, no prose:\n")
	sb.WriteString(`{"message": string, "action": "show_route" | "show_location" | "show_multiple_locations" | "text_answer", "locations": [{"building_id": string, "building_name": string, "role": "start" | "end" | "destination"}]}`)
	sb.WriteString("\nFor directions use show_route with exactly two locations, start first.\n")
	fmt.Fprintf(&sb, "Student query: %q\n", query)
	return sb.String()
}

// Resolve returns a verified payload or an error. Any error means the caller
// should move on to its next stage.
func (n *NavigationBridge) Resolve(ctx context.Context, query string, intent models.Intent) (*models.ConciergeResponsePayload, error) {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	text, err := complete(ctx, n.provider, n.prompt(query))
	if err != nil {
		return nil, err
	}
	raw, err := decodeModelReply(text, navigationReplySchema)
	if err != nil {
		return nil, err
	}
	var reply navigationReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, err
	}

	pins := n.verify(reply.Locations)
	action := sanitizeAction(reply.Action)

	var locs []models.ConciergeLocationPayload
	switch action {
	case models.ActionShowRoute:
		start, end, ok := routeEndpoints(pins)
		if !ok {
			return nil, ErrUnverifiedLocations
		}
		locs = []models.ConciergeLocationPayload{
			locationPayload(start, models.RoleStart, nil),
			locationPayload(end, models.RoleEnd, nil),
		}
	default:
		if len(pins) == 0 {
			return nil, ErrUnverifiedLocations
		}
		if action == models.ActionShowLocation {
			pins = pins[:1]
		}
		for _, p := range pins {
			locs = append(locs, locationPayload(p.building, models.RoleDestination, nil))
		}
		action = actionForCount(len(locs))
	}

	message := strings.TrimSpace(reply.Message)
	if message == "" {
		message = defaultNavigationMessage(action, locs)
	}

	return &models.ConciergeResponsePayload{
		Message:   message,
		Locations: locs,
		Action:    action,
		Intent:    intent,
		Verified:  true,
		Sources:   []string{"llm_navigation", "provider:" + n.provider.Name(), "building_catalog"},
		FollowUp:  []string{},
	}, nil
}

func sanitizeAction(v interface{}) models.Action {
	if s, ok := v.(string); ok {
		if a := models.Action(strings.TrimSpace(s)); a.Valid() {
			return a
		}
	}
	return models.ActionShowLocation
}

// verify drops every pin that does not resolve to a catalog building.
func (n *NavigationBridge) verify(pins []navigationPin) []verifiedPin {
	out := make([]verifiedPin, 0, len(pins))
	seen := make(map[string]bool, len(pins))
	for _, p := range pins {
		b, ok := n.index.Lookup(strings.TrimSpace(p.BuildingID))
		if !ok && strings.TrimSpace(p.BuildingName) != "" {
			var c Candidate
			if c, ok = n.resolver.Best(p.BuildingName); ok {
				b = c.Building
			}
		}
		if !ok || seen[b.ID] {
			continue
		}
		seen[b.ID] = true
		out = append(out, verifiedPin{building: b, role: models.Role(strings.ToLower(strings.TrimSpace(p.Role)))})
	}
	return out
}

// routeEndpoints honours explicit start/end roles and otherwise uses the
// order the model listed the pins in.
func routeEndpoints(pins []verifiedPin) (models.Building, models.Building, bool) {
	if len(pins) < 2 {
		return models.Building{}, models.Building{}, false
	}
	startIdx, endIdx := -1, -1
	for i, p := range pins {
		if p.role == models.RoleStart && startIdx < 0 {
			startIdx = i
		}
		if p.role == models.RoleEnd && endIdx < 0 {
			endIdx = i
		}
	}
	if startIdx < 0 {
		for i := range pins {
			if i != endIdx {
				startIdx = i
				break
			}
		}
	}
	if endIdx < 0 || endIdx == startIdx {
		endIdx = -1
		for i := range pins {
			if i != startIdx {
				endIdx = i
				break
			}
		}
	}
	if startIdx < 0 || endIdx < 0 {
		return models.Building{}, models.Building{}, false
	}
	return pins[startIdx].building, pins[endIdx].building, true
}

func defaultNavigationMessage(action models.Action, locs []models.ConciergeLocationPayload) string {
	switch action {
	case models.ActionShowRoute:
		return routeMessage(locs[0].BuildingName, locs[1].BuildingName)
	case models.ActionShowLocation:
		return fmt.Sprintf("Here is %s on the campus map.", locs[0].BuildingName)
	}
	names := make([]string, len(locs))
	for i, l := range locs {
		names[i] = l.BuildingName
	}
	return "These places match your question: " + strings.Join(names, ", ") + "."
}

func routeMessage(from, to string) string {
	return fmt.Sprintf("Here is the route from %s to %s.", from, to)
}
