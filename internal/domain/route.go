package domain

import "strings"

// RoutingDecision is the classification label that selects which handler a
// ticket is dispatched to.
type RoutingDecision string

const (
	RouteSentiment RoutingDecision = "sentiment"
	RouteDesign    RoutingDecision = "design"
	RoutePolicy    RoutingDecision = "policy"
)

// ParseRoutingDecision maps raw classifier output onto the label set. The
// second return is false when the text is outside the vocabulary; callers
// are expected to fall back to RoutePolicy in that case.
func ParseRoutingDecision(s string) (RoutingDecision, bool) {
	switch RoutingDecision(strings.ToLower(strings.TrimSpace(s))) {
	case RouteSentiment:
		return RouteSentiment, true
	case RouteDesign:
		return RouteDesign, true
	case RoutePolicy:
		return RoutePolicy, true
	default:
		return "", false
	}
}
