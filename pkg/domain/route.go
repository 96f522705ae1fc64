package domain

import "strings"

// Route is the filter currently selected in the list view.
type Route string

const (
	RouteAll       Route = "all"
	RouteActive    Route = "active"
	RouteCompleted Route = "completed"
)

// Valid reports whether r is one of the three known routes.
func (r Route) Valid() bool {
	switch r {
	case RouteAll, RouteActive, RouteCompleted:
		return true
	}
	return false
}

// Fragment returns the navigation fragment selecting this route ("#/active").
// The "all" route is addressed by the empty page.
func (r Route) Fragment() string {
	if r == RouteAll {
		return "#/"
	}
	return "#/" + string(r)
}

// Filter returns the storage predicate implied by the route.
func (r Route) Filter() Filter {
	switch r {
	case RouteActive:
		return ByCompleted(false)
	case RouteCompleted:
		return ByCompleted(true)
	}
	return Filter{}
}

// RouteFromFragment derives the route from a navigation fragment such as
// "#/completed". The first path segment after the hash names the page; an
// empty or unknown page selects RouteAll. The second return value is false
// when the page was not empty and was not recognised.
func RouteFromFragment(fragment string) (Route, bool) {
	parts := strings.Split(fragment, "/")
	if len(parts) < 2 || parts[1] == "" {
		return RouteAll, true
	}
	r := Route(parts[1])
	if !r.Valid() {
		return RouteAll, false
	}
	return r, true
}
