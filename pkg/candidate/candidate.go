// Package candidate selects which suppressions a report is checked against.
//
// Suppression files are grouped into named sets. Every report is checked
// against the common set; a route adds supplementary sets when all of a
// report's origins come from one platform or tool, e.g. only Mac builders.
package candidate

import (
	"fmt"
	"regexp"

	"github.com/praetorian-inc/suppcheck/pkg/types"
)

// CommonRoute names the selection used when no route applies.
const CommonRoute = "common"

// Sets maps set names to suppression lists in file order.
type Sets map[string][]*types.Suppression

// Route adds Sets to the common list for reports whose origins all match
// OriginPattern.
type Route struct {
	Name          string
	OriginPattern *regexp.Regexp
	Sets          []string
}

// NewRoute compiles pattern into a route.
func NewRoute(name, pattern string, sets ...string) (Route, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return Route{}, fmt.Errorf("route %s: invalid origin pattern %q: %w", name, pattern, err)
	}
	return Route{Name: name, OriginPattern: re, Sets: sets}, nil
}

// MatchesAll reports whether every origin matches the route. A report with
// no origins matches no route.
func (r Route) MatchesAll(origins []string) bool {
	if len(origins) == 0 {
		return false
	}
	for _, o := range origins {
		if !r.OriginPattern.MatchString(o) {
			return false
		}
	}
	return true
}

// DefaultRoutes are the waterfall conventions: Mac builders get the "mac"
// set, Heapcheck builders the "heapcheck" set.
func DefaultRoutes() []Route {
	return []Route{
		{Name: "mac", OriginPattern: regexp.MustCompile(`%20Mac%20|mac_valgrind`), Sets: []string{"mac"}},
		{Name: "heapcheck", OriginPattern: regexp.MustCompile(`%20Heapcheck`), Sets: []string{"heapcheck"}},
	}
}

// Selection is the candidate list chosen for a report.
type Selection struct {
	Route        string // route name, or CommonRoute
	Suppressions []*types.Suppression
}

// Router picks candidate lists by origin. Lists are assembled once and
// shared between reports.
type Router struct {
	routes []Route
	common []*types.Suppression
	lists  map[string][]*types.Suppression
}

// NewRouter builds a router. commonSet must name an entry of sets, and every
// set a route refers to must exist.
func NewRouter(sets Sets, commonSet string, routes []Route) (*Router, error) {
	common, ok := sets[commonSet]
	if !ok {
		return nil, fmt.Errorf("common set %q is not defined", commonSet)
	}

	r := &Router{
		routes: routes,
		common: common,
		lists:  make(map[string][]*types.Suppression, len(routes)+1),
	}
	r.lists[CommonRoute] = common

	for _, route := range routes {
		if route.Name == CommonRoute {
			return nil, fmt.Errorf("route name %q is reserved", CommonRoute)
		}
		if _, dup := r.lists[route.Name]; dup {
			return nil, fmt.Errorf("duplicate route %q", route.Name)
		}
		if route.OriginPattern == nil {
			return nil, fmt.Errorf("route %q has no origin pattern", route.Name)
		}

		list := make([]*types.Suppression, 0, len(common))
		list = append(list, common...)
		for _, name := range route.Sets {
			extra, ok := sets[name]
			if !ok {
				return nil, fmt.Errorf("route %q refers to undefined set %q", route.Name, name)
			}
			list = append(list, extra...)
		}
		r.lists[route.Name] = list
	}
	return r, nil
}

// Select returns the candidate list for a report observed at origins. The
// first route matching every origin wins.
func (r *Router) Select(origins []string) Selection {
	for _, route := range r.routes {
		if route.MatchesAll(origins) {
			return Selection{Route: route.Name, Suppressions: r.lists[route.Name]}
		}
	}
	return Selection{Route: CommonRoute, Suppressions: r.common}
}

// Candidates returns the candidate list for report.
func (r *Router) Candidates(report *types.Report) []*types.Suppression {
	return r.Select(report.Origins).Suppressions
}

// Lists returns every assembled candidate list keyed by route name,
// including CommonRoute.
func (r *Router) Lists() map[string][]*types.Suppression {
	out := make(map[string][]*types.Suppression, len(r.lists))
	for k, v := range r.lists {
		out[k] = v
	}
	return out
}

// All returns every distinct suppression the router can select, common set
// first, then route sets in route order.
func (r *Router) All() []*types.Suppression {
	seen := make(map[*types.Suppression]bool)
	var out []*types.Suppression
	add := func(list []*types.Suppression) {
		for _, s := range list {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	add(r.common)
	for _, route := range r.routes {
		add(r.lists[route.Name])
	}
	return out
}
