// Package router maps URL fragments to dashboard views.
package router

import (
	"net/url"
	"strings"
	"sync"
)

// View enumerates the screens of the dashboard.
type View int

const (
	ViewDirectory View = iota
	ViewClient
	ViewBriefing
)

func (v View) String() string {
	switch v {
	case ViewClient:
		return "client"
	case ViewBriefing:
		return "briefing"
	}
	return "directory"
}

const (
	clientPrefix   = "/client/"
	briefingPrefix = "/briefing/"
)

// Route is a resolved view. ClientID is empty for the directory.
type Route struct {
	View     View
	ClientID string
}

// Directory is the route of the client list.
var Directory = Route{View: ViewDirectory}

// Client returns the detail route of a client.
func Client(id string) Route { return Route{View: ViewClient, ClientID: id} }

// Briefing returns the public briefing route of a client.
func Briefing(id string) Route { return Route{View: ViewBriefing, ClientID: id} }

// Parse resolves a fragment such as "#/client/<id>" or "#/briefing/<id>".
// Anything else, including the empty fragment, resolves to the directory.
func Parse(fragment string) Route {
	f := strings.TrimPrefix(fragment, "#")
	if id, ok := cutID(f, clientPrefix); ok {
		return Client(id)
	}
	if id, ok := cutID(f, briefingPrefix); ok {
		return Briefing(id)
	}
	return Directory
}

func cutID(f, prefix string) (string, bool) {
	rest, ok := strings.CutPrefix(f, prefix)
	if !ok || rest == "" {
		return "", false
	}
	if id, err := url.PathUnescape(rest); err == nil {
		return id, true
	}
	return rest, true
}

// Fragment renders the route back to its fragment form.
func (r Route) Fragment() string {
	switch r.View {
	case ViewClient:
		return "#" + clientPrefix + url.PathEscape(r.ClientID)
	case ViewBriefing:
		return "#" + briefingPrefix + url.PathEscape(r.ClientID)
	}
	return ""
}

// Router tracks the current route. Every fragment change, whether it comes
// from the initial load or from history navigation, goes through Dispatch.
type Router struct {
	mu      sync.Mutex
	current Route
}

// New returns a router positioned at the route of the initial fragment.
func New(initial string) *Router {
	r := &Router{}
	r.Dispatch(initial)
	return r
}

// Dispatch parses the fragment and makes it the current route.
func (r *Router) Dispatch(fragment string) Route {
	route := Parse(fragment)
	r.mu.Lock()
	r.current = route
	r.mu.Unlock()
	return route
}

// Navigate moves to route and returns the fragment the location should show.
func (r *Router) Navigate(route Route) string {
	if route.View != ViewDirectory && route.ClientID == "" {
		route = Directory
	}
	r.mu.Lock()
	r.current = route
	r.mu.Unlock()
	return route.Fragment()
}

// Back returns to the directory and clears the fragment.
func (r *Router) Back() string {
	return r.Navigate(Directory)
}

// Current returns the active route.
func (r *Router) Current() Route {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}
