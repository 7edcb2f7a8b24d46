package obs

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// routeOf resolves the route label for r. Call it after the router has
// dispatched so chi has filled in the matched pattern.
func routeOf(r *http.Request, fallback string) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if route := rc.RoutePattern(); route != "" {
			return route
		}
	}
	return fallback
}
