package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// AnyMethod matches every HTTP method in a [Route].
const AnyMethod = "*"

// Route is one allow-list entry. Pattern uses chi routing syntax, so
// "/actuator/*" matches a subtree and "/api/v1/photo/{id:[0-9]+}" matches a
// numeric segment.
type Route struct {
	Method  string
	Pattern string
}

// AllowList is a static set of routes that bypass the gate. It is safe for
// concurrent use once built.
type AllowList struct {
	mux    *chi.Mux
	routes []Route
}

// DefaultRoutes is the allow-list of the photo-scoring service this gate was
// first deployed in: the landing page, actuator probes, anonymous uploads and
// image analysis, OAuth2 entry points and public photo pages.
var DefaultRoutes = []Route{
	{Method: AnyMethod, Pattern: "/"},
	{Method: AnyMethod, Pattern: "/actuator/*"},
	{Method: http.MethodPost, Pattern: "/api/v1/photo"},
	{Method: http.MethodGet, Pattern: "/api/v1/image/analyze"},
	{Method: http.MethodGet, Pattern: "/api/v1/user/google"},
	{Method: http.MethodGet, Pattern: "/api/v1/user/kakao"},
	{Method: http.MethodGet, Pattern: "/api/v1/photo/{id:[0-9]+}"},
}

// NewAllowList compiles routes. It fails on a pattern or method chi rejects.
func NewAllowList(routes ...Route) (al *AllowList, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			al = nil
			err = fmt.Errorf("invalid allow-list route: %v", rec)
		}
	}()

	mux := chi.NewRouter()
	noop := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	for _, rt := range routes {
		method := strings.ToUpper(strings.TrimSpace(rt.Method))
		if method == "" || method == AnyMethod {
			mux.Handle(rt.Pattern, noop)
			continue
		}
		mux.Method(method, rt.Pattern, noop)
	}

	return &AllowList{mux: mux, routes: append([]Route(nil), routes...)}, nil
}

// MustAllowList is like [NewAllowList] but panics on error. Intended for
// package-level configuration.
func MustAllowList(routes ...Route) *AllowList {
	al, err := NewAllowList(routes...)
	if err != nil {
		panic(err)
	}
	return al
}

// Allows reports whether r matches an allow-listed route. A nil AllowList
// allows nothing.
func (a *AllowList) Allows(r *http.Request) bool {
	if a == nil || a.mux == nil || r == nil || r.URL == nil {
		return false
	}
	return a.mux.Match(chi.NewRouteContext(), r.Method, r.URL.Path)
}

// Routes returns a copy of the configured routes.
func (a *AllowList) Routes() []Route {
	if a == nil {
		return nil
	}
	return append([]Route(nil), a.routes...)
}
