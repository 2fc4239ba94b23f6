package middleware

import (
	"errors"
	"net/http"

	goGate "github.com/MrEthical07/goGate"
)

// Gate authenticates every request not matched by allow. Authenticated
// requests reach next with a [goGate.Principal] in their context; rejected
// ones get a JSON error and next never runs.
//
// When the access credential has expired the gate runs the reissue exchange
// in-line. On success the new cookies are already on w, and next receives a
// clone of the request whose Authorization header and cookies carry the new
// credentials, so downstream code sees the refreshed identity without the
// client retrying.
func Gate(engine *goGate.Engine, allow *AllowList) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if allow.Allows(r) {
				next.ServeHTTP(w, r)
				return
			}
			if engine == nil {
				WriteError(w, goGate.ErrEngineNotReady)
				return
			}

			ctx := r.Context()
			token := engine.AccessCredential(r)
			if token == "" {
				WriteError(w, goGate.ErrUnauthenticated)
				return
			}

			principal, err := engine.Authenticate(ctx, token)
			switch {
			case err == nil:
			case errors.Is(err, goGate.ErrAccessExpired):
				res, err := engine.Reissue(ctx, w, r)
				if err != nil {
					WriteError(w, err)
					return
				}
				cookies := engine.CookieConfig()
				r = NewRequestOverride(r).
					OverrideHeader("Authorization", "Bearer "+res.Access).
					OverrideCookie(cookies.AccessName, res.Access).
					OverrideCookie(cookies.RefreshName, res.Refresh).
					Request(ctx)
				principal = res.Principal
			default:
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(goGate.WithPrincipal(r.Context(), principal)))
		})
	}
}
