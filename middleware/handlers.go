package middleware

import (
	"errors"
	"net/http"

	goGate "github.com/MrEthical07/goGate"
)

// IdentityFunc extracts the identity established by the external OAuth2
// handshake from the callback request.
type IdentityFunc func(r *http.Request) (goGate.Identity, error)

// LoginSuccess completes an external login and redirects (302) to the
// onboarding URL for first logins and to the success URL otherwise. Unknown
// identities get 401 and a session store outage gets 503. Every other
// failure is a 500. No failure sets cookies.
func LoginSuccess(engine *goGate.Engine, identify IdentityFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if engine == nil || identify == nil {
			WriteError(w, goGate.ErrEngineNotReady)
			return
		}
		id, err := identify(r)
		if err != nil {
			WriteError(w, goGate.ErrUnauthenticated)
			return
		}

		res, err := engine.CompleteLogin(r.Context(), w, r, id)
		if err != nil {
			if errors.Is(err, goGate.ErrUserNotFound) || errors.Is(err, goGate.ErrInvalidIdentity) {
				WriteError(w, goGate.ErrUnauthenticated)
				return
			}
			WriteError(w, err)
			return
		}

		http.Redirect(w, r, res.RedirectURL, http.StatusFound)
	})
}

type reissueBody struct {
	Message string `json:"message"`
	Access  string `json:"access"`
}

// ReissueHandler runs the reissue exchange on demand, outside the gate.
func ReissueHandler(engine *goGate.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			WriteError(w, goGate.ErrEngineNotReady)
			return
		}
		res, err := engine.Reissue(r.Context(), w, r)
		if err != nil {
			WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, reissueBody{Message: "reissued", Access: res.Access})
	})
}

// Logout deletes the caller's device session and expires both cookies.
func Logout(engine *goGate.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if engine == nil {
			WriteError(w, goGate.ErrEngineNotReady)
			return
		}
		if err := engine.Logout(r.Context(), w, r); err != nil {
			WriteError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, messageBody{Message: "logged out"})
	})
}

// PrincipalFromRequest returns the principal the gate attached to r.
func PrincipalFromRequest(r *http.Request) (goGate.Principal, bool) {
	return goGate.PrincipalFromContext(r.Context())
}
