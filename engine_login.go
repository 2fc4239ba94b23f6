package goGate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/MrEthical07/goGate/internal/flows"
)

// CompleteLogin finishes an external login: it resolves the subject and user
// id for id, issues a credential pair, records the refresh credential for the
// client's device (replacing any previous one) and writes both cookies to w.
// A store failure is fatal and leaves w untouched.
//
//	Performance: 1 Redis SET plus directory lookups.
func (e *Engine) CompleteLogin(ctx context.Context, w http.ResponseWriter, r *http.Request, id Identity) (*LoginResult, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	res := flows.RunLogin(ctx, flows.LoginInput{
		SocialID:   id.SocialID,
		Role:       id.Role,
		FirstLogin: id.FirstLogin,
		UserAgent:  r.UserAgent(),
	}, e.flows.Login)
	who := auditSubject{subject: res.Subject, userID: res.UserID, device: res.Device.String()}

	if res.Failure != flows.LoginFailureNone {
		err := e.loginFailureError(res)
		e.metricInc(MetricLoginFailure)
		if res.Failure == flows.LoginFailureStore {
			e.metricInc(MetricStoreUnavailable)
		}
		e.emitAudit(ctx, auditEventLoginFailure, false, who, err, nil)
		return nil, err
	}

	pair := TokenPair{
		Access:     res.AccessToken,
		Refresh:    res.RefreshToken,
		AccessTTL:  e.config.JWT.AccessTTL,
		RefreshTTL: e.config.JWT.RefreshTTL,
	}
	e.setCredentialCookies(w, pair)

	redirect := e.config.Login.SuccessURL
	if res.FirstLogin {
		redirect = e.config.Login.OnboardingURL
	}

	e.metricInc(MetricLoginSuccess)
	e.emitAudit(ctx, auditEventLoginSuccess, true, who, nil, func() map[string]string {
		if res.FirstLogin {
			return map[string]string{"first_login": "true"}
		}
		return nil
	})

	return &LoginResult{
		TokenPair:   pair,
		Subject:     res.Subject,
		UserID:      res.UserID,
		Device:      res.Device,
		FirstLogin:  res.FirstLogin,
		RedirectURL: redirect,
	}, nil
}

func (e *Engine) loginFailureError(res flows.LoginResult) error {
	switch res.Failure {
	case flows.LoginFailureInvalidIdentity:
		return fmt.Errorf("%w: %v", ErrInvalidIdentity, res.Err)
	case flows.LoginFailureUserNotFound:
		return ErrUserNotFound
	case flows.LoginFailureDirectory:
		e.logger.Error().Err(res.Err).Msg("user directory lookup failed during login")
		return fmt.Errorf("%w: %v", ErrDirectoryUnavailable, res.Err)
	case flows.LoginFailureStore:
		e.logger.Error().Err(res.Err).Str("subject", res.Subject).Msg("session store failed during login")
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
	case flows.LoginFailureIssue:
		return fmt.Errorf("%w: %v", ErrCredentialIssue, res.Err)
	default:
		return fmt.Errorf("login failed: %v", res.Err)
	}
}
