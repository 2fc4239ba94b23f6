package goGate

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/MrEthical07/goGate/internal/flows"
)

// Reissue exchanges the refresh cookie of r for a new access and refresh
// pair. The rotated refresh credential is recorded for the client's device
// before either cookie is written to w; on any failure nothing is written to
// the store or to w.
//
//	Performance: up to 3 Redis round-trips (EXISTS, GET, SET or CAS script).
func (e *Engine) Reissue(ctx context.Context, w http.ResponseWriter, r *http.Request) (*ReissueResult, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}
	start := time.Now()
	defer e.metricObserve(MetricReissueLatency, start)

	res := flows.RunReissue(ctx, e.RefreshCredential(r), r.UserAgent(), e.flows.Reissue)
	who := auditSubject{subject: res.Subject, userID: res.UserID, device: res.Device.String()}

	if res.Failure != flows.ReissueFailureNone {
		err := e.reissueFailureError(res)
		e.recordReissueFailure(res.Failure)
		e.emitAudit(ctx, auditEventReissueFailure, false, who, err, nil)
		return nil, err
	}

	pair := TokenPair{
		Access:     res.AccessToken,
		Refresh:    res.RefreshToken,
		AccessTTL:  e.config.JWT.AccessTTL,
		RefreshTTL: e.config.JWT.RefreshTTL,
	}
	claims, err := e.jwtManager.Validate(res.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialIssue, err)
	}
	e.setCredentialCookies(w, pair)

	e.metricInc(MetricReissueSuccess)
	e.emitAudit(ctx, auditEventReissueSuccess, true, who, nil, func() map[string]string {
		return map[string]string{"rotation": e.config.Session.RotationMode.String()}
	})
	e.logger.Debug().
		Str("subject", res.Subject).
		Str("device", res.Device.String()).
		Msg("credentials reissued")

	return &ReissueResult{
		TokenPair: pair,
		Claims:    claims,
		Principal: principalFromClaims(claims),
		UserID:    res.UserID,
		Device:    res.Device,
	}, nil
}

func (e *Engine) recordReissueFailure(kind flows.ReissueFailureKind) {
	e.metricInc(MetricReissueFailure)
	switch kind {
	case flows.ReissueFailureSessionNotFound:
		e.metricInc(MetricReissueSessionNotFound)
	case flows.ReissueFailureTokenMismatch:
		e.metricInc(MetricReissueMismatch)
	case flows.ReissueFailureStore:
		e.metricInc(MetricStoreUnavailable)
	}
}

func (e *Engine) reissueFailureError(res flows.ReissueResult) error {
	switch res.Failure {
	case flows.ReissueFailureMissingCredential:
		return ErrMissingRefreshCredential
	case flows.ReissueFailureInvalidCredential:
		return fmt.Errorf("%w: %v", ErrInvalidRefreshCredential, res.Err)
	case flows.ReissueFailureWrongCategory:
		return ErrWrongCredentialCategory
	case flows.ReissueFailureSessionNotFound:
		return ErrSessionNotFound
	case flows.ReissueFailureTokenMismatch:
		return ErrSessionTokenMismatch
	case flows.ReissueFailureDirectory:
		e.logger.Error().Err(res.Err).Str("subject", res.Subject).Msg("user directory lookup failed")
		return fmt.Errorf("%w: %v", ErrDirectoryUnavailable, res.Err)
	case flows.ReissueFailureStore:
		e.logger.Error().Err(res.Err).Str("subject", res.Subject).Msg("session store failed during reissue")
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
	case flows.ReissueFailureIssue:
		return fmt.Errorf("%w: %v", ErrCredentialIssue, res.Err)
	default:
		return fmt.Errorf("reissue failed: %v", res.Err)
	}
}
