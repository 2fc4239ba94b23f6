package goGate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/MrEthical07/goGate/internal/flows"
)

// Logout deletes the session record for the client's device and expires both
// cookies. The holder is identified from the refresh cookie, expired or not,
// and the record is deleted only while it still holds that credential. A
// superseded refresh credential clears cookies and leaves the live session
// alone. Without a usable refresh cookie an unexpired access cookie identifies the
// holder. Logout without a usable credential only clears cookies and returns
// nil.
//
//	Performance: 1 Lua EVALSHA (compare-and-delete), or 1 DEL via the access cookie.
func (e *Engine) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if e == nil || e.jwtManager == nil {
		return ErrEngineNotReady
	}

	res := flows.RunLogout(ctx, r.UserAgent(), e.flows.Logout, e.RefreshCredential(r), e.AccessCredential(r))
	who := auditSubject{subject: res.Subject, userID: res.UserID, device: res.Device.String()}

	switch res.Failure {
	case flows.LogoutFailureStore:
		e.metricInc(MetricStoreUnavailable)
		e.logger.Error().Err(res.Err).Str("subject", res.Subject).Msg("session store failed during logout")
		err := fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
		e.emitAudit(ctx, auditEventLogout, false, who, err, nil)
		return err
	case flows.LogoutFailureDirectory:
		err := fmt.Errorf("%w: %v", ErrDirectoryUnavailable, res.Err)
		e.emitAudit(ctx, auditEventLogout, false, who, err, nil)
		return err
	}

	e.clearCredentialCookies(w)
	e.metricInc(MetricLogout)
	switch res.Failure {
	case flows.LogoutFailureNone:
		e.emitAudit(ctx, auditEventLogout, true, who, nil, nil)
	case flows.LogoutFailureStale:
		e.logger.Warn().Str("subject", res.Subject).Str("device", res.Device.String()).Msg("logout with superseded refresh credential; session kept")
		e.emitAudit(ctx, auditEventLogout, false, who, ErrSessionTokenMismatch, nil)
	}
	return nil
}
