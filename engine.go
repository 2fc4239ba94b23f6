package goGate

import (
	"context"
	"fmt"
	"time"

	internalaudit "github.com/MrEthical07/goGate/internal/audit"
	"github.com/MrEthical07/goGate/internal/flows"
	"github.com/MrEthical07/goGate/jwt"
	"github.com/MrEthical07/goGate/session"
	"github.com/rs/zerolog"
)

// Engine validates access credentials, runs the reissue exchange and records
// login and logout against the session store.
//
// Engine instances are intended to be configured during initialization and then treated as immutable.
type Engine struct {
	config       Config
	jwtManager   *jwt.Manager
	sessionStore *session.Store
	directory    UserDirectory
	audit        *internalaudit.Dispatcher
	metrics      *Metrics
	logger       zerolog.Logger
	flows        flows.Deps
}

// Close stops the audit dispatcher after flushing queued events.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	if e.audit != nil {
		e.audit.Close()
	}
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (e *Engine) AuditDropped() uint64 {
	if e == nil || e.audit == nil {
		return 0
	}
	return e.audit.Dropped()
}

func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Ping checks session store reachability.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e == nil || e.sessionStore == nil {
		return 0, ErrEngineNotReady
	}
	d, err := e.sessionStore.Ping(ctx)
	if err != nil {
		return d, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return d, nil
}

// RotationMode reports how reissue writes rotated credentials.
func (e *Engine) RotationMode() RotationMode {
	return e.config.Session.RotationMode
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) metricObserve(id MetricID, start time.Time) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Observe(id, time.Since(start))
}

// Authenticate validates an access credential and returns the principal it
// names. An expired but otherwise valid credential yields [ErrAccessExpired];
// every other failure yields [ErrUnauthenticated]. No store call is made.
func (e *Engine) Authenticate(ctx context.Context, accessToken string) (Principal, error) {
	if e == nil || e.jwtManager == nil {
		return Principal{}, ErrEngineNotReady
	}
	start := time.Now()
	defer e.metricObserve(MetricAuthenticateLatency, start)

	res := flows.RunValidate(accessToken, e.flows.Validate)
	switch res.Failure {
	case flows.ValidateFailureNone:
		e.metricInc(MetricAuthenticateSuccess)
		return principalFromClaims(res.Claims), nil
	case flows.ValidateFailureExpired:
		e.metricInc(MetricAuthenticateExpired)
		return Principal{}, ErrAccessExpired
	default:
		e.metricInc(MetricAuthenticateFailure)
		err := e.validateFailureError(res)
		e.emitAudit(ctx, auditEventAuthenticateFailure, false, auditSubject{}, err, func() map[string]string {
			return map[string]string{"reason": validateFailureReason(res.Failure)}
		})
		return Principal{}, err
	}
}

func (e *Engine) validateFailureError(res flows.ValidateResult) error {
	switch res.Failure {
	case flows.ValidateFailureMissing:
		return ErrUnauthenticated
	case flows.ValidateFailureWrongCategory:
		return fmt.Errorf("%w: credential category %q", ErrUnauthenticated, res.Claims.Category)
	default:
		return fmt.Errorf("%w: %v", ErrUnauthenticated, res.Err)
	}
}

func validateFailureReason(kind flows.ValidateFailureKind) string {
	switch kind {
	case flows.ValidateFailureMissing:
		return "missing"
	case flows.ValidateFailureWrongCategory:
		return "wrong_category"
	default:
		return "invalid"
	}
}

// principalFromClaims never sets FirstLogin; only the login path knows it.
func principalFromClaims(claims *jwt.Claims) Principal {
	return Principal{
		Subject: claims.Subject,
		Role:    claims.Role,
	}
}

func (e *Engine) buildFlowDeps() flows.Deps {
	var resolveSubject, resolveUserID flows.Resolver
	if e.directory != nil {
		resolveSubject = e.directory.SubjectBySocialID
		resolveUserID = e.directory.UserIDBySubject
	}

	return flows.Deps{
		Validate: flows.ValidateDeps{
			Codec: e.jwtManager,
		},
		Reissue: flows.ReissueDeps{
			Codec:          e.jwtManager,
			Store:          e.sessionStore,
			AccessTTL:      e.config.JWT.AccessTTL,
			RefreshTTL:     e.config.JWT.RefreshTTL,
			CompareAndSwap: e.config.Session.RotationMode == RotationCompareAndSwap,
			ResolveUserID:  resolveUserID,
			UserNotFound:   ErrUserNotFound,
			Warn: func(msg string, args ...any) {
				e.logger.Warn().Msgf(msg, args...)
			},
		},
		Login: flows.LoginDeps{
			Codec:          e.jwtManager,
			Store:          e.sessionStore,
			AccessTTL:      e.config.JWT.AccessTTL,
			RefreshTTL:     e.config.JWT.RefreshTTL,
			ResolveSubject: resolveSubject,
			ResolveUserID:  resolveUserID,
			UserNotFound:   ErrUserNotFound,
		},
		Logout: flows.LogoutDeps{
			Codec:         e.jwtManager,
			Store:         e.sessionStore,
			ResolveUserID: resolveUserID,
			UserNotFound:  ErrUserNotFound,
		},
	}
}
