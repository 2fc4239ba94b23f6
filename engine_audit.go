package goGate

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventAuthenticateFailure = "authenticate_failure"
	auditEventReissueSuccess      = "reissue_success"
	auditEventReissueFailure      = "reissue_failure"
	auditEventLoginSuccess        = "login_success"
	auditEventLoginFailure        = "login_failure"
	auditEventLogout              = "logout"
)

// AuditErrorCode is the stable error label recorded on failed audit events.
type AuditErrorCode string

const (
	auditErrUnauthenticated      AuditErrorCode = "unauthenticated"
	auditErrMissingRefresh       AuditErrorCode = "missing_refresh"
	auditErrInvalidRefresh       AuditErrorCode = "invalid_refresh"
	auditErrWrongCategory        AuditErrorCode = "wrong_category"
	auditErrSessionNotFound      AuditErrorCode = "session_not_found"
	auditErrSessionTokenMismatch AuditErrorCode = "session_token_mismatch"
	auditErrStoreUnavailable     AuditErrorCode = "store_unavailable"
	auditErrDirectoryUnavailable AuditErrorCode = "directory_unavailable"
	auditErrInvalidIdentity      AuditErrorCode = "invalid_identity"
	auditErrUserNotFound         AuditErrorCode = "user_not_found"
	auditErrInternal             AuditErrorCode = "internal_error"
)

type auditSubject struct {
	subject string
	userID  string
	device  string
}

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	success bool,
	who auditSubject,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Subject:   who.subject,
		UserID:    who.userID,
		Device:    who.device,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrAccessExpired):
		return auditErrUnauthenticated
	case errors.Is(err, ErrMissingRefreshCredential):
		return auditErrMissingRefresh
	case errors.Is(err, ErrInvalidRefreshCredential):
		return auditErrInvalidRefresh
	case errors.Is(err, ErrWrongCredentialCategory):
		return auditErrWrongCategory
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrSessionTokenMismatch):
		return auditErrSessionTokenMismatch
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrStoreUnavailable
	case errors.Is(err, ErrDirectoryUnavailable):
		return auditErrDirectoryUnavailable
	case errors.Is(err, ErrInvalidIdentity):
		return auditErrInvalidIdentity
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	default:
		return auditErrInternal
	}
}
