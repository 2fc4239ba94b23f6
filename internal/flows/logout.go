package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/goGate/device"
	"github.com/MrEthical07/goGate/jwt"
	"github.com/MrEthical07/goGate/session"
)

// LogoutFailureKind classifies logout outcomes. Only LogoutFailureDirectory
// and LogoutFailureStore are errors for the caller; the rest mean nothing was
// deleted.
type LogoutFailureKind int

const (
	LogoutFailureNone LogoutFailureKind = iota
	LogoutFailureNoCredential
	LogoutFailureUserNotFound
	LogoutFailureDirectory
	LogoutFailureStore
	// LogoutFailureNoSession means the refresh credential named a device with
	// no live record.
	LogoutFailureNoSession
	// LogoutFailureStale means the refresh credential was superseded by a
	// reissue; the live record belongs to whoever holds the newer one.
	LogoutFailureStale
)

type LogoutResult struct {
	Failure LogoutFailureKind
	Err     error
	Subject string
	UserID  string
	Device  device.Category
}

type LogoutSessionStore interface {
	Delete(ctx context.Context, key session.Key) error
	CompareAndDelete(ctx context.Context, key session.Key, expected string) error
}

// LogoutDeps captures logout flow dependencies.
type LogoutDeps struct {
	Codec         Codec
	Store         LogoutSessionStore
	ResolveUserID Resolver
	UserNotFound  error
}

// RunLogout deletes the session record for the client's device.
//
// A refresh credential, expired or not, identifies the holder and the record
// is deleted only while it still stores that exact credential. Without one, an
// unexpired access credential identifies the holder and the record is deleted
// unconditionally.
func RunLogout(ctx context.Context, userAgent string, deps LogoutDeps, refresh, access string) LogoutResult {
	res := LogoutResult{Device: device.Classify(userAgent)}

	presented := ""
	if claims := logoutClaims(deps.Codec, refresh, jwt.CategoryRefresh, true); claims != nil {
		res.Subject = claims.Subject
		presented = refresh
	} else if claims := logoutClaims(deps.Codec, access, jwt.CategoryAccess, false); claims != nil {
		res.Subject = claims.Subject
	}
	if res.Subject == "" {
		res.Failure = LogoutFailureNoCredential
		return res
	}

	res.UserID = res.Subject
	if deps.ResolveUserID != nil {
		userID, err := deps.ResolveUserID(ctx, res.Subject)
		if err != nil {
			res.Err = err
			res.Failure = LogoutFailureDirectory
			if deps.UserNotFound != nil && errors.Is(err, deps.UserNotFound) {
				res.Failure = LogoutFailureUserNotFound
			}
			return res
		}
		res.UserID = userID
	}

	key := session.Key{UserID: res.UserID, Device: res.Device.String()}
	if presented == "" {
		if err := deps.Store.Delete(ctx, key); err != nil {
			res.Failure = LogoutFailureStore
			res.Err = err
		}
		return res
	}

	switch err := deps.Store.CompareAndDelete(ctx, key, presented); {
	case err == nil:
	case errors.Is(err, session.ErrRecordNotFound):
		res.Failure = LogoutFailureNoSession
	case errors.Is(err, session.ErrValueMismatch):
		res.Failure = LogoutFailureStale
	default:
		res.Failure = LogoutFailureStore
		res.Err = err
	}
	return res
}

// logoutClaims returns the verified claims of tok when it has the wanted
// category. Expired credentials count only when allowExpired is set.
func logoutClaims(codec Codec, tok string, want jwt.Category, allowExpired bool) *jwt.Claims {
	if tok == "" {
		return nil
	}
	claims, err := codec.Validate(tok)
	if claims == nil || claims.Category != want {
		return nil
	}
	if err != nil && !(allowExpired && errors.Is(err, jwt.ErrExpired)) {
		return nil
	}
	return claims
}
