package flows

import (
	"context"
	"errors"
	"time"

	"github.com/MrEthical07/goGate/device"
	"github.com/MrEthical07/goGate/jwt"
	"github.com/MrEthical07/goGate/session"
)

// ReissueFailureKind classifies reissue failures for root-level mapping.
type ReissueFailureKind int

const (
	ReissueFailureNone ReissueFailureKind = iota
	ReissueFailureMissingCredential
	ReissueFailureInvalidCredential
	ReissueFailureWrongCategory
	ReissueFailureSessionNotFound
	ReissueFailureTokenMismatch
	ReissueFailureDirectory
	ReissueFailureStore
	ReissueFailureIssue
)

// ReissueResult carries either the rotated credentials or failure metadata.
type ReissueResult struct {
	Failure      ReissueFailureKind
	Err          error
	Subject      string
	UserID       string
	Device       device.Category
	Role         string
	AccessToken  string
	RefreshToken string
}

type ReissueSessionStore interface {
	Exists(ctx context.Context, key session.Key) (bool, error)
	Get(ctx context.Context, key session.Key) (string, error)
	SetWithTTL(ctx context.Context, key session.Key, value string, ttl time.Duration) error
	CompareAndSwap(ctx context.Context, key session.Key, expected, next string, ttl time.Duration) error
}

// ReissueDeps captures reissue flow dependencies.
type ReissueDeps struct {
	Codec      Codec
	Store      ReissueSessionStore
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// CompareAndSwap writes the rotated record only if it still holds the
	// presented credential. When false the write overwrites unconditionally.
	CompareAndSwap bool
	// ResolveUserID maps a credential subject to the store's user id. Nil
	// means the subject is the user id.
	ResolveUserID Resolver
	UserNotFound  error
	Warn          func(string, ...any)
}

// RunReissue exchanges a refresh credential for a fresh access and refresh
// pair bound to the same (user, device) record. Nothing is written unless
// every check passes.
func RunReissue(ctx context.Context, refreshToken, userAgent string, deps ReissueDeps) ReissueResult {
	if refreshToken == "" {
		return ReissueResult{Failure: ReissueFailureMissingCredential}
	}

	claims, err := deps.Codec.Validate(refreshToken)
	if err != nil {
		return ReissueResult{Failure: ReissueFailureInvalidCredential, Err: err}
	}
	if claims.Category != jwt.CategoryRefresh {
		return ReissueResult{Failure: ReissueFailureWrongCategory, Subject: claims.Subject}
	}

	res := ReissueResult{
		Subject: claims.Subject,
		Role:    claims.Role,
		Device:  device.Classify(userAgent),
	}

	res.UserID = claims.Subject
	if deps.ResolveUserID != nil {
		userID, err := deps.ResolveUserID(ctx, claims.Subject)
		if err != nil {
			if deps.UserNotFound != nil && errors.Is(err, deps.UserNotFound) {
				return res.fail(ReissueFailureSessionNotFound, err)
			}
			return res.fail(ReissueFailureDirectory, err)
		}
		res.UserID = userID
	}

	key := session.Key{UserID: res.UserID, Device: res.Device.String()}

	exists, err := deps.Store.Exists(ctx, key)
	if err != nil {
		return res.fail(ReissueFailureStore, err)
	}
	if !exists {
		return res.fail(ReissueFailureSessionNotFound, session.ErrRecordNotFound)
	}

	stored, err := deps.Store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, session.ErrRecordNotFound) {
			return res.fail(ReissueFailureSessionNotFound, err)
		}
		return res.fail(ReissueFailureStore, err)
	}
	if stored != refreshToken {
		return res.fail(ReissueFailureTokenMismatch, nil)
	}

	access, err := deps.Codec.Issue(jwt.CategoryAccess, res.Subject, res.Role, deps.AccessTTL)
	if err != nil {
		return res.fail(ReissueFailureIssue, err)
	}
	refresh, err := deps.Codec.Issue(jwt.CategoryRefresh, res.Subject, res.Role, deps.RefreshTTL)
	if err != nil {
		return res.fail(ReissueFailureIssue, err)
	}

	if deps.CompareAndSwap {
		err = deps.Store.CompareAndSwap(ctx, key, refreshToken, refresh, deps.RefreshTTL)
	} else {
		err = deps.Store.SetWithTTL(ctx, key, refresh, deps.RefreshTTL)
	}
	if err != nil {
		switch {
		case errors.Is(err, session.ErrValueMismatch):
			if deps.Warn != nil {
				deps.Warn("goGate: concurrent reissue lost compare-and-swap")
			}
			return res.fail(ReissueFailureTokenMismatch, err)
		case errors.Is(err, session.ErrRecordNotFound):
			return res.fail(ReissueFailureSessionNotFound, err)
		default:
			return res.fail(ReissueFailureStore, err)
		}
	}

	res.AccessToken = access
	res.RefreshToken = refresh
	return res
}

func (r ReissueResult) fail(kind ReissueFailureKind, err error) ReissueResult {
	r.Failure = kind
	r.Err = err
	return r
}
