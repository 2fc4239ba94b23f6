package flows

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/MrEthical07/goGate/device"
	"github.com/MrEthical07/goGate/jwt"
	"github.com/MrEthical07/goGate/session"
)

// LoginFailureKind classifies login completion failures for root-level mapping.
type LoginFailureKind int

const (
	LoginFailureNone LoginFailureKind = iota
	LoginFailureInvalidIdentity
	LoginFailureUserNotFound
	LoginFailureDirectory
	LoginFailureIssue
	LoginFailureStore
)

// LoginInput is the identity handed over by the external provider together
// with the client's User-Agent.
type LoginInput struct {
	SocialID   string
	Role       string
	FirstLogin bool
	UserAgent  string
}

// LoginResult carries either the issued pair or failure metadata.
type LoginResult struct {
	Failure      LoginFailureKind
	Err          error
	Subject      string
	UserID       string
	Device       device.Category
	FirstLogin   bool
	AccessToken  string
	RefreshToken string
}

type LoginSessionStore interface {
	SetWithTTL(ctx context.Context, key session.Key, value string, ttl time.Duration) error
}

// LoginDeps captures login completion dependencies.
type LoginDeps struct {
	Codec      Codec
	Store      LoginSessionStore
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// ResolveSubject maps a provider id to the credential subject. Nil means
	// the provider id is the subject.
	ResolveSubject Resolver
	// ResolveUserID maps a subject to the store's user id. Nil means the
	// subject is the user id.
	ResolveUserID Resolver
	UserNotFound  error
}

// RunLogin issues the first credential pair for a freshly verified identity
// and records the refresh credential for the client's device, replacing any
// previous record for that device.
func RunLogin(ctx context.Context, in LoginInput, deps LoginDeps) LoginResult {
	res := LoginResult{
		Device:     device.Classify(in.UserAgent),
		FirstLogin: in.FirstLogin,
	}
	if strings.TrimSpace(in.SocialID) == "" {
		return res.fail(LoginFailureInvalidIdentity, errors.New("empty provider id"))
	}

	res.Subject = in.SocialID
	if deps.ResolveSubject != nil {
		subject, err := deps.ResolveSubject(ctx, in.SocialID)
		if err != nil {
			return res.failLookup(err, deps.UserNotFound)
		}
		res.Subject = subject
	}

	res.UserID = res.Subject
	if deps.ResolveUserID != nil {
		userID, err := deps.ResolveUserID(ctx, res.Subject)
		if err != nil {
			return res.failLookup(err, deps.UserNotFound)
		}
		res.UserID = userID
	}

	access, err := deps.Codec.Issue(jwt.CategoryAccess, res.Subject, in.Role, deps.AccessTTL)
	if err != nil {
		return res.fail(LoginFailureIssue, err)
	}
	refresh, err := deps.Codec.Issue(jwt.CategoryRefresh, res.Subject, in.Role, deps.RefreshTTL)
	if err != nil {
		return res.fail(LoginFailureIssue, err)
	}

	key := session.Key{UserID: res.UserID, Device: res.Device.String()}
	if err := deps.Store.SetWithTTL(ctx, key, refresh, deps.RefreshTTL); err != nil {
		return res.fail(LoginFailureStore, err)
	}

	res.AccessToken = access
	res.RefreshToken = refresh
	return res
}

func (r LoginResult) fail(kind LoginFailureKind, err error) LoginResult {
	r.Failure = kind
	r.Err = err
	return r
}

func (r LoginResult) failLookup(err, notFound error) LoginResult {
	if notFound != nil && errors.Is(err, notFound) {
		return r.fail(LoginFailureUserNotFound, err)
	}
	return r.fail(LoginFailureDirectory, err)
}
