package goGate

import (
	"context"
	"time"

	"github.com/MrEthical07/goGate/device"
	"github.com/MrEthical07/goGate/jwt"
)

// Principal is the authenticated identity attached to a request. It is
// request scoped and never persisted.
type Principal struct {
	Subject    string
	Role       string
	FirstLogin bool
}

// Identity is what the external OAuth2 provider hands over after a
// successful handshake.
type Identity struct {
	SocialID   string
	Role       string
	FirstLogin bool
}

// TokenPair is a freshly issued access and refresh credential.
type TokenPair struct {
	Access     string
	Refresh    string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// ReissueResult is returned by a successful [Engine.Reissue].
type ReissueResult struct {
	TokenPair
	// Claims are the validated claims of the new access credential and
	// Principal is built from them.
	Claims    *jwt.Claims
	Principal Principal
	UserID    string
	Device    device.Category
}

// LoginResult is returned by a successful [Engine.CompleteLogin].
type LoginResult struct {
	TokenPair
	Subject    string
	UserID     string
	Device     device.Category
	FirstLogin bool
	// RedirectURL is the configured onboarding URL for first logins and the
	// success URL otherwise.
	RedirectURL string
}

// UserDirectory resolves the handles a session gate needs: the credential
// subject (a nickname) for a provider id, and the store user id for a
// subject. Implementations return [ErrUserNotFound] for unknown handles;
// any other error is treated as a directory outage.
type UserDirectory interface {
	SubjectBySocialID(ctx context.Context, socialID string) (string, error)
	UserIDBySubject(ctx context.Context, subject string) (string, error)
}
