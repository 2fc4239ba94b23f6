package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/goGate/jwt"
)

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Validate ValidateDeps
	Reissue  ReissueDeps
	Login    LoginDeps
	Logout   LogoutDeps
}

// Codec is the credential codec used by every flow.
type Codec interface {
	Issue(category jwt.Category, subject, role string, ttl time.Duration) (string, error)
	Validate(token string) (*jwt.Claims, error)
}

// Resolver maps one user handle to another. Implementations return the
// NotFound error configured on the flow's deps when the handle is unknown.
type Resolver func(ctx context.Context, handle string) (string, error)
