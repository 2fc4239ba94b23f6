package flows

import (
	"errors"

	"github.com/MrEthical07/goGate/jwt"
)

// ValidateFailureKind classifies access-credential validation failures for
// root-level mapping.
type ValidateFailureKind int

const (
	ValidateFailureNone ValidateFailureKind = iota
	ValidateFailureMissing
	ValidateFailureExpired
	ValidateFailureInvalid
	ValidateFailureWrongCategory
)

// ValidateResult carries either the access claims or failure metadata.
type ValidateResult struct {
	Failure ValidateFailureKind
	Err     error
	Claims  *jwt.Claims
}

// ValidateDeps captures access validation dependencies.
type ValidateDeps struct {
	Codec Codec
}

// RunValidate checks an access credential. Only a correctly signed, expired
// credential yields ValidateFailureExpired; the gate reissues on nothing else.
func RunValidate(token string, deps ValidateDeps) ValidateResult {
	if token == "" {
		return ValidateResult{Failure: ValidateFailureMissing}
	}

	claims, err := deps.Codec.Validate(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return ValidateResult{Failure: ValidateFailureExpired, Err: err}
		}
		return ValidateResult{Failure: ValidateFailureInvalid, Err: err}
	}
	if claims.Category != jwt.CategoryAccess {
		return ValidateResult{Failure: ValidateFailureWrongCategory, Claims: claims}
	}

	return ValidateResult{Failure: ValidateFailureNone, Claims: claims}
}
