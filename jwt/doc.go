// Package jwt issues and validates the signed, expiring credentials carried in
// the access and refresh cookies.
//
// Validation is total: every input yields claims or exactly one of
// [ErrExpired], [ErrSignatureInvalid], [ErrMalformed]. Only [ErrExpired]
// distinguishes a credential that was once valid.
package jwt
