// Package fault defines the error categories shared by the registry and
// storefront modules. Every failure from a mutating operation wraps exactly
// one of these sentinels so handlers can map it to a status code with
// errors.Is instead of string matching.
package fault

import (
	"errors"
	"net/http"
)

var (
	// ErrValidation covers malformed input: out-of-range ids, zero
	// quantities/prices/percentages, unsupported tokens, nil recipients.
	ErrValidation = errors.New("validation error")

	// ErrUnauthorized covers callers that are not the required principal
	// (store owner, order buyer, or platform administrator).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrState covers operations invoked from a lifecycle status that does
	// not permit the requested transition.
	ErrState = errors.New("invalid state")

	// ErrResource covers insufficient inventory, balance, or authorized funds.
	ErrResource = errors.New("insufficient resource")
)

// HTTPStatus maps an error to the response code its category warrants.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrState):
		return http.StatusConflict
	case errors.Is(err, ErrResource):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
