// AngelaMos | 2026
// errors.go

package core

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidInput  = errors.New("invalid input")
	ErrTokenExpired  = errors.New("token expired")
	ErrTokenInvalid  = errors.New("token invalid")
	ErrStorageFormat = errors.New("malformed stored value")
)

// Failures surfaced by the session and user-data layers. Callers match them
// with errors.Is; the wrapped cause carries the backend detail.
var (
	ErrAuth             = errors.New("authentication failed")
	ErrSessionInvalid   = errors.New("session invalid")
	ErrDataLoad         = errors.New("failed to load account data")
	ErrVenueNotAssigned = errors.New("no venue assigned")
	ErrPermissionDenied = errors.New("permission denied")
	ErrStaleData        = errors.New("account data changed during request")
)

// UserMessage maps an error to the text shown to an operator. Unknown errors
// collapse to the generic load failure.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrVenueNotAssigned):
		return "No venue has been assigned to your account yet. Ask an administrator to assign one."
	case errors.Is(err, ErrPermissionDenied):
		return "You do not have permission to perform this action."
	case errors.Is(err, ErrSessionInvalid):
		return "Your session has expired. Please sign in again."
	case errors.Is(err, ErrAuth):
		return "Invalid email or password."
	case errors.Is(err, ErrStaleData):
		return "Account data changed while switching venues. Please try again."
	default:
		return "Failed to load account data. Please try again later."
	}
}
