// AngelaMos | 2026
// token.go

package session

import (
	"time"

	"github.com/lestrrat-go/jwx/v3/jwt"
)

// tokenExpiry reads the exp claim without verifying the signature. Opaque
// (non-JWT) tokens and tokens without exp report ok=false.
func tokenExpiry(token string) (time.Time, bool) {
	parsed, err := jwt.ParseInsecure([]byte(token))
	if err != nil {
		return time.Time{}, false
	}

	exp, ok := parsed.Expiration()
	if !ok || exp.IsZero() {
		return time.Time{}, false
	}
	return exp, true
}

func tokenExpired(token string, now time.Time) bool {
	exp, ok := tokenExpiry(token)
	return ok && !now.Before(exp)
}
