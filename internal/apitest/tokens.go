// AngelaMos | 2026
// tokens.go

package apitest

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/venuedesk/internal/core"
)

const issuer = "venuedesk-apitest"

// signer mints and verifies ES256 access tokens with a key generated per
// fake server.
type signer struct {
	privateKey jwk.Key
	publicKey  jwk.Key
}

func newSigner() (*signer, error) {
	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	privateKey, err := jwk.Import(raw)
	if err != nil {
		return nil, fmt.Errorf("import private key: %w", err)
	}
	if setErr := privateKey.Set(jwk.KeyIDKey, uuid.New().String()[:8]); setErr != nil {
		return nil, fmt.Errorf("set key id: %w", setErr)
	}
	if setErr := privateKey.Set(jwk.AlgorithmKey, jwa.ES256()); setErr != nil {
		return nil, fmt.Errorf("set algorithm: %w", setErr)
	}

	publicKey, err := privateKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}

	return &signer{privateKey: privateKey, publicKey: publicKey}, nil
}

type claims struct {
	UserID       string
	Role         string
	TokenVersion int
}

func (s *signer) issue(c claims, now time.Time, ttl time.Duration) (string, error) {
	token, err := jwt.NewBuilder().
		Issuer(issuer).
		Subject(c.UserID).
		JwtID(uuid.NewString()).
		IssuedAt(now).
		Expiration(now.Add(ttl)).
		Claim("type", "access").
		Claim("role", c.Role).
		Claim("token_version", c.TokenVersion).
		Build()
	if err != nil {
		return "", fmt.Errorf("mint token for %s: %w", c.UserID, err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), s.privateKey))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", c.UserID, err)
	}
	return string(signed), nil
}

// verify maps jwx failures onto the core token errors the fake backend
// answers 401 with.
func (s *signer) verify(raw string) (*claims, error) {
	token, err := jwt.Parse([]byte(raw),
		jwt.WithKey(jwa.ES256(), s.publicKey),
		jwt.WithValidate(true),
		jwt.WithIssuer(issuer),
		jwt.WithRequiredClaim("role"),
		jwt.WithRequiredClaim("token_version"),
	)
	switch {
	case errors.Is(err, jwt.TokenExpiredError()):
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
	case err != nil:
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	var (
		c       claims
		kind    string
		version float64
	)
	c.UserID, _ = token.Subject()
	if c.UserID == "" || token.Get("type", &kind) != nil || kind != "access" {
		return nil, fmt.Errorf("verify token: not an access token: %w", core.ErrTokenInvalid)
	}
	if token.Get("role", &c.Role) != nil || token.Get("token_version", &version) != nil {
		return nil, fmt.Errorf("verify token: bad claims: %w", core.ErrTokenInvalid)
	}
	c.TokenVersion = int(version)

	return &c, nil
}
