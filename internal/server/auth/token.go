package auth

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/bellwether/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// jtiBytes gives 128 bits of randomness per token id.
const jtiBytes = 16

// Claims carries the registered claims plus the id of the user the token was
// issued for.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid,omitempty"`
}

// IssuedToken is the result of a successful issuance. It is a value and is
// never stored.
type IssuedToken struct {
	ID        string
	Token     string
	Claims    Claims
	IssuedAt  time.Time
	NotBefore time.Time
	ExpiresAt time.Time
}

// NewJti returns a fresh random token identifier.
func NewJti() string {
	s, err := common.MakeRandHexString(jtiBytes)
	if err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("auth: read random jti: %v", err))
	}
	return s
}

// Issue builds and signs a token carrying only the policy claims.
func (p *IssuancePolicy) Issue(key SigningKey, now time.Time) (*IssuedToken, error) {
	return p.IssueFor(key, now, "")
}

// IssueFor builds and signs a token for userID. Times are taken in UTC and
// truncated to whole seconds, the resolution of JWT numeric dates, so the
// returned times match what a validator decodes.
func (p *IssuancePolicy) IssueFor(key SigningKey, now time.Time, userID string) (*IssuedToken, error) {
	if key.IsZero() {
		return nil, fmt.Errorf("%w: signing key is not initialized", common.ErrConfiguration)
	}

	issuedAt := now.UTC().Truncate(time.Second)
	notBefore := p.NotBefore(issuedAt)
	expiresAt := p.Expiration(issuedAt)
	jti := NewJti()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    p.issuer,
			Subject:   p.subject,
			Audience:  jwt.ClaimStrings{p.audience},
			NotBefore: jwt.NewNumericDate(notBefore),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        jti,
		},
		UserID: userID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(key.bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: sign token: %v", common.ErrConfiguration, err)
	}

	return &IssuedToken{
		ID:        jti,
		Token:     signed,
		Claims:    claims,
		IssuedAt:  issuedAt,
		NotBefore: notBefore,
		ExpiresAt: expiresAt,
	}, nil
}
