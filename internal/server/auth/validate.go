package auth

import (
	"fmt"
	"slices"
	"time"

	"github.com/dmitrijs2005/bellwether/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// ValidationOptions selects the optional claim checks. The signature is
// always verified.
type ValidationOptions struct {
	CheckIssuer   bool
	Issuer        string
	CheckAudience bool
	Audience      string
}

// ValidationPolicy accepts or rejects presented tokens. It is immutable and
// safe for any number of concurrent callers.
type ValidationPolicy struct {
	key           SigningKey
	checkIssuer   bool
	issuer        string
	checkAudience bool
	audience      string
	parser        *jwt.Parser
}

// NewValidationPolicy binds opts to key.
func NewValidationPolicy(key SigningKey, opts ValidationOptions) (*ValidationPolicy, error) {
	if key.IsZero() {
		return nil, fmt.Errorf("%w: signing key is not initialized", common.ErrConfiguration)
	}
	if opts.CheckIssuer && opts.Issuer == "" {
		return nil, fmt.Errorf("%w: issuer check enabled without an expected issuer", common.ErrConfiguration)
	}
	if opts.CheckAudience && opts.Audience == "" {
		return nil, fmt.Errorf("%w: audience check enabled without an expected audience", common.ErrConfiguration)
	}

	return &ValidationPolicy{
		key:           key,
		checkIssuer:   opts.CheckIssuer,
		issuer:        opts.Issuer,
		checkAudience: opts.CheckAudience,
		audience:      opts.Audience,
		// claim checks run below in a fixed order, so the parser only verifies
		// structure, algorithm and signature
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// CheckSignature is always true; it exists so callers can report the policy.
func (p *ValidationPolicy) CheckSignature() bool { return true }
func (p *ValidationPolicy) CheckIssuer() bool    { return p.checkIssuer }
func (p *ValidationPolicy) CheckAudience() bool  { return p.checkAudience }

// Validate checks, in order and stopping at the first failure: signature,
// issuer (if enabled), audience (if enabled), then the nbf/exp window at now.
// Every failure matches common.ErrInvalidToken.
func (p *ValidationPolicy) Validate(tokenString string, now time.Time) (*Claims, error) {
	claims := &Claims{}

	token, err := p.parser.ParseWithClaims(tokenString, claims, p.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidSignature, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidSignature
	}

	if p.checkIssuer && claims.Issuer != p.issuer {
		return nil, common.ErrIssuerMismatch
	}

	if p.checkAudience && !slices.Contains(claims.Audience, p.audience) {
		return nil, common.ErrAudienceMismatch
	}

	switch StateAt(claims, now) {
	case Pending:
		return nil, common.ErrTokenNotYetValid
	case Expired:
		return nil, common.ErrTokenExpired
	}

	return claims, nil
}

func (p *ValidationPolicy) keyFunc(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
	}
	return p.key.bytes(), nil
}
