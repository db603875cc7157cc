package auth

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/bellwether/internal/common"
)

// JwtOptions is the issuance configuration, loaded once at startup.
type JwtOptions struct {
	Issuer    string
	Subject   string
	Audience  string
	Path      string
	TokenName string
	ValidFor  time.Duration
	// NotBeforeOffset shifts the nbf claim relative to the issue time.
	NotBeforeOffset time.Duration
}

// IssuancePolicy holds validated JwtOptions. It is never modified after
// NewIssuancePolicy returns, so it is safe for concurrent use.
type IssuancePolicy struct {
	issuer          string
	subject         string
	audience        string
	path            string
	tokenName       string
	validFor        time.Duration
	notBeforeOffset time.Duration
}

// NewIssuancePolicy validates opts and freezes them into a policy.
func NewIssuancePolicy(opts JwtOptions) (*IssuancePolicy, error) {
	if opts.Issuer == "" {
		return nil, fmt.Errorf("%w: jwt issuer is required", common.ErrConfiguration)
	}
	if opts.Audience == "" {
		return nil, fmt.Errorf("%w: jwt audience is required", common.ErrConfiguration)
	}
	if opts.TokenName == "" {
		return nil, fmt.Errorf("%w: jwt token name is required", common.ErrConfiguration)
	}
	if opts.ValidFor < 0 {
		return nil, fmt.Errorf("%w: jwt validity must not be negative (got: %s)", common.ErrConfiguration, opts.ValidFor)
	}

	path := opts.Path
	if path == "" {
		path = common.DefaultTokenPath
	}

	return &IssuancePolicy{
		issuer:          opts.Issuer,
		subject:         opts.Subject,
		audience:        opts.Audience,
		path:            path,
		tokenName:       opts.TokenName,
		validFor:        opts.ValidFor,
		notBeforeOffset: opts.NotBeforeOffset,
	}, nil
}

func (p *IssuancePolicy) Issuer() string          { return p.issuer }
func (p *IssuancePolicy) Subject() string         { return p.subject }
func (p *IssuancePolicy) Audience() string        { return p.audience }
func (p *IssuancePolicy) Path() string            { return p.path }
func (p *IssuancePolicy) TokenName() string       { return p.tokenName }
func (p *IssuancePolicy) ValidFor() time.Duration { return p.validFor }

// Expiration returns issuedAt + ValidFor.
func (p *IssuancePolicy) Expiration(issuedAt time.Time) time.Time {
	return issuedAt.Add(p.validFor)
}

// NotBefore returns issuedAt shifted by the configured offset.
func (p *IssuancePolicy) NotBefore(issuedAt time.Time) time.Time {
	return issuedAt.Add(p.notBeforeOffset)
}
