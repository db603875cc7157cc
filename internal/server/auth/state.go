package auth

import "time"

// TokenState is the validity of a token at the moment it is presented.
// It is computed, never stored.
type TokenState int

const (
	Pending TokenState = iota
	Active
	Expired
)

func (s TokenState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Active:
		return "active"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// StateAt evaluates claims at now. A token without an expiration is
// reported as Expired; a missing nbf imposes no lower bound.
func StateAt(claims *Claims, now time.Time) TokenState {
	if claims.NotBefore != nil && now.Before(claims.NotBefore.Time) {
		return Pending
	}
	if claims.ExpiresAt == nil || !now.Before(claims.ExpiresAt.Time) {
		return Expired
	}
	return Active
}
