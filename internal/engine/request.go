package engine

import "github.com/google/uuid"

// TokenGenerator generates unique request tokens for log correlation.
// Implemented by UUIDv7Generator (production) and FixedGenerator (tests).
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered UUIDs for request tokens.
type UUIDv7Generator struct{}

func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FixedGenerator always returns the same token, for deterministic tests.
type FixedGenerator struct {
	Token string
}

func (g FixedGenerator) Generate() string {
	return g.Token
}
