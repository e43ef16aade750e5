package port

import (
	"context"

	"github.com/rcastell/homestock/internal/core/domain"
)

// ProductRepository persists inventory records scoped by (id, ownerID).
// Lookups return (nil, nil) when no record exists; "not found" is a normal
// branch, not an error.
type ProductRepository interface {
	// Find retrieves the record addressed by (id, ownerID).
	Find(ctx context.Context, id, ownerID string) (*domain.Product, error)

	// Create inserts a new record. When p.ID is empty, or the proposed id is
	// already taken by another owner's record, the store assigns a fresh one.
	// The returned Product carries the id that was actually assigned.
	Create(ctx context.Context, p domain.Product) (domain.Product, error)

	// Replace overwrites every mutable field of an existing record.
	Replace(ctx context.Context, p domain.Product) error

	// Delete removes the record, reporting whether one existed.
	Delete(ctx context.Context, id, ownerID string) (bool, error)

	// ListByOwner returns every record owned by ownerID.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Product, error)
}

// CredentialRepository persists login credentials keyed by email.
type CredentialRepository interface {
	FindCredential(ctx context.Context, email string) (*domain.Credential, error)
	CreateCredential(ctx context.Context, cred domain.Credential) error
	UpdatePassword(ctx context.Context, email, passwordHash string) error
}

// ProfileRepository persists user profiles keyed by email.
type ProfileRepository interface {
	FindProfile(ctx context.Context, email string) (*domain.Profile, error)
	CreateProfile(ctx context.Context, p domain.Profile) error
	ReplaceProfile(ctx context.Context, p domain.Profile) error
}
