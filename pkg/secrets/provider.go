package secrets

import "context"

// Provider retrieves secrets from one backend.
type Provider interface {
	// GetSecret retrieves a secret by name.
	GetSecret(ctx context.Context, name string) (string, error)

	// Name returns the provider name ("env" or "file").
	Name() string

	// Supports reports whether the provider can serve name.
	Supports(name string) bool
}
