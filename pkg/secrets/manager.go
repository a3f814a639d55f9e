package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
)

// refPattern matches ${secret:name} references.
var refPattern = regexp.MustCompile(`\$\{secret:([^}]+)\}`)

// Manager resolves secrets through providers in priority order.
type Manager struct {
	providers []Provider
	logger    *slog.Logger
	resolved  map[string]string
}

// NewManager creates a manager that tries providers in order.
func NewManager(logger *slog.Logger, providers ...Provider) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		providers: providers,
		logger:    logger,
		resolved:  make(map[string]string),
	}
}

// GetSecret returns the value from the first provider that supports name
// and serves it. Values are remembered for the life of the manager.
func (m *Manager) GetSecret(ctx context.Context, name string) (string, error) {
	if value, ok := m.resolved[name]; ok {
		return value, nil
	}

	var lastErr error
	for _, provider := range m.providers {
		if !provider.Supports(name) {
			continue
		}
		value, err := provider.GetSecret(ctx, name)
		if err != nil {
			lastErr = err
			m.logger.Debug("provider failed to get secret",
				"provider", provider.Name(),
				"name", redactName(name),
				"error", err,
			)
			continue
		}

		m.resolved[name] = value
		m.logger.Debug("secret resolved", "provider", provider.Name(), "name", redactName(name))
		return value, nil
	}

	if lastErr != nil {
		return "", fmt.Errorf("failed to get secret %q: %w", name, lastErr)
	}
	return "", fmt.Errorf("secret not found: %q (no provider supports this secret)", name)
}

// ResolveReferences replaces every ${secret:name} in input. Unresolved
// references are kept and reported together in the error.
func (m *Manager) ResolveReferences(ctx context.Context, input string) (string, error) {
	var errs []string

	output := refPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := strings.TrimSpace(refPattern.FindStringSubmatch(match)[1])
		value, err := m.GetSecret(ctx, name)
		if err != nil {
			errs = append(errs, err.Error())
			return match
		}
		return value
	})

	if len(errs) > 0 {
		return output, fmt.Errorf("failed to resolve secret references: %s", strings.Join(errs, "; "))
	}
	return output, nil
}

// ResolveAll resolves references in each field in place. Field values are
// left unchanged on error.
func (m *Manager) ResolveAll(ctx context.Context, fields map[string]*string) error {
	var errs []string
	for name, field := range fields {
		if !HasReference(*field) {
			continue
		}
		value, err := m.ResolveReferences(ctx, *field)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		*field = value
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// HasReference reports whether s contains a ${secret:name} reference.
func HasReference(s string) bool {
	return refPattern.MatchString(s)
}

// redactName keeps a hint of a secret name for logs.
func redactName(name string) string {
	if len(name) <= 4 {
		return "***"
	}
	return name[:2] + "***" + name[len(name)-2:]
}
