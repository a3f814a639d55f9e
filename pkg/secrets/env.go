package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// DefaultEnvPrefix namespaces secret environment variables.
const DefaultEnvPrefix = "MDAST_SECRET_"

// EnvProvider loads secrets from environment variables. The secret
// "redis-password" is read from MDAST_SECRET_REDIS_PASSWORD.
type EnvProvider struct {
	Prefix string
}

// NewEnvProvider creates an environment provider. An empty prefix uses
// DefaultEnvPrefix.
func NewEnvProvider(prefix string) *EnvProvider {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	return &EnvProvider{Prefix: prefix}
}

// GetSecret reads the variable for name. Empty variables count as missing.
func (p *EnvProvider) GetSecret(_ context.Context, name string) (string, error) {
	envVar := p.envVar(name)
	value := os.Getenv(envVar)
	if value == "" {
		return "", fmt.Errorf("secret not found in environment: %s (env var: %s)", name, envVar)
	}
	return value, nil
}

// Name returns "env".
func (p *EnvProvider) Name() string {
	return "env"
}

// Supports always returns true, so the environment acts as the fallback.
func (p *EnvProvider) Supports(string) bool {
	return true
}

// envVar converts "redis-password" to "<prefix>REDIS_PASSWORD".
func (p *EnvProvider) envVar(name string) string {
	return p.Prefix + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}
