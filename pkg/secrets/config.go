package secrets

import (
	"context"
	"log/slog"

	"mercator-hq/mdast/pkg/config"
)

// ResolveConfig replaces secret references in cfg's credential fields.
// Providers are only built when some field holds a reference, so a
// configuration without references never touches the secrets directory.
func ResolveConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	fields := cfg.SecretFields()

	needed := false
	for _, field := range fields {
		if HasReference(*field) {
			needed = true
			break
		}
	}
	if !needed {
		return nil
	}

	var providers []Provider
	if cfg.Secrets.Dir != "" {
		fp, err := NewFileProvider(cfg.Secrets.Dir)
		if err != nil {
			return err
		}
		providers = append(providers, fp)
	}
	providers = append(providers, NewEnvProvider(cfg.Secrets.EnvPrefix))

	return NewManager(logger, providers...).ResolveAll(ctx, fields)
}
