package secrets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileProvider loads secrets from individual files in a directory, the
// layout Docker and Kubernetes use for mounted secrets. Files must have
// 0600 or 0400 permissions.
type FileProvider struct {
	BasePath string
}

// NewFileProvider creates a provider for the directory at basePath.
func NewFileProvider(basePath string) (*FileProvider, error) {
	info, err := os.Stat(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat secrets directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("secrets path is not a directory: %s", basePath)
	}
	return &FileProvider{BasePath: basePath}, nil
}

// GetSecret reads <BasePath>/<name> with surrounding whitespace trimmed.
func (p *FileProvider) GetSecret(_ context.Context, name string) (string, error) {
	path, err := p.path(name)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("secret file not found: %s", name)
		}
		return "", fmt.Errorf("failed to stat secret file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("secret path is not a regular file: %s", name)
	}
	if mode := info.Mode().Perm(); mode != 0o600 && mode != 0o400 {
		return "", fmt.Errorf("insecure permissions on %s: %o (expected 0600 or 0400)", path, mode)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Name returns "file".
func (p *FileProvider) Name() string {
	return "file"
}

// Supports reports whether a regular file named name exists.
func (p *FileProvider) Supports(name string) bool {
	path, err := p.path(name)
	if err != nil {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// path joins name to BasePath and rejects names that escape it.
func (p *FileProvider) path(name string) (string, error) {
	absBase, err := filepath.Abs(p.BasePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absPath, err := filepath.Abs(filepath.Join(p.BasePath, name))
	if err != nil {
		return "", fmt.Errorf("failed to resolve secret path: %w", err)
	}
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid secret path: directory traversal detected")
	}
	return absPath, nil
}
