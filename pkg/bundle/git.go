package bundle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// Defaults for GitOptions.
const (
	DefaultGitRef     = "main"
	DefaultGitTimeout = 60 * time.Second
)

// GitOptions locate a bundle file inside a git repository.
type GitOptions struct {
	// URL is the repository to clone (https, ssh or a local path).
	URL string

	// Ref is a branch, tag or commit hash.
	// Default: "main"
	Ref string

	// Path is the bundle file relative to the repository root.
	Path string

	// Dir is the local clone directory. An existing clone is fetched
	// instead of cloned again.
	// Default: <user cache dir>/mdast/bundles/<hash of URL>
	Dir string

	// Depth limits clone history. Zero clones everything.
	Depth int

	// Timeout bounds clone and fetch.
	// Default: 60s
	Timeout time.Duration

	// Auth authenticates against the remote.
	Auth GitAuth
}

// Git returns a source that reads the bundle at opts.Path from the commit
// opts.Ref resolves to. Only committed content is read; the working tree of
// the local clone is never consulted.
func Git(opts GitOptions) Source {
	if opts.Ref == "" {
		opts.Ref = DefaultGitRef
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultGitTimeout
	}
	return gitSource{opts: opts}
}

type gitSource struct {
	opts GitOptions
}

func (s gitSource) String() string {
	return fmt.Sprintf("%s@%s:%s", s.opts.URL, s.opts.Ref, s.opts.Path)
}

func (s gitSource) Load() (*Bundle, error) {
	if s.opts.URL == "" || s.opts.Path == "" {
		return nil, s.fail(ReasonMissing, errors.New("repository URL and bundle path are required"))
	}

	auth, err := s.opts.Auth.method()
	if err != nil {
		return nil, s.fail(ReasonPermission, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()

	repo, err := s.sync(ctx, auth)
	if err != nil {
		return nil, s.fail(gitReason(err), err)
	}

	commit, err := s.resolve(repo)
	if err != nil {
		return nil, s.fail(gitReason(err), err)
	}

	file, err := commit.File(filepath.ToSlash(s.opts.Path))
	if err != nil {
		return nil, s.fail(gitReason(err), err)
	}
	contents, err := file.Contents()
	if err != nil {
		return nil, s.fail(ReasonUnreadable, err)
	}

	name := fmt.Sprintf("%s@%s:%s", s.opts.URL, commit.Hash.String()[:12], s.opts.Path)
	return New(name, contents), nil
}

// sync opens the local clone and fetches, or clones when there is none.
func (s gitSource) sync(ctx context.Context, auth transport.AuthMethod) (*gogit.Repository, error) {
	dir, err := s.dir()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
		repo, err := gogit.PlainOpen(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to open clone %s: %w", dir, err)
		}
		err = repo.FetchContext(ctx, &gogit.FetchOptions{
			RemoteName: gogit.DefaultRemoteName,
			Auth:       auth,
			Tags:       gogit.AllTags,
			Force:      true,
		})
		if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
			return nil, fmt.Errorf("failed to fetch: %w", err)
		}
		return repo, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create clone directory: %w", err)
	}
	repo, err := gogit.PlainCloneContext(ctx, dir, false, &gogit.CloneOptions{
		URL:   s.opts.URL,
		Auth:  auth,
		Depth: s.opts.Depth,
		Tags:  gogit.AllTags,
	})
	if err != nil {
		os.RemoveAll(dir)
		return nil, fmt.Errorf("failed to clone: %w", err)
	}
	return repo, nil
}

func (s gitSource) dir() (string, error) {
	if s.opts.Dir != "" {
		return s.opts.Dir, nil
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	sum := sha256.Sum256([]byte(s.opts.URL))
	return filepath.Join(base, "mdast", "bundles", hex.EncodeToString(sum[:8])), nil
}

// resolve prefers the remote-tracking branch, so a fetched clone sees new
// commits, then falls back to tags, local branches and hashes.
func (s gitSource) resolve(repo *gogit.Repository) (*object.Commit, error) {
	candidates := []plumbing.Revision{
		plumbing.Revision(gogit.DefaultRemoteName + "/" + s.opts.Ref),
		plumbing.Revision(s.opts.Ref),
	}

	var lastErr error
	for _, rev := range candidates {
		hash, err := repo.ResolveRevision(rev)
		if err != nil {
			lastErr = err
			continue
		}
		commit, err := repo.CommitObject(*hash)
		if err != nil {
			return nil, fmt.Errorf("failed to read commit %s: %w", hash, err)
		}
		return commit, nil
	}
	return nil, fmt.Errorf("ref %q: %w", s.opts.Ref, lastErr)
}

func (s gitSource) fail(reason string, err error) error {
	return &LoadError{Path: s.String(), Reason: reason, Err: err}
}

func gitReason(err error) string {
	switch {
	case errors.Is(err, object.ErrFileNotFound),
		errors.Is(err, plumbing.ErrReferenceNotFound),
		errors.Is(err, transport.ErrRepositoryNotFound):
		return ReasonMissing
	case errors.Is(err, transport.ErrAuthenticationRequired),
		errors.Is(err, transport.ErrAuthorizationFailed):
		return ReasonPermission
	default:
		return reasonFor(err)
	}
}
