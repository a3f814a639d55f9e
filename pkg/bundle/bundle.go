package bundle

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
)

// DefaultEntry is the global function every bundle must define.
const DefaultEntry = "parseMd"

// EmbeddedName is the name reported for the bundle compiled into the binary.
const EmbeddedName = "embedded:parsemd.js"

//go:embed assets/parsemd.js
var embedded string

// bannerPattern matches the license-style banner a bundle build writes on its
// first line, e.g. "/*! mdast-bundle v1.2.0 | ... */".
var bannerPattern = regexp.MustCompile(`^/\*!\s*([\w.-]+)\s+v?(\d+\.\d+\.\d+[\w.+-]*)`)

// Bundle is a loaded script artifact.
type Bundle struct {
	// Name identifies the bundle in diagnostics (a path or EmbeddedName).
	Name string

	// Source is the full script text.
	Source string

	// Digest is the hex sha256 of Source. Parse results are a pure function
	// of (Digest, input), which makes it usable as a cache namespace.
	Digest string

	// Version is taken from the bundle banner, or "unknown".
	Version string
}

// New wraps script text as a bundle.
func New(name, source string) *Bundle {
	sum := sha256.Sum256([]byte(source))
	return &Bundle{
		Name:    name,
		Source:  source,
		Digest:  hex.EncodeToString(sum[:]),
		Version: versionOf(source),
	}
}

// ShortDigest returns the first 12 hex characters of the digest.
func (b *Bundle) ShortDigest() string {
	if len(b.Digest) < 12 {
		return b.Digest
	}
	return b.Digest[:12]
}

// String returns "name (version, digest)".
func (b *Bundle) String() string {
	return fmt.Sprintf("%s (%s, %s)", b.Name, b.Version, b.ShortDigest())
}

func versionOf(source string) string {
	m := bannerPattern.FindStringSubmatch(source)
	if m == nil {
		return "unknown"
	}
	return m[2]
}

// Source locates and reads a bundle.
type Source interface {
	Load() (*Bundle, error)
	String() string
}

// Embedded returns the source for the bundle compiled into the binary.
func Embedded() Source {
	return embeddedSource{}
}

type embeddedSource struct{}

func (embeddedSource) Load() (*Bundle, error) {
	return New(EmbeddedName, embedded), nil
}

func (embeddedSource) String() string { return EmbeddedName }

// File returns a source that reads the bundle at path.
func File(path string) Source {
	return fileSource{path: path}
}

type fileSource struct {
	path string
}

func (s fileSource) Load() (*Bundle, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, &LoadError{Path: s.path, Reason: reasonFor(err), Err: err}
	}
	return New(s.path, string(data)), nil
}

func (s fileSource) String() string { return s.path }

// Reasons a bundle could not be read.
const (
	ReasonMissing    = "missing"
	ReasonPermission = "permission"
	ReasonUnreadable = "unreadable"
)

// LoadError reports a bundle artifact that is absent or unreadable.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	switch e.Reason {
	case ReasonMissing:
		return fmt.Sprintf("bundle %s not found", e.Path)
	case ReasonPermission:
		return fmt.Sprintf("permission denied reading bundle %s", e.Path)
	default:
		return fmt.Sprintf("cannot read bundle %s: %v", e.Path, e.Err)
	}
}

// Unwrap returns the underlying file system error.
func (e *LoadError) Unwrap() error {
	return e.Err
}

func reasonFor(err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ReasonMissing
	case errors.Is(err, fs.ErrPermission):
		return ReasonPermission
	default:
		return ReasonUnreadable
	}
}
