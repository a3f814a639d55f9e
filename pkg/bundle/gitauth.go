package bundle

import (
	"fmt"
	"os"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/go-git/go-git/v5/plumbing/transport/ssh"
)

// Git authentication types.
const (
	GitAuthNone  = "none"
	GitAuthToken = "token"
	GitAuthSSH   = "ssh"
)

// GitAuth selects how a git source authenticates.
type GitAuth struct {
	// Type is "none", "token" or "ssh". Empty means "none".
	Type string

	// Token is an HTTPS access token, sent as the basic auth password.
	Token string

	// SSHKeyPath is a private key file. It must not be readable by group
	// or others.
	SSHKeyPath string

	// SSHKeyPassphrase decrypts SSHKeyPath when set.
	SSHKeyPassphrase string
}

func (a GitAuth) method() (transport.AuthMethod, error) {
	switch a.Type {
	case GitAuthNone, "":
		return nil, nil

	case GitAuthToken:
		if a.Token == "" {
			return nil, fmt.Errorf("token auth requires non-empty token")
		}
		return &http.BasicAuth{Username: "git", Password: a.Token}, nil

	case GitAuthSSH:
		if a.SSHKeyPath == "" {
			return nil, fmt.Errorf("ssh auth requires ssh_key_path")
		}
		info, err := os.Stat(a.SSHKeyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to access SSH key file: %w", err)
		}
		if mode := info.Mode().Perm(); mode&0o077 != 0 {
			return nil, fmt.Errorf("SSH key file permissions too open (%o), should be 0600", mode)
		}
		keys, err := ssh.NewPublicKeysFromFile("git", a.SSHKeyPath, a.SSHKeyPassphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to load SSH key: %w", err)
		}
		return keys, nil

	default:
		return nil, fmt.Errorf("unknown auth type: %s", a.Type)
	}
}
