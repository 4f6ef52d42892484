package auth

import (
	"strings"

	"github.com/vyrodovalexey/avagate/internal/util"
)

// Policy lists the path prefixes that require an identified client.
type Policy struct {
	prefixes []string
}

// NewPolicy creates a policy from protected prefixes. Empty prefixes are ignored.
func NewPolicy(prefixes []string) *Policy {
	p := &Policy{prefixes: make([]string, 0, len(prefixes))}
	for _, prefix := range prefixes {
		if prefix != "" {
			p.prefixes = append(p.prefixes, prefix)
		}
	}
	return p
}

// IsProtected reports whether path falls under a protected prefix.
func (p *Policy) IsProtected(path string) bool {
	for _, prefix := range p.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// Authorize returns util.ErrCredentialRequired when an anonymous client
// requests a protected path.
func (p *Policy) Authorize(c Client, path string) error {
	if c.IsIdentified() || !p.IsProtected(path) {
		return nil
	}
	return util.ErrCredentialRequired
}
