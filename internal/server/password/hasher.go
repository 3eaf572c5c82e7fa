// Package password provides one-way salted password hashing and verification.
package password

import (
	"fmt"

	"github.com/dmitrijs2005/userkeeper/internal/common"
	"github.com/dmitrijs2005/userkeeper/internal/server/config"
)

// Hasher hashes plaintext passwords and checks plaintext against stored hashes.
type Hasher interface {
	// Hash returns a self-describing salted hash of password.
	Hash(password string) (string, error)

	// Verify reports whether password matches hash. Malformed hashes never match.
	Verify(password, hash string) bool
}

// New returns the hasher selected by cfg.PasswordHasher.
//
// Verification understands both formats regardless of the selection, so
// switching schemes does not lock out existing accounts.
func New(cfg *config.Config) (Hasher, error) {
	bc := NewBcryptHasher(cfg.BcryptCost)
	ar := NewArgon2Hasher(nil)

	switch cfg.PasswordHasher {
	case config.HasherBcrypt:
		return &multiHasher{primary: bc, fallback: []Hasher{ar}}, nil
	case config.HasherArgon2id:
		return &multiHasher{primary: ar, fallback: []Hasher{bc}}, nil
	default:
		return nil, fmt.Errorf("%w: unknown password hasher %q", common.ErrConfiguration, cfg.PasswordHasher)
	}
}

// multiHasher hashes with primary and verifies against primary then fallback.
type multiHasher struct {
	primary  Hasher
	fallback []Hasher
}

func (m *multiHasher) Hash(password string) (string, error) {
	return m.primary.Hash(password)
}

func (m *multiHasher) Verify(password, hash string) bool {
	if m.primary.Verify(password, hash) {
		return true
	}
	for _, h := range m.fallback {
		if h.Verify(password, hash) {
			return true
		}
	}
	return false
}
