// Package auth holds everything that proves who a caller is: password
// digests, opaque session tokens, the cookie/bearer middleware and the
// client for the external OAuth session-data service.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, salts every digest and embeds the salt and
// cost in its output, so the users table needs a single password_hash column:
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (12 rounds → 2^12 iterations)
//	 version
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is bcrypt's input limit. Longer inputs would be silently
// truncated, so they are rejected instead.
const maxPasswordBytes = 72

// Credentials is the password-digest capability: hash on register, verify
// on login. The cost is injected so tests can run at bcrypt.MinCost.
type Credentials struct {
	cost int
}

// NewCredentials returns a Credentials hashing at the given bcrypt cost.
func NewCredentials(cost int) *Credentials {
	return &Credentials{cost: cost}
}

// NewCredentialsForTest uses bcrypt.MinCost. Do NOT use in production.
func NewCredentialsForTest() *Credentials {
	return &Credentials{cost: bcrypt.MinCost}
}

// Hash returns the bcrypt digest of plaintext.
func (c *Credentials) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), c.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches digest. A malformed digest never
// matches. The comparison is constant-time.
func (c *Credentials) Verify(digest, plaintext string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	if err != nil && !errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		// Corrupt digest or bad cost; treated as a mismatch.
		return false
	}
	return err == nil
}
