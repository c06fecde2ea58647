package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Password length limits in bytes. bcrypt ignores everything past byte 72,
// so "<72 bytes>A" and "<72 bytes>B" would hash identically; longer inputs
// are refused instead.
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72
)

const defaultCost = 12

// ErrPasswordMismatch is returned by Verify when the hash is sound but the
// plaintext does not match it.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// PasswordService hashes and verifies account passwords with bcrypt.
//
// WHY BCRYPT?
// bcrypt is deliberately slow, which makes every brute-force guess expensive.
// It also generates a random salt per hash and embeds it in the output, so
// two accounts with the same password still get different hashes and no
// separate salt column is needed. Cost 12 takes a few hundred milliseconds:
// unnoticeable at login, painful for an attacker with a stolen table.
//
// Fast hashes (MD5, SHA-256) are NOT an option for passwords; GPUs try
// billions of them per second.
//
// Hash format (what GenerateFromPassword returns):
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (2^12 rounds)
//	 version
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceWithCost lets tests in other packages use the bcrypt
// minimum cost (4). Never use it in production.
func NewPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the self-describing bcrypt hash ($2a$<cost>$<salt><hash>) of plaintext.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordLength {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordLength)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches hash. The comparison is constant
// time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
