// Package hash isolates password hashing behind a small interface so the
// rest of the server treats hashes as opaque one-way values.
package hash

import "golang.org/x/crypto/bcrypt"

// PasswordHasher hashes plaintext passwords and checks candidates against
// stored hashes.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Check(plain, hashed string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using the default bcrypt cost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

func (h *BcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (h *BcryptHasher) Check(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
