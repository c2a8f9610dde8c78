// Package passwords implements salted one-way password hashing for stored
// credentials. The KDF is Argon2id; hashes and salts cross the storage
// boundary hex-encoded.
package passwords

import (
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/shopapi/accountsvc/internal/common"
)

// Argon2id parameters. Changing these invalidates every stored hash.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	argonKeyLen  = 32

	saltSize = 16
)

// HashWithSalt derives a hash from password and the given salt. The function
// is deterministic: the same inputs always produce the same output.
func HashWithSalt(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// HashWithRandomSalt hashes password with a fresh random salt and returns
// both, hex-encoded for storage.
func HashWithRandomSalt(password string) (hash string, salt string) {
	s := common.GenerateRandByteArray(saltSize)
	h := HashWithSalt(password, s)
	return hex.EncodeToString(h), hex.EncodeToString(s)
}

// Verify recomputes the hash of candidate with the stored salt and compares
// it to the stored hash in constant time. A malformed stored value is a data
// error, not a failed match.
func Verify(candidate, storedHash, storedSalt string) (bool, error) {
	salt, err := hex.DecodeString(storedSalt)
	if err != nil {
		return false, fmt.Errorf("malformed password salt: %w", err)
	}
	expected, err := hex.DecodeString(storedHash)
	if err != nil {
		return false, fmt.Errorf("malformed password hash: %w", err)
	}
	got := HashWithSalt(candidate, salt)
	return subtle.ConstantTimeCompare(got, expected) == 1, nil
}
