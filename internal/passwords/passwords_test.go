package passwords

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashWithSalt_Deterministic(t *testing.T) {
	salt := []byte("0123456789abcdef")
	a := HashWithSalt("secret1", salt)
	b := HashWithSalt("secret1", salt)
	require.Equal(t, a, b, "same password and salt must produce same hash")
}

func TestHashWithSalt_DiffersByPasswordAndSalt(t *testing.T) {
	salt := []byte("0123456789abcdef")
	require.NotEqual(t, HashWithSalt("secret1", salt), HashWithSalt("secret2", salt))
	require.NotEqual(t, HashWithSalt("secret1", salt), HashWithSalt("secret1", []byte("fedcba9876543210")))
}

func TestHashWithRandomSalt_FreshSaltEachCall(t *testing.T) {
	h1, s1 := HashWithRandomSalt("secret1")
	h2, s2 := HashWithRandomSalt("secret1")

	require.NotEqual(t, s1, s2, "salts must be random")
	require.NotEqual(t, h1, h2, "different salts must yield different hashes")

	salt, err := hex.DecodeString(s1)
	require.NoError(t, err)
	require.Len(t, salt, saltSize)
}

func TestVerify_Match(t *testing.T) {
	hash, salt := HashWithRandomSalt("secret1")

	ok, err := Verify("secret1", hash, salt)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestVerify_Mismatch(t *testing.T) {
	hash, salt := HashWithRandomSalt("secret1")

	ok, err := Verify("wrong", hash, salt)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestVerify_MalformedStoredValues(t *testing.T) {
	hash, salt := HashWithRandomSalt("secret1")

	_, err := Verify("secret1", hash, "zz-not-hex")
	require.Error(t, err)

	_, err = Verify("secret1", "zz-not-hex", salt)
	require.Error(t, err)
}
