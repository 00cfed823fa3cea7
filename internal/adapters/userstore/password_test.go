package userstore

import (
	"encoding/base64"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/argon2"
)

// encodeHash builds a PHC string the same way the user-management
// system writes them.
func encodeHash(password string, salt []byte) string {
	hash := argon2.IDKey([]byte(password), salt, 3, 64*1024, 2, 32)
	return fmt.Sprintf("$argon2id$v=%d$m=65536,t=3,p=2$%s$%s",
		argon2.Version,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)
}

func TestVerifyPassword(t *testing.T) {
	salt := []byte("0123456789abcdef")
	encoded := encodeHash("correct horse battery", salt)

	ok, err := verifyPassword("correct horse battery", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifyPassword("wrong password", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	cases := map[string]string{
		"empty":             "",
		"not phc":           "plaintext",
		"wrong algorithm":   "$bcrypt$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"wrong version":     "$argon2id$v=16$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"missing params":    "$argon2id$v=19$m=65536$c2FsdA$aGFzaA",
		"zero time cost":    "$argon2id$v=19$m=65536,t=0,p=2$c2FsdA$aGFzaA",
		"bad salt encoding": "$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA",
		"empty hash":        "$argon2id$v=19$m=65536,t=3,p=2$c2FsdA$",
	}

	for name, encoded := range cases {
		t.Run(name, func(t *testing.T) {
			ok, err := verifyPassword("anything", encoded)
			assert.Error(t, err)
			assert.False(t, ok)
		})
	}
}
