package security

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncryptDecryptRoundTrip(t *testing.T) {
	key := DeriveKey("test-master-secret")

	enc, err := EncryptSecret([]byte("sk_live_abc123"), key)
	require.NoError(t, err)
	require.NotEqual(t, "sk_live_abc123", enc)

	plain, err := DecryptSecret(enc, key)
	require.NoError(t, err)
	require.Equal(t, "sk_live_abc123", plain)
}

func TestDecryptRejectsWrongKey(t *testing.T) {
	enc, err := EncryptSecret([]byte("sk_live_abc123"), DeriveKey("key-a"))
	require.NoError(t, err)

	_, err = DecryptSecret(enc, DeriveKey("key-b"))
	require.Error(t, err)
}

func TestDecryptRejectsGarbage(t *testing.T) {
	_, err := DecryptSecret("not-hex", DeriveKey("key"))
	require.Error(t, err)

	_, err = DecryptSecret("abcd", DeriveKey("key"))
	require.Error(t, err)
}
