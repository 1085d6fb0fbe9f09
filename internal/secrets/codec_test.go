package secrets

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodec_EmptyKey(t *testing.T) {
	_, err := NewCodec("")
	assert.Error(t, err)
}

func TestCodec_RoundTrip(t *testing.T) {
	codec, err := NewCodec("test-passphrase")
	require.NoError(t, err)

	tests := []struct {
		name string
		data map[string]string
	}{
		{name: "typical bundle", data: map[string]string{
			"username":      "svc-account",
			"password":      "p4ss w0rd!",
			"api_key":       "abc123",
			"client_id":     "cid",
			"client_secret": "cs",
			"extra":         "anything",
		}},
		{name: "empty mapping", data: map[string]string{}},
		{name: "unicode values", data: map[string]string{"note": "héllo wörld \x00"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := codec.Encrypt(tt.data)
			require.NoError(t, err)
			assert.NotEmpty(t, token)

			got := codec.Decrypt(token)
			assert.Equal(t, tt.data, got)
		})
	}
}

func TestCodec_EncryptNilMapping(t *testing.T) {
	codec, err := NewCodec("test-passphrase")
	require.NoError(t, err)

	token, err := codec.Encrypt(nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{}, codec.Decrypt(token))
}

func TestCodec_DecryptFailsOpen(t *testing.T) {
	codec, err := NewCodec("test-passphrase")
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty string", token: ""},
		{name: "not base64", token: "%%% not base64 %%%"},
		{name: "too short", token: base64.StdEncoding.EncodeToString([]byte("short"))},
		{name: "garbage of valid length", token: base64.StdEncoding.EncodeToString(make([]byte, 64))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := codec.Decrypt(tt.token)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestCodec_DecryptWithWrongKey(t *testing.T) {
	codec1, err := NewCodec("key-one")
	require.NoError(t, err)
	codec2, err := NewCodec("key-two")
	require.NoError(t, err)

	token, err := codec1.Encrypt(map[string]string{"password": "hunter2"})
	require.NoError(t, err)

	assert.Empty(t, codec2.Decrypt(token), "foreign ciphertext must yield empty credentials")
}

func TestCodec_DecryptTamperedCiphertext(t *testing.T) {
	codec, err := NewCodec("test-passphrase")
	require.NoError(t, err)

	token, err := codec.Encrypt(map[string]string{"api_key": "secret"})
	require.NoError(t, err)

	blob, err := base64.StdEncoding.DecodeString(token)
	require.NoError(t, err)
	blob[len(blob)-1] ^= 0xff

	tampered := base64.StdEncoding.EncodeToString(blob)
	assert.Empty(t, codec.Decrypt(tampered), "tampered ciphertext must fail authentication")
}

func TestMask(t *testing.T) {
	assert.Equal(t, MaskToken, Mask("hunter2"))
	assert.Equal(t, "", Mask(""))
}
