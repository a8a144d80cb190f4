package cryptobox

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

func newBox(t *testing.T) *Box {
	t.Helper()
	b, err := New(testKey)
	require.NoError(t, err)
	return b
}

func TestNew_KeyValidation(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{"empty", ""},
		{"too short", testKey[:62]},
		{"too long", testKey + "00"},
		{"not hex", strings.Repeat("zz", 32)},
		{"whitespace", " " + testKey[1:]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.key)
			require.ErrorIs(t, err, ErrConfig)
		})
	}

	_, err := New(strings.ToUpper(testKey))
	require.NoError(t, err, "upper case hex is accepted")
}

func TestRoundTrip(t *testing.T) {
	b := newBox(t)
	inputs := []string{"", "sk-test-123", "hf_" + strings.Repeat("x", 200), "ünïcødé 🔑"}
	for _, in := range inputs {
		sealed, err := b.Seal(in)
		require.NoError(t, err)
		out, err := b.Open(sealed)
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestEncrypt_FreshNonceEachCall(t *testing.T) {
	b := newBox(t)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		env, err := b.Encrypt([]byte("same"))
		require.NoError(t, err)
		require.Len(t, env.IV, 12)
		assert.False(t, seen[string(env.IV)], "nonce reused")
		seen[string(env.IV)] = true
	}
}

func TestDecrypt_DetectsEveryBitFlip(t *testing.T) {
	b := newBox(t)
	env, err := b.Encrypt([]byte("provider-secret"))
	require.NoError(t, err)

	flip := func(src []byte, bit int) []byte {
		out := bytes.Clone(src)
		out[bit/8] ^= 1 << (bit % 8)
		return out
	}

	for bit := 0; bit < len(env.Ciphertext)*8; bit++ {
		_, err := b.Decrypt(Envelope{IV: env.IV, Ciphertext: flip(env.Ciphertext, bit)})
		require.ErrorIs(t, err, ErrDecrypt, "ciphertext bit %d", bit)
	}
	for bit := 0; bit < len(env.IV)*8; bit++ {
		_, err := b.Decrypt(Envelope{IV: flip(env.IV, bit), Ciphertext: env.Ciphertext})
		require.ErrorIs(t, err, ErrDecrypt, "iv bit %d", bit)
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	sealed, err := newBox(t).Seal("secret")
	require.NoError(t, err)

	other, err := New(strings.Repeat("ab", 32))
	require.NoError(t, err)
	_, err = other.Open(sealed)
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestOpen_Malformed(t *testing.T) {
	b := newBox(t)
	for _, s := range []string{"", "not json", `{"iv":"***","ct":"AA=="}`, `{"iv":"AAAA","ct":"AAAA"}`} {
		_, err := b.Open(s)
		require.ErrorIs(t, err, ErrDecrypt, s)
	}
}

func TestEnvelope_Encoding(t *testing.T) {
	env := Envelope{IV: []byte{1, 2, 3}, Ciphertext: []byte{4, 5}}
	assert.JSONEq(t, `{"iv":"AQID","ct":"BAU="}`, env.String())

	parsed, err := ParseEnvelope(env.String())
	require.NoError(t, err)
	assert.Equal(t, env, parsed)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("no entropy") }

func TestEncrypt_RandomFailure(t *testing.T) {
	b := newBox(t)
	b.rand = failingReader{}
	_, err := b.Encrypt([]byte("x"))
	require.Error(t, err)
}

func TestDeriveKey(t *testing.T) {
	b := newBox(t)
	k1, err := b.DeriveKey("session", 32)
	require.NoError(t, err)
	k2, err := b.DeriveKey("session", 32)
	require.NoError(t, err)
	k3, err := b.DeriveKey("other", 32)
	require.NoError(t, err)

	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
	assert.NotEqual(t, b.key, k1)
}

func TestGenerateMasterKey(t *testing.T) {
	key, err := GenerateMasterKey()
	require.NoError(t, err)
	_, err = New(key)
	require.NoError(t, err)
}
