package keys

import (
	"encoding/base64"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	seed1 = "874578010603af8e93b44bfc1d13b32830d0dbca6c89f28ccdc662afd3cdc824"
	pub1  = "61b18c6dc02ddcabdeac56cb4f21a971cc41cc97640f6f85b073480008c53a0d"
	addr1 = "5EGoFA95omzemRssELLDjVenNZ68aXyUeqtKQScXSEBvVJkr"
)

func TestParseHex(t *testing.T) {
	require := require.New(t)

	kp, err := Parse(seed1)
	require.NoError(err)
	require.Equal(pub1, hex.EncodeToString(kp.PublicKey()))

	addr, err := kp.Address(42)
	require.NoError(err)
	require.Equal(addr1, addr)

	prefixed, err := Parse("0x" + seed1)
	require.NoError(err)
	require.Equal(kp.PublicKey(), prefixed.PublicKey())
}

func TestParseBase64(t *testing.T) {
	raw, err := hex.DecodeString(seed1)
	require.NoError(t, err)

	kp, err := Parse(base64.StdEncoding.EncodeToString(raw))
	require.NoError(t, err)
	assert.Equal(t, pub1, hex.EncodeToString(kp.PublicKey()))
}

func TestZeroSeed(t *testing.T) {
	kp, err := FromSeed(make([]byte, 32))
	require.NoError(t, err)

	addr, err := kp.Address(42)
	require.NoError(t, err)
	assert.Equal(t, "5DQcDYQ3wwobcrJ5aE5CzGp34ZWYNeYfYZ1yLbPiU2RcSvwm", addr)
}

func TestInvalidSeed(t *testing.T) {
	for _, key := range []string{
		"",
		"asd",
		seed1[:62],
		seed1 + "00",
		"zz" + seed1[2:],
	} {
		assert.False(t, IsValidSeed(key), key)
		_, err := Parse(key)
		assert.ErrorIs(t, err, ErrInvalidSeed)
	}
}

func TestSignVerify(t *testing.T) {
	kp, err := Parse(seed1)
	require.NoError(t, err)

	msg := []byte("payload")
	sig := kp.Sign(msg)
	assert.Len(t, sig, 64)
	assert.True(t, Verify(kp.PublicKey(), msg, sig))
	assert.False(t, Verify(kp.PublicKey(), []byte("other"), sig))
	assert.False(t, Verify(kp.PublicKey()[:31], msg, sig))
}
