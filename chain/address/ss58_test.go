package address

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accounts = []struct {
	publicKey string
	address   string
}{
	{
		publicKey: "61b18c6dc02ddcabdeac56cb4f21a971cc41cc97640f6f85b073480008c53a0d",
		address:   "5EGoFA95omzemRssELLDjVenNZ68aXyUeqtKQScXSEBvVJkr",
	},
	{
		publicKey: "9f7b0675db59d19b4bd9c8c72eaabba75a9863d02b30115b8b3c3ca5c20f0254",
		address:   "5Ffp1wJCPu4hzVDTo7XaMLqZSvSadyUQmxWPDw74CBjECSoq",
	},
	{
		publicKey: "3b6a27bcceb6a42d62a3a8d02a6f0d73653215771de243a63ac048a18b59da29",
		address:   "5DQcDYQ3wwobcrJ5aE5CzGp34ZWYNeYfYZ1yLbPiU2RcSvwm",
	},
}

func TestEncodeDecode(t *testing.T) {
	for _, account := range accounts {
		pub, err := hex.DecodeString(account.publicKey)
		require.NoError(t, err)

		addr, err := Encode(pub, 42)
		require.NoError(t, err)
		assert.Equal(t, account.address, addr)

		decoded, prefix, err := Decode(account.address)
		require.NoError(t, err)
		assert.Equal(t, uint16(42), prefix)
		assert.Equal(t, pub, decoded)
		assert.True(t, IsValid(account.address))
	}
}

func TestTwoBytePrefix(t *testing.T) {
	pub, err := hex.DecodeString(accounts[0].publicKey)
	require.NoError(t, err)

	for _, prefix := range []uint16{64, 255, 1337, maxPrefix} {
		addr, err := Encode(pub, prefix)
		require.NoError(t, err)

		decoded, decodedPrefix, err := Decode(addr)
		require.NoError(t, err)
		assert.Equal(t, prefix, decodedPrefix)
		assert.Equal(t, pub, decoded)
	}

	_, err = Encode(pub, maxPrefix+1)
	assert.ErrorIs(t, err, ErrInvalidPrefix)
}

func TestInvalid(t *testing.T) {
	assert.False(t, IsValid("asd"))
	assert.False(t, IsValid(""))
	assert.False(t, IsValid("0x61b18c6dc02ddcabdeac56cb4f21a971cc41cc97640f6f85b073480008c53a0d"))

	// flip the last character to break the checksum
	addr := accounts[0].address
	broken := addr[:len(addr)-1] + "s"
	_, _, err := Decode(broken)
	assert.Error(t, err)

	_, err = Encode([]byte{1, 2, 3}, 42)
	assert.ErrorIs(t, err, ErrInvalidKeyLen)
}

func TestReencode(t *testing.T) {
	polkadot, err := Reencode(accounts[0].address, 0)
	require.NoError(t, err)
	assert.Equal(t, byte('1'), polkadot[0])

	back, err := Reencode(polkadot, 42)
	require.NoError(t, err)
	assert.Equal(t, accounts[0].address, back)
}
