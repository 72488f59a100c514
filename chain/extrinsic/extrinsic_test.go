package extrinsic

import (
	"bytes"
	"testing"

	"github.com/MetalBlockchain/metalgo/ids"
	"github.com/MetalBlockchain/metalgo/utils/formatting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MetalBlockchain/accountlib/chain/era"
	"github.com/MetalBlockchain/accountlib/chain/material"
)

func mustID(t *testing.T, s string) ids.ID {
	b, err := formatting.Decode(formatting.HexNC, s)
	require.NoError(t, err)
	id, err := ids.ToID(b)
	require.NoError(t, err)
	return id
}

func testExtrinsic(t *testing.T) *Extrinsic {
	return &Extrinsic{
		Call: Call{
			Index: material.CallIndex{4, 3},
			Args:  [][]byte{bytes.Repeat([]byte{0xd4}, 32), {0x01, 0x02}},
		},
		Era:         era.Mortal(64, 3933),
		Nonce:       200,
		Tip:         0,
		SpecVersion: 9150,
		TxVersion:   8,
		GenesisHash: mustID(t, "0xe143f23803ac50e8f6f8e62695d1ce9e4e1d68aa36c1cd2cfd15340213f3423e"),
		BlockHash:   mustID(t, "0x149799bc9602cb5cf201f3425fb8d253b2d4e61fc119dcab3249f307f594754d"),
	}
}

func TestSigningPayloadRoundTrip(t *testing.T) {
	require := require.New(t)

	e := testExtrinsic(t)
	raw, err := e.Hex()
	require.NoError(err)
	require.Equal("0x040403", raw[:8])

	decoded, err := ParseHex(raw)
	require.NoError(err)
	require.False(decoded.Signed)
	require.Equal(e, decoded)
}

func TestSignedRoundTrip(t *testing.T) {
	require := require.New(t)

	e := testExtrinsic(t)
	e.Signed = true
	e.Signer = bytes.Repeat([]byte{0x61}, PublicKeyLen)
	e.Signature = bytes.Repeat([]byte{0x99}, SignatureLen)

	b, err := e.Bytes()
	require.NoError(err)
	require.Equal(byte(SignedMarker), b[0])

	decoded, err := Parse(b)
	require.NoError(err)
	require.True(decoded.Signed)
	require.Equal(e.Signer, decoded.Signer)
	require.Equal(e.Signature, decoded.Signature)
	require.Equal(e.Call, decoded.Call)
	require.Equal(e.Era, decoded.Era)
	require.Equal(e.Nonce, decoded.Nonce)
	// the signed form does not carry chain material
	require.Equal(ids.Empty, decoded.GenesisHash)
}

func TestSignedRequiresSignature(t *testing.T) {
	e := testExtrinsic(t)
	e.Signed = true
	_, err := e.Bytes()
	assert.ErrorIs(t, err, ErrMissingSignature)
}

func TestSigningInput(t *testing.T) {
	short := []byte{1, 2, 3}
	assert.Equal(t, short, SigningInput(short))

	long := bytes.Repeat([]byte{1}, maxPlainSigningInput+1)
	input := SigningInput(long)
	assert.Len(t, input, 32)
	hash := Hash(long)
	assert.Equal(t, hash[:], input)
}

func TestCallHex(t *testing.T) {
	call := &Call{Index: material.CallIndex{6, 6}}
	s, err := call.Hex()
	require.NoError(t, err)
	assert.Equal(t, "0x060600", s)

	decoded, err := ParseCallHex(s)
	require.NoError(t, err)
	assert.Equal(t, call.Index, decoded.Index)
	assert.Empty(t, decoded.Args)

	_, err = ParseCallHex(s + "00")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestParseErrors(t *testing.T) {
	e := testExtrinsic(t)
	b, err := e.Bytes()
	require.NoError(t, err)

	_, err = Parse(nil)
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Parse(append([]byte{0x05}, b[1:]...))
	assert.ErrorIs(t, err, ErrUnknownMarker)

	_, err = Parse(b[:len(b)-1])
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = Parse(append(b, 0x00))
	assert.ErrorIs(t, err, ErrMalformed)

	_, err = ParseHex("asd")
	assert.ErrorIs(t, err, ErrMalformed)
}
