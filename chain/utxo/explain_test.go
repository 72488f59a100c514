package utxo

import (
	"testing"

	"github.com/MetalBlockchain/metalgo/utils/set"
	"github.com/stretchr/testify/require"

	"github.com/MetalBlockchain/accountlib/status"
)

func TestExplain(t *testing.T) {
	w := newWallet(t, 10)
	unspents := mockUnspents(P2shP2pk, P2shP2wsh)
	unsigned := prebuild(t, w, unspents)
	half := w.sign(t, unsigned, unspents, UserKey, BitGoKey)
	full := w.sign(t, half, unspents, BitGoKey, UserKey)

	tests := []struct {
		name            string
		txHex           string
		inputSignatures []int
		signatures      int
		status          status.Status
	}{
		{
			name:            "prebuild",
			txHex:           unsigned,
			inputSignatures: []int{0, 0},
			signatures:      0,
			status:          status.Unsigned,
		},
		{
			name:            "half signed",
			txHex:           half,
			inputSignatures: []int{1, 1},
			signatures:      1,
			status:          status.PartiallySigned,
		},
		{
			name:            "fully signed",
			txHex:           full,
			inputSignatures: []int{1, 2},
			signatures:      1,
			status:          status.FullySigned,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			require := require.New(t)

			e, err := Explain(test.txHex, unspents, w.pubs, testParams)
			require.NoError(err)
			require.Len(e.ID, 64)
			require.Len(e.Outputs, 1)
			require.Equal(uint64(2*unspentValue), e.InputAmount)
			require.Equal(uint64(2*unspentValue-10_000), e.OutputAmount)
			require.Equal(uint64(10_000), e.Fee)
			require.Equal(test.inputSignatures, e.InputSignatures)
			require.Equal(test.signatures, e.Signatures)
			require.Equal(test.status, e.Status)
		})
	}
}

func TestUnspentAddress(t *testing.T) {
	w := newWallet(t, 11)
	keys := w.keys(t)

	addrs := map[ScriptType]string{}
	distinct := set.Set[string]{}
	for _, st := range []ScriptType{P2sh, P2shP2wsh, P2wsh, P2shP2pk} {
		u := Unspent{ScriptType: st, Chain: 0, Index: 0}
		addr, err := u.Address(keys, testParams)
		require.NoError(t, err)
		addrs[st] = addr
		distinct.Add(addr)
	}
	require.Equal(t, 4, distinct.Len())
	require.Equal(t, byte('2'), addrs[P2sh][0])
	require.Equal(t, "tb1", addrs[P2wsh][:3])

	// the same path on another wallet is another address
	u := Unspent{ScriptType: P2sh}
	other, err := u.Address(newWallet(t, 12).keys(t), testParams)
	require.NoError(t, err)
	require.NotEqual(t, addrs[P2sh], other)
}

func TestSigningScript(t *testing.T) {
	keys := newWallet(t, 11).keys(t)

	for _, st := range []ScriptType{P2sh, P2shP2wsh, P2wsh, P2shP2pk} {
		t.Run(string(st), func(t *testing.T) {
			u := Unspent{ScriptType: st}
			s, _, err := u.spendScript(keys, testParams)
			require.NoError(t, err)

			// segwit inputs commit to the witness script, the rest to the redeem script
			if st.segwit() {
				require.Equal(t, s.witnessScript, s.signingScript())
			} else {
				require.Nil(t, s.witnessScript)
				require.Equal(t, s.redeemScript, s.signingScript())
			}
			require.NotEmpty(t, s.signingScript())
		})
	}
}
