package state

import (
	"testing"
	"time"

	"github.com/MetalBlockchain/metalgo/database"
	"github.com/MetalBlockchain/metalgo/database/memdb"
	"github.com/MetalBlockchain/metalgo/utils/wrappers"
	"github.com/stretchr/testify/require"

	"github.com/MetalBlockchain/accountlib/chain/utxo"
	"github.com/MetalBlockchain/accountlib/status"
)

var testUnspents = []utxo.Unspent{
	{
		ID:         "8b3b6a1b4f0e6e5c0b1c2a3d4e5f60718293a4b5c6d7e8f90123456789abcdef:0",
		ScriptType: utxo.P2sh,
		Value:      100_000,
		Chain:      0,
		Index:      3,
	},
	{
		ID:         "8b3b6a1b4f0e6e5c0b1c2a3d4e5f60718293a4b5c6d7e8f90123456789abcdef:1",
		ScriptType: utxo.P2shP2pk,
		Value:      1_000,
		Chain:      0,
		Index:      4,
	},
}

func newTestStagedTx(t *testing.T, txHex string, s status.Status) *StagedTx {
	tx, err := NewStagedTx(
		"tbtc",
		txHex,
		testUnspents,
		[3]string{"user", "backup", "bitgo"},
		s,
		time.Unix(1_700_000_000, 500),
	)
	require.NoError(t, err)
	return tx
}

func TestStagedTxSerialization(t *testing.T) {
	require := require.New(t)

	tx := newTestStagedTx(t, "0100", status.PartiallySigned)
	parsed, err := ParseStagedTx(tx.Bytes())
	require.NoError(err)
	require.Equal(tx, parsed)
	require.Equal(tx.Size(), len(parsed.Bytes()))

	_, err = ParseStagedTx(append(tx.Bytes(), 0))
	require.ErrorIs(err, errTrailingBytes)

	_, err = ParseStagedTx(tx.Bytes()[:10])
	require.Error(err)

	_, err = NewStagedTx("tbtc", "", nil, [3]string{}, status.Unsigned, time.Time{})
	require.ErrorIs(err, ErrNoUnspents)
}

func TestStagedTxIDStable(t *testing.T) {
	require := require.New(t)

	first := newTestStagedTx(t, "0100", status.Unsigned)
	second := newTestStagedTx(t, "0200", status.FullySigned)
	require.Equal(first.ID(), second.ID())
	require.NotEqual(first.ID(), StagedTxID("btc", testUnspents))
}

func TestStagedTxBadStatus(t *testing.T) {
	tx := newTestStagedTx(t, "0100", status.Unsigned)
	tx.Status = 7
	p := wrappers.Packer{MaxSize: maxStagedTxSize}
	bytes, err := tx.Marshal(&p)
	require.NoError(t, err)

	_, err = ParseStagedTx(bytes)
	require.Error(t, err)
}

func TestStateCommit(t *testing.T) {
	require := require.New(t)

	db := memdb.New()
	s, err := New(db, 0)
	require.NoError(err)

	tx := newTestStagedTx(t, "0100", status.Unsigned)
	_, err = s.GetStagedTx(tx.ID())
	require.ErrorIs(err, database.ErrNotFound)

	s.PutStagedTx(tx)
	got, err := s.GetStagedTx(tx.ID())
	require.NoError(err)
	require.Equal(tx, got)
	require.NoError(s.Commit())

	// a fresh state reads what was committed
	reloaded, err := New(db, 0)
	require.NoError(err)
	got, err = reloaded.GetStagedTx(tx.ID())
	require.NoError(err)
	require.Equal(tx.Bytes(), got.Bytes())

	reloaded.DeleteStagedTx(tx.ID())
	_, err = reloaded.GetStagedTx(tx.ID())
	require.ErrorIs(err, database.ErrNotFound)
	require.NoError(reloaded.Commit())

	_, err = reloaded.GetStagedTx(tx.ID())
	require.ErrorIs(err, database.ErrNotFound)
}

func TestStateAbort(t *testing.T) {
	require := require.New(t)

	s, err := New(memdb.New(), 4)
	require.NoError(err)

	tx := newTestStagedTx(t, "0100", status.Unsigned)
	s.PutStagedTx(tx)
	s.Abort()

	_, err = s.GetStagedTx(tx.ID())
	require.ErrorIs(err, database.ErrNotFound)
	require.NoError(s.Close())
}

func TestDiffApply(t *testing.T) {
	require := require.New(t)

	s, err := New(memdb.New(), 0)
	require.NoError(err)

	unsigned := newTestStagedTx(t, "0100", status.Unsigned)
	s.PutStagedTx(unsigned)

	d := NewDiff(s)
	signed := newTestStagedTx(t, "0200", status.PartiallySigned)
	d.PutStagedTx(signed)

	// the parent is untouched until the diff is applied
	got, err := s.GetStagedTx(unsigned.ID())
	require.NoError(err)
	require.Equal(status.Unsigned, got.Status)
	got, err = d.GetStagedTx(unsigned.ID())
	require.NoError(err)
	require.Equal(status.PartiallySigned, got.Status)

	d.Apply(s)
	got, err = s.GetStagedTx(unsigned.ID())
	require.NoError(err)
	require.Equal(status.PartiallySigned, got.Status)

	d = NewDiff(s)
	d.DeleteStagedTx(unsigned.ID())
	_, err = d.GetStagedTx(unsigned.ID())
	require.ErrorIs(err, database.ErrNotFound)
	d.Apply(s)
	_, err = s.GetStagedTx(unsigned.ID())
	require.ErrorIs(err, database.ErrNotFound)
}
