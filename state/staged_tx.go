package state

import (
	"errors"
	"fmt"
	"time"

	"github.com/MetalBlockchain/metalgo/ids"
	"github.com/MetalBlockchain/metalgo/utils/hashing"
	"github.com/MetalBlockchain/metalgo/utils/wrappers"

	"github.com/MetalBlockchain/accountlib/chain/common"
	"github.com/MetalBlockchain/accountlib/chain/utxo"
	"github.com/MetalBlockchain/accountlib/status"
)

const maxStagedTxSize = 1 << 20

var (
	_ common.Serializable = (*StagedTx)(nil)

	ErrNoUnspents = errors.New("staged tx has no unspents")

	errTooManyUnspents = errors.New("too many unspents")
	errTrailingBytes   = errors.New("trailing bytes")
)

// StagedTx is a multisig spend between signing rounds. Its ID depends only
// on the coin and the outputs being spent, so it is stable across rounds.
type StagedTx struct {
	Coin       string
	TxHex      string
	Unspents   []utxo.Unspent
	WalletPubs [3]string
	Status     status.Status
	Updated    time.Time

	id    ids.ID
	bytes []byte
}

func NewStagedTx(
	coin string,
	txHex string,
	unspents []utxo.Unspent,
	pubs [3]string,
	s status.Status,
	updated time.Time,
) (*StagedTx, error) {
	tx := &StagedTx{
		Coin:       coin,
		TxHex:      txHex,
		Unspents:   unspents,
		WalletPubs: pubs,
		Status:     s,
		Updated:    updated.UTC().Truncate(time.Second),
	}
	if err := tx.initialize(); err != nil {
		return nil, err
	}
	return tx, nil
}

// StagedTxID is the ID a staged spend of [unspents] gets.
func StagedTxID(coin string, unspents []utxo.Unspent) ids.ID {
	p := wrappers.Packer{MaxSize: maxStagedTxSize}
	p.PackStr(coin)
	for _, u := range unspents {
		p.PackStr(u.ID)
	}
	return hashing.ComputeHash256Array(p.Bytes)
}

func (tx *StagedTx) initialize() error {
	if len(tx.Unspents) == 0 {
		return ErrNoUnspents
	}
	p := wrappers.Packer{MaxSize: maxStagedTxSize}
	bytes, err := tx.Marshal(&p)
	if err != nil {
		return err
	}
	tx.bytes = bytes
	tx.id = StagedTxID(tx.Coin, tx.Unspents)
	return nil
}

func (tx *StagedTx) ID() ids.ID {
	return tx.id
}

func (tx *StagedTx) Bytes() []byte {
	return tx.bytes
}

func (tx *StagedTx) Size() int {
	return len(tx.bytes)
}

func (tx *StagedTx) Marshal(p *wrappers.Packer) ([]byte, error) {
	p.PackStr(tx.Coin)
	p.PackBytes([]byte(tx.TxHex))
	p.PackInt(uint32(len(tx.Unspents)))
	for _, u := range tx.Unspents {
		p.PackStr(u.ID)
		p.PackStr(string(u.ScriptType))
		p.PackLong(u.Value)
		p.PackInt(u.Chain)
		p.PackInt(u.Index)
	}
	for _, pub := range tx.WalletPubs {
		p.PackStr(pub)
	}
	p.PackInt(uint32(tx.Status))
	p.PackLong(uint64(tx.Updated.Unix()))
	return p.Bytes, p.Err
}

func (tx *StagedTx) Unmarshal(p *wrappers.Packer) error {
	tx.Coin = p.UnpackStr()
	tx.TxHex = string(p.UnpackBytes())
	numUnspents := p.UnpackInt()
	if p.Errored() {
		return p.Err
	}
	// each unspent packs at least 20 bytes
	if int(numUnspents) > (len(p.Bytes)-p.Offset)/20 {
		return fmt.Errorf("%w: %d", errTooManyUnspents, numUnspents)
	}
	tx.Unspents = make([]utxo.Unspent, numUnspents)
	for i := range tx.Unspents {
		tx.Unspents[i] = utxo.Unspent{
			ID:         p.UnpackStr(),
			ScriptType: utxo.ScriptType(p.UnpackStr()),
			Value:      p.UnpackLong(),
			Chain:      p.UnpackInt(),
			Index:      p.UnpackInt(),
		}
	}
	for i := range tx.WalletPubs {
		tx.WalletPubs[i] = p.UnpackStr()
	}
	tx.Status = status.Status(p.UnpackInt())
	tx.Updated = time.Unix(int64(p.UnpackLong()), 0).UTC()
	if p.Errored() {
		return p.Err
	}
	return tx.Status.Verify()
}

// ParseStagedTx decodes a staged tx stored by [StagedTx.Bytes].
func ParseStagedTx(bytes []byte) (*StagedTx, error) {
	tx := &StagedTx{}
	p := wrappers.Packer{Bytes: bytes, MaxSize: maxStagedTxSize}
	if err := tx.Unmarshal(&p); err != nil {
		return nil, err
	}
	if p.Offset != len(bytes) {
		return nil, fmt.Errorf("%w: %d", errTrailingBytes, len(bytes)-p.Offset)
	}
	tx.bytes = bytes
	tx.id = StagedTxID(tx.Coin, tx.Unspents)
	return tx, nil
}
