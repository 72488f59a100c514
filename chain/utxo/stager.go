package utxo

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	safemath "github.com/MetalBlockchain/metalgo/utils/math"

	"github.com/MetalBlockchain/accountlib/status"
)

const sigHashType = txscript.SigHashAll

var (
	ErrNoInputs           = errors.New("no inputs")
	ErrNoOutputs          = errors.New("no outputs")
	ErrInsufficientFunds  = errors.New("outputs exceed inputs")
	ErrWrongNetwork       = errors.New("address is for another network")
	ErrMalformedTx        = errors.New("malformed transaction")
	ErrUnspentMismatch    = errors.New("transaction inputs do not match the unspents")
	ErrScriptMismatch     = errors.New("input script does not match the unspent")
	ErrInvalidSignature   = errors.New("signature does not match any cosigner")
	ErrDuplicateSignature = errors.New("duplicate signature")
	ErrTooManySignatures  = errors.New("too many signatures")
	ErrInvalidCosigner    = errors.New("invalid cosigner")
)

// Output pays [Value] satoshis to [Address].
type Output struct {
	Address string `json:"address"`
	Value   uint64 `json:"value"`
}

// NewPrebuild returns the hex of an unsigned transaction spending [unspents]
// to [outputs]. The difference is left as fee.
func NewPrebuild(unspents []Unspent, outputs []Output, params *chaincfg.Params) (string, error) {
	switch {
	case len(unspents) == 0:
		return "", ErrNoInputs
	case len(outputs) == 0:
		return "", ErrNoOutputs
	}

	tx := wire.NewMsgTx(wire.TxVersion)
	var in, out uint64
	for i := range unspents {
		u := &unspents[i]
		if err := u.Verify(); err != nil {
			return "", fmt.Errorf("unspent %d: %w", i, err)
		}
		outPoint, err := u.OutPoint()
		if err != nil {
			return "", err
		}
		tx.AddTxIn(wire.NewTxIn(outPoint, nil, nil))
		if in, err = safemath.Add64(in, u.Value); err != nil {
			return "", err
		}
	}
	for i, o := range outputs {
		if o.Value > math.MaxInt64 {
			return "", fmt.Errorf("output %d: %w", i, ErrValueOverflow)
		}
		pkScript, err := outputScript(o.Address, params)
		if err != nil {
			return "", fmt.Errorf("output %d: %w", i, err)
		}
		tx.AddTxOut(wire.NewTxOut(int64(o.Value), pkScript))
		if out, err = safemath.Add64(out, o.Value); err != nil {
			return "", err
		}
	}
	if out > in {
		return "", fmt.Errorf("%w: %d > %d", ErrInsufficientFunds, out, in)
	}
	return encodeTx(tx)
}

// SignParams is the input of one signing round.
type SignParams struct {
	TxHex    string    `json:"txHex"`
	Unspents []Unspent `json:"unspents"`
	// Signer is the base58 extended private key signing this round.
	Signer string `json:"prv"`
	// WalletPubs are the user, backup and bitgo extended public keys.
	WalletPubs [numKeys]string `json:"pubs"`
	// CosignerPub is the wallet key that signs the other half.
	CosignerPub string `json:"cosignerPub"`
}

// Sign adds the signature of the signer to every input that the signer may
// sign and that is not yet complete, and returns the new transaction hex.
// Signatures are kept in wallet key order so the result only depends on the
// set of signers.
func Sign(p SignParams, params *chaincfg.Params) (string, error) {
	keys, err := ParseWalletKeys(p.WalletPubs)
	if err != nil {
		return "", err
	}
	signer, err := hdkeychain.NewKeyFromString(p.Signer)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	if !signer.IsPrivate() {
		return "", ErrNotPrivate
	}
	signerIndex, err := keys.IndexOf(signer)
	if err != nil {
		return "", err
	}
	cosigner, err := parseExtendedKey(p.CosignerPub)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCosigner, err)
	}
	cosignerIndex, err := keys.IndexOf(cosigner)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidCosigner, err)
	}
	if cosignerIndex == signerIndex {
		return "", fmt.Errorf("%w: cosigner is the signer", ErrInvalidCosigner)
	}

	s, err := load(p.TxHex, p.Unspents, keys, params)
	if err != nil {
		return "", err
	}
	for i, in := range s.inputs {
		t := in.unspent.ScriptType
		cosigners := t.Cosigners()
		if !cosigners.Contains(signerIndex) || in.complete() || in.signedBy(signerIndex) {
			continue
		}
		for _, sig := range in.sigs {
			if sig.key != cosignerIndex {
				return "", fmt.Errorf("%w: input %d is signed by key %d", ErrInvalidCosigner, i, sig.key)
			}
		}

		derived, err := derive(signer, in.unspent.Chain, in.unspent.Index)
		if err != nil {
			return "", err
		}
		priv, err := derived.ECPrivKey()
		if err != nil {
			return "", err
		}
		hash, err := s.sigHash(i)
		if err != nil {
			return "", err
		}
		sig := ecdsa.Sign(priv, hash)
		in.add(signature{
			key: signerIndex,
			sig: append(sig.Serialize(), byte(sigHashType)),
		})
		if err := s.write(i); err != nil {
			return "", err
		}
	}
	return encodeTx(s.tx)
}

// InputSignatures reports which wallet keys produced a valid signature on
// one input.
type InputSignatures struct {
	ScriptType ScriptType `json:"scriptType"`
	Required   int        `json:"required"`
	SignedBy   []int      `json:"signedBy"`
}

// VerifySignatures checks every signature of [txHex] against the keys
// derived for its input. A signature that matches no cosigner is an error.
func VerifySignatures(txHex string, unspents []Unspent, pubs [numKeys]string, params *chaincfg.Params) ([]InputSignatures, error) {
	keys, err := ParseWalletKeys(pubs)
	if err != nil {
		return nil, err
	}
	s, err := load(txHex, unspents, keys, params)
	if err != nil {
		return nil, err
	}
	return s.signatures(), nil
}

// Stage returns the signature state of [txHex].
func Stage(txHex string, unspents []Unspent, pubs [numKeys]string, params *chaincfg.Params) (status.Status, error) {
	keys, err := ParseWalletKeys(pubs)
	if err != nil {
		return 0, err
	}
	s, err := load(txHex, unspents, keys, params)
	if err != nil {
		return 0, err
	}
	return s.status(), nil
}

type signature struct {
	key int
	// DER signature followed by the hash type
	sig []byte
}

type input struct {
	unspent Unspent
	script  *spendScript
	pubs    [numKeys]*btcec.PublicKey
	sigs    []signature
}

func (in *input) required() int {
	return in.unspent.ScriptType.RequiredSignatures()
}

func (in *input) complete() bool {
	return len(in.sigs) >= in.required()
}

func (in *input) signedBy(key int) bool {
	return slices.ContainsFunc(in.sigs, func(s signature) bool {
		return s.key == key
	})
}

func (in *input) add(s signature) {
	in.sigs = append(in.sigs, s)
	slices.SortFunc(in.sigs, func(a, b signature) int {
		return a.key - b.key
	})
}

// signer returns the cosigner that produced [raw] over [hash].
func (in *input) signer(hash, raw []byte) (int, error) {
	if len(raw) < 2 || txscript.SigHashType(raw[len(raw)-1]) != sigHashType {
		return 0, ErrInvalidSignature
	}
	sig, err := ecdsa.ParseDERSignature(raw[:len(raw)-1])
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	cosigners := in.unspent.ScriptType.Cosigners()
	for key := range numKeys {
		if cosigners.Contains(key) && sig.Verify(hash, in.pubs[key]) {
			return key, nil
		}
	}
	return 0, ErrInvalidSignature
}

// stagedTx is a transaction decoded together with the signatures already
// collected on each input.
type stagedTx struct {
	tx     *wire.MsgTx
	inputs []*input
	hashes *txscript.TxSigHashes
}

func load(txHex string, unspents []Unspent, keys *WalletKeys, params *chaincfg.Params) (*stagedTx, error) {
	tx, err := decodeTx(txHex)
	if err != nil {
		return nil, err
	}
	if len(tx.TxIn) != len(unspents) {
		return nil, fmt.Errorf("%w: %d inputs, %d unspents", ErrUnspentMismatch, len(tx.TxIn), len(unspents))
	}

	s := &stagedTx{
		tx:     tx,
		inputs: make([]*input, len(unspents)),
	}
	prevOuts := make(map[wire.OutPoint]*wire.TxOut, len(unspents))
	for i, u := range unspents {
		if err := u.Verify(); err != nil {
			return nil, fmt.Errorf("unspent %d: %w", i, err)
		}
		outPoint, err := u.OutPoint()
		if err != nil {
			return nil, err
		}
		if tx.TxIn[i].PreviousOutPoint != *outPoint {
			return nil, fmt.Errorf("%w: input %d spends %s", ErrUnspentMismatch, i, tx.TxIn[i].PreviousOutPoint)
		}
		script, pubs, err := u.spendScript(keys, params)
		if err != nil {
			return nil, err
		}
		prevOuts[*outPoint] = wire.NewTxOut(int64(u.Value), script.pkScript)
		s.inputs[i] = &input{
			unspent: u,
			script:  script,
			pubs:    pubs,
		}
	}
	s.hashes = txscript.NewTxSigHashes(tx, txscript.NewMultiPrevOutFetcher(prevOuts))

	for i := range s.inputs {
		if err := s.read(i); err != nil {
			return nil, fmt.Errorf("input %d: %w", i, err)
		}
	}
	return s, nil
}

// read collects the signatures present on input [i].
func (s *stagedTx) read(i int) error {
	in := s.inputs[i]
	raws, err := s.pushedSignatures(i)
	if err != nil || len(raws) == 0 {
		return err
	}
	hash, err := s.sigHash(i)
	if err != nil {
		return err
	}
	for _, raw := range raws {
		key, err := in.signer(hash, raw)
		if err != nil {
			return err
		}
		if in.signedBy(key) {
			return fmt.Errorf("%w: key %d", ErrDuplicateSignature, key)
		}
		in.add(signature{key: key, sig: raw})
	}
	if len(in.sigs) > in.required() {
		return fmt.Errorf("%w: %d > %d", ErrTooManySignatures, len(in.sigs), in.required())
	}
	return nil
}

func (s *stagedTx) pushedSignatures(i int) ([][]byte, error) {
	txIn := s.tx.TxIn[i]
	in := s.inputs[i]

	var (
		items  [][]byte
		script []byte
		err    error
	)
	if in.unspent.ScriptType.segwit() {
		items, script = txIn.Witness, in.script.witnessScript
	} else if len(txIn.SignatureScript) > 0 {
		if items, err = txscript.PushedData(txIn.SignatureScript); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScriptMismatch, err)
		}
		script = in.script.redeemScript
	}
	if len(items) == 0 {
		return nil, nil
	}
	if !bytes.Equal(items[len(items)-1], script) {
		return nil, ErrScriptMismatch
	}

	sigs := make([][]byte, 0, len(items)-1)
	for _, item := range items[:len(items)-1] {
		if len(item) > 0 {
			sigs = append(sigs, item)
		}
	}
	return sigs, nil
}

func (s *stagedTx) sigHash(i int) ([]byte, error) {
	in := s.inputs[i]
	script := in.script.signingScript()
	if in.unspent.ScriptType.segwit() {
		return txscript.CalcWitnessSigHash(script, s.hashes, sigHashType, s.tx, i, int64(in.unspent.Value))
	}
	return txscript.CalcSignatureHash(script, sigHashType, s.tx, i)
}

// write encodes the signatures of input [i] into its script and witness.
func (s *stagedTx) write(i int) error {
	txIn := s.tx.TxIn[i]
	in := s.inputs[i]
	txIn.SignatureScript, txIn.Witness = nil, nil
	if len(in.sigs) == 0 {
		return nil
	}

	var err error
	switch in.unspent.ScriptType {
	case P2sh:
		b := txscript.NewScriptBuilder().AddOp(txscript.OP_0)
		for _, sig := range in.sigs {
			b.AddData(sig.sig)
		}
		txIn.SignatureScript, err = b.AddData(in.script.redeemScript).Script()
	case P2shP2pk:
		txIn.SignatureScript, err = txscript.NewScriptBuilder().
			AddData(in.sigs[0].sig).
			AddData(in.script.redeemScript).
			Script()
	case P2wsh, P2shP2wsh:
		witness := wire.TxWitness{{}}
		for _, sig := range in.sigs {
			witness = append(witness, sig.sig)
		}
		txIn.Witness = append(witness, in.script.witnessScript)
		if in.unspent.ScriptType == P2shP2wsh {
			txIn.SignatureScript, err = txscript.NewScriptBuilder().
				AddData(in.script.redeemScript).
				Script()
		}
	}
	return err
}

func (s *stagedTx) signatures() []InputSignatures {
	result := make([]InputSignatures, len(s.inputs))
	for i, in := range s.inputs {
		signedBy := make([]int, 0, len(in.sigs))
		for _, sig := range in.sigs {
			signedBy = append(signedBy, sig.key)
		}
		result[i] = InputSignatures{
			ScriptType: in.unspent.ScriptType,
			Required:   in.required(),
			SignedBy:   signedBy,
		}
	}
	return result
}

func (s *stagedTx) counts() (collected []int, required []int) {
	collected = make([]int, len(s.inputs))
	required = make([]int, len(s.inputs))
	for i, in := range s.inputs {
		collected[i] = len(in.sigs)
		required[i] = in.required()
	}
	return collected, required
}

func (s *stagedTx) status() status.Status {
	return status.Of(s.counts())
}

func outputScript(addr string, params *chaincfg.Params) ([]byte, error) {
	decoded, err := btcutil.DecodeAddress(addr, params)
	if err != nil {
		return nil, err
	}
	if !decoded.IsForNet(params) {
		return nil, fmt.Errorf("%w: %s", ErrWrongNetwork, addr)
	}
	return txscript.PayToAddrScript(decoded)
}

func decodeTx(txHex string) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTx, err)
	}
	r := bytes.NewReader(raw)
	tx := &wire.MsgTx{}
	if err := tx.Deserialize(r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedTx, err)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformedTx, r.Len())
	}
	return tx, nil
}

func encodeTx(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	buf.Grow(tx.SerializeSize())
	if err := tx.Serialize(&buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}
