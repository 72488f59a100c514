// Package extrinsic implements the wire format of account-chain transactions.
//
// An unsigned transaction travels as its signing payload:
//
//	0x04 | call | era | nonce | tip | specVersion | txVersion | genesisHash | blockHash
//
// and a signed transaction as:
//
//	0x84 | signer | 0x00 | signature | era | nonce | tip | call
//
// Integers are big endian. The signer is a 32 byte ed25519 public key.
package extrinsic

import (
	"errors"
	"fmt"

	"github.com/MetalBlockchain/metalgo/ids"
	"github.com/MetalBlockchain/metalgo/utils/formatting"
	"github.com/MetalBlockchain/metalgo/utils/units"
	"github.com/MetalBlockchain/metalgo/utils/wrappers"
	"golang.org/x/crypto/blake2b"

	"github.com/MetalBlockchain/accountlib/chain/era"
)

const (
	MaxSize = 256 * units.KiB

	SigningPayloadMarker = 0x04
	SignedMarker         = 0x84

	SignatureEd25519 = 0x00

	PublicKeyLen = 32
	SignatureLen = 64

	// payloads longer than this are hashed before signing
	maxPlainSigningInput = 256
)

var (
	ErrMalformed        = errors.New("malformed transaction")
	ErrUnknownMarker    = errors.New("unknown transaction marker")
	ErrUnsupportedSig   = errors.New("unsupported signature type")
	ErrMissingSignature = errors.New("transaction is not signed")
)

// Extrinsic is the decoded form of either wire shape. Fields that the shape
// does not carry are left zero.
type Extrinsic struct {
	Signed bool
	Call   Call
	Era    era.Era
	Nonce  uint64
	Tip    uint64

	// signing payload only
	SpecVersion uint32
	TxVersion   uint32
	GenesisHash ids.ID
	BlockHash   ids.ID

	// signed only
	Signer    []byte
	Signature []byte
}

// SigningPayload returns the unsigned wire form.
func (e *Extrinsic) SigningPayload() ([]byte, error) {
	p := &wrappers.Packer{MaxSize: MaxSize}
	p.PackByte(SigningPayloadMarker)
	if _, err := e.Call.Marshal(p); err != nil {
		return nil, err
	}
	if _, err := e.Era.Marshal(p); err != nil {
		return nil, err
	}
	p.PackLong(e.Nonce)
	p.PackLong(e.Tip)
	p.PackInt(e.SpecVersion)
	p.PackInt(e.TxVersion)
	p.PackFixedBytes(e.GenesisHash[:])
	p.PackFixedBytes(e.BlockHash[:])
	return p.Bytes, p.Err
}

// SigningInput returns the bytes a signer commits to.
func (e *Extrinsic) SigningInput() ([]byte, error) {
	payload, err := e.SigningPayload()
	if err != nil {
		return nil, err
	}
	return SigningInput(payload), nil
}

// SignedBytes returns the signed wire form.
func (e *Extrinsic) SignedBytes() ([]byte, error) {
	if len(e.Signer) != PublicKeyLen || len(e.Signature) != SignatureLen {
		return nil, ErrMissingSignature
	}
	p := &wrappers.Packer{MaxSize: MaxSize}
	p.PackByte(SignedMarker)
	p.PackFixedBytes(e.Signer)
	p.PackByte(SignatureEd25519)
	p.PackFixedBytes(e.Signature)
	if _, err := e.Era.Marshal(p); err != nil {
		return nil, err
	}
	p.PackLong(e.Nonce)
	p.PackLong(e.Tip)
	if _, err := e.Call.Marshal(p); err != nil {
		return nil, err
	}
	return p.Bytes, p.Err
}

// Bytes returns the signed form when a signature is attached and the signing
// payload otherwise.
func (e *Extrinsic) Bytes() ([]byte, error) {
	if e.Signed {
		return e.SignedBytes()
	}
	return e.SigningPayload()
}

func (e *Extrinsic) Hex() (string, error) {
	b, err := e.Bytes()
	if err != nil {
		return "", err
	}
	return formatting.Encode(formatting.HexNC, b)
}

// SigningInput maps a signing payload to the message that is signed.
func SigningInput(payload []byte) []byte {
	if len(payload) > maxPlainSigningInput {
		sum := blake2b.Sum256(payload)
		return sum[:]
	}
	return payload
}

// Hash returns the blake2b-256 hash of [b].
func Hash(b []byte) ids.ID {
	return blake2b.Sum256(b)
}

// Parse decodes either wire shape.
func Parse(b []byte) (*Extrinsic, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrMalformed)
	}
	p := &wrappers.Packer{Bytes: b, MaxSize: MaxSize}
	e := &Extrinsic{}

	var err error
	switch marker := p.UnpackByte(); marker {
	case SigningPayloadMarker:
		err = e.unmarshalPayload(p)
	case SignedMarker:
		err = e.unmarshalSigned(p)
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownMarker, marker)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	if p.Offset != len(b) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrMalformed, len(b)-p.Offset)
	}
	return e, nil
}

// ParseHex decodes the 0x prefixed hex form.
func ParseHex(s string) (*Extrinsic, error) {
	b, err := formatting.Decode(formatting.HexNC, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return Parse(b)
}

func (e *Extrinsic) unmarshalPayload(p *wrappers.Packer) error {
	if err := e.Call.Unmarshal(p); err != nil {
		return err
	}
	if err := e.Era.Unmarshal(p); err != nil {
		return err
	}
	e.Nonce = p.UnpackLong()
	e.Tip = p.UnpackLong()
	e.SpecVersion = p.UnpackInt()
	e.TxVersion = p.UnpackInt()
	copy(e.GenesisHash[:], p.UnpackFixedBytes(ids.IDLen))
	copy(e.BlockHash[:], p.UnpackFixedBytes(ids.IDLen))
	return p.Err
}

func (e *Extrinsic) unmarshalSigned(p *wrappers.Packer) error {
	e.Signed = true
	e.Signer = p.UnpackFixedBytes(PublicKeyLen)
	if sigType := p.UnpackByte(); p.Err == nil && sigType != SignatureEd25519 {
		return fmt.Errorf("%w: 0x%02x", ErrUnsupportedSig, sigType)
	}
	e.Signature = p.UnpackFixedBytes(SignatureLen)
	if p.Err != nil {
		return p.Err
	}
	if err := e.Era.Unmarshal(p); err != nil {
		return err
	}
	e.Nonce = p.UnpackLong()
	e.Tip = p.UnpackLong()
	if err := e.Call.Unmarshal(p); err != nil {
		return err
	}
	return p.Err
}
