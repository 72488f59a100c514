// Package era encodes the validity window of an account-chain transaction.
//
// A mortal era is valid for [Period] blocks starting at the first block whose
// number is congruent to [Phase] modulo [Period]. Only the phase is carried on
// the wire, so the block number an era was created from cannot be recovered.
package era

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/MetalBlockchain/metalgo/utils/wrappers"

	"github.com/MetalBlockchain/accountlib/chain/common"
)

const (
	MinPeriod = 4
	MaxPeriod = 1 << 16

	immortalByte = 0x00
)

var (
	_ common.Serializable = (*Era)(nil)

	ErrInvalidEra = errors.New("invalid era")
)

// Era is either immortal (the zero value) or mortal.
type Era struct {
	Period uint64 `json:"period"`
	Phase  uint64 `json:"phase"`
}

// Immortal returns an era that never expires.
func Immortal() Era {
	return Era{}
}

// Mortal returns the era starting at [current] and lasting at least [period]
// blocks. The period is rounded up to a power of two within
// [MinPeriod, MaxPeriod] and the phase is quantized to fit 12 bits.
func Mortal(period, current uint64) Era {
	period = clampPeriod(period)
	phase := current % period
	factor := quantizeFactor(period)
	return Era{
		Period: period,
		Phase:  phase / factor * factor,
	}
}

func (e Era) IsImmortal() bool {
	return e.Period == 0
}

// Birth returns the first block at or before [current] where this era is valid.
func (e Era) Birth(current uint64) uint64 {
	if e.IsImmortal() {
		return 0
	}
	return (max(current, e.Phase)-e.Phase)/e.Period*e.Period + e.Phase
}

// Death returns the first block at which a transaction created at [current]
// is no longer valid.
func (e Era) Death(current uint64) uint64 {
	if e.IsImmortal() {
		return ^uint64(0)
	}
	return e.Birth(current) + e.Period
}

// Bytes returns the wire form: a single zero byte for an immortal era and a
// little endian uint16 otherwise.
func (e Era) Bytes() []byte {
	if e.IsImmortal() {
		return []byte{immortalByte}
	}
	factor := quantizeFactor(e.Period)
	low := uint16(min(15, max(1, bits.TrailingZeros64(e.Period)-1)))
	encoded := low | uint16(e.Phase/factor)<<4
	return []byte{byte(encoded), byte(encoded >> 8)}
}

func (e *Era) Marshal(p *wrappers.Packer) ([]byte, error) {
	p.PackFixedBytes(e.Bytes())
	return p.Bytes, p.Err
}

func (e *Era) Unmarshal(p *wrappers.Packer) error {
	first := p.UnpackByte()
	if p.Err != nil {
		return p.Err
	}
	if first == immortalByte {
		*e = Immortal()
		return nil
	}
	second := p.UnpackByte()
	if p.Err != nil {
		return p.Err
	}
	decoded, err := FromBytes([]byte{first, second})
	if err != nil {
		return err
	}
	*e = decoded
	return nil
}

// FromBytes parses the wire form produced by [Era.Bytes].
func FromBytes(b []byte) (Era, error) {
	switch {
	case len(b) == 1 && b[0] == immortalByte:
		return Immortal(), nil
	case len(b) != 2:
		return Era{}, fmt.Errorf("%w: unexpected length %d", ErrInvalidEra, len(b))
	}

	encoded := uint64(b[0]) | uint64(b[1])<<8
	period := uint64(2) << (encoded % 16)
	factor := quantizeFactor(period)
	phase := (encoded >> 4) * factor
	if period < MinPeriod || period > MaxPeriod || phase >= period {
		return Era{}, fmt.Errorf("%w: period %d phase %d", ErrInvalidEra, period, phase)
	}
	return Era{Period: period, Phase: phase}, nil
}

func clampPeriod(period uint64) uint64 {
	if period <= MinPeriod {
		return MinPeriod
	}
	if period >= MaxPeriod {
		return MaxPeriod
	}
	return 1 << bits.Len64(period-1)
}

func quantizeFactor(period uint64) uint64 {
	return max(period>>12, 1)
}
