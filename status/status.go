package status

import (
	"errors"
	"fmt"

	"github.com/MetalBlockchain/metalgo/vms/components/verify"
)

// List of possible signature states:
// - [Unsigned] No signature has been collected
// - [PartiallySigned] At least one signature was collected but some input
//   still needs more
// - [FullySigned] Every input holds its required number of signatures
const (
	Unsigned        Status = 0
	PartiallySigned Status = 1
	FullySigned     Status = 2
)

var (
	errUnknownStatus = errors.New("unknown status")

	_ verify.Verifiable = Status(0)
	_ fmt.Stringer      = Status(0)
)

type Status uint32

// Verify that this is a valid status.
func (s Status) Verify() error {
	switch s {
	case Unsigned, PartiallySigned, FullySigned:
		return nil
	default:
		return errUnknownStatus
	}
}

func (s Status) String() string {
	switch s {
	case Unsigned:
		return "Unsigned"
	case PartiallySigned:
		return "PartiallySigned"
	case FullySigned:
		return "FullySigned"
	default:
		return "Invalid status"
	}
}

// MarshalText lets the status travel as its name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	if err := s.Verify(); err != nil {
		return nil, err
	}
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "Unsigned":
		*s = Unsigned
	case "PartiallySigned":
		*s = PartiallySigned
	case "FullySigned":
		*s = FullySigned
	default:
		return fmt.Errorf("%w: %q", errUnknownStatus, b)
	}
	return nil
}

// Of derives the state from per-input signature counts.
func Of(collected, required []int) Status {
	total, complete := 0, true
	for i := range required {
		have := 0
		if i < len(collected) {
			have = collected[i]
		}
		total += have
		if have < required[i] {
			complete = false
		}
	}
	switch {
	case total == 0 && len(required) > 0:
		return Unsigned
	case complete:
		return FullySigned
	default:
		return PartiallySigned
	}
}
