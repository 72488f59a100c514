// Package txerrors holds the error kinds returned while building, signing and
// decoding transactions. Callers match them with errors.Is.
package txerrors

import (
	"errors"
	"fmt"
)

var (
	// ErrBuildTransaction is returned when a setter or payload assembly
	// receives malformed input.
	ErrBuildTransaction = errors.New("build transaction error")

	// ErrAddressValidation is returned when an address fails its
	// well-formedness or checksum check.
	ErrAddressValidation = errors.New("address validation error")

	// ErrInvalidFee is returned when a fee kind is not supported by the chain.
	ErrInvalidFee = errors.New("invalid fee error")

	// ErrInvalidTransaction is returned when a validation profile rejects the
	// assembled or decoded field set.
	ErrInvalidTransaction = errors.New("invalid transaction error")
)

func BuildTransaction(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrBuildTransaction, fmt.Sprintf(format, args...))
}

func AddressValidation(address string, coin string) error {
	return fmt.Errorf("%w: The address '%s' is not a well-formed %s address", ErrAddressValidation, address, coin)
}

func InvalidFee(got, expected string) error {
	return fmt.Errorf("%w: The specified type: \"%s\" is not valid. Please provide type: \"%s\"", ErrInvalidFee, got, expected)
}

func InvalidTransaction(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidTransaction, fmt.Sprintf(format, args...))
}
