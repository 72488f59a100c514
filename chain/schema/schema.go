// Package schema validates builder state and decoded transactions against the
// field profiles of each transaction kind.
package schema

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/MetalBlockchain/metalgo/utils/formatting"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/MetalBlockchain/accountlib/chain/address"
	"github.com/MetalBlockchain/accountlib/chain/keys"
	"github.com/MetalBlockchain/accountlib/chain/material"
	"github.com/MetalBlockchain/accountlib/chain/txerrors"
)

const blockHashLen = 32

var validate = newValidator()

// Base is checked by ValidateTransaction before any payload is assembled.
type Base struct {
	Sender             *string `json:"sender" validate:"required,address"`
	BlockNumber        *uint64 `json:"blockNumber" validate:"required"`
	BlockHash          *string `json:"blockHash" validate:"required,blockhash"`
	GenesisHash        *string `json:"genesisHash" validate:"required,blockhash"`
	ChainName          *string `json:"chainName" validate:"required,min=1"`
	Nonce              *uint64 `json:"nonce" validate:"required"`
	SpecVersion        *uint32 `json:"specVersion" validate:"required"`
	SpecName           *string `json:"specName" validate:"required,oneof=polkadot westend kusama statemint statemine"`
	TransactionVersion *uint32 `json:"transactionVersion" validate:"required"`
	EraPeriod          *uint64 `json:"eraPeriod" validate:"omitempty"`
	Tip                *uint64 `json:"tip" validate:"omitempty"`
}

// SigningPayload is checked on a decoded unsigned transaction.
type SigningPayload struct {
	EraPeriod *uint64 `json:"eraPeriod" validate:"required"`
	BlockHash *string `json:"blockHash" validate:"required,blockhash"`
	Nonce     *uint64 `json:"nonce" validate:"required"`
	Tip       *uint64 `json:"tip" validate:"omitempty"`
}

// Signed is checked on a decoded signed transaction.
type Signed struct {
	Sender    *string `json:"sender" validate:"required,address"`
	Nonce     *uint64 `json:"nonce" validate:"required"`
	EraPeriod *uint64 `json:"eraPeriod" validate:"required"`
	Tip       *uint64 `json:"tip" validate:"omitempty"`
}

// BatchCall is the validated shape of one batched call: either an encoded
// call or a {callIndex, args} object.
type BatchCall struct {
	Raw       string `json:"raw" validate:"omitempty,callhex"`
	CallIndex string `json:"callIndex" validate:"required_without=Raw,omitempty,callindex"`
	HasArgs   bool   `json:"args" validate:"required_with=CallIndex"`
}

type Batch struct {
	Calls []BatchCall `json:"calls" validate:"required,min=1,dive"`
}

type AddressInitialization struct {
	Owner     *string `json:"owner" validate:"omitempty,address"`
	ProxyType *string `json:"proxyType" validate:"required,oneof=Any NonTransfer Governance Staking IdentityJudgement CancelProxy Auction"`
	Delay     *string `json:"delay" validate:"required,nonnegative"`
	Index     *string `json:"index" validate:"omitempty,nonnegative"`
}

type Transfer struct {
	To     *string `json:"to" validate:"required,address"`
	Amount *string `json:"amount" validate:"required,nonnegative"`
}

// Validate runs the profile [v] and maps the first failure to
// ErrInvalidTransaction.
func Validate(v any) error {
	return ValidateWithPrefix("", v)
}

// ValidateWithPrefix is Validate with a kind prefix in the message, for
// instance "Batch ".
func ValidateWithPrefix(kind string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	return txerrors.InvalidTransaction("%sTransaction validation failed: %s", kind, message(err))
}

// ValidateValue rejects negative amounts. [value] is anything decimal can
// parse: integers, floats and decimal strings.
func ValidateValue(value any) error {
	d, err := toDecimal(value)
	if err != nil {
		return txerrors.BuildTransaction("invalid value %v: %s", value, err)
	}
	if d.IsNegative() {
		return txerrors.BuildTransaction("Value cannot be less than zero")
	}
	return nil
}

// ValidateAddress rejects malformed SS58 addresses of [coin].
func ValidateAddress(addr string, coin string) error {
	if !address.IsValid(addr) {
		return txerrors.AddressValidation(addr, coin)
	}
	return nil
}

// ValidateKey accepts ed25519 seeds in hex or base64.
func ValidateKey(key string) error {
	if !keys.IsValidSeed(key) {
		return txerrors.BuildTransaction("Key validation failed")
	}
	return nil
}

func toDecimal(value any) (decimal.Decimal, error) {
	switch v := value.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		return decimal.NewFromString(v)
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case uint32:
		return decimal.NewFromInt(int64(v)), nil
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(v), 0), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	default:
		return decimal.Decimal{}, fmt.Errorf("unsupported type %T", value)
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("address", func(fl validator.FieldLevel) bool {
		return address.IsValid(fl.Field().String())
	})
	_ = v.RegisterValidation("blockhash", func(fl validator.FieldLevel) bool {
		b, err := formatting.Decode(formatting.HexNC, fl.Field().String())
		return err == nil && len(b) == blockHashLen
	})
	_ = v.RegisterValidation("callindex", func(fl validator.FieldLevel) bool {
		_, err := material.ParseCallIndex(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("callhex", func(fl validator.FieldLevel) bool {
		b, err := formatting.Decode(formatting.HexNC, fl.Field().String())
		return err == nil && len(b) >= len(material.CallIndex{})
	})
	_ = v.RegisterValidation("nonnegative", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && !d.IsNegative()
	})
	return v
}

func message(err error) string {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err.Error()
	}

	e := errs[0]
	field := e.Namespace()
	if _, rest, ok := strings.Cut(field, "."); ok {
		field = rest
	}
	switch e.Tag() {
	case "required", "required_without", "required_with":
		return fmt.Sprintf("%q is required", field)
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("%q must contain at least %s items", field, e.Param())
		}
		return fmt.Sprintf("%q is not allowed to be empty", field)
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", field, strings.ReplaceAll(e.Param(), " ", ", "))
	case "address":
		return fmt.Sprintf("%q must be a valid address", field)
	case "blockhash":
		return fmt.Sprintf("%q must be a 32 byte hex hash", field)
	case "callindex", "callhex":
		return fmt.Sprintf("%q must be a valid call", field)
	case "nonnegative":
		return fmt.Sprintf("%q must be a non-negative number", field)
	default:
		return fmt.Sprintf("%q failed on %s", field, e.Tag())
	}
}
