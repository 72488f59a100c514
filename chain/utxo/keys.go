package utxo

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// Positions of the wallet keys in the key triple.
const (
	UserKey = iota
	BackupKey
	BitGoKey

	numKeys = 3
)

var (
	ErrInvalidKey    = errors.New("invalid wallet key")
	ErrNotPrivate    = errors.New("signer key is not private")
	ErrUnknownSigner = errors.New("key is not part of the wallet")
)

// WalletKeys is the triple of base public keys every wallet address is
// derived from.
type WalletKeys struct {
	triple [numKeys]*hdkeychain.ExtendedKey
}

// ParseWalletKeys parses the base58 extended keys of the user, backup and
// bitgo key, in that order. Private keys are neutered.
func ParseWalletKeys(pubs [numKeys]string) (*WalletKeys, error) {
	w := &WalletKeys{}
	for i, pub := range pubs {
		key, err := parseExtendedKey(pub)
		if err != nil {
			return nil, fmt.Errorf("%w %d: %w", ErrInvalidKey, i, err)
		}
		w.triple[i] = key
	}
	return w, nil
}

// Derive returns the public keys of the triple at 0/0/[chain]/[index].
func (w *WalletKeys) Derive(chain, index uint32) ([numKeys]*btcec.PublicKey, error) {
	var pubs [numKeys]*btcec.PublicKey
	for i, key := range w.triple {
		derived, err := derive(key, chain, index)
		if err != nil {
			return pubs, err
		}
		if pubs[i], err = derived.ECPubKey(); err != nil {
			return pubs, err
		}
	}
	return pubs, nil
}

// IndexOf returns the position of [key] in the triple.
func (w *WalletKeys) IndexOf(key *hdkeychain.ExtendedKey) (int, error) {
	neutered, err := key.Neuter()
	if err != nil {
		return 0, err
	}
	for i, k := range w.triple {
		if k.String() == neutered.String() {
			return i, nil
		}
	}
	return 0, ErrUnknownSigner
}

// String returns the base58 form of the base key at [i].
func (w *WalletKeys) String(i int) string {
	return w.triple[i].String()
}

func parseExtendedKey(s string) (*hdkeychain.ExtendedKey, error) {
	key, err := hdkeychain.NewKeyFromString(s)
	if err != nil {
		return nil, err
	}
	if key.IsPrivate() {
		return key.Neuter()
	}
	return key, nil
}

func derive(key *hdkeychain.ExtendedKey, chain, index uint32) (*hdkeychain.ExtendedKey, error) {
	var err error
	for _, step := range []uint32{0, 0, chain, index} {
		if key, err = key.Derive(step); err != nil {
			return nil, err
		}
	}
	return key, nil
}
