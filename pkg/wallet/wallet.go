// Package wallet derives ed25519 keypairs from BIP-39 mnemonics along
// hardened BIP-32 paths.
package wallet

import (
	"crypto/ed25519"
	"errors"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/mr-tron/base58"

	"github.com/code-payments/solray/pkg/solana"
)

var (
	// ErrInvalidMnemonic ...
	ErrInvalidMnemonic = errors.New("mnemonic is invalid")
	// ErrInvalidEntropySize ...
	ErrInvalidEntropySize = errors.New(
		"entropy size must be a multiple of 32 in the range [128,256]",
	)
	// ErrInvalidSeed ...
	ErrInvalidSeed = errors.New("seed length must be in the range [16,64]")
	// ErrNullDerivationPath ...
	ErrNullDerivationPath = errors.New("derivation path must not be null")
	// ErrMalformedDerivationPath ...
	ErrMalformedDerivationPath = errors.New("malformed derivation path")
	// ErrNonHardenedPath ...
	ErrNonHardenedPath = errors.New("derivation path components must be hardened (suffix \"'\")")
	// ErrAbsoluteDerivationPath ...
	ErrAbsoluteDerivationPath = errors.New("subpath must be relative to the wallet")
)

// Wallet is a node of the derivation tree and the ed25519 keypair expanded
// from its private key.
type Wallet struct {
	node    *hdkeychain.ExtendedKey
	path    DerivationPath
	keypair ed25519.PrivateKey
}

// FromMnemonic derives the base wallet of a BIP-39 phrase, using an empty
// passphrase.
func FromMnemonic(phrase string) (*Wallet, error) {
	seed, err := seedFromMnemonic(phrase)
	if err != nil {
		return nil, err
	}
	return FromSeed(seed)
}

// FromSeed derives the wallet at DefaultBaseDerivationPath from a BIP-32 seed.
func FromSeed(seed []byte) (*Wallet, error) {
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		if errors.Is(err, hdkeychain.ErrInvalidSeedLen) {
			return nil, ErrInvalidSeed
		}
		return nil, err
	}

	root := &Wallet{node: master}
	return root.derive(DefaultBaseDerivationPath)
}

// Derive walks a relative path such as "0'" or "3'/1'" from this wallet.
// Every component must be hardened.
func (w *Wallet) Derive(subpath string) (*Wallet, error) {
	if strings.HasPrefix(strings.TrimSpace(subpath), "m") {
		return nil, ErrAbsoluteDerivationPath
	}

	path, err := ParseDerivationPath(subpath)
	if err != nil {
		return nil, err
	}
	if !path.IsHardened() {
		return nil, ErrNonHardenedPath
	}

	return w.derive(path)
}

// DeriveIndex derives a single child. The child is hardened iff i is at
// least HardenedKeyStart.
func (w *Wallet) DeriveIndex(i uint32) (*Wallet, error) {
	return w.derive(DerivationPath{i})
}

// DeriveKeypair is Derive returning only the keypair.
func (w *Wallet) DeriveKeypair(subpath string) (ed25519.PrivateKey, error) {
	child, err := w.Derive(subpath)
	if err != nil {
		return nil, err
	}
	return child.keypair, nil
}

func (w *Wallet) derive(path DerivationPath) (*Wallet, error) {
	node := w.node
	for _, step := range path {
		var err error
		node, err = node.Derive(step)
		if err != nil {
			return nil, err
		}
	}

	priv, err := node.ECPrivKey()
	if err != nil {
		return nil, err
	}

	full := make(DerivationPath, 0, len(w.path)+len(path))
	full = append(full, w.path...)
	full = append(full, path...)

	return &Wallet{
		node:    node,
		path:    full,
		keypair: ed25519.NewKeyFromSeed(priv.Serialize()),
	}, nil
}

// PublicKey returns the wallet's address key.
func (w *Wallet) PublicKey() ed25519.PublicKey {
	return w.keypair.Public().(ed25519.PublicKey)
}

// PrivateKey returns a copy of the wallet's keypair.
func (w *Wallet) PrivateKey() ed25519.PrivateKey {
	key := make(ed25519.PrivateKey, len(w.keypair))
	copy(key, w.keypair)
	return key
}

// Address returns the base58 encoded public key.
func (w *Wallet) Address() string {
	return base58.Encode(w.PublicKey())
}

// Path returns the absolute derivation path of the wallet.
func (w *Wallet) Path() string {
	return w.path.String()
}

// Info fetches the on-chain account of the wallet's address.
func (w *Wallet) Info(client solana.Client, commitment solana.Commitment) (solana.AccountInfo, error) {
	return client.GetAccountInfo(w.PublicKey(), commitment)
}
