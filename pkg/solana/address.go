package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	maxSeeds      = 16
	maxSeedLength = 32
)

var (
	ErrTooManySeeds          = errors.New("too many seeds")
	ErrMaxSeedLengthExceeded = errors.New("max seed length exceeded")

	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrNoValidProgramAddress is returned when every nonce in [0, 255]
	// produced an on-curve candidate.
	ErrNoValidProgramAddress = errors.New("no valid program address")
)

var (
	programHashCtor = sha256.New
)

// IsOnCurve reports whether pub decodes to a point on the ed25519 curve.
//
// The edwards25519.ExtendedGroupElement (the EdwardsPoint) is internal to the
// golang.org/x/crypto library, so we rely on an open source fork that exposes
// the same decompression check used by ed25519.Verify().
func IsOnCurve(pub ed25519.PublicKey) bool {
	if len(pub) != ed25519.PublicKeySize {
		return false
	}

	var b [32]byte
	copy(b[:], pub)

	var A edwards25519.ExtendedGroupElement
	return A.FromBytes(&b)
}

// CreateProgramAddress mirrors the implementation of the Solana SDK's CreateProgramAddress.
//
// ProgramAddresses are public keys that _do not_ lie on the ed25519 curve to ensure that
// there is no associated private key. In the event that the program and seed parameters
// result in a valid public key, ErrInvalidPublicKey is returned.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > maxSeeds {
		return nil, ErrTooManySeeds
	}

	h := programHashCtor()
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}

		if _, err := h.Write(s); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	for _, v := range [][]byte{program, []byte("ProgramDerivedAddress")} {
		if _, err := h.Write(v); err != nil {
			return nil, errors.Wrap(err, "failed to hash seed")
		}
	}

	pub := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pub, h.Sum(nil))

	// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L182-L187
	if IsOnCurve(pub) {
		return nil, ErrInvalidPublicKey
	}

	return pub, nil
}

// FindProgramAddressAndBump mirrors the implementation of the Solana SDK's
// FindProgramAddress. It returns the address and bump seed.
//
// Nonces are tried from 255 down to 0 inclusive, and the first off-curve
// candidate wins.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	// The bump seed counts towards the seed limit.
	if len(seeds) >= maxSeeds {
		return nil, 0, ErrTooManySeeds
	}

	withBump := make([][]byte, len(seeds)+1)
	copy(withBump, seeds)

	for nonce := math.MaxUint8; nonce >= 0; nonce-- {
		withBump[len(seeds)] = []byte{byte(nonce)}

		pub, err := CreateProgramAddress(program, withBump...)
		if err == nil {
			return pub, byte(nonce), nil
		}
		if err != ErrInvalidPublicKey {
			return nil, 0, err
		}
	}

	return nil, 0, ErrNoValidProgramAddress
}

// FindProgramAddress mirrors the implementation of the Solana SDK's FindProgramAddress.
// It only returns the address.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L234
func FindProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	pub, _, err := FindProgramAddressAndBump(program, seeds...)
	return pub, err
}

// ProgramAccount is a program derived address together with everything
// needed to re-derive it on chain.
type ProgramAccount struct {
	Address ed25519.PublicKey
	Seeds   [][]byte
	Nonce   uint8
	Program ed25519.PublicKey
}

// NewProgramAccount searches for the program address of the seeds and records
// the nonce that produced it.
func NewProgramAccount(program ed25519.PublicKey, seeds ...[]byte) (*ProgramAccount, error) {
	for _, s := range seeds {
		if len(s) > maxSeedLength {
			return nil, ErrMaxSeedLengthExceeded
		}
	}

	address, nonce, err := FindProgramAddressAndBump(program, seeds...)
	if err != nil {
		return nil, err
	}

	copied := make([][]byte, len(seeds))
	for i, s := range seeds {
		copied[i] = append([]byte{}, s...)
	}

	return &ProgramAccount{
		Address: address,
		Seeds:   copied,
		Nonce:   nonce,
		Program: program,
	}, nil
}

// SignerSeeds returns the seeds with the nonce appended, as a program would
// pass them when signing on behalf of the address.
func (a *ProgramAccount) SignerSeeds() [][]byte {
	seeds := make([][]byte, 0, len(a.Seeds)+1)
	seeds = append(seeds, a.Seeds...)
	return append(seeds, []byte{a.Nonce})
}

// Verify re-derives the address from the recorded seeds and nonce.
func (a *ProgramAccount) Verify() error {
	address, err := CreateProgramAddress(a.Program, a.SignerSeeds()...)
	if err != nil {
		return err
	}

	if !bytes.Equal(address, a.Address) {
		return errors.New("program account address mismatch")
	}
	return nil
}
