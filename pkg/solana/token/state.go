package token

import (
	"crypto/ed25519"

	"github.com/code-payments/solray/pkg/solana/binary"
)

type AccountState byte

const (
	AccountStateUninitialized AccountState = iota
	AccountStateInitialized
	AccountStateFrozen
)

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L20
const MintSize = 82

// Reference: https://github.com/solana-labs/solana-program-library/blob/11b1e3eefdd4e523768d63f7c70a7aa391ea0d02/token/program/src/state.rs#L125
const AccountSize = 165

// Reference: https://github.com/solana-labs/solana-program-library/blob/8944f428fe693c3a4226bf766a79be9c75e8e520/token/program/src/state.rs#L214
const MultisigAccountSize = 355

// MaxSigners is the number of signer slots in a multisig account.
const MaxSigners = 11

const optionSize = binary.OptionTag32

type Mint struct {
	// Optional authority used to mint new tokens. If absent, the supply is
	// fixed.
	MintAuthority ed25519.PublicKey
	// Total supply of tokens.
	Supply uint64
	// Number of base 10 digits to the right of the decimal place.
	Decimals byte
	// Is true if this structure has been initialized
	IsInitialized bool
	// Optional authority to freeze token accounts.
	FreezeAuthority ed25519.PublicKey
}

func (m *Mint) layout() []binary.Field {
	return []binary.Field{
		binary.OptionalKey32(&m.MintAuthority, optionSize),
		binary.Uint64(&m.Supply),
		binary.Uint8(&m.Decimals),
		binary.Bool(&m.IsInitialized),
		binary.OptionalKey32(&m.FreezeAuthority, optionSize),
	}
}

func (m *Mint) Marshal() []byte {
	return binary.Encode(m.layout()...)
}

// Unmarshal decodes a mint record. A record of the wrong size fails with a
// *binary.LayoutSizeMismatchError.
func (m *Mint) Unmarshal(b []byte) error {
	return binary.Decode(b, m.layout()...)
}

type Account struct {
	// The mint associated with this account
	Mint ed25519.PublicKey
	// The owner of this account.
	Owner ed25519.PublicKey
	// The amount of tokens this account holds.
	Amount uint64
	// If set, then the 'DelegatedAmount' represents the amount
	// authorized by the delegate.
	Delegate ed25519.PublicKey
	/// The account's state
	State AccountState
	// If set, this is a native token, and the value logs the rent-exempt reserve. An Account
	// is required to be rent-exempt, so the value is used by the Processor to ensure that wrapped
	// SOL accounts do not drop below this threshold.
	IsNativeReserve *uint64
	// The amount delegated
	DelegatedAmount uint64
	// Optional authority to close the account.
	CloseAuthority ed25519.PublicKey
}

func (a *Account) layout() []binary.Field {
	return []binary.Field{
		binary.Key32(&a.Mint),
		binary.Key32(&a.Owner),
		binary.Uint64(&a.Amount),
		binary.OptionalKey32(&a.Delegate, optionSize),
		binary.Uint8((*uint8)(&a.State)),
		binary.OptionalUint64(&a.IsNativeReserve, optionSize),
		binary.Uint64(&a.DelegatedAmount),
		binary.OptionalKey32(&a.CloseAuthority, optionSize),
	}
}

func (a *Account) Marshal() []byte {
	return binary.Encode(a.layout()...)
}

// Unmarshal decodes a token account record. Without a delegate, the
// delegated amount is always zero.
func (a *Account) Unmarshal(b []byte) error {
	if err := binary.Decode(b, a.layout()...); err != nil {
		return err
	}

	if a.Delegate == nil {
		a.DelegatedAmount = 0
	}
	return nil
}

func (a *Account) IsInitialized() bool {
	return a.State != AccountStateUninitialized
}

func (a *Account) IsFrozen() bool {
	return a.State == AccountStateFrozen
}

// IsNative reports whether the account holds wrapped SOL.
func (a *Account) IsNative() bool {
	return a.IsNativeReserve != nil
}

// RentExemptReserve returns the lamports a native account keeps back for rent.
func (a *Account) RentExemptReserve() (uint64, bool) {
	if a.IsNativeReserve == nil {
		return 0, false
	}
	return *a.IsNativeReserve, true
}

type Multisig struct {
	// Number of signers required
	M byte
	// Number of valid signers
	N byte
	// Is true if this structure has been initialized
	IsInitialized bool
	// Signer public keys. Only the first N are meaningful.
	Signers [MaxSigners]ed25519.PublicKey
}

func (m *Multisig) layout() []binary.Field {
	layout := []binary.Field{
		binary.Uint8(&m.M),
		binary.Uint8(&m.N),
		binary.Bool(&m.IsInitialized),
	}
	for i := range m.Signers {
		layout = append(layout, binary.Key32(&m.Signers[i]))
	}
	return layout
}

func (m *Multisig) Marshal() []byte {
	return binary.Encode(m.layout()...)
}

func (m *Multisig) Unmarshal(b []byte) error {
	return binary.Decode(b, m.layout()...)
}

// ValidSigners returns the first N signer keys.
func (m *Multisig) ValidSigners() []ed25519.PublicKey {
	n := int(m.N)
	if n > MaxSigners {
		n = MaxSigners
	}
	return append([]ed25519.PublicKey(nil), m.Signers[:n]...)
}
