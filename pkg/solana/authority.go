package solana

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"
)

// ErrInvalidAuthority indicates an authority that is not a reference, a
// signer, a writable reference or signer, or a group of references and signers.
var ErrInvalidAuthority = errors.New("invalid instruction authority")

type authorityKind uint8

const (
	authorityUnknown authorityKind = iota
	authorityReference
	authoritySigner
	authorityWritableReference
	authorityWritableSigner
	authorityGroup
)

// Authority describes who may act on an instruction account.
//
// Build one with Reference, Signer, Writable or Group. The zero value is
// invalid and fails resolution.
type Authority struct {
	kind    authorityKind
	key     ed25519.PublicKey
	signer  ed25519.PrivateKey
	members []Authority
}

// Reference is a non-signing account.
func Reference(pub ed25519.PublicKey) Authority {
	return Authority{kind: authorityReference, key: pub}
}

// Signer is an account whose keypair signs the transaction.
func Signer(key ed25519.PrivateKey) Authority {
	a := Authority{kind: authoritySigner, signer: key}
	if len(key) == ed25519.PrivateKeySize {
		a.key = key.Public().(ed25519.PublicKey)
	}
	return a
}

// Writable marks a Reference or Signer as writable. Applying it to a
// Group produces an invalid authority.
func Writable(a Authority) Authority {
	switch a.kind {
	case authorityReference:
		a.kind = authorityWritableReference
	case authoritySigner:
		a.kind = authorityWritableSigner
	case authorityWritableReference, authorityWritableSigner:
	default:
		return Authority{}
	}
	return a
}

// Group is a set of co-signers, such as the members of a multisig account.
// Members resolve as readonly even when wrapped with Writable.
func Group(members ...Authority) Authority {
	return Authority{kind: authorityGroup, members: members}
}

// PublicKey returns the account of a single authority, or nil for groups.
func (a Authority) PublicKey() ed25519.PublicKey {
	return a.key
}

// IsSigner reports whether the authority carries a signing key.
func (a Authority) IsSigner() bool {
	return a.kind == authoritySigner || a.kind == authorityWritableSigner
}

// IsGroup reports whether the authority is a multisig group.
func (a Authority) IsGroup() bool {
	return a.kind == authorityGroup
}

func (a Authority) validKey() bool {
	if len(a.key) != ed25519.PublicKeySize {
		return false
	}
	if a.IsSigner() {
		return len(a.signer) == ed25519.PrivateKeySize
	}
	return true
}

// ResolveAuthorities turns authorities into account metas, preserving order.
// Group members are flattened in place.
func ResolveAuthorities(auths ...Authority) ([]AccountMeta, error) {
	metas := make([]AccountMeta, 0, len(auths))

	for i, a := range auths {
		switch a.kind {
		case authorityReference, authoritySigner, authorityWritableReference, authorityWritableSigner:
			if !a.validKey() {
				return nil, errors.Wrapf(ErrInvalidAuthority, "authority %d: malformed key", i)
			}

			metas = append(metas, AccountMeta{
				PublicKey:  a.key,
				IsSigner:   a.IsSigner(),
				IsWritable: a.kind == authorityWritableReference || a.kind == authorityWritableSigner,
			})
		case authorityGroup:
			for j, m := range a.members {
				switch m.kind {
				case authorityReference, authoritySigner, authorityWritableReference, authorityWritableSigner:
				default:
					return nil, errors.Wrapf(ErrInvalidAuthority, "authority %d: group member %d must be a reference or signer", i, j)
				}
				if !m.validKey() {
					return nil, errors.Wrapf(ErrInvalidAuthority, "authority %d: group member %d: malformed key", i, j)
				}

				metas = append(metas, NewReadonlyAccountMeta(m.key, m.IsSigner()))
			}
		default:
			return nil, errors.Wrapf(ErrInvalidAuthority, "authority %d", i)
		}
	}

	return metas, nil
}

// AuthoritySigners collects the signing keys of the authorities in order,
// skipping duplicates.
func AuthoritySigners(auths ...Authority) []ed25519.PrivateKey {
	var signers []ed25519.PrivateKey

	add := func(a Authority) {
		if !a.IsSigner() || len(a.signer) != ed25519.PrivateKeySize {
			return
		}
		for _, s := range signers {
			if bytes.Equal(s, a.signer) {
				return
			}
		}
		signers = append(signers, a.signer)
	}

	for _, a := range auths {
		if a.kind == authorityGroup {
			for _, m := range a.members {
				add(m)
			}
			continue
		}
		add(a)
	}

	return signers
}
