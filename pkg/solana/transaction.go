package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/mr-tron/base58/base58"
	"github.com/pkg/errors"
)

const (
	// MaxTransactionSize taken from: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232
)

type Signature [ed25519.SignatureSize]byte
type Blockhash [sha256.Size]byte

func (s Signature) String() string {
	return base58.Encode(s[:])
}

func (b Blockhash) String() string {
	return base58.Encode(b[:])
}

type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

type Message struct {
	Header          Header
	Accounts        []ed25519.PublicKey
	RecentBlockhash Blockhash
	Instructions    []CompiledInstruction
}

type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction compiles the instructions into a legacy transaction paid for
// by payer. Instruction order is preserved.
func NewTransaction(payer ed25519.PublicKey, instructions ...Instruction) Transaction {
	accounts := []AccountMeta{
		{
			PublicKey:  payer,
			IsSigner:   true,
			IsWritable: true,
			isPayer:    true,
		},
	}

	for _, i := range instructions {
		accounts = append(accounts, AccountMeta{
			PublicKey: i.Program,
			isProgram: true,
		})
		accounts = append(accounts, i.Accounts...)
	}

	// Payer first, then signers, then writable accounts, with programs last.
	accounts = filterUnique(accounts)
	sort.Sort(SortableAccountMeta(accounts))

	var m Message
	for _, account := range accounts {
		m.Accounts = append(m.Accounts, account.PublicKey)

		if account.IsSigner {
			m.Header.NumSignatures++

			if !account.IsWritable {
				m.Header.NumReadonlySigned++
			}
		} else if !account.IsWritable {
			m.Header.NumReadOnly++
		}
	}

	for _, i := range instructions {
		c := CompiledInstruction{
			ProgramIndex: byte(indexOf(m.Accounts, i.Program)),
			Data:         i.Data,
		}

		for _, a := range i.Accounts {
			c.Accounts = append(c.Accounts, byte(indexOf(m.Accounts, a.PublicKey)))
		}

		m.Instructions = append(m.Instructions, c)
	}

	// Unset keys are only resolvable by index, so they are zero filled after
	// compilation.
	for i := range m.Accounts {
		if len(m.Accounts[i]) == 0 {
			m.Accounts[i] = make([]byte, ed25519.PublicKeySize)
		}
	}

	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

// Signature returns the fee payer's signature, which identifies the transaction.
func (t *Transaction) Signature() Signature {
	if len(t.Signatures) == 0 {
		return Signature{}
	}
	return t.Signatures[0]
}

func (t *Transaction) String() string {
	var sb strings.Builder
	sb.WriteString("Signatures:\n")
	for i, s := range t.Signatures {
		sb.WriteString(fmt.Sprintf("  %d: %s\n", i, s))
	}
	sb.WriteString("Message:\n")
	sb.WriteString(fmt.Sprintf("  Header: %d signed (%d readonly), %d readonly unsigned\n",
		t.Message.Header.NumSignatures,
		t.Message.Header.NumReadonlySigned,
		t.Message.Header.NumReadOnly,
	))
	sb.WriteString(fmt.Sprintf("  Blockhash: %s\n", t.Message.RecentBlockhash))
	sb.WriteString("  Accounts:\n")
	for i, a := range t.Message.Accounts {
		sb.WriteString(fmt.Sprintf("    %d: %s\n", i, base58.Encode(a)))
	}
	sb.WriteString("  Instructions:\n")
	for i, c := range t.Message.Instructions {
		sb.WriteString(fmt.Sprintf("    %d: program=%d accounts=%v data=%x\n", i, c.ProgramIndex, c.Accounts, c.Data))
	}
	return sb.String()
}

func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.Message.RecentBlockhash = bh
}

// Sign signs the message with each signer. Every signer must be one of the
// message's required signers.
func (t *Transaction) Sign(signers ...ed25519.PrivateKey) error {
	messageBytes := t.Message.Marshal()

	for _, s := range signers {
		pub := s.Public().(ed25519.PublicKey)
		index := indexOf(t.Message.Accounts, pub)
		if index < 0 {
			return errors.Errorf("signing account %s is not in the account list", base58.Encode(pub))
		}
		if index >= len(t.Signatures) {
			return errors.Errorf("signing account %s is not in the list of signers", base58.Encode(pub))
		}

		copy(t.Signatures[index][:], ed25519.Sign(s, messageBytes))
	}

	return nil
}

// SubmittableTransaction is an assembled transaction with the full set of
// keys that must sign it. The fee payer is always the first signer.
type SubmittableTransaction struct {
	Transaction Transaction
	Signers     []ed25519.PrivateKey
}

// ErrMissingSigner indicates an account the message requires to sign has no
// signing key.
var ErrMissingSigner = errors.New("missing signer for required signature")

// AssembleTransaction concatenates instructions, in order, into a single
// transaction paid for by payer. Signers are deduplicated by public key and
// the payer is always included. Every account the message marks as a signer
// must have a key among signers.
func AssembleTransaction(payer ed25519.PrivateKey, instructions []Instruction, signers ...ed25519.PrivateKey) (*SubmittableTransaction, error) {
	if len(payer) != ed25519.PrivateKeySize {
		return nil, errors.New("invalid fee payer key")
	}
	if len(instructions) == 0 {
		return nil, errors.New("no instructions to assemble")
	}

	unique := []ed25519.PrivateKey{payer}
	for _, s := range signers {
		if len(s) != ed25519.PrivateKeySize {
			return nil, errors.New("invalid signer key")
		}

		var seen bool
		for _, u := range unique {
			if bytes.Equal(u.Public().(ed25519.PublicKey), s.Public().(ed25519.PublicKey)) {
				seen = true
				break
			}
		}
		if !seen {
			unique = append(unique, s)
		}
	}

	txn := NewTransaction(payer.Public().(ed25519.PublicKey), instructions...)
	for _, required := range txn.Message.Accounts[:txn.Message.Header.NumSignatures] {
		var found bool
		for _, u := range unique {
			if bytes.Equal(required, u.Public().(ed25519.PublicKey)) {
				found = true
				break
			}
		}
		if !found {
			return nil, errors.Wrap(ErrMissingSigner, base58.Encode(required))
		}
	}

	return &SubmittableTransaction{
		Transaction: txn,
		Signers:     unique,
	}, nil
}

// Payer returns the fee payer's public key.
func (s *SubmittableTransaction) Payer() ed25519.PublicKey {
	return s.Signers[0].Public().(ed25519.PublicKey)
}

// Sign sets the recent blockhash and signs with every signer.
func (s *SubmittableTransaction) Sign(bh Blockhash) error {
	s.Transaction.SetBlockhash(bh)
	return s.Transaction.Sign(s.Signers...)
}

func filterUnique(accounts []AccountMeta) []AccountMeta {
	filtered := make([]AccountMeta, 0, len(accounts))

	for i := range accounts {
		for j := range filtered {
			// Permissions of a repeated account are promoted, never demoted.
			if bytes.Equal(accounts[i].PublicKey, filtered[j].PublicKey) {
				if accounts[i].IsSigner {
					filtered[j].IsSigner = true
				}
				if accounts[i].IsWritable {
					filtered[j].IsWritable = true
				}
				if accounts[i].isPayer {
					filtered[j].isPayer = true
				}

				goto next
			}
		}

		filtered = append(filtered, accounts[i])
	next:
	}

	return filtered
}

func indexOf(slice []ed25519.PublicKey, item ed25519.PublicKey) int {
	for i, val := range slice {
		if bytes.Equal(val, item) {
			return i
		}
	}

	return -1
}
