package wallet

import (
	"github.com/tyler-smith/go-bip39"
)

// DefaultEntropySize is used when GenerateMnemonic is given zero bits.
const DefaultEntropySize = 128

// GenerateMnemonic returns a new BIP-39 phrase backed by bits of entropy
// from the system's secure random source.
func GenerateMnemonic(bits int) (string, error) {
	if bits == 0 {
		bits = DefaultEntropySize
	}
	if bits < 128 || bits > 256 || bits%32 != 0 {
		return "", ErrInvalidEntropySize
	}

	entropy, err := bip39.NewEntropy(bits)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// IsMnemonicValid reports whether phrase passes the wordlist and checksum
// checks.
func IsMnemonicValid(phrase string) bool {
	return bip39.IsMnemonicValid(phrase)
}

func seedFromMnemonic(phrase string) ([]byte, error) {
	seed, err := bip39.NewSeedWithErrorChecking(phrase, "")
	if err != nil {
		return nil, ErrInvalidMnemonic
	}
	return seed, nil
}
