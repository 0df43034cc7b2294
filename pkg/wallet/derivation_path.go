package wallet

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// DerivationPath is the binary form of a BIP-32 path. Hardened components
// carry the HardenedKeyStart offset.
type DerivationPath []uint32

var (
	// DefaultBaseDerivationPath m/501'/0'/0
	DefaultBaseDerivationPath = DerivationPath{
		hdkeychain.HardenedKeyStart + 501,
		hdkeychain.HardenedKeyStart + 0,
		0,
	}
)

// ParseDerivationPath converts a path string to its binary form. Absolute
// paths start with "m"; anything else is relative. Components are decimal or
// 0x-prefixed hex, with a trailing ' marking them hardened.
func ParseDerivationPath(strPath string) (DerivationPath, error) {
	var path DerivationPath

	elems := strings.Split(strPath, "/")
	switch {
	case strings.TrimSpace(strPath) == "":
		return nil, ErrNullDerivationPath
	case containsEmptyString(elems):
		return nil, ErrMalformedDerivationPath
	case strings.TrimSpace(elems[0]) == "m":
		elems = elems[1:]
		if len(elems) == 0 {
			return nil, ErrMalformedDerivationPath
		}
	}

	for _, elem := range elems {
		elem = strings.TrimSpace(elem)
		var value uint32

		if strings.HasSuffix(elem, "'") {
			value = hdkeychain.HardenedKeyStart
			elem = strings.TrimSpace(strings.TrimSuffix(elem, "'"))
		}

		bigval, ok := new(big.Int).SetString(elem, 0)
		if !ok {
			return nil, fmt.Errorf("invalid elem '%s' in path", elem)
		}

		max := math.MaxUint32 - value
		if bigval.Sign() < 0 || bigval.Cmp(big.NewInt(int64(max))) > 0 {
			if value == 0 {
				return nil, fmt.Errorf("elem %v must be in range [0, %d]", bigval, max)
			}
			return nil, fmt.Errorf("elem %v must be in hardened range [0, %d]", bigval, max)
		}
		value += uint32(bigval.Uint64())

		path = append(path, value)
	}

	return path, nil
}

// IsHardened reports whether every component is hardened.
func (path DerivationPath) IsHardened() bool {
	for _, component := range path {
		if component < hdkeychain.HardenedKeyStart {
			return false
		}
	}
	return true
}

// String converts a binary derivation path to its canonical absolute form.
func (path DerivationPath) String() string {
	result := "m"
	for _, component := range path {
		var hardened bool
		if component >= hdkeychain.HardenedKeyStart {
			component -= hdkeychain.HardenedKeyStart
			hardened = true
		}
		result = fmt.Sprintf("%s/%d", result, component)
		if hardened {
			result += "'"
		}
	}
	return result
}

func containsEmptyString(composedPath []string) bool {
	for _, s := range composedPath {
		if strings.TrimSpace(s) == "" {
			return true
		}
	}
	return false
}
