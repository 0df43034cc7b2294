package wallet

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/stretchr/testify/assert"
)

func TestParseDerivationPath(t *testing.T) {
	const h = hdkeychain.HardenedKeyStart

	tests := []struct {
		input  string
		output DerivationPath
		err    error
	}{
		// Absolute paths
		{"m/501'/0'/0", DerivationPath{h + 501, h, 0}, nil},
		{"m/501'/0'/0'/128'", DerivationPath{h + 501, h, h, h + 128}, nil},
		{"m/2147484149/2147483648/0", DerivationPath{h + 501, h, 0}, nil},
		{"m/0x1f5'/0x00'/0x00", DerivationPath{h + 501, h, 0}, nil},
		{"m/0x800001f5/0x80000000/0x00", DerivationPath{h + 501, h, 0}, nil},

		// Whitespace is tolerated
		{"	m  /   501			'\n/\n   00	\n\n\t'   /\n0", DerivationPath{h + 501, h, 0}, nil},

		// Relative paths
		{"0'", DerivationPath{h}, nil},
		{"3'/1'", DerivationPath{h + 3, h + 1}, nil},
		{"0/0", DerivationPath{0, 0}, nil},

		// Invalid paths
		{"", nil, ErrNullDerivationPath},
		{"m", nil, ErrMalformedDerivationPath},
		{"m/", nil, ErrMalformedDerivationPath},
		{"/501'/0'", nil, ErrMalformedDerivationPath},
		{"m/2147483648'", nil, nil}, // overflows the hardened range
		{"m/-1'", nil, nil},
	}
	for _, tt := range tests {
		path, err := ParseDerivationPath(tt.input)
		if tt.output == nil {
			assert.Error(t, err, tt.input)
		}
		if err != nil && tt.err != nil {
			assert.Equal(t, tt.err, err, tt.input)
		}
		assert.Equal(t, tt.output, path, tt.input)
	}
}

func TestDerivationPath_String(t *testing.T) {
	const h = hdkeychain.HardenedKeyStart

	assert.Equal(t, "m/501'/0'/0", DefaultBaseDerivationPath.String())
	assert.Equal(t, "m", DerivationPath{}.String())
	assert.Equal(t, "m/3'/1", DerivationPath{h + 3, 1}.String())

	assert.False(t, DefaultBaseDerivationPath.IsHardened())
	assert.True(t, DerivationPath{h, h + 1}.IsHardened())
}
