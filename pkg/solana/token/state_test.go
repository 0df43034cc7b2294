package token

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"
	"encoding/hex"
	"math"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	codec "github.com/code-payments/solray/pkg/solana/binary"
)

func TestAccount_Unmarshal(t *testing.T) {
	data, err := hex.DecodeString("118a08c9d4cc46c576282e0daf050bbdb04f03313e35e5db3f3def69fa1eeec42b15a9cd4bef2cd809e464570d2a6cbd9bcc64e32ea4ebbcf748757bbb3dd5bd000084e2506ce67c000000000000000000000000000000000000000000000000000000000000000000000000010000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000000")
	require.NoError(t, err)

	mint, err := base58.Decode("2BU1Xgyzqixhjaq9Pa5cNsaa1gSejLeNtDaDRv29qoZm")
	require.NoError(t, err)

	var a Account
	require.NoError(t, a.Unmarshal(data))
	assert.Equal(t, mint, []byte(a.Mint))
	assert.Equal(t, uint64(9e13*1e5), a.Amount)
	assert.Nil(t, a.Delegate)
	assert.Zero(t, a.DelegatedAmount)
	assert.Nil(t, a.CloseAuthority)
	assert.False(t, a.IsNative())
	assert.True(t, a.IsInitialized())
	assert.False(t, a.IsFrozen())

	_, ok := a.RentExemptReserve()
	assert.False(t, ok)

	assert.Equal(t, data, a.Marshal())

	var rtt Account
	require.NoError(t, rtt.Unmarshal(a.Marshal()))
	assert.Equal(t, a, rtt)
}

func TestAccount_RoundTrip(t *testing.T) {
	isNative := uint64(2039280)
	expected := Account{
		Mint:            filledKey(1),
		Owner:           filledKey(2),
		Amount:          10,
		Delegate:        filledKey(3),
		State:           AccountStateFrozen,
		IsNativeReserve: &isNative,
		DelegatedAmount: 5,
		CloseAuthority:  filledKey(4),
	}

	b := expected.Marshal()
	require.Len(t, b, AccountSize)

	var actual Account
	require.NoError(t, actual.Unmarshal(b))
	assert.Equal(t, expected, actual)

	assert.True(t, actual.IsFrozen())
	assert.True(t, actual.IsNative())
	reserve, ok := actual.RentExemptReserve()
	assert.True(t, ok)
	assert.EqualValues(t, 2039280, reserve)
}

func TestAccount_AbsentDelegateZeroesAmount(t *testing.T) {
	a := Account{
		Mint:            filledKey(1),
		Owner:           filledKey(2),
		DelegatedAmount: 99,
		State:           AccountStateInitialized,
	}

	var actual Account
	require.NoError(t, actual.Unmarshal(a.Marshal()))
	assert.Nil(t, actual.Delegate)
	assert.Zero(t, actual.DelegatedAmount)
}

func TestAccount_Invalid(t *testing.T) {
	var a Account

	err := a.Unmarshal(make([]byte, AccountSize-1))
	assert.ErrorIs(t, err, codec.ErrLayoutSizeMismatch)

	var mismatch *codec.LayoutSizeMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, AccountSize, mismatch.Expected)
	assert.Equal(t, AccountSize-1, mismatch.Actual)

	// delegate option tag of 2
	b := make([]byte, AccountSize)
	b[72] = 2
	assert.ErrorIs(t, a.Unmarshal(b), codec.ErrInvalidOptionTag)
}

func TestMint_RoundTrip(t *testing.T) {
	expected := Mint{
		MintAuthority: filledKey(1),
		Supply:        math.MaxUint64,
		Decimals:      9,
		IsInitialized: true,
	}

	b := expected.Marshal()
	require.Len(t, b, MintSize)

	// [u32 option][32 key][u64 supply][u8 decimals][u8 initialized][u32 option][32 key]
	assert.EqualValues(t, 1, binary.LittleEndian.Uint32(b[0:4]))
	assert.Equal(t, []byte(filledKey(1)), b[4:36])
	assert.Equal(t, bytes.Repeat([]byte{0xff}, 8), b[36:44])
	assert.EqualValues(t, 9, b[44])
	assert.EqualValues(t, 1, b[45])
	assert.EqualValues(t, 0, binary.LittleEndian.Uint32(b[46:50]))
	assert.Equal(t, make([]byte, 32), b[50:82])

	var actual Mint
	require.NoError(t, actual.Unmarshal(b))
	assert.Equal(t, expected, actual)
	assert.Nil(t, actual.FreezeAuthority)
}

func TestMint_AbsentIgnoresValueBytes(t *testing.T) {
	b := (&Mint{Supply: 1}).Marshal()
	copy(b[50:82], filledKey(7))

	var m Mint
	require.NoError(t, m.Unmarshal(b))
	assert.Nil(t, m.MintAuthority)
	assert.Nil(t, m.FreezeAuthority)
	assert.EqualValues(t, 1, m.Supply)

	assert.ErrorIs(t, m.Unmarshal(b[:MintSize-1]), codec.ErrLayoutSizeMismatch)
}

func TestMultisig_RoundTrip(t *testing.T) {
	expected := Multisig{
		M:             2,
		N:             3,
		IsInitialized: true,
	}
	for i := range expected.Signers {
		expected.Signers[i] = make(ed25519.PublicKey, ed25519.PublicKeySize)
	}
	for i := 0; i < 3; i++ {
		expected.Signers[i] = filledKey(byte(i + 1))
	}

	b := expected.Marshal()
	require.Len(t, b, MultisigAccountSize)
	assert.Equal(t, []byte{2, 3, 1}, b[:3])

	var actual Multisig
	require.NoError(t, actual.Unmarshal(b))
	assert.Equal(t, expected, actual)

	signers := actual.ValidSigners()
	require.Len(t, signers, 3)
	for i, s := range signers {
		assert.Equal(t, filledKey(byte(i+1)), s)
	}

	assert.ErrorIs(t, actual.Unmarshal(b[:100]), codec.ErrLayoutSizeMismatch)
}

func filledKey(v byte) ed25519.PublicKey {
	return bytes.Repeat([]byte{v}, ed25519.PublicKeySize)
}
