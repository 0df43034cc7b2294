package binary

import (
	"crypto/ed25519"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_FixedLayout(t *testing.T) {
	var (
		op       uint8  = 7
		amount   uint64 = 0x0102030405060708
		decimals uint8  = 9
	)

	b := Encode(Uint8(&op), Uint64(&amount), Uint8(&decimals))
	assert.Equal(t, []byte{7, 8, 7, 6, 5, 4, 3, 2, 1, 9}, b)
	assert.Equal(t, 10, Span(Uint8(&op), Uint64(&amount), Uint8(&decimals)))
}

func TestUint64_Extremes(t *testing.T) {
	for _, v := range []uint64{0, 1, math.MaxUint32 + 1, math.MaxUint64} {
		in := v
		b := Encode(Uint64(&in))
		require.Len(t, b, 8)

		var out uint64
		require.NoError(t, Decode(b, Uint64(&out)))
		assert.Equal(t, v, out)
	}
}

func TestDecode_SizeMismatch(t *testing.T) {
	var a uint64
	var k ed25519.PublicKey

	err := Decode(make([]byte, 39), Uint64(&a), Key32(&k))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLayoutSizeMismatch))

	var mismatch *LayoutSizeMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, 40, mismatch.Expected)
	assert.Equal(t, 39, mismatch.Actual)

	err = Decode(make([]byte, 41), Uint64(&a), Key32(&k))
	assert.True(t, errors.Is(err, ErrLayoutSizeMismatch))
}

func TestOptionalKey32(t *testing.T) {
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	for i := range key {
		key[i] = byte(i + 1)
	}

	for _, tagSize := range []OptionTag{OptionTag8, OptionTag32} {
		present := key
		b := Encode(OptionalKey32(&present, tagSize))
		require.Len(t, b, int(tagSize)+32)
		assert.EqualValues(t, 1, b[0])
		assert.Equal(t, []byte(key), b[tagSize:])

		var decoded ed25519.PublicKey
		require.NoError(t, Decode(b, OptionalKey32(&decoded, tagSize)))
		assert.Equal(t, key, decoded)

		var absent ed25519.PublicKey
		b = Encode(OptionalKey32(&absent, tagSize))
		assert.Equal(t, make([]byte, tagSize+32), b)

		decoded = key
		require.NoError(t, Decode(b, OptionalKey32(&decoded, tagSize)))
		assert.Nil(t, decoded)
	}
}

func TestOptional_AbsentIgnoresValueBytes(t *testing.T) {
	b := make([]byte, OptionTag32+32)
	for i := int(OptionTag32); i < len(b); i++ {
		b[i] = 0xff
	}

	var k ed25519.PublicKey
	require.NoError(t, Decode(b, OptionalKey32(&k, OptionTag32)))
	assert.Nil(t, k)

	b = make([]byte, OptionTag32+8)
	for i := int(OptionTag32); i < len(b); i++ {
		b[i] = 0xff
	}

	v := new(uint64)
	require.NoError(t, Decode(b, OptionalUint64(&v, OptionTag32)))
	assert.Nil(t, v)
}

func TestOptional_InvalidTag(t *testing.T) {
	var k ed25519.PublicKey

	b := make([]byte, OptionTag32+32)
	b[0] = 2
	err := Decode(b, OptionalKey32(&k, OptionTag32))
	assert.True(t, errors.Is(err, ErrInvalidOptionTag))

	b = make([]byte, OptionTag32+32)
	b[1] = 1
	err = Decode(b, OptionalKey32(&k, OptionTag32))
	assert.True(t, errors.Is(err, ErrInvalidOptionTag))

	var v *uint64
	b = make([]byte, OptionTag8+8)
	b[0] = 3
	err = Decode(b, OptionalUint64(&v, OptionTag8))
	assert.True(t, errors.Is(err, ErrInvalidOptionTag))
}

func TestOptionalUint64(t *testing.T) {
	val := uint64(math.MaxUint64)
	v := &val

	b := Encode(OptionalUint64(&v, OptionTag32))
	assert.Equal(t, []byte{1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}, b)

	var decoded *uint64
	require.NoError(t, Decode(b, OptionalUint64(&decoded, OptionTag32)))
	require.NotNil(t, decoded)
	assert.Equal(t, val, *decoded)
}

func TestBoolBlobPadding(t *testing.T) {
	flag := true
	blob := []byte{1, 2, 3}

	b := Encode(Bool(&flag), Blob(&blob, 5), Padding(2))
	assert.Equal(t, []byte{1, 1, 2, 3, 0, 0, 0, 0}, b)

	b[6] = 9
	var decodedFlag bool
	var decodedBlob []byte
	require.NoError(t, Decode(b, Bool(&decodedFlag), Blob(&decodedBlob, 5), Padding(2)))
	assert.True(t, decodedFlag)
	assert.Equal(t, []byte{1, 2, 3, 0, 0}, decodedBlob)
}

func TestBlobTruncates(t *testing.T) {
	blob := []byte{1, 2, 3, 4, 5, 6}
	assert.Equal(t, []byte{1, 2, 3, 4}, Encode(Blob(&blob, 4)))
}

func TestOptionTag_InvalidWidth(t *testing.T) {
	assert.True(t, OptionTag8.Valid())
	assert.True(t, OptionTag32.Valid())
	assert.False(t, OptionTag(2).Valid())

	var k ed25519.PublicKey
	var v *uint64
	assert.Panics(t, func() { OptionalKey32(&k, 2) })
	assert.Panics(t, func() { OptionalUint64(&v, 0) })
	assert.NotPanics(t, func() { OptionalUint64(&v, OptionTag8) })
}

func TestUint32Uint8RoundTrip(t *testing.T) {
	a, c := uint32(math.MaxUint32), uint8(math.MaxUint8)
	b := Encode(Uint32(&a), Uint8(&c))

	var a2 uint32
	var c2 uint8
	require.NoError(t, Decode(b, Uint32(&a2), Uint8(&c2)))
	assert.Equal(t, a, a2)
	assert.Equal(t, c, c2)
}
