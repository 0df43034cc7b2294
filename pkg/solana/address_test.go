package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"hash"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProgramAddress(t *testing.T) {
	exceededSeed := make([]byte, maxSeedLength+1)
	maxSeed := make([]byte, maxSeedLength)

	// Vectors from the Solana SDK test suite, typo included.
	publicKey, err := base58.Decode("SeedPubey1111111111111111111111111111111111")
	require.NoError(t, err)
	programID, err := base58.Decode("BPFLoader1111111111111111111111111111111111")
	require.NoError(t, err)

	_, err = CreateProgramAddress(programID, exceededSeed)
	assert.Equal(t, ErrMaxSeedLengthExceeded, err)
	_, err = CreateProgramAddress(programID, []byte("short seed"), exceededSeed)
	assert.Equal(t, ErrMaxSeedLengthExceeded, err)

	_, err = CreateProgramAddress(programID, maxSeed)
	assert.NoError(t, err)

	for _, tc := range []struct {
		expected string
		input    [][]byte
	}{
		{
			expected: "3gF2KMe9KiC6FNVBmfg9i267aMPvK37FewCip4eGBFcT",
			input:    [][]byte{{}, {1}},
		},
		{
			expected: "7ytmC1nT1xY4RfxCV2ZgyA7UakC93do5ZdyhdF3EtPj7",
			input:    [][]byte{[]byte("☉")},
		},
		{
			expected: "HwRVBufQ4haG5XSgpspwKtNd3PC9GM9m1196uJW36vds",
			input:    [][]byte{[]byte("Talking"), []byte("Squirrels")},
		},
		{
			expected: "GUs5qLUfsEHkcMB9T38vjr18ypEhRuNWiePW2LoK4E3K",
			input:    [][]byte{publicKey},
		},
	} {
		key, err := CreateProgramAddress(programID, tc.input...)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, base58.Encode(key))
		assert.False(t, IsOnCurve(key))
	}

	a, err := CreateProgramAddress(programID, []byte("Talking"))
	assert.NoError(t, err)
	b, err := CreateProgramAddress(programID, []byte("Talking"), []byte("Squirrels"))
	assert.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCreateProgramAddress_TooManySeeds(t *testing.T) {
	programID, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	seeds := make([][]byte, maxSeeds+1)
	for i := range seeds {
		seeds[i] = []byte{byte(i)}
	}

	_, err = CreateProgramAddress(programID, seeds...)
	assert.Equal(t, ErrTooManySeeds, err)

	_, err = FindProgramAddress(programID, seeds[:maxSeeds]...)
	assert.Equal(t, ErrTooManySeeds, err)
}

type fixedHash struct {
	sumResult []byte
	writes    int
}

func (f *fixedHash) Write(p []byte) (n int, err error) {
	f.writes++
	return len(p), nil
}

func (f *fixedHash) Sum(b []byte) []byte {
	return f.sumResult
}

func (f *fixedHash) Reset() {
}

func (f *fixedHash) Size() int {
	return sha256.Size
}

func (f *fixedHash) BlockSize() int {
	return sha256.BlockSize
}

func withFixedHash(t *testing.T, sum []byte) *int {
	var ctorCalls int
	programHashCtor = func() hash.Hash {
		ctorCalls++
		return &fixedHash{sumResult: sum}
	}
	t.Cleanup(func() {
		programHashCtor = sha256.New
	})
	return &ctorCalls
}

func TestCreateProgramAddress_OnCurve(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	require.True(t, IsOnCurve(pub))

	withFixedHash(t, pub)

	programID, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	_, err = CreateProgramAddress(programID, []byte("Lil'"), []byte("Bits"))
	assert.Equal(t, ErrInvalidPublicKey, err)
}

func TestFindProgramAddress_Exhausted(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	attempts := withFixedHash(t, pub)

	programID, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	_, _, err = FindProgramAddressAndBump(programID, []byte("seed"))
	assert.Equal(t, ErrNoValidProgramAddress, err)
	assert.Equal(t, 256, *attempts)
}

func TestFindProgramAddress(t *testing.T) {
	for i := 0; i < 1000; i++ {
		programID, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)

		address, nonce, err := FindProgramAddressAndBump(programID, []byte("Lil'"), []byte("Bits"))
		require.NoError(t, err)
		assert.False(t, IsOnCurve(address))

		// Every nonce above the winning one produced an on-curve candidate.
		for n := 255; n > int(nonce); n-- {
			_, err := CreateProgramAddress(programID, []byte("Lil'"), []byte("Bits"), []byte{byte(n)})
			require.Equal(t, ErrInvalidPublicKey, err)
		}

		again, err := FindProgramAddress(programID, []byte("Lil'"), []byte("Bits"))
		require.NoError(t, err)
		assert.Equal(t, address, again)
	}
}

func TestFindProgramAddress_Ref(t *testing.T) {
	references := []struct {
		programID string
		expected  string
	}{
		{
			programID: "4uQeVj5tqViQh7yWWGStvkEG1Zmhx6uasJtWCJziofM",
			expected:  "Bn9pAWUXWc5Kd849xTkQcHqiCbHUEizLFn4r5Cf8XYnd",
		},
		{
			programID: "8opHzTAnfzRpPEx21XtnrVTX28YQuCpAjcn1PczScKh",
			expected:  "oDvUHiiGdMo31xYzjefAzUekWH8EbCKrxgs2FkyTs1S",
		},
		{
			programID: "CiDwVBFgWV9E5MvXWoLgnEgn2hK7rJikbvfWavzAQz3",
			expected:  "B2vBn2bmF9GuaGkebrm8oUqDC34pE6m4bagjNcVE6msv",
		},
		{
			programID: "21Z7hRtGQYRi8NocdZzhRuBRt9UZbFXbm1dKYvevp4vB",
			expected:  "9PPbRbNP3rqwzk16r7NDBzk1YDfo9EpWDWSqCYLn5eaF",
		},
		{
			programID: "2M59vuWgsiuHAqQVB6KvuXuaBCJR8138gMAm4uCuR6Du",
			expected:  "E5dLtHAM353EPnHyuZ32sKREn26VW4Y8bzb2KQJTBHQh",
		},
	}

	for _, r := range references {
		programID, err := base58.Decode(r.programID)
		require.NoError(t, err)

		actual, err := FindProgramAddress(programID, []byte("Lil'"), []byte("Bits"))
		require.NoError(t, err)
		assert.Equal(t, r.expected, base58.Encode(actual))
	}
}

func TestProgramAccount(t *testing.T) {
	programID, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	seeds := [][]byte{[]byte("vault"), make([]byte, maxSeedLength)}
	account, err := NewProgramAccount(programID, seeds...)
	require.NoError(t, err)

	expected, nonce, err := FindProgramAddressAndBump(programID, seeds...)
	require.NoError(t, err)
	assert.Equal(t, expected, account.Address)
	assert.Equal(t, nonce, account.Nonce)
	assert.Equal(t, seeds, account.Seeds)
	assert.Len(t, account.SignerSeeds(), 3)
	assert.NoError(t, account.Verify())

	account.Nonce--
	assert.Error(t, account.Verify())

	_, err = NewProgramAccount(programID, make([]byte, maxSeedLength+1))
	assert.Equal(t, ErrMaxSeedLengthExceeded, err)
}
