package system

import (
	"crypto/ed25519"
	"encoding/binary"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/solray/pkg/solana"
	"github.com/code-payments/solray/pkg/solana/solanatest"
)

func TestCreateAccount(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := CreateAccount(keys[0], keys[1], keys[2], 12345, 67890)

	command := make([]byte, 4)
	lamports := make([]byte, 8)
	binary.LittleEndian.PutUint64(lamports, 12345)
	size := make([]byte, 8)
	binary.LittleEndian.PutUint64(size, 67890)

	require.Len(t, instruction.Data, 52)
	assert.Equal(t, command, instruction.Data[0:4])
	assert.Equal(t, lamports, instruction.Data[4:12])
	assert.Equal(t, size, instruction.Data[12:20])
	assert.Equal(t, []byte(keys[2]), instruction.Data[20:52])

	require.Len(t, instruction.Accounts, 2)
	for i, a := range instruction.Accounts {
		assert.Equal(t, keys[i], a.PublicKey)
		assert.True(t, a.IsSigner)
		assert.True(t, a.IsWritable)
	}

	var tx solana.Transaction
	require.NoError(t, tx.Unmarshal(solana.NewTransaction(keys[0], instruction).Marshal()))

	decompiled, err := DecompileCreateAccount(tx.Message, 0)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Funder)
	assert.Equal(t, keys[1], decompiled.Address)
	assert.Equal(t, keys[2], decompiled.Owner)
	assert.EqualValues(t, 12345, decompiled.Lamports)
	assert.EqualValues(t, 67890, decompiled.Size)
}

func TestDecompileNonCreate(t *testing.T) {
	keys := generateKeys(t, 4)

	instruction := CreateAccount(keys[0], keys[1], keys[2], 12345, 67890)

	instruction.Accounts = instruction.Accounts[:1]
	_, err := DecompileCreateAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "invalid number of accounts"), err)

	binary.LittleEndian.PutUint32(instruction.Data, commandAllocate)
	_, err = DecompileCreateAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Data = make([]byte, 3)
	_, err = DecompileCreateAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	instruction.Program = keys[3]
	_, err = DecompileCreateAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)

	_, err = DecompileCreateAccount(solana.NewTransaction(keys[0], instruction).Message, 1)
	assert.NotNil(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "instruction doesn't exist"))
}

func TestDecompileCreateAccount_TruncatedData(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := CreateAccount(keys[0], keys[1], keys[2], 1, 2)
	instruction.Data = instruction.Data[:20]

	_, err := DecompileCreateAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	assert.Error(t, err)
}

func TestTransfer(t *testing.T) {
	keys := generateKeys(t, 2)

	instruction := Transfer(keys[0], keys[1], 5000)

	expected := make([]byte, 12)
	binary.LittleEndian.PutUint32(expected, commandTransfer)
	binary.LittleEndian.PutUint64(expected[4:], 5000)
	assert.Equal(t, expected, instruction.Data)
	assert.EqualValues(t, ProgramKey[:], instruction.Program)

	require.Len(t, instruction.Accounts, 2)
	assert.True(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.True(t, instruction.Accounts[1].IsWritable)

	decompiled, err := DecompileTransfer(solana.NewTransaction(keys[0], instruction).Message, 0)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.From)
	assert.Equal(t, keys[1], decompiled.To)
	assert.EqualValues(t, 5000, decompiled.Lamports)

	create := CreateAccount(keys[0], keys[1], keys[1], 1, 1)
	_, err = DecompileTransfer(solana.NewTransaction(keys[0], create).Message, 0)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)
}

func TestCreateRentExemptAccount(t *testing.T) {
	keys := generateKeys(t, 3)
	client := solanatest.NewClient()

	instruction, err := CreateRentExemptAccount(client, keys[0], keys[1], keys[2], 165)
	require.NoError(t, err)

	decompiled, err := DecompileCreateAccount(solana.NewTransaction(keys[0], instruction).Message, 0)
	require.NoError(t, err)
	assert.EqualValues(t, solanatest.RentExemptMinimum(165), decompiled.Lamports)
	assert.EqualValues(t, 165, decompiled.Size)
	assert.Equal(t, keys[2], decompiled.Owner)
	assert.Equal(t, 1, client.RentCalls())
}

type failingRentClient struct {
	solana.Client
}

func (failingRentClient) GetMinimumBalanceForRentExemption(uint64) (uint64, error) {
	return 0, errors.New("unavailable")
}

func TestCreateRentExemptAccount_ClientError(t *testing.T) {
	keys := generateKeys(t, 3)

	_, err := CreateRentExemptAccount(failingRentClient{}, keys[0], keys[1], keys[2], 82)
	assert.Error(t, err)
}

func TestSysVars(t *testing.T) {
	assert.Equal(t, ProgramKey[:], []byte(SystemAccount))
	assert.Len(t, RentSysVar, ed25519.PublicKeySize)
	assert.Len(t, RecentBlockhashesSysVar, ed25519.PublicKeySize)
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = pub
	}

	return keys
}
