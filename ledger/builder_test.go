package ledger

import (
	"encoding/binary"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
)

func ixBytes(t *testing.T, ix solana.Instruction) []byte {
	data, err := ix.Data()
	assert.NoError(t, err)
	return data
}

func TestSysCreateAccount(t *testing.T) {
	fromKey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	newKey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	ownerKey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	owner := ownerKey.PublicKey()

	ix := sysCreateAccount(fromKey.PublicKey(), newKey.PublicKey(), 1447680, nonceAccountLen, owner)
	assert.Equal(t, solana.SystemProgramID, ix.ProgramID())

	data := ixBytes(t, ix)
	assert.Len(t, data, 4+8+8+32)
	assert.Equal(t, uint32(sysIxCreateAccount), binary.LittleEndian.Uint32(data[:4]))
	assert.Equal(t, uint64(1447680), binary.LittleEndian.Uint64(data[4:12]))
	assert.Equal(t, uint64(nonceAccountLen), binary.LittleEndian.Uint64(data[12:20]))
	assert.Equal(t, owner.Bytes(), data[20:])

	// both the funder and the new account sign
	metas := ix.Accounts()
	assert.Len(t, metas, 2)
	assert.True(t, metas[0].IsSigner)
	assert.True(t, metas[1].IsSigner)
}

func TestSysAdvanceNonce(t *testing.T) {
	nonceKey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	authKey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)

	ix := sysAdvanceNonce(nonceKey.PublicKey(), authKey.PublicKey())
	assert.Equal(t, uint32(sysIxAdvanceNonce), binary.LittleEndian.Uint32(ixBytes(t, ix)))

	metas := ix.Accounts()
	assert.Len(t, metas, 3)
	assert.True(t, metas[0].IsWritable)
	assert.Equal(t, solana.SysVarRecentBlockHashesPubkey, metas[1].PublicKey)
	// nonce authority signs but is not written
	assert.True(t, metas[2].IsSigner)
	assert.False(t, metas[2].IsWritable)
}

func TestCreateATAIx(t *testing.T) {
	payerKey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	ownerKey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	mintKey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	owner, mint := ownerKey.PublicKey(), mintKey.PublicKey()

	ata, ix, err := createATAIx(payerKey.PublicKey(), owner, mint, false)
	assert.NoError(t, err)
	assert.Equal(t, solana.SPLAssociatedTokenAccountProgramID, ix.ProgramID())
	assert.Equal(t, []byte{ataIxCreate}, ixBytes(t, ix))

	expected, err := associatedTokenAddress(owner, mint)
	assert.NoError(t, err)
	assert.Equal(t, expected, ata)
	assert.Equal(t, ata, ix.Accounts()[1].PublicKey)
	assert.Equal(t, Token2022ProgramID, ix.Accounts()[5].PublicKey)

	_, ix, err = createATAIx(payerKey.PublicKey(), owner, mint, true)
	assert.NoError(t, err)
	assert.Equal(t, []byte{ataIxCreateIdem}, ixBytes(t, ix))
}

func TestMintToIx(t *testing.T) {
	mintKey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	destKey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	authKey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)

	ix := mintToIx(mintKey.PublicKey(), destKey.PublicKey(), authKey.PublicKey(), 8000000)
	assert.Equal(t, Token2022ProgramID, ix.ProgramID())

	data := ixBytes(t, ix)
	assert.Equal(t, byte(tokenIxMintTo), data[0])
	assert.Equal(t, uint64(8000000), binary.LittleEndian.Uint64(data[1:]))
}

func TestSettlePaymentIx(t *testing.T) {
	c := testClient(t)
	mintKey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	mint := mintKey.PublicKey()
	newPk := func() solana.PublicKey {
		key, err := solana.NewRandomPrivateKey()
		assert.NoError(t, err)
		return key.PublicKey()
	}

	ix, err := c.settlePaymentIx(mint, newPk(), newPk(), newPk(), true, 3600)
	assert.NoError(t, err)
	assert.Equal(t, c.cfg.StructuredProductProgram, ix.ProgramID())

	data := ixBytes(t, ix)
	assert.Equal(t, anchorDiscriminator("settle_payment"), data[:8])
	assert.Equal(t, int64(3600), int64(binary.LittleEndian.Uint64(data[8:16])))

	// the server identity pays and signs the settlement
	metas := ix.Accounts()
	assert.Equal(t, c.serverKey.PublicKey(), metas[0].PublicKey)
	assert.True(t, metas[0].IsSigner)
}

func TestSetPaymentPriceIx(t *testing.T) {
	c := testClient(t)
	mintKey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)

	ix, err := c.setPaymentPriceIx(mintKey.PublicKey(), true, 3600, 42000)
	assert.NoError(t, err)

	data := ixBytes(t, ix)
	assert.Equal(t, anchorDiscriminator("set_payment_price"), data[:8])
	assert.Equal(t, int64(3600), int64(binary.LittleEndian.Uint64(data[8:16])))
	assert.Equal(t, uint64(42000), binary.LittleEndian.Uint64(data[16:24]))
}
