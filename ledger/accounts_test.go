package ledger

import (
	"encoding/binary"
	"testing"

	"github.com/fqx-eng/noteserver/schema"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
)

func snapshotConfigBytes(authority solana.PublicKey, defined uint8, offsets []int64, activatedAt int64) []byte {
	data := make([]byte, 8) // discriminator
	data = append(data, authority.Bytes()...)
	data = append(data, defined)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(offsets)))
	for _, o := range offsets {
		data = binary.LittleEndian.AppendUint64(data, uint64(o))
	}
	if activatedAt > 0 {
		data = append(data, 1)
		data = binary.LittleEndian.AppendUint64(data, uint64(activatedAt))
	} else {
		data = append(data, 0)
	}
	return data
}

func TestDecodeSnapshotConfig(t *testing.T) {
	authKey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	auth := authKey.PublicKey()

	cfg, err := decodeSnapshotConfig(snapshotConfigBytes(auth, 2, []int64{1800, 3600}, 1700000000))
	assert.NoError(t, err)
	assert.Equal(t, schema.SnapshotConfig{
		Authority:   auth.String(),
		Defined:     2,
		Offsets:     []int64{1800, 3600},
		ActivatedAt: 1700000000,
	}, cfg)
	assert.True(t, cfg.Activated())

	// option tag 0: not activated yet
	cfg, err = decodeSnapshotConfig(snapshotConfigBytes(auth, 2, []int64{1800, 3600}, 0))
	assert.NoError(t, err)
	assert.Equal(t, int64(0), cfg.ActivatedAt)
	assert.False(t, cfg.Activated())

	_, err = decodeSnapshotConfig([]byte{1, 2, 3})
	assert.Error(t, err)

	// vec length claims more snapshots than the account holds
	truncated := snapshotConfigBytes(auth, 2, []int64{1800}, 0)
	binary.LittleEndian.PutUint32(truncated[8+32+1:], 9)
	_, err = decodeSnapshotConfig(truncated)
	assert.Error(t, err)
}

func oracleBytes(authority solana.PublicKey, symbol string, price uint64) []byte {
	data := make([]byte, 8)
	data = append(data, authority.Bytes()...)
	data = binary.LittleEndian.AppendUint32(data, uint32(len(symbol)))
	data = append(data, symbol...)
	data = binary.LittleEndian.AppendUint64(data, price)
	data = append(data, 9) // decimals
	data = binary.LittleEndian.AppendUint64(data, 1700000000)
	data = append(data, 255) // bump
	return data
}

func TestDecodeOraclePrice(t *testing.T) {
	authKey, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)

	price, err := decodeOraclePrice(oracleBytes(authKey.PublicKey(), "BTC", 42000))
	assert.NoError(t, err)
	assert.Equal(t, uint64(42000), price)

	// the symbol is length-prefixed, so the price offset moves with it
	price, err = decodeOraclePrice(oracleBytes(authKey.PublicKey(), "SOLUSD", 180))
	assert.NoError(t, err)
	assert.Equal(t, uint64(180), price)

	_, err = decodeOraclePrice([]byte{0, 1, 2})
	assert.Error(t, err)

	short := oracleBytes(authKey.PublicKey(), "BTC", 42000)
	_, err = decodeOraclePrice(short[:8+32+4+3+2])
	assert.Error(t, err)
}

func TestParsePayment(t *testing.T) {
	newPk := func() string {
		key, err := solana.NewRandomPrivateKey()
		assert.NoError(t, err)
		return key.PublicKey().String()
	}
	p := schema.ScheduledPayment{
		Mint:                           newPk(),
		Beneficiary:                    newPk(),
		BeneficiaryTokenAccount:        newPk(),
		BeneficiaryPaymentTokenAccount: newPk(),
	}
	keys, err := parsePayment(p)
	assert.NoError(t, err)
	assert.Equal(t, p.Mint, keys.mint.String())
	assert.Equal(t, p.BeneficiaryTokenAccount, keys.beneficiaryTokenAccount.String())

	p.Mint = "not-base58-!!"
	_, err = parsePayment(p)
	assert.Error(t, err)
}
