package config

import (
	"encoding/json"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
)

// keygenJSON renders a key the way solana-keygen writes it: a JSON array of
// 64 byte values.
func keygenJSON(t *testing.T) (string, solana.PrivateKey) {
	key, err := solana.NewRandomPrivateKey()
	assert.NoError(t, err)
	ints := make([]int, len(key))
	for i, b := range key {
		ints[i] = int(b)
	}
	raw, err := json.Marshal(ints)
	assert.NoError(t, err)
	return string(raw), key
}

func TestParseSecretKey(t *testing.T) {
	raw, key := keygenJSON(t)
	parsed, err := ParseSecretKey(raw)
	assert.NoError(t, err)
	assert.Equal(t, key.PublicKey(), parsed.PublicKey())

	_, err = ParseSecretKey("")
	assert.Error(t, err)

	_, err = ParseSecretKey("[1,2,3]")
	assert.Error(t, err)

	_, err = ParseSecretKey("not json")
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	serverRaw, serverKey := keygenJSON(t)
	issuerRaw, _ := keygenJSON(t)
	pk := func() string {
		key, err := solana.NewRandomPrivateKey()
		assert.NoError(t, err)
		return key.PublicKey().String()
	}

	p := Params{
		RPCURL:            "http://localhost:8899",
		Port:              ":8080",
		ServerSecretKey:   serverRaw,
		IssuerSecretKey:   issuerRaw,
		PaymentTokenMint:  pk(),
		ProductProgram:    pk(),
		SnapshotProgram:   pk(),
		TreasuryProgram:   pk(),
		OracleProgram:     pk(),
		OracleAssetSymbol: "BTC",
	}
	cfg, err := New(p)
	assert.NoError(t, err)
	assert.Equal(t, serverKey.PublicKey(), cfg.ServerKey.PublicKey())
	assert.Equal(t, "BTC", cfg.OracleAssetSymbol)
	assert.False(t, cfg.EnableKafka)

	p.KafkaURI = "localhost:9092"
	cfg, err = New(p)
	assert.NoError(t, err)
	assert.True(t, cfg.EnableKafka)

	p.ProductProgram = "bad!!"
	_, err = New(p)
	assert.Error(t, err)

	p.ProductProgram = pk()
	p.ServerSecretKey = "[]"
	_, err = New(p)
	assert.Error(t, err)
}
