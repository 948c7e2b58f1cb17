package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Config carries every identity and address the orchestrators need. It is
// built once at startup and injected; nothing here is mutated after New.
type Config struct {
	RPCURL string
	Port   string

	// ServerKey signs settlement/oracle transactions and is the price
	// authority for variable payments. IssuerKey signs the offline issuance
	// transactions.
	ServerKey solana.PrivateKey
	IssuerKey solana.PrivateKey

	PaymentTokenMint solana.PublicKey

	StructuredProductProgram solana.PublicKey
	SnapshotHookProgram      solana.PublicKey
	TreasuryWalletProgram    solana.PublicKey
	OracleProgram            solana.PublicKey

	OracleAssetSymbol string

	KafkaURI    string // empty disables the event stream
	EnableKafka bool
}

type Params struct {
	RPCURL            string
	Port              string
	ServerSecretKey   string // JSON byte array, solana keygen format
	IssuerSecretKey   string
	PaymentTokenMint  string
	ProductProgram    string
	SnapshotProgram   string
	TreasuryProgram   string
	OracleProgram     string
	OracleAssetSymbol string
	KafkaURI          string
}

func New(p Params) (*Config, error) {
	serverKey, err := ParseSecretKey(p.ServerSecretKey)
	if err != nil {
		return nil, fmt.Errorf("parse server secret key: %w", err)
	}
	issuerKey, err := ParseSecretKey(p.IssuerSecretKey)
	if err != nil {
		return nil, fmt.Errorf("parse issuer secret key: %w", err)
	}

	cfg := &Config{
		RPCURL:            p.RPCURL,
		Port:              p.Port,
		ServerKey:         serverKey,
		IssuerKey:         issuerKey,
		OracleAssetSymbol: p.OracleAssetSymbol,
		KafkaURI:          p.KafkaURI,
		EnableKafka:       p.KafkaURI != "",
	}

	for _, addr := range []struct {
		name string
		raw  string
		dst  *solana.PublicKey
	}{
		{"payment_token_mint", p.PaymentTokenMint, &cfg.PaymentTokenMint},
		{"structured_product_program", p.ProductProgram, &cfg.StructuredProductProgram},
		{"snapshot_hook_program", p.SnapshotProgram, &cfg.SnapshotHookProgram},
		{"treasury_wallet_program", p.TreasuryProgram, &cfg.TreasuryWalletProgram},
		{"oracle_program", p.OracleProgram, &cfg.OracleProgram},
	} {
		pk, err := solana.PublicKeyFromBase58(addr.raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s %q: %w", addr.name, addr.raw, err)
		}
		*addr.dst = pk
	}
	return cfg, nil
}

// ParseSecretKey decodes a solana keygen style secret key: a JSON array of
// 64 bytes.
func ParseSecretKey(raw string) (solana.PrivateKey, error) {
	if len(raw) == 0 {
		return nil, errors.New("empty secret key")
	}
	var vals []int
	if err := json.Unmarshal([]byte(raw), &vals); err != nil {
		return nil, err
	}
	if len(vals) != 64 {
		return nil, fmt.Errorf("secret key length %d, want 64", len(vals))
	}
	bs := make([]byte, len(vals))
	for i, v := range vals {
		if v < 0 || v > 255 {
			return nil, fmt.Errorf("secret key byte %d out of range: %d", i, v)
		}
		bs[i] = byte(v)
	}
	return solana.PrivateKey(bs), nil
}
