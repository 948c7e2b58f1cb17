package ledger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/fqx-eng/noteserver/schema"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

var ErrAccountNotFound = errors.New("account_not_found")

// accountData fetches raw account bytes; ErrAccountNotFound when the account
// does not exist.
func (c *Client) accountData(ctx context.Context, pk solana.PublicKey) ([]byte, error) {
	res, err := c.rpc.GetAccountInfo(ctx, pk)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if res.Value == nil {
		return nil, ErrAccountNotFound
	}
	return res.Value.Data.GetBinary(), nil
}

// SnapshotConfig reads and decodes the note's on-ledger snapshot
// configuration. Layout (borsh, after the 8-byte discriminator):
// authority[32] | definedSnapshots u8 | snapshots vec<i64> | activatedDate option<i64>.
func (c *Client) SnapshotConfig(ctx context.Context, mint string) (schema.SnapshotConfig, error) {
	mintPk, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return schema.SnapshotConfig{}, err
	}
	cfgPda, err := c.snapshotConfigPDA(mintPk)
	if err != nil {
		return schema.SnapshotConfig{}, err
	}
	data, err := c.accountData(ctx, cfgPda)
	if err != nil {
		return schema.SnapshotConfig{}, err
	}
	return decodeSnapshotConfig(data)
}

func decodeSnapshotConfig(data []byte) (schema.SnapshotConfig, error) {
	var out schema.SnapshotConfig
	if len(data) < 8+32+1+4 {
		return out, fmt.Errorf("snapshot config account too short: %d bytes", len(data))
	}
	off := 8
	out.Authority = solana.PublicKeyFromBytes(data[off : off+32]).String()
	off += 32
	out.Defined = data[off]
	off++
	n := int(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4
	if len(data) < off+n*8+1 {
		return out, fmt.Errorf("snapshot config truncated: want %d snapshots", n)
	}
	out.Offsets = make([]int64, 0, n)
	for i := 0; i < n; i++ {
		out.Offsets = append(out.Offsets, int64(binary.LittleEndian.Uint64(data[off:off+8])))
		off += 8
	}
	if data[off] == 1 {
		if len(data) < off+9 {
			return out, errors.New("snapshot config activated date truncated")
		}
		out.ActivatedAt = int64(binary.LittleEndian.Uint64(data[off+1 : off+9]))
	}
	return out, nil
}

// CurrentPrice reads the oracle's current price for the configured asset.
func (c *Client) CurrentPrice(ctx context.Context) (uint64, error) {
	oracle, err := c.oraclePDA()
	if err != nil {
		return 0, err
	}
	data, err := c.accountData(ctx, oracle)
	if err != nil {
		return 0, err
	}
	return decodeOraclePrice(data)
}

// DummyOracle layout: authority[32] | assetSymbol string | currentPrice u64 |
// decimals u8 | lastUpdate i64 | bump u8.
func decodeOraclePrice(data []byte) (uint64, error) {
	if len(data) < 8+32+4 {
		return 0, fmt.Errorf("oracle account too short: %d bytes", len(data))
	}
	off := 8 + 32
	symLen := int(binary.LittleEndian.Uint32(data[off : off+4]))
	off += 4 + symLen
	if len(data) < off+8 {
		return 0, errors.New("oracle account truncated")
	}
	return binary.LittleEndian.Uint64(data[off : off+8]), nil
}

// PaymentPaid reads the settle-payment paid marker for this payment and
// beneficiary token account. Missing account means not yet settled.
func (c *Client) PaymentPaid(ctx context.Context, p schema.ScheduledPayment) (bool, error) {
	keys, err := parsePayment(p)
	if err != nil {
		return false, err
	}
	payment, err := c.paymentPDA(keys.mint, p.Principal, p.SnapshotOffset)
	if err != nil {
		return false, err
	}
	marker, err := c.paymentPaidPDA(payment, keys.beneficiaryTokenAccount)
	if err != nil {
		return false, err
	}
	data, err := c.accountData(ctx, marker)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}
	return len(data) > 8 && data[8] == 1, nil
}

// EscrowFunded reports whether the pull step already moved funds into the
// payment escrow for this (mint, principal, offset) triple.
func (c *Client) EscrowFunded(ctx context.Context, p schema.ScheduledPayment) (bool, error) {
	keys, err := parsePayment(p)
	if err != nil {
		return false, err
	}
	payment, err := c.paymentPDA(keys.mint, p.Principal, p.SnapshotOffset)
	if err != nil {
		return false, err
	}
	escrow, err := associatedTokenAddress(payment, c.cfg.PaymentTokenMint)
	if err != nil {
		return false, err
	}
	bal, err := c.rpc.GetTokenAccountBalance(ctx, escrow, rpc.CommitmentConfirmed)
	if err != nil {
		// account not created yet: nothing pulled
		return false, nil
	}
	amount, err := strconv.ParseUint(bal.Value.Amount, 10, 64)
	if err != nil {
		return false, err
	}
	return amount > 0, nil
}

// PaymentTokenDecimals reads the payment mint's decimal precision, cached.
func (c *Client) PaymentTokenDecimals(ctx context.Context) (uint8, error) {
	if data, ok := c.cache.get("payment_mint_decimals"); ok && len(data) == 1 {
		return data[0], nil
	}
	data, err := c.accountData(ctx, c.cfg.PaymentTokenMint)
	if err != nil {
		return 0, err
	}
	// token mint layout: mintAuthorityOption u32 | mintAuthority[32] |
	// supply u64 | decimals u8 | ...
	if len(data) < 45 {
		return 0, fmt.Errorf("payment mint account too short: %d bytes", len(data))
	}
	decimals := data[44]
	c.cache.set("payment_mint_decimals", []byte{decimals})
	return decimals, nil
}

// PaymentTokenBalance resolves the owner's payment-token ATA and its balance.
// exists is false when the account has not been created.
func (c *Client) PaymentTokenBalance(ctx context.Context, owner string) (string, uint64, bool, error) {
	ownerPk, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return "", 0, false, err
	}
	ata, err := associatedTokenAddress(ownerPk, c.cfg.PaymentTokenMint)
	if err != nil {
		return "", 0, false, err
	}
	bal, err := c.rpc.GetTokenAccountBalance(ctx, ata, rpc.CommitmentConfirmed)
	if err != nil {
		return ata.String(), 0, false, nil
	}
	amount, err := strconv.ParseUint(bal.Value.Amount, 10, 64)
	if err != nil {
		return ata.String(), 0, false, err
	}
	return ata.String(), amount, true, nil
}

// BeneficiaryAccounts derives the investor's note and payment token accounts
// for a mint. Pure address derivation, no ledger reads.
func (c *Client) BeneficiaryAccounts(mint, investor string) (schema.Beneficiary, error) {
	mintPk, err := solana.PublicKeyFromBase58(mint)
	if err != nil {
		return schema.Beneficiary{}, err
	}
	investorPk, err := solana.PublicKeyFromBase58(investor)
	if err != nil {
		return schema.Beneficiary{}, err
	}
	noteAcc, err := associatedTokenAddress(investorPk, mintPk)
	if err != nil {
		return schema.Beneficiary{}, err
	}
	payAcc, err := associatedTokenAddress(investorPk, c.cfg.PaymentTokenMint)
	if err != nil {
		return schema.Beneficiary{}, err
	}
	return schema.Beneficiary{
		Address:             investor,
		TokenAccount:        noteAcc.String(),
		PaymentTokenAccount: payAcc.String(),
	}, nil
}

// FetchNonce reads the stored nonce value out of a durable nonce account.
// Nonce account layout: version u32 | state u32 | authority[32] | nonce[32] | feeCalculator u64.
func (c *Client) FetchNonce(ctx context.Context, nonceAccount solana.PublicKey) (solana.Hash, error) {
	data, err := c.accountData(ctx, nonceAccount)
	if err != nil {
		return solana.Hash{}, err
	}
	if len(data) < 72 {
		return solana.Hash{}, fmt.Errorf("nonce account too short: %d bytes", len(data))
	}
	return solana.HashFromBytes(data[40:72]), nil
}

type paymentKeys struct {
	mint                           solana.PublicKey
	beneficiary                    solana.PublicKey
	beneficiaryTokenAccount        solana.PublicKey
	beneficiaryPaymentTokenAccount solana.PublicKey
}

func parsePayment(p schema.ScheduledPayment) (paymentKeys, error) {
	var keys paymentKeys
	var err error
	if keys.mint, err = solana.PublicKeyFromBase58(p.Mint); err != nil {
		return keys, fmt.Errorf("parse mint: %w", err)
	}
	if keys.beneficiary, err = solana.PublicKeyFromBase58(p.Beneficiary); err != nil {
		return keys, fmt.Errorf("parse beneficiary: %w", err)
	}
	if keys.beneficiaryTokenAccount, err = solana.PublicKeyFromBase58(p.BeneficiaryTokenAccount); err != nil {
		return keys, fmt.Errorf("parse beneficiary token account: %w", err)
	}
	if keys.beneficiaryPaymentTokenAccount, err = solana.PublicKeyFromBase58(p.BeneficiaryPaymentTokenAccount); err != nil {
		return keys, fmt.Errorf("parse beneficiary payment token account: %w", err)
	}
	return keys, nil
}
