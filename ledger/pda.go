package ledger

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// Token-2022 program; the note mint carries a transfer-hook extension and the
// payment mint is a token-2022 mint, so the classic token program never
// appears in these transactions.
var Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

// mint account size with the transfer-hook extension TLV
const mintLenTransferHook = 234

// size of a system nonce account
const nonceAccountLen = 80

func pda(programID solana.PublicKey, seeds ...[]byte) (solana.PublicKey, error) {
	pk, _, err := solana.FindProgramAddress(seeds, programID)
	return pk, err
}

// structuredProductPDA: [mint] under the structured product program.
func (c *Client) structuredProductPDA(mint solana.PublicKey) (solana.PublicKey, error) {
	return pda(c.cfg.StructuredProductProgram, mint.Bytes())
}

// paymentPDA: [structuredProduct, principalFlag, paymentDateOffsetLE] under
// the structured product program. One per (mint, principal, offset) triple.
func (c *Client) paymentPDA(mint solana.PublicKey, principal bool, offset int64) (solana.PublicKey, error) {
	sp, err := c.structuredProductPDA(mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	flag := []byte{0}
	if principal {
		flag[0] = 1
	}
	offsetBuf := make([]byte, 8)
	binary.LittleEndian.PutUint64(offsetBuf, uint64(offset))
	return pda(c.cfg.StructuredProductProgram, sp.Bytes(), flag, offsetBuf)
}

// paymentPaidPDA: [payment, beneficiaryTokenAccount]; the ledger-side
// idempotency marker written by settle_payment.
func (c *Client) paymentPaidPDA(payment, beneficiaryTokenAccount solana.PublicKey) (solana.PublicKey, error) {
	return pda(c.cfg.StructuredProductProgram, payment.Bytes(), beneficiaryTokenAccount.Bytes())
}

// snapshotConfigPDA: ["snapshots", mint] under the snapshot hook program.
func (c *Client) snapshotConfigPDA(mint solana.PublicKey) (solana.PublicKey, error) {
	return pda(c.cfg.SnapshotHookProgram, []byte("snapshots"), mint.Bytes())
}

// snapshotBalancesPDA: [mint, tokenAccount] under the snapshot hook program.
func (c *Client) snapshotBalancesPDA(mint, tokenAccount solana.PublicKey) (solana.PublicKey, error) {
	return pda(c.cfg.SnapshotHookProgram, mint.Bytes(), tokenAccount.Bytes())
}

func (c *Client) extraAccountMetasPDA(mint solana.PublicKey) (solana.PublicKey, error) {
	return pda(c.cfg.SnapshotHookProgram, []byte("extra-account-metas"), mint.Bytes())
}

// treasuryAuthorityPDA: [treasuryWallet] under the treasury wallet program.
func (c *Client) treasuryAuthorityPDA(treasuryWallet solana.PublicKey) (solana.PublicKey, error) {
	return pda(c.cfg.TreasuryWalletProgram, treasuryWallet.Bytes())
}

// withdrawAuthorizationPDA: [treasuryWallet, authority].
func (c *Client) withdrawAuthorizationPDA(treasuryWallet, authority solana.PublicKey) (solana.PublicKey, error) {
	return pda(c.cfg.TreasuryWalletProgram, treasuryWallet.Bytes(), authority.Bytes())
}

// oraclePDA: [authority, assetSymbol] under the oracle program.
func (c *Client) oraclePDA() (solana.PublicKey, error) {
	return pda(c.cfg.OracleProgram, c.serverKey.PublicKey().Bytes(), []byte(c.cfg.OracleAssetSymbol))
}

// associatedTokenAddress derives the token-2022 ATA for owner/mint. Owner may
// be a PDA (off-curve), same seeds either way.
func associatedTokenAddress(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	return pda(solana.SPLAssociatedTokenAccountProgramID,
		owner.Bytes(), Token2022ProgramID.Bytes(), mint.Bytes())
}
