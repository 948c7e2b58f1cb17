package ledger

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
)

// mpl token metadata program, owner of the metadata PDA created on issue
var mplTokenMetadataProgramID = solana.MustPublicKeyFromBase58("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")

func metadataPDA(mint solana.PublicKey) (solana.PublicKey, error) {
	return pda(mplTokenMetadataProgramID,
		[]byte("metadata"), mplTokenMetadataProgramID.Bytes(), mint.Bytes())
}

// read-only signer, the two shorthands in anchor.go cover the rest
func mSignerRead(pk solana.PublicKey) *solana.AccountMeta {
	return solana.NewAccountMeta(pk, false, true)
}

// --- system program ---
//
// The system program takes a little-endian u32 instruction index instead of
// an anchor discriminator.

const (
	sysIxCreateAccount   = 0
	sysIxAdvanceNonce    = 4
	sysIxInitializeNonce = 6
)

func sysData(index uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, index)
}

func sysCreateAccount(from, newAccount solana.PublicKey, lamports, space uint64, owner solana.PublicKey) solana.Instruction {
	data := sysData(sysIxCreateAccount)
	data = binary.LittleEndian.AppendUint64(data, lamports)
	data = binary.LittleEndian.AppendUint64(data, space)
	data = append(data, owner.Bytes()...)
	return solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{
		mSigner(from),
		mSigner(newAccount),
	}, data)
}

func sysInitializeNonce(nonce, authority solana.PublicKey) solana.Instruction {
	data := sysData(sysIxInitializeNonce)
	data = append(data, authority.Bytes()...)
	return solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{
		mWrite(nonce),
		mRead(solana.SysVarRecentBlockHashesPubkey),
		mRead(solana.SysVarRentPubkey),
	}, data)
}

func sysAdvanceNonce(nonce, authority solana.PublicKey) solana.Instruction {
	return solana.NewInstruction(solana.SystemProgramID, solana.AccountMetaSlice{
		mWrite(nonce),
		mRead(solana.SysVarRecentBlockHashesPubkey),
		mSignerRead(authority),
	}, sysData(sysIxAdvanceNonce))
}

// --- token-2022 / associated token program ---

const (
	tokenIxMintTo   = 7
	ataIxCreate     = 0
	ataIxCreateIdem = 1
)

// createATAIx creates owner's token-2022 ATA for mint. Idempotent variant is
// a no-op when the account already exists.
func createATAIx(payer, owner, mint solana.PublicKey, idempotent bool) (solana.PublicKey, solana.Instruction, error) {
	ata, err := associatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	data := []byte{ataIxCreate}
	if idempotent {
		data = []byte{ataIxCreateIdem}
	}
	ix := solana.NewInstruction(solana.SPLAssociatedTokenAccountProgramID, solana.AccountMetaSlice{
		mSigner(payer),
		mWrite(ata),
		mRead(owner),
		mRead(mint),
		mRead(solana.SystemProgramID),
		mRead(Token2022ProgramID),
	}, data)
	return ata, ix, nil
}

func mintToIx(mint, dest, authority solana.PublicKey, amount uint64) solana.Instruction {
	data := []byte{tokenIxMintTo}
	data = binary.LittleEndian.AppendUint64(data, amount)
	return solana.NewInstruction(Token2022ProgramID, solana.AccountMetaSlice{
		mWrite(mint),
		mWrite(dest),
		mSignerRead(authority),
	}, data)
}

// --- structured product program ---

// initializeIx creates the note config PDA, initializes the transfer-hook
// mint and registers the snapshot config, all in one program call. Account
// order follows the program's Initialize context.
func (c *Client) initializeIx(mint, investor, issuer, treasuryWallet solana.PublicKey, maxSnapshots uint8, issuancePricePerUnit, supply uint64) (solana.Instruction, error) {
	sp, err := c.structuredProductPDA(mint)
	if err != nil {
		return nil, err
	}
	snapCfg, err := c.snapshotConfigPDA(mint)
	if err != nil {
		return nil, err
	}
	extra, err := c.extraAccountMetasPDA(mint)
	if err != nil {
		return nil, err
	}
	data := newIxData("initialize").
		U8(maxSnapshots).
		U64(issuancePricePerUnit).
		U64(supply).
		Bytes()
	return solana.NewInstruction(c.cfg.StructuredProductProgram, solana.AccountMetaSlice{
		mSigner(issuer), // authority: the issuer builds and pays for the init tx
		mSigner(investor),
		mSigner(issuer),
		mSigner(mint),
		mWrite(sp),
		mRead(c.cfg.PaymentTokenMint),
		mWrite(snapCfg),
		mRead(treasuryWallet),
		mRead(c.cfg.TreasuryWalletProgram),
		mWrite(extra),
		mRead(c.cfg.SnapshotHookProgram),
		mRead(Token2022ProgramID),
		mRead(solana.SysVarRentPubkey),
		mRead(solana.SystemProgramID),
	}, data), nil
}

// addStaticPaymentIx registers a fixed-amount payment at the given date
// offset; the coupon legs use this.
func (c *Client) addStaticPaymentIx(mint, authority solana.PublicKey, principal bool, offset int64, pricePerUnit uint64) (solana.Instruction, error) {
	sp, err := c.structuredProductPDA(mint)
	if err != nil {
		return nil, err
	}
	snapCfg, err := c.snapshotConfigPDA(mint)
	if err != nil {
		return nil, err
	}
	payment, err := c.paymentPDA(mint, principal, offset)
	if err != nil {
		return nil, err
	}
	data := newIxData("add_static_payment").
		Bool(principal).
		I64(offset).
		U64(pricePerUnit).
		Bytes()
	return solana.NewInstruction(c.cfg.StructuredProductProgram, solana.AccountMetaSlice{
		mSigner(authority),
		mRead(mint),
		mWrite(sp),
		mWrite(snapCfg),
		mWrite(payment),
		mRead(c.cfg.PaymentTokenMint),
		mRead(c.cfg.SnapshotHookProgram),
		mRead(solana.SystemProgramID),
	}, data), nil
}

// addVariablePaymentIx registers a payment whose per-unit price the price
// authority fixes later (set_payment_price); the principal leg uses this.
func (c *Client) addVariablePaymentIx(mint, authority, priceAuthority solana.PublicKey, principal bool, offset int64) (solana.Instruction, error) {
	sp, err := c.structuredProductPDA(mint)
	if err != nil {
		return nil, err
	}
	snapCfg, err := c.snapshotConfigPDA(mint)
	if err != nil {
		return nil, err
	}
	payment, err := c.paymentPDA(mint, principal, offset)
	if err != nil {
		return nil, err
	}
	data := newIxData("add_variable_payment").
		Bool(principal).
		I64(offset).
		Bytes()
	return solana.NewInstruction(c.cfg.StructuredProductProgram, solana.AccountMetaSlice{
		mSigner(authority),
		mRead(mint),
		mWrite(sp),
		mWrite(snapCfg),
		mWrite(payment),
		mRead(c.cfg.PaymentTokenMint),
		mRead(priceAuthority),
		mRead(c.cfg.SnapshotHookProgram),
		mRead(solana.SystemProgramID),
	}, data), nil
}

// payIssuanceIx moves the issuance amount from the payer into the note's own
// payment token account.
func (c *Client) payIssuanceIx(mint, payer solana.PublicKey) (solana.Instruction, error) {
	sp, err := c.structuredProductPDA(mint)
	if err != nil {
		return nil, err
	}
	payerATA, err := associatedTokenAddress(payer, c.cfg.PaymentTokenMint)
	if err != nil {
		return nil, err
	}
	spATA, err := associatedTokenAddress(sp, c.cfg.PaymentTokenMint)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(c.cfg.StructuredProductProgram, solana.AccountMetaSlice{
		mSigner(payer),
		mRead(mint),
		mWrite(sp),
		mWrite(payerATA),
		mRead(c.cfg.PaymentTokenMint),
		mWrite(spATA),
		mRead(Token2022ProgramID),
		mRead(solana.SPLAssociatedTokenAccountProgramID),
		mRead(solana.SystemProgramID),
	}, newIxData("pay_issuance").Bytes()), nil
}

func (c *Client) createMetadataIx(mint, authority solana.PublicKey, name, symbol, uri string) (solana.Instruction, error) {
	sp, err := c.structuredProductPDA(mint)
	if err != nil {
		return nil, err
	}
	metadata, err := metadataPDA(mint)
	if err != nil {
		return nil, err
	}
	data := newIxData("create_metadata").
		String(name).
		String(symbol).
		String(uri).
		Bytes()
	return solana.NewInstruction(c.cfg.StructuredProductProgram, solana.AccountMetaSlice{
		mSignerRead(authority),
		mRead(mint),
		mWrite(metadata),
		mRead(sp),
		mRead(mplTokenMetadataProgramID),
		mRead(Token2022ProgramID),
		mRead(solana.SystemProgramID),
		mRead(solana.SysVarRentPubkey),
	}, data), nil
}

// issueIx mints the full supply to the note config's own token account and
// transfers the investor's units, initializing both snapshot balance
// accounts through the hook program.
func (c *Client) issueIx(mint, investor, issuer solana.PublicKey) (solana.Instruction, error) {
	sp, err := c.structuredProductPDA(mint)
	if err != nil {
		return nil, err
	}
	snapCfg, err := c.snapshotConfigPDA(mint)
	if err != nil {
		return nil, err
	}
	extra, err := c.extraAccountMetasPDA(mint)
	if err != nil {
		return nil, err
	}
	programATA, err := associatedTokenAddress(sp, mint)
	if err != nil {
		return nil, err
	}
	programSnap, err := c.snapshotBalancesPDA(mint, programATA)
	if err != nil {
		return nil, err
	}
	investorATA, err := associatedTokenAddress(investor, mint)
	if err != nil {
		return nil, err
	}
	investorSnap, err := c.snapshotBalancesPDA(mint, investorATA)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(c.cfg.StructuredProductProgram, solana.AccountMetaSlice{
		mSigner(investor),
		mSigner(issuer),
		mWrite(mint),
		mWrite(sp),
		mWrite(snapCfg),
		mRead(extra),
		mWrite(programATA),
		mWrite(programSnap),
		mWrite(investorATA),
		mWrite(investorSnap),
		mRead(c.cfg.SnapshotHookProgram),
		mRead(solana.SPLAssociatedTokenAccountProgramID),
		mRead(Token2022ProgramID),
		mRead(solana.SysVarRentPubkey),
		mRead(solana.SystemProgramID),
	}, newIxData("issue").Bytes()), nil
}

func (c *Client) withdrawIssuanceProceedsIx(mint, payer, issuer, beneficiaryTokenAccount solana.PublicKey) (solana.Instruction, error) {
	sp, err := c.structuredProductPDA(mint)
	if err != nil {
		return nil, err
	}
	spATA, err := associatedTokenAddress(sp, c.cfg.PaymentTokenMint)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(c.cfg.StructuredProductProgram, solana.AccountMetaSlice{
		mSigner(payer),
		mSigner(issuer),
		mRead(mint),
		mWrite(sp),
		mWrite(beneficiaryTokenAccount),
		mRead(c.cfg.PaymentTokenMint),
		mWrite(spATA),
		mRead(Token2022ProgramID),
	}, newIxData("withdraw_issuance_proceeds").Bytes()), nil
}

// setPaymentPriceIx fixes the per-unit price of a variable payment; signed by
// the price authority (the server identity).
func (c *Client) setPaymentPriceIx(mint solana.PublicKey, principal bool, offset int64, price uint64) (solana.Instruction, error) {
	sp, err := c.structuredProductPDA(mint)
	if err != nil {
		return nil, err
	}
	payment, err := c.paymentPDA(mint, principal, offset)
	if err != nil {
		return nil, err
	}
	data := newIxData("set_payment_price").
		I64(offset).
		U64(price).
		Bytes()
	return solana.NewInstruction(c.cfg.StructuredProductProgram, solana.AccountMetaSlice{
		mSigner(c.serverKey.PublicKey()),
		mWrite(sp),
		mWrite(payment),
	}, data), nil
}

// pullPaymentIx moves price*supply from the issuer's treasury wallet into the
// payment escrow, creating the escrow ATA.
func (c *Client) pullPaymentIx(mint, treasuryWallet solana.PublicKey, principal bool, offset int64) (solana.Instruction, error) {
	sp, err := c.structuredProductPDA(mint)
	if err != nil {
		return nil, err
	}
	payment, err := c.paymentPDA(mint, principal, offset)
	if err != nil {
		return nil, err
	}
	withdrawAuth, err := c.withdrawAuthorizationPDA(treasuryWallet, sp)
	if err != nil {
		return nil, err
	}
	treasuryAuthority, err := c.treasuryAuthorityPDA(treasuryWallet)
	if err != nil {
		return nil, err
	}
	treasuryATA, err := associatedTokenAddress(treasuryAuthority, c.cfg.PaymentTokenMint)
	if err != nil {
		return nil, err
	}
	escrowATA, err := associatedTokenAddress(payment, c.cfg.PaymentTokenMint)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(c.cfg.StructuredProductProgram, solana.AccountMetaSlice{
		mSigner(c.serverKey.PublicKey()),
		mRead(withdrawAuth),
		mRead(treasuryWallet),
		mRead(treasuryAuthority),
		mWrite(treasuryATA),
		mRead(mint),
		mWrite(sp),
		mRead(c.cfg.PaymentTokenMint),
		mWrite(payment),
		mWrite(escrowATA),
		mRead(c.cfg.TreasuryWalletProgram),
		mRead(Token2022ProgramID),
		mRead(solana.SPLAssociatedTokenAccountProgramID),
		mRead(solana.SystemProgramID),
	}, newIxData("pull_payment").I64(offset).Bytes()), nil
}

// settlePaymentIx pays the beneficiary out of the escrow pro rata to its
// snapshot balance and creates the paid marker.
func (c *Client) settlePaymentIx(mint, beneficiary, beneficiaryTokenAccount, beneficiaryPaymentTokenAccount solana.PublicKey, principal bool, offset int64) (solana.Instruction, error) {
	sp, err := c.structuredProductPDA(mint)
	if err != nil {
		return nil, err
	}
	snapCfg, err := c.snapshotConfigPDA(mint)
	if err != nil {
		return nil, err
	}
	payment, err := c.paymentPDA(mint, principal, offset)
	if err != nil {
		return nil, err
	}
	escrowATA, err := associatedTokenAddress(payment, c.cfg.PaymentTokenMint)
	if err != nil {
		return nil, err
	}
	paid, err := c.paymentPaidPDA(payment, beneficiaryTokenAccount)
	if err != nil {
		return nil, err
	}
	benefSnap, err := c.snapshotBalancesPDA(mint, beneficiaryTokenAccount)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(c.cfg.StructuredProductProgram, solana.AccountMetaSlice{
		mSigner(c.serverKey.PublicKey()),
		mRead(mint),
		mWrite(sp),
		mRead(snapCfg),
		mRead(c.cfg.PaymentTokenMint),
		mWrite(payment),
		mWrite(escrowATA),
		mWrite(paid),
		mRead(beneficiary),
		mWrite(beneficiaryTokenAccount),
		mRead(benefSnap),
		mWrite(beneficiaryPaymentTokenAccount),
		mRead(c.cfg.SnapshotHookProgram),
		mRead(Token2022ProgramID),
		mRead(solana.SystemProgramID),
	}, newIxData("settle_payment").I64(offset).Bytes()), nil
}

// --- treasury wallet program ---

// addWithdrawAuthorizationIx lets the note config PDA pull from the issuer's
// treasury wallet.
func (c *Client) addWithdrawAuthorizationIx(owner, treasuryWallet, authority solana.PublicKey) (solana.Instruction, error) {
	withdrawAuth, err := c.withdrawAuthorizationPDA(treasuryWallet, authority)
	if err != nil {
		return nil, err
	}
	return solana.NewInstruction(c.cfg.TreasuryWalletProgram, solana.AccountMetaSlice{
		mSigner(owner),
		mRead(authority),
		mRead(treasuryWallet),
		mWrite(withdrawAuth),
		mRead(solana.SysVarRentPubkey),
		mRead(solana.SystemProgramID),
	}, newIxData("add_withdraw_authorization").Bytes()), nil
}

// --- oracle program ---

func (c *Client) updateOraclePriceIx(price uint64) (solana.Instruction, error) {
	oracle, err := c.oraclePDA()
	if err != nil {
		return nil, err
	}
	data := newIxData("update_price").
		String(c.cfg.OracleAssetSymbol).
		U64(price).
		Bytes()
	return solana.NewInstruction(c.cfg.OracleProgram, solana.AccountMetaSlice{
		mSignerRead(c.serverKey.PublicKey()),
		mWrite(oracle),
	}, data), nil
}
