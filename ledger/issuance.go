package ledger

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// PaymentLeg is one scheduled payment registered at initialization. Variable
// legs get their per-unit price fixed at settlement by the price authority;
// static legs carry PricePerUnit up front.
type PaymentLeg struct {
	Principal    bool
	Offset       int64 // seconds after issuance
	Variable     bool
	PricePerUnit uint64 // static legs only
}

type InitTransactionParams struct {
	Mint           solana.PrivateKey // fresh keypair, co-signs the init tx
	Investor       solana.PublicKey
	TreasuryWallet solana.PublicKey
	Nonce          solana.PublicKey

	MaxSnapshots         uint8
	IssuancePricePerUnit uint64
	Supply               uint64
	Payments             []PaymentLeg
}

type IssueTransactionParams struct {
	Mint     solana.PublicKey
	Investor solana.PublicKey
	Nonce    solana.PublicKey

	Name   string
	Symbol string
	URI    string
}

// CreateNonceAccounts funds and initializes n durable nonce accounts in one
// issuer-paid transaction, so the offline transactions signed against them
// stay valid until the investor countersigns.
func (c *Client) CreateNonceAccounts(ctx context.Context, n int) ([]solana.PublicKey, error) {
	rent, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, nonceAccountLen, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("nonce rent exemption: %w", err)
	}

	issuer := c.issuerKey.PublicKey()
	ixs := make([]solana.Instruction, 0, 2*n)
	keys := make([]solana.PrivateKey, 0, n)
	pubkeys := make([]solana.PublicKey, 0, n)
	for i := 0; i < n; i++ {
		nonceKey, err := solana.NewRandomPrivateKey()
		if err != nil {
			return nil, err
		}
		ixs = append(ixs,
			sysCreateAccount(issuer, nonceKey.PublicKey(), rent, nonceAccountLen, solana.SystemProgramID),
			sysInitializeNonce(nonceKey.PublicKey(), issuer),
		)
		keys = append(keys, nonceKey)
		pubkeys = append(pubkeys, nonceKey.PublicKey())
	}

	if _, err := c.simulateAndSendFrom(ctx, c.issuerKey, ixs, keys...); err != nil {
		return nil, fmt.Errorf("create nonce accounts: %w", err)
	}
	return pubkeys, nil
}

// SignInitTransaction builds the nonce-anchored init transaction: advance
// nonce, create the transfer-hook mint, initialize the note config, register
// every payment leg and authorize the note to pull from the issuer's
// treasury wallet. Signed by issuer and mint only; the investor countersigns
// client side. Returns the base58 wire form.
func (c *Client) SignInitTransaction(ctx context.Context, p InitTransactionParams) (string, error) {
	nonce, err := c.FetchNonce(ctx, p.Nonce)
	if err != nil {
		return "", fmt.Errorf("fetch nonce: %w", err)
	}
	mintRent, err := c.rpc.GetMinimumBalanceForRentExemption(ctx, mintLenTransferHook, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("mint rent exemption: %w", err)
	}

	issuer := c.issuerKey.PublicKey()
	mint := p.Mint.PublicKey()

	ixs := []solana.Instruction{
		sysAdvanceNonce(p.Nonce, issuer),
		sysCreateAccount(issuer, mint, mintRent, mintLenTransferHook, Token2022ProgramID),
	}

	initIx, err := c.initializeIx(mint, p.Investor, issuer, p.TreasuryWallet,
		p.MaxSnapshots, p.IssuancePricePerUnit, p.Supply)
	if err != nil {
		return "", err
	}
	ixs = append(ixs, initIx)

	for _, leg := range p.Payments {
		var ix solana.Instruction
		if leg.Variable {
			ix, err = c.addVariablePaymentIx(mint, issuer, c.serverKey.PublicKey(), leg.Principal, leg.Offset)
		} else {
			ix, err = c.addStaticPaymentIx(mint, issuer, leg.Principal, leg.Offset, leg.PricePerUnit)
		}
		if err != nil {
			return "", err
		}
		ixs = append(ixs, ix)
	}

	sp, err := c.structuredProductPDA(mint)
	if err != nil {
		return "", err
	}
	authIx, err := c.addWithdrawAuthorizationIx(issuer, p.TreasuryWallet, sp)
	if err != nil {
		return "", err
	}
	ixs = append(ixs, authIx)

	return c.signOffline(ixs, nonce, issuer, c.issuerKey, p.Mint)
}

// SignIssueTransaction builds the nonce-anchored issue transaction: advance
// nonce, attach metadata, pay issuance from the investor, mint and hand over
// the notes, and sweep the proceeds to the issuer. Issuer-signed only.
func (c *Client) SignIssueTransaction(ctx context.Context, p IssueTransactionParams) (string, error) {
	nonce, err := c.FetchNonce(ctx, p.Nonce)
	if err != nil {
		return "", fmt.Errorf("fetch nonce: %w", err)
	}

	issuer := c.issuerKey.PublicKey()
	issuerPaymentATA, err := associatedTokenAddress(issuer, c.cfg.PaymentTokenMint)
	if err != nil {
		return "", err
	}

	metadataIx, err := c.createMetadataIx(p.Mint, issuer, p.Name, p.Symbol, p.URI)
	if err != nil {
		return "", err
	}
	payIx, err := c.payIssuanceIx(p.Mint, p.Investor)
	if err != nil {
		return "", err
	}
	issueIx, err := c.issueIx(p.Mint, p.Investor, issuer)
	if err != nil {
		return "", err
	}
	withdrawIx, err := c.withdrawIssuanceProceedsIx(p.Mint, issuer, issuer, issuerPaymentATA)
	if err != nil {
		return "", err
	}

	ixs := []solana.Instruction{
		sysAdvanceNonce(p.Nonce, issuer),
		metadataIx,
		payIx,
		issueIx,
		withdrawIx,
	}
	return c.signOffline(ixs, nonce, issuer, c.issuerKey)
}

// signOffline partially signs a nonce-anchored transaction with the keys the
// service holds and serializes it for hand-off.
func (c *Client) signOffline(ixs []solana.Instruction, nonce solana.Hash, payer solana.PublicKey, keys ...solana.PrivateKey) (string, error) {
	tx, err := solana.NewTransaction(ixs, nonce, solana.TransactionPayer(payer))
	if err != nil {
		return "", err
	}
	_, err = tx.PartialSign(func(pk solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if keys[i].PublicKey().Equals(pk) {
				return &keys[i]
			}
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return encodeTx(tx)
}

// MintPaymentTokens is the demo faucet: create the owner's payment-token ATA
// when missing and mint amount base units into it. Server identity is the
// mint authority.
func (c *Client) MintPaymentTokens(ctx context.Context, owner string, amount uint64) (string, error) {
	ownerPk, err := solana.PublicKeyFromBase58(owner)
	if err != nil {
		return "", err
	}
	server := c.serverKey.PublicKey()
	ata, createIx, err := createATAIx(server, ownerPk, c.cfg.PaymentTokenMint, true)
	if err != nil {
		return "", err
	}
	return c.SimulateAndSend(ctx, []solana.Instruction{
		createIx,
		mintToIx(c.cfg.PaymentTokenMint, ata, server, amount),
	})
}
