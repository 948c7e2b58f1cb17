package ledger

import (
	"context"

	"github.com/fqx-eng/noteserver/schema"
	"github.com/gagliardetto/solana-go"
)

// SettlementOptions selects which legs the settlement transaction carries.
// The orchestrator decides from ledger state: the price fix only applies to
// principal payments and the pull is skipped once the escrow holds funds.
type SettlementOptions struct {
	FixPrice       bool
	Price          uint64
	Pull           bool
	TreasuryWallet string
}

// ExecuteSettlement builds the price-fix/pull/settle instructions in order,
// simulates the combined transaction and broadcasts it. All legs land in one
// transaction so a partial failure leaves no ledger side effects.
func (c *Client) ExecuteSettlement(ctx context.Context, p schema.ScheduledPayment, opts SettlementOptions) (string, error) {
	keys, err := parsePayment(p)
	if err != nil {
		return "", err
	}

	ixs := make([]solana.Instruction, 0, 3)

	if opts.FixPrice {
		ix, err := c.setPaymentPriceIx(keys.mint, p.Principal, p.SnapshotOffset, opts.Price)
		if err != nil {
			return "", err
		}
		ixs = append(ixs, ix)
	}

	if opts.Pull {
		treasuryWallet, err := solana.PublicKeyFromBase58(opts.TreasuryWallet)
		if err != nil {
			return "", err
		}
		ix, err := c.pullPaymentIx(keys.mint, treasuryWallet, p.Principal, p.SnapshotOffset)
		if err != nil {
			return "", err
		}
		ixs = append(ixs, ix)
	}

	settleIx, err := c.settlePaymentIx(keys.mint, keys.beneficiary,
		keys.beneficiaryTokenAccount, keys.beneficiaryPaymentTokenAccount,
		p.Principal, p.SnapshotOffset)
	if err != nil {
		return "", err
	}
	ixs = append(ixs, settleIx)

	log.Info("submit settlement",
		"mint", p.Mint, "offset", p.SnapshotOffset, "principal", p.Principal,
		"fixPrice", opts.FixPrice, "pull", opts.Pull)

	return c.SimulateAndSend(ctx, ixs)
}

// UpdateOraclePrice submits a set-price transaction signed by the server
// identity, the oracle authority.
func (c *Client) UpdateOraclePrice(ctx context.Context, price uint64) (string, error) {
	ix, err := c.updateOraclePriceIx(price)
	if err != nil {
		return "", err
	}
	return c.SimulateAndSend(ctx, []solana.Instruction{ix})
}
