package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fqx-eng/noteserver/common"
	"github.com/fqx-eng/noteserver/config"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/mr-tron/base58"
)

var log = common.NewLog("ledger")

var (
	ErrSimulationFailed = errors.New("simulation_failed")
	ErrConfirmTimeout   = errors.New("confirm_timeout")
	ErrTxFailed         = errors.New("tx_failed")
)

// Client is the transaction-building adapter around the note programs. It
// owns no mutable state beyond an account read cache; signing identities and
// program addresses come from the injected config.
type Client struct {
	rpc *rpc.Client
	cfg *config.Config

	serverKey solana.PrivateKey
	issuerKey solana.PrivateKey

	cache *accountCache
}

func New(cfg *config.Config) (*Client, error) {
	cache, err := newAccountCache()
	if err != nil {
		return nil, err
	}
	return &Client{
		rpc:       rpc.New(cfg.RPCURL),
		cfg:       cfg,
		serverKey: cfg.ServerKey,
		issuerKey: cfg.IssuerKey,
		cache:     cache,
	}, nil
}

func (c *Client) ServerPublicKey() solana.PublicKey {
	return c.serverKey.PublicKey()
}

func (c *Client) IssuerPublicKey() solana.PublicKey {
	return c.issuerKey.PublicKey()
}

// signedTx assembles one transaction from ixs, anchored at blockhash, paid by
// payer and signed with the supplied keys.
func (c *Client) signedTx(ixs []solana.Instruction, blockhash solana.Hash, payer solana.PublicKey, keys ...solana.PrivateKey) (*solana.Transaction, error) {
	tx, err := solana.NewTransaction(ixs, blockhash, solana.TransactionPayer(payer))
	if err != nil {
		return nil, err
	}
	_, err = tx.Sign(func(pk solana.PublicKey) *solana.PrivateKey {
		for i := range keys {
			if keys[i].PublicKey().Equals(pk) {
				return &keys[i]
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// SimulateAndSend assembles the instructions into one atomic transaction paid
// and signed by the server identity, simulates it, and only broadcasts when
// the simulation passes. It blocks until the ledger confirms the signature.
func (c *Client) SimulateAndSend(ctx context.Context, ixs []solana.Instruction, extraSigners ...solana.PrivateKey) (string, error) {
	return c.simulateAndSendFrom(ctx, c.serverKey, ixs, extraSigners...)
}

// simulateAndSendFrom is SimulateAndSend with an explicit fee payer; issuance
// setup transactions are paid by the issuer identity.
func (c *Client) simulateAndSendFrom(ctx context.Context, payer solana.PrivateKey, ixs []solana.Instruction, extraSigners ...solana.PrivateKey) (string, error) {
	recent, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return "", fmt.Errorf("get latest blockhash: %w", err)
	}

	signers := append([]solana.PrivateKey{payer}, extraSigners...)
	tx, err := c.signedTx(ixs, recent.Value.Blockhash, payer.PublicKey(), signers...)
	if err != nil {
		return "", err
	}

	sim, err := c.rpc.SimulateTransactionWithOpts(ctx, tx, &rpc.SimulateTransactionOpts{
		SigVerify: true,
	})
	if err != nil {
		return "", fmt.Errorf("simulate: %w", err)
	}
	if sim.Value != nil {
		for _, l := range sim.Value.Logs {
			log.Debug("simulation", "log", l)
		}
		if sim.Value.Err != nil {
			return "", fmt.Errorf("%w: %v", ErrSimulationFailed, sim.Value.Err)
		}
	}

	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       true, // already simulated
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return "", fmt.Errorf("send tx: %w", err)
	}

	if err := c.confirm(ctx, sig); err != nil {
		return sig.String(), err
	}
	return sig.String(), nil
}

// confirm polls signature status until the ledger reports at least the
// confirmed commitment. The caller's context bounds the wait.
func (c *Client) confirm(ctx context.Context, sig solana.Signature) error {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %s", ErrConfirmTimeout, sig)
		case <-ticker.C:
			res, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
			if err != nil {
				log.Warn("get signature status", "err", err, "sig", sig)
				continue
			}
			if len(res.Value) == 0 || res.Value[0] == nil {
				continue
			}
			st := res.Value[0]
			if st.Err != nil {
				return fmt.Errorf("%w: %v", ErrTxFailed, st.Err)
			}
			switch st.ConfirmationStatus {
			case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
				return nil
			}
		}
	}
}

// encodeTx serializes a signed transaction to base58 for hand-off to the
// counterparty.
func encodeTx(tx *solana.Transaction) (string, error) {
	bin, err := tx.MarshalBinary()
	if err != nil {
		return "", err
	}
	return base58.Encode(bin), nil
}
