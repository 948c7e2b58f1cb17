package noteserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fqx-eng/noteserver/ledger"
	"github.com/fqx-eng/noteserver/schema"
)

// settlePayment is the queue handler: it settles one scheduled payment on
// the ledger. Returns the confirmation signature, or "" when the payment is
// already settled. Any error surfaces to the queue retry.
func (s *Noteserver) settlePayment(ctx context.Context, p schema.ScheduledPayment) (string, error) {
	// the paid marker is the ledger-side idempotency record; read it before
	// building anything so retries of an already-landed settlement are free
	paid, err := s.ledger.PaymentPaid(ctx, p)
	if err != nil {
		return "", fmt.Errorf("read paid marker: %w", err)
	}
	if paid {
		log.Info("payment already settled, skip", "mint", p.Mint,
			"offset", p.SnapshotOffset, "principal", p.Principal)
		s.recordSettlement(p, "", schema.SettleSkipped, "")
		return "", nil
	}

	opts := ledger.SettlementOptions{}

	// variable payments get their price fixed from the oracle in the same
	// transaction, before the pull computes the escrow amount
	if p.Principal {
		price, err := s.ledger.CurrentPrice(ctx)
		if err != nil {
			return "", fmt.Errorf("read oracle price: %w", err)
		}
		opts.FixPrice = true
		opts.Price = price
	}

	funded, err := s.ledger.EscrowFunded(ctx, p)
	if err != nil {
		return "", fmt.Errorf("check escrow: %w", err)
	}
	if !funded {
		note, err := s.wdb.GetNote(p.Mint)
		if err != nil {
			return "", fmt.Errorf("load note %s: %w", p.Mint, err)
		}
		opts.Pull = true
		opts.TreasuryWallet = note.TreasuryWallet
	}

	txID, err := s.ledger.ExecuteSettlement(ctx, p, opts)
	if err != nil {
		s.recordSettlement(p, txID, schema.SettleFailed, err.Error())
		return "", err
	}

	s.recordSettlement(p, txID, schema.SettleConfirmed, "")
	s.emitSettlementEvent(p, txID)
	metricSettlement(p.Principal)

	if p.Principal {
		if err := s.wdb.UpdateNoteStatus(p.Mint, schema.NoteStatusMatured); err != nil {
			log.Error("mark note matured", "err", err, "mint", p.Mint)
		}
	}
	return txID, nil
}

func (s *Noteserver) recordSettlement(p schema.ScheduledPayment, txID, status, errMsg string) {
	payload, err := json.Marshal(p)
	if err != nil {
		log.Error("marshal settlement payload", "err", err)
		return
	}
	rec := schema.SettlementRecord{
		Mint:           p.Mint,
		SnapshotOffset: p.SnapshotOffset,
		Principal:      p.Principal,
		TxID:           txID,
		Status:         status,
		Payload:        payload,
		ErrMsg:         errMsg,
	}
	if err := s.wdb.InsertSettlement(rec); err != nil {
		log.Error("insert settlement record", "err", err, "mint", p.Mint)
	}
}

func (s *Noteserver) emitSettlementEvent(p schema.ScheduledPayment, txID string) {
	if s.kwriters == nil {
		return
	}
	kw, ok := s.kwriters[SettlementTopic]
	if !ok {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"mint":           p.Mint,
		"snapshotOffset": p.SnapshotOffset,
		"principal":      p.Principal,
		"beneficiary":    p.Beneficiary,
		"txId":           txID,
	})
	if err != nil {
		return
	}
	if err := kw.Write(body); err != nil {
		log.Error("write settlement event", "err", err)
	}
}
