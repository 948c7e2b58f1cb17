package noteserver

import (
	"context"
	"math/rand"
	"time"
)

// updateOraclePrice is the demo price feed tick: nudge the current price by
// a uniform delta within ±5% and push it on-ledger. A failed tick is logged
// and dropped; the next one starts from fresh ledger state, so there is
// nothing to retry.
func (s *Noteserver) updateOraclePrice() {
	ctx, cancel := context.WithTimeout(context.Background(), 4*time.Second)
	defer cancel()

	price, err := s.ledger.CurrentPrice(ctx)
	if err != nil {
		log.Warn("oracle read price", "err", err)
		return
	}

	next := price
	spread := price / 20
	if spread > 0 {
		delta := uint64(rand.Int63n(int64(spread)))
		if rand.Intn(2) == 0 && next > delta {
			next -= delta
		} else {
			next += delta
		}
	}

	txID, err := s.ledger.UpdateOraclePrice(ctx, next)
	if err != nil {
		log.Warn("oracle update price", "err", err, "price", next)
		return
	}
	metricOracleUpdate()
	log.Debug("oracle price updated", "price", next, "tx", txID)
}
