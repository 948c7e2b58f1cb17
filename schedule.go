package noteserver

import (
	"time"

	"github.com/fqx-eng/noteserver/schema"
)

// DeriveSchedule expands an activated snapshot config into the full payment
// schedule for one beneficiary: one coupon payment per snapshot offset plus a
// trailing principal payment that shares the final offset's due date. The
// result is ordered by due date with the principal logically last.
func DeriveSchedule(mint string, cfg schema.SnapshotConfig, b schema.Beneficiary) ([]schema.ScheduledPayment, error) {
	if cfg.ActivatedAt <= 0 {
		return nil, ErrConfigNotActive
	}
	if len(cfg.Offsets) == 0 || int(cfg.Defined) != len(cfg.Offsets) {
		return nil, ErrScheduleUndefined
	}

	payments := make([]schema.ScheduledPayment, 0, len(cfg.Offsets)+1)
	for _, offset := range cfg.Offsets {
		payments = append(payments, schema.ScheduledPayment{
			Mint:                           mint,
			PaymentDate:                    time.Unix(cfg.ActivatedAt+offset, 0).UTC(),
			SnapshotOffset:                 offset,
			Principal:                      false,
			Beneficiary:                    b.Address,
			BeneficiaryTokenAccount:        b.TokenAccount,
			BeneficiaryPaymentTokenAccount: b.PaymentTokenAccount,
		})
	}

	// the principal settles at the final snapshot, computed from the last
	// offset itself rather than whatever the loop left behind
	last := cfg.Offsets[len(cfg.Offsets)-1]
	payments = append(payments, schema.ScheduledPayment{
		Mint:                           mint,
		PaymentDate:                    time.Unix(cfg.ActivatedAt+last, 0).UTC(),
		SnapshotOffset:                 last,
		Principal:                      true,
		Beneficiary:                    b.Address,
		BeneficiaryTokenAccount:        b.TokenAccount,
		BeneficiaryPaymentTokenAccount: b.PaymentTokenAccount,
	})
	return payments, nil
}
