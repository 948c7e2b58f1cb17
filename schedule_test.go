package noteserver

import (
	"testing"
	"time"

	"github.com/fqx-eng/noteserver/schema"
	"github.com/stretchr/testify/assert"
)

func TestDeriveSchedule(t *testing.T) {
	cfg := schema.SnapshotConfig{
		Authority:   "auth",
		Offsets:     []int64{300, 600},
		Defined:     2,
		ActivatedAt: 1700000000,
	}
	b := schema.Beneficiary{
		Address:             "investor",
		TokenAccount:        "noteAta",
		PaymentTokenAccount: "payAta",
	}

	payments, err := DeriveSchedule("mint1", cfg, b)
	assert.NoError(t, err)
	assert.Len(t, payments, 3) // one coupon per offset plus the principal

	assert.Equal(t, time.Unix(1700000300, 0).UTC(), payments[0].PaymentDate)
	assert.Equal(t, int64(300), payments[0].SnapshotOffset)
	assert.False(t, payments[0].Principal)

	assert.Equal(t, time.Unix(1700000600, 0).UTC(), payments[1].PaymentDate)
	assert.False(t, payments[1].Principal)

	// principal is last and shares the final coupon's due date
	principal := payments[2]
	assert.True(t, principal.Principal)
	assert.Equal(t, int64(600), principal.SnapshotOffset)
	assert.Equal(t, payments[1].PaymentDate, principal.PaymentDate)

	for _, p := range payments {
		assert.Equal(t, "mint1", p.Mint)
		assert.Equal(t, "investor", p.Beneficiary)
		assert.Equal(t, "noteAta", p.BeneficiaryTokenAccount)
		assert.Equal(t, "payAta", p.BeneficiaryPaymentTokenAccount)
	}
}

func TestDeriveScheduleNotActivated(t *testing.T) {
	cfg := schema.SnapshotConfig{Offsets: []int64{300}, Defined: 1}
	_, err := DeriveSchedule("mint1", cfg, schema.Beneficiary{})
	assert.Equal(t, ErrConfigNotActive, err)
}

func TestDeriveScheduleUndefined(t *testing.T) {
	// defined count on-ledger does not match populated offsets
	cfg := schema.SnapshotConfig{Offsets: []int64{300, 600}, Defined: 3, ActivatedAt: 1700000000}
	_, err := DeriveSchedule("mint1", cfg, schema.Beneficiary{})
	assert.Equal(t, ErrScheduleUndefined, err)

	cfg = schema.SnapshotConfig{Defined: 0, ActivatedAt: 1700000000}
	_, err = DeriveSchedule("mint1", cfg, schema.Beneficiary{})
	assert.Equal(t, ErrScheduleUndefined, err)
}
