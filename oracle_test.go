package noteserver

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateOraclePriceStaysInSpread(t *testing.T) {
	l := &fakeLedger{price: 42000}
	s := &Noteserver{ledger: l}

	for i := 0; i < 50; i++ {
		before := l.price
		s.updateOraclePrice()
		spread := before / 20
		assert.GreaterOrEqual(t, l.price, before-spread)
		assert.LessOrEqual(t, l.price, before+spread)
		assert.Greater(t, l.price, uint64(0))
	}
}

func TestUpdateOraclePriceZeroSpread(t *testing.T) {
	// a sub-20 price has no room for a delta and must pass through unchanged
	l := &fakeLedger{price: 10}
	s := &Noteserver{ledger: l}
	s.updateOraclePrice()
	assert.Equal(t, uint64(10), l.price)
}
