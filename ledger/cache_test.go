package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAccountCache(t *testing.T) {
	cache, err := newAccountCache()
	assert.NoError(t, err)

	_, ok := cache.get("payment_mint_decimals")
	assert.False(t, ok)

	cache.set("payment_mint_decimals", []byte{6})
	data, ok := cache.get("payment_mint_decimals")
	assert.True(t, ok)
	assert.Equal(t, []byte{6}, data)
}
