package noteserver

import (
	"testing"
	"time"

	"github.com/fqx-eng/noteserver/schema"
	"github.com/stretchr/testify/assert"
)

func testWdb(t *testing.T) *Wdb {
	wdb := NewSqliteDb(t.TempDir())
	assert.NoError(t, wdb.Migrate())
	return wdb
}

func TestNoteRecordLifecycle(t *testing.T) {
	wdb := testWdb(t)

	note := schema.NoteRecord{
		Mint:           "mint1",
		Investor:       "investor1",
		Issuer:         "issuer1",
		TreasuryWallet: "treasury1",
		Principal:      1000000,
		Coupon:         220000,
		TotalIssuance:  8000000,
		Supply:         8,
		BarrierBps:     8000,
		IssuanceDate:   time.Now().UTC(),
		MaturityDate:   time.Now().UTC().Add(time.Hour),
		Status:         schema.NoteStatusPending,
	}
	assert.NoError(t, wdb.InsertNote(note))

	got, err := wdb.GetNote("mint1")
	assert.NoError(t, err)
	assert.Equal(t, note.Investor, got.Investor)
	assert.Equal(t, note.Principal, got.Principal)
	assert.Equal(t, schema.NoteStatusPending, got.Status)

	_, err = wdb.GetNote("missing")
	assert.Equal(t, ErrNotExist, err)

	assert.NoError(t, wdb.UpdateNoteStatus("mint1", schema.NoteStatusIssued))
	got, err = wdb.GetNote("mint1")
	assert.NoError(t, err)
	assert.Equal(t, schema.NoteStatusIssued, got.Status)

	assert.NoError(t, wdb.InsertNote(schema.NoteRecord{Mint: "mint2", Status: schema.NoteStatusPending}))
	notes, err := wdb.GetNotes(10)
	assert.NoError(t, err)
	assert.Len(t, notes, 2)
	assert.Equal(t, "mint2", notes[0].Mint) // newest first
}

func TestSettlementRecords(t *testing.T) {
	wdb := testWdb(t)

	assert.NoError(t, wdb.InsertSettlement(schema.SettlementRecord{
		Mint:           "mint1",
		SnapshotOffset: 600,
		TxID:           "sig1",
		Status:         schema.SettleConfirmed,
	}))
	assert.NoError(t, wdb.InsertSettlement(schema.SettlementRecord{
		Mint:           "mint1",
		SnapshotOffset: 1200,
		Principal:      true,
		Status:         schema.SettleFailed,
		ErrMsg:         "escrow empty",
	}))
	assert.NoError(t, wdb.InsertSettlement(schema.SettlementRecord{
		Mint:   "mint2",
		Status: schema.SettleConfirmed,
	}))

	recs, err := wdb.GetSettlements("mint1")
	assert.NoError(t, err)
	assert.Len(t, recs, 2)
	assert.Equal(t, int64(1200), recs[0].SnapshotOffset) // newest first
	assert.Equal(t, "escrow empty", recs[0].ErrMsg)
	assert.Equal(t, "sig1", recs[1].TxID)

	recs, err = wdb.GetSettlements("missing")
	assert.NoError(t, err)
	assert.Len(t, recs, 0)
}
