package schema

import (
	"time"

	"gorm.io/datatypes"
)

// settlement record status
const (
	SettleConfirmed = "confirmed"
	SettleSkipped   = "skipped" // paid marker already present on retry
	SettleFailed    = "failed"
)

// NoteRecord is the relational record of one issued note. The ledger is the
// source of truth for balances and paid markers; this row exists for listing
// and display.
type NoteRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Mint           string `gorm:"uniqueIndex:idx_mint" json:"mint"`
	Investor       string `json:"investor"`
	Issuer         string `json:"issuer"`
	TreasuryWallet string `json:"treasuryWallet"`

	Principal          uint64 `json:"principal"` // base units
	Coupon             uint64 `json:"coupon"`
	TotalIssuance      uint64 `json:"totalIssuance"`
	Supply             uint64 `json:"supply"`
	InitialFixingPrice uint64 `json:"initialFixingPrice"`
	BarrierBps         int64  `json:"barrierInBasisPoints"`

	IssuanceDate time.Time `json:"issuanceDate"`
	MaturityDate time.Time `json:"maturityDate"`

	Status string `json:"status"` // "pending", "issued", "matured"
}

// SettlementRecord is one settlement attempt outcome, retained for inspection.
type SettlementRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Mint           string `gorm:"index:idx_settle_mint" json:"mint"`
	SnapshotOffset int64  `json:"snapshotOffset"`
	Principal      bool   `json:"principal"`

	JobId   string         `gorm:"index:idx_settle_job" json:"jobId"`
	TxID    string         `json:"txId"`
	Status  string         `json:"status"`
	Payload datatypes.JSON `json:"payload"` // ScheduledPayment wire shape
	ErrMsg  string         `json:"errMsg"`
}
