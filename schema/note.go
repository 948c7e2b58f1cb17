package schema

import (
	"time"
)

const (
	// note lifecycle status
	NoteStatusPending = "pending" // deploy returned, issuance txs not yet broadcast
	NoteStatusIssued  = "issued"  // issuance confirmed, payments scheduled
	NoteStatusMatured = "matured" // principal settled
)

// SnapshotConfig mirrors the on-ledger snapshot configuration of a note.
// Offsets are seconds since activation, strictly increasing; the last offset is
// both the final coupon boundary and the principal settlement point.
type SnapshotConfig struct {
	Authority   string  `json:"authority"`
	Offsets     []int64 `json:"offsets"`
	Defined     uint8   `json:"defined"`
	ActivatedAt int64   `json:"activatedAt"` // unix seconds, 0 means not activated
}

// Activated reports whether the config is fully populated and activated on-ledger.
func (c SnapshotConfig) Activated() bool {
	return c.ActivatedAt > 0 && int(c.Defined) == len(c.Offsets) && len(c.Offsets) > 0
}

// Beneficiary identifies who receives a payment and through which token accounts.
type Beneficiary struct {
	Address             string `json:"address"`
	TokenAccount        string `json:"tokenAccount"`        // note mint token account
	PaymentTokenAccount string `json:"paymentTokenAccount"` // payment mint token account
}

// ScheduledPayment is the job payload consumed by the settlement worker.
// The field set is the wire shape persisted in the queue.
type ScheduledPayment struct {
	Mint                           string    `json:"mint"`
	PaymentDate                    time.Time `json:"paymentDate"`
	SnapshotOffset                 int64     `json:"snapshotOffset"`
	Principal                      bool      `json:"principal"`
	Beneficiary                    string    `json:"beneficiary"`
	BeneficiaryTokenAccount        string    `json:"beneficiaryTokenAccount"`
	BeneficiaryPaymentTokenAccount string    `json:"beneficiaryPaymentTokenAccount"`
}

// DeployRequest carries the user-facing product terms. Amounts are denominated
// in UI units of the payment asset and converted to base units at deploy time.
type DeployRequest struct {
	Investor            string    `json:"investorPublicKey"`
	Principal           string    `json:"principal"`
	TotalIssuanceAmount string    `json:"totalIssuanceAmount"`
	IssuanceDate        time.Time `json:"issuanceDate"`
	MaturityDate        time.Time `json:"maturityDate"`
	BarrierBps          int64     `json:"barrierInBasisPoints"`
}

// EconomicTerms are the computed per-note economics, in payment-asset base units.
type EconomicTerms struct {
	Principal          uint64 `json:"principal"`
	Coupon             uint64 `json:"coupon"`
	TotalIssuance      uint64 `json:"totalIssuanceAmount"`
	Supply             uint64 `json:"supply"`
	InitialFixingPrice uint64 `json:"initialFixingPrice"`
}

// DeployResult holds the two offline-signed, nonce-anchored issuance
// transactions. They are returned to the caller for counter-signature and
// broadcast; this service never submits them.
type DeployResult struct {
	Mint    string        `json:"mint"`
	InitTx  string        `json:"initStructuredProductTx"`
	IssueTx string        `json:"issueStructuredProductTx"`
	Terms   EconomicTerms `json:"terms"`
}

// ConfirmIssuanceRequest is posted after the counterparty broadcast both
// issuance transactions; it triggers schedule derivation and job enqueueing.
type ConfirmIssuanceRequest struct {
	Mint     string `json:"mint"`
	Investor string `json:"investor"`
	TxID     string `json:"txId"`
}
