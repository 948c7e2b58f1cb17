package noteserver

import (
	"context"
	"errors"
	"testing"

	"github.com/fqx-eng/noteserver/ledger"
	"github.com/fqx-eng/noteserver/schema"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
)

// fakeLedger satisfies Ledger with canned responses and records every
// settlement it was asked to execute.
type fakeLedger struct {
	cfg         schema.SnapshotConfig
	beneficiary schema.Beneficiary
	price       uint64
	paid        bool
	funded      bool
	decimals    uint8

	balance       uint64
	balanceExists bool

	settleTx  string
	settleErr error

	settledOpts []ledger.SettlementOptions
	minted      []uint64
	mintedOwner string

	server solana.PublicKey
	issuer solana.PublicKey
}

func (f *fakeLedger) SnapshotConfig(ctx context.Context, mint string) (schema.SnapshotConfig, error) {
	return f.cfg, nil
}

func (f *fakeLedger) CurrentPrice(ctx context.Context) (uint64, error) {
	return f.price, nil
}

func (f *fakeLedger) PaymentPaid(ctx context.Context, p schema.ScheduledPayment) (bool, error) {
	return f.paid, nil
}

func (f *fakeLedger) EscrowFunded(ctx context.Context, p schema.ScheduledPayment) (bool, error) {
	return f.funded, nil
}

func (f *fakeLedger) PaymentTokenDecimals(ctx context.Context) (uint8, error) {
	return f.decimals, nil
}

func (f *fakeLedger) PaymentTokenBalance(ctx context.Context, owner string) (string, uint64, bool, error) {
	return "ata", f.balance, f.balanceExists, nil
}

func (f *fakeLedger) BeneficiaryAccounts(mint, investor string) (schema.Beneficiary, error) {
	return f.beneficiary, nil
}

func (f *fakeLedger) ExecuteSettlement(ctx context.Context, p schema.ScheduledPayment, opts ledger.SettlementOptions) (string, error) {
	f.settledOpts = append(f.settledOpts, opts)
	return f.settleTx, f.settleErr
}

func (f *fakeLedger) UpdateOraclePrice(ctx context.Context, price uint64) (string, error) {
	f.price = price
	return "oracleTx", nil
}

func (f *fakeLedger) MintPaymentTokens(ctx context.Context, owner string, amount uint64) (string, error) {
	f.mintedOwner = owner
	f.minted = append(f.minted, amount)
	return "mintTx", nil
}

func (f *fakeLedger) CreateNonceAccounts(ctx context.Context, n int) ([]solana.PublicKey, error) {
	nonces := make([]solana.PublicKey, 0, n)
	for i := 0; i < n; i++ {
		key, err := solana.NewRandomPrivateKey()
		if err != nil {
			return nil, err
		}
		nonces = append(nonces, key.PublicKey())
	}
	return nonces, nil
}

func (f *fakeLedger) SignInitTransaction(ctx context.Context, p ledger.InitTransactionParams) (string, error) {
	return "initTxBase58", nil
}

func (f *fakeLedger) SignIssueTransaction(ctx context.Context, p ledger.IssueTransactionParams) (string, error) {
	return "issueTxBase58", nil
}

func (f *fakeLedger) ServerPublicKey() solana.PublicKey { return f.server }
func (f *fakeLedger) IssuerPublicKey() solana.PublicKey { return f.issuer }

func testServer(t *testing.T, l Ledger) *Noteserver {
	wdb := NewSqliteDb(t.TempDir())
	assert.NoError(t, wdb.Migrate())
	s := &Noteserver{ledger: l, wdb: wdb}
	q, err := NewJobQueue(testStore(t), 2, s.settlePayment)
	assert.NoError(t, err)
	t.Cleanup(q.Close)
	s.queue = q
	return s
}

func couponPayment(mint string) schema.ScheduledPayment {
	return schema.ScheduledPayment{
		Mint:                           mint,
		SnapshotOffset:                 600,
		Beneficiary:                    "investor",
		BeneficiaryTokenAccount:        "noteAta",
		BeneficiaryPaymentTokenAccount: "payAta",
	}
}

func TestSettlePaymentSkipsPaid(t *testing.T) {
	l := &fakeLedger{paid: true}
	s := testServer(t, l)

	txID, err := s.settlePayment(context.Background(), couponPayment("mint1"))
	assert.NoError(t, err)
	assert.Equal(t, "", txID)
	assert.Len(t, l.settledOpts, 0)

	recs, err := s.wdb.GetSettlements("mint1")
	assert.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, schema.SettleSkipped, recs[0].Status)
}

func TestSettleCouponFundedEscrow(t *testing.T) {
	l := &fakeLedger{funded: true, settleTx: "sig1"}
	s := testServer(t, l)

	txID, err := s.settlePayment(context.Background(), couponPayment("mint1"))
	assert.NoError(t, err)
	assert.Equal(t, "sig1", txID)

	// funded escrow and a static coupon: no pull leg, no price fix
	assert.Len(t, l.settledOpts, 1)
	assert.Equal(t, ledger.SettlementOptions{}, l.settledOpts[0])

	recs, err := s.wdb.GetSettlements("mint1")
	assert.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, schema.SettleConfirmed, recs[0].Status)
	assert.Equal(t, "sig1", recs[0].TxID)
}

func TestSettlePrincipalPullsAndFixesPrice(t *testing.T) {
	l := &fakeLedger{funded: false, price: 42000, settleTx: "sig2"}
	s := testServer(t, l)

	assert.NoError(t, s.wdb.InsertNote(schema.NoteRecord{
		Mint:           "mint1",
		TreasuryWallet: "treasury1",
		Status:         schema.NoteStatusIssued,
	}))

	p := couponPayment("mint1")
	p.Principal = true
	txID, err := s.settlePayment(context.Background(), p)
	assert.NoError(t, err)
	assert.Equal(t, "sig2", txID)

	assert.Len(t, l.settledOpts, 1)
	assert.Equal(t, ledger.SettlementOptions{
		FixPrice:       true,
		Price:          42000,
		Pull:           true,
		TreasuryWallet: "treasury1",
	}, l.settledOpts[0])

	// principal settlement matures the note
	note, err := s.wdb.GetNote("mint1")
	assert.NoError(t, err)
	assert.Equal(t, schema.NoteStatusMatured, note.Status)
}

func TestSettlePullNeedsNoteRecord(t *testing.T) {
	l := &fakeLedger{funded: false}
	s := testServer(t, l)

	// unfunded escrow requires the treasury wallet, which lives on the note
	_, err := s.settlePayment(context.Background(), couponPayment("unknown"))
	assert.ErrorIs(t, err, ErrNotExist)
	assert.Len(t, l.settledOpts, 0)
}

func TestSettleFailureRecorded(t *testing.T) {
	l := &fakeLedger{funded: true, settleErr: errors.New("simulation failed")}
	s := testServer(t, l)

	_, err := s.settlePayment(context.Background(), couponPayment("mint1"))
	assert.EqualError(t, err, "simulation failed")

	recs, err := s.wdb.GetSettlements("mint1")
	assert.NoError(t, err)
	assert.Len(t, recs, 1)
	assert.Equal(t, schema.SettleFailed, recs[0].Status)
	assert.Equal(t, "simulation failed", recs[0].ErrMsg)
}
