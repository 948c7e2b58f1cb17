package noteserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/fqx-eng/noteserver/ledger"
	"github.com/fqx-eng/noteserver/schema"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// token metadata attached on issue
const (
	noteMetadataName   = "Encode Demo BRC"
	noteMetadataSymbol = "eBRC"
	noteMetadataURI    = "https://shdw-drive.genesysgo.net/3V2fxRdcz9wE2MHoQUBxEEsDLKuUj5Nu9ZhxcJ1DA4ZX/metadata.json"
)

// Deploy prices a note from the request terms and returns the two
// offline-signed issuance transactions. Nothing is final until the investor
// countersigns and broadcasts them; ConfirmIssuance picks up from there.
func (s *Noteserver) Deploy(ctx context.Context, req schema.DeployRequest) (*schema.DeployResult, error) {
	decimals, err := s.ledger.PaymentTokenDecimals(ctx)
	if err != nil {
		return nil, fmt.Errorf("payment token decimals: %w", err)
	}
	oraclePrice, err := s.ledger.CurrentPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("oracle price: %w", err)
	}

	terms, err := computeEconomicTerms(req, decimals, oraclePrice)
	if err != nil {
		return nil, err
	}

	// demo float so the investor can pay issuance
	if err := s.ensureInvestorFloat(ctx, req.Investor, terms.TotalIssuance); err != nil {
		return nil, err
	}

	nonces, err := s.ledger.CreateNonceAccounts(ctx, 2)
	if err != nil {
		return nil, err
	}

	mintKey, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	treasuryWallet, err := solana.NewRandomPrivateKey()
	if err != nil {
		return nil, err
	}
	investor, err := solana.PublicKeyFromBase58(req.Investor)
	if err != nil {
		return nil, fmt.Errorf("parse investor: %w", err)
	}

	legs := paymentLegs(req, terms)

	// both transactions only read ledger state (nonce values, rent), so
	// build and sign them concurrently
	var wg sync.WaitGroup
	var initTx, issueTx string
	var initErr, issueErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		initTx, initErr = s.ledger.SignInitTransaction(ctx, ledger.InitTransactionParams{
			Mint:           mintKey,
			Investor:       investor,
			TreasuryWallet: treasuryWallet.PublicKey(),
			Nonce:          nonces[0],
			// the principal shares the last coupon's snapshot
			MaxSnapshots:         uint8(len(legs) - 1),
			IssuancePricePerUnit: terms.Principal,
			Supply:               terms.Supply,
			Payments:             legs,
		})
	}()
	go func() {
		defer wg.Done()
		issueTx, issueErr = s.ledger.SignIssueTransaction(ctx, ledger.IssueTransactionParams{
			Mint:     mintKey.PublicKey(),
			Investor: investor,
			Nonce:    nonces[1],
			Name:     noteMetadataName,
			Symbol:   noteMetadataSymbol,
			URI:      noteMetadataURI,
		})
	}()
	wg.Wait()
	if initErr != nil {
		return nil, fmt.Errorf("sign init tx: %w", initErr)
	}
	if issueErr != nil {
		return nil, fmt.Errorf("sign issue tx: %w", issueErr)
	}

	mint := mintKey.PublicKey().String()
	note := schema.NoteRecord{
		Mint:               mint,
		Investor:           req.Investor,
		Issuer:             s.ledger.IssuerPublicKey().String(),
		TreasuryWallet:     treasuryWallet.PublicKey().String(),
		Principal:          terms.Principal,
		Coupon:             terms.Coupon,
		TotalIssuance:      terms.TotalIssuance,
		Supply:             terms.Supply,
		InitialFixingPrice: terms.InitialFixingPrice,
		BarrierBps:         req.BarrierBps,
		IssuanceDate:       req.IssuanceDate,
		MaturityDate:       req.MaturityDate,
		Status:             schema.NoteStatusPending,
	}
	if err := s.wdb.InsertNote(note); err != nil {
		return nil, fmt.Errorf("insert note record: %w", err)
	}

	log.Info("note deployed", "mint", mint, "supply", terms.Supply,
		"principal", terms.Principal, "coupon", terms.Coupon)

	return &schema.DeployResult{
		Mint:    mint,
		InitTx:  initTx,
		IssueTx: issueTx,
		Terms:   terms,
	}, nil
}

// ensureInvestorFloat mints demo payment tokens to the investor when its
// payment token account is missing or empty.
func (s *Noteserver) ensureInvestorFloat(ctx context.Context, investor string, amount uint64) error {
	_, bal, exists, err := s.ledger.PaymentTokenBalance(ctx, investor)
	if err != nil {
		return fmt.Errorf("investor balance: %w", err)
	}
	if exists && bal > 0 {
		return nil
	}
	txID, err := s.ledger.MintPaymentTokens(ctx, investor, amount)
	if err != nil {
		return fmt.Errorf("mint investor float: %w", err)
	}
	log.Info("minted investor float", "investor", investor, "amount", amount, "tx", txID)
	return nil
}

// computeEconomicTerms converts the UI-denominated request into base units
// and prices the coupon.
func computeEconomicTerms(req schema.DeployRequest, decimals uint8, oraclePrice uint64) (schema.EconomicTerms, error) {
	principal, err := uiToBase(req.Principal, decimals)
	if err != nil {
		return schema.EconomicTerms{}, fmt.Errorf("principal: %w", err)
	}
	total, err := uiToBase(req.TotalIssuanceAmount, decimals)
	if err != nil {
		return schema.EconomicTerms{}, fmt.Errorf("total issuance: %w", err)
	}
	if principal == 0 {
		return schema.EconomicTerms{}, ErrZeroPrincipal
	}

	return schema.EconomicTerms{
		Principal:          principal,
		Coupon:             randomCoupon(principal),
		TotalIssuance:      total,
		Supply:             total / principal, // truncating by design of base units
		InitialFixingPrice: oraclePrice,
	}, nil
}

// randomCoupon draws a total per-unit coupon in [0.20*principal,
// 0.25*principal] and rounds it down to an even number so it splits into two
// equal legs without remainder.
func randomCoupon(principal uint64) uint64 {
	min := principal / 5  // 20%
	max := principal / 4  // 25%
	c := min
	if max > min {
		c += uint64(rand.Int63n(int64(max - min + 1)))
	}
	return c / 2 * 2
}

// paymentLegs lays the note out as two equal static coupons at 50% and 100%
// of the term plus a variable principal at maturity.
func paymentLegs(req schema.DeployRequest, terms schema.EconomicTerms) []ledger.PaymentLeg {
	term := req.MaturityDate.Unix() - req.IssuanceDate.Unix()
	half := terms.Coupon / 2
	return []ledger.PaymentLeg{
		{Principal: false, Offset: term / 2, PricePerUnit: half},
		{Principal: false, Offset: term, PricePerUnit: half},
		{Principal: true, Offset: term, Variable: true},
	}
}

// uiToBase converts a decimal UI amount string into payment-asset base units,
// truncating anything finer than the mint's precision.
func uiToBase(ui string, decimals uint8) (uint64, error) {
	d, err := decimal.NewFromString(ui)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, ErrBadAmount
	}
	base := d.Shift(int32(decimals)).Truncate(0)
	return base.BigInt().Uint64(), nil
}

// ConfirmIssuance runs after the counterparty broadcast both issuance
// transactions: it reads the activated snapshot config back from the ledger,
// derives the payment schedule and enqueues one settlement job per payment.
func (s *Noteserver) ConfirmIssuance(ctx context.Context, req schema.ConfirmIssuanceRequest) ([]*schema.Job, error) {
	cfg, err := s.ledger.SnapshotConfig(ctx, req.Mint)
	if err != nil {
		return nil, fmt.Errorf("read snapshot config: %w", err)
	}
	beneficiary, err := s.ledger.BeneficiaryAccounts(req.Mint, req.Investor)
	if err != nil {
		return nil, err
	}
	payments, err := DeriveSchedule(req.Mint, cfg, beneficiary)
	if err != nil {
		return nil, err
	}

	jobs := make([]*schema.Job, 0, len(payments))
	for _, p := range payments {
		j, err := s.queue.Enqueue(p, time.Until(p.PaymentDate))
		if err != nil {
			return nil, fmt.Errorf("enqueue payment: %w", err)
		}
		jobs = append(jobs, j)
	}

	if err := s.wdb.UpdateNoteStatus(req.Mint, schema.NoteStatusIssued); err != nil {
		log.Error("mark note issued", "err", err, "mint", req.Mint)
	}
	s.emitIssuanceEvent(req, len(jobs))
	metricNoteIssued()

	log.Info("issuance confirmed", "mint", req.Mint, "payments", len(jobs), "tx", req.TxID)
	return jobs, nil
}

func (s *Noteserver) emitIssuanceEvent(req schema.ConfirmIssuanceRequest, payments int) {
	if s.kwriters == nil {
		return
	}
	kw, ok := s.kwriters[IssuanceTopic]
	if !ok {
		return
	}
	body, err := json.Marshal(map[string]interface{}{
		"mint":     req.Mint,
		"investor": req.Investor,
		"txId":     req.TxID,
		"payments": payments,
	})
	if err != nil {
		return
	}
	if err := kw.Write(body); err != nil {
		log.Error("write issuance event", "err", err)
	}
}
