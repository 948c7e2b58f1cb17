package noteserver

import (
	"context"

	"github.com/fqx-eng/noteserver/common"
	"github.com/fqx-eng/noteserver/config"
	"github.com/fqx-eng/noteserver/ledger"
	"github.com/fqx-eng/noteserver/schema"
	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/go-co-op/gocron"
	"time"
)

var log = common.NewLog("noteserver")

// Ledger is everything the orchestrators need from the transaction-building
// adapter. *ledger.Client is the production implementation.
type Ledger interface {
	SnapshotConfig(ctx context.Context, mint string) (schema.SnapshotConfig, error)
	CurrentPrice(ctx context.Context) (uint64, error)
	PaymentPaid(ctx context.Context, p schema.ScheduledPayment) (bool, error)
	EscrowFunded(ctx context.Context, p schema.ScheduledPayment) (bool, error)
	PaymentTokenDecimals(ctx context.Context) (uint8, error)
	PaymentTokenBalance(ctx context.Context, owner string) (string, uint64, bool, error)
	BeneficiaryAccounts(mint, investor string) (schema.Beneficiary, error)

	ExecuteSettlement(ctx context.Context, p schema.ScheduledPayment, opts ledger.SettlementOptions) (string, error)
	UpdateOraclePrice(ctx context.Context, price uint64) (string, error)
	MintPaymentTokens(ctx context.Context, owner string, amount uint64) (string, error)

	CreateNonceAccounts(ctx context.Context, n int) ([]solana.PublicKey, error)
	SignInitTransaction(ctx context.Context, p ledger.InitTransactionParams) (string, error)
	SignIssueTransaction(ctx context.Context, p ledger.IssueTransactionParams) (string, error)

	ServerPublicKey() solana.PublicKey
	IssuerPublicKey() solana.PublicKey
}

type Noteserver struct {
	store     *Store
	engine    *gin.Engine
	scheduler *gocron.Scheduler

	queue  *JobQueue
	ledger Ledger
	wdb    *Wdb
	cfg    *config.Config

	kwriters map[string]*KWriter
}

func New(
	cfg *config.Config,
	boltDirPath, mySqlDsn string, sqliteDir string, useSqlite bool,
	useS3 bool, s3AccKey, s3SecretKey, s3BucketPrefix, s3Region, s3Endpoint string,
	useMongo bool, mongoUri string,
) *Noteserver {
	var store *Store
	var err error
	switch {
	case useS3:
		store, err = NewS3Store(s3AccKey, s3SecretKey, s3Region, s3BucketPrefix, s3Endpoint)
	case useMongo:
		store, err = NewMongoStore(context.Background(), mongoUri)
	default:
		store, err = NewBoltStore(boltDirPath)
	}
	if err != nil {
		panic(err)
	}

	wdb := &Wdb{}
	if useSqlite {
		wdb = NewSqliteDb(sqliteDir)
	} else {
		wdb = NewMysqlDb(mySqlDsn)
	}
	if err = wdb.Migrate(); err != nil {
		panic(err)
	}

	ledgerCli, err := ledger.New(cfg)
	if err != nil {
		panic(err)
	}

	s := &Noteserver{
		store:     store,
		engine:    gin.Default(),
		scheduler: gocron.NewScheduler(time.UTC),
		ledger:    ledgerCli,
		wdb:       wdb,
		cfg:       cfg,
	}

	s.queue, err = NewJobQueue(store, 20, s.settlePayment)
	if err != nil {
		panic(err)
	}

	if cfg.EnableKafka {
		kwriters, err := NewKWriters(cfg.KafkaURI)
		if err != nil {
			panic(err)
		}
		s.kwriters = kwriters
	}
	return s
}

func (s *Noteserver) Run(port string) {
	go s.runAPI(port)
	go s.runJobs()
	go common.NewMetricServer()
}

func (s *Noteserver) Close() {
	s.scheduler.Stop()
	s.queue.Close()
	for _, kw := range s.kwriters {
		kw.Close()
	}
	if err := s.store.Close(); err != nil {
		log.Error("close store", "err", err)
	}
	log.Info("noteserver closed")
}
