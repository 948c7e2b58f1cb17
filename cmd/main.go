package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/fqx-eng/noteserver"
	"github.com/fqx-eng/noteserver/config"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name: "noteserver",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db_dir", Value: "./data/bolt", Usage: "bolt db dir path", EnvVars: []string{"DB_DIR"}},
			&cli.StringFlag{Name: "mysql", Value: "root@tcp(127.0.0.1:3306)/noteserver?charset=utf8mb4&parseTime=True&loc=Local", Usage: "mysql dsn", EnvVars: []string{"MYSQL"}},
			&cli.BoolFlag{Name: "sqlite_flag", Value: false, Usage: "run with sqlite instead of mysql", EnvVars: []string{"SQLITE_FLAG"}},
			&cli.StringFlag{Name: "sqlite_dir", Value: "./data/sqlite", Usage: "sqlite db dir path", EnvVars: []string{"SQLITE_DIR"}},

			&cli.StringFlag{Name: "rpc", Value: "http://127.0.0.1:8899", Usage: "ledger rpc url", EnvVars: []string{"RPC"}},
			&cli.StringFlag{Name: "server_key", Usage: "server secret key, json byte array", EnvVars: []string{"SERVER_SECRET_KEY"}},
			&cli.StringFlag{Name: "issuer_key", Usage: "issuer secret key, json byte array", EnvVars: []string{"ISSUER_SECRET_KEY"}},
			&cli.StringFlag{Name: "payment_token_mint", Usage: "payment token mint address", EnvVars: []string{"PAYMENT_TOKEN_MINT_ADDRESS"}},
			&cli.StringFlag{Name: "product_program", Usage: "structured product program id", EnvVars: []string{"STRUCTURED_PRODUCT_PROGRAM_ID"}},
			&cli.StringFlag{Name: "snapshot_program", Usage: "transfer snapshot hook program id", EnvVars: []string{"TRANSFER_SNAPSHOT_HOOK_PROGRAM_ID"}},
			&cli.StringFlag{Name: "treasury_program", Usage: "treasury wallet program id", EnvVars: []string{"TREASURY_WALLET_PROGRAM_ID"}},
			&cli.StringFlag{Name: "oracle_program", Usage: "dummy oracle program id", EnvVars: []string{"DUMMY_ORACLE_PROGRAM_ID"}},
			&cli.StringFlag{Name: "asset_symbol", Value: "BTC", Usage: "oracle asset symbol", EnvVars: []string{"ASSET_SYMBOL"}},

			&cli.BoolFlag{Name: "s3_flag", Value: false, Usage: "run with s3 store", EnvVars: []string{"S3_FLAG"}},
			&cli.StringFlag{Name: "s3_acc_key", Value: "", Usage: "s3 access key", EnvVars: []string{"S3_ACC_KEY"}},
			&cli.StringFlag{Name: "s3_secret_key", Value: "", Usage: "s3 secret key", EnvVars: []string{"S3_SECRET_KEY"}},
			&cli.StringFlag{Name: "s3_prefix", Value: "noteserver", Usage: "s3 bucket name prefix", EnvVars: []string{"S3_PREFIX"}},
			&cli.StringFlag{Name: "s3_region", Value: "ap-northeast-1", Usage: "s3 bucket region", EnvVars: []string{"S3_REGION"}},
			&cli.StringFlag{Name: "s3_endpoint", Value: "", Usage: "s3 endpoint", EnvVars: []string{"S3_ENDPOINT"}},
			&cli.BoolFlag{Name: "mongo_flag", Value: false, Usage: "run with mongodb store", EnvVars: []string{"MONGO_FLAG"}},
			&cli.StringFlag{Name: "mongo_uri", Value: "mongodb://127.0.0.1:27017", Usage: "mongodb uri", EnvVars: []string{"MONGO_URI"}},

			&cli.StringFlag{Name: "kafka_uri", Value: "", Usage: "kafka broker, empty disables events", EnvVars: []string{"KAFKA_URI"}},
			&cli.StringFlag{Name: "port", Value: ":8080", EnvVars: []string{"PORT"}},
		},
		Action: run,
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	cfg, err := config.New(config.Params{
		RPCURL:            c.String("rpc"),
		Port:              c.String("port"),
		ServerSecretKey:   c.String("server_key"),
		IssuerSecretKey:   c.String("issuer_key"),
		PaymentTokenMint:  c.String("payment_token_mint"),
		ProductProgram:    c.String("product_program"),
		SnapshotProgram:   c.String("snapshot_program"),
		TreasuryProgram:   c.String("treasury_program"),
		OracleProgram:     c.String("oracle_program"),
		OracleAssetSymbol: c.String("asset_symbol"),
		KafkaURI:          c.String("kafka_uri"),
	})
	if err != nil {
		return err
	}

	s := noteserver.New(
		cfg,
		c.String("db_dir"), c.String("mysql"), c.String("sqlite_dir"), c.Bool("sqlite_flag"),
		c.Bool("s3_flag"), c.String("s3_acc_key"), c.String("s3_secret_key"), c.String("s3_prefix"), c.String("s3_region"), c.String("s3_endpoint"),
		c.Bool("mongo_flag"), c.String("mongo_uri"),
	)
	s.Run(c.String("port"))

	<-signals
	s.Close()

	return nil
}
