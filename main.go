package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"creditline-client/clientconfig"
	"creditline-client/collateral"
	"creditline-client/creditline"
	"creditline-client/internal/server"
	"creditline-client/ledgerclient"
	"creditline-client/linefactory"
	"creditline-client/logging"

	"github.com/ethereum/go-ethereum/common"
)

func main() {
	configPath := flag.String("config", "config.yml", "path to the config file")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	cfg, err := clientconfig.Load(*configPath)
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	network, err := cfg.ActiveNetwork()
	if err != nil {
		log.Fatalf("Error resolving network: %v", err)
	}

	ledger, err := ledgerclient.DialWithRetry(
		context.Background(),
		network.RpcUrl,
		network.ChainId,
		cfg.Signer.PrivateKey,
		cfg.Api.ConfirmTimeout(),
		cfg.Api.ConnectRetries,
		5*time.Second,
	)
	if err != nil {
		logging.Error("Unable to reach the ledger", logging.System, "error", err)
		os.Exit(1)
	}
	logging.Info("Connected to ledger", logging.System,
		"rpc_url", network.RpcUrl, "chain_id", network.ChainId, "signer", ledger.Signer().Hex())

	lines := creditline.NewService(ledger)
	collateralSvc := collateral.NewService(ledger)
	factory := linefactory.NewService(ledger, linefactory.DeploymentConfig{
		Factory:    common.HexToAddress(network.LineFactory),
		Arbiter:    common.HexToAddress(network.Arbiter),
		Oracle:     common.HexToAddress(network.Oracle),
		SwapTarget: common.HexToAddress(network.SwapTarget),
	})

	srv := server.NewServer(lines, collateralSvc, factory)
	if err := srv.Start(cfg.Api.Port); err != nil {
		logging.Error("API server stopped", logging.Server, "error", err)
		os.Exit(1)
	}
}
