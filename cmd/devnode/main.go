// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mattn/go-isatty"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/devnode/accounts"
	"github.com/vechain/devnode/cmd/devnode/httpserver"
	"github.com/vechain/devnode/log"
	"github.com/vechain/devnode/metrics"
	"github.com/vechain/devnode/node"
	"github.com/vechain/devnode/rpc"
)

var (
	version   = "0.1.0"
	gitCommit string
	gitTag    string
	logger    = log.WithContext("pkg", "devnode")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version: fullVersion(),
		Name:    "devnode",
		Usage:   "Local Ethereum development node",
		Flags: []cli.Flag{
			configFlag,
			apiAddrFlag,
			apiCorsFlag,
			apiTimeoutFlag,
			enableAPILogsFlag,
			apiBlockCacheFlag,
			chainIDFlag,
			gasLimitFlag,
			baseFeeFlag,
			gasPriceFlag,
			timestampFlag,
			coinbaseFlag,
			accountsFlag,
			balanceFlag,
			mnemonicFlag,
			blockTimeFlag,
			noMiningFlag,
			orderFlag,
			forkURLFlag,
			forkBlockNumberFlag,
			forkRetriesFlag,
			forkRetryBackoffFlag,
			forkTimeoutFlag,
			forkCacheDirFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, stop, err := httpserver.StartMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		defer func() { logger.Info("stopping metrics server..."); stop() }()
		logger.Info("metrics server started", "url", url)
	}

	n, err := node.New(exitSignal, cfg)
	if err != nil {
		return err
	}
	defer func() { logger.Info("closing node..."); n.Close() }()

	rpcSrv := rpc.New(n, rpc.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
		Timeout:         time.Duration(ctx.Uint64(apiTimeoutFlag.Name)) * time.Millisecond,
		BlockCacheSize:  ctx.Int(apiBlockCacheFlag.Name),
	})
	defer func() { logger.Info("closing websocket connections..."); rpcSrv.Close() }()

	url, stop, err := httpserver.StartAPIServer(ctx.String(apiAddrFlag.Name), rpcSrv.Handler())
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); stop() }()

	printStartupMessage(n, cfg, url)

	<-exitSignal.Done()
	return nil
}

func initLogger(ctx *cli.Context) {
	color := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	log.SetDefault(log.NewHandler(os.Stderr, ctx.Int(verbosityFlag.Name), ctx.Bool(jsonLogsFlag.Name), color))
}

func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer cancel()

		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(ch)

		sig := <-ch
		logger.Info("exit for signal", "signal", sig)
	}()
	return ctx
}

func printStartupMessage(n *node.Node, cfg node.Config, url string) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", n.ClientVersion())

	if keys, err := accounts.DevKeys(cfg.Mnemonic, cfg.Accounts); err == nil && len(keys) > 0 {
		fmt.Fprintf(&b, "Available Accounts\n==================\n")
		for i, key := range keys {
			fmt.Fprintf(&b, "(%d) %s (%d ETH)\n", i, crypto.PubkeyToAddress(key.PublicKey).Hex(), cfg.Balance)
		}
		fmt.Fprintf(&b, "\nPrivate Keys\n==================\n")
		for i, key := range keys {
			fmt.Fprintf(&b, "(%d) %s\n", i, hexutil.Encode(crypto.FromECDSA(key)))
		}
		fmt.Fprintf(&b, "\nMnemonic: %s\n\n", cfg.Mnemonic)
	}

	info := n.NodeInfo()
	fmt.Fprintf(&b, "Chain ID:       %v\n", n.ChainID())
	fmt.Fprintf(&b, "Block Number:   %v\n", uint64(info.CurrentBlockNumber))
	fmt.Fprintf(&b, "Gas Limit:      %v\n", cfg.GasLimit)
	if info.ForkConfig.ForkURL != nil {
		fmt.Fprintf(&b, "Fork:           %s\n", *info.ForkConfig.ForkURL)
	}
	fmt.Fprintf(&b, "Listening on:   %s\n", url)
	fmt.Print(b.String())
}
