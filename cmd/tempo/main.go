// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/tempoledger/tempo/log"
	"github.com/tempoledger/tempo/node"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
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
		Version:   fullVersion(),
		Name:      "Tempo",
		Usage:     "Tempo network validator",
		Copyright: "2026 The Tempo developers",
		Flags: []cli.Flag{
			networkFlag,
			dataDirFlag,
			configFlag,
			keyFileFlag,
			devFlag,
			metricsAddrFlag,
			verbosityFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	initLogger(ctx)

	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		fatal(err)
	}

	gene := selectGenesis(ctx)
	instanceDir := makeInstanceDir(ctx, gene)
	self, key := loadIdentity(ctx, instanceDir)

	db := openLedgerDB(instanceDir)
	defer func() { logger.Info("closing ledger database..."); db.Close() }()

	stopMetrics := startMetricsServer(ctx.String(metricsAddrFlag.Name))
	defer stopMetrics()

	n, err := node.New(db, gene, key, nil, cfg.nodeOptions())
	if err != nil {
		fatal(err)
	}

	// no gossip transport in the standalone binary; drain the outbound
	// channels so production never stalls on them
	go func() {
		for range n.SealedSlots() {
		}
	}()
	go func() {
		for range n.Votes() {
		}
	}()

	logger.Info("starting validator",
		"network", gene.Name(),
		"genesis", gene.ID(),
		"validator", self,
		"instance-dir", instanceDir,
	)
	return n.Run(handleExitSignal())
}
