// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	cli "gopkg.in/urfave/cli.v1"
)

var (
	networkFlag = cli.StringFlag{
		Name:  "network",
		Value: "devnet",
		Usage: "the network to join (devnet) or the path to a custom genesis file",
	}
	dataDirFlag = cli.StringFlag{
		Name:  "data-dir",
		Value: defaultDataDir(),
		Usage: "directory for ledger databases",
	}
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "path to a YAML node configuration file",
	}
	keyFileFlag = cli.StringFlag{
		Name:  "key-file",
		Usage: "path to the validator identity key (created if missing)",
	}
	devFlag = cli.BoolFlag{
		Name:  "dev",
		Usage: "run with a built-in devnet identity",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics-addr",
		Usage: "Prometheus metrics listening address; metrics are off when empty",
	}
	verbosityFlag = cli.IntFlag{
		Name:  "verbosity",
		Value: 3,
		Usage: "log verbosity (0-4)",
	}
)
