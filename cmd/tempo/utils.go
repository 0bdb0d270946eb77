// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"syscall"

	"github.com/ethereum/go-ethereum/crypto"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/tempoledger/tempo/genesis"
	"github.com/tempoledger/tempo/log"
	"github.com/tempoledger/tempo/lvldb"
	"github.com/tempoledger/tempo/metrics"
	"github.com/tempoledger/tempo/tempo"
)

func fatal(args ...interface{}) {
	fmt.Fprint(os.Stderr, "Fatal: ")
	fmt.Fprintln(os.Stderr, args...)
	os.Exit(1)
}

func fatalf(format string, args ...interface{}) {
	fatal(fmt.Sprintf(format, args...))
}

func initLogger(ctx *cli.Context) {
	var level slog.Level
	switch ctx.Int(verbosityFlag.Name) {
	case 0:
		level = slog.LevelError + 4
	case 1:
		level = slog.LevelError
	case 2:
		level = slog.LevelWarn
	case 3:
		level = slog.LevelInfo
	default:
		level = slog.LevelDebug
	}
	log.SetDefault(log.NewTerminalHandlerWithLevel(level))
}

func selectGenesis(ctx *cli.Context) *genesis.Genesis {
	network := ctx.String(networkFlag.Name)
	if network == "devnet" {
		gene, err := genesis.NewDevnet()
		if err != nil {
			fatal(err)
		}
		return gene
	}

	file, err := os.Open(network)
	if err != nil {
		fatalf("open genesis file '%v': %v", network, err)
	}
	defer file.Close()

	gene, err := genesis.ReadCustomNet(file)
	if err != nil {
		fatalf("parse genesis file '%v': %v", network, err)
	}
	return gene
}

func loadKey(keyFile string) (*ecdsa.PrivateKey, error) {
	if key, err := crypto.LoadECDSA(keyFile); err == nil {
		return key, nil
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// no such file, generate a new key and persist it
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := crypto.SaveECDSA(keyFile, key); err != nil {
		return nil, err
	}
	return key, nil
}

// loadIdentity resolves the validator key. --dev picks a random built-in
// devnet account; otherwise the key file is loaded or created.
func loadIdentity(ctx *cli.Context, instanceDir string) (tempo.PubKey, *ecdsa.PrivateKey) {
	if ctx.Bool(devFlag.Name) {
		acc := genesis.DevAccounts()[rand.Intn(len(genesis.DevAccounts()))]
		return acc.Key, acc.PrivateKey
	}

	keyFile := ctx.String(keyFileFlag.Name)
	if keyFile == "" {
		keyFile = filepath.Join(instanceDir, "identity.key")
	}
	key, err := loadKey(keyFile)
	if err != nil {
		fatalf("load validator key at '%v': %v", keyFile, err)
	}
	return tempo.PubKeyFromPublicKey(&key.PublicKey), key
}

func makeInstanceDir(ctx *cli.Context, gene *genesis.Genesis) string {
	dataDir := ctx.String(dataDirFlag.Name)
	if dataDir == "" {
		fatalf("unable to infer default data dir, use -%s to specify one", dataDirFlag.Name)
	}

	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", gene.ID().Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0700); err != nil {
		fatalf("create instance dir at '%v': %v", instanceDir, err)
	}
	return instanceDir
}

func openLedgerDB(instanceDir string) *lvldb.LevelDB {
	dir := filepath.Join(instanceDir, "ledger.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              128,
		OpenFilesCacheCapacity: 512,
	})
	if err != nil {
		fatalf("open ledger database at '%v': %v", dir, err)
	}
	return db
}

// startMetricsServer exposes the Prometheus endpoint when an address is
// configured, returning a no-op closer otherwise.
func startMetricsServer(addr string) func() {
	if addr == "" {
		return func() {}
	}
	metrics.InitializePrometheusMetrics()
	srv := &http.Server{Addr: addr, Handler: metrics.HTTPHandler()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatalf("metrics server at '%v': %v", addr, err)
		}
	}()
	return func() { srv.Shutdown(context.Background()) }
}

// handleExitSignal returns a context canceled on SIGINT or SIGTERM.
func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)
		<-exitSignalCh
		cancel()
	}()
	return ctx
}

func defaultDataDir() string {
	if home := homeDir(); home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "org.tempoledger.tempo")
		}
		return filepath.Join(home, ".org.tempoledger.tempo")
	}
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
