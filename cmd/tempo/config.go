// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/tempoledger/tempo/node"
)

// config is the YAML shape of the node configuration file. Zero fields
// fall back to the built-in defaults, so a partial file is fine.
type config struct {
	TicksPerSlot   uint64 `yaml:"ticks-per-slot"`
	HashesPerTick  uint64 `yaml:"hashes-per-tick"`
	TickIntervalMS uint64 `yaml:"tick-interval-ms"`
	Workers        int    `yaml:"workers"`
	MaxLockRetries int    `yaml:"max-lock-retries"`

	TxPool struct {
		Limit          int    `yaml:"limit"`
		LimitPerSigner int    `yaml:"limit-per-signer"`
		MaxLifetimeMin uint64 `yaml:"max-lifetime-minutes"`
	} `yaml:"txpool"`
}

func loadConfig(path string) (*config, error) {
	var cfg config
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "parse config file")
	}
	return &cfg, nil
}

// nodeOptions projects the file config onto the node defaults.
func (c *config) nodeOptions() node.Options {
	opts := node.DefaultOptions()
	if c.TicksPerSlot > 0 {
		opts.TicksPerSlot = c.TicksPerSlot
	}
	if c.HashesPerTick > 0 {
		opts.HashesPerTick = c.HashesPerTick
	}
	if c.TickIntervalMS > 0 {
		opts.TickInterval = time.Duration(c.TickIntervalMS) * time.Millisecond
	}
	if c.Workers > 0 {
		opts.Workers = c.Workers
	}
	if c.MaxLockRetries > 0 {
		opts.MaxLockRetries = c.MaxLockRetries
	}
	if c.TxPool.Limit > 0 {
		opts.TxPoolOptions.Limit = c.TxPool.Limit
	}
	if c.TxPool.LimitPerSigner > 0 {
		opts.TxPoolOptions.LimitPerSigner = c.TxPool.LimitPerSigner
	}
	if c.TxPool.MaxLifetimeMin > 0 {
		opts.TxPoolOptions.MaxLifetime = time.Duration(c.TxPool.MaxLifetimeMin) * time.Minute
	}
	return opts
}
