// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package genesis builds the frozen genesis bank a validator boots from.
// The genesis hash seeds the tick chain, so two networks with different
// allocations can never exchange ledger data by accident.
package genesis

import (
	"github.com/tempoledger/tempo/state"
	"github.com/tempoledger/tempo/tempo"
	"github.com/tempoledger/tempo/tower"
)

// Genesis is a ready-to-build genesis preset.
type Genesis struct {
	builder *Builder
	id      tempo.Bytes32
	name    string
}

func newGenesis(builder *Builder, name string) (*Genesis, error) {
	builder.
		Executor(state.SystemProgramKey, &state.SystemProgram{}).
		Executor(tower.VoteProgramKey, &tower.Program{})
	id, err := builder.ComputeID()
	if err != nil {
		return nil, err
	}
	return &Genesis{builder, id, name}, nil
}

// ID returns the genesis hash.
func (g *Genesis) ID() tempo.Bytes32 {
	return g.id
}

// Name returns the preset name.
func (g *Genesis) Name() string {
	return g.name
}

// Build builds the frozen genesis bank.
func (g *Genesis) Build() (*state.Bank, error) {
	return g.builder.Build()
}

// Stakes returns the stake distribution consensus weighs votes by.
func (g *Genesis) Stakes() map[tempo.PubKey]uint64 {
	stakes := make(map[tempo.PubKey]uint64)
	for _, a := range g.builder.allocs {
		if a.Stake > 0 {
			stakes[a.Key] = a.Stake
		}
	}
	return stakes
}

// Validators returns the staked account keys, in allocation order. The
// default round-robin leader schedule rotates over them.
func (g *Genesis) Validators() []tempo.PubKey {
	var keys []tempo.PubKey
	for _, a := range g.builder.allocs {
		if a.Stake > 0 {
			keys = append(keys, a.Key)
		}
	}
	return keys
}
