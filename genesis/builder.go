// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package genesis

import (
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/pkg/errors"

	"github.com/tempoledger/tempo/state"
	"github.com/tempoledger/tempo/tempo"
)

// Builder helper to build the genesis bank.
type Builder struct {
	seed      []byte
	allocs    []Alloc
	executors []executorReg
}

// Alloc is one genesis account allocation. Stake gives the account vote
// weight in consensus; balance funds fees and transfers.
type Alloc struct {
	Key     tempo.PubKey
	Balance uint64
	Stake   uint64
}

type executorReg struct {
	program tempo.PubKey
	exec    state.Executor
}

// Seed sets the extra seed folded into the genesis hash, separating
// otherwise identical networks.
func (b *Builder) Seed(seed []byte) *Builder {
	b.seed = seed
	return b
}

// Add appends an account allocation.
func (b *Builder) Add(alloc Alloc) *Builder {
	b.allocs = append(b.allocs, alloc)
	return b
}

// Executor registers a built-in program on the genesis bank.
func (b *Builder) Executor(program tempo.PubKey, exec state.Executor) *Builder {
	b.executors = append(b.executors, executorReg{program, exec})
	return b
}

// ComputeID computes the genesis hash, which doubles as the chain's
// identity and the start of its tick chain.
func (b *Builder) ComputeID() (tempo.Bytes32, error) {
	type hashedAlloc struct {
		Key     tempo.PubKey
		Balance uint64
		Stake   uint64
	}
	hashed := struct {
		Tag    string
		Seed   []byte
		Allocs []hashedAlloc
	}{Tag: "tempo-genesis"}
	hashed.Seed = b.seed
	for _, a := range b.allocs {
		hashed.Allocs = append(hashed.Allocs, hashedAlloc(a))
	}
	data, err := rlp.EncodeToBytes(&hashed)
	if err != nil {
		return tempo.Bytes32{}, err
	}
	return tempo.Blake2b(data), nil
}

// Build builds the frozen genesis bank according to presets.
func (b *Builder) Build() (*state.Bank, error) {
	seen := make(map[tempo.PubKey]bool)
	for _, a := range b.allocs {
		if seen[a.Key] {
			return nil, errors.Errorf("duplicate genesis account %v", a.Key)
		}
		seen[a.Key] = true
	}

	id, err := b.ComputeID()
	if err != nil {
		return nil, err
	}
	bank := state.NewRootBank(tempo.PubKey{}, id)
	for _, reg := range b.executors {
		bank.RegisterExecutor(reg.program, reg.exec)
	}
	for _, a := range b.allocs {
		bank.SetAccount(a.Key, &state.Account{Balance: a.Balance})
	}
	bank.Freeze(id)
	return bank, nil
}
