// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package poh

import (
	"time"

	"github.com/tempoledger/tempo/co"
	"github.com/tempoledger/tempo/log"
)

var logger = log.WithContext("pkg", "poh")

// Clock drives the recorder on a fixed cadence, independent of transaction
// volume or consensus state. Nothing is allowed to halt it; if the scheduler
// can't keep up, empty ticks still flow so peers can detect a stalled leader.
type Clock struct {
	recorder *Recorder
	interval time.Duration

	tickSig co.Signal
	goes    co.Goes
	done    chan struct{}
}

// NewClock creates a clock over the given recorder.
func NewClock(recorder *Recorder, interval time.Duration) *Clock {
	return &Clock{
		recorder: recorder,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Recorder returns the driven recorder.
func (c *Clock) Recorder() *Recorder {
	return c.recorder
}

// NewTickWaiter creates a waiter woken on every tick.
func (c *Clock) NewTickWaiter() co.Waiter {
	return c.tickSig.NewWaiter()
}

// Start spawns the tick loop.
func (c *Clock) Start() {
	c.goes.Go(c.tickLoop)
	logger.Debug("clock started", "interval", c.interval)
}

// Stop stops the tick loop and waits for it to exit.
func (c *Clock) Stop() {
	close(c.done)
	c.goes.Wait()
	logger.Debug("clock stopped", "tickHeight", c.recorder.TickHeight())
}

func (c *Clock) tickLoop() {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			c.recorder.Tick()
			c.tickSig.Broadcast()
		}
	}
}
