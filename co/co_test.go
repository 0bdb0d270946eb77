// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tempoledger/tempo/co"
)

func TestGoes(t *testing.T) {
	var g co.Goes
	var n int32
	for i := 0; i < 10; i++ {
		g.Go(func() { atomic.AddInt32(&n, 1) })
	}
	<-g.Done()
	assert.Equal(t, int32(10), atomic.LoadInt32(&n))
}

func TestSignalBroadcast(t *testing.T) {
	var sig co.Signal

	var g co.Goes
	var woken int32
	for i := 0; i < 5; i++ {
		w := sig.NewWaiter()
		g.Go(func() {
			<-w.C()
			atomic.AddInt32(&woken, 1)
		})
	}
	time.Sleep(10 * time.Millisecond)
	sig.Broadcast()
	g.Wait()
	assert.Equal(t, int32(5), atomic.LoadInt32(&woken))
}

func TestSignalBeforeWait(t *testing.T) {
	var sig co.Signal
	sig.Signal()

	w := sig.NewWaiter()
	select {
	case <-w.C():
	case <-time.After(time.Second):
		t.Fatal("signal lost")
	}
}

func TestParallelN(t *testing.T) {
	var n int64
	co.ParallelN(4, func(enqueue co.Enqueue) {
		for i := 0; i < 100; i++ {
			i := i
			enqueue(func() { atomic.AddInt64(&n, int64(i)) })
		}
	})
	assert.Equal(t, int64(4950), n)
}
