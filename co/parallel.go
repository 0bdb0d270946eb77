// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import "runtime"

// Enqueue function to enqueue parallel works.
type Enqueue func(work func())

// Parallel to run a batch of work using as many CPU as it can.
func Parallel(cb func(Enqueue)) {
	ParallelN(runtime.NumCPU(), cb)
}

// ParallelN runs a batch of work on a pool of n workers. It returns after cb
// returned and all enqueued work finished.
func ParallelN(n int, cb func(Enqueue)) {
	if n < 1 {
		n = 1
	}

	var goes Goes
	defer goes.Wait()

	ch := make(chan func(), n*2)
	defer close(ch)

	for i := 0; i < n; i++ {
		goes.Go(func() {
			for work := range ch {
				work()
			}
		})
	}
	cb(func(work func()) { ch <- work })
}
