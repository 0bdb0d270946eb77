// Copyright (c) 2026 The Tempo developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import "bytes"

// Bucket provides logical bucket for kv store, by prefixing all keys.
type Bucket string

// NewGetter creates a bucket getter from the source getter.
func (b Bucket) NewGetter(src Getter) Getter {
	return &bucketGetter{string(b), src}
}

// NewPutter creates a bucket putter from the source putter.
func (b Bucket) NewPutter(src Putter) Putter {
	return &bucketPutter{string(b), src}
}

type bucketGetter struct {
	prefix string
	src    Getter
}

func (g *bucketGetter) Get(key []byte) ([]byte, error) {
	return g.src.Get(append([]byte(g.prefix), key...))
}

func (g *bucketGetter) Has(key []byte) (bool, error) {
	return g.src.Has(append([]byte(g.prefix), key...))
}

func (g *bucketGetter) IsNotFound(err error) bool {
	return g.src.IsNotFound(err)
}

func (g *bucketGetter) NewIterator(r Range) Iterator {
	from := append([]byte(g.prefix), r.From...)
	var to []byte
	if len(r.To) > 0 {
		to = append([]byte(g.prefix), r.To...)
	} else {
		// all keys under the bucket
		to = bucketUpperBound([]byte(g.prefix))
	}
	return &bucketIterator{len(g.prefix), g.src.NewIterator(Range{From: from, To: to})}
}

type bucketPutter struct {
	prefix string
	src    Putter
}

func (p *bucketPutter) Put(key, value []byte) error {
	return p.src.Put(append([]byte(p.prefix), key...), value)
}

func (p *bucketPutter) Delete(key []byte) error {
	return p.src.Delete(append([]byte(p.prefix), key...))
}

// bucketIterator strips the bucket prefix off iterated keys.
type bucketIterator struct {
	prefixLen int
	src       Iterator
}

func (i *bucketIterator) Next() bool     { return i.src.Next() }
func (i *bucketIterator) Release()       { i.src.Release() }
func (i *bucketIterator) Error() error   { return i.src.Error() }
func (i *bucketIterator) Value() []byte  { return i.src.Value() }
func (i *bucketIterator) Key() []byte {
	key := i.src.Key()
	if len(key) < i.prefixLen {
		return key
	}
	return key[i.prefixLen:]
}

// bucketUpperBound returns the smallest key greater than every key carrying
// the prefix, or nil if the prefix is all 0xff.
func bucketUpperBound(prefix []byte) []byte {
	bound := bytes.Clone(prefix)
	for i := len(bound) - 1; i >= 0; i-- {
		if bound[i] != 0xff {
			bound[i]++
			return bound[:i+1]
		}
	}
	return nil
}
