// Package dedupe maps dataset fingerprints to analysis ids so identical
// submissions are answered from the existing analysis instead of being
// recomputed.
package dedupe

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"math"
	"sync"
	"sync/atomic"

	"github.com/arenalab/btrank/internal/domain/match"
	"github.com/arenalab/btrank/internal/domain/model"
)

// Deduper records dataset fingerprints for idempotent submissions.
type Deduper interface {
	// SeenOrRecord atomically looks up fingerprint. If it was recorded
	// before, the previously stored analysis id is returned with
	// seen == true; otherwise analysisID is recorded and seen is false.
	SeenOrRecord(ctx context.Context, fingerprint, analysisID string) (string, bool)

	// Unrecord removes a fingerprint, allowing the dataset to be
	// resubmitted. Used when a recorded submission failed to enqueue.
	Unrecord(ctx context.Context, fingerprint string)

	Size() int64
}

// Fingerprint hashes a match sequence together with its resolved
// parameters. Two submissions with the same matches, in the same order,
// and the same parameters collide intentionally. Every result-shaping
// parameter participates; only the seed is excluded, so resubmitting the
// same request does not trigger a fresh chain.
func Fingerprint(matches []match.Result, params model.Params) string {
	h := sha256.New()
	for _, m := range matches {
		h.Write([]byte(m.Winner))
		h.Write([]byte{0})
		h.Write([]byte(m.Loser))
		h.Write([]byte{1})
	}
	var buf [8]byte
	for _, v := range []uint64{
		uint64(params.MaxIter),
		uint64(params.Samples),
		uint64(params.BurnIn),
		uint64(params.Thin),
		uint64(params.StepSize),
		math.Float64bits(params.Tolerance),
		math.Float64bits(params.ProposalStd),
		math.Float64bits(params.PriorStd),
	} {
		binary.LittleEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// entry is one node of the eviction list.
type entry struct {
	fingerprint string
	analysisID  string
	next        *entry
}

func (e *entry) reset() {
	e.fingerprint = ""
	e.analysisID = ""
	e.next = nil
}

// inMemoryDeduper implements Deduper with a map plus a linked list for
// LIFO eviction in bounded mode. Unbounded mode (maxSize <= 0) keeps a
// plain map with no eviction.
type inMemoryDeduper struct {
	mu        sync.RWMutex
	seen      map[string]*entry
	head      *entry
	maxSize   int
	size      atomic.Int64
	entryPool sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[string]*entry)
	if d.maxSize > 0 {
		d.entryPool = sync.Pool{
			New: func() interface{} {
				return &entry{}
			},
		}
	}
	return d
}

// SeenOrRecord atomically looks up or records a fingerprint.
func (d *inMemoryDeduper) SeenOrRecord(ctx context.Context, fingerprint, analysisID string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if e, exists := d.seen[fingerprint]; exists {
		if e != nil {
			return e.analysisID, true
		}
		return "", true
	}

	if d.maxSize > 0 {
		if len(d.seen) >= d.maxSize {
			d.evictLIFO()
		}
		e := d.entryPool.Get().(*entry)
		e.fingerprint = fingerprint
		e.analysisID = analysisID
		e.next = d.head
		d.head = e
		d.seen[fingerprint] = e
	} else {
		d.seen[fingerprint] = &entry{fingerprint: fingerprint, analysisID: analysisID}
	}
	d.size.Add(1)
	return analysisID, false
}

// Unrecord removes a fingerprint from the seen list.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, fingerprint string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	e, exists := d.seen[fingerprint]
	if !exists {
		return
	}
	delete(d.seen, fingerprint)
	d.size.Add(-1)

	if d.maxSize <= 0 {
		return
	}

	// Unlink from the eviction list.
	if d.head == e {
		d.head = e.next
	} else {
		current := d.head
		for current != nil && current.next != e {
			current = current.next
		}
		if current != nil {
			current.next = e.next
		}
	}
	e.reset()
	d.entryPool.Put(e)
}

// evictLIFO removes the oldest entry (tail of the list).
// Must be called with d.mu held.
func (d *inMemoryDeduper) evictLIFO() {
	if len(d.seen) == 0 || d.head == nil {
		return
	}

	var prev *entry
	current := d.head

	if current.next == nil {
		delete(d.seen, current.fingerprint)
		current.reset()
		d.entryPool.Put(current)
		d.head = nil
		d.size.Add(-1)
		return
	}

	for current.next != nil {
		prev = current
		current = current.next
	}

	prev.next = nil
	delete(d.seen, current.fingerprint)
	current.reset()
	d.entryPool.Put(current)
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
