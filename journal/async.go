package journal

import (
	"sync"
	"sync/atomic"
)

// Async wraps a Journal so that records are written off the caller's
// goroutine. Writes never block: when the buffer is full the record is
// dropped and counted. A slow or failing store must never stall a decision
// cycle — the journal is observability, not the source of truth.
type Async struct {
	inner Journal

	ch   chan any
	wg   sync.WaitGroup
	once sync.Once

	dropped atomic.Uint64
	errors  atomic.Uint64
}

// NewAsync starts the background writer. buffer is the number of pending
// records held before new ones are dropped.
func NewAsync(inner Journal, buffer int) *Async {
	if buffer <= 0 {
		buffer = 256
	}
	a := &Async{
		inner: inner,
		ch:    make(chan any, buffer),
	}
	a.wg.Add(1)
	go a.loop()
	return a
}

func (a *Async) loop() {
	defer a.wg.Done()
	for rec := range a.ch {
		var err error
		switch r := rec.(type) {
		case TradeRecord:
			err = a.inner.RecordTrade(r)
		case EquitySnapshot:
			err = a.inner.RecordEquity(r)
		}
		if err != nil {
			a.errors.Add(1)
		}
	}
}

func (a *Async) enqueue(rec any) {
	select {
	case a.ch <- rec:
	default:
		a.dropped.Add(1)
	}
}

func (a *Async) RecordTrade(t TradeRecord) error {
	a.enqueue(t)
	return nil
}

func (a *Async) RecordEquity(e EquitySnapshot) error {
	a.enqueue(e)
	return nil
}

// Dropped returns how many records were discarded due to a full buffer.
func (a *Async) Dropped() uint64 { return a.dropped.Load() }

// Errors returns how many records the underlying journal failed to write.
func (a *Async) Errors() uint64 { return a.errors.Load() }

// Close drains pending records and closes the underlying journal.
func (a *Async) Close() error {
	a.once.Do(func() { close(a.ch) })
	a.wg.Wait()
	return a.inner.Close()
}
