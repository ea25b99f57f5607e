package monitoring

import "github.com/rustyeddy/papertrade/journal"

// Journal tees trade and equity records into Prometheus before handing
// them to the wrapped journal.
type Journal struct {
	inner journal.Journal
}

// WrapJournal instruments a journal.
func WrapJournal(inner journal.Journal) *Journal {
	return &Journal{inner: inner}
}

func (j *Journal) RecordTrade(rec journal.TradeRecord) error {
	RecordTrade(rec.Symbol, string(rec.Side))
	return j.inner.RecordTrade(rec)
}

func (j *Journal) RecordEquity(snap journal.EquitySnapshot) error {
	RecordAccount(snap.Cash, snap.Realized)
	return j.inner.RecordEquity(snap)
}

func (j *Journal) Close() error { return j.inner.Close() }
