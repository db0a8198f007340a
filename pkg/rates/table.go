package rates

import "sync"

// Table holds the current GBP→MWK exchange rate. It is safe for concurrent
// reads while a refresher goroutine updates it.
type Table struct {
	mu       sync.RWMutex
	gbpToMWK float64
}

// NewTable seeds the table with a static rate (from config) so checkout
// works before the first live refresh, or with no rates endpoint at all.
func NewTable(gbpToMWK float64) *Table {
	return &Table{gbpToMWK: gbpToMWK}
}

func (t *Table) GBPToMWK() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gbpToMWK
}

// SetGBPToMWK replaces the rate. Zero or negative values are ignored so a
// bad upstream quote cannot poison checkout pricing.
func (t *Table) SetGBPToMWK(rate float64) {
	if rate <= 0 {
		return
	}
	t.mu.Lock()
	t.gbpToMWK = rate
	t.mu.Unlock()
}
