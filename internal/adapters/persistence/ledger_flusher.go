package persistence

import (
	"context"

	"github.com/logisim-sim/logisim/internal/domain/ledger"
)

// LedgerFlusher incrementally drains the world's in-memory ledger into the
// transaction repository. The tick loop never touches the database; the
// runner calls Flush on its own cadence (and once at shutdown).
type LedgerFlusher struct {
	repo    *GormTransactionRepository
	flushed int
}

// NewLedgerFlusher creates a flusher over the given repository.
func NewLedgerFlusher(repo *GormTransactionRepository) *LedgerFlusher {
	return &LedgerFlusher{repo: repo}
}

// Flush persists every ledger entry recorded since the previous call.
func (f *LedgerFlusher) Flush(ctx context.Context, led *ledger.Ledger) error {
	entries := led.Entries()
	if f.flushed >= len(entries) {
		return nil
	}
	pending := entries[f.flushed:]
	if err := f.repo.CreateBatch(ctx, pending); err != nil {
		return err
	}
	f.flushed = len(entries)
	return nil
}

// Reset forgets the flush watermark, used after the world is swapped.
func (f *LedgerFlusher) Reset() { f.flushed = 0 }
