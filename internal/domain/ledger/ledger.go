package ledger

import (
	"time"

	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// Ledger is the world's in-memory append-only transaction log. World calls
// Record once per ducat movement (fuel purchase, delivery payment,
// tachograph fine, pickup-expiry fine, gas-station sale); a background
// persistence adapter drains it through TransactionRepository for durable
// storage without the tick loop itself depending on I/O.
type Ledger struct {
	entries []*Transaction
}

// New creates an empty Ledger.
func New() *Ledger {
	return &Ledger{}
}

// Record validates and appends a new transaction, returning it on success.
func (l *Ledger) Record(
	agentID shared.AgentID,
	timestamp time.Time,
	transactionType TransactionType,
	amount, balanceBefore, balanceAfter float64,
	description string,
	relatedEntityType, relatedEntityID string,
) (*Transaction, error) {
	tx, err := NewTransaction(agentID, timestamp, transactionType, amount, balanceBefore, balanceAfter, description, nil, relatedEntityType, relatedEntityID)
	if err != nil {
		return nil, err
	}
	l.entries = append(l.entries, tx)
	return tx, nil
}

// Entries returns every recorded transaction in insertion order.
func (l *Ledger) Entries() []*Transaction {
	return l.entries
}

// ForAgent returns every transaction recorded against the given agent.
func (l *Ledger) ForAgent(agentID shared.AgentID) []*Transaction {
	var out []*Transaction
	for _, tx := range l.entries {
		if tx.AgentID() == agentID {
			out = append(out, tx)
		}
	}
	return out
}

// NetByCategory sums income minus expense across every recorded
// transaction in a category, used by the financial metrics and the
// ledger cash-flow query.
func (l *Ledger) NetByCategory(category Category) float64 {
	total := 0.0
	for _, tx := range l.entries {
		if tx.Category() == category {
			total += tx.Amount()
		}
	}
	return total
}
