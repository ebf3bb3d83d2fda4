// Package ledger implements the broker's and the trucks' append-only
// transaction log: every ducat movement (fuel purchase, delivery payment,
// tachograph fine, pickup-expiry fine, gas-station sale) is recorded as
// one immutable Transaction keyed by the owning agent.
package ledger

import (
	"fmt"
	"math"
	"time"

	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// balanceEpsilon absorbs float64 accumulation error across the
// balance_before + amount == balance_after invariant check.
const balanceEpsilon = 1e-6

// Transaction is the aggregate root representing a financial transaction
// Transactions are immutable once created and follow strict invariants
type Transaction struct {
	id                TransactionID
	agentID           shared.AgentID
	timestamp         time.Time
	transactionType   TransactionType
	category          Category
	amount            float64 // Positive for income, negative for expenses
	balanceBefore     float64
	balanceAfter      float64
	description       string
	metadata          map[string]interface{}
	relatedEntityType string // e.g., "package", "gas_station"
	relatedEntityID   string // ID of related entity
}

// NewTransaction creates a new transaction with validation
func NewTransaction(
	agentID shared.AgentID,
	timestamp time.Time,
	transactionType TransactionType,
	amount float64,
	balanceBefore float64,
	balanceAfter float64,
	description string,
	metadata map[string]interface{},
	relatedEntityType string,
	relatedEntityID string,
) (*Transaction, error) {
	id := NewTransactionID()

	if agentID == "" {
		return nil, &ErrInvalidTransaction{
			Field:  "agent_id",
			Reason: "agent_id cannot be empty",
		}
	}

	if !transactionType.IsValid() {
		return nil, &ErrInvalidTransaction{
			Field:  "transaction_type",
			Reason: fmt.Sprintf("invalid transaction type: %s", transactionType),
		}
	}

	category, err := transactionType.ToCategory()
	if err != nil {
		return nil, &ErrInvalidTransaction{
			Field:  "category",
			Reason: err.Error(),
		}
	}

	t := &Transaction{
		id:                id,
		agentID:           agentID,
		timestamp:         timestamp,
		transactionType:   transactionType,
		category:          category,
		amount:            amount,
		balanceBefore:     balanceBefore,
		balanceAfter:      balanceAfter,
		description:       description,
		metadata:          metadata,
		relatedEntityType: relatedEntityType,
		relatedEntityID:   relatedEntityID,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

// ReconstructTransaction reconstructs a transaction from persistence,
// bypassing the constructor's validation; used only by the persistence
// adapter when loading a save file it already trusts.
func ReconstructTransaction(
	id TransactionID,
	agentID shared.AgentID,
	timestamp time.Time,
	transactionType TransactionType,
	category Category,
	amount float64,
	balanceBefore float64,
	balanceAfter float64,
	description string,
	metadata map[string]interface{},
	relatedEntityType string,
	relatedEntityID string,
) *Transaction {
	return &Transaction{
		id:                id,
		agentID:           agentID,
		timestamp:         timestamp,
		transactionType:   transactionType,
		category:          category,
		amount:            amount,
		balanceBefore:     balanceBefore,
		balanceAfter:      balanceAfter,
		description:       description,
		metadata:          metadata,
		relatedEntityType: relatedEntityType,
		relatedEntityID:   relatedEntityID,
	}
}

// Validate checks that the transaction satisfies all invariants
func (t *Transaction) Validate() error {
	if t.amount == 0 {
		return &ErrInvalidTransaction{
			Field:  "amount",
			Reason: "amount cannot be zero",
		}
	}

	expected := t.balanceBefore + t.amount
	if math.Abs(t.balanceAfter-expected) > balanceEpsilon {
		return &ErrBalanceInvariantViolation{
			BalanceBefore: t.balanceBefore,
			Amount:        t.amount,
			BalanceAfter:  t.balanceAfter,
			Expected:      expected,
		}
	}

	return nil
}

// Getters (all fields are immutable)

func (t *Transaction) ID() TransactionID { return t.id }

func (t *Transaction) AgentID() shared.AgentID { return t.agentID }

func (t *Transaction) Timestamp() time.Time { return t.timestamp }

func (t *Transaction) TransactionType() TransactionType { return t.transactionType }

func (t *Transaction) Category() Category { return t.category }

func (t *Transaction) Amount() float64 { return t.amount }

func (t *Transaction) BalanceBefore() float64 { return t.balanceBefore }

func (t *Transaction) BalanceAfter() float64 { return t.balanceAfter }

func (t *Transaction) Description() string { return t.description }

func (t *Transaction) Metadata() map[string]interface{} {
	if t.metadata == nil {
		return nil
	}
	out := make(map[string]interface{}, len(t.metadata))
	for k, v := range t.metadata {
		out[k] = v
	}
	return out
}

func (t *Transaction) RelatedEntityType() string { return t.relatedEntityType }

func (t *Transaction) RelatedEntityID() string { return t.relatedEntityID }

// IsIncome returns true if the transaction represents income
func (t *Transaction) IsIncome() bool { return t.amount > 0 }

// IsExpense returns true if the transaction represents an expense
func (t *Transaction) IsExpense() bool { return t.amount < 0 }

// String provides a human-readable representation
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction[%s, type=%s, amount=%.2f, balance=%.2f->%.2f]",
		t.id.String(), t.transactionType, t.amount, t.balanceBefore, t.balanceAfter)
}
