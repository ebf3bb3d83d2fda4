package ledger

import "fmt"

// ErrInvalidTransaction represents validation errors for transactions
type ErrInvalidTransaction struct {
	Field  string
	Reason string
}

func (e *ErrInvalidTransaction) Error() string {
	return fmt.Sprintf("invalid transaction: %s - %s", e.Field, e.Reason)
}

// ErrBalanceInvariantViolation represents errors when balance calculations don't match
type ErrBalanceInvariantViolation struct {
	BalanceBefore float64
	Amount        float64
	BalanceAfter  float64
	Expected      float64
}

func (e *ErrBalanceInvariantViolation) Error() string {
	return fmt.Sprintf("balance invariant violated: balance_before=%.4f + amount=%.4f should equal balance_after=%.4f, but got %.4f",
		e.BalanceBefore, e.Amount, e.Expected, e.BalanceAfter)
}

// ErrTransactionNotFound represents errors when a transaction cannot be found
type ErrTransactionNotFound struct {
	ID      string
	AgentID string
}

func (e *ErrTransactionNotFound) Error() string {
	return fmt.Sprintf("transaction not found: id=%s, agent_id=%s", e.ID, e.AgentID)
}
