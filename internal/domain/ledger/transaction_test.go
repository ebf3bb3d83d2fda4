package ledger_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logisim-sim/logisim/internal/domain/ledger"
)

func TestNewTransaction_BalanceInvariant(t *testing.T) {
	now := time.Now()

	tx, err := ledger.NewTransaction("t1", now, ledger.TransactionTypeRefuel, -50, 100, 50, "refuel", nil, "gas_station", "g1")
	require.NoError(t, err)
	assert.Equal(t, ledger.CategoryFuelCosts, tx.Category())
	assert.True(t, tx.IsExpense())

	_, err = ledger.NewTransaction("t1", now, ledger.TransactionTypeRefuel, -50, 100, 60, "bad math", nil, "", "")
	assert.Error(t, err, "balance invariant violation must be rejected")

	_, err = ledger.NewTransaction("t1", now, ledger.TransactionTypeRefuel, 0, 100, 100, "no-op", nil, "", "")
	assert.Error(t, err, "zero amount is invalid")

	_, err = ledger.NewTransaction("", now, ledger.TransactionTypeRefuel, -50, 100, 50, "anon", nil, "", "")
	assert.Error(t, err, "empty agent id is invalid")
}

func TestTransactionType_CategoryMapping(t *testing.T) {
	for _, txType := range ledger.AllTransactionTypes() {
		category, err := txType.ToCategory()
		require.NoError(t, err)
		assert.True(t, category.IsValid())
	}

	_, err := ledger.TransactionType("BOGUS").ToCategory()
	assert.Error(t, err)
}

func TestLedger_RecordAndQuery(t *testing.T) {
	led := ledger.New()
	now := time.Now()

	_, err := led.Record("broker", now, ledger.TransactionTypeDeliveryPayment, 100, 10000, 10100, "payout", "package", "p1")
	require.NoError(t, err)
	_, err = led.Record("t1", now, ledger.TransactionTypeRefuel, -40, 0, -40, "refuel", "gas_station", "g1")
	require.NoError(t, err)

	assert.Len(t, led.Entries(), 2)
	assert.Len(t, led.ForAgent("t1"), 1)
	assert.InDelta(t, 100, led.NetByCategory(ledger.CategoryDeliveryRevenue), 1e-9)
	assert.InDelta(t, -40, led.NetByCategory(ledger.CategoryFuelCosts), 1e-9)
}

func TestTransactionID_Parsing(t *testing.T) {
	id := ledger.NewTransactionID()
	parsed, err := ledger.NewTransactionIDFromString(id.String())
	require.NoError(t, err)
	assert.True(t, id.Equals(parsed))

	_, err = ledger.NewTransactionIDFromString("not-a-uuid")
	assert.Error(t, err)
}
