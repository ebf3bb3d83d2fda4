package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/logisim-sim/logisim/internal/domain/ledger"
	"github.com/logisim-sim/logisim/internal/domain/shared"
)

// GormTransactionRepository implements ledger.TransactionRepository over
// GORM, against either Postgres or SQLite.
type GormTransactionRepository struct {
	db *gorm.DB
}

// NewGormTransactionRepository creates a new GORM transaction repository.
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// Create persists a new transaction.
func (r *GormTransactionRepository) Create(ctx context.Context, transaction *ledger.Transaction) error {
	model, err := r.transactionToModel(transaction)
	if err != nil {
		return fmt.Errorf("failed to convert transaction to model: %w", err)
	}

	result := r.db.WithContext(ctx).Create(model)
	if result.Error != nil {
		return fmt.Errorf("failed to create transaction: %w", result.Error)
	}
	return nil
}

// CreateBatch persists a slice of transactions in one round trip, used by
// the ledger flusher on each periodic flush and on the final flush at
// shutdown.
func (r *GormTransactionRepository) CreateBatch(ctx context.Context, transactions []*ledger.Transaction) error {
	if len(transactions) == 0 {
		return nil
	}
	models := make([]*TransactionModel, 0, len(transactions))
	for _, tx := range transactions {
		model, err := r.transactionToModel(tx)
		if err != nil {
			return fmt.Errorf("failed to convert transaction to model: %w", err)
		}
		models = append(models, model)
	}
	result := r.db.WithContext(ctx).Create(models)
	if result.Error != nil {
		return fmt.Errorf("failed to create transactions: %w", result.Error)
	}
	return nil
}

// FindByID retrieves a transaction by its ID.
func (r *GormTransactionRepository) FindByID(ctx context.Context, id ledger.TransactionID, agentID shared.AgentID) (*ledger.Transaction, error) {
	var model TransactionModel
	result := r.db.WithContext(ctx).
		Where("id = ? AND agent_id = ?", id.String(), string(agentID)).
		First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, &ledger.ErrTransactionNotFound{ID: id.String(), AgentID: string(agentID)}
		}
		return nil, fmt.Errorf("failed to find transaction: %w", result.Error)
	}
	return r.modelToTransaction(&model)
}

// FindByAgent retrieves transactions for an agent with optional filtering.
func (r *GormTransactionRepository) FindByAgent(ctx context.Context, agentID shared.AgentID, opts ledger.QueryOptions) ([]*ledger.Transaction, error) {
	query := r.applyOptions(r.db.WithContext(ctx).Where("agent_id = ?", string(agentID)), opts)

	orderBy := opts.OrderBy
	if orderBy == "" {
		orderBy = "timestamp DESC"
	}
	query = query.Order(orderBy)
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var models []TransactionModel
	if result := query.Find(&models); result.Error != nil {
		return nil, fmt.Errorf("failed to find transactions: %w", result.Error)
	}

	transactions := make([]*ledger.Transaction, 0, len(models))
	for i := range models {
		tx, err := r.modelToTransaction(&models[i])
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, nil
}

// CountByAgent returns the count of transactions matching the criteria.
func (r *GormTransactionRepository) CountByAgent(ctx context.Context, agentID shared.AgentID, opts ledger.QueryOptions) (int, error) {
	query := r.applyOptions(r.db.WithContext(ctx).Model(&TransactionModel{}).Where("agent_id = ?", string(agentID)), opts)

	var count int64
	if result := query.Count(&count); result.Error != nil {
		return 0, fmt.Errorf("failed to count transactions: %w", result.Error)
	}
	return int(count), nil
}

func (r *GormTransactionRepository) applyOptions(query *gorm.DB, opts ledger.QueryOptions) *gorm.DB {
	if opts.StartDate != nil {
		query = query.Where("timestamp >= ?", *opts.StartDate)
	}
	if opts.EndDate != nil {
		query = query.Where("timestamp <= ?", *opts.EndDate)
	}
	if opts.Category != nil {
		query = query.Where("category = ?", opts.Category.String())
	}
	if opts.TransactionType != nil {
		query = query.Where("transaction_type = ?", opts.TransactionType.String())
	}
	if opts.RelatedEntityType != nil {
		query = query.Where("related_entity_type = ?", *opts.RelatedEntityType)
	}
	if opts.RelatedEntityID != nil {
		query = query.Where("related_entity_id = ?", *opts.RelatedEntityID)
	}
	return query
}

func (r *GormTransactionRepository) transactionToModel(tx *ledger.Transaction) (*TransactionModel, error) {
	metadataJSON := ""
	if md := tx.Metadata(); md != nil {
		raw, err := json.Marshal(md)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadataJSON = string(raw)
	}
	return &TransactionModel{
		ID:                tx.ID().String(),
		AgentID:           string(tx.AgentID()),
		Timestamp:         tx.Timestamp(),
		TransactionType:   tx.TransactionType().String(),
		Category:          tx.Category().String(),
		Amount:            tx.Amount(),
		BalanceBefore:     tx.BalanceBefore(),
		BalanceAfter:      tx.BalanceAfter(),
		Description:       tx.Description(),
		Metadata:          metadataJSON,
		RelatedEntityType: tx.RelatedEntityType(),
		RelatedEntityID:   tx.RelatedEntityID(),
		CreatedAt:         time.Now().UTC(),
	}, nil
}

func (r *GormTransactionRepository) modelToTransaction(model *TransactionModel) (*ledger.Transaction, error) {
	id, err := ledger.NewTransactionIDFromString(model.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid transaction id %q: %w", model.ID, err)
	}
	txType, err := ledger.ParseTransactionType(model.TransactionType)
	if err != nil {
		return nil, err
	}
	category, err := ledger.ParseCategory(model.Category)
	if err != nil {
		return nil, err
	}

	var metadata map[string]interface{}
	if model.Metadata != "" {
		if err := json.Unmarshal([]byte(model.Metadata), &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	return ledger.ReconstructTransaction(
		id,
		shared.AgentID(model.AgentID),
		model.Timestamp,
		txType,
		category,
		model.Amount,
		model.BalanceBefore,
		model.BalanceAfter,
		model.Description,
		metadata,
		model.RelatedEntityType,
		model.RelatedEntityID,
	), nil
}
