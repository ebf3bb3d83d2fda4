package persistence

import (
	"time"
)

// TransactionModel is the GORM model for ledger transactions.
type TransactionModel struct {
	ID                string    `gorm:"primaryKey;size:64"`
	AgentID           string    `gorm:"index;size:64;not null"`
	Timestamp         time.Time `gorm:"index;not null"`
	TransactionType   string    `gorm:"size:32;not null"`
	Category          string    `gorm:"index;size:32;not null"`
	Amount            float64   `gorm:"not null"`
	BalanceBefore     float64   `gorm:"not null"`
	BalanceAfter      float64   `gorm:"not null"`
	Description       string    `gorm:"size:255"`
	Metadata          string    `gorm:"type:text"` // JSON-encoded
	RelatedEntityType string    `gorm:"size:32"`
	RelatedEntityID   string    `gorm:"size:64"`
	CreatedAt         time.Time
}

// TableName overrides the GORM default.
func (TransactionModel) TableName() string { return "transactions" }

// SnapshotModel is the GORM model for periodic world snapshots: the full
// save document, keyed by tick, so a crashed run can be resumed from the
// most recent durable state.
type SnapshotModel struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	Tick      int64  `gorm:"index;not null"`
	Document  string `gorm:"type:text;not null"` // JSON save document
	CreatedAt time.Time
}

// TableName overrides the GORM default.
func (SnapshotModel) TableName() string { return "world_snapshots" }
