package persistence

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// GormSnapshotRepository stores and retrieves full world save documents,
// used for periodic durable checkpoints alongside the explicit save-file
// actions.
type GormSnapshotRepository struct {
	db *gorm.DB
}

// NewGormSnapshotRepository creates a new GORM snapshot repository.
func NewGormSnapshotRepository(db *gorm.DB) *GormSnapshotRepository {
	return &GormSnapshotRepository{db: db}
}

// Save persists one world snapshot document at the given tick.
func (r *GormSnapshotRepository) Save(ctx context.Context, tick int64, document []byte) error {
	model := &SnapshotModel{
		Tick:      tick,
		Document:  string(document),
		CreatedAt: time.Now().UTC(),
	}
	if result := r.db.WithContext(ctx).Create(model); result.Error != nil {
		return fmt.Errorf("failed to save snapshot: %w", result.Error)
	}
	return nil
}

// Latest returns the most recent snapshot document and its tick, or
// (nil, 0, nil) when none exist.
func (r *GormSnapshotRepository) Latest(ctx context.Context) ([]byte, int64, error) {
	var model SnapshotModel
	result := r.db.WithContext(ctx).Order("tick desc").First(&model)
	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to load snapshot: %w", result.Error)
	}
	return []byte(model.Document), model.Tick, nil
}

// PruneBefore removes snapshots older than the given tick, bounding table
// growth on long runs.
func (r *GormSnapshotRepository) PruneBefore(ctx context.Context, tick int64) error {
	result := r.db.WithContext(ctx).Where("tick < ?", tick).Delete(&SnapshotModel{})
	if result.Error != nil {
		return fmt.Errorf("failed to prune snapshots: %w", result.Error)
	}
	return nil
}
