package sqlrepository

import (
	"context"
	"fmt"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/gigmile/mobile-money-service/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type GORMProviderEventRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewProviderEventRepository(db *gorm.DB, logger *zap.Logger) *GORMProviderEventRepository {
	return &GORMProviderEventRepository{
		db:     db,
		logger: logger,
	}
}

func (r *GORMProviderEventRepository) Record(ctx context.Context, event *domain.ProviderEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}

	if err := r.db.WithContext(ctx).Create(persistence.ProviderEventModelFromDomain(event)).Error; err != nil {
		r.logger.Error("failed to record provider event",
			zap.Error(err),
			zap.String("reference", event.Reference),
		)
		return fmt.Errorf("database error: %w", err)
	}

	return nil
}

func (r *GORMProviderEventRepository) FindByReference(ctx context.Context, reference string) ([]*domain.ProviderEvent, error) {
	var models []persistence.ProviderEventModel

	result := r.db.WithContext(ctx).
		Where("reference = ?", reference).
		Order("received_at ASC").
		Find(&models)
	if result.Error != nil {
		return nil, fmt.Errorf("database error: %w", result.Error)
	}

	events := make([]*domain.ProviderEvent, len(models))
	for i := range models {
		events[i] = models[i].ToDomain()
	}

	return events, nil
}
