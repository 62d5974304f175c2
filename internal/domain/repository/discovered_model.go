package repository

import (
	"context"

	"github.com/nrad-K/car-catalog/internal/domain/model"
)

// DiscoveredModelRepositoryは、ブランドページで見つかった車種を保存します。
type DiscoveredModelRepository interface {
	Save(ctx context.Context, m model.DiscoveredModel) error
	Delete(ctx context.Context, m model.DiscoveredModel) error
	FindListByStatus(ctx context.Context, size int, status model.DiscoveryStatus) ([]model.DiscoveredModel, error)
}
