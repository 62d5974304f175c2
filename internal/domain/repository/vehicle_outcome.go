package repository

import (
	"context"

	"github.com/nrad-K/car-catalog/internal/domain/model"
)

// VehicleOutcomeRepositoryは、車種ごとの直近の実行結果を保存します。再実行時のワークリストに使います。
type VehicleOutcomeRepository interface {
	Save(ctx context.Context, outcome model.VehicleOutcome) error
	FindIDsByStatus(ctx context.Context, status model.OutcomeStatus) ([]string, error)
}
