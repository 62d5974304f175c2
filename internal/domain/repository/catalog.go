package repository

import (
	"context"

	"github.com/nrad-K/car-catalog/internal/domain/model"
)

// CatalogRepositoryは、3つのカタログドキュメントのload/persistを行います。
// 変更系の実行は同時に1つだけであることをLock/Unlockで保証します。
type CatalogRepository interface {
	Load(ctx context.Context) (*model.Catalog, error)
	Persist(ctx context.Context, catalog *model.Catalog) error
	Lock() error
	Unlock() error
}
