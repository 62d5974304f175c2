package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/domain/repository"
	"github.com/redis/go-redis/v9"
)

type discoveredModelClient struct {
	redis *redis.Client
}

func NewDiscoveredModelClient(rds *redis.Client) repository.DiscoveredModelRepository {
	return &discoveredModelClient{
		redis: rds,
	}
}

// Saveは、車種をステータスごとのキーに保存します。別のステータスで保存済みのキーは削除します。
func (r *discoveredModelClient) Save(ctx context.Context, m model.DiscoveredModel) error {
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("探索結果のエンコードに失敗しました: %w", err)
	}

	key, err := discoveryKey(m.Status, m.CarID)
	if err != nil {
		return err
	}

	pipe := r.redis.TxPipeline()
	for _, status := range []model.DiscoveryStatus{model.DiscoveryNew, model.DiscoveryKnown} {
		if status == m.Status {
			continue
		}
		other, _ := discoveryKey(status, m.CarID)
		pipe.Del(ctx, other)
	}
	pipe.Set(ctx, key, data, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("探索結果をredisに保存できませんでした: %w", err)
	}
	return nil
}

func (r *discoveredModelClient) Delete(ctx context.Context, m model.DiscoveredModel) error {
	key, err := discoveryKey(m.Status, m.CarID)
	if err != nil {
		return err
	}
	if err := r.redis.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("探索結果をredisから削除できませんでした: %w", err)
	}
	return nil
}

// FindListByStatusは、指定ステータスの車種をSCANで全件取得し、車種ID順で返します。
func (r *discoveredModelClient) FindListByStatus(ctx context.Context, size int, status model.DiscoveryStatus) ([]model.DiscoveredModel, error) {
	prefix, err := discoveryKey(status, "")
	if err != nil {
		return nil, err
	}

	var models []model.DiscoveredModel
	var cursor uint64
	for {
		var keys []string
		keys, cursor, err = r.redis.Scan(ctx, cursor, prefix+"*", int64(size)).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan error: %w", err)
		}

		for _, key := range keys {
			value, err := r.redis.Get(ctx, key).Result()
			if err == redis.Nil {
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("redis get error for key %s: %w", key, err)
			}
			var m model.DiscoveredModel
			if err := json.Unmarshal([]byte(value), &m); err != nil {
				return nil, fmt.Errorf("unmarshal error for key %s: %w", key, err)
			}
			models = append(models, m)
		}

		if cursor == 0 {
			break
		}
	}

	sortDiscovered(models)
	return models, nil
}

func discoveryKey(status model.DiscoveryStatus, carID string) (string, error) {
	switch status {
	case model.DiscoveryNew:
		return "discovered_new:" + carID, nil
	case model.DiscoveryKnown:
		return "discovered_known:" + carID, nil
	default:
		return "", fmt.Errorf("サポートされていない探索ステータスです: %s", status)
	}
}

func sortDiscovered(models []model.DiscoveredModel) {
	sort.Slice(models, func(i, j int) bool {
		return models[i].CarID < models[j].CarID
	})
}

// memoryDiscoveredModelStoreは、Redisを使わない実行のためのプロセス内ストアです。
type memoryDiscoveredModelStore struct {
	mu     sync.Mutex
	models map[string]model.DiscoveredModel
}

func NewMemoryDiscoveredModelStore() *memoryDiscoveredModelStore {
	return &memoryDiscoveredModelStore{models: map[string]model.DiscoveredModel{}}
}

func (s *memoryDiscoveredModelStore) Save(_ context.Context, m model.DiscoveredModel) error {
	if _, err := discoveryKey(m.Status, m.CarID); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.models[m.CarID] = m
	return nil
}

func (s *memoryDiscoveredModelStore) Delete(_ context.Context, m model.DiscoveredModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.models[m.CarID]; ok && cur.Status == m.Status {
		delete(s.models, m.CarID)
	}
	return nil
}

func (s *memoryDiscoveredModelStore) FindListByStatus(_ context.Context, _ int, status model.DiscoveryStatus) ([]model.DiscoveredModel, error) {
	if _, err := discoveryKey(status, ""); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var models []model.DiscoveredModel
	for _, m := range s.models {
		if m.Status == status {
			models = append(models, m)
		}
	}
	sortDiscovered(models)
	return models, nil
}
