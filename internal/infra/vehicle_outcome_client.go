package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/domain/repository"
	"github.com/redis/go-redis/v9"
)

const outcomeKeyPrefix = "outcome:"

var outcomeStatuses = []model.OutcomeStatus{model.OutcomeFixed, model.OutcomeUnchanged, model.OutcomeFailed}

type vehicleOutcomeClient struct {
	redis    *redis.Client
	scanSize int64
}

func NewVehicleOutcomeClient(rds *redis.Client) repository.VehicleOutcomeRepository {
	return &vehicleOutcomeClient{
		redis:    rds,
		scanSize: 100,
	}
}

// Saveは、車種の直近の結果を保存します。同じ車種の他のステータスのキーは削除します。
func (r *vehicleOutcomeClient) Save(ctx context.Context, outcome model.VehicleOutcome) error {
	key, err := outcomeKey(outcome.Status, outcome.CarID)
	if err != nil {
		return err
	}
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to marshal vehicle outcome: %w", err)
	}

	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, status := range outcomeStatuses {
			if status == outcome.Status {
				continue
			}
			stale, _ := outcomeKey(status, outcome.CarID)
			pipe.Del(ctx, stale)
		}
		pipe.Set(ctx, key, data, 0)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save vehicle outcome to redis: %w", err)
	}
	return nil
}

// FindIDsByStatusは、指定ステータスの車種IDを昇順で返します。
func (r *vehicleOutcomeClient) FindIDsByStatus(ctx context.Context, status model.OutcomeStatus) ([]string, error) {
	prefix, err := outcomeKey(status, "")
	if err != nil {
		return nil, err
	}

	var ids []string
	var cursor uint64
	for {
		var keys []string
		keys, cursor, err = r.redis.Scan(ctx, cursor, prefix+"*", r.scanSize).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan error: %w", err)
		}
		for _, key := range keys {
			if id := strings.TrimPrefix(key, prefix); id != "" {
				ids = append(ids, id)
			}
		}

		// カーソルが0になったら終了
		if cursor == 0 {
			break
		}
	}

	slices.Sort(ids)
	return slices.Compact(ids), nil
}

func outcomeKey(status model.OutcomeStatus, carID string) (string, error) {
	if !slices.Contains(outcomeStatuses, status) {
		return "", fmt.Errorf("unsupported outcome status: %s", status)
	}
	return outcomeKeyPrefix + string(status) + ":" + carID, nil
}

// reportOutcomeStoreは、Redisを使わない実行のためのストアです。
// プロセス内で保存した結果に加えて、dirにある直近のscrapeレポートを前回の結果として読みます。
type reportOutcomeStore struct {
	dir      string
	mu       sync.Mutex
	outcomes map[string]model.VehicleOutcome
}

// NewReportOutcomeStoreは、実行レポートを前回の結果として使うストアを生成します。dirが空の場合はプロセス内の結果だけを使います。
func NewReportOutcomeStore(dir string) *reportOutcomeStore {
	return &reportOutcomeStore{dir: dir, outcomes: map[string]model.VehicleOutcome{}}
}

func (m *reportOutcomeStore) Save(_ context.Context, outcome model.VehicleOutcome) error {
	if _, err := outcomeKey(outcome.Status, outcome.CarID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes[outcome.CarID] = outcome
	return nil
}

func (m *reportOutcomeStore) FindIDsByStatus(_ context.Context, status model.OutcomeStatus) ([]string, error) {
	if _, err := outcomeKey(status, ""); err != nil {
		return nil, err
	}

	latest := map[string]model.OutcomeStatus{}
	if m.dir != "" {
		report, err := LoadLatestRunReport(m.dir, scrapeReportPattern)
		if err != nil {
			return nil, err
		}
		if report != nil {
			for _, o := range report.Outcomes {
				latest[o.CarID] = o.Status
			}
		}
	}

	m.mu.Lock()
	for id, o := range m.outcomes {
		latest[id] = o.Status
	}
	m.mu.Unlock()

	var ids []string
	for id, st := range latest {
		if st == status {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids, nil
}

const scrapeReportPattern = "scrape-*.json"

// LoadLatestRunReportは、dirにあるpatternに一致する実行レポートのうち、更新日時が最も新しいものを読み込みます。
// 一致するファイルが無い場合はnilを返します。
func LoadLatestRunReport(dir, pattern string) (*model.RunReport, error) {
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("実行レポートの検索に失敗しました: %w", err)
	}

	var latestPath string
	var latestMod time.Time
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("実行レポートの情報を取得できませんでした: %w", err)
		}
		if latestPath == "" || info.ModTime().After(latestMod) || (info.ModTime().Equal(latestMod) && p > latestPath) {
			latestPath = p
			latestMod = info.ModTime()
		}
	}
	if latestPath == "" {
		return nil, nil
	}

	data, err := os.ReadFile(latestPath)
	if err != nil {
		return nil, fmt.Errorf("実行レポート %s を読み込めませんでした: %w", latestPath, err)
	}
	var report model.RunReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("実行レポート %s の解析に失敗しました: %w", latestPath, err)
	}
	return &report, nil
}
