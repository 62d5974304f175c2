package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/nrad-K/car-catalog/internal/config"
	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/infra"
	"github.com/nrad-K/car-catalog/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScraperConfig(t *testing.T) *config.ScraperConfig {
	t.Helper()
	return &config.ScraperConfig{
		EstimateURLTemplate: "https://auto.danawa.com/newcar/?Work=estimate&Model=%s",
		ImageBaseURL:        "https://autoimg.danawa.com/photo",
		BatchSize:           2,
		Concurrency:         2,
		PricePolicy:         model.PricePolicyMax,
		ReportDir:           t.TempDir(),
		SettleDelayMillis:   3500,
		Selector: config.SelectorConfig{
			TrimClick:  []string{`input[type="radio"][name^="eChkTrim"]`},
			ColorPanel: "#estimateExteriorColorList",
		},
	}
}

func fixedNow() time.Time {
	return time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
}

func TestBatch_OneTimeoutDoesNotAbortRun(t *testing.T) {
	ctx := context.Background()
	cfg := newTestScraperConfig(t)
	before := testCatalog()
	repo := newFakeCatalogRepo(before)
	outcomes := infra.NewReportOutcomeStore("")
	extractor := &fakeExtractor{results: map[string]fakeExtraction{
		"1": {record: model.ScrapeRecord{CarID: "1", Trims: []model.RawTrim{
			{Name: "SA", Price: 31_000_000},
			{Name: "SB", Price: 35_000_000},
		}}},
		"2": {record: model.ScrapeRecord{CarID: "2", Trims: []model.RawTrim{{Name: "AA", Price: 20_000_000}}}},
		"3": {err: model.NewExtractError(model.ExtractErrorTimeout, "3", infra.ErrNavigationTimeout)},
	}}

	uc := NewScrapeBatchUseCase(BatchArgs{
		Cfg:       cfg,
		Repo:      repo,
		Outcomes:  outcomes,
		Extractor: extractor,
		Logger:    logger.NewNop(),
		Now:       fixedNow,
	})

	report, err := uc.Run(ctx, WorklistSelector{Entries: ParseIDs("1,2,3")})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Counts.Total)
	assert.Equal(t, 2, report.Succeeded())
	assert.Equal(t, 1, report.Counts.Failed)
	assert.Equal(t, 1, report.Counts.Fixed)
	assert.Equal(t, 1, report.Counts.Unchanged)
	assert.Equal(t, []string{"3"}, report.FailedIDs())
	assert.True(t, report.Persisted)
	assert.Equal(t, 1, repo.persisted)

	failed := report.Outcomes[2]
	assert.Equal(t, string(model.ExtractErrorTimeout), failed.ErrorKind)

	after := repo.snapshot()

	// 失敗した車種は実行前のデータのまま
	beforeCar, _ := before.FindCarByID("3")
	afterCar, ok := after.FindCarByID("3")
	require.True(t, ok)
	assert.Equal(t, *beforeCar, *afterCar)
	beforeDetail, _ := before.FindDetailByID("3")
	afterDetail, ok := after.FindDetailByID("3")
	require.True(t, ok)
	assert.Equal(t, beforeDetail, afterDetail)

	car, _ := after.FindCarByID("1")
	assert.Equal(t, int64(31_000_000), car.StartPrice)

	ids, err := outcomes.FindIDsByStatus(ctx, model.OutcomeFailed)
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, ids)

	assert.FileExists(t, filepath.Join(cfg.ReportDir, fmt.Sprintf("scrape-%s.json", report.RunID)))
	assert.False(t, repo.locked)
}

func TestBatch_ConcurrencyIsBounded(t *testing.T) {
	cfg := newTestScraperConfig(t)
	cfg.BatchSize = 4
	cfg.Concurrency = 2
	repo := newFakeCatalogRepo(testCatalog())
	extractor := &fakeExtractor{results: map[string]fakeExtraction{}, delay: 20 * time.Millisecond}

	uc := NewScrapeBatchUseCase(BatchArgs{
		Cfg:       cfg,
		Repo:      repo,
		Extractor: extractor,
		Logger:    logger.NewNop(),
	})

	report, err := uc.Run(context.Background(), WorklistSelector{Entries: ParseIDs("1,2,3")})
	require.NoError(t, err)

	assert.Equal(t, int32(3), extractor.calls.Load())
	assert.LessOrEqual(t, extractor.maxConcurrent.Load(), int32(2))
	// 空の抽出結果は既存データを変更しない
	assert.Equal(t, 3, report.Counts.Unchanged)
}

func TestBatch_PersistsAfterCancellation(t *testing.T) {
	cfg := newTestScraperConfig(t)
	repo := newFakeCatalogRepo(testCatalog())
	extractor := &fakeExtractor{results: map[string]fakeExtraction{}}

	uc := NewScrapeBatchUseCase(BatchArgs{
		Cfg:       cfg,
		Repo:      repo,
		Extractor: extractor,
		Logger:    logger.NewNop(),
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := uc.Run(ctx, WorklistSelector{Entries: ParseIDs("1,2,3")})
	require.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, int32(0), extractor.calls.Load())
	assert.Equal(t, 1, repo.persisted)
	assert.True(t, report.Persisted)
}

func TestBatch_MalformedCatalogAborts(t *testing.T) {
	cfg := newTestScraperConfig(t)
	repo := newFakeCatalogRepo(testCatalog())
	repo.loadErr = fmt.Errorf("%w: generated-cars.json", model.ErrMalformedCatalog)
	extractor := &fakeExtractor{}

	uc := NewScrapeBatchUseCase(BatchArgs{
		Cfg:       cfg,
		Repo:      repo,
		Extractor: extractor,
		Logger:    logger.NewNop(),
	})

	_, err := uc.Run(context.Background(), WorklistSelector{Entries: ParseIDs("1")})
	require.ErrorIs(t, err, model.ErrMalformedCatalog)
	assert.Equal(t, 0, repo.persisted)
	assert.Equal(t, int32(0), extractor.calls.Load())
}

func TestBatch_LockedCatalog(t *testing.T) {
	cfg := newTestScraperConfig(t)
	repo := newFakeCatalogRepo(testCatalog())
	require.NoError(t, repo.Lock())

	uc := NewScrapeBatchUseCase(BatchArgs{
		Cfg:       cfg,
		Repo:      repo,
		Extractor: &fakeExtractor{},
		Logger:    logger.NewNop(),
	})

	_, err := uc.Run(context.Background(), WorklistSelector{Entries: ParseIDs("1")})
	assert.True(t, errors.Is(err, model.ErrCatalogLocked))
	assert.Equal(t, 0, repo.persisted)
}

func TestBatch_UnknownCarWithoutBrandFails(t *testing.T) {
	cfg := newTestScraperConfig(t)
	repo := newFakeCatalogRepo(testCatalog())
	extractor := &fakeExtractor{results: map[string]fakeExtraction{
		"9001": {record: model.ScrapeRecord{CarID: "9001", ModelName: "아이오닉 9", Trims: []model.RawTrim{{Name: "익스클루시브", Price: 67_150_000}}}},
	}}

	uc := NewScrapeBatchUseCase(BatchArgs{
		Cfg:       cfg,
		Repo:      repo,
		Extractor: extractor,
		Logger:    logger.NewNop(),
	})

	report, err := uc.Run(context.Background(), WorklistSelector{Entries: ParseIDs("9001")})
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, model.OutcomeFailed, report.Outcomes[0].Status)
	assert.Contains(t, report.Outcomes[0].Error, ErrUnknownBrand.Error())
	assert.Equal(t, int32(0), extractor.calls.Load())
}

func TestBatch_NewCarWithBrand(t *testing.T) {
	cfg := newTestScraperConfig(t)
	repo := newFakeCatalogRepo(testCatalog())
	extractor := &fakeExtractor{results: map[string]fakeExtraction{
		"9001": {record: model.ScrapeRecord{CarID: "9001", ModelName: "아이오닉 9", Trims: []model.RawTrim{{Name: "익스클루시브", Price: 67_150_000}}}},
	}}

	uc := NewScrapeBatchUseCase(BatchArgs{
		Cfg:       cfg,
		Repo:      repo,
		Extractor: extractor,
		Logger:    logger.NewNop(),
	})

	// ブランド無しの行の後にブランド付きの行があっても新車種として追加できる
	report, err := uc.Run(context.Background(), WorklistSelector{Entries: []WorklistEntry{
		{CarID: "9001"},
		{CarID: "9001", BrandID: "hyundai"},
	}})
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, model.OutcomeFixed, report.Outcomes[0].Status)
	assert.Contains(t, report.Outcomes[0].Changes, ChangeNew)

	car, ok := repo.snapshot().FindCarByID("9001")
	require.True(t, ok)
	assert.Equal(t, "현대", car.BrandName)
	assert.Equal(t, int64(67_150_000), car.StartPrice)
}

func TestBatch_RetryFailed(t *testing.T) {
	ctx := context.Background()
	cfg := newTestScraperConfig(t)
	repo := newFakeCatalogRepo(testCatalog())
	outcomes := infra.NewReportOutcomeStore("")
	require.NoError(t, outcomes.Save(ctx, model.VehicleOutcome{CarID: "2", Status: model.OutcomeFailed}))
	require.NoError(t, outcomes.Save(ctx, model.VehicleOutcome{CarID: "1", Status: model.OutcomeFixed}))
	extractor := &fakeExtractor{results: map[string]fakeExtraction{}}

	uc := NewScrapeBatchUseCase(BatchArgs{
		Cfg:       cfg,
		Repo:      repo,
		Outcomes:  outcomes,
		Extractor: extractor,
		Logger:    logger.NewNop(),
	})

	report, err := uc.Run(ctx, WorklistSelector{RetryFailed: true})
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, "2", report.Outcomes[0].CarID)

	// 成功したので失敗一覧から外れる
	ids, err := outcomes.FindIDsByStatus(ctx, model.OutcomeFailed)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestBatch_RetryFailedFromPreviousRunReport(t *testing.T) {
	ctx := context.Background()
	cfg := newTestScraperConfig(t)
	repo := newFakeCatalogRepo(testCatalog())

	failing := &fakeExtractor{results: map[string]fakeExtraction{
		"3": {err: model.NewExtractError(model.ExtractErrorTimeout, "3", infra.ErrNavigationTimeout)},
	}}

	// Redisが無い場合と同じく、実行ごとに新しいストアを使う
	first := NewScrapeBatchUseCase(BatchArgs{
		Cfg:       cfg,
		Repo:      repo,
		Outcomes:  infra.NewReportOutcomeStore(cfg.ReportDir),
		Extractor: failing,
		Logger:    logger.NewNop(),
		Now:       fixedNow,
	})
	report, err := first.Run(ctx, WorklistSelector{Entries: ParseIDs("1,3")})
	require.NoError(t, err)
	require.Equal(t, []string{"3"}, report.FailedIDs())

	extractor := &fakeExtractor{results: map[string]fakeExtraction{}}
	second := NewScrapeBatchUseCase(BatchArgs{
		Cfg:       cfg,
		Repo:      repo,
		Outcomes:  infra.NewReportOutcomeStore(cfg.ReportDir),
		Extractor: extractor,
		Logger:    logger.NewNop(),
		Now:       fixedNow,
	})
	report, err = second.Run(ctx, WorklistSelector{RetryFailed: true})
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, "3", report.Outcomes[0].CarID)
	assert.Equal(t, int32(1), extractor.calls.Load())
}
