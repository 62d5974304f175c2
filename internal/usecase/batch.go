package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nrad-K/car-catalog/internal/config"
	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/domain/repository"
	"github.com/nrad-K/car-catalog/internal/infra"
	"github.com/nrad-K/car-catalog/internal/logger"
	"golang.org/x/sync/errgroup"
)

// BatchUseCaseは、ワークリストの車種をスクレイプしてカタログに反映するユースケースです。
type BatchUseCase interface {
	Run(ctx context.Context, sel WorklistSelector) (*model.RunReport, error)
}

// BatchArgsは、バッチユースケースを構築するための引数を保持します。
type BatchArgs struct {
	Cfg       *config.ScraperConfig
	Repo      repository.CatalogRepository
	Outcomes  repository.VehicleOutcomeRepository
	Extractor VehicleExtractor
	Logger    logger.AppLogger
	// Nowは、テストで時刻を固定するために差し替えます。nilの場合はtime.Nowです。
	Now func() time.Time
}

type scrapeBatchUseCase struct {
	cfg       *config.ScraperConfig
	repo      repository.CatalogRepository
	outcomes  repository.VehicleOutcomeRepository
	extractor VehicleExtractor
	merger    *Merger
	logger    logger.AppLogger
	now       func() time.Time
}

func NewScrapeBatchUseCase(args BatchArgs) BatchUseCase {
	now := args.Now
	if now == nil {
		now = time.Now
	}
	return &scrapeBatchUseCase{
		cfg:       args.Cfg,
		repo:      args.Repo,
		outcomes:  args.Outcomes,
		extractor: args.Extractor,
		merger:    NewMerger(args.Cfg.ImageBaseURL),
		logger:    args.Logger,
		now:       now,
	}
}

// extractionは、1車種分の抽出結果です。
type extraction struct {
	entry    WorklistEntry
	record   model.ScrapeRecord
	err      error
	duration time.Duration
}

// Runは、ワークリストをbatch_size件ずつ並行にスクレイプし、バッチごとに順番にマージします。
// 車種単位の失敗ではバッチを止めず、キャンセルされた場合も含めて最後に必ずPersistを試みます。
//
// args:
//
//	ctx: コンテキスト
//	sel: ワークリストの選択条件
//
// return:
//
//	*model.RunReport: 実行レポート
//	error: カタログの読み込み・保存に失敗した場合のエラー
func (u *scrapeBatchUseCase) Run(ctx context.Context, sel WorklistSelector) (*model.RunReport, error) {
	report := model.NewRunReport(u.now())
	log := u.logger.With("run_id", report.RunID.String())

	if err := u.repo.Lock(); err != nil {
		return report, err
	}
	defer func() {
		if err := u.repo.Unlock(); err != nil {
			log.Warn("ロックの解除に失敗しました", "error", err)
		}
	}()

	catalog, err := u.repo.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("カタログの読み込みに失敗しました: %w", err)
	}

	worklist, err := resolveWorklist(ctx, catalog, u.outcomes, sel)
	if err != nil {
		return report, err
	}
	log.Info("スクレイプを開始します", "vehicles", len(worklist), "batch_size", u.cfg.BatchSize, "concurrency", u.cfg.Concurrency)

	batchDelay := time.Duration(u.cfg.BatchDelayMillis) * time.Millisecond
	done := 0
	for start := 0; start < len(worklist); start += u.cfg.BatchSize {
		if ctx.Err() != nil {
			log.Warn("キャンセルされたため残りの車種をスキップします", "skipped", len(worklist)-start)
			break
		}
		if start > 0 && batchDelay > 0 {
			select {
			case <-ctx.Done():
				continue
			case <-time.After(batchDelay):
			}
		}

		end := min(start+u.cfg.BatchSize, len(worklist))
		results := u.extractBatch(ctx, catalog, worklist[start:end])

		// マージはバッチ完了後に1件ずつ行う
		for _, res := range results {
			done++
			outcome := u.mergeOne(catalog, res)
			report.Add(outcome)
			u.saveOutcome(ctx, outcome, log)
			logProgress(log, done, len(worklist), outcome)
		}
	}

	persistCtx := context.WithoutCancel(ctx)
	persistErr := u.repo.Persist(persistCtx, catalog)
	report.Persisted = persistErr == nil
	report.FinishedAt = u.now()

	if path, err := infra.ExportJSONReport(u.cfg.ReportDir, fmt.Sprintf("scrape-%s.json", report.RunID), report); err != nil {
		log.Warn("実行レポートの書き出しに失敗しました", "error", err)
	} else {
		log.Info("実行レポートを書き出しました", "path", path)
	}

	log.Info("スクレイプが完了しました",
		"total", report.Counts.Total,
		"fixed", report.Counts.Fixed,
		"unchanged", report.Counts.Unchanged,
		"failed", report.Counts.Failed,
		"persisted", report.Persisted,
		"elapsed", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	)

	if persistErr != nil {
		return report, fmt.Errorf("カタログの保存に失敗しました: %w", persistErr)
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// extractBatchは、1バッチ分の車種をconcurrency件まで同時に抽出します。
// 結果はワークリストの順序で返ります。抽出中はカタログを読むだけで変更しません。
func (u *scrapeBatchUseCase) extractBatch(ctx context.Context, catalog *model.Catalog, batch []WorklistEntry) []extraction {
	results := make([]extraction, len(batch))
	lineups := make([]string, len(batch))
	for i, entry := range batch {
		results[i].entry = entry
		if detail, ok := catalog.FindDetailByID(entry.CarID); ok {
			lineups[i] = LineupIDFromDetail(detail)
		}
	}

	var g errgroup.Group
	g.SetLimit(u.cfg.Concurrency)
	for i, entry := range batch {
		if _, ok := catalog.FindCarByID(entry.CarID); !ok && entry.BrandID == "" {
			if _, ok := catalog.FindDetailByID(entry.CarID); !ok {
				results[i].err = fmt.Errorf("%w: %s", ErrUnknownBrand, entry.CarID)
				continue
			}
		}
		i, entry := i, entry
		g.Go(func() error {
			started := time.Now()
			record, err := u.extractor.Extract(ctx, entry.CarID, lineups[i])
			results[i].record = record
			results[i].err = err
			results[i].duration = time.Since(started)
			return nil
		})
	}
	g.Wait()
	return results
}

func (u *scrapeBatchUseCase) mergeOne(catalog *model.Catalog, res extraction) model.VehicleOutcome {
	return mergeExtraction(u.merger, catalog, res, u.now(), u.logger)
}

// mergeExtractionは、1車種分の抽出結果をカタログに反映し、その結果を実行結果として返します。
// 抽出に失敗していた場合はカタログを変更しません。
func mergeExtraction(merger *Merger, catalog *model.Catalog, res extraction, now time.Time, log logger.AppLogger) model.VehicleOutcome {
	outcome := model.VehicleOutcome{
		CarID:     res.entry.CarID,
		Duration:  res.duration,
		UpdatedAt: now,
	}

	if res.err != nil {
		outcome.Status = model.OutcomeFailed
		outcome.Error = res.err.Error()
		var extractErr *model.ExtractError
		if errors.As(res.err, &extractErr) {
			outcome.ErrorKind = string(extractErr.Kind)
		}
		return outcome
	}

	outcome.Empty = res.record.EmptyCategories()
	outcome.Strategies = res.record.Strategies

	result, err := merger.Merge(catalog, res.record, res.entry.BrandID)
	if err != nil {
		outcome.Status = model.OutcomeFailed
		outcome.Error = err.Error()
		return outcome
	}

	outcome.Changes = result.Changes
	outcome.PriceAudit = result.PriceAudit
	outcome.Status = model.OutcomeUnchanged
	if result.Changed() {
		outcome.Status = model.OutcomeFixed
	}
	if len(result.Unassigned) > 0 {
		log.Warn("サブモデルに割り当てられなかったセクションがあります", "car_id", outcome.CarID, "sections", result.Unassigned)
	}
	if len(result.UnpricedPaidColors) > 0 {
		log.Warn("価格の無い有料色があります", "car_id", outcome.CarID, "colors", result.UnpricedPaidColors)
	}
	return outcome
}

func (u *scrapeBatchUseCase) saveOutcome(ctx context.Context, outcome model.VehicleOutcome, log logger.AppLogger) {
	if u.outcomes == nil {
		return
	}
	if err := u.outcomes.Save(context.WithoutCancel(ctx), outcome); err != nil {
		log.Warn("実行結果の保存に失敗しました", "car_id", outcome.CarID, "error", err)
	}
}

func logProgress(log logger.AppLogger, done, total int, o model.VehicleOutcome) {
	args := []any{"progress", fmt.Sprintf("%d/%d", done, total), "car_id", o.CarID, "status", o.Status}
	if o.Status == model.OutcomeFailed {
		log.Error("車種の処理に失敗しました", append(args, "kind", o.ErrorKind, "error", o.Error)...)
		return
	}
	if len(o.Changes) > 0 {
		args = append(args, "changes", o.Changes)
	}
	if len(o.Empty) > 0 {
		args = append(args, "empty", o.Empty)
	}
	log.Info("車種を処理しました", args...)
}
