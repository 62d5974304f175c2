package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nrad-K/car-catalog/internal/config"
	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/domain/repository"
	"github.com/nrad-K/car-catalog/internal/infra"
	"github.com/nrad-K/car-catalog/internal/logger"
)

// ReplayUseCaseは、保存済みの見積もりページを再解析するユースケースです。
// ブラウザを使わずに抽出ロジックの変更を確認したり、取得済みのページからカタログを作り直したりするために使います。
type ReplayUseCase interface {
	Run(ctx context.Context, opts ReplayOptions) (*model.RunReport, error)
}

// ReplayOptionsは、再解析の実行方法です。
type ReplayOptions struct {
	// Mergeがfalseの場合は、マージ結果をレポートに出すだけでカタログを保存しません。
	Merge bool
	// CarIDsが空でない場合は、その車種のページだけを対象にします。
	CarIDs []string
}

// ReplayArgsは、再解析ユースケースを構築するための引数を保持します。
//
// フィールド:
//
//	Cfg    : スクレイパーの設定情報
//	Loader : 保存済みページのローダー
//	Parser : 見積もりページのパーサー
//	Repo   : カタログのリポジトリ
//	Logger : ロガー
type ReplayArgs struct {
	Cfg    *config.ScraperConfig
	Loader *infra.HTMLFileLoader
	Parser infra.EstimatePageParser
	Repo   repository.CatalogRepository
	Logger logger.AppLogger
	Now    func() time.Time
}

type replaySnapshotUseCase struct {
	cfg    *config.ScraperConfig
	loader *infra.HTMLFileLoader
	parser infra.EstimatePageParser
	repo   repository.CatalogRepository
	merger *Merger
	logger logger.AppLogger
	now    func() time.Time
}

func NewReplaySnapshotUseCase(args ReplayArgs) ReplayUseCase {
	now := args.Now
	if now == nil {
		now = time.Now
	}
	return &replaySnapshotUseCase{
		cfg:    args.Cfg,
		loader: args.Loader,
		parser: args.Parser,
		repo:   args.Repo,
		merger: NewMerger(args.Cfg.ImageBaseURL),
		logger: args.Logger,
		now:    now,
	}
}

// Runは、保存済みページをconcurrency個のワーカーで解析し、ファイル順にカタログへマージします。
//
// args:
//
//	ctx  : コンテキスト
//	opts : 実行方法
//
// return:
//
//	*model.RunReport : 実行レポート
//	error            : ページ一覧の取得やカタログの読み込み・保存に失敗した場合のエラー
func (u *replaySnapshotUseCase) Run(ctx context.Context, opts ReplayOptions) (*model.RunReport, error) {
	report := model.NewRunReport(u.now())
	log := u.logger.With("run_id", report.RunID.String(), "merge", opts.Merge)

	paths, err := u.loader.ListHTMLFilePaths()
	if err != nil {
		return report, fmt.Errorf("保存済みページの一覧取得に失敗しました: %w", err)
	}
	log.Info("保存済みページを再解析します", "dir", u.loader.Dir(), "pages", len(paths))

	if opts.Merge {
		if err := u.repo.Lock(); err != nil {
			return report, err
		}
		defer func() {
			if err := u.repo.Unlock(); err != nil {
				log.Warn("ロックの解除に失敗しました", "error", err)
			}
		}()
	}

	catalog, err := u.repo.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("カタログの読み込みに失敗しました: %w", err)
	}

	results := u.parseAll(ctx, catalog, paths, opts.CarIDs)
	for i, res := range results {
		if ctx.Err() != nil {
			break
		}
		if res.entry.CarID == "" {
			continue
		}
		outcome := mergeExtraction(u.merger, catalog, res, u.now(), log)
		report.Add(outcome)
		logProgress(log, i+1, len(results), outcome)
	}

	if opts.Merge {
		if err := u.repo.Persist(context.WithoutCancel(ctx), catalog); err != nil {
			report.FinishedAt = u.now()
			return report, fmt.Errorf("カタログの保存に失敗しました: %w", err)
		}
		report.Persisted = true
	}
	report.FinishedAt = u.now()

	if path, err := infra.ExportJSONReport(u.cfg.ReportDir, fmt.Sprintf("replay-%s.json", report.RunID), report); err != nil {
		log.Warn("実行レポートの書き出しに失敗しました", "error", err)
	} else {
		log.Info("実行レポートを書き出しました", "path", path)
	}

	log.Info("再解析が完了しました",
		"total", report.Counts.Total,
		"fixed", report.Counts.Fixed,
		"unchanged", report.Counts.Unchanged,
		"failed", report.Counts.Failed,
		"persisted", report.Persisted,
	)
	return report, ctx.Err()
}

// parseAllは、ワーカーでページを解析し、結果をファイル順に返します。対象外の車種は空のままです。
func (u *replaySnapshotUseCase) parseAll(ctx context.Context, catalog *model.Catalog, paths []string, carIDs []string) []extraction {
	wanted := map[string]bool{}
	for _, id := range carIDs {
		wanted[id] = true
	}

	results := make([]extraction, len(paths))
	jobs := make(chan int, len(paths))
	var wg sync.WaitGroup
	for n, workers := 0, max(u.cfg.Concurrency, 1); n < workers; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			u.worker(ctx, catalog, jobs, paths, wanted, results)
		}()
	}

	for i := range paths {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

// workerは、ページの番号を受け取って解析し、results[i]に書き込みます。カタログは読むだけです。
func (u *replaySnapshotUseCase) worker(ctx context.Context, catalog *model.Catalog, jobs <-chan int, paths []string, wanted map[string]bool, results []extraction) {
	for i := range jobs {
		if ctx.Err() != nil {
			return
		}

		started := time.Now()
		snapshot, err := u.loader.LoadSnapshot(paths[i])
		if err != nil {
			u.logger.Error("保存済みページの読み込みに失敗しました", "path", paths[i], "error", err)
			continue
		}
		if len(wanted) > 0 && !wanted[snapshot.CarID] {
			continue
		}

		var lineupID string
		if detail, ok := catalog.FindDetailByID(snapshot.CarID); ok {
			lineupID = LineupIDFromDetail(detail)
		}

		res := extraction{entry: WorklistEntry{CarID: snapshot.CarID}}
		res.record, res.err = u.parser.Parse(snapshot.CarID, infra.EstimatePageContent{
			HTML:          snapshot.HTML,
			ColorHTML:     snapshot.ColorHTML,
			KnownLineupID: lineupID,
		})
		res.duration = time.Since(started)
		results[i] = res
	}
}
