package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/nrad-K/car-catalog/internal/config"
	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/domain/repository"
	"github.com/nrad-K/car-catalog/internal/infra"
	"github.com/nrad-K/car-catalog/internal/logger"
	"github.com/nrad-K/car-catalog/internal/reconcile"
)

// ReconcileUseCaseは、保存済みカタログの整合性チェックと修正を行うユースケースです。
type ReconcileUseCase interface {
	Check(ctx context.Context) (*model.ReconcileReport, error)
	Fix(ctx context.Context) (*model.ReconcileReport, error)
	Variants(ctx context.Context) ([]model.CarFuelVariants, error)
}

// ReconcileArgsは、整合性チェックのユースケースを構築するための引数を保持します。
type ReconcileArgs struct {
	Cfg    *config.ReconcileConfig
	Repo   repository.CatalogRepository
	Engine *reconcile.Engine
	Logger logger.AppLogger
	Now    func() time.Time
}

type reconcileUseCase struct {
	cfg    *config.ReconcileConfig
	repo   repository.CatalogRepository
	engine *reconcile.Engine
	logger logger.AppLogger
	now    func() time.Time
}

func NewReconcileUseCase(args ReconcileArgs) ReconcileUseCase {
	now := args.Now
	if now == nil {
		now = time.Now
	}
	return &reconcileUseCase{
		cfg:    args.Cfg,
		repo:   args.Repo,
		engine: args.Engine,
		logger: args.Logger,
		now:    now,
	}
}

// Checkは、カタログを読み込んで全パスを読み取り専用で実行します。ファイルは変更しません。
func (u *reconcileUseCase) Check(ctx context.Context) (*model.ReconcileReport, error) {
	report := model.NewReconcileReport(reconcile.ModeCheck.String(), u.now())
	log := u.logger.With("run_id", report.RunID.String(), "mode", report.Mode)

	catalog, err := u.repo.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("カタログの読み込みに失敗しました: %w", err)
	}

	findings, err := u.engine.Run(ctx, catalog, reconcile.ModeCheck)
	if err != nil {
		return report, err
	}
	report.SetFindings(findings)
	report.FinishedAt = u.now()

	u.logReport(log, report)
	u.export(log, report)
	return report, nil
}

// Fixは、ロックを取得してから全パスを修正モードで実行し、修正があった場合だけ保存します。
//
// args:
//
//	ctx: コンテキスト
//
// return:
//
//	*model.ReconcileReport: 実行結果
//	error: 読み込み・パス実行・保存に失敗した場合のエラー
func (u *reconcileUseCase) Fix(ctx context.Context) (*model.ReconcileReport, error) {
	report := model.NewReconcileReport(reconcile.ModeFix.String(), u.now())
	log := u.logger.With("run_id", report.RunID.String(), "mode", report.Mode)

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

	// 途中で失敗した場合は修正途中のカタログを保存しない
	findings, err := u.engine.Run(ctx, catalog, reconcile.ModeFix)
	if err != nil {
		return report, err
	}
	report.SetFindings(findings)

	for _, r := range report.Repairs {
		log.Info("修正しました", "pass", r.Pass, "car_id", r.CarID, "field", r.Field, "before", r.Before, "after", r.After)
	}

	if len(report.Repairs) > 0 {
		if err := u.repo.Persist(ctx, catalog); err != nil {
			report.FinishedAt = u.now()
			return report, fmt.Errorf("カタログの保存に失敗しました: %w", err)
		}
		report.Persisted = true
	}
	report.FinishedAt = u.now()

	u.logReport(log, report)
	u.export(log, report)
	return report, nil
}

// Variantsは、車種ごとの燃料別バリアントを組み立ててJSONに書き出します。
func (u *reconcileUseCase) Variants(ctx context.Context) ([]model.CarFuelVariants, error) {
	catalog, err := u.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("カタログの読み込みに失敗しました: %w", err)
	}

	result := make([]model.CarFuelVariants, 0, len(catalog.Cars))
	multi := 0
	for _, car := range catalog.Cars {
		entry, _ := catalog.FindSubModelByID(car.ID)
		detail, _ := catalog.FindDetailByID(car.ID)
		v := model.CarFuelVariants{
			CarID:     car.ID,
			Name:      car.Name,
			FuelTypes: entry.DistinctFuelTypes(),
			Variants:  model.BuildFuelVariants(entry, detail),
		}
		if v.FuelTypes == nil {
			v.FuelTypes = []model.FuelType{}
		}
		if v.Variants == nil {
			v.Variants = []model.FuelVariant{}
		}
		if len(v.FuelTypes) > 1 {
			multi++
		}
		result = append(result, v)
	}

	name := fmt.Sprintf("variants-%s.json", u.now().Format("20060102-150405"))
	path, err := infra.ExportJSONReport(u.cfg.ReportDir, name, result)
	if err != nil {
		return result, fmt.Errorf("バリアントの書き出しに失敗しました: %w", err)
	}
	u.logger.Info("燃料別バリアントを書き出しました", "path", path, "cars", len(result), "multi_fuel", multi)
	return result, nil
}

func (u *reconcileUseCase) logReport(log logger.AppLogger, report *model.ReconcileReport) {
	for _, issue := range report.Issues {
		args := []any{"pass", issue.Pass, "severity", issue.Severity, "kind", issue.Kind, "car_id", issue.CarID}
		switch issue.Severity {
		case model.SeverityCritical, model.SeverityHigh:
			log.Warn(issue.Message, args...)
		default:
			log.Debug(issue.Message, args...)
		}
	}

	perPass := map[string]int{}
	for _, issue := range report.Issues {
		perPass[issue.Pass]++
	}
	for _, name := range reconcile.PassNames() {
		if n := perPass[name]; n > 0 {
			log.Info("パス別の検出件数", "pass", name, "issues", n)
		}
	}

	log.Info("整合性チェックが完了しました",
		"critical", report.Counts[model.SeverityCritical],
		"high", report.Counts[model.SeverityHigh],
		"medium", report.Counts[model.SeverityMedium],
		"info", report.Counts[model.SeverityInfo],
		"repairs", len(report.Repairs),
		"persisted", report.Persisted,
		"elapsed", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
	)
}

// exportは、CSVとJSONのレポートを書き出します。書き出しの失敗は実行結果に影響させません。
func (u *reconcileUseCase) export(log logger.AppLogger, report *model.ReconcileReport) {
	prefix := fmt.Sprintf("%s-%s", report.Mode, report.RunID)
	files, err := infra.ExportFindingsCSV(u.cfg.ReportDir, prefix, model.Findings{Issues: report.Issues, Repairs: report.Repairs})
	if err != nil {
		log.Warn("CSVの書き出しに失敗しました", "error", err)
	}
	report.Files = files

	jsonPath, err := infra.ExportJSONReport(u.cfg.ReportDir, prefix+".json", report)
	if err != nil {
		log.Warn("レポートの書き出しに失敗しました", "error", err)
		return
	}
	report.Files = append(report.Files, jsonPath)
	log.Info("レポートを書き出しました", "files", report.Files)
}
