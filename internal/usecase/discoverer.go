package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/nrad-K/car-catalog/internal/config"
	"github.com/nrad-K/car-catalog/internal/constants"
	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/domain/repository"
	"github.com/nrad-K/car-catalog/internal/infra"
	"github.com/nrad-K/car-catalog/internal/logger"
)

// DiscoverUseCaseは、ブランドページからカタログに無い車種を探すユースケースです。
type DiscoverUseCase interface {
	Run(ctx context.Context, brandIDs []string) (*model.DiscoveryReport, error)
}

// DiscoverArgsは、車種探索ユースケースを構築するための引数を保持します。
type DiscoverArgs struct {
	Cfg        *config.ScraperConfig
	Client     infra.BrowserClient
	Repo       repository.CatalogRepository
	Discovered repository.DiscoveredModelRepository
	Logger     logger.AppLogger
	Now        func() time.Time
}

type brandDiscoverUseCase struct {
	cfg        *config.ScraperConfig
	client     infra.BrowserClient
	repo       repository.CatalogRepository
	discovered repository.DiscoveredModelRepository
	logger     logger.AppLogger
	now        func() time.Time
}

func NewBrandDiscoverUseCase(args DiscoverArgs) DiscoverUseCase {
	now := args.Now
	if now == nil {
		now = time.Now
	}
	return &brandDiscoverUseCase{
		cfg:        args.Cfg,
		client:     args.Client,
		repo:       args.Repo,
		discovered: args.Discovered,
		logger:     args.Logger,
		now:        now,
	}
}

// Runは、ブランドごとに車種一覧ページを開き、カタログに無い車種をワークリストとして書き出します。
// ブランド単位の失敗はリトライ後に記録して次のブランドへ進みます。
//
// args:
//
//	ctx: コンテキスト
//	brandIDs: 対象のブランドID(空の場合はカタログの全ブランド)
//
// return:
//
//	*model.DiscoveryReport: 探索結果
//	error: カタログの読み込みに失敗した場合、または全てのブランドで失敗した場合のエラー
func (u *brandDiscoverUseCase) Run(ctx context.Context, brandIDs []string) (*model.DiscoveryReport, error) {
	report := model.NewDiscoveryReport(u.now())
	log := u.logger.With("run_id", report.RunID.String())

	catalog, err := u.repo.Load(ctx)
	if err != nil {
		return report, fmt.Errorf("カタログの読み込みに失敗しました: %w", err)
	}

	codes := constants.DanawaBrandCodes()
	for id, code := range u.cfg.Discovery.BrandCodes {
		codes[id] = code
	}
	if len(brandIDs) == 0 {
		for _, b := range catalog.Brands {
			brandIDs = append(brandIDs, b.ID)
		}
	}

	log.Info("車種の探索を開始します", "brands", len(brandIDs))

	delay := time.Duration(u.cfg.Discovery.BrandDelayMillis) * time.Millisecond
	attempted := 0
	succeeded := 0
	for i, brandID := range brandIDs {
		code, ok := codes[brandID]
		if !ok {
			log.Warn("ブランドコードが無いためスキップします", "brand_id", brandID)
			continue
		}
		if i > 0 && delay > 0 {
			if err := sleepContext(ctx, delay); err != nil {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}

		attempted++
		result := model.BrandDiscovery{BrandID: brandID}
		links, err := u.fetchWithRetry(ctx, log, u.cfg.Discovery.BrandPageURL(code))
		if err != nil {
			result.Error = err.Error()
			report.Brands = append(report.Brands, result)
			log.Error("ブランドの処理に失敗しました", "brand_id", brandID, "error", err)
			continue
		}
		succeeded++

		result.Found = len(links)
		for _, link := range links {
			m := model.DiscoveredModel{
				ID:           uuid.New(),
				CarID:        link.CarID,
				BrandID:      brandID,
				Name:         link.Name,
				URL:          link.URL,
				Status:       model.DiscoveryKnown,
				DiscoveredAt: u.now(),
			}
			if _, known := catalog.FindCarByID(link.CarID); !known {
				m.Status = model.DiscoveryNew
				result.New++
				report.New = append(report.New, m)
			}
			if u.discovered != nil {
				if err := u.discovered.Save(context.WithoutCancel(ctx), m); err != nil {
					log.Warn("探索結果の保存に失敗しました", "car_id", m.CarID, "error", err)
				}
			}
		}
		report.Brands = append(report.Brands, result)
		log.Info("ブランドを処理しました", "progress", fmt.Sprintf("%d/%d", i+1, len(brandIDs)), "brand_id", brandID, "found", result.Found, "new", result.New)
	}

	sort.SliceStable(report.New, func(i, j int) bool {
		return report.New[i].CarID < report.New[j].CarID
	})
	report.FinishedAt = u.now()
	u.export(log, report)

	log.Info("車種の探索が完了しました", "brands", succeeded, "new", len(report.New), "worklist", report.WorklistFile)

	if err := ctx.Err(); err != nil {
		return report, err
	}
	if attempted > 0 && succeeded == 0 {
		return report, fmt.Errorf("すべてのブランドの処理に失敗しました")
	}
	return report, nil
}

// fetchWithRetryは、ブランドページを開いて車種リンクを抽出します。失敗した場合はbrand_delay_millisだけ待ってretry_count回まで再試行します。
func (u *brandDiscoverUseCase) fetchWithRetry(ctx context.Context, log logger.AppLogger, pageURL string) ([]infra.ModelLink, error) {
	var lastErr error
	for attempt := 0; attempt <= u.cfg.Discovery.RetryCount; attempt++ {
		if attempt > 0 {
			log.Warn("リトライ中", "attempt", attempt, "max", u.cfg.Discovery.RetryCount, "error", lastErr)
			if err := sleepContext(ctx, time.Duration(u.cfg.Discovery.BrandDelayMillis)*time.Millisecond); err != nil {
				return nil, err
			}
		}
		links, err := u.fetch(ctx, pageURL)
		if err == nil {
			return links, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (u *brandDiscoverUseCase) fetch(ctx context.Context, pageURL string) ([]infra.ModelLink, error) {
	session, err := u.client.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	defer session.Close()

	if err := session.Navigate(ctx, pageURL); err != nil {
		return nil, fmt.Errorf("ブランドページ %s への遷移に失敗しました: %w", pageURL, err)
	}
	html, err := session.HTML()
	if err != nil {
		return nil, fmt.Errorf("ブランドページのHTMLを取得できませんでした: %w", err)
	}
	doc, err := infra.NewHTMLDocument(html)
	if err != nil {
		return nil, fmt.Errorf("ブランドページのHTML解析に失敗しました: %w", err)
	}
	return infra.ParseModelLinks(doc, u.cfg.Discovery.ModelLinkSelector, pageURL, u.cfg.Discovery.MaxNameLength), nil
}

// exportは、新しい車種を"車種ID,ブランドID"のワークリストとJSONレポートに書き出します。
func (u *brandDiscoverUseCase) export(log logger.AppLogger, report *model.DiscoveryReport) {
	if len(report.New) > 0 {
		entries := make([]WorklistEntry, 0, len(report.New))
		header := fmt.Sprintf("discover %s", report.RunID)
		for _, m := range report.New {
			entries = append(entries, WorklistEntry{CarID: m.CarID, BrandID: m.BrandID})
			header += "\n" + m.CarID + ": " + m.Name
		}
		path, err := infra.ExportTextFile(u.cfg.ReportDir, fmt.Sprintf("worklist-%s.txt", report.RunID), FormatWorklist(header, entries))
		if err != nil {
			log.Warn("ワークリストの書き出しに失敗しました", "error", err)
		} else {
			report.WorklistFile = path
		}
	}

	if path, err := infra.ExportJSONReport(u.cfg.ReportDir, fmt.Sprintf("discover-%s.json", report.RunID), report); err != nil {
		log.Warn("探索レポートの書き出しに失敗しました", "error", err)
	} else {
		log.Info("探索レポートを書き出しました", "path", path)
	}
}

// sleepContextは、dだけ待機します。待機中にキャンセルされた場合はctx.Err()を返します。
func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
