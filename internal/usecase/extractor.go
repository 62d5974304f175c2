package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/nrad-K/car-catalog/internal/config"
	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/infra"
	"github.com/nrad-K/car-catalog/internal/logger"
)

// VehicleExtractorは、1車種の見積もりページから抽出結果を得るインターフェースです。
type VehicleExtractor interface {
	Extract(ctx context.Context, carID, knownLineupID string) (model.ScrapeRecord, error)
}

// SnapshotWriterは、取得したページHTMLを保存します。
type SnapshotWriter interface {
	SaveSnapshot(carID, html, colorHTML string) error
}

// ExtractorArgsは、抽出ユースケースを構築するための引数を保持します。
type ExtractorArgs struct {
	Cfg    *config.ScraperConfig
	Client infra.BrowserClient
	Parser infra.EstimatePageParser
	Logger logger.AppLogger
	// Snapshotsがnilの場合はページHTMLを保存しません。
	Snapshots SnapshotWriter
}

type pageExtractor struct {
	cfg       *config.ScraperConfig
	client    infra.BrowserClient
	parser    infra.EstimatePageParser
	logger    logger.AppLogger
	snapshots SnapshotWriter
}

func NewPageExtractor(args ExtractorArgs) VehicleExtractor {
	return &pageExtractor{
		cfg:       args.Cfg,
		client:    args.Client,
		parser:    args.Parser,
		logger:    args.Logger,
		snapshots: args.Snapshots,
	}
}

// Extractは、ページ遷移・トリム選択・待機・抽出の順に1車種を処理します。
// ページ遷移の失敗だけがmodel.ExtractErrorとして返り、それ以降の失敗は空のカテゴリとして扱います。
//
// args:
//
//	ctx: コンテキスト
//	carID: 車種ID
//	knownLineupID: 既存データから分かっているラインナップID(不明なら空)
//
// return:
//
//	model.ScrapeRecord: 抽出結果
//	error: ページ遷移に失敗した場合の*model.ExtractError
func (e *pageExtractor) Extract(ctx context.Context, carID, knownLineupID string) (model.ScrapeRecord, error) {
	log := e.logger.With("car_id", carID)
	empty := model.ScrapeRecord{
		CarID:   carID,
		Trims:   []model.RawTrim{},
		Colors:  []model.RawColor{},
		Options: []model.RawOption{},
	}

	session, err := e.client.OpenSession(ctx)
	if err != nil {
		return empty, model.NewExtractError(model.ExtractErrorSession, carID, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("セッションのクローズに失敗しました", "error", err)
		}
	}()

	url := e.cfg.EstimateURL(carID)
	if err := session.Navigate(ctx, url); err != nil {
		kind := model.ExtractErrorNavigation
		if errors.Is(err, infra.ErrNavigationTimeout) || errors.Is(err, context.DeadlineExceeded) {
			kind = model.ExtractErrorTimeout
		}
		return empty, model.NewExtractError(kind, carID, err)
	}

	if selector, err := session.ClickFirst(ctx, e.cfg.Selector.TrimClick); err != nil {
		log.Warn("トリムを選択できませんでした。色・オプションが読み込まれていない可能性があります", "error", err)
	} else {
		log.Debug("トリムを選択しました", "selector", selector)
	}

	// ページに読み込み完了のイベントが無いため、固定時間だけ待つ
	settle := time.Duration(e.cfg.SettleDelayMillis) * time.Millisecond
	if err := session.Settle(ctx, settle); err != nil {
		return empty, model.NewExtractError(model.ExtractErrorSession, carID, err)
	}

	html, err := session.HTML()
	if err != nil {
		log.Warn("ページHTMLを取得できませんでした", "error", err)
	}

	colorHTML := strings.Join(session.InterceptedBodies(), "\n")
	if colorHTML == "" && e.cfg.Selector.ColorPanel != "" {
		if colorHTML, err = session.InnerHTML(e.cfg.Selector.ColorPanel); err != nil {
			log.Warn("外装色パネルを取得できませんでした", "error", err)
		}
	}

	if e.snapshots != nil && html != "" {
		if err := e.snapshots.SaveSnapshot(carID, html, colorHTML); err != nil {
			log.Warn("ページHTMLの保存に失敗しました", "error", err)
		}
	}

	record, err := e.parser.Parse(carID, infra.EstimatePageContent{
		HTML:          html,
		ColorHTML:     colorHTML,
		KnownLineupID: knownLineupID,
	})
	if err != nil {
		log.Warn("ページの解析に失敗しました", "error", err)
		return empty, nil
	}
	return record, nil
}
