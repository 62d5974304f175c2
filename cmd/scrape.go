package cmd

import (
	"log"
	"os"

	"github.com/nrad-K/car-catalog/internal/config"
	"github.com/nrad-K/car-catalog/internal/infra"
	"github.com/nrad-K/car-catalog/internal/usecase"
	"github.com/spf13/cobra"
)

var (
	scrapeConfigPath string
	scrapeIDs        string
	scrapeWorklist   string
	scrapeMissing    string
	scrapeRetry      bool
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "見積もりページから車種を取得してカタログに反映します",
	Long: `指定された車種の見積もりページをbatch_size件ずつ並行に開き、トリム・外装色・オプションを抽出してカタログにマージします。
対象は--ids・--worklist・--missing・--retry-failedの和集合です。カタログに無い車種はワークリストに"車種ID,ブランドID"で指定します。`,
	Run: func(cmd *cobra.Command, args []string) {
		loadEnv()

		cfg, err := config.LoadScraperConfig(scrapeConfigPath)
		if err != nil {
			log.Fatalf("スクレイプの設定ファイルを読み込めませんでした: %v", err)
		}
		appLogger := newLogger(cfg.Log)

		sel := usecase.WorklistSelector{
			Entries:     usecase.ParseIDs(scrapeIDs),
			Missing:     scrapeMissing,
			RetryFailed: scrapeRetry,
		}
		if scrapeWorklist != "" {
			f, err := os.Open(scrapeWorklist)
			if err != nil {
				log.Fatalf("ワークリストを開けませんでした: %v", err)
			}
			entries, err := usecase.ParseWorklist(f)
			f.Close()
			if err != nil {
				log.Fatalf("ワークリストの読み込みに失敗しました: %v", err)
			}
			sel.Entries = append(sel.Entries, entries...)
		}
		if sel.Empty() {
			cmd.Help()
			return
		}

		ctx, stop := signalContext()
		defer stop()

		rdb := newRedisClient(ctx, appLogger)
		if rdb != nil {
			defer rdb.Close()
		}

		browserClient, err := infra.NewBrowserClient(&cfg)
		if err != nil {
			log.Fatalf("ブラウザクライアントの初期化に失敗: %v", err)
		}
		defer browserClient.Close()

		extractorArgs := usecase.ExtractorArgs{
			Cfg:    &cfg,
			Client: browserClient,
			Parser: infra.NewEstimatePageParser(cfg.ImageBaseURL, cfg.PricePolicy),
			Logger: appLogger,
		}
		if cfg.SnapshotDir != "" {
			extractorArgs.Snapshots = infra.NewHTMLFileLoader(cfg.SnapshotDir)
		}

		uc := usecase.NewScrapeBatchUseCase(usecase.BatchArgs{
			Cfg:       &cfg,
			Repo:      infra.NewCatalogFileStore(cfg.Catalog),
			Outcomes:  newOutcomeRepository(rdb, cfg.ReportDir),
			Extractor: usecase.NewPageExtractor(extractorArgs),
			Logger:    appLogger,
		})

		report, err := uc.Run(ctx, sel)
		if err != nil {
			appLogger.Error("スクレイプに失敗しました", "error", err)
			browserClient.Close()
			os.Exit(1)
		}
		if ids := report.FailedIDs(); len(ids) > 0 {
			appLogger.Warn("失敗した車種があります。--retry-failedで再実行できます", "car_ids", ids)
		}
	},
}

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeConfigPath, "config", "c", "settings/scraper.yaml", "設定ファイルのパス")
	scrapeCmd.Flags().StringVar(&scrapeIDs, "ids", "", "カンマ区切りの車種ID (例: 4435,4660)")
	scrapeCmd.Flags().StringVar(&scrapeWorklist, "worklist", "", "1行1車種のワークリストファイル")
	scrapeCmd.Flags().StringVar(&scrapeMissing, "missing", "", "指定カテゴリが空の車種を対象にする (trims|colors|options)")
	scrapeCmd.Flags().BoolVar(&scrapeRetry, "retry-failed", false, "前回失敗した車種を対象にする")
	rootCmd.AddCommand(scrapeCmd)
}
