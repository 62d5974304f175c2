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
	replayConfigPath string
	replayDir        string
	replayIDs        string
	replayMerge      bool
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "保存済みの見積もりページを再解析します",
	Long: `snapshot_dirに保存した見積もりページをブラウザを使わずに解析し、マージ結果をレポートに出力します。
--mergeを指定した場合だけカタログを保存します。`,
	Run: func(cmd *cobra.Command, args []string) {
		loadEnv()

		cfg, err := config.LoadScraperConfig(replayConfigPath)
		if err != nil {
			log.Fatalf("スクレイプの設定ファイルを読み込めませんでした: %v", err)
		}
		appLogger := newLogger(cfg.Log)

		dir := replayDir
		if dir == "" {
			dir = cfg.SnapshotDir
		}
		if dir == "" {
			log.Fatalf("--dirまたはsnapshot_dirを指定してください")
		}

		ctx, stop := signalContext()
		defer stop()

		uc := usecase.NewReplaySnapshotUseCase(usecase.ReplayArgs{
			Cfg:    &cfg,
			Loader: infra.NewHTMLFileLoader(dir),
			Parser: infra.NewEstimatePageParser(cfg.ImageBaseURL, cfg.PricePolicy),
			Repo:   infra.NewCatalogFileStore(cfg.Catalog),
			Logger: appLogger,
		})

		var ids []string
		for _, e := range usecase.ParseIDs(replayIDs) {
			ids = append(ids, e.CarID)
		}
		if _, err := uc.Run(ctx, usecase.ReplayOptions{Merge: replayMerge, CarIDs: ids}); err != nil {
			appLogger.Error("再解析に失敗しました", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	replayCmd.Flags().StringVarP(&replayConfigPath, "config", "c", "settings/scraper.yaml", "設定ファイルのパス")
	replayCmd.Flags().StringVar(&replayDir, "dir", "", "保存済みページのディレクトリ (省略時はsnapshot_dir)")
	replayCmd.Flags().StringVar(&replayIDs, "ids", "", "対象の車種ID (カンマ区切り)")
	replayCmd.Flags().BoolVar(&replayMerge, "merge", false, "マージ結果をカタログに保存する")
	rootCmd.AddCommand(replayCmd)
}
