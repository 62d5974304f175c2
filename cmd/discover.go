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
	discoverConfigPath string
	discoverBrands     []string
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "ブランドページからカタログに無い車種を探します",
	Long: `ブランドごとの車種一覧ページを開き、カタログに無い車種を"車種ID,ブランドID"のワークリストとして書き出します。
書き出したワークリストはscrape --worklistでそのまま取り込めます。`,
	Run: func(cmd *cobra.Command, args []string) {
		loadEnv()

		cfg, err := config.LoadScraperConfig(discoverConfigPath)
		if err != nil {
			log.Fatalf("設定ファイルの読み込みに失敗: %v", err)
		}
		appLogger := newLogger(cfg.Log)

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

		uc := usecase.NewBrandDiscoverUseCase(usecase.DiscoverArgs{
			Cfg:        &cfg,
			Client:     browserClient,
			Repo:       infra.NewCatalogFileStore(cfg.Catalog),
			Discovered: newDiscoveredModelRepository(rdb),
			Logger:     appLogger,
		})

		if _, err := uc.Run(ctx, discoverBrands); err != nil {
			appLogger.Error("車種の探索に失敗しました", "error", err)
			browserClient.Close()
			os.Exit(1)
		}
	},
}

func init() {
	discoverCmd.Flags().StringVarP(&discoverConfigPath, "config", "c", "settings/scraper.yaml", "設定ファイルのパス")
	discoverCmd.Flags().StringSliceVar(&discoverBrands, "brands", nil, "対象のブランドID (省略時はカタログの全ブランド)")
	rootCmd.AddCommand(discoverCmd)
}
