package cmd

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/nrad-K/car-catalog/internal/config"
	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/infra"
	"github.com/nrad-K/car-catalog/internal/logger"
	"github.com/nrad-K/car-catalog/internal/reconcile"
	"github.com/nrad-K/car-catalog/internal/usecase"
	"github.com/spf13/cobra"
)

var (
	reconcileConfigPath string
	reconcilePasses     []string
	checkFailOn         string
)

// newReconcileUseCaseは、設定を読み込んで整合性チェックのユースケースを組み立てます。
func newReconcileUseCase() (usecase.ReconcileUseCase, logger.AppLogger) {
	loadEnv()

	cfg, err := config.LoadReconcileConfig(reconcileConfigPath)
	if err != nil {
		log.Fatalf("整合性チェックの設定ファイルを読み込めませんでした: %v", err)
	}
	appLogger := newLogger(cfg.Log)

	mapping, err := config.LoadColorNameMapping(cfg.ColorNameMappingFile)
	if err != nil {
		log.Fatalf("色名マッピングを読み込めませんでした: %v", err)
	}

	deps := reconcile.Deps{ColorNames: mapping}
	if cfg.ImageProbe.Enabled {
		deps.Prober = infra.NewImageProber(cfg.ImageProbe)
	}

	names := cfg.Passes
	if len(reconcilePasses) > 0 {
		names = reconcilePasses
	}
	passes, err := reconcile.SelectPasses(reconcile.DefaultPasses(deps), names)
	if err != nil {
		log.Fatalf("パスの指定が不正です: %v", err)
	}

	return usecase.NewReconcileUseCase(usecase.ReconcileArgs{
		Cfg:    &cfg,
		Repo:   infra.NewCatalogFileStore(cfg.Catalog),
		Engine: reconcile.NewEngine(passes, appLogger),
		Logger: appLogger,
	}), appLogger
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "カタログの整合性を確認します(ファイルは変更しません)",
	Long:  `全てのパスを読み取り専用で実行し、重大度別の検出結果をログとCSV・JSONのレポートに出力します。`,
	Run: func(cmd *cobra.Command, args []string) {
		failOn := model.Severity(strings.ToUpper(checkFailOn))
		switch failOn {
		case "", model.SeverityCritical, model.SeverityHigh, model.SeverityMedium, model.SeverityInfo:
		default:
			log.Fatalf("--fail-onの値が不正です: %s", checkFailOn)
		}

		uc, appLogger := newReconcileUseCase()
		ctx, stop := signalContext()
		defer stop()

		report, err := uc.Check(ctx)
		if err != nil {
			appLogger.Error("整合性チェックに失敗しました", "error", err)
			os.Exit(1)
		}
		if failOn == "" {
			return
		}
		for _, issue := range report.Issues {
			if issue.Severity.Rank() <= failOn.Rank() {
				appLogger.Error("基準以上の重大度の問題があります", "fail_on", failOn)
				os.Exit(2)
			}
		}
	},
}

var fixCmd = &cobra.Command{
	Use:   "fix",
	Short: "カタログの問題を自動で修正して保存します",
	Long:  `ロックを取得してから全てのパスを修正モードで実行し、修正があった場合だけカタログを保存します。修正内容は前後の値としてログとレポートに残ります。`,
	Run: func(cmd *cobra.Command, args []string) {
		uc, appLogger := newReconcileUseCase()
		ctx, stop := signalContext()
		defer stop()

		if _, err := uc.Fix(ctx); err != nil {
			appLogger.Error("修正に失敗しました", "error", err)
			os.Exit(1)
		}
	},
}

var variantsCmd = &cobra.Command{
	Use:   "variants",
	Short: "車種ごとの燃料別バリアントを出力します",
	Run: func(cmd *cobra.Command, args []string) {
		uc, appLogger := newReconcileUseCase()
		ctx, stop := signalContext()
		defer stop()

		if _, err := uc.Variants(ctx); err != nil {
			appLogger.Error("バリアントの出力に失敗しました", "error", err)
			os.Exit(1)
		}
	},
}

func init() {
	for _, c := range []*cobra.Command{checkCmd, fixCmd, variantsCmd} {
		c.Flags().StringVarP(&reconcileConfigPath, "config", "c", "settings/reconcile.yaml", "設定ファイルのパス")
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{checkCmd, fixCmd} {
		c.Flags().StringSliceVar(&reconcilePasses, "passes", nil, fmt.Sprintf("実行するパス (%v)", reconcile.PassNames()))
	}
	checkCmd.Flags().StringVar(&checkFailOn, "fail-on", "", "この重大度以上の問題があれば終了コード2で終了する (CRITICAL|HIGH|MEDIUM|INFO)")
}
