package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmdは、アプリケーションのエントリーポイントとなるルートコマンドです。
var rootCmd = &cobra.Command{
	Use:   "car-catalog",
	Short: "다나와の見積もりページから車種カタログを作成・整備するツールです。",
	Long: `car-catalogは、見積もりページからトリム・外装色・オプションを取得してカタログに反映するスクレイパーと、
保存済みカタログの整合性を確認・修正するチェッカーを提供します。`,
}

// Executeは、全てのサブコマンドをルートコマンドに追加し、フラグを適切に設定します。
// この関数はmain.main()から呼び出され、rootCmdに対して一度だけ実行される必要があります。
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
