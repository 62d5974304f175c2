package config

import (
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
)

// CatalogConfigは、カタログを構成する3つのJSONファイルの場所を定義します。
type CatalogConfig struct {
	Dir           string `yaml:"dir" validate:"required"`                   // カタログファイルを置くディレクトリ(CATALOG_DIRで上書き可能)
	CarsFile      string `yaml:"cars_file" validate:"required"`             // 車種サマリー
	DetailsFile   string `yaml:"details_file" validate:"required"`          // 車種詳細
	SubModelsFile string `yaml:"sub_models_file" validate:"required"`       // サブモデル
	LockFile      string `yaml:"lock_file" validate:"omitempty,excludes=/"` // 同時実行防止用のロックファイル名
}

func (c CatalogConfig) CarsPath() string {
	return filepath.Join(c.Dir, c.CarsFile)
}

func (c CatalogConfig) DetailsPath() string {
	return filepath.Join(c.Dir, c.DetailsFile)
}

func (c CatalogConfig) SubModelsPath() string {
	return filepath.Join(c.Dir, c.SubModelsFile)
}

func (c CatalogConfig) LockPath() string {
	name := c.LockFile
	if name == "" {
		name = "catalog.lock"
	}
	return filepath.Join(c.Dir, name)
}

// LogConfigは、ログ出力の設定です。fileを指定するとローテーションされるファイルにも出力します。
type LogConfig struct {
	Level      string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb" validate:"min=0"`
	MaxBackups int    `yaml:"max_backups" validate:"min=0"`
	MaxAgeDays int    `yaml:"max_age_days" validate:"min=0"`
}

// バリデーターのインスタンス
var validate = validator.New()

// applyCatalogEnvは、環境変数でカタログディレクトリを上書きします。
func applyCatalogEnv(c *CatalogConfig) {
	if dir := os.Getenv("CATALOG_DIR"); dir != "" {
		c.Dir = dir
	}
}
