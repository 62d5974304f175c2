package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// ImageProbeConfigは、画像URLの生存確認の設定です。
type ImageProbeConfig struct {
	Enabled           bool    `yaml:"enabled"`
	RequestsPerSecond float64 `yaml:"requests_per_second" validate:"gt=0,lte=50"`
	Burst             int     `yaml:"burst" validate:"min=1,max=50"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" validate:"min=1,max=60"`
	UserAgent         string  `yaml:"user_agent"`
}

// ReconcileConfigは、整合性チェックと修正パスの設定をまとめる構造体です。
type ReconcileConfig struct {
	Catalog              CatalogConfig    `yaml:"catalog" validate:"required"`
	Log                  LogConfig        `yaml:"log"`
	ReportDir            string           `yaml:"report_dir" validate:"required"`
	ImageProbe           ImageProbeConfig `yaml:"image_probe" validate:"required"`
	// ColorNameMappingFileは、プレースホルダー色名の手動マッピングです。
	ColorNameMappingFile string           `yaml:"color_name_mapping_file"`
	Passes               []string         `yaml:"passes" validate:"dive,oneof=missing-linked-data exact-duplicate same-price-duplicate near-duplicate placeholder-color price-grade broken-image orphan-detail fuel-type hex-normalization integrity brand-logo"`
}

// YAMLファイルからReconcileConfigを読み込む
func LoadReconcileConfig(path string) (ReconcileConfig, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return ReconcileConfig{}, fmt.Errorf("設定ファイルを読み込めませんでした: %w", err)
	}

	var cfg ReconcileConfig
	if err := yaml.Unmarshal(f, &cfg); err != nil {
		return ReconcileConfig{}, fmt.Errorf("YAMLの解析に失敗しました: %w", err)
	}
	applyCatalogEnv(&cfg.Catalog)

	if err := validate.Struct(cfg); err != nil {
		return ReconcileConfig{}, fmt.Errorf("設定のバリデーションに失敗しました: %w", err)
	}

	return cfg, nil
}

// ColorNameMappingは、車種ID→カラーID→表示名の手動マッピングです。
type ColorNameMapping map[string]map[string]string

// LoadColorNameMappingは、プレースホルダー色名の手動マッピングを読み込みます。パスが空の場合は空のマッピングを返します。
func LoadColorNameMapping(path string) (ColorNameMapping, error) {
	if path == "" {
		return ColorNameMapping{}, nil
	}
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("色名マッピングを読み込めませんでした: %w", err)
	}
	var mapping ColorNameMapping
	if err := yaml.Unmarshal(f, &mapping); err != nil {
		return nil, fmt.Errorf("色名マッピングの解析に失敗しました: %w", err)
	}
	if mapping == nil {
		mapping = ColorNameMapping{}
	}
	return mapping, nil
}
