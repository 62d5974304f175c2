package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/nrad-K/car-catalog/internal/constants"
	"github.com/nrad-K/car-catalog/internal/domain/model"
)

// SelectorConfigは、見積もりページの操作に使うセレクターです。
type SelectorConfig struct {
	TrimClick            []string `yaml:"trim_click" validate:"required,min=1,dive,required"` // 色・オプションを読み込ませるためにクリックするトリム(先頭から試行)
	ColorPanel           string   `yaml:"color_panel"`                                        // レスポンスを傍受できなかった場合に読む外装色パネル
	ColorResponseMarkers []string `yaml:"color_response_markers" validate:"dive,required"`    // 外装色HTMLを返すレスポンスURLに含まれる文字列
}

// ScraperConfigは、スクレイプとバッチ実行の設定をまとめる構造体です。
type ScraperConfig struct {
	Catalog                   CatalogConfig     `yaml:"catalog" validate:"required"`
	Log                       LogConfig         `yaml:"log"`
	EstimateURLTemplate       string            `yaml:"estimate_url_template" validate:"required,contains=%s"`   // 車種IDを埋め込む見積もりページURL
	ImageBaseURL              string            `yaml:"image_base_url" validate:"required,url"`
	EnableHeadless            bool              `yaml:"enable_headless"`
	UserAgent                 string            `yaml:"user_agent" validate:"required,min=1"`
	Headers                   map[string]string `yaml:"headers"`
	BlockResources            bool              `yaml:"block_resources"`                                         // 画像・フォントの読み込みを止める
	NavigationTimeoutSeconds  int               `yaml:"navigation_timeout_seconds" validate:"min=1,max=300"`     // 超過した車種はfailed
	PostNavigationDelayMillis int               `yaml:"post_navigation_delay_millis" validate:"min=0,max=60000"`
	ClickTimeoutMillis        int               `yaml:"click_timeout_millis" validate:"min=100,max=60000"`
	SettleDelayMillis         int               `yaml:"settle_delay_millis" validate:"min=0,max=60000"`          // トリム選択後の固定待機
	BatchSize                 int               `yaml:"batch_size" validate:"min=1,max=10"`
	Concurrency               int               `yaml:"concurrency" validate:"min=1,max=10"`
	BatchDelayMillis          int               `yaml:"batch_delay_millis" validate:"min=0,max=600000"`
	PricePolicy               model.PricePolicy `yaml:"price_policy" validate:"required,oneof=max last"`
	ReportDir                 string            `yaml:"report_dir" validate:"required"`
	Selector                  SelectorConfig    `yaml:"selector" validate:"required"`
	SnapshotDir               string            `yaml:"snapshot_dir"`                                            // 指定すると取得したページHTMLを車種IDごとに保存する
	Discovery                 DiscoveryConfig   `yaml:"discovery"`
}

// DiscoveryConfigは、ブランドページから車種を探索する設定です。
type DiscoveryConfig struct {
	BrandPageURLTemplate string            `yaml:"brand_page_url_template" validate:"omitempty,contains=%s"` // ブランドコードを埋め込むURL
	ModelLinkSelector    string            `yaml:"model_link_selector"`
	MaxNameLength        int               `yaml:"max_name_length" validate:"min=0,max=200"`
	RetryCount           int               `yaml:"retry_count" validate:"min=0,max=5"`
	BrandDelayMillis     int               `yaml:"brand_delay_millis" validate:"min=0,max=60000"`
	BrandCodes           map[string]string `yaml:"brand_codes"`                                              // 組み込みの対応を上書き・追加する
}

// BrandPageURLは、ブランドコードの車種一覧ページURLを返します。
func (c DiscoveryConfig) BrandPageURL(code string) string {
	return fmt.Sprintf(c.BrandPageURLTemplate, code)
}

// EstimateURLは、車種IDの見積もりページURLを返します。
func (c ScraperConfig) EstimateURL(carID string) string {
	return fmt.Sprintf(c.EstimateURLTemplate, carID)
}

// YAMLファイルからScraperConfigを読み込む
func LoadScraperConfig(path string) (ScraperConfig, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return ScraperConfig{}, fmt.Errorf("設定ファイルを読み込めませんでした: %w", err)
	}

	var cfg ScraperConfig
	if err := yaml.Unmarshal(f, &cfg); err != nil {
		return ScraperConfig{}, fmt.Errorf("YAMLの解析に失敗しました: %w", err)
	}
	applyCatalogEnv(&cfg.Catalog)
	applyScraperDefaults(&cfg)

	// バリデーション
	if err := validate.Struct(cfg); err != nil {
		return ScraperConfig{}, fmt.Errorf("設定のバリデーションに失敗しました: %w", err)
	}

	// カスタムバリデーション
	if cfg.Concurrency > cfg.BatchSize {
		return ScraperConfig{}, fmt.Errorf("concurrencyはbatch_size以下である必要があります")
	}
	if strings.Count(cfg.EstimateURLTemplate, "%s") != 1 {
		return ScraperConfig{}, fmt.Errorf("estimate_url_templateには%%sを1つだけ含める必要があります")
	}
	applyDiscoveryDefaults(&cfg.Discovery)

	return cfg, nil
}

// 未指定の場合はダナワのURLを使う
func applyScraperDefaults(c *ScraperConfig) {
	if c.EstimateURLTemplate == "" {
		c.EstimateURLTemplate = constants.EstimateURLTemplate
	}
	if c.ImageBaseURL == "" {
		c.ImageBaseURL = constants.ImageBaseURL
	}
	if len(c.Selector.ColorResponseMarkers) == 0 {
		c.Selector.ColorResponseMarkers = constants.ColorResponseMarkers()
	}
}

func applyDiscoveryDefaults(c *DiscoveryConfig) {
	if c.BrandPageURLTemplate == "" {
		c.BrandPageURLTemplate = "https://auto.danawa.com/newcar/?Work=record&Tab=Model&Brand=%s"
	}
	if c.ModelLinkSelector == "" {
		c.ModelLinkSelector = `a[href*="Model="]`
	}
	if c.MaxNameLength == 0 {
		c.MaxNameLength = 50
	}
}
