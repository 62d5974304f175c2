package model

// RawTrimは、抽出直後のトリムです。PriceCandidatesには断片内で見つかった全ての価格が残ります。
type RawTrim struct {
	Name            string  `json:"name"`
	Price           int64   `json:"price"`
	PriceCandidates []int64 `json:"priceCandidates,omitempty"`
}

// TrimSectionは、年式・燃料別に分かれたトリム一覧(ラインナップ)です。
type TrimSection struct {
	Title    string    `json:"title"`
	Year     int       `json:"year"`
	FuelType FuelType  `json:"fuelType,omitempty"`
	Trims    []RawTrim `json:"trims"`
}

type RawColor struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Hex      string `json:"hex"`
	ImageURL string `json:"imageUrl"`
	// Paidは、表示名から有料色と判断されたことを示します。価格は既存データから引き継ぎます。
	Paid bool `json:"paid,omitempty"`
}

type RawOption struct {
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	Description string `json:"description"`
}

// ScrapeRecordは、1車種分のベストエフォートな抽出結果です。
type ScrapeRecord struct {
	CarID     string        `json:"carId"`
	ModelName string        `json:"modelName,omitempty"`
	ImageURL  string        `json:"imageUrl,omitempty"`
	LineupID  string        `json:"lineupId,omitempty"`
	Trims     []RawTrim     `json:"trims"`
	Sections  []TrimSection `json:"sections,omitempty"`
	Colors    []RawColor    `json:"colors"`
	Options   []RawOption   `json:"options"`
	// Strategiesは、カテゴリごとに結果を返した抽出戦略の名前です。
	Strategies map[string]string `json:"strategies,omitempty"`
}

const (
	CategoryTrims   = "trims"
	CategoryColors  = "colors"
	CategoryOptions = "options"
)

// EmptyCategoriesは、抽出結果が0件だったカテゴリを返します。0件は失敗ではなく正常な結果です。
func (r ScrapeRecord) EmptyCategories() []string {
	var empty []string
	if len(r.Trims) == 0 {
		empty = append(empty, CategoryTrims)
	}
	if len(r.Colors) == 0 {
		empty = append(empty, CategoryColors)
	}
	if len(r.Options) == 0 {
		empty = append(empty, CategoryOptions)
	}
	return empty
}

// PricePolicyは、1つのトリム断片に複数の価格がある場合の採用方法です。
type PricePolicy string

const (
	// PricePolicyMaxは、割引価格ではなく定価を採るために最大値を採用します。
	PricePolicyMax PricePolicy = "max"
	// PricePolicyLastは、最後に現れた価格を採用します。
	PricePolicyLast PricePolicy = "last"
)
