package constants

const (
	// EstimateURLTemplateは、車種IDから見積もりページのURLを組み立てるテンプレートです。
	EstimateURLTemplate = "https://auto.danawa.com/newcar/?Work=estimate&Model=%s"
	// ImageBaseURLは、カラー画像・ラインナップ画像のベースURLです。
	ImageBaseURL = "https://autoimg.danawa.com/photo"
	// InteriorColorMarkerより後ろは内装色セクションなので、外装色の抽出前に切り捨てます。
	InteriorColorMarker = "내장색상"
	// DefaultColorHexは、スタイルから色を取得できなかった場合の色です。
	DefaultColorHex = "#cccccc"
	// LineupImageFileは、ラインナップ単位の代表画像のファイル名です。
	LineupImageFile = "lineup_360.png"
	// NoImageは、画像が見つからなかったことを示すプレースホルダーです。
	NoImage = "NO_IMAGE"
)

// ColorResponseMarkersは、外装色パネルを返すAJAXレスポンスのURLに含まれる文字列です。
func ColorResponseMarkers() []string {
	return []string{"estimateTrimsColorHtml"}
}

// PaidColorKeywordsは、有料色を示す表示名のキーワードです。
func PaidColorKeywords() []string {
	return []string{"유료", "추가금"}
}

// SectionSkipKeywordsは、一般販売向けでないトリムセクションのタイトルに含まれるキーワードです。
func SectionSkipKeywords() []string {
	return []string{"운전교습용", "장애인용", "렌터카", "특장차", "택시", "영업용", "밴"}
}

// EVVariantKeywordsは、電気自動車のサブモデル名とセクションタイトルを対応付けるキーワードの組です。
// 組のどれか1つが両方に含まれていれば同じバリアントとみなします。
func EVVariantKeywords() [][]string {
	return [][]string{
		{"롱레인지", "long"},
		{"스탠다드", "standard"},
		{"gt"},
	}
}
