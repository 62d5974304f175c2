package constants

// BrandNamesは、ブランドIDから表示名への対応です。ブランド一覧に無いIDの補完に使います。
func BrandNames() map[string]string {
	return map[string]string{
		"hyundai":   "현대",
		"kia":       "기아",
		"genesis":   "제네시스",
		"kgm":       "KGM",
		"르노코리아":     "르노코리아",
		"쉐보레":       "쉐보레",
		"benz":      "벤츠",
		"bmw":       "BMW",
		"audi":      "아우디",
		"volvo":     "볼보",
		"porsche":   "포르쉐",
		"toyota":    "토요타",
		"lexus":     "렉서스",
		"landrover": "랜드로버",
		"honda":     "혼다",
		"jeep":      "지프",
		"cadillac":  "캐딜락",
		"gmc":       "GMC",
		"lincoln":   "링컨",
		"peugeot":   "푸조",
		"polestar":  "폴스타",
		"테슬라":       "테슬라",
	}
}

type BrandLogoStyle struct {
	Abbr  string
	Color string
}

// FallbackLogoColorは、スタイル未定義のブランドに使う色です。
const FallbackLogoColor = "#666666"

// BrandLogoStylesは、プレースホルダーロゴの略称と色です。
func BrandLogoStyles() map[string]BrandLogoStyle {
	return map[string]BrandLogoStyle{
		"hyundai":   {Abbr: "H", Color: "#002c5f"},
		"kia":       {Abbr: "K", Color: "#bb162b"},
		"genesis":   {Abbr: "G", Color: "#1e1e1e"},
		"kgm":       {Abbr: "KGM", Color: "#c8102e"},
		"르노코리아":     {Abbr: "R", Color: "#ffcc00"},
		"쉐보레":       {Abbr: "C", Color: "#d9a300"},
		"bmw":       {Abbr: "BMW", Color: "#0066b1"},
		"benz":      {Abbr: "MB", Color: "#000000"},
		"audi":      {Abbr: "A", Color: "#bb0a30"},
		"volvo":     {Abbr: "V", Color: "#003057"},
		"polestar":  {Abbr: "P*", Color: "#ffcc00"},
		"toyota":    {Abbr: "T", Color: "#eb0a1e"},
		"lexus":     {Abbr: "L", Color: "#000000"},
		"honda":     {Abbr: "H", Color: "#cc0000"},
		"porsche":   {Abbr: "P", Color: "#d5001c"},
		"landrover": {Abbr: "LR", Color: "#005a2b"},
		"jeep":      {Abbr: "J", Color: "#154734"},
		"테슬라":       {Abbr: "T", Color: "#cc0000"},
		"cadillac":  {Abbr: "C", Color: "#000000"},
		"gmc":       {Abbr: "GMC", Color: "#c8102e"},
		"lincoln":   {Abbr: "L", Color: "#000000"},
		"peugeot":   {Abbr: "P", Color: "#0057a3"},
	}
}

// DanawaBrandCodesは、ブランドIDから다나와のブランドコードへの対応です。
func DanawaBrandCodes() map[string]string {
	return map[string]string{
		"hyundai":   "303",
		"kia":       "307",
		"genesis":   "304",
		"kgm":       "326",
		"쉐보레":       "312",
		"르노코리아":     "321",
		"bmw":       "362",
		"benz":      "349",
		"audi":      "371",
		"volvo":     "459",
		"toyota":    "491",
		"lexus":     "486",
		"honda":     "500",
		"porsche":   "381",
		"landrover": "399",
		"jeep":      "587",
		"cadillac":  "546",
		"lincoln":   "573",
		"peugeot":   "413",
		"polestar":  "458",
		"테슬라":       "611",
		"gmc":       "602",
	}
}
