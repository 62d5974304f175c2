package infra

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/nrad-K/car-catalog/internal/domain/model"
)

var (
	// 価格表記: "7,650만 원", "1억 1,460만 원", "1억 원"
	priceMentionPattern = regexp.MustCompile(`(?:\d+억(?:\s*[\d,]+만)?|[\d,]+만)\s*원`)
	eokPattern          = regexp.MustCompile(`(\d+)억`)
	manPattern          = regexp.MustCompile(`(\d+)만`)
	rankBadgePattern    = regexp.MustCompile(`TOP\s*\d+\s*선택률\s*:?\s*\d+%`)
	leadingDashPattern  = regexp.MustCompile(`^-\s*`)
)

const (
	eokUnit = 100_000_000
	manUnit = 10_000
)

// ParsePriceは、"[N억][ ][M,MMM만][ 원]"形式の文字列をウォン単位の整数に変換します。
// 억と만のどちらも無い場合や解析できない場合は0を返します。0は「有効な価格なし」を意味します。
//
// 例:
//
//	ParsePrice("7,650만 원")     // 76500000
//	ParsePrice("1억 1,460만 원") // 114600000
//	ParsePrice("만 원")          // 0
func ParsePrice(text string) int64 {
	s := normalizeWidth(text)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.Join(strings.Fields(s), "")
	if s == "" {
		return 0
	}

	var total int64
	matched := false
	if m := eokPattern.FindStringSubmatch(s); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			total += n * eokUnit
			matched = true
		}
	}
	if m := manPattern.FindStringSubmatch(s); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			total += n * manUnit
			matched = true
		}
	}
	if !matched {
		return 0
	}
	return total
}

// PriceCandidatesは、断片内の全ての価格表記を出現順に解析し、0より大きいものを返します。
func PriceCandidates(text string) []int64 {
	mentions := priceMentionPattern.FindAllString(normalizeWidth(text), -1)
	candidates := make([]int64, 0, len(mentions))
	for _, mention := range mentions {
		if price := ParsePrice(mention); price > 0 {
			candidates = append(candidates, price)
		}
	}
	return candidates
}

// CanonicalPriceは、候補から代表価格を選びます。候補が無い場合は0です。
func CanonicalPrice(candidates []int64, policy model.PricePolicy) int64 {
	if len(candidates) == 0 {
		return 0
	}
	if policy == model.PricePolicyLast {
		return candidates[len(candidates)-1]
	}
	highest := candidates[0]
	for _, c := range candidates[1:] {
		if c > highest {
			highest = c
		}
	}
	return highest
}

// ParseTrimTextは、トリムコントロールのコンテナテキストから名前と価格を取り出します。
// 価格表記より前をトリム名とし、名前が2回連続して描画されている場合は1つにまとめます。
// 有効な価格が無い断片はfalseを返します。
//
// 例:
//
//	ParseTrimText("E200 Avantgarde A/T E200 Avantgarde A/T7,650만 원", model.PricePolicyMax)
//	// {Name: "E200 Avantgarde A/T", Price: 76500000}
func ParseTrimText(raw string, policy model.PricePolicy) (model.RawTrim, bool) {
	text := CollapseWhitespace(normalizeWidth(raw))
	text = strings.TrimSpace(rankBadgePattern.ReplaceAllString(text, ""))

	loc := priceMentionPattern.FindStringIndex(text)
	if loc == nil {
		return model.RawTrim{}, false
	}

	name := strings.TrimSpace(text[:loc[0]])
	name = CollapseDoubledLabel(name)
	name = strings.TrimSpace(leadingDashPattern.ReplaceAllString(name, ""))

	candidates := PriceCandidates(text)
	price := CanonicalPrice(candidates, policy)
	if name == "" || price <= 0 {
		return model.RawTrim{}, false
	}

	return model.RawTrim{
		Name:            name,
		Price:           price,
		PriceCandidates: candidates,
	}, true
}
