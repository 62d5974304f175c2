package infra

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/nrad-K/car-catalog/internal/domain/model"
	"golang.org/x/text/width"
)

var (
	hexColorPattern = regexp.MustCompile(`^#(?:[0-9a-f]{3}|[0-9a-f]{6})$`)
	rgbColorPattern = regexp.MustCompile(`^rgba?\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})`)
	evTokenPattern  = regexp.MustCompile(`(?:^|[^a-z])ev(?:[^a-z]|$)`)
	hevTokenPattern = regexp.MustCompile(`(?:^|[^a-z])p?hev(?:[^a-z]|$)`)
)

// normalizeWidthは、全角英数字・記号を半角に寄せ、制御文字を取り除きます。
func normalizeWidth(s string) string {
	s = width.Narrow.String(s)
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// CollapseWhitespaceは、連続する空白を1つのスペースにまとめ、前後を除去します。
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CollapseDoubledLabelは、"ABC ABC"のように同じラベルが2回続けて描画された文字列を1つにまとめます。
// 前半と後半を比較し、前後の空白を除いて一致する場合のみ前半を返します。
func CollapseDoubledLabel(s string) string {
	runes := []rune(strings.TrimSpace(s))
	half := len(runes) / 2
	if half < 2 {
		return string(runes)
	}
	first := strings.TrimSpace(string(runes[:half]))
	second := strings.TrimSpace(string(runes[half:]))
	if first != "" && first == second {
		return first
	}
	return string(runes)
}

// NormalizeForDuplicateDetectionは、表記揺れ(空白・大文字小文字)を吸収した比較キーを返します。
// 英小文字・数字・ハングルのみを残します。
func NormalizeForDuplicateDetection(name string) string {
	s := strings.ToLower(normalizeWidth(name))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case unicode.Is(unicode.Hangul, r):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LevenshteinDistanceは、ルーン単位の編集距離を全行列の動的計画法で求めます。
func LevenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	matrix := make([][]int, len(ra)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(rb)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(rb); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			matrix[i][j] = min(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}
	return matrix[len(ra)][len(rb)]
}

// NormalizeHexは、色の値を"#rgb"または"#rrggbb"の小文字表記にします。
// rgb()/rgba()は"#rrggbb"に変換します。それ以外の値はfalseを返します。
func NormalizeHex(value string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.TrimSpace(strings.TrimRight(v, ";"))
	if hexColorPattern.MatchString(v) {
		return v, true
	}
	m := rgbColorPattern.FindStringSubmatch(v)
	if m == nil {
		return "", false
	}
	var channels [3]int
	for i := range channels {
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return "", false
		}
		channels[i] = min(n, 255)
	}
	return fmt.Sprintf("#%02x%02x%02x", channels[0], channels[1], channels[2]), true
}

// ParseFuelTypeは、セクションタイトルやサブモデル名から燃料種別を判定します。判定できない場合は空文字です。
func ParseFuelType(text string) model.FuelType {
	s := strings.ToLower(normalizeWidth(text))
	switch {
	case strings.Contains(s, "하이브리드") || strings.Contains(s, "hybrid") || hevTokenPattern.MatchString(s):
		return model.FuelHybrid
	case strings.Contains(s, "수소"):
		return model.FuelHydrogen
	case strings.Contains(s, "전기") || strings.Contains(s, "electric") || evTokenPattern.MatchString(s):
		return model.FuelElectric
	case strings.Contains(s, "lpg") || strings.Contains(s, "lpi"):
		return model.FuelLPG
	case strings.Contains(s, "디젤") || strings.Contains(s, "diesel"):
		return model.FuelDiesel
	case strings.Contains(s, "가솔린") || strings.Contains(s, "휘발유") || strings.Contains(s, "gasoline"):
		return model.FuelGasoline
	default:
		return ""
	}
}
