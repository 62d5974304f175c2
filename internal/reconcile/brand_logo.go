package reconcile

import (
	"fmt"
	"net/url"

	"github.com/nrad-K/car-catalog/internal/constants"
	"github.com/nrad-K/car-catalog/internal/domain/model"
)

// checkBrandLogosは、ロゴの無いブランドを検出し、fixモードでは略称入りの円形SVGを割り当てます。
func checkBrandLogos(catalog *model.Catalog, mode Mode) model.Findings {
	f := newFindings(PassBrandLogo)

	for i := range catalog.Brands {
		b := &catalog.Brands[i]
		if b.LogoURL != "" {
			continue
		}
		f.issue(model.SeverityInfo, "missing-logo", "", fmt.Sprintf("ブランド%sにロゴがありません", b.ID), b.ID)
		if mode == ModeFix {
			logo := PlaceholderLogoURL(*b)
			f.repair("", fmt.Sprintf("brands[%s].logoUrl", b.ID), b.LogoURL, logo)
			b.LogoURL = logo
		}
	}
	return f.Findings
}

// PlaceholderLogoURLは、ブランドのプレースホルダーロゴをSVGのdata URIで返します。
// スタイル未定義のブランドは、表示名の先頭文字とフォールバック色を使います。
func PlaceholderLogoURL(b model.Brand) string {
	style, ok := constants.BrandLogoStyles()[b.ID]
	if !ok {
		abbr := b.ID
		if r := []rune(b.Name); len(r) > 0 {
			abbr = string(r[0])
		}
		style = constants.BrandLogoStyle{Abbr: abbr, Color: constants.FallbackLogoColor}
	}

	fontSize := 12
	switch len([]rune(style.Abbr)) {
	case 1:
		fontSize = 20
	case 2:
		fontSize = 16
	}
	svg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 48 48"><circle cx="24" cy="24" r="22" fill="%s"/>`+
		`<text x="24" y="29" text-anchor="middle" fill="white" font-size="%d" font-weight="bold" font-family="Arial, sans-serif">%s</text></svg>`,
		style.Color, fontSize, style.Abbr)
	return "data:image/svg+xml," + url.PathEscape(svg)
}
