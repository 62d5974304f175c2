package reconcile

import (
	"fmt"
	"strings"

	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/infra"
)

// checkHexNormalizationは、外装色のhexが"#"付きの小文字表記になっているかを確認します。
// rgb()表記や大文字表記は変換でき、解釈できない値は検出だけ行います。
func checkHexNormalization(catalog *model.Catalog, mode Mode) model.Findings {
	f := newFindings(PassHexNormalization)

	for _, id := range catalog.DetailIDs() {
		detail, ok := catalog.FindDetailByID(id)
		if !ok {
			continue
		}
		for i, c := range detail.ColorImages {
			normalized, valid := infra.NormalizeHex(c.Hex)
			if !valid {
				f.issue(model.SeverityHigh, "invalid-hex", id, fmt.Sprintf("外装色「%s」のhex %qを解釈できません", c.Name, c.Hex), c.ID)
				continue
			}
			if normalized == c.Hex {
				continue
			}

			kind := "hex-format"
			if strings.HasPrefix(strings.ToLower(strings.TrimSpace(c.Hex)), "rgb") {
				kind = "rgb-hex"
			}
			f.issue(model.SeverityHigh, kind, id, fmt.Sprintf("外装色「%s」のhex %qは%sに正規化できます", c.Name, c.Hex, normalized), c.ID)
			if mode == ModeFix {
				f.repair(id, fmt.Sprintf("colorImages[%s].hex", c.ID), c.Hex, normalized)
				detail.ColorImages[i].Hex = normalized
			}
		}
	}
	return f.Findings
}
