package reconcile

import (
	"fmt"
	"strings"

	"github.com/nrad-K/car-catalog/internal/constants"
	"github.com/nrad-K/car-catalog/internal/domain/model"
)

// checkMissingLinkedDataは、車種サマリーに紐づくべきデータの欠落を検出します。
// 修正できるのは、ブランド名(ブランド一覧または既知のID)とグレード(詳細のトリムから導出)だけです。
func checkMissingLinkedData(catalog *model.Catalog, mode Mode) model.Findings {
	f := newFindings(PassMissingLinkedData)

	for i := range catalog.Cars {
		car := &catalog.Cars[i]
		detail, hasDetail := catalog.FindDetailByID(car.ID)

		if !hasDetail {
			f.issue(model.SeverityCritical, "missing-detail", car.ID, "車種詳細がありません", nil)
		}

		if car.BrandName == "" {
			f.issue(model.SeverityCritical, "missing-brand-name", car.ID, fmt.Sprintf("ブランド名がありません(brandId=%s)", car.BrandID), nil)
			if name := lookupBrandName(catalog, car.BrandID); mode == ModeFix && name != "" {
				f.repair(car.ID, "brandName", car.BrandName, name)
				car.BrandName = name
			}
		}

		if len(car.Grades) == 0 {
			f.issue(model.SeverityCritical, "missing-grades", car.ID, "グレードがありません", nil)
			if mode == ModeFix && hasDetail && len(detail.Trims) > 0 {
				grades := model.GradesFromTrims(detail.Trims)
				f.repair(car.ID, "grades", car.Grades, grades)
				car.Grades = grades
				if car.GradeCount != len(grades) {
					f.repair(car.ID, "gradeCount", car.GradeCount, len(grades))
					car.GradeCount = len(grades)
				}
			}
		}

		if _, ok := catalog.FindSubModelByID(car.ID); !ok {
			f.issue(model.SeverityCritical, "missing-sub-model", car.ID, "サブモデル定義がありません", nil)
		}

		switch {
		case car.ImageURL == "" || car.ImageURL == constants.NoImage:
			f.issue(model.SeverityMedium, "missing-image", car.ID, "代表画像がありません", nil)
		case strings.HasSuffix(car.ImageURL, constants.LineupImageFile):
			f.issue(model.SeverityInfo, "lineup-image", car.ID, "代表画像がラインナップ画像です", car.ImageURL)
		}

		if !hasDetail {
			continue
		}

		if len(detail.Trims) == 0 {
			f.issue(model.SeverityCritical, "missing-trims", car.ID, "トリムがありません", nil)
		}
		for _, t := range detail.Trims {
			if t.Price <= 0 {
				f.issue(model.SeverityHigh, "zero-price-trim", car.ID, fmt.Sprintf("トリム「%s」の価格がありません", t.Name), t.ID)
			}
		}
		if len(detail.ColorImages) == 0 {
			f.issue(model.SeverityMedium, "missing-colors", car.ID, "外装色がありません", nil)
		}
		// オプションが無い車種は実在するため参考情報にとどめる
		if len(detail.SelectableOptions) == 0 {
			f.issue(model.SeverityInfo, "missing-options", car.ID, "選択オプションがありません", nil)
		}
	}
	return f.Findings
}

// lookupBrandNameは、ブランド一覧、既知のブランドIDの順にブランド名を探します。
func lookupBrandName(catalog *model.Catalog, brandID string) string {
	if b, ok := catalog.FindBrandByID(brandID); ok && b.Name != "" {
		return b.Name
	}
	return constants.BrandNames()[brandID]
}
