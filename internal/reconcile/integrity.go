package reconcile

import (
	"fmt"

	"github.com/nrad-K/car-catalog/internal/domain/model"
)

// checkIntegrityは、ドキュメント間・ドキュメント内の参照の整合性を確認します。
// 修正するのはブランドの車種数だけです。
func checkIntegrity(catalog *model.Catalog, mode Mode) model.Findings {
	f := newFindings(PassIntegrity)

	idCount := map[string]int{}
	for _, car := range catalog.Cars {
		idCount[car.ID]++
	}
	reported := map[string]bool{}
	names := map[[2]string]string{}
	for _, car := range catalog.Cars {
		if n := idCount[car.ID]; n > 1 && !reported[car.ID] {
			reported[car.ID] = true
			f.issue(model.SeverityCritical, "duplicate-car-id", car.ID, fmt.Sprintf("車種IDが%d件重複しています", n), nil)
		}

		key := [2]string{car.BrandID, car.Name}
		if first, ok := names[key]; ok && first != car.ID {
			f.issue(model.SeverityMedium, "duplicate-car-name", car.ID,
				fmt.Sprintf("同じブランドに同名の車種「%s」があります(%s)", car.Name, first), first)
		} else if !ok {
			names[key] = car.ID
		}

		if _, ok := catalog.FindBrandByID(car.BrandID); !ok {
			f.issue(model.SeverityHigh, "unknown-brand", car.ID, fmt.Sprintf("ブランド一覧に無いbrandId %sです", car.BrandID), nil)
		}

		if detail, ok := catalog.FindDetailByID(car.ID); ok && detail.Brand != "" && car.BrandName != "" && detail.Brand != car.BrandName {
			f.issue(model.SeverityMedium, "brand-mismatch", car.ID,
				fmt.Sprintf("詳細のブランド「%s」がサマリーの「%s」と一致しません", detail.Brand, car.BrandName), nil)
		}
	}

	counts := map[string]int{}
	for _, car := range catalog.Cars {
		counts[car.BrandID]++
	}
	for i := range catalog.Brands {
		b := &catalog.Brands[i]
		if b.CarCount == 0 || b.CarCount == counts[b.ID] {
			continue
		}
		f.issue(model.SeverityInfo, "brand-car-count", "", fmt.Sprintf("ブランド%sの車種数%dが実際の%dと一致しません", b.ID, b.CarCount, counts[b.ID]), b.ID)
		if mode == ModeFix {
			f.repair("", fmt.Sprintf("brands[%s].carCount", b.ID), b.CarCount, counts[b.ID])
			b.CarCount = counts[b.ID]
		}
	}
	return f.Findings
}
