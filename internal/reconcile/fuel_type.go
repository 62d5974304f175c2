package reconcile

import (
	"fmt"
	"regexp"
	"slices"

	"github.com/nrad-K/car-catalog/internal/constants"
	"github.com/nrad-K/car-catalog/internal/domain/model"
)

type fuelMatcher struct {
	fuel     model.FuelType
	patterns []*regexp.Regexp
}

// fuelMatchersは、英数字の境界で区切られたトークンとして燃料の手がかりを探します。
// "Chevrolet"の"hev"のような部分一致を拾わないためです。
var fuelMatchers = func() []fuelMatcher {
	var matchers []fuelMatcher
	for _, ind := range constants.FuelIndicators() {
		m := fuelMatcher{fuel: ind.FuelType}
		for _, token := range ind.Tokens {
			m.patterns = append(m.patterns, regexp.MustCompile(`(?:^|[^A-Za-z0-9])`+regexp.QuoteMeta(token)+`(?:[^A-Za-z0-9]|$)`))
		}
		matchers = append(matchers, m)
	}
	return matchers
}()

// DetectFuelIndicatorは、グレード名に含まれる燃料の手がかりを判定順に探し、最初に見つかった燃料種別を返します。
// 見つからない場合は空文字です。
func DetectFuelIndicator(gradeName string) model.FuelType {
	for _, m := range fuelMatchers {
		for _, p := range m.patterns {
			if p.MatchString(gradeName) {
				return m.fuel
			}
		}
	}
	return ""
}

// FuelTypeDetailは、燃料種別の不一致の詳細です。
type FuelTypeDetail struct {
	Declared  model.FuelType      `json:"declared,omitempty"`
	SubModels []model.FuelType    `json:"subModels,omitempty"`
	Grade     string              `json:"grade,omitempty"`
	Indicated []model.FuelType    `json:"indicated,omitempty"`
	Variants  []model.FuelVariant `json:"variants,omitempty"`
}

// checkFuelTypesは、サマリーの燃料種別とサブモデル・グレード名の手がかりの不一致を検出します。
// 複数燃料の車種はデータモデルの問題なので、どのモードでも修正しません。
func checkFuelTypes(catalog *model.Catalog, _ Mode) model.Findings {
	f := newFindings(PassFuelType)

	for _, car := range catalog.Cars {
		entry, _ := catalog.FindSubModelByID(car.ID)
		subFuels := entry.DistinctFuelTypes()
		detail, hasDetail := catalog.FindDetailByID(car.ID)

		if len(subFuels) == 1 && car.FuelType != subFuels[0] {
			if car.FuelType == "" {
				f.issue(model.SeverityCritical, "missing-summary-fuel", car.ID,
					fmt.Sprintf("サマリーに燃料種別がありません(サブモデルは%s)", subFuels[0]),
					FuelTypeDetail{SubModels: subFuels})
			} else {
				f.issue(model.SeverityCritical, "summary-vs-sub-model", car.ID,
					fmt.Sprintf("サマリーの燃料種別%sがサブモデルの%sと一致しません", car.FuelType, subFuels[0]),
					FuelTypeDetail{Declared: car.FuelType, SubModels: subFuels})
			}
		}

		if len(subFuels) > 1 {
			if !subModelsPartitioned(entry) {
				f.issue(model.SeverityInfo, "multi-fuel-unpartitioned", car.ID,
					fmt.Sprintf("%d種類の燃料のサブモデルがありますが、トリムが燃料別に分かれていません", len(subFuels)),
					FuelTypeDetail{Declared: car.FuelType, SubModels: subFuels, Variants: model.BuildFuelVariants(entry, detail)})
			}
			continue
		}
		names := gradeNames(car, detail, hasDetail)
		if len(names) == 0 {
			continue
		}

		declared := car.FuelType
		if declared == "" && len(subFuels) == 1 {
			declared = subFuels[0]
		}

		var indicated []model.FuelType
		for _, name := range names {
			fuel := DetectFuelIndicator(name)
			if fuel == "" {
				continue
			}
			if !slices.Contains(indicated, fuel) {
				indicated = append(indicated, fuel)
			}
			if declared != "" && !compatibleFuel(declared, fuel) {
				f.issue(model.SeverityHigh, "grade-vs-declared", car.ID,
					fmt.Sprintf("グレード「%s」は%sを示していますが、車種は%sです", name, fuel, declared),
					FuelTypeDetail{Declared: declared, Grade: name, Indicated: []model.FuelType{fuel}})
			}
		}
		if len(indicated) > 1 {
			f.issue(model.SeverityHigh, "mixed-indicators", car.ID,
				fmt.Sprintf("グレード名に複数の燃料の手がかりがあります: %v", indicated),
				FuelTypeDetail{Declared: declared, Indicated: indicated})
		}
	}
	return f.Findings
}

// gradeNamesは、詳細のトリム名とサマリーのグレード名を重複無しで出現順に返します。
func gradeNames(car model.Car, detail *model.CarDetail, hasDetail bool) []string {
	var names []string
	if hasDetail {
		for _, t := range detail.Trims {
			if !slices.Contains(names, t.Name) {
				names = append(names, t.Name)
			}
		}
	}
	for _, g := range car.Grades {
		if !slices.Contains(names, g.Name) {
			names = append(names, g.Name)
		}
	}
	return names
}

// compatibleFuelは、グレードの手がかりが宣言された燃料種別と矛盾しないかを返します。
// ハイブリッドのグレード名にはガソリンエンジンの型式が現れるため、矛盾とはみなしません。
func compatibleFuel(declared, indicated model.FuelType) bool {
	if declared == indicated {
		return true
	}
	return declared == model.FuelHybrid && indicated == model.FuelGasoline
}

func subModelsPartitioned(entry *model.SubModelEntry) bool {
	for _, sm := range entry.SubModels {
		if len(sm.Trims) == 0 {
			return false
		}
	}
	return true
}
