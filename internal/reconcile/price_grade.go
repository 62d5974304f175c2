package reconcile

import (
	"fmt"
	"slices"

	"github.com/nrad-K/car-catalog/internal/domain/model"
)

// checkPriceGradeは、サマリーのstartPrice・gradeCount・gradesが詳細のトリムと一致しているかを確認します。
// fixモードでは3つとも詳細のトリムから再計算します。startPriceは価格のあるトリムだけから求め、
// 価格のあるトリムが1つも無い場合は比較も修正もしません。
func checkPriceGrade(catalog *model.Catalog, mode Mode) model.Findings {
	f := newFindings(PassPriceGrade)

	for i := range catalog.Cars {
		car := &catalog.Cars[i]
		detail, ok := catalog.FindDetailByID(car.ID)
		if !ok || len(detail.Trims) == 0 {
			continue
		}

		lowest, priced := model.MinTrimPrice(detail.Trims)
		trimCount := len(detail.Trims)
		grades := model.GradesFromTrims(detail.Trims)
		mismatch := false

		if priced && car.StartPrice != lowest {
			mismatch = true
			f.issue(model.SeverityHigh, "start-price", car.ID,
				fmt.Sprintf("startPrice %d がトリムの最低価格 %d と一致しません", car.StartPrice, lowest), nil)
		}
		if car.GradeCount != trimCount {
			mismatch = true
			f.issue(model.SeverityHigh, "grade-count", car.ID,
				fmt.Sprintf("gradeCount %d がトリム数 %d と一致しません", car.GradeCount, trimCount), nil)
		}
		if len(car.Grades) != trimCount {
			mismatch = true
			f.issue(model.SeverityHigh, "grades-length", car.ID,
				fmt.Sprintf("grades %d件がトリム数 %d と一致しません", len(car.Grades), trimCount), nil)
		} else if !slices.Equal(car.Grades, grades) {
			mismatch = true
			f.issue(model.SeverityHigh, "grades-content", car.ID, "gradesの名前・価格が詳細のトリムと一致しません", nil)
		}

		if mode != ModeFix || !mismatch {
			continue
		}
		if priced && car.StartPrice != lowest {
			f.repair(car.ID, "startPrice", car.StartPrice, lowest)
			car.StartPrice = lowest
		}
		if car.GradeCount != trimCount {
			f.repair(car.ID, "gradeCount", car.GradeCount, trimCount)
			car.GradeCount = trimCount
		}
		if !slices.Equal(car.Grades, grades) {
			f.repair(car.ID, "grades", car.Grades, grades)
			car.Grades = grades
		}
	}
	return f.Findings
}
