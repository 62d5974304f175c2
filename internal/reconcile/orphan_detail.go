package reconcile

import (
	"sort"

	"github.com/nrad-K/car-catalog/internal/domain/model"
)

// checkOrphanDetailsは、サマリーに存在しない車種の詳細・サブモデル定義を検出します。削除はしません。
func checkOrphanDetails(catalog *model.Catalog, _ Mode) model.Findings {
	f := newFindings(PassOrphanDetail)

	for _, id := range catalog.DetailIDs() {
		if _, ok := catalog.FindCarByID(id); !ok {
			f.issue(model.SeverityMedium, "orphan-detail", id, "サマリーに無い車種の詳細です", nil)
		}
	}

	ids := make([]string, 0, len(catalog.SubModels))
	for id := range catalog.SubModels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if _, ok := catalog.FindCarByID(id); !ok {
			f.issue(model.SeverityMedium, "orphan-sub-model", id, "サマリーに無い車種のサブモデル定義です", nil)
		}
	}
	return f.Findings
}
