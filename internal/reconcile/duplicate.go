package reconcile

import (
	"fmt"

	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/infra"
)

// 重複検出は判断が必要なため、どのモードでも修正しません。
// 結果は詳細IDの昇順・リストの出現順で決まり、同じスナップショットに対して何度実行しても同じです。

type namedItem struct {
	name  string
	price int64
}

// DuplicateDetailは、重複の検出結果の詳細です。
type DuplicateDetail struct {
	Category string   `json:"category"`
	Name     string   `json:"name"`
	Count    int      `json:"count"`
	Price    int64    `json:"price,omitempty"`
	Names    []string `json:"names,omitempty"`
	Distance int      `json:"distance,omitempty"`
}

// forEachItemListは、詳細IDの昇順で各車種の外装色・オプションの名前リストを渡します。
func forEachItemList(catalog *model.Catalog, fn func(carID, category string, items []namedItem)) {
	for _, id := range catalog.DetailIDs() {
		detail, ok := catalog.FindDetailByID(id)
		if !ok {
			continue
		}
		colors := make([]namedItem, 0, len(detail.ColorImages))
		for _, c := range detail.ColorImages {
			name := c.Name
			if name == "" {
				name = c.ID
			}
			colors = append(colors, namedItem{name: name, price: c.Price})
		}
		fn(id, model.CategoryColors, colors)

		options := make([]namedItem, 0, len(detail.SelectableOptions))
		for _, o := range detail.SelectableOptions {
			options = append(options, namedItem{name: o.Name, price: o.Price})
		}
		fn(id, model.CategoryOptions, options)
	}
}

// groupByは、キーの初出順とキーごとの要素を返します。
func groupBy(items []namedItem, key func(namedItem) string) ([]string, map[string][]namedItem) {
	var order []string
	groups := map[string][]namedItem{}
	for _, it := range items {
		k := key(it)
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], it)
	}
	return order, groups
}

func byName(it namedItem) string {
	return it.name
}

func checkExactDuplicates(catalog *model.Catalog, _ Mode) model.Findings {
	f := newFindings(PassExactDuplicate)
	forEachItemList(catalog, func(carID, category string, items []namedItem) {
		order, groups := groupBy(items, byName)
		for _, name := range order {
			if n := len(groups[name]); n > 1 {
				f.issue(model.SeverityHigh, "exact-duplicate", carID,
					fmt.Sprintf("%sに「%s」が%d件あります", category, name, n),
					DuplicateDetail{Category: category, Name: name, Count: n})
			}
		}
	})
	return f.Findings
}

func checkSamePriceDuplicates(catalog *model.Catalog, _ Mode) model.Findings {
	f := newFindings(PassSamePriceDup)
	forEachItemList(catalog, func(carID, category string, items []namedItem) {
		order, groups := groupBy(items, byName)
		for _, name := range order {
			group := groups[name]
			if len(group) < 2 {
				continue
			}
			prices, byPrice := groupBy(group, func(it namedItem) string { return fmt.Sprint(it.price) })
			for _, p := range prices {
				if n := len(byPrice[p]); n > 1 {
					price := byPrice[p][0].price
					f.issue(model.SeverityCritical, "same-price-duplicate", carID,
						fmt.Sprintf("%sに同じ価格(%d)の「%s」が%d件あります", category, price, name, n),
						DuplicateDetail{Category: category, Name: name, Count: n, Price: price})
				}
			}
		}
	})
	return f.Findings
}

// checkNearDuplicatesは、正規化すると一致するが表記が異なる名前を検出します。
func checkNearDuplicates(catalog *model.Catalog, _ Mode) model.Findings {
	f := newFindings(PassNearDuplicate)
	forEachItemList(catalog, func(carID, category string, items []namedItem) {
		order, groups := groupBy(items, func(it namedItem) string {
			return infra.NormalizeForDuplicateDetection(it.name)
		})
		for _, key := range order {
			if key == "" {
				continue
			}
			names, _ := groupBy(groups[key], byName)
			if len(names) < 2 {
				continue
			}
			distance := infra.LevenshteinDistance(names[0], names[1])
			f.issue(model.SeverityMedium, "near-duplicate", carID,
				fmt.Sprintf("%sの「%s」と「%s」は同じ項目の可能性があります(編集距離%d)", category, names[0], names[1], distance),
				DuplicateDetail{Category: category, Name: key, Count: len(groups[key]), Names: names, Distance: distance})
		}
	})
	return f.Findings
}
