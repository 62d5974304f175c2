package usecase

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nrad-K/car-catalog/internal/constants"
	"github.com/nrad-K/car-catalog/internal/domain/model"
)

var (
	displacementPattern = regexp.MustCompile(`(\d+\.\d+)`)
	batteryPattern      = regexp.MustCompile(`(?i)(\d+)\s*kwh`)
	sectionYearPattern  = regexp.MustCompile(`\d{4}년형`)
)

// assignSectionsは、年式・燃料別のトリムセクションをサブモデルに割り当てます。
// 割り当てられたサブモデルのトリムは置き換えられ、セクションが来なかったサブモデルは変更しません。
//
// 燃料種別ごとに次の規則で割り当てます。
//   - その燃料のサブモデルが1つだけなら、その燃料の全セクションを割り当てる
//   - 電気はバリアント名(롱레인지・스탠다드・GT・バッテリー容量)で対応付け、残りは出現順に割り当てる
//   - それ以外は排気量でグループ化し、排気量の昇順でサブモデルに割り当てる
//
// return:
//
//	[]string: 割り当て先が無かったセクションのタイトル
func assignSections(entry *model.SubModelEntry, sections []model.TrimSection) []string {
	if entry == nil || len(entry.SubModels) == 0 || len(sections) == 0 {
		return sectionTitles(sections)
	}

	assigned := map[int][]model.TrimSection{}
	var unassigned []string

	byFuel := map[model.FuelType][]model.TrimSection{}
	var fuels []model.FuelType
	for _, s := range sections {
		if _, ok := byFuel[s.FuelType]; !ok {
			fuels = append(fuels, s.FuelType)
		}
		byFuel[s.FuelType] = append(byFuel[s.FuelType], s)
	}

	for _, fuel := range fuels {
		secs := byFuel[fuel]
		subs := subModelIndexesByFuel(entry, fuel)
		if fuel == "" && len(entry.SubModels) == 1 {
			subs = []int{0}
		}

		switch {
		case len(subs) == 0:
			unassigned = append(unassigned, sectionTitles(secs)...)
		case len(subs) == 1:
			assigned[subs[0]] = append(assigned[subs[0]], secs...)
		case fuel == model.FuelElectric:
			unassigned = append(unassigned, assignByVariant(entry, subs, secs, assigned)...)
		default:
			unassigned = append(unassigned, assignByDisplacement(entry, subs, secs, assigned)...)
		}
	}

	for i, secs := range assigned {
		var trims []model.Trim
		for _, s := range secs {
			for _, t := range s.Trims {
				trims = append(trims, model.Trim{
					ID:       fmt.Sprintf("grade_%d", len(trims)),
					Name:     t.Name,
					Price:    t.Price,
					Features: []string{},
				})
			}
		}
		entry.SubModels[i].Trims = trims
	}
	return unassigned
}

func subModelIndexesByFuel(entry *model.SubModelEntry, fuel model.FuelType) []int {
	var idx []int
	for i, sm := range entry.SubModels {
		if sm.FuelType == fuel {
			idx = append(idx, i)
		}
	}
	return idx
}

func assignByVariant(entry *model.SubModelEntry, subs []int, secs []model.TrimSection, assigned map[int][]model.TrimSection) []string {
	used := map[int]bool{}
	var rest []model.TrimSection
	for _, s := range secs {
		if i, ok := matchVariant(entry, subs, s.Title); ok {
			assigned[i] = append(assigned[i], s)
			used[i] = true
			continue
		}
		rest = append(rest, s)
	}

	var free []int
	for _, i := range subs {
		if !used[i] {
			free = append(free, i)
		}
	}
	var unassigned []string
	for n, s := range rest {
		if n >= len(free) {
			unassigned = append(unassigned, s.Title)
			continue
		}
		assigned[free[n]] = append(assigned[free[n]], s)
	}
	return unassigned
}

func matchVariant(entry *model.SubModelEntry, subs []int, title string) (int, bool) {
	t := strings.ToLower(title)
	for _, keywords := range constants.EVVariantKeywords() {
		if !containsAny(t, keywords) {
			continue
		}
		for _, i := range subs {
			if containsAny(strings.ToLower(entry.SubModels[i].Name), keywords) {
				return i, true
			}
		}
	}
	if m := batteryPattern.FindStringSubmatch(t); m != nil {
		for _, i := range subs {
			if sm := batteryPattern.FindStringSubmatch(entry.SubModels[i].Name); sm != nil && sm[1] == m[1] {
				return i, true
			}
		}
	}
	return 0, false
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}

func assignByDisplacement(entry *model.SubModelEntry, subs []int, secs []model.TrimSection, assigned map[int][]model.TrimSection) []string {
	sorted := append([]int(nil), subs...)
	sort.SliceStable(sorted, func(a, b int) bool {
		return displacementOf(entry.SubModels[sorted[a]].Name) < displacementOf(entry.SubModels[sorted[b]].Name)
	})

	groups := map[float64][]model.TrimSection{}
	for _, s := range secs {
		key := displacementOf(sectionYearPattern.ReplaceAllString(s.Title, ""))
		groups[key] = append(groups[key], s)
	}
	keys := make([]float64, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Float64s(keys)

	var unassigned []string
	for n, k := range keys {
		if n >= len(sorted) {
			unassigned = append(unassigned, sectionTitles(groups[k])...)
			continue
		}
		assigned[sorted[n]] = append(assigned[sorted[n]], groups[k]...)
	}
	return unassigned
}

// displacementOfは、名前に含まれる最初の排気量を返します。無い場合は0です。
func displacementOf(name string) float64 {
	m := displacementPattern.FindStringSubmatch(name)
	if m == nil {
		return 0
	}
	v, _ := strconv.ParseFloat(m[1], 64)
	return v
}

func sectionTitles(sections []model.TrimSection) []string {
	titles := make([]string, 0, len(sections))
	for _, s := range sections {
		titles = append(titles, s.Title)
	}
	return titles
}

// newSubModelEntryは、セクションの燃料種別から新規車種のサブモデル定義を作ります。
// 燃料種別が判定できない場合はnilです。
func newSubModelEntry(sections []model.TrimSection, fallback model.FuelType) *model.SubModelEntry {
	var fuels []model.FuelType
	seen := map[model.FuelType]bool{}
	for _, s := range sections {
		if s.FuelType == "" || seen[s.FuelType] {
			continue
		}
		seen[s.FuelType] = true
		fuels = append(fuels, s.FuelType)
	}
	if len(fuels) == 0 && fallback != "" {
		fuels = append(fuels, fallback)
	}
	if len(fuels) == 0 {
		return nil
	}

	entry := &model.SubModelEntry{}
	for i, f := range fuels {
		entry.SubModels = append(entry.SubModels, model.SubModel{
			ID:        fmt.Sprintf("sub_%d", i),
			Name:      string(f),
			FuelType:  f,
			IsDefault: i == 0,
		})
	}
	return entry
}
