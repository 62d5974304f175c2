package usecase

import (
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/nrad-K/car-catalog/internal/constants"
	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/infra"
)

// 変更の種類。実行レポートと進捗ログに出力します。
const (
	ChangeNew       = "+NEW"
	ChangeName      = "NAME"
	ChangeTrims     = "TRIMS"
	ChangePrice     = "PRICE"
	ChangeColors    = "COLORS"
	ChangeHex       = "HEX"
	ChangeImage     = "IMG"
	ChangeOptions   = "OPTIONS"
	ChangeSubModels = "SUBMODELS"
)

var (
	// ErrUnknownBrandは、カタログに無い車種をブランド指定なしで追加しようとした場合のエラーです。
	ErrUnknownBrand = errors.New("brand is required for a new car")

	colorImagePathPattern = regexp.MustCompile(`color_C?(\d+)_360`)
	lineupSegmentPattern  = regexp.MustCompile(`/photo/\d+/(\d+)/`)
)

// MergeResultは、1車種分の抽出結果をカタログに反映した結果です。
type MergeResult struct {
	Changes    []string
	PriceAudit []model.PriceAudit
	// Unassignedは、どのサブモデルにも割り当てられなかったセクションのタイトルです。
	Unassigned []string
	// UnpricedPaidColorsは、有料色なのに引き継ぐ価格が無かった色名です。
	UnpricedPaidColors []string
}

func (r MergeResult) Changed() bool {
	return len(r.Changes) > 0
}

func (r *MergeResult) add(change string) {
	if !slices.Contains(r.Changes, change) {
		r.Changes = append(r.Changes, change)
	}
}

// Mergerは、抽出結果をカタログのスナップショットにマージします。
type Merger struct {
	imageBaseURL string
}

func NewMerger(imageBaseURL string) *Merger {
	return &Merger{imageBaseURL: imageBaseURL}
}

// Mergeは、抽出結果をカタログに反映します。空のカテゴリは既存データを変更しません。
//
// 反映規則:
//   - トリムはstartPrice・gradeCount・gradesも更新する
//   - 外装色は同じ表示名の既存色の価格を引き継ぐ
//   - 外装色が取れずラインナップIDが分かった場合は、既存の色画像URLのラインナップを付け替える
//   - カタログに無い車種は、ブランドが分かれば新規に作成する
//
// args:
//
//	catalog: 変更対象のスナップショット
//	record: 抽出結果
//	brandID: 新規車種のブランドID(既存車種では無視)
//
// return:
//
//	MergeResult: 変更内容
//	error: 新規車種のブランドが不明な場合のエラー
func (m *Merger) Merge(catalog *model.Catalog, record model.ScrapeRecord, brandID string) (MergeResult, error) {
	var result MergeResult

	car, detail, err := m.ensureCar(catalog, record, brandID, &result)
	if err != nil {
		return result, err
	}

	trims := canonicalTrims(record)
	result.PriceAudit = priceAudit(trims)

	if len(trims) > 0 {
		newTrims := buildTrims(trims, detail.Trims)
		if !slices.EqualFunc(newTrims, detail.Trims, sameTrim) {
			detail.Trims = newTrims
			result.add(ChangeTrims)
		}
	}
	if len(detail.Trims) > 0 && len(trims) > 0 {
		syncSummaryFromTrims(car, detail.Trims, &result)
	}

	switch {
	case len(record.Colors) > 0:
		m.mergeColors(detail, record.Colors, &result)
	case record.LineupID != "" && len(detail.ColorImages) > 0:
		m.repathColors(car.ID, detail, record.LineupID, &result)
	}

	if len(record.Options) > 0 {
		options := buildOptions(record.Options, detail.SelectableOptions)
		if !slices.Equal(options, detail.SelectableOptions) {
			detail.SelectableOptions = options
			result.add(ChangeOptions)
		}
	}

	if record.ImageURL != "" {
		if detail.ImageURL != record.ImageURL || car.ImageURL != record.ImageURL {
			detail.ImageURL = record.ImageURL
			car.ImageURL = record.ImageURL
			result.add(ChangeImage)
		}
	}

	if len(record.Sections) > 0 {
		if entry, ok := catalog.FindSubModelByID(car.ID); ok {
			snapshot := make([][]model.Trim, len(entry.SubModels))
			for i, sm := range entry.SubModels {
				snapshot[i] = sm.Trims
			}
			result.Unassigned = assignSections(entry, record.Sections)
			for i, sm := range entry.SubModels {
				if !slices.EqualFunc(sm.Trims, snapshot[i], sameTrim) {
					result.add(ChangeSubModels)
					break
				}
			}
		}
	}

	return result, nil
}

// ensureCarは、車種サマリーと詳細を取得します。無い場合は作成します。
func (m *Merger) ensureCar(catalog *model.Catalog, record model.ScrapeRecord, brandID string, result *MergeResult) (*model.Car, *model.CarDetail, error) {
	car, carOK := catalog.FindCarByID(record.CarID)
	detail, detailOK := catalog.FindDetailByID(record.CarID)

	if !carOK {
		if detailOK && brandID == "" {
			brandID = brandIDByName(catalog, detail.Brand)
		}
		if brandID == "" {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownBrand, record.CarID)
		}
		brandName := ensureBrand(catalog, brandID)

		name := record.ModelName
		if name == "" && detailOK {
			name = detail.Name
		}
		if name == "" {
			name = record.CarID
		}

		sub := newSubModelEntry(record.Sections, infra.ParseFuelType(name))
		var fuel model.FuelType
		if types := sub.DistinctFuelTypes(); len(types) == 1 {
			fuel = types[0]
		}

		car = catalog.UpsertCar(model.Car{
			ID:        record.CarID,
			BrandID:   brandID,
			BrandName: brandName,
			Name:      name,
			Grades:    []model.Grade{},
			FuelType:  fuel,
		})
		if !detailOK {
			detail = &model.CarDetail{
				Brand:             brandName,
				Name:              name,
				FuelType:          fuel,
				Trims:             []model.Trim{},
				SelectableOptions: []model.Option{},
				ColorImages:       []model.ColorImage{},
			}
			catalog.Details[record.CarID] = detail
		}
		if _, ok := catalog.FindSubModelByID(record.CarID); !ok && sub != nil {
			catalog.SubModels[record.CarID] = sub
		}
		updateBrandCarCount(catalog, brandID)
		result.add(ChangeNew)
		return car, detail, nil
	}

	if !detailOK {
		detail = &model.CarDetail{
			Brand:             car.BrandName,
			Name:              car.Name,
			ImageURL:          car.ImageURL,
			FuelType:          car.FuelType,
			Trims:             []model.Trim{},
			SelectableOptions: []model.Option{},
			ColorImages:       []model.ColorImage{},
		}
		catalog.Details[car.ID] = detail
		result.add(ChangeNew)
	}

	if car.Name == "" && record.ModelName != "" {
		car.Name = record.ModelName
		if detail.Name == "" {
			detail.Name = record.ModelName
		}
		result.add(ChangeName)
	}
	return car, detail, nil
}

func brandIDByName(catalog *model.Catalog, name string) string {
	for _, b := range catalog.Brands {
		if b.Name == name {
			return b.ID
		}
	}
	return ""
}

// ensureBrandは、ブランドの表示名を返します。ブランド一覧に無ければ追加します。
func ensureBrand(catalog *model.Catalog, brandID string) string {
	if b, ok := catalog.FindBrandByID(brandID); ok {
		return b.Name
	}
	name, ok := constants.BrandNames()[brandID]
	if !ok {
		name = brandID
	}
	catalog.Brands = append(catalog.Brands, model.Brand{ID: brandID, Name: name})
	return name
}

func updateBrandCarCount(catalog *model.Catalog, brandID string) {
	b, ok := catalog.FindBrandByID(brandID)
	if !ok {
		return
	}
	count := 0
	for _, c := range catalog.Cars {
		if c.BrandID == brandID {
			count++
		}
	}
	b.CarCount = count
}

// canonicalTrimsは、マージに使うトリム一覧を返します。
// 年式・燃料別セクションが取れた場合は、最新年式で一般販売向けのセクションのトリムを使います。
func canonicalTrims(record model.ScrapeRecord) []model.RawTrim {
	if len(record.Sections) == 0 {
		return record.Trims
	}
	var trims []model.RawTrim
	seen := map[model.Grade]bool{}
	for _, s := range record.Sections {
		for _, t := range s.Trims {
			key := model.Grade{Name: t.Name, Price: t.Price}
			if seen[key] {
				continue
			}
			seen[key] = true
			trims = append(trims, t)
		}
	}
	return trims
}

func priceAudit(trims []model.RawTrim) []model.PriceAudit {
	var audit []model.PriceAudit
	for _, t := range trims {
		if len(t.PriceCandidates) > 1 {
			audit = append(audit, model.PriceAudit{Trim: t.Name, Candidates: t.PriceCandidates, Chosen: t.Price})
		}
	}
	return audit
}

// buildTrimsは、抽出したトリムから詳細トリムを作ります。同名の既存トリムの装備リストは引き継ぎます。
func buildTrims(raw []model.RawTrim, existing []model.Trim) []model.Trim {
	features := map[string][]string{}
	for _, t := range existing {
		features[t.Name] = t.Features
	}
	trims := make([]model.Trim, 0, len(raw))
	for i, r := range raw {
		f, ok := features[r.Name]
		if !ok || f == nil {
			f = []string{}
		}
		trims = append(trims, model.Trim{
			ID:       fmt.Sprintf("grade_%d", i),
			Name:     r.Name,
			Price:    r.Price,
			Features: f,
		})
	}
	return trims
}

func sameTrim(a, b model.Trim) bool {
	return a.ID == b.ID && a.Name == b.Name && a.Price == b.Price && slices.Equal(a.Features, b.Features)
}

// syncSummaryFromTrimsは、詳細トリムからstartPrice・gradeCount・gradesを導出します。
func syncSummaryFromTrims(car *model.Car, trims []model.Trim, result *MergeResult) {
	lowest, priced := model.MinTrimPrice(trims)
	grades := model.GradesFromTrims(trims)
	if priced && car.StartPrice != lowest {
		car.StartPrice = lowest
		result.add(ChangePrice)
	}
	if car.GradeCount != len(trims) || !slices.Equal(car.Grades, grades) {
		car.GradeCount = len(trims)
		car.Grades = grades
		result.add(ChangeTrims)
	}
}

func (m *Merger) mergeColors(detail *model.CarDetail, raw []model.RawColor, result *MergeResult) {
	prev := map[string]model.ColorImage{}
	for _, c := range detail.ColorImages {
		prev[c.Name] = c
	}

	colors := make([]model.ColorImage, 0, len(raw))
	for i, r := range raw {
		c := model.ColorImage{
			ID:       fmt.Sprintf("color_%d", i+1),
			Name:     r.Name,
			ImageURL: r.ImageURL,
			Hex:      r.Hex,
		}
		if old, ok := prev[r.Name]; ok {
			c.Price = old.Price
			if old.Hex != c.Hex {
				result.add(ChangeHex)
			}
			if old.ImageURL != c.ImageURL {
				result.add(ChangeImage)
			}
		}
		if r.Paid && c.Price == 0 {
			result.UnpricedPaidColors = append(result.UnpricedPaidColors, r.Name)
		}
		colors = append(colors, c)
	}

	if !slices.Equal(colors, detail.ColorImages) {
		detail.ColorImages = colors
		result.add(ChangeColors)
	}
}

// repathColorsは、既存の色画像URLのラインナップ部分を付け替えます。
func (m *Merger) repathColors(carID string, detail *model.CarDetail, lineupID string, result *MergeResult) {
	for i, c := range detail.ColorImages {
		code := "1"
		if match := colorImagePathPattern.FindStringSubmatch(c.ImageURL); match != nil {
			code = match[1]
		}
		url := fmt.Sprintf("%s/%s/%s/color_%s_360.png", m.imageBaseURL, carID, lineupID, code)
		if url != c.ImageURL {
			detail.ColorImages[i].ImageURL = url
			result.add(ChangeImage)
		}
	}
}

// LineupIDFromDetailは、既存の画像URLからラインナップIDを取り出します。
func LineupIDFromDetail(detail *model.CarDetail) string {
	if detail == nil {
		return ""
	}
	urls := []string{detail.ImageURL}
	for _, c := range detail.ColorImages {
		urls = append(urls, c.ImageURL)
	}
	for _, u := range urls {
		if m := lineupSegmentPattern.FindStringSubmatch(u); m != nil {
			return m[1]
		}
	}
	return ""
}

// buildOptionsは、抽出したオプションから選択オプションを作ります。説明が取れなかった場合は既存の説明を残します。
func buildOptions(raw []model.RawOption, existing []model.Option) []model.Option {
	descriptions := map[string]string{}
	for _, o := range existing {
		descriptions[o.Name] = o.Description
	}
	options := make([]model.Option, 0, len(raw))
	for i, r := range raw {
		desc := r.Description
		if desc == "" {
			desc = descriptions[r.Name]
		}
		options = append(options, model.Option{
			ID:          fmt.Sprintf("opt_%d", i),
			Name:        r.Name,
			Price:       r.Price,
			Description: desc,
		})
	}
	return options
}
