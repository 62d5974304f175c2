package model

// FuelVariantは、車種のトリムを燃料種別で分割したビューです(Car → [FuelVariant → Trims])。
// サマリーのfuelTypeを1つに決め打ちせず、複数燃料の車種をそのまま表現するために使います。
type FuelVariant struct {
	FuelType  FuelType `json:"fuelType"`
	SubModels []string `json:"subModels"`
	Trims     []Trim   `json:"trims"`
}

// BuildFuelVariantsは、サブモデル定義から燃料種別ごとのバリアントを組み立てます。
// サブモデルがトリムを持たず燃料種別が1つだけの場合は、詳細のトリムをそのバリアントに割り当てます。
// 燃料種別の並びはサブモデルの出現順です。
func BuildFuelVariants(entry *SubModelEntry, detail *CarDetail) []FuelVariant {
	if entry == nil || len(entry.SubModels) == 0 {
		return nil
	}

	var variants []FuelVariant
	index := map[FuelType]int{}
	for _, sm := range entry.SubModels {
		i, ok := index[sm.FuelType]
		if !ok {
			variants = append(variants, FuelVariant{FuelType: sm.FuelType, Trims: []Trim{}})
			i = len(variants) - 1
			index[sm.FuelType] = i
		}
		variants[i].SubModels = append(variants[i].SubModels, sm.Name)
		variants[i].Trims = append(variants[i].Trims, sm.Trims...)
	}

	if len(variants) == 1 && len(variants[0].Trims) == 0 && detail != nil {
		variants[0].Trims = append(variants[0].Trims, detail.Trims...)
	}
	return variants
}

// DistinctFuelTypesは、サブモデルに現れる燃料種別を出現順で返します。
func (e *SubModelEntry) DistinctFuelTypes() []FuelType {
	if e == nil {
		return nil
	}
	seen := map[FuelType]bool{}
	var types []FuelType
	for _, sm := range e.SubModels {
		if sm.FuelType == "" || seen[sm.FuelType] {
			continue
		}
		seen[sm.FuelType] = true
		types = append(types, sm.FuelType)
	}
	return types
}
