package reconcile

import (
	"testing"

	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectFuelIndicator(t *testing.T) {
	tests := []struct {
		grade string
		want  model.FuelType
	}{
		{"EQE 350+", model.FuelElectric},
		{"e-tron 55 quattro", model.FuelElectric},
		{"530e M Sport", model.FuelHybrid},
		{"1.6 T-GDi HEV 프레스티지", model.FuelHybrid},
		{"320d M Sport", model.FuelDiesel},
		{"E300 4MATIC AMG Line", model.FuelGasoline},
		{"2.5 T-GDi 시그니처", model.FuelGasoline},
		{"Chevrolet Trax 액티브", ""},
		{"2.0 LPi 스마트", ""},
		{"프레스티지", ""},
	}
	for _, tt := range tests {
		t.Run(tt.grade, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFuelIndicator(tt.grade))
		})
	}
}

func TestCompatibleFuel(t *testing.T) {
	assert.True(t, compatibleFuel(model.FuelHybrid, model.FuelGasoline))
	assert.True(t, compatibleFuel(model.FuelDiesel, model.FuelDiesel))
	assert.False(t, compatibleFuel(model.FuelGasoline, model.FuelHybrid))
	assert.False(t, compatibleFuel(model.FuelElectric, model.FuelGasoline))
}

func TestFuelTypes(t *testing.T) {
	doc := model.CarsDocument{Cars: []model.Car{
		{ID: "1", Name: "K5", FuelType: model.FuelDiesel},
		{ID: "2", Name: "3시리즈"},
		{ID: "3", Name: "5시리즈", FuelType: model.FuelGasoline},
		{ID: "4", Name: "그랜저"},
		{ID: "5", Name: "쏘렌토", FuelType: model.FuelHybrid},
	}}
	details := map[string]*model.CarDetail{
		"1": {Trims: []model.Trim{{Name: "2.0 프레스티지"}}},
		"2": {Trims: []model.Trim{{Name: "320i M Sport"}, {Name: "320d M Sport"}}},
		"3": {Trims: []model.Trim{{Name: "520i"}, {Name: "530e M Sport"}}},
		"4": {Trims: []model.Trim{{Name: "2.5 프리미엄"}, {Name: "1.6T HEV 프리미엄"}}},
		"5": {Trims: []model.Trim{{Name: "1.6 T-GDi HEV 노블레스"}}},
	}
	subModels := map[string]*model.SubModelEntry{
		"1": {SubModels: []model.SubModel{{ID: "sub_0", Name: "가솔린", FuelType: model.FuelGasoline}}},
		"4": {SubModels: []model.SubModel{
			{ID: "sub_0", Name: "가솔린 2.5", FuelType: model.FuelGasoline},
			{ID: "sub_1", Name: "하이브리드 1.6", FuelType: model.FuelHybrid},
		}},
	}
	catalog := model.NewCatalog(doc, details, subModels)
	before := catalog.Clone()

	findings := checkFuelTypes(catalog, ModeFix)

	summary := issuesOf(findings, PassFuelType, "summary-vs-sub-model")
	require.Len(t, summary, 1)
	assert.Equal(t, "1", summary[0].CarID)
	assert.Equal(t, model.SeverityCritical, summary[0].Severity)

	mixed := issuesOf(findings, PassFuelType, "mixed-indicators")
	require.Len(t, mixed, 2)
	assert.Equal(t, "2", mixed[0].CarID)
	assert.Equal(t, "3", mixed[1].CarID)

	declared := issuesOf(findings, PassFuelType, "grade-vs-declared")
	require.Len(t, declared, 1)
	assert.Equal(t, "3", declared[0].CarID)
	assert.Equal(t, "530e M Sport", declared[0].Detail.(FuelTypeDetail).Grade)

	multi := issuesOf(findings, PassFuelType, "multi-fuel-unpartitioned")
	require.Len(t, multi, 1)
	assert.Equal(t, "4", multi[0].CarID)
	assert.Equal(t, model.SeverityInfo, multi[0].Severity)
	variants := multi[0].Detail.(FuelTypeDetail).Variants
	require.Len(t, variants, 2)
	assert.Equal(t, model.FuelGasoline, variants[0].FuelType)
	assert.Equal(t, model.FuelHybrid, variants[1].FuelType)

	assert.Len(t, findings.Issues, 5)

	// 燃料種別は推測で修正しない
	assert.Empty(t, findings.Repairs)
	assert.Equal(t, before, catalog)
}

func TestFuelTypes_MissingSummaryFuel(t *testing.T) {
	doc := model.CarsDocument{Cars: []model.Car{
		{ID: "1", Name: "포터"},
		{ID: "2", Name: "스타리아"},
	}}
	subModels := map[string]*model.SubModelEntry{
		"1": {SubModels: []model.SubModel{{ID: "sub_0", Name: "디젤", FuelType: model.FuelDiesel}}},
		"2": {SubModels: []model.SubModel{
			{ID: "sub_0", Name: "디젤 2.2", FuelType: model.FuelDiesel},
			{ID: "sub_1", Name: "LPG 3.5", FuelType: model.FuelLPG},
		}},
	}
	catalog := model.NewCatalog(doc, nil, subModels)
	before := catalog.Clone()

	findings := checkFuelTypes(catalog, ModeFix)

	missing := issuesOf(findings, PassFuelType, "missing-summary-fuel")
	require.Len(t, missing, 1)
	assert.Equal(t, "1", missing[0].CarID)
	assert.Equal(t, model.SeverityCritical, missing[0].Severity)
	assert.Equal(t, []model.FuelType{model.FuelDiesel}, missing[0].Detail.(FuelTypeDetail).SubModels)
	assert.Empty(t, issuesOf(findings, PassFuelType, "summary-vs-sub-model"))

	// 空の燃料種別も推測で埋めない
	assert.Empty(t, findings.Repairs)
	assert.Equal(t, before, catalog)
}

func TestFuelTypes_ScansSummaryGrades(t *testing.T) {
	doc := model.CarsDocument{Cars: []model.Car{
		{ID: "1", Name: "5시리즈", FuelType: model.FuelGasoline, Grades: []model.Grade{
			{Name: "520i", Price: 68_000_000},
			{Name: "530e M Sport", Price: 82_000_000},
		}},
		{ID: "2", Name: "3시리즈", FuelType: model.FuelGasoline, Grades: []model.Grade{{Name: "320i", Price: 55_000_000}}},
	}}
	details := map[string]*model.CarDetail{
		"1": {Trims: []model.Trim{{Name: "520i"}}},
		"2": {Trims: []model.Trim{{Name: "320i"}}},
	}
	catalog := model.NewCatalog(doc, details, nil)

	findings := checkFuelTypes(catalog, ModeCheck)

	declared := issuesOf(findings, PassFuelType, "grade-vs-declared")
	require.Len(t, declared, 1)
	assert.Equal(t, "1", declared[0].CarID)
	assert.Equal(t, "530e M Sport", declared[0].Detail.(FuelTypeDetail).Grade)
	require.Len(t, issuesOf(findings, PassFuelType, "mixed-indicators"), 1)
}
