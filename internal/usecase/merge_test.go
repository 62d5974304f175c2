package usecase

import (
	"testing"

	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testImageBaseURL = "https://autoimg.danawa.com/photo"

func TestMerge_TrimsUpdateSummary(t *testing.T) {
	catalog := testCatalog()
	merger := NewMerger(testImageBaseURL)

	result, err := merger.Merge(catalog, model.ScrapeRecord{
		CarID: "1",
		Trims: []model.RawTrim{
			{Name: "SA", Price: 29_000_000},
			{Name: "SB", Price: 35_000_000, PriceCandidates: []int64{33_000_000, 35_000_000}},
			{Name: "SC", Price: 40_000_000},
		},
	}, "")
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{ChangeTrims, ChangePrice}, result.Changes)
	assert.Equal(t, []model.PriceAudit{{Trim: "SB", Candidates: []int64{33_000_000, 35_000_000}, Chosen: 35_000_000}}, result.PriceAudit)

	car, _ := catalog.FindCarByID("1")
	detail, _ := catalog.FindDetailByID("1")
	assert.Equal(t, int64(29_000_000), car.StartPrice)
	assert.Equal(t, 3, car.GradeCount)
	assert.Len(t, car.Grades, 3)
	assert.Len(t, detail.Trims, 3)
	assert.Equal(t, "grade_2", detail.Trims[2].ID)
	assert.NotNil(t, detail.Trims[2].Features)
}

func TestMerge_EmptyRecordKeepsStoredData(t *testing.T) {
	catalog := testCatalog()
	before := catalog.Clone()

	result, err := NewMerger(testImageBaseURL).Merge(catalog, model.ScrapeRecord{CarID: "3"}, "")
	require.NoError(t, err)

	assert.False(t, result.Changed())
	after, _ := catalog.FindDetailByID("3")
	want, _ := before.FindDetailByID("3")
	assert.Equal(t, want, after)
}

func TestMerge_ColorsKeepPriceByName(t *testing.T) {
	catalog := testCatalog()

	result, err := NewMerger(testImageBaseURL).Merge(catalog, model.ScrapeRecord{
		CarID: "3",
		Colors: []model.RawColor{
			{Code: "1", Name: "스노우 화이트 펄", Hex: "#ffffff", ImageURL: "https://autoimg.danawa.com/photo/3/40001/color_1_360.png"},
			{Code: "5", Name: "오로라 블랙 펄(유료)", Hex: "#000000", ImageURL: "https://autoimg.danawa.com/photo/3/40001/color_5_360.png", Paid: true},
		},
	}, "")
	require.NoError(t, err)

	detail, _ := catalog.FindDetailByID("3")
	require.Len(t, detail.ColorImages, 2)
	assert.Equal(t, int64(80_000), detail.ColorImages[0].Price)
	assert.Equal(t, "color_2", detail.ColorImages[1].ID)
	assert.Zero(t, detail.ColorImages[1].Price)
	assert.Equal(t, []string{"오로라 블랙 펄(유료)"}, result.UnpricedPaidColors)
	assert.Contains(t, result.Changes, ChangeColors)
	assert.NotContains(t, result.Changes, ChangeHex)
}

func TestMerge_RepathColorsWhenLineupKnown(t *testing.T) {
	catalog := testCatalog()

	result, err := NewMerger(testImageBaseURL).Merge(catalog, model.ScrapeRecord{CarID: "3", LineupID: "40002"}, "")
	require.NoError(t, err)

	detail, _ := catalog.FindDetailByID("3")
	assert.Equal(t, "https://autoimg.danawa.com/photo/3/40002/color_1_360.png", detail.ColorImages[0].ImageURL)
	assert.Equal(t, int64(80_000), detail.ColorImages[0].Price)
	assert.Equal(t, []string{ChangeImage}, result.Changes)
}

func TestMerge_OptionsKeepDescription(t *testing.T) {
	catalog := testCatalog()
	detail, _ := catalog.FindDetailByID("2")
	detail.SelectableOptions = []model.Option{{ID: "opt_0", Name: "선루프", Price: 450_000, Description: "전동식 틸팅&슬라이딩"}}

	result, err := NewMerger(testImageBaseURL).Merge(catalog, model.ScrapeRecord{
		CarID: "2",
		Options: []model.RawOption{
			{Name: "선루프", Price: 500_000},
			{Name: "하이패스", Price: 200_000, Description: "ETCS"},
		},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{ChangeOptions}, result.Changes)
	assert.Equal(t, []model.Option{
		{ID: "opt_0", Name: "선루프", Price: 500_000, Description: "전동식 틸팅&슬라이딩"},
		{ID: "opt_1", Name: "하이패스", Price: 200_000, Description: "ETCS"},
	}, detail.SelectableOptions)
}

func TestMerge_NewCar(t *testing.T) {
	record := model.ScrapeRecord{
		CarID:     "5001",
		ModelName: "G80",
		ImageURL:  "https://autoimg.danawa.com/photo/5001/60001/lineup_360.png",
		Trims:     []model.RawTrim{{Name: "2.5T", Price: 57_950_000}},
		Sections: []model.TrimSection{
			{Title: "2025년형 가솔린 2.5 터보", Year: 2025, FuelType: model.FuelGasoline, Trims: []model.RawTrim{{Name: "2.5T", Price: 57_950_000}}},
		},
	}

	t.Run("brand required", func(t *testing.T) {
		catalog := testCatalog()
		_, err := NewMerger(testImageBaseURL).Merge(catalog, record, "")
		require.ErrorIs(t, err, ErrUnknownBrand)
		_, ok := catalog.FindCarByID("5001")
		assert.False(t, ok)
	})

	t.Run("brand added from built-in names", func(t *testing.T) {
		catalog := testCatalog()
		result, err := NewMerger(testImageBaseURL).Merge(catalog, record, "genesis")
		require.NoError(t, err)
		assert.Contains(t, result.Changes, ChangeNew)

		brand, ok := catalog.FindBrandByID("genesis")
		require.True(t, ok)
		assert.Equal(t, "제네시스", brand.Name)
		assert.Equal(t, 1, brand.CarCount)

		car, ok := catalog.FindCarByID("5001")
		require.True(t, ok)
		assert.Equal(t, "G80", car.Name)
		assert.Equal(t, model.FuelGasoline, car.FuelType)
		assert.Equal(t, int64(57_950_000), car.StartPrice)
		assert.Equal(t, record.ImageURL, car.ImageURL)

		detail, ok := catalog.FindDetailByID("5001")
		require.True(t, ok)
		assert.Equal(t, "제네시스", detail.Brand)
		assert.NotNil(t, detail.ColorImages)

		entry, ok := catalog.FindSubModelByID("5001")
		require.True(t, ok)
		require.Len(t, entry.SubModels, 1)
		assert.Equal(t, "sub_0", entry.SubModels[0].ID)
		assert.True(t, entry.SubModels[0].IsDefault)
		assert.Len(t, entry.SubModels[0].Trims, 1)
	})
}

func TestMerge_SectionsReplaceFlatTrims(t *testing.T) {
	catalog := testCatalog()

	result, err := NewMerger(testImageBaseURL).Merge(catalog, model.ScrapeRecord{
		CarID: "1",
		Trims: []model.RawTrim{{Name: "택시 스탠다드", Price: 25_000_000}},
		Sections: []model.TrimSection{
			{Title: "2025년형 가솔린 2.0", Year: 2025, FuelType: model.FuelGasoline, Trims: []model.RawTrim{
				{Name: "SA", Price: 30_000_000},
				{Name: "SB", Price: 35_000_000},
			}},
		},
	}, "")
	require.NoError(t, err)

	detail, _ := catalog.FindDetailByID("1")
	assert.Equal(t, []string{"SA", "SB"}, []string{detail.Trims[0].Name, detail.Trims[1].Name})
	assert.Equal(t, []string{ChangeSubModels}, result.Changes)

	entry, _ := catalog.FindSubModelByID("1")
	assert.Len(t, entry.SubModels[0].Trims, 2)
}

func TestLineupIDFromDetail(t *testing.T) {
	catalog := testCatalog()
	detail, _ := catalog.FindDetailByID("3")
	assert.Equal(t, "40001", LineupIDFromDetail(detail))

	detail, _ = catalog.FindDetailByID("1")
	assert.Empty(t, LineupIDFromDetail(detail))
	assert.Empty(t, LineupIDFromDetail(nil))
}
