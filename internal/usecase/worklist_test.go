package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/nrad-K/car-catalog/internal/infra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDs(t *testing.T) {
	assert.Equal(t, []WorklistEntry{{CarID: "4435"}, {CarID: "4660"}}, ParseIDs(" 4435, ,4660 "))
	assert.Empty(t, ParseIDs(""))
}

func TestParseWorklist(t *testing.T) {
	input := `# 追加する車種
4435

4660, hyundai
  5001,genesis
`
	entries, err := ParseWorklist(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []WorklistEntry{
		{CarID: "4435"},
		{CarID: "4660", BrandID: "hyundai"},
		{CarID: "5001", BrandID: "genesis"},
	}, entries)

	_, err = ParseWorklist(strings.NewReader("4435,hyundai,extra\n"))
	assert.ErrorContains(t, err, "1行目")

	_, err = ParseWorklist(strings.NewReader("4435\n,kia\n"))
	assert.ErrorContains(t, err, "2行目")
}

func TestFormatWorklist(t *testing.T) {
	entries := []WorklistEntry{{CarID: "4516", BrandID: "benz"}, {CarID: "4435"}}
	data := FormatWorklist("E-클래스\n2件", entries)
	assert.Equal(t, "# E-클래스\n# 2件\n4516,benz\n4435\n", string(data))

	parsed, err := ParseWorklist(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, entries, parsed)
}

func TestMissingCategoryIDs(t *testing.T) {
	catalog := testCatalog()
	delete(catalog.Details, "2")

	ids, err := MissingCategoryIDs(catalog, model.CategoryColors)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids)

	ids, err = MissingCategoryIDs(catalog, model.CategoryTrims)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids)

	_, err = MissingCategoryIDs(catalog, "features")
	assert.Error(t, err)
}

func TestResolveWorklist(t *testing.T) {
	ctx := context.Background()
	catalog := testCatalog()
	outcomes := infra.NewReportOutcomeStore("")
	require.NoError(t, outcomes.Save(ctx, model.VehicleOutcome{CarID: "3", Status: model.OutcomeFailed}))

	entries, err := resolveWorklist(ctx, catalog, outcomes, WorklistSelector{
		Entries:     []WorklistEntry{{CarID: "9001", BrandID: "kia"}, {CarID: "1"}},
		Missing:     model.CategoryColors,
		RetryFailed: true,
	})
	require.NoError(t, err)
	assert.Equal(t, []WorklistEntry{
		{CarID: "9001", BrandID: "kia"},
		{CarID: "1"},
		{CarID: "2"},
		{CarID: "3"},
	}, entries)

	_, err = resolveWorklist(ctx, catalog, nil, WorklistSelector{RetryFailed: true})
	assert.Error(t, err)
}

func TestResolveWorklist_DuplicateKeepsFirstBrand(t *testing.T) {
	entries, err := resolveWorklist(context.Background(), testCatalog(), nil, WorklistSelector{
		Entries: []WorklistEntry{
			{CarID: "9001"},
			{CarID: "1"},
			{CarID: "9001", BrandID: "hyundai"},
			{CarID: "9001", BrandID: "kia"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []WorklistEntry{
		{CarID: "9001", BrandID: "hyundai"},
		{CarID: "1"},
	}, entries)
}
