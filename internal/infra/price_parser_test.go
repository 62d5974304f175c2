package infra

import (
	"testing"

	"github.com/nrad-K/car-catalog/internal/domain/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want int64
	}{
		{name: "만 only", in: "7,650만 원", want: 76_500_000},
		{name: "억 and 만", in: "1억 1,460만 원", want: 114_600_000},
		{name: "억 and round 만", in: "2억 3,000만 원", want: 230_000_000},
		{name: "억 only", in: "1억 원", want: 100_000_000},
		{name: "no spaces", in: "1억1,460만원", want: 114_600_000},
		{name: "fullwidth digits", in: "７,６５０만 원", want: 76_500_000},
		{name: "empty", in: "", want: 0},
		{name: "unit without digits", in: "만 원", want: 0},
		{name: "plain number", in: "76500000", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePrice(tt.in))
		})
	}
}

func TestPriceCandidates(t *testing.T) {
	got := PriceCandidates("할인가 1,000만 원 정가 1억 1,530만 원")
	assert.Equal(t, []int64{10_000_000, 115_300_000}, got)

	assert.Empty(t, PriceCandidates("가격 미정"))
}

func TestCanonicalPrice(t *testing.T) {
	candidates := []int64{10_000_000, 115_300_000, 90_000_000}

	assert.Equal(t, int64(115_300_000), CanonicalPrice(candidates, model.PricePolicyMax))
	assert.Equal(t, int64(90_000_000), CanonicalPrice(candidates, model.PricePolicyLast))
	assert.Equal(t, int64(0), CanonicalPrice(nil, model.PricePolicyMax))
}

func TestParseTrimText(t *testing.T) {
	t.Run("doubled label and price suffix", func(t *testing.T) {
		trim, ok := ParseTrimText("E200 Avantgarde A/T E200 Avantgarde A/T7,650만 원", model.PricePolicyMax)
		require.True(t, ok)
		assert.Equal(t, "E200 Avantgarde A/T", trim.Name)
		assert.Equal(t, int64(76_500_000), trim.Price)
	})

	t.Run("discounted and list price picks max", func(t *testing.T) {
		trim, ok := ParseTrimText("S580 4MATIC 1,000만 원 1억 1,530만 원", model.PricePolicyMax)
		require.True(t, ok)
		assert.Equal(t, "S580 4MATIC", trim.Name)
		assert.Equal(t, int64(115_300_000), trim.Price)
		assert.Equal(t, []int64{10_000_000, 115_300_000}, trim.PriceCandidates)
	})

	t.Run("rank badge and leading dash are removed", func(t *testing.T) {
		trim, ok := ParseTrimText("TOP 1 선택률: 42%\n  - 2.5 터보 프레스티지\n\t4,383만 원", model.PricePolicyMax)
		require.True(t, ok)
		assert.Equal(t, "2.5 터보 프레스티지", trim.Name)
		assert.Equal(t, int64(43_830_000), trim.Price)
	})

	t.Run("last policy", func(t *testing.T) {
		trim, ok := ParseTrimText("Long Range 6,000만 원 5,500만 원", model.PricePolicyLast)
		require.True(t, ok)
		assert.Equal(t, int64(55_000_000), trim.Price)
	})

	t.Run("no price", func(t *testing.T) {
		_, ok := ParseTrimText("Prestige", model.PricePolicyMax)
		assert.False(t, ok)
	})

	t.Run("no name", func(t *testing.T) {
		_, ok := ParseTrimText("7,650만 원", model.PricePolicyMax)
		assert.False(t, ok)
	})
}
