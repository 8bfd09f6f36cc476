package services

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCalculator(t *testing.T, csv string, cutoff float64) *NutritionCalculator {
	t.Helper()
	aliases := NewAliasResolver(DefaultAliases())
	catalog := NewCatalogService(writeTempCatalog(t, csv), aliases)
	return NewNutritionCalculator(
		catalog,
		NewMatchEngine(aliases, cutoff),
		NewCompositeExpander(aliases, DefaultCompositeRecipes()),
		NewGarnishPolicy(aliases, 5),
	)
}

func TestCalcSingleExactItem(t *testing.T) {
	csv := `name,canonical,kcal,protein_g,fat_g,carb_g
雞肉,chicken,165,31,3.6,0
`
	calc := newTestCalculator(t, csv, 0.82)

	items, totals, err := calc.Calc([]DetectedItem{
		{Canonical: "chicken", WeightG: 150},
	}, false)
	require.NoError(t, err)
	require.Len(t, items, 1)

	it := items[0]
	assert.True(t, it.Matched)
	assert.Equal(t, TierExact, it.MatchTier)
	assert.Equal(t, "雞肉", it.Label)
	assert.Equal(t, 247.5, it.Kcal)
	assert.Equal(t, 46.5, it.ProteinG)
	assert.Equal(t, 5.4, it.FatG)
	assert.Equal(t, 0.0, it.CarbG)

	assert.Equal(t, MacroTotals{Kcal: 247.5, ProteinG: 46.5, FatG: 5.4, CarbG: 0}, totals)
}

func TestCalcIsDeterministic(t *testing.T) {
	calc := newTestCalculator(t, basicCatalogCSV, 0.82)
	in := []DetectedItem{
		{Name: "chicken", WeightG: 120},
		{Name: "白飯", WeightG: 210, IsGarnish: false},
		{Name: "parsley", WeightG: 2, IsGarnish: true},
		{Name: "mystery blob", WeightG: 50},
	}

	items1, totals1, err := calc.Calc(in, false)
	require.NoError(t, err)
	items2, totals2, err := calc.Calc(in, false)
	require.NoError(t, err)

	assert.Equal(t, items1, items2)
	assert.Equal(t, totals1, totals2)
}

func TestCalcNegativeWeightClamped(t *testing.T) {
	calc := newTestCalculator(t, basicCatalogCSV, 0.82)

	items, totals, err := calc.Calc([]DetectedItem{
		{Canonical: "chicken", WeightG: -80},
		{Canonical: "chicken", WeightG: math.NaN()},
	}, false)
	require.NoError(t, err)
	require.Len(t, items, 2)

	for _, it := range items {
		assert.True(t, it.Matched) // the match still happens, at weight 0
		assert.Equal(t, 0.0, it.WeightG)
		assert.Equal(t, 0.0, it.Kcal)
	}
	assert.Equal(t, MacroTotals{}, totals)
}

func TestCalcUnmatchedItemIsAbsorbed(t *testing.T) {
	calc := newTestCalculator(t, basicCatalogCSV, 0.82)

	items, totals, err := calc.Calc([]DetectedItem{
		{Name: "xylophone", WeightG: 100},
		{Canonical: "chicken", WeightG: 100},
	}, false)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.False(t, items[0].Matched)
	assert.Equal(t, TierNone, items[0].MatchTier)
	assert.Equal(t, 0.0, items[0].Kcal)
	assert.Equal(t, "xylophone", items[0].Label)

	assert.True(t, items[1].Matched)
	assert.Equal(t, 165.0, totals.Kcal)
}

func TestCalcGarnishOverride(t *testing.T) {
	calc := newTestCalculator(t, basicCatalogCSV, 0.82)

	// 3 g garnish with the flag off: excluded outright
	items, totals, err := calc.Calc([]DetectedItem{
		{Name: "carrot stick", Canonical: "scallion", WeightG: 3, IsGarnish: true},
		{Canonical: "chicken", WeightG: 100},
		{Canonical: "chicken", WeightG: 100},
		{Canonical: "chicken", WeightG: 100},
	}, false)
	require.NoError(t, err)
	assert.False(t, items[0].Matched)
	assert.Equal(t, TierNone, items[0].MatchTier)
	assert.Equal(t, 0.0, items[0].Kcal)
	assert.Equal(t, 495.0, totals.Kcal)

	// 10 g garnish beats the 5 g threshold: full macros
	items, totals, err = calc.Calc([]DetectedItem{
		{Canonical: "scallion", WeightG: 10, IsGarnish: true},
		{Canonical: "chicken", WeightG: 100},
		{Canonical: "chicken", WeightG: 100},
		{Canonical: "chicken", WeightG: 100},
	}, false)
	require.NoError(t, err)
	assert.True(t, items[0].Matched)
	assert.Equal(t, 3.2, items[0].Kcal)
	assert.InDelta(t, 498.2, totals.Kcal, 1e-9)

	// include_garnish=true admits even the tiny one
	items, _, err = calc.Calc([]DetectedItem{
		{Canonical: "scallion", WeightG: 3, IsGarnish: true},
		{Canonical: "chicken", WeightG: 100},
		{Canonical: "chicken", WeightG: 100},
		{Canonical: "chicken", WeightG: 100},
	}, true)
	require.NoError(t, err)
	assert.True(t, items[0].Matched)
}

func TestCalcCompositeExpansion(t *testing.T) {
	calc := newTestCalculator(t, basicCatalogCSV+"雞蛋,egg,155,13,11,1.1\n高湯,dashi,5,0.6,0,0.5\n醬油,soy sauce,53,8,0.6,4.9\n", 0.82)

	items, totals, err := calc.Calc([]DetectedItem{
		{Name: "玉子燒", Canonical: "tamagoyaki", WeightG: 60},
	}, false)
	require.NoError(t, err)
	require.Len(t, items, 3, "output grows, never shrinks")

	weight := 0.0
	for _, it := range items {
		assert.True(t, it.Matched, "sub-item %s", it.Canonical)
		assert.Equal(t, TierExact, it.MatchTier)
		weight += it.WeightG
	}
	assert.LessOrEqual(t, weight, 60.0)
	assert.Greater(t, totals.Kcal, 0.0)
}

func TestCalcTotalsAreSumOfRoundedItems(t *testing.T) {
	csv := `name,canonical,kcal,protein_g,fat_g,carb_g
a,aaaa,33.3,1.11,2.22,3.33
b,bbbb,66.6,4.44,5.55,6.66
`
	calc := newTestCalculator(t, csv, 0.82)

	items, totals, err := calc.Calc([]DetectedItem{
		{Canonical: "aaaa", WeightG: 77},
		{Canonical: "bbbb", WeightG: 41},
	}, false)
	require.NoError(t, err)
	require.Len(t, items, 2)

	var wantKcal, wantProt, wantFat, wantCarb float64
	for _, it := range items {
		// every per-item value is already one-decimal
		assert.Equal(t, it.Kcal, math.Round(it.Kcal*10)/10)
		wantKcal += it.Kcal
		wantProt += it.ProteinG
		wantFat += it.FatG
		wantCarb += it.CarbG
	}
	assert.InDelta(t, wantKcal, totals.Kcal, 1e-9)
	assert.InDelta(t, wantProt, totals.ProteinG, 1e-9)
	assert.InDelta(t, wantFat, totals.FatG, 1e-9)
	assert.InDelta(t, wantCarb, totals.CarbG, 1e-9)
}

func TestCalcEmptyAndNilInput(t *testing.T) {
	calc := newTestCalculator(t, basicCatalogCSV, 0.82)

	items, totals, err := calc.Calc(nil, false)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, MacroTotals{}, totals)
}

func TestCalcMissingCatalogFails(t *testing.T) {
	aliases := NewAliasResolver(nil)
	catalog := NewCatalogService(filepath.Join(t.TempDir(), "nope.csv"), aliases)
	calc := NewNutritionCalculator(
		catalog,
		NewMatchEngine(aliases, 0.82),
		NewCompositeExpander(aliases, DefaultCompositeRecipes()),
		NewGarnishPolicy(aliases, 5),
	)

	_, _, err := calc.Calc([]DetectedItem{{Name: "rice", WeightG: 100}}, false)
	require.Error(t, err)

	var loadErr *CatalogLoadError
	assert.ErrorAs(t, err, &loadErr)
}
