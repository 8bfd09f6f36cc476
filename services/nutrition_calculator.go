package services

import (
	"math"
	"strings"
)

// DetectedItem is one entry of the vision model's output, already coerced
// into a fixed shape. Never trust its values: weight may be junk, flags may
// be wrong, names may be any language.
type DetectedItem struct {
	Name      string  `json:"name"`
	Canonical string  `json:"canonical"`
	WeightG   float64 `json:"weight_g"`
	IsGarnish bool    `json:"is_garnish"`
}

// ResolvedItem is a DetectedItem after matching and scaling. Macros are for
// the item's weight (not per 100 g) and already rounded to one decimal.
type ResolvedItem struct {
	Name      string  `json:"name"`
	Canonical string  `json:"canonical"`
	WeightG   float64 `json:"weight_g"`
	IsGarnish bool    `json:"is_garnish"`

	Label     string    `json:"label"`
	Matched   bool      `json:"matched"`
	MatchTier MatchTier `json:"match_tier"`

	Kcal     float64 `json:"kcal"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	CarbG    float64 `json:"carb_g"`
}

type MacroTotals struct {
	Kcal     float64 `json:"kcal"`
	ProteinG float64 `json:"protein_g"`
	FatG     float64 `json:"fat_g"`
	CarbG    float64 `json:"carb_g"`
}

// NutritionCalculator is the request-scoped pipeline: expand composites,
// correct small plates, match, apply the garnish policy, scale, total.
type NutritionCalculator struct {
	catalog  *CatalogService
	matcher  *MatchEngine
	expander *CompositeExpander
	garnish  *GarnishPolicy
}

func NewNutritionCalculator(catalog *CatalogService, matcher *MatchEngine, expander *CompositeExpander, garnish *GarnishPolicy) *NutritionCalculator {
	return &NutritionCalculator{
		catalog:  catalog,
		matcher:  matcher,
		expander: expander,
		garnish:  garnish,
	}
}

// Calc resolves every detected item and aggregates totals. The only possible
// error is a missing catalog; bad per-item data surfaces as matched=false
// with zero macros, never as a failure. Totals are the sum of the already
// rounded per-item values; summing unrounded values instead would shift the
// observable numbers by up to 0.1 per macro.
func (s *NutritionCalculator) Calc(items []DetectedItem, includeGarnish bool) ([]ResolvedItem, MacroTotals, error) {
	cat, err := s.catalog.Current()
	if err != nil {
		return nil, MacroTotals{}, err
	}

	expanded := make([]DetectedItem, 0, len(items))
	for _, it := range items {
		expanded = append(expanded, s.expander.Expand(sanitizeItem(it))...)
	}
	expanded = s.garnish.CorrectSmallPlate(expanded)

	resolved := make([]ResolvedItem, 0, len(expanded))
	var totals MacroTotals
	for _, it := range expanded {
		out := ResolvedItem{
			Name:      it.Name,
			Canonical: it.Canonical,
			WeightG:   it.WeightG,
			IsGarnish: it.IsGarnish,
			MatchTier: TierNone,
			Label:     displayLabel(it, nil),
		}

		if !s.garnish.Include(it, includeGarnish) {
			resolved = append(resolved, out)
			continue
		}

		m := s.matcher.Resolve(it.Name, it.Canonical, cat)
		if m.Record != nil {
			ratio := it.WeightG / 100
			out.Kcal = round1(m.Record.Kcal * ratio)
			out.ProteinG = round1(m.Record.ProteinG * ratio)
			out.FatG = round1(m.Record.FatG * ratio)
			out.CarbG = round1(m.Record.CarbG * ratio)
			out.Matched = true
			out.MatchTier = m.Tier
			if m.Record.Canonical != "" {
				out.Canonical = m.Record.Canonical
			}
			out.Label = displayLabel(it, m.Record)
		}

		resolved = append(resolved, out)
		totals.Kcal += out.Kcal
		totals.ProteinG += out.ProteinG
		totals.FatG += out.FatG
		totals.CarbG += out.CarbG
	}

	// strip float noise from summing one-decimal values; the inputs to the
	// sum are already rounded so this never moves a total
	totals.Kcal = round1(totals.Kcal)
	totals.ProteinG = round1(totals.ProteinG)
	totals.FatG = round1(totals.FatG)
	totals.CarbG = round1(totals.CarbG)

	return resolved, totals, nil
}

// sanitizeItem coerces one vision tuple to safe values: trimmed strings and
// a finite, non-negative weight.
func sanitizeItem(it DetectedItem) DetectedItem {
	it.Name = strings.TrimSpace(it.Name)
	it.Canonical = strings.TrimSpace(it.Canonical)
	if math.IsNaN(it.WeightG) || math.IsInf(it.WeightG, 0) || it.WeightG < 0 {
		it.WeightG = 0
	}
	return it
}

// displayLabel prefers the catalog's display name so the UI shows 中文 even
// when the vision model answered in English.
func displayLabel(it DetectedItem, rec *FoodRecord) string {
	if rec != nil && rec.Name != "" {
		return rec.Name
	}
	if it.Name != "" {
		return it.Name
	}
	return it.Canonical
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
