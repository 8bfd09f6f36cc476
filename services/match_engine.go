package services

import (
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// MatchTier records which strategy resolved an item. The tiers are tried in
// declared order and the first hit is terminal.
type MatchTier string

const (
	TierExact    MatchTier = "exact"
	TierAlias    MatchTier = "alias"
	TierFuzzy    MatchTier = "fuzzy"
	TierFallback MatchTier = "fallback"
	TierNone     MatchTier = "none"
)

// MatchResult pairs the record with the tier that found it. Record is nil
// only for TierNone; "unmatched" is a value, not an error.
type MatchResult struct {
	Record *FoodRecord
	Tier   MatchTier
}

// MatchEngine resolves one detected label against a catalog snapshot.
// Resolution is a pure function of (candidates, catalog, alias table):
// no randomness, no shared-state mutation, identical inputs give identical
// results.
type MatchEngine struct {
	aliases  *AliasResolver
	cutoff   float64
	fallback map[string]FoodRecord
	byCat    map[string]FoodRecord
}

func NewMatchEngine(aliases *AliasResolver, cutoff float64) *MatchEngine {
	return &MatchEngine{
		aliases:  aliases,
		cutoff:   cutoff,
		fallback: DefaultFallbackTable(),
		byCat:    DefaultCategoryFallbacks(),
	}
}

// SetFallbackTable replaces the built-in defaults (the table is content,
// not architecture).
func (e *MatchEngine) SetFallbackTable(table map[string]FoodRecord) {
	normalized := make(map[string]FoodRecord, len(table))
	for k, v := range table {
		normalized[e.aliases.Normalize(k)] = v
	}
	e.fallback = normalized
}

// Resolve runs the tier ladder over the candidate keys
// [name, canonical hint, alias(canonical hint)], in that priority order.
func (e *MatchEngine) Resolve(name, canonical string, cat *Catalog) MatchResult {
	cands := e.candidates(name, canonical)
	if len(cands) == 0 {
		return MatchResult{Tier: TierNone}
	}

	// exact: normalized candidate equals a catalog search key
	for _, key := range cands {
		if rec := cat.LookupExact(key); rec != nil {
			return MatchResult{Record: rec, Tier: TierExact}
		}
	}

	// alias: translate the candidate first, then retry the exact index
	for _, key := range cands {
		hint, ok := e.aliases.Resolve(key)
		if !ok {
			continue
		}
		if rec := cat.LookupExact(e.aliases.Normalize(hint)); rec != nil {
			return MatchResult{Record: rec, Tier: TierAlias}
		}
	}

	// fuzzy: primary candidate against the whole corpus, best score wins,
	// load order breaks ties, cutoff is inclusive
	if rec := e.closest(cands[0], cat); rec != nil {
		return MatchResult{Record: rec, Tier: TierFuzzy}
	}

	// fallback: a small built-in per-100g table for common items the
	// catalog does not carry, then the ontology category defaults
	if rec := e.fallbackFor(cands); rec != nil {
		return MatchResult{Record: rec, Tier: TierFallback}
	}

	return MatchResult{Tier: TierNone}
}

// candidates builds the normalized priority list, dropping empties and
// duplicates but keeping order.
func (e *MatchEngine) candidates(name, canonical string) []string {
	raw := []string{e.aliases.Normalize(name), e.aliases.Normalize(canonical)}
	if hint, ok := e.aliases.Resolve(raw[1]); ok {
		raw = append(raw, e.aliases.Normalize(hint))
	}

	out := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for _, k := range raw {
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func (e *MatchEngine) closest(key string, cat *Catalog) *FoodRecord {
	var best *FoodRecord
	bestScore := 0.0
	for _, entry := range cat.corpus {
		score := similarity(key, entry.key)
		if score > bestScore {
			bestScore = score
			best = entry.rec
		}
	}
	if best == nil || bestScore < e.cutoff {
		return nil
	}
	return best
}

func (e *MatchEngine) fallbackFor(cands []string) *FoodRecord {
	// the canonical hint (and its alias) outrank the raw name here: the
	// fallback table is keyed by canonical vocabulary
	ordered := append([]string{}, cands...)
	if len(ordered) > 1 {
		ordered[0], ordered[1] = ordered[1], ordered[0]
	}
	for _, key := range ordered {
		if rec, ok := e.fallback[key]; ok {
			out := rec
			return &out
		}
	}
	for _, key := range ordered {
		if category, ok := e.aliases.Category(key); ok {
			if rec, ok := e.byCat[e.aliases.Normalize(category)]; ok {
				out := rec
				out.Canonical = key
				return &out
			}
		}
	}
	return nil
}

// similarity is a normalized Levenshtein ratio in [0,1] over rune length.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}

// DefaultFallbackTable covers items the vision model reports constantly but
// the shipped table may not carry, keyed by canonical hint, per 100 g.
func DefaultFallbackTable() map[string]FoodRecord {
	table := map[string]FoodRecord{
		"white rice":     {Name: "白飯", Kcal: 130, ProteinG: 2.7, FatG: 0.3, CarbG: 28},
		"egg":            {Name: "雞蛋", Kcal: 155, ProteinG: 13, FatG: 11, CarbG: 1.1},
		"chicken breast": {Name: "雞胸肉", Kcal: 165, ProteinG: 31, FatG: 3.6, CarbG: 0},
		"tofu":           {Name: "豆腐", Kcal: 76, ProteinG: 8, FatG: 4.8, CarbG: 1.9},
		"salmon":         {Name: "鮭魚", Kcal: 208, ProteinG: 20, FatG: 13, CarbG: 0},
		"noodles":        {Name: "麵", Kcal: 138, ProteinG: 4.5, FatG: 2.1, CarbG: 25},
		"soy sauce":      {Name: "醬油", Kcal: 53, ProteinG: 8, FatG: 0.6, CarbG: 4.9},
		"miso soup":      {Name: "味噌湯", Kcal: 40, ProteinG: 3, FatG: 1.2, CarbG: 5},
		"dashi":          {Name: "高湯", Kcal: 5, ProteinG: 0.6, FatG: 0, CarbG: 0.5},
	}
	out := make(map[string]FoodRecord, len(table))
	for canonical, rec := range table {
		rec.Canonical = canonical
		out[defaultNormalizer.Normalize(canonical)] = rec
	}
	return out
}

// DefaultCategoryFallbacks gives a coarse per-100g estimate when only the
// ontology category is known.
func DefaultCategoryFallbacks() map[string]FoodRecord {
	table := map[string]FoodRecord{
		"vegetable": {Name: "蔬菜", Kcal: 25, ProteinG: 1.5, FatG: 0.2, CarbG: 4},
		"fruit":     {Name: "水果", Kcal: 60, ProteinG: 0.8, FatG: 0.3, CarbG: 14},
		"meat":      {Name: "肉類", Kcal: 200, ProteinG: 20, FatG: 13, CarbG: 0},
		"seafood":   {Name: "海鮮", Kcal: 120, ProteinG: 20, FatG: 3, CarbG: 1},
		"staple":    {Name: "主食", Kcal: 150, ProteinG: 4, FatG: 1, CarbG: 30},
		"sauce":     {Name: "醬料", Kcal: 80, ProteinG: 2, FatG: 4, CarbG: 8},
	}
	out := make(map[string]FoodRecord, len(table))
	for category, rec := range table {
		out[defaultNormalizer.Normalize(category)] = rec
	}
	return out
}

// defaultNormalizer exists so the static tables can normalize their keys
// without a resolver instance; normalization itself is stateless.
var defaultNormalizer = &AliasResolver{}
