package services

// CompositeIngredient is one constituent of a composite dish. Fraction is
// the share of the dish weight this ingredient gets; fractions need not sum
// to 1.0; unallocated weight (coatings, water loss) is simply dropped
// rather than invented as an "other" item.
type CompositeIngredient struct {
	Name      string  `json:"name"`
	Canonical string  `json:"canonical"`
	Fraction  float64 `json:"fraction"`
}

// CompositeExpander splits a single detected "dish" label (a rolled egg, a
// plate of fried rice) into the ingredients the catalog actually prices.
type CompositeExpander struct {
	aliases *AliasResolver
	recipes map[string][]CompositeIngredient
}

func NewCompositeExpander(aliases *AliasResolver, recipes map[string][]CompositeIngredient) *CompositeExpander {
	normalized := make(map[string][]CompositeIngredient, len(recipes))
	for key, parts := range recipes {
		normalized[aliases.Normalize(key)] = parts
	}
	return &CompositeExpander{aliases: aliases, recipes: normalized}
}

// Expand returns the sub-items of a known composite dish, each at
// fraction × dish weight with is_garnish cleared (a constituent of the main
// dish is never a garnish). Anything else passes through as-is.
func (x *CompositeExpander) Expand(item DetectedItem) []DetectedItem {
	parts, ok := x.lookup(item.Canonical)
	if !ok {
		parts, ok = x.lookup(item.Name)
	}
	if !ok {
		return []DetectedItem{item}
	}

	out := make([]DetectedItem, 0, len(parts))
	for _, p := range parts {
		out = append(out, DetectedItem{
			Name:      p.Name,
			Canonical: p.Canonical,
			WeightG:   p.Fraction * item.WeightG,
			IsGarnish: false,
		})
	}
	return out
}

func (x *CompositeExpander) lookup(label string) ([]CompositeIngredient, bool) {
	key := x.aliases.Normalize(label)
	if key == "" {
		return nil, false
	}
	if parts, ok := x.recipes[key]; ok {
		return parts, true
	}
	// the label may be a surface form of a composite canonical
	if hint, ok := x.aliases.Resolve(key); ok {
		if parts, ok := x.recipes[x.aliases.Normalize(hint)]; ok {
			return parts, true
		}
	}
	return nil, false
}

// DefaultCompositeRecipes: the dishes the vision model reports as one label
// often enough to matter. Deployments can replace the table wholesale.
func DefaultCompositeRecipes() map[string][]CompositeIngredient {
	return map[string][]CompositeIngredient{
		"tamagoyaki": {
			{Name: "雞蛋", Canonical: "egg", Fraction: 0.85},
			{Name: "高湯", Canonical: "dashi", Fraction: 0.10},
			{Name: "醬油", Canonical: "soy sauce", Fraction: 0.03},
		},
		"fried rice": {
			{Name: "白飯", Canonical: "white rice", Fraction: 0.72},
			{Name: "雞蛋", Canonical: "egg", Fraction: 0.15},
			{Name: "蔥", Canonical: "scallion", Fraction: 0.04},
			{Name: "醬油", Canonical: "soy sauce", Fraction: 0.04},
		},
		"onigiri": {
			{Name: "白飯", Canonical: "white rice", Fraction: 0.92},
			{Name: "海苔", Canonical: "nori", Fraction: 0.03},
		},
	}
}
