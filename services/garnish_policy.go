package services

// GarnishPolicy decides whether a detected item contributes to the totals.
//
//	is_garnish=false                  -> always contributes
//	is_garnish=true, include flag on  -> contributes
//	is_garnish=true, weight >= min    -> contributes (that much food is not
//	                                     a garnish, whatever the model says)
//	otherwise                         -> excluded, zero macros
type GarnishPolicy struct {
	aliases    *AliasResolver
	minWeightG float64
	staples    map[string]bool
}

func NewGarnishPolicy(aliases *AliasResolver, minWeightG float64) *GarnishPolicy {
	staples := make(map[string]bool)
	for _, key := range DefaultGarnishStaples() {
		staples[aliases.Normalize(key)] = true
	}
	return &GarnishPolicy{aliases: aliases, minWeightG: minWeightG, staples: staples}
}

// Include applies the decision table above.
func (p *GarnishPolicy) Include(item DetectedItem, includeGarnish bool) bool {
	if !item.IsGarnish {
		return true
	}
	if includeGarnish {
		return true
	}
	return item.WeightG >= p.minWeightG
}

// CorrectSmallPlate un-flags staples on small plates. On photos with at most
// three detected items and at most two non-garnish ones, the vision model
// regularly tags the actual main (rice, egg, tofu…) as garnish; a meal of
// nothing but garnish is not a meal.
func (p *GarnishPolicy) CorrectSmallPlate(items []DetectedItem) []DetectedItem {
	if len(items) > 3 {
		return items
	}
	nonGarnish := 0
	for _, it := range items {
		if !it.IsGarnish {
			nonGarnish++
		}
	}
	if nonGarnish > 2 {
		return items
	}

	out := make([]DetectedItem, len(items))
	copy(out, items)
	for i, it := range out {
		if !it.IsGarnish {
			continue
		}
		if p.isStaple(it.Canonical) || p.isStaple(it.Name) {
			out[i].IsGarnish = false
		}
	}
	return out
}

func (p *GarnishPolicy) isStaple(label string) bool {
	key := p.aliases.Normalize(label)
	if key == "" {
		return false
	}
	if p.staples[key] {
		return true
	}
	if hint, ok := p.aliases.Resolve(key); ok {
		return p.staples[p.aliases.Normalize(hint)]
	}
	return false
}

// DefaultGarnishStaples: canonical keys the vision model most often
// mis-flags as garnish when they are in fact the meal.
func DefaultGarnishStaples() []string {
	return []string{
		"white rice", "egg", "tofu", "noodles", "chicken breast",
		"salmon", "tamagoyaki",
	}
}
