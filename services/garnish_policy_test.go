package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIncludeDecisionTable(t *testing.T) {
	p := NewGarnishPolicy(NewAliasResolver(nil), 5)

	cases := []struct {
		name           string
		item           DetectedItem
		includeGarnish bool
		want           bool
	}{
		{"not garnish", DetectedItem{WeightG: 1}, false, true},
		{"garnish but caller wants it", DetectedItem{IsGarnish: true, WeightG: 1}, true, true},
		{"garnish over threshold", DetectedItem{IsGarnish: true, WeightG: 10}, false, true},
		{"garnish at threshold", DetectedItem{IsGarnish: true, WeightG: 5}, false, true},
		{"small garnish", DetectedItem{IsGarnish: true, WeightG: 3}, false, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, p.Include(tc.item, tc.includeGarnish), tc.name)
	}
}

func TestCorrectSmallPlateUnflagsStaples(t *testing.T) {
	p := NewGarnishPolicy(NewAliasResolver(DefaultAliases()), 5)

	items := []DetectedItem{
		{Name: "parsley", Canonical: "parsley", WeightG: 2, IsGarnish: true},
		{Name: "白飯", Canonical: "white rice", WeightG: 200, IsGarnish: true},
	}
	out := p.CorrectSmallPlate(items)

	assert.True(t, out[0].IsGarnish, "unknown garnish stays garnish")
	assert.False(t, out[1].IsGarnish, "staple on a small plate is the meal")

	// input slice is not mutated
	assert.True(t, items[1].IsGarnish)
}

func TestCorrectSmallPlateViaAlias(t *testing.T) {
	p := NewGarnishPolicy(NewAliasResolver(DefaultAliases()), 5)

	// "rice" is a surface form of the staple key "white rice"
	out := p.CorrectSmallPlate([]DetectedItem{
		{Name: "rice", Canonical: "rice", WeightG: 150, IsGarnish: true},
	})
	assert.False(t, out[0].IsGarnish)
}

func TestCorrectSmallPlateSkipsBusyPlates(t *testing.T) {
	p := NewGarnishPolicy(NewAliasResolver(DefaultAliases()), 5)

	// four items: not a small plate
	items := []DetectedItem{
		{Canonical: "white rice", IsGarnish: true},
		{Canonical: "cucumber"},
		{Canonical: "carrot"},
		{Canonical: "chicken breast"},
	}
	out := p.CorrectSmallPlate(items)
	assert.True(t, out[0].IsGarnish)
}

func TestCorrectSmallPlateAppliesAtTheLimits(t *testing.T) {
	p := NewGarnishPolicy(NewAliasResolver(DefaultAliases()), 5)

	// exactly three items, exactly two non-garnish: still a small plate
	out := p.CorrectSmallPlate([]DetectedItem{
		{Canonical: "white rice", IsGarnish: true},
		{Canonical: "cucumber"},
		{Canonical: "chicken breast"},
	})
	assert.False(t, out[0].IsGarnish)
}
