package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandKnownComposite(t *testing.T) {
	aliases := NewAliasResolver(DefaultAliases())
	x := NewCompositeExpander(aliases, DefaultCompositeRecipes())

	out := x.Expand(DetectedItem{Name: "玉子燒", Canonical: "tamagoyaki", WeightG: 60, IsGarnish: true})
	require.Len(t, out, 3)

	assert.Equal(t, "egg", out[0].Canonical)
	assert.InDelta(t, 0.85*60, out[0].WeightG, 1e-9)
	assert.Equal(t, "dashi", out[1].Canonical)
	assert.InDelta(t, 0.10*60, out[1].WeightG, 1e-9)
	assert.Equal(t, "soy sauce", out[2].Canonical)
	assert.InDelta(t, 0.03*60, out[2].WeightG, 1e-9)

	total := 0.0
	for _, it := range out {
		assert.False(t, it.IsGarnish, "sub-items are never garnish")
		total += it.WeightG
	}
	assert.LessOrEqual(t, total, 60.0)
}

func TestExpandResolvesSurfaceFormOfComposite(t *testing.T) {
	aliases := NewAliasResolver(DefaultAliases())
	x := NewCompositeExpander(aliases, DefaultCompositeRecipes())

	// "rolled egg" is an alias of tamagoyaki, not a recipe key itself
	out := x.Expand(DetectedItem{Name: "rolled egg", Canonical: "rolled egg", WeightG: 100})
	require.Len(t, out, 3)
	assert.Equal(t, "egg", out[0].Canonical)
}

func TestExpandPassThrough(t *testing.T) {
	aliases := NewAliasResolver(DefaultAliases())
	x := NewCompositeExpander(aliases, DefaultCompositeRecipes())

	item := DetectedItem{Name: "cucumber", Canonical: "cucumber", WeightG: 40, IsGarnish: true}
	out := x.Expand(item)
	require.Len(t, out, 1)
	assert.Equal(t, item, out[0])

	out = x.Expand(DetectedItem{})
	require.Len(t, out, 1)
}
