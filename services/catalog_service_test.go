package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "foods.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const basicCatalogCSV = `name,canonical,kcal,protein_g,fat_g,carb_g
小黃瓜,cucumber,15,0.7,0.1,3.6
雞肉,chicken,165,31,3.6,0
白飯,white rice,130,2.7,0.3,28
蔥,scallion,32,1.8,0.2,7.3
`

func TestCatalogLoadAndLookup(t *testing.T) {
	aliases := NewAliasResolver(nil)
	svc := NewCatalogService(writeTempCatalog(t, basicCatalogCSV), aliases)

	cat, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, 4, cat.Len())

	rec := cat.LookupExact(aliases.Normalize("chicken"))
	require.NotNil(t, rec)
	assert.Equal(t, "雞肉", rec.Name)
	assert.Equal(t, 165.0, rec.Kcal)

	// the zh display name is indexed too
	rec = cat.LookupExact(aliases.Normalize("白飯"))
	require.NotNil(t, rec)
	assert.Equal(t, "white rice", rec.Canonical)

	assert.Nil(t, cat.LookupExact("nothere"))
	assert.Nil(t, cat.LookupExact(""))
}

func TestCatalogHeaderSynonyms(t *testing.T) {
	csv := "食品名稱,英文名,熱量,蛋白質,脂肪,碳水化合物\n" +
		"豆腐,tofu,76,8,4.8,1.9\n"
	aliases := NewAliasResolver(nil)
	svc := NewCatalogService(writeTempCatalog(t, csv), aliases)

	cat, err := svc.Current()
	require.NoError(t, err)
	rec := cat.LookupExact(aliases.Normalize("tofu"))
	require.NotNil(t, rec)
	assert.Equal(t, 76.0, rec.Kcal)
	assert.Equal(t, 1.9, rec.CarbG)
}

func TestCatalogCoercesBadNumbers(t *testing.T) {
	csv := `name,canonical,kcal,protein_g,fat_g,carb_g
雞肉,chicken,not-a-number,31,-2,
`
	aliases := NewAliasResolver(nil)
	svc := NewCatalogService(writeTempCatalog(t, csv), aliases)

	cat, err := svc.Current()
	require.NoError(t, err)
	rec := cat.LookupExact(aliases.Normalize("chicken"))
	require.NotNil(t, rec)
	assert.Equal(t, 0.0, rec.Kcal)
	assert.Equal(t, 31.0, rec.ProteinG)
	assert.Equal(t, 0.0, rec.FatG) // negatives are junk too
	assert.Equal(t, 0.0, rec.CarbG)
}

func TestCatalogSkipsRowsWithoutName(t *testing.T) {
	csv := `name,canonical,kcal,protein_g,fat_g,carb_g
,,100,1,1,1
雞肉,chicken,165,31,3.6,0
`
	svc := NewCatalogService(writeTempCatalog(t, csv), NewAliasResolver(nil))
	cat, err := svc.Current()
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Len())
}

func TestCatalogMissingFileFailsLoad(t *testing.T) {
	svc := NewCatalogService(filepath.Join(t.TempDir(), "nope.csv"), NewAliasResolver(nil))
	_, err := svc.Current()
	require.Error(t, err)

	var loadErr *CatalogLoadError
	assert.ErrorAs(t, err, &loadErr)
}

func TestCatalogEmptyTableFailsLoad(t *testing.T) {
	svc := NewCatalogService(writeTempCatalog(t, "name,kcal\n"), NewAliasResolver(nil))
	_, err := svc.Current()

	var loadErr *CatalogLoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestCatalogFirstRowWinsOnDuplicateKeys(t *testing.T) {
	csv := `name,canonical,kcal,protein_g,fat_g,carb_g
雞肉,chicken,165,31,3.6,0
雞肉半,chicken,999,0,0,0
`
	aliases := NewAliasResolver(nil)
	svc := NewCatalogService(writeTempCatalog(t, csv), aliases)
	cat, err := svc.Current()
	require.NoError(t, err)

	rec := cat.LookupExact(aliases.Normalize("chicken"))
	require.NotNil(t, rec)
	assert.Equal(t, 165.0, rec.Kcal)
}

func TestCatalogReloadSwapsSnapshot(t *testing.T) {
	path := writeTempCatalog(t, basicCatalogCSV)
	aliases := NewAliasResolver(nil)
	svc := NewCatalogService(path, aliases)

	before, err := svc.Current()
	require.NoError(t, err)
	require.Equal(t, 4, before.Len())

	next := `name,canonical,kcal,protein_g,fat_g,carb_g
鮭魚,salmon,208,20,13,0
`
	require.NoError(t, os.WriteFile(path, []byte(next), 0o644))

	after, err := svc.Reload()
	require.NoError(t, err)
	assert.Equal(t, 1, after.Len())

	// the old snapshot an in-flight request holds is untouched
	assert.Equal(t, 4, before.Len())
	assert.NotNil(t, before.LookupExact(aliases.Normalize("chicken")))

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Same(t, after, current)
}

func TestCatalogReloadFailureKeepsOldSnapshot(t *testing.T) {
	path := writeTempCatalog(t, basicCatalogCSV)
	svc := NewCatalogService(path, NewAliasResolver(nil))

	before, err := svc.Current()
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("name,kcal\n"), 0o644))
	_, err = svc.Reload()
	require.Error(t, err)

	current, err := svc.Current()
	require.NoError(t, err)
	assert.Same(t, before, current)
}
