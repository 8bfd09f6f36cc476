package services

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrCatalogNotLoaded means Calc was reached before a catalog ever loaded.
// That is a wiring bug: startup is supposed to warm the catalog and abort on
// failure.
var ErrCatalogNotLoaded = errors.New("food catalog not loaded")

// CatalogLoadError is fatal at startup: no usable food table was found.
type CatalogLoadError struct {
	Path string
	Err  error
}

func (e *CatalogLoadError) Error() string {
	return fmt.Sprintf("load food catalog %s: %v", e.Path, e.Err)
}

func (e *CatalogLoadError) Unwrap() error { return e.Err }

// FoodRecord is one canonical nutrition entry, per 100 g. Immutable after
// load; a reload replaces the whole catalog.
type FoodRecord struct {
	Canonical string  `json:"canonical"`
	Name      string  `json:"name"` // display name (zh in the shipped table)
	Kcal      float64 `json:"kcal"`
	ProteinG  float64 `json:"protein_g"`
	FatG      float64 `json:"fat_g"`
	CarbG     float64 `json:"carb_g"`
}

type corpusEntry struct {
	key string
	rec *FoodRecord
}

// Catalog is one immutable snapshot of the food table: an O(1) exact index
// plus the ordered key corpus the fuzzy matcher scans.
type Catalog struct {
	records []*FoodRecord
	exact   map[string]*FoodRecord
	corpus  []corpusEntry
}

func (c *Catalog) LookupExact(normalizedKey string) *FoodRecord {
	if normalizedKey == "" {
		return nil
	}
	return c.exact[normalizedKey]
}

func (c *Catalog) Len() int { return len(c.records) }

// Accepted header synonyms per logical column. The food table has gone
// through several hands and naming schemes, including Chinese headers.
var (
	nameHeaderKeys  = []string{"name", "食品名稱", "食材", "canonical_zh"}
	canonHeaderKeys = []string{"canonical", "標準名", "英文名"}
	kcalHeaderKeys  = []string{"kcal", "熱量(kcal)", "熱量", "能量kcal"}
	protHeaderKeys  = []string{"protein_g", "蛋白質(g)", "蛋白質", "蛋白"}
	fatHeaderKeys   = []string{"fat_g", "脂肪(g)", "脂肪"}
	carbHeaderKeys  = []string{"carb_g", "碳水(g)", "碳水化合物", "碳水"}
)

// CatalogService owns the shared catalog snapshot. The first Current call
// loads exactly once even under concurrent callers; Reload builds a fresh
// snapshot and swaps the pointer so in-flight requests keep the one they
// started with.
type CatalogService struct {
	path    string
	aliases *AliasResolver

	once    sync.Once
	loadErr error
	current atomic.Pointer[Catalog]
}

func NewCatalogService(path string, aliases *AliasResolver) *CatalogService {
	return &CatalogService{path: path, aliases: aliases}
}

// Current returns the active snapshot, loading it on first use.
func (s *CatalogService) Current() (*Catalog, error) {
	s.once.Do(func() {
		cat, err := s.load(s.path)
		if err != nil {
			s.loadErr = err
			return
		}
		s.current.Store(cat)
	})
	if cat := s.current.Load(); cat != nil {
		return cat, nil
	}
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return nil, ErrCatalogNotLoaded
}

// AliasCount reports the size of the alias table this catalog indexes with.
func (s *CatalogService) AliasCount() int { return s.aliases.Len() }

// Reload parses the table again and atomically publishes the new snapshot.
// On failure the previous snapshot stays active.
func (s *CatalogService) Reload() (*Catalog, error) {
	cat, err := s.load(s.path)
	if err != nil {
		return nil, err
	}
	s.current.Store(cat)
	return cat, nil
}

func (s *CatalogService) load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &CatalogLoadError{Path: path, Err: err}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &CatalogLoadError{Path: path, Err: err}
	}
	if len(rows) < 2 {
		return nil, &CatalogLoadError{Path: path, Err: errors.New("no data rows")}
	}

	header := rows[0]
	nameCol := findColumn(header, nameHeaderKeys)
	canonCol := findColumn(header, canonHeaderKeys)
	kcalCol := findColumn(header, kcalHeaderKeys)
	protCol := findColumn(header, protHeaderKeys)
	fatCol := findColumn(header, fatHeaderKeys)
	carbCol := findColumn(header, carbHeaderKeys)

	if nameCol < 0 && canonCol < 0 {
		return nil, &CatalogLoadError{Path: path, Err: errors.New("no name or canonical column")}
	}

	cat := &Catalog{exact: make(map[string]*FoodRecord)}
	for i, row := range rows[1:] {
		rec := &FoodRecord{
			Name:      cell(row, nameCol),
			Canonical: cell(row, canonCol),
			Kcal:      asFloat(cell(row, kcalCol)),
			ProteinG:  asFloat(cell(row, protCol)),
			FatG:      asFloat(cell(row, fatCol)),
			CarbG:     asFloat(cell(row, carbCol)),
		}
		if rec.Name == "" && rec.Canonical == "" {
			log.Printf("catalog row %d skipped: no usable name", i+2)
			continue
		}
		cat.add(rec, s.aliases)
	}

	if len(cat.records) == 0 {
		return nil, &CatalogLoadError{Path: path, Err: errors.New("zero usable rows")}
	}
	return cat, nil
}

// add indexes every name variant of a record. First writer wins inside one
// load so earlier rows shadow later duplicates, which also gives the fuzzy
// tie-break its load-order rule.
func (c *Catalog) add(rec *FoodRecord, aliases *AliasResolver) {
	c.records = append(c.records, rec)
	for _, variant := range []string{rec.Name, rec.Canonical} {
		key := aliases.Normalize(variant)
		if key == "" {
			continue
		}
		if _, dup := c.exact[key]; !dup {
			c.exact[key] = rec
			c.corpus = append(c.corpus, corpusEntry{key: key, rec: rec})
		}
	}
}

func findColumn(header []string, synonyms []string) int {
	for _, want := range synonyms {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// asFloat coerces the macro cells; junk becomes 0, never an error.
func asFloat(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}
