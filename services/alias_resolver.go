package services

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// AliasResolver turns the vision model's free-form labels into the normalized
// keys the catalog is indexed by, and maps known synonyms (translations,
// brand-ish variants, whatever the model invents) onto canonical keys.
//
// Surface forms are stored normalized; on duplicates the last load wins.
type AliasResolver struct {
	table      map[string]string // normalized surface form -> canonical key
	categories map[string]string // normalized canonical key -> category
}

var bracketPattern = regexp.MustCompile(`\(.*?\)|（.*?）|\[.*?\]|【.*?】|\{.*?\}`)

// Preparation-method words the vision model likes to prepend. They never
// change what the food is, so they never reach the index.
var prepTokens = []string{
	"shredded", "sliced", "diced", "minced", "julienned", "chopped", "grated",
}

func NewAliasResolver(entries map[string]string) *AliasResolver {
	r := &AliasResolver{
		table:      make(map[string]string),
		categories: make(map[string]string),
	}
	r.Merge(entries)
	return r
}

// Merge adds surface-form -> canonical pairs, normalizing the surface forms.
// Later merges overwrite earlier ones.
func (r *AliasResolver) Merge(entries map[string]string) {
	for surface, canonical := range entries {
		key := r.Normalize(surface)
		if key == "" || canonical == "" {
			continue
		}
		r.table[key] = canonical
	}
}

// Resolve maps a normalized key to its canonical hint, if one is known.
func (r *AliasResolver) Resolve(normalizedKey string) (string, bool) {
	canonical, ok := r.table[normalizedKey]
	return canonical, ok
}

// Category returns the ontology category for a canonical key, if the
// ontology declared one. Used for coarse fallback nutrition.
func (r *AliasResolver) Category(canonicalKey string) (string, bool) {
	cat, ok := r.categories[r.Normalize(canonicalKey)]
	return cat, ok
}

func (r *AliasResolver) Len() int { return len(r.table) }

// Normalize produces the lookup key for a raw label: lowercase, bracketed
// annotations removed (any bracket style), preparation words dropped, all
// internal spaces/hyphens/underscores stripped, and a naive depluralization
// ("es"/"s" dropped when the remaining key is longer than 3).
func (r *AliasResolver) Normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return ""
	}
	s = bracketPattern.ReplaceAllString(s, "")
	for _, tok := range prepTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	for _, ch := range []string{" ", "-", "_"} {
		s = strings.ReplaceAll(s, ch, "")
	}
	if strings.HasSuffix(s, "es") && len(s)-2 > 3 {
		s = s[:len(s)-2]
	} else if strings.HasSuffix(s, "s") && len(s)-1 > 3 {
		s = s[:len(s)-1]
	}
	return s
}

// OntologyEntry is one node of data/food_ontology.json. Aliases plus both
// display names all map to the canonical key.
type OntologyEntry struct {
	Canonical string   `json:"canonical"`
	NameZH    string   `json:"name_zh"`
	NameEN    string   `json:"name_en"`
	Aliases   []string `json:"aliases"`
	Category  string   `json:"category"`
}

// LoadOntology merges an ontology file into the resolver. A missing file is
// not an error: the built-in aliases still cover the common cases.
func (r *AliasResolver) LoadOntology(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read ontology %s: %w", path, err)
	}

	var entries []OntologyEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("parse ontology %s: %w", path, err)
	}

	for _, e := range entries {
		if e.Canonical == "" {
			continue
		}
		surfaces := append([]string{e.NameZH, e.NameEN}, e.Aliases...)
		for _, s := range surfaces {
			if key := r.Normalize(s); key != "" {
				r.table[key] = e.Canonical
			}
		}
		if e.Category != "" {
			r.categories[r.Normalize(e.Canonical)] = e.Category
		}
	}
	return nil
}

// DefaultAliases is the built-in surface-form table: the multi-language
// variants the vision model produces most often, mapped to the canonical
// keys of the shipped food table.
func DefaultAliases() map[string]string {
	return map[string]string{
		// vegetables
		"persian cucumber":  "cucumber",
		"japanese cucumber": "cucumber",
		"小黃瓜":               "cucumber",
		"紅蘿蔔":               "carrot",
		"胡蘿蔔":               "carrot",
		"にんじん":              "carrot",
		"bell pepper":       "green pepper",
		"green bell pepper": "green pepper",
		"ピーマン":              "green pepper",
		"青椒":                "green pepper",
		"洋蔥":                "onion",
		"玉ねぎ":               "onion",
		"white onion":       "onion",
		"蒜頭":                "garlic",
		"薑":                 "ginger",
		"香菇":                "shiitake",
		"椎茸":                "shiitake",
		"しいたけ":              "shiitake",

		// tofu family
		"豆腐":               "tofu",
		"嫩豆腐":              "silken tofu",
		"板豆腐":              "firm tofu",
		"bean curd":        "dried tofu",
		"豆干":               "dried tofu",
		"tofu strips":      "dried tofu shreds",
		"tofu shreds":      "dried tofu shreds",
		"bean curd strips": "dried tofu shreds",
		"豆干絲":              "dried tofu shreds",

		// staples
		"rice":          "white rice",
		"白飯":            "white rice",
		"麵":             "noodles",
		"ramen noodles": "ramen",
		"拉麵":            "ramen",
		"烏龍麵":           "udon",
		"soba noodles":  "soba",
		"蕎麥麵":           "soba",
		"蕎麦":            "soba",

		// protein
		"鮭魚":   "salmon",
		"魚肉":   "fish",
		"雞胸肉":  "chicken breast",
		"皮蛋":   "century egg",
		"black egg": "century egg",
		"玉子焼き": "tamagoyaki",
		"玉子燒":  "tamagoyaki",
		"rolled egg":       "tamagoyaki",
		"rolled omelette":  "tamagoyaki",
		"japanese omelet":  "tamagoyaki",
		"japanese omelette": "tamagoyaki",

		// garnish & seasoning
		"蔥花":          "scallion",
		"green onion": "scallion",
		"ねぎ":          "scallion",
		"蔥":           "scallion",
		"海苔":          "nori",
		"のり":          "nori",
		"katsuobushi": "bonito flakes",
		"柴魚片":         "bonito flakes",
		"山葵":          "wasabi",
		"わさび":         "wasabi",
		"醬油":          "soy sauce",
		"sweet soy sauce": "soy sauce",
	}
}
