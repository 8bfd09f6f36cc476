package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// One logged meal (breakfast/lunch/…) with the totals the calculator
// produced at the time. Breakdown keeps the full resolved-item list as JSON
// so the app can re-render the analysis without recomputing it.
type Meal struct {
	gorm.Model
	MealType string    // "breakfast"|"lunch"|"dinner"|"snack"
	AteAt    time.Time // timestamp of the meal
	ImageURL string
	Notes    string

	Kcal     float64
	ProteinG float64
	FatG     float64
	CarbG    float64

	Breakdown datatypes.JSON
	Items     []MealItem
}

// Each MealItem stores the per-item nutrition snapshot.
type MealItem struct {
	gorm.Model
	MealID uint

	Label     string // display label (zh when the catalog knows one)
	Canonical string `gorm:"type:varchar(255)"`
	WeightG   float64
	IsGarnish bool
	Matched   bool
	MatchTier string // exact|alias|fuzzy|fallback|none

	Kcal     float64
	ProteinG float64
	FatG     float64
	CarbG    float64
}
