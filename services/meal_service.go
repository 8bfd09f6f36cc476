package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/kevin-twai/eatlyze-mvp-backend/config"
	"github.com/kevin-twai/eatlyze-mvp-backend/models"
)

// ErrMealLogDisabled means no database was configured; the analysis
// endpoints work, the persistence ones do not.
var ErrMealLogDisabled = errors.New("meal log disabled: no database configured")

type MealService struct {
	calc *NutritionCalculator
}

func NewMealService(calc *NutritionCalculator) *MealService {
	return &MealService{calc: calc}
}

type SaveMealRequest struct {
	MealType       string         `json:"meal_type" binding:"required"`
	AteAt          time.Time      `json:"ate_at"`
	ImageURL       string         `json:"image_url"`
	Notes          string         `json:"notes"`
	IncludeGarnish bool           `json:"include_garnish"`
	Items          []DetectedItem `json:"items" binding:"required"`
}

// SaveMeal runs the calculator over the detected items and persists the
// meal with its per-item snapshot and a JSON copy of the full breakdown.
func (s *MealService) SaveMeal(req SaveMealRequest) (*models.Meal, error) {
	if config.DB == nil {
		return nil, ErrMealLogDisabled
	}

	resolved, totals, err := s.calc.Calc(req.Items, req.IncludeGarnish)
	if err != nil {
		return nil, err
	}

	breakdown, err := json.Marshal(resolved)
	if err != nil {
		return nil, err
	}

	ateAt := req.AteAt
	if ateAt.IsZero() {
		ateAt = time.Now()
	}

	meal := &models.Meal{
		MealType:  req.MealType,
		AteAt:     ateAt,
		ImageURL:  req.ImageURL,
		Notes:     req.Notes,
		Kcal:      totals.Kcal,
		ProteinG:  totals.ProteinG,
		FatG:      totals.FatG,
		CarbG:     totals.CarbG,
		Breakdown: breakdown,
	}
	for _, it := range resolved {
		meal.Items = append(meal.Items, models.MealItem{
			Label:     it.Label,
			Canonical: it.Canonical,
			WeightG:   it.WeightG,
			IsGarnish: it.IsGarnish,
			Matched:   it.Matched,
			MatchTier: string(it.MatchTier),
			Kcal:      it.Kcal,
			ProteinG:  it.ProteinG,
			FatG:      it.FatG,
			CarbG:     it.CarbG,
		})
	}

	if err := config.DB.Create(meal).Error; err != nil {
		return nil, err
	}
	return meal, nil
}

func (s *MealService) ListMeals(limit int) ([]models.Meal, error) {
	if config.DB == nil {
		return nil, ErrMealLogDisabled
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var meals []models.Meal
	err := config.DB.Preload("Items").Order("ate_at desc").Limit(limit).Find(&meals).Error
	return meals, err
}

func (s *MealService) GetMeal(id uint) (*models.Meal, error) {
	if config.DB == nil {
		return nil, ErrMealLogDisabled
	}
	var meal models.Meal
	if err := config.DB.Preload("Items").First(&meal, id).Error; err != nil {
		return nil, err
	}
	return &meal, nil
}
