package controllers

import (
	"github.com/kevin-twai/eatlyze-mvp-backend/services"
)

// Shared service handles, wired once from main. The catalog snapshot behind
// the calculator is the only process-wide state; everything else here is
// stateless.
var (
	calculator *services.NutritionCalculator
	catalog    *services.CatalogService
	vision     services.VisionProvider
	notion     *services.NotionService
	meals      *services.MealService
)

func Init(
	calc *services.NutritionCalculator,
	cat *services.CatalogService,
	vis services.VisionProvider,
	not *services.NotionService,
	meal *services.MealService,
) {
	calculator = calc
	catalog = cat
	vision = vis
	notion = not
	meals = meal
}
