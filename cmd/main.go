package main

import (
	"log"

	"github.com/kevin-twai/eatlyze-mvp-backend/config"
	"github.com/kevin-twai/eatlyze-mvp-backend/controllers"
	"github.com/kevin-twai/eatlyze-mvp-backend/routes"
	"github.com/kevin-twai/eatlyze-mvp-backend/services"
	"github.com/kevin-twai/eatlyze-mvp-backend/utils"
)

func main() {
	config.Init()
	config.InitDB()
	utils.InitStorage()

	aliases := services.NewAliasResolver(services.DefaultAliases())
	if err := aliases.LoadOntology(config.OntologyPath()); err != nil {
		log.Printf("ontology load: %v (continuing with built-in aliases)", err)
	}

	catalog := services.NewCatalogService(config.FoodsCSVPath(), aliases)
	calculator := services.NewNutritionCalculator(
		catalog,
		services.NewMatchEngine(aliases, config.FuzzyCutoff()),
		services.NewCompositeExpander(aliases, services.DefaultCompositeRecipes()),
		services.NewGarnishPolicy(aliases, config.GarnishMinWeightG()),
	)

	// a service without a food table is useless; fail now, not per request
	cat, err := catalog.Current()
	if err != nil {
		log.Fatalf("catalog load failed: %v", err)
	}
	log.Printf("catalog loaded: %d records, %d aliases", cat.Len(), aliases.Len())

	vision, err := services.NewVisionProvider()
	if err != nil {
		log.Fatalf("vision provider: %v", err)
	}

	controllers.Init(
		calculator,
		catalog,
		vision,
		services.NewNotionService(),
		services.NewMealService(calculator),
	)

	r := routes.SetupRouter()
	if err := r.Run(":" + config.Getenv("PORT", "8080")); err != nil {
		log.Fatalf("server: %v", err)
	}
}
