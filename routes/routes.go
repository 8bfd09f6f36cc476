package routes

import (
	"os"
	"strings"

	"github.com/kevin-twai/eatlyze-mvp-backend/controllers"
	"github.com/kevin-twai/eatlyze-mvp-backend/middlewares"
	"github.com/kevin-twai/eatlyze-mvp-backend/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter() *gin.Engine {
	r := gin.Default()
	r.Use(cors.New(corsConfig()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "service": "eatlyze-backend"})
	})

	// photos stored by the local provider
	r.Static("/uploads", utils.LocalUploadDir())

	r.POST("/upload", controllers.UploadImage)

	analyze := r.Group("/analyze")
	{
		analyze.POST("/image", controllers.AnalyzeImage)
	}

	nutrition := r.Group("/nutrition")
	{
		nutrition.POST("/calc", controllers.CalcNutrition)
	}

	notion := r.Group("/notion")
	{
		notion.POST("/log", controllers.LogToNotion)
	}

	mealGroup := r.Group("/meals")
	{
		mealGroup.POST("", controllers.SaveMeal)
		mealGroup.GET("", controllers.ListMeals)
		mealGroup.GET("/:id", controllers.GetMeal)
	}

	admin := r.Group("/admin")
	admin.Use(middlewares.AdminAuthMiddleware())
	{
		admin.POST("/catalog/reload", controllers.ReloadCatalog)
	}

	return r
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowHeaders = append(cfg.AllowHeaders, "Authorization")

	raw := os.Getenv("ALLOWED_ORIGINS")
	if raw == "" {
		cfg.AllowAllOrigins = true
		return cfg
	}

	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}
