package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/kevin-twai/eatlyze-mvp-backend/models"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

// Init loads .env if present. Missing .env is fine in production where
// everything comes from real environment variables.
func Init() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using process environment")
	}
}

// InitDB connects to Postgres and migrates the meal-log tables. When DB_HOST
// is unset the meal log is disabled and DB stays nil; the photo-analysis
// endpoints still work without it.
func InitDB() {
	if os.Getenv("DB_HOST") == "" {
		log.Println("DB_HOST not set, meal log disabled")
		return
	}

	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Meal{}, &models.MealItem{}); err != nil {
		log.Fatalf("AutoMigrate failed: %v", err)
	}

	DB = db
}

func Getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func GetenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using %v", key, v, fallback)
		return fallback
	}
	return f
}

// Engine tunables. Threshold and cutoff values are content, not architecture:
// they ship with the defaults the food table was tuned against and can be
// overridden per deployment.

func FoodsCSVPath() string {
	return Getenv("FOODS_CSV_PATH", "data/foods_tw.csv")
}

func OntologyPath() string {
	return Getenv("FOOD_ONTOLOGY_PATH", "data/food_ontology.json")
}

func FuzzyCutoff() float64 {
	return GetenvFloat("FUZZY_CUTOFF", 0.82)
}

func GarnishMinWeightG() float64 {
	return GetenvFloat("GARNISH_MIN_WEIGHT_G", 5)
}
