package controllers

import (
	"log"
	"net/http"

	"github.com/kevin-twai/eatlyze-mvp-backend/services"

	"github.com/gin-gonic/gin"
)

type CalcRequest struct {
	Items          []services.DetectedItem `json:"items"`
	IncludeGarnish bool                    `json:"include_garnish"`
}

// POST /nutrition/calc gives direct access to the calculator for clients that
// already have an item list (manual edits, re-runs with garnish toggled).
func CalcNutrition(c *gin.Context) {
	var req CalcRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	resolved, totals, err := calculator.Calc(req.Items, req.IncludeGarnish)
	if err != nil {
		log.Printf("nutrition calc failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Nutrition calculation failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": resolved, "totals": totals})
}

// POST /admin/catalog/reload parses the food table again and atomically
// swaps the snapshot. In-flight requests keep the catalog they started with.
func ReloadCatalog(c *gin.Context) {
	cat, err := catalog.Reload()
	if err != nil {
		log.Printf("catalog reload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "records": cat.Len(), "aliases": catalog.AliasCount()})
}
