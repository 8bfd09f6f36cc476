package controllers

import (
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// POST /analyze/image: multipart photo in, resolved items plus totals out.
// Vision trouble is a 502, a missing catalog a 500; bad item data from the
// model is absorbed by the calculator and never fails the request.
func AnalyzeImage(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file field required"})
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil || len(raw) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty file"})
		return
	}

	items, err := vision.AnalyzeImage(c.Request.Context(), raw, header.Header.Get("Content-Type"))
	if err != nil {
		log.Printf("vision analyze failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Vision analysis failed"})
		return
	}

	includeGarnish := c.Query("include_garnish") == "true"
	resolved, totals, err := calculator.Calc(items, includeGarnish)
	if err != nil {
		log.Printf("nutrition calc failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Nutrition calculation failed"})
		return
	}

	status := "ok"
	var reason any
	if len(resolved) == 0 {
		status = "partial"
		reason = "no food detected"
	}
	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"reason": reason,
		"data": gin.H{
			"items":   resolved,
			"summary": gin.H{"totals": totals},
		},
	})
}
