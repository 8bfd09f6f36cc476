package controllers

import (
	"log"
	"net/http"

	"github.com/kevin-twai/eatlyze-mvp-backend/services"

	"github.com/gin-gonic/gin"
)

// POST /notion/log pushes an analyzed meal into the Notion food log.
// Missing credentials is a handled condition, not a crash: the frontend
// shows "connect Notion" instead.
func LogToNotion(c *gin.Context) {
	var req services.FoodLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	if !notion.Configured() {
		c.JSON(http.StatusOK, gin.H{"ok": false, "error": "Missing NOTION_API_KEY or NOTION_DATABASE_ID"})
		return
	}

	pageID, err := notion.CreateFoodLog(c.Request.Context(), req)
	if err != nil {
		log.Printf("notion log failed: %v", err)
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "notion_page_id": pageID})
}
