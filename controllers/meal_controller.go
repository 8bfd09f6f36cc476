package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kevin-twai/eatlyze-mvp-backend/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// POST /meals re-runs the calculator on the submitted items and persists
// the result as one logged meal.
func SaveMeal(c *gin.Context) {
	var req services.SaveMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	meal, err := meals.SaveMeal(req)
	if err != nil {
		if errors.Is(err, services.ErrMealLogDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, meal)
}

// GET /meals?limit=20
func ListMeals(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	out, err := meals.ListMeals(limit)
	if err != nil {
		if errors.Is(err, services.ErrMealLogDisabled) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// GET /meals/:id
func GetMeal(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	meal, err := meals.GetMeal(uint(id))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrMealLogDisabled):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "meal not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, meal)
}
