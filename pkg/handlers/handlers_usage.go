package handlers

import (
	"net/http"

	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/gin-gonic/gin"
)

// GetMyUsage returns usage stats for the authenticated API key
func (h *Handler) GetMyUsage(c *gin.Context) {
	apiKey, ok := currentKey(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "API Key context missing"})
		return
	}

	usage, err := database.Usage(h.DB, apiKey.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}

	// Calculate totals
	var totalRequests, totalWeeks, totalRoles int64
	for _, u := range usage {
		totalRequests += int64(u.RequestCount)
		totalWeeks += int64(u.TotalWeeks)
		totalRoles += int64(u.TotalRoles)
	}

	c.JSON(http.StatusOK, gin.H{
		"key_name":      apiKey.Name,
		"rate_limit":    apiKey.RateLimit,
		"usage_history": usage,
		"totals": gin.H{
			"requests": totalRequests,
			"weeks":    totalWeeks,
			"roles":    totalRoles,
		},
	})
}

// GetUsage returns usage stats for a key
func (h *Handler) GetUsage(c *gin.Context) {
	var apiKey database.APIKey
	if err := h.DB.First(&apiKey, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Key not found"})
		return
	}

	usage, err := database.Usage(h.DB, apiKey.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not fetch usage details"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}
