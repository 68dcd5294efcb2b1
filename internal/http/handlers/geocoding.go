package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KarinaChumak/tour-booking-system/internal/services"
)

type GeocodingHandler struct {
	Geo *services.GeocodingService
}

// GET /api/v1/geocoding/details/:placeId
func (h GeocodingHandler) PlaceDetails(c *gin.Context) {
	doc, err := h.Geo.PlaceDetails(c.Request.Context(), c.Param("placeId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": doc})
}
