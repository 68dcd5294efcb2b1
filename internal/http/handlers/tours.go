package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KarinaChumak/tour-booking-system/internal/query"
	"github.com/KarinaChumak/tour-booking-system/internal/services"
)

type TourHandler struct {
	Tours  services.TourService
	Images services.ImageService
}

// AliasTopTours rewrites the query string to the five best and cheapest tours.
func AliasTopTours(c *gin.Context) {
	c.Request.URL.RawQuery = query.WithDefaults(c.Request.URL.Query(), services.TopToursParams).Encode()
	c.Next()
}

func (h TourHandler) List() gin.HandlerFunc { return GetAll(h.Tours, nil) }

func (h TourHandler) Create() gin.HandlerFunc { return CreateOne(h.Tours, nil) }

func (h TourHandler) Delete() gin.HandlerFunc { return DeleteOne(h.Tours) }

// GET /api/v1/tours/:id
func (h TourHandler) Get(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	tour, err := h.Tours.GetWithReviews(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	doc, err := query.Build(c.Request.URL.Query()).Projection.Apply(tour)
	if err != nil {
		fail(c, err)
		return
	}
	respondDoc(c, http.StatusOK, doc)
}

// GET /api/v1/tours/tour/:slug
func (h TourHandler) GetBySlug(c *gin.Context) {
	tour, err := h.Tours.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		fail(c, err)
		return
	}
	doc, err := defaultProjection.Apply(tour)
	if err != nil {
		fail(c, err)
		return
	}
	respondDoc(c, http.StatusOK, doc)
}

// PATCH /api/v1/tours/:id accepts JSON, or a multipart form carrying an
// imageCover file and up to MaxTourImages images.
func (h TourHandler) Update(c *gin.Context) {
	id, err := paramID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	patch, err := bindPatch(c)
	if err != nil {
		fail(c, err)
		return
	}

	cover, err := readUpload(c, "imageCover")
	if err != nil {
		fail(c, err)
		return
	}
	gallery, err := readUploads(c, "images", services.MaxTourImages)
	if err != nil {
		fail(c, err)
		return
	}
	if cover != nil || len(gallery) > 0 {
		imgs, err := h.Images.TourImages(c.Request.Context(), id, cover, gallery)
		if err != nil {
			fail(c, err)
			return
		}
		if imgs.Cover != "" {
			patch["imageCover"] = imgs.Cover
		}
		if len(imgs.Images) > 0 {
			patch["images"] = imgs.Images
		}
	}

	tour, err := h.Tours.Update(c.Request.Context(), id, patch)
	if err != nil {
		fail(c, err)
		return
	}
	doc, err := defaultProjection.Apply(tour)
	if err != nil {
		fail(c, err)
		return
	}
	respondDoc(c, http.StatusOK, doc)
}

// GET /api/v1/tours/tour-stats
func (h TourHandler) Stats(c *gin.Context) {
	stats, err := h.Tours.Stats(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"stats": stats})
}

// GET /api/v1/tours/monthly-plan/:year
func (h TourHandler) MonthlyPlan(c *gin.Context) {
	plan, err := h.Tours.MonthlyPlan(c.Request.Context(), c.Param("year"))
	if err != nil {
		fail(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"plan": plan})
}

// GET /api/v1/tours/tours-within/:distance/center/:latlng/unit/:unit
func (h TourHandler) Within(c *gin.Context) {
	tours, err := h.Tours.Within(c.Request.Context(), c.Param("distance"), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		fail(c, err)
		return
	}
	docs, err := query.ApplyAll(defaultProjection, tours)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "results": len(docs), "data": gin.H{"data": docs}})
}

// GET /api/v1/tours/distances/:latlng/unit/:unit
func (h TourHandler) Distances(c *gin.Context) {
	distances, err := h.Tours.Distances(c.Request.Context(), c.Param("latlng"), c.Param("unit"))
	if err != nil {
		fail(c, err)
		return
	}
	respondDoc(c, http.StatusOK, distances)
}
