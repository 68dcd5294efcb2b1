package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
	"github.com/KarinaChumak/tour-booking-system/internal/http/middleware"
	"github.com/KarinaChumak/tour-booking-system/internal/query"
	"github.com/KarinaChumak/tour-booking-system/internal/services"
)

// TourParam names the parent tour in nested review routes. They hang off
// /tours/:id, so the segment is shared with the tour routes.
const TourParam = "id"

type ReviewHandler struct {
	Reviews services.ReviewService
}

func (h ReviewHandler) List() gin.HandlerFunc { return GetAll(h.Reviews, nil) }

func (h ReviewHandler) ListForTour() gin.HandlerFunc { return GetAll(h.Reviews, tourScope) }

func (h ReviewHandler) Get() gin.HandlerFunc { return GetOne(h.Reviews) }

func (h ReviewHandler) Create() gin.HandlerFunc { return CreateOne(h.Reviews, setReviewOwner) }

func (h ReviewHandler) Update() gin.HandlerFunc { return UpdateOne(h.Reviews) }

func (h ReviewHandler) Delete() gin.HandlerFunc { return DeleteOne(h.Reviews) }

// tourScope limits nested listings to the tour in the path.
func tourScope(c *gin.Context) ([]query.Condition, error) {
	if c.Param(TourParam) == "" {
		return nil, nil
	}
	id, err := paramID(c, TourParam)
	if err != nil {
		return nil, err
	}
	return []query.Condition{query.Eq("tour", strconv.FormatInt(id, 10))}, nil
}

// setReviewOwner takes the tour from a nested path and the author from the
// session.
func setReviewOwner(c *gin.Context, rv *models.Review) error {
	if c.Param(TourParam) != "" {
		id, err := paramID(c, TourParam)
		if err != nil {
			return err
		}
		rv.TourID = id
	}
	user := middleware.CurrentUser(c)
	if user == nil {
		return domain.UnauthenticatedError{Reason: domain.ReasonMissingToken}
	}
	rv.UserID = user.ID
	return nil
}
