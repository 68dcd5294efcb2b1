package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KarinaChumak/tour-booking-system/internal/http/middleware"
	"github.com/KarinaChumak/tour-booking-system/internal/services"
)

type UserHandler struct {
	Users  services.UserService
	Images services.ImageService
}

func (h UserHandler) List() gin.HandlerFunc { return GetAll(h.Users, nil) }

func (h UserHandler) Get() gin.HandlerFunc { return GetOne(h.Users) }

func (h UserHandler) Update() gin.HandlerFunc { return UpdateOne(h.Users) }

func (h UserHandler) Delete() gin.HandlerFunc { return DeleteOne(h.Users) }

// POST /api/v1/users (admin)
func (h UserHandler) Create(c *gin.Context) {
	var req services.NewUserInput
	if err := bindJSON(c, &req); err != nil {
		fail(c, err)
		return
	}
	u, err := h.Users.Create(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	respondDoc(c, http.StatusCreated, u.ToPublic())
}

// GET /api/v1/users/me
func (h UserHandler) GetMe(c *gin.Context) {
	u, err := h.Users.GetMe(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respondDoc(c, http.StatusOK, u.ToPublic())
}

// PATCH /api/v1/users/updateMe accepts JSON, or a multipart form with an
// optional photo.
func (h UserHandler) UpdateMe(c *gin.Context) {
	me := middleware.CurrentUser(c)
	body, err := bindPatch(c)
	if err != nil {
		fail(c, err)
		return
	}

	photo := ""
	data, err := readUpload(c, "photo")
	if err != nil {
		fail(c, err)
		return
	}
	if data != nil {
		photo, err = h.Images.UserPhoto(c.Request.Context(), me.ID, data)
		if err != nil {
			fail(c, err)
			return
		}
	}

	u, err := h.Users.UpdateMe(c.Request.Context(), me, body, photo)
	if err != nil {
		fail(c, err)
		return
	}
	respondData(c, http.StatusOK, gin.H{"user": u.ToPublic()})
}

// DELETE /api/v1/users/deleteMe
func (h UserHandler) DeleteMe(c *gin.Context) {
	if err := h.Users.DeleteMe(c.Request.Context(), middleware.CurrentUser(c)); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
