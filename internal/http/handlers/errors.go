package handlers

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
)

// NoRoute reports unknown paths through the error middleware.
func NoRoute(c *gin.Context) {
	fail(c, domain.NotFoundError{Msg: fmt.Sprintf("Can't find %s on this server!", c.Request.URL.Path)})
}
