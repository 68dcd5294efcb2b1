package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
)

var (
	routerMu sync.RWMutex
	router   *gin.Engine
)

// SetRouter stores the active gin engine for later inspection (e.g., /api/routes).
func SetRouter(r *gin.Engine) {
	routerMu.Lock()
	defer routerMu.Unlock()
	router = r
}

type SystemHandler struct {
	DB *sql.DB
}

func (SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "tour booking api running"})
}

func (h SystemHandler) DBCheck(c *gin.Context) {
	if h.DB == nil {
		fail(c, domain.InternalError{Msg: "database not connected"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	var count int
	if err := h.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM tours").Scan(&count); err != nil {
		fail(c, domain.InternalError{Msg: "database query failed", Err: err})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "database connection OK", "tours_in_db": count})
}

func (SystemHandler) Routes(c *gin.Context) {
	routerMu.RLock()
	r := router
	routerMu.RUnlock()
	if r == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "router not ready"})
		return
	}

	routes := r.Routes()
	out := make([]gin.H, 0, len(routes))
	for _, rt := range routes {
		out = append(out, gin.H{
			"method":  rt.Method,
			"path":    rt.Path,
			"handler": rt.Handler,
		})
	}
	c.JSON(http.StatusOK, gin.H{"routes": out})
}
