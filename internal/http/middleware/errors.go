package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	"github.com/KarinaChumak/tour-booking-system/internal/utils"
)

// ErrorPage is the template rendered for failed page requests.
const ErrorPage = "error.html"

// ErrorHandler renders the last error attached with c.Error. API paths get
// a JSON envelope, pages get ErrorPage when views are loaded. Internal
// details are shown only when dev is set.
func ErrorHandler(dev, views bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		status := domain.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			utils.LogError(GetRequestID(c), "http", c.Request.Method+" "+c.Request.URL.Path, err)
		}
		if c.Writer.Written() {
			return
		}

		msg := domain.PublicMessage(err, dev)
		if IsAPIRequest(c) {
			body := gin.H{"status": statusWord(status), "message": msg}
			if dev {
				body["error"] = err.Error()
				body["request_id"] = GetRequestID(c)
			}
			c.JSON(status, body)
			return
		}

		if !views {
			c.String(status, msg)
			return
		}
		c.HTML(status, ErrorPage, gin.H{
			"title": "Something went wrong!",
			"msg":   pageMessage(err, msg, dev),
			"user":  CurrentUser(c),
		})
	}
}

func IsAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api")
}

func statusWord(status int) string {
	if status >= 400 && status < 500 {
		return "fail"
	}
	return "error"
}

func pageMessage(err error, msg string, dev bool) string {
	if dev || domain.IsOperational(err) {
		return msg
	}
	return "Please try again later."
}
