package handlers

import (
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/KarinaChumak/tour-booking-system/internal/domain"
	"github.com/KarinaChumak/tour-booking-system/internal/domain/models"
	"github.com/KarinaChumak/tour-booking-system/internal/http/middleware"
	"github.com/KarinaChumak/tour-booking-system/internal/query"
	"github.com/KarinaChumak/tour-booking-system/internal/services"
	"github.com/KarinaChumak/tour-booking-system/internal/utils"
)

const (
	tourPageCSP  = "connect-src https://*.tiles.mapbox.com https://api.mapbox.com https://events.mapbox.com"
	loginPageCSP = "connect-src 'self' https://cdnjs.cloudflare.com"
)

var alerts = map[string]string{
	"booking": "Your booking was successful! Please check your email for a confirmation. " +
		"If your booking doesn't show up here immediatly, please come back later.",
}

// TemplateFuncs are the helpers available to page templates.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"firstName":   utils.FirstName,
		"monthYear":   utils.FormatMonthYear,
		"usd":         utils.FormatUSD,
		"add":         func(a, b int) int { return a + b },
		"locationsJS": locationsJSON,
	}
}

// LoadTemplates parses every page matching glob.
func LoadTemplates(glob string) (*template.Template, error) {
	t, err := template.New("").Funcs(TemplateFuncs()).ParseGlob(glob)
	if err != nil {
		return nil, fmt.Errorf("parse templates %q: %w", glob, err)
	}
	return t, nil
}

// locationsJSON feeds tour stops to the map script through a data attribute.
func locationsJSON(locs []models.Location) (string, error) {
	raw, err := json.Marshal(locs)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

type ViewHandler struct {
	Tours    services.TourService
	Bookings services.BookingService
	Users    services.UserService
	// ImageBaseURL prefixes image names in templates.
	ImageBaseURL string
}

// Alerts exposes a known ?alert= banner to every page.
func Alerts(c *gin.Context) {
	if msg, ok := alerts[c.Query("alert")]; ok {
		c.Set("alert", msg)
	}
	c.Next()
}

func (h ViewHandler) render(c *gin.Context, page, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["title"] = title
	if _, ok := data["user"]; !ok {
		data["user"] = middleware.CurrentUser(c)
	}
	data["imageBase"] = h.ImageBaseURL
	if alert, ok := c.Get("alert"); ok {
		data["alert"] = alert
	}
	c.HTML(http.StatusOK, page, data)
}

// GET /
func (h ViewHandler) Overview(c *gin.Context) {
	tours, _, err := h.Tours.List(c.Request.Context(), query.Build(nil))
	if err != nil {
		fail(c, err)
		return
	}
	h.render(c, "overview.html", "All tours", gin.H{"tours": tours})
}

// GET /tour/:slug
func (h ViewHandler) Tour(c *gin.Context) {
	tour, err := h.Tours.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if domain.IsNotFound(err) {
			err = domain.NotFoundError{Msg: "There is no tour found", Err: err}
		}
		fail(c, err)
		return
	}
	c.Header("Content-Security-Policy", tourPageCSP)
	h.render(c, "tour.html", fmt.Sprintf("%s tour", tour.Name), gin.H{"tour": tour})
}

// GET /login
func (h ViewHandler) Login(c *gin.Context) {
	c.Header("Content-Security-Policy", loginPageCSP)
	h.render(c, "login.html", "Log into your account", nil)
}

// GET /me
func (h ViewHandler) Account(c *gin.Context) {
	h.render(c, "account.html", "Your account", nil)
}

// GET /my-tours
func (h ViewHandler) MyTours(c *gin.Context) {
	user := middleware.CurrentUser(c)
	tours, err := h.Bookings.MyTours(c.Request.Context(), user.ID)
	if err != nil {
		fail(c, err)
		return
	}
	h.render(c, "overview.html", "My tours", gin.H{"tours": tours})
}

// POST /submit-user-data handles the plain account form.
func (h ViewHandler) SubmitUserData(c *gin.Context) {
	me := middleware.CurrentUser(c)
	body := map[string]any{
		"name":  c.PostForm("name"),
		"email": c.PostForm("email"),
	}
	updated, err := h.Users.UpdateMe(c.Request.Context(), me, body, "")
	if err != nil {
		fail(c, err)
		return
	}
	h.render(c, "account.html", "Your account", gin.H{"user": &updated})
}
