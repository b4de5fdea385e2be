package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wildoasis/booking/internal/auth"
	"github.com/wildoasis/booking/internal/services"
)

// PagesController serves the public marketing pages.
type PagesController struct {
	cabins   *services.CabinService
	renderer auth.Renderer
}

func NewPagesController(cabins *services.CabinService, renderer auth.Renderer) *PagesController {
	return &PagesController{cabins: cabins, renderer: renderer}
}

// Home handles GET /
func (pc *PagesController) Home(c *gin.Context) {
	pc.renderer.HTML(c, http.StatusOK, "home.html", gin.H{
		"Title": "Welcome to paradise",
	})
}

// About handles GET /about
func (pc *PagesController) About(c *gin.Context) {
	cabins, err := pc.cabins.ListCabins(services.FilterAll)
	if err != nil {
		renderServiceError(c, pc.renderer, err, "about")
		return
	}
	pc.renderer.HTML(c, http.StatusOK, "about.html", gin.H{
		"Title":      "About",
		"CabinCount": len(cabins),
	})
}

// NotFound renders the 404 page for unknown routes.
func (pc *PagesController) NotFound(c *gin.Context) {
	renderError(c, pc.renderer, http.StatusNotFound, "This page could not be found")
}
