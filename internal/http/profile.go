package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wildoasis/booking/internal/auth"
	"github.com/wildoasis/booking/internal/services"
)

// ProfileController lets a guest fill in the details needed at check-in.
type ProfileController struct {
	guests   *services.GuestService
	renderer auth.Renderer
	sessions *auth.SessionManager
}

func NewProfileController(guests *services.GuestService, renderer auth.Renderer, sessions *auth.SessionManager) *ProfileController {
	return &ProfileController{guests: guests, renderer: renderer, sessions: sessions}
}

func (pc *ProfileController) render(c *gin.Context, status int, form services.ProfileInput, flagURL string, errs map[string][]string) {
	pc.renderer.HTML(c, status, "profile.html", gin.H{
		"Title":     "Update profile",
		"Form":      form,
		"FlagURL":   flagURL,
		"Countries": services.Countries(),
		"Errors":    errs,
	})
}

// ProfilePage handles GET /account/profile
func (pc *ProfileController) ProfilePage(c *gin.Context) {
	guest, err := pc.guests.GetGuest(auth.GetGuestID(c))
	if err != nil {
		renderServiceError(c, pc.renderer, err, "profile")
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{
			"guest":            guest,
			"profile_complete": guest.ProfileComplete(),
		})
		return
	}
	pc.render(c, http.StatusOK, services.ProfileInput{
		FullName:    guest.FullName,
		Nationality: guest.Nationality,
		NationalID:  guest.NationalID,
	}, guest.CountryFlag, nil)
}

// UpdateProfile handles POST /account/profile
func (pc *ProfileController) UpdateProfile(c *gin.Context) {
	var form services.ProfileInput
	if err := c.ShouldBind(&form); err != nil {
		respondBadRequest(c, "invalid profile form")
		return
	}

	guest, err := pc.guests.UpdateProfile(auth.GetGuestID(c), form)
	if err != nil {
		if ve, ok := services.AsValidationError(err); ok && !wantsJSON(c) {
			pc.render(c, http.StatusUnprocessableEntity, form, "", ve.Fields)
			return
		}
		renderServiceError(c, pc.renderer, err, "update profile")
		return
	}

	if pc.sessions != nil {
		pc.sessions.SetGuestName(c.Request, guest.FullName)
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"guest": guest})
		return
	}
	setFlash(c, pc.sessions, "Profile updated")
	c.Redirect(http.StatusSeeOther, "/account/profile")
}
