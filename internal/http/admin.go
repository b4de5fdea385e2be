package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wildoasis/booking/internal/audit"
	"github.com/wildoasis/booking/internal/auth"
	"github.com/wildoasis/booking/internal/entities"
	"github.com/wildoasis/booking/internal/services"
)

const adminPageSize = 20

// AdminController serves the staff back office.
type AdminController struct {
	cabins   *services.CabinService
	bookings *services.BookingService
	guests   *services.GuestService
	settings *services.SettingsService
	renderer auth.Renderer
	sessions *auth.SessionManager
}

func NewAdminController(cabins *services.CabinService, bookings *services.BookingService, guests *services.GuestService, settings *services.SettingsService, renderer auth.Renderer, sessions *auth.SessionManager) *AdminController {
	return &AdminController{
		cabins:   cabins,
		bookings: bookings,
		guests:   guests,
		settings: settings,
		renderer: renderer,
		sessions: sessions,
	}
}

func staffActor(c *gin.Context) audit.Actor {
	return audit.StaffActor(auth.GetUserID(c), c.ClientIP())
}

// done answers a successful staff action with JSON or a redirect carrying a flash message.
func (ac *AdminController) done(c *gin.Context, status int, data any, flash, location string) {
	if wantsJSON(c) {
		c.JSON(status, data)
		return
	}
	setFlash(c, ac.sessions, flash)
	c.Redirect(http.StatusSeeOther, location)
}

// Dashboard handles GET /admin
func (ac *AdminController) Dashboard(c *gin.Context) {
	dash, err := ac.bookings.Dashboard()
	if err != nil {
		renderServiceError(c, ac.renderer, err, "dashboard")
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, dash)
		return
	}
	ac.renderer.HTML(c, http.StatusOK, "admin_dashboard.html", gin.H{
		"Title":     "Dashboard",
		"Dashboard": dash,
		"Statuses":  entities.AllBookingStatuses,
	})
}

// --- Cabins ---

// imageUpload opens the optional "image" file of a multipart form.
// The returned closer must be called once the upload is consumed.
func imageUpload(c *gin.Context) (*services.ImageUpload, func(), error) {
	header, err := c.FormFile("image")
	if err != nil {
		// No file part, or not a multipart request at all.
		return nil, func() {}, nil
	}
	if header.Size == 0 {
		return nil, func() {}, nil
	}
	f, err := header.Open()
	if err != nil {
		return nil, func() {}, err
	}
	return &services.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     f,
	}, func() { f.Close() }, nil
}

func (ac *AdminController) renderCabins(c *gin.Context, status int, form services.CabinInput, errs map[string][]string) {
	cabins, err := ac.cabins.ListCabins(services.FilterAll)
	if err != nil {
		renderServiceError(c, ac.renderer, err, "admin cabins")
		return
	}
	ac.renderer.HTML(c, status, "admin_cabins.html", gin.H{
		"Title":  "All cabins",
		"Cabins": cabins,
		"Form":   form,
		"Errors": errs,
	})
}

// Cabins handles GET /admin/cabins
func (ac *AdminController) Cabins(c *gin.Context) {
	if wantsJSON(c) {
		cabins, err := ac.cabins.ListCabins(services.FilterAll)
		if err != nil {
			respondInternalError(c, err, "admin cabins")
			return
		}
		c.JSON(http.StatusOK, gin.H{"cabins": cabins})
		return
	}
	ac.renderCabins(c, http.StatusOK, services.CabinInput{MaxCapacity: 2}, nil)
}

// CreateCabin handles POST /admin/cabins
// Accepts a multipart form with an optional "image" file.
func (ac *AdminController) CreateCabin(c *gin.Context) {
	var form services.CabinInput
	if err := c.ShouldBind(&form); err != nil {
		respondBadRequest(c, "invalid cabin form")
		return
	}
	img, closeImg, err := imageUpload(c)
	if err != nil {
		respondBadRequest(c, "could not read uploaded image")
		return
	}
	defer closeImg()

	cabin, err := ac.cabins.CreateCabin(c.Request.Context(), staffActor(c), form, img)
	if err != nil {
		if ve, ok := services.AsValidationError(err); ok && !wantsJSON(c) {
			ac.renderCabins(c, http.StatusUnprocessableEntity, form, ve.Fields)
			return
		}
		renderServiceError(c, ac.renderer, err, "create cabin")
		return
	}
	ac.done(c, http.StatusCreated, cabin, "Cabin "+cabin.Name+" created", "/admin/cabins")
}

func (ac *AdminController) renderCabinEdit(c *gin.Context, status int, cabin *entities.Cabin, form services.CabinInput, errs map[string][]string) {
	ac.renderer.HTML(c, status, "admin_cabin_edit.html", gin.H{
		"Title":  "Edit cabin " + cabin.Name,
		"Cabin":  cabin,
		"Form":   form,
		"Errors": errs,
	})
}

// EditCabinPage handles GET /admin/cabins/:id/edit
func (ac *AdminController) EditCabinPage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	cabin, err := ac.cabins.GetCabin(id)
	if err != nil {
		renderServiceError(c, ac.renderer, err, "edit cabin")
		return
	}
	ac.renderCabinEdit(c, http.StatusOK, cabin, services.CabinInput{
		Name:         cabin.Name,
		MaxCapacity:  cabin.MaxCapacity,
		RegularPrice: cabin.RegularPrice,
		Discount:     cabin.Discount,
		Description:  cabin.Description,
	}, nil)
}

// UpdateCabin handles POST /admin/cabins/:id
// A new image replaces the old one; without one the current image is kept.
func (ac *AdminController) UpdateCabin(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var form services.CabinInput
	if err := c.ShouldBind(&form); err != nil {
		respondBadRequest(c, "invalid cabin form")
		return
	}
	img, closeImg, err := imageUpload(c)
	if err != nil {
		respondBadRequest(c, "could not read uploaded image")
		return
	}
	defer closeImg()

	cabin, err := ac.cabins.UpdateCabin(c.Request.Context(), staffActor(c), id, form, img)
	if err != nil {
		if ve, ok := services.AsValidationError(err); ok && !wantsJSON(c) {
			current, lookupErr := ac.cabins.GetCabin(id)
			if lookupErr != nil {
				renderServiceError(c, ac.renderer, lookupErr, "update cabin")
				return
			}
			ac.renderCabinEdit(c, http.StatusUnprocessableEntity, current, form, ve.Fields)
			return
		}
		renderServiceError(c, ac.renderer, err, "update cabin")
		return
	}
	ac.done(c, http.StatusOK, cabin, "Cabin "+cabin.Name+" updated", "/admin/cabins")
}

// DeleteCabin handles POST /admin/cabins/:id/delete
func (ac *AdminController) DeleteCabin(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ac.cabins.DeleteCabin(c.Request.Context(), staffActor(c), id); err != nil {
		renderServiceError(c, ac.renderer, err, "delete cabin")
		return
	}
	ac.done(c, http.StatusOK, SuccessResponse{Message: "cabin deleted"}, "Cabin deleted", "/admin/cabins")
}

// --- Settings ---

func (ac *AdminController) renderSettings(c *gin.Context, status int, form services.SettingsInput, errs map[string][]string) {
	ac.renderer.HTML(c, status, "admin_settings.html", gin.H{
		"Title":  "Hotel settings",
		"Form":   form,
		"Errors": errs,
	})
}

// SettingsPage handles GET /admin/settings
func (ac *AdminController) SettingsPage(c *gin.Context) {
	rules, err := ac.settings.Get()
	if err != nil {
		renderServiceError(c, ac.renderer, err, "settings")
		return
	}
	ac.renderSettings(c, http.StatusOK, services.SettingsInput{
		MinBookingLength:    rules.MinBookingLength,
		MaxBookingLength:    rules.MaxBookingLength,
		MaxGuestsPerBooking: rules.MaxGuestsPerBooking,
		BreakfastPrice:      rules.BreakfastPrice,
	}, nil)
}

// UpdateSettings handles POST /admin/settings
func (ac *AdminController) UpdateSettings(c *gin.Context) {
	var form services.SettingsInput
	if err := c.ShouldBind(&form); err != nil {
		respondBadRequest(c, "invalid settings form")
		return
	}

	rules, err := ac.settings.Update(staffActor(c), form)
	if err != nil {
		if ve, ok := services.AsValidationError(err); ok && !wantsJSON(c) {
			ac.renderSettings(c, http.StatusUnprocessableEntity, form, ve.Fields)
			return
		}
		renderServiceError(c, ac.renderer, err, "update settings")
		return
	}
	ac.done(c, http.StatusOK, rules, "Settings saved", "/admin/settings")
}

// --- Bookings ---

// Bookings handles GET /admin/bookings?status=&page=
func (ac *AdminController) Bookings(c *gin.Context) {
	status := c.Query("status")
	if !entities.BookingStatus(status).Valid() {
		status = ""
	}
	page, limit, offset := pageParams(c, adminPageSize)

	bookings, total, err := ac.bookings.ListBookings(status, limit, offset)
	if err != nil {
		renderServiceError(c, ac.renderer, err, "admin bookings")
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, PaginatedResponse{
			Data:       bookings,
			Total:      total,
			Limit:      limit,
			Offset:     offset,
			HasMore:    int64(offset+len(bookings)) < total,
			TotalPages: totalPages(total, limit),
		})
		return
	}
	ac.renderer.HTML(c, http.StatusOK, "admin_bookings.html", gin.H{
		"Title":       "All bookings",
		"Bookings":    bookings,
		"Status":      status,
		"Statuses":    entities.AllBookingStatuses,
		"CurrentPage": page,
		"TotalPages":  totalPages(total, limit),
		"Total":       total,
	})
}

// Booking handles GET /admin/bookings/:id
func (ac *AdminController) Booking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	booking, err := ac.bookings.GetBooking(id)
	if err != nil {
		renderServiceError(c, ac.renderer, err, "admin booking")
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, booking)
		return
	}
	ac.renderer.HTML(c, http.StatusOK, "admin_booking.html", gin.H{
		"Title":        "Booking #" + formatID(booking.ID),
		"Booking":      booking,
		"NextStatuses": services.NextStatuses(booking.Status),
	})
}

type statusRequest struct {
	Status string `form:"status" json:"status"`
}

// SetStatus handles POST /admin/bookings/:id/status
func (ac *AdminController) SetStatus(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBind(&req); err != nil || !entities.BookingStatus(req.Status).Valid() {
		respondBadRequest(c, "invalid status")
		return
	}

	booking, err := ac.bookings.SetStatus(staffActor(c), id, entities.BookingStatus(req.Status))
	if err != nil {
		renderServiceError(c, ac.renderer, err, "set booking status")
		return
	}
	ac.done(c, http.StatusOK, booking, "Booking #"+formatID(id)+" is now "+req.Status, "/admin/bookings/"+formatID(id))
}

type paidRequest struct {
	Paid bool `form:"paid" json:"paid"`
}

// MarkPaid handles POST /admin/bookings/:id/paid
func (ac *AdminController) MarkPaid(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req paidRequest
	if err := c.ShouldBind(&req); err != nil {
		respondBadRequest(c, "invalid paid flag")
		return
	}

	if err := ac.bookings.MarkPaid(staffActor(c), id, req.Paid); err != nil {
		renderServiceError(c, ac.renderer, err, "mark booking paid")
		return
	}
	msg := "Booking #" + formatID(id) + " marked as paid"
	if !req.Paid {
		msg = "Booking #" + formatID(id) + " marked as unpaid"
	}
	ac.done(c, http.StatusOK, SuccessResponse{Message: msg}, msg, "/admin/bookings/"+formatID(id))
}

// DeleteBooking handles POST /admin/bookings/:id/delete
func (ac *AdminController) DeleteBooking(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := ac.bookings.DeleteBooking(staffActor(c), id); err != nil {
		renderServiceError(c, ac.renderer, err, "delete booking")
		return
	}
	ac.done(c, http.StatusOK, SuccessResponse{Message: "booking deleted"}, "Booking #"+formatID(id)+" deleted", "/admin/bookings")
}

// --- Guests ---

// Guests handles GET /admin/guests
func (ac *AdminController) Guests(c *gin.Context) {
	guests, err := ac.guests.ListGuests()
	if err != nil {
		renderServiceError(c, ac.renderer, err, "admin guests")
		return
	}
	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"guests": guests})
		return
	}
	ac.renderer.HTML(c, http.StatusOK, "admin_guests.html", gin.H{
		"Title":  "Guests",
		"Guests": guests,
	})
}
