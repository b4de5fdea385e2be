package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wildoasis/booking/internal/auth"
	"github.com/wildoasis/booking/internal/entities"
	"github.com/wildoasis/booking/internal/services"
)

const dateLayout = "2006-01-02"

// reservationForm is the booking form as posted. Dates are YYYY-MM-DD.
type reservationForm struct {
	CabinID        uint   `form:"cabin_id" json:"cabin_id"`
	CheckInDate    string `form:"check_in_date" json:"check_in_date"`
	CheckOutDate   string `form:"check_out_date" json:"check_out_date"`
	NumberOfGuests int    `form:"number_of_guests" json:"number_of_guests"`
	HasBreakfast   bool   `form:"has_breakfast" json:"has_breakfast"`
	Observations   string `form:"observations" json:"observations"`
}

func formFromBooking(b *entities.Booking) reservationForm {
	return reservationForm{
		CabinID:        b.CabinID,
		CheckInDate:    b.CheckInDate.Format(dateLayout),
		CheckOutDate:   b.CheckOutDate.Format(dateLayout),
		NumberOfGuests: b.NumberOfGuests,
		HasBreakfast:   b.HasBreakfast,
		Observations:   b.Observations,
	}
}

// parseDate accepts YYYY-MM-DD or RFC 3339. Empty input yields the zero time.
func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, true
	}
	if t, err := time.Parse(dateLayout, raw); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// input converts the form, reporting unparseable dates as field errors.
func (f reservationForm) input() (services.BookingInput, error) {
	ve := services.NewValidationError()
	checkIn, ok := parseDate(f.CheckInDate)
	if !ok {
		ve.Add("check_in_date", "Please enter a valid check-in date")
	}
	checkOut, ok := parseDate(f.CheckOutDate)
	if !ok {
		ve.Add("check_out_date", "Please enter a valid check-out date")
	}
	return services.BookingInput{
		CabinID:        f.CabinID,
		CheckIn:        checkIn,
		CheckOut:       checkOut,
		NumberOfGuests: f.NumberOfGuests,
		HasBreakfast:   f.HasBreakfast,
		Observations:   f.Observations,
	}, ve.OrNil()
}

// ReservationsController serves the guest area: account, reservations and their changes.
type ReservationsController struct {
	bookings *services.BookingService
	cabins   *services.CabinService
	guests   *services.GuestService
	settings *services.SettingsService
	renderer auth.Renderer
	sessions *auth.SessionManager
}

func NewReservationsController(bookings *services.BookingService, cabins *services.CabinService, guests *services.GuestService, settings *services.SettingsService, renderer auth.Renderer, sessions *auth.SessionManager) *ReservationsController {
	return &ReservationsController{
		bookings: bookings,
		cabins:   cabins,
		guests:   guests,
		settings: settings,
		renderer: renderer,
		sessions: sessions,
	}
}

// AccountPage handles GET /account
func (rc *ReservationsController) AccountPage(c *gin.Context) {
	guest, err := rc.guests.GetGuest(auth.GetGuestID(c))
	if err != nil {
		renderServiceError(c, rc.renderer, err, "account")
		return
	}

	bookings, err := rc.bookings.ListGuestBookings(guest.ID)
	if err != nil {
		renderServiceError(c, rc.renderer, err, "account")
		return
	}
	upcoming := 0
	today := rc.bookings.Today()
	for i := range bookings {
		if bookings[i].IsUpcoming(today) && bookings[i].Status.Blocking() {
			upcoming++
		}
	}

	rc.renderer.HTML(c, http.StatusOK, "account.html", gin.H{
		"Title":    "Guest area",
		"Profile":  guest,
		"Upcoming": upcoming,
	})
}

// ListPage handles GET /account/reservations
func (rc *ReservationsController) ListPage(c *gin.Context) {
	bookings, err := rc.bookings.ListGuestBookings(auth.GetGuestID(c))
	if err != nil {
		renderServiceError(c, rc.renderer, err, "list reservations")
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, gin.H{"bookings": bookings})
		return
	}
	rc.renderer.HTML(c, http.StatusOK, "reservations.html", gin.H{
		"Title":    "Your reservations",
		"Bookings": bookings,
	})
}

// bindForm reads a form or JSON body. A malformed body is answered with 400.
func bindForm(c *gin.Context, form *reservationForm) bool {
	if err := c.ShouldBind(form); err != nil {
		respondBadRequest(c, "invalid reservation form")
		return false
	}
	return true
}

// Create handles POST /account/reservations
func (rc *ReservationsController) Create(c *gin.Context) {
	var form reservationForm
	if !bindForm(c, &form) {
		return
	}

	input, err := form.input()
	var booking *entities.Booking
	if err == nil {
		booking, err = rc.bookings.CreateBooking(auth.GetGuestID(c), input)
	}
	if err != nil {
		if ve, ok := services.AsValidationError(err); ok && !wantsJSON(c) && form.CabinID != 0 {
			rc.rerender(c, "cabin.html", form, ve, 0)
			return
		}
		renderServiceError(c, rc.renderer, err, "create reservation")
		return
	}

	if wantsJSON(c) {
		respondCreated(c, booking)
		return
	}
	setFlash(c, rc.sessions, "Thank you for your reservation!")
	c.Redirect(http.StatusSeeOther, "/account/reservations")
}

// rerender draws a reservation form again with field errors.
func (rc *ReservationsController) rerender(c *gin.Context, page string, form reservationForm, ve *services.ValidationError, bookingID uint) {
	stay, err := loadStayContext(rc.cabins, rc.settings, form.CabinID, bookingID)
	if err != nil {
		renderServiceError(c, rc.renderer, err, "reservation form")
		return
	}
	rc.renderer.HTML(c, http.StatusUnprocessableEntity, page, gin.H{
		"Title":     "Cabin " + stay.Cabin.Name,
		"Stay":      stay,
		"Form":      form,
		"BookingID": bookingID,
		"Errors":    ve.Fields,
		"Today":     rc.bookings.Today(),
	})
}

// EditPage handles GET /account/reservations/:id/edit
func (rc *ReservationsController) EditPage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	booking, err := rc.bookings.GetGuestBooking(auth.GetGuestID(c), id)
	if err == nil && !booking.Editable(rc.bookings.Today()) {
		err = services.ErrBookingLocked
	}
	if err != nil {
		renderServiceError(c, rc.renderer, err, "edit reservation")
		return
	}

	stay, err := loadStayContext(rc.cabins, rc.settings, booking.CabinID, booking.ID)
	if err != nil {
		renderServiceError(c, rc.renderer, err, "edit reservation")
		return
	}

	rc.renderer.HTML(c, http.StatusOK, "reservation_edit.html", gin.H{
		"Title":     "Edit reservation #" + formatID(booking.ID),
		"Stay":      stay,
		"Form":      formFromBooking(booking),
		"BookingID": booking.ID,
		"Today":     rc.bookings.Today(),
	})
}

// Update handles POST /account/reservations/:id
// The cabin of an existing reservation cannot be changed.
func (rc *ReservationsController) Update(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var form reservationForm
	if !bindForm(c, &form) {
		return
	}

	guestID := auth.GetGuestID(c)
	input, err := form.input()
	var booking *entities.Booking
	if err == nil {
		booking, err = rc.bookings.UpdateBooking(guestID, id, input)
	}
	if err != nil {
		if ve, ok := services.AsValidationError(err); ok && !wantsJSON(c) {
			existing, lookupErr := rc.bookings.GetGuestBooking(guestID, id)
			if lookupErr != nil {
				renderServiceError(c, rc.renderer, lookupErr, "update reservation")
				return
			}
			form.CabinID = existing.CabinID
			rc.rerender(c, "reservation_edit.html", form, ve, id)
			return
		}
		renderServiceError(c, rc.renderer, err, "update reservation")
		return
	}

	if wantsJSON(c) {
		c.JSON(http.StatusOK, booking)
		return
	}
	setFlash(c, rc.sessions, "Reservation #"+formatID(id)+" updated")
	c.Redirect(http.StatusSeeOther, "/account/reservations")
}

// Cancel handles POST /account/reservations/:id/cancel
func (rc *ReservationsController) Cancel(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := rc.bookings.CancelBooking(auth.GetGuestID(c), id); err != nil {
		renderServiceError(c, rc.renderer, err, "cancel reservation")
		return
	}

	if wantsJSON(c) {
		respondSuccess(c, "reservation cancelled")
		return
	}
	setFlash(c, rc.sessions, "Reservation #"+formatID(id)+" cancelled")
	c.Redirect(http.StatusSeeOther, "/account/reservations")
}
