package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/wildoasis/booking/internal/auth"
	"github.com/wildoasis/booking/internal/entities"
	"github.com/wildoasis/booking/internal/services"
)

// filterOption is one of the capacity buttons on the cabins page.
type filterOption struct {
	Value string
	Label string
}

var capacityFilters = []filterOption{
	{Value: services.FilterAll, Label: "All cabins"},
	{Value: services.FilterSmall, Label: "1–3 guests"},
	{Value: services.FilterMedium, Label: "4–7 guests"},
	{Value: services.FilterLarge, Label: "8+ guests"},
}

// stayContext is what the reservation form needs to know about a cabin.
type stayContext struct {
	Cabin     *entities.Cabin
	Settings  *entities.Settings
	Booked    []entities.DateRange
	MaxGuests int
}

// GuestOptions lists the party sizes the form offers.
func (sc *stayContext) GuestOptions() []int {
	opts := make([]int, 0, sc.MaxGuests)
	for i := 1; i <= sc.MaxGuests; i++ {
		opts = append(opts, i)
	}
	return opts
}

// loadStayContext fetches the cabin, booking rules and booked dates in parallel.
// excludeID keeps a booking being edited from blocking its own dates.
func loadStayContext(cabins *services.CabinService, settings *services.SettingsService, cabinID, excludeID uint) (*stayContext, error) {
	var sc stayContext
	var g errgroup.Group
	g.Go(func() error {
		cabin, err := cabins.GetCabin(cabinID)
		sc.Cabin = cabin
		return err
	})
	g.Go(func() error {
		rules, err := settings.Get()
		sc.Settings = rules
		return err
	})
	g.Go(func() error {
		booked, err := cabins.Availability(cabinID, excludeID)
		sc.Booked = booked
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sc.MaxGuests = min(sc.Cabin.MaxCapacity, sc.Settings.MaxGuestsPerBooking)
	return &sc, nil
}

type CabinsController struct {
	cabins   *services.CabinService
	bookings *services.BookingService
	settings *services.SettingsService
	renderer auth.Renderer
}

func NewCabinsController(cabins *services.CabinService, bookings *services.BookingService, settings *services.SettingsService, renderer auth.Renderer) *CabinsController {
	return &CabinsController{
		cabins:   cabins,
		bookings: bookings,
		settings: settings,
		renderer: renderer,
	}
}

// ListPage handles GET /cabins?capacity=
func (cc *CabinsController) ListPage(c *gin.Context) {
	filter := services.ParseFilter(c.Query("capacity"))
	cabins, err := cc.cabins.ListCabins(filter)
	if err != nil {
		renderServiceError(c, cc.renderer, err, "list cabins")
		return
	}

	cc.renderer.HTML(c, http.StatusOK, "cabins.html", gin.H{
		"Title":   "Cabins",
		"Cabins":  cabins,
		"Filter":  filter,
		"Filters": capacityFilters,
	})
}

// DetailPage handles GET /cabins/:id
// Shows the cabin with the reservation form for signed-in guests.
func (cc *CabinsController) DetailPage(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	stay, err := loadStayContext(cc.cabins, cc.settings, id, 0)
	if err != nil {
		renderServiceError(c, cc.renderer, err, "cabin page")
		return
	}

	cc.renderer.HTML(c, http.StatusOK, "cabin.html", gin.H{
		"Title": "Cabin " + stay.Cabin.Name,
		"Stay":  stay,
		"Form":  reservationForm{CabinID: id, NumberOfGuests: 1},
		"Today": cc.bookings.Today(),
	})
}

// bookedStay is the public view of a booking: dates only, no guest data.
type bookedStay struct {
	CheckInDate  time.Time              `json:"check_in_date"`
	CheckOutDate time.Time              `json:"check_out_date"`
	NumNights    int                    `json:"num_nights"`
	Status       entities.BookingStatus `json:"status"`
}

type cabinResponse struct {
	ID           uint         `json:"id"`
	Name         string       `json:"name"`
	MaxCapacity  int          `json:"max_capacity"`
	RegularPrice int          `json:"regular_price"`
	Discount     int          `json:"discount"`
	NightlyPrice int          `json:"nightly_price"`
	Description  string       `json:"description"`
	Image        string       `json:"image,omitempty"`
	Bookings     []bookedStay `json:"bookings"`
}

// GetCabin handles GET /api/cabins/:id
// Returns the cabin with a summary of its upcoming bookings.
func (cc *CabinsController) GetCabin(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	cabin, err := cc.cabins.GetCabinWithBookings(id)
	if err != nil {
		respondServiceError(c, err, "get cabin")
		return
	}

	resp := cabinResponse{
		ID:           cabin.ID,
		Name:         cabin.Name,
		MaxCapacity:  cabin.MaxCapacity,
		RegularPrice: cabin.RegularPrice,
		Discount:     cabin.Discount,
		NightlyPrice: cabin.NightlyPrice(),
		Description:  cabin.Description,
		Image:        cabin.Image,
		Bookings:     make([]bookedStay, 0, len(cabin.Bookings)),
	}
	for _, b := range cabin.Bookings {
		resp.Bookings = append(resp.Bookings, bookedStay{
			CheckInDate:  b.CheckInDate,
			CheckOutDate: b.CheckOutDate,
			NumNights:    b.NumNights,
			Status:       b.Status,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// BookedDates handles GET /api/cabins/:id/booked-dates?exclude=
// exclude is honoured only for a booking the caller may edit.
func (cc *CabinsController) BookedDates(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	exclude := optionalQueryID(c, "exclude")
	if exclude != 0 && !auth.IsStaff(c) {
		if _, err := cc.bookings.GetGuestBooking(auth.GetGuestID(c), exclude); err != nil {
			exclude = 0
		}
	}

	ranges, err := cc.cabins.Availability(id, exclude)
	if err != nil {
		respondServiceError(c, err, "booked dates")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"cabin_id": id,
		"booked":   ranges,
	})
}

// GetSettings handles GET /api/settings
func (cc *CabinsController) GetSettings(c *gin.Context) {
	rules, err := cc.settings.Get()
	if err != nil {
		respondInternalError(c, err, "get settings")
		return
	}
	c.JSON(http.StatusOK, rules)
}
