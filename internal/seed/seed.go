// Package seed resets the database and loads the sample cabins, guests and
// bookings used for demos and local development.
package seed

import (
	_ "embed"
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"gopkg.in/yaml.v3"

	"github.com/wildoasis/booking/internal/database"
	"github.com/wildoasis/booking/internal/database/bookings"
	"github.com/wildoasis/booking/internal/database/cabins"
	"github.com/wildoasis/booking/internal/database/guests"
	"github.com/wildoasis/booking/internal/database/settings"
	"github.com/wildoasis/booking/internal/entities"
	"github.com/wildoasis/booking/internal/services"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// DefaultImageBaseURL is where seeded cabin photos are served from.
const DefaultImageBaseURL = "/static/img/cabins/"

type Fixtures struct {
	Settings     SettingsFixture `yaml:"settings"`
	Cabins       []CabinFixture  `yaml:"cabins"`
	Guests       []GuestFixture  `yaml:"guests"`
	Observations []string        `yaml:"observations"`
}

type SettingsFixture struct {
	MinBookingLength    int `yaml:"min_booking_length"`
	MaxBookingLength    int `yaml:"max_booking_length"`
	MaxGuestsPerBooking int `yaml:"max_guests_per_booking"`
	BreakfastPrice      int `yaml:"breakfast_price"`
}

type CabinFixture struct {
	Name         string `yaml:"name"`
	MaxCapacity  int    `yaml:"max_capacity"`
	RegularPrice int    `yaml:"regular_price"`
	Discount     int    `yaml:"discount"`
	Image        string `yaml:"image"`
	Description  string `yaml:"description"`
}

type GuestFixture struct {
	FullName    string `yaml:"full_name"`
	Email       string `yaml:"email"`
	Nationality string `yaml:"nationality"`
	NationalID  string `yaml:"national_id"`
	CountryFlag string `yaml:"country_flag"`
}

// ParseFixtures decodes fixtures and rejects entries the booking rules would refuse.
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	if f.Settings.MinBookingLength < 1 || f.Settings.MaxBookingLength < f.Settings.MinBookingLength {
		return nil, fmt.Errorf("invalid booking length range %d-%d", f.Settings.MinBookingLength, f.Settings.MaxBookingLength)
	}
	for _, c := range f.Cabins {
		if c.Name == "" || c.MaxCapacity < 1 || c.Discount > c.RegularPrice {
			return nil, fmt.Errorf("invalid cabin fixture %q", c.Name)
		}
	}
	for _, g := range f.Guests {
		if g.FullName == "" || !strings.Contains(g.Email, "@") {
			return nil, fmt.Errorf("invalid guest fixture %q", g.Email)
		}
	}
	return &f, nil
}

// DefaultFixtures returns the embedded sample data.
func DefaultFixtures() (*Fixtures, error) {
	return ParseFixtures(defaultFixtures)
}

// Options tune a seeding run.
type Options struct {
	Bookings     int    // random bookings to generate; default 10
	ImageBaseURL string // prefix for fixture image names
	Seed         int64  // random seed; 0 picks one from the clock
}

// Result summarizes what was loaded.
type Result struct {
	Cabins   int
	Guests   int
	Bookings int
}

// Seeder loads fixtures through the same repositories the site uses, so
// national IDs are sealed and bookings never overlap.
type Seeder struct {
	db       *database.Database
	cabins   *cabins.Repository
	guests   *guests.Repository
	bookings *bookings.Repository
	settings *settings.Repository
	clock    clockwork.Clock
}

func NewSeeder(db *database.Database, sealer guests.FieldSealer, clock clockwork.Clock) *Seeder {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Seeder{
		db:       db,
		cabins:   cabins.NewRepository(db.DB),
		guests:   guests.NewRepository(db.DB, sealer),
		bookings: bookings.NewRepository(db.DB),
		settings: settings.NewRepository(db.DB),
		clock:    clock,
	}
}

// Run empties the domain tables and loads f plus random bookings.
func (s *Seeder) Run(f *Fixtures, opts Options) (*Result, error) {
	if opts.Bookings <= 0 {
		opts.Bookings = 10
	}
	if opts.ImageBaseURL == "" {
		opts.ImageBaseURL = DefaultImageBaseURL
	}
	if opts.Seed == 0 {
		opts.Seed = s.clock.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(opts.Seed))

	if err := s.db.Reset(); err != nil {
		return nil, fmt.Errorf("failed to reset database: %w", err)
	}
	log.Printf("Seed: database cleaned")

	rules, err := s.settings.Update(entities.Settings{
		MinBookingLength:    f.Settings.MinBookingLength,
		MaxBookingLength:    f.Settings.MaxBookingLength,
		MaxGuestsPerBooking: f.Settings.MaxGuestsPerBooking,
		BreakfastPrice:      f.Settings.BreakfastPrice,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}

	cabinList := make([]entities.Cabin, 0, len(f.Cabins))
	for _, c := range f.Cabins {
		cabin := entities.Cabin{
			Name:         c.Name,
			MaxCapacity:  c.MaxCapacity,
			RegularPrice: c.RegularPrice,
			Discount:     c.Discount,
			Description:  c.Description,
		}
		if c.Image != "" {
			cabin.Image = strings.TrimRight(opts.ImageBaseURL, "/") + "/" + c.Image
		}
		if err := s.cabins.Create(&cabin); err != nil {
			return nil, fmt.Errorf("failed to create cabin %s: %w", c.Name, err)
		}
		cabinList = append(cabinList, cabin)
	}

	guestList := make([]entities.Guest, 0, len(f.Guests))
	for _, g := range f.Guests {
		guest := entities.Guest{
			FullName:    g.FullName,
			Email:       g.Email,
			Nationality: g.Nationality,
			NationalID:  g.NationalID,
			CountryFlag: g.CountryFlag,
		}
		if err := s.guests.Create(&guest); err != nil {
			return nil, fmt.Errorf("failed to create guest %s: %w", g.Email, err)
		}
		guestList = append(guestList, guest)
	}
	log.Printf("Seed: created %d cabins and %d guests", len(cabinList), len(guestList))

	created := 0
	if len(cabinList) > 0 && len(guestList) > 0 {
		created, err = s.randomBookings(rng, rules, cabinList, guestList, f.Observations, opts.Bookings)
		if err != nil {
			return nil, err
		}
	}
	log.Printf("Seed: created %d random bookings", created)

	return &Result{Cabins: len(cabinList), Guests: len(guestList), Bookings: created}, nil
}

// randomBookings places up to n stays between a month ago and two months
// ahead. Attempts that would collide with an earlier stay are dropped.
func (s *Seeder) randomBookings(rng *rand.Rand, rules *entities.Settings, cabinList []entities.Cabin, guestList []entities.Guest, observations []string, n int) (int, error) {
	today := entities.StartOfDay(s.clock.Now())
	start := today.AddDate(0, -1, 0)
	spanDays := entities.NightsBetween(start, today.AddDate(0, 2, 0))

	created := 0
	for attempt := 0; attempt < n*5 && created < n; attempt++ {
		cabin := cabinList[rng.Intn(len(cabinList))]
		guest := guestList[rng.Intn(len(guestList))]

		nights := rules.MinBookingLength + rng.Intn(7)
		if nights > rules.MaxBookingLength {
			nights = rules.MaxBookingLength
		}
		checkIn := start.AddDate(0, 0, rng.Intn(spanDays))
		checkOut := checkIn.AddDate(0, 0, nights)

		busy, err := s.bookings.CountOverlapping(cabin.ID, checkIn, checkOut, 0)
		if err != nil {
			return created, fmt.Errorf("failed to check overlap: %w", err)
		}
		if busy > 0 {
			continue
		}

		maxGuests := min(cabin.MaxCapacity, rules.MaxGuestsPerBooking)
		numGuests := rng.Intn(maxGuests) + 1
		breakfast := rng.Intn(2) == 0
		quote := services.PriceStay(&cabin, rules, nights, numGuests, breakfast)
		status := statusFor(rng, today, checkIn, checkOut)

		booking := entities.Booking{
			CabinID:        cabin.ID,
			GuestID:        guest.ID,
			CheckInDate:    checkIn,
			CheckOutDate:   checkOut,
			NumNights:      nights,
			NumberOfGuests: numGuests,
			CabinPrice:     quote.CabinPrice,
			ExtrasPrice:    quote.ExtrasPrice,
			TotalPrice:     quote.TotalPrice,
			HasBreakfast:   breakfast,
			IsPaid:         status == entities.BookingStatusCheckedOut || rng.Intn(5) > 0,
			Status:         status,
		}
		if len(observations) > 0 && rng.Intn(10) >= 7 {
			booking.Observations = observations[rng.Intn(len(observations))]
		}

		if err := s.bookings.Create(&booking); err != nil {
			return created, fmt.Errorf("failed to create booking: %w", err)
		}
		created++
	}
	return created, nil
}

// statusFor picks a status consistent with where the stay sits relative to today.
func statusFor(rng *rand.Rand, today, checkIn, checkOut time.Time) entities.BookingStatus {
	switch {
	case !checkOut.After(today):
		return entities.BookingStatusCheckedOut
	case !checkIn.After(today):
		return entities.BookingStatusCheckedIn
	case rng.Intn(10) == 0:
		return entities.BookingStatusCancelled
	case rng.Intn(2) == 0:
		return entities.BookingStatusPending
	default:
		return entities.BookingStatusConfirmed
	}
}
