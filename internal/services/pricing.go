package services

import "github.com/wildoasis/booking/internal/entities"

// Quote is the price breakdown of a stay.
type Quote struct {
	Nights       int `json:"num_nights"`
	NightlyPrice int `json:"nightly_price"`
	CabinPrice   int `json:"cabin_price"`
	ExtrasPrice  int `json:"extras_price"`
	TotalPrice   int `json:"total_price"`
}

// PriceStay computes cabin and breakfast charges. Breakfast is charged per guest per night.
func PriceStay(cabin *entities.Cabin, settings *entities.Settings, nights, guests int, breakfast bool) Quote {
	q := Quote{
		Nights:       nights,
		NightlyPrice: cabin.NightlyPrice(),
	}
	q.CabinPrice = nights * q.NightlyPrice
	if breakfast {
		q.ExtrasPrice = nights * guests * settings.BreakfastPrice
	}
	q.TotalPrice = q.CabinPrice + q.ExtrasPrice
	return q
}
