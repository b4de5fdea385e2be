package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wildoasis/booking/internal/entities"
)

func TestPriceStay(t *testing.T) {
	settings := entities.DefaultSettings()

	tests := []struct {
		name      string
		cabin     entities.Cabin
		nights    int
		guests    int
		breakfast bool
		want      Quote
	}{
		{
			name:   "no discount no breakfast",
			cabin:  entities.Cabin{RegularPrice: 250},
			nights: 3, guests: 2,
			want: Quote{Nights: 3, NightlyPrice: 250, CabinPrice: 750, TotalPrice: 750},
		},
		{
			name:   "discounted",
			cabin:  entities.Cabin{RegularPrice: 350, Discount: 25},
			nights: 5, guests: 1,
			want: Quote{Nights: 5, NightlyPrice: 325, CabinPrice: 1625, TotalPrice: 1625},
		},
		{
			name:   "breakfast per guest per night",
			cabin:  entities.Cabin{RegularPrice: 100},
			nights: 4, guests: 3, breakfast: true,
			want: Quote{Nights: 4, NightlyPrice: 100, CabinPrice: 400, ExtrasPrice: 180, TotalPrice: 580},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PriceStay(&tt.cabin, &settings, tt.nights, tt.guests, tt.breakfast)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidationError(t *testing.T) {
	ve := NewValidationError()
	assert.NoError(t, ve.OrNil())

	ve.Add("name", "required")
	ve.Add("name", "too long")
	ve.Add("age", "must be positive")

	assert.True(t, ve.Has("name"))
	assert.Equal(t, "required", ve.First("name"))
	assert.Equal(t, "", ve.First("missing"))
	assert.Equal(t, "validation failed: age: must be positive; name: required, too long", ve.Error())

	got, ok := AsValidationError(ve.OrNil())
	assert.True(t, ok)
	assert.Same(t, ve, got)
}
