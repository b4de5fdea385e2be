package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildoasis/booking/internal/audit"
)

type recordingRemover struct {
	keys []string
}

func (r *recordingRemover) RemoveImage(_ context.Context, key string) error {
	r.keys = append(r.keys, key)
	return nil
}

func TestParseFilter(t *testing.T) {
	assert.Equal(t, FilterSmall, ParseFilter("small"))
	assert.Equal(t, FilterMedium, ParseFilter(" Medium "))
	assert.Equal(t, FilterLarge, ParseFilter("LARGE"))
	assert.Equal(t, FilterAll, ParseFilter(""))
	assert.Equal(t, FilterAll, ParseFilter("huge"))
}

func TestCabinService_ListCabins(t *testing.T) {
	env := setupTestEnv(t)
	env.createCabin(t, "001", 2, 250, 0)
	env.createCabin(t, "002", 3, 350, 25)
	env.createCabin(t, "003", 4, 300, 0)
	env.createCabin(t, "004", 8, 500, 50)
	env.createCabin(t, "005", 10, 1000, 100)

	tests := []struct {
		filter string
		names  []string
	}{
		{"all", []string{"001", "002", "003", "004", "005"}},
		{"small", []string{"001", "002"}},
		{"medium", []string{"003"}},
		{"large", []string{"004", "005"}},
		{"nonsense", []string{"001", "002", "003", "004", "005"}},
	}

	for _, tt := range tests {
		t.Run(tt.filter, func(t *testing.T) {
			list, err := env.cabins.ListCabins(tt.filter)
			require.NoError(t, err)
			names := make([]string, 0, len(list))
			for _, c := range list {
				names = append(names, c.Name)
			}
			assert.Equal(t, tt.names, names)
		})
	}
}

func TestCabinService_GetCabin(t *testing.T) {
	env := setupTestEnv(t)
	cabin := env.createCabin(t, "001", 2, 250, 0)

	got, err := env.cabins.GetCabin(cabin.ID)
	require.NoError(t, err)
	assert.Equal(t, "001", got.Name)

	_, err = env.cabins.GetCabin(9999)
	assert.ErrorIs(t, err, ErrCabinNotFound)

	_, err = env.cabins.GetCabinWithBookings(9999)
	assert.ErrorIs(t, err, ErrCabinNotFound)
}

func TestCabinService_Availability(t *testing.T) {
	env := setupTestEnv(t)
	cabin := env.createCabin(t, "001", 4, 300, 0)
	guest := env.createGuest(t, "guest@example.com")

	first, err := env.bookings.CreateBooking(guest.ID, env.stay(cabin.ID, 3, 4, 2))
	require.NoError(t, err)
	second, err := env.bookings.CreateBooking(guest.ID, env.stay(cabin.ID, 20, 3, 2))
	require.NoError(t, err)
	cancelled, err := env.bookings.CreateBooking(guest.ID, env.stay(cabin.ID, 40, 3, 2))
	require.NoError(t, err)
	require.NoError(t, env.bookings.CancelBooking(guest.ID, cancelled.ID))

	ranges, err := env.cabins.Availability(cabin.ID, 0)
	require.NoError(t, err)
	require.Len(t, ranges, 2)
	assert.True(t, ranges[0].From.Equal(first.CheckInDate))
	assert.True(t, ranges[0].To.Equal(first.CheckOutDate))
	assert.True(t, ranges[1].From.Equal(second.CheckInDate))

	ranges, err = env.cabins.Availability(cabin.ID, first.ID)
	require.NoError(t, err)
	assert.Len(t, ranges, 1)

	withBookings, err := env.cabins.GetCabinWithBookings(cabin.ID)
	require.NoError(t, err)
	assert.Len(t, withBookings.Bookings, 2)

	_, err = env.cabins.Availability(9999, 0)
	assert.ErrorIs(t, err, ErrCabinNotFound)
}

func TestCabinService_CreateCabin(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	staff := audit.StaffActor(1, "")

	cabin, err := env.cabins.CreateCabin(ctx, staff, CabinInput{
		Name:         " 009 ",
		MaxCapacity:  6,
		RegularPrice: 400,
		Discount:     40,
		Description:  "Lakeside",
	}, jpeg("photo.jpg", 512))
	require.NoError(t, err)

	assert.Equal(t, "009", cabin.Name)
	assert.NotEmpty(t, cabin.ImageKey)
	assert.Equal(t, "https://cdn.test/"+cabin.ImageKey, cabin.Image)
	assert.Len(t, env.store.objects[cabin.ImageKey], 512)
	assert.Contains(t, env.audit.actions(), "cabin_create")
}

func TestCabinService_CreateCabin_Validation(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	staff := audit.StaffActor(1, "")
	env.createCabin(t, "001", 2, 250, 0)

	tests := []struct {
		name  string
		input CabinInput
		img   *ImageUpload
		field string
	}{
		{"missing name", CabinInput{MaxCapacity: 2, RegularPrice: 100}, nil, "name"},
		{"zero capacity", CabinInput{Name: "x", RegularPrice: 100}, nil, "max_capacity"},
		{"negative price", CabinInput{Name: "x", MaxCapacity: 2, RegularPrice: -1}, nil, "regular_price"},
		{"discount above price", CabinInput{Name: "x", MaxCapacity: 2, RegularPrice: 100, Discount: 150}, nil, "discount"},
		{"duplicate name", CabinInput{Name: "001", MaxCapacity: 2, RegularPrice: 100}, nil, "name"},
		{"bad image type", CabinInput{Name: "x", MaxCapacity: 2, RegularPrice: 100}, &ImageUpload{Filename: "a.gif", ContentType: "image/gif", Size: 10}, "image"},
		{"image too large", CabinInput{Name: "x", MaxCapacity: 2, RegularPrice: 100}, &ImageUpload{Filename: "a.png", ContentType: "image/png", Size: MaxImageSize + 1}, "image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.cabins.CreateCabin(ctx, staff, tt.input, tt.img)
			ve, ok := AsValidationError(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.True(t, ve.Has(tt.field), "fields: %v", ve.Fields)
		})
	}
	assert.Empty(t, env.store.objects)
}

func TestCabinService_UpdateCabin_ReplacesImage(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	staff := audit.StaffActor(1, "")
	remover := &recordingRemover{}
	env.cabins.remover = remover

	cabin, err := env.cabins.CreateCabin(ctx, staff, CabinInput{Name: "001", MaxCapacity: 2, RegularPrice: 250}, jpeg("old.jpg", 64))
	require.NoError(t, err)
	oldKey := cabin.ImageKey

	updated, err := env.cabins.UpdateCabin(ctx, staff, cabin.ID, CabinInput{Name: "001", MaxCapacity: 3, RegularPrice: 275}, jpeg("new.jpg", 64))
	require.NoError(t, err)
	assert.NotEqual(t, oldKey, updated.ImageKey)
	assert.Equal(t, 3, updated.MaxCapacity)
	assert.Equal(t, []string{oldKey}, remover.keys)

	// Without a new image the current one stays.
	kept, err := env.cabins.UpdateCabin(ctx, staff, cabin.ID, CabinInput{Name: "001 renamed", MaxCapacity: 3, RegularPrice: 275}, nil)
	require.NoError(t, err)
	assert.Equal(t, updated.ImageKey, kept.ImageKey)
	assert.Len(t, remover.keys, 1)

	_, err = env.cabins.UpdateCabin(ctx, staff, 9999, CabinInput{Name: "x", MaxCapacity: 1}, nil)
	assert.ErrorIs(t, err, ErrCabinNotFound)
}

func TestCabinService_DeleteCabin(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	staff := audit.StaffActor(1, "")
	guest := env.createGuest(t, "guest@example.com")

	cabin, err := env.cabins.CreateCabin(ctx, staff, CabinInput{Name: "001", MaxCapacity: 2, RegularPrice: 250}, jpeg("c.jpg", 16))
	require.NoError(t, err)
	booking, err := env.bookings.CreateBooking(guest.ID, env.stay(cabin.ID, 5, 3, 2))
	require.NoError(t, err)

	require.NoError(t, env.cabins.DeleteCabin(ctx, staff, cabin.ID))

	_, err = env.cabins.GetCabin(cabin.ID)
	assert.ErrorIs(t, err, ErrCabinNotFound)
	_, err = env.bookings.GetBooking(booking.ID)
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.Contains(t, env.store.deleted, cabin.ImageKey)

	assert.ErrorIs(t, env.cabins.DeleteCabin(ctx, staff, cabin.ID), ErrCabinNotFound)
}

func TestCabinService_ImageURLWithoutKey(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	staff := audit.StaffActor(1, "")

	// Seeded cabins only carry a URL.
	inStore := env.createCabin(t, "001", 2, 250, 0)
	inStore.Image = env.store.PublicURL("cabin-001.jpg")
	require.NoError(t, env.db.DB.Save(inStore).Error)
	static := env.createCabin(t, "002", 2, 250, 0)
	static.Image = "/static/img/cabins/cabin-002.jpg"
	require.NoError(t, env.db.DB.Save(static).Error)

	updated, err := env.cabins.UpdateCabin(ctx, staff, inStore.ID, CabinInput{Name: "001", MaxCapacity: 2, RegularPrice: 250}, jpeg("new.jpg", 16))
	require.NoError(t, err)
	assert.NotEmpty(t, updated.ImageKey)
	assert.Equal(t, []string{"cabin-001.jpg"}, env.store.deleted)

	require.NoError(t, env.cabins.DeleteCabin(ctx, staff, static.ID))
	assert.Equal(t, []string{"cabin-001.jpg"}, env.store.deleted)
}
