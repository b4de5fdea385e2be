package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/wildoasis/booking/internal/audit"
	"github.com/wildoasis/booking/internal/database/bookings"
	"github.com/wildoasis/booking/internal/database/cabins"
	"github.com/wildoasis/booking/internal/entities"
	"github.com/wildoasis/booking/internal/metrics"
	"github.com/wildoasis/booking/internal/storage"
)

// MaxImageSize is the largest cabin photo accepted (50 MB).
const MaxImageSize = 50_000_000

var acceptedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// CapacityFilter values accepted by ListCabins.
const (
	FilterAll    = "all"
	FilterSmall  = "small"
	FilterMedium = "medium"
	FilterLarge  = "large"
)

// CabinInput is the staff form for creating or editing a cabin.
type CabinInput struct {
	Name         string `json:"name" form:"name" validate:"required,max=100"`
	MaxCapacity  int    `json:"max_capacity" form:"max_capacity" validate:"gte=1,lte=50"`
	RegularPrice int    `json:"regular_price" form:"regular_price" validate:"gte=0"`
	Discount     int    `json:"discount" form:"discount" validate:"gte=0"`
	Description  string `json:"description" form:"description" validate:"max=5000"`
}

// ImageUpload is an uploaded cabin photo. Size is the declared size in bytes.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

type CabinService struct {
	cabins   *cabins.Repository
	bookings *bookings.Repository
	store    storage.Client
	remover  ImageRemover
	audit    AuditLogger
	clock    clockwork.Clock
}

// NewCabinService wires the cabin rules. store may be nil when image upload is
// disabled; remover may be nil, in which case old images are deleted inline.
func NewCabinService(cabinRepo *cabins.Repository, bookingRepo *bookings.Repository, store storage.Client, remover ImageRemover, auditor AuditLogger, clock clockwork.Clock) *CabinService {
	if auditor == nil {
		auditor = nopAudit{}
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CabinService{
		cabins:   cabinRepo,
		bookings: bookingRepo,
		store:    store,
		remover:  remover,
		audit:    auditor,
		clock:    clock,
	}
}

// ParseFilter normalizes the ?capacity= query value.
func ParseFilter(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case FilterSmall:
		return FilterSmall
	case FilterMedium:
		return FilterMedium
	case FilterLarge:
		return FilterLarge
	default:
		return FilterAll
	}
}

func capacityBounds(filter string) cabins.CapacityFilter {
	switch ParseFilter(filter) {
	case FilterSmall:
		return cabins.CapacityFilter{Min: 1, Max: 3}
	case FilterMedium:
		return cabins.CapacityFilter{Min: 4, Max: 7}
	case FilterLarge:
		return cabins.CapacityFilter{Min: 8}
	default:
		return cabins.CapacityFilter{}
	}
}

// ListCabins returns cabins matching a size filter; unknown filters mean all.
func (s *CabinService) ListCabins(filter string) ([]entities.Cabin, error) {
	return s.cabins.List(capacityBounds(filter))
}

// GetCabin returns a cabin or ErrCabinNotFound.
func (s *CabinService) GetCabin(id uint) (*entities.Cabin, error) {
	cabin, err := s.cabins.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCabinNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cabin %d: %w", id, err)
	}
	return cabin, nil
}

// GetCabinWithBookings returns a cabin and its upcoming blocking bookings.
func (s *CabinService) GetCabinWithBookings(id uint) (*entities.Cabin, error) {
	cabin, err := s.cabins.GetWithBookings(id, entities.StartOfDay(s.clock.Now()))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCabinNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cabin %d: %w", id, err)
	}
	return cabin, nil
}

// Availability lists the booked date ranges of a cabin from today on.
// excludeBookingID keeps a booking being edited from blocking its own dates.
func (s *CabinService) Availability(cabinID, excludeBookingID uint) ([]entities.DateRange, error) {
	if _, err := s.GetCabin(cabinID); err != nil {
		return nil, err
	}
	ranges, err := s.bookings.BookedRanges(cabinID, entities.StartOfDay(s.clock.Now()), excludeBookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to load booked dates: %w", err)
	}
	return ranges, nil
}

func (s *CabinService) validate(input CabinInput, excludeID uint) error {
	ve := NewValidationError()
	if err := validateStruct(input, ve); err != nil {
		return err
	}
	if input.Discount > input.RegularPrice && !ve.Has("discount") {
		ve.Add("discount", "Discount should be less than the regular price")
	}
	if name := strings.TrimSpace(input.Name); name != "" && !ve.Has("name") {
		taken, err := s.cabins.NameTaken(name, excludeID)
		if err != nil {
			return fmt.Errorf("failed to check cabin name: %w", err)
		}
		if taken {
			ve.Add("name", "A cabin with this name already exists")
		}
	}
	return ve.OrNil()
}

func checkImage(img *ImageUpload) error {
	if img == nil {
		return nil
	}
	if !acceptedImageTypes[strings.ToLower(img.ContentType)] || img.Size > MaxImageSize {
		ve := NewValidationError()
		ve.Add("image", ErrInvalidImage.Error())
		return ve
	}
	return nil
}

// uploadImage stores img and returns its key and public URL.
func (s *CabinService) uploadImage(ctx context.Context, img *ImageUpload) (string, string, error) {
	if s.store == nil {
		return "", "", errors.New("image storage is not configured")
	}
	key := storage.ObjectKey(img.Filename)
	// Read one byte past the limit so an understated Size cannot slip through.
	content := io.LimitReader(img.Content, MaxImageSize+1)
	counted := &countingReader{r: content}
	err := s.store.Upload(ctx, key, img.ContentType, counted)
	if err == nil && counted.n > MaxImageSize {
		_ = s.store.Delete(ctx, key)
		metrics.RecordImageUpload(ErrInvalidImage)
		ve := NewValidationError()
		ve.Add("image", ErrInvalidImage.Error())
		return "", "", ve
	}
	metrics.RecordImageUpload(err)
	if err != nil {
		return "", "", fmt.Errorf("cabin image could not be uploaded: %w", err)
	}
	return key, s.store.PublicURL(key), nil
}

// imageKey is the stored object behind a cabin's photo. Cabins loaded by the
// seeder carry only a URL; one that points into the store still names its object.
func (s *CabinService) imageKey(cabin *entities.Cabin) string {
	if cabin.ImageKey != "" || s.store == nil {
		return cabin.ImageKey
	}
	return storage.KeyFromURL(s.store, cabin.Image)
}

func (s *CabinService) discardImage(ctx context.Context, key string) {
	if key == "" || s.store == nil {
		return
	}
	var err error
	if s.remover != nil {
		err = s.remover.RemoveImage(ctx, key)
	} else {
		err = s.store.Delete(ctx, key)
	}
	if err != nil {
		log.Printf("Failed to remove cabin image %s: %v", key, err)
	}
}

// CreateCabin validates input, uploads the optional image and inserts the cabin.
func (s *CabinService) CreateCabin(ctx context.Context, actor audit.Actor, input CabinInput, img *ImageUpload) (*entities.Cabin, error) {
	if err := s.validate(input, 0); err != nil {
		return nil, err
	}
	if err := checkImage(img); err != nil {
		return nil, err
	}

	cabin := &entities.Cabin{
		Name:         strings.TrimSpace(input.Name),
		MaxCapacity:  input.MaxCapacity,
		RegularPrice: input.RegularPrice,
		Discount:     input.Discount,
		Description:  strings.TrimSpace(input.Description),
	}

	if img != nil {
		key, url, err := s.uploadImage(ctx, img)
		if err != nil {
			return nil, err
		}
		cabin.ImageKey, cabin.Image = key, url
	}

	if err := s.cabins.Create(cabin); err != nil {
		s.discardImage(ctx, cabin.ImageKey)
		s.audit.LogCabin(actor, "cabin_create", 0, cabin.Name, err)
		return nil, fmt.Errorf("failed to create cabin: %w", err)
	}

	s.audit.LogCabin(actor, "cabin_create", cabin.ID, cabin.Name, nil)
	return cabin, nil
}

// UpdateCabin edits a cabin. A new image replaces the old one, which is removed afterwards.
func (s *CabinService) UpdateCabin(ctx context.Context, actor audit.Actor, id uint, input CabinInput, img *ImageUpload) (*entities.Cabin, error) {
	cabin, err := s.GetCabin(id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(input, id); err != nil {
		return nil, err
	}
	if err := checkImage(img); err != nil {
		return nil, err
	}

	oldKey := ""
	if img != nil {
		key, url, err := s.uploadImage(ctx, img)
		if err != nil {
			return nil, err
		}
		oldKey = s.imageKey(cabin)
		cabin.ImageKey, cabin.Image = key, url
	}

	cabin.Name = strings.TrimSpace(input.Name)
	cabin.MaxCapacity = input.MaxCapacity
	cabin.RegularPrice = input.RegularPrice
	cabin.Discount = input.Discount
	cabin.Description = strings.TrimSpace(input.Description)

	if err := s.cabins.Update(cabin); err != nil {
		if img != nil {
			s.discardImage(ctx, cabin.ImageKey)
		}
		s.audit.LogCabin(actor, "cabin_update", id, cabin.Name, err)
		return nil, fmt.Errorf("failed to update cabin: %w", err)
	}

	s.discardImage(ctx, oldKey)
	s.audit.LogCabin(actor, "cabin_update", id, cabin.Name, nil)
	return cabin, nil
}

// DeleteCabin removes a cabin, its bookings and its stored image.
func (s *CabinService) DeleteCabin(ctx context.Context, actor audit.Actor, id uint) error {
	cabin, err := s.GetCabin(id)
	if err != nil {
		return err
	}
	if err := s.cabins.Delete(id); err != nil {
		s.audit.LogCabin(actor, "cabin_delete", id, cabin.Name, err)
		return fmt.Errorf("failed to delete cabin: %w", err)
	}
	s.discardImage(ctx, s.imageKey(cabin))
	s.audit.LogCabin(actor, "cabin_delete", id, cabin.Name, nil)
	return nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
