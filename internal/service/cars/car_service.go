package cars

import (
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/tverdin/carrental/internal/domain"
	"github.com/tverdin/carrental/internal/repository"
)

type CarUseCase interface {
	List(ctx context.Context) ([]domain.Car, error)
	GetByID(ctx context.Context, id int64) (*domain.Car, error)
	Create(ctx context.Context, input CarInput, image *ImageUpload) (*domain.Car, error)
	Update(ctx context.Context, id int64, input CarInput, image *ImageUpload) (*domain.Car, error)
	Delete(ctx context.Context, id int64) error
	RefreshAvailability(ctx context.Context) error
}

type Cache interface {
	GetCars(ctx context.Context) ([]domain.Car, error)
	SetCars(ctx context.Context, cars []domain.Car) error
	InvalidateCars(ctx context.Context) error
}

type ImageStore interface {
	Save(filename string, src io.Reader) (string, error)
	Delete(url string) error
}

type CarInput struct {
	Make               string
	Model              string
	Year               int
	Color              string
	RegistrationNumber string
	PricePerDayCents   int64
}

type ImageUpload struct {
	Filename string
	Data     io.Reader
}

type CarService struct {
	repo   repository.CarRepository
	cache  Cache
	images ImageStore
	logger zerolog.Logger
}

func NewCarService(repo repository.CarRepository, cache Cache, images ImageStore, logger zerolog.Logger) *CarService {
	return &CarService{repo: repo, cache: cache, images: images, logger: logger}
}

func (s *CarService) List(ctx context.Context) ([]domain.Car, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetCars(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	cars, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetCars(ctx, cars)
	}
	return cars, nil
}

func (s *CarService) GetByID(ctx context.Context, id int64) (*domain.Car, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CarService) Create(ctx context.Context, input CarInput, image *ImageUpload) (*domain.Car, error) {
	if err := validateCarInput(input); err != nil {
		return nil, err
	}

	imageURL := ""
	if image != nil {
		url, err := s.images.Save(image.Filename, image.Data)
		if err != nil {
			return nil, err
		}
		imageURL = url
	}

	car := &domain.Car{
		Make:               input.Make,
		Model:              input.Model,
		Year:               input.Year,
		Color:              input.Color,
		RegistrationNumber: input.RegistrationNumber,
		PricePerDayCents:   input.PricePerDayCents,
		ImageURL:           imageURL,
		Available:          true,
	}
	if err := s.repo.Create(ctx, car); err != nil {
		// compensate: the record was not written, drop the stored file
		if imageURL != "" {
			_ = s.images.Delete(imageURL)
		}
		return nil, err
	}

	s.invalidate(ctx)
	return car, nil
}

// Update saves a replacement image before touching the record and deletes the
// old file only after the record update succeeded, so a storage failure never
// leaves the car pointing at a missing image.
func (s *CarService) Update(ctx context.Context, id int64, input CarInput, image *ImageUpload) (*domain.Car, error) {
	if err := validateCarInput(input); err != nil {
		return nil, err
	}

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	imageURL := current.ImageURL
	if image != nil {
		url, err := s.images.Save(image.Filename, image.Data)
		if err != nil {
			return nil, err
		}
		imageURL = url
	}

	car := &domain.Car{
		ID:                 id,
		Make:               input.Make,
		Model:              input.Model,
		Year:               input.Year,
		Color:              input.Color,
		RegistrationNumber: input.RegistrationNumber,
		PricePerDayCents:   input.PricePerDayCents,
		ImageURL:           imageURL,
	}
	if err := s.repo.Update(ctx, car); err != nil {
		if image != nil {
			_ = s.images.Delete(imageURL)
		}
		return nil, err
	}

	if image != nil && current.ImageURL != "" {
		if err := s.images.Delete(current.ImageURL); err != nil {
			s.logger.Warn().Err(err).Str("image_url", current.ImageURL).Msg("delete replaced image failed")
		}
	}

	s.invalidate(ctx)
	return car, nil
}

// Delete removes the car and its stored image. The image delete is idempotent:
// an already missing file does not fail the operation.
func (s *CarService) Delete(ctx context.Context, id int64) error {
	car, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.images.Delete(car.ImageURL); err != nil {
		s.logger.Warn().Err(err).Str("image_url", car.ImageURL).Msg("delete car image failed")
	}

	s.invalidate(ctx)
	return nil
}

// RefreshAvailability recomputes every car's availability flag from live
// bookings. The worker runs it on a timer.
func (s *CarService) RefreshAvailability(ctx context.Context) error {
	if err := s.repo.RecomputeAllAvailability(ctx); err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *CarService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateCars(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("invalidate cars cache failed")
	}
}

func validateCarInput(input CarInput) error {
	switch {
	case input.Make == "":
		return &domain.ValidationError{Msg: "make is required"}
	case input.Model == "":
		return &domain.ValidationError{Msg: "model is required"}
	case input.Year == 0:
		return &domain.ValidationError{Msg: "year is required"}
	case input.Color == "":
		return &domain.ValidationError{Msg: "color is required"}
	case input.RegistrationNumber == "":
		return &domain.ValidationError{Msg: "registration number is required"}
	case input.PricePerDayCents <= 0:
		return &domain.ValidationError{Msg: "price per day must be positive"}
	}
	return nil
}

var _ CarUseCase = (*CarService)(nil)
