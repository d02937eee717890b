package cars

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tverdin/carrental/internal/domain"
)

type MockCarRepository struct {
	mock.Mock
}

func (m *MockCarRepository) List(ctx context.Context) ([]domain.Car, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Car), args.Error(1)
}

func (m *MockCarRepository) GetByID(ctx context.Context, id int64) (*domain.Car, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Car), args.Error(1)
}

func (m *MockCarRepository) Create(ctx context.Context, car *domain.Car) error {
	args := m.Called(ctx, car)
	return args.Error(0)
}

func (m *MockCarRepository) Update(ctx context.Context, car *domain.Car) error {
	args := m.Called(ctx, car)
	return args.Error(0)
}

func (m *MockCarRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCarRepository) RecomputeAvailability(ctx context.Context, carID int64) error {
	args := m.Called(ctx, carID)
	return args.Error(0)
}

func (m *MockCarRepository) RecomputeAllAvailability(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetCars(ctx context.Context) ([]domain.Car, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Car), args.Error(1)
}

func (m *MockCache) SetCars(ctx context.Context, cars []domain.Car) error {
	args := m.Called(ctx, cars)
	return args.Error(0)
}

func (m *MockCache) InvalidateCars(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Save(filename string, src io.Reader) (string, error) {
	args := m.Called(filename, src)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Delete(url string) error {
	args := m.Called(url)
	return args.Error(0)
}

func validCarInput() CarInput {
	return CarInput{
		Make:               "Toyota",
		Model:              "Corolla",
		Year:               2022,
		Color:              "blue",
		RegistrationNumber: "AB-123-CD",
		PricePerDayCents:   5000,
	}
}

func TestList_CacheHitSkipsRepository(t *testing.T) {
	repo := &MockCarRepository{}
	cache := &MockCache{}
	service := NewCarService(repo, cache, &MockImageStore{}, zerolog.Nop())

	cached := []domain.Car{{ID: 1, Make: "Toyota"}}
	cache.On("GetCars", mock.Anything).Return(cached, nil).Once()

	cars, err := service.List(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, cached, cars)
	repo.AssertNotCalled(t, "List")
}

func TestList_CacheMissFillsCache(t *testing.T) {
	repo := &MockCarRepository{}
	cache := &MockCache{}
	service := NewCarService(repo, cache, &MockImageStore{}, zerolog.Nop())

	fromDB := []domain.Car{{ID: 1}, {ID: 2}}
	cache.On("GetCars", mock.Anything).Return(nil, nil).Once()
	repo.On("List", mock.Anything).Return(fromDB, nil).Once()
	cache.On("SetCars", mock.Anything, fromDB).Return(nil).Once()

	cars, err := service.List(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, fromDB, cars)
	cache.AssertExpectations(t)
}

func TestList_NoCache(t *testing.T) {
	repo := &MockCarRepository{}
	service := NewCarService(repo, nil, &MockImageStore{}, zerolog.Nop())

	fromDB := []domain.Car{{ID: 1}}
	repo.On("List", mock.Anything).Return(fromDB, nil).Once()

	cars, err := service.List(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, fromDB, cars)
}

func TestCreate_WithImage(t *testing.T) {
	repo := &MockCarRepository{}
	cache := &MockCache{}
	images := &MockImageStore{}
	service := NewCarService(repo, cache, images, zerolog.Nop())

	images.On("Save", "corolla.jpg", mock.Anything).Return("/uploads/123_corolla.jpg", nil).Once()
	repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Car")).Return(nil).Once()
	cache.On("InvalidateCars", mock.Anything).Return(nil).Once()

	upload := &ImageUpload{Filename: "corolla.jpg", Data: strings.NewReader("img")}
	car, err := service.Create(context.Background(), validCarInput(), upload)

	assert.NoError(t, err)
	assert.Equal(t, "/uploads/123_corolla.jpg", car.ImageURL)
	assert.True(t, car.Available)
	cache.AssertExpectations(t)
}

func TestCreate_RepositoryFailureRemovesStoredImage(t *testing.T) {
	repo := &MockCarRepository{}
	images := &MockImageStore{}
	service := NewCarService(repo, nil, images, zerolog.Nop())

	expectedErr := &domain.ConflictError{Msg: "car with this registration number already exists"}
	images.On("Save", "corolla.jpg", mock.Anything).Return("/uploads/123_corolla.jpg", nil).Once()
	repo.On("Create", mock.Anything, mock.Anything).Return(expectedErr).Once()
	images.On("Delete", "/uploads/123_corolla.jpg").Return(nil).Once()

	upload := &ImageUpload{Filename: "corolla.jpg", Data: strings.NewReader("img")}
	car, err := service.Create(context.Background(), validCarInput(), upload)

	assert.Nil(t, car)
	var conflict *domain.ConflictError
	assert.ErrorAs(t, err, &conflict)
	images.AssertExpectations(t)
}

func TestCreate_ValidationErrors(t *testing.T) {
	service := NewCarService(&MockCarRepository{}, nil, &MockImageStore{}, zerolog.Nop())

	testCases := []struct {
		name   string
		mutate func(*CarInput)
	}{
		{"missing make", func(in *CarInput) { in.Make = "" }},
		{"missing model", func(in *CarInput) { in.Model = "" }},
		{"missing year", func(in *CarInput) { in.Year = 0 }},
		{"missing color", func(in *CarInput) { in.Color = "" }},
		{"missing registration", func(in *CarInput) { in.RegistrationNumber = "" }},
		{"zero price", func(in *CarInput) { in.PricePerDayCents = 0 }},
		{"negative price", func(in *CarInput) { in.PricePerDayCents = -100 }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			input := validCarInput()
			tc.mutate(&input)

			car, err := service.Create(context.Background(), input, nil)

			assert.Nil(t, car)
			var validationErr *domain.ValidationError
			assert.ErrorAs(t, err, &validationErr)
		})
	}
}

func TestUpdate_ReplacesImageAfterRecordUpdate(t *testing.T) {
	repo := &MockCarRepository{}
	cache := &MockCache{}
	images := &MockImageStore{}
	service := NewCarService(repo, cache, images, zerolog.Nop())

	current := &domain.Car{ID: 5, ImageURL: "/uploads/old.jpg"}
	repo.On("GetByID", mock.Anything, int64(5)).Return(current, nil).Once()
	images.On("Save", "new.jpg", mock.Anything).Return("/uploads/new.jpg", nil).Once()
	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Car")).Return(nil).Once()
	images.On("Delete", "/uploads/old.jpg").Return(nil).Once()
	cache.On("InvalidateCars", mock.Anything).Return(nil).Once()

	upload := &ImageUpload{Filename: "new.jpg", Data: strings.NewReader("img")}
	car, err := service.Update(context.Background(), 5, validCarInput(), upload)

	assert.NoError(t, err)
	assert.Equal(t, "/uploads/new.jpg", car.ImageURL)
	images.AssertExpectations(t)
}

func TestUpdate_KeepsImageWhenNoneUploaded(t *testing.T) {
	repo := &MockCarRepository{}
	images := &MockImageStore{}
	service := NewCarService(repo, nil, images, zerolog.Nop())

	current := &domain.Car{ID: 5, ImageURL: "/uploads/old.jpg"}
	repo.On("GetByID", mock.Anything, int64(5)).Return(current, nil).Once()
	repo.On("Update", mock.Anything, mock.AnythingOfType("*domain.Car")).Return(nil).Once()

	car, err := service.Update(context.Background(), 5, validCarInput(), nil)

	assert.NoError(t, err)
	assert.Equal(t, "/uploads/old.jpg", car.ImageURL)
	images.AssertNotCalled(t, "Save")
	images.AssertNotCalled(t, "Delete")
}

func TestUpdate_RecordFailureRemovesNewImageOnly(t *testing.T) {
	repo := &MockCarRepository{}
	images := &MockImageStore{}
	service := NewCarService(repo, nil, images, zerolog.Nop())

	current := &domain.Car{ID: 5, ImageURL: "/uploads/old.jpg"}
	expectedErr := errors.New("db down")
	repo.On("GetByID", mock.Anything, int64(5)).Return(current, nil).Once()
	images.On("Save", "new.jpg", mock.Anything).Return("/uploads/new.jpg", nil).Once()
	repo.On("Update", mock.Anything, mock.Anything).Return(expectedErr).Once()
	images.On("Delete", "/uploads/new.jpg").Return(nil).Once()

	upload := &ImageUpload{Filename: "new.jpg", Data: strings.NewReader("img")}
	car, err := service.Update(context.Background(), 5, validCarInput(), upload)

	assert.Nil(t, car)
	assert.Equal(t, expectedErr, err)
	images.AssertNotCalled(t, "Delete", "/uploads/old.jpg")
}

func TestUpdate_NotFound(t *testing.T) {
	repo := &MockCarRepository{}
	service := NewCarService(repo, nil, &MockImageStore{}, zerolog.Nop())

	repo.On("GetByID", mock.Anything, int64(5)).Return(nil, &domain.NotFoundError{Entity: "car"}).Once()

	car, err := service.Update(context.Background(), 5, validCarInput(), nil)

	assert.Nil(t, car)
	var notFound *domain.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestDelete_RemovesImage(t *testing.T) {
	repo := &MockCarRepository{}
	cache := &MockCache{}
	images := &MockImageStore{}
	service := NewCarService(repo, cache, images, zerolog.Nop())

	repo.On("GetByID", mock.Anything, int64(5)).Return(&domain.Car{ID: 5, ImageURL: "/uploads/old.jpg"}, nil).Once()
	repo.On("Delete", mock.Anything, int64(5)).Return(nil).Once()
	images.On("Delete", "/uploads/old.jpg").Return(nil).Once()
	cache.On("InvalidateCars", mock.Anything).Return(nil).Once()

	err := service.Delete(context.Background(), 5)

	assert.NoError(t, err)
	images.AssertExpectations(t)
}

func TestDelete_ImageFailureDoesNotFailOperation(t *testing.T) {
	repo := &MockCarRepository{}
	images := &MockImageStore{}
	service := NewCarService(repo, nil, images, zerolog.Nop())

	repo.On("GetByID", mock.Anything, int64(5)).Return(&domain.Car{ID: 5, ImageURL: "/uploads/old.jpg"}, nil).Once()
	repo.On("Delete", mock.Anything, int64(5)).Return(nil).Once()
	images.On("Delete", "/uploads/old.jpg").Return(errors.New("permission denied")).Once()

	err := service.Delete(context.Background(), 5)

	assert.NoError(t, err)
}

func TestRefreshAvailability(t *testing.T) {
	repo := &MockCarRepository{}
	cache := &MockCache{}
	service := NewCarService(repo, cache, &MockImageStore{}, zerolog.Nop())

	repo.On("RecomputeAllAvailability", mock.Anything).Return(nil).Once()
	cache.On("InvalidateCars", mock.Anything).Return(nil).Once()

	err := service.RefreshAvailability(context.Background())

	assert.NoError(t, err)
	repo.AssertExpectations(t)
	cache.AssertExpectations(t)
}
