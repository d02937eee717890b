package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/tverdin/carrental/internal/domain"
	"github.com/tverdin/carrental/internal/service/cars"
)

// MockCarUseCase is a mock implementation of cars.CarUseCase
type MockCarUseCase struct {
	mock.Mock
}

func (m *MockCarUseCase) List(ctx context.Context) ([]domain.Car, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Car), args.Error(1)
}

func (m *MockCarUseCase) GetByID(ctx context.Context, id int64) (*domain.Car, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Car), args.Error(1)
}

func (m *MockCarUseCase) Create(ctx context.Context, input cars.CarInput, image *cars.ImageUpload) (*domain.Car, error) {
	args := m.Called(ctx, input, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Car), args.Error(1)
}

func (m *MockCarUseCase) Update(ctx context.Context, id int64, input cars.CarInput, image *cars.ImageUpload) (*domain.Car, error) {
	args := m.Called(ctx, id, input, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Car), args.Error(1)
}

func (m *MockCarUseCase) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCarUseCase) RefreshAvailability(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func sampleCar() *domain.Car {
	return &domain.Car{
		ID:                 3,
		Make:               "Toyota",
		Model:              "Corolla",
		Year:               2022,
		Color:              "blue",
		RegistrationNumber: "AB-123-CD",
		PricePerDayCents:   5000,
		ImageURL:           "/uploads/corolla.jpg",
		Available:          true,
	}
}

func TestCarHandler_list(t *testing.T) {
	mockService := &MockCarUseCase{}
	handler := NewCarHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/cars", nil)

	mockService.On("List", c.Request.Context()).Return([]domain.Car{*sampleCar()}, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Cars []carResponse `json:"cars"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Len(t, response.Cars, 1)
	assert.Equal(t, "Toyota", response.Cars[0].Make)
	assert.Equal(t, int64(5000), response.Cars[0].PricePerDayCents)

	mockService.AssertExpectations(t)
}

func TestCarHandler_get_notFound(t *testing.T) {
	mockService := &MockCarUseCase{}
	handler := NewCarHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "99"}}
	c.Request = httptest.NewRequest("GET", "/cars/99", nil)

	mockService.On("GetByID", c.Request.Context(), int64(99)).
		Return(nil, &domain.NotFoundError{Entity: "car"})

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCarHandler_get_invalidID(t *testing.T) {
	mockService := &MockCarUseCase{}
	handler := NewCarHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	c.Request = httptest.NewRequest("GET", "/cars/abc", nil)

	handler.get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "GetByID")
}

func carFormBody() url.Values {
	return url.Values{
		"make":                {"Toyota"},
		"model":               {"Corolla"},
		"year":                {"2022"},
		"color":               {"blue"},
		"registration_number": {"AB-123-CD"},
		"price_per_day_cents": {"5000"},
	}
}

func TestCarHandler_create(t *testing.T) {
	mockService := &MockCarUseCase{}
	handler := NewCarHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest("POST", "/cars", strings.NewReader(carFormBody().Encode()))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	input := cars.CarInput{
		Make:               "Toyota",
		Model:              "Corolla",
		Year:               2022,
		Color:              "blue",
		RegistrationNumber: "AB-123-CD",
		PricePerDayCents:   5000,
	}
	mockService.On("Create", c.Request.Context(), input, (*cars.ImageUpload)(nil)).Return(sampleCar(), nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Message string      `json:"message"`
		Car     carResponse `json:"car"`
	}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "car created successfully", response.Message)
	assert.Equal(t, int64(3), response.Car.ID)

	mockService.AssertExpectations(t)
}

func TestCarHandler_create_withImage(t *testing.T) {
	mockService := &MockCarUseCase{}
	handler := NewCarHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, values := range carFormBody() {
		_ = mw.WriteField(field, values[0])
	}
	part, err := mw.CreateFormFile("image", "corolla.jpg")
	assert.NoError(t, err)
	_, err = part.Write([]byte("image bytes"))
	assert.NoError(t, err)
	assert.NoError(t, mw.Close())

	c.Request = httptest.NewRequest("POST", "/cars", &buf)
	c.Request.Header.Set("Content-Type", mw.FormDataContentType())

	var upload *cars.ImageUpload
	mockService.On("Create", c.Request.Context(), mock.Anything, mock.AnythingOfType("*cars.ImageUpload")).
		Run(func(args mock.Arguments) {
			upload = args.Get(2).(*cars.ImageUpload)
		}).
		Return(sampleCar(), nil)

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotNil(t, upload)
	assert.Equal(t, "corolla.jpg", upload.Filename)

	// the upload must be readable after the request's multipart resources are
	// out of the picture
	data, err := io.ReadAll(upload.Data)
	assert.NoError(t, err)
	assert.Equal(t, "image bytes", string(data))

	mockService.AssertExpectations(t)
}

func TestCarHandler_create_duplicateRegistration(t *testing.T) {
	mockService := &MockCarUseCase{}
	handler := NewCarHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	c.Request = httptest.NewRequest("POST", "/cars", strings.NewReader(carFormBody().Encode()))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	mockService.On("Create", c.Request.Context(), mock.Anything, (*cars.ImageUpload)(nil)).
		Return(nil, &domain.ConflictError{Msg: "car with this registration number already exists"})

	handler.create(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCarHandler_update(t *testing.T) {
	mockService := &MockCarUseCase{}
	handler := NewCarHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "3"}}

	c.Request = httptest.NewRequest("PUT", "/cars/3", strings.NewReader(carFormBody().Encode()))
	c.Request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	mockService.On("Update", c.Request.Context(), int64(3), mock.Anything, (*cars.ImageUpload)(nil)).
		Return(sampleCar(), nil)

	handler.update(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestCarHandler_delete(t *testing.T) {
	mockService := &MockCarUseCase{}
	handler := NewCarHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	c.Request = httptest.NewRequest("DELETE", "/cars/3", nil)

	mockService.On("Delete", c.Request.Context(), int64(3)).Return(nil)

	handler.delete(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(t, err)
	assert.Equal(t, "car deleted successfully", response["message"])

	mockService.AssertExpectations(t)
}
