package api

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tverdin/carrental/internal/domain"
	"github.com/tverdin/carrental/internal/service/cars"
)

type CarHandler struct {
	service cars.CarUseCase
}

type carForm struct {
	Make               string `form:"make"`
	Model              string `form:"model"`
	Year               int    `form:"year"`
	Color              string `form:"color"`
	RegistrationNumber string `form:"registration_number"`
	PricePerDayCents   int64  `form:"price_per_day_cents"`
}

type carResponse struct {
	ID                 int64  `json:"id"`
	Make               string `json:"make"`
	Model              string `json:"model"`
	Year               int    `json:"year"`
	Color              string `json:"color"`
	RegistrationNumber string `json:"registration_number"`
	PricePerDayCents   int64  `json:"price_per_day_cents"`
	ImageURL           string `json:"image_url,omitempty"`
	Available          bool   `json:"available"`
}

func NewCarHandler(service cars.CarUseCase) *CarHandler {
	return &CarHandler{service: service}
}

func (h *CarHandler) Register(router *gin.RouterGroup) {
	router.GET("/cars", h.list)
	router.GET("/cars/:id", h.get)
}

func (h *CarHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.POST("/cars", h.create)
	router.PUT("/cars/:id", h.update)
	router.DELETE("/cars/:id", h.delete)
}

func (h *CarHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]carResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toCarResponse(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"cars": resp})
}

func (h *CarHandler) get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid car id"})
		return
	}

	car, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"car": toCarResponse(car)})
}

func (h *CarHandler) create(c *gin.Context) {
	input, image, err := bindCarForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	car, err := h.service.Create(c.Request.Context(), input, image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "car created successfully", "car": toCarResponse(car)})
}

func (h *CarHandler) update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid car id"})
		return
	}

	input, image, err := bindCarForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	car, err := h.service.Update(c.Request.Context(), id, input, image)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "car updated successfully", "car": toCarResponse(car)})
}

func (h *CarHandler) delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid car id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "car deleted successfully"})
}

func bindCarForm(c *gin.Context) (cars.CarInput, *cars.ImageUpload, error) {
	var form carForm
	if err := c.ShouldBind(&form); err != nil {
		return cars.CarInput{}, nil, err
	}

	input := cars.CarInput{
		Make:               form.Make,
		Model:              form.Model,
		Year:               form.Year,
		Color:              form.Color,
		RegistrationNumber: form.RegistrationNumber,
		PricePerDayCents:   form.PricePerDayCents,
	}

	file, err := c.FormFile("image")
	if err != nil {
		// image is optional
		return input, nil, nil
	}
	src, err := file.Open()
	if err != nil {
		return cars.CarInput{}, nil, err
	}
	defer src.Close()

	// buffer the upload so the multipart temp file is released here instead
	// of leaking past the request
	data, err := io.ReadAll(src)
	if err != nil {
		return cars.CarInput{}, nil, err
	}
	return input, &cars.ImageUpload{Filename: file.Filename, Data: bytes.NewReader(data)}, nil
}

func toCarResponse(car *domain.Car) carResponse {
	return carResponse{
		ID:                 car.ID,
		Make:               car.Make,
		Model:              car.Model,
		Year:               car.Year,
		Color:              car.Color,
		RegistrationNumber: car.RegistrationNumber,
		PricePerDayCents:   car.PricePerDayCents,
		ImageURL:           car.ImageURL,
		Available:          car.Available,
	}
}
