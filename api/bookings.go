package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tverdin/carrental/internal/domain"
	"github.com/tverdin/carrental/internal/repository"
	"github.com/tverdin/carrental/internal/service/booking"
)

const dateLayout = "2006-01-02"

type BookingHandler struct {
	service booking.BookingUseCase
}

type createBookingRequest struct {
	UserID      int64  `json:"user_id"`
	CarID       int64  `json:"car_id"`
	BookPlace   string `json:"book_place"`
	BookDate    string `json:"book_date"`
	Duration    int    `json:"duration"`
	Destination string `json:"destination"`
	ReturnDate  string `json:"return_date"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type bookingResponse struct {
	BookingID   int64  `json:"booking_id"`
	Reference   string `json:"reference"`
	UserID      int64  `json:"user_id"`
	CarID       int64  `json:"car_id"`
	BookPlace   string `json:"book_place"`
	BookDate    string `json:"book_date"`
	Duration    int    `json:"duration"`
	Destination string `json:"destination"`
	ReturnDate  string `json:"return_date"`
	PriceCents  int64  `json:"booking_price_cents"`
	Status      string `json:"status"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings", h.create)
	router.GET("/bookings", h.list)
	router.GET("/users/:id/bookings", h.listForUser)
}

func (h *BookingHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.GET("/bookings", h.listAll)
	router.PUT("/bookings/:id", h.updateStatus)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userID := req.UserID
	if userID == 0 {
		if user := currentUser(c); user != nil {
			userID = user.ID
		}
	}

	bookDate, err := parseDate(req.BookDate, "book_date")
	if err != nil {
		respondError(c, err)
		return
	}
	returnDate, err := parseDate(req.ReturnDate, "return_date")
	if err != nil {
		respondError(c, err)
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), booking.CreateBookingInput{
		UserID:      userID,
		CarID:       req.CarID,
		BookPlace:   req.BookPlace,
		BookDate:    bookDate,
		Duration:    req.Duration,
		Destination: req.Destination,
		ReturnDate:  returnDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toBookingResponse(created))
}

func (h *BookingHandler) list(c *gin.Context) {
	filter, err := bookingFilterFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}

	// non-admins only ever see their own bookings
	user := currentUser(c)
	if user != nil && !user.IsAdmin {
		filter.UserID = user.ID
	}

	h.respondList(c, filter)
}

func (h *BookingHandler) listForUser(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user := currentUser(c)
	if user != nil && !user.IsAdmin && user.ID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "cannot view another user's bookings"})
		return
	}

	h.respondList(c, repository.BookingFilter{UserID: userID})
}

func (h *BookingHandler) listAll(c *gin.Context) {
	filter, err := bookingFilterFromQuery(c)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondList(c, filter)
}

func (h *BookingHandler) updateStatus(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status, err := domain.ParseBookingStatus(req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	updated, err := h.service.UpdateStatus(c.Request.Context(), bookingID, status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "booking status updated to " + string(updated.Status),
		"booking": toBookingResponse(updated),
	})
}

func (h *BookingHandler) respondList(c *gin.Context, filter repository.BookingFilter) {
	bookings, err := h.service.ListBookings(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, toBookingResponse(&bookings[i]))
	}
	c.JSON(http.StatusOK, gin.H{"bookings": resp})
}

func bookingFilterFromQuery(c *gin.Context) (repository.BookingFilter, error) {
	var filter repository.BookingFilter
	if raw := c.Query("user_id"); raw != "" {
		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return filter, &domain.ValidationError{Msg: "invalid user_id filter"}
		}
		filter.UserID = userID
	}
	if raw := c.Query("status"); raw != "" {
		switch domain.BookingStatus(raw) {
		case domain.BookingStatusWaiting, domain.BookingStatusApproved, domain.BookingStatusReturned:
			filter.Status = domain.BookingStatus(raw)
		default:
			return filter, &domain.ValidationError{Msg: "invalid status filter"}
		}
	}
	return filter, nil
}

func parseDate(value, field string) (time.Time, error) {
	if value == "" {
		return time.Time{}, &domain.ValidationError{Msg: field + " is required"}
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, &domain.ValidationError{Msg: field + " must be a date in YYYY-MM-DD format"}
	}
	return t, nil
}

func toBookingResponse(b *domain.Booking) bookingResponse {
	return bookingResponse{
		BookingID:   b.ID,
		Reference:   b.Reference,
		UserID:      b.UserID,
		CarID:       b.CarID,
		BookPlace:   b.BookPlace,
		BookDate:    b.BookDate.Format(dateLayout),
		Duration:    b.Duration,
		Destination: b.Destination,
		ReturnDate:  b.ReturnDate.Format(dateLayout),
		PriceCents:  b.PriceCents,
		Status:      string(b.Status),
	}
}
