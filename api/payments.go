package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tverdin/carrental/internal/domain"
	"github.com/tverdin/carrental/internal/service/booking"
)

type PaymentHandler struct {
	service booking.BookingUseCase
}

type confirmPaymentRequest struct {
	BookingID   int64 `json:"booking_id"`
	AmountCents int64 `json:"amount_cents"`
}

type paymentResponse struct {
	ID            int64  `json:"id"`
	BookingID     int64  `json:"booking_id"`
	AmountCents   int64  `json:"amount_cents"`
	Method        string `json:"method"`
	TransactionID string `json:"transaction_id"`
	PaidAt        string `json:"paid_at"`
}

func NewPaymentHandler(service booking.BookingUseCase) *PaymentHandler {
	return &PaymentHandler{service: service}
}

func (h *PaymentHandler) Register(router *gin.RouterGroup) {
	router.POST("/payments", h.confirm)
}

func (h *PaymentHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.GET("/bookings/:id/payments", h.listForBooking)
}

func (h *PaymentHandler) confirm(c *gin.Context) {
	var req confirmPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.BookingID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "booking_id is required"})
		return
	}

	payment, err := h.service.ConfirmPayment(c.Request.Context(), booking.ConfirmPaymentInput{
		BookingID:   req.BookingID,
		AmountCents: req.AmountCents,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	if payment == nil {
		c.JSON(http.StatusOK, gin.H{"message": "booking is already approved"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "payment recorded and booking approved",
		"payment_id":     payment.ID,
		"transaction_id": payment.TransactionID,
	})
}

func (h *PaymentHandler) listForBooking(c *gin.Context) {
	bookingID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking id"})
		return
	}

	payments, err := h.service.ListPayments(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]paymentResponse, 0, len(payments))
	for i := range payments {
		resp = append(resp, toPaymentResponse(&payments[i]))
	}
	c.JSON(http.StatusOK, gin.H{"payments": resp})
}

func toPaymentResponse(p *domain.Payment) paymentResponse {
	return paymentResponse{
		ID:            p.ID,
		BookingID:     p.BookingID,
		AmountCents:   p.AmountCents,
		Method:        p.Method,
		TransactionID: p.TransactionID,
		PaidAt:        p.PaidAt.Format(time.RFC3339),
	}
}
