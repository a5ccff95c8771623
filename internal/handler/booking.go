package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"parkwise/internal/domain"
	"parkwise/internal/service"
)

// BookingHandler handles HTTP requests for the booking lifecycle.
type BookingHandler struct {
	bookingService *service.BookingService
	ledger         *service.SlotLedger
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService, ledger *service.SlotLedger) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		ledger:         ledger,
	}
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	UserID        string  `json:"user_id"`
	SlotID        int     `json:"slot_id"`
	DurationHours float64 `json:"duration_hours"`
}

// ConfirmBookingRequest is the HTTP request body for confirming payment.
type ConfirmBookingRequest struct {
	ProviderPaymentID string `json:"provider_payment_id"`
}

// RateBookingRequest is the HTTP request body for rating a booking.
type RateBookingRequest struct {
	Rating   *float64 `json:"rating"`
	Favorite *bool    `json:"favorite"`
}

// BookingResponse is the HTTP representation of a booking.
type BookingResponse struct {
	ID                  string  `json:"id"`
	UserID              string  `json:"user_id"`
	AreaID              int     `json:"area_id"`
	SlotID              int     `json:"slot_id"`
	DurationHours       float64 `json:"duration_hours"`
	QuotedPrice         float64 `json:"quoted_price"`
	Status              string  `json:"status"`
	ReservationDeadline string  `json:"reservation_deadline,omitempty"`
	PaymentURL          string  `json:"payment_url,omitempty"`
	Rating              float64 `json:"rating,omitempty"`
	Favorite            bool    `json:"favorite"`
	CreatedAt           string  `json:"created_at"`
	ConfirmedAt         string  `json:"confirmed_at,omitempty"`
	CancelledAt         string  `json:"cancelled_at,omitempty"`
}

func bookingResponse(b *domain.Booking) BookingResponse {
	resp := BookingResponse{
		ID:            b.ID,
		UserID:        b.UserID,
		AreaID:        b.AreaID,
		SlotID:        b.SlotID,
		DurationHours: b.DurationHours,
		QuotedPrice:   b.QuotedPrice,
		Status:        string(b.Status),
		PaymentURL:    b.PaymentURL,
		Rating:        b.Rating,
		Favorite:      b.Favorite,
		CreatedAt:     b.CreatedAt.Format(time.RFC3339),
	}
	if !b.ReservationDeadline.IsZero() && !b.Status.Terminal() {
		resp.ReservationDeadline = b.ReservationDeadline.Format(time.RFC3339)
	}
	if !b.ConfirmedAt.IsZero() {
		resp.ConfirmedAt = b.ConfirmedAt.Format(time.RFC3339)
	}
	if !b.CancelledAt.IsZero() {
		resp.CancelledAt = b.CancelledAt.Format(time.RFC3339)
	}
	return resp
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	slot, err := h.ledger.Slot(req.SlotID)
	if err != nil {
		respondError(c, err)
		return
	}

	booking, err := h.bookingService.Book(c.Request.Context(), req.UserID, slot.AreaID, req.SlotID, req.DurationHours)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, bookingResponse(booking))
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	booking, err := h.bookingService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, bookingResponse(booking))
}

// InitiatePayment handles POST /v1/bookings/:id/payment
func (h *BookingHandler) InitiatePayment(c *gin.Context) {
	booking, err := h.bookingService.InitiatePayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, bookingResponse(booking))
}

// ConfirmBooking handles POST /v1/bookings/:id/confirm
func (h *BookingHandler) ConfirmBooking(c *gin.Context) {
	var req ConfirmBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.ProviderPaymentID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "provider_payment_id is required"})
		return
	}

	booking, err := h.bookingService.Confirm(c.Request.Context(), c.Param("id"), req.ProviderPaymentID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, bookingResponse(booking))
}

// CancelBooking handles POST /v1/bookings/:id/cancel
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	booking, err := h.bookingService.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, bookingResponse(booking))
}

// RateBooking handles POST /v1/bookings/:id/rating
func (h *BookingHandler) RateBooking(c *gin.Context) {
	var req RateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.Rating == nil && req.Favorite == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "rating or favorite is required"})
		return
	}

	bookingID := c.Param("id")
	var booking *domain.Booking
	var err error

	if req.Rating != nil {
		booking, err = h.bookingService.Rate(c.Request.Context(), bookingID, *req.Rating)
		if err != nil {
			respondError(c, err)
			return
		}
	}
	if req.Favorite != nil {
		booking, err = h.bookingService.SetFavorite(c.Request.Context(), bookingID, *req.Favorite)
		if err != nil {
			respondError(c, err)
			return
		}
	}

	respondJSON(c, http.StatusOK, bookingResponse(booking))
}

// ListUserBookings handles GET /v1/users/:id/bookings
func (h *BookingHandler) ListUserBookings(c *gin.Context) {
	bookings, err := h.bookingService.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]BookingResponse, 0, len(bookings))
	for _, b := range bookings {
		out = append(out, bookingResponse(b))
	}
	respondJSON(c, http.StatusOK, out)
}
