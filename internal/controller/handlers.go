package controller

import (
	"net/http"

	"github.com/Freeeeeet/bookit/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handlers struct {
	catalog      *service.CatalogService
	reservations *service.ReservationService
	promos       *service.PromoService
	logger       *zap.Logger
}

func NewHandlers(
	catalog *service.CatalogService,
	reservations *service.ReservationService,
	promos *service.PromoService,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		catalog:      catalog,
		reservations: reservations,
		promos:       promos,
		logger:       logger,
	}
}

// CreateBookingRequest тело POST /api/bookings
type CreateBookingRequest struct {
	ExperienceID string  `json:"experienceId" binding:"required"`
	UserName     string  `json:"userName"`
	UserEmail    string  `json:"userEmail"`
	Date         string  `json:"date" binding:"required"`
	Time         string  `json:"time" binding:"required"`
	Quantity     int     `json:"quantity"`
	TotalPrice   float64 `json:"totalPrice"`
}

// ValidatePromoRequest subtotal необязателен: если задан, в ответе будет расчёт скидки
type ValidatePromoRequest struct {
	PromoCode string  `json:"promoCode"`
	Subtotal  float64 `json:"subtotal" binding:"gte=0"`
}

// ListExperiences GET /api/experiences
func (h *Handlers) ListExperiences(c *gin.Context) {
	experiences, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list experiences", zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, messageBody(msgServerError))
		return
	}

	c.JSON(http.StatusOK, experiences)
}

// GetExperience GET /api/experiences/:id
func (h *Handlers) GetExperience(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, messageBody(msgExperienceNotFound))
		return
	}

	exp, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		status, body := experienceError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Failed to get experience", zap.String("experience_id", id.String()), zap.Error(err))
			_ = c.Error(err)
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, exp)
}

// CreateBooking POST /api/bookings
func (h *Handlers) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, messageBody(msgInvalidBookingRequest))
		return
	}

	// неразбираемый id не может принадлежать ни одному experience
	experienceID, err := uuid.Parse(req.ExperienceID)
	if err != nil {
		c.JSON(http.StatusNotFound, messageBody(msgExperienceNotFound))
		return
	}

	booking, err := h.reservations.Book(c.Request.Context(), service.BookingRequest{
		ExperienceID: experienceID,
		UserName:     req.UserName,
		UserEmail:    req.UserEmail,
		Date:         req.Date,
		Time:         req.Time,
		Quantity:     req.Quantity,
		TotalPrice:   req.TotalPrice,
	})
	if err != nil {
		status, body := bookingError(err)
		if status >= http.StatusInternalServerError {
			_ = c.Error(err)
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusCreated, booking)
}

// GetBooking GET /api/bookings/:ref
func (h *Handlers) GetBooking(c *gin.Context) {
	booking, err := h.reservations.GetBooking(c.Request.Context(), c.Param("ref"))
	if err != nil {
		status, body := lookupError(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Failed to get booking", zap.String("booking_ref", c.Param("ref")), zap.Error(err))
			_ = c.Error(err)
		}
		c.JSON(status, body)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ValidatePromo POST /api/promo/validate
func (h *Handlers) ValidatePromo(c *gin.Context) {
	var req ValidatePromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"isValid": false, "message": msgInvalidPromoRequest})
		return
	}

	discount, err := h.promos.Validate(req.PromoCode)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"isValid": false, "message": msgInvalidPromo})
		return
	}

	body := gin.H{
		"isValid":  true,
		"code":     req.PromoCode,
		"discount": discount,
	}
	if req.Subtotal > 0 {
		amount := discount.Apply(req.Subtotal)
		body["discountAmount"] = amount
		body["total"] = req.Subtotal - amount
	}

	c.JSON(http.StatusOK, body)
}
