package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Domenick1991/frontdesk/internal/service/availability"
	"github.com/Domenick1991/frontdesk/internal/service/checkin"
	"github.com/Domenick1991/frontdesk/internal/service/listing"
	"github.com/Domenick1991/frontdesk/internal/wizard"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const checkInLockTTL = 30 * time.Second

// BookingLocker keeps two operators from checking in the same booking at once.
type BookingLocker interface {
	AcquireBookingLock(ctx context.Context, bookingID int64, action string, ttl time.Duration) (bool, error)
	ReleaseBookingLock(ctx context.Context, bookingID int64, action string) error
}

// BookingHandler serves the listing views outside the wizard. Locker and
// cache may be nil.
type BookingHandler struct {
	rooms   availability.AvailabilityUseCase
	checkIn checkin.CheckInUseCase
	listing listing.ListingUseCase
	locker  BookingLocker
	cache   wizard.Invalidator
	hotelID int64
	logger  *logrus.Logger
}

func NewBookingHandler(rooms availability.AvailabilityUseCase, checkIn checkin.CheckInUseCase, listing listing.ListingUseCase, locker BookingLocker, cache wizard.Invalidator, hotelID int64, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		rooms:   rooms,
		checkIn: checkIn,
		listing: listing,
		locker:  locker,
		cache:   cache,
		hotelID: hotelID,
		logger:  logger,
	}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.GET("/rooms/:id", h.getRoom)
	router.GET("/bookings/:id", h.getBooking)
	router.GET("/bookings/:id/currency-conversions", h.getConversions)
	router.GET("/bookings/:id/payments", h.listPayments)
	router.POST("/bookings/:id/check-in", h.checkInBooking)
}

func (h *BookingHandler) getRoom(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	room, err := h.rooms.GetRoom(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, room)
}

func (h *BookingHandler) getBooking(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	booking, err := h.listing.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

func (h *BookingHandler) getConversions(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	resp, err := h.listing.GetConversions(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *BookingHandler) listPayments(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	audits, err := h.listing.ListPayments(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking_id": id, "payments": audits})
}

func (h *BookingHandler) checkInBooking(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	if h.locker != nil {
		acquired, err := h.locker.AcquireBookingLock(ctx, id, "check-in", checkInLockTTL)
		if err != nil {
			h.logger.WithError(err).WithField("booking_id", id).Warn("Booking lock unavailable, continuing without it")
		} else if !acquired {
			c.JSON(http.StatusConflict, gin.H{"error": "check-in for this booking is already in progress"})
			return
		} else {
			defer func() {
				if err := h.locker.ReleaseBookingLock(context.WithoutCancel(ctx), id, "check-in"); err != nil {
					h.logger.WithError(err).WithField("booking_id", id).Warn("Failed to release booking lock")
				}
			}()
		}
	}

	booking, err := h.checkIn.CheckInByID(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}

	if h.cache != nil {
		keys := wizard.ContractCheckedIn.Keys(h.hotelID, id)
		if err := h.cache.Invalidate(ctx, keys...); err != nil {
			h.logger.WithError(err).WithField("booking_id", id).Warn("Cache invalidation failed")
		}
	}
	c.JSON(http.StatusOK, booking)
}
