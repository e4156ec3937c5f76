package api

import (
	"net/http"
	"strconv"

	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/Domenick1991/frontdesk/internal/service/draft"
	"github.com/Domenick1991/frontdesk/internal/service/payment"
	"github.com/Domenick1991/frontdesk/internal/wizard"
	"github.com/gin-gonic/gin"
)

type WizardHandler struct {
	manager     wizard.ManagerUseCase
	pushLimiter gin.HandlerFunc
}

type searchRequest struct {
	StartDate  domain.Date `json:"start_date"`
	EndDate    domain.Date `json:"end_date"`
	RoomTypeID int64       `json:"room_type_id"`
}

type selectRoomRequest struct {
	RoomID int64 `json:"room_id"`
}

type mobilePaymentRequest struct {
	Phone string `json:"phone_number"`
}

type searchResponse struct {
	Rooms   []domain.AvailableRoom `json:"rooms"`
	Scanned int                    `json:"scanned"`
	View    wizard.View            `json:"view"`
}

type checkInResponse struct {
	Booking *domain.EnrichedBooking `json:"booking"`
	View    wizard.View             `json:"view"`
}

// NewWizardHandler serves the wizard steps. pushLimiter guards mobile payment
// initiation and may be nil.
func NewWizardHandler(manager wizard.ManagerUseCase, pushLimiter gin.HandlerFunc) *WizardHandler {
	return &WizardHandler{manager: manager, pushLimiter: pushLimiter}
}

func (h *WizardHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/:id", h.view)
	router.DELETE("/:id", h.close)

	router.POST("/:id/search", h.search)
	router.POST("/:id/select", h.selectRoom)
	router.POST("/:id/guest", h.submitGuest)
	router.PATCH("/:id/guest", h.updateGuest)
	router.POST("/:id/draft/retry", h.retryDraft)
	router.POST("/:id/pricing/retry", h.retryPricing)
	router.POST("/:id/proceed", h.proceed)
	router.POST("/:id/payment/cash", h.confirmCash)

	mobile := []gin.HandlerFunc{h.initiateMobile}
	if h.pushLimiter != nil {
		mobile = append([]gin.HandlerFunc{h.pushLimiter}, mobile...)
	}
	router.POST("/:id/payment/mobile", mobile...)
	router.POST("/:id/payment/mobile/check", h.checkMobile)
	router.POST("/:id/payment/mobile/cancel", h.cancelMobile)

	router.POST("/:id/checkin", h.checkIn)
	router.POST("/:id/back", h.back)
}

func (h *WizardHandler) wizard(c *gin.Context) (*wizard.Wizard, bool) {
	w, err := h.manager.Get(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return w, true
}

// respond writes the view of a successful action or the action's error.
func respond(c *gin.Context, view wizard.View, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *WizardHandler) create(c *gin.Context) {
	w := h.manager.Create()
	c.JSON(http.StatusCreated, w.View())
}

func (h *WizardHandler) view(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, w.View())
}

func (h *WizardHandler) close(c *gin.Context) {
	if err := h.manager.Close(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WizardHandler) search(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	result, err := w.Search(c.Request.Context(), wizard.SearchRequest{
		Range:      domain.DateRange{Start: req.StartDate, End: req.EndDate},
		RoomTypeID: req.RoomTypeID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, searchResponse{Rooms: result.Rooms, Scanned: result.Scanned, View: w.View()})
}

func (h *WizardHandler) selectRoom(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	var req selectRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	view, err := w.SelectRoom(req.RoomID)
	respond(c, view, err)
}

func (h *WizardHandler) submitGuest(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	var req draft.GuestDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	view, err := w.SubmitGuest(c.Request.Context(), req)
	respond(c, view, err)
}

func (h *WizardHandler) updateGuest(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	var req draft.GuestUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	view, err := w.UpdateGuest(c.Request.Context(), req)
	respond(c, view, err)
}

func (h *WizardHandler) retryDraft(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	view, err := w.RetryDraft(c.Request.Context())
	respond(c, view, err)
}

func (h *WizardHandler) retryPricing(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	view, err := w.RetryPricing()
	respond(c, view, err)
}

func (h *WizardHandler) proceed(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	view, err := w.ProceedToPayment()
	respond(c, view, err)
}

func (h *WizardHandler) confirmCash(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	var req payment.CashInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	view, err := w.ConfirmCash(c.Request.Context(), req)
	respond(c, view, err)
}

func (h *WizardHandler) initiateMobile(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	var req mobilePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	view, err := w.InitiateMobile(c.Request.Context(), req.Phone)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, view)
}

func (h *WizardHandler) checkMobile(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	view, err := w.CheckMobile()
	respond(c, view, err)
}

func (h *WizardHandler) cancelMobile(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	view, err := w.CancelMobile()
	respond(c, view, err)
}

func (h *WizardHandler) checkIn(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	booking, err := w.CheckIn(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, checkInResponse{Booking: booking, View: w.View()})
}

func (h *WizardHandler) back(c *gin.Context) {
	w, ok := h.wizard(c)
	if !ok {
		return
	}
	view, err := w.Back()
	respond(c, view, err)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
