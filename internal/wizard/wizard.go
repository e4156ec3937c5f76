package wizard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/frontdesk/config"
	"github.com/Domenick1991/frontdesk/internal/domain"
	"github.com/Domenick1991/frontdesk/internal/kafka"
	"github.com/Domenick1991/frontdesk/internal/service/availability"
	"github.com/Domenick1991/frontdesk/internal/service/checkin"
	"github.com/Domenick1991/frontdesk/internal/service/draft"
	"github.com/Domenick1991/frontdesk/internal/service/payment"
	"github.com/Domenick1991/frontdesk/internal/service/pricing"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type HotelAPI interface {
	pricing.HotelAPI
	payment.HotelAPI
}

type CashConfirmer interface {
	Confirm(ctx context.Context, booking domain.DraftBooking, converted *domain.CurrencyConversion, input payment.CashInput) (*domain.EnrichedBooking, error)
}

type Cache interface {
	Invalidator
	pricing.Cache
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type AuditLogger interface {
	Log(ctx context.Context, audit *domain.PaymentAudit) error
}

// Dependencies are shared by every wizard. Cache, Events and Audit may be nil.
type Dependencies struct {
	HotelID      int64
	Availability availability.AvailabilityUseCase
	Drafts       draft.DraftUseCase
	Cash         CashConfirmer
	CheckIn      checkin.CheckInUseCase
	HotelAPI     HotelAPI
	Gateway      payment.Gateway
	Cache        Cache
	Events       Publisher
	EventsTopic  string
	Audit        AuditLogger
	Config       config.WizardConfig
	Logger       *logrus.Logger
}

type SearchRequest struct {
	Range      domain.DateRange `json:"range"`
	RoomTypeID int64            `json:"room_type_id,omitempty"`
}

// View is everything the front-end renders for the current step.
type View struct {
	SessionID         string                 `json:"session_id"`
	Step              domain.Step            `json:"step"`
	StepName          string                 `json:"step_name"`
	State             domain.WizardState     `json:"state"`
	Rooms             []domain.AvailableRoom `json:"rooms,omitempty"`
	Pricing           pricing.Snapshot       `json:"pricing"`
	ConvertedTotal    string                 `json:"converted_total,omitempty"`
	ConvertedCurrency string                 `json:"converted_currency,omitempty"`
	Mobile            payment.MobileSnapshot `json:"mobile"`
}

// Wizard is one operator's run through the booking flow. Operator actions are
// serialized; poll results arrive concurrently and only touch the store.
type Wizard struct {
	id      string
	deps    Dependencies
	log     *logrus.Entry
	store   *Store
	pricing *pricing.Poller
	mobile  *payment.MobilePayment

	ctx    context.Context
	cancel context.CancelFunc

	opMu       sync.Mutex
	mu         sync.Mutex
	results    *availability.SearchResult
	lastActive time.Time
	closed     bool
}

func NewWizard(ctx context.Context, id string, deps Dependencies) *Wizard {
	wctx, cancel := context.WithCancel(ctx)
	w := &Wizard{
		id:         id,
		deps:       deps,
		log:        deps.Logger.WithField("session_id", id),
		store:      NewStore(),
		ctx:        wctx,
		cancel:     cancel,
		lastActive: time.Now(),
	}

	cfg := deps.Config
	pricingOpts := []pricing.Option{
		pricing.WithInterval(cfg.ConversionPollInterval()),
		pricing.WithMaxAttempts(cfg.ConversionMaxAttempts),
		pricing.WithFailureLimit(cfg.ConversionFetchRetries),
		pricing.WithObserver(w.onPricing),
	}
	if deps.Cache != nil {
		pricingOpts = append(pricingOpts, pricing.WithCache(deps.Cache))
	}
	w.pricing = pricing.NewPoller(deps.HotelAPI, deps.Logger, pricingOpts...)
	w.mobile = payment.NewMobilePayment(deps.Gateway, deps.HotelAPI, deps.Logger,
		payment.WithPollInterval(cfg.MobilePollInterval()),
		payment.WithMaxAttempts(cfg.MobileMaxAttempts),
		payment.WithObserver(w.onMobile),
	)
	return w
}

func (w *Wizard) ID() string {
	return w.id
}

func (w *Wizard) LastActive() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastActive
}

func (w *Wizard) View() View {
	w.touch()

	w.mu.Lock()
	results := w.results
	w.mu.Unlock()

	state := w.store.State()
	v := View{
		SessionID: w.id,
		Step:      state.Step,
		StepName:  state.Step.String(),
		State:     state,
		Pricing:   w.pricing.Snapshot(),
		Mobile:    w.mobile.Snapshot(),
	}
	if results != nil && state.Step == domain.StepRoomSelection {
		v.Rooms = results.Rooms
	}
	if c := v.Pricing.Conversion; c != nil {
		v.ConvertedTotal = domain.FormatWhole(c.ConvertedAmount)
		v.ConvertedCurrency = c.ConvertedCurrency
	}
	return v
}

// Search runs the step 1 availability query. A failed search clears the
// previous results so nothing stale can be selected.
func (w *Wizard) Search(ctx context.Context, req SearchRequest) (*availability.SearchResult, error) {
	done, err := w.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	if err := w.requireStep("search rooms", domain.StepRoomSelection); err != nil {
		return nil, err
	}

	result, err := w.deps.Availability.Search(ctx, availability.SearchInput{
		HotelID:    w.deps.HotelID,
		Range:      req.Range,
		RoomTypeID: req.RoomTypeID,
	})
	w.mu.Lock()
	w.results = result
	w.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SelectRoom snapshots a room from the current results and moves to step 2.
func (w *Wizard) SelectRoom(roomID int64) (View, error) {
	done, err := w.begin()
	if err != nil {
		return View{}, err
	}
	defer done()
	if err := w.requireStep("select room", domain.StepRoomSelection); err != nil {
		return View{}, err
	}

	w.mu.Lock()
	results := w.results
	w.mu.Unlock()
	if results == nil {
		return View{}, domain.NewDomainStateError("select room", "search for rooms first")
	}

	var selected *domain.AvailableRoom
	for i := range results.Rooms {
		if results.Rooms[i].RoomID == roomID {
			selected = &results.Rooms[i]
			break
		}
	}
	if selected == nil {
		return View{}, domain.NewNotFoundError("select room", fmt.Sprintf("room %d is not in the current results", roomID))
	}

	w.store.SetSelectedRoom(*selected)
	w.store.SetDateRange(results.Query.Range)
	if err := w.store.SetStep(domain.StepGuestDetails); err != nil {
		return View{}, err
	}
	return w.View(), nil
}

// SubmitGuest creates the draft booking, or corrects guest details when the
// operator came back to step 2 after the draft already exists.
func (w *Wizard) SubmitGuest(ctx context.Context, details draft.GuestDetails) (View, error) {
	done, err := w.begin()
	if err != nil {
		return View{}, err
	}
	defer done()
	if err := w.requireStep("submit guest details", domain.StepGuestDetails); err != nil {
		return View{}, err
	}

	if existing := w.store.CreatedBooking(); existing != nil {
		if fields := fixedFieldChanges(details, w.store.LastPayload()); len(fields) > 0 {
			return View{}, domain.NewValidationError("submit guest details",
				"only guest contact details can change once the booking exists", fields)
		}
		if err := w.updateGuest(ctx, *existing, guestUpdateFrom(details)); err != nil {
			return View{}, err
		}
		if err := w.store.SetStep(domain.StepConfirmation); err != nil {
			return View{}, err
		}
		w.startPricing(existing.ID)
		return w.View(), nil
	}

	room, dates := w.store.SelectedRoom(), w.store.DateRange()
	if room == nil || dates == nil {
		return View{}, domain.NewDomainStateError("submit guest details", "select a room and dates first")
	}
	payload, err := w.deps.Drafts.BuildPayload(draft.CreateInput{
		HotelID: w.deps.HotelID,
		Room:    *room,
		Range:   *dates,
		Guest:   details,
	})
	if err != nil {
		return View{}, err
	}
	w.store.SetLastPayload(payload)

	if err := w.createDraft(ctx, payload); err != nil {
		return View{}, err
	}
	return w.View(), nil
}

// RetryDraft resubmits the last payload after a failed creation.
func (w *Wizard) RetryDraft(ctx context.Context) (View, error) {
	done, err := w.begin()
	if err != nil {
		return View{}, err
	}
	defer done()
	if err := w.requireStep("retry draft", domain.StepGuestDetails); err != nil {
		return View{}, err
	}
	if w.store.CreatedBooking() != nil {
		return View{}, domain.NewDomainStateError("retry draft", "booking was already created")
	}
	payload := w.store.LastPayload()
	if payload == nil {
		return View{}, domain.NewDomainStateError("retry draft", "nothing to retry")
	}

	if err := w.createDraft(ctx, *payload); err != nil {
		return View{}, err
	}
	return w.View(), nil
}

// UpdateGuest corrects guest details of the created booking from step 3 or 4.
func (w *Wizard) UpdateGuest(ctx context.Context, update draft.GuestUpdate) (View, error) {
	done, err := w.begin()
	if err != nil {
		return View{}, err
	}
	defer done()
	if err := w.requireStep("update guest", domain.StepConfirmation, domain.StepPayment); err != nil {
		return View{}, err
	}
	booking := w.store.CreatedBooking()
	if booking == nil {
		return View{}, domain.NewDomainStateError("update guest", "no booking has been created yet")
	}

	if err := w.updateGuest(ctx, *booking, update); err != nil {
		return View{}, err
	}
	return w.View(), nil
}

func (w *Wizard) RetryPricing() (View, error) {
	done, err := w.begin()
	if err != nil {
		return View{}, err
	}
	defer done()
	if err := w.requireStep("retry pricing", domain.StepConfirmation, domain.StepPayment); err != nil {
		return View{}, err
	}

	if err := w.pricing.Retry(w.ctx); err != nil {
		return View{}, err
	}
	return w.View(), nil
}

// ProceedToPayment moves to step 4 once the converted total is known.
func (w *Wizard) ProceedToPayment() (View, error) {
	done, err := w.begin()
	if err != nil {
		return View{}, err
	}
	defer done()
	if err := w.requireStep("proceed to payment", domain.StepConfirmation); err != nil {
		return View{}, err
	}
	if !w.pricing.Snapshot().Ready() {
		return View{}, domain.NewDomainStateError("proceed to payment", "converted total is not ready yet")
	}

	if err := w.store.SetStep(domain.StepPayment); err != nil {
		return View{}, err
	}
	return w.View(), nil
}

func (w *Wizard) ConfirmCash(ctx context.Context, input payment.CashInput) (View, error) {
	done, err := w.begin()
	if err != nil {
		return View{}, err
	}
	defer done()
	booking, err := w.paymentBooking("confirm cash payment", domain.PaymentCash)
	if err != nil {
		return View{}, err
	}

	conversion := w.pricing.Snapshot().Conversion
	amount, _ := domain.ParseAmount(input.AmountReceived)
	updated, err := w.deps.Cash.Confirm(ctx, booking, conversion, input)
	if err != nil {
		if !domain.IsKind(err, domain.KindValidation) && !domain.IsKind(err, domain.KindDomainState) {
			w.audit(domain.AuditCashFailed, booking, amount, "", err.Error())
		}
		return View{}, err
	}

	confirmed, err := w.settle(updated, true)
	if err != nil {
		return View{}, err
	}
	w.audit(domain.AuditCashConfirmed, booking, amount, "", "")
	w.publish(kafka.EventPaymentConfirmed, confirmed, amount.String())
	return w.View(), nil
}

// InitiateMobile pushes a payment prompt for the converted total to phone.
func (w *Wizard) InitiateMobile(ctx context.Context, phone string) (View, error) {
	done, err := w.begin()
	if err != nil {
		return View{}, err
	}
	defer done()
	booking, err := w.paymentBooking("initiate mobile payment", domain.PaymentMobile)
	if err != nil {
		return View{}, err
	}
	conversion := w.pricing.Snapshot().Conversion
	if conversion == nil {
		return View{}, domain.NewDomainStateError("initiate mobile payment", "converted total is not available yet")
	}

	snap, err := w.mobile.Initiate(ctx, booking, conversion.ConvertedAmount, phone)
	if err != nil {
		if snap.Status == payment.MobileFailedInitiation {
			w.audit(domain.AuditMobileRejected, booking, conversion.ConvertedAmount, "", err.Error())
		}
		return View{}, err
	}
	w.audit(domain.AuditMobileInitiated, booking, conversion.ConvertedAmount, snap.TransactionID, "")
	return w.View(), nil
}

func (w *Wizard) CheckMobile() (View, error) {
	done, err := w.begin()
	if err != nil {
		return View{}, err
	}
	defer done()
	if _, err := w.paymentBooking("check mobile payment", domain.PaymentMobile); err != nil {
		return View{}, err
	}

	if err := w.mobile.CheckNow(); err != nil {
		return View{}, err
	}
	return w.View(), nil
}

func (w *Wizard) CancelMobile() (View, error) {
	done, err := w.begin()
	if err != nil {
		return View{}, err
	}
	defer done()
	booking, err := w.paymentBooking("cancel mobile payment", domain.PaymentMobile)
	if err != nil {
		return View{}, err
	}

	snap := w.mobile.Snapshot()
	if err := w.mobile.Cancel(); err != nil {
		return View{}, err
	}
	amount, _ := decimal.NewFromString(snap.Amount)
	w.audit(domain.AuditMobileCancelled, booking, amount, snap.TransactionID, "")
	return w.View(), nil
}

// CheckIn finishes the run. On success the wizard starts over at step 1.
func (w *Wizard) CheckIn(ctx context.Context) (*domain.EnrichedBooking, error) {
	done, err := w.begin()
	if err != nil {
		return nil, err
	}
	defer done()
	if err := w.requireStep("check in", domain.StepCheckIn); err != nil {
		return nil, err
	}
	booking := w.store.CreatedBooking()
	if booking == nil {
		return nil, domain.NewDomainStateError("check in", "no booking has been created yet")
	}

	updated, err := w.deps.CheckIn.CheckIn(ctx, *booking)
	if err != nil {
		w.audit(domain.AuditCheckInRejected, *booking, decimal.Zero, "", err.Error())
		return nil, err
	}

	w.invalidate(ContractCheckedIn, booking.ID)
	w.audit(domain.AuditCheckedIn, *booking, decimal.Zero, "", "")
	w.publish(kafka.EventCheckedIn, updated.DraftBooking, "")
	w.reset()
	return updated, nil
}

// Back returns to the previous step and stops the polls the current step owns.
func (w *Wizard) Back() (View, error) {
	done, err := w.begin()
	if err != nil {
		return View{}, err
	}
	defer done()

	const op = "go back"
	switch step := w.store.Step(); step {
	case domain.StepRoomSelection:
		return View{}, domain.NewDomainStateError(op, "already at the first step")
	case domain.StepGuestDetails:
		if w.store.CreatedBooking() != nil {
			return View{}, domain.NewDomainStateError(op, "the booking was already created; cancel the wizard to pick another room")
		}
		err = w.store.SetStep(domain.StepRoomSelection)
	case domain.StepConfirmation:
		w.pricing.Stop()
		if w.paymentSettled() {
			return View{}, domain.NewDomainStateError(op, "payment is already confirmed")
		}
		err = w.store.SetStep(domain.StepGuestDetails)
	case domain.StepPayment:
		// A confirmation observed by the poll may land while Stop waits for it.
		w.mobile.Stop()
		if w.paymentSettled() {
			return View{}, domain.NewDomainStateError(op, "payment is already confirmed")
		}
		err = w.store.SetStep(domain.StepConfirmation)
	case domain.StepCheckIn:
		return View{}, domain.NewDomainStateError(op, "payment is already confirmed")
	default:
		return View{}, domain.NewDomainStateError(op, fmt.Sprintf("unknown step %d", step))
	}
	if err != nil {
		return View{}, err
	}
	return w.View(), nil
}

// Close abandons the wizard. Polls are stopped and no state changes after it
// returns.
func (w *Wizard) Close() {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.results = nil
	w.mu.Unlock()

	w.cancel()
	w.pricing.Close()
	w.mobile.Close()
	w.store.Reset()
	w.log.Info("Wizard closed")
}

func (w *Wizard) paymentSettled() bool {
	return w.store.Step() == domain.StepCheckIn || w.mobile.Snapshot().Status == payment.MobileSuccess
}

func (w *Wizard) begin() (func(), error) {
	w.opMu.Lock()
	w.mu.Lock()
	closed := w.closed
	w.lastActive = time.Now()
	w.mu.Unlock()
	if closed {
		w.opMu.Unlock()
		return nil, domain.NewDomainStateError("wizard", "wizard is closed")
	}
	return w.opMu.Unlock, nil
}

func (w *Wizard) touch() {
	w.mu.Lock()
	w.lastActive = time.Now()
	w.mu.Unlock()
}

func (w *Wizard) requireStep(op string, allowed ...domain.Step) error {
	current := w.store.Step()
	for _, s := range allowed {
		if current == s {
			return nil
		}
	}
	return domain.NewDomainStateError(op, fmt.Sprintf("not available at step %s", current))
}

// paymentBooking returns the booking if the wizard is at step 4 and the
// booking was created for the given payment method.
func (w *Wizard) paymentBooking(op string, want domain.PaymentMethod) (domain.DraftBooking, error) {
	if err := w.requireStep(op, domain.StepPayment); err != nil {
		return domain.DraftBooking{}, err
	}
	booking := w.store.CreatedBooking()
	if booking == nil {
		return domain.DraftBooking{}, domain.NewDomainStateError(op, "no booking has been created yet")
	}

	method := booking.PaymentMethod
	if method == "" {
		if p := w.store.LastPayload(); p != nil {
			method = p.PaymentMethod
		}
	}
	switch method {
	case domain.PaymentCash, domain.PaymentMobile:
		if method != want {
			return domain.DraftBooking{}, domain.NewDomainStateError(op, fmt.Sprintf("booking is paid by %s", method))
		}
		return *booking, nil
	default:
		return domain.DraftBooking{}, domain.NewDomainStateError(op, fmt.Sprintf("unsupported payment method %q", method))
	}
}

func (w *Wizard) createDraft(ctx context.Context, payload domain.CreateBookingPayload) error {
	booking, err := w.deps.Drafts.Create(ctx, payload)
	if err != nil {
		return err
	}
	if booking.PaymentMethod == "" {
		booking.PaymentMethod = payload.PaymentMethod
	}
	if booking.BookingStatus == "" {
		booking.BookingStatus = domain.BookingStatusProcessing
	}

	w.store.SetCreatedBooking(*booking)
	if err := w.store.SetStep(domain.StepConfirmation); err != nil {
		return err
	}
	w.invalidate(ContractDraftCreated, booking.ID)
	w.publish(kafka.EventDraftCreated, *booking, payload.AmountRequired)
	w.startPricing(booking.ID)
	return nil
}

func (w *Wizard) updateGuest(ctx context.Context, booking domain.DraftBooking, update draft.GuestUpdate) error {
	updated, err := w.deps.Drafts.UpdateGuest(ctx, booking.ID, update)
	if err != nil {
		return err
	}

	merged := applyGuestUpdate(booking, update).Overlay(updated.DraftBooking)
	w.store.SetCreatedBooking(merged)
	w.storeDetails(merged, updated)

	w.invalidate(ContractGuestUpdated, booking.ID)
	w.publish(kafka.EventGuestUpdated, merged, "")
	return nil
}

func (w *Wizard) startPricing(bookingID int64) {
	if err := w.pricing.Start(w.ctx, bookingID); err != nil {
		w.log.WithError(err).Warn("Failed to start conversion poll")
	}
}

// settle records a confirmed payment and moves to step 5. Called from the
// mobile poll goroutine too, so it must not wait on that poll.
func (w *Wizard) settle(updated *domain.EnrichedBooking, stopPricing bool) (domain.DraftBooking, error) {
	if stopPricing {
		w.pricing.Stop()
	}

	current := w.store.CreatedBooking()
	if current == nil {
		return domain.DraftBooking{}, domain.NewDomainStateError("confirm payment", "no booking has been created yet")
	}
	confirmed := current.Overlay(updated.DraftBooking)
	if updated.BookingStatus == "" {
		confirmed.BookingStatus = domain.BookingStatusConfirmed
	}
	w.store.SetCreatedBooking(confirmed)
	w.storeDetails(confirmed, updated)
	if err := w.store.SetStep(domain.StepCheckIn); err != nil {
		return domain.DraftBooking{}, err
	}
	w.invalidate(ContractPaymentConfirmed, confirmed.ID)
	return confirmed, nil
}

// storeDetails folds a PATCH response into the enriched copy without losing
// billing the response left out.
func (w *Wizard) storeDetails(booking domain.DraftBooking, resp *domain.EnrichedBooking) {
	details := domain.EnrichedBooking{DraftBooking: booking}
	if current := w.store.BookingDetails(); current != nil {
		details = *current
	}
	if resp != nil {
		details = details.Overlay(*resp)
	}
	details.DraftBooking = booking
	w.store.SetBookingDetails(details)
}

func (w *Wizard) reset() {
	w.pricing.Stop()
	w.mobile.Reset()
	w.store.Reset()
	w.mu.Lock()
	w.results = nil
	w.mu.Unlock()
}

func (w *Wizard) onPricing(snap pricing.Snapshot) {
	if snap.Booking != nil {
		w.store.SetBookingDetails(*snap.Booking)
	}
}

func (w *Wizard) onMobile(snap payment.MobileSnapshot) {
	switch snap.Status {
	case payment.MobileSuccess:
		if snap.Booking == nil {
			return
		}
		w.pricing.Stop()
		confirmed, err := w.settle(snap.Booking, false)
		if err != nil {
			w.log.WithError(err).Error("Failed to record mobile payment")
			return
		}
		amount, _ := decimal.NewFromString(snap.Amount)
		w.audit(domain.AuditMobileConfirmed, confirmed, amount, snap.TransactionID, "")
		w.publish(kafka.EventPaymentConfirmed, confirmed, snap.Amount)
	case payment.MobileFailedConfirmation, payment.MobileTimedOut:
		booking := w.store.CreatedBooking()
		if booking == nil {
			return
		}
		amount, _ := decimal.NewFromString(snap.Amount)
		w.audit(domain.AuditMobileUnconfirmed, *booking, amount, snap.TransactionID, snap.Error)
	}
}

func (w *Wizard) invalidate(contract Contract, bookingID int64) {
	if w.deps.Cache == nil {
		return
	}
	keys := contract.Keys(w.deps.HotelID, bookingID)
	if err := w.deps.Cache.Invalidate(w.ctx, keys...); err != nil {
		w.log.WithError(err).WithField("contract", string(contract)).Warn("Cache invalidation failed")
	}
}

func (w *Wizard) publish(eventType string, b domain.DraftBooking, amount string) {
	if w.deps.Events == nil || w.deps.EventsTopic == "" {
		return
	}
	event := kafka.WizardEvent{
		Type:          eventType,
		SessionID:     w.id,
		BookingID:     b.ID,
		BookingCode:   b.Code,
		HotelID:       w.deps.HotelID,
		RoomID:        b.RoomID,
		GuestName:     b.FullName,
		Email:         b.Email,
		Phone:         b.Phone,
		CheckIn:       b.CheckIn.String(),
		CheckOut:      b.CheckOut.String(),
		BookingStatus: string(b.BookingStatus),
		PaymentStatus: string(b.PaymentStatus),
		PaymentMethod: string(b.PaymentMethod),
		Amount:        amount,
		OccurredAt:    time.Now(),
	}
	if eventType == kafka.EventPaymentConfirmed {
		event.Currency = w.deps.Config.SettlementCurrency
	}
	if err := w.deps.Events.Publish(w.ctx, w.deps.EventsTopic, fmt.Sprintf("%d", b.ID), event); err != nil {
		w.log.WithError(err).WithField("event", eventType).Warn("Failed to publish wizard event")
	}
}

func (w *Wizard) audit(event domain.AuditEvent, b domain.DraftBooking, amount decimal.Decimal, txID, errMsg string) {
	if w.deps.Audit == nil {
		return
	}
	entry := &domain.PaymentAudit{
		SessionID:     w.id,
		BookingID:     b.ID,
		BookingCode:   b.Code,
		EventType:     event,
		Method:        b.PaymentMethod,
		Amount:        amount,
		Currency:      w.deps.Config.SettlementCurrency,
		TransactionID: txID,
		ErrorMessage:  errMsg,
	}
	if err := w.deps.Audit.Log(w.ctx, entry); err != nil {
		w.log.WithError(err).WithField("event", string(event)).Error("Failed to write payment audit")
	}
}

func guestUpdateFrom(d draft.GuestDetails) draft.GuestUpdate {
	u := draft.GuestUpdate{
		FullName: &d.FullName,
		Email:    &d.Email,
		Phone:    &d.Phone,
		Address:  &d.Address,
	}
	if d.Nationality != "" {
		u.Nationality = &d.Nationality
	}
	return u
}

// fixedFieldChanges lists the submitted fields that differ from what the draft
// was created with and that a guest correction cannot carry.
func fixedFieldChanges(d draft.GuestDetails, created *domain.CreateBookingPayload) map[string]string {
	if created == nil {
		return nil
	}
	fields := map[string]string{}
	if method, err := domain.ParsePaymentMethod(d.PaymentMethod); err != nil || method != created.PaymentMethod {
		fields["payment_method"] = fmt.Sprintf("booking was created for %s", created.PaymentMethod)
	}
	if d.NumberOfAdults != created.NumberOfAdults {
		fields["number_of_adults"] = fmt.Sprintf("booking was created for %d", created.NumberOfAdults)
	}
	if d.NumberOfChildren != created.NumberOfChildren {
		fields["number_of_children"] = fmt.Sprintf("booking was created for %d", created.NumberOfChildren)
	}
	return fields
}

func applyGuestUpdate(b domain.DraftBooking, u draft.GuestUpdate) domain.DraftBooking {
	for dst, v := range map[*string]*string{
		&b.FullName:    u.FullName,
		&b.Email:       u.Email,
		&b.Phone:       u.Phone,
		&b.Address:     u.Address,
		&b.Nationality: u.Nationality,
	} {
		if v != nil {
			*dst = *v
		}
	}
	return b
}
