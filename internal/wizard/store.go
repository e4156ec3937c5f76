package wizard

import (
	"fmt"
	"sync"

	"github.com/Domenick1991/frontdesk/internal/domain"
)

// Store holds the state shared by the five wizard steps. Each wizard owns
// exactly one. Concurrent writers are allowed; the last write wins.
type Store struct {
	mu    sync.RWMutex
	state domain.WizardState
}

func NewStore() *Store {
	return &Store{state: domain.InitialWizardState()}
}

// State returns a copy. Pointed-to values are replaced on write, never mutated.
func (s *Store) State() domain.WizardState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Step() domain.Step {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Step
}

func (s *Store) DateRange() *domain.DateRange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.DateRange
}

func (s *Store) SelectedRoom() *domain.AvailableRoom {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SelectedRoom
}

func (s *Store) CreatedBooking() *domain.DraftBooking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CreatedBooking
}

func (s *Store) BookingDetails() *domain.EnrichedBooking {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.BookingDetails
}

func (s *Store) LastPayload() *domain.CreateBookingPayload {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.LastPayload
}

func (s *Store) SetDateRange(r domain.DateRange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.DateRange = &r
}

// SetSelectedRoom stores a private copy so later searches cannot change it.
func (s *Store) SetSelectedRoom(room domain.AvailableRoom) {
	snapshot := room.Clone()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectedRoom = &snapshot
}

func (s *Store) SetCreatedBooking(b domain.DraftBooking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CreatedBooking = &b
}

func (s *Store) SetBookingDetails(b domain.EnrichedBooking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.BookingDetails = &b
}

func (s *Store) SetLastPayload(p domain.CreateBookingPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastPayload = &p
}

// SetStep moves to step if its preconditions hold. On failure the step is
// left unchanged.
func (s *Store) SetStep(step domain.Step) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := checkStep(s.state, step); err != nil {
		return err
	}
	s.state.Step = step
	return nil
}

func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = domain.InitialWizardState()
}

func checkStep(state domain.WizardState, step domain.Step) error {
	const op = "set step"
	switch step {
	case domain.StepRoomSelection:
		return nil
	case domain.StepGuestDetails:
		if state.SelectedRoom == nil || state.DateRange == nil {
			return domain.NewDomainStateError(op, "select a room and dates first")
		}
		return nil
	case domain.StepConfirmation, domain.StepPayment:
		if state.CreatedBooking == nil {
			return domain.NewDomainStateError(op, "no booking has been created yet")
		}
		return nil
	case domain.StepCheckIn:
		if state.CreatedBooking == nil || state.CreatedBooking.BookingStatus != domain.BookingStatusConfirmed {
			return domain.NewDomainStateError(op, "booking is not confirmed yet")
		}
		return nil
	default:
		return domain.NewDomainStateError(op, fmt.Sprintf("unknown step %d", step))
	}
}
