package domain

// Step is one of the five wizard stages.
type Step int

const (
	StepRoomSelection Step = iota + 1
	StepGuestDetails
	StepConfirmation
	StepPayment
	StepCheckIn
)

func (s Step) Valid() bool {
	return s >= StepRoomSelection && s <= StepCheckIn
}

func (s Step) String() string {
	switch s {
	case StepRoomSelection:
		return "room_selection"
	case StepGuestDetails:
		return "guest_details"
	case StepConfirmation:
		return "confirmation"
	case StepPayment:
		return "payment"
	case StepCheckIn:
		return "check_in"
	default:
		return "unknown"
	}
}

// WizardState is everything the steps share. Nil means "not yet known".
type WizardState struct {
	Step           Step                  `json:"step"`
	DateRange      *DateRange            `json:"date_range"`
	SelectedRoom   *AvailableRoom        `json:"selected_room"`
	CreatedBooking *DraftBooking         `json:"created_booking"`
	BookingDetails *EnrichedBooking      `json:"booking_details"`
	LastPayload    *CreateBookingPayload `json:"last_payload"`
}

func InitialWizardState() WizardState {
	return WizardState{Step: StepRoomSelection}
}
