package domain

import "github.com/shopspring/decimal"

type DayStatus string

const (
	DayAvailable   DayStatus = "Available"
	DayBooked      DayStatus = "Booked"
	DayMaintenance DayStatus = "Maintenance"
)

type DayAvailability struct {
	Date   Date      `json:"date"`
	Status DayStatus `json:"status"`
}

// AvailableRoom is a point-in-time snapshot from an availability query.
type AvailableRoom struct {
	RoomID        int64             `json:"room_id"`
	RoomCode      string            `json:"room_code"`
	RoomTypeID    int64             `json:"room_type_id"`
	RoomTypeName  string            `json:"room_type_name"`
	BedType       string            `json:"bed_type"`
	PricePerNight decimal.Decimal   `json:"price_per_night"`
	Availability  []DayAvailability `json:"availability"`
}

// FullyAvailable reports whether every day in the snapshot is Available.
func (r AvailableRoom) FullyAvailable() bool {
	for _, day := range r.Availability {
		if day.Status != DayAvailable {
			return false
		}
	}
	return true
}

// Clone returns a copy that shares no slices with r.
func (r AvailableRoom) Clone() AvailableRoom {
	out := r
	out.Availability = append([]DayAvailability(nil), r.Availability...)
	return out
}

func FilterFullyAvailable(rooms []AvailableRoom) []AvailableRoom {
	out := make([]AvailableRoom, 0, len(rooms))
	for _, room := range rooms {
		if room.FullyAvailable() {
			out = append(out, room)
		}
	}
	return out
}

type AvailabilityRangeResponse struct {
	HotelID   int64           `json:"hotel_id"`
	StartDate Date            `json:"start_date"`
	EndDate   Date            `json:"end_date"`
	Rooms     []AvailableRoom `json:"rooms"`
}

type RoomType struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	BedType       string          `json:"bed_type"`
	MaxOccupancy  int             `json:"max_occupancy"`
	PricePerNight decimal.Decimal `json:"price_per_night"`
}

// DetailedRoom backs a single room card.
type DetailedRoom struct {
	ID          int64    `json:"id"`
	Code        string   `json:"code"`
	Floor       string   `json:"floor"`
	Status      string   `json:"status"`
	Description string   `json:"description"`
	RoomType    RoomType `json:"room_type"`
	Amenities   []string `json:"amenities"`
	Images      []string `json:"images"`
}
