package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func roomWith(id int64, statuses ...DayStatus) AvailableRoom {
	start := NewDate(2025, time.June, 1)
	room := AvailableRoom{RoomID: id, RoomCode: "R", PricePerNight: decimal.NewFromInt(100)}
	for i, s := range statuses {
		room.Availability = append(room.Availability, DayAvailability{Date: start.AddDays(i), Status: s})
	}
	return room
}

func TestAvailableRoom_FullyAvailable(t *testing.T) {
	assert.True(t, roomWith(1, DayAvailable, DayAvailable, DayAvailable).FullyAvailable())
	assert.False(t, roomWith(2, DayAvailable, DayBooked, DayAvailable).FullyAvailable())
	assert.False(t, roomWith(3, DayMaintenance).FullyAvailable())
	assert.True(t, roomWith(4).FullyAvailable())
}

func TestFilterFullyAvailable(t *testing.T) {
	rooms := []AvailableRoom{
		roomWith(1, DayAvailable, DayAvailable, DayAvailable),
		roomWith(2, DayAvailable, DayBooked, DayAvailable),
		roomWith(3, DayAvailable, DayAvailable, DayMaintenance),
	}

	got := FilterFullyAvailable(rooms)

	assert.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0].RoomID)
}

func TestAvailableRoom_Clone(t *testing.T) {
	room := roomWith(1, DayAvailable)
	clone := room.Clone()
	clone.Availability[0].Status = DayBooked

	assert.Equal(t, DayAvailable, room.Availability[0].Status)
}
