package mq

import "time"

// Queue names and message definitions

// immediate queue from the reservation engine to notification consumers
// delivered after a booking commits
const (
	ReservationBookedQueue = "reservation.booked.immediate"
)

type ReservationBookedMessage struct {
	ReservationID uint      `json:"reservation_id"`
	UserID        uint      `json:"user_id"`
	ShowtimeID    uint      `json:"showtime_id"`
	MovieTitle    string    `json:"movie_title"`
	SeatNumbers   []string  `json:"seat_numbers"`
	TotalPrice    float64   `json:"total_price"`
	BookedAt      time.Time `json:"booked_at"`
}

// immediate queue from the reservation engine to notification consumers
// delivered after a cancellation commits
const (
	ReservationCancelledQueue = "reservation.cancelled.immediate"
)

type ReservationCancelledMessage struct {
	ReservationID uint     `json:"reservation_id"`
	UserID        uint     `json:"user_id"`
	ShowtimeID    uint     `json:"showtime_id"`
	SeatNumbers   []string `json:"seat_numbers"`
}
