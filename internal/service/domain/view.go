package domain

import (
	"time"

	"github.com/qs-lzh/movie-booking/internal/model"
)

type ReservationView struct {
	ID                   uint      `json:"id"`
	UserID               uint      `json:"userId"`
	UserName             string    `json:"userName"`
	ShowtimeID           uint      `json:"showtimeId"`
	MovieTitle           string    `json:"movieTitle"`
	ShowtimeStart        time.Time `json:"showtimeStart"`
	ShowtimeEnd          time.Time `json:"showtimeEnd"`
	SeatNumbers          []string  `json:"seatNumbers"`
	ReservationTimestamp time.Time `json:"reservationTimestamp"`
	TotalPrice           float64   `json:"totalPrice"`
	Cancelled            bool      `json:"cancelled"`
}

// NewReservationView expects User, Showtime.Movie and Seats to be populated.
func NewReservationView(r *model.Reservation) ReservationView {
	numbers := make([]string, 0, len(r.Seats))
	for _, seat := range r.Seats {
		numbers = append(numbers, seat.SeatNumber)
	}
	SortSeatNumbers(numbers)
	return ReservationView{
		ID:                   r.ID,
		UserID:               r.UserID,
		UserName:             r.User.Name,
		ShowtimeID:           r.ShowtimeID,
		MovieTitle:           r.Showtime.Movie.Title,
		ShowtimeStart:        r.Showtime.StartAt,
		ShowtimeEnd:          r.Showtime.EndAt,
		SeatNumbers:          numbers,
		ReservationTimestamp: r.ReservedAt,
		TotalPrice:           r.TotalPrice,
		Cancelled:            r.Cancelled,
	}
}

func newReservationViews(reservations []model.Reservation) []ReservationView {
	views := make([]ReservationView, 0, len(reservations))
	for i := range reservations {
		views = append(views, NewReservationView(&reservations[i]))
	}
	return views
}

type SeatView struct {
	ID         uint   `json:"id"`
	SeatNumber string `json:"seatNumber"`
	Booked     bool   `json:"booked"`
}

type ShowtimeView struct {
	ID             uint      `json:"id"`
	MovieID        uint      `json:"movieId"`
	MovieTitle     string    `json:"movieTitle"`
	StartTime      time.Time `json:"startTime"`
	EndTime        time.Time `json:"endTime"`
	TotalSeats     int       `json:"totalSeats"`
	AvailableSeats int       `json:"availableSeats"`
}

// NewShowtimeView derives availableSeats from the booked count at read time.
func NewShowtimeView(st *model.Showtime, booked int) ShowtimeView {
	return ShowtimeView{
		ID:             st.ID,
		MovieID:        st.MovieID,
		MovieTitle:     st.Movie.Title,
		StartTime:      st.StartAt,
		EndTime:        st.EndAt,
		TotalSeats:     st.TotalSeats,
		AvailableSeats: st.TotalSeats - booked,
	}
}
