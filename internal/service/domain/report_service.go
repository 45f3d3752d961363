package domain

import (
	"context"
	"sort"
	"time"

	"github.com/qs-lzh/movie-booking/internal/repository"
)

type MovieRevenue struct {
	MovieID          uint    `json:"movieId"`
	MovieTitle       string  `json:"movieTitle"`
	ReservationCount int     `json:"reservationCount"`
	Revenue          float64 `json:"revenue"`
}

type ShowtimeOccupancy struct {
	ShowtimeID          uint      `json:"showtimeId"`
	MovieTitle          string    `json:"movieTitle"`
	StartTime           time.Time `json:"startTime"`
	TotalSeats          int       `json:"totalSeats"`
	BookedSeats         int       `json:"bookedSeats"`
	OccupancyPercentage float64   `json:"occupancyPercentage"`
}

type Report struct {
	TotalReservations int                 `json:"totalReservations"`
	TotalRevenue      float64             `json:"totalRevenue"`
	RevenueByMovie    []MovieRevenue      `json:"revenueByMovie"`
	OccupancyByShow   []ShowtimeOccupancy `json:"occupancyByShowtime"`
}

type ReportService interface {
	GenerateReport(ctx context.Context) (*Report, error)
}

type reportService struct {
	store repository.Store
}

var _ ReportService = (*reportService)(nil)

func NewReportService(store repository.Store) *reportService {
	return &reportService{store: store}
}

// GenerateReport aggregates active reservations only.
func (s *reportService) GenerateReport(ctx context.Context) (*Report, error) {
	repos := s.store.Repos()
	reservations, err := repos.Reservations.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	showtimes, err := repos.Showtimes.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{
		RevenueByMovie:  []MovieRevenue{},
		OccupancyByShow: make([]ShowtimeOccupancy, 0, len(showtimes)),
	}
	byMovie := make(map[uint]*MovieRevenue)
	bookedByShowtime := make(map[uint]int)
	for _, r := range reservations {
		report.TotalReservations++
		report.TotalRevenue += r.TotalPrice
		bookedByShowtime[r.ShowtimeID] += len(r.Seats)

		movie := r.Showtime.Movie
		rev, ok := byMovie[movie.ID]
		if !ok {
			rev = &MovieRevenue{MovieID: movie.ID, MovieTitle: movie.Title}
			byMovie[movie.ID] = rev
		}
		rev.ReservationCount++
		rev.Revenue += r.TotalPrice
	}
	for _, rev := range byMovie {
		report.RevenueByMovie = append(report.RevenueByMovie, *rev)
	}
	sort.Slice(report.RevenueByMovie, func(i, j int) bool {
		return report.RevenueByMovie[i].MovieID < report.RevenueByMovie[j].MovieID
	})

	for _, st := range showtimes {
		booked := bookedByShowtime[st.ID]
		occupancy := 0.0
		if st.TotalSeats > 0 {
			occupancy = float64(booked) / float64(st.TotalSeats) * 100
		}
		report.OccupancyByShow = append(report.OccupancyByShow, ShowtimeOccupancy{
			ShowtimeID:          st.ID,
			MovieTitle:          st.Movie.Title,
			StartTime:           st.StartAt,
			TotalSeats:          st.TotalSeats,
			BookedSeats:         booked,
			OccupancyPercentage: occupancy,
		})
	}
	return report, nil
}
