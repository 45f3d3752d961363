package repository

import (
	"context"
	"errors"
	"time"

	"github.com/qs-lzh/movie-booking/internal/model"
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrDuplicate        = errors.New("duplicate record")
	ErrStaleSeat        = errors.New("seat version changed")
	ErrLockTimeout      = errors.New("seat lock wait failed")
	ErrAlreadyCancelled = errors.New("reservation already cancelled")
)

type MovieRepo interface {
	Create(ctx context.Context, movie *model.Movie) error
	Update(ctx context.Context, movie *model.Movie) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*model.Movie, error)
	ListAll(ctx context.Context) ([]model.Movie, error)
}

// ShowtimeRepo returns showtimes with their Movie populated.
type ShowtimeRepo interface {
	Create(ctx context.Context, showtime *model.Showtime) error
	Update(ctx context.Context, showtime *model.Showtime) error
	Delete(ctx context.Context, id uint) error
	GetByID(ctx context.Context, id uint) (*model.Showtime, error)
	ListByMovieID(ctx context.Context, movieID uint) ([]model.Showtime, error)
	ListByMovieIDBetween(ctx context.Context, movieID uint, from, to time.Time) ([]model.Showtime, error)
	ListStartingAfter(ctx context.Context, t time.Time) ([]model.Showtime, error)
	ListAll(ctx context.Context) ([]model.Showtime, error)
}

type SeatRepo interface {
	CreateBulk(ctx context.Context, seats []model.Seat) error
	// DeleteByShowtimeID removes every seat of the showtime and unlinks them
	// from any reservation that referenced them.
	DeleteByShowtimeID(ctx context.Context, showtimeID uint) error
	ListByShowtimeID(ctx context.Context, showtimeID uint) ([]model.Seat, error)
	CountBooked(ctx context.Context, showtimeIDs []uint) (map[uint]int, error)

	// LockByNumbers selects and exclusively locks the seats of one showtime
	// matching numbers, in a single statement, until the enclosing
	// transaction ends. Missing numbers are simply absent from the result.
	LockByNumbers(ctx context.Context, showtimeID uint, numbers []string) ([]model.Seat, error)

	// SetBooked writes the booked flag of every seat, compare-and-swapping on
	// Version. A mismatch returns ErrStaleSeat. On success the versions in
	// seats are advanced.
	SetBooked(ctx context.Context, seats []model.Seat, booked bool) error
}

// ReservationRepo returns reservations with User, Showtime.Movie and Seats
// populated.
type ReservationRepo interface {
	Create(ctx context.Context, reservation *model.Reservation, seatIDs []uint) error
	GetByID(ctx context.Context, id uint) (*model.Reservation, error)
	GetByIDAndUserID(ctx context.Context, id, userID uint) (*model.Reservation, error)
	ListActiveByUserID(ctx context.Context, userID uint) ([]model.Reservation, error)
	ListUpcomingByUserID(ctx context.Context, userID uint, now time.Time) ([]model.Reservation, error)
	ListActive(ctx context.Context) ([]model.Reservation, error)
	// MarkCancelled flips an active reservation to cancelled. It returns
	// ErrAlreadyCancelled when a concurrent cancel got there first.
	MarkCancelled(ctx context.Context, id uint) error
	DeleteByShowtimeID(ctx context.Context, showtimeID uint) error
}

type UserRepo interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id uint) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// Repos is one consistent set of repositories, either bound to a
// transaction or to the plain connection.
type Repos struct {
	Movies       MovieRepo
	Showtimes    ShowtimeRepo
	Seats        SeatRepo
	Reservations ReservationRepo
	Users        UserRepo
}

// Store hands out repositories. WithinTx runs fn inside one scoped
// transaction: every write commits if fn returns nil and rolls back
// otherwise, and all locks taken inside are released before it returns.
type Store interface {
	Repos() Repos
	WithinTx(ctx context.Context, fn func(repos Repos) error) error
}
