package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/qs-lzh/movie-booking/internal/model"
)

func OpenPostgres(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
}

// Migrate registers the reservation_seats junction model and creates or
// updates every table.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&model.Reservation{}, "Seats", &model.ReservationSeat{}); err != nil {
		return err
	}
	return db.AutoMigrate(
		&model.User{},
		&model.Movie{},
		&model.Showtime{},
		&model.Seat{},
		&model.Reservation{},
		&model.ReservationSeat{},
	)
}

type GormStore struct {
	db          *gorm.DB
	lockTimeout time.Duration

	movies       *movieRepoGorm
	showtimes    *showtimeRepoGorm
	seats        *seatRepoGorm
	reservations *reservationRepoGorm
	users        *userRepoGorm
}

var _ Store = (*GormStore)(nil)

// NewGormStore returns a Store over db. A positive lockTimeout is applied to
// every transaction with SET LOCAL lock_timeout.
func NewGormStore(db *gorm.DB, lockTimeout time.Duration) *GormStore {
	return &GormStore{
		db:           db,
		lockTimeout:  lockTimeout,
		movies:       NewMovieRepoGorm(db),
		showtimes:    NewShowtimeRepoGorm(db),
		seats:        NewSeatRepoGorm(db),
		reservations: NewReservationRepoGorm(db),
		users:        NewUserRepoGorm(db),
	}
}

func (s *GormStore) DB() *gorm.DB {
	return s.db
}

func (s *GormStore) Repos() Repos {
	return Repos{
		Movies:       s.movies,
		Showtimes:    s.showtimes,
		Seats:        s.seats,
		Reservations: s.reservations,
		Users:        s.users,
	}
}

// lockTimeoutStatement rounds d up to whole milliseconds; postgres reads
// '0ms' as no timeout at all.
func lockTimeoutStatement(d time.Duration) string {
	ms := (d + time.Millisecond - 1) / time.Millisecond
	return fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", ms)
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(repos Repos) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.lockTimeout > 0 {
			if err := tx.Exec(lockTimeoutStatement(s.lockTimeout)).Error; err != nil {
				return err
			}
		}
		return fn(Repos{
			Movies:       s.movies.WithTx(tx),
			Showtimes:    s.showtimes.WithTx(tx),
			Seats:        s.seats.WithTx(tx),
			Reservations: s.reservations.WithTx(tx),
			Users:        s.users.WithTx(tx),
		})
	})
	return translateErr(err)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
