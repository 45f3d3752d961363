package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs-lzh/movie-booking/internal/model"
)

const seatInsertBatchSize = 500

type seatRepoGorm struct {
	db *gorm.DB
}

var _ SeatRepo = (*seatRepoGorm)(nil)

func NewSeatRepoGorm(db *gorm.DB) *seatRepoGorm {
	return &seatRepoGorm{
		db: db,
	}
}

func (r *seatRepoGorm) WithTx(tx *gorm.DB) *seatRepoGorm {
	return &seatRepoGorm{
		db: tx,
	}
}

func (r *seatRepoGorm) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).CreateInBatches(seats, seatInsertBatchSize).Error; err != nil {
		return translateErr(err)
	}
	return nil
}

func (r *seatRepoGorm) DeleteByShowtimeID(ctx context.Context, showtimeID uint) error {
	db := r.db.WithContext(ctx)
	seatIDs := db.Model(&model.Seat{}).Select("id").Where("showtime_id = ?", showtimeID)
	if err := db.Where("seat_id IN (?)", seatIDs).Delete(&model.ReservationSeat{}).Error; err != nil {
		return translateErr(err)
	}
	if err := db.Where("showtime_id = ?", showtimeID).Delete(&model.Seat{}).Error; err != nil {
		return translateErr(err)
	}
	return nil
}

func (r *seatRepoGorm) ListByShowtimeID(ctx context.Context, showtimeID uint) ([]model.Seat, error) {
	var seats []model.Seat
	err := r.db.WithContext(ctx).Where("showtime_id = ?", showtimeID).Order("id").Find(&seats).Error
	return seats, translateErr(err)
}

func (r *seatRepoGorm) CountBooked(ctx context.Context, showtimeIDs []uint) (map[uint]int, error) {
	counts := make(map[uint]int, len(showtimeIDs))
	if len(showtimeIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		ShowtimeID uint
		Booked     int
	}
	err := r.db.WithContext(ctx).Model(&model.Seat{}).
		Select("showtime_id, COUNT(*) AS booked").
		Where("booked = ? AND showtime_id IN ?", true, showtimeIDs).
		Group("showtime_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translateErr(err)
	}
	for _, row := range rows {
		counts[row.ShowtimeID] = row.Booked
	}
	return counts, nil
}

// LockByNumbers issues SELECT ... FOR UPDATE ordered by id, so two bookings
// with overlapping seat sets always acquire row locks in the same order.
func (r *seatRepoGorm) LockByNumbers(ctx context.Context, showtimeID uint, numbers []string) ([]model.Seat, error) {
	var seats []model.Seat
	if len(numbers) == 0 {
		return seats, nil
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("showtime_id = ? AND seat_number IN ?", showtimeID, numbers).
		Order("id").
		Find(&seats).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return seats, nil
}

func (r *seatRepoGorm) SetBooked(ctx context.Context, seats []model.Seat, booked bool) error {
	db := r.db.WithContext(ctx)
	for i := range seats {
		res := db.Model(&model.Seat{}).
			Where("id = ? AND version = ?", seats[i].ID, seats[i].Version).
			Updates(map[string]any{
				"booked":  booked,
				"version": gorm.Expr("version + 1"),
			})
		if res.Error != nil {
			return translateErr(res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: seat %s", ErrStaleSeat, seats[i].SeatNumber)
		}
		seats[i].Booked = booked
		seats[i].Version++
	}
	return nil
}
