package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/qs-lzh/movie-booking/internal/model"
)

type reservationRepoGorm struct {
	db *gorm.DB
}

var _ ReservationRepo = (*reservationRepoGorm)(nil)

func NewReservationRepoGorm(db *gorm.DB) *reservationRepoGorm {
	return &reservationRepoGorm{
		db: db,
	}
}

func (r *reservationRepoGorm) WithTx(tx *gorm.DB) *reservationRepoGorm {
	return &reservationRepoGorm{
		db: tx,
	}
}

func (r *reservationRepoGorm) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("User").
		Preload("Showtime.Movie").
		Preload("Seats")
}

// Create inserts the reservation row and its junction rows. Associations on
// reservation are never written through.
func (r *reservationRepoGorm) Create(ctx context.Context, reservation *model.Reservation, seatIDs []uint) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(reservation).Error; err != nil {
		return translateErr(err)
	}
	links := make([]model.ReservationSeat, 0, len(seatIDs))
	for _, seatID := range seatIDs {
		links = append(links, model.ReservationSeat{ReservationID: reservation.ID, SeatID: seatID})
	}
	if len(links) == 0 {
		return nil
	}
	if err := db.Create(&links).Error; err != nil {
		return translateErr(err)
	}
	return nil
}

func (r *reservationRepoGorm) GetByID(ctx context.Context, id uint) (*model.Reservation, error) {
	var reservation model.Reservation
	if err := r.preloaded(ctx).Where("id = ?", id).First(&reservation).Error; err != nil {
		return nil, translateErr(err)
	}
	return &reservation, nil
}

func (r *reservationRepoGorm) GetByIDAndUserID(ctx context.Context, id, userID uint) (*model.Reservation, error) {
	var reservation model.Reservation
	err := r.preloaded(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&reservation).Error
	if err != nil {
		return nil, translateErr(err)
	}
	return &reservation, nil
}

func (r *reservationRepoGorm) ListActiveByUserID(ctx context.Context, userID uint) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.preloaded(ctx).
		Where("user_id = ? AND cancelled = ?", userID, false).
		Order("reserved_at DESC, id DESC").
		Find(&reservations).Error
	return reservations, translateErr(err)
}

func (r *reservationRepoGorm) ListUpcomingByUserID(ctx context.Context, userID uint, now time.Time) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.preloaded(ctx).
		Joins("JOIN showtimes ON showtimes.id = reservations.showtime_id").
		Where("reservations.user_id = ? AND reservations.cancelled = ? AND showtimes.start_at > ?", userID, false, now).
		Order("showtimes.start_at, reservations.id").
		Find(&reservations).Error
	return reservations, translateErr(err)
}

func (r *reservationRepoGorm) ListActive(ctx context.Context) ([]model.Reservation, error) {
	var reservations []model.Reservation
	err := r.preloaded(ctx).
		Where("cancelled = ?", false).
		Order("reserved_at DESC, id DESC").
		Find(&reservations).Error
	return reservations, translateErr(err)
}

// MarkCancelled relies on the row lock taken by UPDATE: a second concurrent
// cancel waits for the first to commit and then matches no row.
func (r *reservationRepoGorm) MarkCancelled(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("id = ? AND cancelled = ?", id, false).
		Update("cancelled", true)
	if res.Error != nil {
		return translateErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrAlreadyCancelled
	}
	return nil
}

func (r *reservationRepoGorm) DeleteByShowtimeID(ctx context.Context, showtimeID uint) error {
	db := r.db.WithContext(ctx)
	reservationIDs := db.Model(&model.Reservation{}).Select("id").Where("showtime_id = ?", showtimeID)
	if err := db.Where("reservation_id IN (?)", reservationIDs).Delete(&model.ReservationSeat{}).Error; err != nil {
		return translateErr(err)
	}
	if err := db.Where("showtime_id = ?", showtimeID).Delete(&model.Reservation{}).Error; err != nil {
		return translateErr(err)
	}
	return nil
}
